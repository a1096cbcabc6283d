package server

import (
	"log"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"pdfchat/app/agent"
	"pdfchat/app/api"
	"pdfchat/history"
	"pdfchat/loader"
	"pdfchat/model"
	"pdfchat/pipeline"
	"pdfchat/splitter"
	"pdfchat/store"
	"pdfchat/types"
)

var config = fiber.Config{
	ErrorHandler: api.ErrorHandler,
}

type Server struct {
	cfg    types.Config
	logger *slog.Logger
}

func NewServer(cfg types.Config) *Server {
	return &Server{
		cfg:    cfg,
		logger: slog.Default(),
	}
}

func (s *Server) Stop() {
	s.logger.Info("server stopped")
}

func (s *Server) Run() {
	embedder := model.NewOllamaEmbedder(s.cfg.OllamaURL, s.cfg.EmbedModel)
	llm := model.NewOllamaChat(s.cfg.OllamaURL, s.cfg.ChatModel)

	vectorStore, err := store.NewChromemStore(s.cfg.IndexDir, embedder)
	if err != nil {
		log.Fatal("error opening vector store: ", err)
		return
	}

	deps := pipeline.Deps{
		Load:     loader.Load,
		Splitter: splitter.New(s.cfg.ChunkSize, s.cfg.ChunkOverlap),
		Store:    vectorStore,
		Agent:    agent.New(llm),
		Detector: model.NewWhatlangDetector(),
	}

	var (
		app          = fiber.New(config)
		checkHandler = api.NewCheckHandler()
		docHandler   = api.NewDocHandler(s.cfg, deps, history.New())
	)

	app.Use(cors.New())

	app.Get("/check/healthy", checkHandler.HandleHealthy)
	app.Post("/upload", docHandler.HandleUpload)
	app.Post("/chat", docHandler.HandleChat)
	app.Post("/clear_history", docHandler.HandleClearHistory)

	s.logger.Info("server listening", "addr", s.cfg.ServerAddr)
	if err := app.Listen(s.cfg.ServerAddr); err != nil {
		s.logger.Error("error to start server", "error", err.Error())
		return
	}
}
