package api

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofiber/fiber/v2"

	"pdfchat/history"
	"pdfchat/loader"
	"pdfchat/pipeline"
	"pdfchat/types"
)

// DocHandler serves the three document-chat endpoints. It owns the two
// pieces of process-wide state the pipeline produces: the current chain
// and the shared transcript. The RWMutex makes an upload atomic with
// respect to concurrent chats and other uploads: upload holds the write
// lock across processing and swap, chat holds the read lock across the
// whole ask.
type DocHandler struct {
	cfg     types.Config
	deps    pipeline.Deps
	history *history.History

	mu    sync.RWMutex
	chain *pipeline.Chain
}

func NewDocHandler(cfg types.Config, deps pipeline.Deps, hist *history.History) *DocHandler {
	return &DocHandler{
		cfg:     cfg,
		deps:    deps,
		history: hist,
	}
}

// HandleUpload saves the multipart file under the uploads directory
// (same name overwrites) and rebuilds the pipeline from it. An
// unsupported extension is reported in-band with HTTP 200 and leaves
// the previous chain and index untouched.
func (h *DocHandler) HandleUpload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return ErrBadRequest()
	}
	log.Printf("[UPLOAD] received file: %s", fileHeader.Filename)

	if err := os.MkdirAll(h.cfg.UploadDir, 0755); err != nil {
		return err
	}
	path := filepath.Join(h.cfg.UploadDir, fileHeader.Filename)
	if err := c.SaveFile(fileHeader, path); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	chain, stats, err := pipeline.Process(c.UserContext(), h.cfg, h.deps, path, fileHeader.Filename, h.history)
	if err != nil {
		if errors.Is(err, loader.ErrUnsupportedFormat) {
			return c.JSON(types.UploadResponse{Error: err.Error()})
		}
		return err
	}
	h.chain = chain

	log.Printf("[UPLOAD] pipeline ready, chunks: %d, retriever docs: %d", stats.ChunkCount, stats.RetrievedDocs)
	return c.JSON(types.UploadResponse{
		Message: fmt.Sprintf("Archivo %s cargado y procesado exitosamente", fileHeader.Filename),
	})
}

// HandleChat answers a question against the current document. Before
// any upload there is no chain, which is reported in-band without
// touching the model.
func (h *DocHandler) HandleChat(c *fiber.Ctx) error {
	params := types.ChatParams{
		Question:  c.FormValue("question"),
		SessionID: c.FormValue("session_id"),
	}
	if errors := types.Validate(&params); len(errors) > 0 {
		return NewValidationError(errors)
	}
	log.Printf("[CHAT] question received: %s", params.Question)

	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.chain == nil {
		log.Println("[CHAT] no chain loaded yet")
		return c.JSON(types.ChatResponse{Error: "Primero subí un documento."})
	}

	answer, err := h.chain.Ask(c.UserContext(), params.Question)
	if err != nil {
		return err
	}

	return c.JSON(types.ChatResponse{Answer: answer})
}

// HandleClearHistory wipes the session transcript. Always succeeds.
func (h *DocHandler) HandleClearHistory(c *fiber.Ctx) error {
	h.history.Clear()
	log.Println("[CHAT] history cleared")
	return c.JSON(types.UploadResponse{Message: "Historial del chat eliminado"})
}
