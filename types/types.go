package types

import (
	"os"
	"strconv"

	"github.com/google/uuid"
)

// Segment is one unit of extracted text as produced by the loader,
// before chunking. A PDF yields one segment per page, DOCX and TXT
// a single segment for the whole file.
type Segment struct {
	Content string
	Source  string
	Page    int
}

// Chunk is a bounded text window derived from a Segment. Chunks are
// immutable once created; the embedding lives in the vector store,
// Similarity is only populated on retrieval results.
type Chunk struct {
	ID         uuid.UUID
	Index      int
	Content    string
	Source     string
	Page       int
	Similarity float32
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Turn is a single conversation entry in the session transcript.
type Turn struct {
	Role    Role
	Content string
}

type Config struct {
	ServerAddr   string
	OllamaURL    string
	EmbedModel   string
	ChatModel    string
	UploadDir    string
	IndexDir     string
	ChunkSize    int
	ChunkOverlap int
	TopK         int
}

func LoadConfig() Config {
	return Config{
		ServerAddr:   envStr("SERVER_ADDR", ":8000"),
		OllamaURL:    envStr("OLLAMA_URL", "http://localhost:11434"),
		EmbedModel:   envStr("OLLAMA_EMBEDDING_MODEL", "all-minilm"),
		ChatModel:    envStr("LLM_MODEL", "mistral:latest"),
		UploadDir:    envStr("UPLOAD_DIR", "data/uploads"),
		IndexDir:     envStr("INDEX_DIR", "data/chroma_store"),
		ChunkSize:    envInt("CHUNK_SIZE", 1000),
		ChunkOverlap: envInt("CHUNK_OVERLAP", 200),
		TopK:         envInt("TOP_K", 3),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
