// Package store persists chunk embeddings in an embedded chromem-go
// database under a fixed on-disk directory and serves top-k similarity
// retrieval over them.
package store

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime"
	"strconv"

	chromem "github.com/philippgille/chromem-go"

	"pdfchat/model"
	"pdfchat/types"
)

const collectionName = "documents"

// VectorStorer is the index port: Build replaces the whole index with
// the given chunks, Retrieve returns the k most similar chunks for a
// query, ranked by descending similarity.
type VectorStorer interface {
	Build(ctx context.Context, chunks []types.Chunk) (int, error)
	Retrieve(ctx context.Context, query string, k int) ([]types.Chunk, error)
}

type ChromemStore struct {
	db       *chromem.DB
	embedder model.EmbedderInterface
	dir      string
}

// NewChromemStore opens (creating if absent) the persistent database
// directory. Build and query embeddings both run through embedder.
func NewChromemStore(dir string, embedder model.EmbedderInterface) (*ChromemStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create index directory %s: %w", dir, err)
	}

	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("open chromem DB at %s: %w", dir, err)
	}

	return &ChromemStore{
		db:       db,
		embedder: embedder,
		dir:      dir,
	}, nil
}

func (s *ChromemStore) embeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return s.embedder.Embed(ctx, text)
	}
}

// Build is destructive: the previous collection is dropped and the new
// chunks become the entire index. No versioning, no merge.
func (s *ChromemStore) Build(ctx context.Context, chunks []types.Chunk) (int, error) {
	if err := s.db.DeleteCollection(collectionName); err != nil {
		return 0, fmt.Errorf("drop collection: %w", err)
	}

	collection, err := s.db.GetOrCreateCollection(collectionName, nil, s.embeddingFunc())
	if err != nil {
		return 0, fmt.Errorf("create collection: %w", err)
	}

	// chromem rejects an empty batch; an empty document still leaves a
	// valid (empty) index behind.
	if len(chunks) == 0 {
		return 0, nil
	}

	docs := make([]chromem.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = chromem.Document{
			ID:      chunk.ID.String(),
			Content: chunk.Content,
			Metadata: map[string]string{
				"source": chunk.Source,
				"index":  strconv.Itoa(chunk.Index),
				"page":   strconv.Itoa(chunk.Page),
			},
		}
	}

	if err := collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return 0, fmt.Errorf("add documents: %w", err)
	}

	count := collection.Count()
	log.Printf("[STORE] index built at %s with %d chunks", s.dir, count)
	return count, nil
}

// Retrieve embeds query with the index's embedding model and returns up
// to k chunks. chromem requires nResults <= document count, so k is
// clamped to the collection size.
func (s *ChromemStore) Retrieve(ctx context.Context, query string, k int) ([]types.Chunk, error) {
	collection := s.db.GetCollection(collectionName, s.embeddingFunc())
	if collection == nil {
		return nil, fmt.Errorf("index has not been built yet")
	}

	count := collection.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := collection.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	chunks := make([]types.Chunk, len(results))
	for i, r := range results {
		chunks[i] = types.Chunk{
			Content:    r.Content,
			Source:     r.Metadata["source"],
			Similarity: r.Similarity,
		}
		if idx, err := strconv.Atoi(r.Metadata["index"]); err == nil {
			chunks[i].Index = idx
		}
		if page, err := strconv.Atoi(r.Metadata["page"]); err == nil {
			chunks[i].Page = page
		}
	}
	return chunks, nil
}
