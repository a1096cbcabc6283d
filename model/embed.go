package model

import "context"

// EmbedderInterface produces the vector representation of a text. One
// production adapter (Ollama) and test doubles implement it; index
// build and query embedding must go through the same instance so both
// sides live in the same vector space.
type EmbedderInterface interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
