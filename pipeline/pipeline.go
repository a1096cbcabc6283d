// Package pipeline wires loading, chunking, indexing and the
// conversational retrieval chain together.
package pipeline

import (
	"context"
	"fmt"
	"log"

	"pdfchat/app/agent"
	"pdfchat/history"
	"pdfchat/model"
	"pdfchat/splitter"
	"pdfchat/store"
	"pdfchat/types"
)

// LoadFunc matches loader.Load; injected so tests can feed segments
// without touching the filesystem.
type LoadFunc func(path, filename string) ([]types.Segment, error)

// Deps are the collaborators a Process call composes into a Chain.
type Deps struct {
	Load     LoadFunc
	Splitter splitter.Splitter
	Store    store.VectorStorer
	Agent    *agent.Agent
	Detector model.DetectorInterface
}

// Stats reports what an upload produced, for logging at the API layer.
type Stats struct {
	ChunkCount    int
	RetrievedDocs int
}

// Chain is the composed retrieval+generation pipeline bound to the
// current index and the shared session transcript.
type Chain struct {
	deps    Deps
	history *history.History
	topK    int
}

// Process runs the upload flow: load, split, rebuild the index, smoke
// test retrieval, and compose the chain. A failure while loading or
// splitting happens before any index mutation, so the previous chain
// (if any) stays valid.
func Process(ctx context.Context, cfg types.Config, deps Deps, path, filename string, hist *history.History) (*Chain, Stats, error) {
	segments, err := deps.Load(path, filename)
	if err != nil {
		return nil, Stats{}, err
	}

	chunks, err := deps.Splitter.Split(segments)
	if err != nil {
		return nil, Stats{}, err
	}
	log.Printf("[PIPELINE] %s produced %d chunks", filename, len(chunks))

	count, err := deps.Store.Build(ctx, chunks)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("build index: %w", err)
	}

	// Quick retrieval smoke test, mirrors what the index will serve.
	testDocs, err := deps.Store.Retrieve(ctx, "test", cfg.TopK)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("retrieval smoke test: %w", err)
	}
	log.Printf("[PIPELINE] retriever test returned %d documents (index size %d)", len(testDocs), count)

	chain := &Chain{
		deps:    deps,
		history: hist,
		topK:    cfg.TopK,
	}
	return chain, Stats{ChunkCount: len(chunks), RetrievedDocs: len(testDocs)}, nil
}

// Ask answers one question: language directive, history-aware
// reformulation, top-k retrieval, generation, transcript update.
func (c *Chain) Ask(ctx context.Context, question string) (string, error) {
	input := languageDirective(c.deps.Detector, question) + " " + question

	transcript := c.history.Turns()

	// With an empty transcript there is nothing to resolve, the
	// reformulation degenerates to identity.
	standalone := input
	if len(transcript) > 0 {
		reformulated, err := c.deps.Agent.Reformulate(ctx, transcript, input)
		if err != nil {
			return "", err
		}
		standalone = reformulated
		log.Printf("[PIPELINE] standalone question: %s", standalone)
	}

	chunks, err := c.deps.Store.Retrieve(ctx, standalone, c.topK)
	if err != nil {
		return "", fmt.Errorf("retrieve context: %w", err)
	}

	answer, err := c.deps.Agent.Answer(ctx, input, chunks, transcript)
	if err != nil {
		return "", err
	}

	c.history.Append(types.RoleUser, input)
	c.history.Append(types.RoleAssistant, answer)

	return answer, nil
}

// languageDirective picks the answer-language instruction the original
// prompt policy defines: Spanish questions get a Spanish answer,
// everything else English, and an unreliable detection falls back to a
// generic conciseness directive.
func languageDirective(detector model.DetectorInterface, question string) string {
	lang, reliable := detector.Detect(question)
	if !reliable {
		return "Keep your answer concise."
	}
	if lang == model.LangSpanish {
		return "Responde en español."
	}
	return "Keep your answer in English."
}
