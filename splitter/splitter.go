// Package splitter turns loaded text segments into fixed-size
// overlapping chunks. The boundary-seeking heuristics are delegated to
// langchaingo's recursive character splitter (paragraph, then sentence,
// then word boundaries before raw character cuts).
package splitter

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/textsplitter"

	"pdfchat/types"
)

type Splitter struct {
	inner textsplitter.RecursiveCharacter
}

func New(chunkSize, chunkOverlap int) Splitter {
	return Splitter{
		inner: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
		),
	}
}

// Split is a pure function of its input: identical segments and
// configuration yield an identical chunk sequence, except for the
// generated IDs. Chunk indexes run sequentially across all segments.
func (s Splitter) Split(segments []types.Segment) ([]types.Chunk, error) {
	var chunks []types.Chunk
	index := 0

	for _, segment := range segments {
		parts, err := s.inner.SplitText(segment.Content)
		if err != nil {
			return nil, fmt.Errorf("split segment (source %s, page %d): %w", segment.Source, segment.Page, err)
		}
		for _, part := range parts {
			chunks = append(chunks, types.Chunk{
				ID:      uuid.New(),
				Index:   index,
				Content: part,
				Source:  segment.Source,
				Page:    segment.Page,
			})
			index++
		}
	}

	return chunks, nil
}
