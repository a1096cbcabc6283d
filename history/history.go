// Package history holds the single process-wide conversation
// transcript. There is no per-session partitioning: the API accepts a
// session_id but every caller shares this one transcript.
package history

import (
	"sync"

	"pdfchat/types"
)

type History struct {
	mu    sync.RWMutex
	turns []types.Turn
}

func New() *History {
	return &History{}
}

func (h *History) Append(role types.Role, content string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = append(h.turns, types.Turn{Role: role, Content: content})
}

// Clear drops the transcript immediately and irreversibly.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = nil
}

// Turns returns a copy of the transcript in order.
func (h *History) Turns() []types.Turn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	turns := make([]types.Turn, len(h.turns))
	copy(turns, h.turns)
	return turns
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.turns)
}
