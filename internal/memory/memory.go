// Package memory keeps a bounded, process-lifetime history of recent
// conversation turns per key. The portal keys it by role, so distinct users
// sharing a role observe each other's history; that is the documented
// behaviour of the system, not an oversight here.
package memory

import (
	"sync"

	"finedge/internal/domain"
)

// DefaultCapacity is the number of turns retained per key.
const DefaultCapacity = 5

// Buffer is a fixed-capacity FIFO of conversation turns per key.
type Buffer struct {
	mu       sync.Mutex
	capacity int
	turns    map[string][]domain.Turn
}

func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{capacity: capacity, turns: make(map[string][]domain.Turn)}
}

// Append records a turn, evicting the oldest when at capacity.
func (b *Buffer) Append(key, query, answer string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	turns := append(b.turns[key], domain.Turn{Query: query, Answer: answer})
	if len(turns) > b.capacity {
		turns = turns[len(turns)-b.capacity:]
	}
	b.turns[key] = turns
}

// History returns the retained turns, oldest first.
func (b *Buffer) History(key string) []domain.Turn {
	b.mu.Lock()
	defer b.mu.Unlock()
	turns := b.turns[key]
	out := make([]domain.Turn, len(turns))
	copy(out, turns)
	return out
}

// Clear drops the history for a key.
func (b *Buffer) Clear(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.turns, key)
}
