package history

import (
	"context"
	"sync"

	"github.com/yungbote/breakdown-backend/internal/breakdown"
)

const defaultCapacity = 50

// Memory is a bounded in-process history; the oldest entry is evicted once
// capacity is reached.
type Memory struct {
	mu       sync.RWMutex
	capacity int
	entries  []Entry
}

func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Memory{capacity: capacity}
}

func (m *Memory) Add(_ context.Context, concept string, result breakdown.ConceptResult) (Entry, error) {
	e := newEntry(concept, result)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	if over := len(m.entries) - m.capacity; over > 0 {
		m.entries = append([]Entry(nil), m.entries[over:]...)
	}
	return e.clone(), nil
}

func (m *Memory) List(_ context.Context, limit int) ([]Entry, error) {
	limit = normalizeLimit(limit, m.capacity)
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, 0, limit)
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.entries[i].clone())
	}
	return out, nil
}

func (m *Memory) Get(_ context.Context, id string) (Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.entries {
		if e.ID == id {
			return e.clone(), nil
		}
	}
	return Entry{}, ErrNotFound
}

func (m *Memory) Close() error { return nil }

// clone detaches e from the slices held by the store.
func (e Entry) clone() Entry {
	e.Result = e.Result.Clone()
	return e
}
