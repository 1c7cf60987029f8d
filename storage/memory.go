package storage

import (
	"context"
	"sync"
)

// MemStore is an in-memory Store, grounded on the teacher's MemStore
// (graph/store/memory.go): a mutex-guarded map, suitable for testing
// and single-process use. Data is lost on process exit.
type MemStore struct {
	mu      sync.RWMutex
	records map[string]Meta
}

// NewMemStore returns an empty in-memory Store.
func NewMemStore() *MemStore {
	return &MemStore{records: make(map[string]Meta)}
}

// Save implements Store. CreatedAt is taken from the existing record
// when id is already present, regardless of what the caller passed.
func (m *MemStore) Save(_ context.Context, meta Meta) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.records[meta.ID]; ok {
		meta.CreatedAt = existing.CreatedAt
	}
	m.records[meta.ID] = meta
	return nil
}

// Get implements Store.
func (m *MemStore) Get(_ context.Context, id string) (Meta, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	meta, ok := m.records[id]
	if !ok {
		return Meta{}, ErrNotFound
	}
	return meta, nil
}

// List implements Store, in no particular order (callers that need a
// stable order sort the returned slice themselves).
func (m *MemStore) List(_ context.Context) ([]Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Summary, 0, len(m.records))
	for _, meta := range m.records {
		out = append(out, Summary{ID: meta.ID, Name: meta.Name, UpdatedAt: meta.UpdatedAt})
	}
	return out, nil
}

// Delete implements Store.
func (m *MemStore) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[id]; !ok {
		return false, nil
	}
	delete(m.records, id)
	return true, nil
}

// Has implements Store.
func (m *MemStore) Has(_ context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.records[id]
	return ok, nil
}

// Clear implements Store.
func (m *MemStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = make(map[string]Meta)
	return nil
}
