package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/JonMunkholm/RoundTrip/internal/core"
)

// Memory is a mutex-guarded in-memory store, used by tests and as a
// stand-in backend when no database is configured. Loaded rows are
// copies; only Save makes mutations visible.
type Memory struct {
	mu   sync.Mutex
	rows map[core.RowID]*Record
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{rows: make(map[core.RowID]*Record)}
}

// Seed inserts a record directly, bypassing the staging path. Intended
// for test fixtures and demo data.
func (m *Memory) Seed(rec *Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[rec.ID()] = rec.clone()
}

// Get returns a copy of the row with the given id, or an error wrapping
// core.ErrNotFound.
func (m *Memory) Get(ctx context.Context, id core.RowID) (core.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.rows[id]
	if !ok {
		return nil, fmt.Errorf("memory store: id %d: %w", id, core.ErrNotFound)
	}
	return rec.clone(), nil
}

// Save persists the row, overwriting any existing record with the same
// id.
func (m *Memory) Save(ctx context.Context, row core.Row) error {
	rec, ok := row.(*Record)
	if !ok {
		return fmt.Errorf("memory store: unsupported row type %T", row)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[rec.ID()] = rec.clone()
	return nil
}

// Delete removes the row by id. Deleting an absent row is a no-op.
func (m *Memory) Delete(ctx context.Context, row core.Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, row.ID())
	return nil
}

// List returns copies of all rows ordered by id.
func (m *Memory) List(ctx context.Context) ([]core.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]core.RowID, 0, len(m.rows))
	for id := range m.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	rows := make([]core.Row, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, m.rows[id].clone())
	}
	return rows, nil
}

// Len returns the number of stored rows.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}
