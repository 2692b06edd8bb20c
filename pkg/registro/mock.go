package registro

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store. Like the spreadsheet stores, ids are
// row positions and shift down after a delete.
type MemoryStore struct {
	mu      sync.Mutex
	rows    Records
	ListErr error
	Calls   []string
}

func NewMemoryStore(rows ...Record) *MemoryStore {
	m := &MemoryStore{}
	for _, r := range rows {
		m.rows = append(m.rows, r)
	}
	m.renumber()
	return m
}

func (m *MemoryStore) renumber() {
	for i := range m.rows {
		m.rows[i].ID = i
	}
}

func (m *MemoryStore) List(ctx context.Context) (Records, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "List")
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return append(Records(nil), m.rows...), nil
}

func (m *MemoryStore) Append(ctx context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "Append")
	m.rows = append(m.rows, rec)
	m.renumber()
	return nil
}

func (m *MemoryStore) Update(ctx context.Context, id int, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "Update")
	if id < 0 || id >= len(m.rows) {
		return ErrNotFound
	}
	rec.ID = id
	m.rows[id] = rec
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "Delete")
	if id < 0 || id >= len(m.rows) {
		return ErrNotFound
	}
	m.rows = append(m.rows[:id], m.rows[id+1:]...)
	m.renumber()
	return nil
}
