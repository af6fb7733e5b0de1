package store

import (
	"context"
	"sort"
	"sync"

	"dysaccess/shortcut"
)

// Memory keeps records for the lifetime of the process.
type Memory struct {
	mu   sync.Mutex
	rows   map[string]shortcut.Record
	seq    []string
	seeded bool
}

func NewMemory() *Memory {
	return &Memory{rows: make(map[string]shortcut.Record)}
}

func (m *Memory) Load(ctx context.Context) ([]shortcut.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]shortcut.Record, 0, len(m.seq))
	for _, id := range m.seq {
		out = append(out, m.rows[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) Insert(ctx context.Context, r shortcut.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[r.ID]; ok {
		return &DuplicateError{ID: r.ID}
	}
	m.rows[r.ID] = r
	m.seq = append(m.seq, r.ID)
	return nil
}

func (m *Memory) Update(ctx context.Context, r shortcut.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[r.ID]; !ok {
		return &shortcut.NotFoundError{ID: r.ID}
	}
	m.rows[r.ID] = r
	return nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return &shortcut.NotFoundError{ID: id}
	}
	delete(m.rows, id)
	for i, s := range m.seq {
		if s == id {
			m.seq = append(m.seq[:i], m.seq[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) Seeded(context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seeded, nil
}

func (m *Memory) MarkSeeded(context.Context) error {
	m.mu.Lock()
	m.seeded = true
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }
