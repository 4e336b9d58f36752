package store

import (
	"context"
	"sync"

	"github.com/usetrmnl/inkpipe/pkg/mixup"
)

// MemoryStore keeps mixups in a map. Contents are lost on exit.
type MemoryStore struct {
	mu     sync.RWMutex
	mixups map[string]mixup.Mixup
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{mixups: make(map[string]mixup.Mixup)}
}

func (s *MemoryStore) GetMixup(ctx context.Context, id string) (mixup.Mixup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.mixups[id]
	if !ok {
		return mixup.Mixup{}, notFound(id)
	}
	m.Assignments = cloneAssignment(m.Assignments)
	return m, nil
}

func (s *MemoryStore) SaveMixup(ctx context.Context, m mixup.Mixup) error {
	m, err := prepare(m)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.mixups[m.ID]; ok {
		m.CreatedAt = old.CreatedAt
	}
	s.mixups[m.ID] = m
	return nil
}

func (s *MemoryStore) ListMixups(ctx context.Context) ([]mixup.Mixup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]mixup.Mixup, 0, len(s.mixups))
	for _, m := range s.mixups {
		m.Assignments = cloneAssignment(m.Assignments)
		out = append(out, m)
	}
	sortMixups(out)
	return out, nil
}

func (s *MemoryStore) DeleteMixup(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.mixups[id]; !ok {
		return notFound(id)
	}
	delete(s.mixups, id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
