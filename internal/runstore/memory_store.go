package runstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]Run
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]Run),
	}
}

func (s *MemoryStore) Create(_ context.Context, r Run) error {
	id, err := validID(r.ID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[id]; ok {
		return fmt.Errorf("run %s already exists", id)
	}
	s.data[id] = clone(r)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Run, error) {
	id, err := validID(id)
	if err != nil {
		return Run{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.data[id]
	if !ok {
		return Run{}, ErrNotFound
	}
	return clone(r), nil
}

func (s *MemoryStore) Update(_ context.Context, id string, fn func(*Run)) (Run, error) {
	id, err := validID(id)
	if err != nil {
		return Run{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.data[id]
	if !ok {
		return Run{}, ErrNotFound
	}
	if fn != nil {
		fn(&r)
	}
	r.ID = id
	r.UpdatedAt = time.Now().UTC()
	s.data[id] = clone(r)
	return clone(r), nil
}

// List returns the newest runs first.
func (s *MemoryStore) List(_ context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	out := make([]Run, 0, len(s.data))
	for _, r := range s.data {
		out = append(out, clone(r))
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

func clone(r Run) Run {
	r.Spec = append([]byte(nil), r.Spec...)
	if len(r.Spec) == 0 {
		r.Spec = nil
	}
	return r
}
