package runstore

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedStore serves Get from an LRU cache kept current by Create and
// Update. List always reads through.
type CachedStore struct {
	next  Store
	cache *lru.Cache[string, Run]
}

func NewCachedStore(next Store, size int) (*CachedStore, error) {
	cache, err := lru.New[string, Run](size)
	if err != nil {
		return nil, err
	}
	return &CachedStore{next: next, cache: cache}, nil
}

func (s *CachedStore) Create(ctx context.Context, r Run) error {
	if err := s.next.Create(ctx, r); err != nil {
		return err
	}
	s.cache.Add(r.ID, clone(r))
	return nil
}

func (s *CachedStore) Get(ctx context.Context, id string) (Run, error) {
	if r, ok := s.cache.Get(id); ok {
		return clone(r), nil
	}
	r, err := s.next.Get(ctx, id)
	if err != nil {
		return Run{}, err
	}
	s.cache.Add(id, clone(r))
	return r, nil
}

func (s *CachedStore) Update(ctx context.Context, id string, fn func(*Run)) (Run, error) {
	r, err := s.next.Update(ctx, id, fn)
	if err != nil {
		s.cache.Remove(id)
		return Run{}, err
	}
	s.cache.Add(id, clone(r))
	return r, nil
}

func (s *CachedStore) List(ctx context.Context, limit int) ([]Run, error) {
	return s.next.List(ctx, limit)
}

func (s *CachedStore) Close() error {
	s.cache.Purge()
	return s.next.Close()
}
