package storage

import (
	"context"
	"sync"
)

// MemoryStorage implements Storage in process memory. Nothing survives a restart.
type MemoryStorage struct {
	mu          sync.RWMutex
	collections map[string]map[string]Record
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{collections: make(map[string]map[string]Record)}
}

func (s *MemoryStorage) Put(ctx context.Context, collection string, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[collection]
	if !ok {
		c = make(map[string]Record)
		s.collections[collection] = c
	}
	c[rec.ID] = CloneRecord(rec)
	return nil
}

func (s *MemoryStorage) Get(ctx context.Context, collection, id string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	out := CloneRecord(rec)
	return &out, nil
}

func (s *MemoryStorage) Query(ctx context.Context, collection string, q Query) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	var out []Record
	for _, rec := range s.collections[collection] {
		if MatchAttrs(rec.Attrs, q.Attrs) {
			out = append(out, CloneRecord(rec))
		}
	}
	s.mu.RUnlock()

	SortRecords(out, q.Order)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *MemoryStorage) Delete(ctx context.Context, collection string, ids ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collections[collection]
	for _, id := range ids {
		delete(c, id)
	}
	return nil
}

func (s *MemoryStorage) Close() error { return nil }
