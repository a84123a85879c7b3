package database

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-process DocumentStore. Documents come back in
// insertion order.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

type memoryCollection struct {
	order []string
	docs  map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*memoryCollection)}
}

// Put inserts or replaces a document. Replacing keeps the original position.
func (s *MemoryStore) Put(_ context.Context, collection, id string, data Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[collection]
	if !ok {
		c = &memoryCollection{docs: make(map[string]Record)}
		s.collections[collection] = c
	}
	if _, exists := c.docs[id]; !exists {
		c.order = append(c.order, id)
	}
	c.docs[id] = data
	return nil
}

// MustPut is Put for fixtures.
func (s *MemoryStore) MustPut(collection, id string, data Record) *MemoryStore {
	_ = s.Put(context.Background(), collection, id, data)
	return s
}

func (s *MemoryStore) Scan(ctx context.Context, collection string) ([]Document, error) {
	return s.filter(ctx, collection, func(Record) bool { return true })
}

// FilterEqual matches documents whose field, rendered as a string, equals
// value. A missing or null field never matches.
func (s *MemoryStore) FilterEqual(ctx context.Context, collection, field, value string) ([]Document, error) {
	return s.filter(ctx, collection, func(r Record) bool {
		v, ok := r[field]
		if !ok || v == nil {
			return false
		}
		return fmt.Sprint(v) == value
	})
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[collection]
	if !ok {
		return Document{}, ErrNotFound
	}
	data, ok := c.docs[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return Document{ID: id, Data: data}, nil
}

func (s *MemoryStore) GetMany(ctx context.Context, collection string, ids []string) ([]Document, error) {
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	docs, err := s.Scan(ctx, collection)
	if err != nil {
		return nil, err
	}
	out := make([]Document, 0, len(ids))
	for _, d := range docs {
		if wanted[d.ID] {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *MemoryStore) filter(ctx context.Context, collection string, keep func(Record) bool) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Document{}
	c, ok := s.collections[collection]
	if !ok {
		return out, nil
	}
	for _, id := range c.order {
		if data := c.docs[id]; keep(data) {
			out = append(out, Document{ID: id, Data: data})
		}
	}
	return out, nil
}
