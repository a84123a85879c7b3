package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sahilchouksey/campus-timeline/utils/logger"
)

// JSONCache is the subset of utils/cache.RedisCache used for read-through
// caching of collection reads.
type JSONCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// CachedStore caches scans, equality filters and documents by id of an
// underlying store. Missing documents are not cached. Any cache failure
// falls through to the store, so the cache can only make reads faster,
// never fail them.
type CachedStore struct {
	store DocumentStore
	cache JSONCache
	ttl   time.Duration
	log   *logger.Logger
}

func NewCachedStore(store DocumentStore, cache JSONCache, ttl time.Duration, log *logger.Logger) *CachedStore {
	if log == nil {
		log = logger.NewNop()
	}
	return &CachedStore{store: store, cache: cache, ttl: ttl, log: log}
}

func ScanKey(collection string) string {
	return fmt.Sprintf("doc:%s:scan", collection)
}

func FilterKey(collection, field, value string) string {
	return fmt.Sprintf("doc:%s:eq:%s:%s", collection, field, value)
}

func IDKey(collection, id string) string {
	return fmt.Sprintf("doc:%s:id:%s", collection, id)
}

func (s *CachedStore) Scan(ctx context.Context, collection string) ([]Document, error) {
	return s.readThrough(ctx, ScanKey(collection), func() ([]Document, error) {
		return s.store.Scan(ctx, collection)
	})
}

func (s *CachedStore) FilterEqual(ctx context.Context, collection, field, value string) ([]Document, error) {
	return s.readThrough(ctx, FilterKey(collection, field, value), func() ([]Document, error) {
		return s.store.FilterEqual(ctx, collection, field, value)
	})
}

func (s *CachedStore) Get(ctx context.Context, collection, id string) (Document, error) {
	var cached Document
	if err := s.cache.GetJSON(ctx, IDKey(collection, id), &cached); err == nil && cached.ID == id {
		return cached, nil
	}
	doc, err := s.store.Get(ctx, collection, id)
	if err != nil {
		return Document{}, err
	}
	s.remember(ctx, IDKey(collection, id), doc)
	return doc, nil
}

// GetMany serves cached ids from the cache and loads the rest in one batch
// when the store supports it, otherwise one Get per id. Documents come back
// in the order of ids; missing ids are absent.
func (s *CachedStore) GetMany(ctx context.Context, collection string, ids []string) ([]Document, error) {
	found := make(map[string]Document, len(ids))
	var misses []string
	for _, id := range ids {
		var cached Document
		if err := s.cache.GetJSON(ctx, IDKey(collection, id), &cached); err == nil && cached.ID == id {
			found[id] = cached
			continue
		}
		misses = append(misses, id)
	}

	if len(misses) > 0 {
		loaded, err := s.loadMany(ctx, collection, misses)
		if err != nil {
			return nil, err
		}
		for _, doc := range loaded {
			found[doc.ID] = doc
			s.remember(ctx, IDKey(collection, doc.ID), doc)
		}
	}

	out := make([]Document, 0, len(found))
	for _, id := range ids {
		if doc, ok := found[id]; ok {
			out = append(out, doc)
			delete(found, id)
		}
	}
	return out, nil
}

func (s *CachedStore) loadMany(ctx context.Context, collection string, ids []string) ([]Document, error) {
	if bg, ok := s.store.(BatchGetter); ok {
		return bg.GetMany(ctx, collection, ids)
	}
	out := make([]Document, 0, len(ids))
	for _, id := range ids {
		doc, err := s.store.Get(ctx, collection, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

// Put writes through to the underlying store and drops the cached copy of
// the document and the collection scan. Cached equality filters are left to
// expire with the TTL.
func (s *CachedStore) Put(ctx context.Context, collection, id string, data Record) error {
	p, ok := s.store.(Putter)
	if !ok {
		return ErrReadOnly
	}
	if err := p.Put(ctx, collection, id, data); err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, IDKey(collection, id), ScanKey(collection)); err != nil {
		s.log.Debug("cache invalidation failed", "collection", collection, "id", id, "error", err)
	}
	return nil
}

func (s *CachedStore) HealthCheck() error {
	if hc, ok := s.store.(HealthChecker); ok {
		return hc.HealthCheck()
	}
	return nil
}

func (s *CachedStore) readThrough(ctx context.Context, key string, load func() ([]Document, error)) ([]Document, error) {
	var cached []Document
	if err := s.cache.GetJSON(ctx, key, &cached); err == nil && cached != nil {
		return cached, nil
	}

	docs, err := load()
	if err != nil {
		return nil, err
	}
	if docs == nil {
		// null would read back as a miss
		docs = []Document{}
	}
	s.remember(ctx, key, docs)
	return docs, nil
}

func (s *CachedStore) remember(ctx context.Context, key string, value interface{}) {
	if err := s.cache.SetJSON(ctx, key, value, s.ttl); err != nil {
		s.log.Debug("cache write failed", "key", key, "error", err)
	}
}
