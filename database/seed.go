package database

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/sahilchouksey/campus-timeline/utils/logger"
)

// Seeder loads fixture documents into a store
type Seeder struct {
	store Putter
	log   *logger.Logger
}

// NewSeeder creates a new seeder instance
func NewSeeder(store Putter, log *logger.Logger) *Seeder {
	if log == nil {
		log = logger.NewNop()
	}
	return &Seeder{store: store, log: log}
}

// Fixture is the on-disk seed format: collection -> id -> document body.
type Fixture map[string]map[string]Record

// Load reads a Fixture from r and writes every document. Collections and
// ids are written in sorted order so repeated runs behave the same.
func (s *Seeder) Load(ctx context.Context, r io.Reader) (int, error) {
	var fixture Fixture
	if err := json.NewDecoder(r).Decode(&fixture); err != nil {
		return 0, fmt.Errorf("failed to decode fixture: %w", err)
	}
	return s.SeedAll(ctx, fixture)
}

// SeedAll writes every document of the fixture.
func (s *Seeder) SeedAll(ctx context.Context, fixture Fixture) (int, error) {
	collections := make([]string, 0, len(fixture))
	for c := range fixture {
		collections = append(collections, c)
	}
	sort.Strings(collections)

	written := 0
	for _, collection := range collections {
		docs := fixture[collection]
		ids := make([]string, 0, len(docs))
		for id := range docs {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			if err := s.store.Put(ctx, collection, id, docs[id]); err != nil {
				return written, fmt.Errorf("failed to seed %s/%s: %w", collection, id, err)
			}
			written++
		}
		s.log.Info("seeded collection", "collection", collection, "documents", len(ids))
	}
	return written, nil
}
