package database

import (
	"context"
	"errors"
)

// Collections read by the timeline engine.
const (
	CollectionEnrollments = "enrollments"
	CollectionCourses     = "courses"
	CollectionModules     = "modules"
	CollectionSchedules   = "schedules"
	CollectionMaterials   = "materials"
)

var (
	ErrNotFound = errors.New("document not found")
	ErrReadOnly = errors.New("store does not accept writes")
)

// Record is a raw schemaless document body.
type Record = map[string]interface{}

// Document is a stored record together with its store-assigned id.
type Document struct {
	ID   string `json:"id"`
	Data Record `json:"data"`
}

// DocumentStore is the read side of a schemaless collection store: full
// scans, single-field equality filters and point lookups. There are no
// joins and no cross-collection transactions.
type DocumentStore interface {
	Scan(ctx context.Context, collection string) ([]Document, error)
	FilterEqual(ctx context.Context, collection, field, value string) ([]Document, error)
	Get(ctx context.Context, collection, id string) (Document, error)
}

// BatchGetter is implemented by stores that can fetch several documents in
// one round trip. Unknown ids are silently absent from the result.
type BatchGetter interface {
	GetMany(ctx context.Context, collection string, ids []string) ([]Document, error)
}

// Putter writes documents, used by seeding and tests.
type Putter interface {
	Put(ctx context.Context, collection, id string, data Record) error
}

// HealthChecker is implemented by stores backed by a live connection.
type HealthChecker interface {
	HealthCheck() error
}
