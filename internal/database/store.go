// Package database defines the document store the item and claim services
// run against, with a Firestore adapter and an in-memory implementation.
package database

import (
	"context"
	"errors"
)

// ErrIndexUnready is returned by Find when the store cannot serve a
// filtered, ordered query until a composite index is built.
var ErrIndexUnready = errors.New("query requires an index that is not ready")

// ErrAlreadyExists is returned by Create when a document already has the id.
var ErrAlreadyExists = errors.New("document already exists")

// Document is a stored record: its id plus a loosely typed field map.
type Document struct {
	ID     string
	Fields map[string]any
}

// Filter is an equality predicate on one field.
type Filter struct {
	Field string
	Value any
}

// Query selects documents from one collection. An empty OrderBy leaves the
// order to the store; a zero Limit means no limit.
type Query struct {
	Collection string
	Filters    []Filter
	OrderBy    string
	Descending bool
	Limit      int
}

// Where returns a copy of q with an extra equality filter.
func (q Query) Where(field string, value any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Value: value})
	return q
}

// DocumentStore is the persistence capability.
type DocumentStore interface {
	// Find runs q. Filtered queries may fail with ErrIndexUnready.
	Find(ctx context.Context, q Query) ([]Document, error)
	// Get returns nil, nil when no document has the id.
	Get(ctx context.Context, collection, id string) (*Document, error)
	// NewID allocates a fresh document id without writing anything.
	NewID(collection string) string
	// Create writes a new document at id and fails with ErrAlreadyExists
	// when one is already there.
	Create(ctx context.Context, collection, id string, fields map[string]any) error
	// Set creates or replaces the document at id.
	Set(ctx context.Context, collection, id string, fields map[string]any) error
	// Merge updates only the given fields, creating the document if needed.
	Merge(ctx context.Context, collection, id string, fields map[string]any) error
}
