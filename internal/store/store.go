// Package store defines the document-store contract the reconciliation
// engine runs against: per-kind collections of JSON documents, equality
// queries, insert-if-absent, and an atomic sequence increment. Any backend
// offering those primitives is sufficient; memory, sqlite, and postgres
// implementations live in subpackages.
package store

import (
	"context"
	"encoding/json"

	"github.com/civiclens/legistry/pkg/errors"
	"github.com/civiclens/legistry/pkg/legis"
)

// Doc is one stored document. Values are JSON-normalized: numbers are
// float64, nested objects are map[string]any.
type Doc = map[string]any

// Filter selects documents by top-level field equality.
type Filter = map[string]any

// Store is the document-store contract.
type Store interface {
	// Get returns the document with the given ID.
	Get(ctx context.Context, kind legis.Kind, id string) (Doc, bool, error)

	// Put writes the document, replacing any existing one.
	Put(ctx context.Context, kind legis.Kind, id string, doc Doc) error

	// Insert writes the document only if no document with the ID exists;
	// otherwise it returns errors.ErrAlreadyExists.
	Insert(ctx context.Context, kind legis.Kind, id string, doc Doc) error

	// Delete removes the document. Deleting a missing document is a no-op.
	Delete(ctx context.Context, kind legis.Kind, id string) error

	// Find returns all documents matching the filter, ordered by ID.
	Find(ctx context.Context, kind legis.Kind, filter Filter) ([]Doc, error)

	// FindOne returns the first document matching the filter.
	FindOne(ctx context.Context, kind legis.Kind, filter Filter) (Doc, bool, error)

	// IDs returns all document IDs with the given prefix, ordered.
	IDs(ctx context.Context, kind legis.Kind, prefix string) ([]string, error)

	// NextSequence atomically increments and returns the counter for
	// (jurisdiction, kind). The first call returns 1.
	NextSequence(ctx context.Context, jurisdiction string, kind legis.Kind) (int64, error)

	// Close releases backend resources.
	Close() error
}

// Persister is implemented by backends that snapshot state to durable
// storage. The batch runner calls Persist after each completed phase.
type Persister interface {
	Persist(ctx context.Context) error
}

// Encode converts a typed record into its document form via JSON.
func Encode(v any) (Doc, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.WrapParse("json", "", err)
	}
	var doc Doc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.WrapParse("json", "", err)
	}
	return doc, nil
}

// Decode converts a document back into a typed record via JSON.
func Decode(doc Doc, v any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return errors.WrapParse("json", "", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.WrapParse("json", "", err)
	}
	return nil
}
