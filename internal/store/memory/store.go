// Package memory provides the in-memory document store. It is the reference
// implementation of the store contract and the substrate the sqlite and
// postgres backends snapshot from.
package memory

import (
	"context"
	"encoding/json"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/civiclens/legistry/internal/store"
	"github.com/civiclens/legistry/pkg/errors"
	"github.com/civiclens/legistry/pkg/legis"
)

// Store is an in-memory document store safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	collections map[legis.Kind]map[string]store.Doc
	sequences   map[string]int64
}

// Snapshot is the full exported state, used by persistent backends.
type Snapshot struct {
	Collections map[string]map[string]store.Doc `json:"collections"`
	Sequences   map[string]int64                `json:"sequences"`
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		collections: make(map[legis.Kind]map[string]store.Doc),
		sequences:   make(map[string]int64),
	}
}

// Get returns the document with the given ID.
func (s *Store) Get(_ context.Context, kind legis.Kind, id string) (store.Doc, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[kind][id]
	if !ok {
		return nil, false, nil
	}
	return copyDoc(doc), true, nil
}

// Put writes the document, replacing any existing one.
func (s *Store) Put(_ context.Context, kind legis.Kind, id string, doc store.Doc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensure(kind)[id] = copyDoc(doc)
	return nil
}

// Insert writes the document only if the ID is free.
func (s *Store) Insert(_ context.Context, kind legis.Kind, id string, doc store.Doc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll := s.ensure(kind)
	if _, exists := coll[id]; exists {
		return errors.ErrAlreadyExists
	}
	coll[id] = copyDoc(doc)
	return nil
}

// Delete removes the document if present.
func (s *Store) Delete(_ context.Context, kind legis.Kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.collections[kind], id)
	return nil
}

// Find returns all documents matching the filter, ordered by ID.
func (s *Store) Find(_ context.Context, kind legis.Kind, filter store.Filter) ([]store.Doc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	coll := s.collections[kind]
	ids := make([]string, 0, len(coll))
	for id := range coll {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []store.Doc
	for _, id := range ids {
		if matches(coll[id], filter) {
			out = append(out, copyDoc(coll[id]))
		}
	}
	return out, nil
}

// FindOne returns the first document matching the filter.
func (s *Store) FindOne(ctx context.Context, kind legis.Kind, filter store.Filter) (store.Doc, bool, error) {
	docs, err := s.Find(ctx, kind, filter)
	if err != nil {
		return nil, false, err
	}
	if len(docs) == 0 {
		return nil, false, nil
	}
	return docs[0], true, nil
}

// IDs returns all document IDs with the given prefix, ordered.
func (s *Store) IDs(_ context.Context, kind legis.Kind, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []string
	for id := range s.collections[kind] {
		if strings.HasPrefix(id, prefix) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

// NextSequence atomically increments and returns the counter for
// (jurisdiction, kind).
func (s *Store) NextSequence(_ context.Context, jurisdiction string, kind legis.Kind) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(jurisdiction) + "/" + string(kind)
	s.sequences[key]++
	return s.sequences[key], nil
}

// Close is a no-op for the memory store.
func (s *Store) Close() error { return nil }

// Export copies out the full state.
func (s *Store) Export() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Collections: make(map[string]map[string]store.Doc, len(s.collections)),
		Sequences:   make(map[string]int64, len(s.sequences)),
	}
	for kind, coll := range s.collections {
		dst := make(map[string]store.Doc, len(coll))
		for id, doc := range coll {
			dst[id] = copyDoc(doc)
		}
		snap.Collections[string(kind)] = dst
	}
	for k, v := range s.sequences {
		snap.Sequences[k] = v
	}
	return snap
}

// Import replaces the full state with the snapshot.
func (s *Store) Import(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.collections = make(map[legis.Kind]map[string]store.Doc, len(snap.Collections))
	for kind, coll := range snap.Collections {
		dst := make(map[string]store.Doc, len(coll))
		for id, doc := range coll {
			dst[id] = copyDoc(doc)
		}
		s.collections[legis.Kind(kind)] = dst
	}
	s.sequences = make(map[string]int64, len(snap.Sequences))
	for k, v := range snap.Sequences {
		s.sequences[k] = v
	}
}

func (s *Store) ensure(kind legis.Kind) map[string]store.Doc {
	coll, ok := s.collections[kind]
	if !ok {
		coll = make(map[string]store.Doc)
		s.collections[kind] = coll
	}
	return coll
}

// matches applies top-level field equality. Filter values are JSON-normalized
// before comparison so typed values compare equal to stored ones.
func matches(doc store.Doc, filter store.Filter) bool {
	for field, want := range filter {
		got, ok := doc[field]
		if !ok {
			if want == nil || want == "" {
				continue
			}
			return false
		}
		if !reflect.DeepEqual(got, normalize(want)) {
			return false
		}
	}
	return true
}

// normalize round-trips a value through JSON so filters written with typed
// values (ints, Chamber, time.Time) compare against stored documents.
func normalize(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}

// copyDoc deep-copies a document through JSON, which also normalizes any
// typed values a caller slipped in.
func copyDoc(doc store.Doc) store.Doc {
	data, err := json.Marshal(doc)
	if err != nil {
		return doc
	}
	var out store.Doc
	if err := json.Unmarshal(data, &out); err != nil {
		return doc
	}
	return out
}
