// Package fingerprint recognizes "the same real thing" across independent
// scrapes by a content-derived signature rather than identity: a vote by its
// motion, chamber, date, and tallies; a document by its URL. A matcher
// learns the fingerprints of already-stored items and hands their IDs back
// to matching items in a new batch, allocating fresh IDs only for
// fingerprints it has never seen.
//
// Duplicate fingerprints within one list are disambiguated by order of
// appearance: the actual map key is (fingerprint, occurrence index), with
// the occurrence counter reset at the start of each Learn or Assign call.
// Re-presenting an unchanged list therefore reproduces the same IDs in the
// same order, and an insertion anywhere in the list gets a fresh ID without
// disturbing items that still match by fingerprint and position.
package fingerprint

import (
	"context"
	"fmt"

	"github.com/civiclens/legistry/internal/ids"
	"github.com/civiclens/legistry/pkg/legis"
)

// KeyFunc derives an item's fingerprint.
type KeyFunc[T any] func(T) string

// Matcher maps fingerprints to previously assigned IDs for one
// (jurisdiction, kind) pair.
type Matcher[T any] struct {
	jurisdiction string
	kind         legis.Kind
	key          KeyFunc[T]
	alloc        *ids.Allocator

	learned map[string]string // disambiguated fingerprint -> ID
	seen    map[string]int    // per-call occurrence counters
}

// New creates a Matcher.
func New[T any](jurisdiction string, kind legis.Kind, key KeyFunc[T], alloc *ids.Allocator) *Matcher[T] {
	return &Matcher[T]{
		jurisdiction: jurisdiction,
		kind:         kind,
		key:          key,
		alloc:        alloc,
		learned:      make(map[string]string),
	}
}

// Learn records the fingerprints and IDs of existing items. idOf extracts
// each item's previously assigned ID; items with no ID are skipped.
func (m *Matcher[T]) Learn(items []T, idOf func(T) string) {
	m.seen = make(map[string]int)
	for _, item := range items {
		id := idOf(item)
		if id == "" {
			continue
		}
		m.learned[m.next(m.key(item))] = id
	}
}

// Assign gives every item an ID: the learned one when its disambiguated
// fingerprint is known, a freshly allocated one otherwise. setID writes the
// ID back into the item.
func (m *Matcher[T]) Assign(ctx context.Context, items []T, setID func(*T, string)) error {
	m.seen = make(map[string]int)
	for i := range items {
		key := m.next(m.key(items[i]))
		id, ok := m.learned[key]
		if !ok {
			var err error
			id, err = m.alloc.Allocate(ctx, m.jurisdiction, m.kind)
			if err != nil {
				return err
			}
			m.learned[key] = id
		}
		setID(&items[i], id)
	}
	return nil
}

// next returns the disambiguated key for a fingerprint and advances its
// occurrence counter.
func (m *Matcher[T]) next(fp string) string {
	n := m.seen[fp]
	m.seen[fp] = n + 1
	return fmt.Sprintf("%s#%d", fp, n)
}
