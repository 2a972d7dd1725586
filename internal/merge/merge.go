// Package merge implements the idempotent record merger: applying a
// candidate document onto a stored one field by field, honoring locked
// fields, and reporting whether anything actually changed. Re-importing
// identical data through this primitive is a true no-op, which is what keeps
// repeated scrapes from churning updated_at across the whole dataset.
package merge

import (
	"context"
	"reflect"
	"time"

	"github.com/civiclens/legistry/internal/store"
	"github.com/civiclens/legistry/pkg/errors"
	"github.com/civiclens/legistry/pkg/legis"
)

// Metadata fields the merger manages itself; candidates never overwrite
// them directly.
const (
	fieldID           = "id"
	fieldCreatedAt    = "created_at"
	fieldUpdatedAt    = "updated_at"
	fieldLockedFields = "locked_fields"
)

// ShouldApply decides per field whether an unequal candidate value may
// overwrite the existing one. Used, e.g., to permit only monotonic-safe
// overwrites. A nil predicate applies everything.
type ShouldApply func(field string, existing, candidate any) bool

// Apply copies every candidate field onto existing, skipping locked fields
// and fields the predicate rejects, and reports whether anything changed.
// A nil candidate value deletes the field. For each applied field named key,
// a legacy decoration field named "+"+key is deleted from existing.
func Apply(existing, candidate store.Doc, pred ShouldApply) bool {
	locked := lockedSet(existing)

	changed := false
	for field, value := range candidate {
		switch field {
		case fieldID, fieldCreatedAt, fieldUpdatedAt, fieldLockedFields:
			continue
		}
		if _, isLocked := locked[field]; isLocked {
			continue
		}
		old, present := existing[field]
		if value == nil {
			if present && old != nil {
				if pred == nil || pred(field, old, value) {
					delete(existing, field)
					delete(existing, "+"+field)
					changed = true
				}
			}
			continue
		}
		if present && reflect.DeepEqual(old, value) {
			continue
		}
		if pred != nil && !pred(field, old, value) {
			continue
		}
		existing[field] = value
		delete(existing, "+"+field)
		changed = true
	}
	return changed
}

// lockedSet reads the locked_fields list out of a document.
func lockedSet(doc store.Doc) map[string]struct{} {
	raw, ok := doc[fieldLockedFields].([]any)
	if !ok {
		return nil
	}
	locked := make(map[string]struct{}, len(raw))
	for _, f := range raw {
		if name, ok := f.(string); ok {
			locked[name] = struct{}{}
		}
	}
	return locked
}

// Result describes what Save did with a record.
type Result int

// Save outcomes.
const (
	Inserted Result = iota
	Updated
	Unchanged
)

// Save persists a candidate record: insert with the allocated ID when no
// document exists under id, otherwise merge onto the stored document.
// updated_at moves only when the merge changed something.
func Save(ctx context.Context, s store.Store, kind legis.Kind, id string, candidate store.Doc, pred ShouldApply, now time.Time) (Result, error) {
	existing, found, err := s.Get(ctx, kind, id)
	if err != nil {
		return Unchanged, errors.WrapStore("get", string(kind), id, err)
	}

	if !found {
		doc := make(store.Doc, len(candidate)+3)
		for k, v := range candidate {
			doc[k] = v
		}
		doc[fieldID] = id
		doc[fieldCreatedAt] = now.UTC().Format(time.RFC3339Nano)
		doc[fieldUpdatedAt] = now.UTC().Format(time.RFC3339Nano)
		if err := s.Insert(ctx, kind, id, doc); err != nil {
			return Unchanged, errors.WrapStore("insert", string(kind), id, err)
		}
		return Inserted, nil
	}

	if !Apply(existing, candidate, pred) {
		return Unchanged, nil
	}
	existing[fieldUpdatedAt] = now.UTC().Format(time.RFC3339Nano)
	if err := s.Put(ctx, kind, id, existing); err != nil {
		return Unchanged, errors.WrapStore("put", string(kind), id, err)
	}
	return Updated, nil
}
