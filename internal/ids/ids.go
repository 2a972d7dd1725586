// Package ids allocates the stable, human-readable identifiers every
// canonical record carries: UPPER(jurisdiction) + kind letter + zero-padded
// sequence, e.g. "EXB00000027". The allocator's single contract is that no
// two calls for the same (jurisdiction, kind) ever return the same value.
package ids

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/civiclens/legistry/internal/store"
	"github.com/civiclens/legistry/pkg/errors"
	"github.com/civiclens/legistry/pkg/legis"
)

// padWidth is the zero-padded width of the numeric suffix.
const padWidth = 8

// Allocator issues IDs from the store's atomic sequence counters. Safe for
// concurrent callers; uniqueness rests entirely on the store's increment
// being atomic.
type Allocator struct {
	store store.Store
}

// NewAllocator creates an Allocator backed by the given store.
func NewAllocator(s store.Store) *Allocator {
	return &Allocator{store: s}
}

// Allocate returns the next ID for (jurisdiction, kind).
func (a *Allocator) Allocate(ctx context.Context, jurisdiction string, kind legis.Kind) (string, error) {
	seq, err := a.store.NextSequence(ctx, jurisdiction, kind)
	if err != nil {
		return "", errors.WrapStore("increment", string(kind), "", err)
	}
	return Format(jurisdiction, kind, seq), nil
}

// Format renders an ID from its parts.
func Format(jurisdiction string, kind legis.Kind, seq int64) string {
	return fmt.Sprintf("%s%s%0*d", strings.ToUpper(jurisdiction), kind.Letter(), padWidth, seq)
}

// Prefix returns the ID prefix shared by all records of (jurisdiction, kind).
func Prefix(jurisdiction string, kind legis.Kind) string {
	return strings.ToUpper(jurisdiction) + kind.Letter()
}

// Sequence extracts the numeric suffix from an ID, or 0 if it has none.
func Sequence(id string) int64 {
	i := len(id)
	for i > 0 && id[i-1] >= '0' && id[i-1] <= '9' {
		i--
	}
	if i == len(id) {
		return 0
	}
	n, err := strconv.ParseInt(id[i:], 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// ScanAllocator is the legacy allocation strategy for stores without an
// atomic increment: read the current maximum ID under the prefix, attempt an
// insert at max+1, and retry on a duplicate-key collision. The caller
// provides the insert via Claim's placeholder document. Prefer Allocator.
type ScanAllocator struct {
	store store.Store
}

// NewScanAllocator creates a ScanAllocator backed by the given store.
func NewScanAllocator(s store.Store) *ScanAllocator {
	return &ScanAllocator{store: s}
}

// Allocate scans existing IDs and claims the next free one by inserting the
// given placeholder document under it. The inserted document is the caller's
// to overwrite with Put.
func (a *ScanAllocator) Allocate(ctx context.Context, jurisdiction string, kind legis.Kind, placeholder store.Doc) (string, error) {
	prefix := Prefix(jurisdiction, kind)

	existing, err := a.store.IDs(ctx, kind, prefix)
	if err != nil {
		return "", errors.WrapStore("find", string(kind), "", err)
	}
	var next int64 = 1
	for _, id := range existing {
		if seq := Sequence(id); seq >= next {
			next = seq + 1
		}
	}

	for {
		candidate := Format(jurisdiction, kind, next)
		err := a.store.Insert(ctx, kind, candidate, placeholder)
		if err == nil {
			return candidate, nil
		}
		if !errors.IsAlreadyExists(err) {
			return "", errors.WrapStore("insert", string(kind), candidate, err)
		}
		next++
	}
}
