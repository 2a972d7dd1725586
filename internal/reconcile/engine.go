// Package reconcile implements the reconciliation pipelines that turn raw
// scraped snapshots into the canonical dataset: legislators first, then
// committees, then bills with their votes. Each pipeline is built on the
// identifier allocator, the idempotent merger, the name resolvers, and the
// fingerprint matchers; the Runner sequences the phases for one
// jurisdiction batch.
package reconcile

import (
	"context"
	"time"

	"github.com/civiclens/legistry/internal/ids"
	"github.com/civiclens/legistry/internal/store"
	"github.com/civiclens/legistry/pkg/errors"
	"github.com/civiclens/legistry/pkg/jurisdictions"
	"github.com/civiclens/legistry/pkg/legis"
)

// Engine holds the shared dependencies of the reconciliation pipelines for
// one jurisdiction batch. Resolver instances are passed per phase, never
// held process-wide. Logging goes through the context logger the Runner
// installs.
type Engine struct {
	store  store.Store
	meta   *jurisdictions.Jurisdiction
	alloc  *ids.Allocator
	report *Report
	now    func() time.Time

	// seenCommittees tracks committee IDs the current batch reconciled,
	// written only during the sequential committee phase.
	seenCommittees map[string]struct{}
}

// NewEngine creates an Engine for one jurisdiction.
func NewEngine(s store.Store, meta *jurisdictions.Jurisdiction, report *Report) *Engine {
	return &Engine{
		store:          s,
		meta:           meta,
		alloc:          ids.NewAllocator(s),
		report:         report,
		now:            time.Now,
		seenCommittees: make(map[string]struct{}),
	}
}

// WithClock overrides the engine's clock, for tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// loadPerson fetches and decodes one Person.
func (e *Engine) loadPerson(ctx context.Context, id string) (*legis.Person, error) {
	doc, ok, err := e.store.Get(ctx, legis.KindLegislator, id)
	if err != nil {
		return nil, errors.WrapStore("get", "legislator", id, err)
	}
	if !ok {
		return nil, errors.NewNotFoundError("legislator", id)
	}
	var p legis.Person
	if err := store.Decode(doc, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// findPersons fetches and decodes Persons matching a filter.
func (e *Engine) findPersons(ctx context.Context, filter store.Filter) ([]legis.Person, error) {
	docs, err := e.store.Find(ctx, legis.KindLegislator, filter)
	if err != nil {
		return nil, errors.WrapStore("find", "legislator", "", err)
	}
	out := make([]legis.Person, 0, len(docs))
	for _, doc := range docs {
		var p legis.Person
		if err := store.Decode(doc, &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// findCommittees fetches and decodes Committees matching a filter.
func (e *Engine) findCommittees(ctx context.Context, filter store.Filter) ([]legis.Committee, error) {
	docs, err := e.store.Find(ctx, legis.KindCommittee, filter)
	if err != nil {
		return nil, errors.WrapStore("find", "committee", "", err)
	}
	out := make([]legis.Committee, 0, len(docs))
	for _, doc := range docs {
		var c legis.Committee
		if err := store.Decode(doc, &c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
