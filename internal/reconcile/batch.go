package reconcile

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/civiclens/legistry/internal/metrics"
	"github.com/civiclens/legistry/internal/resolve"
	"github.com/civiclens/legistry/internal/store"
	"github.com/civiclens/legistry/pkg/errors"
	"github.com/civiclens/legistry/pkg/jurisdictions"
	"github.com/civiclens/legistry/pkg/legis"
	"github.com/civiclens/legistry/pkg/logging"
)

// defaultBillWorkers bounds concurrent bill reconciliation within a batch.
const defaultBillWorkers = 8

// Batch is one jurisdiction's worth of raw snapshots from a scraper run.
type Batch struct {
	Jurisdiction string                `json:"jurisdiction" yaml:"jurisdiction"`
	Legislators  []legis.RawLegislator `json:"legislators,omitempty" yaml:"legislators,omitempty"`
	Committees   []legis.RawCommittee  `json:"committees,omitempty" yaml:"committees,omitempty"`
	Bills        []legis.RawBill       `json:"bills,omitempty" yaml:"bills,omitempty"`
	Votes        []legis.RawVote       `json:"votes,omitempty" yaml:"votes,omitempty"`
}

// Runner sequences the reconciliation phases for jurisdiction batches:
// legislators, then committees, then bills, each phase feeding the name
// resolver the next one reads.
type Runner struct {
	store    store.Store
	registry *jurisdictions.Registry
	log      zerolog.Logger
	workers  int
	now      func() time.Time
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithBillWorkers sets the bill-phase concurrency.
func WithBillWorkers(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithRunnerClock overrides the Runner's clock, for tests.
func WithRunnerClock(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		r.now = now
	}
}

// NewRunner creates a Runner.
func NewRunner(s store.Store, registry *jurisdictions.Registry, log zerolog.Logger, opts ...RunnerOption) *Runner {
	r := &Runner{
		store:    s,
		registry: registry,
		log:      log,
		workers:  defaultBillWorkers,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run imports one jurisdiction batch and returns its report. Missing
// jurisdiction metadata aborts the whole batch; individual malformed
// snapshots are skipped and counted. Each record's persistence is
// independently atomic, so a failed batch never leaves a record half
// written.
func (r *Runner) Run(ctx context.Context, batch *Batch) (*Report, error) {
	started := r.now()
	meta, ok := r.registry.Get(batch.Jurisdiction)
	if !ok {
		return nil, errors.NewBatchError(batch.Jurisdiction, "setup",
			errors.ErrNotFound)
	}
	term, ok := meta.LatestTerm()
	if !ok {
		return nil, errors.NewBatchError(batch.Jurisdiction, "setup",
			errors.NewConfigError("jurisdictions", "no terms defined for "+batch.Jurisdiction, nil))
	}

	log := r.log.With().Str("jurisdiction", meta.Abbr).Logger()
	ctx = logging.WithLogger(ctx, &log)
	report := NewReport(meta.Abbr, started)
	engine := NewEngine(r.store, meta, report).WithClock(r.now)

	if err := r.runLegislators(ctx, engine, batch, term.Name); err != nil {
		return report, errors.WrapBatch(meta.Abbr, "legislators", err)
	}

	resolver, cr, err := r.buildResolvers(ctx, engine, meta, term.Name)
	if err != nil {
		return report, errors.WrapBatch(meta.Abbr, "committees", err)
	}
	if err := r.runCommittees(ctx, engine, batch, term.Name, resolver); err != nil {
		return report, errors.WrapBatch(meta.Abbr, "committees", err)
	}

	// Committee sync may have added roles; the bill phase reads a fresh,
	// immutable resolver built after it.
	resolver, cr, err = r.buildResolvers(ctx, engine, meta, term.Name)
	if err != nil {
		return report, errors.WrapBatch(meta.Abbr, "bills", err)
	}
	if err := r.runBills(ctx, engine, batch, meta, resolver, cr); err != nil {
		return report, errors.WrapBatch(meta.Abbr, "bills", err)
	}

	if err := engine.RefreshCurrentFlags(ctx); err != nil {
		return report, errors.WrapBatch(meta.Abbr, "finalize", err)
	}

	finished := r.now()
	report.Finish(finished)
	metrics.BatchDuration.WithLabelValues(meta.Abbr).Observe(finished.Sub(started).Seconds())
	report.Log(&log)

	if p, ok := r.store.(store.Persister); ok {
		if err := p.Persist(ctx); err != nil {
			return report, errors.WrapBatch(meta.Abbr, "persist", err)
		}
	}
	return report, nil
}

func (r *Runner) runLegislators(ctx context.Context, engine *Engine, batch *Batch, term string) error {
	ctx = logging.WithPhase(ctx, "legislators")
	logging.Ctx(ctx).Info().Int("snapshots", len(batch.Legislators)).Msg("reconciling legislators")
	for i := range batch.Legislators {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := engine.ReconcileLegislator(ctx, &batch.Legislators[i]); err != nil {
			return err
		}
	}
	if len(batch.Legislators) == 0 {
		return nil
	}
	if err := engine.ActivateTerm(ctx, term); err != nil {
		return err
	}
	return engine.DeactivateTerm(ctx, term)
}

func (r *Runner) runCommittees(ctx context.Context, engine *Engine, batch *Batch, term string, resolver *resolve.Resolver) error {
	ctx = logging.WithPhase(ctx, "committees")
	logging.Ctx(ctx).Info().Int("snapshots", len(batch.Committees)).Msg("reconciling committees")
	if len(batch.Committees) == 0 {
		if err := engine.SynthesizeCommittees(ctx, term, resolver); err != nil {
			return err
		}
		return engine.ClearStaleCommitteeMembers(ctx)
	}
	for i := range batch.Committees {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := engine.ReconcileCommittee(ctx, &batch.Committees[i], term, resolver); err != nil {
			return err
		}
	}
	if err := engine.LinkSubcommittees(ctx); err != nil {
		return err
	}
	return engine.ClearStaleCommitteeMembers(ctx)
}

func (r *Runner) runBills(ctx context.Context, engine *Engine, batch *Batch, meta *jurisdictions.Jurisdiction, resolver *resolve.Resolver, cr *resolve.CommitteeResolver) error {
	ctx = logging.WithPhase(ctx, "bills")
	logging.Ctx(ctx).Info().Int("snapshots", len(batch.Bills)).Int("standalone_votes", len(batch.Votes)).
		Msg("reconciling bills")

	sidecar := NewVoteSidecar(meta, batch.Votes, engine.report)
	cat := NewCategorizer(meta)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i := range batch.Bills {
		raw := &batch.Bills[i]
		g.Go(func() error {
			return engine.ReconcileBill(gctx, raw, sidecar, cat, resolver, cr)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if n := sidecar.Remaining(); n > 0 {
		logging.Ctx(ctx).Warn().Int("votes", n).Msg("standalone votes matched no bill")
	}
	return nil
}

// buildResolvers constructs the phase's read-only name resolvers from the
// jurisdiction's current Persons and manual overrides.
func (r *Runner) buildResolvers(ctx context.Context, engine *Engine, meta *jurisdictions.Jurisdiction, term string) (*resolve.Resolver, *resolve.CommitteeResolver, error) {
	persons, err := engine.findPersons(ctx, store.Filter{"jurisdiction": meta.Abbr})
	if err != nil {
		return nil, nil, err
	}
	resolver := resolve.NewResolver(meta.Abbr, term, persons, meta.Overrides)
	cr := resolve.NewCommitteeResolver(term, meta.Overrides)
	return resolver, cr, nil
}
