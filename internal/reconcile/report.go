package reconcile

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/civiclens/legistry/internal/merge"
	"github.com/civiclens/legistry/internal/metrics"
	"github.com/civiclens/legistry/pkg/legis"
)

// Counts tallies reconciliation outcomes for one record kind.
type Counts struct {
	Inserted  int `json:"inserted" yaml:"inserted"`
	Updated   int `json:"updated" yaml:"updated"`
	Unchanged int `json:"unchanged" yaml:"unchanged"`
	Skipped   int `json:"skipped" yaml:"skipped"`
}

// Report is the operator-facing summary of one jurisdiction batch: per-kind
// outcome counts and the distinct names that failed to resolve, for manual
// override curation. Safe for concurrent use by pipeline workers.
type Report struct {
	Jurisdiction string    `json:"jurisdiction" yaml:"jurisdiction"`
	StartedAt    time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt   time.Time `json:"finished_at" yaml:"finished_at"`

	Kinds map[string]*Counts `json:"kinds" yaml:"kinds"`

	// UnresolvedNames is the distinct set of raw names no resolver could
	// map to a unique canonical ID, with the context they appeared in.
	UnresolvedNames []UnresolvedName `json:"unresolved_names,omitempty" yaml:"unresolved_names,omitempty"`

	mu         sync.Mutex
	unresolved map[UnresolvedName]struct{}
}

// UnresolvedName is one raw name that failed resolution.
type UnresolvedName struct {
	Name    string `json:"name" yaml:"name"`
	Context string `json:"context" yaml:"context"` // sponsor, voter, action, committee-member, companion
}

// NewReport creates a Report for a jurisdiction batch.
func NewReport(jurisdiction string, startedAt time.Time) *Report {
	return &Report{
		Jurisdiction: jurisdiction,
		StartedAt:    startedAt,
		Kinds:        make(map[string]*Counts),
		unresolved:   make(map[UnresolvedName]struct{}),
	}
}

// Record tallies one reconciliation outcome.
func (r *Report) Record(kind legis.Kind, result merge.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.counts(kind)
	var outcome string
	switch result {
	case merge.Inserted:
		c.Inserted++
		outcome = "inserted"
	case merge.Updated:
		c.Updated++
		outcome = "updated"
	default:
		c.Unchanged++
		outcome = "unchanged"
	}
	metrics.RecordsTotal.WithLabelValues(r.Jurisdiction, string(kind), outcome).Inc()
}

// Skip tallies a skipped (malformed) snapshot.
func (r *Report) Skip(kind legis.Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.counts(kind).Skipped++
	metrics.RecordsTotal.WithLabelValues(r.Jurisdiction, string(kind), "skipped").Inc()
}

// Unresolved records a name that failed resolution.
func (r *Report) Unresolved(name, context string) {
	if name == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	key := UnresolvedName{Name: name, Context: context}
	if _, dup := r.unresolved[key]; dup {
		return
	}
	r.unresolved[key] = struct{}{}
	metrics.UnresolvedNamesTotal.WithLabelValues(r.Jurisdiction, context).Inc()
}

// Finish stamps the end time and freezes the unresolved-name set into its
// exported, sorted form.
func (r *Report) Finish(finishedAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.FinishedAt = finishedAt
	r.UnresolvedNames = r.UnresolvedNames[:0]
	for key := range r.unresolved {
		r.UnresolvedNames = append(r.UnresolvedNames, key)
	}
	sort.Slice(r.UnresolvedNames, func(i, j int) bool {
		if r.UnresolvedNames[i].Name != r.UnresolvedNames[j].Name {
			return r.UnresolvedNames[i].Name < r.UnresolvedNames[j].Name
		}
		return r.UnresolvedNames[i].Context < r.UnresolvedNames[j].Context
	})
}

// Log emits the report as a structured event.
func (r *Report) Log(logger *zerolog.Logger) {
	ev := logger.Info().
		Str("jurisdiction", r.Jurisdiction).
		Dur("elapsed", r.FinishedAt.Sub(r.StartedAt)).
		Int("unresolved_names", len(r.UnresolvedNames))
	for kind, c := range r.Kinds {
		ev = ev.
			Int(kind+"_inserted", c.Inserted).
			Int(kind+"_updated", c.Updated).
			Int(kind+"_unchanged", c.Unchanged).
			Int(kind+"_skipped", c.Skipped)
	}
	ev.Msg("import batch finished")

	for _, u := range r.UnresolvedNames {
		logger.Warn().
			Str("jurisdiction", r.Jurisdiction).
			Str("name", u.Name).
			Str("context", u.Context).
			Msg("name needs a manual override")
	}
}

func (r *Report) counts(kind legis.Kind) *Counts {
	c, ok := r.Kinds[string(kind)]
	if !ok {
		c = &Counts{}
		r.Kinds[string(kind)] = c
	}
	return c
}
