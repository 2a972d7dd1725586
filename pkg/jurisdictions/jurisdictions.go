// Package jurisdictions holds per-jurisdiction metadata: the ordered term
// list with sessions, bill identifier quirks, the subject vocabulary, and
// manually curated name overrides. Metadata is loaded from one YAML file per
// jurisdiction and is required before any batch can run.
package jurisdictions

import (
	"io/fs"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/civiclens/legistry/pkg/errors"
	"github.com/civiclens/legistry/pkg/legis"
)

// Jurisdiction is one governing body's metadata.
type Jurisdiction struct {
	Abbr string `json:"abbreviation" yaml:"abbreviation"`
	Name string `json:"name" yaml:"name"`

	// Terms is ordered oldest first; the last entry is the latest term.
	Terms []Term `json:"terms" yaml:"terms"`

	// BillIDPrefixes maps lowercase scraped prefixes to their canonical
	// spelling, e.g. "sb" -> "SB". Unlisted prefixes are upcased as-is.
	BillIDPrefixes map[string]string `json:"bill_id_prefixes,omitempty" yaml:"bill_id_prefixes,omitempty"`

	// PartialVoteBillID marks jurisdictions whose standalone votes carry
	// only the numeric suffix of a bill ID.
	PartialVoteBillID bool `json:"partial_vote_bill_id,omitempty" yaml:"partial_vote_bill_id,omitempty"`

	// Subjects maps controlled-vocabulary terms to the raw keyword strings
	// that categorize into them.
	Subjects map[string][]string `json:"subjects,omitempty" yaml:"subjects,omitempty"`

	// Overrides are manually curated name-to-ID mappings, checked ahead of
	// all heuristic resolution.
	Overrides []Override `json:"overrides,omitempty" yaml:"overrides,omitempty"`
}

// Term is one multi-year legislative term.
type Term struct {
	Name      string   `json:"name" yaml:"name"`
	StartYear int      `json:"start_year" yaml:"start_year"`
	EndYear   int      `json:"end_year" yaml:"end_year"`
	Sessions  []string `json:"sessions" yaml:"sessions"`
}

// Override maps an exact raw name to a canonical ID within an optional
// (term, chamber) scope. The stored key is matched without normalization.
type Override struct {
	Name    string        `json:"name" yaml:"name"`
	Term    string        `json:"term,omitempty" yaml:"term,omitempty"`
	Chamber legis.Chamber `json:"chamber,omitempty" yaml:"chamber,omitempty"`
	ID      string        `json:"id" yaml:"id"`
}

// LatestTerm returns the most recent term.
func (j *Jurisdiction) LatestTerm() (Term, bool) {
	if len(j.Terms) == 0 {
		return Term{}, false
	}
	return j.Terms[len(j.Terms)-1], true
}

// LatestSession returns the most recent session of the latest term.
func (j *Jurisdiction) LatestSession() (string, bool) {
	term, ok := j.LatestTerm()
	if !ok || len(term.Sessions) == 0 {
		return "", false
	}
	return term.Sessions[len(term.Sessions)-1], true
}

// TermForSession returns the term containing the given session.
func (j *Jurisdiction) TermForSession(session string) (Term, bool) {
	for _, t := range j.Terms {
		for _, s := range t.Sessions {
			if s == session {
				return t, true
			}
		}
	}
	return Term{}, false
}

// TermIndex returns the position of a term in the ordered term list, or -1.
// Lower indices are older terms.
func (j *Jurisdiction) TermIndex(name string) int {
	for i, t := range j.Terms {
		if t.Name == name {
			return i
		}
	}
	return -1
}

// NormalizeBillID canonicalizes a scraped bill identifier to
// "PREFIX number", e.g. "sb27" or "S.B. 27" -> "SB 27".
func (j *Jurisdiction) NormalizeBillID(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}

	// Split the leading letter run from the trailing number, dropping
	// punctuation and interior spaces.
	var prefix, number strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			number.WriteRune(r)
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			if number.Len() == 0 {
				prefix.WriteRune(r)
			}
		}
	}

	p := strings.ToLower(prefix.String())
	if canonical, ok := j.BillIDPrefixes[p]; ok {
		p = canonical
	} else {
		p = strings.ToUpper(p)
	}

	if number.Len() == 0 {
		return p
	}
	if p == "" {
		return number.String()
	}
	return p + " " + number.String()
}

// BillNumber returns only the numeric suffix of a bill ID, used when
// PartialVoteBillID is set.
func BillNumber(billID string) string {
	var number strings.Builder
	for _, r := range billID {
		if r >= '0' && r <= '9' {
			number.WriteRune(r)
		}
	}
	return number.String()
}

// Registry holds loaded jurisdiction metadata keyed by abbreviation.
type Registry struct {
	byAbbr map[string]*Jurisdiction
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byAbbr: make(map[string]*Jurisdiction)}
}

// Add registers a jurisdiction, replacing any prior entry.
func (r *Registry) Add(j *Jurisdiction) {
	r.byAbbr[strings.ToLower(j.Abbr)] = j
}

// Get returns the jurisdiction for an abbreviation.
func (r *Registry) Get(abbr string) (*Jurisdiction, bool) {
	j, ok := r.byAbbr[strings.ToLower(abbr)]
	return j, ok
}

// All returns every registered jurisdiction sorted by abbreviation.
func (r *Registry) All() []*Jurisdiction {
	out := make([]*Jurisdiction, 0, len(r.byAbbr))
	for _, j := range r.byAbbr {
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Abbr < out[k].Abbr })
	return out
}

// Load reads every *.yaml file in the given filesystem root as one
// jurisdiction metadata file.
func Load(fsys fs.FS) (*Registry, error) {
	reg := NewRegistry()

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, errors.WrapParse("yaml", ".", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		data, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, errors.WrapParse("yaml", entry.Name(), err)
		}
		var j Jurisdiction
		if err := yaml.Unmarshal(data, &j); err != nil {
			return nil, errors.WrapParse("yaml", entry.Name(), err)
		}
		if j.Abbr == "" {
			return nil, errors.NewConfigError("jurisdictions", "metadata file "+entry.Name()+" has no abbreviation", nil)
		}
		reg.Add(&j)
	}

	return reg, nil
}
