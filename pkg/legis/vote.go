package legis

import (
	"fmt"
	"time"
)

// Vote is a canonical roll call belonging to exactly one bill. Its ID is
// assigned by the vote fingerprint matcher from (motion, chamber, date,
// tallies) and is stable across repeated imports.
type Vote struct {
	ID           string  `json:"id" yaml:"id"`
	BillID       string  `json:"bill_id,omitempty" yaml:"bill_id,omitempty"` // Canonical bill ID, set at persist time
	Jurisdiction string  `json:"jurisdiction,omitempty" yaml:"jurisdiction,omitempty"`
	Session      string  `json:"session,omitempty" yaml:"session,omitempty"`
	Chamber      Chamber `json:"chamber" yaml:"chamber"`

	Motion string    `json:"motion" yaml:"motion"`
	Date   time.Time `json:"date" yaml:"date"`
	Passed bool      `json:"passed" yaml:"passed"`
	Types  []string  `json:"type,omitempty" yaml:"type,omitempty"` // classified type tags

	YesCount   int `json:"yes_count" yaml:"yes_count"`
	NoCount    int `json:"no_count" yaml:"no_count"`
	OtherCount int `json:"other_count" yaml:"other_count"`

	YesVotes   []RollCall `json:"yes_votes,omitempty" yaml:"yes_votes,omitempty"`
	NoVotes    []RollCall `json:"no_votes,omitempty" yaml:"no_votes,omitempty"`
	OtherVotes []RollCall `json:"other_votes,omitempty" yaml:"other_votes,omitempty"`

	// Committee is set for committee votes; CommitteeID when it resolved.
	Committee   string `json:"committee,omitempty" yaml:"committee,omitempty"`
	CommitteeID string `json:"committee_id,omitempty" yaml:"committee_id,omitempty"`

	// Voters is the set of resolved, non-empty roster person IDs.
	Voters []string `json:"voters,omitempty" yaml:"voters,omitempty"`
}

// RollCall is a single roster entry.
type RollCall struct {
	Name     string `json:"name" yaml:"name"`
	PersonID string `json:"person_id,omitempty" yaml:"person_id,omitempty"`
}

// Fingerprint is the vote's content-derived signature.
func (v *Vote) Fingerprint() string {
	return fmt.Sprintf("%s|%s|%s|%d|%d|%d",
		v.Motion, v.Chamber, v.Date.UTC().Format(time.RFC3339),
		v.YesCount, v.NoCount, v.OtherCount)
}
