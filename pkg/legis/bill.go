package legis

import "time"

// BillKey is a bill's natural key. Chamber may be empty in lookups that are
// deliberately chamber-agnostic (companion resolution).
type BillKey struct {
	Jurisdiction string  `json:"jurisdiction" yaml:"jurisdiction"`
	Session      string  `json:"session" yaml:"session"`
	Chamber      Chamber `json:"chamber,omitempty" yaml:"chamber,omitempty"`
	BillID       string  `json:"bill_id" yaml:"bill_id"`
}

// Bill is the canonical record for a bill, resolution, or similar measure.
type Bill struct {
	ID           string  `json:"id" yaml:"id"`
	Jurisdiction string  `json:"jurisdiction" yaml:"jurisdiction"`
	Session      string  `json:"session" yaml:"session"`
	Chamber      Chamber `json:"chamber" yaml:"chamber"`
	BillID       string  `json:"bill_id" yaml:"bill_id"` // Canonical spelling, e.g. "SB 27"

	Title           string   `json:"title" yaml:"title"`
	AlternateTitles []string `json:"alternate_titles,omitempty" yaml:"alternate_titles,omitempty"`
	Type            []string `json:"type,omitempty" yaml:"type,omitempty"` // bill, resolution, ...

	Sponsors   []Sponsor   `json:"sponsors" yaml:"sponsors"`
	Actions    []Action    `json:"actions" yaml:"actions"`
	Versions   []Document  `json:"versions" yaml:"versions"`
	Documents  []Document  `json:"documents,omitempty" yaml:"documents,omitempty"`
	Companions []Companion `json:"companions,omitempty" yaml:"companions,omitempty"`

	// Subjects holds controlled-vocabulary terms produced by the subject
	// categorizer; ScrapedSubjects preserves the raw strings.
	Subjects        []string `json:"subjects,omitempty" yaml:"subjects,omitempty"`
	ScrapedSubjects []string `json:"scraped_subjects,omitempty" yaml:"scraped_subjects,omitempty"`

	// ActionDates summarizes the action list; see the action-date rules in
	// the bill pipeline.
	ActionDates ActionDates `json:"action_dates" yaml:"action_dates"`

	IsCurrentSession bool `json:"is_current_session" yaml:"is_current_session"`
	IsCurrentTerm    bool `json:"is_current_term" yaml:"is_current_term"`

	LockedFields []string `json:"locked_fields,omitempty" yaml:"locked_fields,omitempty"`
	Sources      []string `json:"sources,omitempty" yaml:"sources,omitempty"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Key returns the bill's natural key.
func (b *Bill) Key() BillKey {
	return BillKey{
		Jurisdiction: b.Jurisdiction,
		Session:      b.Session,
		Chamber:      b.Chamber,
		BillID:       b.BillID,
	}
}

// Sponsor is a bill sponsor. Exactly one of PersonID / CommitteeID is set
// when the name resolved; both are empty for unresolved sponsors.
type Sponsor struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"` // primary, cosponsor, ...
	PersonID    string `json:"person_id,omitempty" yaml:"person_id,omitempty"`
	CommitteeID string `json:"committee_id,omitempty" yaml:"committee_id,omitempty"`
}

// Action is one entry in a bill's history. Actions keep snapshot order; they
// are never re-sorted by date.
type Action struct {
	Date   time.Time `json:"date" yaml:"date"`
	Actor  Chamber   `json:"actor" yaml:"actor"` // upper, lower, executive
	Action string    `json:"action" yaml:"action"`
	Types  []string  `json:"type" yaml:"type"` // classified type tags

	RelatedEntities []RelatedEntity `json:"related_entities,omitempty" yaml:"related_entities,omitempty"`

	// RelatedVoteID links the action to at most one vote, set by the
	// vote-action linking pass.
	RelatedVoteID string `json:"related_vote_id,omitempty" yaml:"related_vote_id,omitempty"`
}

// RelatedEntity is a committee or legislator an action declares by name.
type RelatedEntity struct {
	Type string `json:"type" yaml:"type"` // committee, legislator
	Name string `json:"name" yaml:"name"`
	ID   string `json:"id,omitempty" yaml:"id,omitempty"`
}

// Document is a bill version or supporting document. DocID is assigned by
// the document fingerprint matcher, keyed on URL, and is stable across
// imports.
type Document struct {
	Name       string `json:"name" yaml:"name"`
	URL        string `json:"url" yaml:"url"`
	DocID      string `json:"doc_id,omitempty" yaml:"doc_id,omitempty"`
	Title      string `json:"title,omitempty" yaml:"title,omitempty"`
	ShortTitle string `json:"short_title,omitempty" yaml:"short_title,omitempty"`
	MimeType   string `json:"mimetype,omitempty" yaml:"mimetype,omitempty"`
}

// Companion references a related bill, usually in the other chamber.
// InternalID is filled when the reference resolves to a stored bill.
type Companion struct {
	Session    string  `json:"session" yaml:"session"`
	BillID     string  `json:"bill_id" yaml:"bill_id"`
	Chamber    Chamber `json:"chamber,omitempty" yaml:"chamber,omitempty"`
	InternalID string  `json:"internal_id,omitempty" yaml:"internal_id,omitempty"`
}

// ActionDates is the derived summary of a bill's action list. First and Last
// are the min and max action dates. PassedUpper, PassedLower, and Signed are
// first-seen-wins per category in snapshot order.
type ActionDates struct {
	First       *time.Time `json:"first,omitempty" yaml:"first,omitempty"`
	Last        *time.Time `json:"last,omitempty" yaml:"last,omitempty"`
	PassedUpper *time.Time `json:"passed_upper,omitempty" yaml:"passed_upper,omitempty"`
	PassedLower *time.Time `json:"passed_lower,omitempty" yaml:"passed_lower,omitempty"`
	Signed      *time.Time `json:"signed,omitempty" yaml:"signed,omitempty"`
}
