package legis

import "time"

// Raw snapshot types. These are the untrusted records a scraper run
// produces: no canonical IDs, no derived fields, names exactly as scraped.
// Each carries a Validate method checking the natural-key fields an import
// cannot proceed without; invalid snapshots are skipped, never fatal.

// RawLegislator is one scraped legislator snapshot.
type RawLegislator struct {
	Jurisdiction string `json:"jurisdiction" yaml:"jurisdiction"`
	FullName     string `json:"full_name" yaml:"full_name"`
	FirstName    string `json:"first_name,omitempty" yaml:"first_name,omitempty"`
	MiddleName   string `json:"middle_name,omitempty" yaml:"middle_name,omitempty"`
	LastName     string `json:"last_name,omitempty" yaml:"last_name,omitempty"`
	Suffix       string `json:"suffixes,omitempty" yaml:"suffixes,omitempty"`
	Code         string `json:"code,omitempty" yaml:"code,omitempty"`

	Term     string  `json:"term" yaml:"term"`
	Chamber  Chamber `json:"chamber,omitempty" yaml:"chamber,omitempty"`
	District string  `json:"district,omitempty" yaml:"district,omitempty"`
	Party    string  `json:"party,omitempty" yaml:"party,omitempty"`

	Sources []string `json:"sources,omitempty" yaml:"sources,omitempty"`
}

// Validate checks the natural-key fields.
func (r *RawLegislator) Validate() error {
	if r.Jurisdiction == "" {
		return missingField("legislator", "jurisdiction")
	}
	if r.FullName == "" {
		return missingField("legislator", "full_name")
	}
	if r.Term == "" {
		return missingField("legislator", "term")
	}
	return nil
}

// Role derives the snapshot's primary role.
func (r *RawLegislator) Role() Role {
	return Role{
		Type:     RoleMember,
		Term:     r.Term,
		Chamber:  r.Chamber,
		District: r.District,
		Party:    r.Party,
	}
}

// RawCommittee is one scraped committee snapshot.
type RawCommittee struct {
	Jurisdiction string  `json:"jurisdiction" yaml:"jurisdiction"`
	Chamber      Chamber `json:"chamber" yaml:"chamber"`
	Committee    string  `json:"committee" yaml:"committee"`
	Subcommittee string  `json:"subcommittee,omitempty" yaml:"subcommittee,omitempty"`

	Members []CommitteeMember `json:"members" yaml:"members"`
	Sources []string          `json:"sources,omitempty" yaml:"sources,omitempty"`
}

// Validate checks the natural-key fields.
func (r *RawCommittee) Validate() error {
	if r.Jurisdiction == "" {
		return missingField("committee", "jurisdiction")
	}
	if r.Committee == "" {
		return missingField("committee", "committee")
	}
	return nil
}

// RawBill is one scraped bill snapshot, including embedded votes.
type RawBill struct {
	Jurisdiction string  `json:"jurisdiction" yaml:"jurisdiction"`
	Session      string  `json:"session" yaml:"session"`
	Chamber      Chamber `json:"chamber" yaml:"chamber"`
	BillID       string  `json:"bill_id" yaml:"bill_id"`

	Title    string   `json:"title" yaml:"title"`
	Type     []string `json:"type,omitempty" yaml:"type,omitempty"`
	Subjects []string `json:"subjects,omitempty" yaml:"subjects,omitempty"`

	Sponsors   []Sponsor   `json:"sponsors,omitempty" yaml:"sponsors,omitempty"`
	Actions    []Action    `json:"actions,omitempty" yaml:"actions,omitempty"`
	Versions   []Document  `json:"versions,omitempty" yaml:"versions,omitempty"`
	Documents  []Document  `json:"documents,omitempty" yaml:"documents,omitempty"`
	Companions []Companion `json:"companions,omitempty" yaml:"companions,omitempty"`
	Votes      []Vote      `json:"votes,omitempty" yaml:"votes,omitempty"`

	Sources []string `json:"sources,omitempty" yaml:"sources,omitempty"`
}

// Validate checks the natural-key fields.
func (r *RawBill) Validate() error {
	switch {
	case r.Jurisdiction == "":
		return missingField("bill", "jurisdiction")
	case r.Session == "":
		return missingField("bill", "session")
	case r.Chamber == "":
		return missingField("bill", "chamber")
	case r.BillID == "":
		return missingField("bill", "bill_id")
	}
	return nil
}

// RawVote is a standalone vote scraped independently of any bill, keyed back
// to its bill by (chamber, session, bill_id).
type RawVote struct {
	Jurisdiction string  `json:"jurisdiction" yaml:"jurisdiction"`
	Session      string  `json:"session" yaml:"session"`
	BillChamber  Chamber `json:"bill_chamber,omitempty" yaml:"bill_chamber,omitempty"`
	BillID       string  `json:"bill_id" yaml:"bill_id"`

	Vote Vote `json:"vote" yaml:"vote"`
}

// Validate checks the natural-key fields.
func (r *RawVote) Validate() error {
	switch {
	case r.Jurisdiction == "":
		return missingField("vote", "jurisdiction")
	case r.Session == "":
		return missingField("vote", "session")
	case r.BillID == "":
		return missingField("vote", "bill_id")
	case r.Vote.Motion == "":
		return missingField("vote", "vote.motion")
	case r.Vote.Date.IsZero():
		return missingField("vote", "vote.date")
	}
	return nil
}

// Canonical builds the canonical candidate from a raw snapshot. Derived
// fields (action dates, alternate titles, resolved IDs) are filled by the
// bill pipeline afterward.
func (r *RawBill) Canonical(now time.Time) Bill {
	return Bill{
		Jurisdiction:    r.Jurisdiction,
		Session:         r.Session,
		Chamber:         r.Chamber,
		BillID:          r.BillID,
		Title:           r.Title,
		Type:            r.Type,
		ScrapedSubjects: r.Subjects,
		Sponsors:        r.Sponsors,
		Actions:         r.Actions,
		Versions:        r.Versions,
		Documents:       r.Documents,
		Companions:      r.Companions,
		Sources:         r.Sources,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
