package legis

import "time"

// Committee is the canonical record for a legislative committee or
// subcommittee. The (Jurisdiction, Chamber, Committee, Subcommittee) tuple is
// its natural key. Membership is replaced on every import batch; a committee
// the batch does not mention has its members cleared.
type Committee struct {
	ID           string  `json:"id" yaml:"id"`
	Jurisdiction string  `json:"jurisdiction" yaml:"jurisdiction"`
	Chamber      Chamber `json:"chamber" yaml:"chamber"`
	Committee    string  `json:"committee" yaml:"committee"`
	Subcommittee string  `json:"subcommittee,omitempty" yaml:"subcommittee,omitempty"`

	Members []CommitteeMember `json:"members" yaml:"members"`

	// ParentID links a subcommittee to its parent committee, resolved by
	// (chamber, committee name) match at the end of the committee phase.
	ParentID string `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`

	LockedFields []string `json:"locked_fields,omitempty" yaml:"locked_fields,omitempty"`
	Sources      []string `json:"sources,omitempty" yaml:"sources,omitempty"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// CommitteeMember is one membership entry. PersonID is empty when the name
// could not be resolved to a unique Person.
type CommitteeMember struct {
	Name     string `json:"name" yaml:"name"`
	PersonID string `json:"person_id,omitempty" yaml:"person_id,omitempty"`
	Role     string `json:"role,omitempty" yaml:"role,omitempty"`
}
