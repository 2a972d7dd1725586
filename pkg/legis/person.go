package legis

import "time"

// RoleType distinguishes seat-holding roles from committee assignments.
type RoleType string

// Role types.
const (
	RoleMember          RoleType = "member"
	RoleCommitteeMember RoleType = "committee member"
)

// Person is the canonical record for a legislator. A Person either holds a
// current Role for the jurisdiction's latest term (active) or holds none
// (inactive); history lives in OldRoles keyed by term.
type Person struct {
	ID           string `json:"id" yaml:"id"`                     // Canonical ID (e.g. "EXL00000001")
	Jurisdiction string `json:"jurisdiction" yaml:"jurisdiction"` // Owning jurisdiction code

	// Names. FullName is the raw as-scraped display name and is the value
	// identity resolution matches against; the split name parts feed the
	// Name Resolver's candidate form generation.
	FullName   string `json:"full_name" yaml:"full_name"`
	FirstName  string `json:"first_name,omitempty" yaml:"first_name,omitempty"`
	MiddleName string `json:"middle_name,omitempty" yaml:"middle_name,omitempty"`
	LastName   string `json:"last_name,omitempty" yaml:"last_name,omitempty"`
	Suffix     string `json:"suffixes,omitempty" yaml:"suffixes,omitempty"`

	// Code is a short opaque identifier some sources supply (seat codes,
	// clerk abbreviations). Indexed by the Name Resolver ahead of name forms.
	Code string `json:"code,omitempty" yaml:"code,omitempty"`

	// Roles holds the current term's roles; index 0 is authoritative.
	// OldRoles holds history, keyed by term ID.
	Roles    []Role            `json:"roles" yaml:"roles"`
	OldRoles map[string][]Role `json:"old_roles,omitempty" yaml:"old_roles,omitempty"`

	// Top-level copies of the first current role, maintained by the term
	// lifecycle transitions for the convenience of downstream readers.
	Active   bool    `json:"active" yaml:"active"`
	Chamber  Chamber `json:"chamber,omitempty" yaml:"chamber,omitempty"`
	District string  `json:"district,omitempty" yaml:"district,omitempty"`
	Party    string  `json:"party,omitempty" yaml:"party,omitempty"`

	// LockedFields names fields frozen by manual curation; the merger never
	// overwrites them.
	LockedFields []string `json:"locked_fields,omitempty" yaml:"locked_fields,omitempty"`

	Sources []string `json:"sources,omitempty" yaml:"sources,omitempty"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Role is a term-scoped position held by a Person. Roles are embedded in
// Person and never independently identified.
type Role struct {
	Type     RoleType `json:"type" yaml:"type"`
	Term     string   `json:"term" yaml:"term"`
	Chamber  Chamber  `json:"chamber,omitempty" yaml:"chamber,omitempty"`
	District string   `json:"district,omitempty" yaml:"district,omitempty"`
	Party    string   `json:"party,omitempty" yaml:"party,omitempty"`

	// Committee assignment fields, set only for RoleCommitteeMember.
	Committee    string `json:"committee,omitempty" yaml:"committee,omitempty"`
	Subcommittee string `json:"subcommittee,omitempty" yaml:"subcommittee,omitempty"`
	CommitteeID  string `json:"committee_id,omitempty" yaml:"committee_id,omitempty"`
	Position     string `json:"position,omitempty" yaml:"position,omitempty"`

	StartDate *time.Time `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty" yaml:"end_date,omitempty"`
}

// RoleSpec is the subset of Role fields identity resolution matches on.
// Zero-valued fields are wildcards except Type and Term, which always match
// exactly when non-empty.
type RoleSpec struct {
	Type     RoleType
	Term     string
	Chamber  Chamber
	District string
}

// Matches reports whether r satisfies the spec. Empty Chamber/District in
// the spec match any value; an empty Term in the spec matches any term.
func (s RoleSpec) Matches(r Role) bool {
	if s.Type != "" && r.Type != s.Type {
		return false
	}
	if s.Term != "" && r.Term != s.Term {
		return false
	}
	if s.Chamber != "" && r.Chamber != s.Chamber {
		return false
	}
	if s.District != "" && r.District != s.District {
		return false
	}
	return true
}

// WithoutTerm returns a copy of the spec with the term wildcarded.
func (s RoleSpec) WithoutTerm() RoleSpec {
	s.Term = ""
	return s
}

// CurrentRole returns the authoritative current role, if any.
func (p *Person) CurrentRole() (Role, bool) {
	if len(p.Roles) == 0 {
		return Role{}, false
	}
	return p.Roles[0], true
}

// HasRoleInTerm reports whether the Person holds any role, current or
// historical, for the given term.
func (p *Person) HasRoleInTerm(term string) bool {
	for _, r := range p.Roles {
		if r.Term == term {
			return true
		}
	}
	if len(p.OldRoles[term]) > 0 {
		return true
	}
	return false
}
