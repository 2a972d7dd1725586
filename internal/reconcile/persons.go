package reconcile

import (
	"context"

	"github.com/civiclens/legistry/internal/merge"
	"github.com/civiclens/legistry/internal/store"
	"github.com/civiclens/legistry/pkg/errors"
	"github.com/civiclens/legistry/pkg/legis"
	"github.com/civiclens/legistry/pkg/logging"
)

// ReconcileLegislator applies one legislator snapshot: match it to an
// existing Person by scraped name and role, moving roles between current
// and historical as the terms dictate, or insert a new Person. The search
// order is:
//
//	(a) same scraped name and a matching current role for the term
//	(b) same scraped name and a matching role already filed under the
//	    term's history — the snapshot stays historical
//	(c) same scraped name and a matching current role for any term — the
//	    newer term wins the current slot, the older is filed as history
//
// No match inserts a new Person.
func (e *Engine) ReconcileLegislator(ctx context.Context, raw *legis.RawLegislator) error {
	if err := raw.Validate(); err != nil {
		e.report.Skip(legis.KindLegislator)
		logging.Ctx(ctx).Warn().Err(err).Str("name", raw.FullName).Msg("skipping legislator snapshot")
		return nil
	}

	role := raw.Role()
	spec := legis.RoleSpec{Type: role.Type, Term: role.Term, Chamber: role.Chamber, District: role.District}

	candidates, err := e.findPersons(ctx, store.Filter{
		"jurisdiction": raw.Jurisdiction,
		"full_name":    raw.FullName,
	})
	if err != nil {
		return err
	}

	// (a) current role matches the full spec.
	for i := range candidates {
		p := &candidates[i]
		if anyMatch(p.Roles, spec) {
			return e.savePerson(ctx, applyScalars(p, raw), nil)
		}
	}

	// (b) a role under this term's history matches; the snapshot's role is
	// demoted into history alongside it and current roles stay untouched.
	for i := range candidates {
		p := &candidates[i]
		if anyMatch(p.OldRoles[role.Term], spec.WithoutTerm()) {
			replaceInHistory(p, role)
			return e.savePerson(ctx, applyScalars(p, raw), nil)
		}
	}

	// (c) a current role matches ignoring term: order the two terms and
	// keep the newer one current.
	for i := range candidates {
		p := &candidates[i]
		current, ok := p.CurrentRole()
		if !ok || !spec.WithoutTerm().Matches(current) {
			continue
		}
		if e.meta.TermIndex(role.Term) < e.meta.TermIndex(current.Term) {
			// Snapshot is older: file it as history.
			replaceInHistory(p, role)
		} else {
			// Snapshot is newer: demote the current roles, promote it.
			if p.OldRoles == nil {
				p.OldRoles = make(map[string][]legis.Role)
			}
			p.OldRoles[current.Term] = append(p.OldRoles[current.Term], p.Roles...)
			p.Roles = []legis.Role{role}
		}
		return e.savePerson(ctx, applyScalars(p, raw), nil)
	}

	// New Person.
	id, err := e.alloc.Allocate(ctx, raw.Jurisdiction, legis.KindLegislator)
	if err != nil {
		return err
	}
	p := &legis.Person{
		ID:           id,
		Jurisdiction: raw.Jurisdiction,
		FullName:     raw.FullName,
		FirstName:    raw.FirstName,
		MiddleName:   raw.MiddleName,
		LastName:     raw.LastName,
		Suffix:       raw.Suffix,
		Code:         raw.Code,
		Roles:        []legis.Role{role},
		Sources:      raw.Sources,
	}
	return e.savePerson(ctx, p, nil)
}

// ActivateTerm marks every Person serving in the term as active and copies
// the first current role's district, chamber, and party to the top level.
func (e *Engine) ActivateTerm(ctx context.Context, term string) error {
	persons, err := e.findPersons(ctx, store.Filter{"jurisdiction": e.meta.Abbr})
	if err != nil {
		return err
	}
	for i := range persons {
		p := &persons[i]
		if !p.HasRoleInTerm(term) {
			continue
		}
		current, ok := p.CurrentRole()
		if !ok || current.Type != legis.RoleMember || current.EndDate != nil {
			continue
		}
		p.Active = true
		p.Chamber = current.Chamber
		p.District = current.District
		p.Party = current.Party
		if err := e.savePerson(ctx, p, nil); err != nil {
			return err
		}
	}
	return nil
}

// DeactivateTerm retires every Person whose first current role is not for
// the term, or is but has ended: current roles move into history, the
// top-level role copies are removed, and the Person goes inactive.
func (e *Engine) DeactivateTerm(ctx context.Context, term string) error {
	persons, err := e.findPersons(ctx, store.Filter{"jurisdiction": e.meta.Abbr})
	if err != nil {
		return err
	}
	for i := range persons {
		p := &persons[i]
		current, ok := p.CurrentRole()
		if !ok {
			continue
		}
		if current.Term == term && current.EndDate == nil {
			continue
		}
		if p.OldRoles == nil {
			p.OldRoles = make(map[string][]legis.Role)
		}
		for _, r := range p.Roles {
			p.OldRoles[r.Term] = append(p.OldRoles[r.Term], r)
		}
		p.Roles = nil
		p.Active = false
		p.Chamber = legis.ChamberUnscoped
		p.District = ""
		p.Party = ""
		if err := e.savePerson(ctx, p, []string{"chamber", "district", "party"}); err != nil {
			return err
		}
	}
	return nil
}

// savePerson persists a Person through the idempotent merger. clears names
// fields that must be deleted from the stored document.
func (e *Engine) savePerson(ctx context.Context, p *legis.Person, clears []string) error {
	if p.ID == "" {
		return errors.NewValidationError("id", "", "person has no canonical ID")
	}
	doc, err := store.Encode(p)
	if err != nil {
		return err
	}
	// Roles must persist even when empty, so a deactivation sticks.
	if _, ok := doc["roles"]; !ok {
		doc["roles"] = []any{}
	}
	for _, field := range clears {
		if _, ok := doc[field]; !ok {
			doc[field] = nil
		}
	}
	res, err := merge.Save(ctx, e.store, legis.KindLegislator, p.ID, doc, nil, e.now())
	if err != nil {
		return err
	}
	e.report.Record(legis.KindLegislator, res)
	return nil
}

// applyScalars copies the snapshot's name parts and code onto the matched
// Person, leaving role structure to the caller.
func applyScalars(p *legis.Person, raw *legis.RawLegislator) *legis.Person {
	p.FullName = raw.FullName
	if raw.FirstName != "" {
		p.FirstName = raw.FirstName
	}
	if raw.MiddleName != "" {
		p.MiddleName = raw.MiddleName
	}
	if raw.LastName != "" {
		p.LastName = raw.LastName
	}
	if raw.Suffix != "" {
		p.Suffix = raw.Suffix
	}
	if raw.Code != "" {
		p.Code = raw.Code
	}
	p.Sources = unionStrings(p.Sources, raw.Sources)
	return p
}

// anyMatch reports whether any role satisfies the spec.
func anyMatch(roles []legis.Role, spec legis.RoleSpec) bool {
	for _, r := range roles {
		if spec.Matches(r) {
			return true
		}
	}
	return false
}

// replaceInHistory files a role under its term's history, replacing a
// matching entry rather than duplicating it.
func replaceInHistory(p *legis.Person, role legis.Role) {
	if p.OldRoles == nil {
		p.OldRoles = make(map[string][]legis.Role)
	}
	spec := legis.RoleSpec{Type: role.Type, Chamber: role.Chamber, District: role.District}
	old := p.OldRoles[role.Term]
	for i, r := range old {
		if spec.Matches(r) {
			old[i] = role
			p.OldRoles[role.Term] = old
			return
		}
	}
	p.OldRoles[role.Term] = append(old, role)
}

// unionStrings merges b into a preserving a's order and dropping duplicates.
func unionStrings(a, b []string) []string {
	seen := make(map[string]struct{}, len(a))
	for _, s := range a {
		seen[s] = struct{}{}
	}
	for _, s := range b {
		if _, dup := seen[s]; !dup {
			seen[s] = struct{}{}
			a = append(a, s)
		}
	}
	return a
}
