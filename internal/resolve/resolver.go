// Package resolve maps free-text person and committee names to canonical
// IDs within a (jurisdiction, term) scope. Resolution is deterministic and
// rule-based: manual overrides first, then source-supplied codes, then
// generated name forms — and uniqueness, not first-match, decides: a form
// two Persons share resolves to nothing.
//
// Resolvers are built once per batch phase from the store's current state
// and are immutable afterward, so concurrent pipeline workers may share one
// instance without locking.
package resolve

import (
	"github.com/civiclens/legistry/pkg/jurisdictions"
	"github.com/civiclens/legistry/pkg/legis"
)

// tombstone marks an index entry claimed by more than one Person.
const tombstone = ""

// index is one normalized-form lookup table. A present-but-tombstoned entry
// means "ambiguous, resolve to nothing".
type index map[string]string

// set records a form for a person, tombstoning on conflict.
func (ix index) set(form, id string) {
	if existing, ok := ix[form]; ok {
		if existing != id {
			ix[form] = tombstone
		}
		return
	}
	ix[form] = id
}

// lookup returns the ID for a form. ok is false both for unknown forms and
// for tombstoned ones.
func (ix index) lookup(form string) (string, bool) {
	id, ok := ix[form]
	if !ok || id == tombstone {
		return "", false
	}
	return id, true
}

// Resolver resolves legislator names within one (jurisdiction, term).
type Resolver struct {
	jurisdiction string
	term         string

	// overrides are exact-string matches, never normalized. Scoped maps
	// are keyed by chamber; the unscoped map applies jurisdiction-wide.
	overrides map[legis.Chamber]map[string]string

	// codes and forms are normalized lookups keyed by chamber, with the
	// empty chamber holding the chamber-agnostic index.
	codes map[legis.Chamber]index
	forms map[legis.Chamber]index
}

// NewResolver builds a resolver from all Persons holding a role, current or
// historical, in the given term, plus the jurisdiction's manual overrides.
func NewResolver(jurisdiction, term string, persons []legis.Person, overrides []jurisdictions.Override) *Resolver {
	r := &Resolver{
		jurisdiction: jurisdiction,
		term:         term,
		overrides:    make(map[legis.Chamber]map[string]string),
		codes:        make(map[legis.Chamber]index),
		forms:        make(map[legis.Chamber]index),
	}

	for _, o := range overrides {
		if o.Term != "" && o.Term != term {
			continue
		}
		scope := r.overrides[o.Chamber]
		if scope == nil {
			scope = make(map[string]string)
			r.overrides[o.Chamber] = scope
		}
		scope[o.Name] = o.ID
	}

	for i := range persons {
		p := &persons[i]
		chambers := termChambers(p, term)
		if chambers == nil {
			continue
		}
		forms := Forms(p)
		code := Normalize(p.Code)
		for chamber := range chambers {
			for _, form := range forms {
				r.index(r.forms, chamber).set(form, p.ID)
			}
			if code != "" {
				r.index(r.codes, chamber).set(code, p.ID)
			}
		}
		for _, form := range forms {
			r.index(r.forms, legis.ChamberUnscoped).set(form, p.ID)
		}
		if code != "" {
			r.index(r.codes, legis.ChamberUnscoped).set(code, p.ID)
		}
	}

	return r
}

// Term returns the term the resolver was built for.
func (r *Resolver) Term() string { return r.term }

// Resolve maps a raw scraped name to a person ID. An empty chamber queries
// the chamber-agnostic indices. ok is false for unknown and for ambiguous
// names alike.
func (r *Resolver) Resolve(rawName string, chamber legis.Chamber) (string, bool) {
	if rawName == "" {
		return "", false
	}

	// Manual overrides win outright, exact string match.
	if chamber != legis.ChamberUnscoped {
		if id, ok := r.overrides[chamber][rawName]; ok {
			return id, true
		}
	}
	if id, ok := r.overrides[legis.ChamberUnscoped][rawName]; ok {
		return id, true
	}

	n := Normalize(rawName)
	if n == "" {
		return "", false
	}

	if id, ok := r.codes[chamber].lookup(n); ok {
		return id, true
	}
	return r.forms[chamber].lookup(n)
}

// index returns the per-chamber index, creating it on first use.
func (r *Resolver) index(m map[legis.Chamber]index, chamber legis.Chamber) index {
	ix, ok := m[chamber]
	if !ok {
		ix = make(index)
		m[chamber] = ix
	}
	return ix
}

// termChambers collects the chambers a Person served in during the term,
// current roles and old roles alike. nil means no role in the term at all.
func termChambers(p *legis.Person, term string) map[legis.Chamber]struct{} {
	var chambers map[legis.Chamber]struct{}
	collect := func(roles []legis.Role) {
		for _, role := range roles {
			if role.Term != term {
				continue
			}
			if chambers == nil {
				chambers = make(map[legis.Chamber]struct{})
			}
			if role.Chamber != legis.ChamberUnscoped {
				chambers[role.Chamber] = struct{}{}
			}
		}
	}
	collect(p.Roles)
	collect(p.OldRoles[term])
	return chambers
}
