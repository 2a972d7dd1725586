package reconcile

import (
	"context"

	"github.com/civiclens/legistry/internal/merge"
	"github.com/civiclens/legistry/internal/resolve"
	"github.com/civiclens/legistry/internal/store"
	"github.com/civiclens/legistry/pkg/legis"
	"github.com/civiclens/legistry/pkg/logging"
)

// ClearStaleCommitteeMembers empties the membership list of every stored
// committee the current batch did not touch. Runs at committee-phase end;
// touched committees had their membership replaced wholesale, so only the
// ones absent from the batch can carry stale members. Going through the
// merger keeps repeat runs a no-op once the members are gone.
func (e *Engine) ClearStaleCommitteeMembers(ctx context.Context) error {
	committees, err := e.findCommittees(ctx, store.Filter{"jurisdiction": e.meta.Abbr})
	if err != nil {
		return err
	}
	for i := range committees {
		c := &committees[i]
		if _, ok := e.seenCommittees[c.ID]; ok {
			continue
		}
		if len(c.Members) == 0 {
			continue
		}
		c.Members = nil
		if err := e.saveCommittee(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// ReconcileCommittee applies one committee snapshot: find-or-create by
// (jurisdiction, chamber, committee, subcommittee), resolve member names,
// and sync membership into each resolved Person's current-term roles.
func (e *Engine) ReconcileCommittee(ctx context.Context, raw *legis.RawCommittee, term string, r *resolve.Resolver) error {
	if err := raw.Validate(); err != nil {
		e.report.Skip(legis.KindCommittee)
		logging.Ctx(ctx).Warn().Err(err).Str("committee", raw.Committee).Msg("skipping committee snapshot")
		return nil
	}

	committee, err := e.findOrCreateCommittee(ctx, raw)
	if err != nil {
		return err
	}
	e.seenCommittees[committee.ID] = struct{}{}
	committee.Sources = unionStrings(committee.Sources, raw.Sources)

	members := make([]legis.CommitteeMember, 0, len(raw.Members))
	for _, m := range raw.Members {
		id, ok := r.Resolve(m.Name, raw.Chamber)
		if !ok {
			id, ok = r.Resolve(m.Name, legis.ChamberUnscoped)
		}
		if !ok {
			e.report.Unresolved(m.Name, "committee-member")
			logging.Ctx(ctx).Debug().Str("name", m.Name).Str("committee", raw.Committee).Msg("unresolved committee member")
			members = append(members, legis.CommitteeMember{Name: m.Name, Role: m.Role})
			continue
		}
		members = append(members, legis.CommitteeMember{Name: m.Name, PersonID: id, Role: m.Role})

		if err := e.syncMemberRole(ctx, id, committee, m.Role, term); err != nil {
			return err
		}
	}
	committee.Members = members

	return e.saveCommittee(ctx, committee)
}

// SynthesizeCommittees builds committees purely from legislators'
// committee-member roles. Used when a jurisdiction's scrape produced no
// committee snapshots at all. Roles are grouped by natural key first so a
// committee shared by several people keeps its full membership.
func (e *Engine) SynthesizeCommittees(ctx context.Context, term string, r *resolve.Resolver) error {
	persons, err := e.findPersons(ctx, store.Filter{"jurisdiction": e.meta.Abbr})
	if err != nil {
		return err
	}

	type committeeKey struct {
		Chamber      legis.Chamber
		Committee    string
		Subcommittee string
	}
	grouped := make(map[committeeKey]*legis.RawCommittee)
	var order []committeeKey
	for i := range persons {
		p := &persons[i]
		for _, role := range p.Roles {
			if role.Type != legis.RoleCommitteeMember || role.Term != term || role.Committee == "" {
				continue
			}
			key := committeeKey{role.Chamber, role.Committee, role.Subcommittee}
			raw, ok := grouped[key]
			if !ok {
				raw = &legis.RawCommittee{
					Jurisdiction: p.Jurisdiction,
					Chamber:      role.Chamber,
					Committee:    role.Committee,
					Subcommittee: role.Subcommittee,
				}
				grouped[key] = raw
				order = append(order, key)
			}
			raw.Members = append(raw.Members, legis.CommitteeMember{Name: p.FullName, Role: role.Position})
		}
	}

	for _, key := range order {
		if err := e.ReconcileCommittee(ctx, grouped[key], term, r); err != nil {
			return err
		}
	}
	return nil
}

// LinkSubcommittees points each subcommittee at its parent committee by
// (chamber, committee name) lookup. A missing parent is logged, not fatal.
func (e *Engine) LinkSubcommittees(ctx context.Context) error {
	committees, err := e.findCommittees(ctx, store.Filter{"jurisdiction": e.meta.Abbr})
	if err != nil {
		return err
	}
	for i := range committees {
		c := &committees[i]
		if c.Subcommittee == "" {
			continue
		}
		parent, ok, err := e.store.FindOne(ctx, legis.KindCommittee, store.Filter{
			"jurisdiction": c.Jurisdiction,
			"chamber":      c.Chamber,
			"committee":    c.Committee,
			"subcommittee": "",
		})
		if err != nil {
			return err
		}
		if !ok {
			logging.Ctx(ctx).Info().Str("committee", c.Committee).Str("subcommittee", c.Subcommittee).
				Msg("no parent committee found")
			continue
		}
		id, _ := parent["id"].(string)
		if id == "" || c.ParentID == id {
			continue
		}
		c.ParentID = id
		if err := e.saveCommittee(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// findOrCreateCommittee looks a committee up by natural key, inserting a
// fresh one with an allocated ID when absent.
func (e *Engine) findOrCreateCommittee(ctx context.Context, raw *legis.RawCommittee) (*legis.Committee, error) {
	doc, ok, err := e.store.FindOne(ctx, legis.KindCommittee, store.Filter{
		"jurisdiction": raw.Jurisdiction,
		"chamber":      raw.Chamber,
		"committee":    raw.Committee,
		"subcommittee": raw.Subcommittee,
	})
	if err != nil {
		return nil, err
	}
	if ok {
		var c legis.Committee
		if err := store.Decode(doc, &c); err != nil {
			return nil, err
		}
		return &c, nil
	}

	id, err := e.alloc.Allocate(ctx, raw.Jurisdiction, legis.KindCommittee)
	if err != nil {
		return nil, err
	}
	return &legis.Committee{
		ID:           id,
		Jurisdiction: raw.Jurisdiction,
		Chamber:      raw.Chamber,
		Committee:    raw.Committee,
		Subcommittee: raw.Subcommittee,
	}, nil
}

// syncMemberRole ensures the Person's current-term roles contain a
// committee-member role for this committee, creating it or updating its
// position label, and unions sources in both directions.
func (e *Engine) syncMemberRole(ctx context.Context, personID string, c *legis.Committee, position, term string) error {
	p, err := e.loadPerson(ctx, personID)
	if err != nil {
		return err
	}

	found := false
	for i := range p.Roles {
		r := &p.Roles[i]
		if r.Type != legis.RoleCommitteeMember || r.Term != term {
			continue
		}
		if r.Committee != c.Committee || r.Subcommittee != c.Subcommittee {
			continue
		}
		found = true
		r.CommitteeID = c.ID
		if position != "" && r.Position != position {
			r.Position = position
		}
		break
	}
	if !found {
		p.Roles = append(p.Roles, legis.Role{
			Type:         legis.RoleCommitteeMember,
			Term:         term,
			Chamber:      c.Chamber,
			Committee:    c.Committee,
			Subcommittee: c.Subcommittee,
			CommitteeID:  c.ID,
			Position:     position,
		})
	}
	p.Sources = unionStrings(p.Sources, c.Sources)
	c.Sources = unionStrings(c.Sources, p.Sources)

	return e.savePerson(ctx, p, nil)
}

// saveCommittee persists a Committee through the idempotent merger.
func (e *Engine) saveCommittee(ctx context.Context, c *legis.Committee) error {
	doc, err := store.Encode(c)
	if err != nil {
		return err
	}
	if _, ok := doc["members"]; !ok {
		doc["members"] = []any{}
	}
	res, err := merge.Save(ctx, e.store, legis.KindCommittee, c.ID, doc, nil, e.now())
	if err != nil {
		return err
	}
	e.report.Record(legis.KindCommittee, res)
	return nil
}
