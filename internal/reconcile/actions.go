package reconcile

import (
	"time"

	"github.com/civiclens/legistry/internal/resolve"
	"github.com/civiclens/legistry/pkg/legis"
)

// linkWindow is how far apart an action and its recorded vote may be and
// still refer to the same floor event.
const linkWindow = 20 * time.Hour

// processActions walks a bill's actions in snapshot order, resolving
// declared related entities and folding each action into the date summary.
func (e *Engine) processActions(bill *legis.Bill, r *resolve.Resolver, cr *resolve.CommitteeResolver) {
	var dates legis.ActionDates
	for i := range bill.Actions {
		a := &bill.Actions[i]
		e.resolveRelatedEntities(a, r, cr)
		summarizeAction(&dates, a)
	}
	bill.ActionDates = dates
}

func (e *Engine) resolveRelatedEntities(a *legis.Action, r *resolve.Resolver, cr *resolve.CommitteeResolver) {
	for i := range a.RelatedEntities {
		ent := &a.RelatedEntities[i]
		if ent.ID != "" {
			continue
		}
		switch ent.Type {
		case "committee":
			if id, ok := cr.Resolve(ent.Name, a.Actor); ok {
				ent.ID = id
			} else {
				e.report.Unresolved(ent.Name, "action-committee")
			}
		case "legislator":
			id, ok := r.Resolve(ent.Name, a.Actor)
			if !ok {
				id, ok = r.Resolve(ent.Name, legis.ChamberUnscoped)
			}
			if ok {
				ent.ID = id
			} else {
				e.report.Unresolved(ent.Name, "action-legislator")
			}
		}
	}
}

// summarizeAction updates the running date summary with one action. First
// and Last track min and max. The category dates are first-seen-wins in
// snapshot order: once passedUpper is set, later upper-chamber passages are
// ignored even if chronologically earlier, and each action feeds at most
// one category.
func summarizeAction(d *legis.ActionDates, a *legis.Action) {
	if a.Date.IsZero() {
		return
	}
	t := a.Date
	if d.First == nil || t.Before(*d.First) {
		d.First = &t
	}
	if d.Last == nil || t.After(*d.Last) {
		d.Last = &t
	}

	switch {
	case d.PassedUpper == nil && a.Actor == legis.ChamberUpper && a.HasPassageFlag():
		d.PassedUpper = &t
	case d.PassedLower == nil && a.Actor == legis.ChamberLower && a.HasPassageFlag():
		d.PassedLower = &t
	case d.Signed == nil && a.HasType(legis.ActionGovernorSigned):
		d.Signed = &t
	}
}

// linkVotesToActions attaches vote IDs to the actions that recorded them.
// An action qualifies when it has a date and carries a vote-flag tag. It
// links to the first vote in vote order whose chamber matches the action's
// actor and whose date falls within the window; a second matching vote
// makes the action ambiguous and it gets no link at all. After the full
// scan, any vote claimed by two different actions is unlinked from both,
// so a vote serves at most one action.
func linkVotesToActions(bill *legis.Bill, votes []legis.Vote) {
	claimed := make(map[string][]int) // vote ID -> action indices

	for i := range bill.Actions {
		a := &bill.Actions[i]
		a.RelatedVoteID = ""
		if a.Date.IsZero() || !a.HasVoteFlag() {
			continue
		}

		match := ""
		ambiguous := false
		for j := range votes {
			v := &votes[j]
			if v.Chamber != a.Actor {
				continue
			}
			delta := a.Date.Sub(v.Date)
			if delta < 0 {
				delta = -delta
			}
			if delta > linkWindow {
				continue
			}
			if match != "" {
				ambiguous = true
				break
			}
			match = v.ID
		}
		if match == "" || ambiguous {
			continue
		}
		a.RelatedVoteID = match
		claimed[match] = append(claimed[match], i)
	}

	for _, idxs := range claimed {
		if len(idxs) < 2 {
			continue
		}
		for _, i := range idxs {
			bill.Actions[i].RelatedVoteID = ""
		}
	}
}
