package reconcile

import (
	"context"
	"sort"

	"github.com/civiclens/legistry/internal/fingerprint"
	"github.com/civiclens/legistry/internal/merge"
	"github.com/civiclens/legistry/internal/resolve"
	"github.com/civiclens/legistry/internal/store"
	"github.com/civiclens/legistry/pkg/legis"
	"github.com/civiclens/legistry/pkg/logging"
)

// ReconcileBill runs one bill snapshot through the full pipeline: ID
// normalization, natural-key lookup, companion and sponsor resolution,
// document and vote fingerprinting, action processing, vote-action
// linking, derived titles and subjects, and idempotent persistence.
func (e *Engine) ReconcileBill(ctx context.Context, raw *legis.RawBill, sidecar *VoteSidecar, cat *Categorizer, r *resolve.Resolver, cr *resolve.CommitteeResolver) error {
	if err := raw.Validate(); err != nil {
		e.report.Skip(legis.KindBill)
		logging.Ctx(ctx).Warn().Err(err).Str("bill_id", raw.BillID).Msg("skipping bill snapshot")
		return nil
	}

	bill := raw.Canonical(e.now())
	bill.BillID = e.meta.NormalizeBillID(raw.BillID)
	log := logging.Ctx(ctx).With().Str("bill", bill.BillID).Str("session", bill.Session).Logger()
	ctx = logging.WithLogger(ctx, &log)

	existing, err := e.findBill(ctx, bill.Key())
	if err != nil {
		return err
	}

	e.resolveCompanions(ctx, &bill)

	if err := e.assignDocumentIDs(ctx, &bill, existing); err != nil {
		return err
	}

	e.resolveSponsors(&bill, r, cr)

	votes := mergeVotes(raw.Votes, sidecar.Take(bill.Chamber, bill.Session, bill.BillID))
	e.resolveVoteRosters(votes, r, cr)

	billCanonicalID := ""
	if existing != nil {
		billCanonicalID = existing.ID
	}
	if billCanonicalID == "" {
		billCanonicalID, err = e.alloc.Allocate(ctx, bill.Jurisdiction, legis.KindBill)
		if err != nil {
			return err
		}
	}
	bill.ID = billCanonicalID

	if err := e.assignVoteIDs(ctx, bill.ID, votes); err != nil {
		return err
	}

	e.processActions(&bill, r, cr)
	linkVotesToActions(&bill, votes)

	bill.AlternateTitles = deriveAlternateTitles(existing, &bill)
	e.categorizeSubjects(existing, &bill, cat)
	if existing != nil {
		bill.Sources = unionStrings(existing.Sources, bill.Sources)
		// Current-flags are batch-derived; keep the stored values until the
		// end-of-batch recompute so a re-import stays a no-op.
		bill.IsCurrentSession = existing.IsCurrentSession
		bill.IsCurrentTerm = existing.IsCurrentTerm
	}

	doc, err := store.Encode(&bill)
	if err != nil {
		return err
	}
	res, err := merge.Save(ctx, e.store, legis.KindBill, bill.ID, doc, nil, e.now())
	if err != nil {
		return err
	}
	e.report.Record(legis.KindBill, res)
	log.Debug().Str("id", bill.ID).Int("votes", len(votes)).Msg("bill reconciled")

	return e.persistVotes(ctx, &bill, votes)
}

// RefreshCurrentFlags recomputes is_current_session and is_current_term for
// every stored bill in the jurisdiction against the latest metadata. Runs
// once after the whole batch.
func (e *Engine) RefreshCurrentFlags(ctx context.Context) error {
	latestSession, _ := e.meta.LatestSession()
	latestTerm, _ := e.meta.LatestTerm()

	docs, err := e.store.Find(ctx, legis.KindBill, store.Filter{"jurisdiction": e.meta.Abbr})
	if err != nil {
		return err
	}
	for _, doc := range docs {
		var b legis.Bill
		if err := store.Decode(doc, &b); err != nil {
			return err
		}
		term, _ := e.meta.TermForSession(b.Session)

		currentSession := latestSession != "" && b.Session == latestSession
		currentTerm := latestTerm.Name != "" && term.Name == latestTerm.Name
		if b.IsCurrentSession == currentSession && b.IsCurrentTerm == currentTerm {
			continue
		}
		b.IsCurrentSession = currentSession
		b.IsCurrentTerm = currentTerm

		updated, err := store.Encode(&b)
		if err != nil {
			return err
		}
		res, err := merge.Save(ctx, e.store, legis.KindBill, b.ID, updated, nil, e.now())
		if err != nil {
			return err
		}
		e.report.Record(legis.KindBill, res)
	}
	return nil
}

// findBill looks a bill up by natural key, returning nil when absent.
func (e *Engine) findBill(ctx context.Context, key legis.BillKey) (*legis.Bill, error) {
	filter := store.Filter{
		"jurisdiction": key.Jurisdiction,
		"session":      key.Session,
		"bill_id":      key.BillID,
	}
	if key.Chamber != "" {
		filter["chamber"] = key.Chamber
	}
	doc, ok, err := e.store.FindOne(ctx, legis.KindBill, filter)
	if err != nil || !ok {
		return nil, err
	}
	var b legis.Bill
	if err := store.Decode(doc, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// resolveCompanions fills each companion's internal ID by natural-key
// lookup, chamber-agnostic when the reference declares no chamber.
// Unresolved companions are logged, never fatal.
func (e *Engine) resolveCompanions(ctx context.Context, bill *legis.Bill) {
	for i := range bill.Companions {
		c := &bill.Companions[i]
		if c.InternalID != "" {
			continue
		}
		session := c.Session
		if session == "" {
			session = bill.Session
		}
		other, err := e.findBill(ctx, legis.BillKey{
			Jurisdiction: bill.Jurisdiction,
			Session:      session,
			Chamber:      c.Chamber,
			BillID:       e.meta.NormalizeBillID(c.BillID),
		})
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("companion", c.BillID).Msg("companion lookup failed")
			continue
		}
		if other == nil {
			logging.Ctx(ctx).Info().Str("companion", c.BillID).Str("session", session).Msg("unresolved companion")
			continue
		}
		c.InternalID = other.ID
	}
}

// assignDocumentIDs runs the document matcher over versions and documents
// combined, learning from the existing bill's lists first so re-imported
// documents keep their IDs.
func (e *Engine) assignDocumentIDs(ctx context.Context, bill, existing *legis.Bill) error {
	m := fingerprint.New(bill.Jurisdiction, legis.KindDocument,
		func(d legis.Document) string { return d.URL }, e.alloc)
	if existing != nil {
		m.Learn(append(append([]legis.Document{}, existing.Versions...), existing.Documents...),
			func(d legis.Document) string { return d.DocID })
	}
	combined := append(append([]legis.Document{}, bill.Versions...), bill.Documents...)
	if err := m.Assign(ctx, combined, func(d *legis.Document, id string) { d.DocID = id }); err != nil {
		return err
	}
	copy(bill.Versions, combined[:len(bill.Versions)])
	copy(bill.Documents, combined[len(bill.Versions):])
	return nil
}

// resolveSponsors resolves sponsor names chamber-scoped, then retries
// chamber-agnostic, then tries the committee resolver. Unresolved sponsors
// keep empty IDs and land in the run report.
func (e *Engine) resolveSponsors(bill *legis.Bill, r *resolve.Resolver, cr *resolve.CommitteeResolver) {
	for i := range bill.Sponsors {
		s := &bill.Sponsors[i]
		if s.PersonID != "" || s.CommitteeID != "" {
			continue
		}
		if id, ok := r.Resolve(s.Name, bill.Chamber); ok {
			s.PersonID = id
			continue
		}
		if id, ok := r.Resolve(s.Name, legis.ChamberUnscoped); ok {
			s.PersonID = id
			continue
		}
		if id, ok := cr.Resolve(s.Name, bill.Chamber); ok {
			s.CommitteeID = id
			continue
		}
		e.report.Unresolved(s.Name, "sponsor")
	}
}

// deriveAlternateTitles unions the prior alternate titles with every
// version's declared and short titles, minus the bill's primary title.
func deriveAlternateTitles(existing, bill *legis.Bill) []string {
	set := make(map[string]struct{})
	if existing != nil {
		for _, t := range existing.AlternateTitles {
			set[t] = struct{}{}
		}
	}
	for _, v := range bill.Versions {
		if v.Title != "" {
			set[v.Title] = struct{}{}
		}
		if v.ShortTitle != "" {
			set[v.ShortTitle] = struct{}{}
		}
	}
	delete(set, bill.Title)
	delete(set, "")
	if len(set) == 0 {
		return nil
	}
	titles := make([]string, 0, len(set))
	for t := range set {
		titles = append(titles, t)
	}
	sort.Strings(titles)
	return titles
}

// categorizeSubjects maps scraped subject strings onto the controlled
// vocabulary. An empty categorization never erases previously categorized
// subjects.
func (e *Engine) categorizeSubjects(existing, bill *legis.Bill, cat *Categorizer) {
	if cat == nil {
		if existing != nil {
			bill.Subjects = existing.Subjects
		}
		return
	}
	subjects := cat.Categorize(bill.ScrapedSubjects)
	if len(subjects) == 0 && existing != nil {
		bill.Subjects = existing.Subjects
		return
	}
	bill.Subjects = subjects
}
