package reconcile_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civiclens/legistry/internal/reconcile"
	"github.com/civiclens/legistry/internal/store"
	"github.com/civiclens/legistry/internal/store/memory"
	"github.com/civiclens/legistry/pkg/jurisdictions"
	"github.com/civiclens/legistry/pkg/legis"
)

// clock is a controllable time source for idempotence assertions.
type clock struct{ now time.Time }

func newClock() *clock {
	return &clock{now: time.Date(2012, 2, 5, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time          { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func testMeta() *jurisdictions.Jurisdiction {
	return &jurisdictions.Jurisdiction{
		Abbr: "ex",
		Name: "Example",
		Terms: []jurisdictions.Term{
			{Name: "T1", StartYear: 2009, EndYear: 2010, Sessions: []string{"S1"}},
			{Name: "T2", StartYear: 2011, EndYear: 2012, Sessions: []string{"S2"}},
		},
	}
}

func newTestEngine(s store.Store, meta *jurisdictions.Jurisdiction, c *clock) *reconcile.Engine {
	report := reconcile.NewReport(meta.Abbr, c.Now())
	return reconcile.NewEngine(s, meta, report).WithClock(c.Now)
}

func loadPerson(t *testing.T, s store.Store, id string) legis.Person {
	t.Helper()
	doc, ok, err := s.Get(context.Background(), legis.KindLegislator, id)
	require.NoError(t, err)
	require.True(t, ok, "person %s not stored", id)
	var p legis.Person
	require.NoError(t, store.Decode(doc, &p))
	return p
}

func loadCommittee(t *testing.T, s store.Store, id string) legis.Committee {
	t.Helper()
	doc, ok, err := s.Get(context.Background(), legis.KindCommittee, id)
	require.NoError(t, err)
	require.True(t, ok, "committee %s not stored", id)
	var c legis.Committee
	require.NoError(t, store.Decode(doc, &c))
	return c
}

func loadBill(t *testing.T, s store.Store, id string) legis.Bill {
	t.Helper()
	doc, ok, err := s.Get(context.Background(), legis.KindBill, id)
	require.NoError(t, err)
	require.True(t, ok, "bill %s not stored", id)
	var b legis.Bill
	require.NoError(t, store.Decode(doc, &b))
	return b
}

func rawJane(term string) *legis.RawLegislator {
	return &legis.RawLegislator{
		Jurisdiction: "ex",
		FullName:     "Jane Doe",
		FirstName:    "Jane",
		LastName:     "Doe",
		Term:         term,
		Chamber:      legis.ChamberUpper,
		District:     "4",
		Party:        "Federalist",
	}
}

func TestReconcileLegislatorInsertAndIdempotence(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	c := newClock()
	engine := newTestEngine(s, testMeta(), c)

	require.NoError(t, engine.ReconcileLegislator(ctx, rawJane("T1")))

	p := loadPerson(t, s, "EXL00000001")
	assert.Equal(t, "Jane Doe", p.FullName)
	require.Len(t, p.Roles, 1)
	assert.Equal(t, "T1", p.Roles[0].Term)
	firstUpdated := p.UpdatedAt

	// An identical snapshot later is a true no-op.
	c.Advance(24 * time.Hour)
	require.NoError(t, engine.ReconcileLegislator(ctx, rawJane("T1")))

	p = loadPerson(t, s, "EXL00000001")
	assert.Equal(t, firstUpdated, p.UpdatedAt)

	// A second person with the same name inserts separately only if the
	// role spec differs and no current role matches; same name, different
	// district means a different seat.
	other := rawJane("T1")
	other.FullName = "John Roe"
	other.FirstName, other.LastName = "John", "Roe"
	require.NoError(t, engine.ReconcileLegislator(ctx, other))
	_ = loadPerson(t, s, "EXL00000002")
}

func TestReconcileLegislatorTermPromotion(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	c := newClock()
	engine := newTestEngine(s, testMeta(), c)

	require.NoError(t, engine.ReconcileLegislator(ctx, rawJane("T1")))
	require.NoError(t, engine.ReconcileLegislator(ctx, rawJane("T2")))

	p := loadPerson(t, s, "EXL00000001")
	require.Len(t, p.Roles, 1)
	assert.Equal(t, "T2", p.Roles[0].Term, "newer term takes the current slot")
	require.Len(t, p.OldRoles["T1"], 1)
	assert.Equal(t, "T1", p.OldRoles["T1"][0].Term, "former current role is filed as history")

	// The older term arriving again stays historical.
	require.NoError(t, engine.ReconcileLegislator(ctx, rawJane("T1")))
	p = loadPerson(t, s, "EXL00000001")
	require.Len(t, p.Roles, 1)
	assert.Equal(t, "T2", p.Roles[0].Term)
	assert.Len(t, p.OldRoles["T1"], 1, "history entry is replaced, not duplicated")
}

func TestActivateAndDeactivateTerm(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	c := newClock()
	engine := newTestEngine(s, testMeta(), c)

	require.NoError(t, engine.ReconcileLegislator(ctx, rawJane("T2")))

	bob := &legis.RawLegislator{
		Jurisdiction: "ex", FullName: "Bob Old", Term: "T1",
		Chamber: legis.ChamberLower, District: "9", Party: "Whig",
	}
	require.NoError(t, engine.ReconcileLegislator(ctx, bob))

	require.NoError(t, engine.ActivateTerm(ctx, "T2"))
	require.NoError(t, engine.DeactivateTerm(ctx, "T2"))

	jane := loadPerson(t, s, "EXL00000001")
	assert.True(t, jane.Active)
	assert.Equal(t, legis.ChamberUpper, jane.Chamber)
	assert.Equal(t, "4", jane.District)
	assert.Equal(t, "Federalist", jane.Party)

	old := loadPerson(t, s, "EXL00000002")
	assert.False(t, old.Active)
	assert.Empty(t, old.Roles, "current roles moved to history")
	require.Len(t, old.OldRoles["T1"], 1)
	assert.Equal(t, legis.ChamberUnscoped, old.Chamber, "top-level copies removed")
	assert.Empty(t, old.District)
	assert.Empty(t, old.Party)
}

func TestLockedFieldsSurviveReconcile(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	c := newClock()
	engine := newTestEngine(s, testMeta(), c)

	require.NoError(t, engine.ReconcileLegislator(ctx, rawJane("T1")))

	// Curation locks the first name.
	doc, _, err := s.Get(ctx, legis.KindLegislator, "EXL00000001")
	require.NoError(t, err)
	doc["locked_fields"] = []any{"first_name"}
	require.NoError(t, s.Put(ctx, legis.KindLegislator, "EXL00000001", doc))

	changed := rawJane("T1")
	changed.FirstName = "Janet"
	require.NoError(t, engine.ReconcileLegislator(ctx, changed))

	p := loadPerson(t, s, "EXL00000001")
	assert.Equal(t, "Jane", p.FirstName, "locked field keeps the curated value")
}

func newTestRunner(s store.Store, meta *jurisdictions.Jurisdiction, c *clock) *reconcile.Runner {
	reg := jurisdictions.NewRegistry()
	reg.Add(meta)
	return reconcile.NewRunner(s, reg, zerolog.Nop(),
		reconcile.WithBillWorkers(1),
		reconcile.WithRunnerClock(c.Now))
}

func TestRunnerRejectsUnknownJurisdiction(t *testing.T) {
	c := newClock()
	runner := newTestRunner(memory.NewStore(), testMeta(), c)

	_, err := runner.Run(context.Background(), &reconcile.Batch{Jurisdiction: "zz"})
	assert.Error(t, err)
}

func committeeBatch() *reconcile.Batch {
	return &reconcile.Batch{
		Jurisdiction: "ex",
		Legislators:  []legis.RawLegislator{*rawJane("T2")},
		Committees: []legis.RawCommittee{
			{
				Jurisdiction: "ex", Chamber: legis.ChamberUpper, Committee: "Appropriations",
				Members: []legis.CommitteeMember{{Name: "Doe", Role: "chair"}, {Name: "Nobody"}},
				Sources: []string{"https://example.gov/committees"},
			},
			{
				Jurisdiction: "ex", Chamber: legis.ChamberUpper, Committee: "Appropriations",
				Subcommittee: "Schools",
				Members:      []legis.CommitteeMember{{Name: "Doe"}},
			},
		},
	}
}

func TestRunnerCommitteeSync(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	c := newClock()
	runner := newTestRunner(s, testMeta(), c)

	report, err := runner.Run(ctx, committeeBatch())
	require.NoError(t, err)

	committee := loadCommittee(t, s, "EXC00000001")
	require.Len(t, committee.Members, 2)
	assert.Equal(t, "EXL00000001", committee.Members[0].PersonID)
	assert.Empty(t, committee.Members[1].PersonID)

	// The unresolved member lands in the run report for curation.
	require.NotEmpty(t, report.UnresolvedNames)
	assert.Equal(t, "Nobody", report.UnresolvedNames[0].Name)

	// The resolved member gained a committee-member role.
	jane := loadPerson(t, s, "EXL00000001")
	var assignment *legis.Role
	for i := range jane.Roles {
		if jane.Roles[i].Type == legis.RoleCommitteeMember && jane.Roles[i].Committee == "Appropriations" && jane.Roles[i].Subcommittee == "" {
			assignment = &jane.Roles[i]
		}
	}
	require.NotNil(t, assignment)
	assert.Equal(t, "EXC00000001", assignment.CommitteeID)
	assert.Equal(t, "chair", assignment.Position)
	assert.Contains(t, jane.Sources, "https://example.gov/committees")

	// The subcommittee linked to its parent.
	sub := loadCommittee(t, s, "EXC00000002")
	assert.Equal(t, "EXC00000001", sub.ParentID)
}

func TestRunnerCommitteeBatchIdempotence(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	c := newClock()
	runner := newTestRunner(s, testMeta(), c)

	_, err := runner.Run(ctx, committeeBatch())
	require.NoError(t, err)

	first := loadCommittee(t, s, "EXC00000001")
	firstSub := loadCommittee(t, s, "EXC00000002")
	firstJane := loadPerson(t, s, "EXL00000001")

	// The same batch a day later is a true no-op.
	c.Advance(24 * time.Hour)
	_, err = runner.Run(ctx, committeeBatch())
	require.NoError(t, err)

	second := loadCommittee(t, s, "EXC00000001")
	assert.Equal(t, first.UpdatedAt, second.UpdatedAt)
	assert.Equal(t, first.Members, second.Members)
	assert.Equal(t, firstSub.UpdatedAt, loadCommittee(t, s, "EXC00000002").UpdatedAt)
	assert.Equal(t, firstJane.UpdatedAt, loadPerson(t, s, "EXL00000001").UpdatedAt)
}

func TestRunnerClearsStaleCommitteeMembers(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	c := newClock()
	runner := newTestRunner(s, testMeta(), c)

	batch := committeeBatch()
	batch.Committees = append(batch.Committees, legis.RawCommittee{
		Jurisdiction: "ex", Chamber: legis.ChamberUpper, Committee: "Rules",
		Members: []legis.CommitteeMember{{Name: "Doe"}},
	})
	_, err := runner.Run(ctx, batch)
	require.NoError(t, err)

	rules := loadCommittee(t, s, "EXC00000003")
	require.Len(t, rules.Members, 1)

	// A later batch without Rules clears its membership but keeps the
	// committees the batch does mention.
	c.Advance(24 * time.Hour)
	_, err = runner.Run(ctx, committeeBatch())
	require.NoError(t, err)

	rules = loadCommittee(t, s, "EXC00000003")
	assert.Empty(t, rules.Members)
	clearedAt := rules.UpdatedAt
	assert.Len(t, loadCommittee(t, s, "EXC00000001").Members, 2)

	// Clearing an already-empty membership is a no-op.
	c.Advance(24 * time.Hour)
	_, err = runner.Run(ctx, committeeBatch())
	require.NoError(t, err)
	assert.Equal(t, clearedAt, loadCommittee(t, s, "EXC00000003").UpdatedAt)
}

func TestRunnerSynthesizesCommitteesFromRoles(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	c := newClock()
	runner := newTestRunner(s, testMeta(), c)

	adams := legis.RawLegislator{
		Jurisdiction: "ex", FullName: "John Adams", FirstName: "John", LastName: "Adams",
		Term: "T2", Chamber: legis.ChamberUpper, District: "1", Party: "Federalist",
	}
	seeded := &reconcile.Batch{
		Jurisdiction: "ex",
		Legislators:  []legis.RawLegislator{*rawJane("T2"), adams},
		Committees: []legis.RawCommittee{{
			Jurisdiction: "ex", Chamber: legis.ChamberUpper, Committee: "Appropriations",
			Members: []legis.CommitteeMember{{Name: "Doe", Role: "chair"}, {Name: "Adams"}},
		}},
	}
	_, err := runner.Run(ctx, seeded)
	require.NoError(t, err)

	// A batch with no committee snapshots rebuilds membership from the
	// persisted committee-member roles, keeping the full roster.
	c.Advance(24 * time.Hour)
	_, err = runner.Run(ctx, &reconcile.Batch{
		Jurisdiction: "ex",
		Legislators:  []legis.RawLegislator{*rawJane("T2"), adams},
	})
	require.NoError(t, err)

	committee := loadCommittee(t, s, "EXC00000001")
	require.Len(t, committee.Members, 2)
	assert.Equal(t, "Jane Doe", committee.Members[0].Name)
	assert.Equal(t, "EXL00000001", committee.Members[0].PersonID)
	assert.Equal(t, "chair", committee.Members[0].Role)
	assert.Equal(t, "John Adams", committee.Members[1].Name)
	assert.Equal(t, "EXL00000002", committee.Members[1].PersonID)
}

func billBatch() *reconcile.Batch {
	adams := legis.RawLegislator{
		Jurisdiction: "ex", FullName: "John Adams", FirstName: "John", LastName: "Adams",
		Term: "T2", Chamber: legis.ChamberUpper, District: "1", Party: "Federalist",
	}
	day := func(d, hour int) time.Time {
		return time.Date(2012, 2, d, hour, 0, 0, 0, time.UTC)
	}
	return &reconcile.Batch{
		Jurisdiction: "ex",
		Legislators:  []legis.RawLegislator{adams},
		Bills: []legis.RawBill{{
			Jurisdiction: "ex", Session: "S2", Chamber: legis.ChamberUpper, BillID: "sb27",
			Title:    "An Act Concerning Examples",
			Sponsors: []legis.Sponsor{{Name: "Adams", Type: "primary"}},
			Actions: []legis.Action{
				{Date: day(3, 9), Actor: legis.ChamberUpper, Action: "Introduced", Types: []string{"bill:introduced"}},
				{Date: day(5, 10), Actor: legis.ChamberUpper, Action: "Passed Senate", Types: []string{"bill:passed"}},
			},
			Versions: []legis.Document{{
				Name: "Introduced", URL: "https://example.gov/sb27/intro",
				Title: "The Example Act", ShortTitle: "Example Act",
			}},
			Votes: []legis.Vote{
				{Chamber: legis.ChamberUpper, Motion: "Passage", Date: day(5, 8),
					Passed: true, YesCount: 30, NoCount: 5,
					YesVotes: []legis.RollCall{{Name: "Adams"}}},
				{Chamber: legis.ChamberLower, Motion: "Passage", Date: day(5, 9),
					Passed: true, YesCount: 60, NoCount: 1},
				{Chamber: legis.ChamberUpper, Motion: "Third Reading", Date: day(1, 8),
					Passed: true, YesCount: 28, NoCount: 7},
			},
		}},
	}
}

func TestRunnerEndToEndBill(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	c := newClock()
	runner := newTestRunner(s, testMeta(), c)

	_, err := runner.Run(ctx, billBatch())
	require.NoError(t, err)

	bill := loadBill(t, s, "EXB00000001")
	assert.Equal(t, "SB 27", bill.BillID, "bill identifier is canonicalized")
	assert.True(t, bill.IsCurrentSession)
	assert.True(t, bill.IsCurrentTerm)

	// Sponsor resolved to the canonical person.
	require.Len(t, bill.Sponsors, 1)
	assert.Equal(t, "EXL00000001", bill.Sponsors[0].PersonID)

	// Versions got document IDs; alternate titles derive from them.
	require.Len(t, bill.Versions, 1)
	assert.Equal(t, "EXD00000001", bill.Versions[0].DocID)
	assert.Equal(t, []string{"Example Act", "The Example Act"}, bill.AlternateTitles)

	// Votes persisted with fingerprint-stable IDs and resolved rosters.
	docs, err := s.Find(ctx, legis.KindVote, store.Filter{"bill_id": "EXB00000001"})
	require.NoError(t, err)
	require.Len(t, docs, 3)
	var passage legis.Vote
	require.NoError(t, store.Decode(docs[0], &passage))
	assert.Equal(t, "EXV00000001", passage.ID)
	assert.Equal(t, []string{"EXL00000001"}, passage.Voters)
	require.Len(t, passage.YesVotes, 1)
	assert.Equal(t, "EXL00000001", passage.YesVotes[0].PersonID)

	// Action dates and vote linking.
	assert.Equal(t, time.Date(2012, 2, 3, 9, 0, 0, 0, time.UTC), *bill.ActionDates.First)
	assert.Equal(t, time.Date(2012, 2, 5, 10, 0, 0, 0, time.UTC), *bill.ActionDates.Last)
	require.NotNil(t, bill.ActionDates.PassedUpper)
	assert.Equal(t, time.Date(2012, 2, 5, 10, 0, 0, 0, time.UTC), *bill.ActionDates.PassedUpper)
	assert.Empty(t, bill.Actions[0].RelatedVoteID)
	assert.Equal(t, "EXV00000001", bill.Actions[1].RelatedVoteID)

	firstUpdated := bill.UpdatedAt

	// Second import adds one version; everything else is preserved.
	c.Advance(24 * time.Hour)
	second := billBatch()
	second.Bills[0].Versions = append(second.Bills[0].Versions, legis.Document{
		Name: "Engrossed", URL: "https://example.gov/sb27/engrossed",
	})
	_, err = runner.Run(ctx, second)
	require.NoError(t, err)

	bill = loadBill(t, s, "EXB00000001")
	require.Len(t, bill.Versions, 2)
	assert.Equal(t, "EXD00000001", bill.Versions[0].DocID, "re-imported document keeps its ID")
	assert.Equal(t, "EXD00000002", bill.Versions[1].DocID, "new document gets a fresh ID")
	assert.True(t, bill.UpdatedAt.After(firstUpdated))

	docs, err = s.Find(ctx, legis.KindVote, store.Filter{"bill_id": "EXB00000001"})
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "EXV00000001", docs[0]["id"], "vote IDs survive re-import")

	secondUpdated := bill.UpdatedAt

	// Third, identical import is a true no-op.
	c.Advance(24 * time.Hour)
	third := billBatch()
	third.Bills[0].Versions = append(third.Bills[0].Versions, legis.Document{
		Name: "Engrossed", URL: "https://example.gov/sb27/engrossed",
	})
	_, err = runner.Run(ctx, third)
	require.NoError(t, err)

	bill = loadBill(t, s, "EXB00000001")
	assert.Equal(t, secondUpdated, bill.UpdatedAt)
}

func TestRunnerStandaloneVotes(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	meta := testMeta()
	meta.PartialVoteBillID = true
	c := newClock()
	runner := newTestRunner(s, meta, c)

	batch := &reconcile.Batch{
		Jurisdiction: "ex",
		Bills: []legis.RawBill{{
			Jurisdiction: "ex", Session: "S2", Chamber: legis.ChamberUpper, BillID: "SB 27",
			Title: "An Act",
		}},
		Votes: []legis.RawVote{{
			Jurisdiction: "ex", Session: "S2", BillChamber: legis.ChamberUpper, BillID: "27",
			Vote: legis.Vote{
				Chamber: legis.ChamberUpper, Motion: "Passage",
				Date: time.Date(2012, 2, 5, 8, 0, 0, 0, time.UTC), Passed: true, YesCount: 30,
			},
		}},
	}

	_, err := runner.Run(ctx, batch)
	require.NoError(t, err)

	docs, err := s.Find(ctx, legis.KindVote, store.Filter{"bill_id": "EXB00000001"})
	require.NoError(t, err)
	require.Len(t, docs, 1, "partial bill IDs match by numeric suffix")

	// A later run that scraped no votes must not clear the stored one.
	c.Advance(time.Hour)
	_, err = runner.Run(ctx, &reconcile.Batch{
		Jurisdiction: "ex",
		Bills: []legis.RawBill{{
			Jurisdiction: "ex", Session: "S2", Chamber: legis.ChamberUpper, BillID: "SB 27",
			Title: "An Act",
		}},
	})
	require.NoError(t, err)

	docs, err = s.Find(ctx, legis.KindVote, store.Filter{"bill_id": "EXB00000001"})
	require.NoError(t, err)
	assert.Len(t, docs, 1, "empty vote snapshots are a no-op, not a deletion")
}
