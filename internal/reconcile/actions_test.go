package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/civiclens/legistry/pkg/legis"
)

func at(hour int) time.Time {
	return time.Date(2012, 2, 5, hour, 0, 0, 0, time.UTC)
}

func passVote(id string, chamber legis.Chamber, date time.Time) legis.Vote {
	return legis.Vote{ID: id, Chamber: chamber, Motion: "Passage", Date: date, Passed: true}
}

func TestLinkVotesToActions(t *testing.T) {
	t.Run("links_first_matching_vote", func(t *testing.T) {
		bill := &legis.Bill{Actions: []legis.Action{{
			Date: at(10), Actor: legis.ChamberUpper, Types: []string{"bill:failed"},
		}}}
		votes := []legis.Vote{passVote("EXV00000001", legis.ChamberUpper, at(8))}

		linkVotesToActions(bill, votes)
		assert.Equal(t, "EXV00000001", bill.Actions[0].RelatedVoteID)
	})

	t.Run("chamber_mismatch_never_links", func(t *testing.T) {
		bill := &legis.Bill{Actions: []legis.Action{{
			Date: at(10), Actor: legis.ChamberUpper, Types: []string{"bill:passed"},
		}}}
		votes := []legis.Vote{passVote("EXV00000001", legis.ChamberLower, at(10))}

		linkVotesToActions(bill, votes)
		assert.Empty(t, bill.Actions[0].RelatedVoteID)
	})

	t.Run("outside_window_never_links", func(t *testing.T) {
		bill := &legis.Bill{Actions: []legis.Action{{
			Date: at(10), Actor: legis.ChamberUpper, Types: []string{"bill:passed"},
		}}}
		votes := []legis.Vote{passVote("EXV00000001", legis.ChamberUpper, at(10).Add(-21*time.Hour))}

		linkVotesToActions(bill, votes)
		assert.Empty(t, bill.Actions[0].RelatedVoteID)
	})

	t.Run("action_without_vote_flag_is_skipped", func(t *testing.T) {
		bill := &legis.Bill{Actions: []legis.Action{{
			Date: at(10), Actor: legis.ChamberUpper, Types: []string{"bill:introduced"},
		}}}
		votes := []legis.Vote{passVote("EXV00000001", legis.ChamberUpper, at(8))}

		linkVotesToActions(bill, votes)
		assert.Empty(t, bill.Actions[0].RelatedVoteID)
	})

	t.Run("second_matching_vote_makes_action_ambiguous", func(t *testing.T) {
		bill := &legis.Bill{Actions: []legis.Action{{
			Date: at(10), Actor: legis.ChamberUpper, Types: []string{"bill:failed"},
		}}}
		votes := []legis.Vote{
			passVote("EXV00000001", legis.ChamberUpper, at(8)),
			passVote("EXV00000002", legis.ChamberUpper, at(9)),
		}

		linkVotesToActions(bill, votes)
		assert.Empty(t, bill.Actions[0].RelatedVoteID, "zero votes linked, not the first one")
	})

	t.Run("vote_claimed_by_two_actions_is_unlinked_from_both", func(t *testing.T) {
		bill := &legis.Bill{Actions: []legis.Action{
			{Date: at(10), Actor: legis.ChamberUpper, Types: []string{"bill:failed"}},
			{Date: at(9), Actor: legis.ChamberUpper, Types: []string{"bill:failed"}},
		}}
		votes := []legis.Vote{passVote("EXV00000001", legis.ChamberUpper, at(8))}

		linkVotesToActions(bill, votes)
		assert.Empty(t, bill.Actions[0].RelatedVoteID)
		assert.Empty(t, bill.Actions[1].RelatedVoteID)
	})

	t.Run("distinct_votes_serve_distinct_actions", func(t *testing.T) {
		bill := &legis.Bill{Actions: []legis.Action{
			{Date: at(10), Actor: legis.ChamberUpper, Types: []string{"bill:passed"}},
			{Date: at(12), Actor: legis.ChamberLower, Types: []string{"bill:passed"}},
		}}
		votes := []legis.Vote{
			passVote("EXV00000001", legis.ChamberUpper, at(9)),
			passVote("EXV00000002", legis.ChamberLower, at(11)),
		}

		linkVotesToActions(bill, votes)
		assert.Equal(t, "EXV00000001", bill.Actions[0].RelatedVoteID)
		assert.Equal(t, "EXV00000002", bill.Actions[1].RelatedVoteID)
	})
}

func TestSummarizeAction(t *testing.T) {
	t.Run("first_and_last_track_min_and_max", func(t *testing.T) {
		var d legis.ActionDates
		summarizeAction(&d, &legis.Action{Date: at(10)})
		summarizeAction(&d, &legis.Action{Date: at(6)})
		summarizeAction(&d, &legis.Action{Date: at(8)})

		assert.Equal(t, at(6), *d.First)
		assert.Equal(t, at(10), *d.Last)
	})

	t.Run("category_dates_are_first_seen_wins", func(t *testing.T) {
		var d legis.ActionDates
		passed := legis.Action{Date: at(10), Actor: legis.ChamberUpper, Types: []string{"bill:passed"}}
		earlier := legis.Action{Date: at(6), Actor: legis.ChamberUpper, Types: []string{"bill:passed"}}

		summarizeAction(&d, &passed)
		summarizeAction(&d, &earlier)

		assert.Equal(t, at(10), *d.PassedUpper, "later matches in the same category are ignored")
	})

	t.Run("elif_chain_feeds_one_category_per_action", func(t *testing.T) {
		var d legis.ActionDates
		summarizeAction(&d, &legis.Action{Date: at(8), Actor: legis.ChamberLower, Types: []string{"bill:passed"}})
		summarizeAction(&d, &legis.Action{Date: at(12), Actor: legis.ActorExecutive, Types: []string{"governor:signed"}})

		assert.Nil(t, d.PassedUpper)
		assert.Equal(t, at(8), *d.PassedLower)
		assert.Equal(t, at(12), *d.Signed)
	})

	t.Run("dateless_actions_are_ignored", func(t *testing.T) {
		var d legis.ActionDates
		summarizeAction(&d, &legis.Action{Actor: legis.ChamberUpper, Types: []string{"bill:passed"}})
		assert.Nil(t, d.First)
	})

	t.Run("veto_override_counts_as_passage", func(t *testing.T) {
		var d legis.ActionDates
		summarizeAction(&d, &legis.Action{Date: at(9), Actor: legis.ChamberUpper, Types: []string{"bill:veto_override:passed"}})
		assert.Equal(t, at(9), *d.PassedUpper)
	})
}
