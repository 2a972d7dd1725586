package legis

// Classified action type tags. Scrapers attach zero or more of these to each
// action; the bill pipeline keys its derived dates and vote linking off them.
const (
	ActionBillIntroduced     = "bill:introduced"
	ActionBillReading1       = "bill:reading:1"
	ActionBillReading2       = "bill:reading:2"
	ActionBillReading3       = "bill:reading:3"
	ActionBillPassed         = "bill:passed"
	ActionBillFailed         = "bill:failed"
	ActionBillWithdrawn      = "bill:withdrawn"
	ActionVetoOverridePassed = "bill:veto_override:passed"
	ActionVetoOverrideFailed = "bill:veto_override:failed"
	ActionAmendmentPassed    = "amendment:passed"
	ActionAmendmentFailed    = "amendment:failed"
	ActionCommitteeReferred  = "committee:referred"
	ActionCommitteePassed    = "committee:passed"
	ActionCommitteePassedFav = "committee:passed:favorable"
	ActionCommitteePassedUnf = "committee:passed:unfavorable"
	ActionCommitteeFailed    = "committee:failed"
	ActionGovernorReceived   = "governor:received"
	ActionGovernorSigned     = "governor:signed"
	ActionGovernorVetoed     = "governor:vetoed"
)

// voteFlags is the fixed set of tags that qualify an action for vote
// linking.
var voteFlags = map[string]struct{}{
	ActionBillPassed:         {},
	ActionBillFailed:         {},
	ActionVetoOverridePassed: {},
	ActionVetoOverrideFailed: {},
	ActionAmendmentPassed:    {},
	ActionAmendmentFailed:    {},
	ActionCommitteePassed:    {},
	ActionCommitteePassedFav: {},
	ActionCommitteePassedUnf: {},
	ActionCommitteeFailed:    {},
}

// passageFlags marks tags that count as chamber passage for action-date
// summaries.
var passageFlags = map[string]struct{}{
	ActionBillPassed:         {},
	ActionVetoOverridePassed: {},
}

// HasVoteFlag reports whether the action carries any tag from the vote-flag
// set.
func (a *Action) HasVoteFlag() bool {
	for _, t := range a.Types {
		if _, ok := voteFlags[t]; ok {
			return true
		}
	}
	return false
}

// HasPassageFlag reports whether the action counts as a chamber passage.
func (a *Action) HasPassageFlag() bool {
	for _, t := range a.Types {
		if _, ok := passageFlags[t]; ok {
			return true
		}
	}
	return false
}

// HasType reports whether the action carries the given tag.
func (a *Action) HasType(tag string) bool {
	for _, t := range a.Types {
		if t == tag {
			return true
		}
	}
	return false
}
