package reconcile

import (
	"context"
	"sort"
	"sync"

	"github.com/civiclens/legistry/internal/fingerprint"
	"github.com/civiclens/legistry/internal/merge"
	"github.com/civiclens/legistry/internal/resolve"
	"github.com/civiclens/legistry/internal/store"
	"github.com/civiclens/legistry/pkg/jurisdictions"
	"github.com/civiclens/legistry/pkg/legis"
)

// VoteSidecar holds standalone votes scraped independently of any bill,
// keyed so the bill pipeline can claim them as it processes each bill.
// When the jurisdiction flags partial vote bill IDs, keys carry only the
// numeric suffix of the bill identifier. Safe for concurrent bill workers.
type VoteSidecar struct {
	partial bool

	mu    sync.Mutex
	votes map[sidecarKey][]legis.Vote
}

type sidecarKey struct {
	Chamber legis.Chamber
	Session string
	BillID  string
}

// NewVoteSidecar indexes raw standalone votes for a jurisdiction batch.
// Invalid entries are dropped with a log line; the batch continues.
func NewVoteSidecar(meta *jurisdictions.Jurisdiction, raws []legis.RawVote, report *Report) *VoteSidecar {
	s := &VoteSidecar{
		partial: meta.PartialVoteBillID,
		votes:   make(map[sidecarKey][]legis.Vote),
	}
	for _, raw := range raws {
		if err := raw.Validate(); err != nil {
			report.Skip(legis.KindVote)
			continue
		}
		k := s.key(raw.BillChamber, raw.Session, meta.NormalizeBillID(raw.BillID))
		s.votes[k] = append(s.votes[k], raw.Vote)
	}
	return s
}

// Take removes and returns the standalone votes for a bill. A second call
// with the same key returns nil.
func (s *VoteSidecar) Take(chamber legis.Chamber, session, billID string) []legis.Vote {
	k := s.key(chamber, session, billID)
	s.mu.Lock()
	defer s.mu.Unlock()
	votes := s.votes[k]
	delete(s.votes, k)
	return votes
}

// Remaining returns the count of unclaimed standalone votes, for the run
// report.
func (s *VoteSidecar) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.votes {
		n += len(v)
	}
	return n
}

func (s *VoteSidecar) key(chamber legis.Chamber, session, billID string) sidecarKey {
	if s.partial {
		billID = jurisdictions.BillNumber(billID)
	}
	return sidecarKey{Chamber: chamber, Session: session, BillID: billID}
}

// mergeVotes combines a bill's embedded votes with its claimed standalone
// votes, embedded first so fingerprint order stays stable across runs.
func mergeVotes(embedded, standalone []legis.Vote) []legis.Vote {
	if len(standalone) == 0 {
		return embedded
	}
	merged := make([]legis.Vote, 0, len(embedded)+len(standalone))
	merged = append(merged, embedded...)
	merged = append(merged, standalone...)
	return merged
}

// resolveVoteRosters fills personIDs on every roster entry it can resolve,
// collects the resolved IDs into the vote's Voters set, and resolves the
// vote's committee reference when one is declared.
func (e *Engine) resolveVoteRosters(votes []legis.Vote, r *resolve.Resolver, cr *resolve.CommitteeResolver) {
	for i := range votes {
		v := &votes[i]
		voters := make(map[string]struct{})
		for _, roster := range []*[]legis.RollCall{&v.YesVotes, &v.NoVotes, &v.OtherVotes} {
			for j := range *roster {
				entry := &(*roster)[j]
				id, ok := r.Resolve(entry.Name, v.Chamber)
				if !ok {
					id, ok = r.Resolve(entry.Name, legis.ChamberUnscoped)
				}
				if !ok {
					e.report.Unresolved(entry.Name, "voter")
					continue
				}
				entry.PersonID = id
				voters[id] = struct{}{}
			}
		}
		v.Voters = v.Voters[:0]
		for id := range voters {
			v.Voters = append(v.Voters, id)
		}
		sort.Strings(v.Voters)

		if v.Committee != "" && v.CommitteeID == "" {
			if id, ok := cr.Resolve(v.Committee, v.Chamber); ok {
				v.CommitteeID = id
			} else {
				e.report.Unresolved(v.Committee, "vote-committee")
			}
		}
	}
}

// assignVoteIDs gives every merged vote a canonical ID, reusing IDs learned
// from the bill's stored votes by fingerprint-and-position.
func (e *Engine) assignVoteIDs(ctx context.Context, billID string, votes []legis.Vote) error {
	stored, err := e.storedVotes(ctx, billID)
	if err != nil {
		return err
	}
	m := fingerprint.New(e.meta.Abbr, legis.KindVote,
		func(v legis.Vote) string { return v.Fingerprint() }, e.alloc)
	m.Learn(stored, func(v legis.Vote) string { return v.ID })
	return m.Assign(ctx, votes, func(v *legis.Vote, id string) { v.ID = id })
}

// persistVotes writes the merged vote set for a bill. An empty merged list
// is a no-op: a run that scraped no votes never clears stored ones. Stored
// votes whose IDs no longer appear in the merged set are removed.
func (e *Engine) persistVotes(ctx context.Context, bill *legis.Bill, votes []legis.Vote) error {
	if len(votes) == 0 {
		return nil
	}
	stored, err := e.storedVotes(ctx, bill.ID)
	if err != nil {
		return err
	}

	keep := make(map[string]struct{}, len(votes))
	for i := range votes {
		v := &votes[i]
		v.BillID = bill.ID
		v.Jurisdiction = bill.Jurisdiction
		if v.Session == "" {
			v.Session = bill.Session
		}
		keep[v.ID] = struct{}{}

		doc, err := store.Encode(v)
		if err != nil {
			return err
		}
		res, err := merge.Save(ctx, e.store, legis.KindVote, v.ID, doc, nil, e.now())
		if err != nil {
			return err
		}
		e.report.Record(legis.KindVote, res)
	}

	for _, old := range stored {
		if _, ok := keep[old.ID]; ok {
			continue
		}
		if err := e.store.Delete(ctx, legis.KindVote, old.ID); err != nil {
			return err
		}
	}
	return nil
}

// storedVotes loads the bill's persisted votes in stable ID order.
func (e *Engine) storedVotes(ctx context.Context, billID string) ([]legis.Vote, error) {
	docs, err := e.store.Find(ctx, legis.KindVote, store.Filter{"bill_id": billID})
	if err != nil {
		return nil, err
	}
	votes := make([]legis.Vote, 0, len(docs))
	for _, doc := range docs {
		var v legis.Vote
		if err := store.Decode(doc, &v); err != nil {
			return nil, err
		}
		votes = append(votes, v)
	}
	return votes, nil
}
