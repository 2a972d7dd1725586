// Package legis defines the canonical legislative record types managed by
// legistry, along with the raw "as scraped" snapshot variants that imports
// consume. Canonical records carry stable IDs and reconciliation metadata;
// raw records carry only what a scraper observed.
package legis

// Kind identifies a record collection.
type Kind string

// Record kinds, one per collection in the store.
const (
	KindLegislator Kind = "legislator"
	KindCommittee  Kind = "committee"
	KindBill       Kind = "bill"
	KindVote       Kind = "vote"
	KindDocument   Kind = "document"
	KindEvent      Kind = "event"

	// KindReport stores per-jurisdiction run reports; report IDs are the
	// jurisdiction code, never allocated.
	KindReport Kind = "report"
)

// Letter returns the single-letter infix used in allocated IDs.
func (k Kind) Letter() string {
	switch k {
	case KindLegislator:
		return "L"
	case KindCommittee:
		return "C"
	case KindBill:
		return "B"
	case KindVote:
		return "V"
	case KindDocument:
		return "D"
	case KindEvent:
		return "E"
	}
	return "X"
}

// String returns the string representation of a Kind.
func (k Kind) String() string {
	return string(k)
}

// Chamber identifies a legislative chamber. The empty string means
// "chamber unknown or not applicable".
type Chamber string

// Chambers and chamber-like actors.
const (
	ChamberUpper    Chamber = "upper"
	ChamberLower    Chamber = "lower"
	ChamberJoint    Chamber = "joint"
	ActorExecutive  Chamber = "executive"
	ChamberUnscoped Chamber = ""
)

// String returns the string representation of a Chamber.
func (c Chamber) String() string {
	return string(c)
}
