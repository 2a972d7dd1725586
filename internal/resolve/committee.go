package resolve

import (
	"github.com/civiclens/legistry/pkg/jurisdictions"
	"github.com/civiclens/legistry/pkg/legis"
)

// CommitteeResolver maps committee names to committee IDs. Committee names
// are assumed close to canonical, so it holds only the manual override
// table; there is no generated-form index.
type CommitteeResolver struct {
	overrides map[legis.Chamber]map[string]string
}

// NewCommitteeResolver builds a committee resolver from manual overrides.
func NewCommitteeResolver(term string, overrides []jurisdictions.Override) *CommitteeResolver {
	r := &CommitteeResolver{overrides: make(map[legis.Chamber]map[string]string)}
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
	return r
}

// Resolve maps a raw committee name to a committee ID, chamber-scoped then
// jurisdiction-scoped, exact string match.
func (r *CommitteeResolver) Resolve(rawName string, chamber legis.Chamber) (string, bool) {
	if rawName == "" {
		return "", false
	}
	if chamber != legis.ChamberUnscoped {
		if id, ok := r.overrides[chamber][rawName]; ok {
			return id, true
		}
	}
	id, ok := r.overrides[legis.ChamberUnscoped][rawName]
	return id, ok
}
