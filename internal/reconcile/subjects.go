package reconcile

import (
	"sort"
	"strings"

	"github.com/civiclens/legistry/pkg/jurisdictions"
)

// Categorizer maps raw scraped subject strings to the jurisdiction's
// controlled vocabulary by keyword containment. Raw strings that categorize
// to nothing are simply dropped from the categorized set; they stay on the
// bill's scraped_subjects either way.
type Categorizer struct {
	keywords map[string][]string // vocabulary term -> lowercase keywords
}

// NewCategorizer builds a Categorizer from jurisdiction metadata. Returns
// nil when the jurisdiction defines no subject vocabulary, which disables
// categorization.
func NewCategorizer(meta *jurisdictions.Jurisdiction) *Categorizer {
	if len(meta.Subjects) == 0 {
		return nil
	}
	keywords := make(map[string][]string, len(meta.Subjects))
	for term, kws := range meta.Subjects {
		lower := make([]string, 0, len(kws))
		for _, kw := range kws {
			lower = append(lower, strings.ToLower(kw))
		}
		keywords[term] = lower
	}
	return &Categorizer{keywords: keywords}
}

// Categorize returns the sorted set of vocabulary terms matching any of the
// raw subject strings.
func (c *Categorizer) Categorize(raw []string) []string {
	if c == nil || len(raw) == 0 {
		return nil
	}
	matched := make(map[string]struct{})
	for _, subject := range raw {
		s := strings.ToLower(subject)
		for term, kws := range c.keywords {
			for _, kw := range kws {
				if strings.Contains(s, kw) {
					matched[term] = struct{}{}
					break
				}
			}
		}
	}
	if len(matched) == 0 {
		return nil
	}
	out := make([]string, 0, len(matched))
	for term := range matched {
		out = append(out, term)
	}
	sort.Strings(out)
	return out
}
