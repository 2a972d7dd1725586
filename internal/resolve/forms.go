package resolve

import (
	"strings"

	"github.com/civiclens/legistry/pkg/legis"
)

// Forms generates the candidate name-form set for a Person: the spellings a
// scraper might plausibly use for them. All forms are returned normalized.
// Two different Persons generating the same form is what triggers the
// ambiguity tombstone in the index.
func Forms(p *legis.Person) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(form string) {
		n := Normalize(form)
		if n == "" {
			return
		}
		if _, dup := seen[n]; dup {
			return
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}

	add(p.FullName)

	first, middle, last := p.FirstName, p.MiddleName, p.LastName
	if last == "" {
		return out
	}

	add(last)
	if first != "" {
		fi := initial(first)
		add(last + ", " + first)
		add(last + ", " + fi)
		add(last + " (" + first + ")")
		add(fi + " " + last)
		add(first + " " + last)

		if middle != "" {
			mi := initial(middle)
			add(first + " " + middle + " " + last)
			add(first + " " + mi + " " + last)
			add(last + ", " + first + " " + middle)
			add(last + ", " + first + " " + mi)
			add(last + ", " + fi + " " + mi)
			add(fi + " " + mi + " " + last)
		}
	}

	return out
}

// initial returns the first letter of a name part.
func initial(part string) string {
	part = strings.TrimSpace(part)
	if part == "" {
		return ""
	}
	return string([]rune(part)[0])
}
