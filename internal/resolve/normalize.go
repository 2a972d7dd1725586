package resolve

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// honorifics are stripped from the front of names before matching. The set
// is fixed; jurisdiction-specific titles belong in manual overrides.
var honorifics = map[string]struct{}{
	"mr":             {},
	"mrs":            {},
	"ms":             {},
	"dr":             {},
	"hon":            {},
	"sen":            {},
	"senator":        {},
	"rep":            {},
	"representative": {},
	"del":            {},
	"delegate":       {},
	"asm":            {},
	"assemblymember": {},
	"speaker":        {},
	"president":      {},
}

// stripMarks removes combining marks after NFD decomposition, so accented
// and unaccented spellings of the same name normalize identically.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var folder = cases.Fold()

// Normalize produces the canonical matching form of a name: case-folded,
// diacritics and punctuation removed, honorific prefixes dropped, whitespace
// collapsed.
func Normalize(name string) string {
	s, _, err := transform.String(stripMarks, name)
	if err != nil {
		s = name
	}
	s = folder.String(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	fields := strings.Fields(b.String())
	for len(fields) > 0 {
		if _, ok := honorifics[fields[0]]; !ok {
			break
		}
		fields = fields[1:]
	}
	return strings.Join(fields, " ")
}
