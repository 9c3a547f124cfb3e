package usecase

import (
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// punctuationReplacer drops the punctuation set ignored when comparing names
var punctuationReplacer = strings.NewReplacer(
	".", "", ",", "", ";", "", ":", "", "!", "", "?", "", "(", "", ")", "",
)

// combiningMarks matches the Combining Diacritical Marks block (U+0300..U+036F).
// Letters without a canonical decomposition, like "ł", survive on purpose.
var combiningMarks = runes.Predicate(func(r rune) bool {
	return r >= 0x0300 && r <= 0x036F
})

// pluralForms maps plural (or oblique) forms of common ingredient nouns to the
// singular. Keys and values are already lower-case and diacritic-free.
var pluralForms = []struct {
	plural   string
	singular string
}{
	{"jajka", "jajko"},
	{"jablka", "jablko"},
	{"pomidory", "pomidor"},
	{"ogorki", "ogorek"},
	{"cebule", "cebula"},
	{"mleka", "mleko"},
	{"ziola", "ziele"},
	{"warzywa", "warzywo"},
	{"owoce", "owoc"},
}

// maxPluralPasses bounds the fixpoint loop in singularize
const maxPluralPasses = 8

// Normalizer canonicalizes product and ingredient names for comparison.
type Normalizer struct {
	// WholeWordPlurals restricts plural substitution to whole tokens. The
	// default substring mode also rewrites longer words containing a plural
	// ("jajkach" -> "jajkoch").
	WholeWordPlurals bool
}

var defaultNormalizer = Normalizer{}

// Normalize canonicalizes name with substring plural substitution.
func Normalize(name string) string {
	return defaultNormalizer.Normalize(name)
}

// Normalize lower-cases, trims, collapses whitespace, strips punctuation and
// combining diacritics, then maps known plurals to the singular. It is total,
// deterministic and idempotent.
func (n Normalizer) Normalize(name string) string {
	s := strings.ToLower(name)
	s = strings.Join(strings.Fields(s), " ")
	s = punctuationReplacer.Replace(s)
	s = stripDiacritics(s)
	// Removing punctuation can leave double spaces ("a ( b") behind
	s = strings.Join(strings.Fields(s), " ")

	if n.WholeWordPlurals {
		return singularizeTokens(s)
	}
	return singularize(s)
}

func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(combiningMarks))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// singularize replaces every plural substring until nothing changes, so a
// replacement that forms a new plural ("owocee" -> "owoce") is handled too.
func singularize(s string) string {
	for pass := 0; pass < maxPluralPasses; pass++ {
		before := s
		for _, pf := range pluralForms {
			if strings.Contains(s, pf.plural) {
				s = strings.ReplaceAll(s, pf.plural, pf.singular)
			}
		}
		if s == before {
			break
		}
	}
	return s
}

func singularizeTokens(s string) string {
	tokens := strings.Fields(s)
	for i, tok := range tokens {
		for _, pf := range pluralForms {
			if tok == pf.plural {
				tokens[i] = pf.singular
				break
			}
		}
	}
	return strings.Join(tokens, " ")
}
