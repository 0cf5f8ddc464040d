package classifier

import (
	"regexp"
	"strings"
	"unicode"
)

// Category is a bucket a vocabulary indicator scores towards.
type Category string

// Indicator is one row of a declarative vocabulary table: a hit on Term adds
// Weight to Category.
type Indicator struct {
	Term     string
	Weight   int
	Category Category
}

// Vocabulary is a compiled indicator table.
type Vocabulary struct {
	indicators []Indicator
	matchers   []*regexp.Regexp
}

// NewVocabulary compiles indicators into case-insensitive whole-word matchers.
func NewVocabulary(indicators []Indicator) *Vocabulary {
	v := &Vocabulary{
		indicators: indicators,
		matchers:   make([]*regexp.Regexp, len(indicators)),
	}
	for i, ind := range indicators {
		v.matchers[i] = regexp.MustCompile(termPattern(ind.Term))
	}
	return v
}

func termPattern(term string) string {
	term = strings.ToLower(strings.TrimSpace(term))
	pattern := regexp.QuoteMeta(term)
	runes := []rune(term)
	if len(runes) > 0 && isWordRune(runes[0]) {
		pattern = `\b` + pattern
	}
	if len(runes) > 0 && isWordRune(runes[len(runes)-1]) {
		pattern += `\b`
	}
	return `(?i)` + pattern
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Indicators returns the table rows backing the vocabulary.
func (v *Vocabulary) Indicators() []Indicator {
	return v.indicators
}

// Hits returns the indicators present in text. Each term counts once no matter
// how often it occurs.
func (v *Vocabulary) Hits(text string) []Indicator {
	var hits []Indicator
	for i, m := range v.matchers {
		if m.MatchString(text) {
			hits = append(hits, v.indicators[i])
		}
	}
	return hits
}

// Score is the weighted-vocabulary primitive shared by the type, size and news
// passes: every hit adds its weight to its category's running total.
func (v *Vocabulary) Score(text string) map[Category]int {
	scores := make(map[Category]int)
	for _, hit := range v.Hits(text) {
		scores[hit.Category] += hit.Weight
	}
	return scores
}

// CountHits returns how many indicators of category are present in text.
func (v *Vocabulary) CountHits(text string, category Category) int {
	n := 0
	for _, hit := range v.Hits(text) {
		if hit.Category == category {
			n++
		}
	}
	return n
}
