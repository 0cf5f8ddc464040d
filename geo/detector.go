package geo

import (
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pemistahl/lingua-go"
)

// Cue weights. The strongest country wins the primary share.
const (
	tldWeight      = 50
	regionWeight   = 30
	languageWeight = 20
	currencyWeight = 15

	minLanguageText = 40
	maxLanguageText = 3000
)

var countryByLanguage = map[lingua.Language]string{
	lingua.English:    "US",
	lingua.German:     "DE",
	lingua.French:     "FR",
	lingua.Spanish:    "ES",
	lingua.Italian:    "IT",
	lingua.Dutch:      "NL",
	lingua.Portuguese: "BR",
	lingua.Japanese:   "JP",
	lingua.Swedish:    "SE",
	lingua.Polish:     "PL",
	lingua.Danish:     "DK",
}

var countryByLangCode = map[string]string{
	"en": "US", "de": "DE", "fr": "FR", "es": "ES", "it": "IT", "nl": "NL",
	"pt": "BR", "ja": "JP", "sv": "SE", "pl": "PL", "da": "DK",
}

var currencyCues = []struct {
	marker  string
	country string
}{
	{"£", "GB"}, {"gbp", "GB"}, {"₹", "IN"}, {"¥", "JP"},
	{"au$", "AU"}, {"ca$", "CA"}, {"nz$", "NZ"}, {"a$", "AU"}, {"c$", "CA"}, {"r$", "BR"},
	{"€", "DE"},
}

// Detector infers geography from TLD, the html lang attribute, detected text
// language and currency symbols. It is safe for concurrent use.
type Detector struct {
	language lingua.LanguageDetector
}

// NewDetector builds a Detector restricted to the languages it can map to a country.
func NewDetector() *Detector {
	langs := make([]lingua.Language, 0, len(countryByLanguage))
	for l := range countryByLanguage {
		langs = append(langs, l)
	}
	return &Detector{
		language: lingua.NewLanguageDetectorBuilder().FromLanguages(langs...).Build(),
	}
}

// Infer implements Inferrer.
func (d *Detector) Infer(domain, html string) ([]Share, error) {
	scores := d.score(domain, html)
	if len(scores) == 0 {
		return Global(), nil
	}

	type cand struct {
		country string
		score   int
	}
	cands := make([]cand, 0, len(scores))
	for c, s := range scores {
		cands = append(cands, cand{c, s})
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].score != cands[j].score {
			return cands[i].score > cands[j].score
		}
		return cands[i].country < cands[j].country
	})

	best := cands[0]
	switch {
	case best.score >= regionWeight:
		return WithPrimary(best.country, 70), nil
	case best.score >= languageWeight:
		return WithPrimary(best.country, 55), nil
	default:
		return WithPrimary(best.country, 45), nil
	}
}

func (d *Detector) score(domain, html string) map[string]int {
	scores := make(map[string]int)
	if c, ok := CountryForTLD(domain); ok {
		scores[c] += tldWeight
	}
	if strings.TrimSpace(html) == "" {
		return scores
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return scores
	}

	langAttr, _ := doc.Find("html").Attr("lang")
	lang, region := splitLang(langAttr)
	if region != "" {
		if region == "UK" {
			region = "GB"
		}
		scores[region] += regionWeight
	} else if c, ok := countryByLangCode[lang]; ok && lang != "en" {
		scores[c] += languageWeight
	}

	body := doc.Find("body").Clone()
	body.Find("script, style, noscript").Remove()
	text := strings.Join(strings.Fields(body.Text()), " ")

	lower := strings.ToLower(text)
	for _, cue := range currencyCues {
		if strings.Contains(lower, cue.marker) {
			scores[cue.country] += currencyWeight
			break
		}
	}

	if len(text) >= minLanguageText && d.language != nil {
		sample := text
		if runes := []rune(sample); len(runes) > maxLanguageText {
			sample = string(runes[:maxLanguageText])
		}
		// English alone says little about the country, so it only counts when
		// nothing stronger was found.
		if detected, ok := d.language.DetectLanguageOf(sample); ok {
			if c, ok := countryByLanguage[detected]; ok && (detected != lingua.English || len(scores) == 0) {
				scores[c] += languageWeight
			}
		}
	}

	return scores
}

func splitLang(attr string) (lang, region string) {
	attr = strings.TrimSpace(attr)
	if attr == "" {
		return "", ""
	}
	parts := strings.FieldsFunc(attr, func(r rune) bool { return r == '-' || r == '_' })
	if len(parts) == 0 {
		return "", ""
	}
	lang = strings.ToLower(parts[0])
	if len(parts) > 1 && len(parts[1]) == 2 {
		region = strings.ToUpper(parts[1])
	}
	return lang, region
}
