package estimator

import (
	"regexp"
	"strconv"
	"time"

	"github.com/seo-optimizer/traffic-engine/signals"
)

// Adjustment ceilings. No single signal may move the base draw by more than these.
const (
	MaxContentBoost   = 0.30
	MaxQualityBoost   = 0.15
	MaxAgeBoost       = 0.10
	SEOIndicatorBoost = 0.02
)

var foundedPattern = regexp.MustCompile(`(?i)\b(?:since|established|est\.|founded(?: in)?)\s+(1[89]\d{2}|20\d{2})\b`)

// Adjustments are the fractional boosts applied to the base draw.
type Adjustments struct {
	Content float64 `json:"content"`
	Quality float64 `json:"quality"`
	Age     float64 `json:"age"`
	SEO     float64 `json:"seo"`
}

// Multiplier combines the boosts multiplicatively.
func (a Adjustments) Multiplier() float64 {
	return (1 + a.Content) * (1 + a.Quality) * (1 + a.Age) * (1 + a.SEO)
}

// ComputeAdjustments derives the boosts from the page. Empty signals give no boost.
func ComputeAdjustments(sig signals.SiteSignals, html string, now time.Time) Adjustments {
	if sig.Empty() {
		return Adjustments{}
	}
	return Adjustments{
		Content: contentBoost(sig),
		Quality: qualityBoost(sig),
		Age:     AgeBoost(html, now),
		SEO:     seoBoost(sig),
	}
}

func contentBoost(sig signals.SiteSignals) float64 {
	var boost float64
	switch {
	case sig.HTMLLength > 150_000:
		boost = 0.30
	case sig.HTMLLength > 60_000:
		boost = 0.15
	case sig.HTMLLength > 20_000:
		boost = 0.05
	}
	boost += 0.02 * float64(sig.ArticleCount)
	return capAt(boost, MaxContentBoost)
}

func qualityBoost(sig signals.SiteSignals) float64 {
	var boost float64
	if sig.HeadingCount >= 5 {
		boost += 0.05
	}
	if sig.ImageCount >= 10 {
		boost += 0.05
	}
	if sig.HasViewport {
		boost += 0.05
	}
	return capAt(boost, MaxQualityBoost)
}

func seoBoost(sig signals.SiteSignals) float64 {
	var boost float64
	for _, present := range []bool{sig.HasStructuredData, sig.HasOpenGraph, sig.HasMetaDescription, sig.HasCanonical} {
		if present {
			boost += SEOIndicatorBoost
		}
	}
	return boost
}

// AgeBoost reads the oldest "since/established/founded YYYY" claim as a proxy
// for domain age.
func AgeBoost(html string, now time.Time) float64 {
	oldest := 0
	for _, m := range foundedPattern.FindAllStringSubmatch(html, -1) {
		year, err := strconv.Atoi(m[1])
		if err != nil || year > now.Year() {
			continue
		}
		if oldest == 0 || year < oldest {
			oldest = year
		}
	}
	if oldest == 0 {
		return 0
	}

	switch age := now.Year() - oldest; {
	case age >= 20:
		return MaxAgeBoost
	case age >= 10:
		return 0.05
	case age >= 5:
		return 0.02
	default:
		return 0
	}
}

func capAt(v, ceiling float64) float64 {
	if v > ceiling {
		return ceiling
	}
	return v
}
