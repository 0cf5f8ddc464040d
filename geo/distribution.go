// Package geo infers where a site's visitors come from and turns percentage
// splits into absolute traffic.
package geo

import (
	"sort"
	"strings"

	"github.com/seo-optimizer/traffic-engine/domains"
)

// Other is the catch-all bucket used by the fixed splits.
const Other = "Other"

// Share is one country's percentage of a site's traffic.
type Share struct {
	Country    string `json:"country" yaml:"country"`
	Percentage int    `json:"percentage" yaml:"percentage"`
}

// Inferrer guesses a traffic split from a domain and its HTML. Percentages
// must sum to 100.
type Inferrer interface {
	Infer(domain, html string) ([]Share, error)
}

var countryByTLD = map[string]string{
	"uk": "GB", "ie": "IE", "de": "DE", "fr": "FR", "es": "ES", "it": "IT",
	"nl": "NL", "be": "BE", "at": "AT", "ch": "CH", "se": "SE", "no": "NO",
	"dk": "DK", "fi": "FI", "pl": "PL", "pt": "PT", "au": "AU", "nz": "NZ",
	"ca": "CA", "us": "US", "mx": "MX", "br": "BR", "in": "IN", "jp": "JP",
	"sg": "SG", "za": "ZA",
	"gov": "US", "edu": "US", "mil": "US",
}

var secondaryCountries = []string{"US", "GB", "CA", "AU", "DE", "IN"}

var secondaryWeights = []int{40, 25, 20, 15}

// Global is the default split for sites with no locality cue.
func Global() []Share {
	return []Share{
		{"US", 35}, {"GB", 12}, {"IN", 10}, {"CA", 8}, {"DE", 7},
		{"AU", 6}, {"FR", 5}, {"BR", 5}, {"JP", 4}, {Other, 8},
	}
}

// UKWeighted is the split used for UK-origin sites.
func UKWeighted() []Share {
	return []Share{
		{"GB", 65}, {"US", 12}, {"IE", 5}, {"AU", 4}, {"CA", 4}, {"IN", 3}, {Other, 7},
	}
}

// CountryForTLD maps a domain's top-level domain to an ISO country code.
func CountryForTLD(domain string) (string, bool) {
	c, ok := countryByTLD[domains.TLD(domain)]
	return c, ok
}

// FromTLD is the signal-free guess: a ccTLD makes that country primary,
// anything else gets the global split.
func FromTLD(domain string) []Share {
	if c, ok := CountryForTLD(domain); ok {
		return WithPrimary(c, 70)
	}
	return Global()
}

// WithPrimary gives country the primary percentage and spreads the rest over
// the usual secondary markets.
func WithPrimary(country string, primary int) []Share {
	country = strings.ToUpper(country)
	if primary > 100 {
		primary = 100
	}
	shares := []Share{{country, primary}}

	var rest []string
	for _, c := range secondaryCountries {
		if c != country && len(rest) < len(secondaryWeights) {
			rest = append(rest, c)
		}
	}
	parts := split(100-primary, secondaryWeights[:len(rest)])
	for i, c := range rest {
		if parts[i] > 0 {
			shares = append(shares, Share{c, parts[i]})
		}
	}
	return shares
}

// Allocate turns percentage shares into absolute numbers that sum to total.
func Allocate(total int, shares []Share) []int {
	weights := make([]int, len(shares))
	for i, s := range shares {
		weights[i] = s.Percentage
	}
	return split(total, weights)
}

// Sum adds up the percentages of a split.
func Sum(shares []Share) int {
	n := 0
	for _, s := range shares {
		n += s.Percentage
	}
	return n
}

// split divides total proportionally to weights using largest remainder, so
// the parts always add back up to total. Ties favour earlier entries.
func split(total int, weights []int) []int {
	parts := make([]int, len(weights))
	sum := 0
	for _, w := range weights {
		sum += w
	}
	if sum <= 0 || total <= 0 {
		return parts
	}

	type rem struct {
		idx  int
		frac int
	}
	rems := make([]rem, len(weights))
	assigned := 0
	for i, w := range weights {
		parts[i] = total * w / sum
		assigned += parts[i]
		rems[i] = rem{i, total * w % sum}
	}
	sort.SliceStable(rems, func(a, b int) bool { return rems[a].frac > rems[b].frac })
	for i := 0; assigned < total; i++ {
		parts[rems[i%len(rems)].idx]++
		assigned++
	}
	return parts
}
