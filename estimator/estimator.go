// Package estimator synthesizes reproducible monthly traffic figures for sites
// with no real analytics. Every random draw is seeded from the domain.
package estimator

import (
	"math"
	"time"

	"github.com/seo-optimizer/traffic-engine/classifier"
	"github.com/seo-optimizer/traffic-engine/geo"
	"github.com/seo-optimizer/traffic-engine/megasite"
	"github.com/seo-optimizer/traffic-engine/seed"
	"github.com/seo-optimizer/traffic-engine/signals"
)

const (
	// JitterSpread is the final ± jitter on the adjusted total.
	JitterSpread = 0.05
	// TrendSpread is the per-month ± jitter of the trend.
	TrendSpread = 0.10
	// TrendMonths is the length of the trend.
	TrendMonths = 6

	analysisOrganicShare = 0.95
	basicOrganicShare    = 0.96
	megaSiteBrandedShare = 0.25
)

// Range is a half-open [Min, Max) interval of monthly visits.
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// BaseRanges maps business type and size onto the base traffic interval.
var BaseRanges = map[classifier.Category]map[classifier.Category]Range{
	classifier.TypePersonal: {
		classifier.SizeSmall:   {5, 40},
		classifier.SizeMedium:  {20, 80},
		classifier.SizeLarge:   {50, 150},
		classifier.SizeMassive: {100, 300},
	},
	classifier.TypeBlog: {
		classifier.SizeSmall:   {10, 60},
		classifier.SizeMedium:  {50, 200},
		classifier.SizeLarge:   {150, 600},
		classifier.SizeMassive: {400, 1500},
	},
	classifier.TypeBusiness: {
		classifier.SizeSmall:   {30, 130},
		classifier.SizeMedium:  {100, 300},
		classifier.SizeLarge:   {300, 1200},
		classifier.SizeMassive: {1000, 5000},
	},
	classifier.TypeEnterprise: {
		classifier.SizeSmall:   {200, 800},
		classifier.SizeMedium:  {500, 2000},
		classifier.SizeLarge:   {2000, 10000},
		classifier.SizeMassive: {10000, 50000},
	},
}

// BasicRange is the small-business interval used when nothing is known about a site.
var BasicRange = BaseRanges[classifier.TypeBusiness][classifier.SizeSmall]

// GeographyError wraps a failure of the geography collaborator. It is the one
// estimator error callers must not swallow.
type GeographyError struct {
	Err error
}

func (e *GeographyError) Error() string {
	return "estimator: geography inference failed: " + e.Err.Error()
}

func (e *GeographyError) Unwrap() error {
	return e.Err
}

// Estimator turns a classification and signals into a TrafficEstimate.
type Estimator struct {
	Geo geo.Inferrer
	// Now supplies the reference month for trends and age heuristics.
	Now func() time.Time
}

// New returns an Estimator using inferrer for the geographic split. A nil
// inferrer falls back to the TLD guess.
func New(inferrer geo.Inferrer) *Estimator {
	return &Estimator{Geo: inferrer, Now: time.Now}
}

func (e *Estimator) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// BaseRange returns the interval for a type and size, defaulting to the basic range.
func BaseRange(c classifier.Classification) Range {
	if sizes, ok := BaseRanges[c.Type]; ok {
		if r, ok := sizes[c.Size]; ok {
			return r
		}
	}
	return BasicRange
}

// Estimate runs the full deterministic estimate for a non-mega-site. The only
// error it returns is a *GeographyError.
func (e *Estimator) Estimate(c classifier.Classification, sig signals.SiteSignals, domain, html string) (TrafficEstimate, error) {
	s := seed.FromDomain(domain)
	now := e.now()

	base := drawBase(s, BaseRange(c))
	adj := ComputeAdjustments(sig, html, now)
	total := roundInt(float64(base) * adj.Multiplier() * s.Jitter(seed.PurposeJitter, JitterSpread))

	organic, paid := Split(total, analysisOrganicShare)

	shares, err := e.shares(domain, html)
	if err != nil {
		return TrafficEstimate{}, &GeographyError{Err: err}
	}

	confidence := ConfidenceMedium
	if sig.Empty() {
		confidence = ConfidenceLow
	}

	return TrafficEstimate{
		MonthlyOrganic: organic,
		MonthlyPaid:    paid,
		TopCountries:   Countries(organic, shares),
		Trend:          Trend(s, organic, paid, now),
		DataSource:     DataSourceAnalysis,
		Confidence:     confidence,
	}, nil
}

// Basic is the signal-free fallback: a seeded small-business draw and a
// geography guessed from the TLD alone.
func (e *Estimator) Basic(domain string) TrafficEstimate {
	s := seed.FromDomain(domain)
	base := s.Between(seed.PurposeBasic, BasicRange.Min, BasicRange.Max)
	total := roundInt(float64(base) * s.Jitter(seed.PurposeBasicJitter, JitterSpread))
	organic, paid := Split(total, basicOrganicShare)

	return TrafficEstimate{
		MonthlyOrganic: organic,
		MonthlyPaid:    paid,
		TopCountries:   Countries(organic, geo.FromTLD(domain)),
		Trend:          Trend(s, organic, paid, e.now()),
		DataSource:     DataSourceEstimated,
		Confidence:     ConfidenceLow,
	}
}

// FromMegaSite converts a mega-site profile into an estimate without touching
// the small-business model.
func (e *Estimator) FromMegaSite(p *megasite.Profile) TrafficEstimate {
	s := seed.FromDomain(p.Domain)
	organic, paid := Split(p.MonthlyTotal, p.OrganicRatio)

	confidence := ConfidenceMedium
	if p.Source == megasite.SourceTable {
		confidence = ConfidenceHigh
	}

	return TrafficEstimate{
		MonthlyOrganic: organic,
		MonthlyPaid:    paid,
		BrandedTraffic: roundInt(float64(organic) * megaSiteBrandedShare),
		TopCountries:   Countries(organic, p.GeoDistribution),
		Trend:          Trend(s, organic, paid, e.now()),
		DataSource:     DataSourceMegaSite,
		Confidence:     confidence,
	}
}

func (e *Estimator) shares(domain, html string) ([]geo.Share, error) {
	if e.Geo == nil {
		return geo.FromTLD(domain), nil
	}
	return e.Geo.Infer(domain, html)
}

// drawBase averages the type and size draws so the two do not move together.
func drawBase(s seed.Seed, r Range) int {
	if r.Max <= r.Min {
		return r.Min
	}
	u := (s.Float(seed.PurposeBase) + s.Float(seed.PurposeSize)) / 2
	return r.Min + int(u*float64(r.Max-r.Min))
}

// Split divides total into organic and paid with a fixed organic share. The
// parts always add back up to total.
func Split(total int, organicShare float64) (organic, paid int) {
	if total <= 0 {
		return 0, 0
	}
	organic = roundInt(float64(total) * organicShare)
	if organic > total {
		organic = total
	}
	return organic, total - organic
}

// Countries allocates organic traffic over a percentage split.
func Countries(organic int, shares []geo.Share) []CountryTraffic {
	parts := geo.Allocate(organic, shares)
	out := make([]CountryTraffic, len(shares))
	for i, sh := range shares {
		out[i] = CountryTraffic{Country: sh.Country, Percentage: sh.Percentage, Traffic: parts[i]}
	}
	return out
}

// Trend builds six monthly points ending at the month of now. Each month has
// its own seeded jitter so points are stable and distinguishable.
func Trend(s seed.Seed, organic, paid int, now time.Time) []TrendPoint {
	ref := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	points := make([]TrendPoint, TrendMonths)
	for i := range points {
		f := s.Jitter(seed.PurposeTrend+seed.Purpose(i), TrendSpread)
		points[i] = TrendPoint{
			Month:   ref.AddDate(0, i-(TrendMonths-1), 0).Format("2006-01"),
			Organic: roundInt(float64(organic) * f),
			Paid:    roundInt(float64(paid) * f),
		}
	}
	return points
}

func roundInt(v float64) int {
	return int(math.Round(v))
}
