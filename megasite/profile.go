package megasite

import (
	"github.com/seo-optimizer/traffic-engine/geo"
)

// Kind drives the organic ratio of a mega-site profile.
type Kind string

const (
	KindSocial     Kind = "social"
	KindSearch     Kind = "search"
	KindNews       Kind = "news"
	KindEcommerce  Kind = "ecommerce"
	KindReference  Kind = "reference"
	KindTechnology Kind = "technology"
	KindGovernment Kind = "government"
	KindEducation  Kind = "education"
)

// Source says how a profile was found.
type Source string

const (
	SourceTable   Source = "table"
	SourcePattern Source = "pattern"
)

// Pattern categories and their monthly total ranges.
const (
	CategoryNews       = "Major News Media"
	CategoryGovernment = "Government"
	CategoryEducation  = "Education"
)

var organicRatios = map[Kind]float64{
	KindNews:       0.92,
	KindGovernment: 0.98,
	KindEducation:  0.96,
	KindSocial:     0.85,
}

const defaultOrganicRatio = 0.88

// OrganicRatio returns the share of a kind's traffic that is organic.
func OrganicRatio(k Kind) float64 {
	if r, ok := organicRatios[k]; ok {
		return r
	}
	return defaultOrganicRatio
}

// Profile is the fixed high-traffic model a mega-site is routed to instead of
// the small-business estimator.
type Profile struct {
	Domain          string      `json:"domain"`
	Category        string      `json:"category"`
	Kind            Kind        `json:"kind"`
	MonthlyTotal    int         `json:"monthlyTotal"`
	MinMonthly      int         `json:"minMonthly"`
	MaxMonthly      int         `json:"maxMonthly"`
	OrganicRatio    float64     `json:"organicRatio"`
	GeoDistribution []geo.Share `json:"geoDistribution"`
	Source          Source      `json:"source"`
	// UKOrigin is set for UK sites, which get the UK-weighted split.
	UKOrigin bool `json:"ukOrigin"`
}

// OrganicRange is the declared monthly range scaled by the organic ratio.
func (p Profile) OrganicRange() (int, int) {
	return int(float64(p.MinMonthly) * p.OrganicRatio), int(float64(p.MaxMonthly)*p.OrganicRatio + 0.5)
}
