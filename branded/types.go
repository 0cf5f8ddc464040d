package branded

import (
	"context"

	"github.com/rotisserie/eris"
)

// ErrNotConfigured is returned when either external collaborator is missing.
var ErrNotConfigured = eris.New("branded: keyword or ranking service not configured")

// Usage is the credit delta of one or more external calls. Callers sum it;
// nothing in this package keeps a running total.
type Usage struct {
	Calls   int     `json:"calls" yaml:"calls"`
	Credits float64 `json:"credits" yaml:"credits"`
}

// Add returns the sum of two usage deltas.
func (u Usage) Add(o Usage) Usage {
	return Usage{Calls: u.Calls + o.Calls, Credits: u.Credits + o.Credits}
}

// Volume is the monthly search volume of one term.
type Volume struct {
	Term         string `json:"term"`
	SearchVolume int    `json:"searchVolume"`
}

// Ranking is one organic result of a SERP check.
type Ranking struct {
	Position int    `json:"position"`
	URL      string `json:"url"`
	Domain   string `json:"domain"`
}

// VolumeLookup returns search volumes for a batch of terms.
type VolumeLookup interface {
	LookupVolumes(ctx context.Context, terms []string, country string) ([]Volume, Usage, error)
}

// RankChecker returns the top organic results for a term.
type RankChecker interface {
	CheckRanking(ctx context.Context, term, country string, topN int) ([]Ranking, Usage, error)
}

// Estimate is the branded share of a site's organic traffic.
type Estimate struct {
	Traffic      int      `json:"traffic"`
	SearchVolume int      `json:"searchVolume"`
	Terms        []string `json:"terms"`
	Ranked       bool     `json:"ranked"`
	Position     int      `json:"position,omitempty"`
	CTR          float64  `json:"ctr"`
	Capped       bool     `json:"capped"`
	Usage        Usage    `json:"usage"`
}
