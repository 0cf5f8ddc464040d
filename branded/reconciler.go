// Package branded estimates how much of a site's organic traffic comes from
// people searching for the brand itself.
package branded

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seo-optimizer/traffic-engine/domains"
)

const (
	// RankedCTR is the click-through rate assumed when the site ranks for its brand.
	RankedCTR = 0.35
	// UnrankedCTR is used when the site is outside the top results.
	UnrankedCTR = 0.05
	// TopN is how deep the SERP check looks.
	TopN = 10
	// CapRatio bounds branded traffic when it would exceed organic traffic.
	CapRatio = 0.80

	DefaultTimeout = 15 * time.Second
)

// Reconciler combines volume lookups and SERP checks into a branded estimate.
type Reconciler struct {
	Volumes VolumeLookup
	Ranks   RankChecker
	Timeout time.Duration
}

// NewReconciler returns a Reconciler with the default timeout.
func NewReconciler(volumes VolumeLookup, ranks RankChecker) *Reconciler {
	return &Reconciler{Volumes: volumes, Ranks: ranks, Timeout: DefaultTimeout}
}

// BrandVariants lists the search terms that count as brand searches for a domain.
func BrandVariants(domain string) []string {
	brand := strings.ReplaceAll(domains.Brand(domain), "-", " ")
	registrable := domains.Registrable(domain)
	if brand == "" || registrable == "" {
		return nil
	}
	return lo.Uniq([]string{
		brand,
		brand + " website",
		brand + " official",
		brand + " company",
		registrable,
		"www." + registrable,
	})
}

// EstimateBranded runs the volume batch and the SERP check concurrently and
// turns them into branded traffic. Any collaborator error or the timeout is
// returned together with the usage both calls reported, since a failed call
// may still have been billed.
func (r *Reconciler) EstimateBranded(ctx context.Context, domain, country string) (Estimate, error) {
	if r == nil || r.Volumes == nil || r.Ranks == nil {
		return Estimate{}, ErrNotConfigured
	}
	terms := BrandVariants(domain)
	if len(terms) == 0 {
		return Estimate{}, eris.Errorf("branded: no brand terms for %q", domain)
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		volumes                []Volume
		rankings               []Ranking
		volumeUsage, rankUsage Usage
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		volumes, volumeUsage, err = r.Volumes.LookupVolumes(gctx, terms, country)
		return eris.Wrap(err, "branded: lookup volumes")
	})
	g.Go(func() error {
		var err error
		rankings, rankUsage, err = r.Ranks.CheckRanking(gctx, terms[0], country, TopN)
		return eris.Wrap(err, "branded: check ranking")
	})
	if err := g.Wait(); err != nil {
		return Estimate{Usage: volumeUsage.Add(rankUsage)}, err
	}

	est := Estimate{
		Terms:        terms,
		SearchVolume: lo.SumBy(volumes, func(v Volume) int { return max(v.SearchVolume, 0) }),
		CTR:          UnrankedCTR,
		Usage:        volumeUsage.Add(rankUsage),
	}
	if pos, ok := position(rankings, domain); ok {
		est.Ranked = true
		est.Position = pos
		est.CTR = RankedCTR
	}
	est.Traffic = int(math.Round(float64(est.SearchVolume) * est.CTR))
	return est, nil
}

// Reconcile estimates branded traffic and caps it against organic traffic.
func (r *Reconciler) Reconcile(ctx context.Context, domain, country string, organic int) (Estimate, error) {
	est, err := r.EstimateBranded(ctx, domain, country)
	if err != nil {
		return Estimate{Usage: est.Usage}, err
	}
	if capped, ok := Cap(est.Traffic, organic); ok {
		zap.L().Warn("branded traffic exceeds organic traffic, capping",
			zap.String("domain", domain),
			zap.Int("branded", est.Traffic),
			zap.Int("organic", organic),
			zap.Int("capped", capped))
		est.Traffic = capped
		est.Capped = true
	}
	return est, nil
}

// Cap returns the corrected branded figure and true when branded exceeds organic.
func Cap(branded, organic int) (int, bool) {
	if branded <= organic {
		return branded, false
	}
	return int(math.Round(float64(max(organic, 0)) * CapRatio)), true
}

// position finds the best rank of the domain in the top results.
func position(rankings []Ranking, domain string) (int, bool) {
	target := domains.Registrable(domain)
	best := 0
	for _, r := range rankings {
		if r.Position <= 0 || r.Position > TopN {
			continue
		}
		host := r.Domain
		if host == "" {
			host = r.URL
		}
		if domains.Registrable(host) != target {
			continue
		}
		if best == 0 || r.Position < best {
			best = r.Position
		}
	}
	return best, best > 0
}
