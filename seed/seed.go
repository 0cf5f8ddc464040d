package seed

import (
	"hash/fnv"
	"math/rand/v2"

	"github.com/seo-optimizer/traffic-engine/domains"
)

// Purpose separates the random streams drawn from one Seed so that draws made
// for different reasons never correlate with each other.
type Purpose uint64

const (
	PurposeBase Purpose = iota + 1
	PurposeSize
	PurposeJitter
	PurposeMegaSite
	PurposeBasic
	PurposeBasicJitter

	// PurposeTrend is the first of six consecutive trend purposes, one per month.
	PurposeTrend Purpose = 100
)

// Seed is a stable hash of a domain. The same domain always yields the same Seed.
type Seed uint64

// FromDomain hashes the normalized domain with FNV-1a.
func FromDomain(domain string) Seed {
	h := fnv.New64a()
	h.Write([]byte(domains.Normalize(domain)))
	return Seed(h.Sum64())
}

// Stream returns a PCG generator for the given purpose.
func (s Seed) Stream(p Purpose) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(s), uint64(p)))
}

// Float returns a value in [0, 1) for the given purpose.
func (s Seed) Float(p Purpose) float64 {
	return s.Stream(p).Float64()
}

// Between draws an integer in [min, max). It returns min when the interval is empty.
func (s Seed) Between(p Purpose, min, max int) int {
	if max <= min {
		return min
	}
	return min + s.Stream(p).IntN(max-min)
}

// Jitter returns a multiplicative factor in [1-spread, 1+spread).
func (s Seed) Jitter(p Purpose, spread float64) float64 {
	return 1 - spread + 2*spread*s.Float(p)
}
