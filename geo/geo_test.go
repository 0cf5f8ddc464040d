package geo

import (
	"strings"
	"testing"
)

func TestFixedSplitsSumTo100(t *testing.T) {
	for name, shares := range map[string][]Share{
		"global":     Global(),
		"uk":         UKWeighted(),
		"primary GB": WithPrimary("GB", 70),
		"primary US": WithPrimary("us", 55),
		"primary NZ": WithPrimary("NZ", 45),
		"tld co.uk":  FromTLD("example.co.uk"),
		"tld com":    FromTLD("example.com"),
		"full":       WithPrimary("DE", 100),
	} {
		if got := Sum(shares); got != 100 {
			t.Errorf("%s split sums to %d: %v", name, got, shares)
		}
	}
}

func TestFromTLD(t *testing.T) {
	tests := []struct {
		domain  string
		primary string
	}{
		{"example.co.uk", "GB"},
		{"example.de", "DE"},
		{"whitehouse.gov", "US"},
		{"example.com", "US"},
	}
	for _, tt := range tests {
		shares := FromTLD(tt.domain)
		if shares[0].Country != tt.primary {
			t.Errorf("FromTLD(%q) primary = %s, want %s", tt.domain, shares[0].Country, tt.primary)
		}
	}
	if FromTLD("example.com")[0].Percentage != 35 {
		t.Error("generic TLD should use the global split")
	}
}

func TestAllocate(t *testing.T) {
	shares := Global()
	for _, total := range []int{0, 1, 7, 99, 100, 12345, 87_000_000} {
		parts := Allocate(total, shares)
		sum := 0
		for _, p := range parts {
			if p < 0 {
				t.Fatalf("negative part for total %d: %v", total, parts)
			}
			sum += p
		}
		if sum != total {
			t.Errorf("Allocate(%d) sums to %d", total, sum)
		}
	}

	parts := Allocate(1000, []Share{{"GB", 70}, {"US", 30}})
	if parts[0] != 700 || parts[1] != 300 {
		t.Errorf("Allocate(1000) = %v, want [700 300]", parts)
	}
}

func TestDetectorInfer(t *testing.T) {
	d := NewDetector()
	english := strings.Repeat("We make handmade furniture for homes and offices across the region. ", 5)
	german := strings.Repeat("Wir bauen handgemachte Möbel für Häuser und Büros in der ganzen Region. ", 5)

	tests := []struct {
		name    string
		domain  string
		html    string
		primary string
		share   int
	}{
		{"uk tld", "example.co.uk", "<html><body><p>" + english + "</p></body></html>", "GB", 70},
		{"lang region", "example.com", `<html lang="en-GB"><body><p>` + english + `</p></body></html>`, "GB", 70},
		{"german text", "example.com", "<html><body><p>" + german + "</p></body></html>", "DE", 55},
		{"currency", "example.com", "<html><body><p>Prices from ₹499 " + english + "</p></body></html>", "IN", 45},
		{"english only", "example.com", "<html><body><p>" + english + "</p></body></html>", "US", 55},
		{"no html", "example.com", "", "US", 35},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := d.Infer(tt.domain, tt.html)
			if err != nil {
				t.Fatalf("Infer returned error: %v", err)
			}
			if Sum(shares) != 100 {
				t.Errorf("shares sum to %d", Sum(shares))
			}
			if shares[0].Country != tt.primary || shares[0].Percentage != tt.share {
				t.Errorf("primary = %+v, want %s %d", shares[0], tt.primary, tt.share)
			}
		})
	}
}
