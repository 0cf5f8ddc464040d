package megasite

import (
	"strings"
	"testing"

	"github.com/seo-optimizer/traffic-engine/geo"
)

func newDetector(t *testing.T) *Detector {
	t.Helper()
	d, err := NewDetector()
	if err != nil {
		t.Fatalf("NewDetector: %v", err)
	}
	return d
}

func TestEmbeddedTable(t *testing.T) {
	d := newDetector(t)
	if d.Len() < 20 {
		t.Fatalf("expected the embedded table to hold at least 20 sites, got %d", d.Len())
	}
	for host, e := range d.table {
		if e.Category == "" || e.Kind == "" || e.MonthlyMin <= 0 || e.MonthlyMax <= e.MonthlyMin {
			t.Errorf("bad table entry for %s: %+v", host, e)
		}
	}
}

func TestDetectByDomain(t *testing.T) {
	d := newDetector(t)
	tests := []struct {
		domain   string
		found    bool
		category string
	}{
		{"facebook.com", true, "Social Media Platform"},
		{"https://www.youtube.com/watch", true, "Video Platform"},
		{"news.bbc.co.uk", true, "Major News Media"},
		{"en.wikipedia.org", true, "Reference"},
		{"example.co.uk", false, ""},
		{"notfacebook.com", false, ""},
		{"co.uk", false, ""},
		{"gov.uk", true, "Government"},
		{"www.gov.uk", true, "Government"},
		{"leeds.gov.uk", false, ""},
		{"parkroadsurgery.nhs.uk", false, ""},
		{"x.nhs.uk", false, ""},
	}
	for _, tt := range tests {
		p, ok := d.DetectByDomain(tt.domain)
		if ok != tt.found {
			t.Errorf("DetectByDomain(%q) found = %v, want %v", tt.domain, ok, tt.found)
			continue
		}
		if ok && p.Category != tt.category {
			t.Errorf("DetectByDomain(%q) category = %q, want %q", tt.domain, p.Category, tt.category)
		}
	}
}

func TestTableProfileWithinRange(t *testing.T) {
	d := newDetector(t)
	for host := range d.table {
		p, ok := d.DetectByDomain(host)
		if !ok {
			t.Fatalf("%s not detected", host)
		}
		if p.MonthlyTotal < p.MinMonthly || p.MonthlyTotal >= p.MaxMonthly {
			t.Errorf("%s monthly total %d outside [%d,%d)", host, p.MonthlyTotal, p.MinMonthly, p.MaxMonthly)
		}
		if p.Source != SourceTable {
			t.Errorf("%s source = %s", host, p.Source)
		}
		if geo.Sum(p.GeoDistribution) != 100 {
			t.Errorf("%s geo distribution sums to %d", host, geo.Sum(p.GeoDistribution))
		}
		again, _ := d.DetectByDomain(host)
		if again.MonthlyTotal != p.MonthlyTotal {
			t.Errorf("%s monthly total not deterministic", host)
		}
	}
}

func TestOrganicRatios(t *testing.T) {
	tests := []struct {
		kind Kind
		want float64
	}{
		{KindNews, 0.92}, {KindGovernment, 0.98}, {KindEducation, 0.96},
		{KindSocial, 0.85}, {KindEcommerce, 0.88}, {KindSearch, 0.88},
	}
	for _, tt := range tests {
		if got := OrganicRatio(tt.kind); got != tt.want {
			t.Errorf("OrganicRatio(%s) = %v, want %v", tt.kind, got, tt.want)
		}
	}
}

func TestGeoWeighting(t *testing.T) {
	d := newDetector(t)

	guardian, _ := d.DetectByDomain("theguardian.com")
	if guardian.GeoDistribution[0].Country != "GB" {
		t.Errorf("UK-origin table entry should be UK weighted, got %v", guardian.GeoDistribution)
	}
	if !guardian.UKOrigin {
		t.Error("theguardian.com should be marked UK origin")
	}
	cnn, _ := d.DetectByDomain("cnn.com")
	if cnn.GeoDistribution[0].Country != "US" || cnn.GeoDistribution[0].Percentage != 35 {
		t.Errorf("cnn.com should use the global split, got %v", cnn.GeoDistribution)
	}
	if cnn.UKOrigin {
		t.Error("cnn.com should not be marked UK origin")
	}
	amazonUK, _ := d.DetectByDomain("amazon.co.uk")
	if amazonUK.GeoDistribution[0].Country != "GB" {
		t.Errorf(".co.uk should be UK weighted, got %v", amazonUK.GeoDistribution)
	}
	if !amazonUK.UKOrigin {
		t.Error("amazon.co.uk should be marked UK origin")
	}
}

func TestDetectByContentNews(t *testing.T) {
	d := newDetector(t)
	html := `<html><head><title>News Example</title></head><body>
<h1>Breaking news</h1><p>Live updates from our newsroom.</p>
<p>Latest news and world news headlines.</p>
<p>Our correspondent and reporter filed this story.</p></body></html>`

	p, ok := d.DetectByContent("news-example.com", html)
	if !ok {
		t.Fatal("expected news-example.com to be detected as a news outlet")
	}
	if p.Category != CategoryNews || p.Kind != KindNews {
		t.Errorf("category = %q kind = %q", p.Category, p.Kind)
	}
	if p.MonthlyTotal < 5_000_000 || p.MonthlyTotal > 200_000_000 {
		t.Errorf("monthly total %d outside [5M,200M]", p.MonthlyTotal)
	}
	if p.OrganicRatio != 0.92 {
		t.Errorf("organic ratio = %v, want 0.92", p.OrganicRatio)
	}
}

func TestDetectByContentPatterns(t *testing.T) {
	d := newDetector(t)
	plain := "<html><body><p>" + strings.Repeat("we sell garden furniture ", 40) + "</p></body></html>"

	tests := []struct {
		domain   string
		html     string
		found    bool
		category string
	}{
		{"irs.gov", plain, true, CategoryGovernment},
		{"hmrc.service.gov.au", plain, true, CategoryGovernment},
		{"mit.edu", plain, true, CategoryEducation},
		{"ox.ac.uk", plain, true, CategoryEducation},
		{"leeds.gov.uk", plain, true, CategoryGovernment},
		{"stateuniversity.org", "<p>University admissions for undergraduate and postgraduate students</p>", true, CategoryEducation},
		{"gardenfurniture.com", plain, false, ""},
		{"dailygardener.com", "<p>latest news</p>", false, ""},
		{"example.com", "", false, ""},
	}
	for _, tt := range tests {
		p, ok := d.DetectByContent(tt.domain, tt.html)
		if ok != tt.found {
			t.Errorf("DetectByContent(%q) found = %v, want %v", tt.domain, ok, tt.found)
			continue
		}
		if ok && p.Category != tt.category {
			t.Errorf("DetectByContent(%q) category = %q, want %q", tt.domain, p.Category, tt.category)
		}
		if ok && p.Source != SourcePattern {
			t.Errorf("DetectByContent(%q) source = %s, want pattern", tt.domain, p.Source)
		}
	}
}

func TestLoadTableRejectsBadRanges(t *testing.T) {
	_, err := LoadTable(strings.NewReader("sites:\n  - domain: a.com\n    category: X\n    kind: social\n    monthly_min: 10\n    monthly_max: 5\n"))
	if err == nil {
		t.Error("expected an error for monthly_max below monthly_min")
	}
}
