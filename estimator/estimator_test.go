package estimator

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/seo-optimizer/traffic-engine/classifier"
	"github.com/seo-optimizer/traffic-engine/geo"
	"github.com/seo-optimizer/traffic-engine/megasite"
	"github.com/seo-optimizer/traffic-engine/signals"
)

var fixedNow = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

func newTestEstimator(inferrer geo.Inferrer) *Estimator {
	e := New(inferrer)
	e.Now = func() time.Time { return fixedNow }
	return e
}

// plainPage builds a page of roughly n bytes with no SEO extras, so only the
// content boost applies.
func plainPage(n int) string {
	var b strings.Builder
	b.WriteString("<html><head><title>Example Plumbing</title></head><body>")
	b.WriteString("<h1>Example Plumbing</h1><p>Our services for local clients.</p>")
	for b.Len() < n {
		b.WriteString("<p>lorem ipsum dolor sit amet consectetur adipiscing elit</p>")
	}
	b.WriteString("</body></html>")
	return b.String()
}

type failingInferrer struct{}

func (failingInferrer) Infer(string, string) ([]geo.Share, error) {
	return nil, errors.New("geo backend down")
}

func TestEstimateDeterministic(t *testing.T) {
	html := plainPage(30_000)
	sig := signals.ExtractFor("example.co.uk", html, nil)
	c := classifier.Classification{Type: classifier.TypeBusiness, Size: classifier.SizeSmall}
	e := newTestEstimator(nil)

	first, err := e.Estimate(c, sig, "example.co.uk", html)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := e.Estimate(c, sig, "https://www.example.co.uk/", html)
		if err != nil {
			t.Fatalf("Estimate: %v", err)
		}
		if again.MonthlyOrganic != first.MonthlyOrganic || again.MonthlyPaid != first.MonthlyPaid {
			t.Fatalf("estimate changed between runs: %+v vs %+v", first, again)
		}
		for j := range first.Trend {
			if again.Trend[j] != first.Trend[j] {
				t.Fatalf("trend point %d changed: %+v vs %+v", j, first.Trend[j], again.Trend[j])
			}
		}
	}
}

func TestEstimateSmallBusinessScenario(t *testing.T) {
	html := plainPage(30_000)
	sig := signals.ExtractFor("example.co.uk", html, nil)
	c := classifier.Classification{Type: classifier.TypeBusiness, Size: classifier.SizeSmall}

	got, err := newTestEstimator(nil).Estimate(c, sig, "example.co.uk", html)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if got.MonthlyOrganic < 28 || got.MonthlyOrganic > 145 {
		t.Errorf("organic %d outside [28,145]", got.MonthlyOrganic)
	}
	if got.DataSource != DataSourceAnalysis {
		t.Errorf("data source = %s, want %s", got.DataSource, DataSourceAnalysis)
	}
	if got.Confidence != ConfidenceMedium {
		t.Errorf("confidence = %s, want medium", got.Confidence)
	}
	if len(got.TopCountries) == 0 || got.TopCountries[0].Country != "GB" {
		t.Errorf("expected GB first for a .co.uk domain, got %+v", got.TopCountries)
	}
}

func TestEstimateSplitInvariant(t *testing.T) {
	html := plainPage(70_000)
	sig := signals.ExtractFor("", html, nil)
	e := newTestEstimator(nil)

	for _, typ := range []classifier.Category{classifier.TypePersonal, classifier.TypeBlog, classifier.TypeBusiness, classifier.TypeEnterprise} {
		for _, size := range []classifier.Category{classifier.SizeSmall, classifier.SizeMedium, classifier.SizeLarge, classifier.SizeMassive} {
			for _, domain := range []string{"a.com", "shop.example.de", "someone.blog", "acme.co.uk"} {
				c := classifier.Classification{Type: typ, Size: size}
				got, err := e.Estimate(c, sig, domain, html)
				if err != nil {
					t.Fatalf("Estimate: %v", err)
				}
				if got.MonthlyOrganic < 0 || got.MonthlyPaid < 0 {
					t.Errorf("%s %s/%s: negative traffic %+v", domain, typ, size, got)
				}
				if got.MonthlyPaid*10 > got.MonthlyOrganic {
					t.Errorf("%s %s/%s: paid %d exceeds 10%% of organic %d", domain, typ, size, got.MonthlyPaid, got.MonthlyOrganic)
				}
				sum := 0
				for _, ct := range got.TopCountries {
					sum += ct.Traffic
				}
				if sum != got.MonthlyOrganic {
					t.Errorf("%s %s/%s: countries sum to %d, organic is %d", domain, typ, size, sum, got.MonthlyOrganic)
				}
			}
		}
	}
}

func TestEstimateLowConfidenceOnEmptySignals(t *testing.T) {
	c := classifier.Classification{Type: classifier.TypePersonal, Size: classifier.SizeSmall}
	got, err := newTestEstimator(nil).Estimate(c, signals.SiteSignals{}, "empty.example", "")
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if got.Confidence != ConfidenceLow {
		t.Errorf("confidence = %s, want low", got.Confidence)
	}
}

func TestEstimateGeographyErrorPropagates(t *testing.T) {
	html := plainPage(5_000)
	sig := signals.ExtractFor("", html, nil)
	c := classifier.Classification{Type: classifier.TypeBlog, Size: classifier.SizeSmall}

	_, err := newTestEstimator(failingInferrer{}).Estimate(c, sig, "example.com", html)
	var geoErr *GeographyError
	if !errors.As(err, &geoErr) {
		t.Fatalf("expected *GeographyError, got %v", err)
	}
	if !strings.Contains(err.Error(), "geo backend down") {
		t.Errorf("error should carry the cause: %v", err)
	}
}

func TestTrend(t *testing.T) {
	got := newTestEstimator(nil).Basic("example.com").Trend
	if len(got) != TrendMonths {
		t.Fatalf("trend has %d points", len(got))
	}
	want := []string{"2023-10", "2023-11", "2023-12", "2024-01", "2024-02", "2024-03"}
	for i, p := range got {
		if p.Month != want[i] {
			t.Errorf("point %d month = %s, want %s", i, p.Month, want[i])
		}
	}
}

func TestTrendMonthEndReference(t *testing.T) {
	s := Trend(0, 100, 5, time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC))
	if s[4].Month != "2024-02" || s[5].Month != "2024-03" {
		t.Errorf("month arithmetic overflowed: %+v", s)
	}
}

func TestBasic(t *testing.T) {
	e := newTestEstimator(nil)
	got := e.Basic("example.fr")
	if got.DataSource != DataSourceEstimated || got.Confidence != ConfidenceLow {
		t.Errorf("unexpected provenance %s/%s", got.DataSource, got.Confidence)
	}
	if got.BrandedTraffic != 0 {
		t.Errorf("basic estimate must not carry branded traffic, got %d", got.BrandedTraffic)
	}
	if got.Total() < 28 || got.Total() > 137 {
		t.Errorf("basic total %d outside expected band", got.Total())
	}
	if got.TopCountries[0].Country != "FR" {
		t.Errorf("expected FR first, got %+v", got.TopCountries)
	}
	if again := e.Basic("example.fr"); again.MonthlyOrganic != got.MonthlyOrganic {
		t.Errorf("basic estimate not deterministic")
	}
}

func TestFromMegaSite(t *testing.T) {
	d, err := megasite.NewDetector()
	if err != nil {
		t.Fatalf("NewDetector: %v", err)
	}
	p, ok := d.DetectByDomain("facebook.com")
	if !ok {
		t.Fatal("facebook.com not detected")
	}

	got := newTestEstimator(nil).FromMegaSite(p)
	lo, hi := p.OrganicRange()
	if got.MonthlyOrganic < lo || got.MonthlyOrganic > hi {
		t.Errorf("organic %d outside [%d,%d]", got.MonthlyOrganic, lo, hi)
	}
	if got.DataSource != DataSourceMegaSite || got.Confidence != ConfidenceHigh {
		t.Errorf("unexpected provenance %s/%s", got.DataSource, got.Confidence)
	}
	if got.BrandedTraffic <= 0 || got.BrandedTraffic > got.MonthlyOrganic {
		t.Errorf("branded %d out of range for organic %d", got.BrandedTraffic, got.MonthlyOrganic)
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		total, organic, paid int
	}{
		{0, 0, 0},
		{-5, 0, 0},
		{1, 1, 0},
		{100, 95, 5},
		{129, 123, 6},
	}
	for _, tt := range tests {
		o, p := Split(tt.total, analysisOrganicShare)
		if o != tt.organic || p != tt.paid {
			t.Errorf("Split(%d) = %d,%d, want %d,%d", tt.total, o, p, tt.organic, tt.paid)
		}
	}
}

func TestAgeBoost(t *testing.T) {
	tests := []struct {
		html string
		want float64
	}{
		{"<p>Family business since 1985</p>", MaxAgeBoost},
		{"<p>Established 2010</p>", 0.05},
		{"<p>Founded in 2018</p>", 0.02},
		{"<p>Founded in 2023</p>", 0},
		{"<p>We opened in 1999</p>", 0},
	}
	for _, tt := range tests {
		if got := AgeBoost(tt.html, fixedNow); got != tt.want {
			t.Errorf("AgeBoost(%q) = %v, want %v", tt.html, got, tt.want)
		}
	}
}

func TestAdjustmentsCapped(t *testing.T) {
	sig := signals.SiteSignals{
		HTMLLength:         500_000,
		ArticleCount:       50,
		HeadingCount:       40,
		ImageCount:         80,
		HasViewport:        true,
		HasStructuredData:  true,
		HasOpenGraph:       true,
		HasMetaDescription: true,
		HasCanonical:       true,
	}
	a := ComputeAdjustments(sig, "since 1950", fixedNow)
	if a.Content != MaxContentBoost || a.Quality != MaxQualityBoost || a.Age != MaxAgeBoost {
		t.Errorf("boosts not capped: %+v", a)
	}
	if math.Abs(a.SEO-4*SEOIndicatorBoost) > 1e-9 {
		t.Errorf("seo boost = %v", a.SEO)
	}
	if zero := ComputeAdjustments(signals.SiteSignals{}, "since 1950", fixedNow); zero.Multiplier() != 1 {
		t.Errorf("empty signals should not adjust, got %+v", zero)
	}
}
