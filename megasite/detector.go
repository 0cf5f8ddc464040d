// Package megasite recognises domains whose traffic is orders of magnitude
// outside the small-business model: global platforms, news outlets,
// government and education sites.
package megasite

import (
	_ "embed"
	"io"
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/seo-optimizer/traffic-engine/classifier"
	"github.com/seo-optimizer/traffic-engine/domains"
	"github.com/seo-optimizer/traffic-engine/geo"
	"github.com/seo-optimizer/traffic-engine/seed"
)

//go:embed megasites.yaml
var defaultTable []byte

// NewsThreshold is the weighted news score a page must reach to count as a
// news outlet. Calibrated empirically.
const NewsThreshold = 8

// EducationThreshold applies to education vocabulary on academic-looking hosts.
const EducationThreshold = 6

const (
	newsDomainBonus = 3
	bylineBonus     = 2
	publishedBonus  = 1
)

type rangeSpec struct{ min, max int }

var patternRanges = map[Kind]rangeSpec{
	KindNews:       {5_000_000, 200_000_000},
	KindGovernment: {1_000_000, 50_000_000},
	KindEducation:  {500_000, 20_000_000},
}

var governmentSuffixes = []string{"gov", "mil", "gov.uk", "gov.au", "gov.in", "gc.ca", "gouv.fr", "gov.ie", "govt.nz", "europa.eu"}

var educationSuffixes = []string{"edu", "ac.uk", "edu.au", "ac.nz", "ac.jp", "edu.in", "ac.in"}

var newsHostTokens = []string{"news", "times", "post", "herald", "gazette", "tribune", "journal", "daily", "chronicle"}

var academicHostTokens = []string{"uni", "college", "school", "academy", "institute"}

var newsVocabulary = classifier.NewVocabulary([]classifier.Indicator{
	{Term: "breaking news", Weight: 3, Category: "news"},
	{Term: "live updates", Weight: 3, Category: "news"},
	{Term: "latest news", Weight: 2, Category: "news"},
	{Term: "world news", Weight: 2, Category: "news"},
	{Term: "headlines", Weight: 2, Category: "news"},
	{Term: "correspondent", Weight: 2, Category: "news"},
	{Term: "journalist", Weight: 2, Category: "news"},
	{Term: "reporter", Weight: 2, Category: "news"},
	{Term: "newsroom", Weight: 2, Category: "news"},
	{Term: "editorial", Weight: 1, Category: "news"},
	{Term: "editor", Weight: 1, Category: "news"},
	{Term: "opinion", Weight: 1, Category: "news"},
	{Term: "politics", Weight: 1, Category: "news"},
	{Term: "exclusive", Weight: 1, Category: "news"},
	{Term: "weather", Weight: 1, Category: "news"},
	{Term: "sport", Weight: 1, Category: "news"},
})

var educationVocabulary = classifier.NewVocabulary([]classifier.Indicator{
	{Term: "university", Weight: 2, Category: "education"},
	{Term: "undergraduate", Weight: 2, Category: "education"},
	{Term: "postgraduate", Weight: 2, Category: "education"},
	{Term: "admissions", Weight: 2, Category: "education"},
	{Term: "faculty", Weight: 1, Category: "education"},
	{Term: "campus", Weight: 1, Category: "education"},
	{Term: "research", Weight: 1, Category: "education"},
	{Term: "students", Weight: 1, Category: "education"},
})

type tableEntry struct {
	Domain     string `yaml:"domain"`
	Category   string `yaml:"category"`
	Kind       Kind   `yaml:"kind"`
	UK         bool   `yaml:"uk"`
	MonthlyMin int    `yaml:"monthly_min"`
	MonthlyMax int    `yaml:"monthly_max"`
}

type tableFile struct {
	Sites []tableEntry `yaml:"sites"`
}

// Detector holds the static mega-site table. It is read-only after
// construction and safe for concurrent use.
type Detector struct {
	table map[string]tableEntry
}

// NewDetector loads the embedded table.
func NewDetector() (*Detector, error) {
	return LoadTable(strings.NewReader(string(defaultTable)))
}

// LoadTable parses a YAML mega-site table.
func LoadTable(r io.Reader) (*Detector, error) {
	var file tableFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, eris.Wrap(err, "megasite: decode table")
	}

	d := &Detector{table: make(map[string]tableEntry, len(file.Sites))}
	for _, e := range file.Sites {
		e.Domain = domains.Normalize(e.Domain)
		if e.Domain == "" {
			return nil, eris.New("megasite: table entry without domain")
		}
		if e.MonthlyMax < e.MonthlyMin {
			return nil, eris.Errorf("megasite: %s has monthly_max below monthly_min", e.Domain)
		}
		d.table[e.Domain] = e
	}
	return d, nil
}

// Len returns the number of table entries.
func (d *Detector) Len() int {
	return len(d.table)
}

// DetectByDomain matches the domain, or any parent of it, against the static
// table. It needs no HTML, so it also serves the scrape-failure path. Entries
// that are themselves public suffixes (gov.uk, nhs.uk) only match exactly, so
// sites registered under them are not mistaken for the portal.
func (d *Detector) DetectByDomain(domain string) (*Profile, bool) {
	host := domains.Normalize(domain)
	for h := host; h != ""; h = parent(h) {
		e, ok := d.table[h]
		if !ok {
			continue
		}
		if h != host && domains.IsPublicSuffix(h) {
			return nil, false
		}
		return d.fromEntry(host, e), true
	}
	return nil, false
}

// DetectByContent runs the table lookup and then the government, education
// and news heuristics.
func (d *Detector) DetectByContent(domain, html string) (*Profile, bool) {
	if p, ok := d.DetectByDomain(domain); ok {
		return p, true
	}

	host := domains.Normalize(domain)
	if hasAnySuffix(host, governmentSuffixes) {
		return newPatternProfile(host, CategoryGovernment, KindGovernment), true
	}
	if hasAnySuffix(host, educationSuffixes) {
		return newPatternProfile(host, CategoryEducation, KindEducation), true
	}
	if html == "" {
		return nil, false
	}

	text := strings.ToLower(html)
	if NewsScore(host, html, text) >= NewsThreshold {
		return newPatternProfile(host, CategoryNews, KindNews), true
	}
	if containsAny(host, academicHostTokens) && educationVocabulary.Score(text)["education"] >= EducationThreshold {
		return newPatternProfile(host, CategoryEducation, KindEducation), true
	}
	return nil, false
}

// NewsScore is the weighted news vocabulary score plus the domain-name and
// article-metadata bonuses.
func NewsScore(host, html, lowerText string) int {
	score := newsVocabulary.Score(lowerText)["news"]
	if containsAny(domains.Brand(host), newsHostTokens) {
		score += newsDomainBonus
	}

	parser := readability.NewParser()
	article, err := parser.Parse(strings.NewReader(html), &url.URL{Scheme: "https", Host: host})
	if err == nil {
		if strings.TrimSpace(article.Byline) != "" {
			score += bylineBonus
		}
		if article.PublishedTime != nil {
			score += publishedBonus
		}
	}
	return score
}

func (d *Detector) fromEntry(host string, e tableEntry) *Profile {
	p := &Profile{
		Domain:       host,
		Category:     e.Category,
		Kind:         e.Kind,
		MinMonthly:   e.MonthlyMin,
		MaxMonthly:   e.MonthlyMax,
		OrganicRatio: OrganicRatio(e.Kind),
		Source:       SourceTable,
	}
	p.MonthlyTotal = seed.FromDomain(host).Between(seed.PurposeMegaSite, p.MinMonthly, p.MaxMonthly)
	p.UKOrigin = ukOrigin(host, e.UK)
	p.GeoDistribution = distribution(p.UKOrigin)
	return p
}

func newPatternProfile(host, category string, kind Kind) *Profile {
	r := patternRanges[kind]
	p := &Profile{
		Domain:       host,
		Category:     category,
		Kind:         kind,
		MinMonthly:   r.min,
		MaxMonthly:   r.max,
		OrganicRatio: OrganicRatio(kind),
		Source:       SourcePattern,
	}
	p.MonthlyTotal = seed.FromDomain(host).Between(seed.PurposeMegaSite, r.min, r.max)
	p.UKOrigin = ukOrigin(host, false)
	p.GeoDistribution = distribution(p.UKOrigin)
	return p
}

func ukOrigin(host string, marked bool) bool {
	return marked || domains.TLD(host) == "uk"
}

func distribution(ukOrigin bool) []geo.Share {
	if ukOrigin {
		return geo.UKWeighted()
	}
	return geo.Global()
}

func parent(host string) string {
	i := strings.Index(host, ".")
	if i < 0 {
		return ""
	}
	rest := host[i+1:]
	if !strings.Contains(rest, ".") {
		// never match a bare TLD
		return ""
	}
	return rest
}

func hasAnySuffix(host string, suffixes []string) bool {
	for _, s := range suffixes {
		if domains.HasSuffix(host, s) {
			return true
		}
	}
	return false
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
