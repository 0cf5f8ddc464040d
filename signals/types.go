package signals

import (
	"sort"
	"strings"
)

// DefaultMinHTMLLength is the thin-content threshold below which a scrape is
// treated as failed.
const DefaultMinHTMLLength = 500

// ScrapedPage is what the fetch collaborator hands to the engine.
type ScrapedPage struct {
	URL     string            `json:"url,omitempty"`
	HTML    string            `json:"html"`
	Headers map[string]string `json:"headers,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// Failed reports whether the scrape must be routed to the fallback path: the
// fetch reported an error or the document is too thin to classify.
func (p ScrapedPage) Failed(minLength int) bool {
	if p.Error != "" {
		return true
	}
	if minLength <= 0 {
		minLength = DefaultMinHTMLLength
	}
	return len(strings.TrimSpace(p.HTML)) < minLength
}

// SiteSignals holds the raw features derived from one page. It is built once
// per audit and never mutated afterwards.
type SiteSignals struct {
	HTMLLength         int                 `json:"htmlLength"`
	Headers            map[string]string   `json:"headers,omitempty"`
	ParagraphCount     int                 `json:"paragraphCount"`
	HeadingCount       int                 `json:"headingCount"`
	ImageCount         int                 `json:"imageCount"`
	LinkCount          int                 `json:"linkCount"`
	InternalLinkCount  int                 `json:"internalLinkCount"`
	ArticleCount       int                 `json:"articleCount"`
	HasStructuredData  bool                `json:"hasStructuredData"`
	HasOpenGraph       bool                `json:"hasOpenGraph"`
	HasMetaDescription bool                `json:"hasMetaDescription"`
	HasCanonical       bool                `json:"hasCanonical"`
	HasViewport        bool                `json:"hasViewport"`
	TechStack          map[string]struct{} `json:"-"`

	// Text is the lowercased title, meta description and body text.
	Text string `json:"-"`
}

// Empty reports whether no feature at all was extracted.
func (s SiteSignals) Empty() bool {
	return s.HTMLLength == 0
}

// Technologies returns the fingerprinted technologies in sorted order.
func (s SiteSignals) Technologies() []string {
	techs := make([]string, 0, len(s.TechStack))
	for t := range s.TechStack {
		techs = append(techs, t)
	}
	sort.Strings(techs)
	return techs
}

// Uses reports whether a technology was fingerprinted.
func (s SiteSignals) Uses(tech string) bool {
	_, ok := s.TechStack[tech]
	return ok
}
