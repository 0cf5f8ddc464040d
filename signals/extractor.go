package signals

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type fingerprint struct {
	name    string
	html    []string
	headers []string
}

// Markers are matched against the lowercased document and header values.
var fingerprints = []fingerprint{
	{name: "wordpress", html: []string{"wp-content/", "wp-includes/", "content=\"wordpress"}},
	{name: "shopify", html: []string{"cdn.shopify.com", "shopify.theme"}, headers: []string{"shopify"}},
	{name: "wix", html: []string{"static.wixstatic.com", "wix.com website builder"}},
	{name: "squarespace", html: []string{"static1.squarespace.com", "squarespace-cdn"}},
	{name: "drupal", html: []string{"drupal.settings", "/sites/default/files"}, headers: []string{"drupal"}},
	{name: "joomla", html: []string{"/media/jui/", "content=\"joomla"}},
	{name: "magento", html: []string{"mage/cookies", "magento_"}},
	{name: "react", html: []string{"data-reactroot", "react-dom"}},
	{name: "nextjs", html: []string{"__next_data__", "/_next/static"}, headers: []string{"next.js"}},
	{name: "vue", html: []string{"data-v-", "vue.runtime"}},
	{name: "angular", html: []string{"ng-version", "ng-app"}},
	{name: "google-analytics", html: []string{"google-analytics.com", "gtag('config'"}},
	{name: "google-tag-manager", html: []string{"googletagmanager.com"}},
	{name: "cloudflare", headers: []string{"cloudflare"}},
	{name: "nginx", headers: []string{"nginx"}},
	{name: "apache", headers: []string{"apache"}},
	{name: "php", headers: []string{"php"}},
}

// Extract derives SiteSignals from a page's HTML and response headers. Links
// are only counted as internal when they are relative.
func Extract(html string, headers map[string]string) SiteSignals {
	return ExtractFor("", html, headers)
}

// ExtractFor behaves like Extract but also counts absolute links pointing at
// domain (or one of its subdomains) as internal. Malformed HTML never fails:
// whatever cannot be found simply stays zero.
func ExtractFor(domain, html string, headers map[string]string) SiteSignals {
	sig := SiteSignals{
		Headers:   normalizeHeaders(headers),
		TechStack: make(map[string]struct{}),
	}
	if strings.TrimSpace(html) == "" {
		return sig
	}
	sig.HTMLLength = len(html)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		fingerprintTech(&sig, strings.ToLower(html))
		return sig
	}

	sig.ParagraphCount = doc.Find("p").Length()
	sig.HeadingCount = doc.Find("h1, h2, h3, h4, h5, h6").Length()
	sig.ImageCount = doc.Find("img").Length()
	sig.ArticleCount = doc.Find("article").Length()

	host := strings.TrimPrefix(strings.ToLower(domain), "www.")
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || href == "#" {
			return
		}
		sig.LinkCount++
		if isInternal(href, host) {
			sig.InternalLinkCount++
		}
	})

	sig.HasStructuredData = doc.Find("script[type='application/ld+json'], [itemscope], [typeof]").Length() > 0
	sig.HasOpenGraph = doc.Find("meta[property^='og:']").Length() > 0
	if desc, ok := doc.Find("meta[name='description']").Attr("content"); ok && strings.TrimSpace(desc) != "" {
		sig.HasMetaDescription = true
	}
	sig.HasCanonical = doc.Find("link[rel='canonical']").Length() > 0
	sig.HasViewport = doc.Find("meta[name='viewport']").Length() > 0

	var text strings.Builder
	text.WriteString(doc.Find("title").First().Text())
	text.WriteString(" ")
	if desc, ok := doc.Find("meta[name='description']").Attr("content"); ok {
		text.WriteString(desc)
		text.WriteString(" ")
	}
	body := doc.Find("body").Clone()
	body.Find("script, style, noscript").Remove()
	text.WriteString(body.Text())
	sig.Text = strings.ToLower(strings.Join(strings.Fields(text.String()), " "))

	lower := strings.ToLower(html)
	if gen, ok := doc.Find("meta[name='generator']").Attr("content"); ok {
		lower += " content=\"" + strings.ToLower(gen)
	}
	fingerprintTech(&sig, lower)
	return sig
}

func isInternal(href, host string) bool {
	lower := strings.ToLower(href)
	for _, prefix := range []string{"mailto:", "tel:", "javascript:", "#"} {
		if strings.HasPrefix(lower, prefix) {
			return false
		}
	}
	if strings.HasPrefix(lower, "//") {
		lower = "https:" + lower
	}
	u, err := url.Parse(lower)
	if err != nil {
		return false
	}
	if u.Host == "" {
		return true
	}
	if host == "" {
		return false
	}
	h := strings.TrimPrefix(u.Hostname(), "www.")
	return h == host || strings.HasSuffix(h, "."+host)
}

func fingerprintTech(sig *SiteSignals, lowerHTML string) {
	var headerValues strings.Builder
	for k, v := range sig.Headers {
		if k == "server" || k == "x-powered-by" || k == "x-generator" || k == "x-shopid" {
			headerValues.WriteString(v)
			headerValues.WriteString(" ")
		}
		if k == "cf-ray" {
			headerValues.WriteString("cloudflare ")
		}
	}
	hv := strings.ToLower(headerValues.String())

	for _, fp := range fingerprints {
		if containsAny(lowerHTML, fp.html) || containsAny(hv, fp.headers) {
			sig.TechStack[fp.name] = struct{}{}
		}
	}
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

func normalizeHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}
