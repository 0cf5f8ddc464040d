// Package domains normalizes host names and splits them into registrable
// domain, public suffix and brand label.
package domains

import (
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Normalize lowercases a domain and strips scheme, www prefix, port, path and
// trailing dots so that "https://www.Example.com/about" and "example.com" compare equal.
func Normalize(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	if i := strings.Index(d, "://"); i >= 0 {
		d = d[i+3:]
	}
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	if i := strings.LastIndex(d, ":"); i >= 0 {
		d = d[:i]
	}
	d = strings.TrimPrefix(d, "www.")
	return strings.Trim(d, ".")
}

// Registrable returns the eTLD+1 of domain ("shop.example.co.uk" -> "example.co.uk").
// Hosts that are themselves a public suffix are returned normalized.
func Registrable(domain string) string {
	host := Normalize(domain)
	if host == "" {
		return ""
	}
	reg, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return reg
}

// Suffix returns the public suffix of domain ("example.co.uk" -> "co.uk").
func Suffix(domain string) string {
	host := Normalize(domain)
	if host == "" {
		return ""
	}
	suffix, _ := publicsuffix.PublicSuffix(host)
	return suffix
}

// Brand returns the registrable label without its suffix ("example.co.uk" -> "example").
func Brand(domain string) string {
	reg := Registrable(domain)
	suffix := Suffix(domain)
	brand := strings.TrimSuffix(reg, "."+suffix)
	if brand == "" {
		return reg
	}
	return brand
}

// IsPublicSuffix reports whether domain is itself a public suffix ("gov.uk",
// "co.uk"), i.e. nothing can be registered as that exact name.
func IsPublicSuffix(domain string) bool {
	host := Normalize(domain)
	return host != "" && Suffix(host) == host
}

// TLD returns the last label of domain.
func TLD(domain string) string {
	host := Normalize(domain)
	if i := strings.LastIndex(host, "."); i >= 0 {
		return host[i+1:]
	}
	return host
}

// HasSuffix reports whether domain equals suffix or ends in "."+suffix.
func HasSuffix(domain, suffix string) bool {
	host := Normalize(domain)
	suffix = strings.Trim(strings.ToLower(suffix), ".")
	return host == suffix || strings.HasSuffix(host, "."+suffix)
}
