package analyzer

import (
	"github.com/seo-optimizer/traffic-engine/branded"
	"github.com/seo-optimizer/traffic-engine/classifier"
	"github.com/seo-optimizer/traffic-engine/estimator"
	"github.com/seo-optimizer/traffic-engine/megasite"
)

// State is a step of the audit chain.
type State string

const (
	StateScraping             State = "scraping"
	StateClassifying          State = "classifying"
	StateEstimating           State = "estimating"
	StateMegaSiteByDomainOnly State = "mega-site-by-domain-only"
	StateBasicEstimate        State = "basic-estimate"
	StateDone                 State = "done"
)

// Report is the result of one audit. Everything except AuditID is a pure
// function of the domain and the scraped page.
type Report struct {
	AuditID        string                     `json:"auditId" yaml:"auditId"`
	Domain         string                     `json:"domain" yaml:"domain"`
	Estimate       estimator.TrafficEstimate  `json:"estimate" yaml:"estimate"`
	Classification *classifier.Classification `json:"classification,omitempty" yaml:"classification,omitempty"`
	MegaSite       *megasite.Profile          `json:"megaSite,omitempty" yaml:"megaSite,omitempty"`
	Branded        *branded.Estimate          `json:"branded,omitempty" yaml:"branded,omitempty"`
	Path           []State                    `json:"path" yaml:"path"`
	Usage          branded.Usage              `json:"usage" yaml:"usage"`
	Warnings       []string                   `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Demoted reports whether the audit left the main chain.
func (r *Report) Demoted() bool {
	for _, s := range r.Path {
		if s == StateMegaSiteByDomainOnly || s == StateBasicEstimate {
			return true
		}
	}
	return false
}

func (r *Report) visit(s State) {
	r.Path = append(r.Path, s)
}

func (r *Report) warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}
