// Package analyzer runs the audit chain: scrape, classify, estimate, reconcile
// branded traffic. Every failure short of a broken geography source demotes
// to a lower-confidence estimate instead of failing the audit.
package analyzer

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/seo-optimizer/traffic-engine/branded"
	"github.com/seo-optimizer/traffic-engine/classifier"
	"github.com/seo-optimizer/traffic-engine/domains"
	"github.com/seo-optimizer/traffic-engine/estimator"
	"github.com/seo-optimizer/traffic-engine/geo"
	"github.com/seo-optimizer/traffic-engine/megasite"
	"github.com/seo-optimizer/traffic-engine/signals"
	"github.com/seo-optimizer/traffic-engine/stats"
)

var (
	ErrEmptyDomain = eris.New("analyzer: empty domain")
	ErrNoFetcher   = eris.New("analyzer: no fetcher configured")
)

// Fetcher downloads a domain's home page. Failures are reported on the page.
type Fetcher interface {
	Fetch(ctx context.Context, domain string) signals.ScrapedPage
}

// Reconciler refines the branded share of organic traffic.
type Reconciler interface {
	Reconcile(ctx context.Context, domain, country string, organic int) (branded.Estimate, error)
}

// Recorder receives one record per finished audit.
type Recorder interface {
	RecordAudit(a stats.Audit)
}

// Analyzer runs audits. It holds no per-audit state and is safe for concurrent use.
type Analyzer struct {
	fetcher       Fetcher
	megasites     *megasite.Detector
	estimator     *estimator.Estimator
	reconciler    Reconciler
	recorder      Recorder
	minHTMLLength int
	newID         func() string
}

// Option configures an Analyzer.
type Option func(*Analyzer)

func WithFetcher(f Fetcher) Option { return func(a *Analyzer) { a.fetcher = f } }

func WithReconciler(r Reconciler) Option { return func(a *Analyzer) { a.reconciler = r } }

func WithRecorder(r Recorder) Option { return func(a *Analyzer) { a.recorder = r } }

func WithMegaSites(d *megasite.Detector) Option { return func(a *Analyzer) { a.megasites = d } }

func WithEstimator(e *estimator.Estimator) Option { return func(a *Analyzer) { a.estimator = e } }

// WithMinHTMLLength sets how short a page may be before it counts as a failed scrape.
func WithMinHTMLLength(n int) Option {
	return func(a *Analyzer) {
		if n >= 0 {
			a.minHTMLLength = n
		}
	}
}

// New creates an Analyzer. Without options it uses the embedded mega-site
// table and an estimator backed by the geo detector.
func New(opts ...Option) (*Analyzer, error) {
	a := &Analyzer{
		minHTMLLength: signals.DefaultMinHTMLLength,
		newID:         func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.megasites == nil {
		d, err := megasite.NewDetector()
		if err != nil {
			return nil, eris.Wrap(err, "failed to load mega-site table")
		}
		a.megasites = d
	}
	if a.estimator == nil {
		a.estimator = estimator.New(geo.NewDetector())
	}
	return a, nil
}

// Analyze fetches the domain's home page and audits it.
func (a *Analyzer) Analyze(ctx context.Context, domain string) (*Report, error) {
	if a.fetcher == nil {
		return nil, ErrNoFetcher
	}
	if domains.Normalize(domain) == "" {
		return nil, ErrEmptyDomain
	}
	return a.AnalyzePage(ctx, domain, a.fetcher.Fetch(ctx, domain))
}

// AnalyzePage audits an already scraped page. The only error returned for a
// valid domain is an *estimator.GeographyError.
func (a *Analyzer) AnalyzePage(ctx context.Context, domain string, page signals.ScrapedPage) (*Report, error) {
	domain = domains.Normalize(domain)
	if domain == "" {
		return nil, ErrEmptyDomain
	}

	report := &Report{AuditID: a.newID(), Domain: domain}
	report.visit(StateScraping)

	var err error
	if page.Failed(a.minHTMLLength) {
		a.fromDomainOnly(report, page)
	} else {
		err = a.fromContent(ctx, report, page)
	}
	if err != nil {
		zap.L().Error("audit failed",
			zap.String("auditId", report.AuditID),
			zap.String("domain", domain),
			zap.Error(err))
		return nil, err
	}

	report.visit(StateDone)
	a.record(report)
	zap.L().Info("audit finished",
		zap.String("auditId", report.AuditID),
		zap.String("domain", domain),
		zap.String("dataSource", string(report.Estimate.DataSource)),
		zap.String("confidence", string(report.Estimate.Confidence)),
		zap.Int("organic", report.Estimate.MonthlyOrganic),
		zap.Int("branded", report.Estimate.BrandedTraffic),
		zap.Int("warnings", len(report.Warnings)))
	return report, nil
}

// fromDomainOnly handles failed or thin scrapes.
func (a *Analyzer) fromDomainOnly(report *Report, page signals.ScrapedPage) {
	reason := page.Error
	if reason == "" {
		reason = "content too thin"
	}
	report.warn("scrape failed: " + reason)
	report.visit(StateMegaSiteByDomainOnly)

	if profile, ok := a.megasites.DetectByDomain(report.Domain); ok {
		report.MegaSite = profile
		report.Estimate = a.estimator.FromMegaSite(profile)
		return
	}
	a.basic(report)
}

func (a *Analyzer) fromContent(ctx context.Context, report *Report, page signals.ScrapedPage) error {
	report.visit(StateClassifying)

	est, err := a.estimate(report, page)
	if err != nil {
		var geoErr *estimator.GeographyError
		if errors.As(err, &geoErr) {
			return err
		}
		zap.L().Warn("estimation failed, using basic estimate",
			zap.String("domain", report.Domain), zap.Error(err))
		report.warn("estimation failed: " + err.Error())
		a.basic(report)
		return nil
	}
	report.Estimate = est
	if report.MegaSite != nil {
		return nil
	}

	a.reconcileBranded(ctx, report)
	return nil
}

// estimate runs extraction, classification, content-mode mega-site detection
// and the deterministic estimator. Panics are turned into errors.
func (a *Analyzer) estimate(report *Report, page signals.ScrapedPage) (est estimator.TrafficEstimate, err error) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("panic during estimation", zap.String("domain", report.Domain), zap.Any("panic", r))
			err = eris.Errorf("panic: %v", r)
		}
	}()

	sig := signals.ExtractFor(report.Domain, page.HTML, page.Headers)
	c := classifier.Classify(sig, page.HTML, report.Domain)
	report.Classification = &c
	zap.L().Debug("classified site",
		zap.String("domain", report.Domain),
		zap.String("type", string(c.Type)),
		zap.String("size", string(c.Size)),
		zap.Int("sizeScore", c.SizeScore),
		zap.Strings("tech", sig.Technologies()))

	if profile, ok := a.megasites.DetectByContent(report.Domain, page.HTML); ok {
		report.MegaSite = profile
		return a.estimator.FromMegaSite(profile), nil
	}

	report.visit(StateEstimating)
	return a.estimator.Estimate(c, sig, report.Domain, page.HTML)
}

func (a *Analyzer) basic(report *Report) {
	report.visit(StateBasicEstimate)
	report.Estimate = a.estimator.Basic(report.Domain)
}

// reconcileBranded fills in branded traffic. Any reconciler failure degrades
// the whole estimate to estimated/low with no branded figure.
func (a *Analyzer) reconcileBranded(ctx context.Context, report *Report) {
	est := &report.Estimate
	if a.reconciler == nil {
		a.degrade(report, branded.ErrNotConfigured)
		return
	}

	b, err := a.reconciler.Reconcile(ctx, report.Domain, primaryCountry(est), est.MonthlyOrganic)
	report.Usage = report.Usage.Add(b.Usage)
	if err != nil {
		a.degrade(report, err)
		return
	}
	if capped, ok := branded.Cap(b.Traffic, est.MonthlyOrganic); ok {
		b.Traffic, b.Capped = capped, true
	}
	est.BrandedTraffic = b.Traffic
	report.Branded = &b
}

func (a *Analyzer) degrade(report *Report, err error) {
	zap.L().Warn("branded lookup failed, degrading estimate",
		zap.String("domain", report.Domain), zap.Error(err))
	report.warn("branded lookup failed: " + err.Error())
	report.Estimate.DataSource = estimator.DataSourceEstimated
	report.Estimate.Confidence = estimator.ConfidenceLow
	report.Estimate.BrandedTraffic = 0
}

func (a *Analyzer) record(report *Report) {
	if a.recorder == nil {
		return
	}
	a.recorder.RecordAudit(stats.Audit{
		DataSource: string(report.Estimate.DataSource),
		Confidence: string(report.Estimate.Confidence),
		Demoted:    report.Demoted(),
		Capped:     report.Branded != nil && report.Branded.Capped,
		Degraded:   report.MegaSite == nil && report.Branded == nil && !report.Demoted(),
		APICalls:   report.Usage.Calls,
		APICredits: report.Usage.Credits,
	})
}

// primaryCountry is the lowercase code of the largest real country share.
func primaryCountry(est *estimator.TrafficEstimate) string {
	for _, c := range est.TopCountries {
		if c.Country != geo.Other {
			return strings.ToLower(c.Country)
		}
	}
	return "us"
}
