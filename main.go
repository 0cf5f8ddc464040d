package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rotisserie/eris"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/seo-optimizer/traffic-engine/analyzer"
	"github.com/seo-optimizer/traffic-engine/branded"
	"github.com/seo-optimizer/traffic-engine/config"
	"github.com/seo-optimizer/traffic-engine/fetch"
	"github.com/seo-optimizer/traffic-engine/logging"
	"github.com/seo-optimizer/traffic-engine/providers/keywords"
	"github.com/seo-optimizer/traffic-engine/providers/serp"
	"github.com/seo-optimizer/traffic-engine/signals"
	"github.com/seo-optimizer/traffic-engine/stats"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "traffic-engine",
		Usage: "estimate traffic, business type and branded share for a domain",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error", EnvVars: []string{"LOG_LEVEL"}},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: serveAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "port", Usage: "listen port", EnvVars: []string{"PORT"}},
				},
			},
			{
				Name:   "estimate",
				Usage:  "audit a single domain and print the report",
				Action: estimateAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "domain", Aliases: []string{"d"}, Required: true, Usage: "domain to audit"},
					&cli.StringFlag{Name: "html-file", Usage: "use this HTML instead of fetching the page"},
					&cli.StringFlag{Name: "format", Value: "json", Usage: "json or yaml"},
				},
			},
		},
	}
}

// setup loads configuration and installs the global logger.
func setup(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	if _, err := logging.New(cfg.LogLevel, cfg.DevMode); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// newReconciler wires the external keyword and SERP clients when both are
// configured. Without them the analyzer degrades branded lookups.
func newReconciler(cfg config.Config) analyzer.Reconciler {
	if !cfg.BrandedEnabled() {
		zap.L().Warn("KEYWORD_API_* or SERP_API_* not set, branded traffic lookups disabled")
		return nil
	}
	r := branded.NewReconciler(
		keywords.New(cfg.KeywordAPIURL, cfg.KeywordAPIKey, cfg.ExternalTimeout),
		serp.New(cfg.SerpAPIURL, cfg.SerpAPIKey, cfg.ExternalTimeout),
	)
	r.Timeout = cfg.ExternalTimeout
	return r
}

func newAnalyzer(cfg config.Config, recorder *stats.Storage) (*analyzer.Analyzer, error) {
	fetchOpts := []fetch.Option{fetch.WithTimeout(cfg.FetchTimeout)}
	opts := []analyzer.Option{analyzer.WithMinHTMLLength(cfg.ThinContentBytes)}
	if recorder != nil {
		fetchOpts = append(fetchOpts, fetch.WithRecorder(recorder))
		opts = append(opts, analyzer.WithRecorder(recorder))
	}
	opts = append(opts, analyzer.WithFetcher(fetch.New(fetchOpts...)))
	if r := newReconciler(cfg); r != nil {
		opts = append(opts, analyzer.WithReconciler(r))
	}
	return analyzer.New(opts...)
}

func serveAction(c *cli.Context) error {
	cfg, err := setup(c)
	if err != nil {
		return err
	}
	defer zap.L().Sync()
	if port := c.String("port"); port != "" {
		cfg.Port = port
	}
	gin.SetMode(cfg.GinMode)

	storage, err := stats.NewStorage(cfg.DataDir)
	if err != nil {
		return eris.Wrap(err, "failed to initialize stats storage")
	}
	defer func() {
		if err := storage.Shutdown(); err != nil {
			zap.L().Error("failed to flush statistics", zap.Error(err))
		}
	}()

	a, err := newAnalyzer(cfg, storage)
	if err != nil {
		return err
	}

	srv := newServer(cfg, a, storage)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go retainStatistics(ctx, storage)

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("server starting", zap.String("addr", "http://localhost:"+cfg.Port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return eris.Wrap(err, "failed to start server")
	case <-ctx.Done():
	}

	zap.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// retainStatistics keeps the current and previous month of statistics.
func retainStatistics(ctx context.Context, storage *stats.Storage) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			storage.Cleanup(2)
		}
	}
}

func estimateAction(c *cli.Context) error {
	cfg, err := setup(c)
	if err != nil {
		return err
	}
	defer zap.L().Sync()

	a, err := newAnalyzer(cfg, nil)
	if err != nil {
		return err
	}

	ctx := c.Context
	var report *analyzer.Report
	if path := c.String("html-file"); path != "" {
		html, err := os.ReadFile(path)
		if err != nil {
			return eris.Wrapf(err, "failed to read %s", path)
		}
		report, err = a.AnalyzePage(ctx, c.String("domain"), signals.ScrapedPage{HTML: string(html)})
		if err != nil {
			return err
		}
	} else {
		report, err = a.Analyze(ctx, c.String("domain"))
		if err != nil {
			return err
		}
	}
	return writeReport(c.App.Writer, report, c.String("format"))
}

func writeReport(w io.Writer, report *analyzer.Report, format string) error {
	switch format {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return eris.Wrap(err, "failed to encode report")
		}
		return enc.Close()
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(report), "failed to encode report")
	default:
		return eris.Errorf("unknown format %q (want json or yaml)", format)
	}
}
