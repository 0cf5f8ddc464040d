package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/seo-optimizer/traffic-engine/analyzer"
	"github.com/seo-optimizer/traffic-engine/config"
	"github.com/seo-optimizer/traffic-engine/middleware"
	"github.com/seo-optimizer/traffic-engine/signals"
	"github.com/seo-optimizer/traffic-engine/stats"
)

type trafficRequest struct {
	Domain  string            `json:"domain" binding:"required"`
	HTML    *string           `json:"html"`
	Headers map[string]string `json:"headers"`
	Error   string            `json:"error"`
}

func newServer(cfg config.Config, a *analyzer.Analyzer, storage *stats.Storage) *http.Server {
	return &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: newRouter(a, storage, middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst), cfg.DevMode),
	}
}

func newRouter(a *analyzer.Analyzer, storage *stats.Storage, limiter *middleware.RateLimiter, devMode bool) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORS())
	r.Use(limiter.RateLimit())

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status": "ok",
			})
		})

		api.POST("/traffic", trafficHandler(a))

		api.GET("/statistics", func(c *gin.Context) {
			c.JSON(http.StatusOK, statistics(storage, devMode))
		})
	}
	return r
}

func trafficHandler(a *analyzer.Analyzer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var request trafficRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request: a domain is required",
			})
			return
		}

		var (
			report *analyzer.Report
			err    error
		)
		if request.HTML != nil || request.Error != "" {
			page := signals.ScrapedPage{Headers: request.Headers, Error: request.Error}
			if request.HTML != nil {
				page.HTML = *request.HTML
			}
			report, err = a.AnalyzePage(c.Request.Context(), request.Domain, page)
		} else {
			report, err = a.Analyze(c.Request.Context(), request.Domain)
		}
		if err != nil {
			zap.L().Error("traffic estimate failed",
				zap.String("domain", request.Domain),
				zap.String("requestId", c.GetString(middleware.RequestIDKey)),
				zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to estimate traffic: " + err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, report)
	}
}

// statistics returns the current month in production and every month in dev mode.
func statistics(storage *stats.Storage, devMode bool) gin.H {
	if storage == nil {
		return gin.H{}
	}
	current := storage.GetCurrentStats()
	out := gin.H{"currentMonth": current}
	if devMode {
		months := gin.H{}
		for _, m := range storage.GetAllMonths() {
			months[m], _ = storage.GetMonthlyStats(m)
		}
		out["months"] = months
	}
	return out
}
