package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/seo-optimizer/geo/analyzer"
	"github.com/seo-optimizer/geo/config"
	"github.com/seo-optimizer/geo/logging"
	"github.com/seo-optimizer/geo/metrics"
	"github.com/seo-optimizer/geo/middleware"
	"github.com/seo-optimizer/geo/ranking"
)

const shutdownTimeout = 15 * time.Second

func main() {
	config.LoadEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := logging.Init(cfg.LogLevel); err != nil {
		log.Fatalf("failed to init logging: %v", err)
	}
	logger := logging.Named("server")
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	geo, err := analyzer.Build(ctx, cfg)
	if err != nil {
		logger.Error(ctx, "failed to build analyzer", logging.Err(err))
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(cfg, geo, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info(ctx, "server starting", logging.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "server failed", logging.Err(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info(context.Background(), "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "server shutdown failed", logging.Err(err))
	}
	if err := geo.Shutdown(shutdownCtx); err != nil {
		os.Exit(1)
	}
}

func newRouter(cfg *config.Config, geo *analyzer.Analyzer, logger logging.Logger) *gin.Engine {
	r := gin.New()
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	r.Use(middleware.ErrorHandler(logging.Named("http")))
	r.Use(rateLimiter.RateLimit())

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	if traffic := geo.Traffic(); traffic != nil {
		r.Use(middleware.Stats(traffic, metrics.Default(), logging.Named("traffic")))
	}

	h := &handlers{geo: geo, log: logger}

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
		api.POST("/analyze", h.analyze)
		api.POST("/compare", h.compare)
		api.GET("/personas", h.personas)
		api.GET("/statistics", func(c *gin.Context) {
			c.JSON(http.StatusOK, geo.Statistics())
		})
	}
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	return r
}

type handlers struct {
	geo *analyzer.Analyzer
	log logging.Logger
}

func (h *handlers) analyze(c *gin.Context) {
	var request struct {
		URL string `json:"url" binding:"required,url"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid URL provided"})
		return
	}
	c.Set(middleware.PageURLKey, request.URL)

	analysis, err := h.geo.Analyze(c.Request.Context(), request.URL)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Analysis was interrupted"})
		return
	}
	c.JSON(http.StatusOK, analysis)
}

func (h *handlers) compare(c *gin.Context) {
	var request struct {
		URL                string   `json:"url" binding:"required,url"`
		Competitors        []string `json:"competitors" binding:"omitempty,dive,url"`
		MaxCompetitors     int      `json:"maxCompetitors" binding:"gte=0"`
		RequireCompetitors bool     `json:"requireCompetitors"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid comparison request: " + err.Error()})
		return
	}
	c.Set(middleware.PageURLKey, request.URL)

	report, err := h.geo.Compare(c.Request.Context(), request.URL, analyzer.CompareOptions{
		Competitors:        request.Competitors,
		MaxCompetitors:     request.MaxCompetitors,
		RequireCompetitors: request.RequireCompetitors,
	})
	switch {
	case errors.Is(err, analyzer.ErrNoCompetitors):
		h.log.Info(c.Request.Context(), "comparison without competitors", logging.String("url", request.URL))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "No competitors found for this URL"})
	case errors.Is(err, ranking.ErrEmptyTarget):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Target URL is required"})
	case err != nil:
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Comparison was interrupted"})
	default:
		c.JSON(http.StatusOK, report)
	}
}

func (h *handlers) personas(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"judges": h.geo.Personas()})
}
