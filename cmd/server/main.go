package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/nutrilog/dii-meter/internal/cache"
	"github.com/nutrilog/dii-meter/internal/dii"
	"github.com/nutrilog/dii-meter/internal/errors"
	"github.com/nutrilog/dii-meter/internal/ingest"
	"github.com/nutrilog/dii-meter/internal/middleware"
	"github.com/nutrilog/dii-meter/internal/monitoring"
	"github.com/nutrilog/dii-meter/internal/security"
	"github.com/nutrilog/dii-meter/internal/types"
)

// serverConfig is the environment-driven configuration with defaults.
type serverConfig struct {
	Port            string
	CacheTTL        time.Duration
	RateLimitPerMin int
	AllowedOrigins  []string
	MaxUploadBytes  int64
}

func loadConfig() serverConfig {
	cfg := serverConfig{
		Port:            getEnvOrDefault("PORT", "8080"),
		CacheTTL:        15 * time.Minute,
		RateLimitPerMin: 60,
		AllowedOrigins:  security.DefaultSecurityConfig().AllowedOrigins,
		MaxUploadBytes:  security.DefaultSecurityConfig().MaxBodyBytes,
	}

	if ttl := os.Getenv("CACHE_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			cfg.CacheTTL = d
		}
	}
	if limit := os.Getenv("RATE_LIMIT_PER_MIN"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil && n > 0 {
			cfg.RateLimitPerMin = n
		}
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = strings.Split(origins, ",")
	}
	if max := os.Getenv("MAX_UPLOAD_BYTES"); max != "" {
		if n, err := strconv.ParseInt(max, 10, 64); err == nil && n > 0 {
			cfg.MaxUploadBytes = n
		}
	}
	return cfg
}

// server bundles the engine with its serving dependencies.
type server struct {
	engine   *dii.Engine
	metrics  *monitoring.Metrics
	logger   *monitoring.Logger
	appCache *cache.Cache
}

func setupRouter(cfg serverConfig) (*gin.Engine, *server) {
	s := &server{
		engine:   dii.DefaultEngine(),
		metrics:  monitoring.NewMetrics(),
		logger:   monitoring.NewLogger(),
		appCache: cache.NewCache(cfg.CacheTTL),
	}

	r := gin.New()

	r.Use(monitoring.MonitoringMiddleware(s.metrics, s.logger))
	r.Use(errors.ErrorHandler())
	r.Use(errors.RecoveryHandler())

	securityConfig := security.DefaultSecurityConfig()
	securityConfig.MaxRequestsPerMin = cfg.RateLimitPerMin
	securityConfig.AllowedOrigins = cfg.AllowedOrigins
	securityConfig.MaxBodyBytes = cfg.MaxUploadBytes
	securityMiddleware := security.NewSecurityMiddleware(securityConfig, s.metrics)

	r.Use(securityMiddleware.SecurityHeaders)
	r.Use(securityMiddleware.RequestTimeout)
	r.Use(securityMiddleware.MaxBodySize)
	r.Use(securityMiddleware.RateLimitByIP)

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = securityConfig.AllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	r.Use(cors.New(corsConfig))

	r.Use(middleware.Compression(middleware.DefaultCompressionConfig()))
	r.Use(s.appCache.Middleware(s.metrics, "/score", "/analyze"))

	r.GET("/health", s.handleHealth)
	r.GET("/datasources", s.handleDataSources)
	r.POST("/score", s.handleScore)
	r.POST("/analyze", s.handleAnalyze)
	r.POST("/analyze/csv", s.handleAnalyzeCSV)
	r.GET("/metrics", s.handleMetrics)
	r.GET("/cache/stats", s.handleCacheStats)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r, s
}

func (s *server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
		"metrics":   s.metrics.GetStats(),
	})
}

func (s *server) handleDataSources(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"datasources": s.engine.DataSources()})
}

func (s *server) handleScore(c *gin.Context) {
	start := time.Now()

	var req types.ScoreRequest
	if err := c.BindJSON(&req); err != nil {
		appErr := errors.NewValidationError("invalid request body", err.Error())
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	row := req.IntakeRow()
	total, contributions, err := s.engine.Score(row, req.Source)
	if err != nil {
		appErr := errors.NewUnknownSourceError(err, s.engine.DataSources())
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	classification := dii.Classify(total)
	s.metrics.RecordScore(req.Source)
	s.logger.ScoreLogger(req.Source, len(row), total, string(classification), time.Since(start), c.GetBool("cache_hit"))

	c.JSON(http.StatusOK, types.ScoreResponse{
		Source:         req.Source,
		Total:          total,
		Classification: classification,
		Contributions:  contributions,
	})
}

func (s *server) handleAnalyze(c *gin.Context) {
	start := time.Now()

	var req types.ScoreRequest
	if err := c.BindJSON(&req); err != nil {
		appErr := errors.NewValidationError("invalid request body", err.Error())
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	row := req.IntakeRow()
	total, contributions, err := s.engine.Score(row, req.Source)
	if err != nil {
		appErr := errors.NewUnknownSourceError(err, s.engine.DataSources())
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	report, err := s.engine.Explain(row, total, contributions, req.Source)
	if err != nil {
		appErr := errors.ToAppError(err)
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	s.metrics.RecordScore(req.Source)
	s.logger.ScoreLogger(req.Source, len(row), total, string(report.Classification), time.Since(start), c.GetBool("cache_hit"))

	c.JSON(http.StatusOK, types.AnalyzeResponse{
		ScoreResponse: types.ScoreResponse{
			Source:         req.Source,
			Total:          total,
			Classification: report.Classification,
			Contributions:  contributions,
		},
		Report: report,
	})
}

func (s *server) handleAnalyzeCSV(c *gin.Context) {
	source := c.PostForm("source")
	if source == "" {
		source = c.Query("source")
	}

	mapping, err := s.engine.Mapping(source)
	if err != nil {
		appErr := errors.NewUnknownSourceError(err, s.engine.DataSources())
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		appErr := errors.NewValidationError("missing csv upload", err.Error())
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}
	defer file.Close()

	table, err := ingest.ParseCSV(file)
	if err != nil {
		appErr := errors.NewValidationError("unreadable csv upload", err.Error())
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	recognized, unrecognized := table.SplitColumns(mapping)
	days := table.Normalize()
	s.metrics.AddRowsIngested(len(table.Records))
	s.logger.IngestLogger(source, len(table.Records), len(days), len(recognized), len(unrecognized))

	dayReports := make([]types.DayReport, 0, len(days))
	dayScores := make([]dii.DayScore, 0, len(days))
	for _, day := range days {
		total, contributions, err := s.engine.Score(day.Fields, source)
		if err != nil {
			appErr := errors.ToAppError(err)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}
		report, err := s.engine.Explain(day.Fields, total, contributions, source)
		if err != nil {
			appErr := errors.ToAppError(err)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}
		s.metrics.RecordScore(source)
		dayReports = append(dayReports, types.DayReport{Date: day.Date, Report: report})
		dayScores = append(dayScores, dii.DayScore{Label: day.Date, Total: total, Contributions: contributions})
	}

	avgTotal, avgContributions := dii.Average(dayScores)
	avgReport, err := s.engine.Explain(ingest.AverageRows(days), avgTotal, avgContributions, source)
	if err != nil {
		appErr := errors.ToAppError(err)
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	c.JSON(http.StatusOK, types.CSVAnalysis{
		Source:              source,
		Days:                dayReports,
		Average:             avgReport,
		RecognizedColumns:   recognized,
		UnrecognizedColumns: unrecognized,
	})
}

func (s *server) handleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.metrics.GetStats())
}

func (s *server) handleCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.appCache.Stats())
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := loadConfig()
	r, _ := setupRouter(cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		slog.Info("Starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
