// Package main is the entrypoint for the VitaLink API server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/vitalink/vitalink/internal/auth"
	"github.com/vitalink/vitalink/internal/cache"
	"github.com/vitalink/vitalink/internal/config"
	"github.com/vitalink/vitalink/internal/handler"
	"github.com/vitalink/vitalink/internal/ingest"
	"github.com/vitalink/vitalink/internal/metrics"
	"github.com/vitalink/vitalink/internal/middleware"
	"github.com/vitalink/vitalink/internal/repository"
	"github.com/vitalink/vitalink/internal/server"
	"github.com/vitalink/vitalink/internal/service"
)

func main() {
	// Initialize context
	ctx := context.Background()

	// Load .env if present; real environment always wins
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	// Initialize cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	// Initialize services
	metricsRecorder := metrics.NewPrometheus()
	tokenIssuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL)
	adminService := service.NewAdminService(repo, tokenIssuer, logger, metricsRecorder)
	summaryService := service.NewSummaryService(repo, metricsRecorder)
	overviewService := service.NewOverviewService(repo)

	// Ingest pipeline: endpoint publishes to the Redis stream, worker
	// maintains the raw and rollup tiers.
	publisher := ingest.NewPublisher(cacheClient.Client(), logger, metricsRecorder)
	worker := ingest.NewWorker(cacheClient.Client(), repo, logger, ingest.NewConsumerID(), metricsRecorder)

	// Initialize handlers
	h := handler.New()
	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	adminHandler := handler.NewAdminHandler(adminService, repo, logger)
	summaryHandler := handler.NewSummaryHandler(summaryService, overviewService, logger)
	eventHandler := handler.NewEventHandler(repo, logger, metricsRecorder)
	ingestHandler := handler.NewIngestHandler(publisher, logger)

	// Setup router
	r := setupRouter(h, healthHandler, adminHandler, summaryHandler, eventHandler,
		ingestHandler, tokenIssuer, metricsRecorder, cacheClient, cfg, logger)

	// Create and run server
	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	// The worker drains after the HTTP server stops accepting uploads.
	workerCtx, workerCancel := context.WithCancel(ctx)
	defer workerCancel()
	go func() {
		if err := worker.Run(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("ingest worker stopped", "error", err)
		}
	}()
	srv.OnShutdown("ingest worker", worker.Shutdown)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"base_url", cfg.BaseURL,
		"bp_base_url", cfg.BPBaseURL,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(
	h *handler.Handler,
	healthHandler *handler.HealthHandler,
	adminHandler *handler.AdminHandler,
	summaryHandler *handler.SummaryHandler,
	eventHandler *handler.EventHandler,
	ingestHandler *handler.IngestHandler,
	tokenIssuer *auth.TokenIssuer,
	metricsRecorder *metrics.PrometheusRecorder,
	cacheClient *cache.Cache,
	cfg *config.Config,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.DefaultSecurityConfig()))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()
	r.Use(middleware.CORS(corsCfg))

	// Health endpoints (no auth required)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	r.Method("GET", "/metrics", metricsRecorder.Handler())

	// Root info endpoint
	r.Get("/", h.Hello)

	// Rate limit middleware configuration
	rateLimitCfg := middleware.RateLimitConfig{
		Logger:       logger,
		Cache:        cacheClient,
		LoginEnabled: cfg.RateLimitLoginEnabled,
		LoginRPS:     cfg.RateLimitLoginRPS,
		LoginBurst:   cfg.RateLimitLoginBurst,
	}

	// Device sample uploads feed the async rollup pipeline
	r.Route("/ingest", func(r chi.Router) {
		r.Post("/steps-events", ingestHandler.StepsEvents)
		r.Post("/hr-samples", ingestHandler.HeartRateSamples)
		r.Post("/spo2-samples", ingestHandler.SpO2Samples)
	})

	r.Route("/api", func(r chi.Router) {
		// Health-event capture endpoints used by the mobile/BP pipeline
		r.Post("/add-manual-event", eventHandler.AddManualEvent)
		r.Get("/health-events", eventHandler.ListHealthEvents)

		r.Route("/admin", func(r chi.Router) {
			r.With(middleware.RateLimitLogin(rateLimitCfg)).Post("/login", adminHandler.Login)

			// Privileged routes require a session token
			r.Group(func(r chi.Router) {
				r.Use(middleware.AdminAuth(tokenIssuer))
				r.Get("/patients", adminHandler.ListPatients)
				r.Get("/patients/{patientID}/metrics", summaryHandler.Metrics)
				r.Get("/summary", summaryHandler.Overview)
			})
		})
	})

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
