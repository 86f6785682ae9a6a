package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"retail-eda/internal/config"
	"retail-eda/internal/middleware"
	"retail-eda/internal/observability"
	"retail-eda/internal/server"
	"retail-eda/internal/services"
	"retail-eda/internal/ui/templates"
)

const (
	renderTimeout   = 10 * time.Second
	generateTimeout = 30 * time.Second
	cacheMaxAge     = "public, max-age=300"
)

func handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", cacheMaxAge)
	if err := templates.Dashboard().Render(ctx, w); err != nil {
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}

// newHandler wraps srv in the middleware stack. Metrics sits innermost so it
// sees the route pattern the mux records on the request.
func newHandler(cfg *config.Config, srv http.Handler, logger *slog.Logger, metrics *observability.Metrics) http.Handler {
	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	return middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
		middleware.Metrics(metrics),
	)(srv)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"addr", cfg.Address(),
		"log_level", cfg.Logger.Level,
	)

	metrics := observability.NewMetrics()
	analytics := services.NewAnalytics(
		services.WithLogger(logger),
		services.WithMetrics(metrics),
	)

	ctx, cancel := context.WithTimeout(context.Background(), generateTimeout)
	seed, err := analytics.Generate(ctx, cfg.Dataset.Seed)
	cancel()
	if err != nil {
		logger.Error("failed to generate dataset", "error", err)
		os.Exit(1)
	}
	logger.Info("dataset ready", "seed", seed)

	templateHandlers := &server.TemplateHandlers{
		Dashboard: handleDashboard,
	}
	srv := server.NewServer(analytics, logger, metrics, templateHandlers)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newHandler(cfg, srv, logger, metrics),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)
	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("releasing transaction table")
		analytics.Close()
		return nil
	})

	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
