package server

import (
	"log/slog"
	"net/http"

	"retail-eda/internal/handlers"
	"retail-eda/internal/observability"
	"retail-eda/internal/services"
)

// views lists the report endpoints served under both /api and /sse.
var views = []string{
	"transactions",
	"amount-histogram",
	"category-counts",
	"rating-scatter",
	"monthly-sales",
	"member-amounts",
	"region-category",
	"rating-by-category",
	"member-ttest",
}

type Server struct {
	analytics   *services.Analytics
	mux         *http.ServeMux
	logger      *slog.Logger
	metrics     *observability.Metrics
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

// NewServer wires every route. metrics may be nil, in which case /metrics is
// not served.
func NewServer(analytics *services.Analytics, logger *slog.Logger, metrics *observability.Metrics, templateHandlers *TemplateHandlers) *Server {
	s := &Server{
		analytics:   analytics,
		mux:         http.NewServeMux(),
		logger:      logger,
		metrics:     metrics,
		apiHandlers: handlers.NewAPIHandlers(analytics, logger),
		sseHandlers: handlers.NewSSEHandlers(analytics, logger),
	}
	s.setupRoutes(templateHandlers)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	// Dashboard and operations
	s.mux.HandleFunc("GET /{$}", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}

	api := map[string]http.HandlerFunc{
		"transactions":       s.apiHandlers.HandleTransactions,
		"amount-histogram":   s.apiHandlers.HandleAmountHistogram,
		"category-counts":    s.apiHandlers.HandleCategoryCounts,
		"rating-scatter":     s.apiHandlers.HandleRatingScatter,
		"monthly-sales":      s.apiHandlers.HandleMonthlySales,
		"member-amounts":     s.apiHandlers.HandleMemberAmounts,
		"region-category":    s.apiHandlers.HandleRegionCategory,
		"rating-by-category": s.apiHandlers.HandleRatingByCategory,
		"member-ttest":       s.apiHandlers.HandleMemberTTest,
	}
	sse := map[string]http.HandlerFunc{
		"transactions":       s.sseHandlers.HandleTransactions,
		"amount-histogram":   s.sseHandlers.HandleAmountHistogram,
		"category-counts":    s.sseHandlers.HandleCategoryCounts,
		"rating-scatter":     s.sseHandlers.HandleRatingScatter,
		"monthly-sales":      s.sseHandlers.HandleMonthlySales,
		"member-amounts":     s.sseHandlers.HandleMemberAmounts,
		"region-category":    s.sseHandlers.HandleRegionCategory,
		"rating-by-category": s.sseHandlers.HandleRatingByCategory,
		"member-ttest":       s.sseHandlers.HandleMemberTTest,
	}

	// REST API endpoints
	for _, view := range views {
		s.mux.HandleFunc("GET /api/"+view, api[view])
	}
	s.mux.HandleFunc("GET /charts/{id}", s.apiHandlers.HandleChart)

	// Datastar SSE endpoints
	for _, view := range views {
		s.mux.HandleFunc("GET /sse/"+view, sse[view])
	}
	s.mux.HandleFunc("GET /sse/refresh-all", s.sseHandlers.HandleRefreshAll)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
