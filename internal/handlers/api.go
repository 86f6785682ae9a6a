package handlers

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"retail-eda/internal/charts"
	"retail-eda/internal/errors"
	"retail-eda/internal/models"
	"retail-eda/internal/observability"
	"retail-eda/internal/services"
	"retail-eda/internal/synth"
)

const (
	defaultTransactionLimit = 5
	cacheControl            = "public, max-age=300"
)

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

func (h *APIHandlers) writeCached(w http.ResponseWriter, r *http.Request, data any) {
	w.Header().Set("Cache-Control", cacheControl)
	if err := errors.WriteSuccess(w, data); err != nil {
		h.logger.Error("encode response", "error", err, "path", r.URL.Path,
			"request_id", observability.GetRequestID(r.Context()))
	}
}

// HandleTransactions serves the first rows of the table. limit defaults to 5
// and must lie in [1, synth.DefaultRows].
func (h *APIHandlers) HandleTransactions(w http.ResponseWriter, r *http.Request) {
	limit := defaultTransactionLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > synth.DefaultRows {
			errors.WriteError(w, h.logger,
				errors.BadRequest(fmt.Sprintf("limit must be an integer between 1 and %d", synth.DefaultRows)),
				observability.GetRequestID(r.Context()))
			return
		}
		limit = n
	}

	h.writeCached(w, r, h.analytics.Head(limit))
}

func (h *APIHandlers) HandleAmountHistogram(w http.ResponseWriter, r *http.Request) {
	h.writeCached(w, r, h.analytics.AmountHistogram())
}

func (h *APIHandlers) HandleCategoryCounts(w http.ResponseWriter, r *http.Request) {
	h.writeCached(w, r, h.analytics.CategoryCounts())
}

func (h *APIHandlers) HandleRatingScatter(w http.ResponseWriter, r *http.Request) {
	h.writeCached(w, r, h.analytics.RatingScatter())
}

func (h *APIHandlers) HandleMonthlySales(w http.ResponseWriter, r *http.Request) {
	h.writeCached(w, r, h.analytics.MonthlySales())
}

func (h *APIHandlers) HandleMemberAmounts(w http.ResponseWriter, r *http.Request) {
	h.writeCached(w, r, h.analytics.MemberAmounts())
}

func (h *APIHandlers) HandleRegionCategory(w http.ResponseWriter, r *http.Request) {
	h.writeCached(w, r, h.analytics.RegionCategory())
}

func (h *APIHandlers) HandleRatingByCategory(w http.ResponseWriter, r *http.Request) {
	h.writeCached(w, r, h.analytics.RatingByCategory())
}

// HandleMemberTTest answers 422 when the current table cannot support the
// test.
func (h *APIHandlers) HandleMemberTTest(w http.ResponseWriter, r *http.Request) {
	res, reason := h.analytics.MemberTTest()
	if res == nil {
		errors.WriteError(w, h.logger, errors.InsufficientData(fmt.Errorf("%s", reason)),
			observability.GetRequestID(r.Context()))
		return
	}

	h.writeCached(w, r, struct {
		*models.TTestResult
		Verdict string `json:"verdict"`
	}{res, verdict(res)})
}

// HandleChart renders one chart as PNG. The image is encoded into a buffer
// first so failures still produce a JSON error.
func (h *APIHandlers) HandleChart(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	requestID := observability.GetRequestID(r.Context())

	if _, ok := models.ChartByID(id); !ok {
		errors.WriteError(w, h.logger, errors.NotFound(fmt.Sprintf("unknown chart %q", id)), requestID)
		return
	}

	rep := h.analytics.Report()
	var buf bytes.Buffer
	if err := charts.WritePNG(&buf, id, h.analytics.Transactions(), &rep); err != nil {
		errors.WriteError(w, h.logger, errors.InternalWrap(err, "Failed to render chart"), requestID)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", cacheControl)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Warn("write chart", "chart", id, "error", err, "request_id", requestID)
	}
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
		"records":   h.analytics.Report().RecordCount,
	}

	_ = errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	_ = errors.WriteSuccess(w, h.analytics.Stats())
}
