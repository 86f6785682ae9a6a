package handlers

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/starfederation/datastar-go/datastar"

	"retail-eda/internal/analysis"
	"retail-eda/internal/models"
	"retail-eda/internal/services"
)

const previewRows = 5

var funcs = template.FuncMap{
	"rupiah": formatRupiah,
	"heat": func(n, peak int) string {
		if peak == 0 {
			return "0.00"
		}
		return fmt.Sprintf("%.2f", float64(n)/float64(peak))
	},
}

var previewTemplate = template.Must(template.New("preview").Funcs(funcs).Parse(`
<div id="preview-content">
<table class="modern-table">
<thead><tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr>
<td>{{.OrderID}}</td>
<td>{{.TransactionTime.Format "2006-01-02 15:04"}}</td>
<td><span class="category-badge">{{.ProductCategory}}</span></td>
<td>{{.Region}}</td>
<td>{{.PaymentMethod}}</td>
<td>{{.IsMember}}</td>
<td>{{.ItemCount}}</td>
<td>{{.Rating}}</td>
<td><strong>{{rupiah .TotalAmount}}</strong></td>
</tr>{{else}}<tr><td colspan="{{len .Columns}}">No transactions</td></tr>{{end}}
</tbody>
</table>
</div>`))

var crosstabTemplate = template.Must(template.New("crosstab").Funcs(funcs).Parse(`
<div id="crosstab-content">
<table class="modern-table heatmap">
<thead><tr><th>Region</th>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{range $i, $row := .Rows}}<tr>
<th>{{$row}}</th>{{range index $.Counts $i}}<td style="--heat: {{heat . $.Peak}}">{{.}}</td>{{end}}
</tr>{{end}}
</tbody>
</table>
</div>`))

var ttestTemplate = template.Must(template.New("ttest").Parse(`
<div id="ttest-content">
{{if .Result}}<dl class="ttest">
<dt>P-Value</dt><dd>{{printf "%.6g" .Result.PValue}}</dd>
<dt>t statistic</dt><dd>{{printf "%.4f" .Result.Statistic}}</dd>
<dt>Degrees of freedom</dt><dd>{{printf "%.2f" .Result.DegreesOfFreedom}}</dd>
<dt>Members / non-members</dt><dd>{{.Result.MemberCount}} / {{.Result.NonMemberCount}}</dd>
</dl>
<p class="verdict {{if .Result.Significant}}significant{{end}}">{{.Verdict}}</p>
{{else}}<p class="verdict unavailable">T-test unavailable: {{.Reason}}</p>{{end}}
</div>`))

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

func verdict(res *models.TTestResult) string {
	return analysis.Verdict(*res)
}

// formatRupiah groups thousands with dots, e.g. 1.350.000.
func formatRupiah(v int64) string {
	s := fmt.Sprint(v)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var b strings.Builder
	b.WriteString("Rp ")
	if neg {
		b.WriteByte('-')
	}
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (h *SSEHandlers) renderPreview(rows []models.Transaction) (string, error) {
	var buf strings.Builder
	err := previewTemplate.Execute(&buf, map[string]any{
		"Columns": models.Columns,
		"Rows":    rows,
	})
	return buf.String(), err
}

func (h *SSEHandlers) renderCrosstab(ct models.Crosstab) (string, error) {
	var buf strings.Builder
	err := crosstabTemplate.Execute(&buf, map[string]any{
		"Rows":    ct.Rows,
		"Columns": ct.Columns,
		"Counts":  ct.Counts,
		"Peak":    ct.Max(),
	})
	return buf.String(), err
}

func (h *SSEHandlers) renderTTest() (string, error) {
	res, reason := h.analytics.MemberTTest()
	data := map[string]any{"Result": res, "Reason": reason}
	if res != nil {
		data["Verdict"] = verdict(res)
	}

	var buf strings.Builder
	err := ttestTemplate.Execute(&buf, data)
	return buf.String(), err
}

// patchSignals marshals signals and pushes them, logging instead of failing:
// the stream has already started once this runs.
func (h *SSEHandlers) patchSignals(sse *datastar.ServerSentEventGenerator, signals map[string]any) {
	payload, err := json.Marshal(signals)
	if err != nil {
		h.logger.Error("marshal signals", "error", err)
		return
	}
	if err := sse.PatchSignals(payload); err != nil {
		h.logger.Warn("patch signals", "error", err)
	}
}

func (h *SSEHandlers) patchElements(sse *datastar.ServerSentEventGenerator, name string, render func() (string, error)) {
	html, err := render()
	if err != nil {
		h.logger.Error("render fragment", "fragment", name, "error", err)
		return
	}
	if err := sse.PatchElements(html); err != nil {
		h.logger.Warn("patch elements", "fragment", name, "error", err)
	}
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleTransactions(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	h.patchElements(sse, "preview", func() (string, error) {
		return h.renderPreview(h.analytics.Head(previewRows))
	})
	flush(w)
}

func (h *SSEHandlers) HandleAmountHistogram(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	h.patchSignals(sse, map[string]any{"histogramData": h.analytics.AmountHistogram()})
	flush(w)
}

func (h *SSEHandlers) HandleCategoryCounts(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	h.patchSignals(sse, map[string]any{"categoryData": h.analytics.CategoryCounts()})
	flush(w)
}

func (h *SSEHandlers) HandleRatingScatter(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	h.patchSignals(sse, map[string]any{"scatterData": h.analytics.RatingScatter()})
	flush(w)
}

func (h *SSEHandlers) HandleMonthlySales(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	h.patchSignals(sse, map[string]any{"monthlyData": h.analytics.MonthlySales()})
	flush(w)
}

func (h *SSEHandlers) HandleMemberAmounts(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	h.patchSignals(sse, map[string]any{"memberData": h.analytics.MemberAmounts()})
	flush(w)
}

func (h *SSEHandlers) HandleRegionCategory(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	h.patchElements(sse, "crosstab", func() (string, error) {
		return h.renderCrosstab(h.analytics.RegionCategory())
	})
	flush(w)
}

func (h *SSEHandlers) HandleRatingByCategory(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	h.patchSignals(sse, map[string]any{"ratingData": h.analytics.RatingByCategory()})
	flush(w)
}

func (h *SSEHandlers) HandleMemberTTest(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	h.patchElements(sse, "ttest", h.renderTTest)
	flush(w)
}

// HandleRefreshAll pushes every dashboard fragment and the header signals.
// Per-view data signals are only sent by the individual view streams.
func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	h.patchElements(sse, "preview", func() (string, error) {
		return h.renderPreview(h.analytics.Head(previewRows))
	})
	h.patchElements(sse, "crosstab", func() (string, error) {
		return h.renderCrosstab(h.analytics.RegionCategory())
	})
	h.patchElements(sse, "ttest", h.renderTTest)

	// The seed is sent as a string: a uint64 overflows a JS number.
	rep := h.analytics.Report()
	h.patchSignals(sse, map[string]any{
		"recordCount": rep.RecordCount,
		"seed":        strconv.FormatUint(rep.Seed, 10),
		"generatedAt": rep.GeneratedAt.Format(time.RFC3339),
	})
	flush(w)
}
