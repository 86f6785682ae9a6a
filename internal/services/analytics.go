package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"retail-eda/internal/models"
	"retail-eda/internal/observability"
	"retail-eda/internal/synth"
	"retail-eda/internal/table"
)

// Analytics owns the transaction table of the process and the report derived
// from it. Readers see either the previous or the next dataset, never a mix.
type Analytics struct {
	mu     sync.RWMutex
	txs    []models.Transaction
	record arrow.Record
	report *models.Report

	generations atomic.Int64

	mem     memory.Allocator
	logger  *slog.Logger
	metrics *observability.Metrics
}

type Option func(*Analytics)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Analytics) { a.logger = logger }
}

func WithMetrics(m *observability.Metrics) Option {
	return func(a *Analytics) { a.metrics = m }
}

func WithAllocator(mem memory.Allocator) Option {
	return func(a *Analytics) { a.mem = mem }
}

func NewAnalytics(opts ...Option) *Analytics {
	a := &Analytics{
		report: &models.Report{},
		mem:    memory.DefaultAllocator,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Generate synthesizes a fresh dataset of synth.DefaultRows records and
// publishes its report. A zero seed is replaced by a random one, which is
// returned and logged so the run can be reproduced.
func (a *Analytics) Generate(ctx context.Context, seed uint64) (uint64, error) {
	ctx, span := observability.StartSpan(ctx, "dataset.generate")
	defer span.Finish(a.logger)

	if seed == 0 {
		seed = rand.Uint64()
		a.logger.Info("no dataset seed configured, picked one", "seed", seed)
	}
	span.SetTag("seed", strconv.FormatUint(seed, 10))

	start := time.Now()
	txs, err := synth.Generate(synth.NewRand(seed), synth.DefaultRows)
	if err != nil {
		span.SetError(err)
		return seed, fmt.Errorf("generate dataset: %w", err)
	}

	if err := a.publish(ctx, txs, seed); err != nil {
		span.SetError(err)
		return seed, err
	}

	duration := time.Since(start)
	if a.metrics != nil {
		a.metrics.ObserveGeneration(len(txs), duration)
	}
	a.logger.Info("dataset generated",
		"records", len(txs),
		"seed", seed,
		"duration", duration,
		"rate", fmt.Sprintf("%.0f records/sec", float64(len(txs))/duration.Seconds()))

	return seed, nil
}

// SetData publishes a caller-supplied dataset. txs must not be modified
// afterwards.
func (a *Analytics) SetData(txs []models.Transaction) error {
	return a.publish(context.Background(), txs, 0)
}

func (a *Analytics) publish(ctx context.Context, txs []models.Transaction, seed uint64) error {
	ctx, span := observability.StartSpan(ctx, "report.build")
	defer span.Finish(a.logger)

	rep, err := BuildReport(ctx, txs)
	if err != nil {
		span.SetError(err)
		return err
	}
	rep.Seed = seed
	rep.GeneratedAt = time.Now().UTC()

	rec := table.Build(a.mem, txs)

	a.mu.Lock()
	old := a.record
	a.txs = txs
	a.record = rec
	a.report = rep
	a.mu.Unlock()

	if old != nil {
		old.Release()
	}
	a.generations.Add(1)

	if rep.TTestError != "" {
		a.logger.Warn("member t-test unavailable", "reason", rep.TTestError)
	}
	return nil
}

func (a *Analytics) AmountHistogram() []models.HistogramBin {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.report.AmountHistogram
}

func (a *Analytics) CategoryCounts() []models.CategoryCount {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.report.CategoryCounts
}

func (a *Analytics) RatingScatter() []models.ScatterPoint {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.report.RatingScatter
}

func (a *Analytics) MonthlySales() []models.MonthlyData {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.report.MonthlySales
}

func (a *Analytics) MemberAmounts() []models.BoxSummary {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.report.MemberAmounts
}

func (a *Analytics) RegionCategory() models.Crosstab {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.report.RegionCategory
}

func (a *Analytics) RatingByCategory() []models.BoxSummary {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.report.RatingByCategory
}

// MemberTTest returns the test result, or nil and the reason it could not be
// computed.
func (a *Analytics) MemberTTest() (*models.TTestResult, string) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.report.MemberTTest == nil {
		reason := a.report.TTestError
		if reason == "" {
			reason = "no dataset loaded"
		}
		return nil, reason
	}
	res := *a.report.MemberTTest
	return &res, ""
}

// Report returns a shallow copy of the published report.
func (a *Analytics) Report() models.Report {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return *a.report
}

// Head returns up to n records in order_id order.
func (a *Analytics) Head(n int) []models.Transaction {
	a.mu.RLock()
	defer a.mu.RUnlock()
	n = max(0, min(n, len(a.txs)))
	return a.txs[:n:n]
}

// Transactions returns the published records. The slice is shared and must
// be treated as read-only.
func (a *Analytics) Transactions() []models.Transaction {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.txs
}

// Table returns the columnar table with an extra reference, or nil before
// the first dataset. The caller must Release it.
func (a *Analytics) Table() arrow.Record {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.record == nil {
		return nil
	}
	a.record.Retain()
	return a.record
}

// Close drops the table.
func (a *Analytics) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.record != nil {
		a.record.Release()
		a.record = nil
	}
}

// Stats is used by the admin endpoint.
func (a *Analytics) Stats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return map[string]any{
		"record_count":    a.report.RecordCount,
		"seed":            a.report.Seed,
		"generated_at":    a.report.GeneratedAt,
		"generations":     a.generations.Load(),
		"categories":      len(a.report.CategoryCounts),
		"months":          len(a.report.MonthlySales),
		"histogram_bins":  len(a.report.AmountHistogram),
		"ttest_available": a.report.MemberTTest != nil,
	}
}
