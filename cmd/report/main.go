package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"retail-eda/internal/analysis"
	"retail-eda/internal/charts"
	"retail-eda/internal/config"
	"retail-eda/internal/models"
	"retail-eda/internal/observability"
	"retail-eda/internal/services"
	"retail-eda/internal/table"
)

const (
	previewRows   = 5
	reportTimeout = 2 * time.Minute
)

// run generates the dataset and writes the console report to w. Charts land
// in cfg.Report.OutputDir.
func run(ctx context.Context, w io.Writer, cfg *config.Config, logger *slog.Logger) error {
	metrics := observability.NewMetrics()
	analytics := services.NewAnalytics(
		services.WithLogger(logger),
		services.WithMetrics(metrics),
	)
	defer analytics.Close()

	seed, err := analytics.Generate(ctx, cfg.Dataset.Seed)
	if err != nil {
		return fmt.Errorf("generate dataset: %w", err)
	}
	logger.Info("dataset ready", "seed", seed)

	fmt.Fprintf(w, "First %d rows:\n", previewRows)
	rec := analytics.Table()
	err = table.WritePreview(w, rec, previewRows)
	rec.Release()
	if err != nil {
		return fmt.Errorf("write preview: %w", err)
	}
	fmt.Fprintln(w)

	rep := analytics.Report()
	renderer := charts.NewRenderer(cfg.Report.OutputDir, logger, metrics)
	paths, err := renderer.RenderAll(ctx, analytics.Transactions(), &rep)
	if err != nil {
		return fmt.Errorf("render charts: %w", err)
	}
	for i, path := range paths {
		fmt.Fprintf(w, "%s: %s\n", models.Charts[i].Title, path)
	}
	fmt.Fprintln(w)

	res, reason := analytics.MemberTTest()
	if res == nil {
		fmt.Fprintf(w, "T-test unavailable: %s\n", reason)
		return nil
	}
	fmt.Fprintf(w, "P-Value: %v\n", res.PValue)
	fmt.Fprintln(w, analysis.Verdict(*res))
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLoggerTo(os.Stderr, cfg.Logger)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()

	if err := run(ctx, os.Stdout, cfg, logger); err != nil {
		logger.Error("report failed", "error", err)
		cancel()
		os.Exit(1)
	}
}
