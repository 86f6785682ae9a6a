package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"retail-eda/internal/config"
	"retail-eda/internal/models"
)

func testConfig(t *testing.T, seed uint64) *config.Config {
	t.Helper()
	return &config.Config{
		Dataset: config.DatasetConfig{Seed: seed},
		Report:  config.ReportConfig{OutputDir: filepath.Join(t.TempDir(), "charts")},
	}
}

func TestRun(t *testing.T) {
	cfg := testConfig(t, 42)
	var out bytes.Buffer

	err := run(context.Background(), &out, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	text := out.String()
	require.Contains(t, text, "First 5 rows:")
	require.Contains(t, text, "order_id")
	require.Contains(t, text, "1005")
	require.Contains(t, text, "P-Value: ")
	require.Contains(t, text, "reject H0.")

	for _, c := range models.Charts {
		path := filepath.Join(cfg.Report.OutputDir, c.ID+".png")
		require.FileExists(t, path)
		require.Contains(t, text, c.Title+": "+path)
	}
}

func TestRun_Deterministic(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var first, second bytes.Buffer
	require.NoError(t, run(context.Background(), &first, testConfig(t, 7), logger))
	require.NoError(t, run(context.Background(), &second, testConfig(t, 7), logger))

	preview := func(s string) string {
		head, _, _ := strings.Cut(s, "\n\n")
		return head
	}
	require.Equal(t, preview(first.String()), preview(second.String()))
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := run(ctx, io.Discard, testConfig(t, 1), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.ErrorIs(t, err, context.Canceled)
}
