package services

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"retail-eda/internal/analysis"
	"retail-eda/internal/models"
)

// HistogramBins is the bucket count of the amount histogram.
const HistogramBins = 30

// BuildReport derives every view from txs. Each view is computed in its own
// goroutine and writes a distinct field of the report; txs is never modified.
func BuildReport(ctx context.Context, txs []models.Transaction) (*models.Report, error) {
	rep := &models.Report{RecordCount: int64(len(txs))}

	g, ctx := errgroup.WithContext(ctx)
	views := []func(){
		func() { rep.AmountHistogram = amountHistogram(txs) },
		func() { rep.CategoryCounts = categoryCounts(txs) },
		func() { rep.RatingScatter = ratingScatter(txs) },
		func() { rep.MonthlySales = monthlySales(txs) },
		func() { rep.MemberAmounts = memberAmounts(txs) },
		func() { rep.RegionCategory = regionCategory(txs) },
		func() { rep.RatingByCategory = ratingByCategory(txs) },
		func() {
			res, err := memberTTest(txs)
			if err != nil {
				rep.TTestError = err.Error()
				return
			}
			rep.MemberTTest = &res
		},
	}
	for _, view := range views {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			view()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build report: %w", err)
	}
	return rep, nil
}

func amounts(txs []models.Transaction, keep func(models.Transaction) bool) []float64 {
	out := make([]float64, 0, len(txs))
	for _, tx := range txs {
		if keep == nil || keep(tx) {
			out = append(out, float64(tx.TotalAmount))
		}
	}
	return out
}

func amountHistogram(txs []models.Transaction) []models.HistogramBin {
	return analysis.Histogram(amounts(txs, nil), HistogramBins)
}

// categoryCounts orders by count descending, ties in enum order. Categories
// without rows are left out.
func categoryCounts(txs []models.Transaction) []models.CategoryCount {
	counts := make(map[models.Category]int, len(models.Categories))
	for _, tx := range txs {
		counts[tx.ProductCategory]++
	}

	out := make([]models.CategoryCount, 0, len(counts))
	for _, c := range models.Categories {
		if n := counts[c]; n > 0 {
			out = append(out, models.CategoryCount{Category: c, Count: n})
		}
	}
	slices.SortStableFunc(out, func(a, b models.CategoryCount) int {
		return cmp.Compare(b.Count, a.Count)
	})
	return out
}

func ratingScatter(txs []models.Transaction) []models.ScatterPoint {
	out := make([]models.ScatterPoint, len(txs))
	for i, tx := range txs {
		out[i] = models.ScatterPoint{Rating: tx.Rating, TotalAmount: tx.TotalAmount}
	}
	return out
}

// monthlySales sums total_amount per calendar month, ascending. Months
// between the first and last sale with no records are reported as zero.
func monthlySales(txs []models.Transaction) []models.MonthlyData {
	if len(txs) == 0 {
		return []models.MonthlyData{}
	}

	sums := make(map[time.Time]int64)
	var first, last time.Time
	for i, tx := range txs {
		t := tx.TransactionTime.UTC()
		month := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		sums[month] += tx.TotalAmount
		if i == 0 || month.Before(first) {
			first = month
		}
		if i == 0 || month.After(last) {
			last = month
		}
	}

	var out []models.MonthlyData
	for m := first; !m.After(last); m = m.AddDate(0, 1, 0) {
		out = append(out, models.MonthlyData{Month: m.Format("2006-01"), Volume: sums[m]})
	}
	return out
}

func memberAmounts(txs []models.Transaction) []models.BoxSummary {
	out := make([]models.BoxSummary, 0, 2)
	for _, group := range []string{models.NonMemberGroup, models.MemberGroup} {
		values := amounts(txs, func(tx models.Transaction) bool { return tx.MemberLabel() == group })
		if len(values) == 0 {
			continue
		}
		out = append(out, analysis.Summarize(group, values))
	}
	return out
}

// regionCategory counts region x category over the full enum grid, zero
// cells included.
func regionCategory(txs []models.Transaction) models.Crosstab {
	rowIdx := make(map[models.Region]int, len(models.Regions))
	rows := make([]string, len(models.Regions))
	for i, r := range models.Regions {
		rowIdx[r] = i
		rows[i] = string(r)
	}
	colIdx := make(map[models.Category]int, len(models.Categories))
	cols := make([]string, len(models.Categories))
	for j, c := range models.Categories {
		colIdx[c] = j
		cols[j] = string(c)
	}

	counts := make([][]int, len(rows))
	for i := range counts {
		counts[i] = make([]int, len(cols))
	}
	for _, tx := range txs {
		i, okRow := rowIdx[tx.Region]
		j, okCol := colIdx[tx.ProductCategory]
		if okRow && okCol {
			counts[i][j]++
		}
	}

	return models.Crosstab{Rows: rows, Columns: cols, Counts: counts}
}

func ratingByCategory(txs []models.Transaction) []models.BoxSummary {
	groups := make(map[models.Category][]float64, len(models.Categories))
	for _, tx := range txs {
		groups[tx.ProductCategory] = append(groups[tx.ProductCategory], float64(tx.Rating))
	}

	out := make([]models.BoxSummary, 0, len(groups))
	for _, c := range models.Categories {
		if values := groups[c]; len(values) > 0 {
			out = append(out, analysis.Summarize(string(c), values))
		}
	}
	return out
}

func memberTTest(txs []models.Transaction) (models.TTestResult, error) {
	members := amounts(txs, func(tx models.Transaction) bool { return tx.IsMember })
	others := amounts(txs, func(tx models.Transaction) bool { return !tx.IsMember })
	return analysis.WelchTTest(members, others, analysis.Alpha)
}
