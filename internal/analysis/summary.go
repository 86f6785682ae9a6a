package analysis

import (
	"math"
	"slices"

	"github.com/montanaflynn/stats"

	"retail-eda/internal/models"
)

// Summarize computes the five-number summary and mean of values. Quartiles
// interpolate linearly between closest ranks, so Q1 of {1,3,5,7,9,11} is
// 3.5. An empty slice yields a summary with only the group name set.
func Summarize(group string, values []float64) models.BoxSummary {
	s := models.BoxSummary{Group: group, Count: len(values)}
	if len(values) == 0 {
		return s
	}

	data := stats.Float64Data(values)
	s.Min, _ = stats.Min(data)
	s.Max, _ = stats.Max(data)
	s.Mean, _ = stats.Mean(data)
	s.Median, _ = stats.Median(data)

	sorted := slices.Clone(values)
	slices.Sort(sorted)
	s.Q1 = Quantile(sorted, 0.25)
	s.Q3 = Quantile(sorted, 0.75)
	return s
}

// Quantile returns the p-quantile of sorted by linear interpolation between
// the values at ranks floor(h) and ceil(h), h = (n-1)p. sorted must be
// ascending and non-empty.
func Quantile(sorted []float64, p float64) float64 {
	h := float64(len(sorted)-1) * p
	lo := math.Floor(h)
	i := int(lo)
	if i+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}
