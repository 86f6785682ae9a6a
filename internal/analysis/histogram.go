// Package analysis holds the statistical primitives behind the report views.
package analysis

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"retail-eda/internal/models"
)

// Histogram splits values into bins equal-width buckets spanning [min, max].
// The upper edge is inclusive. A single distinct value yields one bin of
// width 1 centred on it.
func Histogram(values []float64, bins int) []models.HistogramBin {
	if len(values) == 0 || bins <= 0 {
		return nil
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)
	lo, hi := sorted[0], sorted[len(sorted)-1]

	if lo == hi {
		return []models.HistogramBin{{Lower: lo - 0.5, Upper: hi + 0.5, Count: len(sorted)}}
	}

	dividers := make([]float64, bins+1)
	floats.Span(dividers, lo, hi)
	// stat.Histogram treats the last divider as exclusive.
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	counts := stat.Histogram(nil, dividers, sorted, nil)

	out := make([]models.HistogramBin, bins)
	for i := range out {
		out[i] = models.HistogramBin{
			Lower: dividers[i],
			Upper: dividers[i+1],
			Count: int(counts[i]),
		}
	}
	out[bins-1].Upper = hi
	return out
}
