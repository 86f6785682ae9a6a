// Package synth builds the synthetic retail transaction table.
package synth

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"retail-eda/internal/models"
)

const (
	DefaultRows       = 500
	FirstOrderID      = 1001
	MemberProbability = 0.6
	MaxItemCount      = 5
	MaxRating         = 5

	daysInYear  = 365
	hoursPerDay = 24
)

var ErrNegativeRows = errors.New("row count must not be negative")

var yearStart = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

var (
	categoryWeights = []float64{0.30, 0.25, 0.20, 0.15, 0.10}
	regionWeights   = []float64{0.40, 0.20, 0.20, 0.10, 0.10}
)

// CategoryWeight returns the sampling weight of a category.
func CategoryWeight(category models.Category) float64 {
	for i, c := range models.Categories {
		if c == category {
			return categoryWeights[i]
		}
	}
	return 0
}

// NewRand returns the seeded generator threaded through Generate.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Generate synthesizes n transactions with sequential order ids starting
// at FirstOrderID. Every field is sampled independently; total_amount is
// derived from category, item count, membership and a fresh variation.
func Generate(rng *rand.Rand, n int) ([]models.Transaction, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeRows, n)
	}

	txs := make([]models.Transaction, 0, n)
	for i := range n {
		tx := models.Transaction{
			OrderID: int64(FirstOrderID + i),
			TransactionTime: yearStart.
				AddDate(0, 0, rng.IntN(daysInYear)).
				Add(time.Duration(rng.IntN(hoursPerDay)) * time.Hour),
			ProductCategory: pick(rng, models.Categories, categoryWeights),
			Region:          pick(rng, models.Regions, regionWeights),
			PaymentMethod:   models.PaymentMethods[rng.IntN(len(models.PaymentMethods))],
			ItemCount:       rng.IntN(MaxItemCount) + 1,
			IsMember:        rng.Float64() < MemberProbability,
			Rating:          rng.IntN(MaxRating) + 1,
			Variation:       MinVariation + rng.Float64()*(MaxVariation-MinVariation),
		}

		total, err := TotalAmount(tx.ProductCategory, tx.ItemCount, tx.IsMember, tx.Variation)
		if err != nil {
			return nil, fmt.Errorf("order %d: %w", tx.OrderID, err)
		}
		tx.TotalAmount = total

		txs = append(txs, tx)
	}

	return txs, nil
}

// pick draws one element of choices with the given weights. Weights are
// expected to sum to 1; any remainder falls to the last choice.
func pick[T any](rng *rand.Rand, choices []T, weights []float64) T {
	r := rng.Float64()
	var cumulative float64
	for i, w := range weights {
		cumulative += w
		if r < cumulative {
			return choices[i]
		}
	}
	return choices[len(choices)-1]
}
