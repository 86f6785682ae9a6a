package synth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"retail-eda/internal/models"
)

func generate(t *testing.T, seed uint64, n int) []models.Transaction {
	t.Helper()
	txs, err := Generate(NewRand(seed), n)
	require.NoError(t, err)
	require.Len(t, txs, n)
	return txs
}

func TestGenerate_FieldDomains(t *testing.T) {
	txs := generate(t, 7, DefaultRows)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, tx := range txs {
		require.False(t, tx.TransactionTime.Before(start), "order %d before 2024", tx.OrderID)
		require.True(t, tx.TransactionTime.Before(end), "order %d after 2024", tx.OrderID)
		require.Zero(t, tx.TransactionTime.Minute())

		require.Contains(t, models.Categories, tx.ProductCategory)
		require.Contains(t, models.Regions, tx.Region)
		require.Contains(t, models.PaymentMethods, tx.PaymentMethod)

		require.GreaterOrEqual(t, tx.ItemCount, 1)
		require.LessOrEqual(t, tx.ItemCount, MaxItemCount)
		require.GreaterOrEqual(t, tx.Rating, 1)
		require.LessOrEqual(t, tx.Rating, MaxRating)

		require.GreaterOrEqual(t, tx.Variation, MinVariation)
		require.Less(t, tx.Variation, MaxVariation)
		require.GreaterOrEqual(t, tx.TotalAmount, int64(0))
	}
}

func TestGenerate_OrderIDsContiguous(t *testing.T) {
	txs := generate(t, 11, DefaultRows)

	seen := make(map[int64]bool, len(txs))
	for i, tx := range txs {
		require.Equal(t, int64(FirstOrderID+i), tx.OrderID)
		require.False(t, seen[tx.OrderID], "duplicate order id %d", tx.OrderID)
		seen[tx.OrderID] = true
	}
}

func TestGenerate_MemberTotalsBounded(t *testing.T) {
	txs := generate(t, 3, 5_000)

	for _, tx := range txs {
		if !tx.IsMember {
			continue
		}
		price, ok := BasePrice(tx.ProductCategory)
		require.True(t, ok)
		bound := float64(price) * float64(tx.ItemCount) * MaxVariation
		require.LessOrEqual(t, float64(tx.TotalAmount), bound)
	}
}

func TestGenerate_DerivationIsReproducible(t *testing.T) {
	txs := generate(t, 99, DefaultRows)

	for _, tx := range txs {
		got, err := TotalAmount(tx.ProductCategory, tx.ItemCount, tx.IsMember, tx.Variation)
		require.NoError(t, err)
		require.Equal(t, tx.TotalAmount, got, "order %d", tx.OrderID)
	}
}

func TestGenerate_CategoryFrequenciesConverge(t *testing.T) {
	const n = 100_000
	txs := generate(t, 2024, n)

	counts := make(map[models.Category]int)
	members := 0
	for _, tx := range txs {
		counts[tx.ProductCategory]++
		if tx.IsMember {
			members++
		}
	}

	for _, c := range models.Categories {
		freq := float64(counts[c]) / n
		require.InDelta(t, CategoryWeight(c), freq, 0.02, "category %s", c)
	}
	require.InDelta(t, MemberProbability, float64(members)/n, 0.02)
}

func TestGenerate_SameSeedSameTable(t *testing.T) {
	a := generate(t, 42, 200)
	b := generate(t, 42, 200)
	require.Equal(t, a, b)

	c := generate(t, 43, 200)
	require.NotEqual(t, a, c)
}

func TestGenerate_ZeroRows(t *testing.T) {
	txs := generate(t, 1, 0)
	require.Empty(t, txs)
}

func TestGenerate_NegativeRows(t *testing.T) {
	_, err := Generate(NewRand(1), -1)
	require.ErrorIs(t, err, ErrNegativeRows)
}

func TestCategoryWeight_SumsToOne(t *testing.T) {
	var sum float64
	for _, c := range models.Categories {
		sum += CategoryWeight(c)
	}
	require.InDelta(t, 1.0, sum, 1e-9)
	require.Zero(t, CategoryWeight(models.Category("Toys")))
}
