package synth

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"retail-eda/internal/models"
)

const (
	MinVariation = 0.8
	MaxVariation = 1.2
)

var (
	ErrUnknownCategory = errors.New("unknown product category")
	ErrInvalidInput    = errors.New("invalid pricing input")
)

var basePrices = map[models.Category]int64{
	models.Electronics: 1_500_000,
	models.Fashion:     350_000,
	models.Household:   500_000,
	models.Health:      150_000,
	models.Sports:      700_000,
}

// memberDiscount is the multiplier applied to member orders (10% off).
var memberDiscount = decimal.RequireFromString("0.9")

// BasePrice returns the unit price of a product category.
func BasePrice(category models.Category) (int64, bool) {
	price, ok := basePrices[category]
	return price, ok
}

// TotalAmount derives the order total from its category, item count,
// membership and variation factor. The result is truncated, not rounded.
func TotalAmount(category models.Category, itemCount int, isMember bool, variation float64) (int64, error) {
	price, ok := BasePrice(category)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	if itemCount < 0 || variation < 0 {
		return 0, fmt.Errorf("%w: item_count=%d variation=%v", ErrInvalidInput, itemCount, variation)
	}

	total := decimal.NewFromInt(price).
		Mul(decimal.NewFromInt(int64(itemCount))).
		Mul(decimal.NewFromFloat(variation))
	if isMember {
		total = total.Mul(memberDiscount)
	}

	// TODO: revisit truncation once we know whether downstream totals should round half-up.
	return total.IntPart(), nil
}
