package gormtx

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Monetary aggregates are stored as integer cents so SUM() is exact on every
// driver.

// ErrCentsOutOfRange is returned for amounts whose cents do not fit an int64
// column.
var ErrCentsOutOfRange = errors.New("amount does not fit in int64 cents")

var (
	maxCents = decimal.NewFromInt(math.MaxInt64)
	minCents = decimal.NewFromInt(math.MinInt64)
)

// ToCents converts a currency amount (at most two decimals) to cents. Values
// outside the int64 range are refused instead of wrapping.
func ToCents(d decimal.Decimal) (int64, error) {
	cents := d.Shift(2).Round(0)
	if cents.GreaterThan(maxCents) || cents.LessThan(minCents) {
		return 0, fmt.Errorf("%w: %s", ErrCentsOutOfRange, d.String())
	}
	return cents.IntPart(), nil
}

// FromCents converts stored cents back to a two-decimal amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
