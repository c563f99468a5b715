package partner

import (
	"github.com/shopspring/decimal"
)

// ===========================
// Commission calculator
// ===========================

// CommissionType selects which partner rate applies.
type CommissionType string

const (
	CommissionFirstSale CommissionType = "FIRST_SALE"
	CommissionRecurring CommissionType = "RECURRING"
	CommissionShop      CommissionType = "SHOP"
)

// ParseCommissionType accepts the persisted string form.
func ParseCommissionType(s string) (CommissionType, error) {
	t := CommissionType(s)
	switch t {
	case CommissionFirstSale, CommissionRecurring, CommissionShop:
		return t, nil
	}
	return "", ErrInvalidCommissionType.WithContext("type", s)
}

func (t CommissionType) String() string {
	return string(t)
}

// CommissionRates are percentages (50 means 50%). A rate left null makes
// commissions of that type fail with ErrInvalidRate.
type CommissionRates struct {
	FirstSale decimal.NullDecimal
	Recurring decimal.NullDecimal
	Shop      decimal.NullDecimal
}

// RateFor selects the rate for t.
func (r CommissionRates) RateFor(t CommissionType) (decimal.NullDecimal, error) {
	switch t {
	case CommissionFirstSale:
		return r.FirstSale, nil
	case CommissionRecurring:
		return r.Recurring, nil
	case CommissionShop:
		return r.Shop, nil
	}
	return decimal.NullDecimal{}, ErrInvalidCommissionType.WithContext("type", string(t))
}

// Validate rejects negative or out-of-range rates. Null rates are allowed
// until a commission of that type is recorded.
func (r CommissionRates) Validate() error {
	for name, rate := range map[string]decimal.NullDecimal{
		"first_sale": r.FirstSale,
		"recurring":  r.Recurring,
		"shop":       r.Shop,
	} {
		if !rate.Valid {
			continue
		}
		if rate.Decimal.IsNegative() || rate.Decimal.GreaterThan(maxRate) {
			return ErrInvalidRate.WithContext("rate", name, "value", rate.Decimal.String())
		}
	}
	return nil
}

// Rate is a helper for building a valid NullDecimal from a percentage.
func Rate(percent float64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromFloat(percent))
}

var (
	hundred = decimal.NewFromInt(100)
	maxRate = hundred

	// MaxBaseAmount caps a single qualifying sale. With rates capped at 100%
	// no commission exceeds it either.
	MaxBaseAmount = decimal.New(1, 12)

	// MaxTotalEarnings caps a partner's stored earnings so every money column
	// stays well inside int64 cents.
	MaxTotalEarnings = decimal.New(1, 15)
)

// CalculateCommission returns round2(base * rate / 100), rounding half away
// from zero (half-up for the positive amounts accepted here).
func CalculateCommission(base decimal.Decimal, rate decimal.NullDecimal) (decimal.Decimal, error) {
	if !base.IsPositive() {
		return decimal.Zero, ErrInvalidBaseAmount.WithContext("base_amount", base.String())
	}
	if base.GreaterThan(MaxBaseAmount) {
		return decimal.Zero, ErrInvalidBaseAmount.WithContext(
			"base_amount", base.String(),
			"max_base_amount", MaxBaseAmount.String(),
		)
	}
	if !rate.Valid {
		return decimal.Zero, ErrInvalidRate.WithContext("rate", "null")
	}
	if rate.Decimal.IsNegative() || rate.Decimal.GreaterThan(maxRate) {
		return decimal.Zero, ErrInvalidRate.WithContext("rate", rate.Decimal.String())
	}
	return base.Mul(rate.Decimal).Div(hundred).Round(2), nil
}
