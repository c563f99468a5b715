package affiliate

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MaxTotalEarnings caps an account's accumulated referral earnings. Storage
// keeps money as int64 cents; the cap keeps sums far inside that range.
var MaxTotalEarnings = decimal.New(1, 15)

// ===========================
// PointsAmount
// ===========================

// PointsAmount is a strictly positive number of points moved by one ledger
// entry. Zero and negative values never reach the ledger.
type PointsAmount struct {
	value int64
}

// NewPointsAmount validates value > 0.
func NewPointsAmount(value int64) (PointsAmount, error) {
	if value <= 0 {
		return PointsAmount{}, ErrInvalidAmount.WithContext("amount", value)
	}
	return PointsAmount{value: value}, nil
}

// MustPointsAmount is NewPointsAmount for constants and tests.
func MustPointsAmount(value int64) PointsAmount {
	p, err := NewPointsAmount(value)
	if err != nil {
		panic(err)
	}
	return p
}

// Value returns the raw number of points.
func (p PointsAmount) Value() int64 {
	return p.value
}

// IsZero reports whether p is the zero value (never produced by the constructor).
func (p PointsAmount) IsZero() bool {
	return p.value == 0
}

func (p PointsAmount) String() string {
	return fmt.Sprintf("%d pts", p.value)
}

// ===========================
// TransactionCategory
// ===========================

// TransactionCategory classifies a ledger entry.
type TransactionCategory string

const (
	CategoryReferralSignup   TransactionCategory = "REFERRAL_SIGNUP"
	CategoryReferralPurchase TransactionCategory = "REFERRAL_PURCHASE"
	CategoryProConversion    TransactionCategory = "PRO_CONVERSION"
	CategoryManualAdjustment TransactionCategory = "MANUAL_ADJUSTMENT"
	CategoryRedemption       TransactionCategory = "REDEMPTION"
)

// ParseTransactionCategory accepts the persisted string form.
func ParseTransactionCategory(s string) (TransactionCategory, error) {
	c := TransactionCategory(s)
	switch c {
	case CategoryReferralSignup, CategoryReferralPurchase, CategoryProConversion,
		CategoryManualAdjustment, CategoryRedemption:
		return c, nil
	}
	return "", ErrInvalidCategory.WithContext("category", s)
}

// IsEarning reports whether entries of this category add to totalPoints.
func (c TransactionCategory) IsEarning() bool {
	return c != CategoryRedemption && c != ""
}

func (c TransactionCategory) String() string {
	return string(c)
}
