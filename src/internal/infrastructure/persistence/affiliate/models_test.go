package affiliate

import (
	"testing"
	"time"

	"github.com/fortyseven/affiliate_ledger/src/internal/domain/affiliate"
	"github.com/fortyseven/affiliate_ledger/src/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validAccountModel() *AccountModel {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	custom := "SPRING"
	return &AccountModel{
		ID:                  affiliate.NewAccountID().String(),
		ExternalUserID:      "ext-1",
		Code:                "MR-ABCDEF",
		CustomCode:          &custom,
		TotalPoints:         900,
		RedeemedPoints:      300,
		TotalReferrals:      4,
		SuccessfulReferrals: 2,
		ProConversions:      1,
		TotalEarningsCents:  1999,
		Version:             3,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

func TestAccountModel_ToDomain(t *testing.T) {
	// Arrange
	m := validAccountModel()

	// Act
	a, err := m.toDomain()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(600), a.AvailablePoints())
	assert.Equal(t, "19.99", a.TotalEarnings().StringFixed(2))
	custom, ok := a.CustomCode().Get()
	assert.True(t, ok)
	assert.Equal(t, "SPRING", custom)
	assert.False(t, a.UserRef().IsLinked())
	assert.Equal(t, 3, a.Version())

	back, err := accountToModel(a)
	require.NoError(t, err)
	assert.Equal(t, m, back)
}

func TestAccountModel_ToDomain_RejectsCorruptRows(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *AccountModel)
		want   error
	}{
		{"redeemed above total", func(m *AccountModel) { m.RedeemedPoints = m.TotalPoints + 1 }, affiliate.ErrInvariantViolation},
		{"negative total", func(m *AccountModel) { m.TotalPoints = -1 }, affiliate.ErrInvariantViolation},
		{"negative earnings", func(m *AccountModel) { m.TotalEarningsCents = -5 }, affiliate.ErrInvariantViolation},
		{"bad id", func(m *AccountModel) { m.ID = "not-a-uuid" }, affiliate.ErrInvalidAccountID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validAccountModel()
			tt.mutate(m)

			_, err := m.toDomain()

			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestTransactionModel_ToDomain_RejectsCategorySignMismatch(t *testing.T) {
	m := &TransactionModel{
		ID:        affiliate.NewTransactionID().String(),
		AccountID: affiliate.NewAccountID().String(),
		Amount:    50,
		Category:  string(affiliate.CategoryRedemption),
		CreatedAt: time.Now().UTC(),
	}

	_, err := m.toDomain()

	assert.ErrorIs(t, err, affiliate.ErrInvalidCategory)
}

func TestTransactionModel_RoundTrip(t *testing.T) {
	tx, err := affiliate.ReconstructPointTransaction(
		affiliate.NewTransactionID(),
		affiliate.NewAccountID(),
		200,
		affiliate.CategoryReferralPurchase,
		"referred purchase",
		shared.Linked("order-77"),
		decimal.RequireFromString("12.50"),
		time.Date(2025, 5, 5, 5, 5, 5, 0, time.UTC),
	)
	require.NoError(t, err)

	m, err := transactionToModel(tx)
	require.NoError(t, err)
	back, err := m.toDomain()

	require.NoError(t, err)
	assert.Equal(t, int64(1250), m.EarningsCents)
	assert.Equal(t, "order-77", *m.EventRef)
	assert.True(t, back.Earnings().Equal(tx.Earnings()))
	assert.Equal(t, tx.ID(), back.ID())
}
