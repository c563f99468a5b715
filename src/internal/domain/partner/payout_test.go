package partner_test

import (
	"testing"
	"time"

	"github.com/fortyseven/affiliate_ledger/src/internal/domain/partner"
	"github.com/fortyseven/affiliate_ledger/src/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func payoutNumber() string {
	return partner.GeneratePayoutNumber(time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC))
}

func TestPayout_FullLifecycleScenario(t *testing.T) {
	// Arrange
	p := newPartner(t)
	c, err := p.EarnCommission(partner.CommissionFirstSale, dec("5000"), shared.Unlinked[string]())
	require.NoError(t, err)

	// Act: create
	payout, err := partner.NewPayout(p.ID(), payoutNumber(), "USD", []*partner.Commission{c})

	// Assert
	require.NoError(t, err)
	assert.True(t, dec("2500").Equal(payout.Amount()))
	assert.Equal(t, partner.PayoutPending, payout.Status())
	assert.Equal(t, "usd", payout.Currency())
	assert.Equal(t, int64(250000), payout.AmountInMinorUnits())
	assert.Equal(t, partner.CommissionIncluded, c.Status())
	owner, ok := c.PayoutRef().Get()
	require.True(t, ok)
	assert.Equal(t, payout.ID(), owner)

	// A second payout cannot claim the same commission.
	_, err = partner.NewPayout(p.ID(), payoutNumber(), "usd", []*partner.Commission{c})
	assert.ErrorIs(t, err, partner.ErrCommissionNotEligible)

	// Act: settle
	paidAt := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	require.NoError(t, payout.MarkPaid(paidAt, []*partner.Commission{c}))

	assert.Equal(t, partner.PayoutPaid, payout.Status())
	assert.Equal(t, paidAt, payout.PaidAt())
	assert.Equal(t, partner.CommissionPaid, c.Status())
	assert.Equal(t, paidAt, c.PaidAt())

	events := payout.PullEvents()
	require.Len(t, events, 2)
	assert.Equal(t, partner.EventPayoutCreated, events[0].EventType())
	assert.Equal(t, partner.EventPayoutPaid, events[1].EventType())
}

func TestPayout_MarkPaidTwice_AlreadyPaidAndUnchanged(t *testing.T) {
	p := newPartner(t)
	c, _ := p.EarnCommission(partner.CommissionShop, dec("80"), shared.Unlinked[string]())
	payout, err := partner.NewPayout(p.ID(), payoutNumber(), "usd", []*partner.Commission{c})
	require.NoError(t, err)
	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, payout.MarkPaid(first, []*partner.Commission{c}))
	payout.PullEvents()

	err = payout.MarkPaid(first.Add(time.Hour), []*partner.Commission{c})

	assert.ErrorIs(t, err, partner.ErrAlreadyPaid)
	assert.Equal(t, first, payout.PaidAt())
	assert.Equal(t, first, c.PaidAt())
	assert.Empty(t, payout.PullEvents())
}

func TestPayout_SumEqualsCommissionAmounts(t *testing.T) {
	p := newPartner(t)
	var commissions []*partner.Commission
	want := decimal.Zero
	for _, base := range []string{"10.01", "333.33", "0.07", "1999.99"} {
		c, err := p.EarnCommission(partner.CommissionShop, dec(base), shared.Unlinked[string]())
		require.NoError(t, err)
		commissions = append(commissions, c)
		want = want.Add(c.Amount())
	}

	payout, err := partner.NewPayout(p.ID(), payoutNumber(), "usd", commissions)

	require.NoError(t, err)
	assert.True(t, want.Equal(payout.Amount()))
	assert.Len(t, payout.CommissionIDs(), 4)
}

func TestNewPayout_AllOrNothing(t *testing.T) {
	p := newPartner(t)
	other := newPartner(t)
	ok1, _ := p.EarnCommission(partner.CommissionFirstSale, dec("100"), shared.Unlinked[string]())
	foreign, _ := other.EarnCommission(partner.CommissionFirstSale, dec("100"), shared.Unlinked[string]())
	voided, _ := p.EarnCommission(partner.CommissionFirstSale, dec("100"), shared.Unlinked[string]())
	_, err := p.VoidCommission(voided, "refund")
	require.NoError(t, err)

	tests := []struct {
		name        string
		commissions []*partner.Commission
		want        error
	}{
		{"empty", nil, partner.ErrEmptyPayout},
		{"foreign commission", []*partner.Commission{ok1, foreign}, partner.ErrCommissionNotEligible},
		{"voided commission", []*partner.Commission{ok1, voided}, partner.ErrCommissionNotEligible},
		{"duplicate commission", []*partner.Commission{ok1, ok1}, partner.ErrCommissionNotEligible},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := partner.NewPayout(p.ID(), payoutNumber(), "usd", tt.commissions)

			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, partner.CommissionPending, ok1.Status())
			assert.False(t, ok1.PayoutRef().IsLinked())
		})
	}
}

func TestPayout_MarkPaid_RequiresExactCommissionSet(t *testing.T) {
	p := newPartner(t)
	a, _ := p.EarnCommission(partner.CommissionFirstSale, dec("100"), shared.Unlinked[string]())
	b, _ := p.EarnCommission(partner.CommissionFirstSale, dec("100"), shared.Unlinked[string]())
	stray, _ := p.EarnCommission(partner.CommissionFirstSale, dec("100"), shared.Unlinked[string]())
	payout, err := partner.NewPayout(p.ID(), payoutNumber(), "usd", []*partner.Commission{a, b})
	require.NoError(t, err)

	assert.ErrorIs(t, payout.MarkPaid(time.Now(), []*partner.Commission{a}), partner.ErrInvariantViolation)
	assert.ErrorIs(t, payout.MarkPaid(time.Now(), []*partner.Commission{a, stray}), partner.ErrCommissionNotEligible)
	assert.Equal(t, partner.PayoutPending, payout.Status())
	assert.Equal(t, partner.CommissionIncluded, a.Status())
}

func TestPayoutNumbers(t *testing.T) {
	n := payoutNumber()
	assert.Regexp(t, `^PO-20260504-[A-Z2-9]{6}$`, n)
	assert.True(t, partner.ValidatePayoutNumber(n))
	assert.False(t, partner.ValidatePayoutNumber("PO-1-ABC"))

	assert.Equal(t, "P-000123", partner.FormatPartnerNumber(123))
	assert.Equal(t, "P-1234567", partner.FormatPartnerNumber(1234567))
	assert.True(t, partner.ValidatePartnerNumber("P-000123"))
	assert.False(t, partner.ValidatePartnerNumber("P-12"))
}

func TestReconstructCommission_IncludedNeedsPayout(t *testing.T) {
	_, err := partner.ReconstructCommission(partner.CommissionSnapshot{
		ID:        partner.NewCommissionID(),
		PartnerID: partner.NewPartnerID(),
		Status:    partner.CommissionIncluded,
		PayoutRef: shared.Unlinked[partner.PayoutID](),
	})

	assert.ErrorIs(t, err, partner.ErrInvariantViolation)
}
