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

func newPartner(t *testing.T) *partner.Partner {
	t.Helper()
	p, err := partner.NewPartner(partner.NewPartnerParams{
		Number:           partner.FormatPartnerNumber(1),
		Name:             "Acme Studio",
		Email:            "Ops@Acme.test",
		Phone:            "+1 (555) 010-0199",
		UserRef:          shared.Unlinked[string](),
		PayoutAccountRef: shared.Linked("acct_123"),
		Rates: partner.CommissionRates{
			FirstSale: partner.Rate(50),
			Recurring: partner.Rate(10),
			Shop:      partner.Rate(7.5),
		},
	})
	require.NoError(t, err)
	p.PullEvents()
	return p
}

func TestNewPartner_Success(t *testing.T) {
	p := newPartner(t)

	assert.Equal(t, "P-000001", p.Number())
	assert.Equal(t, "ops@acme.test", p.Email())
	assert.Equal(t, "+15550100199", p.Phone().String())
	assert.Equal(t, partner.CommissionFirstSale, p.CommissionType())
	assert.True(t, p.TotalEarnings().IsZero())
	assert.Equal(t, 1, p.Version())

	dest, err := p.PayoutDestination()
	require.NoError(t, err)
	assert.Equal(t, "acct_123", dest)
}

func TestNewPartner_Validation(t *testing.T) {
	base := partner.NewPartnerParams{Number: "P-000002", Name: "Valid"}

	tests := []struct {
		name   string
		mutate func(p *partner.NewPartnerParams)
		want   error
	}{
		{"bad number", func(p *partner.NewPartnerParams) { p.Number = "X-1" }, partner.ErrInvalidPartner},
		{"blank name", func(p *partner.NewPartnerParams) { p.Name = "  " }, partner.ErrInvalidPartner},
		{"bad email", func(p *partner.NewPartnerParams) { p.Email = "not-an-email" }, partner.ErrInvalidPartner},
		{"bad phone", func(p *partner.NewPartnerParams) { p.Phone = "0912345678" }, partner.ErrInvalidPhoneNumber},
		{"negative rate", func(p *partner.NewPartnerParams) { p.Rates.FirstSale = partner.Rate(-5) }, partner.ErrInvalidRate},
		{"shop as lead type", func(p *partner.NewPartnerParams) { p.CommissionType = partner.CommissionShop }, partner.ErrInvalidCommissionType},
		{"unknown type", func(p *partner.NewPartnerParams) { p.CommissionType = "BONUS" }, partner.ErrInvalidCommissionType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := base
			tt.mutate(&params)

			_, err := partner.NewPartner(params)

			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPartner_EarnCommission_FirstSaleScenario(t *testing.T) {
	p := newPartner(t)

	c, err := p.EarnCommission(partner.CommissionFirstSale, dec("5000"), shared.Linked("lead-9"))

	require.NoError(t, err)
	assert.True(t, dec("2500.00").Equal(c.Amount()))
	assert.Equal(t, partner.CommissionPending, c.Status())
	assert.True(t, c.IsClaimable())
	assert.True(t, dec("2500").Equal(p.TotalEarnings()))

	lead, ok := c.LeadRef().Get()
	assert.True(t, ok)
	assert.Equal(t, "lead-9", lead)

	events := p.PullEvents()
	require.Len(t, events, 1)
	assert.Equal(t, partner.EventCommissionRecorded, events[0].EventType())
}

func TestPartner_EarnCommission_DefaultsToPartnerType(t *testing.T) {
	p, err := partner.NewPartner(partner.NewPartnerParams{
		Number:         "P-000003",
		Name:           "Recurring Co",
		CommissionType: partner.CommissionRecurring,
		Rates:          partner.CommissionRates{Recurring: partner.Rate(10)},
	})
	require.NoError(t, err)

	c, err := p.EarnCommission("", dec("250"), shared.Unlinked[string]())

	require.NoError(t, err)
	assert.Equal(t, partner.CommissionRecurring, c.Type())
	assert.True(t, dec("25").Equal(c.Amount()))
}

func TestPartner_EarnCommission_NullRateFails(t *testing.T) {
	p, err := partner.NewPartner(partner.NewPartnerParams{Number: "P-000004", Name: "No Shop"})
	require.NoError(t, err)

	_, err = p.EarnCommission(partner.CommissionShop, dec("100"), shared.Unlinked[string]())

	assert.ErrorIs(t, err, partner.ErrInvalidRate)
	assert.True(t, p.TotalEarnings().IsZero())
}

func TestPartner_VoidCommission(t *testing.T) {
	p := newPartner(t)
	keep, _ := p.EarnCommission(partner.CommissionShop, dec("200"), shared.Unlinked[string]())
	drop, _ := p.EarnCommission(partner.CommissionFirstSale, dec("100"), shared.Unlinked[string]())
	p.PullEvents()

	cancellation, err := p.VoidCommission(drop, " refunded ")

	require.NoError(t, err)
	assert.Equal(t, partner.CommissionVoided, drop.Status())
	assert.Equal(t, drop.ID(), cancellation.CommissionID())
	assert.Equal(t, "refunded", cancellation.Reason())
	assert.True(t, dec("50").Equal(cancellation.Amount()))
	assert.True(t, keep.Amount().Equal(p.TotalEarnings()))
	assert.Len(t, p.PullEvents(), 1)

	_, err = p.VoidCommission(drop, "again")
	assert.ErrorIs(t, err, partner.ErrCommissionNotEligible)
}

func TestPartner_VoidCommission_IncludedOrPaid(t *testing.T) {
	p := newPartner(t)
	c, _ := p.EarnCommission(partner.CommissionFirstSale, dec("100"), shared.Unlinked[string]())
	payout, err := partner.NewPayout(p.ID(), partner.GeneratePayoutNumber(time.Now()), "usd", []*partner.Commission{c})
	require.NoError(t, err)

	_, err = p.VoidCommission(c, "too late")
	assert.ErrorIs(t, err, partner.ErrCommissionNotEligible)

	require.NoError(t, payout.MarkPaid(time.Now(), []*partner.Commission{c}))
	_, err = p.VoidCommission(c, "too late")
	assert.ErrorIs(t, err, partner.ErrAlreadyPaid)
	assert.True(t, dec("50").Equal(p.TotalEarnings()))
}

func TestPartner_VoidCommission_OtherPartner(t *testing.T) {
	p := newPartner(t)
	other := newPartner(t)
	c, _ := other.EarnCommission(partner.CommissionFirstSale, dec("100"), shared.Unlinked[string]())

	_, err := p.VoidCommission(c, "")

	assert.ErrorIs(t, err, partner.ErrCommissionNotEligible)
	assert.Equal(t, partner.CommissionPending, c.Status())
}

func TestPartner_PayoutDestination_Unlinked(t *testing.T) {
	p, err := partner.NewPartner(partner.NewPartnerParams{Number: "P-000005", Name: "Offline"})
	require.NoError(t, err)

	_, err = p.PayoutDestination()

	assert.ErrorIs(t, err, partner.ErrNoPayoutAccount)
}

func TestNewEarnings_ComparesStoredWithRecomputed(t *testing.T) {
	p := newPartner(t)
	_, _ = p.EarnCommission(partner.CommissionFirstSale, dec("100"), shared.Unlinked[string]())

	earnings := partner.NewEarnings(p, partner.EarningsByStatus{
		partner.CommissionPending: dec("50"),
		partner.CommissionVoided:  dec("999"),
	})

	assert.True(t, earnings.Consistent())
	assert.True(t, dec("50").Equal(earnings.Pending))
	assert.True(t, earnings.Paid.IsZero())
}

func TestPhoneNumber(t *testing.T) {
	p, err := partner.NewPhoneNumber("+44 20 7946 0958")
	require.NoError(t, err)
	assert.Equal(t, "+442079460958", p.String())
	assert.False(t, p.IsZero())

	for _, bad := range []string{"", "12345", "+0123456789", "+1555abc0199"} {
		_, err := partner.NewPhoneNumber(bad)
		assert.ErrorIs(t, err, partner.ErrInvalidPhoneNumber, bad)
	}
}

func TestReconstructPartner(t *testing.T) {
	snapshot := partner.PartnerSnapshot{
		ID:            partner.NewPartnerID(),
		Number:        "P-000010",
		Name:          "Loaded",
		TotalEarnings: decimal.NewFromInt(10),
		Version:       3,
	}

	p, err := partner.ReconstructPartner(snapshot)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Version())
	assert.True(t, p.Phone().IsZero())

	snapshot.TotalEarnings = decimal.NewFromInt(-1)
	_, err = partner.ReconstructPartner(snapshot)
	assert.ErrorIs(t, err, partner.ErrInvariantViolation)
}

func TestPartner_EarnCommission_EarningsLimit(t *testing.T) {
	p, err := partner.ReconstructPartner(partner.PartnerSnapshot{
		ID:               partner.NewPartnerID(),
		Number:           partner.FormatPartnerNumber(7),
		Name:             "Near Cap",
		UserRef:          shared.Unlinked[string](),
		PayoutAccountRef: shared.Unlinked[string](),
		Rates:            partner.CommissionRates{FirstSale: partner.Rate(50)},
		CommissionType:   partner.CommissionFirstSale,
		TotalEarnings:    partner.MaxTotalEarnings.Sub(dec("100")),
		Version:          4,
		CreatedAt:        time.Now().UTC(),
		UpdatedAt:        time.Now().UTC(),
	})
	require.NoError(t, err)

	_, err = p.EarnCommission(partner.CommissionFirstSale, dec("200"), shared.Unlinked[string]())
	require.NoError(t, err)
	assert.True(t, partner.MaxTotalEarnings.Equal(p.TotalEarnings()))

	_, err = p.EarnCommission(partner.CommissionFirstSale, dec("0.02"), shared.Unlinked[string]())
	assert.ErrorIs(t, err, partner.ErrInvalidBaseAmount)
	assert.True(t, partner.MaxTotalEarnings.Equal(p.TotalEarnings()), "a rejected commission leaves the aggregate unchanged")
}

func TestPartner_EarnCommissionForEvent_CarriesEventRef(t *testing.T) {
	p := newPartner(t)

	c, err := p.EarnCommissionForEvent(partner.CommissionShop, dec("80"), shared.Unlinked[string](), shared.Linked("evt-1"))

	require.NoError(t, err)
	ref, ok := c.EventRef().Get()
	assert.True(t, ok)
	assert.Equal(t, "evt-1", ref)
}
