package partner

import (
	"context"
	"testing"

	"github.com/fortyseven/affiliate_ledger/src/internal/domain/partner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePartnerUseCase_AssignsSequentialNumbers(t *testing.T) {
	// Arrange
	f := setup(t)

	// Act
	first := f.createPartner(t, "acct_1")
	second := f.createPartner(t, "")

	// Assert
	assert.Equal(t, "P-000001", first.PartnerNumber)
	assert.Equal(t, "P-000002", second.PartnerNumber)
	assert.Equal(t, "FIRST_SALE", first.CommissionType)
	require.NotNil(t, first.ShopRate)
	assert.Equal(t, "7.5", *first.ShopRate)
	assert.Equal(t, "0.00", first.TotalEarnings)
	assert.Equal(t, "acct_1", first.PayoutAccountRef)
}

func TestCreatePartnerUseCase_Validation(t *testing.T) {
	f := setup(t)
	uc := NewCreatePartnerUseCase(f.deps)
	ctx := context.Background()

	_, err := uc.Execute(ctx, CreatePartnerCommand{Email: "ops@acme.test"})
	assert.ErrorIs(t, err, partner.ErrInvalidPartner)

	_, err = uc.Execute(ctx, CreatePartnerCommand{Name: "Acme", Email: "ops@acme.test", CommissionType: "shop"})
	assert.ErrorIs(t, err, partner.ErrInvalidCommissionType)

	_, err = uc.Execute(ctx, CreatePartnerCommand{Name: "Acme", Email: "ops@acme.test", FirstSaleRate: dec("-1")})
	assert.ErrorIs(t, err, partner.ErrInvalidRate)

	// a failed insert does not burn the sequence
	p := f.createPartner(t, "")
	assert.Equal(t, "P-000001", p.PartnerNumber)
}

func TestGetPartnerUseCase_ByIDOrNumber(t *testing.T) {
	f := setup(t)
	created := f.createPartner(t, "acct_1")
	uc := NewGetPartnerUseCase(f.deps)

	byNumber, err := uc.Execute(context.Background(), created.PartnerNumber)
	require.NoError(t, err)
	byID, err := uc.Execute(context.Background(), created.PartnerID)
	require.NoError(t, err)

	assert.Equal(t, created.PartnerID, byNumber.PartnerID)
	assert.Equal(t, created.PartnerNumber, byID.PartnerNumber)

	_, err = uc.Execute(context.Background(), "P-999999")
	assert.ErrorIs(t, err, partner.ErrPartnerNotFound)
}
