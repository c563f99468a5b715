package partner

import (
	"context"
	"fmt"
	"strings"

	"github.com/fortyseven/affiliate_ledger/src/internal/domain/partner"
	"github.com/fortyseven/affiliate_ledger/src/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CreatePartnerCommand registers a partner. Rates are percentages; a nil
// rate leaves that commission type unconfigured.
type CreatePartnerCommand struct {
	Name             string
	Email            string
	Phone            string
	UserRef          string
	PayoutAccountRef string
	FirstSaleRate    *decimal.Decimal
	RecurringRate    *decimal.Decimal
	ShopRate         *decimal.Decimal
	CommissionType   string
}

// CreatePartnerUseCase assigns the next P-000123 number from the storage
// sequence and inserts the partner in the same transaction.
type CreatePartnerUseCase struct {
	deps Dependencies
}

func NewCreatePartnerUseCase(deps Dependencies) *CreatePartnerUseCase {
	return &CreatePartnerUseCase{deps: deps}
}

func (uc *CreatePartnerUseCase) Execute(ctx context.Context, cmd CreatePartnerCommand) (*PartnerResult, error) {
	var ctype partner.CommissionType
	if cmd.CommissionType != "" {
		t, err := partner.ParseCommissionType(strings.ToUpper(cmd.CommissionType))
		if err != nil {
			return nil, err
		}
		ctype = t
	}
	params := partner.NewPartnerParams{
		Name:             cmd.Name,
		Email:            cmd.Email,
		Phone:            cmd.Phone,
		UserRef:          optionalRef(cmd.UserRef),
		PayoutAccountRef: optionalRef(cmd.PayoutAccountRef),
		Rates: partner.CommissionRates{
			FirstSale: nullRate(cmd.FirstSaleRate),
			Recurring: nullRate(cmd.RecurringRate),
			Shop:      nullRate(cmd.ShopRate),
		},
		CommissionType: ctype,
	}

	var created *partner.Partner
	err := uc.deps.Runner.Run(ctx, func(tx shared.TransactionContext) error {
		seq, err := uc.deps.Partners.NextSequence(tx)
		if err != nil {
			return fmt.Errorf("failed to allocate partner number: %w", err)
		}
		params.Number = partner.FormatPartnerNumber(seq)

		p, err := partner.NewPartner(params)
		if err != nil {
			return err
		}
		if err := uc.deps.Partners.Save(tx, p); err != nil {
			return err
		}
		created = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create partner: %w", err)
	}

	uc.deps.Dispatcher.Publish(ctx, "create_partner", created.PullEvents())
	return newPartnerResult(created), nil
}

func optionalRef(s string) shared.Ref[string] {
	if s = strings.TrimSpace(s); s == "" {
		return shared.Unlinked[string]()
	}
	return shared.Linked(s)
}

func nullRate(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}
