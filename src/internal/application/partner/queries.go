package partner

import (
	"context"
	"fmt"

	"github.com/fortyseven/affiliate_ledger/src/internal/domain/partner"
)

// GetPartnerUseCase loads a partner by id or partner number.
type GetPartnerUseCase struct {
	partners partner.PartnerRepository
}

func NewGetPartnerUseCase(deps Dependencies) *GetPartnerUseCase {
	return &GetPartnerUseCase{partners: deps.Partners}
}

// Execute accepts a partner id or a P-000123 number.
func (uc *GetPartnerUseCase) Execute(ctx context.Context, idOrNumber string) (*PartnerResult, error) {
	var (
		p   *partner.Partner
		err error
	)
	if partner.ValidatePartnerNumber(idOrNumber) {
		p, err = uc.partners.FindByNumber(nil, idOrNumber)
	} else {
		var id partner.PartnerID
		if id, err = partner.PartnerIDFromString(idOrNumber); err != nil {
			return nil, err
		}
		p, err = uc.partners.FindByID(nil, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find partner: %w", err)
	}
	return newPartnerResult(p), nil
}

// GetPartnerEarningsUseCase returns the stored earnings next to the value
// recomputed from commission rows.
type GetPartnerEarningsUseCase struct {
	partners    partner.PartnerRepository
	commissions partner.CommissionRepository
}

func NewGetPartnerEarningsUseCase(deps Dependencies) *GetPartnerEarningsUseCase {
	return &GetPartnerEarningsUseCase{partners: deps.Partners, commissions: deps.Commissions}
}

func (uc *GetPartnerEarningsUseCase) Execute(ctx context.Context, partnerID string) (*EarningsResult, error) {
	id, err := partner.PartnerIDFromString(partnerID)
	if err != nil {
		return nil, err
	}
	p, err := uc.partners.FindByID(nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find partner: %w", err)
	}
	byStatus, err := uc.commissions.SumByStatus(nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to sum commissions: %w", err)
	}
	return newEarningsResult(partner.NewEarnings(p, byStatus)), nil
}

// ListPendingCommissionsUseCase lists commissions still available for a payout.
type ListPendingCommissionsUseCase struct {
	partners    partner.PartnerRepository
	commissions partner.CommissionRepository
}

func NewListPendingCommissionsUseCase(deps Dependencies) *ListPendingCommissionsUseCase {
	return &ListPendingCommissionsUseCase{partners: deps.Partners, commissions: deps.Commissions}
}

func (uc *ListPendingCommissionsUseCase) Execute(ctx context.Context, partnerID string) ([]CommissionResult, error) {
	id, err := partner.PartnerIDFromString(partnerID)
	if err != nil {
		return nil, err
	}
	if _, err := uc.partners.FindByID(nil, id); err != nil {
		return nil, fmt.Errorf("failed to find partner: %w", err)
	}
	pending, err := uc.commissions.ListPending(nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending commissions: %w", err)
	}
	return newCommissionResults(pending), nil
}

// ListPayoutsUseCase lists a partner's payouts, newest first.
type ListPayoutsUseCase struct {
	payouts partner.PayoutRepository
}

func NewListPayoutsUseCase(deps Dependencies) *ListPayoutsUseCase {
	return &ListPayoutsUseCase{payouts: deps.Payouts}
}

func (uc *ListPayoutsUseCase) Execute(ctx context.Context, partnerID string) ([]*PayoutResult, error) {
	id, err := partner.PartnerIDFromString(partnerID)
	if err != nil {
		return nil, err
	}
	payouts, err := uc.payouts.ListByPartner(nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list payouts: %w", err)
	}
	out := make([]*PayoutResult, 0, len(payouts))
	for _, p := range payouts {
		out = append(out, newPayoutResult(p))
	}
	return out, nil
}
