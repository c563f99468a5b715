package partner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fortyseven/affiliate_ledger/src/internal/domain/partner"
	"github.com/fortyseven/affiliate_ledger/src/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// RecordCommissionCommand reports a qualifying sale or closed lead.
type RecordCommissionCommand struct {
	PartnerID string
	// Type is FIRST_SALE, RECURRING or SHOP. Empty means a lead conversion
	// priced with the partner's commission type.
	Type       string
	BaseAmount decimal.Decimal
	LeadRef    string

	// EventRef names the external event (sale, closed lead) being paid for.
	// A repeated ref returns the commission already recorded.
	EventRef string
}

// RecordCommissionUseCase runs the commission calculator and keeps the
// partner's stored totalEarnings in step within the same transaction.
type RecordCommissionUseCase struct {
	deps Dependencies
}

func NewRecordCommissionUseCase(deps Dependencies) *RecordCommissionUseCase {
	return &RecordCommissionUseCase{deps: deps}
}

// Execute fails with ErrInvalidBaseAmount, ErrInvalidRate or
// ErrPartnerNotFound; nothing is written in that case.
func (uc *RecordCommissionUseCase) Execute(ctx context.Context, cmd RecordCommissionCommand) (*CommissionResult, error) {
	partnerID, err := partner.PartnerIDFromString(cmd.PartnerID)
	if err != nil {
		return nil, err
	}
	var ctype partner.CommissionType
	if cmd.Type != "" {
		if ctype, err = partner.ParseCommissionType(strings.ToUpper(cmd.Type)); err != nil {
			return nil, err
		}
	}

	var (
		commission *partner.Commission
		duplicate  bool
		events     []shared.DomainEvent
	)
	err = uc.deps.Runner.Run(ctx, func(tx shared.TransactionContext) error {
		commission, duplicate, events = nil, false, nil

		p, err := uc.deps.Partners.FindByID(tx, partnerID)
		if err != nil {
			return err
		}
		ref := commissionEventRef(cmd, ctype, p)
		if ref != "" {
			existing, err := uc.deps.Commissions.FindByEventRef(tx, partnerID, ref)
			if err == nil {
				commission, duplicate = existing, true
				return nil
			}
			if !errors.Is(err, partner.ErrCommissionNotFound) {
				return fmt.Errorf("failed to check event ref: %w", err)
			}
		}

		c, err := p.EarnCommissionForEvent(ctype, cmd.BaseAmount, optionalRef(cmd.LeadRef), optionalRef(ref))
		if err != nil {
			return err
		}
		if err := uc.deps.Commissions.Save(tx, c); err != nil {
			return err
		}
		if err := uc.deps.Partners.Update(tx, p); err != nil {
			return err
		}
		commission, events = c, p.PullEvents()
		return nil
	}, partner.ErrConcurrentModification, partner.ErrDuplicateEvent)
	if err != nil {
		return nil, fmt.Errorf("failed to record commission: %w", err)
	}

	result := newCommissionResult(commission)
	result.Duplicate = duplicate
	if duplicate {
		return &result, nil
	}
	uc.deps.Dispatcher.Publish(ctx, "record_commission", events)
	return &result, nil
}

// commissionEventRef picks the idempotency key of a commission. Without an
// explicit event ref, a first-sale commission is keyed by its lead: a lead
// closes into at most one first sale.
func commissionEventRef(cmd RecordCommissionCommand, ctype partner.CommissionType, p *partner.Partner) string {
	if ref := strings.TrimSpace(cmd.EventRef); ref != "" {
		return ref
	}
	lead := strings.TrimSpace(cmd.LeadRef)
	if lead == "" {
		return ""
	}
	if ctype == "" {
		ctype = p.CommissionType()
	}
	if ctype == partner.CommissionFirstSale {
		return "first-sale:" + lead
	}
	return ""
}

// VoidCommissionCommand cancels a PENDING commission.
type VoidCommissionCommand struct {
	CommissionID string
	Reason       string
}

// VoidCommissionResult carries the audit record.
type VoidCommissionResult struct {
	Commission     CommissionResult `json:"commission"`
	CancellationID string           `json:"cancellation_id"`
	Reason         string           `json:"reason"`
}

// VoidCommissionUseCase writes a cancellation record, moves the commission to
// VOIDED and subtracts it from the stored earnings aggregate. Included
// commissions fail with ErrCommissionNotEligible, paid ones with
// ErrAlreadyPaid.
type VoidCommissionUseCase struct {
	deps Dependencies
}

func NewVoidCommissionUseCase(deps Dependencies) *VoidCommissionUseCase {
	return &VoidCommissionUseCase{deps: deps}
}

func (uc *VoidCommissionUseCase) Execute(ctx context.Context, cmd VoidCommissionCommand) (*VoidCommissionResult, error) {
	commissionID, err := partner.CommissionIDFromString(cmd.CommissionID)
	if err != nil {
		return nil, err
	}

	var (
		result *VoidCommissionResult
		events []shared.DomainEvent
	)
	err = uc.deps.Runner.Run(ctx, func(tx shared.TransactionContext) error {
		c, err := uc.deps.Commissions.FindByID(tx, commissionID)
		if err != nil {
			return err
		}
		p, err := uc.deps.Partners.FindByID(tx, c.PartnerID())
		if err != nil {
			return err
		}
		cancellation, err := p.VoidCommission(c, cmd.Reason)
		if err != nil {
			return err
		}
		if err := uc.deps.Commissions.Void(tx, c, cancellation); err != nil {
			return err
		}
		if err := uc.deps.Partners.Update(tx, p); err != nil {
			return err
		}
		result = &VoidCommissionResult{
			Commission:     newCommissionResult(c),
			CancellationID: cancellation.ID().String(),
			Reason:         cancellation.Reason(),
		}
		events = p.PullEvents()
		return nil
	}, partner.ErrConcurrentModification)
	if err != nil {
		return nil, fmt.Errorf("failed to void commission: %w", err)
	}

	uc.deps.Dispatcher.Publish(ctx, "void_commission", events)
	return result, nil
}
