package partner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fortyseven/affiliate_ledger/src/internal/application/notification"
	"github.com/fortyseven/affiliate_ledger/src/internal/application/uow"
	"github.com/fortyseven/affiliate_ledger/src/internal/domain/partner"
	"github.com/fortyseven/affiliate_ledger/src/internal/domain/shared"
	"go.uber.org/zap"
)

// CreatePayoutCommand batches commissions into a payout. With AllPending
// set, CommissionIDs is ignored and every pending commission is included.
type CreatePayoutCommand struct {
	PartnerID     string
	CommissionIDs []string
	AllPending    bool
}

// CreatePayoutUseCase implements createPayout. Validation and the claim of
// every commission happen in one transaction: either the whole batch moves
// to INCLUDED under the new payout or nothing changes.
type CreatePayoutUseCase struct {
	deps Dependencies
}

func NewCreatePayoutUseCase(deps Dependencies) *CreatePayoutUseCase {
	return &CreatePayoutUseCase{deps: deps}
}

// Execute fails with ErrCommissionNotEligible when any commission belongs to
// another partner, is not PENDING or was claimed by a concurrent payout.
func (uc *CreatePayoutUseCase) Execute(ctx context.Context, cmd CreatePayoutCommand) (*PayoutResult, error) {
	partnerID, err := partner.PartnerIDFromString(cmd.PartnerID)
	if err != nil {
		return nil, err
	}
	ids := make([]partner.CommissionID, 0, len(cmd.CommissionIDs))
	if !cmd.AllPending {
		for _, raw := range cmd.CommissionIDs {
			id, err := partner.CommissionIDFromString(raw)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}

	var (
		payout *partner.Payout
		owner  *partner.Partner
	)
	err = uow.Retry(ctx, uc.deps.PayoutNumberAttempts, func(ctx context.Context) error {
		now := uc.deps.now()
		number := uc.deps.payoutNumber(now)
		return uc.deps.Runner.Run(ctx, func(tx shared.TransactionContext) error {
			p, err := uc.deps.Partners.FindByID(tx, partnerID)
			if err != nil {
				return err
			}
			var commissions []*partner.Commission
			if cmd.AllPending {
				commissions, err = uc.deps.Commissions.ListPending(tx, partnerID)
			} else {
				commissions, err = uc.deps.Commissions.FindByIDs(tx, ids)
			}
			if err != nil {
				if errors.Is(err, partner.ErrCommissionNotFound) {
					return partner.ErrCommissionNotEligible.WithContext("partner_id", partnerID.String(), "reason", "unknown commission")
				}
				return err
			}

			po, err := partner.NewPayout(partnerID, number, uc.deps.Currency, commissions)
			if err != nil {
				return err
			}
			if err := uc.deps.Payouts.Save(tx, po); err != nil {
				return err
			}
			if err := uc.deps.Commissions.Claim(tx, po); err != nil {
				return err
			}
			payout, owner = po, p
			return nil
		})
	}, partner.ErrPayoutNumberTaken)
	if err != nil {
		return nil, fmt.Errorf("failed to create payout: %w", err)
	}

	uc.deps.Dispatcher.Publish(ctx, "create_payout", payout.PullEvents())
	uc.deps.Dispatcher.Notify(ctx, "create_payout", notification.Message{
		Kind:      notification.KindPayoutCreated,
		Recipient: recipientOf(owner),
		Subject:   fmt.Sprintf("Payout %s created", payout.Number()),
		Body: fmt.Sprintf("Payout %s of %s %s covering %d commissions is pending settlement.",
			payout.Number(), payout.Amount().StringFixed(2), payout.Currency(), len(payout.CommissionIDs())),
		Data: map[string]string{"payout_id": payout.ID().String(), "payout_number": payout.Number()},
	})
	return newPayoutResult(payout), nil
}

// MarkPayoutPaidCommand settles a payout. A zero PaidAt means now.
type MarkPayoutPaidCommand struct {
	PayoutID string
	PaidAt   time.Time
}

// MarkPayoutPaidUseCase implements markPaid: PENDING to PAID on the payout,
// cascaded to every included commission, in one transaction. After commit
// the statement is archived and the partner notified, both best-effort.
type MarkPayoutPaidUseCase struct {
	deps Dependencies
	log  *zap.Logger
}

func NewMarkPayoutPaidUseCase(deps Dependencies, log *zap.Logger) *MarkPayoutPaidUseCase {
	if log == nil {
		log = zap.NewNop()
	}
	return &MarkPayoutPaidUseCase{deps: deps, log: log}
}

// Execute fails with ErrAlreadyPaid on a settled payout, leaving it unchanged.
func (uc *MarkPayoutPaidUseCase) Execute(ctx context.Context, cmd MarkPayoutPaidCommand) (*PayoutResult, error) {
	payoutID, err := partner.PayoutIDFromString(cmd.PayoutID)
	if err != nil {
		return nil, err
	}
	paidAt := cmd.PaidAt.UTC()
	if cmd.PaidAt.IsZero() {
		paidAt = uc.deps.now()
	}

	var (
		payout      *partner.Payout
		owner       *partner.Partner
		commissions []*partner.Commission
	)
	err = uc.deps.Runner.Run(ctx, func(tx shared.TransactionContext) error {
		po, err := uc.deps.Payouts.FindByID(tx, payoutID)
		if err != nil {
			return err
		}
		cs, err := uc.deps.Commissions.FindByPayout(tx, payoutID)
		if err != nil {
			return err
		}
		if err := po.MarkPaid(paidAt, cs); err != nil {
			return err
		}
		if err := uc.deps.Payouts.MarkPaid(tx, po); err != nil {
			return err
		}
		if err := uc.deps.Commissions.SettleForPayout(tx, po, paidAt); err != nil {
			return err
		}
		p, err := uc.deps.Partners.FindByID(tx, po.PartnerID())
		if err != nil {
			return err
		}
		payout, owner, commissions = po, p, cs
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to mark payout paid: %w", err)
	}

	uc.deps.Dispatcher.Publish(ctx, "mark_paid", payout.PullEvents())
	uc.archive(ctx, owner, payout, commissions)
	uc.deps.Dispatcher.Notify(ctx, "mark_paid", notification.Message{
		Kind:      notification.KindPayoutPaid,
		Recipient: recipientOf(owner),
		Subject:   fmt.Sprintf("Payout %s paid", payout.Number()),
		Body: fmt.Sprintf("Payout %s of %s %s was paid on %s.",
			payout.Number(), payout.Amount().StringFixed(2), payout.Currency(), payout.PaidAt().Format("2006-01-02")),
		Data: map[string]string{"payout_id": payout.ID().String(), "payout_number": payout.Number()},
	})
	return newPayoutResult(payout), nil
}

func (uc *MarkPayoutPaidUseCase) archive(ctx context.Context, owner *partner.Partner, payout *partner.Payout, commissions []*partner.Commission) {
	if uc.deps.Archive == nil {
		return
	}
	body, err := RenderStatement(owner, payout, commissions)
	if err == nil {
		err = uc.deps.Archive.Put(ctx, StatementKey(owner, payout), body, "application/json")
	}
	if err != nil {
		uc.log.Warn("statement archive failed",
			zap.String("operation", "mark_paid"),
			zap.String("payout_id", payout.ID().String()),
			zap.Error(err),
		)
	}
}

// SettlePayoutCommand pays a payout through the payment rail.
type SettlePayoutCommand struct {
	PayoutID string
}

// SettlePayoutResult adds the rail's reference to the settled payout.
type SettlePayoutResult struct {
	Payout            *PayoutResult `json:"payout"`
	TransferReference string        `json:"transfer_reference"`
}

// SettlePayoutUseCase transfers the payout amount to the partner's connected
// account, then marks the payout paid. A rail failure leaves the payout
// PENDING; the payout number is the idempotency key so a retried
// settlement cannot pay twice.
type SettlePayoutUseCase struct {
	deps     Dependencies
	markPaid *MarkPayoutPaidUseCase
}

func NewSettlePayoutUseCase(deps Dependencies, markPaid *MarkPayoutPaidUseCase) *SettlePayoutUseCase {
	return &SettlePayoutUseCase{deps: deps, markPaid: markPaid}
}

func (uc *SettlePayoutUseCase) Execute(ctx context.Context, cmd SettlePayoutCommand) (*SettlePayoutResult, error) {
	payoutID, err := partner.PayoutIDFromString(cmd.PayoutID)
	if err != nil {
		return nil, err
	}
	if uc.deps.Rail == nil {
		return nil, errors.New("settle payout: no payment rail configured")
	}

	payout, err := uc.deps.Payouts.FindByID(nil, payoutID)
	if err != nil {
		return nil, fmt.Errorf("failed to find payout: %w", err)
	}
	if payout.IsPaid() {
		return nil, partner.ErrAlreadyPaid.WithContext("payout_id", payoutID.String(), "payout_number", payout.Number())
	}
	owner, err := uc.deps.Partners.FindByID(nil, payout.PartnerID())
	if err != nil {
		return nil, fmt.Errorf("failed to find partner: %w", err)
	}
	destination, err := owner.PayoutDestination()
	if err != nil {
		return nil, err
	}

	receipt, err := uc.deps.Rail.Transfer(ctx, TransferRequest{
		PayoutID:       payout.ID().String(),
		PayoutNumber:   payout.Number(),
		PartnerID:      owner.ID().String(),
		Destination:    destination,
		AmountMinor:    payout.AmountInMinorUnits(),
		Currency:       payout.Currency(),
		IdempotencyKey: payout.Number(),
	})
	if err != nil {
		return nil, fmt.Errorf("payment rail transfer failed: %w", err)
	}

	result, err := uc.markPaid.Execute(ctx, MarkPayoutPaidCommand{PayoutID: cmd.PayoutID})
	if err != nil {
		return nil, err
	}
	return &SettlePayoutResult{Payout: result, TransferReference: receipt.Reference}, nil
}

func recipientOf(p *partner.Partner) notification.Recipient {
	userRef, _ := p.UserRef().Get()
	return notification.Recipient{
		Name:           p.Name(),
		Email:          p.Email(),
		Phone:          p.Phone().String(),
		ExternalUserID: userRef,
	}
}
