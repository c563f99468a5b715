package affiliate

import (
	"context"
	"fmt"
	"strings"

	"github.com/fortyseven/affiliate_ledger/src/internal/domain/affiliate"
)

// EarnPointsCommand credits points outside the referral flows.
type EarnPointsCommand struct {
	AccountID string
	Amount    int64
	Category  string // MANUAL_ADJUSTMENT when empty
	Reason    string
	EventRef  string
}

// EarnPointsUseCase implements appendEarn.
type EarnPointsUseCase struct {
	writer ledgerWriter
}

func NewEarnPointsUseCase(deps Dependencies) *EarnPointsUseCase {
	return &EarnPointsUseCase{writer: ledgerWriter{deps: deps}}
}

// Execute fails with ErrInvalidAmount for amount <= 0 and
// ErrAccountNotFound for an unknown account.
func (uc *EarnPointsUseCase) Execute(ctx context.Context, cmd EarnPointsCommand) (*LedgerResult, error) {
	accountID, err := affiliate.AccountIDFromString(cmd.AccountID)
	if err != nil {
		return nil, err
	}
	amount, err := affiliate.NewPointsAmount(cmd.Amount)
	if err != nil {
		return nil, err
	}
	category := affiliate.CategoryManualAdjustment
	if cmd.Category != "" {
		if category, err = affiliate.ParseTransactionCategory(strings.ToUpper(cmd.Category)); err != nil {
			return nil, err
		}
	}
	eventRef := strings.TrimSpace(cmd.EventRef)

	result, err := uc.writer.apply(ctx, "earn_points", byAccountID(uc.writer.deps.Accounts, accountID), eventRef,
		func(a *affiliate.AffiliateAccount) (*affiliate.PointTransaction, error) {
			return a.EarnPoints(amount, category, cmd.Reason, refOf(eventRef))
		})
	if err != nil {
		return nil, fmt.Errorf("failed to earn points: %w", err)
	}
	return result, nil
}

// RedeemPointsCommand spends available points.
type RedeemPointsCommand struct {
	AccountID string
	Amount    int64
	Reason    string
	EventRef  string
}

// RedeemPointsUseCase implements appendRedeem. The balance check and the
// increment run in one transaction under the account version guard, and
// the balance CHECK constraint rejects any write that slips through.
type RedeemPointsUseCase struct {
	writer ledgerWriter
}

func NewRedeemPointsUseCase(deps Dependencies) *RedeemPointsUseCase {
	return &RedeemPointsUseCase{writer: ledgerWriter{deps: deps}}
}

// Execute fails with ErrInsufficientBalance when amount exceeds the
// available points at commit time; nothing is written in that case.
func (uc *RedeemPointsUseCase) Execute(ctx context.Context, cmd RedeemPointsCommand) (*LedgerResult, error) {
	accountID, err := affiliate.AccountIDFromString(cmd.AccountID)
	if err != nil {
		return nil, err
	}
	amount, err := affiliate.NewPointsAmount(cmd.Amount)
	if err != nil {
		return nil, err
	}
	eventRef := strings.TrimSpace(cmd.EventRef)

	result, err := uc.writer.apply(ctx, "redeem_points", byAccountID(uc.writer.deps.Accounts, accountID), eventRef,
		func(a *affiliate.AffiliateAccount) (*affiliate.PointTransaction, error) {
			return a.RedeemPoints(amount, cmd.Reason, refOf(eventRef))
		})
	if err != nil {
		return nil, fmt.Errorf("failed to redeem points: %w", err)
	}
	return result, nil
}
