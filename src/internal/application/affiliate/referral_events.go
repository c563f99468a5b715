package affiliate

import (
	"context"
	"fmt"
	"strings"

	"github.com/fortyseven/affiliate_ledger/src/internal/domain/affiliate"
	"github.com/shopspring/decimal"
)

// RecordReferralSignupCommand credits the referrer of a new signup.
type RecordReferralSignupCommand struct {
	ReferrerCode       string
	ReferredExternalID string
	EventRef           string
}

// RecordReferralSignupUseCase bumps totalReferrals and earns the signup reward.
type RecordReferralSignupUseCase struct {
	writer ledgerWriter
}

func NewRecordReferralSignupUseCase(deps Dependencies) *RecordReferralSignupUseCase {
	return &RecordReferralSignupUseCase{writer: ledgerWriter{deps: deps}}
}

func (uc *RecordReferralSignupUseCase) Execute(ctx context.Context, cmd RecordReferralSignupCommand) (*LedgerResult, error) {
	deps := uc.writer.deps
	eventRef := strings.TrimSpace(cmd.EventRef)
	result, err := uc.writer.apply(ctx, "referral_signup", byCode(deps.Accounts, cmd.ReferrerCode), eventRef,
		func(a *affiliate.AffiliateAccount) (*affiliate.PointTransaction, error) {
			return a.RecordReferralSignup(deps.Rewards.ReferralSignup, strings.TrimSpace(cmd.ReferredExternalID), refOf(eventRef))
		})
	if err != nil {
		return nil, fmt.Errorf("failed to record referral signup: %w", err)
	}
	return result, nil
}

// RecordReferralPurchaseCommand credits the referrer of a completed purchase.
// RewardAmount is the monetary reward added to totalEarnings.
type RecordReferralPurchaseCommand struct {
	ReferrerCode string
	EventRef     string
	RewardAmount decimal.Decimal
}

// RecordReferralPurchaseUseCase bumps successfulReferrals, earns the
// purchase reward and adds RewardAmount to the stored earnings aggregate in
// the same transaction as the ledger row.
type RecordReferralPurchaseUseCase struct {
	writer ledgerWriter
}

func NewRecordReferralPurchaseUseCase(deps Dependencies) *RecordReferralPurchaseUseCase {
	return &RecordReferralPurchaseUseCase{writer: ledgerWriter{deps: deps}}
}

func (uc *RecordReferralPurchaseUseCase) Execute(ctx context.Context, cmd RecordReferralPurchaseCommand) (*LedgerResult, error) {
	deps := uc.writer.deps
	eventRef := strings.TrimSpace(cmd.EventRef)
	result, err := uc.writer.apply(ctx, "referral_purchase", byCode(deps.Accounts, cmd.ReferrerCode), eventRef,
		func(a *affiliate.AffiliateAccount) (*affiliate.PointTransaction, error) {
			return a.RecordReferralPurchase(deps.Rewards.ReferralPurchase, cmd.RewardAmount, refOf(eventRef))
		})
	if err != nil {
		return nil, fmt.Errorf("failed to record referral purchase: %w", err)
	}
	return result, nil
}

// RecordProConversionCommand credits the referrer of a pro upgrade.
type RecordProConversionCommand struct {
	ReferrerCode string
	EventRef     string
}

// RecordProConversionUseCase bumps proConversions and earns the conversion reward.
type RecordProConversionUseCase struct {
	writer ledgerWriter
}

func NewRecordProConversionUseCase(deps Dependencies) *RecordProConversionUseCase {
	return &RecordProConversionUseCase{writer: ledgerWriter{deps: deps}}
}

func (uc *RecordProConversionUseCase) Execute(ctx context.Context, cmd RecordProConversionCommand) (*LedgerResult, error) {
	deps := uc.writer.deps
	eventRef := strings.TrimSpace(cmd.EventRef)
	result, err := uc.writer.apply(ctx, "pro_conversion", byCode(deps.Accounts, cmd.ReferrerCode), eventRef,
		func(a *affiliate.AffiliateAccount) (*affiliate.PointTransaction, error) {
			return a.RecordProConversion(deps.Rewards.ProConversion, refOf(eventRef))
		})
	if err != nil {
		return nil, fmt.Errorf("failed to record pro conversion: %w", err)
	}
	return result, nil
}
