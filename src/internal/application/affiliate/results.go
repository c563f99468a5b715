package affiliate

import (
	"time"

	"github.com/fortyseven/affiliate_ledger/src/internal/domain/affiliate"
)

// AccountResult is the stats view of an account. Tier and PartnerEligible
// are evaluated on every call.
type AccountResult struct {
	AccountID           string    `json:"account_id"`
	ExternalUserID      string    `json:"external_user_id"`
	UserRef             string    `json:"user_ref,omitempty"`
	Code                string    `json:"code"`
	CustomCode          string    `json:"custom_code,omitempty"`
	TotalPoints         int64     `json:"total_points"`
	AvailablePoints     int64     `json:"available_points"`
	RedeemedPoints      int64     `json:"redeemed_points"`
	TotalReferrals      int       `json:"total_referrals"`
	SuccessfulReferrals int       `json:"successful_referrals"`
	ProConversions      int       `json:"pro_conversions"`
	TotalEarnings       string    `json:"total_earnings"`
	Tier                string    `json:"tier"`
	PartnerEligible     bool      `json:"partner_eligible"`
	CreatedAt           time.Time `json:"created_at"`
}

func newAccountResult(a *affiliate.AffiliateAccount, policy affiliate.TierPolicy) *AccountResult {
	stats := a.Stats(policy)
	userRef, _ := a.UserRef().Get()
	custom, _ := stats.CustomCode.Get()
	return &AccountResult{
		AccountID:           stats.AccountID.String(),
		ExternalUserID:      a.ExternalUserID(),
		UserRef:             userRef,
		Code:                stats.Code,
		CustomCode:          custom,
		TotalPoints:         stats.TotalPoints,
		AvailablePoints:     stats.AvailablePoints,
		RedeemedPoints:      stats.RedeemedPoints,
		TotalReferrals:      stats.TotalReferrals,
		SuccessfulReferrals: stats.SuccessfulReferrals,
		ProConversions:      stats.ProConversions,
		TotalEarnings:       stats.TotalEarnings.StringFixed(2),
		Tier:                string(stats.Tier),
		PartnerEligible:     stats.PartnerEligible,
		CreatedAt:           a.CreatedAt(),
	}
}

// TransactionResult is one ledger entry.
type TransactionResult struct {
	TransactionID string    `json:"transaction_id"`
	AccountID     string    `json:"account_id"`
	Amount        int64     `json:"amount"`
	Category      string    `json:"category"`
	Reason        string    `json:"reason"`
	EventRef      string    `json:"event_ref,omitempty"`
	Earnings      string    `json:"earnings"`
	CreatedAt     time.Time `json:"created_at"`
}

func newTransactionResult(tx *affiliate.PointTransaction) TransactionResult {
	ref, _ := tx.EventRef().Get()
	return TransactionResult{
		TransactionID: tx.ID().String(),
		AccountID:     tx.AccountID().String(),
		Amount:        tx.Amount(),
		Category:      tx.Category().String(),
		Reason:        tx.Reason(),
		EventRef:      ref,
		Earnings:      tx.Earnings().StringFixed(2),
		CreatedAt:     tx.CreatedAt(),
	}
}

// LedgerResult is returned by every ledger mutation. Duplicate is set when
// the external event had already been recorded; Transaction is then the
// entry written the first time and the account is unchanged.
type LedgerResult struct {
	Transaction TransactionResult `json:"transaction"`
	Account     *AccountResult    `json:"account"`
	Duplicate   bool              `json:"duplicate"`
}
