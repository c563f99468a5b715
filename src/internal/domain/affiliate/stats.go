package affiliate

import (
	"github.com/fortyseven/affiliate_ledger/src/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AccountStats is the read model returned by getStats. Tier and
// PartnerEligible are computed per call and must not be cached.
type AccountStats struct {
	AccountID           AccountID
	Code                string
	CustomCode          shared.Ref[string]
	TotalPoints         int64
	AvailablePoints     int64
	RedeemedPoints      int64
	TotalReferrals      int
	SuccessfulReferrals int
	ProConversions      int
	TotalEarnings       decimal.Decimal
	Tier                Tier
	PartnerEligible     bool
}

// LedgerTotals are the sums recomputed from the transaction log.
type LedgerTotals struct {
	Earned   int64 // sum of positive amounts
	Redeemed int64 // absolute sum of negative amounts
	Count    int64
	Earnings decimal.Decimal
}
