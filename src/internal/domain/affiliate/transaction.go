package affiliate

import (
	"time"

	"github.com/fortyseven/affiliate_ledger/src/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ===========================
// PointTransaction (ledger entry)
// ===========================

// PointTransaction is one append-only ledger entry. Amount is signed:
// positive for earnings, negative for redemptions. Earnings is the monetary
// reward credited with a referred purchase (zero otherwise), so the
// account's totalEarnings can be recomputed from the log.
type PointTransaction struct {
	id        TransactionID
	accountID AccountID
	amount    int64
	category  TransactionCategory
	reason    string
	eventRef  shared.Ref[string]
	earnings  decimal.Decimal
	createdAt time.Time
}

func newPointTransaction(accountID AccountID, amount int64, category TransactionCategory, reason string, eventRef shared.Ref[string], at time.Time) *PointTransaction {
	return &PointTransaction{
		id:        NewTransactionID(),
		accountID: accountID,
		amount:    amount,
		category:  category,
		reason:    reason,
		eventRef:  eventRef,
		earnings:  decimal.Zero,
		createdAt: at,
	}
}

// ReconstructPointTransaction rebuilds an entry loaded from storage.
func ReconstructPointTransaction(
	id TransactionID,
	accountID AccountID,
	amount int64,
	category TransactionCategory,
	reason string,
	eventRef shared.Ref[string],
	earnings decimal.Decimal,
	createdAt time.Time,
) (*PointTransaction, error) {
	if id.IsEmpty() {
		return nil, ErrInvalidTransactionID.WithContext("reason", "empty id in storage")
	}
	if amount == 0 {
		return nil, ErrInvalidAmount.WithContext("transaction_id", id.String(), "amount", amount)
	}
	if category.IsEarning() != (amount > 0) {
		return nil, ErrInvalidCategory.WithContext(
			"transaction_id", id.String(),
			"category", string(category),
			"amount", amount,
		)
	}
	if earnings.IsNegative() || (!earnings.IsZero() && category != CategoryReferralPurchase) {
		return nil, ErrInvariantViolation.WithContext("transaction_id", id.String(), "earnings", earnings.String())
	}
	return &PointTransaction{
		id:        id,
		accountID: accountID,
		amount:    amount,
		category:  category,
		reason:    reason,
		eventRef:  eventRef,
		earnings:  earnings,
		createdAt: createdAt,
	}, nil
}

func (t *PointTransaction) ID() TransactionID             { return t.id }
func (t *PointTransaction) AccountID() AccountID          { return t.accountID }
func (t *PointTransaction) Amount() int64                 { return t.amount }
func (t *PointTransaction) Category() TransactionCategory { return t.category }
func (t *PointTransaction) Reason() string                { return t.reason }
func (t *PointTransaction) EventRef() shared.Ref[string]  { return t.eventRef }
func (t *PointTransaction) Earnings() decimal.Decimal     { return t.earnings }
func (t *PointTransaction) CreatedAt() time.Time          { return t.createdAt }
func (t *PointTransaction) IsRedemption() bool            { return t.amount < 0 }
