package partner

import (
	"time"

	"github.com/fortyseven/affiliate_ledger/src/internal/domain/shared"
)

// ===========================
// Repository ports
// ===========================

// PartnerRepository persists Partner aggregates. A nil TransactionContext
// auto-commits.
type PartnerRepository interface {
	// Save inserts a partner. Errors: ErrPartnerNumberTaken.
	Save(ctx shared.TransactionContext, p *Partner) error

	// Update is guarded by the partner version. Errors: ErrConcurrentModification.
	Update(ctx shared.TransactionContext, p *Partner) error

	FindByID(ctx shared.TransactionContext, id PartnerID) (*Partner, error)
	FindByNumber(ctx shared.TransactionContext, number string) (*Partner, error)

	// NextSequence returns the next partner number sequence value.
	NextSequence(ctx shared.TransactionContext) (int64, error)
}

// CommissionRepository persists commissions and cancellations.
type CommissionRepository interface {
	// Save inserts a commission. Errors: ErrDuplicateEvent.
	Save(ctx shared.TransactionContext, c *Commission) error
	FindByID(ctx shared.TransactionContext, id CommissionID) (*Commission, error)

	// FindByEventRef errors with ErrCommissionNotFound when nothing was
	// recorded for the ref.
	FindByEventRef(ctx shared.TransactionContext, partnerID PartnerID, eventRef string) (*Commission, error)

	// FindByIDs loads the listed commissions; missing ids fail with ErrCommissionNotFound.
	FindByIDs(ctx shared.TransactionContext, ids []CommissionID) ([]*Commission, error)
	FindByPayout(ctx shared.TransactionContext, payoutID PayoutID) ([]*Commission, error)
	ListPending(ctx shared.TransactionContext, partnerID PartnerID) ([]*Commission, error)

	// Claim assigns the payout's commissions with one conditional update
	// (PENDING, unassigned, owned by the partner). Fewer affected rows than
	// commissions fails with ErrCommissionNotEligible.
	Claim(ctx shared.TransactionContext, payout *Payout) error

	// SettleForPayout moves the payout's INCLUDED commissions to PAID.
	SettleForPayout(ctx shared.TransactionContext, payout *Payout, paidAt time.Time) error

	// Void moves a PENDING commission to VOIDED and stores the cancellation.
	Void(ctx shared.TransactionContext, c *Commission, cancellation *CommissionCancellation) error

	// FindCancellation returns the record written when the commission was voided.
	FindCancellation(ctx shared.TransactionContext, commissionID CommissionID) (*CommissionCancellation, error)

	// SumByStatus recomputes earnings from commission rows.
	SumByStatus(ctx shared.TransactionContext, partnerID PartnerID) (EarningsByStatus, error)
}

// PayoutRepository persists Payout aggregates.
type PayoutRepository interface {
	// Save inserts a payout. Errors: ErrPayoutNumberTaken.
	Save(ctx shared.TransactionContext, p *Payout) error

	FindByID(ctx shared.TransactionContext, id PayoutID) (*Payout, error)

	// MarkPaid flips PENDING to PAID with a conditional update. Errors:
	// ErrAlreadyPaid, ErrPayoutNotFound.
	MarkPaid(ctx shared.TransactionContext, p *Payout) error

	ListByPartner(ctx shared.TransactionContext, partnerID PartnerID) ([]*Payout, error)
}
