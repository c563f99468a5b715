package affiliate

import (
	"time"

	"github.com/fortyseven/affiliate_ledger/src/internal/domain/shared"
)

// ===========================
// Repository ports
// ===========================

// AccountRepository persists AffiliateAccount aggregates.
//
// Every method accepts a nil TransactionContext and then auto-commits.
type AccountRepository interface {
	// Save inserts a new account.
	// Errors: ErrAccountAlreadyExists (external user id taken), ErrCodeTaken (code collision).
	Save(ctx shared.TransactionContext, account *AffiliateAccount) error

	// Update writes the account guarded by its version.
	// Errors: ErrConcurrentModification, ErrInsufficientBalance (storage guard), ErrCodeTaken.
	Update(ctx shared.TransactionContext, account *AffiliateAccount) error

	FindByID(ctx shared.TransactionContext, id AccountID) (*AffiliateAccount, error)
	FindByExternalUserID(ctx shared.TransactionContext, externalUserID string) (*AffiliateAccount, error)

	// FindByCode resolves a generated or custom code (normalized by the caller).
	FindByCode(ctx shared.TransactionContext, code string) (*AffiliateAccount, error)

	// ListIDsAfter pages through account ids in ascending order for batch jobs.
	ListIDsAfter(ctx shared.TransactionContext, after string, limit int) ([]AccountID, error)
}

// TransactionCursor is the keyset position of the last entry returned.
type TransactionCursor struct {
	CreatedAt time.Time
	ID        TransactionID
}

// IsZero reports whether the cursor is the start of the log.
func (c TransactionCursor) IsZero() bool {
	return c.ID.IsEmpty()
}

// TransactionRepository is the append-only ledger store.
type TransactionRepository interface {
	// Append inserts an entry. A second entry with the same (account, eventRef)
	// fails with ErrDuplicateEvent.
	Append(ctx shared.TransactionContext, tx *PointTransaction) error

	// FindByEventRef returns the entry recorded for an external event.
	FindByEventRef(ctx shared.TransactionContext, accountID AccountID, eventRef string) (*PointTransaction, error)

	// ListBefore returns up to limit entries strictly older than cursor, newest first.
	ListBefore(ctx shared.TransactionContext, accountID AccountID, cursor TransactionCursor, limit int) ([]*PointTransaction, error)

	// Totals recomputes the earned/redeemed sums from the log.
	Totals(ctx shared.TransactionContext, accountID AccountID) (LedgerTotals, error)
}
