package affiliate

import (
	"github.com/fortyseven/affiliate_ledger/src/internal/domain/shared"
)

// ===========================
// Entity identifiers
// ===========================

// AccountMarker tags AccountID.
type AccountMarker struct{}

// AccountID identifies an AffiliateAccount.
type AccountID = shared.EntityID[AccountMarker]

// NewAccountID generates a new account id.
func NewAccountID() AccountID {
	return shared.NewEntityID[AccountMarker]()
}

// AccountIDFromString parses an account id, failing with ErrInvalidAccountID.
func AccountIDFromString(s string) (AccountID, error) {
	return shared.EntityIDFromString[AccountMarker](s, ErrInvalidAccountID)
}

// TransactionMarker tags TransactionID.
type TransactionMarker struct{}

// TransactionID identifies a PointTransaction.
type TransactionID = shared.EntityID[TransactionMarker]

// NewTransactionID generates a new ledger entry id.
func NewTransactionID() TransactionID {
	return shared.NewEntityID[TransactionMarker]()
}

// TransactionIDFromString parses a ledger entry id.
func TransactionIDFromString(s string) (TransactionID, error) {
	return shared.EntityIDFromString[TransactionMarker](s, ErrInvalidTransactionID)
}
