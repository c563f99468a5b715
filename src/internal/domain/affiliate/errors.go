package affiliate

import "github.com/fortyseven/affiliate_ledger/src/internal/domain/shared"

// Error codes for the affiliate bounded context.
const (
	ErrCodeAccountNotFound          shared.ErrorCode = "AFFILIATE_ACCOUNT_NOT_FOUND"
	ErrCodeAccountAlreadyExists     shared.ErrorCode = "AFFILIATE_ACCOUNT_ALREADY_EXISTS"
	ErrCodeInvalidAmount            shared.ErrorCode = "INVALID_AMOUNT"
	ErrCodeInsufficientBalance      shared.ErrorCode = "INSUFFICIENT_BALANCE"
	ErrCodeInvalidCode              shared.ErrorCode = "INVALID_AFFILIATE_CODE"
	ErrCodeCodeTaken                shared.ErrorCode = "AFFILIATE_CODE_TAKEN"
	ErrCodeInvalidAccountID         shared.ErrorCode = "AFFILIATE_ACCOUNT_ID_INVALID"
	ErrCodeInvalidTransactionID     shared.ErrorCode = "POINT_TRANSACTION_ID_INVALID"
	ErrCodeInvalidExternalUser      shared.ErrorCode = "EXTERNAL_USER_ID_INVALID"
	ErrCodeInvalidTierPolicy        shared.ErrorCode = "TIER_POLICY_INVALID"
	ErrCodeInvariantViolation       shared.ErrorCode = "AFFILIATE_INVARIANT_VIOLATION"
	ErrCodeConcurrentModification   shared.ErrorCode = "AFFILIATE_CONCURRENT_MODIFICATION"
	ErrCodeDuplicateEvent           shared.ErrorCode = "AFFILIATE_DUPLICATE_EVENT"
	ErrCodeInvalidTransactionCursor shared.ErrorCode = "POINT_TRANSACTION_CURSOR_INVALID"
)

var (
	// ErrAccountNotFound the account id, external user id or code does not resolve.
	ErrAccountNotFound = shared.NewDomainError(ErrCodeAccountNotFound, "affiliate account not found")

	// ErrAccountAlreadyExists the external identity is already linked to an account.
	ErrAccountAlreadyExists = shared.NewDomainError(ErrCodeAccountAlreadyExists, "affiliate account already exists")

	ErrInvalidAmount       = shared.NewDomainError(ErrCodeInvalidAmount, "points amount must be greater than zero")
	ErrInsufficientBalance = shared.NewDomainError(ErrCodeInsufficientBalance, "redemption exceeds available points")

	ErrInvalidCode = shared.NewDomainError(ErrCodeInvalidCode, "invalid affiliate code")
	ErrCodeTaken   = shared.NewDomainError(ErrCodeCodeTaken, "affiliate code already in use")

	ErrInvalidAccountID      = shared.NewDomainError(ErrCodeInvalidAccountID, "invalid affiliate account id")
	ErrInvalidTransactionID  = shared.NewDomainError(ErrCodeInvalidTransactionID, "invalid point transaction id")
	ErrInvalidExternalUserID = shared.NewDomainError(ErrCodeInvalidExternalUser, "external user id is required")
	ErrInvalidTierPolicy     = shared.NewDomainError(ErrCodeInvalidTierPolicy, "invalid tier policy")

	// ErrInvariantViolation stored counters break redeemed <= total.
	ErrInvariantViolation = shared.NewDomainError(ErrCodeInvariantViolation, "affiliate account invariant violated")

	// ErrConcurrentModification the row version changed between read and write.
	ErrConcurrentModification = shared.NewDomainError(ErrCodeConcurrentModification, "affiliate account modified concurrently")

	// ErrDuplicateEvent a ledger entry for the same external event already exists.
	ErrDuplicateEvent = shared.NewDomainError(ErrCodeDuplicateEvent, "external event already recorded")

	ErrInvalidTransactionCursor = shared.NewDomainError(ErrCodeInvalidTransactionCursor, "invalid transaction cursor")
)

const ErrCodeInvalidCategory shared.ErrorCode = "POINT_TRANSACTION_CATEGORY_INVALID"

// ErrInvalidCategory the category does not fit the ledger operation.
var ErrInvalidCategory = shared.NewDomainError(ErrCodeInvalidCategory, "invalid point transaction category")

const ErrCodeTransactionNotFound shared.ErrorCode = "POINT_TRANSACTION_NOT_FOUND"

var ErrTransactionNotFound = shared.NewDomainError(ErrCodeTransactionNotFound, "point transaction not found")
