package partner

import "github.com/fortyseven/affiliate_ledger/src/internal/domain/shared"

// Error codes for the partner bounded context.
const (
	ErrCodePartnerNotFound        shared.ErrorCode = "PARTNER_NOT_FOUND"
	ErrCodeCommissionNotFound     shared.ErrorCode = "COMMISSION_NOT_FOUND"
	ErrCodePayoutNotFound         shared.ErrorCode = "PAYOUT_NOT_FOUND"
	ErrCodeInvalidBaseAmount      shared.ErrorCode = "INVALID_BASE_AMOUNT"
	ErrCodeInvalidRate            shared.ErrorCode = "INVALID_RATE"
	ErrCodeInvalidCommissionType  shared.ErrorCode = "INVALID_COMMISSION_TYPE"
	ErrCodeCommissionNotEligible  shared.ErrorCode = "COMMISSION_NOT_ELIGIBLE"
	ErrCodeAlreadyPaid            shared.ErrorCode = "ALREADY_PAID"
	ErrCodeEmptyPayout            shared.ErrorCode = "EMPTY_PAYOUT"
	ErrCodeInvalidPartner         shared.ErrorCode = "INVALID_PARTNER"
	ErrCodeInvalidPhoneNumber     shared.ErrorCode = "INVALID_PHONE_NUMBER"
	ErrCodeInvalidID              shared.ErrorCode = "PARTNER_ID_INVALID"
	ErrCodePartnerNumberTaken     shared.ErrorCode = "PARTNER_NUMBER_TAKEN"
	ErrCodePayoutNumberTaken      shared.ErrorCode = "PAYOUT_NUMBER_TAKEN"
	ErrCodeNoPayoutAccount        shared.ErrorCode = "PARTNER_PAYOUT_ACCOUNT_MISSING"
	ErrCodeConcurrentModification shared.ErrorCode = "PARTNER_CONCURRENT_MODIFICATION"
	ErrCodeInvariantViolation     shared.ErrorCode = "PARTNER_INVARIANT_VIOLATION"
	ErrCodeDuplicateEvent         shared.ErrorCode = "COMMISSION_DUPLICATE_EVENT"
)

var (
	ErrPartnerNotFound    = shared.NewDomainError(ErrCodePartnerNotFound, "partner not found")
	ErrCommissionNotFound = shared.NewDomainError(ErrCodeCommissionNotFound, "commission not found")
	ErrPayoutNotFound     = shared.NewDomainError(ErrCodePayoutNotFound, "payout not found")

	ErrInvalidBaseAmount     = shared.NewDomainError(ErrCodeInvalidBaseAmount, "base amount must be greater than zero")
	ErrInvalidRate           = shared.NewDomainError(ErrCodeInvalidRate, "commission rate is missing or negative")
	ErrInvalidCommissionType = shared.NewDomainError(ErrCodeInvalidCommissionType, "invalid commission type")

	// ErrCommissionNotEligible the commission belongs to another partner, is
	// not PENDING, or is already assigned to a payout.
	ErrCommissionNotEligible = shared.NewDomainError(ErrCodeCommissionNotEligible, "commission not eligible")

	// ErrAlreadyPaid the payout or commission reached the terminal PAID state.
	ErrAlreadyPaid = shared.NewDomainError(ErrCodeAlreadyPaid, "already paid")

	ErrEmptyPayout = shared.NewDomainError(ErrCodeEmptyPayout, "payout needs at least one commission")

	ErrInvalidPartner     = shared.NewDomainError(ErrCodeInvalidPartner, "invalid partner details")
	ErrInvalidPhoneNumber = shared.NewDomainError(ErrCodeInvalidPhoneNumber, "phone number must be E.164")
	ErrInvalidID          = shared.NewDomainError(ErrCodeInvalidID, "invalid partner-context id")

	ErrPartnerNumberTaken = shared.NewDomainError(ErrCodePartnerNumberTaken, "partner number already in use")
	ErrPayoutNumberTaken  = shared.NewDomainError(ErrCodePayoutNumberTaken, "payout number already in use")
	ErrNoPayoutAccount    = shared.NewDomainError(ErrCodeNoPayoutAccount, "partner has no linked payout account")

	ErrConcurrentModification = shared.NewDomainError(ErrCodeConcurrentModification, "partner modified concurrently")
	ErrInvariantViolation     = shared.NewDomainError(ErrCodeInvariantViolation, "partner invariant violated")

	// ErrDuplicateEvent a commission for the same external event already exists.
	ErrDuplicateEvent = shared.NewDomainError(ErrCodeDuplicateEvent, "commission event already recorded")
)
