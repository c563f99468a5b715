package affiliate

import (
	"github.com/fortyseven/affiliate_ledger/src/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event type names published on the event bus.
const (
	EventAccountCreated   = "affiliate.account_created"
	EventPointsEarned     = "affiliate.points_earned"
	EventPointsRedeemed   = "affiliate.points_redeemed"
	EventCustomCodeSet    = "affiliate.custom_code_set"
	EventLedgerReconciled = "affiliate.ledger_reconciled"
)

// AccountCreatedEvent is raised once per external identity.
type AccountCreatedEvent struct {
	shared.BaseEvent
	ExternalUserID string
	Code           string
}

func newAccountCreatedEvent(a *AffiliateAccount) *AccountCreatedEvent {
	return &AccountCreatedEvent{
		BaseEvent:      shared.NewBaseEvent(EventAccountCreated, a.id.String()),
		ExternalUserID: a.externalUserID,
		Code:           a.code,
	}
}

func (e *AccountCreatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"external_user_id": e.ExternalUserID,
		"code":             e.Code,
	}
}

// PointsEarnedEvent is raised for every positive ledger entry.
type PointsEarnedEvent struct {
	shared.BaseEvent
	TransactionID string
	Amount        int64
	Category      TransactionCategory
	TotalPoints   int64
}

func newPointsEarnedEvent(a *AffiliateAccount, tx *PointTransaction) *PointsEarnedEvent {
	return &PointsEarnedEvent{
		BaseEvent:     shared.NewBaseEvent(EventPointsEarned, a.id.String()),
		TransactionID: tx.id.String(),
		Amount:        tx.amount,
		Category:      tx.category,
		TotalPoints:   a.totalPoints,
	}
}

func (e *PointsEarnedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"transaction_id": e.TransactionID,
		"amount":         e.Amount,
		"category":       string(e.Category),
		"total_points":   e.TotalPoints,
	}
}

// PointsRedeemedEvent is raised for every redemption.
type PointsRedeemedEvent struct {
	shared.BaseEvent
	TransactionID   string
	Amount          int64
	Reason          string
	AvailablePoints int64
}

func newPointsRedeemedEvent(a *AffiliateAccount, tx *PointTransaction) *PointsRedeemedEvent {
	return &PointsRedeemedEvent{
		BaseEvent:       shared.NewBaseEvent(EventPointsRedeemed, a.id.String()),
		TransactionID:   tx.id.String(),
		Amount:          -tx.amount,
		Reason:          tx.reason,
		AvailablePoints: a.AvailablePoints(),
	}
}

func (e *PointsRedeemedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"transaction_id":   e.TransactionID,
		"amount":           e.Amount,
		"reason":           e.Reason,
		"available_points": e.AvailablePoints,
	}
}

// CustomCodeSetEvent is raised when a vanity code is assigned or replaced.
type CustomCodeSetEvent struct {
	shared.BaseEvent
	CustomCode string
}

func (e *CustomCodeSetEvent) Payload() map[string]interface{} {
	return map[string]interface{}{"custom_code": e.CustomCode}
}

// LedgerReconciledEvent records a counter correction made from the log.
type LedgerReconciledEvent struct {
	shared.BaseEvent
	PreviousTotal    int64
	PreviousRedeemed int64
	PreviousEarnings decimal.Decimal
	TotalPoints      int64
	RedeemedPoints   int64
	TotalEarnings    decimal.Decimal
}

func (e *LedgerReconciledEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"previous_total":    e.PreviousTotal,
		"previous_redeemed": e.PreviousRedeemed,
		"previous_earnings": e.PreviousEarnings.StringFixed(2),
		"total_points":      e.TotalPoints,
		"redeemed_points":   e.RedeemedPoints,
		"total_earnings":    e.TotalEarnings.StringFixed(2),
	}
}
