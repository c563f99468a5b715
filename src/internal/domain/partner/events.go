package partner

import (
	"time"

	"github.com/fortyseven/affiliate_ledger/src/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const (
	EventPartnerCreated     = "partner.created"
	EventCommissionRecorded = "partner.commission_recorded"
	EventCommissionVoided   = "partner.commission_voided"
	EventPayoutCreated      = "partner.payout_created"
	EventPayoutPaid         = "partner.payout_paid"
)

type PartnerCreatedEvent struct {
	shared.BaseEvent
	PartnerNumber string
	Name          string
}

func (e *PartnerCreatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"partner_number": e.PartnerNumber,
		"name":           e.Name,
	}
}

type CommissionRecordedEvent struct {
	shared.BaseEvent
	CommissionID string
	Type         CommissionType
	BaseAmount   decimal.Decimal
	Rate         decimal.Decimal
	Amount       decimal.Decimal
}

func (e *CommissionRecordedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"commission_id": e.CommissionID,
		"type":          string(e.Type),
		"base_amount":   e.BaseAmount.StringFixed(2),
		"rate":          e.Rate.String(),
		"amount":        e.Amount.StringFixed(2),
	}
}

type CommissionVoidedEvent struct {
	shared.BaseEvent
	CommissionID string
	Amount       decimal.Decimal
	Reason       string
}

func (e *CommissionVoidedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"commission_id": e.CommissionID,
		"amount":        e.Amount.StringFixed(2),
		"reason":        e.Reason,
	}
}

// PayoutCreatedEvent's aggregate id is the payout id.
type PayoutCreatedEvent struct {
	shared.BaseEvent
	PartnerID       string
	PayoutNumber    string
	Amount          decimal.Decimal
	CommissionCount int
}

func (e *PayoutCreatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"partner_id":       e.PartnerID,
		"payout_number":    e.PayoutNumber,
		"amount":           e.Amount.StringFixed(2),
		"commission_count": e.CommissionCount,
	}
}

type PayoutPaidEvent struct {
	shared.BaseEvent
	PartnerID    string
	PayoutNumber string
	Amount       decimal.Decimal
	PaidAt       time.Time
}

func (e *PayoutPaidEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"partner_id":    e.PartnerID,
		"payout_number": e.PayoutNumber,
		"amount":        e.Amount.StringFixed(2),
		"paid_at":       e.PaidAt.Format(time.RFC3339),
	}
}
