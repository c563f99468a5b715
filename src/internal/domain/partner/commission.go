package partner

import (
	"time"

	"github.com/fortyseven/affiliate_ledger/src/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ===========================
// Commission entity
// ===========================

// CommissionStatus is the commission state machine:
//
//	PENDING -> INCLUDED -> PAID
//	PENDING -> VOIDED (with a CommissionCancellation record)
type CommissionStatus string

const (
	CommissionPending  CommissionStatus = "PENDING"
	CommissionIncluded CommissionStatus = "INCLUDED"
	CommissionPaid     CommissionStatus = "PAID"
	CommissionVoided   CommissionStatus = "VOIDED"
)

// ParseCommissionStatus accepts the persisted string form.
func ParseCommissionStatus(s string) (CommissionStatus, error) {
	st := CommissionStatus(s)
	switch st {
	case CommissionPending, CommissionIncluded, CommissionPaid, CommissionVoided:
		return st, nil
	}
	return "", ErrInvariantViolation.WithContext("commission_status", s)
}

// Commission 佣金實體（夥伴因一次合格事件應得的金額）
//
// 業務不變條件：
//   - rate 與 amount 在建立時固定，之後不再重算
//   - amount = round(base * rate / 100, 2)
//   - 狀態只能 PENDING -> INCLUDED -> PAID 或 PENDING -> VOIDED
//   - 同一夥伴不會有兩筆相同 eventRef 的佣金
type Commission struct {
	id             CommissionID
	partnerID      PartnerID
	commissionType CommissionType
	baseAmount     decimal.Decimal
	rate           decimal.Decimal
	amount         decimal.Decimal
	status         CommissionStatus
	payoutRef      shared.Ref[PayoutID]
	leadRef        shared.Ref[string]
	eventRef       shared.Ref[string]
	createdAt      time.Time
	paidAt         time.Time
}

// newCommission runs the calculator; only Partner.EarnCommission calls it.
func newCommission(partnerID PartnerID, t CommissionType, base decimal.Decimal, rate decimal.NullDecimal, leadRef, eventRef shared.Ref[string]) (*Commission, error) {
	amount, err := CalculateCommission(base, rate)
	if err != nil {
		return nil, err
	}
	return &Commission{
		id:             NewCommissionID(),
		partnerID:      partnerID,
		commissionType: t,
		baseAmount:     base,
		rate:           rate.Decimal,
		amount:         amount,
		status:         CommissionPending,
		payoutRef:      shared.Unlinked[PayoutID](),
		leadRef:        leadRef,
		eventRef:       eventRef,
		createdAt:      time.Now().UTC(),
	}, nil
}

// CommissionSnapshot carries persisted state into ReconstructCommission.
type CommissionSnapshot struct {
	ID         CommissionID
	PartnerID  PartnerID
	Type       CommissionType
	BaseAmount decimal.Decimal
	Rate       decimal.Decimal
	Amount     decimal.Decimal
	Status     CommissionStatus
	PayoutRef  shared.Ref[PayoutID]
	LeadRef    shared.Ref[string]
	EventRef   shared.Ref[string]
	CreatedAt  time.Time
	PaidAt     time.Time
}

// ReconstructCommission rebuilds a commission from storage.
func ReconstructCommission(s CommissionSnapshot) (*Commission, error) {
	if s.ID.IsEmpty() || s.PartnerID.IsEmpty() {
		return nil, ErrInvalidID.WithContext("reason", "empty commission or partner id in storage")
	}
	if s.Amount.IsNegative() {
		return nil, ErrInvariantViolation.WithContext("commission_id", s.ID.String(), "amount", s.Amount.String())
	}
	// INCLUDED and PAID rows always point at a payout.
	if (s.Status == CommissionIncluded || s.Status == CommissionPaid) && !s.PayoutRef.IsLinked() {
		return nil, ErrInvariantViolation.WithContext("commission_id", s.ID.String(), "status", string(s.Status), "reason", "missing payout")
	}
	return &Commission{
		id:             s.ID,
		partnerID:      s.PartnerID,
		commissionType: s.Type,
		baseAmount:     s.BaseAmount,
		rate:           s.Rate,
		amount:         s.Amount,
		status:         s.Status,
		payoutRef:      s.PayoutRef,
		leadRef:        s.LeadRef,
		eventRef:       s.EventRef,
		createdAt:      s.CreatedAt,
		paidAt:         s.PaidAt,
	}, nil
}

func (c *Commission) ID() CommissionID {
	return c.id
}

func (c *Commission) PartnerID() PartnerID {
	return c.partnerID
}

func (c *Commission) Type() CommissionType {
	return c.commissionType
}

func (c *Commission) BaseAmount() decimal.Decimal {
	return c.baseAmount
}

func (c *Commission) Rate() decimal.Decimal {
	return c.rate
}

func (c *Commission) Amount() decimal.Decimal {
	return c.amount
}

func (c *Commission) Status() CommissionStatus {
	return c.status
}

func (c *Commission) PayoutRef() shared.Ref[PayoutID] {
	return c.payoutRef
}

func (c *Commission) LeadRef() shared.Ref[string] {
	return c.leadRef
}

// EventRef identifies the external event the commission was recorded for.
// A partner never holds two commissions with the same linked ref.
func (c *Commission) EventRef() shared.Ref[string] {
	return c.eventRef
}

func (c *Commission) CreatedAt() time.Time {
	return c.createdAt
}

// PaidAt is zero until the owning payout is settled.
func (c *Commission) PaidAt() time.Time {
	return c.paidAt
}

// IsClaimable reports whether the commission can join a payout.
func (c *Commission) IsClaimable() bool {
	return c.status == CommissionPending && !c.payoutRef.IsLinked()
}

// includeIn assigns the commission to a payout owned by partnerID.
func (c *Commission) includeIn(payoutID PayoutID, partnerID PartnerID) error {
	if !c.partnerID.Equals(partnerID) {
		return ErrCommissionNotEligible.WithContext(
			"commission_id", c.id.String(),
			"reason", "belongs to another partner",
		)
	}
	if !c.IsClaimable() {
		return ErrCommissionNotEligible.WithContext(
			"commission_id", c.id.String(),
			"status", string(c.status),
			"reason", "not pending or already assigned",
		)
	}
	c.status = CommissionIncluded
	c.payoutRef = shared.Linked(payoutID)
	return nil
}

// markPaid cascades settlement from the owning payout.
func (c *Commission) markPaid(payoutID PayoutID, at time.Time) error {
	if c.status == CommissionPaid {
		return ErrAlreadyPaid.WithContext("commission_id", c.id.String())
	}
	owner, ok := c.payoutRef.Get()
	if c.status != CommissionIncluded || !ok || !owner.Equals(payoutID) {
		return ErrCommissionNotEligible.WithContext(
			"commission_id", c.id.String(),
			"status", string(c.status),
			"reason", "not included in this payout",
		)
	}
	c.status = CommissionPaid
	c.paidAt = at
	return nil
}

// void moves a PENDING commission to VOIDED.
func (c *Commission) void() error {
	switch c.status {
	case CommissionPaid:
		return ErrAlreadyPaid.WithContext("commission_id", c.id.String())
	case CommissionPending:
		if c.payoutRef.IsLinked() {
			break
		}
		c.status = CommissionVoided
		return nil
	}
	return ErrCommissionNotEligible.WithContext(
		"commission_id", c.id.String(),
		"status", string(c.status),
		"reason", "only pending commissions can be voided",
	)
}
