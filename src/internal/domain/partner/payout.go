package partner

import (
	"strings"
	"time"

	"github.com/fortyseven/affiliate_ledger/src/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ===========================
// Payout aggregate
// ===========================

// PayoutStatus is PENDING -> PAID, terminal.
type PayoutStatus string

const (
	PayoutPending PayoutStatus = "PENDING"
	PayoutPaid    PayoutStatus = "PAID"
)

func ParsePayoutStatus(s string) (PayoutStatus, error) {
	st := PayoutStatus(s)
	if st == PayoutPending || st == PayoutPaid {
		return st, nil
	}
	return "", ErrInvariantViolation.WithContext("payout_status", s)
}

// Payout batches a partner's commissions into one settlement.
//
// Invariants:
//   - amount equals the sum of the included commission amounts at creation
//   - every included commission was PENDING, unassigned and owned by partnerID
//   - once PAID nothing changes
type Payout struct {
	id            PayoutID
	partnerID     PartnerID
	number        string
	amount        decimal.Decimal
	currency      string
	status        PayoutStatus
	commissionIDs []CommissionID
	createdAt     time.Time
	paidAt        time.Time
	version       int

	events []shared.DomainEvent
}

// NewPayout validates and claims commissions in memory. It is all or
// nothing: on any error no commission is modified.
func NewPayout(partnerID PartnerID, number, currency string, commissions []*Commission) (*Payout, error) {
	if len(commissions) == 0 {
		return nil, ErrEmptyPayout.WithContext("partner_id", partnerID.String())
	}
	if !ValidatePayoutNumber(number) {
		return nil, ErrInvariantViolation.WithContext("payout_number", number, "reason", "malformed payout number")
	}

	seen := make(map[CommissionID]struct{}, len(commissions))
	total := decimal.Zero
	for _, c := range commissions {
		if _, dup := seen[c.ID()]; dup {
			return nil, ErrCommissionNotEligible.WithContext(
				"commission_id", c.ID().String(),
				"reason", "listed twice",
			)
		}
		seen[c.ID()] = struct{}{}

		if !c.PartnerID().Equals(partnerID) {
			return nil, ErrCommissionNotEligible.WithContext(
				"commission_id", c.ID().String(),
				"reason", "belongs to another partner",
			)
		}
		if !c.IsClaimable() {
			return nil, ErrCommissionNotEligible.WithContext(
				"commission_id", c.ID().String(),
				"status", string(c.Status()),
				"reason", "not pending or already assigned",
			)
		}
		total = total.Add(c.Amount())
	}

	p := &Payout{
		id:            NewPayoutID(),
		partnerID:     partnerID,
		number:        number,
		amount:        total,
		currency:      strings.ToLower(currency),
		status:        PayoutPending,
		commissionIDs: make([]CommissionID, 0, len(commissions)),
		createdAt:     time.Now().UTC(),
		version:       1,
	}
	for _, c := range commissions {
		// Checked above; cannot fail.
		if err := c.includeIn(p.id, partnerID); err != nil {
			return nil, err
		}
		p.commissionIDs = append(p.commissionIDs, c.ID())
	}

	p.events = append(p.events, &PayoutCreatedEvent{
		BaseEvent:       shared.NewBaseEvent(EventPayoutCreated, p.id.String()),
		PartnerID:       partnerID.String(),
		PayoutNumber:    number,
		Amount:          total,
		CommissionCount: len(commissions),
	})
	return p, nil
}

// PayoutSnapshot carries persisted state into ReconstructPayout.
type PayoutSnapshot struct {
	ID            PayoutID
	PartnerID     PartnerID
	Number        string
	Amount        decimal.Decimal
	Currency      string
	Status        PayoutStatus
	CommissionIDs []CommissionID
	CreatedAt     time.Time
	PaidAt        time.Time
	Version       int
}

// ReconstructPayout rebuilds a payout from storage.
func ReconstructPayout(s PayoutSnapshot) (*Payout, error) {
	if s.ID.IsEmpty() || s.PartnerID.IsEmpty() {
		return nil, ErrInvalidID.WithContext("reason", "empty payout or partner id in storage")
	}
	if s.Status == PayoutPaid && s.PaidAt.IsZero() {
		return nil, ErrInvariantViolation.WithContext("payout_id", s.ID.String(), "reason", "paid payout without paid_at")
	}
	ids := make([]CommissionID, len(s.CommissionIDs))
	copy(ids, s.CommissionIDs)
	return &Payout{
		id:            s.ID,
		partnerID:     s.PartnerID,
		number:        s.Number,
		amount:        s.Amount,
		currency:      s.Currency,
		status:        s.Status,
		commissionIDs: ids,
		createdAt:     s.CreatedAt,
		paidAt:        s.PaidAt,
		version:       s.Version,
	}, nil
}

func (p *Payout) ID() PayoutID {
	return p.id
}

func (p *Payout) PartnerID() PartnerID {
	return p.partnerID
}

func (p *Payout) Number() string {
	return p.number
}

func (p *Payout) Amount() decimal.Decimal {
	return p.amount
}

func (p *Payout) Currency() string {
	return p.currency
}

func (p *Payout) Status() PayoutStatus {
	return p.status
}

// CommissionIDs returns a copy of the included commission ids.
func (p *Payout) CommissionIDs() []CommissionID {
	ids := make([]CommissionID, len(p.commissionIDs))
	copy(ids, p.commissionIDs)
	return ids
}

func (p *Payout) CreatedAt() time.Time {
	return p.createdAt
}

func (p *Payout) PaidAt() time.Time {
	return p.paidAt
}

func (p *Payout) Version() int {
	return p.version
}

func (p *Payout) IsPaid() bool {
	return p.status == PayoutPaid
}

// AmountInMinorUnits converts the amount to cents for payment rails.
func (p *Payout) AmountInMinorUnits() int64 {
	return p.amount.Shift(2).Round(0).IntPart()
}

// MarkPaid settles the payout and cascades PAID to commissions, which must be
// exactly the included set. Calling it on a PAID payout fails with
// ErrAlreadyPaid and changes nothing.
func (p *Payout) MarkPaid(at time.Time, commissions []*Commission) error {
	if p.status == PayoutPaid {
		return ErrAlreadyPaid.WithContext("payout_id", p.id.String(), "payout_number", p.number)
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}

	want := make(map[CommissionID]struct{}, len(p.commissionIDs))
	for _, id := range p.commissionIDs {
		want[id] = struct{}{}
	}
	if len(commissions) != len(want) {
		return ErrInvariantViolation.WithContext(
			"payout_id", p.id.String(),
			"expected_commissions", len(want),
			"got_commissions", len(commissions),
		)
	}
	for _, c := range commissions {
		if _, ok := want[c.ID()]; !ok {
			return ErrCommissionNotEligible.WithContext("commission_id", c.ID().String(), "reason", "not part of this payout")
		}
		if c.Status() != CommissionIncluded {
			return ErrCommissionNotEligible.WithContext("commission_id", c.ID().String(), "status", string(c.Status()))
		}
	}

	for _, c := range commissions {
		if err := c.markPaid(p.id, at); err != nil {
			return err
		}
	}
	p.status = PayoutPaid
	p.paidAt = at
	p.events = append(p.events, &PayoutPaidEvent{
		BaseEvent:    shared.NewBaseEvent(EventPayoutPaid, p.id.String()),
		PartnerID:    p.partnerID.String(),
		PayoutNumber: p.number,
		Amount:       p.amount,
		PaidAt:       at,
	})
	return nil
}

// AdvanceVersion is called by the repository after a versioned write.
func (p *Payout) AdvanceVersion() {
	p.version++
}

// PullEvents returns and clears the pending events.
func (p *Payout) PullEvents() []shared.DomainEvent {
	events := p.events
	p.events = nil
	return events
}
