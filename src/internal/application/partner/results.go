package partner

import (
	"time"

	"github.com/fortyseven/affiliate_ledger/src/internal/domain/partner"
	"github.com/shopspring/decimal"
)

// PartnerResult is the API view of a partner.
type PartnerResult struct {
	PartnerID        string    `json:"partner_id"`
	PartnerNumber    string    `json:"partner_number"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone,omitempty"`
	UserRef          string    `json:"user_ref,omitempty"`
	PayoutAccountRef string    `json:"payout_account_ref,omitempty"`
	FirstSaleRate    *string   `json:"first_sale_rate"`
	RecurringRate    *string   `json:"recurring_rate"`
	ShopRate         *string   `json:"shop_commission_rate"`
	CommissionType   string    `json:"commission_type"`
	TotalEarnings    string    `json:"total_earnings"`
	CreatedAt        time.Time `json:"created_at"`
}

func newPartnerResult(p *partner.Partner) *PartnerResult {
	userRef, _ := p.UserRef().Get()
	payoutRef, _ := p.PayoutAccountRef().Get()
	rates := p.Rates()
	return &PartnerResult{
		PartnerID:        p.ID().String(),
		PartnerNumber:    p.Number(),
		Name:             p.Name(),
		Email:            p.Email(),
		Phone:            p.Phone().String(),
		UserRef:          userRef,
		PayoutAccountRef: payoutRef,
		FirstSaleRate:    rateString(rates.FirstSale),
		RecurringRate:    rateString(rates.Recurring),
		ShopRate:         rateString(rates.Shop),
		CommissionType:   p.CommissionType().String(),
		TotalEarnings:    p.TotalEarnings().StringFixed(2),
		CreatedAt:        p.CreatedAt(),
	}
}

func rateString(r decimal.NullDecimal) *string {
	if !r.Valid {
		return nil
	}
	s := r.Decimal.String()
	return &s
}

// CommissionResult is the API view of a commission.
type CommissionResult struct {
	CommissionID string     `json:"commission_id"`
	PartnerID    string     `json:"partner_id"`
	Type         string     `json:"type"`
	BaseAmount   string     `json:"base_amount"`
	Rate         string     `json:"rate"`
	Amount       string     `json:"amount"`
	Status       string     `json:"status"`
	PayoutID     string     `json:"payout_id,omitempty"`
	LeadRef      string     `json:"lead_ref,omitempty"`
	EventRef     string     `json:"event_ref,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	PaidAt       *time.Time `json:"paid_at,omitempty"`

	// Duplicate is set when the event ref was already recorded and nothing
	// was written.
	Duplicate bool `json:"duplicate,omitempty"`
}

func newCommissionResult(c *partner.Commission) CommissionResult {
	r := CommissionResult{
		CommissionID: c.ID().String(),
		PartnerID:    c.PartnerID().String(),
		Type:         c.Type().String(),
		BaseAmount:   c.BaseAmount().StringFixed(2),
		Rate:         c.Rate().String(),
		Amount:       c.Amount().StringFixed(2),
		Status:       string(c.Status()),
		CreatedAt:    c.CreatedAt(),
	}
	c.PayoutRef().Match(func(id partner.PayoutID) { r.PayoutID = id.String() }, func() {})
	r.LeadRef, _ = c.LeadRef().Get()
	r.EventRef, _ = c.EventRef().Get()
	if at := c.PaidAt(); !at.IsZero() {
		r.PaidAt = &at
	}
	return r
}

func newCommissionResults(cs []*partner.Commission) []CommissionResult {
	out := make([]CommissionResult, 0, len(cs))
	for _, c := range cs {
		out = append(out, newCommissionResult(c))
	}
	return out
}

// PayoutResult is the API view of a payout.
type PayoutResult struct {
	PayoutID      string     `json:"payout_id"`
	PartnerID     string     `json:"partner_id"`
	PayoutNumber  string     `json:"payout_number"`
	Amount        string     `json:"amount"`
	Currency      string     `json:"currency"`
	Status        string     `json:"status"`
	CommissionIDs []string   `json:"commission_ids"`
	CreatedAt     time.Time  `json:"created_at"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
}

func newPayoutResult(p *partner.Payout) *PayoutResult {
	r := &PayoutResult{
		PayoutID:      p.ID().String(),
		PartnerID:     p.PartnerID().String(),
		PayoutNumber:  p.Number(),
		Amount:        p.Amount().StringFixed(2),
		Currency:      p.Currency(),
		Status:        string(p.Status()),
		CommissionIDs: make([]string, 0, len(p.CommissionIDs())),
		CreatedAt:     p.CreatedAt(),
	}
	for _, id := range p.CommissionIDs() {
		r.CommissionIDs = append(r.CommissionIDs, id.String())
	}
	if at := p.PaidAt(); !at.IsZero() {
		r.PaidAt = &at
	}
	return r
}

// EarningsResult compares the stored earnings aggregate with the sum of
// commission rows.
type EarningsResult struct {
	PartnerID  string `json:"partner_id"`
	Stored     string `json:"stored"`
	Recomputed string `json:"recomputed"`
	Pending    string `json:"pending"`
	Included   string `json:"included"`
	Paid       string `json:"paid"`
	Consistent bool   `json:"consistent"`
}

func newEarningsResult(e partner.Earnings) *EarningsResult {
	return &EarningsResult{
		PartnerID:  e.PartnerID.String(),
		Stored:     e.Stored.StringFixed(2),
		Recomputed: e.Recomputed.StringFixed(2),
		Pending:    e.Pending.StringFixed(2),
		Included:   e.Included.StringFixed(2),
		Paid:       e.Paid.StringFixed(2),
		Consistent: e.Consistent(),
	}
}
