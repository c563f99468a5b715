package partner

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fortyseven/affiliate_ledger/src/internal/domain/partner"
)

// Statement is the archived record of a settled payout.
type Statement struct {
	PayoutID      string          `json:"payout_id"`
	PayoutNumber  string          `json:"payout_number"`
	PartnerID     string          `json:"partner_id"`
	PartnerNumber string          `json:"partner_number"`
	PartnerName   string          `json:"partner_name"`
	Amount        string          `json:"amount"`
	Currency      string          `json:"currency"`
	CreatedAt     time.Time       `json:"created_at"`
	PaidAt        time.Time       `json:"paid_at"`
	Lines         []StatementLine `json:"lines"`
}

type StatementLine struct {
	CommissionID string `json:"commission_id"`
	Type         string `json:"type"`
	BaseAmount   string `json:"base_amount"`
	Rate         string `json:"rate"`
	Amount       string `json:"amount"`
	LeadRef      string `json:"lead_ref,omitempty"`
}

// RenderStatement encodes the statement of a paid payout as indented JSON.
func RenderStatement(owner *partner.Partner, payout *partner.Payout, commissions []*partner.Commission) ([]byte, error) {
	s := Statement{
		PayoutID:      payout.ID().String(),
		PayoutNumber:  payout.Number(),
		PartnerID:     owner.ID().String(),
		PartnerNumber: owner.Number(),
		PartnerName:   owner.Name(),
		Amount:        payout.Amount().StringFixed(2),
		Currency:      payout.Currency(),
		CreatedAt:     payout.CreatedAt(),
		PaidAt:        payout.PaidAt(),
		Lines:         make([]StatementLine, 0, len(commissions)),
	}
	for _, c := range commissions {
		lead, _ := c.LeadRef().Get()
		s.Lines = append(s.Lines, StatementLine{
			CommissionID: c.ID().String(),
			Type:         c.Type().String(),
			BaseAmount:   c.BaseAmount().StringFixed(2),
			Rate:         c.Rate().String(),
			Amount:       c.Amount().StringFixed(2),
			LeadRef:      lead,
		})
	}
	return json.MarshalIndent(s, "", "  ")
}

// StatementKey is the object key of a payout statement.
func StatementKey(owner *partner.Partner, payout *partner.Payout) string {
	return fmt.Sprintf("statements/%s/%s.json", owner.Number(), payout.Number())
}
