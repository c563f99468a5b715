// Package ingest routes inbound external events (referred signups and
// purchases, pro conversions, closed leads, storefront sales) to the ledger
// use cases.
package ingest

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Inbound event types.
const (
	TypeReferralSignup   = "referral.signup"
	TypeReferralPurchase = "referral.purchase"
	TypeProConversion    = "pro.conversion"
	TypeLeadClosed       = "lead.closed"
	TypeShopSale         = "shop.sale"
)

// Event is the inbound wire shape. Which fields are required depends on Type.
type Event struct {
	ID                 string          `json:"event_id"`
	Type               string          `json:"type"`
	ReferrerCode       string          `json:"referrer_code,omitempty"`
	ReferredExternalID string          `json:"referred_external_id,omitempty"`
	RewardAmount       decimal.Decimal `json:"reward_amount"`
	PartnerID          string          `json:"partner_id,omitempty"`
	BaseAmount         decimal.Decimal `json:"base_amount"`
	CommissionType     string          `json:"commission_type,omitempty"`
	LeadRef            string          `json:"lead_ref,omitempty"`
	OccurredAt         time.Time       `json:"occurred_at"`
}

// Decode parses and validates one message body.
func Decode(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	ev.ID = strings.TrimSpace(ev.ID)
	if ev.ID == "" {
		return Event{}, fmt.Errorf("%w: event_id is required", ErrMalformedEvent)
	}
	switch ev.Type {
	case TypeReferralSignup, TypeReferralPurchase, TypeProConversion:
		if strings.TrimSpace(ev.ReferrerCode) == "" {
			return Event{}, fmt.Errorf("%w: referrer_code is required for %s", ErrMalformedEvent, ev.Type)
		}
	case TypeLeadClosed, TypeShopSale:
		if strings.TrimSpace(ev.PartnerID) == "" {
			return Event{}, fmt.Errorf("%w: partner_id is required for %s", ErrMalformedEvent, ev.Type)
		}
	default:
		return Event{}, fmt.Errorf("%w: unknown type %q", ErrMalformedEvent, ev.Type)
	}
	return ev, nil
}
