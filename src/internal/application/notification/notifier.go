package notification

import (
	"context"
)

// Kind names the business event a message is about.
type Kind string

const (
	KindPointsRedeemed Kind = "points_redeemed"
	KindTierChanged    Kind = "tier_changed"
	KindPayoutCreated  Kind = "payout_created"
	KindPayoutPaid     Kind = "payout_paid"
)

// Recipient carries whatever contact details the sender has. Channels skip
// recipients they cannot reach (an SMS channel ignores a missing phone).
type Recipient struct {
	Name           string
	Email          string
	Phone          string
	ExternalUserID string
}

// Message is one notification, rendered as plain text.
type Message struct {
	Kind      Kind
	Recipient Recipient
	Subject   string
	Body      string
	Data      map[string]string
}

// Notifier delivers messages over one or more channels.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Nop drops every message.
type Nop struct{}

func (Nop) Notify(context.Context, Message) error { return nil }
