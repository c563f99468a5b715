package partner

import "github.com/fortyseven/affiliate_ledger/src/internal/domain/shared"

type PartnerMarker struct{}
type CommissionMarker struct{}
type PayoutMarker struct{}
type CancellationMarker struct{}

// PartnerID identifies a Partner.
type PartnerID = shared.EntityID[PartnerMarker]

// CommissionID identifies a Commission.
type CommissionID = shared.EntityID[CommissionMarker]

// PayoutID identifies a Payout.
type PayoutID = shared.EntityID[PayoutMarker]

// CancellationID identifies a CommissionCancellation.
type CancellationID = shared.EntityID[CancellationMarker]

func NewPartnerID() PartnerID {
	return shared.NewEntityID[PartnerMarker]()
}

func NewCommissionID() CommissionID {
	return shared.NewEntityID[CommissionMarker]()
}

func NewPayoutID() PayoutID {
	return shared.NewEntityID[PayoutMarker]()
}

func NewCancellationID() CancellationID {
	return shared.NewEntityID[CancellationMarker]()
}

func PartnerIDFromString(s string) (PartnerID, error) {
	return shared.EntityIDFromString[PartnerMarker](s, ErrInvalidID)
}

func CommissionIDFromString(s string) (CommissionID, error) {
	return shared.EntityIDFromString[CommissionMarker](s, ErrInvalidID)
}

func PayoutIDFromString(s string) (PayoutID, error) {
	return shared.EntityIDFromString[PayoutMarker](s, ErrInvalidID)
}

func CancellationIDFromString(s string) (CancellationID, error) {
	return shared.EntityIDFromString[CancellationMarker](s, ErrInvalidID)
}
