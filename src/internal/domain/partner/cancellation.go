package partner

import (
	"time"

	"github.com/shopspring/decimal"
)

// CommissionCancellation is the audit record written when a PENDING
// commission is voided. The commission row itself is never deleted.
type CommissionCancellation struct {
	id           CancellationID
	commissionID CommissionID
	partnerID    PartnerID
	amount       decimal.Decimal
	reason       string
	createdAt    time.Time
}

// ReconstructCancellation rebuilds a record from storage.
func ReconstructCancellation(id CancellationID, commissionID CommissionID, partnerID PartnerID, amount decimal.Decimal, reason string, createdAt time.Time) *CommissionCancellation {
	return &CommissionCancellation{
		id:           id,
		commissionID: commissionID,
		partnerID:    partnerID,
		amount:       amount,
		reason:       reason,
		createdAt:    createdAt,
	}
}

func (c *CommissionCancellation) ID() CancellationID {
	return c.id
}

func (c *CommissionCancellation) CommissionID() CommissionID {
	return c.commissionID
}

func (c *CommissionCancellation) PartnerID() PartnerID {
	return c.partnerID
}

func (c *CommissionCancellation) Amount() decimal.Decimal {
	return c.amount
}

func (c *CommissionCancellation) Reason() string {
	return c.reason
}

func (c *CommissionCancellation) CreatedAt() time.Time {
	return c.createdAt
}
