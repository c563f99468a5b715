package partner

import (
	"context"
	"time"

	"github.com/fortyseven/affiliate_ledger/src/internal/application/uow"
	"github.com/fortyseven/affiliate_ledger/src/internal/domain/partner"
)

// TransferRequest asks the payment rail to move a payout's amount.
type TransferRequest struct {
	PayoutID     string
	PayoutNumber string
	PartnerID    string
	Destination  string // connected account on the rail
	AmountMinor  int64
	Currency     string
	// IdempotencyKey makes a repeated settlement attempt safe on the rail side.
	IdempotencyKey string
}

// TransferReceipt is the rail's confirmation.
type TransferReceipt struct {
	Reference string
}

// PaymentRail settles money outside the ledger.
type PaymentRail interface {
	Transfer(ctx context.Context, req TransferRequest) (TransferReceipt, error)
}

// StatementArchive stores rendered payout statements.
type StatementArchive interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
}

// Dependencies groups the collaborators shared by the partner use cases.
type Dependencies struct {
	Partners    partner.PartnerRepository
	Commissions partner.CommissionRepository
	Payouts     partner.PayoutRepository
	Runner      *uow.Runner
	Dispatcher  *uow.Dispatcher
	Rail        PaymentRail
	Archive     StatementArchive

	// Currency is the ISO code payouts are denominated in, resolved once at
	// startup.
	Currency string
	// PayoutNumberAttempts bounds the retry on payout number collisions.
	PayoutNumberAttempts int

	Now                  func() time.Time
	GeneratePayoutNumber func(now time.Time) string
}

func (d Dependencies) now() time.Time {
	if d.Now != nil {
		return d.Now().UTC()
	}
	return time.Now().UTC()
}

func (d Dependencies) payoutNumber(now time.Time) string {
	if d.GeneratePayoutNumber != nil {
		return d.GeneratePayoutNumber(now)
	}
	return partner.GeneratePayoutNumber(now)
}
