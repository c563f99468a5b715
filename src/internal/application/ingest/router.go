package ingest

import (
	"context"
	"errors"
	"fmt"

	affiliateapp "github.com/fortyseven/affiliate_ledger/src/internal/application/affiliate"
	partnerapp "github.com/fortyseven/affiliate_ledger/src/internal/application/partner"
	"github.com/fortyseven/affiliate_ledger/src/internal/domain/affiliate"
	"github.com/fortyseven/affiliate_ledger/src/internal/domain/partner"
	"github.com/fortyseven/affiliate_ledger/src/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrMalformedEvent marks a message that can never be processed.
var ErrMalformedEvent = errors.New("malformed inbound event")

// Deduplicator remembers which event ids were already handled. It only
// saves work: every handler is idempotent on the event id in storage, so a
// lost or failed mark costs a replay, never a double write.
type Deduplicator interface {
	// Seen reports whether key was marked processed.
	Seen(ctx context.Context, key string) (bool, error)
	// MarkProcessed records key once the event is handled for good.
	MarkProcessed(ctx context.Context, key string) error
}

type (
	ReferralSignupHandler interface {
		Execute(ctx context.Context, cmd affiliateapp.RecordReferralSignupCommand) (*affiliateapp.LedgerResult, error)
	}
	ReferralPurchaseHandler interface {
		Execute(ctx context.Context, cmd affiliateapp.RecordReferralPurchaseCommand) (*affiliateapp.LedgerResult, error)
	}
	ProConversionHandler interface {
		Execute(ctx context.Context, cmd affiliateapp.RecordProConversionCommand) (*affiliateapp.LedgerResult, error)
	}
	CommissionHandler interface {
		Execute(ctx context.Context, cmd partnerapp.RecordCommissionCommand) (*partnerapp.CommissionResult, error)
	}
)

// Handlers are the use cases events are routed to.
type Handlers struct {
	ReferralSignup   ReferralSignupHandler
	ReferralPurchase ReferralPurchaseHandler
	ProConversion    ProConversionHandler
	Commission       CommissionHandler
}

// Router dispatches decoded events. Business rejections (domain errors) are
// logged and dropped since redelivering them cannot succeed; anything else
// is returned so the transport redelivers.
type Router struct {
	handlers Handlers
	dedup    Deduplicator
	log      *zap.Logger
}

func NewRouter(handlers Handlers, dedup Deduplicator, log *zap.Logger) *Router {
	if dedup == nil {
		dedup = noDedup{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{handlers: handlers, dedup: dedup, log: log}
}

// HandleMessage decodes and routes one raw message.
func (r *Router) HandleMessage(ctx context.Context, body []byte) error {
	ev, err := Decode(body)
	if err != nil {
		r.log.Warn("dropping inbound event", zap.Error(err))
		return nil
	}
	return r.Handle(ctx, ev)
}

// Handle routes ev. The event is marked processed only after the handler
// finished with it, so a crash mid-handler leads to a redelivery that runs
// again and hits the storage-level event ref check.
func (r *Router) Handle(ctx context.Context, ev Event) error {
	key := "ingest:" + ev.ID
	seen, err := r.dedup.Seen(ctx, key)
	if err != nil {
		r.log.Warn("dedup lookup failed, processing anyway", zap.String("event_id", ev.ID), zap.Error(err))
	}
	if seen {
		r.log.Debug("skipping duplicate inbound event", zap.String("event_id", ev.ID), zap.String("type", ev.Type))
		return nil
	}

	err = r.route(ctx, ev)
	if err != nil && !permanent(err) {
		return err
	}
	if err != nil {
		r.log.Warn("inbound event rejected",
			zap.String("event_id", ev.ID),
			zap.String("type", ev.Type),
			zap.Error(err),
		)
	}

	if markErr := r.dedup.MarkProcessed(ctx, key); markErr != nil {
		r.log.Warn("dedup mark failed", zap.String("event_id", ev.ID), zap.Error(markErr))
	}
	return nil
}

func (r *Router) route(ctx context.Context, ev Event) error {
	var err error
	switch ev.Type {
	case TypeReferralSignup:
		_, err = r.handlers.ReferralSignup.Execute(ctx, affiliateapp.RecordReferralSignupCommand{
			ReferrerCode:       ev.ReferrerCode,
			ReferredExternalID: ev.ReferredExternalID,
			EventRef:           ev.ID,
		})
	case TypeReferralPurchase:
		_, err = r.handlers.ReferralPurchase.Execute(ctx, affiliateapp.RecordReferralPurchaseCommand{
			ReferrerCode: ev.ReferrerCode,
			EventRef:     ev.ID,
			RewardAmount: ev.RewardAmount,
		})
	case TypeProConversion:
		_, err = r.handlers.ProConversion.Execute(ctx, affiliateapp.RecordProConversionCommand{
			ReferrerCode: ev.ReferrerCode,
			EventRef:     ev.ID,
		})
	case TypeLeadClosed:
		_, err = r.handlers.Commission.Execute(ctx, partnerapp.RecordCommissionCommand{
			PartnerID:  ev.PartnerID,
			Type:       ev.CommissionType,
			BaseAmount: ev.BaseAmount,
			LeadRef:    ev.LeadRef,
			EventRef:   ev.ID,
		})
	case TypeShopSale:
		_, err = r.handlers.Commission.Execute(ctx, partnerapp.RecordCommissionCommand{
			PartnerID:  ev.PartnerID,
			Type:       "SHOP",
			BaseAmount: ev.BaseAmount,
			LeadRef:    ev.LeadRef,
			EventRef:   ev.ID,
		})
	default:
		err = fmt.Errorf("%w: unknown type %q", ErrMalformedEvent, ev.Type)
	}
	return err
}

// permanent reports errors a redelivery cannot fix. Version conflicts are
// domain errors too but clear up on their own.
func permanent(err error) bool {
	if errors.Is(err, ErrMalformedEvent) {
		return true
	}
	if errors.Is(err, affiliate.ErrConcurrentModification) || errors.Is(err, partner.ErrConcurrentModification) {
		return false
	}
	_, business := shared.CodeOf(err)
	return business
}

type noDedup struct{}

func (noDedup) Seen(context.Context, string) (bool, error)  { return false, nil }
func (noDedup) MarkProcessed(context.Context, string) error { return nil }
