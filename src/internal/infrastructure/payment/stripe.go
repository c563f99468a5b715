// Package payment settles payouts on Stripe Connect.
package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	partnerapp "github.com/fortyseven/affiliate_ledger/src/internal/application/partner"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/transfer"
)

type Config struct {
	SecretKey string
	// BaseURL overrides the API host, for a local Stripe double.
	BaseURL    string
	HTTPClient *http.Client
}

// StripeRail moves payout amounts to the partner's connected account with a
// Transfer. The payout number is the idempotency key, so a settlement retried
// after a timeout never pays twice.
type StripeRail struct {
	transfers *transfer.Client
}

func NewStripeRail(cfg Config) (*StripeRail, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("stripe rail requires a secret key")
	}
	backendCfg := &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(2),
	}
	if cfg.BaseURL != "" {
		backendCfg.URL = stripe.String(strings.TrimRight(cfg.BaseURL, "/"))
	}
	if cfg.HTTPClient != nil {
		backendCfg.HTTPClient = cfg.HTTPClient
	}
	return &StripeRail{
		transfers: &transfer.Client{
			B:   stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg),
			Key: cfg.SecretKey,
		},
	}, nil
}

func (r *StripeRail) Transfer(ctx context.Context, req partnerapp.TransferRequest) (partnerapp.TransferReceipt, error) {
	params := &stripe.TransferParams{
		Amount:        stripe.Int64(req.AmountMinor),
		Currency:      stripe.String(strings.ToLower(req.Currency)),
		Destination:   stripe.String(req.Destination),
		TransferGroup: stripe.String(req.PayoutNumber),
		Description:   stripe.String("Partner payout " + req.PayoutNumber),
	}
	params.Context = ctx
	params.SetIdempotencyKey(req.IdempotencyKey)
	params.AddMetadata("payout_id", req.PayoutID)
	params.AddMetadata("partner_id", req.PartnerID)

	tr, err := r.transfers.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			return partnerapp.TransferReceipt{}, fmt.Errorf("stripe transfer %s: %s (%s): %w", req.PayoutNumber, stripeErr.Msg, stripeErr.Code, err)
		}
		return partnerapp.TransferReceipt{}, fmt.Errorf("stripe transfer %s: %w", req.PayoutNumber, err)
	}
	return partnerapp.TransferReceipt{Reference: tr.ID}, nil
}
