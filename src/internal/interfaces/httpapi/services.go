// Package httpapi is the admin JSON API over the ledger use cases.
package httpapi

import (
	affiliateapp "github.com/fortyseven/affiliate_ledger/src/internal/application/affiliate"
	partnerapp "github.com/fortyseven/affiliate_ledger/src/internal/application/partner"
	"github.com/fortyseven/affiliate_ledger/src/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

// Services bundles the use cases the handlers call.
type Services struct {
	CreateAccount    *affiliateapp.CreateAccountUseCase
	GetStats         *affiliateapp.GetStatsUseCase
	FindByCode       *affiliateapp.FindByCodeUseCase
	SetCustomCode    *affiliateapp.SetCustomCodeUseCase
	EarnPoints       *affiliateapp.EarnPointsUseCase
	RedeemPoints     *affiliateapp.RedeemPointsUseCase
	ListTransactions *affiliateapp.ListTransactionsUseCase
	Reconcile        *affiliateapp.ReconcileUseCase

	CreatePartner    *partnerapp.CreatePartnerUseCase
	GetPartner       *partnerapp.GetPartnerUseCase
	GetEarnings      *partnerapp.GetPartnerEarningsUseCase
	ListPending      *partnerapp.ListPendingCommissionsUseCase
	ListPayouts      *partnerapp.ListPayoutsUseCase
	RecordCommission *partnerapp.RecordCommissionUseCase
	VoidCommission   *partnerapp.VoidCommissionUseCase
	CreatePayout     *partnerapp.CreatePayoutUseCase
	MarkPaid         *partnerapp.MarkPayoutPaidUseCase
	SettlePayout     *partnerapp.SettlePayoutUseCase

	Browser *persistence.Browser
}

// NewServices builds every use case from the two dependency sets.
func NewServices(aff affiliateapp.Dependencies, part partnerapp.Dependencies, browser *persistence.Browser, log *zap.Logger) *Services {
	markPaid := partnerapp.NewMarkPayoutPaidUseCase(part, log)
	return &Services{
		CreateAccount:    affiliateapp.NewCreateAccountUseCase(aff),
		GetStats:         affiliateapp.NewGetStatsUseCase(aff),
		FindByCode:       affiliateapp.NewFindByCodeUseCase(aff),
		SetCustomCode:    affiliateapp.NewSetCustomCodeUseCase(aff),
		EarnPoints:       affiliateapp.NewEarnPointsUseCase(aff),
		RedeemPoints:     affiliateapp.NewRedeemPointsUseCase(aff),
		ListTransactions: affiliateapp.NewListTransactionsUseCase(aff),
		Reconcile:        affiliateapp.NewReconcileUseCase(aff),

		CreatePartner:    partnerapp.NewCreatePartnerUseCase(part),
		GetPartner:       partnerapp.NewGetPartnerUseCase(part),
		GetEarnings:      partnerapp.NewGetPartnerEarningsUseCase(part),
		ListPending:      partnerapp.NewListPendingCommissionsUseCase(part),
		ListPayouts:      partnerapp.NewListPayoutsUseCase(part),
		RecordCommission: partnerapp.NewRecordCommissionUseCase(part),
		VoidCommission:   partnerapp.NewVoidCommissionUseCase(part),
		CreatePayout:     partnerapp.NewCreatePayoutUseCase(part),
		MarkPaid:         markPaid,
		SettlePayout:     partnerapp.NewSettlePayoutUseCase(part, markPaid),

		Browser: browser,
	}
}
