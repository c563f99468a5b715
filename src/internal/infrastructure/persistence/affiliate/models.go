package affiliate

import (
	"time"

	"github.com/fortyseven/affiliate_ledger/src/internal/domain/affiliate"
	"github.com/fortyseven/affiliate_ledger/src/internal/domain/shared"
	"github.com/fortyseven/affiliate_ledger/src/internal/infrastructure/persistence/gormtx"
)

// ===========================
// GORM models
// ===========================

// AccountModel maps affiliate_accounts.
//
// Constraints:
//   - external_user_id, code and custom_code are unique (custom_code nullable)
//   - chk_affiliate_accounts_balance keeps redeemed_points <= total_points,
//     so no write path can leave available points negative
type AccountModel struct {
	ID                  string  `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	ExternalUserID      string  `gorm:"column:external_user_id;type:varchar(128);uniqueIndex;not null" json:"external_user_id"`
	UserID              *string `gorm:"column:user_id;type:varchar(128);index" json:"user_id"`
	Code                string  `gorm:"column:code;type:varchar(20);uniqueIndex;not null" json:"code"`
	CustomCode          *string `gorm:"column:custom_code;type:varchar(20);uniqueIndex" json:"custom_code"`
	TotalPoints         int64   `gorm:"column:total_points;not null;default:0;check:chk_affiliate_accounts_total,total_points >= 0" json:"total_points"`
	RedeemedPoints      int64   `gorm:"column:redeemed_points;not null;default:0;check:chk_affiliate_accounts_balance,redeemed_points >= 0 AND redeemed_points <= total_points" json:"redeemed_points"`
	TotalReferrals      int     `gorm:"column:total_referrals;not null;default:0" json:"total_referrals"`
	SuccessfulReferrals int     `gorm:"column:successful_referrals;not null;default:0" json:"successful_referrals"`
	ProConversions      int     `gorm:"column:pro_conversions;not null;default:0" json:"pro_conversions"`
	TotalEarningsCents  int64   `gorm:"column:total_earnings_cents;not null;default:0" json:"total_earnings_cents"`

	Version   int       `gorm:"column:version;not null;default:1" json:"version"`
	CreatedAt time.Time `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (AccountModel) TableName() string {
	return "affiliate_accounts"
}

// TransactionModel maps point_transactions. (account_id, event_ref) is unique
// so an external event is credited at most once; NULL refs never collide.
type TransactionModel struct {
	ID            string    `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	AccountID     string    `gorm:"column:account_id;type:varchar(36);not null;index:idx_point_transactions_account_created,priority:1;uniqueIndex:idx_point_transactions_event_ref,priority:1" json:"account_id"`
	Amount        int64     `gorm:"column:amount;not null;check:chk_point_transactions_amount,amount <> 0" json:"amount"`
	Category      string    `gorm:"column:category;type:varchar(32);not null" json:"category"`
	Reason        string    `gorm:"column:reason;type:varchar(255)" json:"reason"`
	EventRef      *string   `gorm:"column:event_ref;type:varchar(128);uniqueIndex:idx_point_transactions_event_ref,priority:2" json:"event_ref"`
	EarningsCents int64     `gorm:"column:earnings_cents;not null;default:0" json:"earnings_cents"`
	CreatedAt     time.Time `gorm:"column:created_at;not null;index:idx_point_transactions_account_created,priority:2" json:"created_at"`
}

func (TransactionModel) TableName() string {
	return "point_transactions"
}

// Models lists every table of this package for AutoMigrate.
func Models() []interface{} {
	return []interface{}{&AccountModel{}, &TransactionModel{}}
}

// ===========================
// Mappers
// ===========================

func (m *AccountModel) toDomain() (*affiliate.AffiliateAccount, error) {
	id, err := affiliate.AccountIDFromString(m.ID)
	if err != nil {
		return nil, err
	}
	return affiliate.ReconstructAffiliateAccount(affiliate.AccountSnapshot{
		ID:                  id,
		ExternalUserID:      m.ExternalUserID,
		UserRef:             shared.RefFromPointer(m.UserID),
		Code:                m.Code,
		CustomCode:          shared.RefFromPointer(m.CustomCode),
		TotalPoints:         m.TotalPoints,
		RedeemedPoints:      m.RedeemedPoints,
		TotalReferrals:      m.TotalReferrals,
		SuccessfulReferrals: m.SuccessfulReferrals,
		ProConversions:      m.ProConversions,
		TotalEarnings:       gormtx.FromCents(m.TotalEarningsCents),
		Version:             m.Version,
		CreatedAt:           m.CreatedAt.UTC(),
		UpdatedAt:           m.UpdatedAt.UTC(),
	})
}

func accountToModel(a *affiliate.AffiliateAccount) (*AccountModel, error) {
	earnings, err := gormtx.ToCents(a.TotalEarnings())
	if err != nil {
		return nil, affiliate.ErrInvalidAmount.WithContext("account_id", a.ID().String(), "total_earnings", a.TotalEarnings().String())
	}
	return &AccountModel{
		ID:                  a.ID().String(),
		ExternalUserID:      a.ExternalUserID(),
		UserID:              a.UserRef().Pointer(),
		Code:                a.Code(),
		CustomCode:          a.CustomCode().Pointer(),
		TotalPoints:         a.TotalPoints(),
		RedeemedPoints:      a.RedeemedPoints(),
		TotalReferrals:      a.TotalReferrals(),
		SuccessfulReferrals: a.SuccessfulReferrals(),
		ProConversions:      a.ProConversions(),
		TotalEarningsCents:  earnings,
		Version:             a.Version(),
		CreatedAt:           a.CreatedAt(),
		UpdatedAt:           a.UpdatedAt(),
	}, nil
}

func (m *TransactionModel) toDomain() (*affiliate.PointTransaction, error) {
	id, err := affiliate.TransactionIDFromString(m.ID)
	if err != nil {
		return nil, err
	}
	accountID, err := affiliate.AccountIDFromString(m.AccountID)
	if err != nil {
		return nil, err
	}
	category, err := affiliate.ParseTransactionCategory(m.Category)
	if err != nil {
		return nil, err
	}
	return affiliate.ReconstructPointTransaction(
		id,
		accountID,
		m.Amount,
		category,
		m.Reason,
		shared.RefFromPointer(m.EventRef),
		gormtx.FromCents(m.EarningsCents),
		m.CreatedAt.UTC(),
	)
}

func transactionToModel(tx *affiliate.PointTransaction) (*TransactionModel, error) {
	earnings, err := gormtx.ToCents(tx.Earnings())
	if err != nil {
		return nil, affiliate.ErrInvalidAmount.WithContext("transaction_id", tx.ID().String(), "earnings", tx.Earnings().String())
	}
	return &TransactionModel{
		ID:            tx.ID().String(),
		AccountID:     tx.AccountID().String(),
		Amount:        tx.Amount(),
		Category:      tx.Category().String(),
		Reason:        tx.Reason(),
		EventRef:      tx.EventRef().Pointer(),
		EarningsCents: earnings,
		CreatedAt:     tx.CreatedAt(),
	}, nil
}
