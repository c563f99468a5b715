package affiliate

import (
	"errors"
	"strings"

	"github.com/fortyseven/affiliate_ledger/src/internal/domain/affiliate"
	"github.com/fortyseven/affiliate_ledger/src/internal/domain/shared"
	"github.com/fortyseven/affiliate_ledger/src/internal/infrastructure/persistence/gormtx"
	"gorm.io/gorm"
)

// ===========================
// GORM AccountRepository
// ===========================

// GORMAccountRepository 推薦帳戶的 GORM 實作
//
// 職責：
//   - Domain <-> GORM 轉換（toDomain、accountToModel）
//   - 以 version 欄位做樂觀鎖
//   - 將約束違反轉換為領域錯誤
//
// 設計原則：
//   - 不包含業務邏輯；redeemed_points 的 CHECK 約束只是聚合規則的儲存層備援
//   - 金額以 int64 分儲存，超出範圍時回傳 ErrInvalidAmount 而不是溢位寫入
type GORMAccountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates the GORM repository.
func NewAccountRepository(db *gorm.DB) affiliate.AccountRepository {
	return &GORMAccountRepository{db: db}
}

// Save inserts a new account.
//
// Errors: ErrAccountAlreadyExists when external_user_id is taken,
// ErrCodeTaken when the generated code collides.
func (r *GORMAccountRepository) Save(ctx shared.TransactionContext, account *affiliate.AffiliateAccount) error {
	db := gormtx.DB(ctx, r.db)
	m, err := accountToModel(account)
	if err != nil {
		return err
	}

	if err := db.Create(m).Error; err != nil {
		if gormtx.IsUniqueConstraintError(err) {
			if strings.Contains(gormtx.ConstraintName(err), "external_user_id") {
				return affiliate.ErrAccountAlreadyExists.WithContext("external_user_id", account.ExternalUserID())
			}
			return affiliate.ErrCodeTaken.WithContext("code", account.Code())
		}
		return err
	}
	return nil
}

// Update writes every mutable column guarded by the loaded version:
//
//	UPDATE affiliate_accounts SET ..., version = version + 1
//	WHERE id = ? AND version = ?
//
// Zero rows affected means either the row is gone (ErrAccountNotFound) or a
// concurrent writer won (ErrConcurrentModification). On success the
// aggregate's version is advanced to match the row.
func (r *GORMAccountRepository) Update(ctx shared.TransactionContext, account *affiliate.AffiliateAccount) error {
	db := gormtx.DB(ctx, r.db)
	m, err := accountToModel(account)
	if err != nil {
		return err
	}

	result := db.Model(&AccountModel{}).
		Where("id = ? AND version = ?", m.ID, m.Version).
		Updates(map[string]interface{}{
			"user_id":              m.UserID,
			"custom_code":          m.CustomCode,
			"total_points":         m.TotalPoints,
			"redeemed_points":      m.RedeemedPoints,
			"total_referrals":      m.TotalReferrals,
			"successful_referrals": m.SuccessfulReferrals,
			"pro_conversions":      m.ProConversions,
			"total_earnings_cents": m.TotalEarningsCents,
			"version":              gorm.Expr("version + 1"),
			"updated_at":           m.UpdatedAt,
		})

	if result.Error != nil {
		switch {
		case gormtx.IsCheckConstraintError(result.Error):
			return affiliate.ErrInsufficientBalance.WithContext(
				"account_id", m.ID,
				"total_points", m.TotalPoints,
				"redeemed_points", m.RedeemedPoints,
			)
		case gormtx.IsUniqueConstraintError(result.Error):
			code := ""
			if m.CustomCode != nil {
				code = *m.CustomCode
			}
			return affiliate.ErrCodeTaken.WithContext("code", code)
		default:
			return result.Error
		}
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := db.Model(&AccountModel{}).Where("id = ?", m.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return affiliate.ErrAccountNotFound.WithContext("account_id", m.ID)
		}
		return affiliate.ErrConcurrentModification.WithContext(
			"account_id", m.ID,
			"expected_version", m.Version,
		)
	}

	account.AdvanceVersion()
	return nil
}

func (r *GORMAccountRepository) FindByID(ctx shared.TransactionContext, id affiliate.AccountID) (*affiliate.AffiliateAccount, error) {
	return r.findOne(ctx, "id = ?", id.String())
}

func (r *GORMAccountRepository) FindByExternalUserID(ctx shared.TransactionContext, externalUserID string) (*affiliate.AffiliateAccount, error) {
	return r.findOne(ctx, "external_user_id = ?", externalUserID)
}

// FindByCode matches either the generated or the custom code.
func (r *GORMAccountRepository) FindByCode(ctx shared.TransactionContext, code string) (*affiliate.AffiliateAccount, error) {
	return r.findOne(ctx, "code = ? OR custom_code = ?", code, code)
}

// ListIDsAfter returns up to limit account ids greater than after, ascending.
func (r *GORMAccountRepository) ListIDsAfter(ctx shared.TransactionContext, after string, limit int) ([]affiliate.AccountID, error) {
	db := gormtx.DB(ctx, r.db)

	var raw []string
	err := db.Model(&AccountModel{}).
		Where("id > ?", after).
		Order("id ASC").
		Limit(limit).
		Pluck("id", &raw).Error
	if err != nil {
		return nil, err
	}

	ids := make([]affiliate.AccountID, 0, len(raw))
	for _, s := range raw {
		id, err := affiliate.AccountIDFromString(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *GORMAccountRepository) findOne(ctx shared.TransactionContext, query string, args ...interface{}) (*affiliate.AffiliateAccount, error) {
	db := gormtx.DB(ctx, r.db)

	var model AccountModel
	if err := db.Where(query, args...).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, affiliate.ErrAccountNotFound.WithContext("lookup", args[0])
		}
		return nil, err
	}
	return model.toDomain()
}
