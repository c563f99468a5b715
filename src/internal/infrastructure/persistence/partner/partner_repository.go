package partner

import (
	"errors"

	"github.com/fortyseven/affiliate_ledger/src/internal/domain/partner"
	"github.com/fortyseven/affiliate_ledger/src/internal/domain/shared"
	"github.com/fortyseven/affiliate_ledger/src/internal/infrastructure/persistence/gormtx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const partnerNumberSequence = "partner_number"

// GORMPartnerRepository persists partners.
type GORMPartnerRepository struct {
	db *gorm.DB
}

// NewPartnerRepository creates the GORM repository.
func NewPartnerRepository(db *gorm.DB) partner.PartnerRepository {
	return &GORMPartnerRepository{db: db}
}

// Save inserts a new partner. A duplicate partner number maps to
// ErrPartnerNumberTaken.
func (r *GORMPartnerRepository) Save(ctx shared.TransactionContext, p *partner.Partner) error {
	db := gormtx.DB(ctx, r.db)
	m, err := partnerToModel(p)
	if err != nil {
		return err
	}

	if err := db.Create(m).Error; err != nil {
		if gormtx.IsUniqueConstraintError(err) {
			return partner.ErrPartnerNumberTaken.WithContext("partner_number", p.Number())
		}
		return err
	}
	return nil
}

// Update writes the partner guarded by its version and advances it on success.
func (r *GORMPartnerRepository) Update(ctx shared.TransactionContext, p *partner.Partner) error {
	db := gormtx.DB(ctx, r.db)
	m, err := partnerToModel(p)
	if err != nil {
		return err
	}

	result := db.Model(&PartnerModel{}).
		Where("id = ? AND version = ?", m.ID, m.Version).
		Updates(map[string]interface{}{
			"name":                 m.Name,
			"email":                m.Email,
			"phone":                m.Phone,
			"user_id":              m.UserID,
			"payout_account_id":    m.PayoutAccountID,
			"first_sale_rate":      m.FirstSaleRate,
			"recurring_rate":       m.RecurringRate,
			"shop_rate":            m.ShopRate,
			"commission_type":      m.CommissionType,
			"total_earnings_cents": m.TotalEarningsCents,
			"version":              gorm.Expr("version + 1"),
			"updated_at":           m.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := db.Model(&PartnerModel{}).Where("id = ?", m.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return partner.ErrPartnerNotFound.WithContext("partner_id", m.ID)
		}
		return partner.ErrConcurrentModification.WithContext("partner_id", m.ID, "expected_version", m.Version)
	}

	p.AdvanceVersion()
	return nil
}

func (r *GORMPartnerRepository) FindByID(ctx shared.TransactionContext, id partner.PartnerID) (*partner.Partner, error) {
	return r.findOne(ctx, "id = ?", id.String())
}

func (r *GORMPartnerRepository) FindByNumber(ctx shared.TransactionContext, number string) (*partner.Partner, error) {
	return r.findOne(ctx, "partner_number = ?", number)
}

// NextSequence increments the partner number counter. Run it inside the
// transaction that saves the partner so the row lock serializes callers.
func (r *GORMPartnerRepository) NextSequence(ctx shared.TransactionContext) (int64, error) {
	db := gormtx.DB(ctx, r.db)

	err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&SequenceModel{Name: partnerNumberSequence, Value: 0}).Error
	if err != nil {
		return 0, err
	}

	err = db.Model(&SequenceModel{}).
		Where("name = ?", partnerNumberSequence).
		Update("value", gorm.Expr("value + 1")).Error
	if err != nil {
		return 0, err
	}

	var seq SequenceModel
	if err := db.Where("name = ?", partnerNumberSequence).First(&seq).Error; err != nil {
		return 0, err
	}
	return seq.Value, nil
}

func (r *GORMPartnerRepository) findOne(ctx shared.TransactionContext, query string, args ...interface{}) (*partner.Partner, error) {
	db := gormtx.DB(ctx, r.db)

	var model PartnerModel
	if err := db.Where(query, args...).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, partner.ErrPartnerNotFound.WithContext("lookup", args[0])
		}
		return nil, err
	}
	return model.toDomain()
}
