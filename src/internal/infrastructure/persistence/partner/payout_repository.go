package partner

import (
	"errors"

	"github.com/fortyseven/affiliate_ledger/src/internal/domain/partner"
	"github.com/fortyseven/affiliate_ledger/src/internal/domain/shared"
	"github.com/fortyseven/affiliate_ledger/src/internal/infrastructure/persistence/gormtx"
	"gorm.io/gorm"
)

// GORMPayoutRepository persists payouts. Commission membership is read back
// from partner_commissions.payout_id.
type GORMPayoutRepository struct {
	db *gorm.DB
}

// NewPayoutRepository creates the GORM repository.
func NewPayoutRepository(db *gorm.DB) partner.PayoutRepository {
	return &GORMPayoutRepository{db: db}
}

func (r *GORMPayoutRepository) Save(ctx shared.TransactionContext, p *partner.Payout) error {
	db := gormtx.DB(ctx, r.db)
	m, err := payoutToModel(p)
	if err != nil {
		return err
	}

	if err := db.Create(m).Error; err != nil {
		if gormtx.IsUniqueConstraintError(err) {
			return partner.ErrPayoutNumberTaken.WithContext("payout_number", p.Number())
		}
		return err
	}
	return nil
}

func (r *GORMPayoutRepository) FindByID(ctx shared.TransactionContext, id partner.PayoutID) (*partner.Payout, error) {
	db := gormtx.DB(ctx, r.db)

	var model PayoutModel
	if err := db.First(&model, "id = ?", id.String()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, partner.ErrPayoutNotFound.WithContext("payout_id", id.String())
		}
		return nil, err
	}

	members, err := r.commissionIDs(db, []string{model.ID})
	if err != nil {
		return nil, err
	}
	return model.toDomain(members[model.ID])
}

// MarkPaid is the storage half of settlement:
//
//	UPDATE partner_payouts SET status = 'PAID', paid_at = ?, version = version + 1
//	WHERE id = ? AND status = 'PENDING'
//
// so a payout is paid at most once even under concurrent settlement.
func (r *GORMPayoutRepository) MarkPaid(ctx shared.TransactionContext, p *partner.Payout) error {
	db := gormtx.DB(ctx, r.db)

	result := db.Model(&PayoutModel{}).
		Where("id = ? AND status = ?", p.ID().String(), string(partner.PayoutPending)).
		Updates(map[string]interface{}{
			"status":  string(partner.PayoutPaid),
			"paid_at": p.PaidAt(),
			"version": gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := db.Model(&PayoutModel{}).Where("id = ?", p.ID().String()).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return partner.ErrPayoutNotFound.WithContext("payout_id", p.ID().String())
		}
		return partner.ErrAlreadyPaid.WithContext("payout_id", p.ID().String(), "payout_number", p.Number())
	}

	p.AdvanceVersion()
	return nil
}

// ListByPartner returns the partner's payouts, newest first.
func (r *GORMPayoutRepository) ListByPartner(ctx shared.TransactionContext, partnerID partner.PartnerID) ([]*partner.Payout, error) {
	db := gormtx.DB(ctx, r.db)

	var models []PayoutModel
	err := db.Where("partner_id = ?", partnerID.String()).
		Order("created_at DESC").Order("id DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}

	ids := make([]string, len(models))
	for i := range models {
		ids[i] = models[i].ID
	}
	members, err := r.commissionIDs(db, ids)
	if err != nil {
		return nil, err
	}

	out := make([]*partner.Payout, 0, len(models))
	for i := range models {
		p, err := models[i].toDomain(members[models[i].ID])
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

type payoutMember struct {
	ID       string
	PayoutID string
}

func (r *GORMPayoutRepository) commissionIDs(db *gorm.DB, payoutIDs []string) (map[string][]string, error) {
	var rows []payoutMember
	err := db.Model(&CommissionModel{}).
		Select("id, payout_id").
		Where("payout_id IN ?", payoutIDs).
		Order("created_at ASC").Order("id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string][]string, len(payoutIDs))
	for _, row := range rows {
		out[row.PayoutID] = append(out[row.PayoutID], row.ID)
	}
	return out, nil
}
