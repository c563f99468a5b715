package partner

import (
	"errors"
	"time"

	"github.com/fortyseven/affiliate_ledger/src/internal/domain/partner"
	"github.com/fortyseven/affiliate_ledger/src/internal/domain/shared"
	"github.com/fortyseven/affiliate_ledger/src/internal/infrastructure/persistence/gormtx"
	"gorm.io/gorm"
)

// GORMCommissionRepository persists commissions and their cancellations.
//
// State transitions are conditional UPDATEs on the current status, so two
// payouts racing for the same commission cannot both claim it: the loser
// sees fewer affected rows and its transaction rolls back.
type GORMCommissionRepository struct {
	db *gorm.DB
}

// NewCommissionRepository creates the GORM repository.
func NewCommissionRepository(db *gorm.DB) partner.CommissionRepository {
	return &GORMCommissionRepository{db: db}
}

// Save 新增一筆佣金
//
// 參數：
//   - ctx：交易上下文；nil 時自動提交
//   - c：新建立的佣金（PENDING）
//
// 返回：
//   - error：同一夥伴重複的 event_ref 回傳 ErrDuplicateEvent，
//     由 (partner_id, event_ref) 唯一索引保證；event_ref 為 NULL 時不受限制
func (r *GORMCommissionRepository) Save(ctx shared.TransactionContext, c *partner.Commission) error {
	m, err := commissionToModel(c)
	if err != nil {
		return err
	}
	if err := gormtx.DB(ctx, r.db).Create(m).Error; err != nil {
		if gormtx.IsUniqueConstraintError(err) {
			ref, _ := c.EventRef().Get()
			return partner.ErrDuplicateEvent.WithContext("partner_id", c.PartnerID().String(), "event_ref", ref)
		}
		return err
	}
	return nil
}

// FindByEventRef returns the commission recorded for eventRef.
func (r *GORMCommissionRepository) FindByEventRef(ctx shared.TransactionContext, partnerID partner.PartnerID, eventRef string) (*partner.Commission, error) {
	db := gormtx.DB(ctx, r.db)

	var model CommissionModel
	if err := db.First(&model, "partner_id = ? AND event_ref = ?", partnerID.String(), eventRef).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, partner.ErrCommissionNotFound.WithContext("partner_id", partnerID.String(), "event_ref", eventRef)
		}
		return nil, err
	}
	return model.toDomain()
}

func (r *GORMCommissionRepository) FindByID(ctx shared.TransactionContext, id partner.CommissionID) (*partner.Commission, error) {
	db := gormtx.DB(ctx, r.db)

	var model CommissionModel
	if err := db.First(&model, "id = ?", id.String()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, partner.ErrCommissionNotFound.WithContext("commission_id", id.String())
		}
		return nil, err
	}
	return model.toDomain()
}

// FindByIDs keeps the order of ids. Any missing id fails the whole call.
func (r *GORMCommissionRepository) FindByIDs(ctx shared.TransactionContext, ids []partner.CommissionID) ([]*partner.Commission, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	db := gormtx.DB(ctx, r.db)

	raw := idStrings(ids)
	var models []CommissionModel
	if err := db.Where("id IN ?", raw).Find(&models).Error; err != nil {
		return nil, err
	}

	byID := make(map[string]*CommissionModel, len(models))
	for i := range models {
		byID[models[i].ID] = &models[i]
	}
	out := make([]*partner.Commission, 0, len(ids))
	for _, id := range raw {
		m, ok := byID[id]
		if !ok {
			return nil, partner.ErrCommissionNotFound.WithContext("commission_id", id)
		}
		c, err := m.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *GORMCommissionRepository) FindByPayout(ctx shared.TransactionContext, payoutID partner.PayoutID) ([]*partner.Commission, error) {
	return r.list(gormtx.DB(ctx, r.db).Where("payout_id = ?", payoutID.String()))
}

// ListPending returns unassigned PENDING commissions, oldest first.
func (r *GORMCommissionRepository) ListPending(ctx shared.TransactionContext, partnerID partner.PartnerID) ([]*partner.Commission, error) {
	q := gormtx.DB(ctx, r.db).
		Where("partner_id = ? AND status = ? AND payout_id IS NULL", partnerID.String(), string(partner.CommissionPending))
	return r.list(q)
}

// Claim assigns the payout's commissions:
//
//	UPDATE partner_commissions SET status = 'INCLUDED', payout_id = ?
//	WHERE id IN (?) AND partner_id = ? AND status = 'PENDING' AND payout_id IS NULL
func (r *GORMCommissionRepository) Claim(ctx shared.TransactionContext, payout *partner.Payout) error {
	db := gormtx.DB(ctx, r.db)
	ids := idStrings(payout.CommissionIDs())

	result := db.Model(&CommissionModel{}).
		Where("id IN ? AND partner_id = ? AND status = ? AND payout_id IS NULL",
			ids, payout.PartnerID().String(), string(partner.CommissionPending)).
		Updates(map[string]interface{}{
			"status":    string(partner.CommissionIncluded),
			"payout_id": payout.ID().String(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected != int64(len(ids)) {
		return partner.ErrCommissionNotEligible.WithContext(
			"payout_number", payout.Number(),
			"requested", len(ids),
			"claimed", result.RowsAffected,
			"reason", "commission claimed concurrently or no longer pending",
		)
	}
	return nil
}

// SettleForPayout flips the payout's INCLUDED commissions to PAID. Every
// commission of the payout must move.
func (r *GORMCommissionRepository) SettleForPayout(ctx shared.TransactionContext, payout *partner.Payout, paidAt time.Time) error {
	db := gormtx.DB(ctx, r.db)

	result := db.Model(&CommissionModel{}).
		Where("payout_id = ? AND status = ?", payout.ID().String(), string(partner.CommissionIncluded)).
		Updates(map[string]interface{}{
			"status":  string(partner.CommissionPaid),
			"paid_at": paidAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if want := int64(len(payout.CommissionIDs())); result.RowsAffected != want {
		return partner.ErrInvariantViolation.WithContext(
			"payout_id", payout.ID().String(),
			"expected_commissions", want,
			"settled_commissions", result.RowsAffected,
		)
	}
	return nil
}

// Void marks a PENDING commission VOIDED and records the cancellation.
func (r *GORMCommissionRepository) Void(ctx shared.TransactionContext, c *partner.Commission, cancellation *partner.CommissionCancellation) error {
	db := gormtx.DB(ctx, r.db)

	result := db.Model(&CommissionModel{}).
		Where("id = ? AND status = ? AND payout_id IS NULL", c.ID().String(), string(partner.CommissionPending)).
		Update("status", string(partner.CommissionVoided))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return partner.ErrCommissionNotEligible.WithContext(
			"commission_id", c.ID().String(),
			"reason", "commission changed before void",
		)
	}

	m, err := cancellationToModel(cancellation)
	if err != nil {
		return err
	}
	if err := db.Create(m).Error; err != nil {
		if gormtx.IsUniqueConstraintError(err) {
			return partner.ErrCommissionNotEligible.WithContext("commission_id", c.ID().String(), "reason", "already voided")
		}
		return err
	}
	return nil
}

func (r *GORMCommissionRepository) FindCancellation(ctx shared.TransactionContext, commissionID partner.CommissionID) (*partner.CommissionCancellation, error) {
	db := gormtx.DB(ctx, r.db)

	var model CancellationModel
	if err := db.First(&model, "commission_id = ?", commissionID.String()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, partner.ErrCommissionNotFound.WithContext("commission_id", commissionID.String(), "reason", "no cancellation")
		}
		return nil, err
	}
	return model.toDomain()
}

type statusSum struct {
	Status string
	Cents  int64
}

// SumByStatus groups commission amounts by status in one query.
func (r *GORMCommissionRepository) SumByStatus(ctx shared.TransactionContext, partnerID partner.PartnerID) (partner.EarningsByStatus, error) {
	db := gormtx.DB(ctx, r.db)

	var rows []statusSum
	err := db.Model(&CommissionModel{}).
		Select("status, COALESCE(SUM(amount_cents), 0) AS cents").
		Where("partner_id = ?", partnerID.String()).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(partner.EarningsByStatus, len(rows))
	for _, row := range rows {
		status, err := partner.ParseCommissionStatus(row.Status)
		if err != nil {
			return nil, err
		}
		out[status] = gormtx.FromCents(row.Cents)
	}
	return out, nil
}

func (r *GORMCommissionRepository) list(q *gorm.DB) ([]*partner.Commission, error) {
	var models []CommissionModel
	if err := q.Order("created_at ASC").Order("id ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*partner.Commission, 0, len(models))
	for i := range models {
		c, err := models[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func idStrings(ids []partner.CommissionID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
