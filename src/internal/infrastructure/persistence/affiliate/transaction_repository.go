package affiliate

import (
	"errors"

	"github.com/fortyseven/affiliate_ledger/src/internal/domain/affiliate"
	"github.com/fortyseven/affiliate_ledger/src/internal/domain/shared"
	"github.com/fortyseven/affiliate_ledger/src/internal/infrastructure/persistence/gormtx"
	"gorm.io/gorm"
)

// GORMTransactionRepository is the append-only point ledger. It never issues
// UPDATE or DELETE against point_transactions.
type GORMTransactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates the GORM ledger store.
func NewTransactionRepository(db *gorm.DB) affiliate.TransactionRepository {
	return &GORMTransactionRepository{db: db}
}

// Append inserts one entry. The (account_id, event_ref) unique index turns a
// replayed external event into ErrDuplicateEvent.
func (r *GORMTransactionRepository) Append(ctx shared.TransactionContext, tx *affiliate.PointTransaction) error {
	db := gormtx.DB(ctx, r.db)
	m, err := transactionToModel(tx)
	if err != nil {
		return err
	}

	if err := db.Create(m).Error; err != nil {
		if gormtx.IsUniqueConstraintError(err) {
			ref, _ := tx.EventRef().Get()
			return affiliate.ErrDuplicateEvent.WithContext(
				"account_id", tx.AccountID().String(),
				"event_ref", ref,
			)
		}
		return err
	}
	return nil
}

func (r *GORMTransactionRepository) FindByEventRef(ctx shared.TransactionContext, accountID affiliate.AccountID, eventRef string) (*affiliate.PointTransaction, error) {
	db := gormtx.DB(ctx, r.db)

	var model TransactionModel
	err := db.Where("account_id = ? AND event_ref = ?", accountID.String(), eventRef).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, affiliate.ErrTransactionNotFound.WithContext(
				"account_id", accountID.String(),
				"event_ref", eventRef,
			)
		}
		return nil, err
	}
	return model.toDomain()
}

// ListBefore is a keyset page over (created_at DESC, id DESC). The id breaks
// ties between entries written in the same instant, so pages never skip or
// repeat rows while new entries are being appended.
func (r *GORMTransactionRepository) ListBefore(ctx shared.TransactionContext, accountID affiliate.AccountID, cursor affiliate.TransactionCursor, limit int) ([]*affiliate.PointTransaction, error) {
	if limit <= 0 {
		return nil, nil
	}
	db := gormtx.DB(ctx, r.db)

	q := db.Where("account_id = ?", accountID.String())
	if !cursor.IsZero() {
		at := cursor.CreatedAt.UTC()
		q = q.Where("(created_at < ? OR (created_at = ? AND id < ?))", at, at, cursor.ID.String())
	}

	var models []TransactionModel
	if err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}

	out := make([]*affiliate.PointTransaction, 0, len(models))
	for i := range models {
		tx, err := models[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, nil
}

const totalsSelect = "COALESCE(SUM(CASE WHEN amount > 0 THEN amount ELSE 0 END), 0) AS earned, " +
	"COALESCE(SUM(CASE WHEN amount < 0 THEN -amount ELSE 0 END), 0) AS redeemed, " +
	"COUNT(*) AS entry_count, " +
	"COALESCE(SUM(earnings_cents), 0) AS earnings_cents"

type totalsRow struct {
	Earned        int64
	Redeemed      int64
	EntryCount    int64
	EarningsCents int64
}

// Totals recomputes the account counters from the ledger in one aggregate query.
func (r *GORMTransactionRepository) Totals(ctx shared.TransactionContext, accountID affiliate.AccountID) (affiliate.LedgerTotals, error) {
	db := gormtx.DB(ctx, r.db)

	var row totalsRow
	err := db.Model(&TransactionModel{}).
		Select(totalsSelect).
		Where("account_id = ?", accountID.String()).
		Scan(&row).Error
	if err != nil {
		return affiliate.LedgerTotals{}, err
	}

	return affiliate.LedgerTotals{
		Earned:   row.Earned,
		Redeemed: row.Redeemed,
		Count:    row.EntryCount,
		Earnings: gormtx.FromCents(row.EarningsCents),
	}, nil
}
