package partner

import (
	"testing"
	"time"

	"github.com/fortyseven/affiliate_ledger/src/internal/domain/partner"
	"github.com/fortyseven/affiliate_ledger/src/internal/domain/shared"
	"github.com/fortyseven/affiliate_ledger/src/internal/infrastructure/persistence/gormtx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ===========================
// Test helpers
// ===========================

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to connect to test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(Models()...), "failed to migrate database schema")
	return db
}

type repos struct {
	partners    partner.PartnerRepository
	commissions partner.CommissionRepository
	payouts     partner.PayoutRepository
	tm          *gormtx.Manager
}

func newRepos(db *gorm.DB) repos {
	return repos{
		partners:    NewPartnerRepository(db),
		commissions: NewCommissionRepository(db),
		payouts:     NewPayoutRepository(db),
		tm:          gormtx.NewManager(db),
	}
}

func savePartner(t *testing.T, r repos, number string) *partner.Partner {
	t.Helper()
	p, err := partner.NewPartner(partner.NewPartnerParams{
		Number:           number,
		Name:             "Acme Studio",
		Email:            "ops@acme.test",
		Phone:            "+15550100199",
		UserRef:          shared.Unlinked[string](),
		PayoutAccountRef: shared.Linked("acct_123"),
		Rates: partner.CommissionRates{
			FirstSale: partner.Rate(50),
			Recurring: partner.Rate(10),
			Shop:      partner.Rate(7.5),
		},
	})
	require.NoError(t, err)
	p.PullEvents()
	require.NoError(t, r.partners.Save(nil, p))
	return p
}

// earn records a commission and the partner's new total in one transaction.
func earn(t *testing.T, r repos, p *partner.Partner, ctype partner.CommissionType, base string) *partner.Commission {
	t.Helper()
	var c *partner.Commission
	err := r.tm.InTransaction(t.Context(), func(ctx shared.TransactionContext) error {
		var err error
		c, err = p.EarnCommission(ctype, decimal.RequireFromString(base), shared.Unlinked[string]())
		if err != nil {
			return err
		}
		if err := r.commissions.Save(ctx, c); err != nil {
			return err
		}
		return r.partners.Update(ctx, p)
	})
	require.NoError(t, err)
	return c
}

// ===========================
// PartnerRepository
// ===========================

func TestPartnerRepository_SaveAndFind(t *testing.T) {
	// Arrange
	db := setupTestDB(t)
	r := newRepos(db)

	// Act
	p := savePartner(t, r, "P-000001")

	// Assert
	loaded, err := r.partners.FindByID(nil, p.ID())
	require.NoError(t, err)
	assert.Equal(t, "Acme Studio", loaded.Name())
	assert.Equal(t, "+15550100199", loaded.Phone().String())
	assert.True(t, loaded.Rates().Shop.Decimal.Equal(decimal.RequireFromString("7.5")))
	assert.True(t, loaded.Rates().FirstSale.Valid)

	byNumber, err := r.partners.FindByNumber(nil, "P-000001")
	require.NoError(t, err)
	assert.Equal(t, p.ID(), byNumber.ID())

	_, err = r.partners.FindByNumber(nil, "P-999999")
	assert.ErrorIs(t, err, partner.ErrPartnerNotFound)
}

func TestPartnerRepository_Save_NumberTaken(t *testing.T) {
	db := setupTestDB(t)
	r := newRepos(db)
	savePartner(t, r, "P-000001")

	p, err := partner.NewPartner(partner.NewPartnerParams{Number: "P-000001", Name: "Other"})
	require.NoError(t, err)

	assert.ErrorIs(t, r.partners.Save(nil, p), partner.ErrPartnerNumberTaken)
}

func TestPartnerRepository_NextSequence_Increments(t *testing.T) {
	db := setupTestDB(t)
	r := newRepos(db)

	var got []int64
	for i := 0; i < 3; i++ {
		err := r.tm.InTransaction(t.Context(), func(ctx shared.TransactionContext) error {
			seq, err := r.partners.NextSequence(ctx)
			got = append(got, seq)
			return err
		})
		require.NoError(t, err)
	}

	assert.Equal(t, []int64{1, 2, 3}, got)
}

func TestPartnerRepository_Update_StaleVersion(t *testing.T) {
	// Arrange
	db := setupTestDB(t)
	r := newRepos(db)
	p := savePartner(t, r, "P-000001")
	stale, err := r.partners.FindByID(nil, p.ID())
	require.NoError(t, err)
	earn(t, r, p, partner.CommissionFirstSale, "100")

	// Act
	_, err = stale.EarnCommission(partner.CommissionFirstSale, decimal.NewFromInt(10), shared.Unlinked[string]())
	require.NoError(t, err)
	err = r.partners.Update(nil, stale)

	// Assert
	assert.ErrorIs(t, err, partner.ErrConcurrentModification)
}

// ===========================
// Commissions and payouts
// ===========================

func TestCommissionRepository_ListPendingAndSums(t *testing.T) {
	// Arrange
	db := setupTestDB(t)
	r := newRepos(db)
	p := savePartner(t, r, "P-000001")
	earn(t, r, p, partner.CommissionFirstSale, "2500")  // 1250.00
	earn(t, r, p, partner.CommissionRecurring, "99.99") // 10.00 (9.999)
	earn(t, r, p, partner.CommissionShop, "19.99")      // 1.50 (1.49925)

	// Act
	pending, err := r.commissions.ListPending(nil, p.ID())
	require.NoError(t, err)
	sums, err := r.commissions.SumByStatus(nil, p.ID())
	require.NoError(t, err)
	stored, err := r.partners.FindByID(nil, p.ID())
	require.NoError(t, err)

	// Assert
	require.Len(t, pending, 3)
	assert.Equal(t, "1250.00", pending[0].Amount().StringFixed(2))
	assert.True(t, pending[0].BaseAmount().Equal(decimal.NewFromInt(2500)))
	assert.True(t, pending[0].Rate().Equal(decimal.NewFromInt(50)))
	assert.Equal(t, "1261.50", sums.Total().StringFixed(2))

	earnings := partner.NewEarnings(stored, sums)
	assert.True(t, earnings.Consistent(), "stored %s recomputed %s", earnings.Stored, earnings.Recomputed)
	assert.Equal(t, "1261.50", earnings.Pending.StringFixed(2))
}

func TestCommissionRepository_FindByIDs_MissingFails(t *testing.T) {
	db := setupTestDB(t)
	r := newRepos(db)
	p := savePartner(t, r, "P-000001")
	c := earn(t, r, p, partner.CommissionFirstSale, "10")

	found, err := r.commissions.FindByIDs(nil, []partner.CommissionID{c.ID()})
	require.NoError(t, err)
	require.Len(t, found, 1)

	_, err = r.commissions.FindByIDs(nil, []partner.CommissionID{c.ID(), partner.NewCommissionID()})
	assert.ErrorIs(t, err, partner.ErrCommissionNotFound)
}

func createPayout(t *testing.T, r repos, p *partner.Partner, commissions []*partner.Commission) (*partner.Payout, error) {
	t.Helper()
	payout, err := partner.NewPayout(p.ID(), partner.GeneratePayoutNumber(time.Now()), "usd", commissions)
	require.NoError(t, err)
	err = r.tm.InTransaction(t.Context(), func(ctx shared.TransactionContext) error {
		if err := r.payouts.Save(ctx, payout); err != nil {
			return err
		}
		return r.commissions.Claim(ctx, payout)
	})
	return payout, err
}

func TestPayoutLifecycle_CreateAndMarkPaid(t *testing.T) {
	// Arrange
	db := setupTestDB(t)
	r := newRepos(db)
	p := savePartner(t, r, "P-000001")
	c1 := earn(t, r, p, partner.CommissionFirstSale, "2500")
	c2 := earn(t, r, p, partner.CommissionRecurring, "300")

	// Act: create
	payout, err := createPayout(t, r, p, []*partner.Commission{c1, c2})
	require.NoError(t, err)

	// Assert: claimed
	pending, err := r.commissions.ListPending(nil, p.ID())
	require.NoError(t, err)
	assert.Empty(t, pending)

	loaded, err := r.payouts.FindByID(nil, payout.ID())
	require.NoError(t, err)
	assert.Equal(t, "1280.00", loaded.Amount().StringFixed(2))
	assert.ElementsMatch(t, []partner.CommissionID{c1.ID(), c2.ID()}, loaded.CommissionIDs())
	assert.Equal(t, partner.PayoutPending, loaded.Status())

	// Act: settle
	members, err := r.commissions.FindByPayout(nil, loaded.ID())
	require.NoError(t, err)
	paidAt := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, loaded.MarkPaid(paidAt, members))
	err = r.tm.InTransaction(t.Context(), func(ctx shared.TransactionContext) error {
		if err := r.payouts.MarkPaid(ctx, loaded); err != nil {
			return err
		}
		return r.commissions.SettleForPayout(ctx, loaded, paidAt)
	})
	require.NoError(t, err)

	// Assert: paid
	settled, err := r.payouts.FindByID(nil, payout.ID())
	require.NoError(t, err)
	assert.True(t, settled.IsPaid())
	assert.True(t, settled.PaidAt().Equal(paidAt))

	sums, err := r.commissions.SumByStatus(nil, p.ID())
	require.NoError(t, err)
	assert.Equal(t, "1280.00", sums[partner.CommissionPaid].StringFixed(2))

	// Act: paying twice hits the conditional update
	err = r.payouts.MarkPaid(nil, settled)
	assert.ErrorIs(t, err, partner.ErrAlreadyPaid)
}

func TestPayout_ClaimRace_LoserRollsBack(t *testing.T) {
	// Arrange: two payouts built from the same in-memory snapshot
	db := setupTestDB(t)
	r := newRepos(db)
	p := savePartner(t, r, "P-000001")
	earn(t, r, p, partner.CommissionFirstSale, "100")

	first, err := r.commissions.ListPending(nil, p.ID())
	require.NoError(t, err)
	second, err := r.commissions.ListPending(nil, p.ID())
	require.NoError(t, err)

	// Act
	_, errFirst := createPayout(t, r, p, first)
	losing, errSecond := createPayout(t, r, p, second)

	// Assert
	require.NoError(t, errFirst)
	assert.ErrorIs(t, errSecond, partner.ErrCommissionNotEligible)

	_, err = r.payouts.FindByID(nil, losing.ID())
	assert.ErrorIs(t, err, partner.ErrPayoutNotFound, "losing payout row must roll back")

	payouts, err := r.payouts.ListByPartner(nil, p.ID())
	require.NoError(t, err)
	require.Len(t, payouts, 1)
	assert.Len(t, payouts[0].CommissionIDs(), 1)
}

func TestCommissionRepository_Void(t *testing.T) {
	// Arrange
	db := setupTestDB(t)
	r := newRepos(db)
	p := savePartner(t, r, "P-000001")
	keep := earn(t, r, p, partner.CommissionFirstSale, "100")
	drop := earn(t, r, p, partner.CommissionFirstSale, "40")

	// Act
	err := r.tm.InTransaction(t.Context(), func(ctx shared.TransactionContext) error {
		cancellation, err := p.VoidCommission(drop, "refunded")
		if err != nil {
			return err
		}
		if err := r.commissions.Void(ctx, drop, cancellation); err != nil {
			return err
		}
		return r.partners.Update(ctx, p)
	})

	// Assert
	require.NoError(t, err)

	voided, err := r.commissions.FindByID(nil, drop.ID())
	require.NoError(t, err)
	assert.Equal(t, partner.CommissionVoided, voided.Status())

	cancellation, err := r.commissions.FindCancellation(nil, drop.ID())
	require.NoError(t, err)
	assert.Equal(t, "refunded", cancellation.Reason())
	assert.Equal(t, "20.00", cancellation.Amount().StringFixed(2))

	sums, err := r.commissions.SumByStatus(nil, p.ID())
	require.NoError(t, err)
	stored, err := r.partners.FindByID(nil, p.ID())
	require.NoError(t, err)
	earnings := partner.NewEarnings(stored, sums)
	assert.True(t, earnings.Consistent())
	assert.True(t, earnings.Stored.Equal(keep.Amount()))

	_, err = r.commissions.FindCancellation(nil, keep.ID())
	assert.ErrorIs(t, err, partner.ErrCommissionNotFound)
}

func TestCommissionRepository_Void_AfterClaimFails(t *testing.T) {
	// Arrange: a stale copy of a commission that has since been claimed
	db := setupTestDB(t)
	r := newRepos(db)
	p := savePartner(t, r, "P-000001")
	earn(t, r, p, partner.CommissionFirstSale, "100")
	snapshot, err := r.commissions.ListPending(nil, p.ID())
	require.NoError(t, err)
	stale, err := r.commissions.FindByID(nil, snapshot[0].ID())
	require.NoError(t, err)
	_, err = createPayout(t, r, p, snapshot)
	require.NoError(t, err)

	// Act
	cancellation, err := p.VoidCommission(stale, "late refund")
	require.NoError(t, err)
	err = r.commissions.Void(nil, stale, cancellation)

	// Assert
	assert.ErrorIs(t, err, partner.ErrCommissionNotEligible)
}

func TestCommissionRepository_Save_DuplicateEventRef(t *testing.T) {
	// Arrange
	db := setupTestDB(t)
	r := newRepos(db)
	p := savePartner(t, r, "P-000001")

	first, err := p.EarnCommissionForEvent(partner.CommissionShop, decimal.NewFromInt(80), shared.Unlinked[string](), shared.Linked("sale-1"))
	require.NoError(t, err)
	require.NoError(t, r.commissions.Save(nil, first))

	// Act
	again, err := p.EarnCommissionForEvent(partner.CommissionShop, decimal.NewFromInt(80), shared.Unlinked[string](), shared.Linked("sale-1"))
	require.NoError(t, err)
	err = r.commissions.Save(nil, again)

	// Assert
	assert.ErrorIs(t, err, partner.ErrDuplicateEvent)

	found, err := r.commissions.FindByEventRef(nil, p.ID(), "sale-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID(), found.ID())

	_, err = r.commissions.FindByEventRef(nil, p.ID(), "sale-2")
	assert.ErrorIs(t, err, partner.ErrCommissionNotFound)

	// commissions without a ref never collide
	for i := 0; i < 2; i++ {
		c, err := p.EarnCommission(partner.CommissionShop, decimal.NewFromInt(10), shared.Unlinked[string]())
		require.NoError(t, err)
		require.NoError(t, r.commissions.Save(nil, c))
	}
}
