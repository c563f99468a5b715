package partner

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fortyseven/affiliate_ledger/src/internal/application/notification"
	"github.com/fortyseven/affiliate_ledger/src/internal/application/uow"
	"github.com/fortyseven/affiliate_ledger/src/internal/infrastructure/config"
	"github.com/fortyseven/affiliate_ledger/src/internal/infrastructure/persistence"
	"github.com/fortyseven/affiliate_ledger/src/internal/infrastructure/persistence/gormtx"
	partnerstore "github.com/fortyseven/affiliate_ledger/src/internal/infrastructure/persistence/partner"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ===========================
// Test doubles
// ===========================

type MockPaymentRail struct {
	mock.Mock
}

func (m *MockPaymentRail) Transfer(ctx context.Context, req TransferRequest) (TransferReceipt, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(TransferReceipt), args.Error(1)
}

type memoryArchive struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func (a *memoryArchive) Put(_ context.Context, key string, body []byte, _ string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	if a.objects == nil {
		a.objects = make(map[string][]byte)
	}
	a.objects[key] = body
	return nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []notification.Message
}

func (n *recordingNotifier) Notify(_ context.Context, msg notification.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
	return nil
}

// ===========================
// Fixture
// ===========================

type fixture struct {
	db       *gorm.DB
	deps     Dependencies
	rail     *MockPaymentRail
	archive  *memoryArchive
	notifier *recordingNotifier
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db, err := persistence.Open(config.DatabaseConfig{
		Driver:   "sqlite",
		DSN:      "file::memory:",
		LogLevel: "silent",
	}, zap.NewNop())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	f := &fixture{
		db:       db,
		rail:     new(MockPaymentRail),
		archive:  &memoryArchive{},
		notifier: &recordingNotifier{},
	}
	f.deps = Dependencies{
		Partners:             partnerstore.NewPartnerRepository(db),
		Commissions:          partnerstore.NewCommissionRepository(db),
		Payouts:              partnerstore.NewPayoutRepository(db),
		Runner:               uow.NewRunner(gormtx.NewManager(db), 3).WithBackoff(time.Millisecond),
		Dispatcher:           uow.NewDispatcher(nil, f.notifier, zap.NewNop()),
		Rail:                 f.rail,
		Archive:              f.archive,
		Currency:             "usd",
		PayoutNumberAttempts: 3,
	}
	return f
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func (f *fixture) createPartner(t *testing.T, payoutAccount string) *PartnerResult {
	t.Helper()
	p, err := NewCreatePartnerUseCase(f.deps).Execute(context.Background(), CreatePartnerCommand{
		Name:             "Acme Studio",
		Email:            "ops@acme.test",
		Phone:            "+15550100199",
		PayoutAccountRef: payoutAccount,
		FirstSaleRate:    dec("50"),
		RecurringRate:    dec("10"),
		ShopRate:         dec("7.5"),
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) commission(t *testing.T, partnerID, ctype, base string) *CommissionResult {
	t.Helper()
	c, err := NewRecordCommissionUseCase(f.deps).Execute(context.Background(), RecordCommissionCommand{
		PartnerID:  partnerID,
		Type:       ctype,
		BaseAmount: decimal.RequireFromString(base),
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) markPaidUseCase() *MarkPayoutPaidUseCase {
	return NewMarkPayoutPaidUseCase(f.deps, zap.NewNop())
}
