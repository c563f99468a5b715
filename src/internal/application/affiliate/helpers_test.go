package affiliate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fortyseven/affiliate_ledger/src/internal/application/notification"
	"github.com/fortyseven/affiliate_ledger/src/internal/application/uow"
	"github.com/fortyseven/affiliate_ledger/src/internal/domain/affiliate"
	"github.com/fortyseven/affiliate_ledger/src/internal/domain/shared"
	"github.com/fortyseven/affiliate_ledger/src/internal/infrastructure/config"
	"github.com/fortyseven/affiliate_ledger/src/internal/infrastructure/persistence"
	affiliatestore "github.com/fortyseven/affiliate_ledger/src/internal/infrastructure/persistence/affiliate"
	"github.com/fortyseven/affiliate_ledger/src/internal/infrastructure/persistence/gormtx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ===========================
// Test doubles
// ===========================

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

func (n *recordingNotifier) kinds() []notification.Kind {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notification.Kind, 0, len(n.msgs))
	for _, m := range n.msgs {
		out = append(out, m.Kind)
	}
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, e shared.DomainEvent) error {
	return p.PublishBatch(ctx, []shared.DomainEvent{e})
}

func (p *recordingPublisher) PublishBatch(_ context.Context, events []shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

// ===========================
// Fixture
// ===========================

type fixture struct {
	db        *gorm.DB
	deps      Dependencies
	notifier  *recordingNotifier
	publisher *recordingPublisher
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

	rewards, err := NewRewards(50, 200, 500)
	require.NoError(t, err)

	f := &fixture{db: db, notifier: &recordingNotifier{}, publisher: &recordingPublisher{}}
	f.deps = Dependencies{
		Accounts:     affiliatestore.NewAccountRepository(db),
		Transactions: affiliatestore.NewTransactionRepository(db),
		Runner:       uow.NewRunner(gormtx.NewManager(db), 5).WithBackoff(time.Millisecond),
		Dispatcher:   uow.NewDispatcher(f.publisher, f.notifier, zap.NewNop()),
		Policy:       affiliate.DefaultTierPolicy(),
		Rewards:      rewards,
		CodeAttempts: 5,
	}
	return f
}

func (f *fixture) createAccount(t *testing.T, externalID string) *AccountResult {
	t.Helper()
	res, err := NewCreateAccountUseCase(f.deps).Execute(context.Background(), CreateAccountCommand{ExternalUserID: externalID})
	require.NoError(t, err)
	require.True(t, res.Created)
	return res.Account
}

func (f *fixture) earn(t *testing.T, accountID string, amount int64) *LedgerResult {
	t.Helper()
	res, err := NewEarnPointsUseCase(f.deps).Execute(context.Background(), EarnPointsCommand{
		AccountID: accountID,
		Amount:    amount,
		Reason:    "test credit",
	})
	require.NoError(t, err)
	return res
}
