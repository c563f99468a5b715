package uow

import (
	"context"
	"errors"
	"testing"

	"github.com/fortyseven/affiliate_ledger/src/internal/application/notification"
	"github.com/fortyseven/affiliate_ledger/src/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event shared.DomainEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *MockPublisher) PublishBatch(ctx context.Context, events []shared.DomainEvent) error {
	return m.Called(ctx, events).Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, msg notification.Message) error {
	return m.Called(ctx, msg).Error(0)
}

type testEvent struct {
	shared.BaseEvent
}

func TestDispatcher_SwallowsFailures(t *testing.T) {
	// Arrange
	core, logs := observer.New(zapcore.WarnLevel)
	pub := new(MockPublisher)
	pub.On("PublishBatch", mock.Anything, mock.Anything).Return(errors.New("broker down"))
	notifier := new(MockNotifier)
	notifier.On("Notify", mock.Anything, mock.Anything).Return(errors.New("smtp down"))
	d := NewDispatcher(pub, notifier, zap.New(core))

	events := []shared.DomainEvent{&testEvent{BaseEvent: shared.NewBaseEvent("test.happened", "agg-1")}}

	// Act
	d.Publish(context.Background(), "redeem", events)
	d.Notify(context.Background(), "redeem", notification.Message{Kind: notification.KindPointsRedeemed})

	// Assert
	pub.AssertExpectations(t)
	notifier.AssertExpectations(t)
	assert.Equal(t, 1, logs.FilterMessage("event publish failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("notification failed").Len())
}

func TestDispatcher_SkipsEmptyBatches(t *testing.T) {
	pub := new(MockPublisher)
	d := NewDispatcher(pub, nil, nil)

	d.Publish(context.Background(), "noop", nil)

	pub.AssertNotCalled(t, "PublishBatch", mock.Anything, mock.Anything)
}
