package shared_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/fortyseven/affiliate_ledger/src/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPayoutMarker struct{}
type testPartnerMarker struct{}

type testPayoutID = shared.EntityID[testPayoutMarker]
type testPartnerID = shared.EntityID[testPartnerMarker]

var (
	errInvalidTestPayoutID  = shared.NewDomainError("TEST_PAYOUT_ID_INVALID", "invalid payout id")
	errInvalidTestPartnerID = shared.NewDomainError("TEST_PARTNER_ID_INVALID", "invalid partner id")
)

// plainError has no WithContext method.
type plainError struct{ msg string }

func (e *plainError) Error() string { return e.msg }

func TestNewEntityID_GeneratesUniqueUUIDs(t *testing.T) {
	// Act
	id1 := shared.NewEntityID[testPayoutMarker]()
	id2 := shared.NewEntityID[testPayoutMarker]()

	// Assert
	assert.NotEmpty(t, id1.String())
	assert.NotEqual(t, id1.String(), id2.String())
}

func TestEntityIDFromString_ValidUUID_Success(t *testing.T) {
	validUUID := "550e8400-e29b-41d4-a716-446655440000"

	id, err := shared.EntityIDFromString[testPayoutMarker](validUUID, errInvalidTestPayoutID)

	require.NoError(t, err)
	assert.Equal(t, validUUID, id.String())
}

func TestEntityIDFromString_InvalidUUID_ReturnsError(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"empty", ""},
		{"not a uuid", "not-a-uuid"},
		{"wrong shape", "123-456-789"},
		{"truncated", "550e8400-e29b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := shared.EntityIDFromString[testPayoutMarker](tt.value, errInvalidTestPayoutID)

			assert.Error(t, err)
			assert.True(t, id.IsEmpty(), "failed parse must return the zero id")
			assert.ErrorIs(t, err, errInvalidTestPayoutID)
		})
	}
}

func TestEntityIDFromString_AddsContextToError(t *testing.T) {
	_, err := shared.EntityIDFromString[testPayoutMarker]("bogus", errInvalidTestPayoutID)

	var de *shared.DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "bogus", de.Context["input"])
	assert.Contains(t, de.Context, "parse_error")
	assert.Empty(t, errInvalidTestPayoutID.Context, "sentinel must stay untouched")
}

func TestEntityIDFromString_HandlesErrorsWithoutWithContext(t *testing.T) {
	sentinel := &plainError{msg: "bad id"}

	_, err := shared.EntityIDFromString[testPayoutMarker]("bogus", sentinel)

	assert.Same(t, sentinel, err)
}

func TestEntityID_EqualsAndIsEmpty(t *testing.T) {
	raw := "550e8400-e29b-41d4-a716-446655440000"
	id1, _ := shared.EntityIDFromString[testPayoutMarker](raw, errInvalidTestPayoutID)
	id2, _ := shared.EntityIDFromString[testPayoutMarker](raw, errInvalidTestPayoutID)

	assert.True(t, id1.Equals(id2))
	assert.False(t, id1.Equals(shared.NewEntityID[testPayoutMarker]()))
	assert.True(t, testPayoutID{}.IsEmpty())
	assert.False(t, id1.IsEmpty())
}

func TestEntityID_String_ReturnsLowercaseUUID(t *testing.T) {
	id, _ := shared.EntityIDFromString[testPayoutMarker]("550E8400-E29B-41D4-A716-446655440000", errInvalidTestPayoutID)

	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", id.String())
}

func TestEntityID_TypeSafety_DifferentMarkers(t *testing.T) {
	payoutID := shared.NewEntityID[testPayoutMarker]()
	partnerID := shared.NewEntityID[testPartnerMarker]()

	assert.IsType(t, testPayoutID{}, payoutID)
	assert.IsType(t, testPartnerID{}, partnerID)
	// payoutID.Equals(partnerID) does not compile.
}

func TestEntityIDFromString_UsesCallerErrorType(t *testing.T) {
	_, errA := shared.EntityIDFromString[testPayoutMarker]("x", errInvalidTestPayoutID)
	_, errB := shared.EntityIDFromString[testPartnerMarker]("x", errInvalidTestPartnerID)

	assert.ErrorIs(t, errA, errInvalidTestPayoutID)
	assert.NotErrorIs(t, errA, errInvalidTestPartnerID)
	assert.ErrorIs(t, errB, errInvalidTestPartnerID)
}

func TestEntityID_ConcurrentGeneration_NoDuplicates(t *testing.T) {
	const n = 200
	var (
		mu   sync.Mutex
		seen = make(map[string]struct{}, n)
		wg   sync.WaitGroup
	)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := shared.NewEntityID[testPayoutMarker]()
			mu.Lock()
			seen[id.String()] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, n)
}
