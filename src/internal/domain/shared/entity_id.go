package shared

import (
	"github.com/google/uuid"
)

// ===========================
// EntityID[T] generic identifier
// ===========================

// EntityID is a UUID-backed identifier tagged with a marker type.
//
// EntityID[AccountMarker] and EntityID[PartnerMarker] are distinct types, so the
// compiler refuses to pass a partner id where an account id is expected.
//
// Usage:
//
//	type PayoutMarker struct{}
//	type PayoutID = shared.EntityID[PayoutMarker]
//
//	id := shared.NewEntityID[PayoutMarker]()
//	parsed, err := shared.EntityIDFromString[PayoutMarker](s, ErrInvalidPayoutID)
type EntityID[T any] struct {
	value uuid.UUID
}

// NewEntityID generates a random (v4) identifier.
func NewEntityID[T any]() EntityID[T] {
	return EntityID[T]{value: uuid.New()}
}

// EntityIDFromString parses s as a UUID.
//
// errTemplate is returned on failure. When it supports WithContext (every
// *DomainError does) the input and parse error are attached as context, so
// each bounded context keeps its own error code for malformed ids.
func EntityIDFromString[T any](s string, errTemplate error) (EntityID[T], error) {
	id, err := uuid.Parse(s)
	if err != nil {
		if withCtx, ok := errTemplate.(interface {
			WithContext(keyValues ...interface{}) error
		}); ok {
			return EntityID[T]{}, withCtx.WithContext(
				"input", s,
				"parse_error", err.Error(),
			)
		}
		return EntityID[T]{}, errTemplate
	}
	return EntityID[T]{value: id}, nil
}

// String returns the lowercase canonical UUID form.
func (e EntityID[T]) String() string {
	return e.value.String()
}

// Equals compares two ids of the same kind.
func (e EntityID[T]) Equals(other EntityID[T]) bool {
	return e.value == other.value
}

// IsEmpty reports whether the id is the zero value.
func (e EntityID[T]) IsEmpty() bool {
	return e.value == uuid.Nil
}
