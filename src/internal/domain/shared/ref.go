package shared

// ===========================
// Ref[T] optional reference
// ===========================

// Ref is an explicit optional link to another entity: either Linked(id) or
// Unlinked(). It replaces nullable foreign keys so callers have to decide what
// the unlinked case means instead of dereferencing a nil pointer.
//
//	ref.Match(
//	    func(userID string) { ... },
//	    func() { ... },
//	)
type Ref[T any] struct {
	id     T
	linked bool
}

// Linked builds a reference to id.
func Linked[T any](id T) Ref[T] {
	return Ref[T]{id: id, linked: true}
}

// Unlinked builds the empty reference.
func Unlinked[T any]() Ref[T] {
	return Ref[T]{}
}

// Get returns the referenced id and whether the reference is linked.
func (r Ref[T]) Get() (T, bool) {
	return r.id, r.linked
}

// IsLinked reports whether the reference points at something.
func (r Ref[T]) IsLinked() bool {
	return r.linked
}

// Match calls exactly one of the two branches.
func (r Ref[T]) Match(linked func(T), unlinked func()) {
	if r.linked {
		linked(r.id)
		return
	}
	unlinked()
}

// RefFromPointer converts a persistence-layer nullable column into a Ref.
func RefFromPointer[T any](p *T) Ref[T] {
	if p == nil {
		return Unlinked[T]()
	}
	return Linked(*p)
}

// Pointer converts the reference back into a nullable column value.
func (r Ref[T]) Pointer() *T {
	if !r.linked {
		return nil
	}
	id := r.id
	return &id
}
