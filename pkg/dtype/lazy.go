package dtype

import (
	"sync"

	"go.uber.org/atomic"
)

// Thunk resolves a member's or parameter's type on first use.
type Thunk func() (QualifiedType, error)

type lazyResult struct {
	qt  QualifiedType
	err error
}

// LazyType is a member/parameter type slot that starts as an unresolved
// thunk and transitions, at most once, to a resolved (type, qualifiers)
// pair. The first resolution runs the thunk under a per-slot mutex:
// concurrent callers racing to resolve the same slot wait for it and then
// read the published result, so the thunk runs at most once. Once published,
// a read is a single atomic load. A slot never transitions back to
// unresolved.
type LazyType struct {
	resolved atomic.Pointer[lazyResult]
	mu       sync.Mutex
	thunk    Thunk
}

// NewLazyType wraps a thunk that resolves the type on first use.
func NewLazyType(thunk Thunk) *LazyType {
	return &LazyType{thunk: thunk}
}

// Resolved wraps an already-known qualified type; Resolve never invokes a
// thunk for it.
func Resolved(qt QualifiedType) *LazyType {
	l := &LazyType{}
	l.resolved.Store(&lazyResult{qt: qt})
	return l
}

// Resolve drives the thunk (at most once across all callers) and returns the
// resolved qualified type. Idempotent and safe for concurrent use.
func (l *LazyType) Resolve() (QualifiedType, error) {
	if r := l.resolved.Load(); r != nil {
		return r.qt, r.err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Another caller may have published while we waited for the lock.
	if r := l.resolved.Load(); r != nil {
		return r.qt, r.err
	}

	qt, err := l.thunk()
	l.resolved.Store(&lazyResult{qt: qt, err: err})
	return qt, err
}

// IsResolved reports whether the slot has already transitioned, without
// invoking the thunk.
func (l *LazyType) IsResolved() bool {
	return l.resolved.Load() != nil
}
