// Package replicate provides server-authoritative values with change
// notification. The authority is the only writer; every other participant
// holds a read-only mirror fed by an ordered inbound queue.
package replicate

import (
	"sync"

	"github.com/hideseekgame/hideseekgame-go/internal/model"
)

// Role describes the local participant's relationship to a value
type Role int

const (
	// RoleAuthority may write the value; writes produce broadcastable updates
	RoleAuthority Role = iota
	// RoleMirror is read-only; state arrives via Inbox
	RoleMirror
)

// Observer receives (old, new) on every applied change, in apply order
type Observer[T any] func(old, new T)

// Update is a single versioned change to a value, suitable for broadcast.
// Sequence numbers are per-value; there is no cross-value ordering.
type Update[T any] struct {
	Seq   uint64 `json:"seq"`
	Value T      `json:"value"`
}

// Value holds a replicated piece of state. Updates to the same Value are
// delivered to observers in the order the authority applied them.
type Value[T any] struct {
	mu        sync.Mutex
	role      Role
	seq       uint64
	value     T
	observers []Observer[T]
}

// NewAuthority creates a writable value owned by the local participant
func NewAuthority[T any](initial T) *Value[T] {
	return &Value[T]{role: RoleAuthority, value: initial}
}

// NewMirror creates a read-only mirror of a remote authority's value
func NewMirror[T any](initial T) *Value[T] {
	return &Value[T]{role: RoleMirror, value: initial}
}

// Get returns the current value
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.value
}

// Seq returns the sequence number of the last applied update
func (v *Value[T]) Seq() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.seq
}

// Role returns the local participant's role for this value
func (v *Value[T]) Role() Role {
	return v.role
}

// Observe registers a change observer. Observers are invoked synchronously
// on the applying goroutine and must not call back into the value.
func (v *Value[T]) Observe(fn Observer[T]) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.observers = append(v.observers, fn)
}

// Set writes a new value. Only the authority may write; a mirror write is
// rejected with model.ErrNotAuthority and never applied locally. The
// returned Update is what the authority broadcasts to remote mirrors.
func (v *Value[T]) Set(next T) (Update[T], error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.role != RoleAuthority {
		return Update[T]{}, model.ErrNotAuthority
	}

	old := v.value
	v.value = next
	v.seq++
	update := Update[T]{Seq: v.seq, Value: next}

	// Invoked under the lock so concurrent Sets observe strict FIFO order
	for _, fn := range v.observers {
		fn(old, next)
	}

	return update, nil
}

// apply installs an update on a mirror. Callers must deliver updates in
// sequence order; Inbox enforces that.
func (v *Value[T]) apply(u Update[T]) {
	v.mu.Lock()
	defer v.mu.Unlock()

	old := v.value
	v.value = u.Value
	v.seq = u.Seq

	for _, fn := range v.observers {
		fn(old, u.Value)
	}
}
