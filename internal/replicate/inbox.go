package replicate

import (
	"sync"

	"github.com/hideseekgame/hideseekgame-go/internal/model"
)

// DefaultMaxPending bounds how many out-of-order updates an Inbox buffers
// before it declares the missing sequence lost and skips past the gap.
// Transports drop events under backpressure; without the skip one lost
// update would wedge the mirror forever.
const DefaultMaxPending = 32

// Inbox is the single ordered inbound-update queue for one mirrored value.
// The network layer may deliver updates out of order; Inbox buffers gaps and
// applies updates strictly in sequence order, so mirror observers see the
// same FIFO order the authority produced. A gap that never fills is skipped
// once the buffer exceeds DefaultMaxPending.
type Inbox[T any] struct {
	mu      sync.Mutex
	value   *Value[T]
	next    uint64 // next expected sequence number
	pending map[uint64]T
}

// NewInbox creates an inbox feeding the given mirror
func NewInbox[T any](v *Value[T]) (*Inbox[T], error) {
	if v.Role() != RoleMirror {
		return nil, model.ErrNotAuthority
	}
	return &Inbox[T]{
		value:   v,
		next:    v.Seq() + 1,
		pending: make(map[uint64]T),
	}, nil
}

// Receive accepts an update from the network. Duplicates and stale updates
// (seq already applied) are dropped; future updates are buffered until the
// gap fills.
func (in *Inbox[T]) Receive(u Update[T]) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if u.Seq < in.next {
		return
	}
	in.pending[u.Seq] = u.Value

	for {
		value, ok := in.pending[in.next]
		if !ok {
			if len(in.pending) <= DefaultMaxPending {
				return
			}
			// The expected sequence is presumed dropped; resume from the
			// oldest buffered update instead of wedging
			in.next = in.lowestPending()
			continue
		}
		delete(in.pending, in.next)
		in.value.apply(Update[T]{Seq: in.next, Value: value})
		in.next++
	}
}

func (in *Inbox[T]) lowestPending() uint64 {
	var lowest uint64
	for seq := range in.pending {
		if lowest == 0 || seq < lowest {
			lowest = seq
		}
	}
	return lowest
}

// Pending returns the number of buffered out-of-order updates
func (in *Inbox[T]) Pending() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.pending)
}
