package perennial

import "errors"

// ErrNegativeCapacity is returned when a buffer is created with a negative
// capacity hint.
var ErrNegativeCapacity = errors.New("negative buffer capacity")

// Actions is the write-only surface a machine sees during a transition.
// Every method is fallible so that containers backed by bounded or external
// storage can refuse appends; the in-memory Buffer never does.
//
// A machine must treat an append error as fatal for the whole transition:
// return the error without mutating state, so the host observes either a
// complete transition or none at all.
type Actions[U any, ID comparable, Req any] interface {
	// Clear discards all staged actions.
	Clear() error
	// Add appends an already assembled action.
	Add(act Action[U, ID, Req]) error
	// AddTracked appends a tracked request under the given identity.
	AddTracked(id ID, req Req) error
	// AddUntracked appends a fire-and-forget payload.
	AddUntracked(payload U) error
}

// Buffer is the in-memory Actions implementation. The machine writes through
// the Actions interface; the host reads the staged actions back with Len and
// Drain. A Buffer is not safe for concurrent use.
type Buffer[U any, ID comparable, Req any] struct {
	actions []Action[U, ID, Req]
}

// NewBuffer returns an empty buffer.
func NewBuffer[U any, ID comparable, Req any]() (*Buffer[U, ID, Req], error) {
	return &Buffer[U, ID, Req]{}, nil
}

// NewBufferCap returns an empty buffer with room for capacity actions before
// the backing slice grows. It fails if capacity is negative.
func NewBufferCap[U any, ID comparable, Req any](capacity int) (*Buffer[U, ID, Req], error) {
	if capacity < 0 {
		return nil, ErrNegativeCapacity
	}
	return &Buffer[U, ID, Req]{actions: make([]Action[U, ID, Req], 0, capacity)}, nil
}

// Clear discards all staged actions, keeping the backing storage.
func (b *Buffer[U, ID, Req]) Clear() error {
	b.actions = b.actions[:0]
	return nil
}

// Add appends an already assembled action.
func (b *Buffer[U, ID, Req]) Add(act Action[U, ID, Req]) error {
	b.actions = append(b.actions, act)
	return nil
}

// AddTracked appends a tracked request under the given identity.
func (b *Buffer[U, ID, Req]) AddTracked(id ID, req Req) error {
	return b.Add(NewTracked[U](id, req))
}

// AddUntracked appends a fire-and-forget payload.
func (b *Buffer[U, ID, Req]) AddUntracked(payload U) error {
	return b.Add(NewUntracked[U, ID, Req](payload))
}

// Len reports how many actions are staged.
func (b *Buffer[U, ID, Req]) Len() int {
	return len(b.actions)
}

// Drain returns the staged actions in emission order and empties the buffer.
// The returned slice is owned by the caller.
func (b *Buffer[U, ID, Req]) Drain() []Action[U, ID, Req] {
	out := b.actions
	b.actions = nil
	return out
}
