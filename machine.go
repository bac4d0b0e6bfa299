package perennial

import "context"

// Machine is implemented by state types that evolve through deterministic
// transitions. Type parameters fix the protocol the machine speaks: In is
// the input union it consumes, U the untracked payload, ID the tracked
// action identity, Req the tracked request payload.
//
// Implementations must uphold three contracts:
//
//   - Atomicity: when Transition returns an error, state is unchanged.
//   - Determinism: transitions derive everything from state and input.
//     Reading clocks, random sources, or the environment is forbidden;
//     ctx is for cancellation only.
//   - Emission: a tracked action is appended only for an operation that the
//     same transition records in state under the same identity.
type Machine[In, U any, ID comparable, Req any] interface {
	// Transition consumes one input, mutating state and appending the
	// actions the host must execute.
	Transition(ctx context.Context, in In, acts Actions[U, ID, Req]) error

	// Restore regenerates the actions needed to resume after a crash. It
	// clears the container, then appends one status probe per operation
	// that state shows still awaiting a result, in a deterministic order.
	// It never mutates state, so running it twice is harmless.
	Restore(ctx context.Context, acts Actions[U, ID, Req]) error
}

// MachinePtr constrains a pointer to S that implements Machine. Generic
// hosts use it to allocate fresh state values while calling the pointer
// methods on them.
type MachinePtr[S any, In, U any, ID comparable, Req any] interface {
	*S
	Machine[In, U, ID, Req]
}
