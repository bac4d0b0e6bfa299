package ports

import (
	"context"

	"github.com/aretw0/perennial"
)

// Dispatcher defines how the host executes the actions a machine emits.
// The runner drains the container after a committed transition and hands
// each action here, in emission order.
//
// Tracked dispatch failures are delivery problems, not machine errors: the
// operation is already recorded in state, so the host can retry later or
// lean on the restore path to regenerate a status probe. Implementations
// should make dispatch idempotent per identity for exactly that reason.
type Dispatcher[U any, ID comparable, Req any] interface {
	// DispatchTracked executes a tracked request. The result comes back
	// later as a completion input, never as a return value.
	DispatchTracked(ctx context.Context, act perennial.Tracked[ID, Req]) error

	// DispatchUntracked executes a fire-and-forget payload.
	DispatchUntracked(ctx context.Context, payload U) error
}
