package booking

import (
	"github.com/aretw0/perennial/pkg/persistence"
	"github.com/aretw0/perennial/pkg/ports"
	"github.com/aretw0/perennial/pkg/runner"
)

// The host loop instantiated for booking systems, so adapters and commands
// never spell out the six type parameters.
type (
	// Runner drives booking sessions through lock, restore, transition,
	// checkpoint and dispatch.
	Runner = runner.Runner[System, *System, Input, UntrackedAction, RequestID, PaymentRequest]
	// Dispatcher executes the booking protocol's side effects.
	Dispatcher = ports.Dispatcher[UntrackedAction, RequestID, PaymentRequest]
	// Store is the typed checkpoint store for booking systems.
	Store = persistence.Store[System]
)

// NewStore wraps a blob backend as a booking checkpoint store.
func NewStore(blobs ports.BlobStore) *Store {
	return persistence.NewStore[System](blobs)
}

// NewRunner assembles a booking host over the given store and dispatcher.
// newState builds calendars for sessions that have no checkpoint yet,
// typically NewSystemWithDefaultSchedule or a calendar source loader.
func NewRunner(store *Store, dispatcher Dispatcher, newState func() *System, opts ...runner.Option) *Runner {
	return runner.New[System, *System, Input, UntrackedAction, RequestID, PaymentRequest](store, dispatcher, newState, opts...)
}
