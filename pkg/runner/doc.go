/*
Package runner hosts machines. It owns the loop the engine itself refuses to
know about: lock the session, load or create its state, replay recovery on
first touch, run the transition, checkpoint the state, and only then hand
the emitted actions to the dispatcher.

The ordering is the durability contract. A state is saved before any of its
tracked actions are dispatched, so a crash between the two leaves a record
that the restore path can reconcile, never an effect with no record.

# Key Components

  - Runner: The generic host loop, instantiated per machine type.
  - Hooks: Optional observation points for metrics and tracing.

# Usage

Domain packages usually pin the six type parameters once; pkg/booking does
so with booking.NewRunner:

	r := booking.NewRunner(store, dispatcher, booking.NewSystemWithDefaultSchedule,
		runner.WithLogger(logger),
	)

	state, err := r.Handle(ctx, "crew-a", booking.NormalInput(req))
	if err != nil {
		log.Fatal(err)
	}
*/
package runner
