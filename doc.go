/*
Package perennial is a deterministic state machine engine for coordinating
side effects with crash recovery, designed for building booking systems,
payment flows, and other long-running transactional workflows.

It implements a "Tracked Action" architecture, separating pure state
transitions (Logic) from side-effect execution (Host) so that every pending
external operation can be resumed after a restart.

# Concept

Perennial treats your application as a state value plus a transition
function. The machine never performs I/O: it receives an input, mutates its
state, and emits actions into a container. The host dispatches those actions,
feeds results back as completion inputs, and checkpoints state between the
two. Because tracked actions carry an identity that is also recorded in
state, a crashed host can reload the last checkpoint, ask the machine which
operations are still in flight, and pick up where it left off.

# Key Features

  - Deterministic Transitions: given the same state and input, the machine
    produces the same state and the same actions, every time.
  - Atomic Failure: a transition that returns an error leaves state exactly
    as it found it.
  - Tracked Side-Effects: fire-and-forget actions and tracked request/response
    operations are separated at the type level.
  - Crash Recovery: the Restore protocol regenerates status checks for every
    operation that was awaiting a result when the process died.

# Usage

Implement the Machine interface on your state type, then drive it from a
host loop (see pkg/runner for a persistent one):

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/perennial"
		"github.com/aretw0/perennial/pkg/booking"
	)

	func main() {
		ctx := context.Background()
		sys := booking.NewSystemWithDefaultSchedule()

		buf, err := booking.NewBuffer()
		if err != nil {
			log.Fatal(err)
		}

		// 1. Ask for a booking. The machine records a pending request and
		// emits a tracked payment preauthorization.
		req := booking.ExactRequest(
			booking.Customer{ID: 1, Name: "Ada", Email: "ada@example.com"},
			booking.ServiceMaintenance,
			booking.Slot{Day: booking.Monday, Time: booking.NewTime(9, 0)},
		)
		if err := sys.Transition(ctx, booking.NormalInput(req), buf); err != nil {
			log.Fatal(err)
		}

		// 2. Dispatch the emitted actions to the outside world.
		for _, act := range buf.Drain() {
			switch act.Kind {
			case perennial.KindTracked:
				log.Println("call payment gateway:", act.Tracked.ID)
			case perennial.KindUntracked:
				log.Println("notify:", act.Untracked.Message)
			}
		}

		// 3. Feed the gateway's answer back in as a completion.
		in := booking.CompletionInput(1, booking.SuccessResult(7500))
		if err := sys.Transition(ctx, in, buf); err != nil {
			log.Fatal(err)
		}
	}
*/
package perennial
