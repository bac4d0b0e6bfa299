package runner

import (
	"time"

	"github.com/aretw0/perennial"
)

// Hooks are optional observation points in the host loop. Nil fields are
// skipped. Hooks run synchronously inside the session lock, so they should
// only record and return.
type Hooks struct {
	// OnTransition fires after every transition attempt.
	OnTransition func(sessionID string, err error, elapsed time.Duration)
	// OnActions fires once per committed transition or restore with the
	// emitted action counts.
	OnActions func(sessionID string, tracked, untracked int)
	// OnRestore fires after a recovery replay with the number of
	// regenerated probes.
	OnRestore func(sessionID string, regenerated int, err error)
	// OnDispatch fires per dispatched action.
	OnDispatch func(sessionID string, kind perennial.Kind, err error)
	// OnCheckpoint fires after every save attempt.
	OnCheckpoint func(sessionID string, err error)
}

func (h Hooks) transition(sessionID string, err error, elapsed time.Duration) {
	if h.OnTransition != nil {
		h.OnTransition(sessionID, err, elapsed)
	}
}

func (h Hooks) actions(sessionID string, tracked, untracked int) {
	if h.OnActions != nil {
		h.OnActions(sessionID, tracked, untracked)
	}
}

func (h Hooks) restore(sessionID string, regenerated int, err error) {
	if h.OnRestore != nil {
		h.OnRestore(sessionID, regenerated, err)
	}
}

func (h Hooks) dispatched(sessionID string, kind perennial.Kind, err error) {
	if h.OnDispatch != nil {
		h.OnDispatch(sessionID, kind, err)
	}
}

func (h Hooks) checkpoint(sessionID string, err error) {
	if h.OnCheckpoint != nil {
		h.OnCheckpoint(sessionID, err)
	}
}
