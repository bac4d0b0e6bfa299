package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/perennial"
	"github.com/aretw0/perennial/pkg/persistence"
	"github.com/aretw0/perennial/pkg/ports"
	"github.com/aretw0/perennial/pkg/session"
)

// Runner drives machines of type S through the host loop. It is safe for
// concurrent use; the session manager serializes handlers per session id.
type Runner[S any, PS perennial.MachinePtr[S, In, U, ID, Req], In any, U any, ID comparable, Req any] struct {
	store      *persistence.Store[S]
	dispatcher ports.Dispatcher[U, ID, Req]
	newState   func() PS
	sessions   *session.Manager
	logger     *slog.Logger
	hooks      Hooks
	bufCap     int

	// restored tracks which sessions this process has already replayed
	// recovery for. A session loaded from storage gets exactly one Restore
	// per process lifetime.
	mu       sync.Mutex
	restored map[string]bool
}

// New creates a Runner. newState builds the state for sessions that have no
// checkpoint yet.
func New[S any, PS perennial.MachinePtr[S, In, U, ID, Req], In any, U any, ID comparable, Req any](
	store *persistence.Store[S],
	dispatcher ports.Dispatcher[U, ID, Req],
	newState func() PS,
	opts ...Option,
) *Runner[S, PS, In, U, ID, Req] {
	s := newSettings(opts...)

	return &Runner[S, PS, In, U, ID, Req]{
		store:      store,
		dispatcher: dispatcher,
		newState:   newState,
		sessions:   s.sessions,
		logger:     s.logger,
		hooks:      s.hooks,
		bufCap:     s.bufCap,
		restored:   make(map[string]bool),
	}
}

// Handle runs one input through the session's machine and returns the state
// after the transition.
//
// On a transition error the checkpoint is skipped and only untracked
// diagnostics are delivered, mirroring the machine's atomicity guarantee.
// On success the state is saved before anything is dispatched, so no effect
// ever runs without a durable record of it.
func (r *Runner[S, PS, In, U, ID, Req]) Handle(ctx context.Context, sessionID string, input In) (*S, error) {
	var result *S

	err := r.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		state, loaded, err := r.loadState(ctx, sessionID)
		if err != nil {
			return err
		}

		if loaded {
			if err := r.maybeRestore(ctx, sessionID, state); err != nil {
				return err
			}
		} else {
			// A state built in this process has no lost answers to chase.
			r.markRestored(sessionID)
		}

		buf, err := r.newBuffer()
		if err != nil {
			return err
		}

		start := time.Now()
		terr := state.Transition(ctx, input, buf)
		r.hooks.transition(sessionID, terr, time.Since(start))

		if terr != nil {
			// State is unchanged. Deliver the diagnostics, drop anything
			// tracked: with no state record there must be no operation.
			r.dispatch(ctx, sessionID, untrackedOnly(buf.Drain()))
			return terr
		}

		if err := ctx.Err(); err != nil {
			// Canceled mid-handle: refuse to checkpoint a state the caller
			// already gave up on.
			return err
		}

		saveErr := r.store.Save(ctx, sessionID, (*S)(state))
		r.hooks.checkpoint(sessionID, saveErr)
		if saveErr != nil {
			return fmt.Errorf("checkpoint session %q: %w", sessionID, saveErr)
		}

		r.dispatch(ctx, sessionID, buf.Drain())
		result = (*S)(state)
		return nil
	})

	return result, err
}

// Snapshot loads the session's last checkpoint without touching the machine.
func (r *Runner[S, PS, In, U, ID, Req]) Snapshot(ctx context.Context, sessionID string) (*S, error) {
	return r.store.Load(ctx, sessionID)
}

// Sessions lists the session ids with a checkpoint.
func (r *Runner[S, PS, In, U, ID, Req]) Sessions(ctx context.Context) ([]string, error) {
	return r.store.List(ctx)
}

// loadState loads the session's checkpoint, or builds a fresh state if none
// exists. The boolean reports whether the state came from storage.
func (r *Runner[S, PS, In, U, ID, Req]) loadState(ctx context.Context, sessionID string) (PS, bool, error) {
	loaded, err := r.store.Load(ctx, sessionID)
	if err == nil {
		return PS(loaded), true, nil
	}
	if errors.Is(err, ports.ErrNotFound) {
		return r.newState(), false, nil
	}

	var zero PS
	return zero, false, fmt.Errorf("load session %q: %w", sessionID, err)
}

// maybeRestore replays recovery for a session the process sees for the
// first time: the machine regenerates probes for operations still awaiting
// an answer, and the runner dispatches them.
func (r *Runner[S, PS, In, U, ID, Req]) maybeRestore(ctx context.Context, sessionID string, state PS) error {
	r.mu.Lock()
	done := r.restored[sessionID]
	r.mu.Unlock()
	if done {
		return nil
	}

	buf, err := r.newBuffer()
	if err != nil {
		return err
	}

	rerr := state.Restore(ctx, buf)
	actions := buf.Drain()
	r.hooks.restore(sessionID, len(actions), rerr)
	if rerr != nil {
		return fmt.Errorf("restore session %q: %w", sessionID, rerr)
	}

	if len(actions) > 0 {
		r.logger.Info("session restored", "session_id", sessionID, "regenerated", len(actions))
	}
	r.dispatch(ctx, sessionID, actions)

	r.markRestored(sessionID)
	return nil
}

func (r *Runner[S, PS, In, U, ID, Req]) markRestored(sessionID string) {
	r.mu.Lock()
	r.restored[sessionID] = true
	r.mu.Unlock()
}

// dispatch hands actions to the dispatcher in emission order. Failures are
// delivery problems, not handler errors: the checkpoint is already durable
// and the restore path can regenerate what was lost, so they are logged and
// skipped.
func (r *Runner[S, PS, In, U, ID, Req]) dispatch(ctx context.Context, sessionID string, actions []perennial.Action[U, ID, Req]) {
	tracked, untracked := 0, 0
	for _, act := range actions {
		if act.Kind == perennial.KindTracked {
			tracked++
		} else {
			untracked++
		}
	}
	r.hooks.actions(sessionID, tracked, untracked)

	for _, act := range actions {
		var err error
		switch act.Kind {
		case perennial.KindTracked:
			err = r.dispatcher.DispatchTracked(ctx, act.Tracked)
		case perennial.KindUntracked:
			err = r.dispatcher.DispatchUntracked(ctx, act.Untracked)
		}
		r.hooks.dispatched(sessionID, act.Kind, err)
		if err != nil {
			r.logger.Warn("action dispatch failed",
				"session_id", sessionID,
				"kind", act.Kind.String(),
				"err", err,
			)
		}
	}
}

func (r *Runner[S, PS, In, U, ID, Req]) newBuffer() (*perennial.Buffer[U, ID, Req], error) {
	if r.bufCap > 0 {
		return perennial.NewBufferCap[U, ID, Req](r.bufCap)
	}
	return perennial.NewBuffer[U, ID, Req]()
}

func untrackedOnly[U any, ID comparable, Req any](actions []perennial.Action[U, ID, Req]) []perennial.Action[U, ID, Req] {
	var kept []perennial.Action[U, ID, Req]
	for _, act := range actions {
		if act.Kind == perennial.KindUntracked {
			kept = append(kept, act)
		}
	}
	return kept
}
