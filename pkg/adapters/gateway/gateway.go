// Package gateway provides an in-memory payment gateway that stands in for
// a real card processor. It implements ports.Dispatcher for the booking
// protocol: preauthorizations park as outstanding holds until the host
// resolves them, while releases and status probes are answered from the
// ledger immediately.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/aretw0/perennial"
	"github.com/aretw0/perennial/internal/logging"
	"github.com/aretw0/perennial/pkg/booking"
	"github.com/aretw0/perennial/pkg/ports"
)

// Hold is an outstanding preauthorization.
type Hold struct {
	AuthRef     string
	CustomerID  uint64
	AmountCents int64
}

// Gateway simulates a payment processor. All methods are safe for
// concurrent use.
type Gateway struct {
	mu      sync.Mutex
	holds   map[booking.RequestID]Hold
	results map[booking.RequestID]booking.PaymentResult
	answers []booking.Input
	logger  *slog.Logger
}

var _ ports.Dispatcher[booking.UntrackedAction, booking.RequestID, booking.PaymentRequest] = (*Gateway)(nil)

type Option func(*Gateway)

// WithLogger sets the logger for dispatched effects.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// New creates an empty gateway.
func New(opts ...Option) *Gateway {
	g := &Gateway{
		holds:   make(map[booking.RequestID]Hold),
		results: make(map[booking.RequestID]booking.PaymentResult),
		logger:  logging.NewNop(),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// DispatchTracked executes a payment request. Preauths are idempotent per
// request id, so a re-dispatch after crash recovery never double-holds.
func (g *Gateway) DispatchTracked(ctx context.Context, act perennial.Tracked[booking.RequestID, booking.PaymentRequest]) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch act.Req.Kind {
	case booking.PaymentPreauth:
		if _, ok := g.holds[act.ID]; ok {
			return nil
		}
		if _, ok := g.results[act.ID]; ok {
			return nil
		}
		g.holds[act.ID] = Hold{
			AuthRef:     uuid.NewString(),
			CustomerID:  act.Req.CustomerID,
			AmountCents: act.Req.AmountCents,
		}
		g.logger.Info("hold placed",
			"request_id", act.ID,
			"customer_id", act.Req.CustomerID,
			"amount_cents", act.Req.AmountCents)

	case booking.PaymentRelease:
		delete(g.holds, act.ID)
		g.results[act.ID] = booking.ReleasedResult()
		g.answers = append(g.answers, booking.CompletionInput(act.ID, booking.ReleasedResult()))
		g.logger.Info("hold released", "request_id", act.ID)

	case booking.PaymentCheckStatus:
		result, ok := g.results[act.ID]
		if !ok {
			result = booking.PendingResult()
		}
		g.answers = append(g.answers, booking.CompletionInput(act.ID, result))
		g.logger.Info("status answered", "request_id", act.ID, "result", string(result.Kind))

	default:
		return fmt.Errorf("unknown payment request kind %q", act.Req.Kind)
	}

	return nil
}

// DispatchUntracked logs fire-and-forget effects.
func (g *Gateway) DispatchUntracked(ctx context.Context, payload booking.UntrackedAction) error {
	switch payload.Kind {
	case booking.EventNotify:
		g.logger.Info("notify", "customer_id", payload.CustomerID, "message", payload.Message)
	case booking.EventLog:
		g.logger.Info("event", "message", payload.Message)
	default:
		return fmt.Errorf("unknown untracked action kind %q", payload.Kind)
	}
	return nil
}

// Resolve settles the hold for id with the given result and returns the
// completion input to feed back into the machine. Resolving an id the
// gateway never saw is allowed; the machine rejects unknown ids on its own.
func (g *Gateway) Resolve(id booking.RequestID, result booking.PaymentResult) booking.Input {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.holds, id)
	g.results[id] = result
	return booking.CompletionInput(id, result)
}

// Outstanding returns the ids of unresolved holds in ascending order.
func (g *Gateway) Outstanding() []booking.RequestID {
	g.mu.Lock()
	defer g.mu.Unlock()

	ids := make([]booking.RequestID, 0, len(g.holds))
	for id := range g.holds {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// HoldFor reports the outstanding hold for id.
func (g *Gateway) HoldFor(id booking.RequestID) (Hold, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	h, ok := g.holds[id]
	return h, ok
}

// DrainAnswers returns the queued completion inputs (release acks, status
// probe answers) and empties the queue. The host feeds them back into the
// machine in order.
func (g *Gateway) DrainAnswers() []booking.Input {
	g.mu.Lock()
	defer g.mu.Unlock()

	answers := g.answers
	g.answers = nil
	return answers
}
