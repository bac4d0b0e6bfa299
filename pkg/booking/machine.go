package booking

import (
	"context"
	"fmt"

	"github.com/aretw0/perennial"
)

var _ perennial.Machine[Input, UntrackedAction, RequestID, PaymentRequest] = (*System)(nil)

// Transition consumes one input. Normal inputs are booking requests;
// completions are gateway answers to tracked payment operations.
//
// Mutations follow a single commit point: every fallible container append
// happens first, and state is only touched once nothing can fail anymore.
// A non-nil error therefore always means the state is exactly as it was,
// even when diagnostic untracked actions were appended on the way out.
func (s *System) Transition(ctx context.Context, in Input, acts Actions) error {
	switch in.Kind {
	case perennial.InputCompletion:
		return s.applyCompletion(in.Completion, acts)
	case perennial.InputNormal:
		return s.applyRequest(in.Normal, acts)
	default:
		return fmt.Errorf("unsupported input kind %d", in.Kind)
	}
}

// applyRequest validates a booking request, places a payment hold through a
// tracked action, and records the request as awaiting confirmation.
func (s *System) applyRequest(req Request, acts Actions) error {
	if !req.Service.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownService, string(req.Service))
	}
	duration := req.Service.DurationMinutes()

	slot := req.Slot
	if req.Kind == RequestAuto {
		found, ok := s.FindSlot(req.Days, req.Windows, duration)
		if !ok {
			// Diagnostics are fair game on the error path; state is not.
			_ = acts.AddUntracked(Notify(req.Customer.ID, "no slot matches your preferences"))
			return ErrNoSlotFound
		}
		slot = found
	} else if !s.IsAvailable(slot, duration) {
		_ = acts.AddUntracked(Notify(req.Customer.ID, fmt.Sprintf("slot %s is not available", slot)))
		return ErrSlotNotAvailable
	}

	id := s.NextID
	if id == 0 {
		id = 1
	}
	price := req.Service.PriceCents()
	if err := acts.AddTracked(id, PreauthRequest(req.Customer.ID, price, id)); err != nil {
		return fmt.Errorf("queue preauth: %w", err)
	}
	msg := fmt.Sprintf("hold placed for %s on %s", req.Service, slot)
	if err := acts.AddUntracked(Notify(req.Customer.ID, msg)); err != nil {
		return fmt.Errorf("queue notification: %w", err)
	}

	// Commit point. The nil checks tolerate zero-value state that arrived
	// through deserialization rather than a constructor.
	if s.Pending == nil {
		s.Pending = make(map[RequestID]PendingRequest)
	}
	s.Pending[id] = PendingRequest{
		Customer: req.Customer,
		Slot:     slot,
		Service:  req.Service,
		Status:   StatusAwaitingConfirmation,
	}
	s.NextID = id + 1
	return nil
}

// applyCompletion resolves a gateway answer against the pending ledger.
func (s *System) applyCompletion(c perennial.Completion[RequestID, PaymentResult], acts Actions) error {
	pending, ok := s.Pending[c.ID]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrUnknownRequest, c.ID)
	}
	if pending.Status != StatusAwaitingConfirmation {
		// Redelivery after the request already resolved. Restore-driven
		// status checks can race the original answer, so this is routine.
		return nil
	}

	switch c.Result.Kind {
	case ResultSuccess:
		return s.confirm(c.ID, pending, c.Result.AmountCents, acts)
	case ResultFailed:
		msg := "payment failed: " + c.Result.Reason
		if err := acts.AddUntracked(Notify(pending.Customer.ID, msg)); err != nil {
			return fmt.Errorf("queue notification: %w", err)
		}
		pending.Status = StatusNoSlot
		s.Pending[c.ID] = pending
		return nil
	case ResultReleased, ResultPending:
		// Nothing to apply yet; the request stays awaiting.
		return nil
	default:
		return fmt.Errorf("unsupported payment result %q", string(c.Result.Kind))
	}
}

// confirm finishes a successfully paid request. Availability is re-checked
// because another request may have taken the slot while the hold settled;
// losing that race is a legitimate outcome, not an error.
func (s *System) confirm(id RequestID, pending PendingRequest, amountCents int64, acts Actions) error {
	if !s.IsAvailable(pending.Slot, pending.Service.DurationMinutes()) {
		if err := acts.AddTracked(id, ReleaseRequest(id)); err != nil {
			return fmt.Errorf("queue release: %w", err)
		}
		msg := fmt.Sprintf("slot %s was taken, your hold will be released", pending.Slot)
		if err := acts.AddUntracked(Notify(pending.Customer.ID, msg)); err != nil {
			return fmt.Errorf("queue notification: %w", err)
		}
		pending.Status = StatusSlotTaken
		s.Pending[id] = pending
		return nil
	}

	msg := fmt.Sprintf("booking confirmed for %s", pending.Slot)
	if err := acts.AddUntracked(Notify(pending.Customer.ID, msg)); err != nil {
		return fmt.Errorf("queue notification: %w", err)
	}
	pending.Status = StatusConfirmed
	s.Pending[id] = pending
	s.Bookings = append(s.Bookings, Booking{
		Slot:            pending.Slot,
		Customer:        pending.Customer,
		Service:         pending.Service,
		AmountPaidCents: amountCents,
	})
	return nil
}

// Restore regenerates the recovery plan after a crash: one status probe per
// request still awaiting its payment answer, in ascending id order. State
// is never mutated, so restoring twice produces the same plan.
func (s *System) Restore(ctx context.Context, acts Actions) error {
	if err := acts.Clear(); err != nil {
		return fmt.Errorf("clear actions: %w", err)
	}
	for _, id := range s.PendingInStatus(StatusAwaitingConfirmation) {
		if err := acts.AddTracked(id, CheckStatusRequest(id)); err != nil {
			return fmt.Errorf("queue status check: %w", err)
		}
	}
	return nil
}
