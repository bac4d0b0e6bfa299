package booking_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/perennial"
	"github.com/aretw0/perennial/pkg/booking"
)

func newBuffer(t *testing.T) *booking.Buffer {
	t.Helper()
	buf, err := booking.NewBuffer()
	require.NoError(t, err)
	return buf
}

func stateJSON(t *testing.T, sys *booking.System) string {
	t.Helper()
	data, err := json.Marshal(sys)
	require.NoError(t, err)
	return string(data)
}

var ada = booking.Customer{ID: 1, Name: "Ada", Email: "ada@example.com"}

func TestExactRequestPlacesHold(t *testing.T) {
	ctx := context.Background()
	sys := booking.NewSystemWithDefaultSchedule()
	buf := newBuffer(t)

	req := booking.ExactRequest(ada, booking.ServiceMaintenance, slotAt(booking.Monday, 9, 0))
	require.NoError(t, sys.Transition(ctx, booking.NormalInput(req), buf))

	// The request is parked, not yet booked.
	require.Len(t, sys.Pending, 1)
	pending := sys.Pending[1]
	assert.Equal(t, booking.StatusAwaitingConfirmation, pending.Status)
	assert.Equal(t, slotAt(booking.Monday, 9, 0), pending.Slot)
	assert.Empty(t, sys.Bookings)
	assert.Equal(t, booking.RequestID(2), sys.NextID)

	acts := buf.Drain()
	require.Len(t, acts, 2)
	require.Equal(t, perennial.KindTracked, acts[0].Kind)
	assert.Equal(t, booking.RequestID(1), acts[0].Tracked.ID)
	assert.Equal(t, booking.PaymentPreauth, acts[0].Tracked.Req.Kind)
	assert.Equal(t, booking.ServiceMaintenance.PriceCents(), acts[0].Tracked.Req.AmountCents)
	assert.Equal(t, ada.ID, acts[0].Tracked.Req.CustomerID)
	require.Equal(t, perennial.KindUntracked, acts[1].Kind)
	assert.Equal(t, booking.EventNotify, acts[1].Untracked.Kind)
}

func TestExactRequestUnavailable(t *testing.T) {
	ctx := context.Background()
	sys := booking.NewSystemWithDefaultSchedule()
	buf := newBuffer(t)

	before := stateJSON(t, sys)
	req := booking.ExactRequest(ada, booking.ServiceMaintenance, slotAt(booking.Sunday, 9, 0))
	err := sys.Transition(ctx, booking.NormalInput(req), buf)
	require.ErrorIs(t, err, booking.ErrSlotNotAvailable)

	// State untouched; the diagnostic notification is allowed through.
	assert.Equal(t, before, stateJSON(t, sys))
	acts := buf.Drain()
	require.Len(t, acts, 1)
	assert.Equal(t, perennial.KindUntracked, acts[0].Kind)
}

func TestSuccessConfirmsBooking(t *testing.T) {
	ctx := context.Background()
	sys := booking.NewSystemWithDefaultSchedule()
	buf := newBuffer(t)

	req := booking.ExactRequest(ada, booking.ServiceMaintenance, slotAt(booking.Monday, 9, 0))
	require.NoError(t, sys.Transition(ctx, booking.NormalInput(req), buf))
	buf.Drain()

	price := booking.ServiceMaintenance.PriceCents()
	in := booking.CompletionInput(1, booking.SuccessResult(price))
	require.NoError(t, sys.Transition(ctx, in, buf))

	require.Len(t, sys.Bookings, 1)
	got := sys.Bookings[0]
	assert.Equal(t, slotAt(booking.Monday, 9, 0), got.Slot)
	assert.Equal(t, price, got.AmountPaidCents)
	assert.Equal(t, booking.StatusConfirmed, sys.Pending[1].Status)

	acts := buf.Drain()
	require.Len(t, acts, 1)
	assert.Equal(t, perennial.KindUntracked, acts[0].Kind)

	assert.NoError(t, sys.CheckInvariants())
}

func TestSlotRaceSecondConfirmationLoses(t *testing.T) {
	ctx := context.Background()
	sys := booking.NewSystemWithDefaultSchedule()
	buf := newBuffer(t)

	slot := slotAt(booking.Monday, 9, 0)
	bob := booking.Customer{ID: 2, Name: "Bob"}
	require.NoError(t, sys.Transition(ctx, booking.NormalInput(
		booking.ExactRequest(ada, booking.ServiceMaintenance, slot)), buf))
	require.NoError(t, sys.Transition(ctx, booking.NormalInput(
		booking.ExactRequest(bob, booking.ServiceMaintenance, slot)), buf))
	buf.Drain()

	price := booking.ServiceMaintenance.PriceCents()
	require.NoError(t, sys.Transition(ctx, booking.CompletionInput(1, booking.SuccessResult(price)), buf))
	buf.Drain()

	// Bob's hold settled second; he lost the race. Not an error.
	require.NoError(t, sys.Transition(ctx, booking.CompletionInput(2, booking.SuccessResult(price)), buf))

	assert.Len(t, sys.Bookings, 1)
	assert.Equal(t, booking.StatusConfirmed, sys.Pending[1].Status)
	assert.Equal(t, booking.StatusSlotTaken, sys.Pending[2].Status)

	acts := buf.Drain()
	require.Len(t, acts, 2)
	require.Equal(t, perennial.KindTracked, acts[0].Kind)
	assert.Equal(t, booking.PaymentRelease, acts[0].Tracked.Req.Kind)
	assert.Equal(t, booking.RequestID(2), acts[0].Tracked.ID)
	assert.Equal(t, perennial.KindUntracked, acts[1].Kind)

	assert.NoError(t, sys.CheckInvariants())
}

func TestAutoRequestFindsIntersection(t *testing.T) {
	ctx := context.Background()
	sys := booking.NewSystem()
	sys.AddSchedule(booking.Tuesday, booking.TimeRange{Start: booking.NewTime(9, 0), End: booking.NewTime(12, 0)})
	buf := newBuffer(t)

	req := booking.AutoRequest(ada, booking.ServiceLandscaping,
		[]booking.Day{booking.Tuesday, booking.Thursday},
		[]booking.TimeRange{{Start: booking.NewTime(10, 0), End: booking.NewTime(13, 0)}},
	)
	require.NoError(t, sys.Transition(ctx, booking.NormalInput(req), buf))

	assert.Equal(t, slotAt(booking.Tuesday, 10, 0), sys.Pending[1].Slot)
}

func TestAutoRequestNoSlot(t *testing.T) {
	ctx := context.Background()
	sys := booking.NewSystemWithDefaultSchedule()
	buf := newBuffer(t)

	before := stateJSON(t, sys)
	req := booking.AutoRequest(ada, booking.ServiceLandscaping,
		[]booking.Day{booking.Saturday},
		[]booking.TimeRange{{Start: booking.NewTime(9, 0), End: booking.NewTime(17, 0)}},
	)
	err := sys.Transition(ctx, booking.NormalInput(req), buf)
	require.ErrorIs(t, err, booking.ErrNoSlotFound)
	assert.Equal(t, before, stateJSON(t, sys))
}

func TestUnknownServiceRejected(t *testing.T) {
	ctx := context.Background()
	sys := booking.NewSystemWithDefaultSchedule()
	buf := newBuffer(t)

	req := booking.ExactRequest(ada, booking.Service("topiary"), slotAt(booking.Monday, 9, 0))
	err := sys.Transition(ctx, booking.NormalInput(req), buf)
	assert.ErrorIs(t, err, booking.ErrUnknownService)
	assert.Equal(t, 0, buf.Len())
}

func TestCompletionUnknownID(t *testing.T) {
	ctx := context.Background()
	sys := booking.NewSystemWithDefaultSchedule()
	buf := newBuffer(t)
	before := stateJSON(t, sys)

	results := []booking.PaymentResult{
		booking.SuccessResult(7500),
		booking.FailedResult("declined"),
		booking.ReleasedResult(),
		booking.PendingResult(),
	}
	for _, res := range results {
		err := sys.Transition(ctx, booking.CompletionInput(42, res), buf)
		assert.ErrorIs(t, err, booking.ErrUnknownRequest, res.Kind)
	}
	assert.Equal(t, before, stateJSON(t, sys))
}

func TestFailedPaymentAbandonsRequest(t *testing.T) {
	ctx := context.Background()
	sys := booking.NewSystemWithDefaultSchedule()
	buf := newBuffer(t)

	req := booking.ExactRequest(ada, booking.ServicePlanting, slotAt(booking.Wednesday, 14, 0))
	require.NoError(t, sys.Transition(ctx, booking.NormalInput(req), buf))
	buf.Drain()

	in := booking.CompletionInput(1, booking.FailedResult("insufficient funds"))
	require.NoError(t, sys.Transition(ctx, in, buf))

	assert.Equal(t, booking.StatusNoSlot, sys.Pending[1].Status)
	assert.Empty(t, sys.Bookings)

	// The slot frees up for everyone else immediately.
	assert.True(t, sys.IsAvailable(slotAt(booking.Wednesday, 14, 0), 45))
}

func TestInterimResultsAreNoOps(t *testing.T) {
	ctx := context.Background()
	sys := booking.NewSystemWithDefaultSchedule()
	buf := newBuffer(t)

	req := booking.ExactRequest(ada, booking.ServiceConsultation, slotAt(booking.Friday, 9, 0))
	require.NoError(t, sys.Transition(ctx, booking.NormalInput(req), buf))
	buf.Drain()
	before := stateJSON(t, sys)

	for _, res := range []booking.PaymentResult{booking.PendingResult(), booking.ReleasedResult()} {
		require.NoError(t, sys.Transition(ctx, booking.CompletionInput(1, res), buf))
		assert.Equal(t, before, stateJSON(t, sys))
		assert.Equal(t, 0, buf.Len())
	}
}

func TestTerminalRedeliveryIsNoOp(t *testing.T) {
	ctx := context.Background()
	sys := booking.NewSystemWithDefaultSchedule()
	buf := newBuffer(t)

	req := booking.ExactRequest(ada, booking.ServiceMaintenance, slotAt(booking.Monday, 9, 0))
	require.NoError(t, sys.Transition(ctx, booking.NormalInput(req), buf))
	price := booking.ServiceMaintenance.PriceCents()
	require.NoError(t, sys.Transition(ctx, booking.CompletionInput(1, booking.SuccessResult(price)), buf))
	buf.Drain()
	before := stateJSON(t, sys)

	// A late duplicate of the same answer changes nothing and stays nil.
	require.NoError(t, sys.Transition(ctx, booking.CompletionInput(1, booking.SuccessResult(price)), buf))
	assert.Equal(t, before, stateJSON(t, sys))
	assert.Equal(t, 0, buf.Len())
	assert.Len(t, sys.Bookings, 1)
}

func TestRestoreRegeneratesStatusChecks(t *testing.T) {
	ctx := context.Background()
	sys := booking.NewSystemWithDefaultSchedule()
	buf := newBuffer(t)

	bob := booking.Customer{ID: 2, Name: "Bob"}
	require.NoError(t, sys.Transition(ctx, booking.NormalInput(
		booking.ExactRequest(ada, booking.ServiceMaintenance, slotAt(booking.Monday, 9, 0))), buf))
	require.NoError(t, sys.Transition(ctx, booking.NormalInput(
		booking.ExactRequest(bob, booking.ServiceConsultation, slotAt(booking.Tuesday, 9, 0))), buf))
	price := booking.ServiceMaintenance.PriceCents()
	require.NoError(t, sys.Transition(ctx, booking.CompletionInput(1, booking.SuccessResult(price)), buf))

	// Pretend we crashed with stale actions still in the container.
	require.NoError(t, sys.Restore(ctx, buf))

	acts := buf.Drain()
	require.Len(t, acts, 1)
	assert.Equal(t, perennial.KindTracked, acts[0].Kind)
	assert.Equal(t, booking.RequestID(2), acts[0].Tracked.ID)
	assert.Equal(t, booking.PaymentCheckStatus, acts[0].Tracked.Req.Kind)

	// Restore is read-only: doing it again yields the identical plan.
	require.NoError(t, sys.Restore(ctx, buf))
	again := buf.Drain()
	assert.Equal(t, []booking.Action{booking.TrackedAction(2, booking.CheckStatusRequest(2))}, again)
}

func TestRestoreOrdersAscending(t *testing.T) {
	ctx := context.Background()
	sys := booking.NewSystemWithDefaultSchedule()
	buf := newBuffer(t)

	slots := []booking.Slot{
		slotAt(booking.Monday, 9, 0),
		slotAt(booking.Tuesday, 9, 0),
		slotAt(booking.Friday, 9, 0),
	}
	for i, slot := range slots {
		c := booking.Customer{ID: uint64(i + 1), Name: "C"}
		require.NoError(t, sys.Transition(ctx, booking.NormalInput(
			booking.ExactRequest(c, booking.ServiceConsultation, slot)), buf))
	}

	require.NoError(t, sys.Restore(ctx, buf))
	acts := buf.Drain()
	require.Len(t, acts, 3)
	for i, act := range acts {
		assert.Equal(t, booking.RequestID(i+1), act.Tracked.ID)
	}
}

// faultyActions fails every append after the first n, so tests can verify
// that a failed transition leaves state untouched.
type faultyActions struct {
	allow int
	seen  int
}

var errContainerFull = errors.New("container full")

func (f *faultyActions) Clear() error { return nil }

func (f *faultyActions) Add(act booking.Action) error {
	if f.seen >= f.allow {
		return errContainerFull
	}
	f.seen++
	return nil
}

func (f *faultyActions) AddTracked(id booking.RequestID, req booking.PaymentRequest) error {
	return f.Add(booking.TrackedAction(id, req))
}

func (f *faultyActions) AddUntracked(payload booking.UntrackedAction) error {
	return f.Add(booking.UntrackedActionOf(payload))
}

func TestContainerFailureIsAtomic(t *testing.T) {
	ctx := context.Background()
	req := booking.ExactRequest(ada, booking.ServiceMaintenance, slotAt(booking.Monday, 9, 0))

	// Fail each append site in turn: the preauth and the notification.
	for allow := 0; allow <= 1; allow++ {
		sys := booking.NewSystemWithDefaultSchedule()
		before := stateJSON(t, sys)

		err := sys.Transition(ctx, booking.NormalInput(req), &faultyActions{allow: allow})
		require.ErrorIs(t, err, errContainerFull, "allow=%d", allow)
		assert.Equal(t, before, stateJSON(t, sys), "allow=%d", allow)
	}
}

func TestContainerFailureDuringConfirmIsAtomic(t *testing.T) {
	ctx := context.Background()
	sys := booking.NewSystemWithDefaultSchedule()
	buf := newBuffer(t)
	require.NoError(t, sys.Transition(ctx, booking.NormalInput(
		booking.ExactRequest(ada, booking.ServiceMaintenance, slotAt(booking.Monday, 9, 0))), buf))
	before := stateJSON(t, sys)

	in := booking.CompletionInput(1, booking.SuccessResult(7500))
	err := sys.Transition(ctx, in, &faultyActions{allow: 0})
	require.ErrorIs(t, err, errContainerFull)
	assert.Equal(t, before, stateJSON(t, sys))
	assert.Equal(t, booking.StatusAwaitingConfirmation, sys.Pending[1].Status)
}

// Replaying any input against a clone must produce identical state and
// actions. This is the determinism contract the runner relies on.
func TestTransitionIsDeterministic(t *testing.T) {
	ctx := context.Background()
	inputs := []booking.Input{
		booking.NormalInput(booking.ExactRequest(ada, booking.ServiceMaintenance, slotAt(booking.Monday, 9, 0))),
		booking.NormalInput(booking.AutoRequest(booking.Customer{ID: 2, Name: "Bob"}, booking.ServicePlanting,
			[]booking.Day{booking.Wednesday}, []booking.TimeRange{{Start: booking.NewTime(9, 0), End: booking.NewTime(18, 0)}})),
		booking.CompletionInput(1, booking.SuccessResult(7500)),
		booking.CompletionInput(2, booking.FailedResult("declined")),
	}

	sysA := booking.NewSystemWithDefaultSchedule()
	sysB := booking.NewSystemWithDefaultSchedule()
	bufA := newBuffer(t)
	bufB := newBuffer(t)

	for _, in := range inputs {
		errA := sysA.Transition(ctx, in, bufA)
		errB := sysB.Transition(ctx, in, bufB)
		require.Equal(t, errA == nil, errB == nil)
		assert.Equal(t, stateJSON(t, sysA), stateJSON(t, sysB))
		assert.Equal(t, bufA.Drain(), bufB.Drain())
	}
}
