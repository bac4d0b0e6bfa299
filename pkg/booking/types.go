package booking

import "fmt"

// Slot is a concrete appointment start: a day of the week plus a time of
// day. How long the slot is occupied follows from the booked service.
type Slot struct {
	Day  Day  `json:"day"`
	Time Time `json:"time"`
}

// String returns a human readable "monday 09:00" form.
func (s Slot) String() string {
	return fmt.Sprintf("%s %s", s.Day, s.Time)
}

// Customer identifies who an appointment is for.
type Customer struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Booking is a confirmed appointment occupying the calendar.
type Booking struct {
	Slot            Slot     `json:"slot"`
	Customer        Customer `json:"customer"`
	Service         Service  `json:"service"`
	AmountPaidCents int64    `json:"amount_paid_cents"`
}

// End returns the time the appointment finishes.
func (b Booking) End() Time {
	return b.Slot.Time.AddMinutes(b.Service.DurationMinutes())
}

// RequestID identifies one booking request across state records, tracked
// actions, and completions. IDs are minted sequentially starting at 1.
type RequestID uint64

// Status is the lifecycle position of a booking request.
type Status string

const (
	// StatusAwaitingConfirmation means a payment hold is in flight and the
	// slot decision is deferred until the gateway answers.
	StatusAwaitingConfirmation Status = "awaiting_confirmation"
	// StatusConfirmed means payment succeeded and the booking occupies the
	// calendar.
	StatusConfirmed Status = "confirmed"
	// StatusSlotTaken means payment succeeded but another request won the
	// slot first; the hold is released.
	StatusSlotTaken Status = "slot_taken"
	// StatusNoSlot means the payment failed and the request is abandoned.
	StatusNoSlot Status = "no_slot"
)

// Terminal reports whether the status is a resting state that no further
// completion will change.
func (s Status) Terminal() bool {
	switch s {
	case StatusConfirmed, StatusSlotTaken, StatusNoSlot:
		return true
	default:
		return false
	}
}

// PendingRequest is the per-request record the system keeps from the moment
// a payment hold is emitted until well after the request resolves. Resolved
// records are retained for audit until PruneResolved trims them.
type PendingRequest struct {
	Customer Customer `json:"customer"`
	Slot     Slot     `json:"slot"`
	Service  Service  `json:"service"`
	Status   Status   `json:"status"`
}
