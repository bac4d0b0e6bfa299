package booking

import (
	"fmt"
	"slices"
)

// searchStepMinutes is the granularity of the automatic slot search.
const searchStepMinutes = 15

// System is the whole calendar state: working hours, confirmed bookings,
// and the ledger of requests whose payment is in flight or resolved. It
// implements perennial.Machine; see machine.go for the transition logic.
//
// All fields are exported so the state serializes through pkg/persistence
// without custom codecs.
type System struct {
	Schedule map[Day][]TimeRange          `json:"schedule"`
	Bookings []Booking                    `json:"bookings"`
	Pending  map[RequestID]PendingRequest `json:"pending"`
	NextID   RequestID                    `json:"next_id"`
}

// NewSystem returns a calendar with no working hours configured.
func NewSystem() *System {
	return &System{
		Schedule: make(map[Day][]TimeRange),
		Pending:  make(map[RequestID]PendingRequest),
		NextID:   1,
	}
}

// NewSystemWithDefaultSchedule returns a calendar preloaded with a typical
// working week: weekday mornings plus afternoons of varying length.
func NewSystemWithDefaultSchedule() *System {
	s := NewSystem()
	s.AddSchedule(Monday, TimeRange{Start: NewTime(9, 0), End: NewTime(12, 0)})
	s.AddSchedule(Monday, TimeRange{Start: NewTime(14, 0), End: NewTime(17, 0)})
	s.AddSchedule(Tuesday, TimeRange{Start: NewTime(9, 0), End: NewTime(12, 0)})
	s.AddSchedule(Tuesday, TimeRange{Start: NewTime(13, 0), End: NewTime(16, 0)})
	s.AddSchedule(Wednesday, TimeRange{Start: NewTime(9, 0), End: NewTime(12, 0)})
	s.AddSchedule(Wednesday, TimeRange{Start: NewTime(14, 0), End: NewTime(18, 0)})
	s.AddSchedule(Thursday, TimeRange{Start: NewTime(10, 0), End: NewTime(13, 0)})
	s.AddSchedule(Thursday, TimeRange{Start: NewTime(14, 0), End: NewTime(17, 0)})
	s.AddSchedule(Friday, TimeRange{Start: NewTime(9, 0), End: NewTime(15, 0)})
	return s
}

// AddSchedule appends an availability window to a day. Windows are searched
// in insertion order; callers keep them sorted and non-overlapping.
func (s *System) AddSchedule(day Day, r TimeRange) {
	if s.Schedule == nil {
		s.Schedule = make(map[Day][]TimeRange)
	}
	s.Schedule[day] = append(s.Schedule[day], r)
}

// fitsSchedule reports whether some working window of the slot's day can
// hold an appointment of the given duration starting at the slot time.
func (s *System) fitsSchedule(slot Slot, durationMinutes int) bool {
	for _, r := range s.Schedule[slot.Day] {
		if r.CanFit(slot.Time, durationMinutes) {
			return true
		}
	}
	return false
}

// IsAvailable reports whether an appointment of the given duration can
// start at slot: it must fit a working window and overlap no confirmed
// booking. Requests still awaiting payment do not block availability; the
// race is resolved when their confirmation lands.
func (s *System) IsAvailable(slot Slot, durationMinutes int) bool {
	if !s.fitsSchedule(slot, durationMinutes) {
		return false
	}
	start := slot.Time.Minutes()
	end := start + durationMinutes
	for _, b := range s.Bookings {
		if b.Slot.Day != slot.Day {
			continue
		}
		if start < b.End().Minutes() && end > b.Slot.Time.Minutes() {
			return false
		}
	}
	return true
}

// FindSlot returns the first available slot matching the caller's
// preferences. Days are tried in the given order; within a day, each
// working window is intersected with each preferred window (again in the
// given order) and candidate starts advance in 15-minute steps. Empty days
// or windows mean nothing matches.
func (s *System) FindSlot(days []Day, windows []TimeRange, durationMinutes int) (Slot, bool) {
	for _, day := range days {
		for _, sched := range s.Schedule[day] {
			for _, win := range windows {
				start := sched.Start
				if win.Start.Minutes() > start.Minutes() {
					start = win.Start
				}
				end := sched.End
				if win.End.Minutes() < end.Minutes() {
					end = win.End
				}
				if start.Minutes() >= end.Minutes() {
					continue
				}
				for t := start; t.Minutes()+durationMinutes <= end.Minutes(); t = t.AddMinutes(searchStepMinutes) {
					slot := Slot{Day: day, Time: t}
					if s.IsAvailable(slot, durationMinutes) {
						return slot, true
					}
				}
			}
		}
	}
	return Slot{}, false
}

// BookingAt returns the confirmed booking starting exactly at slot, if any.
func (s *System) BookingAt(slot Slot) (Booking, bool) {
	for _, b := range s.Bookings {
		if b.Slot == slot {
			return b, true
		}
	}
	return Booking{}, false
}

// PendingInStatus returns the ids of all requests in the given status, in
// ascending order.
func (s *System) PendingInStatus(status Status) []RequestID {
	var ids []RequestID
	for id, p := range s.Pending {
		if p.Status == status {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// PruneResolved drops resolved request records, keeping the keep highest
// ids for audit. Requests still awaiting confirmation are never dropped.
// It returns how many records were removed. The machine never calls this;
// retention is a host policy.
func (s *System) PruneResolved(keep int) int {
	if keep < 0 {
		keep = 0
	}
	var resolved []RequestID
	for id, p := range s.Pending {
		if p.Status.Terminal() {
			resolved = append(resolved, id)
		}
	}
	if len(resolved) <= keep {
		return 0
	}
	slices.Sort(resolved)
	drop := resolved[:len(resolved)-keep]
	for _, id := range drop {
		delete(s.Pending, id)
	}
	return len(drop)
}

// CheckInvariants verifies the structural health of the state. It is used
// by tests and the simulator after every transition.
func (s *System) CheckInvariants() error {
	for i := 0; i < len(s.Bookings); i++ {
		for j := i + 1; j < len(s.Bookings); j++ {
			a, b := s.Bookings[i], s.Bookings[j]
			if a.Slot.Day != b.Slot.Day {
				continue
			}
			if a.Slot.Time.Minutes() < b.End().Minutes() && a.End().Minutes() > b.Slot.Time.Minutes() {
				return fmt.Errorf("bookings overlap: %s and %s", a.Slot, b.Slot)
			}
		}
	}
	for _, b := range s.Bookings {
		if !s.fitsSchedule(b.Slot, b.Service.DurationMinutes()) {
			return fmt.Errorf("booking outside working hours: %s", b.Slot)
		}
	}
	for id, p := range s.Pending {
		if p.Status == StatusConfirmed {
			if _, ok := s.BookingAt(p.Slot); !ok {
				return fmt.Errorf("confirmed request %d has no booking at %s", id, p.Slot)
			}
		}
	}
	for id := range s.Pending {
		if id >= s.NextID {
			return fmt.Errorf("pending id %d is not below next id %d", id, s.NextID)
		}
	}
	return nil
}
