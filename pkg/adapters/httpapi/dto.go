package httpapi

import (
	"fmt"
	"slices"

	"github.com/oapi-codegen/runtime/types"

	"github.com/aretw0/perennial/pkg/booking"
)

// Slot is the wire form of a calendar slot.
type Slot struct {
	Day  string `json:"day"`
	Time string `json:"time"`
}

// Customer is the wire form of a customer. Email is validated on decode.
type Customer struct {
	ID    uint64       `json:"id"`
	Name  string       `json:"name"`
	Email *types.Email `json:"email,omitempty"`
}

// BookingRequest is the POST body asking for an appointment. Slot is
// meaningful for exact requests; Days and Windows for automatic ones.
type BookingRequest struct {
	Kind     string   `json:"kind"`
	Customer Customer `json:"customer"`
	Service  string   `json:"service"`
	Slot     *Slot    `json:"slot,omitempty"`
	Days     []string `json:"days,omitempty"`
	Windows  []string `json:"windows,omitempty"`
}

// PaymentOutcome is the POST body delivering a gateway answer.
type PaymentOutcome struct {
	Kind        string `json:"kind"`
	AmountCents int64  `json:"amount_cents,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// RequestRecord reports the lifecycle position of one booking request.
type RequestRecord struct {
	RequestID uint64   `json:"request_id"`
	Status    string   `json:"status"`
	Customer  Customer `json:"customer"`
	Service   string   `json:"service"`
	Slot      Slot     `json:"slot"`
}

// Booking is the wire form of a confirmed appointment.
type Booking struct {
	Slot            Slot     `json:"slot"`
	Customer        Customer `json:"customer"`
	Service         string   `json:"service"`
	AmountPaidCents int64    `json:"amount_paid_cents"`
}

// Calendar is the full state snapshot of one calendar session.
type Calendar struct {
	CalendarID string              `json:"calendar_id"`
	Schedule   map[string][]string `json:"schedule"`
	Bookings   []Booking           `json:"bookings"`
	Requests   []RequestRecord     `json:"requests"`
	NextID     uint64              `json:"next_id"`
}

// SlotQuery is the outcome of a first-fit slot search.
type SlotQuery struct {
	Service string `json:"service"`
	Found   bool   `json:"found"`
	Slot    *Slot  `json:"slot,omitempty"`
}

// CalendarList enumerates known calendar ids.
type CalendarList struct {
	Calendars []string `json:"calendars"`
}

func (sl Slot) toDomain() (booking.Slot, error) {
	day, err := booking.ParseDay(sl.Day)
	if err != nil {
		return booking.Slot{}, err
	}
	t, err := booking.ParseTime(sl.Time)
	if err != nil {
		return booking.Slot{}, err
	}
	return booking.Slot{Day: day, Time: t}, nil
}

func slotFromDomain(sl booking.Slot) Slot {
	return Slot{Day: sl.Day.String(), Time: sl.Time.String()}
}

func (c Customer) toDomain() booking.Customer {
	cust := booking.Customer{ID: c.ID, Name: c.Name}
	if c.Email != nil {
		cust.Email = string(*c.Email)
	}
	return cust
}

func customerFromDomain(c booking.Customer) Customer {
	out := Customer{ID: c.ID, Name: c.Name}
	if c.Email != "" {
		out.Email = ptr(types.Email(c.Email))
	}
	return out
}

func (b BookingRequest) toDomain() (booking.Request, error) {
	service, err := booking.ParseService(b.Service)
	if err != nil {
		return booking.Request{}, err
	}
	customer := b.Customer.toDomain()

	switch b.Kind {
	case string(booking.RequestExact):
		if b.Slot == nil {
			return booking.Request{}, fmt.Errorf("exact requests need a slot")
		}
		slot, err := b.Slot.toDomain()
		if err != nil {
			return booking.Request{}, err
		}
		return booking.ExactRequest(customer, service, slot), nil
	case string(booking.RequestAuto):
		days, err := booking.ParseDays(b.Days)
		if err != nil {
			return booking.Request{}, err
		}
		windows, err := booking.ParseWindows(b.Windows)
		if err != nil {
			return booking.Request{}, err
		}
		return booking.AutoRequest(customer, service, days, windows), nil
	default:
		return booking.Request{}, fmt.Errorf("unknown request kind %q", b.Kind)
	}
}

func (p PaymentOutcome) toDomain() (booking.PaymentResult, error) {
	kind, err := booking.ParseResultKind(p.Kind)
	if err != nil {
		return booking.PaymentResult{}, err
	}
	return booking.PaymentResult{Kind: kind, AmountCents: p.AmountCents, Reason: p.Reason}, nil
}

func recordFromDomain(id booking.RequestID, p booking.PendingRequest) RequestRecord {
	return RequestRecord{
		RequestID: uint64(id),
		Status:    string(p.Status),
		Customer:  customerFromDomain(p.Customer),
		Service:   string(p.Service),
		Slot:      slotFromDomain(p.Slot),
	}
}

func calendarFromDomain(id string, s *booking.System) Calendar {
	cal := Calendar{
		CalendarID: id,
		Schedule:   make(map[string][]string, len(s.Schedule)),
		Bookings:   make([]Booking, 0, len(s.Bookings)),
		Requests:   make([]RequestRecord, 0, len(s.Pending)),
		NextID:     uint64(s.NextID),
	}
	for day, windows := range s.Schedule {
		specs := make([]string, 0, len(windows))
		for _, win := range windows {
			specs = append(specs, win.String())
		}
		cal.Schedule[day.String()] = specs
	}
	for _, b := range s.Bookings {
		cal.Bookings = append(cal.Bookings, Booking{
			Slot:            slotFromDomain(b.Slot),
			Customer:        customerFromDomain(b.Customer),
			Service:         string(b.Service),
			AmountPaidCents: b.AmountPaidCents,
		})
	}
	ids := make([]booking.RequestID, 0, len(s.Pending))
	for rid := range s.Pending {
		ids = append(ids, rid)
	}
	slices.Sort(ids)
	for _, rid := range ids {
		cal.Requests = append(cal.Requests, recordFromDomain(rid, s.Pending[rid]))
	}
	return cal
}

func ptr[T any](v T) *T {
	return &v
}
