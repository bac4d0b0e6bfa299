package tui

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/aretw0/perennial/pkg/booking"
)

var moneyPrinter = message.NewPrinter(language.AmericanEnglish)

// Money formats an amount in cents as dollars, with thousands separators
// for the large landscaping invoices.
func Money(cents int64) string {
	if cents < 0 {
		return "-" + Money(-cents)
	}
	return moneyPrinter.Sprintf("$%d.%02d", cents/100, cents%100)
}

// CalendarGrid renders the week as fixed-width text: one line per day with
// its working windows, confirmed bookings indented underneath. Days print
// in calendar order and bookings in start order, so the output is stable
// across runs.
func CalendarGrid(s *booking.System) string {
	var b strings.Builder
	for _, day := range booking.Days() {
		windows := s.Schedule[day]
		if len(windows) == 0 {
			fmt.Fprintf(&b, "%s  closed\n", day.Short())
			continue
		}
		specs := make([]string, len(windows))
		for i, w := range windows {
			specs[i] = w.String()
		}
		fmt.Fprintf(&b, "%s  %s\n", day.Short(), strings.Join(specs, "  "))
		for _, bk := range bookingsOn(s, day) {
			fmt.Fprintf(&b, "     %s  %-12s %-10s %s\n",
				bk.Slot.Time, bk.Service, bk.Customer.Name, Money(bk.AmountPaidCents))
		}
	}
	return b.String()
}

// BookingSummary builds a markdown digest of one calendar: working hours,
// confirmed bookings, and requests still awaiting confirmation. Feed it
// through NewRenderer for styled terminal output.
func BookingSummary(name string, s *booking.System) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Calendar %s\n\n", name)

	b.WriteString("## Working hours\n\n")
	open := false
	for _, day := range booking.Days() {
		windows := s.Schedule[day]
		if len(windows) == 0 {
			continue
		}
		open = true
		specs := make([]string, len(windows))
		for i, w := range windows {
			specs[i] = w.String()
		}
		fmt.Fprintf(&b, "- **%s** %s\n", day, strings.Join(specs, ", "))
	}
	if !open {
		b.WriteString("- no working hours configured\n")
	}

	b.WriteString("\n## Confirmed bookings\n\n")
	if len(s.Bookings) == 0 {
		b.WriteString("- none yet\n")
	} else {
		for _, day := range booking.Days() {
			for _, bk := range bookingsOn(s, day) {
				fmt.Fprintf(&b, "- **%s** %s for %s, paid %s\n",
					bk.Slot, bk.Service, bk.Customer.Name, Money(bk.AmountPaidCents))
			}
		}
	}

	b.WriteString("\n## Awaiting confirmation\n\n")
	awaiting := s.PendingInStatus(booking.StatusAwaitingConfirmation)
	if len(awaiting) == 0 {
		b.WriteString("- none\n")
	} else {
		for _, id := range awaiting {
			p := s.Pending[id]
			fmt.Fprintf(&b, "- request #%d: %s on %s for %s\n", id, p.Service, p.Slot, p.Customer.Name)
		}
	}

	return b.String()
}

// bookingsOn returns the day's confirmed bookings ordered by start time.
func bookingsOn(s *booking.System, day booking.Day) []booking.Booking {
	var out []booking.Booking
	for _, b := range s.Bookings {
		if b.Slot.Day == day {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b booking.Booking) int {
		return a.Slot.Time.Minutes() - b.Slot.Time.Minutes()
	})
	return out
}
