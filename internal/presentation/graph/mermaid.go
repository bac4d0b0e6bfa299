// Package graph renders booking calendars as Mermaid diagrams, for pasting
// into documentation or issue threads.
package graph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/perennial/pkg/booking"
)

// GenerateMermaid produces a Mermaid gantt chart of one calendar week: a
// section per open day with its working windows marked done, confirmed
// bookings as plain tasks, and requests still awaiting confirmation marked
// active. Closed days are omitted.
func GenerateMermaid(name string, s *booking.System) string {
	var sb strings.Builder
	sb.WriteString("gantt\n")
	fmt.Fprintf(&sb, "    title %s\n", sanitizeMermaidLabel(name))
	sb.WriteString("    dateFormat HH:mm\n")
	sb.WriteString("    axisFormat %H:%M\n")

	for _, day := range booking.Days() {
		windows := s.Schedule[day]
		if len(windows) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n    section %s\n", day)

		for _, w := range windows {
			fmt.Fprintf(&sb, "    open : done, %s, %dm\n", w.Start, rangeMinutes(w))
		}
		for _, b := range bookingsOn(s, day) {
			label := sanitizeMermaidLabel(fmt.Sprintf("%s (%s)", b.Service, b.Customer.Name))
			fmt.Fprintf(&sb, "    %s : %s, %dm\n", label, b.Slot.Time, b.Service.DurationMinutes())
		}
		for _, id := range awaitingOn(s, day) {
			p := s.Pending[id]
			label := sanitizeMermaidLabel(fmt.Sprintf("request #%d %s", id, p.Service))
			fmt.Fprintf(&sb, "    %s : active, %s, %dm\n", label, p.Slot.Time, p.Service.DurationMinutes())
		}
	}

	return sb.String()
}

func rangeMinutes(r booking.TimeRange) int {
	return r.End.Minutes() - r.Start.Minutes()
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

// awaitingOn returns the day's awaiting request ids in ascending id order.
func awaitingOn(s *booking.System, day booking.Day) []booking.RequestID {
	var out []booking.RequestID
	for _, id := range s.PendingInStatus(booking.StatusAwaitingConfirmation) {
		if s.Pending[id].Slot.Day == day {
			out = append(out, id)
		}
	}
	return out
}

// sanitizeMermaidLabel strips gantt syntax out of free text: colons delimit
// task metadata and semicolons end statements, so neither may survive.
func sanitizeMermaidLabel(label string) string {
	s := strings.ReplaceAll(label, ":", "-")
	s = strings.ReplaceAll(s, ";", ",")
	return strings.TrimSpace(s)
}
