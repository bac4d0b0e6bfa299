package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/perennial/internal/presentation/graph"
	"github.com/aretw0/perennial/pkg/booking"
)

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		build    func() *booking.System
		contains []string
		excludes []string
	}{
		{
			name: "Working Windows",
			build: func() *booking.System {
				s := booking.NewSystem()
				s.AddSchedule(booking.Monday, booking.TimeRange{Start: booking.NewTime(9, 0), End: booking.NewTime(12, 0)})
				return s
			},
			contains: []string{
				"gantt",
				"section monday",
				"open : done, 09:00, 180m",
			},
		},
		{
			name: "Closed Days Omitted",
			build: func() *booking.System {
				s := booking.NewSystem()
				s.AddSchedule(booking.Friday, booking.TimeRange{Start: booking.NewTime(9, 0), End: booking.NewTime(15, 0)})
				return s
			},
			contains: []string{"section friday"},
			excludes: []string{"section monday", "section tuesday"},
		},
		{
			name: "Confirmed Booking",
			build: func() *booking.System {
				s := booking.NewSystem()
				s.AddSchedule(booking.Monday, booking.TimeRange{Start: booking.NewTime(9, 0), End: booking.NewTime(12, 0)})
				s.Bookings = append(s.Bookings, booking.Booking{
					Slot:     booking.Slot{Day: booking.Monday, Time: booking.NewTime(9, 0)},
					Customer: booking.Customer{ID: 1, Name: "Ada"},
					Service:  booking.ServiceMaintenance,
				})
				return s
			},
			contains: []string{
				"maintenance (Ada) : 09:00, 30m",
			},
		},
		{
			name: "Awaiting Request Marked Active",
			build: func() *booking.System {
				s := booking.NewSystem()
				s.AddSchedule(booking.Tuesday, booking.TimeRange{Start: booking.NewTime(9, 0), End: booking.NewTime(12, 0)})
				s.Pending[1] = booking.PendingRequest{
					Customer: booking.Customer{ID: 1, Name: "Ada"},
					Slot:     booking.Slot{Day: booking.Tuesday, Time: booking.NewTime(10, 0)},
					Service:  booking.ServicePlanting,
					Status:   booking.StatusAwaitingConfirmation,
				}
				s.NextID = 2
				return s
			},
			contains: []string{
				"request #1 planting : active, 10:00, 45m",
			},
		},
		{
			name: "Label Sanitization",
			build: func() *booking.System {
				s := booking.NewSystem()
				s.AddSchedule(booking.Monday, booking.TimeRange{Start: booking.NewTime(9, 0), End: booking.NewTime(12, 0)})
				s.Bookings = append(s.Bookings, booking.Booking{
					Slot:     booking.Slot{Day: booking.Monday, Time: booking.NewTime(9, 0)},
					Customer: booking.Customer{ID: 1, Name: "A:B;C"},
					Service:  booking.ServiceConsultation,
				})
				return s
			},
			contains: []string{"consultation (A-B,C)"},
			excludes: []string{"A:B;C"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := graph.GenerateMermaid("week", tt.build())

			for _, expected := range tt.contains {
				if !strings.Contains(output, expected) {
					t.Errorf("expected output to contain %q.\nGot:\n%s", expected, output)
				}
			}
			for _, excluded := range tt.excludes {
				if strings.Contains(output, excluded) {
					t.Errorf("expected output NOT to contain %q.\nGot:\n%s", excluded, output)
				}
			}
		})
	}
}

// Title sanitization shares the label rules: a colon in the title would
// break the gantt header line.
func TestGenerateMermaidTitle(t *testing.T) {
	s := booking.NewSystem()
	out := graph.GenerateMermaid("crew: north", s)
	if !strings.Contains(out, "title crew- north") {
		t.Errorf("expected sanitized title, got:\n%s", out)
	}
}
