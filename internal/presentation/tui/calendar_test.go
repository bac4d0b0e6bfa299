package tui

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/perennial/pkg/booking"
)

func TestMoney(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "$0.00"},
		{5, "$0.05"},
		{7500, "$75.00"},
		{20000, "$200.00"},
		{123456789, "$1,234,567.89"},
		{-50, "-$0.50"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Money(tc.cents), "cents=%d", tc.cents)
	}
}

func demoSystem() *booking.System {
	s := booking.NewSystemWithDefaultSchedule()
	// Bookings appended out of order to prove the grid sorts by start time.
	s.Bookings = append(s.Bookings,
		booking.Booking{
			Slot:            booking.Slot{Day: booking.Monday, Time: booking.NewTime(10, 30)},
			Customer:        booking.Customer{ID: 2, Name: "Bea"},
			Service:         booking.ServiceConsultation,
			AmountPaidCents: 5000,
		},
		booking.Booking{
			Slot:            booking.Slot{Day: booking.Monday, Time: booking.NewTime(9, 0)},
			Customer:        booking.Customer{ID: 1, Name: "Ada"},
			Service:         booking.ServiceMaintenance,
			AmountPaidCents: 7500,
		},
		booking.Booking{
			Slot:            booking.Slot{Day: booking.Friday, Time: booking.NewTime(10, 0)},
			Customer:        booking.Customer{ID: 3, Name: "Grace"},
			Service:         booking.ServiceLandscaping,
			AmountPaidCents: 20000,
		},
	)
	return s
}

func TestCalendarGridGolden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "calendar_grid", []byte(CalendarGrid(demoSystem())))
}

func TestCalendarGridEmpty(t *testing.T) {
	got := CalendarGrid(booking.NewSystem())
	want := "Mon  closed\nTue  closed\nWed  closed\nThu  closed\nFri  closed\nSat  closed\nSun  closed\n"
	assert.Equal(t, want, got)
}

func TestBookingSummaryGolden(t *testing.T) {
	s := booking.NewSystemWithDefaultSchedule()
	s.Bookings = append(s.Bookings, booking.Booking{
		Slot:            booking.Slot{Day: booking.Monday, Time: booking.NewTime(9, 0)},
		Customer:        booking.Customer{ID: 1, Name: "Ada"},
		Service:         booking.ServiceMaintenance,
		AmountPaidCents: 7500,
	})
	s.Pending[1] = booking.PendingRequest{
		Customer: booking.Customer{ID: 1, Name: "Ada"},
		Slot:     booking.Slot{Day: booking.Monday, Time: booking.NewTime(9, 0)},
		Service:  booking.ServiceMaintenance,
		Status:   booking.StatusConfirmed,
	}
	s.Pending[2] = booking.PendingRequest{
		Customer: booking.Customer{ID: 3, Name: "Grace"},
		Slot:     booking.Slot{Day: booking.Tuesday, Time: booking.NewTime(9, 0)},
		Service:  booking.ServicePlanting,
		Status:   booking.StatusAwaitingConfirmation,
	}
	s.NextID = 3

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "booking_summary", []byte(BookingSummary("crew-a", s)))
}

func TestBookingSummaryEmpty(t *testing.T) {
	got := BookingSummary("empty", booking.NewSystem())
	want := `# Calendar empty

## Working hours

- no working hours configured

## Confirmed bookings

- none yet

## Awaiting confirmation

- none
`
	assert.Equal(t, want, got)
}

func TestRendererProducesOutput(t *testing.T) {
	render := NewRenderer()
	out, err := render("# Perennial\n\nhello")
	require.NoError(t, err)
	assert.Contains(t, out, "hello")
}

func TestPlainRendererPassesThrough(t *testing.T) {
	render := PlainRenderer()
	out, err := render("# Title")
	require.NoError(t, err)
	assert.Equal(t, "# Title", out)
}
