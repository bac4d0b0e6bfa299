package booking

import (
	"fmt"
	"strconv"
	"strings"
)

// Time is a wall-clock time of day with minute precision. It carries no
// date and no timezone; the calendar deals in local working hours only.
type Time struct {
	Hour   uint8
	Minute uint8
}

// NewTime returns the time h:m. Hour is expected in 0-23 and minute in
// 0-59; ParseTime is the validating entry point for external input.
func NewTime(hour, minute uint8) Time {
	return Time{Hour: hour, Minute: minute}
}

// ParseTime parses "09:00" or "9:00" style clock strings.
func ParseTime(s string) (Time, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return Time{}, fmt.Errorf("invalid time %q", s)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return Time{}, fmt.Errorf("invalid time %q", s)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return Time{}, fmt.Errorf("invalid time %q", s)
	}
	return Time{Hour: uint8(hour), Minute: uint8(minute)}, nil
}

// Minutes returns the time as minutes since midnight.
func (t Time) Minutes() int {
	return int(t.Hour)*60 + int(t.Minute)
}

// AddMinutes returns the time m minutes later. The result may run past
// 23:59 (hour 24 and beyond) so that end-of-appointment arithmetic stays
// total; such values only ever appear in comparisons, never in state.
func (t Time) AddMinutes(m int) Time {
	total := t.Minutes() + m
	return Time{Hour: uint8(total / 60), Minute: uint8(total % 60)}
}

// Before reports whether t is strictly earlier than other.
func (t Time) Before(other Time) bool {
	return t.Minutes() < other.Minutes()
}

// String returns the canonical "09:00" form.
func (t Time) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// MarshalText implements encoding.TextMarshaler.
func (t Time) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Time) UnmarshalText(text []byte) error {
	parsed, err := ParseTime(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// TimeRange is a half-open working window [Start, End). Start is always
// strictly before End in a well-formed range.
type TimeRange struct {
	Start Time
	End   Time
}

// ParseTimeRange parses "09:00-12:00" style window strings.
func ParseTimeRange(s string) (TimeRange, error) {
	from, to, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return TimeRange{}, fmt.Errorf("invalid time range %q", s)
	}
	start, err := ParseTime(from)
	if err != nil {
		return TimeRange{}, fmt.Errorf("invalid time range %q: %w", s, err)
	}
	end, err := ParseTime(to)
	if err != nil {
		return TimeRange{}, fmt.Errorf("invalid time range %q: %w", s, err)
	}
	if !start.Before(end) {
		return TimeRange{}, fmt.Errorf("invalid time range %q: start is not before end", s)
	}
	return TimeRange{Start: start, End: end}, nil
}

// ParseWindows parses a list of "09:00-12:00" style window specs,
// preserving order. An empty list means no preference and returns one
// window spanning the whole day.
func ParseWindows(specs []string) ([]TimeRange, error) {
	if len(specs) == 0 {
		return []TimeRange{{Start: NewTime(0, 0), End: NewTime(23, 59)}}, nil
	}
	windows := make([]TimeRange, 0, len(specs))
	for _, spec := range specs {
		win, err := ParseTimeRange(spec)
		if err != nil {
			return nil, err
		}
		windows = append(windows, win)
	}
	return windows, nil
}

// Contains reports whether t falls inside the window.
func (r TimeRange) Contains(t Time) bool {
	return t.Minutes() >= r.Start.Minutes() && t.Minutes() < r.End.Minutes()
}

// CanFit reports whether an appointment starting at start and lasting
// durationMinutes fits entirely inside the window.
func (r TimeRange) CanFit(start Time, durationMinutes int) bool {
	return start.Minutes() >= r.Start.Minutes() &&
		start.Minutes()+durationMinutes <= r.End.Minutes()
}

// String returns the canonical "09:00-12:00" form.
func (r TimeRange) String() string {
	return r.Start.String() + "-" + r.End.String()
}

// MarshalText implements encoding.TextMarshaler.
func (r TimeRange) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *TimeRange) UnmarshalText(text []byte) error {
	parsed, err := ParseTimeRange(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
