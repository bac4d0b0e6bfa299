package booking

import (
	"fmt"
	"strings"
)

// Day is a day of the week. The zero value is Monday so that schedules
// iterate in calendar order.
type Day uint8

const (
	Monday Day = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var dayNames = [...]string{
	"monday",
	"tuesday",
	"wednesday",
	"thursday",
	"friday",
	"saturday",
	"sunday",
}

var dayShort = [...]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Days returns all seven days in calendar order, Monday first.
func Days() []Day {
	return []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}
}

// Weekdays returns Monday through Friday.
func Weekdays() []Day {
	return []Day{Monday, Tuesday, Wednesday, Thursday, Friday}
}

// Valid reports whether d names an actual day.
func (d Day) Valid() bool {
	return d <= Sunday
}

// String returns the lowercase day name, which is also the canonical text
// form used in JSON, YAML, and query parameters.
func (d Day) String() string {
	if !d.Valid() {
		return fmt.Sprintf("day(%d)", uint8(d))
	}
	return dayNames[d]
}

// Short returns the three letter abbreviation used by calendar views.
func (d Day) Short() string {
	if !d.Valid() {
		return "???"
	}
	return dayShort[d]
}

// ParseDay parses a lowercase or mixed-case day name.
func ParseDay(s string) (Day, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range dayNames {
		if n == name {
			return Day(i), nil
		}
	}
	return 0, fmt.Errorf("invalid day %q", s)
}

// ParseDays parses a list of day names, preserving order. An empty list
// means no preference and returns every day.
func ParseDays(names []string) ([]Day, error) {
	if len(names) == 0 {
		return Days(), nil
	}
	days := make([]Day, 0, len(names))
	for _, name := range names {
		day, err := ParseDay(name)
		if err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	return days, nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Day) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid day %d", uint8(d))
	}
	return []byte(dayNames[d]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Day) UnmarshalText(text []byte) error {
	day, err := ParseDay(string(text))
	if err != nil {
		return err
	}
	*d = day
	return nil
}
