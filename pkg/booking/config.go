package booking

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ScheduleConfig is the on-disk shape of a calendar's working hours:
//
//	resource: crew-a
//	hours:
//	  monday: ["09:00-12:00", "14:00-17:00"]
//	  friday: ["09:00-15:00"]
//
// Day names are lowercase and windows use the "HH:MM-HH:MM" form.
type ScheduleConfig struct {
	Resource string              `yaml:"resource" json:"resource"`
	Hours    map[string][]string `yaml:"hours" json:"hours"`
}

// ParseSchedule decodes a YAML schedule document.
func ParseSchedule(data []byte) (ScheduleConfig, error) {
	var cfg ScheduleConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ScheduleConfig{}, fmt.Errorf("parse schedule: %w", err)
	}
	return cfg, nil
}

// Apply validates the configured hours and appends them to the system's
// schedule, iterating days in calendar order so the result is independent
// of map iteration. It fails without touching the system if any day name
// or window is malformed.
func (c ScheduleConfig) Apply(s *System) error {
	parsed := make(map[Day][]TimeRange, len(c.Hours))
	for name, windows := range c.Hours {
		day, err := ParseDay(name)
		if err != nil {
			return fmt.Errorf("schedule for %q: %w", c.Resource, err)
		}
		for _, w := range windows {
			r, err := ParseTimeRange(w)
			if err != nil {
				return fmt.Errorf("schedule for %q, %s: %w", c.Resource, day, err)
			}
			parsed[day] = append(parsed[day], r)
		}
	}
	for _, day := range Days() {
		for _, r := range parsed[day] {
			s.AddSchedule(day, r)
		}
	}
	return nil
}

// System builds a fresh calendar from the configured hours.
func (c ScheduleConfig) System() (*System, error) {
	s := NewSystem()
	if err := c.Apply(s); err != nil {
		return nil, err
	}
	return s, nil
}
