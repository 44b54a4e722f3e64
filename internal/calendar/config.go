package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidConfig is returned for calendar settings that cannot produce slots.
var ErrInvalidConfig = errors.New("invalid calendar config")

// Config describes the bookable working day.
type Config struct {
	WorkingHoursStart    string // "HH:MM"
	WorkingHoursEnd      string // "HH:MM"
	SlotMinutes          int
	BufferMinutes        int
	MaxPerSlotPerVehicle int
	AllowWeekends        bool
	Location             *time.Location
}

// DefaultConfig returns the standard dispatch day: 08:00 to 18:00 in
// 15 minute slots, one transport per vehicle and slot, weekdays only.
func DefaultConfig() Config {
	return Config{
		WorkingHoursStart:    "08:00",
		WorkingHoursEnd:      "18:00",
		SlotMinutes:          15,
		BufferMinutes:        0,
		MaxPerSlotPerVehicle: 1,
		AllowWeekends:        false,
		Location:             time.Local,
	}
}

// Validate checks the config and returns every problem found.
func (c Config) Validate() error {
	var problems []string
	start, errStart := parseClock(c.WorkingHoursStart)
	if errStart != nil {
		problems = append(problems, "working hours start: "+errStart.Error())
	}
	end, errEnd := parseClock(c.WorkingHoursEnd)
	if errEnd != nil {
		problems = append(problems, "working hours end: "+errEnd.Error())
	}
	if errStart == nil && errEnd == nil && start >= end {
		problems = append(problems, "working hours must start before they end")
	}
	if c.SlotMinutes <= 0 {
		problems = append(problems, "slot minutes must be positive")
	}
	if c.BufferMinutes < 0 {
		problems = append(problems, "buffer minutes must not be negative")
	}
	if c.MaxPerSlotPerVehicle < 1 {
		problems = append(problems, "max per slot per vehicle must be at least 1")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// parseClock turns "HH:MM" into minutes after midnight.
func parseClock(s string) (int, error) {
	h, m, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("%q is not HH:MM", s)
	}
	hours, err := strconv.Atoi(h)
	if err != nil || hours < 0 || hours > 24 {
		return 0, fmt.Errorf("%q has an invalid hour", s)
	}
	minutes, err := strconv.Atoi(m)
	if err != nil || minutes < 0 || minutes > 59 || (hours == 24 && minutes > 0) {
		return 0, fmt.Errorf("%q has an invalid minute", s)
	}
	return hours*60 + minutes, nil
}
