package models

import "time"

// TimeSlot is a bookable interval with its remaining transport capacity.
type TimeSlot struct {
	Start             time.Time `json:"start"`
	End               time.Time `json:"end"`
	Available         bool      `json:"available"`
	CapacityRemaining int       `json:"capacity_remaining"`
}
