package models

import "time"

// Vehicle represents a fleet vehicle that can be given a queue of transports.
type Vehicle struct {
	ID            string          `bson:"_id" json:"id"`
	Name          string          `bson:"name" json:"name"`
	LicensePlate  string          `bson:"license_plate" json:"license_plate"`
	Active        bool            `bson:"active" json:"active"`
	Capabilities  []TransportType `bson:"capabilities,omitempty" json:"capabilities,omitempty"` // empty means every transport type
	InspectionDue *time.Time      `bson:"inspection_due,omitempty" json:"inspection_due,omitempty"`
	CreatedAt     time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `bson:"updated_at" json:"updated_at"`
}

// Supports reports whether the vehicle is equipped for the transport type.
func (v Vehicle) Supports(t TransportType) bool {
	if len(v.Capabilities) == 0 {
		return true
	}
	for _, c := range v.Capabilities {
		if c == t {
			return true
		}
	}
	return false
}
