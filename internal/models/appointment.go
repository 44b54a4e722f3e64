package models

import "time"

// TransportType is the kind of patient transport requested.
type TransportType string

const (
	TransportWheelchair        TransportType = "wheelchair"
	TransportCarryingChair     TransportType = "carryingChair"
	TransportWalkingAssistance TransportType = "walkingAssistance"
	TransportStretcher         TransportType = "stretcher"
)

// TransportTypes lists every supported transport type.
var TransportTypes = []TransportType{
	TransportWheelchair,
	TransportCarryingChair,
	TransportWalkingAssistance,
	TransportStretcher,
}

// IsValidTransportType checks if a transport type is one of the supported kinds
func IsValidTransportType(t TransportType) bool {
	switch t {
	case TransportWheelchair, TransportCarryingChair, TransportWalkingAssistance, TransportStretcher:
		return true
	default:
		return false
	}
}

// AppointmentStatus is the dispatch state of an appointment.
type AppointmentStatus string

const (
	StatusUnassigned AppointmentStatus = "unassigned"
	StatusAssigned   AppointmentStatus = "assigned"
	StatusInProgress AppointmentStatus = "inProgress"
	StatusCompleted  AppointmentStatus = "completed"
)

// IsValidStatus checks if a status is one of the known appointment states
func IsValidStatus(s AppointmentStatus) bool {
	switch s {
	case StatusUnassigned, StatusAssigned, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

// Patient holds the contact data of the person being transported.
type Patient struct {
	FirstName string `json:"first_name" bson:"first_name"`
	LastName  string `json:"last_name" bson:"last_name"`
	Phone     string `json:"phone" bson:"phone"`
	Email     string `json:"email,omitempty" bson:"email,omitempty"`
}

// Address is a pickup or destination address.
type Address struct {
	Street  string `json:"street" bson:"street"`
	City    string `json:"city" bson:"city"`
	ZipCode string `json:"zip_code" bson:"zip_code"`
}

// Appointment represents a single patient transport request.
type Appointment struct {
	ID              string            `json:"id" bson:"_id"`
	Patient         Patient           `json:"patient" bson:"patient"`
	Pickup          Address           `json:"pickup" bson:"pickup"`
	Destination     Address           `json:"destination" bson:"destination"`
	ScheduledAt     time.Time         `json:"scheduled_at" bson:"scheduled_at"`
	DurationMinutes int               `json:"duration_minutes" bson:"duration_minutes"`
	TransportType   TransportType     `json:"transport_type" bson:"transport_type"`
	Status          AppointmentStatus `json:"status" bson:"status"`
	VehicleID       string            `json:"vehicle_id,omitempty" bson:"vehicle_id,omitempty"`
	Position        int               `json:"position" bson:"position"`
	Notes           string            `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt       time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at" bson:"updated_at"`
}

// End returns the end of the booked time window.
func (a Appointment) End() time.Time {
	return a.ScheduledAt.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// Container returns the container the appointment currently belongs to.
func (a Appointment) Container() Container {
	if a.VehicleID == "" {
		return UnassignedPool()
	}
	return VehicleQueue(a.VehicleID)
}
