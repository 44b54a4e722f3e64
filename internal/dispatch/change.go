package dispatch

import (
	"time"

	"github.com/ukydev/transport-dispatch/internal/models"
)

// ChangeKind names a committed state change.
type ChangeKind string

const (
	ChangeCreated        ChangeKind = "appointment.created"
	ChangeAssigned       ChangeKind = "appointment.assigned"
	ChangeUnassigned     ChangeKind = "appointment.unassigned"
	ChangeReassigned     ChangeKind = "appointment.reassigned"
	ChangeReordered      ChangeKind = "appointment.reordered"
	ChangeStarted        ChangeKind = "appointment.started"
	ChangeCompleted      ChangeKind = "appointment.completed"
	ChangeCancelled      ChangeKind = "appointment.cancelled"
	ChangeVehicleAdded   ChangeKind = "vehicle.added"
	ChangeVehicleUpdated ChangeKind = "vehicle.updated"
	ChangeVehicleRemoved ChangeKind = "vehicle.removed"
)

// Change is handed to the store observer after every committed mutation.
// Appointment changes carry the affected containers; fleet changes carry
// the vehicle.
type Change struct {
	Kind        ChangeKind          `json:"kind"`
	Appointment *models.Appointment `json:"appointment,omitempty"`
	Vehicle     *models.Vehicle     `json:"vehicle,omitempty"`
	Containers  []ContainerView     `json:"containers,omitempty"`
	Revision    uint64              `json:"revision"`
	At          time.Time           `json:"at"`
}

// IsFleetChange reports whether the change concerns a vehicle record.
func (c Change) IsFleetChange() bool {
	return c.Vehicle != nil
}
