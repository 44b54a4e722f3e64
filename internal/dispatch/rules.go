package dispatch

import (
	"fmt"

	"github.com/ukydev/transport-dispatch/internal/models"
)

// AssignmentRules holds the operational limits checked before an
// appointment may join a vehicle queue.
type AssignmentRules struct {
	// MaxAppointmentsPerVehicle caps the number of appointments a vehicle
	// carries on one calendar day. Zero disables the cap.
	MaxAppointmentsPerVehicle int
}

// CanAccept reports whether vehicle may take appointment. queue holds the
// appointments already in the vehicle's queue. A nil error means the
// assignment is allowed.
func CanAccept(vehicle models.Vehicle, queue []models.Appointment, appointment models.Appointment, rules AssignmentRules) error {
	if !vehicle.Active {
		return fmt.Errorf("%w: %s", ErrVehicleInactive, vehicle.ID)
	}
	if !vehicle.Supports(appointment.TransportType) {
		return fmt.Errorf("%w: %s does not carry %s", ErrCapacityExceeded, vehicle.ID, appointment.TransportType)
	}
	if rules.MaxAppointmentsPerVehicle <= 0 {
		return nil
	}
	sameDay := 0
	for _, a := range queue {
		if a.ID != appointment.ID && sameDate(a.ScheduledAt, appointment.ScheduledAt) {
			sameDay++
		}
	}
	if sameDay >= rules.MaxAppointmentsPerVehicle {
		return fmt.Errorf("%w: %s already has %d appointments that day", ErrCapacityExceeded, vehicle.ID, sameDay)
	}
	return nil
}
