package dispatch

import (
	"time"

	"github.com/ukydev/transport-dispatch/internal/models"
)

// VehicleQueueView is one vehicle together with its ordered queue.
type VehicleQueueView struct {
	Vehicle      models.Vehicle       `json:"vehicle"`
	Appointments []models.Appointment `json:"appointments"`
}

// BoardView is the whole dispatch state at a single revision.
type BoardView struct {
	Unassigned []models.Appointment `json:"unassigned"`
	Vehicles   []VehicleQueueView   `json:"vehicles"`
	Revision   uint64               `json:"revision"`
}

// Revision returns the current state revision.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Get returns a copy of one appointment.
func (s *Store) Get(appointmentID string) (models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, err := s.appointment(appointmentID)
	if err != nil {
		return models.Appointment{}, err
	}
	return *a, nil
}

// ListUnassigned returns the unassigned pool in order.
func (s *Store) ListUnassigned() []models.Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.appointmentsOf(s.pool)
}

// ListByVehicle returns the queue of one vehicle in order.
func (s *Store) ListByVehicle(vehicleID string) ([]models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, err := s.vehicle(vehicleID); err != nil {
		return nil, err
	}
	return s.appointmentsOf(s.queues[vehicleID]), nil
}

// ListByStatus returns every appointment in the given status, pool first and
// then vehicle queues, each in position order.
func (s *Store) ListByStatus(status models.AppointmentStatus) []models.Appointment {
	return s.filter(func(a *models.Appointment) bool { return a.Status == status })
}

// ListByDateRange returns appointments scheduled in [start, end).
func (s *Store) ListByDateRange(start, end time.Time) []models.Appointment {
	return s.filter(func(a *models.Appointment) bool {
		return !a.ScheduledAt.Before(start) && a.ScheduledAt.Before(end)
	})
}

// All returns every appointment.
func (s *Store) All() []models.Appointment {
	return s.filter(func(*models.Appointment) bool { return true })
}

// Vehicles returns every vehicle in registration order.
func (s *Store) Vehicles() []models.Vehicle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Vehicle, 0, len(s.vehicleOrder))
	for _, id := range s.vehicleOrder {
		out = append(out, copyVehicle(s.vehicles[id]))
	}
	return out
}

// Vehicle returns a copy of one vehicle.
func (s *Store) Vehicle(vehicleID string) (models.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, err := s.vehicle(vehicleID)
	if err != nil {
		return models.Vehicle{}, err
	}
	return copyVehicle(v), nil
}

// Snapshot returns the whole board at one revision.
func (s *Store) Snapshot() BoardView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b := BoardView{
		Unassigned: s.appointmentsOf(s.pool),
		Vehicles:   make([]VehicleQueueView, 0, len(s.vehicleOrder)),
		Revision:   s.revision,
	}
	for _, id := range s.vehicleOrder {
		b.Vehicles = append(b.Vehicles, VehicleQueueView{
			Vehicle:      copyVehicle(s.vehicles[id]),
			Appointments: s.appointmentsOf(s.queues[id]),
		})
	}
	return b
}

// Bookings returns every appointment whose booked window overlaps
// [start, end), all vehicles and the revision they were read at.
func (s *Store) Bookings(start, end time.Time) ([]models.Appointment, []models.Vehicle, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bookingsLocked(start, end)
}

func (s *Store) bookingsLocked(start, end time.Time) ([]models.Appointment, []models.Vehicle, uint64) {
	var appointments []models.Appointment
	s.walk(func(a *models.Appointment) {
		if a.ScheduledAt.Before(end) && a.End().After(start) {
			appointments = append(appointments, *a)
		}
	})
	vehicles := make([]models.Vehicle, 0, len(s.vehicleOrder))
	for _, id := range s.vehicleOrder {
		vehicles = append(vehicles, copyVehicle(s.vehicles[id]))
	}
	return appointments, vehicles, s.revision
}

func (s *Store) filter(keep func(*models.Appointment) bool) []models.Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Appointment
	s.walk(func(a *models.Appointment) {
		if keep(a) {
			out = append(out, *a)
		}
	})
	return out
}

// walk visits the pool and then each vehicle queue in position order.
func (s *Store) walk(fn func(*models.Appointment)) {
	for _, id := range s.pool {
		fn(s.appointments[id])
	}
	for _, vid := range s.vehicleOrder {
		for _, id := range s.queues[vid] {
			fn(s.appointments[id])
		}
	}
}
