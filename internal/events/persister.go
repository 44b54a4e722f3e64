package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/transport-dispatch/internal/db"
	"github.com/ukydev/transport-dispatch/internal/dispatch"
	"github.com/ukydev/transport-dispatch/internal/metrics"
	"github.com/ukydev/transport-dispatch/internal/models"
)

// Persister mirrors committed changes into MongoDB so the store can be
// restored after a restart.
type Persister struct {
	appointments db.AppointmentCollection
	vehicles     db.VehicleCollection
	timeout      time.Duration
	logger       logrus.FieldLogger
	metrics      *metrics.DispatchMetrics
}

func NewPersister(appointments db.AppointmentCollection, vehicles db.VehicleCollection, logger logrus.FieldLogger, m *metrics.DispatchMetrics) *Persister {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Persister{
		appointments: appointments,
		vehicles:     vehicles,
		timeout:      5 * time.Second,
		logger:       logger,
		metrics:      m,
	}
}

// Handle writes c. Errors are logged and counted.
func (p *Persister) Handle(c dispatch.Change) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	err := p.Apply(ctx, c)
	p.metrics.ObservePublish("mongo", err)
	if err != nil {
		p.logger.WithError(err).WithFields(logrus.Fields{
			"change":   c.Kind,
			"revision": c.Revision,
		}).Error("Failed to persist change")
	}
}

// Apply writes the documents touched by c: the vehicle for fleet changes,
// otherwise every appointment in the affected containers, since their
// positions may have shifted.
func (p *Persister) Apply(ctx context.Context, c dispatch.Change) error {
	if c.Vehicle != nil {
		if c.Kind == dispatch.ChangeVehicleRemoved {
			err := p.vehicles.DeleteVehicle(ctx, c.Vehicle.ID)
			if errors.Is(err, db.ErrNotFound) {
				return nil
			}
			return err
		}
		return p.vehicles.UpsertVehicle(ctx, *c.Vehicle)
	}
	if c.Appointment == nil {
		return fmt.Errorf("change %s carries no record", c.Kind)
	}

	if c.Kind == dispatch.ChangeCancelled {
		if err := p.appointments.DeleteAppointment(ctx, c.Appointment.ID); err != nil && !errors.Is(err, db.ErrNotFound) {
			return err
		}
	}

	var docs []models.Appointment
	touched := false
	for _, view := range c.Containers {
		for _, a := range view.Appointments {
			docs = append(docs, a)
			if a.ID == c.Appointment.ID {
				touched = true
			}
		}
	}
	if !touched && c.Kind != dispatch.ChangeCancelled {
		docs = append(docs, *c.Appointment)
	}
	return p.appointments.UpsertAppointments(ctx, docs...)
}
