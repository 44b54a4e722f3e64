package db

import (
	"context"
	"errors"

	"github.com/ukydev/transport-dispatch/internal/models"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when a lookup by id matches no document.
var ErrNotFound = errors.New("document not found")

// AppointmentCollection defines the interface for appointment persistence.
type AppointmentCollection interface {
	UpsertAppointments(ctx context.Context, appointments ...models.Appointment) error
	DeleteAppointment(ctx context.Context, id string) error
	FindAppointments(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (Cursor, error)
}

// VehicleCollection defines the interface for vehicle persistence.
type VehicleCollection interface {
	UpsertVehicle(ctx context.Context, vehicle models.Vehicle) error
	FindVehicles(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (Cursor, error)
	FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error)
	DeleteVehicle(ctx context.Context, id string) error
}

// Cursor defines the interface for cursor operations.
type Cursor interface {
	All(ctx context.Context, out interface{}) error
	Close(ctx context.Context) error
}
