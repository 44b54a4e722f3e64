package models

import "fmt"

// ContainerKind distinguishes the unassigned pool from vehicle queues.
type ContainerKind string

const (
	ContainerUnassigned ContainerKind = "unassigned"
	ContainerVehicle    ContainerKind = "vehicle"
)

// Container identifies the list an appointment is ranked in: either the
// unassigned pool or a single vehicle's queue.
type Container struct {
	Kind      ContainerKind `json:"kind"`
	VehicleID string        `json:"vehicle_id,omitempty"`
}

// UnassignedPool returns the container of appointments without a vehicle.
func UnassignedPool() Container {
	return Container{Kind: ContainerUnassigned}
}

// VehicleQueue returns the container holding the queue of the given vehicle.
func VehicleQueue(vehicleID string) Container {
	return Container{Kind: ContainerVehicle, VehicleID: vehicleID}
}

// IsUnassigned reports whether c is the unassigned pool.
func (c Container) IsUnassigned() bool {
	return c.Kind == ContainerUnassigned
}

// Validate checks the container is well formed.
func (c Container) Validate() error {
	switch c.Kind {
	case ContainerUnassigned:
		if c.VehicleID != "" {
			return fmt.Errorf("unassigned container must not carry a vehicle id")
		}
		return nil
	case ContainerVehicle:
		if c.VehicleID == "" {
			return fmt.Errorf("vehicle container requires a vehicle id")
		}
		return nil
	default:
		return fmt.Errorf("unknown container kind %q", c.Kind)
	}
}

func (c Container) String() string {
	if c.Kind == ContainerVehicle {
		return "vehicle:" + c.VehicleID
	}
	return string(c.Kind)
}
