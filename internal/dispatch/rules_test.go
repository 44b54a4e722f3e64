package dispatch

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/ukydev/transport-dispatch/internal/models"
)

func TestCanAccept(t *testing.T) {
	day := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	appointment := models.Appointment{ID: "new", ScheduledAt: day, TransportType: models.TransportWheelchair}
	busy := []models.Appointment{
		{ID: "a", ScheduledAt: day.Add(-time.Hour)},
		{ID: "b", ScheduledAt: day.Add(24 * time.Hour)},
	}

	tests := []struct {
		name    string
		vehicle models.Vehicle
		queue   []models.Appointment
		rules   AssignmentRules
		want    error
	}{
		{name: "active without limits", vehicle: models.Vehicle{Active: true}},
		{name: "inactive", vehicle: models.Vehicle{ID: "v", Active: false}, want: ErrVehicleInactive},
		{
			name:    "missing capability",
			vehicle: models.Vehicle{Active: true, Capabilities: []models.TransportType{models.TransportStretcher}},
			want:    ErrCapacityExceeded,
		},
		{
			name:    "matching capability",
			vehicle: models.Vehicle{Active: true, Capabilities: []models.TransportType{models.TransportWheelchair}},
		},
		{name: "below daily cap", vehicle: models.Vehicle{Active: true}, queue: busy, rules: AssignmentRules{MaxAppointmentsPerVehicle: 2}},
		{name: "daily cap reached", vehicle: models.Vehicle{Active: true}, queue: busy, rules: AssignmentRules{MaxAppointmentsPerVehicle: 1}, want: ErrCapacityExceeded},
		{
			name:    "own entry is not counted",
			vehicle: models.Vehicle{Active: true},
			queue:   []models.Appointment{appointment},
			rules:   AssignmentRules{MaxAppointmentsPerVehicle: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanAccept(tt.vehicle, tt.queue, appointment, tt.rules)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidationError(t *testing.T) {
	verr := &ValidationError{}
	assert.NoError(t, verr.OrNil())

	verr.Add("phone", "too short")
	verr.Add("email", "invalid")
	err := verr.OrNil()

	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "validation failed: phone: too short; email: invalid", err.Error())
}

func TestSameDate(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skip("timezone database not available")
	}
	lateUTC := time.Date(2025, 3, 10, 23, 30, 0, 0, time.UTC)
	assert.True(t, sameDate(lateUTC, time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)))
	assert.True(t, sameDate(lateUTC, time.Date(2025, 3, 11, 8, 0, 0, 0, berlin)))
	assert.False(t, sameDate(lateUTC, time.Date(2025, 3, 10, 8, 0, 0, 0, berlin)))
}
