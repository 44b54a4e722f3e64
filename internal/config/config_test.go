package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/transport-dispatch/internal/models"
)

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, EnvLocal, cfg.App.Env)
	assert.Equal(t, "Europe/Berlin", cfg.App.Timezone)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, 24*time.Hour, cfg.Auth.JWTExpiry)
	assert.Equal(t, models.TransportWheelchair, cfg.Dispatch.DefaultTransportType)
	assert.False(t, cfg.MQTT.Enabled)

	cal, err := cfg.CalendarConfig()
	require.NoError(t, err)
	assert.Equal(t, "08:00", cal.WorkingHoursStart)
	assert.Equal(t, "18:00", cal.WorkingHoursEnd)
	assert.Equal(t, 15, cal.SlotMinutes)
	assert.Equal(t, 1, cal.MaxPerSlotPerVehicle)
	assert.False(t, cal.AllowWeekends)
	assert.Equal(t, "Europe/Berlin", cal.Location.String())
	assert.Zero(t, cfg.Rules().MaxAppointmentsPerVehicle)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("APP_ENV", "PRODUCTION")
	t.Setenv("APP_TIMEZONE", "UTC")
	t.Setenv("CALENDAR_SLOT_MINUTES", "30")
	t.Setenv("CALENDAR_BUFFER_MINUTES", "45")
	t.Setenv("CALENDAR_ALLOW_WEEKENDS", "true")
	t.Setenv("DISPATCH_MAX_APPOINTMENTS_PER_VEHICLE", "8")
	t.Setenv("DISPATCH_DEFAULT_TRANSPORT_TYPE", "stretcher")
	t.Setenv("MQTT_ENABLED", "true")

	cfg, err := Load(missingEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, EnvProduction, cfg.App.Env)
	assert.False(t, cfg.IsLocal())
	assert.Equal(t, 8, cfg.Rules().MaxAppointmentsPerVehicle)
	assert.Equal(t, models.TransportStretcher, cfg.Dispatch.DefaultTransportType)
	assert.True(t, cfg.MQTT.Enabled)

	cal, err := cfg.CalendarConfig()
	require.NoError(t, err)
	assert.Equal(t, 30, cal.SlotMinutes)
	assert.Equal(t, 45, cal.BufferMinutes)
	assert.True(t, cal.AllowWeekends)
	assert.Equal(t, time.UTC, cal.Location)

	_, isJSON := cfg.NewLogger().Formatter.(*logrus.JSONFormatter)
	assert.True(t, isJSON)
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CALENDAR_WORKING_HOURS_START=07:30\nLOG_LEVEL=debug\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("CALENDAR_WORKING_HOURS_START")
		os.Unsetenv("LOG_LEVEL")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "07:30", cfg.Calendar.WorkingHoursStart)
	assert.Equal(t, logrus.DebugLevel, cfg.NewLogger().GetLevel())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"timezone", "APP_TIMEZONE", "Mars/Olympus"},
		{"log level", "LOG_LEVEL", "loud"},
		{"transport type", "DISPATCH_DEFAULT_TRANSPORT_TYPE", "bicycle"},
		{"working hours", "CALENDAR_WORKING_HOURS_END", "07:00"},
		{"slot length", "CALENDAR_SLOT_MINUTES", "0"},
		{"not a number", "CALENDAR_SLOT_MINUTES", "fifteen"},
		{"negative cap", "DISPATCH_MAX_APPOINTMENTS_PER_VEHICLE", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load(missingEnvFile(t))
			assert.Error(t, err)
		})
	}
}
