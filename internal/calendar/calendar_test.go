package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/transport-dispatch/internal/models"
)

// Monday
var monday = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

type fakeSource struct {
	appointments []models.Appointment
	vehicles     []models.Vehicle
	revision     uint64
	calls        int
}

func (f *fakeSource) Bookings(start, end time.Time) ([]models.Appointment, []models.Vehicle, uint64) {
	f.calls++
	return f.appointments, f.vehicles, f.revision
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Location = time.UTC
	return cfg
}

func newCalendar(t *testing.T, cfg Config, now time.Time, opts ...Option) *Calendar {
	t.Helper()
	c, err := New(cfg, append([]Option{WithClock(func() time.Time { return now })}, opts...)...)
	require.NoError(t, err)
	return c
}

func activeVehicles(n int) []models.Vehicle {
	out := make([]models.Vehicle, n)
	for i := range out {
		out[i] = models.Vehicle{ID: string(rune('A' + i)), Active: true}
	}
	return out
}

func appointmentAt(hour, minute, duration int) models.Appointment {
	return models.Appointment{
		ScheduledAt:     monday.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute),
		DurationMinutes: duration,
		Status:          models.StatusUnassigned,
	}
}

func slotAt(t *testing.T, slots []models.TimeSlot, hour, minute int) models.TimeSlot {
	t.Helper()
	want := monday.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
	for _, s := range slots {
		if s.Start.Equal(want) {
			return s
		}
	}
	t.Fatalf("no slot at %02d:%02d", hour, minute)
	return models.TimeSlot{}
}

func TestGenerateSlots_FullDay(t *testing.T) {
	c := newCalendar(t, testConfig(), monday.Add(-12*time.Hour))

	slots, err := c.GenerateSlots(monday, nil, activeVehicles(3))
	require.NoError(t, err)
	require.Len(t, slots, 40)
	assert.Equal(t, monday.Add(8*time.Hour), slots[0].Start)
	assert.Equal(t, monday.Add(18*time.Hour), slots[39].End)
	for i, s := range slots {
		assert.True(t, s.Available, "slot %d", i)
		assert.Equal(t, 3, s.CapacityRemaining)
		assert.Equal(t, 15*time.Minute, s.End.Sub(s.Start))
		if i > 0 {
			assert.Equal(t, slots[i-1].End, s.Start)
		}
	}
}

func TestGenerateSlots_Occupancy(t *testing.T) {
	c := newCalendar(t, testConfig(), monday.Add(-12*time.Hour))

	slots, err := c.GenerateSlots(monday, []models.Appointment{appointmentAt(9, 0, 15)}, activeVehicles(1))
	require.NoError(t, err)
	assert.False(t, slotAt(t, slots, 9, 0).Available)
	assert.Equal(t, 0, slotAt(t, slots, 9, 0).CapacityRemaining)
	assert.True(t, slotAt(t, slots, 8, 45).Available)
	assert.True(t, slotAt(t, slots, 9, 15).Available)
}

func TestGenerateSlots_Buffer(t *testing.T) {
	cfg := testConfig()
	cfg.BufferMinutes = 45
	c := newCalendar(t, cfg, monday.Add(-12*time.Hour))

	slots, err := c.GenerateSlots(monday, []models.Appointment{appointmentAt(9, 0, 15)}, activeVehicles(1))
	require.NoError(t, err)
	for _, m := range []int{0, 15, 30, 45} {
		assert.False(t, slotAt(t, slots, 9, m).Available, "09:%02d", m)
	}
	assert.True(t, slotAt(t, slots, 8, 45).Available)
	assert.True(t, slotAt(t, slots, 10, 0).Available)
}

func TestGenerateSlots_Capacity(t *testing.T) {
	cfg := testConfig()
	cfg.MaxPerSlotPerVehicle = 2
	c := newCalendar(t, cfg, monday.Add(-12*time.Hour))
	busy := []models.Appointment{appointmentAt(9, 0, 15), appointmentAt(9, 0, 30), appointmentAt(9, 15, 15)}

	slots, err := c.GenerateSlots(monday, busy, activeVehicles(1))
	require.NoError(t, err)
	assert.False(t, slotAt(t, slots, 9, 0).Available)
	assert.False(t, slotAt(t, slots, 9, 15).Available)
	assert.Equal(t, 0, slotAt(t, slots, 9, 15).CapacityRemaining)
	assert.True(t, slotAt(t, slots, 9, 30).Available)
	assert.Equal(t, 2, slotAt(t, slots, 9, 30).CapacityRemaining)
}

func TestGenerateSlots_NoActiveVehicles(t *testing.T) {
	c := newCalendar(t, testConfig(), monday.Add(-12*time.Hour))
	vehicles := []models.Vehicle{{ID: "off", Active: false}}

	slots, err := c.GenerateSlots(monday, nil, vehicles)
	require.NoError(t, err)
	require.Len(t, slots, 40)
	for _, s := range slots {
		assert.False(t, s.Available)
		assert.Zero(t, s.CapacityRemaining)
	}
}

func TestGenerateSlots_Weekend(t *testing.T) {
	saturday := monday.AddDate(0, 0, 5)
	c := newCalendar(t, testConfig(), monday.Add(-12*time.Hour))

	slots, err := c.GenerateSlots(saturday, nil, activeVehicles(1))
	require.NoError(t, err)
	assert.Empty(t, slots)

	cfg := testConfig()
	cfg.AllowWeekends = true
	c = newCalendar(t, cfg, monday.Add(-12*time.Hour))
	slots, err = c.GenerateSlots(saturday, nil, activeVehicles(1))
	require.NoError(t, err)
	assert.Len(t, slots, 40)
}

func TestGenerateSlots_PastSlotsExcluded(t *testing.T) {
	c := newCalendar(t, testConfig(), monday.Add(9*time.Hour+10*time.Minute))

	slots, err := c.GenerateSlots(monday, nil, activeVehicles(1))
	require.NoError(t, err)
	require.Len(t, slots, 36)
	assert.Equal(t, monday.Add(9*time.Hour), slots[0].Start)

	c = newCalendar(t, testConfig(), monday.Add(20*time.Hour))
	slots, err = c.GenerateSlots(monday, nil, activeVehicles(1))
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestGenerateSlots_SlotsFitWorkingHours(t *testing.T) {
	cfg := testConfig()
	cfg.WorkingHoursEnd = "09:50"
	cfg.SlotMinutes = 20
	c := newCalendar(t, cfg, monday.Add(-12*time.Hour))

	slots, err := c.GenerateSlots(monday, nil, activeVehicles(1))
	require.NoError(t, err)
	require.Len(t, slots, 5)
	assert.Equal(t, monday.Add(9*time.Hour+40*time.Minute), slots[4].End)
}

func TestGenerateSlots_Deterministic(t *testing.T) {
	c := newCalendar(t, testConfig(), monday.Add(-12*time.Hour))
	busy := []models.Appointment{appointmentAt(10, 0, 60)}

	first, err := c.GenerateSlots(monday, busy, activeVehicles(2))
	require.NoError(t, err)
	second, err := c.GenerateSlots(monday, busy, activeVehicles(2))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestForDay_CachesByRevision(t *testing.T) {
	c := newCalendar(t, testConfig(), monday.Add(-12*time.Hour), WithCacheSize(8))
	source := &fakeSource{vehicles: activeVehicles(1), revision: 1}

	slots, err := c.ForDay(monday, source)
	require.NoError(t, err)
	assert.True(t, slotAt(t, slots, 9, 0).Available)

	// same revision: served from cache even though the source changed
	source.appointments = []models.Appointment{appointmentAt(9, 0, 15)}
	slots, err = c.ForDay(monday.Add(13*time.Hour), source)
	require.NoError(t, err)
	assert.True(t, slotAt(t, slots, 9, 0).Available)

	source.revision = 2
	slots, err = c.ForDay(monday, source)
	require.NoError(t, err)
	assert.False(t, slotAt(t, slots, 9, 0).Available)
	assert.Equal(t, 3, source.calls)
}

func TestForDay_TodayIsNotCached(t *testing.T) {
	c := newCalendar(t, testConfig(), monday.Add(7*time.Hour), WithCacheSize(8))
	source := &fakeSource{vehicles: activeVehicles(1), revision: 1}

	slots, err := c.ForDay(monday, source)
	require.NoError(t, err)
	assert.True(t, slotAt(t, slots, 9, 0).Available)

	source.appointments = []models.Appointment{appointmentAt(9, 0, 15)}
	slots, err = c.ForDay(monday, source)
	require.NoError(t, err)
	assert.False(t, slotAt(t, slots, 9, 0).Available)
}

func TestForDay_CachedDayExpiresWhenItArrives(t *testing.T) {
	now := monday.Add(-12 * time.Hour)
	c := newCalendar(t, testConfig(), now, WithCacheSize(8), WithClock(func() time.Time { return now }))
	source := &fakeSource{vehicles: activeVehicles(1), revision: 1}

	slots, err := c.ForDay(monday, source)
	require.NoError(t, err)
	assert.Len(t, slots, 40)

	// no mutation in between, the revision is unchanged
	now = monday.Add(12 * time.Hour)
	slots, err = c.ForDay(monday, source)
	require.NoError(t, err)
	require.Len(t, slots, 24)
	assert.Equal(t, monday.Add(12*time.Hour), slots[0].Start)

	now = monday.Add(36 * time.Hour)
	slots, err = c.ForDay(monday, source)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestSlotAt(t *testing.T) {
	c := newCalendar(t, testConfig(), monday.Add(-12*time.Hour))
	source := &fakeSource{vehicles: activeVehicles(1), appointments: []models.Appointment{appointmentAt(9, 0, 15)}}

	slot, err := c.SlotAt(monday.Add(8*time.Hour+45*time.Minute), source)
	require.NoError(t, err)
	assert.True(t, slot.Available)

	slot, err = c.SlotAt(monday.Add(9*time.Hour), source)
	require.NoError(t, err)
	assert.False(t, slot.Available)

	_, err = c.SlotAt(monday.Add(9*time.Hour+5*time.Minute), source)
	assert.ErrorIs(t, err, ErrNoSlot)
	_, err = c.SlotAt(monday.Add(19*time.Hour), source)
	assert.ErrorIs(t, err, ErrNoSlot)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		valid  bool
	}{
		{"defaults", func(*Config) {}, true},
		{"end before start", func(c *Config) { c.WorkingHoursEnd = "07:00" }, false},
		{"equal bounds", func(c *Config) { c.WorkingHoursEnd = c.WorkingHoursStart }, false},
		{"malformed start", func(c *Config) { c.WorkingHoursStart = "8am" }, false},
		{"bad minute", func(c *Config) { c.WorkingHoursEnd = "18:75" }, false},
		{"zero slot", func(c *Config) { c.SlotMinutes = 0 }, false},
		{"negative buffer", func(c *Config) { c.BufferMinutes = -5 }, false},
		{"zero capacity", func(c *Config) { c.MaxPerSlotPerVehicle = 0 }, false},
		{"midnight end", func(c *Config) { c.WorkingHoursEnd = "24:00" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidConfig)
			_, err = New(cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}
