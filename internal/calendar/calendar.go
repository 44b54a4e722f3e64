package calendar

import (
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/transport-dispatch/internal/models"
)

// ErrNoSlot is returned when a start time does not begin an offered slot.
var ErrNoSlot = errors.New("no slot starts at the requested time")

// BookingSource provides a consistent view of the bookings that may
// overlap [start, end), the fleet, and the revision they were read at.
type BookingSource interface {
	Bookings(start, end time.Time) ([]models.Appointment, []models.Vehicle, uint64)
}

type cacheKey struct {
	day      string
	revision uint64
}

// Option configures a Calendar.
type Option func(*Calendar)

// WithClock replaces time.Now when deciding which slots are in the past.
func WithClock(now func() time.Time) Option {
	return func(c *Calendar) { c.now = now }
}

// WithCacheSize enables memoisation of ForDay results. Sizes below one
// disable the cache.
func WithCacheSize(size int) Option {
	return func(c *Calendar) { c.cacheSize = size }
}

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Calendar) { c.logger = logger }
}

// Calendar computes bookable time slots for a day.
type Calendar struct {
	cfg       Config
	startMin  int
	endMin    int
	now       func() time.Time
	cacheSize int
	cache     *lru.Cache[cacheKey, []models.TimeSlot]
	logger    logrus.FieldLogger
}

// New validates cfg and builds a calendar.
func New(cfg Config, opts ...Option) (*Calendar, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	start, _ := parseClock(cfg.WorkingHoursStart)
	end, _ := parseClock(cfg.WorkingHoursEnd)
	c := &Calendar{
		cfg:      cfg,
		startMin: start,
		endMin:   end,
		now:      time.Now,
		logger:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cacheSize > 0 {
		cache, err := lru.New[cacheKey, []models.TimeSlot](c.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create slot cache: %w", err)
		}
		c.cache = cache
	}
	return c, nil
}

// Config returns the calendar settings.
func (c *Calendar) Config() Config {
	return c.cfg
}

// SlotDuration returns the length of one slot.
func (c *Calendar) SlotDuration() time.Duration {
	return time.Duration(c.cfg.SlotMinutes) * time.Minute
}

// GenerateSlots lists the slots of date that have not ended yet, ordered by
// start. An appointment occupies [ScheduledAt, End()+buffer) and counts
// against every slot it overlaps, whatever its status.
func (c *Calendar) GenerateSlots(date time.Time, appointments []models.Appointment, vehicles []models.Vehicle) ([]models.TimeSlot, error) {
	if date.IsZero() {
		return nil, fmt.Errorf("date is required")
	}
	dayStart, workStart, workEnd := c.bounds(date)
	if !c.cfg.AllowWeekends && isWeekend(dayStart) {
		return []models.TimeSlot{}, nil
	}

	active := 0
	for _, v := range vehicles {
		if v.Active {
			active++
		}
	}
	capacity := active * c.cfg.MaxPerSlotPerVehicle
	buffer := time.Duration(c.cfg.BufferMinutes) * time.Minute
	slotLen := c.SlotDuration()
	now := c.now()

	slots := []models.TimeSlot{}
	for start := workStart; !start.Add(slotLen).After(workEnd); start = start.Add(slotLen) {
		end := start.Add(slotLen)
		if !end.After(now) {
			continue
		}
		occupied := 0
		for _, a := range appointments {
			if a.ScheduledAt.Before(end) && a.End().Add(buffer).After(start) {
				occupied++
			}
		}
		remaining := capacity - occupied
		if remaining < 0 {
			remaining = 0
		}
		slots = append(slots, models.TimeSlot{
			Start:             start,
			End:               end,
			Available:         occupied < capacity,
			CapacityRemaining: remaining,
		})
	}
	return slots, nil
}

// ForDay reads the bookings of date from source and returns its slots.
// Results for days after today are cached per store revision; today and past
// days depend on the clock and are always recomputed.
func (c *Calendar) ForDay(date time.Time, source BookingSource) ([]models.TimeSlot, error) {
	if date.IsZero() {
		return nil, fmt.Errorf("date is required")
	}
	dayStart, workStart, workEnd := c.bounds(date)
	buffer := time.Duration(c.cfg.BufferMinutes) * time.Minute
	appointments, vehicles, revision := source.Bookings(workStart.Add(-buffer), workEnd)

	key := cacheKey{day: dayStart.Format("2006-01-02"), revision: revision}
	cacheable := c.cache != nil && dayStart.After(c.today())
	if cacheable {
		if cached, ok := c.cache.Get(key); ok {
			return append([]models.TimeSlot(nil), cached...), nil
		}
	}

	slots, err := c.GenerateSlots(dayStart, appointments, vehicles)
	if err != nil {
		return nil, err
	}
	c.logger.WithFields(logrus.Fields{
		"day":          key.day,
		"revision":     revision,
		"slots":        len(slots),
		"appointments": len(appointments),
	}).Debug("Generated slots")
	if cacheable {
		c.cache.Add(key, append([]models.TimeSlot(nil), slots...))
	}
	return slots, nil
}

// SlotAt returns the slot that begins exactly at start.
func (c *Calendar) SlotAt(start time.Time, source BookingSource) (models.TimeSlot, error) {
	slots, err := c.ForDay(start, source)
	if err != nil {
		return models.TimeSlot{}, err
	}
	for _, s := range slots {
		if s.Start.Equal(start) {
			return s, nil
		}
	}
	return models.TimeSlot{}, fmt.Errorf("%w: %s", ErrNoSlot, start.In(c.cfg.Location).Format(time.RFC3339))
}

// bounds returns midnight and the working hours of date in the calendar's location.
func (c *Calendar) bounds(date time.Time) (time.Time, time.Time, time.Time) {
	y, m, d := date.In(c.cfg.Location).Date()
	loc := c.cfg.Location
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, loc)
	workStart := time.Date(y, m, d, c.startMin/60, c.startMin%60, 0, 0, loc)
	workEnd := time.Date(y, m, d, c.endMin/60, c.endMin%60, 0, 0, loc)
	return dayStart, workStart, workEnd
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// today returns midnight of the current day in the calendar's location.
func (c *Calendar) today() time.Time {
	dayStart, _, _ := c.bounds(c.now())
	return dayStart
}
