package intake

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/transport-dispatch/internal/calendar"
	"github.com/ukydev/transport-dispatch/internal/dispatch"
	"github.com/ukydev/transport-dispatch/internal/metrics"
	"github.com/ukydev/transport-dispatch/internal/models"
)

// BookingRequest is a transport request as submitted by a patient or clinic.
type BookingRequest struct {
	Patient         models.Patient       `json:"patient"`
	Pickup          models.Address       `json:"pickup"`
	Destination     models.Address       `json:"destination"`
	ScheduledAt     time.Time            `json:"scheduled_at"`
	DurationMinutes int                  `json:"duration_minutes,omitempty"`
	TransportType   models.TransportType `json:"transport_type,omitempty"`
	Notes           string               `json:"notes,omitempty"`
}

// Option configures a Service.
type Option func(*Service)

// WithDefaultTransportType sets the type used when a request leaves it empty.
func WithDefaultTransportType(t models.TransportType) Option {
	return func(s *Service) { s.defaultTransport = t }
}

// WithClock replaces time.Now for the not-in-the-past check.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.DispatchMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// Service validates booking requests and places them in the unassigned pool.
type Service struct {
	store            *dispatch.Store
	calendar         *calendar.Calendar
	defaultTransport models.TransportType
	now              func() time.Time
	logger           logrus.FieldLogger
	metrics          *metrics.DispatchMetrics
}

// NewService creates a booking intake service.
func NewService(store *dispatch.Store, cal *calendar.Calendar, opts ...Option) *Service {
	s := &Service{
		store:    store,
		calendar: cal,
		now:      time.Now,
		logger:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateAppointment validates req, checks that it starts an available slot
// and creates an unassigned appointment. The slot check and the insert run
// under the store's write lock, so concurrent bookings cannot overfill a
// slot. Every field problem is reported in a single *dispatch.ValidationError.
func (s *Service) CreateAppointment(ctx context.Context, req BookingRequest) (models.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return models.Appointment{}, err
	}
	req = s.normalize(req)

	if err := s.validate(req).OrNil(); err != nil {
		return models.Appointment{}, s.reject(req, err)
	}

	appointment, err := s.store.CreateAppointmentIf(dispatch.NewAppointment{
		Patient:         req.Patient,
		Pickup:          req.Pickup,
		Destination:     req.Destination,
		ScheduledAt:     req.ScheduledAt,
		DurationMinutes: req.DurationMinutes,
		TransportType:   req.TransportType,
		Notes:           req.Notes,
	}, func(bookings dispatch.BookingReader) error {
		if msg := s.checkSlot(req.ScheduledAt, bookings); msg != "" {
			verr := &dispatch.ValidationError{}
			verr.Add("scheduled_at", msg)
			return verr
		}
		return nil
	})
	if err != nil {
		return models.Appointment{}, s.reject(req, err)
	}
	s.metrics.ObserveBooking(true)
	s.logger.WithFields(logrus.Fields{
		"appointment_id": appointment.ID,
		"scheduled_at":   appointment.ScheduledAt,
		"transport_type": appointment.TransportType,
	}).Info("Booked transport")
	return appointment, nil
}

func (s *Service) reject(req BookingRequest, err error) error {
	s.metrics.ObserveBooking(false)
	var verr *dispatch.ValidationError
	if errors.As(err, &verr) {
		s.logger.WithFields(logrus.Fields{
			"scheduled_at": req.ScheduledAt,
			"problems":     len(verr.Fields),
		}).Info("Rejected booking request")
	}
	return err
}

func (s *Service) normalize(req BookingRequest) BookingRequest {
	req.Patient.FirstName = strings.TrimSpace(req.Patient.FirstName)
	req.Patient.LastName = strings.TrimSpace(req.Patient.LastName)
	req.Patient.Phone = strings.TrimSpace(req.Patient.Phone)
	req.Patient.Email = strings.TrimSpace(req.Patient.Email)
	req.Pickup.Street = strings.TrimSpace(req.Pickup.Street)
	req.Destination.Street = strings.TrimSpace(req.Destination.Street)
	if req.TransportType == "" {
		req.TransportType = s.defaultTransport
	}
	if req.DurationMinutes == 0 && s.calendar != nil {
		req.DurationMinutes = s.calendar.Config().SlotMinutes
	}
	return req
}

func (s *Service) validate(req BookingRequest) *dispatch.ValidationError {
	verr := &dispatch.ValidationError{}
	minLength(verr, "patient.first_name", req.Patient.FirstName, 2)
	minLength(verr, "patient.last_name", req.Patient.LastName, 2)
	minLength(verr, "patient.phone", req.Patient.Phone, 6)
	if addr, err := mail.ParseAddress(req.Patient.Email); err != nil || addr.Address != req.Patient.Email {
		verr.Add("patient.email", "a valid e-mail address is required")
	}
	minLength(verr, "pickup.street", req.Pickup.Street, 5)
	minLength(verr, "destination.street", req.Destination.Street, 5)
	if req.TransportType == "" {
		verr.Add("transport_type", "transport type is required")
	} else if !models.IsValidTransportType(req.TransportType) {
		verr.Add("transport_type", fmt.Sprintf("unknown transport type %q", req.TransportType))
	}
	if req.DurationMinutes < 0 {
		verr.Add("duration_minutes", "duration must be positive")
	}
	switch {
	case req.ScheduledAt.IsZero():
		verr.Add("scheduled_at", "scheduled time is required")
	case req.ScheduledAt.Before(s.now()):
		verr.Add("scheduled_at", "scheduled time is in the past")
	}
	return verr
}

// checkSlot returns a problem description, or "" when the time starts an
// available slot.
func (s *Service) checkSlot(at time.Time, bookings calendar.BookingSource) string {
	if s.calendar == nil {
		return ""
	}
	slot, err := s.calendar.SlotAt(at, bookings)
	if errors.Is(err, calendar.ErrNoSlot) {
		return "scheduled time does not start a bookable slot"
	}
	if err != nil {
		return err.Error()
	}
	if !slot.Available {
		return "slot is fully booked"
	}
	return ""
}

func minLength(verr *dispatch.ValidationError, field, value string, n int) {
	if utf8.RuneCountInString(value) < n {
		verr.Add(field, fmt.Sprintf("must be at least %d characters long", n))
	}
}
