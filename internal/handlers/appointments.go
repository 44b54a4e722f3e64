package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/transport-dispatch/internal/dispatch"
	"github.com/ukydev/transport-dispatch/internal/models"
)

// AppointmentHandler exposes appointment queries and lifecycle transitions
type AppointmentHandler struct {
	store    *dispatch.Store
	location *time.Location
	logger   logrus.FieldLogger
}

func NewAppointmentHandler(store *dispatch.Store, location *time.Location, logger logrus.FieldLogger) *AppointmentHandler {
	if location == nil {
		location = time.Local
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AppointmentHandler{store: store, location: location, logger: logger}
}

// List filters by ?status= or by the half-open ?from=&to= range and returns
// the matches sorted by scheduled time. Dates may be RFC 3339 timestamps or
// YYYY-MM-DD days in the service timezone.
func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if status := q.Get("status"); status != "" {
		if !models.IsValidStatus(models.AppointmentStatus(status)) {
			verr := &dispatch.ValidationError{}
			verr.Add("status", "unknown status")
			writeError(w, r, h.logger, verr)
			return
		}
		writeJSON(w, http.StatusOK, byScheduledTime(h.store.ListByStatus(models.AppointmentStatus(status))))
		return
	}

	if q.Get("from") != "" || q.Get("to") != "" {
		verr := &dispatch.ValidationError{}
		from, err := parseInstant(q.Get("from"), h.location)
		if err != nil {
			verr.Add("from", err.Error())
		}
		to, err := parseInstant(q.Get("to"), h.location)
		if err != nil {
			verr.Add("to", err.Error())
		}
		if err := verr.OrNil(); err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, byScheduledTime(h.store.ListByDateRange(from, to)))
		return
	}

	writeJSON(w, http.StatusOK, byScheduledTime(h.store.All()))
}

func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *AppointmentHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, "start", h.store.StartTrip)
}

func (h *AppointmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, "complete", h.store.CompleteTrip)
}

func (h *AppointmentHandler) Unassign(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, "unassign", h.store.Unassign)
}

func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, "cancel", h.store.CancelAppointment)
}

func (h *AppointmentHandler) apply(w http.ResponseWriter, r *http.Request, action string, op func(string) (*dispatch.Result, error)) {
	id := chi.URLParam(r, "id")
	res, err := op(id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.logger.WithFields(logrus.Fields{
		"appointment_id": id,
		"action":         action,
		"revision":       res.Revision,
	}).Info("appointment updated")
	writeJSON(w, http.StatusOK, res)
}

func parseInstant(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("required")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("expected RFC 3339 or YYYY-MM-DD, got %q", s)
}

// byScheduledTime orders an overview by pickup time, ties broken by id.
func byScheduledTime(list []models.Appointment) []models.Appointment {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].ScheduledAt.Equal(list[j].ScheduledAt) {
			return list[i].ScheduledAt.Before(list[j].ScheduledAt)
		}
		return list[i].ID < list[j].ID
	})
	return list
}
