package handlers

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/transport-dispatch/internal/calendar"
	"github.com/ukydev/transport-dispatch/internal/dispatch"
	"github.com/ukydev/transport-dispatch/internal/intake"
)

// BookingHandler serves the public patient booking flow
type BookingHandler struct {
	intake   *intake.Service
	calendar *calendar.Calendar
	source   calendar.BookingSource
	logger   logrus.FieldLogger
}

func NewBookingHandler(svc *intake.Service, cal *calendar.Calendar, source calendar.BookingSource, logger logrus.FieldLogger) *BookingHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &BookingHandler{intake: svc, calendar: cal, source: source, logger: logger}
}

type slotsResponse struct {
	Date  string      `json:"date"`
	Slots interface{} `json:"slots"`
}

// Slots lists the bookable slots of ?date=YYYY-MM-DD in the calendar's timezone
func (h *BookingHandler) Slots(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("date")
	date, err := time.ParseInLocation("2006-01-02", raw, h.calendar.Config().Location)
	if err != nil {
		verr := &dispatch.ValidationError{}
		verr.Add("date", "expected YYYY-MM-DD")
		writeError(w, r, h.logger, verr)
		return
	}

	slots, err := h.calendar.ForDay(date, h.source)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, slotsResponse{Date: raw, Slots: slots})
}

// Book creates an unassigned appointment from a patient request
func (h *BookingHandler) Book(w http.ResponseWriter, r *http.Request) {
	var req intake.BookingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	appointment, err := h.intake.CreateAppointment(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, appointment)
}
