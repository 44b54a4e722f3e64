package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/transport-dispatch/internal/dispatch"
)

const maxBodyBytes = 1 << 20

var errMalformedJSON = errors.New("invalid JSON")

// errorResponse is the body of every failed dispatch request
type errorResponse struct {
	Error  string                `json:"error"`
	Fields []dispatch.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a bounded request body into v
func decodeJSON(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return errMalformedJSON
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errMalformedJSON
	}
	return nil
}

// statusFor maps engine errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, errMalformedJSON):
		return http.StatusBadRequest
	case errors.Is(err, dispatch.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, dispatch.ErrVehicleInactive),
		errors.Is(err, dispatch.ErrCapacityExceeded),
		errors.Is(err, dispatch.ErrInvalidTransition),
		errors.Is(err, dispatch.ErrStaleMove),
		errors.Is(err, dispatch.ErrVehicleInUse):
		return http.StatusConflict
	case errors.Is(err, dispatch.ErrIndexOutOfRange),
		errors.Is(err, dispatch.ErrValidation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, logger logrus.FieldLogger, err error) {
	status := statusFor(err)
	entry := logger.WithError(err).WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"status": status,
	})

	resp := errorResponse{Error: err.Error()}
	var verr *dispatch.ValidationError
	if errors.As(err, &verr) {
		resp.Error = dispatch.ErrValidation.Error()
		resp.Fields = verr.Fields
	}

	if status == http.StatusInternalServerError {
		entry.Error("request failed")
		resp.Error = "internal error"
	} else {
		entry.Debug("request rejected")
	}
	writeJSON(w, status, resp)
}
