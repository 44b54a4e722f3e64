package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/transport-dispatch/internal/dispatch"
	"github.com/ukydev/transport-dispatch/internal/middleware"
)

// BoardHandler serves the dispatch board and its drag-and-drop gestures
type BoardHandler struct {
	board  *dispatch.Board
	logger logrus.FieldLogger
}

func NewBoardHandler(board *dispatch.Board, logger logrus.FieldLogger) *BoardHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &BoardHandler{board: board, logger: logger}
}

// View returns the pool and every vehicle queue at one revision
func (h *BoardHandler) View(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.board.View())
}

// Move applies one gesture
func (h *BoardHandler) Move(w http.ResponseWriter, r *http.Request) {
	var move dispatch.Move
	if err := decodeJSON(r, &move); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.board.Move(move)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	fields := logrus.Fields{
		"appointment_id": move.AppointmentID,
		"from":           move.From.Container.String(),
		"to":             move.To.Container.String(),
		"revision":       res.Revision,
	}
	if claims, ok := middleware.GetUserFromContext(r.Context()); ok {
		fields["user"] = claims.Username
	}
	h.logger.WithFields(fields).Info("board move")
	writeJSON(w, http.StatusOK, res)
}

// DropTargets lists where an appointment may be dropped
func (h *BoardHandler) DropTargets(w http.ResponseWriter, r *http.Request) {
	targets, err := h.board.DropTargets(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, targets)
}
