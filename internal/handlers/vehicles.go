package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/transport-dispatch/internal/dispatch"
	"github.com/ukydev/transport-dispatch/internal/models"
)

// VehicleHandler manages the fleet
type VehicleHandler struct {
	store  *dispatch.Store
	logger logrus.FieldLogger
}

func NewVehicleHandler(store *dispatch.Store, logger logrus.FieldLogger) *VehicleHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &VehicleHandler{store: store, logger: logger}
}

type vehicleRequest struct {
	ID            string                 `json:"id"`
	Name          string                 `json:"name"`
	LicensePlate  string                 `json:"license_plate"`
	Active        *bool                  `json:"active"`
	Capabilities  []models.TransportType `json:"capabilities"`
	InspectionDue *time.Time             `json:"inspection_due"`
}

// vehicleDetail is a vehicle with its ordered queue
type vehicleDetail struct {
	Vehicle      models.Vehicle       `json:"vehicle"`
	Appointments []models.Appointment `json:"appointments"`
}

func (h *VehicleHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Vehicles())
}

// Create registers a vehicle. Vehicles are active unless the request says otherwise.
func (h *VehicleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req vehicleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	v, err := h.store.AddVehicle(models.Vehicle{
		ID:            req.ID,
		Name:          req.Name,
		LicensePlate:  req.LicensePlate,
		Active:        active,
		Capabilities:  req.Capabilities,
		InspectionDue: req.InspectionDue,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.logger.WithFields(logrus.Fields{"vehicle_id": v.ID, "plate": v.LicensePlate}).Info("vehicle added")
	writeJSON(w, http.StatusCreated, v)
}

// Get returns the vehicle with its queue
func (h *VehicleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	v, err := h.store.Vehicle(id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	queue, err := h.store.ListByVehicle(id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicleDetail{Vehicle: v, Appointments: queue})
}

func (h *VehicleHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req vehicleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	v, err := h.store.UpdateVehicle(chi.URLParam(r, "id"), dispatch.VehicleUpdate{
		Name:          req.Name,
		LicensePlate:  req.LicensePlate,
		Capabilities:  req.Capabilities,
		InspectionDue: req.InspectionDue,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *VehicleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.RemoveVehicle(id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.logger.WithField("vehicle_id", id).Info("vehicle removed")
	w.WriteHeader(http.StatusNoContent)
}

func (h *VehicleHandler) Activate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *VehicleHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *VehicleHandler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	v, err := h.store.SetVehicleActive(chi.URLParam(r, "id"), active)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.logger.WithFields(logrus.Fields{"vehicle_id": v.ID, "active": active}).Info("vehicle availability changed")
	writeJSON(w, http.StatusOK, v)
}
