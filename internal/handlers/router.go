package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/transport-dispatch/internal/metrics"
	"github.com/ukydev/transport-dispatch/internal/middleware"
	"github.com/ukydev/transport-dispatch/internal/models"
)

// RateLimit bounds the public booking endpoints per client
type RateLimit struct {
	Requests      int
	WindowSeconds int
}

// Router carries everything NewRouter mounts
type Router struct {
	Auth         *AuthHandler
	Board        *BoardHandler
	Appointments *AppointmentHandler
	Vehicles     *VehicleHandler
	Booking      *BookingHandler
	AuthMW       *middleware.AuthMiddleware
	RateLimit    RateLimit
	Gatherer     prometheus.Gatherer
	Metrics      *metrics.DispatchMetrics
	Logger       logrus.FieldLogger
}

// NewRouter builds the HTTP API. Auth routes are mounted only when an
// AuthHandler is configured.
func NewRouter(rt Router) http.Handler {
	if rt.Gatherer == nil {
		rt.Gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Instrument(rt.Logger, rt.Metrics))
	r.Use(rt.AuthMW.Authenticate)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(rt.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if rt.RateLimit.Requests > 0 {
				limiter := middleware.NewRateLimitMiddleware()
				r.Use(limiter.RateLimit(rt.RateLimit.Requests, rt.RateLimit.WindowSeconds))
			}
			r.Get("/slots", rt.Booking.Slots)
			r.Post("/bookings", rt.Booking.Book)
			if rt.Auth != nil {
				r.Post("/auth/login", rt.Auth.Login)
				r.Post("/auth/register", rt.Auth.Register)
			}
		})

		if rt.Auth != nil {
			r.Get("/auth/profile", rt.Auth.GetProfile)
			r.Put("/auth/profile", rt.Auth.UpdateProfile)
			r.Post("/auth/password", rt.Auth.ChangePassword)
			r.With(rt.AuthMW.RequirePermission(models.ActionManageUsers)).
				Put("/users/{id}/role", rt.Auth.UpdateRole)
		}

		r.Group(func(r chi.Router) {
			r.Use(rt.AuthMW.RequirePermission(models.ActionViewBoard))
			r.Get("/board", rt.Board.View)
			r.Get("/board/targets/{id}", rt.Board.DropTargets)
			r.Get("/appointments", rt.Appointments.List)
			r.Get("/appointments/{id}", rt.Appointments.Get)
			r.Get("/vehicles", rt.Vehicles.List)
			r.Get("/vehicles/{id}", rt.Vehicles.Get)
		})

		r.Group(func(r chi.Router) {
			r.Use(rt.AuthMW.RequirePermission(models.ActionDispatch))
			r.Post("/board/moves", rt.Board.Move)
			r.Post("/appointments/{id}/unassign", rt.Appointments.Unassign)
			r.Delete("/appointments/{id}", rt.Appointments.Cancel)
		})

		r.Group(func(r chi.Router) {
			r.Use(rt.AuthMW.RequirePermission(models.ActionUpdateTrip))
			r.Post("/appointments/{id}/start", rt.Appointments.Start)
			r.Post("/appointments/{id}/complete", rt.Appointments.Complete)
		})

		r.Group(func(r chi.Router) {
			r.Use(rt.AuthMW.RequirePermission(models.ActionManageVehicles))
			r.Post("/vehicles", rt.Vehicles.Create)
			r.Put("/vehicles/{id}", rt.Vehicles.Update)
			r.Delete("/vehicles/{id}", rt.Vehicles.Delete)
			r.Post("/vehicles/{id}/activate", rt.Vehicles.Activate)
			r.Post("/vehicles/{id}/deactivate", rt.Vehicles.Deactivate)
		})
	})

	return r
}
