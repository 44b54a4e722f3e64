package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/transport-dispatch/internal/auth"
	"github.com/ukydev/transport-dispatch/internal/calendar"
	"github.com/ukydev/transport-dispatch/internal/config"
	"github.com/ukydev/transport-dispatch/internal/db"
	"github.com/ukydev/transport-dispatch/internal/dispatch"
	"github.com/ukydev/transport-dispatch/internal/events"
	"github.com/ukydev/transport-dispatch/internal/handlers"
	"github.com/ukydev/transport-dispatch/internal/intake"
	"github.com/ukydev/transport-dispatch/internal/metrics"
	"github.com/ukydev/transport-dispatch/internal/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	logger := cfg.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Fatal("Server stopped")
	}
	logger.Info("Server stopped")
}

// app holds everything the HTTP server is built from
type app struct {
	store    *dispatch.Store
	bus      *events.Bus
	handler  http.Handler
	registry *prometheus.Registry
	closers  []func(context.Context)
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	a, err := build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close(logger)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", srv.Addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// build wires the engine, its outer collaborators and the router. Mongo
// and MQTT are optional; without Mongo the state lives in memory only and
// the account endpoints are not mounted.
func build(ctx context.Context, cfg *config.Config, logger *log.Logger) (*app, error) {
	a := &app{registry: prometheus.NewRegistry()}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewDispatchMetrics(a.registry)

	a.bus = events.NewBus()
	a.bus.Subscribe(func(c dispatch.Change) {
		m.ObserveChange(string(c.Kind), c.Revision)
	})
	a.store = dispatch.NewStore(
		dispatch.WithRules(cfg.Rules()),
		dispatch.WithObserver(a.bus.Emit),
		dispatch.WithLogger(logger),
	)

	authService, err := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry)
	if err != nil {
		return nil, err
	}
	if authService.UsesDefaultSecret() && !cfg.IsLocal() {
		logger.Warn("JWT_SECRET is not set, tokens are signed with the development secret")
	}

	var authHandler *handlers.AuthHandler
	if cfg.Mongo.Enabled {
		users, err := a.connectMongo(ctx, cfg, logger, m)
		if err != nil {
			a.close(logger)
			return nil, err
		}
		authHandler = handlers.NewAuthHandler(authService, users, logger)
	} else {
		logger.Warn("MongoDB disabled, dispatch state is kept in memory only")
	}

	if cfg.MQTT.Enabled {
		client, err := events.ConnectMQTT(cfg.MQTT.Broker, cfg.MQTT.ClientID)
		if err != nil {
			a.close(logger)
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) { client.Disconnect(250) })
		publisher := events.NewMQTTPublisher(client, cfg.MQTT.TopicPrefix, logger, m)
		a.bus.Subscribe(publisher.Handle)
		logger.WithField("broker", cfg.MQTT.Broker).Info("Publishing board changes to MQTT")
	}

	calCfg, err := cfg.CalendarConfig()
	if err != nil {
		a.close(logger)
		return nil, err
	}
	cal, err := calendar.New(calCfg,
		calendar.WithCacheSize(cfg.Cache.SlotsSize),
		calendar.WithLogger(logger),
	)
	if err != nil {
		a.close(logger)
		return nil, err
	}
	intakeSvc := intake.NewService(a.store, cal,
		intake.WithDefaultTransportType(cfg.Dispatch.DefaultTransportType),
		intake.WithLogger(logger),
		intake.WithMetrics(m),
	)

	a.handler = handlers.NewRouter(handlers.Router{
		Auth:         authHandler,
		Board:        handlers.NewBoardHandler(dispatch.NewBoard(a.store), logger),
		Appointments: handlers.NewAppointmentHandler(a.store, calCfg.Location, logger),
		Vehicles:     handlers.NewVehicleHandler(a.store, logger),
		Booking:      handlers.NewBookingHandler(intakeSvc, cal, a.store, logger),
		AuthMW:       middleware.NewAuthMiddleware(authService, logger),
		RateLimit: handlers.RateLimit{
			Requests:      cfg.RateLimit.Requests,
			WindowSeconds: cfg.RateLimit.WindowSeconds,
		},
		Gatherer: a.registry,
		Metrics:  m,
		Logger:   logger,
	})
	return a, nil
}

// connectMongo restores the persisted state into the store and subscribes
// the persister to later changes.
func (a *app) connectMongo(ctx context.Context, cfg *config.Config, logger *log.Logger, m *metrics.DispatchMetrics) (db.UserCollection, error) {
	client, err := db.ConnectMongo(cfg.Mongo.URI)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(ctx context.Context) {
		if err := client.Disconnect(ctx); err != nil {
			logger.WithError(err).Warn("Failed to disconnect from MongoDB")
		}
	})

	database := client.Database(cfg.Mongo.Database)
	appointments := &db.MongoCollection{Collection: database.Collection(db.AppointmentsCollection)}
	vehicles := &db.MongoCollection{Collection: database.Collection(db.VehiclesCollection)}

	loadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	fleet, appts, err := db.LoadState(loadCtx, vehicles, appointments)
	if err != nil {
		return nil, fmt.Errorf("load dispatch state: %w", err)
	}
	if err := a.store.Restore(fleet, appts); err != nil {
		return nil, fmt.Errorf("restore dispatch state: %w", err)
	}

	persister := events.NewPersister(appointments, vehicles, logger, m)
	a.bus.Subscribe(persister.Handle)

	logger.WithFields(log.Fields{
		"database":     cfg.Mongo.Database,
		"vehicles":     len(fleet),
		"appointments": len(appts),
	}).Info("Connected to MongoDB")
	return &db.MongoUserCollection{Collection: database.Collection(db.UsersCollection)}, nil
}

func (a *app) close(logger *log.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i](ctx)
	}
	a.closers = nil
	logger.Debug("Released external connections")
}
