package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/caarlos0/env/v6"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/transport-dispatch/internal/dispatch"
	"github.com/ukydev/transport-dispatch/internal/intake"
	"github.com/ukydev/transport-dispatch/internal/models"
)

// simConfig drives one simulated dispatch day
type simConfig struct {
	APIURL    string        `env:"API_BASE_URL" envDefault:"http://localhost:8080/api"`
	Token     string        `env:"SIM_AUTH_TOKEN"`
	FleetSize int           `env:"FLEET_SIZE" envDefault:"5"`
	Bookings  int           `env:"SIM_BOOKINGS" envDefault:"20"`
	Date      string        `env:"SIM_DATE"` // YYYY-MM-DD, defaults to the next weekday
	Tick      time.Duration `env:"SIM_TICK" envDefault:"2s"`
	Seed      int64         `env:"SIM_SEED"`
}

var (
	firstNames = []string{"Erika", "Hans", "Fatma", "Jonas", "Mia", "Lukas", "Aylin", "Paul"}
	lastNames  = []string{"Mustermann", "Schmidt", "Yilmaz", "Weber", "Fischer", "Becker", "Wagner"}
	streets    = []string{"Hauptstrasse", "Bahnhofstrasse", "Gartenweg", "Lindenallee", "Schulstrasse"}
	clinics    = []string{"Klinikweg 12", "Am Krankenhaus 3", "Dialysezentrum, Parkstrasse 8", "Reha-Allee 21"}
	types      = []models.TransportType{models.TransportWheelchair, models.TransportCarryingChair, models.TransportStretcher, models.TransportWalkingAssistance}
)

// apiClient talks to the dispatch HTTP API
type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newAPIClient(baseURL, token string) *apiClient {
	return &apiClient{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// do sends body as JSON and decodes a 2xx reply into out
func (c *apiClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s failed with status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(msg))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func createVehicle(ctx context.Context, c *apiClient, i int) (models.Vehicle, error) {
	req := map[string]interface{}{
		"id":            fmt.Sprintf("ktw-%d", i+1),
		"name":          fmt.Sprintf("KTW %d", i+1),
		"license_plate": fmt.Sprintf("B-KT %03d", 100+i),
	}
	// every third vehicle cannot carry stretchers
	if i%3 == 2 {
		req["capabilities"] = []models.TransportType{models.TransportWheelchair, models.TransportWalkingAssistance}
	}

	var v models.Vehicle
	if err := c.do(ctx, http.MethodPost, "/vehicles", req, &v); err != nil {
		return models.Vehicle{}, fmt.Errorf("failed to create vehicle: %w", err)
	}

	log.WithFields(log.Fields{
		"vehicle_id":   v.ID,
		"plate":        v.LicensePlate,
		"capabilities": v.Capabilities,
	}).Info("Created vehicle")
	return v, nil
}

func fetchSlots(ctx context.Context, c *apiClient, date string) ([]models.TimeSlot, error) {
	var resp struct {
		Slots []models.TimeSlot `json:"slots"`
	}
	if err := c.do(ctx, http.MethodGet, "/slots?date="+date, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Slots, nil
}

func randomBooking(rng *rand.Rand, at time.Time) intake.BookingRequest {
	first := firstNames[rng.Intn(len(firstNames))]
	last := lastNames[rng.Intn(len(lastNames))]
	return intake.BookingRequest{
		Patient: models.Patient{
			FirstName: first,
			LastName:  last,
			Phone:     fmt.Sprintf("+49 30 %07d", rng.Intn(10000000)),
			Email:     fmt.Sprintf("%s.%s@example.com", first, last),
		},
		Pickup:        models.Address{Street: fmt.Sprintf("%s %d", streets[rng.Intn(len(streets))], 1+rng.Intn(80)), City: "Berlin"},
		Destination:   models.Address{Street: clinics[rng.Intn(len(clinics))], City: "Berlin"},
		ScheduledAt:   at,
		TransportType: types[rng.Intn(len(types))],
	}
}

// bookPatients books up to n appointments on random available slots
func bookPatients(ctx context.Context, c *apiClient, rng *rand.Rand, date string, n int) (int, error) {
	booked := 0
	for booked < n {
		slots, err := fetchSlots(ctx, c, date)
		if err != nil {
			return booked, err
		}
		open := make([]models.TimeSlot, 0, len(slots))
		for _, s := range slots {
			if s.Available {
				open = append(open, s)
			}
		}
		if len(open) == 0 {
			log.WithField("date", date).Warn("No available slots left")
			return booked, nil
		}

		slot := open[rng.Intn(len(open))]
		var a models.Appointment
		if err := c.do(ctx, http.MethodPost, "/bookings", randomBooking(rng, slot.Start), &a); err != nil {
			return booked, err
		}
		booked++
		log.WithFields(log.Fields{
			"appointment_id": a.ID,
			"scheduled_at":   a.ScheduledAt.Format(time.RFC3339),
			"transport_type": a.TransportType,
		}).Info("Booked patient")
	}
	return booked, nil
}

// dispatchPool drags every unassigned appointment onto the droppable
// vehicle with the shortest queue
func dispatchPool(ctx context.Context, c *apiClient) (int, error) {
	moved := 0
	skipped := map[string]bool{}
	for {
		var board dispatch.BoardView
		if err := c.do(ctx, http.MethodGet, "/board", nil, &board); err != nil {
			return moved, err
		}

		index := -1
		for i, a := range board.Unassigned {
			if !skipped[a.ID] {
				index = i
				break
			}
		}
		if index < 0 {
			return moved, nil
		}
		a := board.Unassigned[index]

		var targets []dispatch.DropTarget
		if err := c.do(ctx, http.MethodGet, "/board/targets/"+a.ID, nil, &targets); err != nil {
			return moved, err
		}
		vehicleID, queueLen := pickVehicle(board, targets)
		if vehicleID == "" {
			log.WithField("appointment_id", a.ID).Warn("No vehicle can take appointment")
			skipped[a.ID] = true
			continue
		}

		move := dispatch.Move{
			AppointmentID: a.ID,
			From:          dispatch.Location{Container: models.UnassignedPool(), Index: index},
			To:            dispatch.Location{Container: models.VehicleQueue(vehicleID), Index: queueLen},
		}
		if err := c.do(ctx, http.MethodPost, "/board/moves", move, nil); err != nil {
			return moved, err
		}
		moved++
		log.WithFields(log.Fields{"appointment_id": a.ID, "vehicle_id": vehicleID}).Info("Dispatched appointment")
	}
}

func pickVehicle(board dispatch.BoardView, targets []dispatch.DropTarget) (string, int) {
	droppable := map[string]bool{}
	for _, t := range targets {
		if t.Droppable && !t.Container.IsUnassigned() {
			droppable[t.Container.VehicleID] = true
		}
	}
	best, bestLen := "", 0
	for _, q := range board.Vehicles {
		if !droppable[q.Vehicle.ID] {
			continue
		}
		if best == "" || len(q.Appointments) < bestLen {
			best, bestLen = q.Vehicle.ID, len(q.Appointments)
		}
	}
	return best, bestLen
}

// driveStep advances the head of every vehicle queue by one trip state and
// reports how many appointments are still open
func driveStep(ctx context.Context, c *apiClient) (int, error) {
	var board dispatch.BoardView
	if err := c.do(ctx, http.MethodGet, "/board", nil, &board); err != nil {
		return 0, err
	}

	open := 0
	for _, q := range board.Vehicles {
		var head *models.Appointment
		for i := range q.Appointments {
			if q.Appointments[i].Status == models.StatusCompleted {
				continue
			}
			open++
			if head == nil {
				head = &q.Appointments[i]
			}
		}
		if head == nil {
			continue
		}

		action := "start"
		if head.Status == models.StatusInProgress {
			action = "complete"
		}
		if err := c.do(ctx, http.MethodPost, "/appointments/"+head.ID+"/"+action, nil, nil); err != nil {
			return open, err
		}
		if action == "complete" {
			open--
		}
		log.WithFields(log.Fields{
			"vehicle_id":     q.Vehicle.ID,
			"appointment_id": head.ID,
			"action":         action,
		}).Info("Trip update")
	}
	return open, nil
}

func simulate(ctx context.Context, cfg simConfig, rng *rand.Rand) error {
	c := newAPIClient(cfg.APIURL, cfg.Token)

	created := 0
	for i := 0; i < cfg.FleetSize; i++ {
		if _, err := createVehicle(ctx, c, i); err != nil {
			log.WithError(err).Error("Failed to create vehicle")
			continue
		}
		created++
	}
	log.WithField("created_vehicles", created).Info("Vehicle creation completed")
	if created == 0 {
		return fmt.Errorf("no vehicles created, check SIM_AUTH_TOKEN and API_BASE_URL")
	}

	booked, err := bookPatients(ctx, c, rng, cfg.Date, cfg.Bookings)
	if err != nil {
		return err
	}
	log.WithField("booked", booked).Info("Booking completed")

	moved, err := dispatchPool(ctx, c)
	if err != nil {
		return err
	}
	log.WithField("dispatched", moved).Info("Dispatching completed")

	tick := time.NewTicker(cfg.Tick)
	defer tick.Stop()
	for {
		open, err := driveStep(ctx, c)
		if err != nil {
			return err
		}
		if open == 0 {
			log.Info("All trips completed")
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
	}
}

// nextWeekday returns the first Monday to Friday date after now
func nextWeekday(now time.Time) string {
	d := now.AddDate(0, 0, 1)
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, 1)
	}
	return d.Format("2006-01-02")
}

func loadConfig(now time.Time) (simConfig, error) {
	var cfg simConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	if cfg.Date == "" {
		cfg.Date = nextWeekday(now)
	}
	if cfg.Seed == 0 {
		cfg.Seed = now.UnixNano()
	}
	if cfg.Tick <= 0 {
		cfg.Tick = time.Second
	}
	return cfg, nil
}

func main() {
	cfg, err := loadConfig(time.Now())
	if err != nil {
		log.WithError(err).Fatal("Invalid simulator configuration")
	}

	log.WithFields(log.Fields{
		"fleet_size": cfg.FleetSize,
		"bookings":   cfg.Bookings,
		"date":       cfg.Date,
		"api_url":    cfg.APIURL,
	}).Info("Starting dispatch simulation")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := simulate(ctx, cfg, rand.New(rand.NewSource(cfg.Seed))); err != nil {
		log.WithError(err).Fatal("Simulation failed")
	}
}
