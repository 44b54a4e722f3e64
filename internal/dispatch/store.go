package dispatch

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/transport-dispatch/internal/models"
)

// ContainerView is the ordered content of one container.
type ContainerView struct {
	Container    models.Container     `json:"container"`
	Appointments []models.Appointment `json:"appointments"`
}

// Result is returned by every successful mutation: the affected appointment
// and the containers it touched, as they look after the change.
type Result struct {
	Appointment models.Appointment `json:"appointment"`
	Containers  []ContainerView    `json:"containers"`
	Revision    uint64             `json:"revision"`
}

// NewAppointment carries the data needed to book a transport.
type NewAppointment struct {
	Patient         models.Patient
	Pickup          models.Address
	Destination     models.Address
	ScheduledAt     time.Time
	DurationMinutes int
	TransportType   models.TransportType
	Notes           string
}

// VehicleUpdate replaces the descriptive fields of a vehicle.
type VehicleUpdate struct {
	Name          string
	LicensePlate  string
	Capabilities  []models.TransportType
	InspectionDue *time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithRules sets the assignment rules enforced by AssignToVehicle and Reassign.
func WithRules(rules AssignmentRules) Option {
	return func(s *Store) { s.rules = rules }
}

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces the UUID generator used for new appointments and vehicles.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// WithObserver registers a callback invoked after every committed change.
// It runs after the store lock has been released, one change at a time and
// in revision order. The observer may read the store but must not mutate it.
func WithObserver(fn func(Change)) Option {
	return func(s *Store) { s.observer = fn }
}

// WithLogger sets the logger used for debug output of committed changes.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Store) { s.logger = logger }
}

// Store is the single owner of appointment and vehicle state. Every
// mutation either commits fully or returns an error and leaves the state
// untouched.
type Store struct {
	mu           sync.RWMutex
	appointments map[string]*models.Appointment
	vehicles     map[string]*models.Vehicle
	vehicleOrder []string
	queues       map[string][]string
	pool         []string
	revision     uint64

	rules    AssignmentRules
	now      func() time.Time
	newID    func() string
	observer func(Change)
	logger   logrus.FieldLogger

	// tickets are handed out under mu; delivered is guarded by notifyMu.
	nextTicket uint64
	notifyMu   sync.Mutex
	notified   *sync.Cond
	delivered  uint64
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		appointments: make(map[string]*models.Appointment),
		vehicles:     make(map[string]*models.Vehicle),
		queues:       make(map[string][]string),
		now:          time.Now,
		newID:        uuid.NewString,
		logger:       logrus.StandardLogger(),
	}
	s.notified = sync.NewCond(&s.notifyMu)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rules returns the assignment rules in force.
func (s *Store) Rules() AssignmentRules {
	return s.rules
}

// BookingReader reads the bookings that overlap a window.
type BookingReader interface {
	Bookings(start, end time.Time) ([]models.Appointment, []models.Vehicle, uint64)
}

// lockedBookings reads bookings while the caller holds the write lock.
type lockedBookings struct{ s *Store }

func (l lockedBookings) Bookings(start, end time.Time) ([]models.Appointment, []models.Vehicle, uint64) {
	return l.s.bookingsLocked(start, end)
}

// CreateAppointment adds a new appointment at the end of the unassigned pool.
func (s *Store) CreateAppointment(in NewAppointment) (models.Appointment, error) {
	return s.CreateAppointmentIf(in, nil)
}

// CreateAppointmentIf is CreateAppointment guarded by check, which sees the
// current bookings inside the same critical section as the insert. A non-nil
// error from check is returned unchanged and nothing is created. check must
// not call back into the store.
func (s *Store) CreateAppointmentIf(in NewAppointment, check func(BookingReader) error) (models.Appointment, error) {
	verr := &ValidationError{}
	if !models.IsValidTransportType(in.TransportType) {
		verr.Add("transport_type", fmt.Sprintf("unknown transport type %q", in.TransportType))
	}
	if in.ScheduledAt.IsZero() {
		verr.Add("scheduled_at", "scheduled time is required")
	}
	if in.DurationMinutes <= 0 {
		verr.Add("duration_minutes", "duration must be positive")
	}
	if err := verr.OrNil(); err != nil {
		return models.Appointment{}, err
	}

	res, err := s.mutate(func() (*Result, *Change, error) {
		if check != nil {
			if err := check(lockedBookings{s}); err != nil {
				return nil, nil, err
			}
		}
		now := s.now()
		a := &models.Appointment{
			ID:              s.newID(),
			Patient:         in.Patient,
			Pickup:          in.Pickup,
			Destination:     in.Destination,
			ScheduledAt:     in.ScheduledAt,
			DurationMinutes: in.DurationMinutes,
			TransportType:   in.TransportType,
			Status:          models.StatusUnassigned,
			Notes:           in.Notes,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		s.appointments[a.ID] = a
		s.pool = append(s.pool, a.ID)
		s.renumber(models.UnassignedPool())
		res, ch := s.commit(ChangeCreated, a, models.UnassignedPool())
		return res, ch, nil
	})
	if err != nil {
		return models.Appointment{}, err
	}
	return res.Appointment, nil
}

// AssignToVehicle moves an unassigned appointment into a vehicle queue at index.
func (s *Store) AssignToVehicle(appointmentID, vehicleID string, index int) (*Result, error) {
	return s.mutate(func() (*Result, *Change, error) {
		return s.assignLocked(appointmentID, vehicleID, index)
	})
}

func (s *Store) assignLocked(appointmentID, vehicleID string, index int) (*Result, *Change, error) {
	a, err := s.appointment(appointmentID)
	if err != nil {
		return nil, nil, err
	}
	v, err := s.vehicle(vehicleID)
	if err != nil {
		return nil, nil, err
	}
	if a.Status != models.StatusUnassigned {
		return nil, nil, fmt.Errorf("%w: cannot assign %s appointment %s", ErrInvalidTransition, a.Status, a.ID)
	}
	if !v.Active {
		return nil, nil, fmt.Errorf("%w: %s", ErrVehicleInactive, v.ID)
	}
	queue := s.queues[v.ID]
	if index < 0 || index > len(queue) {
		return nil, nil, fmt.Errorf("%w: index %d not in [0, %d]", ErrIndexOutOfRange, index, len(queue))
	}
	if err := CanAccept(*v, s.appointmentsOf(queue), *a, s.rules); err != nil {
		return nil, nil, err
	}

	s.pool = without(s.pool, a.ID)
	s.queues[v.ID] = insertAt(queue, index, a.ID)
	a.Status = models.StatusAssigned
	a.VehicleID = v.ID
	a.UpdatedAt = s.now()
	s.renumber(models.UnassignedPool())
	s.renumber(models.VehicleQueue(v.ID))
	res, ch := s.commit(ChangeAssigned, a, models.UnassignedPool(), models.VehicleQueue(v.ID))
	return res, ch, nil
}

// Unassign returns an assigned appointment to the end of the unassigned pool.
func (s *Store) Unassign(appointmentID string) (*Result, error) {
	return s.mutate(func() (*Result, *Change, error) {
		return s.unassignLocked(appointmentID, -1)
	})
}

// UnassignAt returns an assigned appointment to the unassigned pool at index.
func (s *Store) UnassignAt(appointmentID string, index int) (*Result, error) {
	if index < 0 {
		return nil, fmt.Errorf("%w: index %d is negative", ErrIndexOutOfRange, index)
	}
	return s.mutate(func() (*Result, *Change, error) {
		return s.unassignLocked(appointmentID, index)
	})
}

// unassignLocked appends when index is negative.
func (s *Store) unassignLocked(appointmentID string, index int) (*Result, *Change, error) {
	a, err := s.appointment(appointmentID)
	if err != nil {
		return nil, nil, err
	}
	if a.Status != models.StatusAssigned {
		return nil, nil, fmt.Errorf("%w: cannot unassign %s appointment %s", ErrInvalidTransition, a.Status, a.ID)
	}
	if index < 0 {
		index = len(s.pool)
	}
	if index > len(s.pool) {
		return nil, nil, fmt.Errorf("%w: index %d not in [0, %d]", ErrIndexOutOfRange, index, len(s.pool))
	}

	source := a.Container()
	s.queues[a.VehicleID] = without(s.queues[a.VehicleID], a.ID)
	s.pool = insertAt(s.pool, index, a.ID)
	a.Status = models.StatusUnassigned
	a.VehicleID = ""
	a.UpdatedAt = s.now()
	s.renumber(source)
	s.renumber(models.UnassignedPool())
	res, ch := s.commit(ChangeUnassigned, a, source, models.UnassignedPool())
	return res, ch, nil
}

// Reassign moves an assigned appointment to another vehicle's queue in one
// step; it never passes through the unassigned pool. Reassigning to the
// current vehicle reorders within its queue.
func (s *Store) Reassign(appointmentID, vehicleID string, index int) (*Result, error) {
	return s.mutate(func() (*Result, *Change, error) {
		return s.reassignLocked(appointmentID, vehicleID, index)
	})
}

func (s *Store) reassignLocked(appointmentID, vehicleID string, index int) (*Result, *Change, error) {
	a, err := s.appointment(appointmentID)
	if err != nil {
		return nil, nil, err
	}
	dest, err := s.vehicle(vehicleID)
	if err != nil {
		return nil, nil, err
	}
	if a.Status != models.StatusAssigned {
		return nil, nil, fmt.Errorf("%w: cannot reassign %s appointment %s", ErrInvalidTransition, a.Status, a.ID)
	}
	if a.VehicleID == dest.ID {
		return s.reorderLocked(models.VehicleQueue(dest.ID), a, index)
	}
	if !dest.Active {
		return nil, nil, fmt.Errorf("%w: %s", ErrVehicleInactive, dest.ID)
	}
	queue := s.queues[dest.ID]
	if index < 0 || index > len(queue) {
		return nil, nil, fmt.Errorf("%w: index %d not in [0, %d]", ErrIndexOutOfRange, index, len(queue))
	}
	if err := CanAccept(*dest, s.appointmentsOf(queue), *a, s.rules); err != nil {
		return nil, nil, err
	}

	source := a.Container()
	s.queues[a.VehicleID] = without(s.queues[a.VehicleID], a.ID)
	s.queues[dest.ID] = insertAt(queue, index, a.ID)
	a.VehicleID = dest.ID
	a.UpdatedAt = s.now()
	s.renumber(source)
	s.renumber(models.VehicleQueue(dest.ID))
	res, ch := s.commit(ChangeReassigned, a, source, models.VehicleQueue(dest.ID))
	return res, ch, nil
}

// MoveWithinContainer changes the rank of an appointment inside its current
// container. Moving to the current index changes nothing.
func (s *Store) MoveWithinContainer(container models.Container, appointmentID string, newIndex int) (*Result, error) {
	if err := container.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return s.mutate(func() (*Result, *Change, error) {
		return s.moveWithinLocked(container, appointmentID, newIndex)
	})
}

func (s *Store) moveWithinLocked(container models.Container, appointmentID string, newIndex int) (*Result, *Change, error) {
	if !container.IsUnassigned() {
		if _, err := s.vehicle(container.VehicleID); err != nil {
			return nil, nil, err
		}
	}
	a, err := s.appointment(appointmentID)
	if err != nil {
		return nil, nil, err
	}
	if a.Container() != container {
		return nil, nil, fmt.Errorf("%w: appointment %s is not in %s", ErrNotFound, a.ID, container)
	}
	return s.reorderLocked(container, a, newIndex)
}

func (s *Store) reorderLocked(container models.Container, a *models.Appointment, newIndex int) (*Result, *Change, error) {
	ids := s.list(container)
	if newIndex < 0 || newIndex >= len(ids) {
		return nil, nil, fmt.Errorf("%w: index %d not in [0, %d)", ErrIndexOutOfRange, newIndex, len(ids))
	}
	if a.Position == newIndex {
		return s.unchanged(a, container), nil, nil
	}
	s.setList(container, insertAt(without(ids, a.ID), newIndex, a.ID))
	a.UpdatedAt = s.now()
	s.renumber(container)
	res, ch := s.commit(ChangeReordered, a, container)
	return res, ch, nil
}

// StartTrip marks an assigned appointment as in progress.
func (s *Store) StartTrip(appointmentID string) (*Result, error) {
	return s.transition(appointmentID, models.StatusAssigned, models.StatusInProgress, ChangeStarted)
}

// CompleteTrip marks an in-progress appointment as completed.
func (s *Store) CompleteTrip(appointmentID string) (*Result, error) {
	return s.transition(appointmentID, models.StatusInProgress, models.StatusCompleted, ChangeCompleted)
}

func (s *Store) transition(appointmentID string, from, to models.AppointmentStatus, kind ChangeKind) (*Result, error) {
	return s.mutate(func() (*Result, *Change, error) {
		a, err := s.appointment(appointmentID)
		if err != nil {
			return nil, nil, err
		}
		if a.Status != from || a.VehicleID == "" {
			return nil, nil, fmt.Errorf("%w: %s -> %s for appointment %s", ErrInvalidTransition, a.Status, to, a.ID)
		}
		a.Status = to
		a.UpdatedAt = s.now()
		res, ch := s.commit(kind, a, a.Container())
		return res, ch, nil
	})
}

// CancelAppointment removes an appointment that has not started yet. The
// returned result carries the removed appointment and its compacted container.
func (s *Store) CancelAppointment(appointmentID string) (*Result, error) {
	return s.mutate(func() (*Result, *Change, error) {
		a, err := s.appointment(appointmentID)
		if err != nil {
			return nil, nil, err
		}
		if a.Status != models.StatusUnassigned && a.Status != models.StatusAssigned {
			return nil, nil, fmt.Errorf("%w: cannot cancel %s appointment %s", ErrInvalidTransition, a.Status, a.ID)
		}
		container := a.Container()
		s.setList(container, without(s.list(container), a.ID))
		delete(s.appointments, a.ID)
		s.renumber(container)
		res, ch := s.commit(ChangeCancelled, a, container)
		return res, ch, nil
	})
}

// AddVehicle registers a vehicle with an empty queue.
func (s *Store) AddVehicle(v models.Vehicle) (models.Vehicle, error) {
	if err := validateVehicle(v.Name, v.LicensePlate, v.Capabilities); err != nil {
		return models.Vehicle{}, err
	}
	var out models.Vehicle
	_, err := s.mutate(func() (*Result, *Change, error) {
		if v.ID == "" {
			v.ID = s.newID()
		}
		if _, exists := s.vehicles[v.ID]; exists {
			verr := &ValidationError{}
			verr.Add("id", fmt.Sprintf("vehicle %s already exists", v.ID))
			return nil, nil, verr
		}
		now := s.now()
		v.CreatedAt = now
		v.UpdatedAt = now
		v.Capabilities = append([]models.TransportType(nil), v.Capabilities...)
		stored := v
		s.vehicles[v.ID] = &stored
		s.vehicleOrder = append(s.vehicleOrder, v.ID)
		s.queues[v.ID] = nil
		out = copyVehicle(&stored)
		return nil, s.commitVehicle(ChangeVehicleAdded, &stored), nil
	})
	if err != nil {
		return models.Vehicle{}, err
	}
	return out, nil
}

// UpdateVehicle replaces the descriptive fields of a vehicle. Its queue and
// active flag are left untouched.
func (s *Store) UpdateVehicle(vehicleID string, upd VehicleUpdate) (models.Vehicle, error) {
	if err := validateVehicle(upd.Name, upd.LicensePlate, upd.Capabilities); err != nil {
		return models.Vehicle{}, err
	}
	var out models.Vehicle
	_, err := s.mutate(func() (*Result, *Change, error) {
		v, err := s.vehicle(vehicleID)
		if err != nil {
			return nil, nil, err
		}
		v.Name = upd.Name
		v.LicensePlate = upd.LicensePlate
		v.Capabilities = append([]models.TransportType(nil), upd.Capabilities...)
		v.InspectionDue = upd.InspectionDue
		v.UpdatedAt = s.now()
		out = copyVehicle(v)
		return nil, s.commitVehicle(ChangeVehicleUpdated, v), nil
	})
	if err != nil {
		return models.Vehicle{}, err
	}
	return out, nil
}

// SetVehicleActive activates or deactivates a vehicle. Inactive vehicles
// keep the appointments already in their queue.
func (s *Store) SetVehicleActive(vehicleID string, active bool) (models.Vehicle, error) {
	var out models.Vehicle
	_, err := s.mutate(func() (*Result, *Change, error) {
		v, err := s.vehicle(vehicleID)
		if err != nil {
			return nil, nil, err
		}
		if v.Active == active {
			out = copyVehicle(v)
			return nil, nil, nil
		}
		v.Active = active
		v.UpdatedAt = s.now()
		out = copyVehicle(v)
		return nil, s.commitVehicle(ChangeVehicleUpdated, v), nil
	})
	if err != nil {
		return models.Vehicle{}, err
	}
	return out, nil
}

// RemoveVehicle deletes a vehicle whose queue is empty.
func (s *Store) RemoveVehicle(vehicleID string) error {
	_, err := s.mutate(func() (*Result, *Change, error) {
		v, err := s.vehicle(vehicleID)
		if err != nil {
			return nil, nil, err
		}
		if n := len(s.queues[v.ID]); n > 0 {
			return nil, nil, fmt.Errorf("%w: %s has %d appointments", ErrVehicleInUse, v.ID, n)
		}
		delete(s.vehicles, v.ID)
		delete(s.queues, v.ID)
		s.vehicleOrder = without(s.vehicleOrder, v.ID)
		return nil, s.commitVehicle(ChangeVehicleRemoved, v), nil
	})
	return err
}

// Restore replaces the whole state, typically with what was loaded from
// persistence. Containers are ordered by stored position and renumbered.
func (s *Store) Restore(vehicles []models.Vehicle, appointments []models.Appointment) error {
	vehicleMap := make(map[string]*models.Vehicle, len(vehicles))
	order := make([]string, 0, len(vehicles))
	for i := range vehicles {
		v := vehicles[i]
		if v.ID == "" {
			return fmt.Errorf("%w: vehicle without id", ErrValidation)
		}
		if _, dup := vehicleMap[v.ID]; dup {
			return fmt.Errorf("%w: duplicate vehicle %s", ErrValidation, v.ID)
		}
		vehicleMap[v.ID] = &v
		order = append(order, v.ID)
	}

	appointmentMap := make(map[string]*models.Appointment, len(appointments))
	members := make(map[models.Container][]*models.Appointment)
	for i := range appointments {
		a := appointments[i]
		if a.ID == "" {
			return fmt.Errorf("%w: appointment without id", ErrValidation)
		}
		if _, dup := appointmentMap[a.ID]; dup {
			return fmt.Errorf("%w: duplicate appointment %s", ErrValidation, a.ID)
		}
		if !models.IsValidStatus(a.Status) {
			return fmt.Errorf("%w: appointment %s has status %q", ErrValidation, a.ID, a.Status)
		}
		if (a.VehicleID != "") != (a.Status != models.StatusUnassigned) {
			return fmt.Errorf("%w: appointment %s is %s with vehicle %q", ErrValidation, a.ID, a.Status, a.VehicleID)
		}
		if a.VehicleID != "" {
			if _, ok := vehicleMap[a.VehicleID]; !ok {
				return fmt.Errorf("%w: appointment %s references unknown vehicle %s", ErrNotFound, a.ID, a.VehicleID)
			}
		}
		appointmentMap[a.ID] = &a
		members[a.Container()] = append(members[a.Container()], &a)
	}

	queues := make(map[string][]string, len(order))
	for _, id := range order {
		queues[id] = nil
	}
	var pool []string
	for c, list := range members {
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].Position != list[j].Position {
				return list[i].Position < list[j].Position
			}
			return list[i].ID < list[j].ID
		})
		ids := make([]string, len(list))
		for i, a := range list {
			a.Position = i
			ids[i] = a.ID
		}
		if c.IsUnassigned() {
			pool = ids
		} else {
			queues[c.VehicleID] = ids
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.appointments = appointmentMap
	s.vehicles = vehicleMap
	s.vehicleOrder = order
	s.queues = queues
	s.pool = pool
	s.revision++
	s.logger.WithFields(logrus.Fields{
		"vehicles":     len(vehicleMap),
		"appointments": len(appointmentMap),
		"revision":     s.revision,
	}).Info("Restored dispatch state")
	return nil
}

// mutate runs fn under the write lock and notifies the observer once the
// lock is released. fn returns a nil change for no-ops.
func (s *Store) mutate(fn func() (*Result, *Change, error)) (*Result, error) {
	var ticket uint64
	res, ch, err := func() (*Result, *Change, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		res, ch, err := fn()
		if err == nil && ch != nil && s.observer != nil {
			ticket = s.nextTicket
			s.nextTicket++
		}
		return res, ch, err
	}()
	if err != nil {
		return nil, err
	}
	if ch != nil && s.observer != nil {
		s.deliver(ticket, *ch)
	}
	return res, nil
}

// deliver waits until every earlier change has been observed, then hands ch
// to the observer.
func (s *Store) deliver(ticket uint64, ch Change) {
	s.notifyMu.Lock()
	for s.delivered != ticket {
		s.notified.Wait()
	}
	s.notifyMu.Unlock()

	defer func() {
		s.notifyMu.Lock()
		s.delivered++
		s.notifyMu.Unlock()
		s.notified.Broadcast()
	}()
	s.observer(ch)
}

func (s *Store) commit(kind ChangeKind, a *models.Appointment, containers ...models.Container) (*Result, *Change) {
	s.revision++
	res := &Result{
		Appointment: *a,
		Containers:  s.views(containers...),
		Revision:    s.revision,
	}
	ch := &Change{
		Kind:        kind,
		Appointment: &res.Appointment,
		Containers:  res.Containers,
		Revision:    s.revision,
		At:          s.now(),
	}
	s.logger.WithFields(logrus.Fields{
		"change":         kind,
		"appointment_id": a.ID,
		"vehicle_id":     a.VehicleID,
		"position":       a.Position,
		"revision":       s.revision,
	}).Debug("Committed dispatch change")
	return res, ch
}

func (s *Store) commitVehicle(kind ChangeKind, v *models.Vehicle) *Change {
	s.revision++
	vc := copyVehicle(v)
	s.logger.WithFields(logrus.Fields{
		"change":     kind,
		"vehicle_id": v.ID,
		"revision":   s.revision,
	}).Debug("Committed fleet change")
	return &Change{Kind: kind, Vehicle: &vc, Revision: s.revision, At: s.now()}
}

func (s *Store) unchanged(a *models.Appointment, containers ...models.Container) *Result {
	return &Result{Appointment: *a, Containers: s.views(containers...), Revision: s.revision}
}

func (s *Store) appointment(id string) (*models.Appointment, error) {
	a, ok := s.appointments[id]
	if !ok {
		return nil, fmt.Errorf("%w: appointment %s", ErrNotFound, id)
	}
	return a, nil
}

func (s *Store) vehicle(id string) (*models.Vehicle, error) {
	v, ok := s.vehicles[id]
	if !ok {
		return nil, fmt.Errorf("%w: vehicle %s", ErrNotFound, id)
	}
	return v, nil
}

func (s *Store) list(c models.Container) []string {
	if c.IsUnassigned() {
		return s.pool
	}
	return s.queues[c.VehicleID]
}

func (s *Store) setList(c models.Container, ids []string) {
	if c.IsUnassigned() {
		s.pool = ids
		return
	}
	s.queues[c.VehicleID] = ids
}

// renumber rewrites positions so they match the container order.
func (s *Store) renumber(c models.Container) {
	for i, id := range s.list(c) {
		s.appointments[id].Position = i
	}
}

func (s *Store) appointmentsOf(ids []string) []models.Appointment {
	out := make([]models.Appointment, 0, len(ids))
	for _, id := range ids {
		out = append(out, *s.appointments[id])
	}
	return out
}

func (s *Store) views(containers ...models.Container) []ContainerView {
	out := make([]ContainerView, 0, len(containers))
	for _, c := range containers {
		out = append(out, ContainerView{Container: c, Appointments: s.appointmentsOf(s.list(c))})
	}
	return out
}

func validateVehicle(name, plate string, capabilities []models.TransportType) error {
	verr := &ValidationError{}
	if len([]rune(name)) < 2 {
		verr.Add("name", "name must be at least 2 characters long")
	}
	if plate == "" {
		verr.Add("license_plate", "license plate is required")
	}
	for _, c := range capabilities {
		if !models.IsValidTransportType(c) {
			verr.Add("capabilities", fmt.Sprintf("unknown transport type %q", c))
		}
	}
	return verr.OrNil()
}

func copyVehicle(v *models.Vehicle) models.Vehicle {
	out := *v
	out.Capabilities = append([]models.TransportType(nil), v.Capabilities...)
	if v.InspectionDue != nil {
		due := *v.InspectionDue
		out.InspectionDue = &due
	}
	return out
}

// insertAt returns a new slice with id inserted before index i.
func insertAt(ids []string, i int, id string) []string {
	out := make([]string, 0, len(ids)+1)
	out = append(out, ids[:i]...)
	out = append(out, id)
	return append(out, ids[i:]...)
}

// without returns a new slice with every occurrence of id removed.
func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.In(b.Location()).Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
