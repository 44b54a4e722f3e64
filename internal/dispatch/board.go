package dispatch

import (
	"fmt"

	"github.com/ukydev/transport-dispatch/internal/models"
)

// Location is a slot on the board: a container and a rank inside it.
type Location struct {
	Container models.Container `json:"container"`
	Index     int              `json:"index"`
}

// Move is a drag-and-drop gesture. From is where the dispatcher saw the
// appointment, To is where it was dropped.
type Move struct {
	AppointmentID string   `json:"appointment_id"`
	From          Location `json:"from"`
	To            Location `json:"to"`
}

// DropTarget tells the UI whether an appointment may be dropped on a container.
type DropTarget struct {
	Container models.Container `json:"container"`
	Droppable bool             `json:"droppable"`
	Reason    string           `json:"reason,omitempty"`
}

// Board translates board gestures into store operations. It holds no state
// of its own.
type Board struct {
	store *Store
}

// NewBoard creates a board over store.
func NewBoard(store *Store) *Board {
	return &Board{store: store}
}

// View returns the current board.
func (b *Board) View() BoardView {
	return b.store.Snapshot()
}

// Move applies one gesture as exactly one store operation. The source
// location is checked against the current state under the same lock as the
// mutation, so a move computed from an outdated board fails with ErrStaleMove.
func (b *Board) Move(m Move) (*Result, error) {
	if err := m.From.Container.Validate(); err != nil {
		return nil, fmt.Errorf("%w: from: %v", ErrValidation, err)
	}
	if err := m.To.Container.Validate(); err != nil {
		return nil, fmt.Errorf("%w: to: %v", ErrValidation, err)
	}
	s := b.store
	return s.mutate(func() (*Result, *Change, error) {
		a, err := s.appointment(m.AppointmentID)
		if err != nil {
			return nil, nil, err
		}
		if a.Container() != m.From.Container || a.Position != m.From.Index {
			return nil, nil, fmt.Errorf("%w: appointment %s is at %s[%d], not %s[%d]",
				ErrStaleMove, a.ID, a.Container(), a.Position, m.From.Container, m.From.Index)
		}
		if m.From == m.To {
			return s.unchanged(a, m.From.Container), nil, nil
		}

		from, to := m.From.Container, m.To.Container
		switch {
		case from.IsUnassigned() && to.IsUnassigned():
			return s.moveWithinLocked(from, a.ID, m.To.Index)
		case from.IsUnassigned():
			return s.assignLocked(a.ID, to.VehicleID, m.To.Index)
		case to.IsUnassigned():
			if m.To.Index < 0 {
				return nil, nil, fmt.Errorf("%w: index %d is negative", ErrIndexOutOfRange, m.To.Index)
			}
			return s.unassignLocked(a.ID, m.To.Index)
		case from == to:
			return s.moveWithinLocked(from, a.ID, m.To.Index)
		default:
			return s.reassignLocked(a.ID, to.VehicleID, m.To.Index)
		}
	})
}

// DropTargets lists every container with a flag saying whether the
// appointment could be dropped there right now.
func (b *Board) DropTargets(appointmentID string) ([]DropTarget, error) {
	s := b.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, err := s.appointment(appointmentID)
	if err != nil {
		return nil, err
	}
	movable := a.Status == models.StatusUnassigned || a.Status == models.StatusAssigned

	targets := make([]DropTarget, 0, len(s.vehicleOrder)+1)
	pool := DropTarget{Container: models.UnassignedPool(), Droppable: movable}
	if !movable {
		pool.Reason = fmt.Sprintf("appointment is %s", a.Status)
	}
	targets = append(targets, pool)

	for _, id := range s.vehicleOrder {
		v := s.vehicles[id]
		t := DropTarget{Container: models.VehicleQueue(id)}
		switch {
		case a.VehicleID == id:
			t.Droppable = true
		case !movable:
			t.Reason = fmt.Sprintf("appointment is %s", a.Status)
		default:
			if err := CanAccept(*v, s.appointmentsOf(s.queues[id]), *a, s.rules); err != nil {
				t.Reason = err.Error()
			} else {
				t.Droppable = true
			}
		}
		targets = append(targets, t)
	}
	return targets, nil
}
