package events

import (
	"sync"

	"github.com/ukydev/transport-dispatch/internal/dispatch"
)

type SubscriberID int

type subscriber struct {
	id     SubscriberID
	fn     func(dispatch.Change)
	filter map[dispatch.ChangeKind]struct{}
}

// Bus fans committed store changes out to subscribers. Install Emit as the
// store observer.
type Bus struct {
	mu          sync.RWMutex
	subscribers []subscriber
	nextID      SubscriberID
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for all change kinds.
func (b *Bus) Subscribe(fn func(dispatch.Change)) SubscriberID {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.subscribers = append(b.subscribers, subscriber{id: b.nextID, fn: fn})
	return b.nextID
}

// SubscribeKinds registers a handler for specific change kinds.
func (b *Bus) SubscribeKinds(fn func(dispatch.Change), kinds ...dispatch.ChangeKind) SubscriberID {
	filter := make(map[dispatch.ChangeKind]struct{}, len(kinds))
	for _, k := range kinds {
		filter[k] = struct{}{}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.subscribers = append(b.subscribers, subscriber{id: b.nextID, fn: fn, filter: filter})
	return b.nextID
}

// Unsubscribe removes a subscriber by ID.
func (b *Bus) Unsubscribe(id SubscriberID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subscribers {
		if s.id == id {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			return
		}
	}
}

// Emit delivers a change to every matching subscriber, in subscription order.
func (b *Bus) Emit(c dispatch.Change) {
	b.mu.RLock()
	subs := make([]subscriber, len(b.subscribers))
	copy(subs, b.subscribers)
	b.mu.RUnlock()

	for _, s := range subs {
		if s.filter != nil {
			if _, ok := s.filter[c.Kind]; !ok {
				continue
			}
		}
		s.fn(c)
	}
}
