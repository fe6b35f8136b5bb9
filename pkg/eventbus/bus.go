package eventbus

import "sync"

// subscriberBuffer bounds each subscriber's backlog; a slow UI client drops
// events rather than stalling the publisher (spec §4.10: "if no
// subscribers, it is dropped without cost" generalizes to "if a subscriber
// can't keep up, its backlog is dropped, not the publisher").
const subscriberBuffer = 1024

// Bus is the process-wide broadcast hub; it outlives capture sessions,
// which publish onto it. Publish never
// blocks: each subscriber has its own bounded channel and a full one simply
// drops the event.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[int]chan Event
	nextID      int
	lastState   *Event // most recent capture-state-changed, replayed to new subscribers
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subscribers: make(map[int]chan Event)}
}

// Subscribe registers a new subscriber and returns its channel plus an
// unsubscribe function. If a capture-state-changed event has already been
// published, the new subscriber immediately receives a synthesized copy
// (spec §4.9 "connect_events... synthesizes a current-state event").
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, subscriberBuffer)
	b.subscribers[id] = ch

	if b.lastState != nil {
		ch <- *b.lastState
	}

	return ch, func() { b.unsubscribe(id) }
}

func (b *Bus) unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
}

// Publish broadcasts ev to every current subscriber, non-blocking.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	if ev.Type == TypeCaptureStateChanged {
		cp := ev
		b.lastState = &cp
	}
	subs := make([]chan Event, 0, len(b.subscribers))
	for _, ch := range b.subscribers {
		subs = append(subs, ch)
	}
	b.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- ev:
		default:
			// Subscriber backlog full: drop rather than block the publisher.
		}
	}
}

// SubscriberCount reports the current number of connected subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
