// Package eventbus is the in-process pub/sub surface for discovery, launch
// and console events. Presentation layers subscribe through the daemon's
// Events stream.
package eventbus

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"weavectl/internal/model"
)

// EventType identifies the type of event.
type EventType string

const (
	EventProcessDiscovered EventType = "process_discovered"
	EventInstanceLaunched  EventType = "instance_launched"
	EventConsoleLine       EventType = "console_line"
	EventInstanceExited    EventType = "instance_exited"
)

// Event is one notification. Fields are populated per type.
type Event struct {
	Type     EventType            `json:"type"`
	PID      uint32               `json:"pid"`
	LogPath  string               `json:"log_path,omitempty"`
	Client   model.ClientKind     `json:"client"`
	Line     string               `json:"line,omitempty"`
	ExitCode int                  `json:"exit_code,omitempty"`
	Process  *model.ProcessRecord `json:"process,omitempty"`
}

// Publisher is what event producers depend on.
type Publisher interface {
	Publish(Event)
}

const DefaultBuffer = 256

// Subscription is one subscriber's view of the bus. C is closed when the
// subscriber unsubscribes, the bus closes, or the subscriber falls behind.
type Subscription struct {
	C <-chan Event

	id     uuid.UUID
	ch     chan Event
	bus    *Bus
	lagged atomic.Bool
}

// Lagged reports whether C was closed because its buffer overflowed. A lagged
// subscriber has missed at least one event and must resubscribe.
func (s *Subscription) Lagged() bool { return s.lagged.Load() }

// Unsubscribe releases the subscription. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s.bus == nil {
		return
	}
	s.bus.remove(s)
}

// Bus broadcasts every event to every subscriber.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[uuid.UUID]*Subscription
	buffer      int
	closed      bool
	dropped     atomic.Uint64
	log         *logrus.Entry
}

// New creates a bus whose subscriber channels hold buffer events.
func New(buffer int) *Bus {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Bus{
		subscribers: make(map[uuid.UUID]*Subscription),
		buffer:      buffer,
		log:         logrus.WithField("component", "eventbus"),
	}
}

// WithLogger replaces the logger used to report lagging subscribers.
func (b *Bus) WithLogger(log *logrus.Entry) *Bus {
	if log != nil {
		b.log = log.WithField("component", "eventbus")
	}
	return b
}

// Subscribe registers a new subscriber.
func (b *Bus) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		ch := make(chan Event)
		close(ch)
		return &Subscription{C: ch, ch: ch}
	}

	ch := make(chan Event, b.buffer)
	sub := &Subscription{C: ch, id: uuid.New(), ch: ch, bus: b}
	b.subscribers[sub.id] = sub
	return sub
}

// Publish never blocks. A subscriber whose buffer is full is marked lagged
// and dropped from the bus; it receives nothing after the gap, only the
// close of its channel.
func (b *Bus) Publish(event Event) {
	var lagging []*Subscription

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	for _, sub := range b.subscribers {
		if sub.lagged.Load() {
			b.dropped.Add(1)
			continue
		}
		select {
		case sub.ch <- event:
		default:
			b.dropped.Add(1)
			if sub.lagged.CompareAndSwap(false, true) {
				lagging = append(lagging, sub)
			}
		}
	}
	b.mu.RUnlock()

	for _, sub := range lagging {
		b.log.WithFields(logrus.Fields{
			"subscriber": sub.id.String(),
			"buffer":     b.buffer,
			"event":      string(event.Type),
			"pid":        event.PID,
		}).Warn("subscriber fell behind, closing its stream")
		b.remove(sub)
	}
}

func (b *Bus) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cur, ok := b.subscribers[sub.id]; ok && cur == sub {
		close(sub.ch)
		delete(b.subscribers, sub.id)
	}
}

// Close shuts down the bus and closes all subscriber channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subscribers {
		close(sub.ch)
		delete(b.subscribers, id)
	}
}

func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Dropped counts events that a lagging subscriber did not receive.
func (b *Bus) Dropped() uint64 { return b.dropped.Load() }
