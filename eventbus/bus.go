// Package eventbus carries connection lifecycle events from the connection
// manager to downstream consumers (metrics, logging, reactive behavior).
package eventbus

import (
	"sync"

	evbus "github.com/asaskevich/EventBus"
)

// Bus is the capability the connection manager publishes through.
// Publish is fire-and-forget; implementations must be safe for concurrent use
// and must not block the caller for long, since events are delivered from the
// transport's own goroutines.
type Bus interface {
	Publish(event any)
}

// AsyncBus is the production Bus, routing events by topic to registered
// handlers.
type AsyncBus struct {
	bus evbus.Bus
}

// NewAsyncBus creates an empty bus.
func NewAsyncBus() *AsyncBus {
	return &AsyncBus{bus: evbus.New()}
}

// Publish routes the event to subscribers of its topic. Events with no
// subscribers are dropped silently.
func (b *AsyncBus) Publish(event any) {
	topic := TopicFor(event)
	if topic == "" {
		return
	}
	b.bus.Publish(topic, event)
}

// Subscribe registers a handler for one topic, called synchronously on the
// publisher's goroutine. The handler signature must accept the event type of
// that topic, e.g. func(eventbus.ConnectionCreated).
func (b *AsyncBus) Subscribe(topic string, handler any) error {
	return b.bus.Subscribe(topic, handler)
}

// SubscribeAsync registers a handler that runs on its own goroutine per
// event, keeping slow consumers off the transport's callback path.
func (b *AsyncBus) SubscribeAsync(topic string, handler any) error {
	return b.bus.SubscribeAsync(topic, handler, false)
}

// Unsubscribe removes a previously registered handler.
func (b *AsyncBus) Unsubscribe(topic string, handler any) error {
	return b.bus.Unsubscribe(topic, handler)
}

// Wait blocks until all async handlers spawned so far have finished.
// Intended for shutdown and tests.
func (b *AsyncBus) Wait() {
	b.bus.WaitAsync()
}

// NopBus discards every event. The default when a caller does not care about
// lifecycle events.
type NopBus struct{}

// Publish implements Bus.
func (NopBus) Publish(any) {}

// Recorder is a Bus that remembers everything published to it, in order.
// It exists for tests and diagnostics.
type Recorder struct {
	mu     sync.Mutex
	events []any
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Publish implements Bus.
func (r *Recorder) Publish(event any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a snapshot of everything published so far.
func (r *Recorder) Events() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]any, len(r.events))
	copy(out, r.events)
	return out
}

// EventsOf returns only the recorded events matching the given topic.
func (r *Recorder) EventsOf(topic string) []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []any
	for _, e := range r.events {
		if TopicFor(e) == topic {
			out = append(out, e)
		}
	}
	return out
}
