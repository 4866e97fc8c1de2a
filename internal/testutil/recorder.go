package testutil

import (
	"sync"

	"github.com/dshills/gridstorm/internal/event"
	"github.com/dshills/gridstorm/internal/event/topic"
)

// Recorder captures events emitted on a bus.
type Recorder struct {
	mu     sync.Mutex
	events []event.Event
}

// Record subscribes a recorder to every topic matching pattern.
func Record(bus *event.Bus, pattern topic.Topic) *Recorder {
	r := &Recorder{}
	bus.On(pattern, func(ev event.Event) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, ev)
		return nil
	})
	return r
}

// Events returns the captured events.
func (r *Recorder) Events() []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event.Event(nil), r.events...)
}

// Topics returns the topics of the captured events in order.
func (r *Recorder) Topics() []topic.Topic {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]topic.Topic, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Topic
	}
	return out
}

// Count returns how many events were captured for t.
func (r *Recorder) Count(t topic.Topic) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Topic == t {
			n++
		}
	}
	return n
}

// Last returns the payload of the most recent event for t.
func (r *Recorder) Last(t topic.Topic) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Topic == t {
			return r.events[i].Payload, true
		}
	}
	return nil, false
}

// Reset drops captured events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
