package event

import (
	"time"

	"github.com/dshills/gridstorm/internal/event/topic"
)

// Event is a single emission delivered to handlers.
type Event struct {
	// Topic is the concrete topic the event was emitted on.
	Topic topic.Topic

	// Payload contains the event-specific data.
	Payload any

	// Metadata contains standard event information.
	Metadata Metadata
}

// Metadata contains standard information attached to every event.
type Metadata struct {
	// ID is a unique identifier for this event instance. It is only set when
	// the bus was created with WithEventIDs.
	ID string

	// Seq is the emission sequence number on the bus, starting at 1.
	Seq uint64

	// Timestamp is when the event was emitted.
	Timestamp time.Time

	// Source identifies the bus that emitted the event.
	Source string
}

// HandlerFunc handles an event.
type HandlerFunc func(ev Event) error

// FilterFunc decides whether an event is delivered to a subscription.
type FilterFunc func(ev Event) bool
