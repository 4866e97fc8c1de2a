package event

import (
	"time"

	"github.com/dshills/gridstorm/internal/logging"
)

// DefaultMaxListeners is the per-topic listener count above which the bus
// logs a possible-leak warning.
const DefaultMaxListeners = 10

// BusOption configures a Bus.
type BusOption func(*busConfig)

type busConfig struct {
	maxListeners int
	logger       *logging.Logger
	eventIDs     bool
	source       string
	now          func() time.Time
}

func defaultBusConfig() busConfig {
	return busConfig{
		maxListeners: DefaultMaxListeners,
		source:       "grid",
		now:          time.Now,
	}
}

// WithMaxListeners enables the possible-leak warning. The first time any topic
// has more than n listeners, one warning is written to logger. A nil logger
// disables the warning.
func WithMaxListeners(n int, logger *logging.Logger) BusOption {
	return func(c *busConfig) {
		if n > 0 {
			c.maxListeners = n
		}
		c.logger = logger
	}
}

// WithEventIDs stamps every event with a random UUID.
func WithEventIDs(enabled bool) BusOption {
	return func(c *busConfig) {
		c.eventIDs = enabled
	}
}

// WithSource sets Metadata.Source on emitted events.
func WithSource(source string) BusOption {
	return func(c *busConfig) {
		if source != "" {
			c.source = source
		}
	}
}

// WithClock replaces the clock used for event timestamps.
func WithClock(now func() time.Time) BusOption {
	return func(c *busConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// SubscriptionOption configures a subscription.
type SubscriptionOption func(*subscriptionConfig)

type subscriptionConfig struct {
	once   bool
	filter FilterFunc
}

// WithOnce cancels the subscription after its first delivery.
func WithOnce() SubscriptionOption {
	return func(c *subscriptionConfig) {
		c.once = true
	}
}

// WithFilter only delivers events for which fn returns true.
func WithFilter(fn FilterFunc) SubscriptionOption {
	return func(c *subscriptionConfig) {
		c.filter = fn
	}
}
