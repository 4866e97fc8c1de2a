package event

import "github.com/dshills/gridstorm/internal/event/topic"

// Subscribe registers a typed handler. Events whose payload is not a T are
// skipped without error.
func Subscribe[T any](b *Bus, pattern topic.Topic, fn func(payload T) error, opts ...SubscriptionOption) Subscription {
	return b.On(pattern, func(ev Event) error {
		payload, ok := ev.Payload.(T)
		if !ok {
			return nil
		}
		return fn(payload)
	}, append([]SubscriptionOption{WithFilter(func(ev Event) bool {
		_, ok := ev.Payload.(T)
		return ok
	})}, opts...)...)
}

// Payload extracts a typed payload from an event.
func Payload[T any](ev Event) (T, bool) {
	p, ok := ev.Payload.(T)
	return p, ok
}
