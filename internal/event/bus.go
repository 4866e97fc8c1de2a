package event

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dshills/gridstorm/internal/event/topic"
)

// Bus is a synchronous, in-process event bus.
//
// The listener table is guarded by a mutex that is never held while handlers
// run, so handlers may subscribe, unsubscribe and emit re-entrantly.
type Bus struct {
	mu     sync.Mutex
	subs   []*subscription
	seq    uint64
	warned bool
	config busConfig

	eventSeq         atomic.Uint64
	handlersExecuted atomic.Uint64
	handlerErrors    atomic.Uint64
	handlerPanics    atomic.Uint64
}

// Stats reports bus activity counters.
type Stats struct {
	Listeners        int
	EventsEmitted    uint64
	HandlersExecuted uint64
	HandlerErrors    uint64
	HandlerPanics    uint64
}

// NewBus creates a new event bus with the given options.
func NewBus(opts ...BusOption) *Bus {
	config := defaultBusConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return &Bus{config: config}
}

// On registers handler for every event whose topic matches pattern.
// It panics if pattern is malformed or handler is nil, both of which are
// programming errors.
func (b *Bus) On(pattern topic.Topic, handler HandlerFunc, opts ...SubscriptionOption) Subscription {
	if !pattern.IsValid() {
		panic(fmt.Errorf("%w: %q", ErrInvalidTopic, pattern))
	}
	if handler == nil {
		panic("event: nil handler")
	}

	var cfg subscriptionConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	b.mu.Lock()
	b.seq++
	sub := newSubscription(b, b.seq, pattern, handler, cfg)
	b.subs = append(b.subs, sub)
	count := b.countLocked(pattern)
	warn := b.config.logger != nil && !b.warned && count > b.config.maxListeners
	if warn {
		b.warned = true
	}
	b.mu.Unlock()

	if warn {
		b.config.logger.Warn("possible event bus leak detected: %d %s listeners added, raise the limit with WithMaxListeners", count, pattern)
	}
	return sub
}

// Once registers handler for a single delivery.
func (b *Bus) Once(pattern topic.Topic, handler HandlerFunc) Subscription {
	return b.On(pattern, handler, WithOnce())
}

// RemoveListener removes sub from the bus. It returns false if sub was not
// registered on this bus.
func (b *Bus) RemoveListener(sub Subscription) bool {
	s, ok := sub.(*subscription)
	if !ok || s == nil {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for i, existing := range b.subs {
		if existing == s {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			s.state.Store(int32(SubscriptionStateCancelled))
			return true
		}
	}
	return false
}

// RemoveAllListeners removes every subscription registered with one of the
// given patterns, or all subscriptions when none are given.
func (b *Bus) RemoveAllListeners(patterns ...topic.Topic) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(patterns) == 0 {
		for _, s := range b.subs {
			s.state.Store(int32(SubscriptionStateCancelled))
		}
		b.subs = nil
		return
	}

	kept := b.subs[:0:0]
	for _, s := range b.subs {
		if containsTopic(patterns, s.pattern) {
			s.state.Store(int32(SubscriptionStateCancelled))
			continue
		}
		kept = append(kept, s)
	}
	b.subs = kept
}

// ListenerCount returns the number of subscriptions registered with pattern.
func (b *Bus) ListenerCount(pattern topic.Topic) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.countLocked(pattern)
}

// Emit delivers payload to every listener matching t, in subscription order.
func (b *Bus) Emit(t topic.Topic, payload any) error {
	if !t.IsValid() || t.IsWildcard() {
		return fmt.Errorf("%w: %q", ErrInvalidTopic, t)
	}

	b.mu.Lock()
	var matched []*subscription
	for _, s := range b.subs {
		if s.IsActive() && s.matches(t) {
			matched = append(matched, s)
		}
	}
	b.mu.Unlock()

	ev := Event{
		Topic:   t,
		Payload: payload,
		Metadata: Metadata{
			Seq:       b.eventSeq.Add(1),
			Timestamp: b.config.now(),
			Source:    b.config.source,
		},
	}
	if b.config.eventIDs {
		ev.Metadata.ID = uuid.NewString()
	}

	var errs []error
	for _, s := range matched {
		if s.config.filter != nil && !s.config.filter(ev) {
			continue
		}
		if !s.claim() {
			continue
		}
		if s.config.once {
			b.RemoveListener(s)
		}
		if err := b.invoke(s, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Stats returns a snapshot of the bus counters.
func (b *Bus) Stats() Stats {
	b.mu.Lock()
	listeners := len(b.subs)
	b.mu.Unlock()

	return Stats{
		Listeners:        listeners,
		EventsEmitted:    b.eventSeq.Load(),
		HandlersExecuted: b.handlersExecuted.Load(),
		HandlerErrors:    b.handlerErrors.Load(),
		HandlerPanics:    b.handlerPanics.Load(),
	}
}

func (b *Bus) invoke(s *subscription, ev Event) (err error) {
	b.handlersExecuted.Add(1)
	defer func() {
		if r := recover(); r != nil {
			b.handlerPanics.Add(1)
			err = &PanicError{
				SubscriptionID: s.id,
				Topic:          ev.Topic,
				Value:          r,
				Stack:          string(debug.Stack()),
			}
		}
	}()

	if herr := s.handler(ev); herr != nil {
		b.handlerErrors.Add(1)
		return &HandlerError{SubscriptionID: s.id, Topic: ev.Topic, Err: herr}
	}
	return nil
}

func (b *Bus) countLocked(pattern topic.Topic) int {
	n := 0
	for _, s := range b.subs {
		if s.pattern == pattern {
			n++
		}
	}
	return n
}

func containsTopic(list []topic.Topic, t topic.Topic) bool {
	for _, candidate := range list {
		if candidate == t {
			return true
		}
	}
	return false
}
