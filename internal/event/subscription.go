package event

import (
	"strconv"
	"sync/atomic"

	"github.com/dshills/gridstorm/internal/event/topic"
)

// SubscriptionState represents the state of a subscription.
type SubscriptionState int32

const (
	// SubscriptionStateActive means the subscription is receiving events.
	SubscriptionStateActive SubscriptionState = iota

	// SubscriptionStatePaused means the subscription is temporarily not receiving events.
	SubscriptionStatePaused

	// SubscriptionStateCancelled means the subscription has been permanently cancelled.
	SubscriptionStateCancelled
)

// String returns a human-readable state name.
func (s SubscriptionState) String() string {
	switch s {
	case SubscriptionStateActive:
		return "active"
	case SubscriptionStatePaused:
		return "paused"
	case SubscriptionStateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Subscription is a handle to a registered listener.
type Subscription interface {
	// ID returns the unique subscription identifier.
	ID() string

	// Topic returns the subscribed topic pattern.
	Topic() topic.Topic

	// State returns the current subscription state.
	State() SubscriptionState

	// IsActive returns true if the subscription can receive events.
	IsActive() bool

	// Pause temporarily stops event delivery to this subscription.
	Pause()

	// Resume restarts event delivery after a pause.
	Resume()

	// Cancel removes the subscription from its bus.
	Cancel()
}

type subscription struct {
	id      string
	seq     uint64
	pattern topic.Topic
	handler HandlerFunc
	config  subscriptionConfig
	state   atomic.Int32
	fired   atomic.Bool
	bus     *Bus
}

func newSubscription(b *Bus, seq uint64, pattern topic.Topic, handler HandlerFunc, cfg subscriptionConfig) *subscription {
	return &subscription{
		id:      "sub-" + strconv.FormatUint(seq, 10),
		seq:     seq,
		pattern: pattern,
		handler: handler,
		config:  cfg,
		bus:     b,
	}
}

func (s *subscription) ID() string {
	return s.id
}

func (s *subscription) Topic() topic.Topic {
	return s.pattern
}

func (s *subscription) State() SubscriptionState {
	return SubscriptionState(s.state.Load())
}

func (s *subscription) IsActive() bool {
	return s.State() == SubscriptionStateActive
}

func (s *subscription) Pause() {
	s.state.CompareAndSwap(int32(SubscriptionStateActive), int32(SubscriptionStatePaused))
}

func (s *subscription) Resume() {
	s.state.CompareAndSwap(int32(SubscriptionStatePaused), int32(SubscriptionStateActive))
}

func (s *subscription) Cancel() {
	if s.bus != nil {
		s.bus.RemoveListener(s)
		return
	}
	s.state.Store(int32(SubscriptionStateCancelled))
}

// claim marks a once subscription as used. It returns false when another
// emission already consumed it. Removal does not consume it, so a once
// listener removed during an emission still sees that emission.
func (s *subscription) claim() bool {
	if !s.config.once {
		return true
	}
	return s.fired.CompareAndSwap(false, true)
}

func (s *subscription) matches(t topic.Topic) bool {
	return t.Matches(s.pattern)
}
