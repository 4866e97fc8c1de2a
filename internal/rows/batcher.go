package rows

import (
	"time"

	"github.com/dshills/gridstorm/internal/event/topic"
)

// MergeFunc combines a pending payload with a newer one for the same topic.
type MergeFunc func(pending, next any) any

// EmitFunc delivers a notification.
type EmitFunc func(t topic.Topic, payload any)

type pendingNotification struct {
	topic   topic.Topic
	payload any
	merge   MergeFunc
}

// Batcher coalesces notifications per topic within a time window.
//
// Batcher starts no goroutines. Pending notifications are delivered by Flush,
// or by Poll once the window has elapsed on the injected clock.
type Batcher struct {
	window   time.Duration
	clock    Clock
	emit     EmitFunc
	pending  []pendingNotification
	deadline time.Time
}

// NewBatcher creates a batcher. A zero window emits every notification
// immediately.
func NewBatcher(window time.Duration, clock Clock, emit EmitFunc) *Batcher {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Batcher{window: window, clock: clock, emit: emit}
}

// Window returns the coalescing window.
func (b *Batcher) Window() time.Duration {
	return b.window
}

// SetWindow changes the coalescing window. Shrinking it to zero flushes.
func (b *Batcher) SetWindow(window time.Duration) {
	b.window = window
	if window <= 0 {
		b.Flush()
	}
}

// Schedule queues a notification. A pending notification for the same topic
// is replaced, or combined with merge when merge is not nil.
func (b *Batcher) Schedule(t topic.Topic, payload any, merge MergeFunc) {
	if b.window <= 0 {
		b.emit(t, payload)
		return
	}

	for i := range b.pending {
		if b.pending[i].topic != t {
			continue
		}
		if merge != nil {
			b.pending[i].payload = merge(b.pending[i].payload, payload)
		} else {
			b.pending[i].payload = payload
		}
		return
	}

	if len(b.pending) == 0 {
		b.deadline = b.clock.Now().Add(b.window)
	}
	b.pending = append(b.pending, pendingNotification{topic: t, payload: payload, merge: merge})
}

// Pending returns the number of queued notifications.
func (b *Batcher) Pending() int {
	return len(b.pending)
}

// Poll flushes when the window has elapsed. It reports whether it flushed.
func (b *Batcher) Poll() bool {
	if len(b.pending) == 0 || b.clock.Now().Before(b.deadline) {
		return false
	}
	b.Flush()
	return true
}

// Flush delivers every pending notification in scheduling order.
func (b *Batcher) Flush() {
	for len(b.pending) > 0 {
		pending := b.pending
		b.pending = nil
		for _, n := range pending {
			b.emit(n.topic, n.payload)
		}
	}
}
