package event

import (
	"errors"
	"fmt"

	"github.com/dshills/gridstorm/internal/event/topic"
)

var (
	// ErrInvalidTopic is returned when emitting an empty, malformed or
	// wildcard topic.
	ErrInvalidTopic = errors.New("invalid topic")

	// ErrHandlerPanic matches every *PanicError.
	ErrHandlerPanic = errors.New("listener panicked")
)

// HandlerError is one failed listener. Emit joins one per failure.
type HandlerError struct {
	SubscriptionID string
	Topic          topic.Topic
	Err            error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("%s listener %s: %v", e.Topic, e.SubscriptionID, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }

// PanicError is a recovered listener panic.
type PanicError struct {
	SubscriptionID string
	Topic          topic.Topic
	Value          any
	Stack          string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%s listener %s panicked: %v", e.Topic, e.SubscriptionID, e.Value)
}

func (e *PanicError) Is(target error) bool { return target == ErrHandlerPanic }
