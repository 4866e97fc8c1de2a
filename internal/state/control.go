package state

import (
	"reflect"

	"github.com/dshills/gridstorm/internal/event/topic"
)

// ControlItem binds a state partition that a caller may own.
//
// When Controlled is set, PropModel is authoritative: any update that would
// move the selected sub-state away from PropModel is vetoed, OnChange is told
// about the attempted value, and the caller decides whether to pass it back
// as the new prop.
type ControlItem struct {
	StateID     string
	Controlled  bool
	PropModel   any
	Selector    func(s *State) any
	OnChange    func(value any)
	ChangeEvent topic.Topic
	// Payload wraps the new value for ChangeEvent. Nil emits the value itself.
	Payload func(value any) any
}

// Bind builds a typed ControlItem. A nil prop means the partition is
// internally owned.
func Bind[T any](stateID string, prop *T, selector func(s *State) T, onChange func(T), changeEvent topic.Topic, payload func(T) any) ControlItem {
	item := ControlItem{
		StateID:     stateID,
		Controlled:  prop != nil,
		Selector:    func(s *State) any { return selector(s) },
		ChangeEvent: changeEvent,
	}
	if prop != nil {
		item.PropModel = *prop
	}
	if onChange != nil {
		item.OnChange = func(v any) { onChange(v.(T)) }
	}
	if payload != nil {
		item.Payload = func(v any) any { return payload(v.(T)) }
	}
	return item
}

type controlUpdate struct {
	item         ControlItem
	value        any
	propDiffered bool
}

// Equal compares sub-state values. Nil and empty slices or maps are equal.
func Equal(a, b any) bool {
	if isEmpty(a) && isEmpty(b) {
		return true
	}
	return reflect.DeepEqual(a, b)
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		return rv.Len() == 0
	}
	return false
}
