package state

import (
	"github.com/dshills/gridstorm/internal/event"
	"github.com/dshills/gridstorm/internal/event/events"
	"github.com/dshills/gridstorm/internal/event/topic"
	"github.com/dshills/gridstorm/internal/logging"
	"github.com/dshills/gridstorm/internal/model"
)

// Changed is the payload of state.changed.
type Changed struct {
	State *State
}

// Store owns the state tree. Every mutation goes through SetState.
type Store struct {
	state    *State
	bus      *event.Bus
	logger   *logging.Logger
	debug    bool
	controls []ControlItem

	visibleSorted Memo[[2]uint64, []model.RowID]
	visibleCols   Memo[uint64, []*model.Column]
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithDebug enables diagnostics that are too noisy for production.
func WithDebug(debug bool) Option {
	return func(s *Store) {
		s.debug = debug
	}
}

// NewStore creates a store around initial. A nil initial state starts from
// Initial().
func NewStore(bus *event.Bus, initial *State, opts ...Option) *Store {
	if initial == nil {
		initial = Initial()
	}
	s := &Store{
		state:  initial,
		bus:    bus,
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current snapshot.
func (s *Store) State() *State {
	return s.state
}

// SetState applies updater to the current state. It returns false when the
// updater returned the state unchanged or a controlled partition vetoed the
// update.
func (s *Store) SetState(updater func(current *State) *State) bool {
	current := s.state
	next := updater(current)
	if next == nil || next == current {
		return false
	}

	vetoed, updates := s.applyControlStateConstraint(current, next)
	if !vetoed {
		next.Version = current.Version + 1
		s.state = next
		s.emit(events.TopicStateChanged, Changed{State: next})
	}

	for _, u := range updates {
		if u.item.OnChange != nil && u.propDiffered {
			u.item.OnChange(u.value)
		}
		if u.item.ChangeEvent != "" {
			payload := u.value
			if u.item.Payload != nil {
				payload = u.item.Payload(u.value)
			}
			s.emit(u.item.ChangeEvent, payload)
		}
	}
	return !vetoed
}

// UpdateControlState registers item, replacing any item with the same StateID.
func (s *Store) UpdateControlState(item ControlItem) {
	for i, existing := range s.controls {
		if existing.StateID == item.StateID {
			s.controls[i] = item
			return
		}
	}
	s.controls = append(s.controls, item)
}

// ControlItem returns the registered binding for stateID.
func (s *Store) ControlItem(stateID string) (ControlItem, bool) {
	for _, item := range s.controls {
		if item.StateID == stateID {
			return item, true
		}
	}
	return ControlItem{}, false
}

// IsControlled reports whether the partition is owned by the caller.
func (s *Store) IsControlled(stateID string) bool {
	item, ok := s.ControlItem(stateID)
	return ok && item.Controlled
}

func (s *Store) applyControlStateConstraint(current, next *State) (bool, []controlUpdate) {
	vetoed := false
	var updates []controlUpdate

	for _, item := range s.controls {
		oldValue := item.Selector(current)
		newValue := item.Selector(next)
		if Equal(oldValue, newValue) {
			continue
		}
		propDiffered := !item.Controlled || !Equal(newValue, item.PropModel)
		updates = append(updates, controlUpdate{item: item, value: newValue, propDiffered: propDiffered})
		if item.Controlled && propDiffered {
			vetoed = true
		}
	}

	if s.debug && len(updates) > 1 {
		ids := make([]string, len(updates))
		for i, u := range updates {
			ids[i] = u.item.StateID
		}
		s.logger.Warn("one state update changed several controlled partitions: %v", ids)
	}
	return vetoed, updates
}

func (s *Store) emit(t topic.Topic, payload any) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Emit(t, payload); err != nil {
		s.logger.Error("%s handler failed: %v", t, err)
	}
}
