package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/gridstorm/internal/event"
	"github.com/dshills/gridstorm/internal/event/events"
	"github.com/dshills/gridstorm/internal/model"
)

func newTestStore(t *testing.T) (*Store, *event.Bus, *[]*State) {
	t.Helper()
	bus := event.NewBus()
	store := NewStore(bus, nil)
	var changes []*State
	event.Subscribe(bus, events.TopicStateChanged, func(p Changed) error {
		changes = append(changes, p.State)
		return nil
	})
	return store, bus, &changes
}

func withSortModel(m model.SortModel) func(*State) *State {
	return func(s *State) *State {
		next := s.Clone()
		next.Sorting = SortingState{Rev: s.Sorting.Rev + 1, SortModel: m, SortedRows: s.Sorting.SortedRows}
		return next
	}
}

func TestStore_SetStateIdentityIsNoop(t *testing.T) {
	store, _, changes := newTestStore(t)
	before := store.State()

	changed := store.SetState(func(s *State) *State { return s })

	assert.False(t, changed)
	assert.Empty(t, *changes)
	assert.Same(t, before, store.State())
	assert.Zero(t, store.State().Version)
}

func TestStore_SetStateInstallsAndNotifies(t *testing.T) {
	store, _, changes := newTestStore(t)

	changed := store.SetState(func(s *State) *State {
		next := s.Clone()
		next.Error = assert.AnError
		return next
	})

	require.True(t, changed)
	require.Len(t, *changes, 1)
	assert.Same(t, store.State(), (*changes)[0])
	assert.Equal(t, uint64(1), store.State().Version)
	assert.Equal(t, assert.AnError, store.State().Error)
}

func TestStore_UncontrolledPartition(t *testing.T) {
	store, bus, _ := newTestStore(t)
	var notified []model.SortModel
	var emitted []model.SortModel
	store.UpdateControlState(Bind("sortModel", nil,
		func(s *State) model.SortModel { return s.Sorting.SortModel },
		func(m model.SortModel) { notified = append(notified, m) },
		events.TopicSortModelChanged,
		func(m model.SortModel) any { return events.SortModelChanged{Model: m} },
	))
	event.Subscribe(bus, events.TopicSortModelChanged, func(p events.SortModelChanged) error {
		emitted = append(emitted, p.Model)
		return nil
	})

	sortModel := model.SortModel{{Field: "name", Sort: model.SortAsc}}
	require.True(t, store.SetState(withSortModel(sortModel)))

	assert.Equal(t, sortModel, store.State().Sorting.SortModel)
	assert.Equal(t, []model.SortModel{sortModel}, notified)
	assert.Equal(t, []model.SortModel{sortModel}, emitted)

	notified = nil
	require.True(t, store.SetState(withSortModel(model.SortModel{})))
	assert.Len(t, notified, 1)
}

func TestStore_ControlledPartitionVetoes(t *testing.T) {
	store, _, changes := newTestStore(t)
	prop := model.SortModel{{Field: "name", Sort: model.SortAsc}}
	require.True(t, store.SetState(withSortModel(prop)))
	*changes = nil

	var notified []model.SortModel
	store.UpdateControlState(Bind("sortModel", &prop,
		func(s *State) model.SortModel { return s.Sorting.SortModel },
		func(m model.SortModel) { notified = append(notified, m) },
		events.TopicSortModelChanged, nil,
	))

	attempt := model.SortModel{{Field: "name", Sort: model.SortDesc}}
	assert.False(t, store.SetState(withSortModel(attempt)))
	assert.Equal(t, prop, store.State().Sorting.SortModel)
	assert.Empty(t, *changes)
	assert.Equal(t, []model.SortModel{attempt}, notified)
}

func TestStore_ControlledPartitionAcceptsProp(t *testing.T) {
	store, _, _ := newTestStore(t)
	prop := model.SortModel{{Field: "name", Sort: model.SortDesc}}
	store.UpdateControlState(Bind("sortModel", &prop,
		func(s *State) model.SortModel { return s.Sorting.SortModel },
		nil, events.TopicSortModelChanged, nil,
	))

	assert.True(t, store.SetState(withSortModel(prop)))
	assert.Equal(t, prop, store.State().Sorting.SortModel)
}

func TestStore_ControlledWithoutOnChangeDoesNotDrift(t *testing.T) {
	store, _, _ := newTestStore(t)
	prop := model.SortModel{}
	store.UpdateControlState(Bind("sortModel", &prop,
		func(s *State) model.SortModel { return s.Sorting.SortModel },
		nil, events.TopicSortModelChanged, nil,
	))

	assert.False(t, store.SetState(withSortModel(model.SortModel{{Field: "a", Sort: model.SortAsc}})))
	assert.Empty(t, store.State().Sorting.SortModel)
}

func TestStore_UpdateControlStateReplacesByID(t *testing.T) {
	store, _, _ := newTestStore(t)
	prop := model.SortModel{}
	selector := func(s *State) model.SortModel { return s.Sorting.SortModel }
	store.UpdateControlState(Bind("sortModel", &prop, selector, nil, "", nil))
	assert.True(t, store.IsControlled("sortModel"))

	store.UpdateControlState(Bind[model.SortModel]("sortModel", nil, selector, nil, "", nil))
	assert.False(t, store.IsControlled("sortModel"))
	assert.Len(t, store.controls, 1)
}

func TestStore_UnrelatedUpdatePassesControlledPartition(t *testing.T) {
	store, _, _ := newTestStore(t)
	prop := model.SortModel{}
	store.UpdateControlState(Bind("sortModel", &prop,
		func(s *State) model.SortModel { return s.Sorting.SortModel },
		nil, events.TopicSortModelChanged, nil,
	))

	assert.True(t, store.SetState(func(s *State) *State {
		next := s.Clone()
		next.Viewport = ViewportState{Width: 10, Height: 10}
		return next
	}))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(nil, model.SortModel{}))
	assert.True(t, Equal(model.SelectionModel(nil), model.SelectionModel{}))
	assert.True(t, Equal(model.SelectionModel{int64(1)}, model.SelectionModel{int64(1)}))
	assert.False(t, Equal(model.SelectionModel{int64(1)}, model.SelectionModel{int64(2)}))
	assert.False(t, Equal(1, 2))
}
