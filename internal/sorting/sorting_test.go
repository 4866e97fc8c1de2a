package sorting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/gridstorm/internal/event"
	"github.com/dshills/gridstorm/internal/event/events"
	"github.com/dshills/gridstorm/internal/logging"
	"github.com/dshills/gridstorm/internal/model"
	"github.com/dshills/gridstorm/internal/params"
	"github.com/dshills/gridstorm/internal/rows"
	"github.com/dshills/gridstorm/internal/state"
)

type fixture struct {
	bus    *event.Bus
	store  *state.Store
	rows   *rows.Model
	engine *Engine
}

func newFixture(t *testing.T, opts Options, cols ...*model.Column) *fixture {
	t.Helper()
	bus := event.NewBus()
	store := state.NewStore(bus, nil)
	logger := logging.Nop()
	facade := params.New(store, logger, false)
	f := &fixture{
		bus:    bus,
		store:  store,
		rows:   rows.New(store, bus, logger, rows.Options{}),
		engine: New(store, bus, facade, logger, opts),
	}
	f.setColumns(cols...)
	return f
}

func (f *fixture) setColumns(cols ...*model.Column) {
	f.store.SetState(func(s *state.State) *state.State {
		next := s.Clone()
		cs := state.ColumnsState{Rev: s.Columns.Rev + 1, Lookup: map[string]*model.Column{}}
		for _, c := range cols {
			cs.All = append(cs.All, c.Field)
			cs.Lookup[c.Field] = c
		}
		next.Columns = cs
		return next
	})
	_ = f.bus.Emit(events.TopicColumnsChanged, events.ColumnsChanged{})
}

func dir(d model.SortDirection) *model.SortDirection { return &d }

func TestApplySorting_MultiSort(t *testing.T) {
	f := newFixture(t, Options{},
		&model.Column{Field: "x"},
		&model.Column{Field: "y", Type: model.ColumnNumber},
	)
	require.NoError(t, f.rows.SetRows([]model.Row{
		{"id": 1, "x": "b", "y": 1},
		{"id": 2, "x": "a", "y": 1},
		{"id": 3, "x": "a", "y": 2},
	}))

	f.engine.SetSortModel(model.SortModel{
		{Field: "x", Sort: model.SortAsc},
		{Field: "y", Sort: model.SortDesc},
	})

	assert.Equal(t, model.IDs(3, 2, 1), f.engine.GetSortedRowIDs())
}

func TestApplySorting_StableTies(t *testing.T) {
	f := newFixture(t, Options{}, &model.Column{Field: "g"})
	require.NoError(t, f.rows.SetRows([]model.Row{
		{"id": 1, "g": "b"}, {"id": 2, "g": "a"}, {"id": 3, "g": "b"}, {"id": 4, "g": "a"},
	}))

	f.engine.SetSortModel(model.SortModel{{Field: "g", Sort: model.SortAsc}})
	assert.Equal(t, model.IDs(2, 4, 1, 3), f.engine.GetSortedRowIDs())

	f.engine.SetSortModel(model.SortModel{{Field: "g", Sort: model.SortDesc}})
	assert.Equal(t, model.IDs(1, 3, 2, 4), f.engine.GetSortedRowIDs())
}

func TestApplySorting_CustomComparatorAndNil(t *testing.T) {
	byLength := func(v1, v2 any, _, _ model.SortCellParams) int {
		return len(v1.(string)) - len(v2.(string))
	}
	f := newFixture(t, Options{},
		&model.Column{Field: "word", SortComparator: byLength},
		&model.Column{Field: "n", Type: model.ColumnNumber},
	)
	require.NoError(t, f.rows.SetRows([]model.Row{
		{"id": 1, "word": "ccc", "n": 3},
		{"id": 2, "word": "a", "n": nil},
		{"id": 3, "word": "bb", "n": 1},
	}))

	f.engine.SetSortModel(model.SortModel{{Field: "word", Sort: model.SortAsc}})
	assert.Equal(t, model.IDs(2, 3, 1), f.engine.GetSortedRowIDs())

	f.engine.SetSortModel(model.SortModel{{Field: "n", Sort: model.SortAsc}})
	assert.Equal(t, model.IDs(2, 3, 1), f.engine.GetSortedRowIDs())
}

func TestApplySorting_ServerMode(t *testing.T) {
	f := newFixture(t, Options{Mode: model.ModeServer}, &model.Column{Field: "x"})
	require.NoError(t, f.rows.SetRows([]model.Row{{"id": 2, "x": "b"}, {"id": 1, "x": "a"}}))

	f.engine.SetSortModel(model.SortModel{{Field: "x", Sort: model.SortAsc}})

	assert.Equal(t, model.IDs(2, 1), f.engine.GetSortedRowIDs())
	assert.Equal(t, model.SortModel{{Field: "x", Sort: model.SortAsc}}, f.engine.GetSortModel())
}

func TestApplySorting_ReactsToRowUpdates(t *testing.T) {
	f := newFixture(t, Options{}, &model.Column{Field: "n", Type: model.ColumnNumber})
	require.NoError(t, f.rows.SetRows([]model.Row{{"id": 1, "n": 1}, {"id": 2, "n": 2}}))
	f.engine.SetSortModel(model.SortModel{{Field: "n", Sort: model.SortAsc}})

	require.NoError(t, f.rows.UpdateRows([]model.Row{{"id": 1, "n": 5}, {"id": 3, "n": 0}}))

	assert.Equal(t, model.IDs(3, 2, 1), f.engine.GetSortedRowIDs())
	assert.Equal(t, 2, f.rows.GetRowIndex(1))
}

func TestSortColumn_Cycles(t *testing.T) {
	f := newFixture(t, Options{}, &model.Column{Field: "x"})

	require.NoError(t, f.engine.SortColumn("x", nil, false))
	assert.Equal(t, model.SortModel{{Field: "x", Sort: model.SortAsc}}, f.engine.GetSortModel())

	require.NoError(t, f.engine.SortColumn("x", nil, false))
	assert.Equal(t, model.SortModel{{Field: "x", Sort: model.SortDesc}}, f.engine.GetSortModel())

	require.NoError(t, f.engine.SortColumn("x", nil, false))
	assert.Empty(t, f.engine.GetSortModel())
}

func TestSortColumn_CustomOrder(t *testing.T) {
	f := newFixture(t, Options{SortingOrder: []model.SortDirection{model.SortDesc, model.SortAsc}}, &model.Column{Field: "x"})

	require.NoError(t, f.engine.SortColumn("x", nil, false))
	assert.Equal(t, model.SortDesc, f.engine.GetSortModel()[0].Sort)
	require.NoError(t, f.engine.SortColumn("x", nil, false))
	assert.Equal(t, model.SortAsc, f.engine.GetSortModel()[0].Sort)
	require.NoError(t, f.engine.SortColumn("x", nil, false))
	assert.Equal(t, model.SortDesc, f.engine.GetSortModel()[0].Sort)
}

func TestSortColumn_MultipleKeepsOrder(t *testing.T) {
	f := newFixture(t, Options{}, &model.Column{Field: "a"}, &model.Column{Field: "b"}, &model.Column{Field: "c"})

	require.NoError(t, f.engine.SortColumn("a", nil, true))
	require.NoError(t, f.engine.SortColumn("b", nil, true))
	require.NoError(t, f.engine.SortColumn("c", nil, true))
	require.NoError(t, f.engine.SortColumn("a", nil, true))

	assert.Equal(t, model.SortModel{
		{Field: "a", Sort: model.SortDesc},
		{Field: "b", Sort: model.SortAsc},
		{Field: "c", Sort: model.SortAsc},
	}, f.engine.GetSortModel())

	require.NoError(t, f.engine.SortColumn("b", dir(model.SortNone), true))
	assert.Equal(t, model.SortModel{
		{Field: "a", Sort: model.SortDesc},
		{Field: "c", Sort: model.SortAsc},
	}, f.engine.GetSortModel())

	require.NoError(t, f.engine.SortColumn("b", dir(model.SortDesc), false))
	assert.Equal(t, model.SortModel{{Field: "b", Sort: model.SortDesc}}, f.engine.GetSortModel())
}

func TestSortColumn_MultipleDisabled(t *testing.T) {
	f := newFixture(t, Options{DisableMultipleColumnsSorting: true}, &model.Column{Field: "a"}, &model.Column{Field: "b"})

	require.NoError(t, f.engine.SortColumn("a", nil, true))
	require.NoError(t, f.engine.SortColumn("b", nil, true))

	assert.Equal(t, model.SortModel{{Field: "b", Sort: model.SortAsc}}, f.engine.GetSortModel())
}

func TestSortColumn_UnknownAndUnsortable(t *testing.T) {
	f := newFixture(t, Options{}, &model.Column{Field: "locked", DisableSort: true})

	assert.ErrorIs(t, f.engine.SortColumn("missing", nil, false), model.ErrColumnNotFound)
	require.NoError(t, f.engine.SortColumn("locked", nil, false))
	assert.Empty(t, f.engine.GetSortModel())
}

func TestHeaderGestures(t *testing.T) {
	f := newFixture(t, Options{}, &model.Column{Field: "a"}, &model.Column{Field: "b"})

	require.NoError(t, f.bus.Emit(events.TopicColumnHeaderClicked, events.ColumnHeaderClicked{Field: "a"}))
	require.NoError(t, f.bus.Emit(events.TopicColumnHeaderClicked, events.ColumnHeaderClicked{
		Field: "b", Pointer: model.PointerInput{Ctrl: true},
	}))
	assert.Len(t, f.engine.GetSortModel(), 2)

	require.NoError(t, f.bus.Emit(events.TopicColumnHeaderKeyDown, events.ColumnHeaderKeyDown{
		Field: "a", Key: model.KeyInput{Key: model.KeyEnter, Ctrl: true},
	}))
	assert.Len(t, f.engine.GetSortModel(), 2)

	require.NoError(t, f.bus.Emit(events.TopicColumnHeaderKeyDown, events.ColumnHeaderKeyDown{
		Field: "a", Key: model.KeyInput{Key: model.KeyEnter},
	}))
	assert.Equal(t, model.SortModel{{Field: "a", Sort: model.SortDesc}}, f.engine.GetSortModel())
}

func TestColumnsChangedPrunesSortModel(t *testing.T) {
	f := newFixture(t, Options{}, &model.Column{Field: "a"}, &model.Column{Field: "b"})
	f.engine.SetSortModel(model.SortModel{{Field: "a", Sort: model.SortAsc}, {Field: "b", Sort: model.SortAsc}})

	f.setColumns(&model.Column{Field: "b"})

	assert.Equal(t, model.SortModel{{Field: "b", Sort: model.SortAsc}}, f.engine.GetSortModel())
}

func TestApplySorting_SkipsMissingColumn(t *testing.T) {
	f := newFixture(t, Options{}, &model.Column{Field: "a", Type: model.ColumnNumber})
	require.NoError(t, f.rows.SetRows([]model.Row{{"id": 1, "a": 2}, {"id": 2, "a": 1}}))

	f.engine.SetSortModel(model.SortModel{{Field: "ghost", Sort: model.SortAsc}, {Field: "a", Sort: model.SortAsc}})

	assert.Equal(t, model.IDs(2, 1), f.engine.GetSortedRowIDs())
}

func TestSetSortModel_Normalizes(t *testing.T) {
	f := newFixture(t, Options{},
		&model.Column{Field: "age", Type: model.ColumnNumber},
		&model.Column{Field: "name", DisableSort: true},
	)
	require.NoError(t, f.rows.SetRows([]model.Row{
		{"id": 1, "name": "c", "age": 2},
		{"id": 2, "name": "a", "age": 3},
		{"id": 3, "name": "b", "age": 1},
	}))

	f.engine.SetSortModel(model.SortModel{{Field: "name", Sort: model.SortAsc}})
	assert.Empty(t, f.engine.GetSortModel())
	assert.Equal(t, model.IDs(1, 2, 3), f.engine.GetSortedRowIDs())

	f.engine.SetSortModel(model.SortModel{{Field: "age", Sort: model.SortAsc}, {Field: "age", Sort: model.SortDesc}})
	assert.Equal(t, model.SortModel{{Field: "age", Sort: model.SortAsc}}, f.engine.GetSortModel())
	assert.Equal(t, model.IDs(3, 1, 2), f.engine.GetSortedRowIDs())

	f.engine.SetSortModel(model.SortModel{{Field: "ghost", Sort: model.SortAsc}, {Field: "age", Sort: model.SortDesc}})
	assert.Equal(t, model.SortModel{{Field: "age", Sort: model.SortDesc}}, f.engine.GetSortModel())
}

func TestColumnsChangedDropsUnsortableColumn(t *testing.T) {
	f := newFixture(t, Options{}, &model.Column{Field: "a"}, &model.Column{Field: "b"})
	f.engine.SetSortModel(model.SortModel{{Field: "a", Sort: model.SortAsc}, {Field: "b", Sort: model.SortAsc}})

	f.setColumns(&model.Column{Field: "a", DisableSort: true}, &model.Column{Field: "b"})

	assert.Equal(t, model.SortModel{{Field: "b", Sort: model.SortAsc}}, f.engine.GetSortModel())
}

func TestControlledSortModelDoesNotDrift(t *testing.T) {
	f := newFixture(t, Options{}, &model.Column{Field: "a"})
	prop := model.SortModel{}
	f.store.UpdateControlState(state.Bind("sortModel", &prop,
		func(s *state.State) model.SortModel { return s.Sorting.SortModel },
		nil, events.TopicSortModelChanged, nil,
	))

	require.NoError(t, f.bus.Emit(events.TopicColumnHeaderClicked, events.ColumnHeaderClicked{Field: "a"}))

	assert.Empty(t, f.engine.GetSortModel())
}

func TestNextDirection(t *testing.T) {
	order := model.DefaultSortingOrder
	assert.Equal(t, model.SortAsc, NextDirection(order, model.SortNone))
	assert.Equal(t, model.SortDesc, NextDirection(order, model.SortAsc))
	assert.Equal(t, model.SortNone, NextDirection(order, model.SortDesc))
	assert.Equal(t, model.SortAsc, NextDirection(nil, model.SortNone))
}
