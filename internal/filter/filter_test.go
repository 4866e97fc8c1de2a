package filter

import (
	"testing"

	"github.com/google/uuid"
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
	f := &fixture{
		bus:    bus,
		store:  store,
		rows:   rows.New(store, bus, logger, rows.Options{}),
		engine: New(store, bus, params.New(store, logger, false), logger, opts),
	}
	store.SetState(func(s *state.State) *state.State {
		next := s.Clone()
		cs := state.ColumnsState{Rev: s.Columns.Rev + 1, Lookup: map[string]*model.Column{}}
		for _, c := range cols {
			if c.FilterOperators == nil {
				c.FilterOperators = OperatorsFor(c.Type)
			}
			cs.All = append(cs.All, c.Field)
			cs.Lookup[c.Field] = c
		}
		next.Columns = cs
		return next
	})
	return f
}

func (f *fixture) visibleIDs() []model.RowID {
	var out []model.RowID
	for _, id := range f.store.State().Rows.AllRows {
		if f.store.State().VisibleRows.IsVisible(id) {
			out = append(out, id)
		}
	}
	return out
}

func brands(t *testing.T, f *fixture) {
	t.Helper()
	require.NoError(t, f.rows.SetRows([]model.Row{
		{"id": 1, "brand": "Nike"},
		{"id": 2, "brand": "Adidas"},
		{"id": 3, "brand": "Puma"},
	}))
}

func TestApplyFilters_AndOr(t *testing.T) {
	f := newFixture(t, Options{}, &model.Column{Field: "brand"})
	brands(t, f)

	items := []model.FilterItem{
		{ColumnField: "brand", OperatorValue: OpContains, Value: "a"},
		{ColumnField: "brand", OperatorValue: OpContains, Value: "m"},
	}

	f.engine.SetFilterModel(model.FilterModel{Items: items, LinkOperator: model.LinkAnd})
	assert.Equal(t, model.IDs(3), f.visibleIDs())
	assert.Equal(t, 1, f.store.State().VisibleRows.Count)

	f.engine.SetLinkOperator(model.LinkOr)
	assert.Equal(t, model.IDs(2, 3), f.visibleIDs())
	assert.Equal(t, 2, f.store.State().VisibleRows.Count)
}

func TestApplyFilters_InactiveItemsShowEveryRow(t *testing.T) {
	f := newFixture(t, Options{}, &model.Column{Field: "brand"})
	brands(t, f)

	f.engine.SetFilterModel(model.FilterModel{Items: []model.FilterItem{
		{ColumnField: "brand", OperatorValue: OpContains, Value: ""},
		{ColumnField: "ghost", OperatorValue: OpContains, Value: "x"},
		{ColumnField: "brand", OperatorValue: "nope", Value: "x"},
	}})

	assert.Equal(t, model.IDs(1, 2, 3), f.visibleIDs())
	assert.Equal(t, 3, f.store.State().VisibleRows.Count)
}

func TestApplyFilters_ServerMode(t *testing.T) {
	f := newFixture(t, Options{Mode: model.ModeServer}, &model.Column{Field: "brand"})
	brands(t, f)

	f.engine.SetFilterModel(model.FilterModel{Items: []model.FilterItem{
		{ColumnField: "brand", OperatorValue: OpEquals, Value: "Nike"},
	}})

	assert.Equal(t, model.IDs(1, 2, 3), f.visibleIDs())
	assert.Len(t, f.engine.GetFilterModel().Items, 1)
}

func TestApplyFilters_ReactsToRowChanges(t *testing.T) {
	f := newFixture(t, Options{}, &model.Column{Field: "brand"})
	brands(t, f)
	f.engine.SetFilterModel(model.FilterModel{Items: []model.FilterItem{
		{ColumnField: "brand", OperatorValue: OpStartsWith, Value: "p"},
	}})
	require.Equal(t, model.IDs(3), f.visibleIDs())

	require.NoError(t, f.rows.UpdateRows([]model.Row{{"id": 1, "brand": "Pony"}}))
	assert.Equal(t, model.IDs(1, 3), f.visibleIDs())
}

func TestQuickFilter(t *testing.T) {
	f := newFixture(t, Options{},
		&model.Column{Field: "brand"},
		&model.Column{Field: "country", Hide: true},
		&model.Column{Field: "price", Type: model.ColumnNumber, ValueFormatter: func(p model.CellParams) any {
			return "$" + p.Row["price"].(string)
		}},
	)
	require.NoError(t, f.rows.SetRows([]model.Row{
		{"id": 1, "brand": "Nike", "country": "US", "price": "10"},
		{"id": 2, "brand": "Adidas", "country": "DE", "price": "20"},
		{"id": 3, "brand": "Puma", "country": "DE", "price": "30"},
	}))

	f.engine.SetQuickFilter("NIK")
	assert.Equal(t, model.IDs(1), f.visibleIDs())

	f.engine.SetQuickFilter("$2")
	assert.Equal(t, model.IDs(2), f.visibleIDs())

	f.engine.SetQuickFilter("de")
	assert.Empty(t, f.visibleIDs(), "hidden columns are not searched")

	f.engine.UpsertFilter(model.FilterItem{ColumnField: "brand", OperatorValue: OpContains, Value: "p"})
	f.engine.SetQuickFilter("a")
	assert.Equal(t, model.IDs(3), f.visibleIDs())
}

func TestUpsertAndDeleteFilter(t *testing.T) {
	f := newFixture(t, Options{}, &model.Column{Field: "brand"})
	brands(t, f)

	item := f.engine.UpsertFilter(model.FilterItem{ColumnField: "brand", OperatorValue: OpContains, Value: "i"})
	_, err := uuid.Parse(item.ID)
	require.NoError(t, err)
	assert.Equal(t, model.IDs(1, 2), f.visibleIDs())

	item.Value = "ik"
	f.engine.UpsertFilter(item)
	require.Len(t, f.engine.GetFilterModel().Items, 1)
	assert.Equal(t, model.IDs(1), f.visibleIDs())

	f.engine.DeleteFilter(item)
	assert.Empty(t, f.engine.GetFilterModel().Items)
	assert.Equal(t, model.IDs(1, 2, 3), f.visibleIDs())
}

func TestUpsertFilter_SingleColumn(t *testing.T) {
	f := newFixture(t, Options{DisableMultipleColumnsFiltering: true}, &model.Column{Field: "brand"})

	f.engine.UpsertFilter(model.FilterItem{ColumnField: "brand", OperatorValue: OpContains, Value: "a"})
	f.engine.UpsertFilter(model.FilterItem{ColumnField: "brand", OperatorValue: OpContains, Value: "b"})

	items := f.engine.GetFilterModel().Items
	require.Len(t, items, 1)
	assert.Equal(t, "b", items[0].Value)
}

func TestNormalize(t *testing.T) {
	m := model.FilterModel{Items: []model.FilterItem{
		{ColumnField: "brand", OperatorValue: OpContains, Value: "a"},
		{ID: "keep", ColumnField: "brand", OperatorValue: OpContains, Value: "b"},
	}}

	first := Normalize(m)
	second := Normalize(m)

	assert.Equal(t, first, second)
	assert.NotEmpty(t, first.Items[0].ID)
	assert.Equal(t, "keep", first.Items[1].ID)
	assert.Equal(t, model.LinkAnd, first.LinkOperator)
	assert.Empty(t, m.Items[0].ID)
}

func TestFilterModelChangedThroughControlItem(t *testing.T) {
	f := newFixture(t, Options{}, &model.Column{Field: "brand"})
	var got []model.FilterModel
	f.store.UpdateControlState(state.Bind("filterModel", nil,
		func(s *state.State) model.FilterModel { return s.Filter.Model },
		func(m model.FilterModel) { got = append(got, m) },
		events.TopicFilterModelChanged, nil,
	))

	f.engine.SetQuickFilter("x")

	require.Len(t, got, 1)
	assert.Equal(t, "x", got[0].QuickFilter)
}
