package selection

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
	"github.com/dshills/gridstorm/internal/sorting"
	"github.com/dshills/gridstorm/internal/state"
)

type fixture struct {
	bus    *event.Bus
	store  *state.Store
	rows   *rows.Model
	engine *Engine
}

func newFixture(t *testing.T, opts Options, ids ...any) *fixture {
	t.Helper()
	bus := event.NewBus()
	store := state.NewStore(bus, nil)
	logger := logging.Nop()
	facade := params.New(store, logger, false)
	sorting.New(store, bus, facade, logger, sorting.Options{})
	f := &fixture{
		bus:    bus,
		store:  store,
		rows:   rows.New(store, bus, logger, rows.Options{}),
		engine: New(store, bus, facade, logger, opts),
	}
	var data []model.Row
	for _, id := range ids {
		data = append(data, model.Row{"id": id})
	}
	require.NoError(t, f.rows.SetRows(data))
	return f
}

func (f *fixture) click(t *testing.T, id any, pointer model.PointerInput) {
	t.Helper()
	require.NoError(t, f.bus.Emit(events.TopicRowClicked, events.RowClicked{ID: id, Pointer: pointer}))
}

func (f *fixture) key(t *testing.T, id any, key model.KeyInput) {
	t.Helper()
	require.NoError(t, f.bus.Emit(events.TopicCellKeyDown, events.CellKeyDown{ID: id, Field: "name", Key: key}))
}

func TestRowClick(t *testing.T) {
	f := newFixture(t, Options{}, 1, 2, 3)

	f.click(t, 1, model.PointerInput{})
	assert.Equal(t, model.SelectionModel(model.IDs(1)), f.engine.GetSelectionModel())

	f.click(t, 2, model.PointerInput{})
	assert.Equal(t, model.SelectionModel(model.IDs(2)), f.engine.GetSelectionModel())

	f.click(t, 2, model.PointerInput{})
	assert.Equal(t, model.SelectionModel(model.IDs(2)), f.engine.GetSelectionModel(), "bare re-click keeps the row")

	f.click(t, 3, model.PointerInput{Ctrl: true})
	assert.Equal(t, model.SelectionModel(model.IDs(2, 3)), f.engine.GetSelectionModel())

	f.click(t, 2, model.PointerInput{Meta: true})
	assert.Equal(t, model.SelectionModel(model.IDs(3)), f.engine.GetSelectionModel())
}

func TestRowClick_MultipleDisabled(t *testing.T) {
	f := newFixture(t, Options{DisableMultipleSelection: true}, 1, 2)

	f.click(t, 1, model.PointerInput{})
	f.click(t, 2, model.PointerInput{Ctrl: true})
	assert.Equal(t, model.SelectionModel(model.IDs(2)), f.engine.GetSelectionModel())

	f.click(t, 2, model.PointerInput{Ctrl: true})
	assert.Empty(t, f.engine.GetSelectionModel(), "multi-key click on the sole selected row clears it")
}

func TestRowClick_Checkbox(t *testing.T) {
	f := newFixture(t, Options{CheckboxSelection: true}, 1, 2)

	f.click(t, 1, model.PointerInput{})
	f.click(t, 2, model.PointerInput{})
	assert.Equal(t, model.SelectionModel(model.IDs(1, 2)), f.engine.GetSelectionModel())

	f.click(t, 1, model.PointerInput{})
	assert.Equal(t, model.SelectionModel(model.IDs(2)), f.engine.GetSelectionModel())
}

func TestRowClick_Disabled(t *testing.T) {
	f := newFixture(t, Options{DisableSelectionOnClick: true}, 1)
	f.click(t, 1, model.PointerInput{})
	assert.Empty(t, f.engine.GetSelectionModel())
}

func TestShiftClickSelectsRange(t *testing.T) {
	f := newFixture(t, Options{}, 1, 2, 3, 4, 5)

	f.click(t, 4, model.PointerInput{})
	f.click(t, 2, model.PointerInput{Shift: true})

	assert.Equal(t, model.SelectionModel(model.IDs(2, 3, 4)), f.engine.GetSelectionModel())
}

func TestSelectRow(t *testing.T) {
	f := newFixture(t, Options{}, 1, 2)

	f.engine.SelectRow(1, true, false)
	f.engine.SelectRow(2, true, true)
	assert.Equal(t, model.SelectionModel(model.IDs(1, 2)), f.engine.GetSelectionModel())
	assert.True(t, f.engine.IsRowSelected(1.0))

	f.engine.SelectRow(1, false, true)
	assert.Equal(t, model.SelectionModel(model.IDs(2)), f.engine.GetSelectionModel())

	f.engine.SelectRow(99, true, false)
	assert.Equal(t, model.SelectionModel(model.IDs(2)), f.engine.GetSelectionModel())

	require.Len(t, f.engine.GetSelectedRows(), 1)
	assert.Equal(t, model.MustID(2), f.engine.GetSelectedRows()[0].ID)
}

func TestSelectRows(t *testing.T) {
	f := newFixture(t, Options{}, 1, 2, 3)

	f.engine.SelectRows([]any{1, 2}, true, false)
	f.engine.SelectRows([]any{3}, true, true)
	assert.Equal(t, model.SelectionModel(model.IDs(3)), f.engine.GetSelectionModel())

	f.engine.SelectRows([]any{1, 2}, true, false)
	f.engine.SelectRows([]any{3}, false, false)
	assert.Equal(t, model.SelectionModel(model.IDs(1, 2)), f.engine.GetSelectionModel())
}

func TestSelectRows_MultipleDisabled(t *testing.T) {
	f := newFixture(t, Options{DisableMultipleSelection: true}, 1, 2)

	f.engine.SelectRows([]any{1, 2}, true, false)
	assert.Empty(t, f.engine.GetSelectionModel())

	f.engine.SelectRows([]any{2}, true, false)
	assert.Equal(t, model.SelectionModel(model.IDs(2)), f.engine.GetSelectionModel())
}

func TestIsRowSelectable(t *testing.T) {
	even := func(p model.RowParams) bool { return p.ID.(int64)%2 == 0 }
	f := newFixture(t, Options{CheckboxSelection: true}, 1, 2, 3, 4)

	f.engine.SelectAll()
	require.Equal(t, model.SelectionModel(model.IDs(1, 2, 3, 4)), f.engine.GetSelectionModel())

	f.engine.SetOptions(Options{CheckboxSelection: true, IsRowSelectable: even})
	assert.Equal(t, model.SelectionModel(model.IDs(2, 4)), f.engine.GetSelectionModel())

	f.engine.SelectRow(3, true, false)
	assert.Equal(t, model.SelectionModel(model.IDs(2, 4)), f.engine.GetSelectionModel())

	f.engine.DeselectAll()
	assert.Empty(t, f.engine.GetSelectionModel())
}

func TestSelectAll_VisibleOnly(t *testing.T) {
	f := newFixture(t, Options{}, 1, 2, 3)
	f.engine.SetOptions(Options{
		CheckboxSelection:            true,
		CheckboxSelectionVisibleOnly: true,
		PageRowIDs:                   func() []model.RowID { return model.IDs(2, 3) },
	})

	f.engine.SelectAll()
	assert.Equal(t, model.SelectionModel(model.IDs(2, 3)), f.engine.GetSelectionModel())
}

func TestSelectionPrunedOnSetRows(t *testing.T) {
	f := newFixture(t, Options{}, 1, 5)
	f.engine.SelectRow(5, true, false)
	require.True(t, f.engine.IsRowSelected(5))

	require.NoError(t, f.rows.SetRows([]model.Row{{"id": 1}, {"id": 2}}))

	assert.False(t, f.engine.IsRowSelected(5))
	assert.Empty(t, f.engine.GetSelectionModel())
}

func TestSelectionPrunedOnDelete(t *testing.T) {
	f := newFixture(t, Options{CheckboxSelection: true}, 1, 2)
	f.engine.SelectAll()

	require.NoError(t, f.rows.UpdateRows([]model.Row{{"id": 1, model.ActionKey: model.ActionDelete}}))

	assert.Equal(t, model.SelectionModel(model.IDs(2)), f.engine.GetSelectionModel())
}

func TestSelectionPrunedWhenRowBecomesUnselectable(t *testing.T) {
	young := func(p model.RowParams) bool {
		age, ok := p.Row["age"].(int)
		return ok && age < 40
	}
	f := newFixture(t, Options{CheckboxSelection: true, IsRowSelectable: young})
	require.NoError(t, f.rows.SetRows([]model.Row{{"id": 1, "age": 25}, {"id": 2, "age": 30}}))
	f.engine.SelectAll()
	require.Equal(t, model.SelectionModel(model.IDs(1, 2)), f.engine.GetSelectionModel())

	require.NoError(t, f.rows.UpdateRows([]model.Row{{"id": 1, "age": 50}}))
	assert.Equal(t, model.SelectionModel(model.IDs(2)), f.engine.GetSelectionModel())

	require.NoError(t, f.rows.SetRows([]model.Row{{"id": 2, "age": 41}}))
	assert.Empty(t, f.engine.GetSelectionModel())
}

func TestKeyboardSelection(t *testing.T) {
	f := newFixture(t, Options{}, 1, 2, 3)

	f.key(t, 2, model.KeyInput{Key: model.KeySpace, Shift: true})
	assert.Equal(t, model.SelectionModel(model.IDs(2)), f.engine.GetSelectionModel())

	f.key(t, 2, model.KeyInput{Key: "a", Ctrl: true})
	assert.Equal(t, model.SelectionModel(model.IDs(2, 1, 3)), f.engine.GetSelectionModel())

	f.store.SetState(func(s *state.State) *state.State {
		next := s.Clone()
		next.Focus = state.FocusState{Cell: &model.CellIndex{ID: model.MustID(3), Field: "name"}}
		return next
	})
	f.key(t, 3, model.KeyInput{Key: model.KeyArrowDown, Shift: true})
	assert.Equal(t, model.SelectionModel(model.IDs(2, 3)), f.engine.GetSelectionModel())
}

func TestSetSelectionModel_NormalizesIDs(t *testing.T) {
	f := newFixture(t, Options{}, 1, 2)
	f.engine.SetSelectionModel(model.SelectionModel{int32(1), 2.0})
	assert.Equal(t, model.SelectionModel(model.IDs(1, 2)), f.engine.GetSelectionModel())
}
