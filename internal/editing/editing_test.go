package editing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/gridstorm/internal/columns"
	"github.com/dshills/gridstorm/internal/event"
	"github.com/dshills/gridstorm/internal/event/events"
	"github.com/dshills/gridstorm/internal/logging"
	"github.com/dshills/gridstorm/internal/model"
	"github.com/dshills/gridstorm/internal/params"
	"github.com/dshills/gridstorm/internal/rows"
	"github.com/dshills/gridstorm/internal/state"
	"github.com/dshills/gridstorm/internal/testutil"
)

type fixture struct {
	bus    *event.Bus
	store  *state.Store
	rows   *rows.Model
	engine *Engine
	rec    *testutil.Recorder
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	bus := event.NewBus()
	store := state.NewStore(bus, nil)
	logger := logging.Nop()
	facade := params.New(store, logger, false)
	cols := columns.New(store, bus, logger, columns.Options{})
	f := &fixture{
		bus:   bus,
		store: store,
		rows:  rows.New(store, bus, logger, rows.Options{}),
	}
	f.engine = New(store, bus, facade, f.rows, logger, opts)

	require.NoError(t, cols.SetColumns([]*model.Column{
		{Field: "name", Editable: true},
		{Field: "code", Editable: true, ValueParser: func(raw any, _ model.CellParams) any {
			return strings.ToUpper(raw.(string))
		}},
		{Field: "locked"},
	}))
	require.NoError(t, f.rows.SetRows([]model.Row{
		{"id": 1, "name": "old", "code": "ab", "locked": "x"},
		{"id": 2, "name": "other", "code": "cd", "locked": "y"},
	}))
	f.rec = testutil.Record(bus, "**")
	return f
}

func (f *fixture) key(t *testing.T, id any, field string, key model.KeyInput) {
	t.Helper()
	require.NoError(t, f.bus.Emit(events.TopicCellKeyDown, events.CellKeyDown{ID: id, Field: field, Key: key}))
}

func (f *fixture) value(id any, field string) any {
	row, _ := f.rows.GetRow(id)
	return row[field]
}

func (f *fixture) staged(t *testing.T, id any, field string) model.EditCellProps {
	t.Helper()
	props, ok := f.engine.GetEditRowsModel().Cell(model.MustID(id), field)
	require.True(t, ok, "cell %v/%s is not in edit mode", id, field)
	return props
}

func TestStartEdit_Keys(t *testing.T) {
	tests := []struct {
		name   string
		field  string
		key    model.KeyInput
		starts bool
		staged any
	}{
		{"enter", "name", model.KeyInput{Key: model.KeyEnter}, true, "old"},
		{"f2", "name", model.KeyInput{Key: model.KeyF2}, true, "old"},
		{"printable seeds value", "name", model.KeyInput{Key: "z"}, true, "z"},
		{"ctrl shortcut", "name", model.KeyInput{Key: "c", Ctrl: true}, false, nil},
		{"shift space", "name", model.KeyInput{Key: model.KeySpace, Shift: true}, false, nil},
		{"arrow", "name", model.KeyInput{Key: model.KeyArrowDown}, false, nil},
		{"not editable", "locked", model.KeyInput{Key: model.KeyEnter}, false, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Options{})
			f.key(t, 1, tt.field, tt.key)

			if !tt.starts {
				assert.Equal(t, model.CellModeView, f.engine.GetCellMode(1, tt.field))
				assert.Zero(t, f.rec.Count(events.TopicCellEditStarted))
				return
			}
			assert.Equal(t, model.CellModeEdit, f.engine.GetCellMode(1, tt.field))
			assert.Equal(t, tt.staged, f.staged(t, 1, tt.field).Value)
			assert.Equal(t, 1, f.rec.Count(events.TopicCellEditStarted))
		})
	}
}

func TestDoubleClickStartsEdit(t *testing.T) {
	f := newFixture(t, Options{})
	require.NoError(t, f.bus.Emit(events.TopicCellDoubleClicked, events.CellClicked{ID: 2, Field: "name"}))
	assert.Equal(t, model.CellModeEdit, f.engine.GetCellMode(2, "name"))

	require.NoError(t, f.bus.Emit(events.TopicCellDoubleClicked, events.CellClicked{ID: 2, Field: "locked"}))
	assert.Equal(t, model.CellModeView, f.engine.GetCellMode(2, "locked"))
}

func TestEnterCommits(t *testing.T) {
	f := newFixture(t, Options{})
	require.NoError(t, f.engine.StartEdit(1, "name", nil))
	require.NoError(t, f.engine.SetEditCellValue(1, "name", "new"))
	f.rec.Reset()

	f.key(t, 1, "name", model.KeyInput{Key: model.KeyEnter})

	assert.Equal(t, "new", f.value(1, "name"))
	assert.Equal(t, "other", f.value(2, "name"))
	assert.Equal(t, model.CellModeView, f.engine.GetCellMode(1, "name"))
	assert.Empty(t, f.engine.GetEditRowsModel())

	committed, ok := f.rec.Last(events.TopicCellEditCommitted)
	require.True(t, ok)
	assert.Equal(t, events.CellEditCommitted{ID: model.MustID(1), Field: "name", Value: "new"}, committed)

	stopped, ok := f.rec.Last(events.TopicCellEditStopped)
	require.True(t, ok)
	assert.Equal(t, model.KeyEnter, stopped.(events.CellEdit).Key.Key)
	assert.Equal(t, 1, f.rec.Count(events.TopicRowsUpdated))
}

func TestCommitRefusedWhileErrorFlagged(t *testing.T) {
	f := newFixture(t, Options{})
	require.NoError(t, f.engine.StartEdit(1, "name", nil))
	require.NoError(t, f.engine.SetEditCellProps(1, "name", model.EditCellProps{Value: "bad", Error: true}))
	f.rec.Reset()

	ok, err := f.engine.CommitCellChange(1, "name")
	require.NoError(t, err)
	assert.False(t, ok)

	f.key(t, 1, "name", model.KeyInput{Key: model.KeyEnter})
	committed, err := f.engine.CommitAndExit(1, "name")
	require.NoError(t, err)
	assert.False(t, committed)

	assert.Equal(t, model.CellModeEdit, f.engine.GetCellMode(1, "name"))
	assert.Equal(t, "old", f.value(1, "name"))
	assert.Zero(t, f.rec.Count(events.TopicRowsUpdated))
	assert.Zero(t, f.rec.Count(events.TopicCellEditCommitted))

	require.NoError(t, f.engine.SetEditCellValue(1, "name", "good"))
	ok, err = f.engine.CommitCellChange(1, "name")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "good", f.value(1, "name"))
}

func TestEscapeCancels(t *testing.T) {
	f := newFixture(t, Options{})
	f.key(t, 1, "name", model.KeyInput{Key: "q"})
	require.Equal(t, "q", f.staged(t, 1, "name").Value)

	f.key(t, 1, "name", model.KeyInput{Key: model.KeyEscape})

	assert.Equal(t, model.CellModeView, f.engine.GetCellMode(1, "name"))
	assert.Equal(t, "old", f.value(1, "name"))
	assert.Zero(t, f.rec.Count(events.TopicCellEditCommitted))
}

func TestDeleteKeyClearsCell(t *testing.T) {
	f := newFixture(t, Options{})

	f.key(t, 1, "name", model.KeyInput{Key: model.KeyBackspace})

	assert.Equal(t, "", f.value(1, "name"))
	assert.Equal(t, model.CellModeView, f.engine.GetCellMode(1, "name"))
	assert.Equal(t, 1, f.rec.Count(events.TopicCellEditCommitted))

	f.key(t, 1, "locked", model.KeyInput{Key: model.KeyDelete})
	assert.Equal(t, "x", f.value(1, "locked"))
}

func TestValueParser(t *testing.T) {
	f := newFixture(t, Options{})
	require.NoError(t, f.engine.StartEdit(1, "code", nil))
	require.NoError(t, f.engine.SetEditCellValue(1, "code", "xy"))

	assert.Equal(t, "XY", f.staged(t, 1, "code").Value)

	ok, err := f.engine.CommitAndExit(1, "code")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "XY", f.value(1, "code"))
}

func TestFocusOutCommits(t *testing.T) {
	popup := struct{ name string }{"date picker"}
	f := newFixture(t, Options{
		IsWithinLogicalCell: func(target any, _ model.CellParams) bool { return target == popup },
	})
	require.NoError(t, f.engine.StartEdit(1, "name", nil))
	require.NoError(t, f.engine.SetEditCellValue(1, "name", "typed"))

	require.NoError(t, f.bus.Emit(events.TopicCellFocusOut, events.CellFocusOut{ID: 1, Field: "name", Target: popup}))
	assert.Equal(t, model.CellModeEdit, f.engine.GetCellMode(1, "name"))

	require.NoError(t, f.bus.Emit(events.TopicCellFocusOut, events.CellFocusOut{ID: 1, Field: "name", Target: "elsewhere"}))
	assert.Equal(t, model.CellModeView, f.engine.GetCellMode(1, "name"))
	assert.Equal(t, "typed", f.value(1, "name"))
}

func TestHeaderDragCommitsFocusedCell(t *testing.T) {
	f := newFixture(t, Options{})
	require.NoError(t, f.engine.StartEdit(2, "name", nil))
	require.NoError(t, f.engine.SetEditCellValue(2, "name", "dragged"))
	f.store.SetState(func(s *state.State) *state.State {
		next := s.Clone()
		next.Focus = state.FocusState{Cell: &model.CellIndex{ID: model.MustID(2), Field: "name"}}
		return next
	})

	require.NoError(t, f.bus.Emit(events.TopicColumnHeaderDragStarted, events.ColumnHeaderDrag{Field: "code"}))

	assert.Equal(t, "dragged", f.value(2, "name"))
	assert.Equal(t, model.CellModeView, f.engine.GetCellMode(2, "name"))
}

func TestViewModeErrors(t *testing.T) {
	f := newFixture(t, Options{})

	_, err := f.engine.CommitCellChange(1, "name")
	assert.ErrorIs(t, err, ErrCellNotInEditMode)
	assert.ErrorIs(t, f.engine.SetEditCellValue(1, "name", "v"), ErrCellNotInEditMode)

	ok, err := f.engine.CommitAndExit(1, "name")
	assert.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, f.engine.SetCellMode(42, "name", model.CellModeEdit), model.ErrRowNotFound)
}

func TestSetCellMode(t *testing.T) {
	f := newFixture(t, Options{})

	require.NoError(t, f.engine.SetCellMode(1, "locked", model.CellModeEdit))
	assert.Equal(t, model.CellModeView, f.engine.GetCellMode(1, "locked"))

	require.NoError(t, f.engine.SetCellMode(1, "name", model.CellModeEdit))
	require.NoError(t, f.engine.SetCellMode(1, "name", model.CellModeEdit))
	assert.Equal(t, 1, f.rec.Count(events.TopicCellModeChanged))
	assert.Equal(t, model.EditRowsModel{model.MustID(1): {"name": {Value: "old"}}}, f.engine.GetEditRowsModel())

	require.NoError(t, f.engine.CancelEdit(1, "name"))
	assert.Empty(t, f.engine.GetEditRowsModel())
}

func TestSetEditRowsModel(t *testing.T) {
	f := newFixture(t, Options{})
	m := model.EditRowsModel{model.MustID(2): {"code": {Value: "zz"}}}

	f.engine.SetEditRowsModel(m)

	assert.Equal(t, model.CellModeEdit, f.engine.GetCellMode(2, "code"))
	p, err := params.New(f.store, logging.Nop(), false).GetCellParams(2, "code")
	require.NoError(t, err)
	assert.Equal(t, model.CellModeEdit, p.CellMode)

	f.engine.SetEditRowsModel(nil)
	assert.Empty(t, f.engine.GetEditRowsModel())
}

func TestEditStateDroppedWithRow(t *testing.T) {
	f := newFixture(t, Options{})
	require.NoError(t, f.engine.SetCellMode(1, "name", model.CellModeEdit))
	require.NoError(t, f.engine.SetCellMode(2, "name", model.CellModeEdit))

	require.NoError(t, f.rows.UpdateRows([]model.Row{{"id": 2, model.ActionKey: model.ActionDelete}}))
	assert.NotContains(t, f.engine.GetEditRowsModel(), model.MustID(2))
	assert.Contains(t, f.engine.GetEditRowsModel(), model.MustID(1))

	require.NoError(t, f.rows.UpdateRows([]model.Row{{"id": 2, "name": "New"}}))
	assert.Equal(t, model.CellModeView, f.engine.GetCellMode(2, "name"))

	require.NoError(t, f.rows.SetRows([]model.Row{{"id": 3, "name": "third"}}))
	assert.Empty(t, f.engine.GetEditRowsModel())
}
