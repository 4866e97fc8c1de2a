package grid

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/gridstorm/internal/event/events"
	"github.com/dshills/gridstorm/internal/model"
	"github.com/dshills/gridstorm/internal/pagination"
	"github.com/dshills/gridstorm/internal/state"
	"github.com/dshills/gridstorm/internal/testutil"
)

func testColumns() []*model.Column {
	return []*model.Column{
		{Field: "id", Type: model.ColumnNumber},
		{Field: "name", Editable: true},
		{Field: "age", Type: model.ColumnNumber},
	}
}

func testRows() []model.Row {
	return []model.Row{
		{"id": 1, "name": "Damien", "age": 25},
		{"id": 2, "name": "Nicolas", "age": 36},
		{"id": 3, "name": "Kenan", "age": 19},
		{"id": 4, "name": "Alice", "age": 42},
		{"id": 5, "name": "Bob", "age": 30},
	}
}

func newGrid(t *testing.T, opts Options) (*Grid, *testutil.Recorder) {
	t.Helper()
	if opts.Columns == nil {
		opts.Columns = testColumns()
	}
	if opts.Rows == nil {
		opts.Rows = testRows()
	}
	g, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(g.Close)
	return g, testutil.Record(g.Bus(), "**")
}

func clickHeader(t *testing.T, g *Grid, field string) {
	t.Helper()
	require.NoError(t, g.PublishEvent(events.TopicColumnHeaderClicked, events.ColumnHeaderClicked{Field: field}))
}

func TestNew_InitialState(t *testing.T) {
	g, _ := newGrid(t, Options{})

	assert.Equal(t, 5, g.GetRowsCount())
	assert.Equal(t, model.IDs(1, 2, 3, 4, 5), g.GetSortedRowIDs())
	assert.Equal(t, model.IDs(1, 2, 3, 4, 5), g.VisibleSortedRowIDs())
	assert.Len(t, g.GetVisibleColumns(), 3)
	assert.Equal(t, 2, g.GetRowIndex(3))

	row, ok := g.GetRow(4)
	require.True(t, ok)
	assert.Equal(t, "Alice", row["name"])
}

func TestNew_InvalidRows(t *testing.T) {
	_, err := New(Options{Columns: testColumns(), Rows: []model.Row{{"name": "no id"}}})

	var initErr *InitError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, "rows", initErr.Component)
	assert.ErrorIs(t, err, model.ErrInvalidRowID)
}

func TestControlledSortModel_HeaderClickIsVetoed(t *testing.T) {
	g, _ := newGrid(t, Options{SortModel: &model.SortModel{}})

	clickHeader(t, g, "name")

	assert.Empty(t, g.GetSortModel())
	assert.Equal(t, model.IDs(1, 2, 3, 4, 5), g.GetSortedRowIDs())
}

func TestControlledSortModel_CallbackAndUpdate(t *testing.T) {
	var attempted []model.SortModel
	opts := Options{
		Columns:           testColumns(),
		Rows:              testRows(),
		SortModel:         &model.SortModel{},
		OnSortModelChange: func(m model.SortModel) { attempted = append(attempted, m) },
	}
	g, _ := newGrid(t, opts)

	clickHeader(t, g, "name")

	require.Len(t, attempted, 1)
	assert.Equal(t, model.SortModel{{Field: "name", Sort: model.SortAsc}}, attempted[0])
	assert.Empty(t, g.GetSortModel())

	opts.SortModel = &attempted[0]
	require.NoError(t, g.UpdateOptions(opts))

	assert.Equal(t, attempted[0], g.GetSortModel())
	assert.Equal(t, model.IDs(4, 5, 1, 3, 2), g.GetSortedRowIDs())
}

func TestUncontrolledSortModel_EmitsChange(t *testing.T) {
	g, rec := newGrid(t, Options{})

	clickHeader(t, g, "age")

	assert.Equal(t, model.IDs(3, 1, 5, 2, 4), g.GetSortedRowIDs())
	got, ok := rec.Last(events.TopicSortModelChanged)
	require.True(t, ok)
	assert.Equal(t, events.SortModelChanged{Model: model.SortModel{{Field: "age", Sort: model.SortAsc}}}, got)

	clickHeader(t, g, "age")
	assert.Equal(t, model.IDs(4, 2, 5, 1, 3), g.GetSortedRowIDs())
}

func TestControlledSelection(t *testing.T) {
	var attempted model.SelectionModel
	g, rec := newGrid(t, Options{
		SelectionModel:         &model.SelectionModel{},
		OnSelectionModelChange: func(m model.SelectionModel) { attempted = m },
	})

	require.NoError(t, g.PublishEvent(events.TopicRowClicked, events.RowClicked{ID: 2}))

	assert.Empty(t, g.GetSelectionModel())
	assert.Equal(t, model.SelectionModel(model.IDs(2)), attempted)
	assert.Zero(t, rec.Count(events.TopicStateChanged), "vetoed update must not be installed")
}

func TestFilterAndQuickFilter(t *testing.T) {
	g, rec := newGrid(t, Options{})

	g.SetFilterModel(model.FilterModel{
		Items: []model.FilterItem{{ID: "1", ColumnField: "age", OperatorValue: ">", Value: 29}},
	})
	assert.Equal(t, model.IDs(2, 4, 5), g.VisibleSortedRowIDs())
	assert.Equal(t, 1, rec.Count(events.TopicFilterModelChanged))

	visible := g.GetVisibleRowModels()
	require.Len(t, visible, 3)
	assert.Equal(t, "Nicolas", visible[0].Row["name"])
}

func TestPagination(t *testing.T) {
	size := 2
	g, rec := newGrid(t, Options{Pagination: true, PageSize: &size})

	assert.Equal(t, 3, g.PageCount())
	assert.Equal(t, model.IDs(1, 2), g.PageRowIDs())

	g.SetPage(2)
	assert.Equal(t, model.IDs(5), g.PageRowIDs())
	got, ok := rec.Last(events.TopicPageChanged)
	require.True(t, ok)
	assert.Equal(t, events.PageChanged{Page: 2, PageCount: 3, PageSize: 2, RowCount: 5}, got)

	require.NoError(t, g.UpdateRows([]model.Row{{"id": 5, model.ActionKey: model.ActionDelete}}))
	assert.Equal(t, 2, g.PageCount())
	assert.Equal(t, 1, g.State().Pagination.Page)
	assert.Equal(t, model.IDs(3, 4), g.PageRowIDs())
}

func TestPagination_MaxPageSize(t *testing.T) {
	size := 200
	_, err := New(Options{Columns: testColumns(), Rows: testRows(), Pagination: true, PageSize: &size, MaxPageSize: 100})
	assert.ErrorIs(t, err, pagination.ErrPageSizeExceeded)
}

func TestCellEditCommit(t *testing.T) {
	var committed []events.CellEditCommitted
	g, _ := newGrid(t, Options{OnCellEditCommit: func(p events.CellEditCommitted) { committed = append(committed, p) }})

	require.NoError(t, g.SetCellMode(1, "name", model.CellModeEdit))
	require.NoError(t, g.SetEditCellValue(1, "name", "Zed"))

	ok, err := g.CommitCellChange(1, "name")
	require.NoError(t, err)
	assert.True(t, ok)

	require.Len(t, committed, 1)
	assert.Equal(t, "Zed", committed[0].Value)
	row, _ := g.GetRow(1)
	assert.Equal(t, "Zed", row["name"])

	require.NoError(t, g.SetEditCellProps(1, "name", model.EditCellProps{Value: "bad", Error: true}))
	ok, err = g.CommitCellChange(1, "name")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, committed, 1)
}

func TestKeyboardEditFlow(t *testing.T) {
	g, _ := newGrid(t, Options{})
	require.NoError(t, g.SetCellFocus(2, "name"))

	key := func(k model.KeyInput) {
		s := g.State()
		require.NoError(t, g.PublishEvent(events.TopicCellKeyDown, events.CellKeyDown{ID: s.Focus.Cell.ID, Field: s.Focus.Cell.Field, Key: k}))
	}

	key(model.KeyInput{Key: model.KeyEnter})
	assert.Equal(t, model.CellModeEdit, g.GetCellMode(2, "name"))

	require.NoError(t, g.SetEditCellValue(2, "name", "Nico"))
	key(model.KeyInput{Key: model.KeyEnter})

	assert.Equal(t, model.CellModeView, g.GetCellMode(2, "name"))
	row, _ := g.GetRow(2)
	assert.Equal(t, "Nico", row["name"])
	assert.Equal(t, model.MustID(3), g.State().Focus.Cell.ID, "enter moves focus down")
}

func TestSetDensity(t *testing.T) {
	g, rec := newGrid(t, Options{})

	g.SetDensity(model.DensityCompact)

	d := g.State().Density
	assert.Equal(t, model.DensityCompact, d.Value)
	assert.Equal(t, 36, d.RowHeight)
	assert.Equal(t, 39, d.HeaderHeight)
	got, ok := rec.Last(events.TopicDensityChanged)
	require.True(t, ok)
	assert.Equal(t, events.DensityChanged{Density: model.DensityCompact, RowHeight: 36, HeaderHeight: 39}, got)

	rec.Reset()
	g.SetDensity(model.DensityCompact)
	assert.Zero(t, rec.Count(events.TopicDensityChanged))
}

func TestUpdateOptions_RowsIdentity(t *testing.T) {
	opts := Options{Columns: testColumns(), Rows: testRows()}
	g, rec := newGrid(t, opts)

	require.NoError(t, g.UpdateOptions(opts))
	assert.Zero(t, rec.Count(events.TopicRowsSet), "same slice is not re-set")

	opts.Rows = []model.Row{{"id": 9, "name": "Zoe", "age": 50}}
	require.NoError(t, g.UpdateOptions(opts))
	assert.Equal(t, 1, rec.Count(events.TopicRowsSet))
	assert.Equal(t, model.IDs(9), g.GetAllRowIDs())
}

func TestUpdateOptions_SortingMode(t *testing.T) {
	opts := Options{Columns: testColumns(), Rows: testRows()}
	g, _ := newGrid(t, opts)
	clickHeader(t, g, "age")
	require.Equal(t, model.IDs(3, 1, 5, 2, 4), g.GetSortedRowIDs())

	opts.SortingMode = model.ModeServer
	require.NoError(t, g.UpdateOptions(opts))

	assert.Equal(t, model.IDs(1, 2, 3, 4, 5), g.GetSortedRowIDs())
}

func TestPanels(t *testing.T) {
	g, rec := newGrid(t, Options{})

	require.NoError(t, g.ShowColumnMenu("age"))
	assert.Equal(t, state.PanelState{Open: true, Field: "age"}, g.State().ColumnMenu)
	got, _ := rec.Last(events.TopicColumnMenuOpened)
	assert.Equal(t, events.PanelToggled{Target: "age"}, got)

	g.HideColumnMenu()
	assert.False(t, g.State().ColumnMenu.Open)
	got, _ = rec.Last(events.TopicColumnMenuClosed)
	assert.Equal(t, events.PanelToggled{Target: "age"}, got)

	assert.Error(t, g.ShowColumnMenu("missing"))

	g.ShowPreferences("columns")
	assert.Equal(t, 1, rec.Count(events.TopicPreferencePanelOpened))
	g.ShowPreferences("columns")
	assert.Equal(t, 1, rec.Count(events.TopicPreferencePanelOpened))
	g.HidePreferences()
	assert.Equal(t, 1, rec.Count(events.TopicPreferencePanelClosed))
}

func TestSetError(t *testing.T) {
	g, rec := newGrid(t, Options{})
	boom := errors.New("boom")

	g.SetError(boom)
	assert.Equal(t, boom, g.State().Error)
	got, _ := rec.Last(events.TopicErrorChanged)
	assert.Equal(t, events.ErrorChanged{Err: boom}, got)

	g.SetError(boom)
	assert.Equal(t, 1, rec.Count(events.TopicErrorChanged))

	g.SetError(nil)
	assert.NoError(t, g.State().Error)
}

func TestThrottledRowUpdates(t *testing.T) {
	clock := testutil.NewFakeClock()
	g, _ := newGrid(t, Options{RowsUpdateThrottle: 100 * time.Millisecond, Clock: clock})
	g.Flush()
	require.Len(t, g.GetSortedRowIDs(), 5)

	require.NoError(t, g.UpdateRows([]model.Row{{"id": 6, "name": "Eve", "age": 28}}))
	_, ok := g.GetRow(6)
	assert.True(t, ok, "rows are stored immediately")
	assert.Len(t, g.GetSortedRowIDs(), 5, "derived state waits for the notification")

	clock.Advance(50 * time.Millisecond)
	assert.False(t, g.Tick())
	clock.Advance(60 * time.Millisecond)
	assert.True(t, g.Tick())
	assert.Len(t, g.GetSortedRowIDs(), 6)
}

func TestCallbacks(t *testing.T) {
	var states int
	var ends []events.RowsScrollEnd
	data := make([]model.Row, 100)
	for i := range data {
		data[i] = model.Row{"id": i + 1, "name": "row", "age": i}
	}
	g, _ := newGrid(t, Options{
		Rows:            data,
		OnStateChange:   func(*state.State) { states++ },
		OnRowsScrollEnd: func(p events.RowsScrollEnd) { ends = append(ends, p) },
	})

	g.Resize(300, 500)
	assert.Positive(t, states)

	g.Scroll(1_000_000, 0)
	require.Len(t, ends, 1)
	assert.Equal(t, 100, ends[0].VirtualRowsCount)

	rendered := g.RenderedRows()
	require.NotEmpty(t, rendered)
	assert.Equal(t, model.MustID(100), rendered[len(rendered)-1].ID)
}

func TestParams(t *testing.T) {
	g, _ := newGrid(t, Options{IsCellEditable: func(p model.CellParams) bool { return p.ID != model.MustID(1) }})

	p, err := g.GetCellParams(1, "name")
	require.NoError(t, err)
	assert.Equal(t, "Damien", p.Value)
	assert.False(t, p.IsEditable)

	p, err = g.GetCellParams(2, "name")
	require.NoError(t, err)
	assert.True(t, p.IsEditable)

	_, err = g.GetRowParams(99)
	assert.Error(t, err)
}
