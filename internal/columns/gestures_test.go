package columns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/gridstorm/internal/event/events"
	"github.com/dshills/gridstorm/internal/event/topic"
	"github.com/dshills/gridstorm/internal/model"
	"github.com/dshills/gridstorm/internal/testutil"
)

func TestResizeGesture(t *testing.T) {
	e, bus, store := newEngine(t, Options{})
	rec := testutil.Record(bus, "column.**")
	require.NoError(t, e.SetColumns([]*model.Column{{Field: "a", Width: 100}}))
	rec.Reset()

	started, err := e.StartResize("a", 500, model.PointerInput{})
	require.NoError(t, err)
	require.True(t, started)
	assert.True(t, store.State().ColumnResize.Active())

	e.ResizeTo(540)
	e.ResizeTo(400)
	e.StopResize()

	a, _ := e.GetColumn("a")
	assert.Equal(t, DefaultMinWidth, a.Width)
	assert.False(t, store.State().ColumnResize.Active())
	assert.Equal(t, []topic.Topic{
		events.TopicColumnResizeStarted,
		events.TopicColumnResize,
		events.TopicColumnResize,
		events.TopicColumnResizeStopped,
		events.TopicColumnWidthChanged,
	}, rec.Topics())

	got, _ := rec.Last(events.TopicColumnResize)
	assert.Equal(t, events.ColumnResize{Field: "a", Width: DefaultMinWidth}, got)
}

func TestResizeGesture_Disabled(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		col     *model.Column
		pointer model.PointerInput
		want    bool
	}{
		{"mouse", Options{}, &model.Column{Field: "a"}, model.PointerInput{}, true},
		{"grid disabled", Options{DisableColumnResize: true}, &model.Column{Field: "a"}, model.PointerInput{}, false},
		{"column disabled", Options{}, &model.Column{Field: "a", DisableResize: true}, model.PointerInput{}, false},
		{"touch unsupported", Options{}, &model.Column{Field: "a"}, model.PointerInput{Touch: true}, false},
		{"touch supported", Options{Capabilities: Capabilities{TouchResize: true}}, &model.Column{Field: "a"}, model.PointerInput{Touch: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _, store := newEngine(t, tt.opts)
			require.NoError(t, e.SetColumns([]*model.Column{tt.col}))

			started, err := e.StartResize("a", 0, tt.pointer)
			require.NoError(t, err)
			assert.Equal(t, tt.want, started)
			assert.Equal(t, tt.want, store.State().ColumnResize.Active())
		})
	}
}

func TestReorderGesture(t *testing.T) {
	e, bus, _ := newEngine(t, Options{})
	require.NoError(t, e.SetColumns([]*model.Column{{Field: "a"}, {Field: "b"}, {Field: "c"}}))

	drag := func(tp topic.Topic, target string, x int, dropped bool) {
		require.NoError(t, bus.Emit(tp, events.ColumnHeaderDrag{Field: "a", TargetField: target, X: x, Dropped: dropped}))
	}

	drag(events.TopicColumnHeaderDragStarted, "", 10, false)
	drag(events.TopicColumnHeaderDragOver, "b", 5, false)
	assert.Equal(t, []string{"a", "b", "c"}, fields(e.GetAllColumns()), "moving away from the target")

	drag(events.TopicColumnHeaderDragOver, "b", 120, false)
	assert.Equal(t, []string{"b", "a", "c"}, fields(e.GetAllColumns()))

	drag(events.TopicColumnHeaderDragOver, "c", 220, false)
	assert.Equal(t, []string{"b", "c", "a"}, fields(e.GetAllColumns()))

	drag(events.TopicColumnHeaderDragEnded, "", 220, true)
	assert.Equal(t, []string{"b", "c", "a"}, fields(e.GetAllColumns()))
}

func TestReorderGesture_CancelRestoresOrigin(t *testing.T) {
	e, bus, store := newEngine(t, Options{})
	require.NoError(t, e.SetColumns([]*model.Column{{Field: "a"}, {Field: "b"}, {Field: "c"}}))

	require.NoError(t, bus.Emit(events.TopicColumnHeaderDragStarted, events.ColumnHeaderDrag{Field: "c", X: 250}))
	require.NoError(t, bus.Emit(events.TopicColumnHeaderDragOver, events.ColumnHeaderDrag{Field: "c", TargetField: "a", X: 20}))
	require.Equal(t, []string{"c", "a", "b"}, fields(e.GetAllColumns()))

	require.NoError(t, bus.Emit(events.TopicColumnHeaderDragEnded, events.ColumnHeaderDrag{Field: "c", Dropped: false}))

	assert.Equal(t, []string{"a", "b", "c"}, fields(e.GetAllColumns()))
	assert.Empty(t, store.State().ColumnReorder.DragField)
}

func TestReorderGesture_Disabled(t *testing.T) {
	e, bus, _ := newEngine(t, Options{})
	require.NoError(t, e.SetColumns([]*model.Column{{Field: "a"}, {Field: "b", DisableReorder: true}}))

	require.NoError(t, bus.Emit(events.TopicColumnHeaderDragStarted, events.ColumnHeaderDrag{Field: "a", X: 0}))
	require.NoError(t, bus.Emit(events.TopicColumnHeaderDragOver, events.ColumnHeaderDrag{Field: "a", TargetField: "b", X: 150}))

	assert.Equal(t, []string{"a", "b"}, fields(e.GetAllColumns()))
}
