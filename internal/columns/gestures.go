package columns

import (
	"github.com/dshills/gridstorm/internal/event/events"
	"github.com/dshills/gridstorm/internal/model"
	"github.com/dshills/gridstorm/internal/state"
)

// StartResize begins a resize gesture on field at pointer position x. It
// reports whether the gesture started: resizing may be disabled globally or
// for the column, and touch input needs Capabilities.TouchResize.
func (e *Engine) StartResize(field string, x int, pointer model.PointerInput) (bool, error) {
	col, err := e.GetColumn(field)
	if err != nil {
		return false, err
	}
	if e.opts.DisableColumnResize || !col.Resizable() {
		return false, nil
	}
	if pointer.Touch && !e.opts.Capabilities.TouchResize {
		e.logger.Debug("ignoring touch resize on %q", field)
		return false, nil
	}

	width := col.RenderedWidth()
	e.store.SetState(func(s *state.State) *state.State {
		next := s.Clone()
		next.ColumnResize = state.ColumnResizeState{Field: field, StartX: x, StartWidth: width}
		return next
	})
	e.emit(events.TopicColumnResizeStarted, events.ColumnResize{Field: field, Width: width})
	return true, nil
}

// ResizeTo moves an active resize gesture to pointer position x.
func (e *Engine) ResizeTo(x int) {
	r := e.store.State().ColumnResize
	if !r.Active() {
		return
	}
	width, err := e.setWidth(r.Field, r.StartWidth+x-r.StartX)
	if err != nil {
		e.logger.Warn("resizing column %q: %v", r.Field, err)
		e.clearResize()
		return
	}
	e.emit(events.TopicColumnResize, events.ColumnResize{Field: r.Field, Width: width})
}

// StopResize ends the active resize gesture.
func (e *Engine) StopResize() {
	r := e.store.State().ColumnResize
	if !r.Active() {
		return
	}
	e.clearResize()

	col, err := e.GetColumn(r.Field)
	if err != nil {
		return
	}
	width := col.RenderedWidth()
	e.emit(events.TopicColumnResizeStopped, events.ColumnResize{Field: r.Field, Width: width})
	e.emit(events.TopicColumnWidthChanged, events.ColumnWidthChanged{Field: r.Field, Width: width})
}

func (e *Engine) clearResize() {
	e.store.SetState(func(s *state.State) *state.State {
		next := s.Clone()
		next.ColumnResize = state.ColumnResizeState{}
		return next
	})
}

func (e *Engine) reorderable(field string) bool {
	col, ok := e.store.State().Columns.Column(field)
	return ok && !e.opts.DisableColumnReorder && !col.DisableReorder
}

func (e *Engine) handleDragStart(p events.ColumnHeaderDrag) error {
	if !e.reorderable(p.Field) {
		return nil
	}
	origin := e.GetColumnIndex(p.Field, false)
	e.store.SetState(func(s *state.State) *state.State {
		next := s.Clone()
		next.ColumnReorder = state.ColumnReorderState{DragField: p.Field, OriginIndex: origin, LastX: p.X}
		return next
	})
	return nil
}

// handleDragOver moves the dragged column onto the target only when the
// cursor travels toward it, so a column does not flip back and forth while
// the cursor sits over the boundary.
func (e *Engine) handleDragOver(p events.ColumnHeaderDrag) error {
	r := e.store.State().ColumnReorder
	if r.DragField == "" || r.DragField != p.Field || p.TargetField == p.Field {
		return nil
	}

	lastX := r.LastX
	e.store.SetState(func(s *state.State) *state.State {
		next := s.Clone()
		next.ColumnReorder.LastX = p.X
		return next
	})
	if !e.reorderable(p.TargetField) {
		return nil
	}

	dragIdx := e.GetColumnIndex(p.Field, false)
	targetIdx := e.GetColumnIndex(p.TargetField, false)
	movingRight := p.X > lastX
	movingLeft := p.X < lastX
	if (movingRight && dragIdx < targetIdx) || (movingLeft && targetIdx < dragIdx) {
		return e.SetColumnIndex(p.Field, targetIdx)
	}
	return nil
}

func (e *Engine) handleDragEnd(p events.ColumnHeaderDrag) error {
	r := e.store.State().ColumnReorder
	if r.DragField == "" {
		return nil
	}
	e.store.SetState(func(s *state.State) *state.State {
		next := s.Clone()
		next.ColumnReorder = state.ColumnReorderState{}
		return next
	})
	if !p.Dropped {
		return e.SetColumnIndex(r.DragField, r.OriginIndex)
	}
	return nil
}
