// Package editing runs the per-cell view/edit state machine.
//
// A cell enters edit mode from a double click, an Enter, F2 or printable key,
// or an API call, and only when it is editable. While editing, staged props
// hold the pending value and a validation error flag. Commit writes the value
// into the row through the row model unless the error flag is set; cancel
// discards it. Every implicit exit (focus leaving the cell, a header drag)
// goes through CommitAndExit, which keeps the cell in edit mode when the
// commit is refused.
package editing

import (
	"errors"
	"fmt"

	"github.com/dshills/gridstorm/internal/event"
	"github.com/dshills/gridstorm/internal/event/events"
	"github.com/dshills/gridstorm/internal/event/topic"
	"github.com/dshills/gridstorm/internal/logging"
	"github.com/dshills/gridstorm/internal/model"
	"github.com/dshills/gridstorm/internal/params"
	"github.com/dshills/gridstorm/internal/state"
)

// ErrCellNotInEditMode is returned when committing or staging a value on a
// cell in view mode.
var ErrCellNotInEditMode = errors.New("cell is not in edit mode")

// RowUpdater applies row patches.
type RowUpdater interface {
	UpdateRows(patches []model.Row) error
}

// WithinLogicalCellPredicate reports whether a focus target still belongs to
// the editing cell, e.g. a popup anchored to it.
type WithinLogicalCellPredicate func(target any, params model.CellParams) bool

// Options configures the edit engine.
type Options struct {
	IsWithinLogicalCell WithinLogicalCellPredicate
}

// Engine runs cell edits.
type Engine struct {
	store  *state.Store
	bus    *event.Bus
	params *params.Facade
	rows   RowUpdater
	logger *logging.Logger
	opts   Options
	subs   []event.Subscription
}

// New creates an edit engine and subscribes it to row, cell and header
// events.
func New(store *state.Store, bus *event.Bus, facade *params.Facade, rows RowUpdater, logger *logging.Logger, opts Options) *Engine {
	e := &Engine{store: store, bus: bus, params: facade, rows: rows, logger: logger, opts: opts}
	prune := func(event.Event) error {
		e.pruneEditRows()
		return nil
	}
	e.subs = []event.Subscription{
		bus.On(events.TopicRowsSet, prune),
		bus.On(events.TopicRowsUpdated, prune),
		bus.On(events.TopicRowsCleared, prune),
		event.Subscribe(bus, events.TopicCellKeyDown, e.handleCellKeyDown),
		event.Subscribe(bus, events.TopicCellDoubleClicked, e.handleCellDoubleClick),
		event.Subscribe(bus, events.TopicCellFocusOut, e.handleCellFocusOut),
		event.Subscribe(bus, events.TopicColumnHeaderDragStarted, e.handleHeaderDragStart),
	}
	return e
}

// SetOptions replaces the options.
func (e *Engine) SetOptions(opts Options) {
	e.opts = opts
}

// Close unsubscribes the engine.
func (e *Engine) Close() {
	for _, sub := range e.subs {
		e.bus.RemoveListener(sub)
	}
	e.subs = nil
}

// GetEditRowsModel returns the cells in edit mode with their staged props.
func (e *Engine) GetEditRowsModel() model.EditRowsModel {
	return e.store.State().EditRows
}

// SetEditRowsModel replaces the edit rows model.
func (e *Engine) SetEditRowsModel(m model.EditRowsModel) {
	if m == nil {
		m = model.EditRowsModel{}
	}
	e.logger.Debug("setting edit rows model")
	e.store.SetState(func(s *state.State) *state.State {
		if state.Equal(s.EditRows, m) {
			return s
		}
		next := s.Clone()
		next.EditRows = m
		return next
	})
}

// pruneEditRows drops edit state of rows that left the row set.
func (e *Engine) pruneEditRows() {
	e.store.SetState(func(s *state.State) *state.State {
		var gone []model.RowID
		for id := range s.EditRows {
			if _, ok := s.Rows.Lookup[id]; !ok {
				gone = append(gone, id)
			}
		}
		if len(gone) == 0 {
			return s
		}
		e.logger.Debug("dropping edit state of %d removed rows", len(gone))
		next := s.Clone()
		next.EditRows = make(model.EditRowsModel, len(s.EditRows)-len(gone))
		for id, cells := range s.EditRows {
			if _, ok := s.Rows.Lookup[id]; ok {
				next.EditRows[id] = cells
			}
		}
		return next
	})
}

// GetCellMode returns the mode of a cell.
func (e *Engine) GetCellMode(id any, field string) model.CellMode {
	return e.params.GetCellMode(id, field)
}

// IsCellEditable reports whether the cell may enter edit mode.
func (e *Engine) IsCellEditable(p model.CellParams) bool {
	return e.params.IsCellEditable(p)
}

// SetCellMode switches a cell between view and edit. Entering edit mode on a
// cell that is not editable does nothing. Entering edit mode stages the
// current cell value.
func (e *Engine) SetCellMode(id any, field string, mode model.CellMode) error {
	p, err := e.params.GetCellParams(id, field)
	if err != nil {
		return err
	}
	if p.CellMode == mode {
		return nil
	}
	if mode == model.CellModeEdit && !p.IsEditable {
		e.logger.Debug("cell %v/%s is not editable", p.ID, field)
		return nil
	}

	e.logger.Debug("switching cell id: %v field: %s to mode: %s", p.ID, field, mode)
	e.store.SetState(func(s *state.State) *state.State {
		next := s.Clone()
		if mode == model.CellModeEdit {
			next.EditRows = s.EditRows.With(p.ID, field, model.EditCellProps{Value: p.Value})
		} else {
			next.EditRows = s.EditRows.Without(p.ID, field)
		}
		return next
	})
	e.emit(events.TopicCellModeChanged, events.CellModeChanged{ID: p.ID, Field: field, Mode: mode})
	return nil
}

// SetEditCellValue stages a value and clears the error flag.
func (e *Engine) SetEditCellValue(id any, field string, value any) error {
	return e.SetEditCellProps(id, field, model.EditCellProps{Value: value})
}

// SetEditCellProps stages props on a cell in edit mode. The value passes
// through the column's value parser.
func (e *Engine) SetEditCellProps(id any, field string, props model.EditCellProps) error {
	p, err := e.params.GetCellParams(id, field)
	if err != nil {
		return err
	}
	if p.CellMode != model.CellModeEdit {
		return e.notInEditMode(p.ID, field)
	}
	if p.Column != nil && p.Column.ValueParser != nil {
		props.Value = p.Column.ValueParser(props.Value, p)
	}

	e.logger.Debug("setting cell props on id: %v field: %s", p.ID, field)
	e.store.SetState(func(s *state.State) *state.State {
		next := s.Clone()
		next.EditRows = s.EditRows.With(p.ID, field, props)
		return next
	})
	e.emit(events.TopicCellEditPropsChanged, events.CellEditPropsChanged{ID: p.ID, Field: field, Props: props})
	return nil
}

// CommitCellChange writes the staged value into the row. It returns false
// without touching the row when the staged props carry an error. The cell
// stays in edit mode either way.
func (e *Engine) CommitCellChange(id any, field string) (bool, error) {
	key := normalize(id)
	props, ok := e.GetEditRowsModel().Cell(key, field)
	if !ok {
		return false, e.notInEditMode(key, field)
	}
	if props.Error {
		e.logger.Debug("refusing commit of cell id: %v field: %s, staged value has an error", key, field)
		return false, nil
	}

	row, ok := e.store.State().Rows.Lookup[key]
	if !ok {
		return false, model.RowNotFound(key)
	}
	e.logger.Debug("setting cell id: %v field: %s to value: %v", key, field, props.Value)
	update := row.Merge(model.Row{field: props.Value})
	if err := e.rows.UpdateRows([]model.Row{update}); err != nil {
		return false, fmt.Errorf("commit cell %v/%s: %w", key, field, err)
	}
	e.emit(events.TopicCellEditCommitted, events.CellEditCommitted{ID: key, Field: field, Value: props.Value})
	return true, nil
}

// StartEdit puts an editable cell in edit mode. A printable key seeds the
// staged value with the typed character.
func (e *Engine) StartEdit(id any, field string, key *model.KeyInput) error {
	p, err := e.params.GetCellParams(id, field)
	if err != nil {
		return err
	}
	if !p.IsEditable || p.CellMode == model.CellModeEdit {
		return nil
	}
	if err := e.SetCellMode(p.ID, field, model.CellModeEdit); err != nil {
		return err
	}
	value := p.Value
	if key != nil && key.Printable() {
		value = key.Key
		if err := e.SetEditCellValue(p.ID, field, value); err != nil {
			return err
		}
	}
	e.emit(events.TopicCellEditStarted, events.CellEdit{ID: p.ID, Field: field, Value: value, Key: key})
	return nil
}

// StopEdit returns a cell to view mode without committing. The key that
// ended the edit, if any, travels with cell.edit.stopped so focus can react.
func (e *Engine) StopEdit(id any, field string, key *model.KeyInput) error {
	rowID := normalize(id)
	props, ok := e.GetEditRowsModel().Cell(rowID, field)
	if !ok {
		return nil
	}
	if err := e.SetCellMode(rowID, field, model.CellModeView); err != nil {
		return err
	}
	e.emit(events.TopicCellEditStopped, events.CellEdit{ID: rowID, Field: field, Value: props.Value, Key: key})
	return nil
}

// CancelEdit discards the staged value and leaves edit mode.
func (e *Engine) CancelEdit(id any, field string) error {
	return e.StopEdit(id, field, &model.KeyInput{Key: model.KeyEscape})
}

// CommitAndExit commits a cell in edit mode and leaves edit mode when the
// commit succeeded. Cells in view mode are ignored.
func (e *Engine) CommitAndExit(id any, field string) (bool, error) {
	if e.GetCellMode(id, field) != model.CellModeEdit {
		return false, nil
	}
	ok, err := e.CommitCellChange(id, field)
	if err != nil || !ok {
		return false, err
	}
	return true, e.StopEdit(id, field, nil)
}

func (e *Engine) handleCellKeyDown(ev events.CellKeyDown) error {
	p, err := e.params.GetCellParams(ev.ID, ev.Field)
	if err != nil {
		return err
	}
	if !p.IsEditable {
		return nil
	}
	key := ev.Key
	editing := p.CellMode == model.CellModeEdit

	if !editing {
		switch {
		case isDeleteKey(key.Key):
			if err := e.StartEdit(p.ID, p.Field, nil); err != nil {
				return err
			}
			if err := e.SetEditCellValue(p.ID, p.Field, ""); err != nil {
				return err
			}
			if _, err := e.CommitCellChange(p.ID, p.Field); err != nil {
				return err
			}
			return e.StopEdit(p.ID, p.Field, &key)
		case isEnterEditKey(key) && !key.Modifier():
			return e.StartEdit(p.ID, p.Field, &key)
		}
		return nil
	}

	if isCommitKey(key.Key) {
		ok, err := e.CommitCellChange(p.ID, p.Field)
		if err != nil || !ok {
			return err
		}
	}
	if isExitKey(key.Key) {
		return e.StopEdit(p.ID, p.Field, &key)
	}
	return nil
}

func (e *Engine) handleCellDoubleClick(ev events.CellClicked) error {
	return e.StartEdit(ev.ID, ev.Field, nil)
}

func (e *Engine) handleCellFocusOut(ev events.CellFocusOut) error {
	p, err := e.params.GetCellParams(ev.ID, ev.Field)
	if err != nil {
		return err
	}
	if p.CellMode != model.CellModeEdit {
		return nil
	}
	if e.opts.IsWithinLogicalCell != nil && e.opts.IsWithinLogicalCell(ev.Target, p) {
		return nil
	}
	_, err = e.CommitAndExit(p.ID, p.Field)
	return err
}

func (e *Engine) handleHeaderDragStart(events.ColumnHeaderDrag) error {
	cell := e.store.State().Focus.Cell
	if cell == nil {
		return nil
	}
	_, err := e.CommitAndExit(cell.ID, cell.Field)
	return err
}

func (e *Engine) notInEditMode(id model.RowID, field string) error {
	return fmt.Errorf("%w: id %v field %q", ErrCellNotInEditMode, id, field)
}

func (e *Engine) emit(t topic.Topic, payload any) {
	if err := e.bus.Emit(t, payload); err != nil {
		e.logger.Error("%s handler failed: %v", t, err)
	}
}

func isDeleteKey(key string) bool {
	return key == model.KeyDelete || key == model.KeyBackspace
}

// isEnterEditKey reports whether a key starts editing. Shift+Space is left
// to row selection.
func isEnterEditKey(k model.KeyInput) bool {
	if k.Key == model.KeySpace && k.Shift {
		return false
	}
	return k.Key == model.KeyEnter || k.Key == model.KeyF2 || k.Printable()
}

func isCommitKey(key string) bool {
	return key == model.KeyEnter || key == model.KeyTab
}

func isExitKey(key string) bool {
	return key == model.KeyEnter || key == model.KeyTab || key == model.KeyEscape
}

func normalize(id any) model.RowID {
	if key, err := model.NormalizeID(id); err == nil {
		return key
	}
	return id
}
