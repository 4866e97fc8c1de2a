// Package params builds the read-only parameter objects handed to column
// hooks, event handlers and renderers.
//
// Every call reads the current state snapshot; nothing is cached.
package params

import (
	"github.com/dshills/gridstorm/internal/logging"
	"github.com/dshills/gridstorm/internal/model"
	"github.com/dshills/gridstorm/internal/state"
)

// CellEditablePredicate is the caller's per-cell editability hook.
type CellEditablePredicate func(params model.CellParams) bool

// Facade derives params from the store.
type Facade struct {
	store          *state.Store
	logger         *logging.Logger
	debug          bool
	isCellEditable CellEditablePredicate
	warned         bool
}

// New creates a params facade. Debug enables the undeclared column warning.
func New(store *state.Store, logger *logging.Logger, debug bool) *Facade {
	return &Facade{store: store, logger: logger, debug: debug}
}

// SetCellEditablePredicate replaces the caller's editability hook.
func (f *Facade) SetCellEditablePredicate(fn CellEditablePredicate) {
	f.isCellEditable = fn
}

// SetDebug toggles debug diagnostics.
func (f *Facade) SetDebug(debug bool) {
	f.debug = debug
}

// GetCellValue returns the cell value through the column's value getter, or
// the raw row field when the column has none or is not declared.
func (f *Facade) GetCellValue(id model.RowID, field string) (any, error) {
	id = normalize(id)
	s := f.store.State()
	row, ok := s.Rows.Lookup[id]
	if !ok {
		return nil, model.RowNotFound(id)
	}

	col, ok := s.Columns.Column(field)
	if !ok {
		f.warnMissingColumn(field)
		return row[field], nil
	}
	if col.ValueGetter == nil {
		return row[field], nil
	}
	return col.ValueGetter(f.baseCellParams(s, id, field, row, col)), nil
}

// GetCellParams returns the full params of a cell.
func (f *Facade) GetCellParams(id model.RowID, field string) (model.CellParams, error) {
	id = normalize(id)
	value, err := f.GetCellValue(id, field)
	if err != nil {
		return model.CellParams{}, err
	}

	s := f.store.State()
	row := s.Rows.Lookup[id]
	col, _ := s.Columns.Column(field)

	params := f.baseCellParams(s, id, field, row, col)
	params.Value = value
	params.FormattedValue = value
	if col != nil && col.ValueFormatter != nil {
		params.FormattedValue = col.ValueFormatter(params)
	}
	params.IsEditable = col != nil && f.IsCellEditable(params)
	return params, nil
}

// GetRowParams returns the params of a row.
func (f *Facade) GetRowParams(id model.RowID) (model.RowParams, error) {
	id = normalize(id)
	s := f.store.State()
	row, ok := s.Rows.Lookup[id]
	if !ok {
		return model.RowParams{}, model.RowNotFound(id)
	}
	return model.RowParams{ID: id, Row: row, Columns: s.Columns.Ordered()}, nil
}

// GetColumnHeaderParams returns the params of a column header.
func (f *Facade) GetColumnHeaderParams(field string) (model.ColumnHeaderParams, error) {
	col, ok := f.store.State().Columns.Column(field)
	if !ok {
		return model.ColumnHeaderParams{}, model.ColumnNotFound(field)
	}
	return model.ColumnHeaderParams{Field: field, Column: col}, nil
}

// GetSortCellParams returns the params handed to comparators.
func (f *Facade) GetSortCellParams(id model.RowID, field string) (model.SortCellParams, error) {
	value, err := f.GetCellValue(id, field)
	if err != nil {
		return model.SortCellParams{}, err
	}
	return model.SortCellParams{ID: id, Field: field, Value: value}, nil
}

// IsCellEditable reports whether a cell may enter edit mode: the column is
// editable, has an edit renderer, and the caller's predicate agrees.
func (f *Facade) IsCellEditable(params model.CellParams) bool {
	col := params.Column
	if col == nil || !col.Editable || col.RenderEditCell == nil {
		return false
	}
	return f.isCellEditable == nil || f.isCellEditable(params)
}

// GetCellMode returns the edit mode of a cell.
func (f *Facade) GetCellMode(id model.RowID, field string) model.CellMode {
	if _, ok := f.store.State().EditRows.Cell(normalize(id), field); ok {
		return model.CellModeEdit
	}
	return model.CellModeView
}

func (f *Facade) baseCellParams(s *state.State, id model.RowID, field string, row model.Row, col *model.Column) model.CellParams {
	mode := model.CellModeView
	if _, ok := s.EditRows.Cell(id, field); ok {
		mode = model.CellModeEdit
	}
	tabIndex := -1
	if s.TabIndex.IsCell(id, field) {
		tabIndex = 0
	}
	return model.CellParams{
		ID:       id,
		Field:    field,
		Row:      row,
		Column:   col,
		Value:    row[field],
		CellMode: mode,
		HasFocus: s.Focus.IsCell(id, field),
		TabIndex: tabIndex,
	}
}

func (f *Facade) warnMissingColumn(field string) {
	if !f.debug || f.warned {
		return
	}
	f.warned = true
	f.logger.Warn("GetCellValue(%q) called but column %q is not defined; read params.Row[%q] instead", field, field, field)
}

func normalize(id model.RowID) model.RowID {
	if key, err := model.NormalizeID(id); err == nil {
		return key
	}
	return id
}
