package model

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the grid engines.
var (
	// ErrInvalidRowID is returned when a row has a missing or unusable id.
	ErrInvalidRowID = errors.New("invalid row id")

	// ErrDuplicateRowID is returned when two rows share an id.
	ErrDuplicateRowID = errors.New("duplicate row id")

	// ErrRowNotFound is returned when an id does not address a row.
	ErrRowNotFound = errors.New("row not found")

	// ErrColumnNotFound is returned when a field does not address a column.
	ErrColumnNotFound = errors.New("column not found")
)

// RowIDError describes the row that failed id validation.
type RowIDError struct {
	// Index is the position of the row in the input.
	Index int
	// Row is the offending row.
	Row Row
	// Detail is an optional caller-facing hint.
	Detail string
	// Err is ErrInvalidRowID or ErrDuplicateRowID.
	Err error
}

func (e *RowIDError) Error() string {
	msg := fmt.Sprintf("row %d: %v", e.Index, e.Err)
	if e.Detail != "" {
		msg = e.Detail + " " + msg
	}
	return fmt.Sprintf("%s (row: %v); set a unique id field or provide a row id getter", msg, e.Row)
}

func (e *RowIDError) Unwrap() error {
	return e.Err
}

// NotFoundError names the missing row id or column field.
type NotFoundError struct {
	ID    RowID
	Field string
	Err   error
}

// RowNotFound builds a NotFoundError for a row id.
func RowNotFound(id RowID) *NotFoundError {
	return &NotFoundError{ID: id, Err: ErrRowNotFound}
}

// ColumnNotFound builds a NotFoundError for a column field.
func ColumnNotFound(field string) *NotFoundError {
	return &NotFoundError{Field: field, Err: ErrColumnNotFound}
}

func (e *NotFoundError) Error() string {
	if e.Field != "" && e.ID == nil {
		return fmt.Sprintf("%v: %q", e.Err, e.Field)
	}
	if e.Field != "" {
		return fmt.Sprintf("%v: id %v field %q", e.Err, e.ID, e.Field)
	}
	return fmt.Sprintf("%v: #%v", e.Err, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}
