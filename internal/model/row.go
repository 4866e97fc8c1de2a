package model

import (
	"fmt"
	"reflect"

	"github.com/spf13/cast"
)

// RowID identifies a row. Integer ids of any width (and whole floats, as
// produced by JSON decoding) are normalised to int64 so that 1, int32(1) and
// 1.0 address the same row.
type RowID any

// Row is a caller-supplied record.
type Row map[string]any

// ActionKey is the patch field that marks a row for removal in UpdateRows.
const ActionKey = "_action"

// ActionDelete is the ActionKey value that deletes a row.
const ActionDelete = "delete"

// IsDelete reports whether the patch carries the delete marker.
func (r Row) IsDelete() bool {
	v, ok := r[ActionKey]
	if !ok {
		return false
	}
	s, ok := v.(string)
	return ok && s == ActionDelete
}

// Merge returns a new row holding r's fields overwritten by patch's fields.
func (r Row) Merge(patch Row) Row {
	out := make(Row, len(r)+len(patch))
	for k, v := range r {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// RowIDGetter extracts the id of a row.
type RowIDGetter func(row Row) any

// DefaultRowIDGetter reads the "id" field.
func DefaultRowIDGetter(row Row) any {
	return row["id"]
}

// NormalizeID validates a raw id and returns its canonical form.
func NormalizeID(v any) (RowID, error) {
	if v == nil {
		return nil, ErrInvalidRowID
	}
	switch id := v.(type) {
	case string:
		return id, nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		n, err := cast.ToInt64E(id)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRowID, err)
		}
		return n, nil
	case float32, float64:
		f := cast.ToFloat64(id)
		if f == float64(int64(f)) {
			return int64(f), nil
		}
		return f, nil
	}
	if !reflect.TypeOf(v).Comparable() {
		return nil, fmt.Errorf("%w: %T is not comparable", ErrInvalidRowID, v)
	}
	return v, nil
}

// MustID normalises a literal id and panics on failure. Intended for tests
// and static tables.
func MustID(v any) RowID {
	id, err := NormalizeID(v)
	if err != nil {
		panic(err)
	}
	return id
}

// IDs normalises a list of literal ids, dropping invalid ones.
func IDs(vs ...any) []RowID {
	out := make([]RowID, 0, len(vs))
	for _, v := range vs {
		if id, err := NormalizeID(v); err == nil {
			out = append(out, id)
		}
	}
	return out
}

// RowEntry pairs a row with its id, preserving order in slices.
type RowEntry struct {
	ID  RowID
	Row Row
}
