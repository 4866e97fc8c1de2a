package sorting

import (
	"fmt"

	"github.com/spf13/cast"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/dshills/gridstorm/internal/model"
)

// ComparatorFor returns the default comparator for a column type.
func ComparatorFor(t model.ColumnType) model.Comparator {
	switch t {
	case model.ColumnNumber:
		return NumberComparator
	case model.ColumnDate, model.ColumnDateTime:
		return DateComparator
	case model.ColumnBoolean:
		return BooleanComparator
	default:
		return StringComparator(language.Und)
	}
}

// compareNil orders nil before any value. ok is false when neither is nil.
func compareNil(v1, v2 any) (int, bool) {
	switch {
	case v1 == nil && v2 == nil:
		return 0, true
	case v1 == nil:
		return -1, true
	case v2 == nil:
		return 1, true
	}
	return 0, false
}

// StringComparator compares values as strings with the collation rules of
// tag. Non-string numbers are compared numerically.
func StringComparator(tag language.Tag) model.Comparator {
	col := collate.New(tag)
	return func(v1, v2 any, _, _ model.SortCellParams) int {
		if r, ok := compareNil(v1, v2); ok {
			return r
		}
		s1, ok1 := v1.(string)
		s2, ok2 := v2.(string)
		if !ok1 || !ok2 {
			if r, ok := compareNumbers(v1, v2); ok {
				return r
			}
			s1, s2 = fmt.Sprint(v1), fmt.Sprint(v2)
		}
		return col.CompareString(s1, s2)
	}
}

// NumberComparator compares values numerically, falling back to their string
// form when either is not a number.
func NumberComparator(v1, v2 any, _, _ model.SortCellParams) int {
	if r, ok := compareNil(v1, v2); ok {
		return r
	}
	if r, ok := compareNumbers(v1, v2); ok {
		return r
	}
	return compareStrings(fmt.Sprint(v1), fmt.Sprint(v2))
}

// DateComparator compares time values or strings that parse as times.
func DateComparator(v1, v2 any, _, _ model.SortCellParams) int {
	if r, ok := compareNil(v1, v2); ok {
		return r
	}
	t1, err1 := cast.ToTimeE(v1)
	t2, err2 := cast.ToTimeE(v2)
	if err1 != nil || err2 != nil {
		return compareStrings(fmt.Sprint(v1), fmt.Sprint(v2))
	}
	return t1.Compare(t2)
}

// BooleanComparator orders false before true.
func BooleanComparator(v1, v2 any, _, _ model.SortCellParams) int {
	if r, ok := compareNil(v1, v2); ok {
		return r
	}
	b1, err1 := cast.ToBoolE(v1)
	b2, err2 := cast.ToBoolE(v2)
	if err1 != nil || err2 != nil {
		return compareStrings(fmt.Sprint(v1), fmt.Sprint(v2))
	}
	switch {
	case b1 == b2:
		return 0
	case !b1:
		return -1
	default:
		return 1
	}
}

func compareNumbers(v1, v2 any) (int, bool) {
	f1, err1 := cast.ToFloat64E(v1)
	f2, err2 := cast.ToFloat64E(v2)
	if err1 != nil || err2 != nil {
		return 0, false
	}
	switch {
	case f1 < f2:
		return -1, true
	case f1 > f2:
		return 1, true
	}
	return 0, true
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
