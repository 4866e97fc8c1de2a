package filter

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/dshills/gridstorm/internal/model"
)

// Operator values.
const (
	OpContains   = "contains"
	OpEquals     = "equals"
	OpStartsWith = "startsWith"
	OpEndsWith   = "endsWith"
	OpIsEmpty    = "isEmpty"
	OpIsNotEmpty = "isNotEmpty"

	OpEq  = "="
	OpNeq = "!="
	OpGt  = ">"
	OpGte = ">="
	OpLt  = "<"
	OpLte = "<="

	OpIs         = "is"
	OpNot        = "not"
	OpAfter      = "after"
	OpOnOrAfter  = "onOrAfter"
	OpBefore     = "before"
	OpOnOrBefore = "onOrBefore"
)

// OperatorsFor returns the default operator catalogue of a column type.
func OperatorsFor(t model.ColumnType) []model.FilterOperator {
	switch t {
	case model.ColumnNumber:
		return NumericOperators()
	case model.ColumnDate:
		return DateOperators(false)
	case model.ColumnDateTime:
		return DateOperators(true)
	case model.ColumnBoolean:
		return BooleanOperators()
	case model.ColumnSingleSelect:
		return SingleSelectOperators()
	default:
		return StringOperators()
	}
}

// StringOperators matches case-insensitively against the value's string form.
func StringOperators() []model.FilterOperator {
	return []model.FilterOperator{
		{Label: "contains", Value: OpContains, GetApplyFilterFn: regexFilter("%s")},
		{Label: "equals", Value: OpEquals, GetApplyFilterFn: func(item model.FilterItem, _ *model.Column) model.CellPredicate {
			if isBlank(item.Value) {
				return nil
			}
			want := cast.ToString(item.Value)
			return func(p model.CellParams) bool {
				return p.Value != nil && strings.EqualFold(cast.ToString(p.Value), want)
			}
		}},
		{Label: "starts with", Value: OpStartsWith, GetApplyFilterFn: regexFilter("^%s")},
		{Label: "ends with", Value: OpEndsWith, GetApplyFilterFn: regexFilter("%s$")},
		{Label: "is empty", Value: OpIsEmpty, GetApplyFilterFn: emptyFilter(true)},
		{Label: "is not empty", Value: OpIsNotEmpty, GetApplyFilterFn: emptyFilter(false)},
	}
}

func regexFilter(format string) func(model.FilterItem, *model.Column) model.CellPredicate {
	return func(item model.FilterItem, _ *model.Column) model.CellPredicate {
		if isBlank(item.Value) {
			return nil
		}
		re := regexp.MustCompile("(?i)" + fmt.Sprintf(format, regexp.QuoteMeta(cast.ToString(item.Value))))
		return func(p model.CellParams) bool {
			if p.Value == nil {
				return false
			}
			return re.MatchString(cast.ToString(p.Value))
		}
	}
}

func emptyFilter(want bool) func(model.FilterItem, *model.Column) model.CellPredicate {
	return func(model.FilterItem, *model.Column) model.CellPredicate {
		return func(p model.CellParams) bool {
			return isBlank(p.Value) == want
		}
	}
}

// NumericOperators compares values as float64.
func NumericOperators() []model.FilterOperator {
	compare := func(op string, test func(a, b float64) bool) model.FilterOperator {
		return model.FilterOperator{
			Label: op,
			Value: op,
			GetApplyFilterFn: func(item model.FilterItem, _ *model.Column) model.CellPredicate {
				if isBlank(item.Value) {
					return nil
				}
				want, err := cast.ToFloat64E(item.Value)
				if err != nil {
					return nil
				}
				return func(p model.CellParams) bool {
					if p.Value == nil {
						return false
					}
					got, err := cast.ToFloat64E(p.Value)
					return err == nil && test(got, want)
				}
			},
		}
	}
	return []model.FilterOperator{
		compare(OpEq, func(a, b float64) bool { return a == b }),
		compare(OpNeq, func(a, b float64) bool { return a != b }),
		compare(OpGt, func(a, b float64) bool { return a > b }),
		compare(OpGte, func(a, b float64) bool { return a >= b }),
		compare(OpLt, func(a, b float64) bool { return a < b }),
		compare(OpLte, func(a, b float64) bool { return a <= b }),
		{Label: "is empty", Value: OpIsEmpty, GetApplyFilterFn: emptyFilter(true)},
		{Label: "is not empty", Value: OpIsNotEmpty, GetApplyFilterFn: emptyFilter(false)},
	}
}

// DateOperators compares values as times. Without withTime, only the
// calendar day of each value is compared.
func DateOperators(withTime bool) []model.FilterOperator {
	compare := func(op, label string, test func(c int) bool) model.FilterOperator {
		return model.FilterOperator{
			Label: label,
			Value: op,
			GetApplyFilterFn: func(item model.FilterItem, _ *model.Column) model.CellPredicate {
				if isBlank(item.Value) {
					return nil
				}
				want, err := cast.ToTimeE(item.Value)
				if err != nil {
					return nil
				}
				want = truncate(want, withTime)
				return func(p model.CellParams) bool {
					if p.Value == nil {
						return false
					}
					got, err := cast.ToTimeE(p.Value)
					if err != nil {
						return false
					}
					return test(truncate(got, withTime).Compare(want))
				}
			},
		}
	}
	return []model.FilterOperator{
		compare(OpIs, "is", func(c int) bool { return c == 0 }),
		compare(OpNot, "is not", func(c int) bool { return c != 0 }),
		compare(OpAfter, "is after", func(c int) bool { return c > 0 }),
		compare(OpOnOrAfter, "is on or after", func(c int) bool { return c >= 0 }),
		compare(OpBefore, "is before", func(c int) bool { return c < 0 }),
		compare(OpOnOrBefore, "is on or before", func(c int) bool { return c <= 0 }),
		{Label: "is empty", Value: OpIsEmpty, GetApplyFilterFn: emptyFilter(true)},
		{Label: "is not empty", Value: OpIsNotEmpty, GetApplyFilterFn: emptyFilter(false)},
	}
}

func truncate(t time.Time, withTime bool) time.Time {
	if withTime {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// BooleanOperators matches "true"/"false" item values.
func BooleanOperators() []model.FilterOperator {
	return []model.FilterOperator{
		{Label: "is", Value: OpIs, GetApplyFilterFn: func(item model.FilterItem, _ *model.Column) model.CellPredicate {
			if isBlank(item.Value) {
				return nil
			}
			want, err := cast.ToBoolE(item.Value)
			if err != nil {
				return nil
			}
			return func(p model.CellParams) bool {
				return cast.ToBool(p.Value) == want
			}
		}},
	}
}

// SingleSelectOperators compares the value's string form with the item's.
func SingleSelectOperators() []model.FilterOperator {
	match := func(op, label string, want bool) model.FilterOperator {
		return model.FilterOperator{
			Label: label,
			Value: op,
			GetApplyFilterFn: func(item model.FilterItem, _ *model.Column) model.CellPredicate {
				if isBlank(item.Value) {
					return nil
				}
				target := cast.ToString(item.Value)
				return func(p model.CellParams) bool {
					return (cast.ToString(p.Value) == target) == want
				}
			},
		}
	}
	return []model.FilterOperator{
		match(OpIs, "is", true),
		match(OpNot, "is not", false),
	}
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	return false
}
