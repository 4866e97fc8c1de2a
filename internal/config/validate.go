package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/dshills/gridstorm/internal/filter"
	"github.com/dshills/gridstorm/internal/model"
)

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	v := &ValidationError{}
	c.validateGrid(v)
	c.validateColumns(v)
	c.validateTheme(v)

	if c.Logging.Level != "" && !validLevel(c.Logging.Level) {
		v.add("logging.level", "must be debug, info, warn or error", c.Logging.Level)
	}
	if c.Source.Watch && c.Source.Path == "" {
		v.add("source.watch", "requires source.path", nil)
	}

	if len(v.Fields) > 0 {
		return v
	}
	return nil
}

func (c *Config) validateGrid(v *ValidationError) {
	g := c.Grid
	switch model.Density(g.Density) {
	case model.DensityCompact, model.DensityStandard, model.DensityComfortable:
	default:
		v.add("grid.density", "must be compact, standard or comfortable", g.Density)
	}
	for _, s := range []struct {
		path string
		n    int
	}{
		{"grid.rowHeight", g.RowHeight},
		{"grid.headerHeight", g.HeaderHeight},
		{"grid.maxPageSize", g.MaxPageSize},
		{"grid.scrollEndThreshold", g.ScrollEndThreshold},
	} {
		if s.n < 0 {
			v.add(s.path, "must not be negative", s.n)
		}
	}
	if g.PageSize < 1 {
		v.add("grid.pageSize", "must be at least 1", g.PageSize)
	} else if g.MaxPageSize > 0 && g.PageSize > g.MaxPageSize {
		v.add("grid.pageSize", fmt.Sprintf("must not exceed grid.maxPageSize (%d)", g.MaxPageSize), g.PageSize)
	}
	if g.Throttle != "" {
		if d, err := time.ParseDuration(g.Throttle); err != nil || d < 0 {
			v.add("grid.throttle", "must be a non-negative duration such as 100ms", g.Throttle)
		}
	}

	types := make(map[string]model.ColumnType, len(c.Columns))
	for _, col := range c.Columns {
		types[col.Field] = model.ColumnType(col.Type)
	}
	known := func(field string) bool {
		_, ok := types[field]
		return len(types) == 0 || ok
	}

	for i, item := range g.Sort {
		path := fmt.Sprintf("grid.sort[%d]", i)
		if !known(item.Field) {
			v.add(path+".field", "unknown column", item.Field)
		}
		switch item.Sort {
		case model.SortAsc, model.SortDesc:
		default:
			v.add(path+".sort", "must be asc or desc", item.Sort)
		}
	}

	switch model.LinkOperator(g.Filter.LinkOperator) {
	case "", model.LinkAnd, model.LinkOr:
	default:
		v.add("grid.filter.linkOperator", "must be and or or", g.Filter.LinkOperator)
	}
	for i, item := range g.Filter.Items {
		path := fmt.Sprintf("grid.filter.items[%d]", i)
		if !known(item.ColumnField) {
			v.add(path+".column", "unknown column", item.ColumnField)
		}
		if !hasOperator(types[item.ColumnField], item.OperatorValue) {
			v.add(path+".operator", "unknown operator for the column type", item.OperatorValue)
		}
	}
}

func (c *Config) validateColumns(v *ValidationError) {
	seen := make(map[string]bool, len(c.Columns))
	for i, col := range c.Columns {
		path := fmt.Sprintf("columns[%d]", i)
		switch {
		case col.Field == "":
			v.add(path+".field", "is required", nil)
		case seen[col.Field]:
			v.add(path+".field", "duplicate field", col.Field)
		}
		seen[col.Field] = true

		if col.Type != "" && !model.ColumnType(col.Type).Valid() {
			v.add(path+".type", "unknown column type", col.Type)
		}
		if col.Width < 0 || col.MinWidth < 0 || col.Flex < 0 {
			v.add(path, "widths and flex must not be negative", nil)
		}
	}
}

func (c *Config) validateTheme(v *ValidationError) {
	for _, t := range []struct{ path, hex string }{
		{"theme.header", c.Theme.Header},
		{"theme.selected", c.Theme.Selected},
		{"theme.focused", c.Theme.Focused},
		{"theme.border", c.Theme.Border},
		{"theme.foreground", c.Theme.Foreground},
	} {
		if t.hex == "" {
			continue
		}
		if _, err := colorful.Hex(t.hex); err != nil {
			v.add(t.path, "must be a hex colour such as #5f87af", t.hex)
		}
	}
}

func validLevel(level string) bool {
	switch strings.ToLower(level) {
	case "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

func hasOperator(t model.ColumnType, op string) bool {
	if t == "" {
		t = model.ColumnString
	}
	for _, o := range filter.OperatorsFor(t) {
		if o.Value == op {
			return true
		}
	}
	return false
}
