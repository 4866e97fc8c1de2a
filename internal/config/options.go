package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dshills/gridstorm/internal/grid"
	"github.com/dshills/gridstorm/internal/logging"
	"github.com/dshills/gridstorm/internal/model"
	"github.com/dshills/gridstorm/internal/script"
)

// ModelColumns builds column definitions, compiling hooks with scripts.
// scripts may be nil when no column declares a hook.
func (c *Config) ModelColumns(scripts *script.Engine) ([]*model.Column, error) {
	cols := make([]*model.Column, 0, len(c.Columns))
	for _, cc := range c.Columns {
		col := &model.Column{
			Field:         cc.Field,
			HeaderName:    cc.HeaderName,
			Description:   cc.Description,
			Type:          model.ColumnType(cc.Type),
			Width:         cc.Width,
			MinWidth:      cc.MinWidth,
			Flex:          cc.Flex,
			Hide:          cc.Hide,
			Hideable:      true,
			Editable:      cc.Editable,
			DisableSort:   cc.DisableSort,
			DisableFilter: cc.DisableFilter,
			ValueOptions:  cc.ValueOptions,
		}
		if err := compileHooks(scripts, cc, col); err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return cols, nil
}

func compileHooks(scripts *script.Engine, cc ColumnConfig, col *model.Column) error {
	hooks := []struct {
		kind string
		body string
		set  func(h *script.Hook)
	}{
		{"valueGetter", cc.ValueGetter, func(h *script.Hook) { col.ValueGetter = h.ValueGetter() }},
		{"valueFormatter", cc.ValueFormatter, func(h *script.Hook) { col.ValueFormatter = h.ValueFormatter() }},
		{"valueParser", cc.ValueParser, func(h *script.Hook) { col.ValueParser = h.ValueParser() }},
	}
	for _, hook := range hooks {
		if hook.body == "" {
			continue
		}
		if scripts == nil {
			return fmt.Errorf("column %s: %s needs a script engine", cc.Field, hook.kind)
		}
		h, err := scripts.Compile(cc.Field+"."+hook.kind, hook.body)
		if err != nil {
			return err
		}
		hook.set(h)
	}
	if cc.Comparator != "" {
		if scripts == nil {
			return fmt.Errorf("column %s: comparator needs a script engine", cc.Field)
		}
		h, err := scripts.CompileComparator(cc.Field+".comparator", cc.Comparator)
		if err != nil {
			return err
		}
		col.SortComparator = h.Comparator()
	}
	return nil
}

// HasHooks reports whether any column declares a Lua hook.
func (c *Config) HasHooks() bool {
	for _, cc := range c.Columns {
		if cc.ValueGetter != "" || cc.ValueFormatter != "" || cc.ValueParser != "" || cc.Comparator != "" {
			return true
		}
	}
	return false
}

// GridOptions builds grid props. Rows are left to the caller.
func (c *Config) GridOptions(scripts *script.Engine, logger *logging.Logger) (grid.Options, error) {
	cols, err := c.ModelColumns(scripts)
	if err != nil {
		return grid.Options{}, err
	}
	g := c.Grid

	var throttle time.Duration
	if g.Throttle != "" {
		if throttle, err = time.ParseDuration(g.Throttle); err != nil {
			return grid.Options{}, fmt.Errorf("grid.throttle: %w", err)
		}
	}

	opts := grid.Options{
		Columns:                       cols,
		Density:                       model.Density(g.Density),
		RowHeight:                     g.RowHeight,
		HeaderHeight:                  g.HeaderHeight,
		Pagination:                    g.Pagination,
		AutoPageSize:                  g.AutoPageSize,
		MaxPageSize:                   g.MaxPageSize,
		CheckboxSelection:             g.CheckboxSelection,
		DisableMultipleSelection:      g.DisableMultipleSelection,
		DisableSelectionOnClick:       g.DisableSelectionOnClick,
		DisableMultipleColumnsSorting: g.DisableMultipleColumnsSorting,
		RowBuffer:                     g.RowBuffer,
		ColumnBuffer:                  g.ColumnBuffer,
		ScrollEndThreshold:            g.ScrollEndThreshold,
		RowsUpdateThrottle:            throttle,
		Logger:                        logger,
		Debug:                         g.Debug,
	}
	if g.PageSize > 0 {
		size := g.PageSize
		opts.PageSize = &size
	}
	if c.Source.IDField != "" && c.Source.IDField != "id" {
		field := c.Source.IDField
		opts.GetRowID = func(row model.Row) any { return row[field] }
	}
	return opts, nil
}

// InitialModels returns the configured sort and filter models. They are
// applied after the grid is built so that the grid owns them afterwards.
func (c *Config) InitialModels() (model.SortModel, model.FilterModel) {
	sortModel := model.SortModel(append([]model.SortItem(nil), c.Grid.Sort...))
	filterModel := model.FilterModel{
		Items:        append([]model.FilterItem(nil), c.Grid.Filter.Items...),
		LinkOperator: model.LinkOperator(c.Grid.Filter.LinkOperator),
	}
	return sortModel, filterModel
}

// NewLogger builds the configured logger. The returned closer releases the
// log file, if any.
func (c *Config) NewLogger() (*logging.Logger, io.Closer, error) {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.ParseLevel(c.Logging.Level)
	if c.Logging.File == "" {
		return logging.New(cfg), io.NopCloser(nil), nil
	}
	f, err := os.OpenFile(c.Logging.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	cfg.Output = f
	return logging.New(cfg), f, nil
}
