package cli

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cast"

	"github.com/dshills/gridstorm/internal/config"
	"github.com/dshills/gridstorm/internal/grid"
	"github.com/dshills/gridstorm/internal/logging"
	"github.com/dshills/gridstorm/internal/model"
	"github.com/dshills/gridstorm/internal/script"
	"github.com/dshills/gridstorm/internal/source"
)

// ErrNoSource is returned when neither an argument nor source.path names a
// rows file.
var ErrNoSource = errors.New("no rows file: pass one or set source.path")

// session is a loaded config, rows file and grid.
type session struct {
	cfg     *config.Config
	logger  *logging.Logger
	scripts *script.Engine
	file    *source.File
	grid    *grid.Grid

	closers []func()
}

type sessionOptions struct {
	// quiet drops log output unless a log file is configured or
	// --verbose is set.
	quiet bool
	// screen drops log output unless a log file is configured, even with
	// --verbose.
	screen bool
	// editable marks inferred columns editable.
	editable bool
	// configure adjusts the grid props before the grid is built.
	configure func(*grid.Options)
}

func openSession(root *RootOptions, args []string, so sessionOptions) (*session, error) {
	cfg, err := config.Load(config.Options{Path: root.ConfigPath, DotEnv: root.DotEnv, Env: !root.NoEnv})
	if err != nil {
		return nil, err
	}
	if len(args) > 0 {
		cfg.Source.Path = args[0]
	}
	if cfg.Source.Path == "" {
		return nil, ErrNoSource
	}

	s := &session{cfg: cfg}
	ok := false
	defer func() {
		if !ok {
			s.Close()
		}
	}()

	logger, closer, err := cfg.NewLogger()
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, func() { _ = closer.Close() })
	if root.Verbose {
		logger.SetLevel(logging.LevelDebug)
	}
	if cfg.Logging.File == "" && (so.screen || so.quiet && !root.Verbose) {
		logger.Disable()
	}
	s.logger = logger

	if cfg.HasHooks() {
		s.scripts = script.New(script.WithLogger(logger.WithComponent("script")))
		s.closers = append(s.closers, s.scripts.Close)
	}

	s.file, err = source.Open(cfg.Source.Path, source.Options{RowsPath: cfg.Source.RowsPath, IDField: cfg.Source.IDField})
	if err != nil {
		return nil, err
	}
	rows, err := s.file.Rows()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.Source.Path, err)
	}

	opts, err := cfg.GridOptions(s.scripts, logger)
	if err != nil {
		return nil, err
	}
	opts.Rows = rows
	if len(opts.Columns) == 0 {
		opts.Columns = inferColumns(rows, idField(cfg), so.editable)
	}
	if so.configure != nil {
		so.configure(&opts)
	}

	s.grid, err = grid.New(opts)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, s.grid.Close)

	sortModel, filterModel := cfg.InitialModels()
	if len(sortModel) > 0 {
		s.grid.SetSortModel(sortModel)
	}
	if len(filterModel.Items) > 0 {
		s.grid.SetFilterModel(filterModel)
	}

	ok = true
	return s, nil
}

// Close releases the grid, the script engine and the log file.
func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// reload re-reads the rows file into the grid.
func (s *session) reload(g *grid.Grid) error {
	if err := s.file.Reload(); err != nil {
		return err
	}
	rows, err := s.file.Rows()
	if err != nil {
		return err
	}
	return g.SetRows(rows)
}

// writeBack stores committed edits in the rows file.
func (s *session) writeBack(save bool) func(id model.RowID, field string, value any) error {
	return func(id model.RowID, field string, value any) error {
		if err := s.file.SetCell(id, field, value); err != nil {
			return err
		}
		if !save {
			return nil
		}
		return s.file.Save()
	}
}

func idField(cfg *config.Config) string {
	if cfg.Source.IDField != "" {
		return cfg.Source.IDField
	}
	return "id"
}

// inferColumns derives columns from the fields of the rows, id first and
// the rest sorted by name.
func inferColumns(rows []model.Row, id string, editable bool) []*model.Column {
	types := make(map[string]model.ColumnType)
	decided := make(map[string]bool)
	for _, row := range rows {
		for field, v := range row {
			if field == model.ActionKey {
				continue
			}
			if _, ok := types[field]; !ok {
				types[field] = model.ColumnString
			}
			if !decided[field] && v != nil {
				types[field] = inferType(v)
				decided[field] = true
			}
		}
	}

	fields := make([]string, 0, len(types))
	for field := range types {
		if field != id {
			fields = append(fields, field)
		}
	}
	slices.Sort(fields)
	if _, ok := types[id]; ok {
		fields = append([]string{id}, fields...)
	}

	cols := make([]*model.Column, 0, len(fields))
	for _, field := range fields {
		cols = append(cols, &model.Column{
			Field:    field,
			Type:     types[field],
			Hideable: true,
			Editable: editable && field != id,
		})
	}
	return cols
}

func inferType(v any) model.ColumnType {
	switch v.(type) {
	case bool:
		return model.ColumnBoolean
	case float32, float64, int, int32, int64:
		return model.ColumnNumber
	}
	return model.ColumnString
}

// coerce converts typed text to the column's value type. ok is false when
// the text is not a valid value.
func coerce(col *model.Column, text string) (any, bool) {
	switch col.Type {
	case model.ColumnNumber:
		f, err := cast.ToFloat64E(text)
		if err != nil {
			return text, false
		}
		if f == float64(int64(f)) {
			return int64(f), true
		}
		return f, true
	case model.ColumnBoolean:
		b, err := cast.ToBoolE(text)
		if err != nil {
			return text, false
		}
		return b, true
	}
	return text, true
}

// parseID reads a row id typed on the command line.
func parseID(text string) model.RowID {
	if n, err := cast.ToInt64E(text); err == nil {
		return n
	}
	return text
}
