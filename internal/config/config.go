// Package config loads gridstorm settings.
//
// Settings come from, in increasing priority: built-in defaults, a TOML or
// YAML file (with includes), an optional .env file, and GRIDSTORM_*
// environment variables. The merged settings are decoded into Config and
// validated before use.
package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/dshills/gridstorm/internal/config/loader"
	"github.com/dshills/gridstorm/internal/model"
)

// Config holds every gridstorm setting.
type Config struct {
	Grid    GridConfig     `toml:"grid" yaml:"grid"`
	Columns []ColumnConfig `toml:"columns" yaml:"columns"`
	Source  SourceConfig   `toml:"source" yaml:"source"`
	Logging LoggingConfig  `toml:"logging" yaml:"logging"`
	Theme   ThemeConfig    `toml:"theme" yaml:"theme"`
}

// GridConfig configures the grid engines.
type GridConfig struct {
	Density      string `toml:"density" yaml:"density"`
	RowHeight    int    `toml:"rowHeight" yaml:"rowHeight"`
	HeaderHeight int    `toml:"headerHeight" yaml:"headerHeight"`

	Pagination   bool `toml:"pagination" yaml:"pagination"`
	PageSize     int  `toml:"pageSize" yaml:"pageSize"`
	MaxPageSize  int  `toml:"maxPageSize" yaml:"maxPageSize"`
	AutoPageSize bool `toml:"autoPageSize" yaml:"autoPageSize"`

	CheckboxSelection             bool `toml:"checkboxSelection" yaml:"checkboxSelection"`
	DisableMultipleSelection      bool `toml:"disableMultipleSelection" yaml:"disableMultipleSelection"`
	DisableSelectionOnClick       bool `toml:"disableSelectionOnClick" yaml:"disableSelectionOnClick"`
	DisableMultipleColumnsSorting bool `toml:"disableMultipleColumnsSorting" yaml:"disableMultipleColumnsSorting"`

	Sort   []model.SortItem `toml:"sort" yaml:"sort"`
	Filter FilterConfig     `toml:"filter" yaml:"filter"`

	RowBuffer          int `toml:"rowBuffer" yaml:"rowBuffer"`
	ColumnBuffer       int `toml:"columnBuffer" yaml:"columnBuffer"`
	ScrollEndThreshold int `toml:"scrollEndThreshold" yaml:"scrollEndThreshold"`

	// Throttle is a duration such as "100ms" that coalesces row notifications.
	Throttle string `toml:"throttle" yaml:"throttle"`

	Debug bool `toml:"debug" yaml:"debug"`
}

// FilterConfig is the initial filter model.
type FilterConfig struct {
	LinkOperator string             `toml:"linkOperator" yaml:"linkOperator"`
	Items        []model.FilterItem `toml:"items" yaml:"items"`
	QuickFilter  string             `toml:"quickFilter" yaml:"quickFilter"`
}

// ColumnConfig declares one column. The hook fields hold Lua function bodies.
type ColumnConfig struct {
	Field         string  `toml:"field" yaml:"field"`
	HeaderName    string  `toml:"headerName" yaml:"headerName"`
	Description   string  `toml:"description" yaml:"description"`
	Type          string  `toml:"type" yaml:"type"`
	Width         int     `toml:"width" yaml:"width"`
	MinWidth      int     `toml:"minWidth" yaml:"minWidth"`
	Flex          float64 `toml:"flex" yaml:"flex"`
	Hide          bool    `toml:"hide" yaml:"hide"`
	Editable      bool    `toml:"editable" yaml:"editable"`
	DisableSort   bool    `toml:"disableSort" yaml:"disableSort"`
	DisableFilter bool    `toml:"disableFilter" yaml:"disableFilter"`
	ValueOptions  []any   `toml:"valueOptions" yaml:"valueOptions"`

	ValueGetter    string `toml:"valueGetter" yaml:"valueGetter"`
	ValueFormatter string `toml:"valueFormatter" yaml:"valueFormatter"`
	ValueParser    string `toml:"valueParser" yaml:"valueParser"`
	Comparator     string `toml:"comparator" yaml:"comparator"`
}

// SourceConfig locates the rows.
type SourceConfig struct {
	// Path is a JSON or YAML file.
	Path string `toml:"path" yaml:"path"`
	// RowsPath is a gjson path to the row array inside a JSON document.
	// Empty means the document is the array.
	RowsPath string `toml:"rowsPath" yaml:"rowsPath"`
	// IDField names the row id field.
	IDField string `toml:"idField" yaml:"idField"`
	// Watch reloads the rows when the file changes.
	Watch bool `toml:"watch" yaml:"watch"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level string `toml:"level" yaml:"level"`
	// File receives log output. Empty means stderr.
	File string `toml:"file" yaml:"file"`
}

// ThemeConfig holds hex colours for the terminal viewer.
type ThemeConfig struct {
	Header     string `toml:"header" yaml:"header"`
	Selected   string `toml:"selected" yaml:"selected"`
	Focused    string `toml:"focused" yaml:"focused"`
	Border     string `toml:"border" yaml:"border"`
	Foreground string `toml:"foreground" yaml:"foreground"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Grid: GridConfig{
			Density:  string(model.DensityStandard),
			PageSize: 100,
			Filter:   FilterConfig{LinkOperator: string(model.LinkAnd)},
		},
		Source:  SourceConfig{IDField: "id"},
		Logging: LoggingConfig{Level: "info"},
		Theme: ThemeConfig{
			Header:     "#5f87af",
			Selected:   "#3a3a3a",
			Focused:    "#d7af5f",
			Border:     "#4e4e4e",
			Foreground: "#d0d0d0",
		},
	}
}

// Options control Load.
type Options struct {
	// Path is the config file. Empty loads defaults and the environment only.
	Path string
	// DotEnv is a .env file applied before the environment is read.
	DotEnv string
	// Env disables environment overrides when false.
	Env bool
}

// Load builds a validated Config.
func Load(opts Options) (*Config, error) {
	merged, err := toMap(Default())
	if err != nil {
		return nil, err
	}

	if opts.Path != "" {
		file, err := loader.NewFileLoader(opts.Path).Load()
		if err != nil {
			return nil, err
		}
		if file == nil {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, opts.Path)
		}
		merged = loader.DeepMerge(merged, file)
	}

	if opts.DotEnv != "" {
		if err := loader.LoadDotEnv(opts.DotEnv); err != nil {
			return nil, fmt.Errorf("loading %s: %w", opts.DotEnv, err)
		}
	}
	if opts.Env {
		env, err := loader.NewEnvLoader(loader.EnvPrefix).Load()
		if err != nil {
			return nil, err
		}
		merged = loader.DeepMerge(merged, env)
	}

	cfg, err := fromMap(merged)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes and validates a config document.
func Parse(format loader.Format, data []byte) (*Config, error) {
	doc, err := loader.Parse(format, "<input>", data)
	if err != nil {
		return nil, err
	}
	merged, err := toMap(Default())
	if err != nil {
		return nil, err
	}
	cfg, err := fromMap(loader.DeepMerge(merged, doc))
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// toMap and fromMap move settings through YAML, which both file formats
// and the environment loader produce compatible maps for.
func toMap(cfg *Config) (map[string]any, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encoding defaults: %w", err)
	}
	out := map[string]any{}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("encoding defaults: %w", err)
	}
	return out, nil
}

func fromMap(m map[string]any) (*Config, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("decoding settings: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTypeMismatch, err)
	}
	return cfg, nil
}
