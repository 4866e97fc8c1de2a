package grid

import (
	"time"

	"github.com/dshills/gridstorm/internal/columns"
	"github.com/dshills/gridstorm/internal/editing"
	"github.com/dshills/gridstorm/internal/event"
	"github.com/dshills/gridstorm/internal/event/events"
	"github.com/dshills/gridstorm/internal/logging"
	"github.com/dshills/gridstorm/internal/model"
	"github.com/dshills/gridstorm/internal/params"
	"github.com/dshills/gridstorm/internal/rows"
	"github.com/dshills/gridstorm/internal/selection"
	"github.com/dshills/gridstorm/internal/state"
)

// Options are the declarative grid props. A nil model pointer leaves that
// model to the grid; a non-nil pointer makes the caller its owner, and the
// grid only reports attempted changes through the matching callback.
type Options struct {
	Rows     []model.Row
	Columns  []*model.Column
	GetRowID model.RowIDGetter

	// RowCount is the server-side total when rows are loaded lazily.
	RowCount int

	SortModel              *model.SortModel
	OnSortModelChange      func(model.SortModel)
	FilterModel            *model.FilterModel
	OnFilterModelChange    func(model.FilterModel)
	SelectionModel         *model.SelectionModel
	OnSelectionModelChange func(model.SelectionModel)
	EditRowsModel          *model.EditRowsModel
	OnEditRowsModelChange  func(model.EditRowsModel)

	Pagination       bool
	PaginationMode   model.FeatureMode
	Page             *int
	OnPageChange     func(page int)
	PageSize         *int
	OnPageSizeChange func(size int)
	AutoPageSize     bool
	MaxPageSize      int

	SortingMode                     model.FeatureMode
	FilterMode                      model.FeatureMode
	SortingOrder                    []model.SortDirection
	DisableMultipleColumnsSorting   bool
	DisableMultipleColumnsFiltering bool

	CheckboxSelection            bool
	CheckboxSelectionVisibleOnly bool
	DisableMultipleSelection     bool
	DisableSelectionOnClick      bool
	IsRowSelectable              selection.RowSelectablePredicate

	IsCellEditable      params.CellEditablePredicate
	IsWithinLogicalCell editing.WithinLogicalCellPredicate

	DisableColumnResize  bool
	DisableColumnReorder bool
	Capabilities         columns.Capabilities

	// RowHeight and HeaderHeight are the standard density heights.
	RowHeight    int
	HeaderHeight int
	Density      model.Density

	RowBuffer          int
	ColumnBuffer       int
	ScrollEndThreshold int

	// RowsUpdateThrottle coalesces row notifications. Pending notifications
	// are delivered by Tick or Flush.
	RowsUpdateThrottle time.Duration
	Clock              rows.Clock

	OnCellEditCommit func(events.CellEditCommitted)
	OnRowsScrollEnd  func(events.RowsScrollEnd)
	OnStateChange    func(s *state.State)

	Logger *logging.Logger

	// Debug turns on diagnostics that are too noisy for production: listener
	// leak warnings, undeclared column warnings, multi-partition updates.
	Debug bool
}

func (o Options) withDefaults() Options {
	if o.RowHeight <= 0 {
		o.RowHeight = state.DefaultRowHeight
	}
	if o.HeaderHeight <= 0 {
		o.HeaderHeight = state.DefaultHeaderHeight
	}
	if o.Density == "" {
		o.Density = model.DensityStandard
	}
	if o.SortingMode == "" {
		o.SortingMode = model.ModeClient
	}
	if o.FilterMode == "" {
		o.FilterMode = model.ModeClient
	}
	if o.PaginationMode == "" {
		o.PaginationMode = model.ModeClient
	}
	if o.Logger == nil {
		o.Logger = logging.Nop()
	}
	return o
}

// Option configures grid construction.
type Option func(*buildConfig)

type buildConfig struct {
	bus     *event.Bus
	busOpts []event.BusOption
}

// WithBus makes the grid use bus, so a host can subscribe before the initial
// rows are set.
func WithBus(bus *event.Bus) Option {
	return func(c *buildConfig) {
		c.bus = bus
	}
}

// WithBusOptions passes options to the bus the grid creates.
func WithBusOptions(opts ...event.BusOption) Option {
	return func(c *buildConfig) {
		c.busOpts = append(c.busOpts, opts...)
	}
}

func (o Options) rowsOptions() rows.Options {
	return rows.Options{
		GetRowID: o.GetRowID,
		RowCount: o.RowCount,
		Throttle: o.RowsUpdateThrottle,
		Clock:    o.Clock,
	}
}

func (o Options) columnsOptions() columns.Options {
	return columns.Options{
		DisableColumnResize:  o.DisableColumnResize,
		DisableColumnReorder: o.DisableColumnReorder,
		Capabilities:         o.Capabilities,
	}
}

func (o Options) editingOptions() editing.Options {
	return editing.Options{IsWithinLogicalCell: o.IsWithinLogicalCell}
}
