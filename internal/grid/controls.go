package grid

import (
	"github.com/dshills/gridstorm/internal/event/events"
	"github.com/dshills/gridstorm/internal/model"
	"github.com/dshills/gridstorm/internal/state"
)

// Control state ids.
const (
	ControlSortModel      = "sortModel"
	ControlFilterModel    = "filterModel"
	ControlSelectionModel = "selectionModel"
	ControlEditRowsModel  = "editRowsModel"
	ControlPage           = "page"
	ControlPageSize       = "pageSize"
)

// registerControls binds every model partition to its prop and callback.
// Re-registering replaces the previous bindings, so new props take effect on
// the next update.
func (g *Grid) registerControls(o Options) {
	for _, item := range g.controlItems(o) {
		g.store.UpdateControlState(item)
	}
}

func (g *Grid) controlItems(o Options) []state.ControlItem {
	return []state.ControlItem{
		state.Bind(ControlSortModel, o.SortModel,
			func(s *state.State) model.SortModel { return s.Sorting.SortModel },
			o.OnSortModelChange, events.TopicSortModelChanged,
			func(m model.SortModel) any { return events.SortModelChanged{Model: m} }),
		state.Bind(ControlFilterModel, o.FilterModel,
			func(s *state.State) model.FilterModel { return s.Filter.Model },
			o.OnFilterModelChange, events.TopicFilterModelChanged,
			func(m model.FilterModel) any { return events.FilterModelChanged{Model: m} }),
		state.Bind(ControlSelectionModel, o.SelectionModel,
			func(s *state.State) model.SelectionModel { return s.Selection },
			o.OnSelectionModelChange, events.TopicSelectionChanged,
			func(m model.SelectionModel) any { return events.SelectionChanged{Model: m} }),
		state.Bind(ControlEditRowsModel, o.EditRowsModel,
			func(s *state.State) model.EditRowsModel { return s.EditRows },
			o.OnEditRowsModelChange, events.TopicEditRowsModelChanged,
			func(m model.EditRowsModel) any { return events.EditRowsModelChanged{Model: m} }),
		state.Bind(ControlPage, o.Page,
			func(s *state.State) int { return s.Pagination.Page },
			o.OnPageChange, events.TopicPageChanged,
			g.pageChanged),
		state.Bind(ControlPageSize, o.PageSize,
			func(s *state.State) int { return s.Pagination.PageSize },
			o.OnPageSizeChange, events.TopicPageSizeChanged,
			func(size int) any { return events.PageSizeChanged{PageSize: size} }),
	}
}

func (g *Grid) pageChanged(page int) any {
	p := g.store.State().Pagination
	return events.PageChanged{Page: page, PageCount: p.PageCount, PageSize: p.PageSize, RowCount: p.RowCount}
}
