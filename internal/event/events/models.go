package events

import (
	"github.com/dshills/gridstorm/internal/event/topic"
	"github.com/dshills/gridstorm/internal/model"
)

// Model change topics.
const (
	// TopicSortModelChanged is emitted after the sort model changed.
	TopicSortModelChanged topic.Topic = "sort.model.changed"

	// TopicFilterModelChanged is emitted after the filter model changed.
	TopicFilterModelChanged topic.Topic = "filter.model.changed"

	// TopicSelectionChanged is emitted after the selection changed.
	TopicSelectionChanged topic.Topic = "selection.changed"

	// TopicEditRowsModelChanged is emitted after the edit rows model changed.
	TopicEditRowsModelChanged topic.Topic = "edit.rows.model.changed"

	// TopicPageChanged is emitted after the current page changed.
	TopicPageChanged topic.Topic = "page.changed"

	// TopicPageSizeChanged is emitted after the page size changed.
	TopicPageSizeChanged topic.Topic = "page.size.changed"
)

// SortModelChanged carries the new sort model.
type SortModelChanged struct {
	Model model.SortModel
}

// FilterModelChanged carries the new filter model.
type FilterModelChanged struct {
	Model model.FilterModel
}

// SelectionChanged carries the new selection.
type SelectionChanged struct {
	Model model.SelectionModel
}

// EditRowsModelChanged carries the new edit rows model.
type EditRowsModelChanged struct {
	Model model.EditRowsModel
}

// PageChanged carries the new page.
type PageChanged struct {
	Page      int
	PageCount int
	PageSize  int
	RowCount  int
}

// PageSizeChanged carries the new page size.
type PageSizeChanged struct {
	PageSize int
}
