package events

import (
	"github.com/dshills/gridstorm/internal/event/topic"
	"github.com/dshills/gridstorm/internal/model"
)

// Row and state topics.
const (
	// TopicStateChanged is emitted after every installed state update.
	TopicStateChanged topic.Topic = "state.changed"

	// TopicRowsSet is emitted after rows were replaced wholesale.
	TopicRowsSet topic.Topic = "rows.set"

	// TopicRowsCleared is emitted before existing rows are replaced.
	TopicRowsCleared topic.Topic = "rows.cleared"

	// TopicRowsUpdated is emitted after rows were patched, added or deleted.
	TopicRowsUpdated topic.Topic = "rows.updated"

	// TopicRowsScrollEnd is emitted when the viewport nears the last row.
	TopicRowsScrollEnd topic.Topic = "rows.scroll.end"

	// TopicRowClicked is emitted by a host when a row is clicked.
	TopicRowClicked topic.Topic = "row.clicked"
)

// RowsSet is emitted after SetRows installed new rows.
type RowsSet struct {
	// IDs are the row ids in input order.
	IDs []model.RowID

	// TotalRowCount is max(declared row count, len(IDs)).
	TotalRowCount int
}

// RowsCleared is emitted before SetRows replaces existing rows.
type RowsCleared struct {
	// Count is the number of rows that were present.
	Count int
}

// RowsUpdated is emitted after UpdateRows. Batched notifications are merged.
type RowsUpdated struct {
	// Updated are ids of existing rows that were patched.
	Updated []model.RowID

	// Added are ids of rows that did not exist before.
	Added []model.RowID

	// Deleted are ids of removed rows.
	Deleted []model.RowID
}

// Merge appends the ids of other to u.
func (u RowsUpdated) Merge(other RowsUpdated) RowsUpdated {
	return RowsUpdated{
		Updated: append(append([]model.RowID(nil), u.Updated...), other.Updated...),
		Added:   append(append([]model.RowID(nil), u.Added...), other.Added...),
		Deleted: append(append([]model.RowID(nil), u.Deleted...), other.Deleted...),
	}
}

// RowsScrollEnd asks the caller to load more rows.
type RowsScrollEnd struct {
	// VirtualRowsCount is the number of rows the grid currently knows about.
	VirtualRowsCount int

	// ViewportPageSize is the number of rows that fit in the viewport.
	ViewportPageSize int

	// VisibleColumns are the columns currently shown.
	VisibleColumns []*model.Column
}

// RowClicked is emitted by a host when a row is clicked.
type RowClicked struct {
	ID      model.RowID
	Pointer model.PointerInput
}
