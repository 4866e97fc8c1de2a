package events

import (
	"github.com/dshills/gridstorm/internal/event/topic"
	"github.com/dshills/gridstorm/internal/model"
)

// Column topics.
const (
	// TopicColumnsChanged is emitted after the column set was replaced or merged.
	TopicColumnsChanged topic.Topic = "columns.changed"

	// TopicColumnOrderChanged is emitted after a column moved.
	TopicColumnOrderChanged topic.Topic = "column.order.changed"

	// TopicColumnVisibilityChanged is emitted after a column was hidden or shown.
	TopicColumnVisibilityChanged topic.Topic = "column.visibility.changed"

	// TopicColumnResizeStarted is emitted when a resize gesture begins.
	TopicColumnResizeStarted topic.Topic = "column.resize.started"

	// TopicColumnResize is emitted for every width step of a resize gesture.
	TopicColumnResize topic.Topic = "column.resize"

	// TopicColumnResizeStopped is emitted when a resize gesture ends.
	TopicColumnResizeStopped topic.Topic = "column.resize.stopped"

	// TopicColumnWidthChanged is emitted after a column width was stored.
	TopicColumnWidthChanged topic.Topic = "column.width.changed"

	// TopicColumnHeaderClicked is emitted by a host when a header is clicked.
	TopicColumnHeaderClicked topic.Topic = "column.header.clicked"

	// TopicColumnHeaderKeyDown is emitted by a host for key presses on a header.
	TopicColumnHeaderKeyDown topic.Topic = "column.header.key.down"

	// TopicColumnHeaderDragStarted is emitted by a host when a header drag begins.
	TopicColumnHeaderDragStarted topic.Topic = "column.header.drag.started"

	// TopicColumnHeaderDragOver is emitted by a host while a header is dragged over another.
	TopicColumnHeaderDragOver topic.Topic = "column.header.drag.over"

	// TopicColumnHeaderDragEnded is emitted by a host when a header drag ends.
	TopicColumnHeaderDragEnded topic.Topic = "column.header.drag.ended"
)

// ColumnsChanged lists the fields of the current column set.
type ColumnsChanged struct {
	Fields []string
}

// ColumnOrderChanged is emitted after a column moved.
type ColumnOrderChanged struct {
	Field       string
	OldIndex    int
	TargetIndex int
}

// ColumnVisibilityChanged is emitted after a column was hidden or shown.
type ColumnVisibilityChanged struct {
	Field     string
	IsVisible bool
}

// ColumnResize describes one step of a resize gesture.
type ColumnResize struct {
	Field string
	Width int
}

// ColumnWidthChanged is emitted after a column width was stored.
type ColumnWidthChanged struct {
	Field string
	Width int
}

// ColumnHeaderClicked is emitted by a host when a header is clicked.
type ColumnHeaderClicked struct {
	Field   string
	Pointer model.PointerInput
}

// ColumnHeaderKeyDown is emitted by a host for a key press on a header.
type ColumnHeaderKeyDown struct {
	Field string
	Key   model.KeyInput
}

// ColumnHeaderDrag is the payload of the header drag topics.
type ColumnHeaderDrag struct {
	// Field is the dragged column.
	Field string

	// TargetField is the column under the cursor. Only set for drag over.
	TargetField string

	// X is the horizontal cursor position.
	X int

	// Dropped is false when a drag ended without a drop, which restores the
	// original column position.
	Dropped bool
}
