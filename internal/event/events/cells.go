package events

import (
	"github.com/dshills/gridstorm/internal/event/topic"
	"github.com/dshills/gridstorm/internal/model"
)

// Cell topics.
const (
	// TopicCellClicked is emitted by a host when a cell is clicked.
	TopicCellClicked topic.Topic = "cell.clicked"

	// TopicCellDoubleClicked is emitted by a host when a cell is double-clicked.
	TopicCellDoubleClicked topic.Topic = "cell.double.clicked"

	// TopicCellKeyDown is emitted by a host for a key press on a cell.
	TopicCellKeyDown topic.Topic = "cell.key.down"

	// TopicCellFocusOut is emitted by a host when focus leaves a cell.
	TopicCellFocusOut topic.Topic = "cell.focus.out"

	// TopicCellModeChanged is emitted after a cell switched between view and edit.
	TopicCellModeChanged topic.Topic = "cell.mode.changed"

	// TopicCellEditStarted is emitted after a cell entered edit mode.
	TopicCellEditStarted topic.Topic = "cell.edit.started"

	// TopicCellEditStopped is emitted after a cell left edit mode.
	TopicCellEditStopped topic.Topic = "cell.edit.stopped"

	// TopicCellEditCommitted is emitted after a staged value was written to its row.
	TopicCellEditCommitted topic.Topic = "cell.edit.committed"

	// TopicCellEditPropsChanged is emitted after a staged value or its error flag changed.
	TopicCellEditPropsChanged topic.Topic = "cell.edit.props.changed"

	// TopicCellFocusChanged is emitted after focus moved to a cell or header.
	TopicCellFocusChanged topic.Topic = "cell.focus.changed"
)

// CellClicked is the payload of cell click and double-click topics.
type CellClicked struct {
	ID      model.RowID
	Field   string
	Pointer model.PointerInput
}

// CellKeyDown is emitted by a host for a key press on a cell.
type CellKeyDown struct {
	ID    model.RowID
	Field string
	Key   model.KeyInput
}

// CellFocusOut is emitted by a host when focus leaves a cell.
type CellFocusOut struct {
	ID    model.RowID
	Field string

	// Target is the host's handle for the element that received focus.
	Target any
}

// CellModeChanged is emitted after a cell switched mode.
type CellModeChanged struct {
	ID    model.RowID
	Field string
	Mode  model.CellMode
}

// CellEdit is the payload of the edit start and stop topics.
type CellEdit struct {
	ID    model.RowID
	Field string
	Value any

	// Key is the key that started editing, nil for API and mouse triggers.
	Key *model.KeyInput
}

// CellEditCommitted is emitted after a staged value was committed.
type CellEditCommitted struct {
	ID    model.RowID
	Field string
	Value any
}

// CellEditPropsChanged is emitted after staged props changed.
type CellEditPropsChanged struct {
	ID    model.RowID
	Field string
	Props model.EditCellProps
}

// CellFocusChanged is emitted after focus moved. Exactly one of Cell and
// ColumnHeader is set, or neither when focus was cleared.
type CellFocusChanged struct {
	Cell         *model.CellIndex
	ColumnHeader string
}
