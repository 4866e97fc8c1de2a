package events

import "github.com/dshills/gridstorm/internal/event/topic"

// Panel topics.
const (
	// TopicColumnMenuOpened is emitted after a column menu was opened.
	TopicColumnMenuOpened topic.Topic = "column.menu.opened"

	// TopicColumnMenuClosed is emitted after the column menu was closed.
	TopicColumnMenuClosed topic.Topic = "column.menu.closed"

	// TopicPreferencePanelOpened is emitted after the preference panel was opened.
	TopicPreferencePanelOpened topic.Topic = "preferences.opened"

	// TopicPreferencePanelClosed is emitted after the preference panel was closed.
	TopicPreferencePanelClosed topic.Topic = "preferences.closed"

	// TopicErrorChanged is emitted after the external error slot changed.
	TopicErrorChanged topic.Topic = "error.changed"
)

// PanelToggled names the column menu field or the preference panel.
type PanelToggled struct {
	Target string
}

// ErrorChanged carries the external error, nil when cleared.
type ErrorChanged struct {
	Err error
}
