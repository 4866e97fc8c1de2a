package events

import (
	"github.com/dshills/gridstorm/internal/event/topic"
	"github.com/dshills/gridstorm/internal/model"
)

// Viewport topics.
const (
	// TopicViewportScrolled is emitted after the scroll offsets changed.
	TopicViewportScrolled topic.Topic = "viewport.scrolled"

	// TopicViewportResized is emitted after the container size changed.
	TopicViewportResized topic.Topic = "viewport.resized"

	// TopicDensityChanged is emitted after the density changed.
	TopicDensityChanged topic.Topic = "density.changed"
)

// ViewportScrolled carries the clamped scroll offsets.
type ViewportScrolled struct {
	Top  int
	Left int
}

// ViewportResized carries the new container size.
type ViewportResized struct {
	Width  int
	Height int
}

// DensityChanged carries the new density and derived heights.
type DensityChanged struct {
	Density      model.Density
	RowHeight    int
	HeaderHeight int
}
