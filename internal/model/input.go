package model

import "unicode/utf8"

// KeyInput is the keyboard state a host attaches to key events. Key uses the
// DOM key names ("Enter", "Escape", "ArrowDown", "a").
type KeyInput struct {
	Key   string
	Ctrl  bool
	Meta  bool
	Alt   bool
	Shift bool
}

// Modifier reports whether ctrl, meta or alt is held.
func (k KeyInput) Modifier() bool {
	return k.Ctrl || k.Meta || k.Alt
}

// Printable reports whether the key produces a single character.
func (k KeyInput) Printable() bool {
	return utf8.RuneCountInString(k.Key) == 1
}

// PointerInput is the mouse/touch state a host attaches to pointer events.
type PointerInput struct {
	Shift      bool
	Ctrl       bool
	Meta       bool
	ClickCount int
	Touch      bool
}

// MultiKey reports whether ctrl or meta is held.
func (p PointerInput) MultiKey() bool {
	return p.Ctrl || p.Meta
}

// Key names used by the engines.
const (
	KeyEnter      = "Enter"
	KeyTab        = "Tab"
	KeyEscape     = "Escape"
	KeyF2         = "F2"
	KeyDelete     = "Delete"
	KeyBackspace  = "Backspace"
	KeySpace      = " "
	KeyArrowUp    = "ArrowUp"
	KeyArrowDown  = "ArrowDown"
	KeyArrowLeft  = "ArrowLeft"
	KeyArrowRight = "ArrowRight"
	KeyHome       = "Home"
	KeyEnd        = "End"
	KeyPageUp     = "PageUp"
	KeyPageDown   = "PageDown"
)

// IsNavigationKey reports whether key moves focus.
func IsNavigationKey(key string) bool {
	switch key {
	case KeyArrowUp, KeyArrowDown, KeyArrowLeft, KeyArrowRight,
		KeyHome, KeyEnd, KeyPageUp, KeyPageDown:
		return true
	}
	return false
}
