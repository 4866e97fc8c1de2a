package tui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/dshills/gridstorm/internal/config"
)

// Theme holds the styles the viewer draws with.
type Theme struct {
	Base     tcell.Style
	Header   tcell.Style
	Selected tcell.Style
	Focused  tcell.Style
	Editing  tcell.Style
	Border   tcell.Style
	Status   tcell.Style
	Error    tcell.Style
}

// DefaultTheme uses the terminal palette only.
func DefaultTheme() Theme {
	base := tcell.StyleDefault
	return Theme{
		Base:     base,
		Header:   base.Bold(true),
		Selected: base.Background(tcell.ColorNavy),
		Focused:  base.Reverse(true),
		Editing:  base.Underline(true).Reverse(true),
		Border:   base.Dim(true),
		Status:   base.Reverse(true),
		Error:    base.Foreground(tcell.ColorRed).Bold(true),
	}
}

// NewTheme builds a theme from hex colours. Empty entries keep the
// defaults.
func NewTheme(cfg config.ThemeConfig) (Theme, error) {
	t := DefaultTheme()

	fg, err := hexColor("foreground", cfg.Foreground)
	if err != nil {
		return t, err
	}
	if fg != tcell.ColorDefault {
		t.Base = t.Base.Foreground(fg)
		t.Selected = t.Selected.Foreground(fg)
	}

	header, err := hexColor("header", cfg.Header)
	if err != nil {
		return t, err
	}
	if header != tcell.ColorDefault {
		t.Header = t.Header.Foreground(header)
	}

	selected, err := hexColor("selected", cfg.Selected)
	if err != nil {
		return t, err
	}
	if selected != tcell.ColorDefault {
		t.Selected = t.Selected.Background(selected)
	}

	focused, err := hexColor("focused", cfg.Focused)
	if err != nil {
		return t, err
	}
	if focused != tcell.ColorDefault {
		t.Focused = tcell.StyleDefault.Background(focused).Foreground(contrast(cfg.Focused))
		t.Editing = t.Focused.Underline(true)
	}

	border, err := hexColor("border", cfg.Border)
	if err != nil {
		return t, err
	}
	if border != tcell.ColorDefault {
		t.Border = tcell.StyleDefault.Foreground(border)
	}
	return t, nil
}

func hexColor(name, hex string) (tcell.Color, error) {
	if hex == "" {
		return tcell.ColorDefault, nil
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return tcell.ColorDefault, fmt.Errorf("theme %s: %w", name, err)
	}
	r, g, b := c.RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b)), nil
}

// contrast picks black or white text for a background.
func contrast(hex string) tcell.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		return tcell.ColorDefault
	}
	if l, _, _ := c.Lab(); l > 0.6 {
		return tcell.ColorBlack
	}
	return tcell.ColorWhite
}
