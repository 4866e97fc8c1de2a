package tui

import (
	"github.com/gdamore/tcell/v2"

	"github.com/dshills/gridstorm/internal/model"
)

// command is a viewer action bound to a control key.
type command int

const (
	cmdNone command = iota
	cmdQuit
	cmdFilter
	cmdDensity
	cmdNextPage
	cmdPrevPage
	cmdReload
	cmdSort
)

func commandFor(ev *tcell.EventKey) command {
	switch ev.Key() {
	case tcell.KeyCtrlQ, tcell.KeyCtrlC:
		return cmdQuit
	case tcell.KeyCtrlF:
		return cmdFilter
	case tcell.KeyCtrlD:
		return cmdDensity
	case tcell.KeyCtrlN:
		return cmdNextPage
	case tcell.KeyCtrlP:
		return cmdPrevPage
	case tcell.KeyCtrlR:
		return cmdReload
	case tcell.KeyCtrlS:
		return cmdSort
	}
	return cmdNone
}

// keyInput translates a terminal key into the key names the engines use.
// ok is false for keys the grid has no meaning for.
func keyInput(ev *tcell.EventKey) (model.KeyInput, bool) {
	mod := ev.Modifiers()
	in := model.KeyInput{
		Ctrl:  mod&tcell.ModCtrl != 0,
		Alt:   mod&tcell.ModAlt != 0,
		Meta:  mod&tcell.ModMeta != 0,
		Shift: mod&tcell.ModShift != 0,
	}

	switch k := ev.Key(); k {
	case tcell.KeyRune:
		in.Key = string(ev.Rune())
	case tcell.KeyUp:
		in.Key = model.KeyArrowUp
	case tcell.KeyDown:
		in.Key = model.KeyArrowDown
	case tcell.KeyLeft:
		in.Key = model.KeyArrowLeft
	case tcell.KeyRight:
		in.Key = model.KeyArrowRight
	case tcell.KeyHome:
		in.Key = model.KeyHome
	case tcell.KeyEnd:
		in.Key = model.KeyEnd
	case tcell.KeyPgUp:
		in.Key = model.KeyPageUp
	case tcell.KeyPgDn:
		in.Key = model.KeyPageDown
	case tcell.KeyEnter:
		in.Key = model.KeyEnter
	case tcell.KeyTab:
		in.Key = model.KeyTab
	case tcell.KeyBacktab:
		in.Key, in.Shift = model.KeyTab, true
	case tcell.KeyEscape:
		in.Key = model.KeyEscape
	case tcell.KeyDelete:
		in.Key = model.KeyDelete
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		in.Key = model.KeyBackspace
	case tcell.KeyF2:
		in.Key = model.KeyF2
	case tcell.KeyCtrlSpace:
		// Most terminals cannot report Shift+Space.
		in.Key, in.Shift, in.Ctrl = model.KeySpace, true, false
	default:
		if k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ {
			in.Key = string(rune('a' + int(k-tcell.KeyCtrlA)))
			in.Ctrl = true
			return in, true
		}
		return in, false
	}
	return in, true
}
