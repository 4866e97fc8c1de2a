// Package tui is an interactive terminal viewer for a grid.
//
// The viewer owns the grid while it runs. Key presses and clicks are
// translated into the same events a graphical host would publish, so
// sorting, selection, editing and navigation all run through the engines.
// Background work such as file watching posts events to the screen queue
// and the event loop applies them.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/gridstorm/internal/event/events"
	"github.com/dshills/gridstorm/internal/event/topic"
	"github.com/dshills/gridstorm/internal/grid"
	"github.com/dshills/gridstorm/internal/logging"
	"github.com/dshills/gridstorm/internal/model"
)

// DefaultCharWidth is the number of grid pixels one terminal cell covers.
const DefaultCharWidth = 8

// Options configure a Viewer.
type Options struct {
	Theme     Theme
	CharWidth int
	Logger    *logging.Logger

	// Reload refreshes the grid's rows. It runs on the event loop.
	Reload func(g *grid.Grid) error

	// Changes requests a Reload each time it delivers.
	Changes <-chan struct{}
}

// Viewer draws a grid on a tcell screen and feeds input back into it.
type Viewer struct {
	screen tcell.Screen
	grid   *grid.Grid
	opts   Options
	logger *logging.Logger

	filtering bool
	filter    string
	status    string
	statusErr bool
}

// reloadEvent asks the event loop to reload rows.
type reloadEvent struct {
	tcell.EventTime
}

// quitEvent stops the event loop.
type quitEvent struct {
	tcell.EventTime
}

// New creates a viewer. The screen must already be initialised.
func New(screen tcell.Screen, g *grid.Grid, opts Options) *Viewer {
	if opts.CharWidth <= 0 {
		opts.CharWidth = DefaultCharWidth
	}
	if opts.Theme == (Theme{}) {
		opts.Theme = DefaultTheme()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	v := &Viewer{
		screen: screen,
		grid:   g,
		opts:   opts,
		logger: logger.WithComponent("tui"),
	}
	v.layout()
	return v
}

// Run processes events until the user quits or ctx is cancelled.
func (v *Viewer) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go v.forward(ctx, done)

	v.Draw()
	for {
		ev := v.screen.PollEvent()
		if ev == nil {
			return nil
		}
		if v.HandleEvent(ev) {
			return nil
		}
		v.Draw()
	}
}

// forward turns context cancellation and source changes into screen events.
func (v *Viewer) forward(ctx context.Context, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			ev := &quitEvent{}
			ev.SetEventNow()
			_ = v.screen.PostEvent(ev)
			return
		case _, ok := <-v.opts.Changes:
			if !ok {
				v.opts.Changes = nil
				continue
			}
			ev := &reloadEvent{}
			ev.SetEventNow()
			_ = v.screen.PostEvent(ev)
		}
	}
}

// HandleEvent applies one screen event. It reports whether the viewer
// should stop.
func (v *Viewer) HandleEvent(ev tcell.Event) bool {
	switch e := ev.(type) {
	case *quitEvent:
		return true
	case *reloadEvent:
		v.reload()
	case *tcell.EventResize:
		v.screen.Sync()
		v.layout()
	case *tcell.EventKey:
		return v.handleKey(e)
	case *tcell.EventMouse:
		v.handleMouse(e)
	}
	v.grid.Tick()
	return false
}

func (v *Viewer) reload() {
	if v.opts.Reload == nil {
		return
	}
	if err := v.opts.Reload(v.grid); err != nil {
		v.setError(fmt.Errorf("reload: %w", err))
		return
	}
	v.setStatus("reloaded at " + time.Now().Format("15:04:05"))
}

// layout sizes the grid viewport to the screen.
func (v *Viewer) layout() {
	w, h := v.screen.Size()
	d := v.grid.State().Density
	body := max(h-bodyTop-1, 0)
	v.grid.Resize(max(w-markWidth, 0)*v.opts.CharWidth, d.HeaderHeight+body*d.RowHeight)
}

func (v *Viewer) handleKey(ev *tcell.EventKey) bool {
	if v.filtering {
		v.handleFilterKey(ev)
		return false
	}

	switch commandFor(ev) {
	case cmdQuit:
		return true
	case cmdFilter:
		v.filtering = true
		return false
	case cmdDensity:
		v.cycleDensity()
		return false
	case cmdNextPage:
		v.grid.SetPage(v.grid.State().Pagination.Page + 1)
		return false
	case cmdPrevPage:
		v.grid.SetPage(v.grid.State().Pagination.Page - 1)
		return false
	case cmdReload:
		v.reload()
		return false
	case cmdSort:
		v.sortFocused()
		return false
	}

	key, ok := keyInput(ev)
	if !ok {
		return false
	}
	v.clearStatus()

	focus := v.grid.State().Focus
	if focus.ColumnHeader != "" {
		v.publish(events.TopicColumnHeaderKeyDown, events.ColumnHeaderKeyDown{Field: focus.ColumnHeader, Key: key})
		return false
	}
	if focus.Cell == nil && !v.focusFirstCell() {
		return false
	}
	cell := *v.grid.State().Focus.Cell

	wasEditing := v.grid.GetCellMode(cell.ID, cell.Field) == model.CellModeEdit
	v.publish(events.TopicCellKeyDown, events.CellKeyDown{ID: cell.ID, Field: cell.Field, Key: key})
	if wasEditing && v.grid.GetCellMode(cell.ID, cell.Field) == model.CellModeEdit {
		v.editText(cell, key)
	}
	return false
}

// editText applies typing to the staged value of a cell in edit mode.
func (v *Viewer) editText(cell model.CellIndex, key model.KeyInput) {
	props, _ := v.grid.GetEditRowsModel().Cell(cell.ID, cell.Field)
	text := ""
	if props.Value != nil {
		text = fmt.Sprint(props.Value)
	}
	switch {
	case key.Key == model.KeyBackspace:
		if text == "" {
			return
		}
		r := []rune(text)
		text = string(r[:len(r)-1])
	case key.Printable() && !key.Modifier():
		text += key.Key
	default:
		return
	}
	if err := v.grid.SetEditCellValue(cell.ID, cell.Field, text); err != nil {
		v.setError(err)
	}
}

func (v *Viewer) handleFilterKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEnter:
		v.filtering = false
		return
	case tcell.KeyEscape:
		v.filtering = false
		v.filter = ""
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if r := []rune(v.filter); len(r) > 0 {
			v.filter = string(r[:len(r)-1])
		}
	case tcell.KeyRune:
		v.filter += string(ev.Rune())
	default:
		return
	}
	v.grid.SetQuickFilter(v.filter)
}

func (v *Viewer) handleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	buttons := ev.Buttons()
	rowHeight := v.grid.State().Density.RowHeight
	r := v.grid.State().Rendering

	switch {
	case buttons&tcell.WheelUp != 0:
		v.grid.Scroll(r.ScrollTop-3*rowHeight, r.ScrollLeft)
	case buttons&tcell.WheelDown != 0:
		v.grid.Scroll(r.ScrollTop+3*rowHeight, r.ScrollLeft)
	case buttons&tcell.Button1 != 0:
		col, ok := v.columnAt(x)
		if !ok {
			return
		}
		mod := ev.Modifiers()
		pointer := model.PointerInput{
			Shift:      mod&tcell.ModShift != 0,
			Ctrl:       mod&tcell.ModCtrl != 0,
			Meta:       mod&tcell.ModMeta != 0,
			ClickCount: 1,
		}
		if y == headerRow {
			v.publish(events.TopicColumnHeaderClicked, events.ColumnHeaderClicked{Field: col.Field, Pointer: pointer})
			return
		}
		id, ok := v.rowAt(y)
		if !ok {
			return
		}
		if prev := v.grid.State().Focus.Cell; prev != nil && (prev.ID != id || prev.Field != col.Field) {
			v.publish(events.TopicCellFocusOut, events.CellFocusOut{ID: prev.ID, Field: prev.Field})
		}
		v.publish(events.TopicCellClicked, events.CellClicked{ID: id, Field: col.Field, Pointer: pointer})
		v.publish(events.TopicRowClicked, events.RowClicked{ID: id, Pointer: pointer})
	}
}

func (v *Viewer) focusFirstCell() bool {
	rows := v.visibleRows()
	cols := v.columns()
	if len(rows) == 0 || len(cols) == 0 {
		return false
	}
	if err := v.grid.SetCellFocus(rows[0].ID, cols[0].col.Field); err != nil {
		v.setError(err)
		return false
	}
	return true
}

func (v *Viewer) sortFocused() {
	focus := v.grid.State().Focus
	field := focus.ColumnHeader
	if focus.Cell != nil {
		field = focus.Cell.Field
	}
	if field == "" {
		return
	}
	v.publish(events.TopicColumnHeaderClicked, events.ColumnHeaderClicked{Field: field})
}

func (v *Viewer) cycleDensity() {
	next := map[model.Density]model.Density{
		model.DensityCompact:     model.DensityStandard,
		model.DensityStandard:    model.DensityComfortable,
		model.DensityComfortable: model.DensityCompact,
	}
	v.grid.SetDensity(next[v.grid.State().Density.Value])
	v.layout()
	v.setStatus("density " + string(v.grid.State().Density.Value))
}

func (v *Viewer) publish(t topic.Topic, payload any) {
	if err := v.grid.PublishEvent(t, payload); err != nil {
		v.setError(err)
	}
}

func (v *Viewer) setStatus(msg string) {
	v.status, v.statusErr = msg, false
}

func (v *Viewer) setError(err error) {
	v.logger.Warn("%v", err)
	var msgs []string
	for _, e := range unjoin(err) {
		msgs = append(msgs, e.Error())
	}
	v.status, v.statusErr = strings.Join(msgs, "; "), true
}

func (v *Viewer) clearStatus() {
	v.status, v.statusErr = "", false
}

func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}
