package tui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/dshills/gridstorm/internal/model"
)

// Screen rows.
const (
	headerRow    = 0
	separatorRow = 1
	bodyTop      = 2
)

// markWidth is the gutter holding the focus and selection marks.
const markWidth = 2

// minCells is the narrowest column drawn, separator included.
const minCells = 4

type drawColumn struct {
	col   *model.Column
	x     int
	cells int
}

// columns lays out the columns inside the render window.
func (v *Viewer) columns() []drawColumn {
	width, _ := v.screen.Size()
	ctx := v.grid.RenderContext()
	visible := v.grid.GetVisibleColumns()
	first := min(max(ctx.FirstColIdx, 0), len(visible))
	last := min(max(ctx.LastColIdx, first), len(visible))

	out := make([]drawColumn, 0, last-first)
	x := markWidth
	for _, col := range visible[first:last] {
		if x >= width {
			break
		}
		cells := max(col.RenderedWidth()/v.opts.CharWidth, minCells)
		out = append(out, drawColumn{col: col, x: x, cells: cells})
		x += cells
	}
	return out
}

// visibleRows returns the rendered rows that fit on screen, skipping the
// overscan above the viewport.
func (v *Viewer) visibleRows() []model.RowEntry {
	_, height := v.screen.Size()
	ctx := v.grid.RenderContext()
	rows := v.grid.RenderedRows()
	skip := min(max(ctx.FirstVisibleRowIdx-ctx.FirstRowIdx, 0), len(rows))
	rows = rows[skip:]
	if n := max(height-bodyTop-1, 0); len(rows) > n {
		rows = rows[:n]
	}
	return rows
}

func (v *Viewer) columnAt(x int) (*model.Column, bool) {
	for _, c := range v.columns() {
		if x >= c.x && x < c.x+c.cells {
			return c.col, true
		}
	}
	return nil, false
}

func (v *Viewer) rowAt(y int) (model.RowID, bool) {
	rows := v.visibleRows()
	i := y - bodyTop
	if i < 0 || i >= len(rows) {
		return nil, false
	}
	return rows[i].ID, true
}

// Draw repaints the screen.
func (v *Viewer) Draw() {
	v.screen.Clear()
	v.screen.HideCursor()

	cols := v.columns()
	v.drawHeader(cols)
	v.drawSeparator(cols)
	for i, entry := range v.visibleRows() {
		v.drawRow(bodyTop+i, cols, entry)
	}
	v.drawStatus()
	v.screen.Show()
}

func (v *Viewer) drawHeader(cols []drawColumn) {
	s := v.grid.State()
	theme := v.opts.Theme
	for _, c := range cols {
		label := c.col.HeaderName
		if label == "" {
			label = c.col.Field
		}
		label += sortMark(s.Sorting.SortModel, c.col.Field)

		style := theme.Header
		if s.Focus.ColumnHeader == c.col.Field {
			style = theme.Focused
		}
		v.drawText(c.x, headerRow, c.cells-1, label, style, false)
		v.screen.SetContent(c.x+c.cells-1, headerRow, '│', nil, theme.Border)
	}
}

func (v *Viewer) drawSeparator(cols []drawColumn) {
	width, _ := v.screen.Size()
	for x := 0; x < width; x++ {
		v.screen.SetContent(x, separatorRow, '─', nil, v.opts.Theme.Border)
	}
	for _, c := range cols {
		v.screen.SetContent(c.x+c.cells-1, separatorRow, '┼', nil, v.opts.Theme.Border)
	}
}

func (v *Viewer) drawRow(y int, cols []drawColumn, entry model.RowEntry) {
	s := v.grid.State()
	theme := v.opts.Theme
	isSelected := s.Selection.Contains(entry.ID)

	if s.Focus.Cell != nil && s.Focus.Cell.ID == entry.ID {
		v.screen.SetContent(0, y, '>', nil, theme.Base)
	}
	if isSelected {
		v.screen.SetContent(1, y, '*', nil, theme.Selected)
	}

	for _, c := range cols {
		p, err := v.grid.GetCellParams(entry.ID, c.col.Field)
		if err != nil {
			continue
		}
		style := theme.Base
		switch {
		case p.CellMode == model.CellModeEdit:
			style = theme.Editing
		case p.HasFocus:
			style = theme.Focused
		case isSelected:
			style = theme.Selected
		}

		text := cellText(p, s.EditRows)
		right := c.col.Type == model.ColumnNumber && p.CellMode != model.CellModeEdit
		v.drawText(c.x, y, c.cells-1, text, style, right)
		v.screen.SetContent(c.x+c.cells-1, y, '│', nil, theme.Border)

		if p.CellMode == model.CellModeEdit {
			v.screen.ShowCursor(c.x+min(runewidth.StringWidth(text), c.cells-2), y)
		}
	}
}

func (v *Viewer) drawStatus() {
	width, height := v.screen.Size()
	if height <= bodyTop {
		return
	}
	y := height - 1
	s := v.grid.State()

	left := v.status
	style := v.opts.Theme.Status
	switch {
	case v.filtering:
		left = "filter: " + v.filter
	case v.statusErr:
		style = v.opts.Theme.Error
	case left == "" && s.Error != nil:
		left, style = "error: "+s.Error.Error(), v.opts.Theme.Error
	case left == "" && v.filter != "":
		left = "filter: " + v.filter
	}
	right := v.position()

	v.drawText(0, y, width, "", style, false)
	v.drawText(0, y, max(width-runewidth.StringWidth(right)-1, 0), left, style, false)
	v.drawText(width-runewidth.StringWidth(right), y, runewidth.StringWidth(right), right, style, false)
	if v.filtering {
		v.screen.ShowCursor(min(runewidth.StringWidth(left), width-1), y)
	}
}

// position describes the focused row and the page.
func (v *Viewer) position() string {
	s := v.grid.State()
	ids := v.grid.VisibleSortedRowIDs()
	out := fmt.Sprintf("%d rows", len(ids))
	if cell := s.Focus.Cell; cell != nil {
		for i, id := range ids {
			if id == cell.ID {
				out = fmt.Sprintf("row %d/%d", i+1, len(ids))
				break
			}
		}
	}
	if s.Pagination.PageCount > 1 {
		out += fmt.Sprintf("  page %d/%d", s.Pagination.Page+1, s.Pagination.PageCount)
	}
	if n := len(s.Selection); n > 0 {
		out += fmt.Sprintf("  %d selected", n)
	}
	return out
}

// drawText writes text into width cells, padding with the style.
func (v *Viewer) drawText(x, y, width int, text string, style tcell.Style, right bool) {
	if width <= 0 {
		return
	}
	for i := 0; i < width; i++ {
		v.screen.SetContent(x+i, y, ' ', nil, style)
	}
	text = runewidth.Truncate(text, width, "…")
	if right {
		x += width - runewidth.StringWidth(text)
	}
	for _, r := range text {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		v.screen.SetContent(x, y, r, nil, style)
		x += w
	}
}

// cellText is the formatted value, or the staged value while editing.
func cellText(p model.CellParams, edits model.EditRowsModel) string {
	v := p.FormattedValue
	if props, ok := edits.Cell(p.ID, p.Field); ok {
		v = props.Value
	}
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func sortMark(m model.SortModel, field string) string {
	for i, item := range m {
		if item.Field != field {
			continue
		}
		mark := " ▲"
		if item.Sort == model.SortDesc {
			mark = " ▼"
		}
		if len(m) > 1 {
			mark += fmt.Sprint(i + 1)
		}
		return mark
	}
	return ""
}
