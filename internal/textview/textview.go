// Package textview renders the grid's render window as plain text.
//
// Only the rows and columns inside the render context are drawn, so the
// output shows exactly what a virtualized UI would mount.
package textview

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/rivo/uniseg"

	"github.com/dshills/gridstorm/internal/model"
	"github.com/dshills/gridstorm/internal/state"
)

// DefaultCharWidth is the number of pixels one terminal cell stands for.
const DefaultCharWidth = 8

// MinCellWidth is the narrowest column drawn, in terminal cells.
const MinCellWidth = 3

// Source is the part of the grid the renderer reads.
type Source interface {
	RenderContext() model.RenderContext
	RenderedRows() []model.RowEntry
	GetVisibleColumns() []*model.Column
	GetCellParams(id any, field string) (model.CellParams, error)
	State() *state.State
}

// Options configure a Renderer.
type Options struct {
	// CharWidth converts column pixel widths to terminal cells.
	CharWidth int
	// Color enables ANSI styling.
	Color bool
	// Footer appends a row range summary.
	Footer bool
}

// Renderer draws a Source as text.
type Renderer struct {
	opts Options

	header   *color.Color
	selected *color.Color
	focused  *color.Color
	errColor *color.Color
}

// New creates a renderer.
func New(opts Options) *Renderer {
	if opts.CharWidth <= 0 {
		opts.CharWidth = DefaultCharWidth
	}
	r := &Renderer{
		opts:     opts,
		header:   color.New(color.Bold),
		selected: color.New(color.FgCyan),
		focused:  color.New(color.ReverseVideo),
		errColor: color.New(color.FgRed),
	}
	if opts.Color {
		for _, c := range []*color.Color{r.header, r.selected, r.focused, r.errColor} {
			c.EnableColor()
		}
	}
	return r
}

type column struct {
	col   *model.Column
	width int
	right bool
}

// Render writes the render window to w.
func (r *Renderer) Render(w io.Writer, src Source) error {
	ctx := src.RenderContext()
	s := src.State()
	cols := r.window(src.GetVisibleColumns(), ctx)

	var b strings.Builder
	r.writeHeader(&b, cols, s.Sorting.SortModel)
	r.writeSeparator(&b, cols)

	rows := src.RenderedRows()
	for _, entry := range rows {
		if err := r.writeRow(&b, src, s, cols, entry); err != nil {
			return err
		}
	}

	if s.Error != nil {
		b.WriteString(r.paint(r.errColor, "error: "+s.Error.Error()))
		b.WriteByte('\n')
	}
	if r.opts.Footer {
		b.WriteString(footer(ctx, s, len(rows)))
		b.WriteByte('\n')
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// String renders to a string.
func (r *Renderer) String(src Source) (string, error) {
	var b strings.Builder
	if err := r.Render(&b, src); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (r *Renderer) window(visible []*model.Column, ctx model.RenderContext) []column {
	first, last := clamp(ctx.FirstColIdx, len(visible)), clamp(ctx.LastColIdx, len(visible))
	out := make([]column, 0, max(last-first, 0))
	for _, col := range visible[first:max(first, last)] {
		out = append(out, column{
			col:   col,
			width: max(col.RenderedWidth()/r.opts.CharWidth, MinCellWidth),
			right: col.Type == model.ColumnNumber,
		})
	}
	return out
}

func (r *Renderer) writeHeader(b *strings.Builder, cols []column, sortModel model.SortModel) {
	cells := make([]string, len(cols))
	for i, c := range cols {
		label := c.col.HeaderName
		if label == "" {
			label = c.col.Field
		}
		label += sortMark(sortModel, c.col.Field)
		cells[i] = r.paint(r.header, fit(label, c.width, c.right))
	}
	writeLine(b, "  ", cells)
}

func (r *Renderer) writeSeparator(b *strings.Builder, cols []column) {
	cells := make([]string, len(cols))
	for i, c := range cols {
		cells[i] = strings.Repeat("-", c.width)
	}
	b.WriteString(strings.TrimRight("--"+strings.Join(cells, "-+-"), " "))
	b.WriteByte('\n')
}

func (r *Renderer) writeRow(b *strings.Builder, src Source, s *state.State, cols []column, entry model.RowEntry) error {
	isSelected := s.Selection.Contains(entry.ID)
	hasFocus := s.Focus.Cell != nil && s.Focus.Cell.ID == entry.ID

	mark := []byte("  ")
	if hasFocus {
		mark[0] = '>'
	}
	if isSelected {
		mark[1] = '*'
	}

	cells := make([]string, len(cols))
	for i, c := range cols {
		p, err := src.GetCellParams(entry.ID, c.col.Field)
		if err != nil {
			return fmt.Errorf("rendering row %v: %w", entry.ID, err)
		}
		text := fit(cellText(p, s.EditRows), c.width, c.right)
		switch {
		case s.Focus.IsCell(entry.ID, c.col.Field):
			text = r.paint(r.focused, text)
		case isSelected:
			text = r.paint(r.selected, text)
		}
		cells[i] = text
	}
	writeLine(b, string(mark), cells)
	return nil
}

func (r *Renderer) paint(c *color.Color, s string) string {
	if !r.opts.Color {
		return s
	}
	return c.Sprint(s)
}

func writeLine(b *strings.Builder, mark string, cells []string) {
	b.WriteString(strings.TrimRight(mark+strings.Join(cells, " | "), " "))
	b.WriteByte('\n')
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
		arrow := " ↑"
		if item.Sort == model.SortDesc {
			arrow = " ↓"
		}
		if len(m) > 1 {
			arrow += fmt.Sprint(i + 1)
		}
		return arrow
	}
	return ""
}

func footer(ctx model.RenderContext, s *state.State, rendered int) string {
	var out string
	if rendered == 0 {
		out = "no rows"
	} else {
		out = fmt.Sprintf("rows %d-%d of %d", ctx.FirstRowIdx+1, ctx.FirstRowIdx+rendered, s.VisibleRows.Count)
	}
	if s.Pagination.PageCount > 1 {
		out += fmt.Sprintf(", page %d/%d", s.Pagination.Page+1, s.Pagination.PageCount)
	}
	return out
}

// fit pads or truncates s to exactly width terminal cells.
func fit(s string, width int, right bool) string {
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return ' '
		}
		return r
	}, s)
	w := uniseg.StringWidth(s)
	if w > width {
		s = truncate(s, width-1) + "…"
		w = uniseg.StringWidth(s)
	}
	pad := strings.Repeat(" ", max(width-w, 0))
	if right {
		return pad + s
	}
	return s + pad
}

// truncate keeps whole grapheme clusters up to width cells.
func truncate(s string, width int) string {
	var b strings.Builder
	used, st := 0, -1
	for s != "" {
		var cluster string
		var w int
		cluster, s, w, st = uniseg.FirstGraphemeClusterInString(s, st)
		if used+w > width {
			break
		}
		b.WriteString(cluster)
		used += w
	}
	return b.String()
}

func clamp(n, limit int) int {
	return min(max(n, 0), limit)
}
