// Package virtualization computes which rows and columns a renderer must
// materialize for the current scroll position.
//
// Rows have a fixed height, so the row window is arithmetic on the scroll
// offset. The column window is a binary search over cumulative column widths.
// Both windows are widened by a small overscan on each side.
package virtualization

import (
	"sort"

	"github.com/dshills/gridstorm/internal/model"
)

// Default overscan and scroll-end settings.
const (
	DefaultRowBuffer          = 2
	DefaultColumnBuffer       = 2
	DefaultScrollEndThreshold = 80
)

// Geometry is everything the render window depends on.
type Geometry struct {
	// Width and Height are the container size, header included.
	Width  int
	Height int

	ScrollTop  int
	ScrollLeft int

	RowHeight    int
	HeaderHeight int

	ColumnWidths []int
	RowCount     int

	RowBuffer    int
	ColumnBuffer int
}

// BodyHeight returns the height available to rows.
func (g Geometry) BodyHeight() int {
	return max(g.Height-g.HeaderHeight, 0)
}

// MaxScrollTop returns the largest meaningful vertical offset.
func (g Geometry) MaxScrollTop() int {
	return max(g.RowCount*g.RowHeight-g.BodyHeight(), 0)
}

// MaxScrollLeft returns the largest meaningful horizontal offset.
func (g Geometry) MaxScrollLeft() int {
	return max(sum(g.ColumnWidths)-g.Width, 0)
}

// Compute returns the render window for g. Row indexes are clamped to
// [0, RowCount) and column indexes to the column list; last indexes are
// exclusive.
func Compute(g Geometry) model.RenderContext {
	positions := Positions(g.ColumnWidths)
	totalWidth := positions[len(positions)-1]
	body := g.BodyHeight()

	ctx := model.RenderContext{
		TotalWidth:  totalWidth,
		TotalHeight: g.RowCount * g.RowHeight,
	}
	ctx.HasScrollX = ctx.TotalWidth > g.Width
	ctx.HasScrollY = ctx.TotalHeight > body

	if g.RowCount > 0 && g.RowHeight > 0 {
		top := clamp(g.ScrollTop, 0, g.MaxScrollTop())
		first := min(top/g.RowHeight, g.RowCount-1)
		last := min((top+body+g.RowHeight-1)/g.RowHeight, g.RowCount)
		last = max(last, first+1)

		ctx.FirstVisibleRowIdx = first
		ctx.FirstRowIdx = max(first-g.RowBuffer, 0)
		ctx.LastRowIdx = min(last+g.RowBuffer, g.RowCount)
	}

	n := len(g.ColumnWidths)
	if n > 0 {
		left := clamp(g.ScrollLeft, 0, g.MaxScrollLeft())
		first := ColumnAt(positions, left)
		last := sort.Search(n, func(i int) bool { return positions[i] >= left+g.Width })
		last = max(last, first+1)

		ctx.FirstColIdx = max(first-g.ColumnBuffer, 0)
		ctx.LastColIdx = min(last+g.ColumnBuffer, n)
		ctx.LeftEmptyWidth = positions[ctx.FirstColIdx]
		ctx.RightEmptyWidth = totalWidth - positions[ctx.LastColIdx]
	}
	return ctx
}

// Positions returns the left edge of every column followed by the total
// width.
func Positions(widths []int) []int {
	out := make([]int, len(widths)+1)
	for i, w := range widths {
		out[i+1] = out[i] + w
	}
	return out
}

// ColumnAt returns the index of the column covering x, given the positions
// from Positions.
func ColumnAt(positions []int, x int) int {
	n := len(positions) - 1
	if n <= 0 {
		return 0
	}
	i := sort.Search(n, func(i int) bool { return positions[i+1] > x })
	return min(i, n-1)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func sum(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}
