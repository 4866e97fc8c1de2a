package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/match"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
	"golang.org/x/term"

	"github.com/dshills/gridstorm/internal/grid"
	"github.com/dshills/gridstorm/internal/model"
	"github.com/dshills/gridstorm/internal/source"
	"github.com/dshills/gridstorm/internal/textview"
)

// Default output size when stdout is not a terminal.
const (
	defaultWidth  = 120
	defaultHeight = 20
)

type renderOptions struct {
	format   string
	columns  []string
	sorts    []string
	filters  []string
	quick    string
	page     int
	pageSize int
	width    int
	height   int
	scroll   int
	color    string
}

// NewRenderCommand creates the render command.
func NewRenderCommand(root *RootOptions) *cobra.Command {
	o := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render [rows-file]",
		Short: "Print the rows the grid would mount",
		Long: `Load the rows, apply sorting, filtering and paging, and print the render
window: the rows and columns a virtualized view of the given size mounts.

Examples:
  gridstorm render people.json --sort age:desc --filter name:contains:an
  gridstorm render people.yaml --columns 'id,name*' --page-size 10 --page 2
  gridstorm render people.json --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, root, o, args)
		},
	}

	cmd.Flags().StringVarP(&o.format, "format", "f", "text", "output format: text or json")
	cmd.Flags().StringSliceVar(&o.columns, "columns", nil, "show only columns matching these glob patterns")
	cmd.Flags().StringArrayVarP(&o.sorts, "sort", "s", nil, "sort by field[:asc|desc], repeatable")
	cmd.Flags().StringArrayVar(&o.filters, "filter", nil, "filter by field:operator[:value], repeatable")
	cmd.Flags().StringVarP(&o.quick, "quick", "q", "", "quick filter text")
	cmd.Flags().IntVar(&o.page, "page", 1, "page to show, from 1")
	cmd.Flags().IntVar(&o.pageSize, "page-size", 0, "rows per page; enables pagination")
	cmd.Flags().IntVar(&o.width, "width", 0, "viewport width in terminal cells (default: terminal width)")
	cmd.Flags().IntVar(&o.height, "rows", 0, "viewport height in rows (default: terminal height)")
	cmd.Flags().IntVar(&o.scroll, "scroll", 0, "rows to scroll down before rendering")
	cmd.Flags().StringVar(&o.color, "color", "auto", "colour output: auto, always or never")

	return cmd
}

func runRender(cmd *cobra.Command, root *RootOptions, o *renderOptions, args []string) error {
	if o.format != "text" && o.format != "json" {
		return fmt.Errorf("unknown format %q: want text or json", o.format)
	}
	if o.color != "auto" && o.color != "always" && o.color != "never" {
		return fmt.Errorf("unknown color mode %q: want auto, always or never", o.color)
	}

	s, err := openSession(root, args, sessionOptions{quiet: true, configure: o.configure})
	if err != nil {
		return err
	}
	defer s.Close()

	g := s.grid
	if err := o.apply(g); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	colorOn := useColor(o.color, out)

	if o.format == "json" {
		doc, err := renderJSON(g)
		if err != nil {
			return err
		}
		doc = pretty.Pretty(doc)
		if colorOn {
			doc = pretty.Color(doc, nil)
		}
		_, err = out.Write(doc)
		return err
	}

	width, height := o.size(out)
	d := g.State().Density
	g.Resize(width*textview.DefaultCharWidth, d.HeaderHeight+height*d.RowHeight)
	if o.scroll > 0 {
		g.Scroll(o.scroll*d.RowHeight, 0)
	}
	return textview.New(textview.Options{Color: colorOn, Footer: true}).Render(out, g)
}

func (o *renderOptions) configure(opts *grid.Options) {
	if o.pageSize <= 0 {
		return
	}
	size := o.pageSize
	opts.Pagination = true
	opts.PageSize = &size
	if opts.MaxPageSize > 0 && size > opts.MaxPageSize {
		opts.MaxPageSize = size
	}
}

// apply pushes the command line models into the grid.
func (o *renderOptions) apply(g *grid.Grid) error {
	if len(o.columns) > 0 {
		if err := showColumns(g, o.columns); err != nil {
			return err
		}
	}

	if len(o.sorts) > 0 {
		sortModel := make(model.SortModel, 0, len(o.sorts))
		for _, arg := range o.sorts {
			item, err := parseSort(arg)
			if err != nil {
				return err
			}
			sortModel = append(sortModel, item)
		}
		g.SetSortModel(sortModel)
	}

	for _, arg := range o.filters {
		item, err := parseFilter(arg)
		if err != nil {
			return err
		}
		if _, err := g.GetColumn(item.ColumnField); err != nil {
			return fmt.Errorf("--filter %s: %w", arg, err)
		}
		g.UpsertFilter(item)
	}
	if o.quick != "" {
		g.SetQuickFilter(o.quick)
	}

	if o.page < 1 {
		return fmt.Errorf("--page must be at least 1, got %d", o.page)
	}
	if o.page > 1 {
		g.SetPage(o.page - 1)
	}
	g.Flush()
	return nil
}

// showColumns hides every column whose field matches none of the patterns.
func showColumns(g *grid.Grid, patterns []string) error {
	shown := 0
	for _, col := range g.GetAllColumns() {
		visible := false
		for _, p := range patterns {
			if match.Match(col.Field, strings.TrimSpace(p)) {
				visible = true
				break
			}
		}
		if visible {
			shown++
		}
		if err := g.SetColumnVisibility(col.Field, visible); err != nil {
			return err
		}
	}
	if shown == 0 {
		return fmt.Errorf("--columns %s matches no column", strings.Join(patterns, ","))
	}
	return nil
}

// parseSort reads field[:asc|desc].
func parseSort(arg string) (model.SortItem, error) {
	field, dir, _ := strings.Cut(arg, ":")
	if field == "" {
		return model.SortItem{}, fmt.Errorf("--sort %q: missing field", arg)
	}
	item := model.SortItem{Field: field, Sort: model.SortAsc}
	switch strings.ToLower(dir) {
	case "", "asc":
	case "desc":
		item.Sort = model.SortDesc
	default:
		return model.SortItem{}, fmt.Errorf("--sort %q: direction must be asc or desc", arg)
	}
	return item, nil
}

// parseFilter reads field:operator[:value]. The value may contain colons.
func parseFilter(arg string) (model.FilterItem, error) {
	parts := strings.SplitN(arg, ":", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return model.FilterItem{}, fmt.Errorf("--filter %q: want field:operator[:value]", arg)
	}
	item := model.FilterItem{ColumnField: parts[0], OperatorValue: parts[1]}
	if len(parts) == 3 {
		item.Value = parts[2]
	}
	return item, nil
}

// renderJSON lists the rows of the current page with their visible columns.
func renderJSON(g *grid.Grid) ([]byte, error) {
	s := g.State()
	doc := []byte(`{}`)
	var err error
	if doc, err = sjson.SetBytes(doc, "rowCount", s.VisibleRows.Count); err != nil {
		return nil, err
	}
	if s.Pagination.PageCount > 0 {
		if doc, err = sjson.SetBytes(doc, "page", s.Pagination.Page+1); err != nil {
			return nil, err
		}
		if doc, err = sjson.SetBytes(doc, "pageCount", s.Pagination.PageCount); err != nil {
			return nil, err
		}
	}
	if doc, err = sjson.SetRawBytes(doc, "rows", []byte(`[]`)); err != nil {
		return nil, err
	}

	cols := g.GetVisibleColumns()
	for _, id := range g.PageRowIDs() {
		row := []byte(`{}`)
		for _, col := range cols {
			v, err := g.GetCellValue(id, col.Field)
			if err != nil {
				return nil, err
			}
			if row, err = sjson.SetBytes(row, source.EscapeKey(col.Field), v); err != nil {
				return nil, fmt.Errorf("encoding %s of row %v: %w", col.Field, id, err)
			}
		}
		if doc, err = sjson.SetRawBytes(doc, "rows.-1", row); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// size returns the viewport in terminal cells.
func (o *renderOptions) size(out io.Writer) (int, int) {
	width, height := defaultWidth, defaultHeight
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if w, h, err := term.GetSize(int(f.Fd())); err == nil {
			// header, separator, footer and prompt
			width, height = w, max(h-4, 1)
		}
	}
	if o.width > 0 {
		width = o.width
	}
	if o.height > 0 {
		height = o.height
	}
	return width, height
}

func useColor(mode string, out io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
