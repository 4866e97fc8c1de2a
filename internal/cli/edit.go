package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"

	"github.com/dshills/gridstorm/internal/event"
	"github.com/dshills/gridstorm/internal/event/events"
	"github.com/dshills/gridstorm/internal/model"
	"github.com/dshills/gridstorm/internal/source"
)

// ErrNotEditable is returned when the target cell cannot be edited.
var ErrNotEditable = errors.New("cell is not editable")

type editOptions struct {
	id     string
	field  string
	value  string
	dryRun bool
}

// NewEditCommand creates the edit command.
func NewEditCommand(root *RootOptions) *cobra.Command {
	o := &editOptions{}

	cmd := &cobra.Command{
		Use:   "edit [rows-file]",
		Short: "Edit one cell and write the row back",
		Long: `Put a cell in edit mode, stage the value, and commit it. The value is
converted to the column type; a value the column refuses leaves the file
untouched.

Examples:
  gridstorm edit people.json --id 2 --field age --value 37
  gridstorm edit people.yaml --id 2 --field name --value Nico --dry-run`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, root, o, args)
		},
	}

	cmd.Flags().StringVar(&o.id, "id", "", "row id")
	cmd.Flags().StringVar(&o.field, "field", "", "column field")
	cmd.Flags().StringVar(&o.value, "value", "", "new value")
	cmd.Flags().BoolVar(&o.dryRun, "dry-run", false, "print the updated document instead of saving it")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("field")
	_ = cmd.MarkFlagRequired("value")

	return cmd
}

func runEdit(cmd *cobra.Command, root *RootOptions, o *editOptions, args []string) error {
	s, err := openSession(root, args, sessionOptions{quiet: true, editable: true})
	if err != nil {
		return err
	}
	defer s.Close()

	g := s.grid
	id := parseID(o.id)
	if _, ok := g.GetRow(id); !ok {
		return fmt.Errorf("%w: %s", source.ErrRowNotFound, o.id)
	}
	p, err := g.GetCellParams(id, o.field)
	if err != nil {
		return err
	}
	if !p.IsEditable {
		return fmt.Errorf("%w: row %s field %s", ErrNotEditable, o.id, o.field)
	}

	var writeErr error
	write := s.writeBack(!o.dryRun)
	sub := event.Subscribe(g.Bus(), events.TopicCellEditCommitted, func(c events.CellEditCommitted) error {
		writeErr = write(c.ID, c.Field, c.Value)
		return writeErr
	})
	defer sub.Cancel()

	if err := g.SetCellMode(id, o.field, model.CellModeEdit); err != nil {
		return err
	}
	props := model.EditCellProps{Value: o.value}
	if p.Column.ValueParser == nil {
		v, valid := coerce(p.Column, o.value)
		props = model.EditCellProps{Value: v, Error: !valid}
	}
	if err := g.SetEditCellProps(id, o.field, props); err != nil {
		return err
	}

	committed, err := g.CommitCellChange(id, o.field)
	if err != nil {
		return err
	}
	if !committed {
		return fmt.Errorf("%q is not a valid %s value for %s", o.value, p.Column.Type, o.field)
	}
	if writeErr != nil {
		return fmt.Errorf("writing %s: %w", s.file.Path(), writeErr)
	}
	if err := g.SetCellMode(id, o.field, model.CellModeView); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if o.dryRun {
		doc, err := s.file.Encode()
		if err != nil {
			return err
		}
		if f, _ := source.FormatFor(s.file.Path()); f == source.FormatJSON {
			doc = pretty.Pretty(doc)
		}
		_, err = out.Write(doc)
		return err
	}

	row, _ := g.GetRow(id)
	fmt.Fprintf(out, "%s: row %s %s = %v\n", s.file.Path(), o.id, o.field, row[o.field])
	return nil
}
