package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dshills/gridstorm/internal/event"
	"github.com/dshills/gridstorm/internal/event/events"
	"github.com/dshills/gridstorm/internal/source"
	"github.com/dshills/gridstorm/internal/tui"
)

// ErrNotTerminal is returned by view when stdin or stdout is redirected.
var ErrNotTerminal = errors.New("view needs an interactive terminal")

type viewOptions struct {
	watch    bool
	readOnly bool
}

// NewViewCommand creates the view command.
func NewViewCommand(root *RootOptions) *cobra.Command {
	o := &viewOptions{}

	cmd := &cobra.Command{
		Use:   "view [rows-file]",
		Short: "Browse and edit the rows interactively",
		Long: `Open the rows in a full-screen grid.

Keys:
  arrows, Home, End, PgUp, PgDn   move the focus
  Enter, F2, typing               edit the focused cell; Enter commits, Esc cancels
  Ctrl+Space                      select the focused row
  Ctrl+S                          sort by the focused column
  Ctrl+F                          quick filter
  Ctrl+N, Ctrl+P                  next and previous page
  Ctrl+D                          change density
  Ctrl+R                          reload the file
  Ctrl+Q                          quit`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
				return ErrNotTerminal
			}
			return runView(cmd.Context(), root, o, args)
		},
	}

	cmd.Flags().BoolVarP(&o.watch, "watch", "w", false, "reload when the file changes")
	cmd.Flags().BoolVar(&o.readOnly, "read-only", false, "keep committed edits in memory only")

	return cmd
}

func runView(ctx context.Context, root *RootOptions, o *viewOptions, args []string) error {
	s, err := openSession(root, args, sessionOptions{screen: true, editable: !o.readOnly})
	if err != nil {
		return err
	}
	defer s.Close()

	theme, err := tui.NewTheme(s.cfg.Theme)
	if err != nil {
		return err
	}

	g := s.grid
	write := s.writeBack(!o.readOnly)
	sub := event.Subscribe(g.Bus(), events.TopicCellEditCommitted, func(c events.CellEditCommitted) error {
		if err := write(c.ID, c.Field, c.Value); err != nil {
			s.logger.Error("saving %s: %v", s.file.Path(), err)
			g.SetError(fmt.Errorf("saving %s: %w", s.file.Path(), err))
		}
		return nil
	})
	defer sub.Cancel()

	opts := tui.Options{Theme: theme, Logger: s.logger, Reload: s.reload}
	if o.watch || s.cfg.Source.Watch {
		w, err := source.Watch(s.file.Path(), source.WithWatchLogger(s.logger))
		if err != nil {
			return err
		}
		defer w.Close()
		opts.Changes = w.Changes()
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()
	screen.EnableMouse()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return tui.New(screen, g, opts).Run(ctx)
}
