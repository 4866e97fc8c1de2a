package cli

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dshills/gridstorm/internal/config"
)

// NewCheckCommand creates the check command.
func NewCheckCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check [rows-file]",
		Short: "Validate the configuration and the rows file",
		Long: `Load the configuration, report every invalid setting, and load the rows
file into a grid when one is given or configured.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			ok := color.New(color.FgGreen).SprintFunc()

			cfg, err := config.Load(config.Options{Path: root.ConfigPath, DotEnv: root.DotEnv, Env: !root.NoEnv})
			if err != nil {
				var verr *config.ValidationError
				if errors.As(err, &verr) {
					for _, f := range verr.Fields {
						fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", f)
					}
					return fmt.Errorf("%d invalid settings", len(verr.Fields))
				}
				return err
			}
			name := root.ConfigPath
			if name == "" {
				name = "defaults"
			}
			fmt.Fprintf(out, "%s config %s\n", ok("ok"), name)

			if len(args) == 0 && cfg.Source.Path == "" {
				return nil
			}
			s, err := openSession(root, args, sessionOptions{quiet: true})
			if err != nil {
				return err
			}
			defer s.Close()
			fmt.Fprintf(out, "%s rows %s: %d rows, %d columns\n",
				ok("ok"), s.file.Path(), s.grid.GetRowsCount(), len(s.grid.GetAllColumns()))
			return nil
		},
	}
}
