// Package cli implements the gridstorm command line.
package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	DotEnv     string
	NoEnv      bool
	Verbose    bool
}

// NewRootCommand creates the root command.
func NewRootCommand(version string) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "gridstorm",
		Short:   "Sort, filter, page and edit tabular data from the terminal",
		Long:    "gridstorm loads rows from a JSON or YAML file into a virtualized data grid.\nIt can print the render window, apply a cell edit, or open an interactive viewer.",
		Version: version,

		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "grid configuration file (.toml or .yaml)")
	cmd.PersistentFlags().StringVar(&opts.DotEnv, "env-file", "", "load GRIDSTORM_* variables from a .env file")
	cmd.PersistentFlags().BoolVar(&opts.NoEnv, "no-env", false, "ignore GRIDSTORM_* environment variables")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(NewRenderCommand(opts))
	cmd.AddCommand(NewEditCommand(opts))
	cmd.AddCommand(NewViewCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))

	return cmd
}
