// Package cli contains the cobra command tree for smokebreak.
package cli

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/sadopc/smokebreak/internal/config"
	"github.com/spf13/cobra"
)

var version = "dev"

type rootOptions struct {
	configPath string
	headless   bool
}

// NewRootCmd builds the command tree. Without a subcommand it runs the timer:
// the terminal UI when stdout is a terminal, headless mode otherwise.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "smokebreak",
		Short: "smokebreak - a focus timer with cigarette breaks",
		Long: `smokebreak alternates focus sessions with short breaks and a longer
break after every few sessions. Completed sessions are recorded per day
with a running streak.

Run without arguments for the terminal UI. When stdout is not a terminal,
or with --headless, commands are read line by line from stdin.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.headless || !isTerminal(os.Stdout) {
				return runHeadless(cmd, opts)
			}
			return runTUI(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.DefaultPath(), "Path to configuration file")
	cmd.Flags().BoolVar(&opts.headless, "headless", false, "Run without the terminal UI, reading commands from stdin")

	cmd.AddCommand(
		newStatsCmd(opts),
		newExportCmd(opts),
		newClearCmd(opts),
		newSetCmd(opts),
		newConfigCmd(opts),
	)
	return cmd
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
