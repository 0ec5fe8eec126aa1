package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/sadopc/smokebreak/internal/config"
	"github.com/sadopc/smokebreak/internal/export"
	"github.com/sadopc/smokebreak/internal/settings"
	"github.com/sadopc/smokebreak/internal/stats"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// withSession loads configuration and state for a one-shot subcommand.
// Logs go to stderr so stdout stays parseable.
func withSession(cmd *cobra.Command, opts *rootOptions, fn func(s *session) error) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Logging, cmd.ErrOrStderr())

	s, err := openSession(commandContext(cmd), cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show session statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(s *session) error {
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(s.stats.Snapshot())
				}
				printStats(cmd.OutOrStdout(), s.stats)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw statistics as JSON")
	return cmd
}

func printStats(w io.Writer, e *stats.Engine) {
	rows := []struct {
		name string
		t    stats.Totals
	}{
		{"Today", e.Today()},
		{"This week", e.Week()},
		{"All time", e.Total()},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%-10s %4d sessions  %s\n", r.name, r.t.Count, export.FormatMinutes(r.t.FocusMinutes))
	}

	unit := "days"
	if e.Streak() == 1 {
		unit = "day"
	}
	fmt.Fprintf(w, "%-10s %4d %s\n", "Streak", e.Streak(), unit)

	fmt.Fprintln(w)
	for _, d := range e.WeekChart() {
		fmt.Fprintf(w, "%s %s %s\n", d.Label, d.Date, strings.Repeat("▭", d.Count))
	}
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		format string
		dir    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export settings and statistics to a dated file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			if format != export.FormatJSON && format != export.FormatCSV {
				return fmt.Errorf("unknown export format %q (want json or csv)", format)
			}
			return withSession(cmd, opts, func(s *session) error {
				path, err := export.Write(dir, format, s.settings.Current(), s.stats.Snapshot(), time.Now())
				if err != nil {
					return fmt.Errorf("export failed: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", export.FormatJSON, "Export format: json or csv")
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Directory to write the export to")
	return cmd
}

func newClearCmd(opts *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Erase all recorded statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errNotConfirmed
			}
			return withSession(cmd, opts, func(s *session) error {
				if err := s.stats.Clear(commandContext(cmd)); err != nil {
					return fmt.Errorf("failed to clear statistics: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Statistics cleared")
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm clearing all statistics")
	return cmd
}

var settingFields = []string{
	settings.FieldFocusDuration,
	settings.FieldShortBreakDuration,
	settings.FieldLongBreakDuration,
	settings.FieldLongBreakInterval,
	settings.FieldSoundEnabled,
	settings.FieldAutoStart,
	settings.FieldNotificationsEnabled,
	settings.FieldSmokeEnabled,
}

func parsePatch(args []string) (settings.Patch, error) {
	known := make(map[string]bool, len(settingFields))
	for _, f := range settingFields {
		known[f] = true
	}

	p := settings.Patch{}
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		if !known[k] {
			return nil, fmt.Errorf("unknown setting %q (known: %s)", k, strings.Join(settingFields, ", "))
		}
		p[k] = v
	}
	return p, nil
}

func newSetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set key=value...",
		Short: "Change timer settings",
		Long: `Change one or more timer settings. Durations are minutes and must be
whole numbers of at least 1. If any value is invalid nothing is changed.

Keys: ` + strings.Join(settingFields, ", "),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parsePatch(args)
			if err != nil {
				return err
			}
			if err := p.Check(); err != nil {
				return fmt.Errorf("invalid settings, nothing changed: %w", err)
			}
			return withSession(cmd, opts, func(s *session) error {
				cur, err := s.settings.Update(commandContext(cmd), p)
				if err != nil {
					return fmt.Errorf("failed to save settings: %w", err)
				}
				printSettings(cmd.OutOrStdout(), cur)
				return nil
			})
		},
	}
}

func printSettings(w io.Writer, s settings.Settings) {
	data, _ := json.Marshal(s)
	var fields map[string]any
	_ = json.Unmarshal(data, &fields)

	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		fmt.Fprintf(w, "%s=%v\n", k, fields[k])
	}
}

func newConfigCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			return printConfig(cmd.OutOrStdout(), cfg)
		},
	}
}

func printConfig(w io.Writer, cfg *config.Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	return enc.Close()
}

// defaultExportDir is where the terminal UI writes exports.
func defaultExportDir() string {
	if dir, err := os.UserHomeDir(); err == nil {
		return dir
	}
	return "."
}
