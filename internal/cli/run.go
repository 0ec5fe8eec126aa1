package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/smokebreak/internal/headless"
	"github.com/sadopc/smokebreak/internal/metrics"
	"github.com/sadopc/smokebreak/internal/timer"
	"github.com/sadopc/smokebreak/internal/tui"
	"github.com/spf13/cobra"
)

func runTUI(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}

	logFile, err := openLogFile(cfg.Logging.File)
	if err != nil {
		return err
	}
	defer logFile.Close()
	logger := setupLogger(cfg.Logging, logFile)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openSession(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	logger.Info().Str("version", version).Str("config", opts.configPath).Msg("Starting smokebreak")

	app := tui.NewApp(s.settings, s.stats, tui.Options{
		Context:   ctx,
		Logger:    logger,
		ExportDir: defaultExportDir(),
	})
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func runHeadless(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	logger := setupLogger(cfg.Logging, out)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openSession(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	logger.Info().Str("version", version).Str("config", opts.configPath).Msg("Starting smokebreak headless")

	ticker, err := headless.NewTicker(logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := ticker.Shutdown(); err != nil {
			logger.Error().Err(err).Msg("Failed to stop ticker")
		}
	}()

	observers := timer.Observers{headless.NewLogObserver(logger)}
	var srv *metrics.Server
	if cfg.Metrics.Addr != "" {
		mo := metrics.NewObserver()
		observers = append(observers, mo)
		srv = metrics.NewServer(cfg.Metrics.Addr, mo.Registry(), logger)
		logger.Info().Str("addr", cfg.Metrics.Addr).Msg("Metrics enabled")
	}

	m := timer.New(ticker, s.stats, s.settings.Current(),
		timer.WithObserver(observers),
		timer.WithNotifier(headless.NewLogNotifier(logger)),
		timer.WithSound(headless.NewBell(out)),
		timer.WithLogger(logger),
	)
	s.settings.Subscribe(m.ApplySettings)

	r := headless.NewRunner(m, s.settings, ticker, cmd.InOrStdin(), out, logger)
	return headless.Serve(ctx, r, srv)
}

// commandContext is the context for one-shot subcommands.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
