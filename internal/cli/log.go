package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/sadopc/smokebreak/internal/config"
)

// setupLogger configures the logger based on configuration
func setupLogger(cfg config.LoggingConfig, w io.Writer) zerolog.Logger {
	level := zerolog.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	if cfg.Format == "text" {
		return zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: !isWriterTerminal(w)}).
			Level(level).With().Timestamp().Logger()
	}

	// Default to JSON
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// openLogFile opens the append-only log file used while the terminal UI owns
// the screen.
func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

func isWriterTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isTerminal(f)
}
