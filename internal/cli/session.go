package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sadopc/smokebreak/internal/config"
	"github.com/sadopc/smokebreak/internal/settings"
	"github.com/sadopc/smokebreak/internal/stats"
	"github.com/sadopc/smokebreak/internal/store"
	storeredis "github.com/sadopc/smokebreak/internal/store/redis"
)

// backend is a durable store that owns a connection.
type backend interface {
	store.KV
	Close() error
}

// session is the loaded application state shared by every command.
type session struct {
	cfg      *config.Config
	kv       backend
	settings *settings.Model
	stats    *stats.Engine
	log      zerolog.Logger
}

func openStorage(cfg *config.Config) (backend, error) {
	switch cfg.Storage.Driver {
	case "sqlite":
		return store.New(cfg.Storage.Path)
	case "redis":
		return storeredis.Open(cfg.Redis)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Storage.Driver)
	}
}

// openSession opens storage and loads settings and statistics.
func openSession(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*session, error) {
	kv, err := openStorage(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	logger.Debug().
		Str("driver", cfg.Storage.Driver).
		Str("path", cfg.Storage.Path).
		Msg("Storage initialized")

	sm := settings.NewModel(kv, logger)
	sm.Load(ctx)

	engine := stats.New(kv, stats.WithLogger(logger))
	engine.Load(ctx)

	return &session{
		cfg:      cfg,
		kv:       kv,
		settings: sm,
		stats:    engine,
		log:      logger,
	}, nil
}

func (s *session) Close() error {
	if err := s.kv.Close(); err != nil {
		s.log.Error().Err(err).Msg("Failed to close storage")
		return err
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

var errNotConfirmed = errors.New("refusing to clear statistics without --yes")
