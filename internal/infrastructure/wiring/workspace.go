package wiring

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/riskaudit/internal/infrastructure/config"
	"github.com/felixgeelhaar/riskaudit/pkg/storage"
)

// Workspace bundles core infrastructure dependencies.
type Workspace struct {
	Root   string
	Config *config.Config
	Logger *slog.Logger
	Store  storage.Store
	Repo   *storage.Repository
}

// NewWorkspace opens the store selected by cfg for root.
func NewWorkspace(root string, cfg *config.Config, logOutput io.Writer) (*Workspace, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	logger := NewLogger(logOutput, cfg.Log)

	store, err := OpenStore(root, cfg)
	if err != nil {
		return nil, err
	}
	logger.Debug("workspace opened", "root", root, "driver", cfg.Store.Driver)

	return &Workspace{
		Root:   root,
		Config: cfg,
		Logger: logger,
		Store:  store,
		Repo:   storage.NewRepository(store),
	}, nil
}

// OpenStore builds the key-value backend named by cfg.Store.Driver.
func OpenStore(root string, cfg *config.Config) (storage.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverMemory:
		return storage.NewMemoryStore(), nil
	case config.DriverBadger:
		return storage.OpenBadgerStore(cfg.StorePath(root))
	case config.DriverSQLite:
		path := cfg.StorePath(root)
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		return storage.OpenSQLiteStore(path)
	case config.DriverFilesystem, "":
		return storage.NewFilesystemStore(root), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// NewLogger builds a text or JSON slog handler at the configured level.
// A nil writer logs to stderr.
func NewLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
