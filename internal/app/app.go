// Package app wires configuration, storage and the history store together
// for a single command invocation.
package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/sheetkit/internal/config"
	"github.com/klytics/sheetkit/internal/history"
	"github.com/klytics/sheetkit/internal/importer"
	"github.com/klytics/sheetkit/internal/storage"
)

// App is the per-invocation state shared by every front-end.
type App struct {
	Config   *config.Config
	Backend  storage.Backend
	History  *history.Store
	Importer *importer.Importer
	Logger   *slog.Logger
}

// NewLogger returns a text logger on stderr at Info, or Debug when verbose.
func NewLogger(verbose bool) *slog.Logger {
	return NewLoggerTo(os.Stderr, verbose)
}

// NewLoggerTo is NewLogger writing to w.
func NewLoggerTo(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Open builds an App from cfg and loads the persisted history.
func Open(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = NewLogger(false)
	}

	backend, err := storage.Open(storage.Options{
		Backend: cfg.Store.Backend,
		Path:    cfg.Store.Path,
		Quota:   cfg.Store.QuotaBytes,
	})
	if err != nil {
		return nil, fmt.Errorf("could not open %s storage: %w", cfg.Store.Backend, err)
	}
	logger.Debug("storage ready", "backend", cfg.Store.Backend, "path", cfg.Store.Path)

	store := history.New(backend,
		history.WithKey(cfg.Store.Key),
		history.WithLogger(logger),
	)
	store.LoadHistory()

	im := importer.New(cfg.Import.Dir, cfg.Import.Sheet)
	im.KeepRows = cfg.Import.KeepRows
	im.Logger = logger

	return &App{
		Config:   cfg,
		Backend:  backend,
		History:  store,
		Importer: im,
		Logger:   logger,
	}, nil
}

// OpenForCommand loads configuration, applies the persistent --store,
// --store-path, --verbose and --no-color flags, and opens the App.
func OpenForCommand(cmd *cobra.Command) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if v, _ := flags.GetString("store"); v != "" {
		cfg.Store.Backend = v
	}
	if v, _ := flags.GetString("store-path"); v != "" {
		cfg.Store.Path = v
	}
	if !cfg.Output.Color {
		color.NoColor = true
	}

	verbose, _ := flags.GetBool("verbose")
	return Open(cfg, NewLogger(verbose))
}

// Close releases the storage backend.
func (a *App) Close() error {
	if a.Backend == nil {
		return nil
	}
	return a.Backend.Close()
}
