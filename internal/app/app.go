package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/vk/stepgrid/internal/catalog"
	"github.com/vk/stepgrid/internal/config"
	"github.com/vk/stepgrid/internal/convert"
	"github.com/vk/stepgrid/internal/ctxlog"
	"github.com/vk/stepgrid/internal/engine"
	"github.com/vk/stepgrid/internal/executor"
	"github.com/vk/stepgrid/internal/gate"
	"github.com/vk/stepgrid/internal/outline"
	"github.com/vk/stepgrid/internal/scope"
)

const (
	defaultSuite   = "stepgrid"
	defaultWorkers = 10
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	settings *config.Settings
	catalog  *catalog.Catalog
	gates    *gate.Registry
	engine   *engine.Engine
	workers  int

	// executor is the one currently running, read by the healthcheck.
	executor atomic.Pointer[executor.Executor]
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger. Invalid settings or
// step definitions are startup errors and cause a panic.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader, modules ...catalog.Source) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	settings := config.New()
	if cfg.SettingsPath != "" {
		loaded, err := loader.Load(ctx, cfg.SettingsPath)
		if err != nil {
			panic(fmt.Errorf("failed to load settings: %w", err))
		}
		settings = loaded
	}
	logger.Debug("Settings loaded.", "gates", len(settings.Gates))

	gates, err := gate.NewRegistry(settings.Gates)
	if err != nil {
		panic(err)
	}

	if len(modules) == 0 {
		modules = coreModules(settings)
	}
	opts := catalog.Options{
		UnimplementedFatal: cfg.Strict || settings.Runner.UnimplementedFatal,
		MatchTimeout:       settings.Runner.MatchTimeout,
	}
	cat, err := catalog.Build(ctx, opts, modules...)
	if err != nil {
		// A broken step library is a programmer error, so we panic.
		panic(err)
	}
	logger.Debug("Step catalog built.", "modules", len(modules), "definitions", len(cat.Definitions()))

	suite := settings.Runner.Suite
	if suite == "" {
		suite = defaultSuite
	}
	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}

	eng := engine.New(
		cat,
		outline.NewBinder(convert.NewConverter()),
		scope.New(host, suite),
		engine.WithListeners(engine.LogListener{}),
		engine.WithOwners(engine.NewScopedOwners(modules...)),
		engine.WithGates(gates),
	)

	workers := cfg.WorkerCount
	if workers == 0 {
		workers = settings.Runner.Workers
	}
	if workers == 0 {
		workers = defaultWorkers
	}

	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		settings: settings,
		catalog:  cat,
		gates:    gates,
		engine:   eng,
		workers:  workers,
	}
}

// Catalog returns the application's step catalog. This is primarily for testing.
func (a *App) Catalog() *catalog.Catalog {
	return a.catalog
}

// Settings returns the loaded settings. This is primarily for testing.
func (a *App) Settings() *config.Settings {
	return a.settings
}
