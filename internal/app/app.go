package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/fwforge/fwsched/internal/ctxlog"
	"github.com/fwforge/fwsched/internal/dispatch"
	"github.com/fwforge/fwsched/internal/manifest"
	"github.com/fwforge/fwsched/internal/storage"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle: a catalog populated by the compiled-in component modules, a
// manifest-seeded storage and a dispatcher run over it.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	catalog *manifest.Catalog
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and catalog.
func NewApp(outW io.Writer, appConfig *Config, modules ...Module) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	cat := manifest.NewCatalog()
	if len(modules) == 0 {
		modules = coreModules(outW)
	}
	for _, mod := range modules {
		mod.Register(cat)
	}
	logger.Debug("All component modules registered.", "count", len(modules))

	return &App{
		outW:    outW,
		logger:  logger,
		catalog: cat,
	}
}

// Run loads the platform manifest, seeds storage from it and dispatches the
// selected components to a fixed point.
func (a *App) Run(ctx context.Context, appConfig *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	s := storage.New()
	platform, err := manifest.Load(ctx, appConfig.ManifestPath, a.catalog, s)
	if err != nil {
		return fmt.Errorf("failed to load platform manifest: %w", err)
	}
	a.logger.Info("Platform loaded.", "platform", platform.Name, "components", len(platform.Components))

	if len(platform.Components) == 0 {
		a.logger.Warn("Manifest enables no components, nothing to dispatch.")
		return nil
	}

	d := dispatch.New()
	d.Register(platform.Components...)

	stalled, err := d.Run(ctx, s)
	if err != nil {
		return fmt.Errorf("dispatch failed: %w", err)
	}
	if len(stalled) > 0 {
		a.logger.Warn("Some components never ran.", "count", len(stalled))
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}
