package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/vk/plugridgo/internal/capability"
	"github.com/vk/plugridgo/internal/config"
	"github.com/vk/plugridgo/internal/ctxlog"
	"github.com/vk/plugridgo/internal/extpoint"
	"github.com/vk/plugridgo/internal/jobcache"
	"github.com/vk/plugridgo/internal/runtime"
	"github.com/vk/plugridgo/internal/shutdown"
)

// App encapsulates the extension layer's dependencies, configuration, and
// lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	catalog  *capability.Catalog
	registry *runtime.FactoryRegistry
	detector *capability.Detector
	cache    *jobcache.Cache
	hooks    *shutdown.Hooks
}

// New is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger, catalog, and
// registry. Critical wiring failures panic; the CLI boundary recovers them
// into exit codes.
func New(outW io.Writer, appConfig *Config, loader config.Loader, modules ...runtime.Module) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	catalog := extpoint.NewCatalog()
	logger.Debug("Capability catalog populated.", "points", len(catalog.Points()))

	registry := runtime.NewFactoryRegistry()
	extpoint.RegisterCapabilities(registry)
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(registry)
	}
	logger.Debug("All plugin modules registered.", "count", len(modules))

	factory := runtime.NewHostFactory(registry, loader, appConfig.BootstrapPath)
	factory.Defaults = config.Bootstrap{
		AutoDeployDir: appConfig.PluginsPath,
		Watch:         appConfig.Watch,
	}

	hooks := shutdown.New()
	cache, err := jobcache.New(appConfig.CacheSize, factory, hooks, logger)
	if err != nil {
		// The CLI validates the size; reaching here means a hand-built
		// Config, which is programmer error.
		panic(err)
	}

	return &App{
		outW:     outW,
		logger:   logger,
		config:   appConfig,
		catalog:  catalog,
		registry: registry,
		detector: capability.NewDetector(catalog, registry.Graph()),
		cache:    cache,
		hooks:    hooks,
	}
}

// Catalog returns the application's capability catalog.
func (a *App) Catalog() *capability.Catalog {
	return a.catalog
}

// Registry returns the application's factory registry. This is primarily for
// testing.
func (a *App) Registry() *runtime.FactoryRegistry {
	return a.registry
}

// Cache returns the job-scoped extension cache.
func (a *App) Cache() *jobcache.Cache {
	return a.cache
}

// Detector returns the extension-point detector.
func (a *App) Detector() *capability.Detector {
	return a.detector
}

// Close runs the process-exit hooks, stopping every runtime still cached.
func (a *App) Close(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	return a.hooks.Run(ctx)
}
