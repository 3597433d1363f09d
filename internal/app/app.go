package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/juju/clock"

	"github.com/vk/assetgridgo/internal/config"
	"github.com/vk/assetgridgo/internal/ctxlog"
	"github.com/vk/assetgridgo/internal/document"
	"github.com/vk/assetgridgo/internal/eventbus"
	"github.com/vk/assetgridgo/internal/libload"
	"github.com/vk/assetgridgo/internal/loader"
	"github.com/vk/assetgridgo/internal/manager"
	"github.com/vk/assetgridgo/internal/registry"
	"github.com/vk/assetgridgo/internal/timeout"
)

// App encapsulates one fully wired loading subsystem: registry, document,
// event bus, timeout manager, leaf loaders, orchestrator and the
// per-library facades.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	reg     *registry.Registry
	doc     *document.Document
	bus     *eventbus.Bus
	manager *manager.Manager
	prism   *libload.Prism
	katex   *libload.KaTeX
	gridjs  *libload.GridJS
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger, document and
// orchestrator — two App instances share nothing.
func NewApp(outW io.Writer, appConfig *Config, cfgLoader config.Loader) (*App, error) {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	var paths []string
	if appConfig.RegistryPath != "" {
		paths = append(paths, appConfig.RegistryPath)
	}
	model, err := cfgLoader.Load(ctx, paths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load registry manifests: %w", err)
	}
	logger.Debug("Registry manifests translated into unified model.")

	reg := registry.New(model)
	if err := reg.ValidateRegistry(ctx); err != nil {
		// A mismatch between manifests and expectations is a startup error.
		return nil, err
	}
	logger.Debug("Registry validation passed.")

	doc := document.New()
	bus := eventbus.New()
	sets := loader.NewSets()
	clk := clock.WallClock
	timeouts := timeout.New(clk, bus, reg.Timeouts())
	fetch := loader.NewFetcher(appConfig.AssetsDir)
	styles := loader.NewStyleLoader(sets, doc, bus, timeouts, fetch)
	scripts := loader.NewScriptLoader(sets, doc, bus, timeouts, fetch)

	mgr := manager.New(ctx, reg, doc, bus, sets, timeouts, styles, scripts)
	mgr.RegisterDefaultDegraded()

	bus.OnAny(func(e eventbus.Event) {
		logger.Debug("Resource event.", "event", e.Type.String(), "resource", e.LogicalName, "url", e.URL, "cause", e.Cause.String())
	})

	return &App{
		outW:    outW,
		logger:  logger,
		reg:     reg,
		doc:     doc,
		bus:     bus,
		manager: mgr,
		prism:   libload.NewPrism(mgr, clk, nil),
		katex:   libload.NewKaTeX(mgr),
		gridjs:  libload.NewGridJS(mgr),
	}, nil
}

// Manager returns the application's orchestrator. This is primarily for
// testing.
func (a *App) Manager() *manager.Manager {
	return a.manager
}

// Document returns the application's document. This is primarily for
// testing.
func (a *App) Document() *document.Document {
	return a.doc
}
