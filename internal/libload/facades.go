package libload

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/vk/assetgridgo/internal/manager"
)

// loadCoreAndTheme fetches a library's script and stylesheet in parallel.
// It reports whether both settled successfully; either way the caller keeps
// rendering.
func loadCoreAndTheme(ctx context.Context, mgr *manager.Manager, core, theme string) bool {
	var coreOK, themeOK bool

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		coreOK = mgr.LoadResource(gctx, core).Outcome.Succeeded()
		return nil
	})
	g.Go(func() error {
		themeOK = mgr.LoadResource(gctx, theme).Outcome.Succeeded()
		return nil
	})
	_ = g.Wait()

	return coreOK && themeOK
}

// facade is the shared idempotent core+theme loader behind KaTeX and
// GridJS.
type facade struct {
	mgr   *manager.Manager
	core  string
	theme string

	mu    sync.Mutex
	ready bool
}

func (f *facade) load(ctx context.Context) bool {
	f.mu.Lock()
	if f.ready {
		f.mu.Unlock()
		return true
	}
	f.mu.Unlock()

	ok := loadCoreAndTheme(ctx, f.mgr, f.core, f.theme)

	f.mu.Lock()
	f.ready = ok
	f.mu.Unlock()
	return ok
}

// KaTeX is the math-renderer facade.
type KaTeX struct {
	facade
}

// NewKaTeX builds the facade over the given orchestrator.
func NewKaTeX(mgr *manager.Manager) *KaTeX {
	return &KaTeX{facade{mgr: mgr, core: "katex-core", theme: "katex-theme"}}
}

// Load fetches the renderer script and stylesheet. False means math renders
// as raw markup.
func (k *KaTeX) Load(ctx context.Context) bool {
	return k.load(ctx)
}

// GridJS is the table-renderer facade.
type GridJS struct {
	facade
}

// NewGridJS builds the facade over the given orchestrator.
func NewGridJS(mgr *manager.Manager) *GridJS {
	return &GridJS{facade{mgr: mgr, core: "gridjs-core", theme: "gridjs-theme"}}
}

// Load fetches the renderer script and stylesheet. False means tables
// render with the minimal inline styling.
func (g *GridJS) Load(ctx context.Context) bool {
	return g.load(ctx)
}
