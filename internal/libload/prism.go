// Package libload holds the thin per-library facades over the orchestrator:
// Prism (syntax highlighting), KaTeX (math) and GridJS (tables). Each asks
// the manager for the library's core script and theme stylesheet and keeps
// an idempotent already-loaded fast path. Prism additionally loads language
// components in dependency order, confirming each layer's registration
// before starting the next.
package libload

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/juju/retry"
	"golang.org/x/sync/errgroup"

	"github.com/vk/assetgridgo/internal/ctxlog"
	"github.com/vk/assetgridgo/internal/dag"
	"github.com/vk/assetgridgo/internal/manager"
)

// languageDeps maps each supported language component to the components it
// requires. A component's script silently no-ops when loaded before its
// dependency has registered, so order matters.
var languageDeps = map[string][]string{
	"clike":      nil,
	"markup":     nil,
	"css":        nil,
	"json":       nil,
	"yaml":       nil,
	"sql":        nil,
	"bash":       nil,
	"python":     nil,
	"rust":       nil,
	"javascript": {"clike"},
	"java":       {"clike"},
	"csharp":     {"clike"},
	"go":         {"clike"},
	"c":          {"clike"},
	"cpp":        {"c"},
	"typescript": {"javascript"},
}

// LanguageResource returns the logical resource name of a language
// component.
func LanguageResource(lang string) string {
	return "prism-lang-" + lang
}

// Probe reports whether a loaded component has finished registering itself
// into the highlighter's shared namespace. The default probe considers a
// settled element sufficient; tests inject slower probes.
type Probe func(component string) bool

const (
	probeInterval = 50 * time.Millisecond
	probeBudget   = 2 * time.Second
)

// Prism is the syntax-highlighter facade.
type Prism struct {
	mgr   *manager.Manager
	clock clock.Clock
	probe Probe

	mu    sync.Mutex
	ready bool
}

// NewPrism builds the facade. A nil probe treats every settled component as
// registered.
func NewPrism(mgr *manager.Manager, clk clock.Clock, probe Probe) *Prism {
	if probe == nil {
		probe = func(string) bool { return true }
	}
	return &Prism{mgr: mgr, clock: clk, probe: probe}
}

// Load fetches the highlighter core script and theme stylesheet in
// parallel. Repeated calls after a successful load return immediately.
// A false return means the page renders code unhighlighted; it is not an
// error condition.
func (p *Prism) Load(ctx context.Context) bool {
	p.mu.Lock()
	if p.ready {
		p.mu.Unlock()
		return true
	}
	p.mu.Unlock()

	ok := loadCoreAndTheme(ctx, p.mgr, "prism-core", "prism-theme")

	p.mu.Lock()
	p.ready = ok
	p.mu.Unlock()
	return ok
}

// LoadLanguages loads the named language components plus their transitive
// dependencies, one dependency layer at a time. Within a layer components
// load in parallel; the next layer starts only after every component of the
// current layer has been probed as registered (or its probe budget ran
// out, which is logged and tolerated).
func (p *Prism) LoadLanguages(ctx context.Context, langs ...string) error {
	logger := ctxlog.FromContext(ctx)

	if !p.Load(ctx) {
		// Core never arrived; components would register into nothing.
		logger.Warn("Highlighter core unavailable; skipping language components.")
		return nil
	}

	closure, err := p.closure(langs)
	if err != nil {
		return err
	}

	graph := dag.New()
	for lang := range closure {
		graph.AddNode(lang)
	}
	for lang := range closure {
		for _, dep := range languageDeps[lang] {
			if err := graph.AddEdge(dep, lang); err != nil {
				return fmt.Errorf("building language dependency graph: %w", err)
			}
		}
	}

	layers, err := graph.Layers()
	if err != nil {
		return fmt.Errorf("ordering language components: %w", err)
	}

	for _, layer := range layers {
		g, gctx := errgroup.WithContext(ctx)
		for _, lang := range layer {
			lang := lang
			g.Go(func() error {
				p.mgr.LoadResource(gctx, LanguageResource(lang))
				return nil
			})
		}
		_ = g.Wait()

		for _, lang := range layer {
			p.awaitRegistration(ctx, lang)
		}
	}
	return nil
}

// closure expands the requested languages with their transitive
// dependencies.
func (p *Prism) closure(langs []string) (map[string]bool, error) {
	out := make(map[string]bool)
	var add func(lang string) error
	add = func(lang string) error {
		deps, known := languageDeps[lang]
		if !known {
			return fmt.Errorf("unsupported language component %q", lang)
		}
		if out[lang] {
			return nil
		}
		out[lang] = true
		for _, dep := range deps {
			if err := add(dep); err != nil {
				return err
			}
		}
		return nil
	}
	for _, lang := range langs {
		if err := add(lang); err != nil {
			return nil, err
		}
	}
	return out, nil
}

var errNotRegistered = errors.New("component not registered yet")

// awaitRegistration polls the probe until the component reports registered
// or the budget elapses. Exhausting the budget is logged and tolerated:
// a missing component degrades one language, never the page.
func (p *Prism) awaitRegistration(ctx context.Context, lang string) {
	logger := ctxlog.FromContext(ctx)

	err := retry.Call(retry.CallArgs{
		Clock:       p.clock,
		Delay:       probeInterval,
		MaxDuration: probeBudget,
		Func: func() error {
			if p.probe(lang) {
				return nil
			}
			return errNotRegistered
		},
		Stop: ctx.Done(),
	})
	if err != nil {
		logger.Warn("Language component did not confirm registration.", "component", lang)
	}
}
