// Package manager is the orchestrator of the loading subsystem. It owns the
// shared loaded/failed sets and the per-resource fallback cursors, wires the
// leaf loaders, timeout manager and CDN mapper together, and runs the
// fallback decision procedure when an attempt settles unsuccessfully.
//
// All state lives on a Manager instance; constructing two managers yields
// two fully isolated subsystems.
package manager

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/vk/assetgridgo/internal/cdnmap"
	"github.com/vk/assetgridgo/internal/config"
	"github.com/vk/assetgridgo/internal/ctxlog"
	"github.com/vk/assetgridgo/internal/document"
	"github.com/vk/assetgridgo/internal/eventbus"
	"github.com/vk/assetgridgo/internal/loader"
	"github.com/vk/assetgridgo/internal/registry"
	"github.com/vk/assetgridgo/internal/timeout"
)

// DegradedHandler applies a resource-specific, non-networked substitute
// (inline CSS, unicode glyphs) after every source for a resource failed.
type DegradedHandler func(doc *document.Document)

// Manager coordinates loads and fallback for all logical resources.
type Manager struct {
	registry *registry.Registry
	mapper   *cdnmap.Mapper
	doc      *document.Document
	bus      *eventbus.Bus
	sets     *loader.Sets
	timeouts *timeout.Manager
	styles   *loader.Loader
	scripts  *loader.Loader
	baseCtx  context.Context

	flight singleflight.Group

	mu       sync.Mutex
	results  map[string]loader.Result
	reports  map[string]*Report
	degraded map[string]DegradedHandler
}

// New wires a complete orchestrator. The document's element error hook is
// claimed by the returned manager so failures of statically seeded elements
// flow into the same fallback procedure. The context supplies the logger
// for work not driven by a caller, such as element-error recovery.
func New(ctx context.Context, reg *registry.Registry, doc *document.Document, bus *eventbus.Bus, sets *loader.Sets, timeouts *timeout.Manager, styles, scripts *loader.Loader) *Manager {
	m := &Manager{
		baseCtx:  ctx,
		registry: reg,
		mapper:   cdnmap.New(reg, doc),
		doc:      doc,
		bus:      bus,
		sets:     sets,
		timeouts: timeouts,
		styles:   styles,
		scripts:  scripts,
		results:  make(map[string]loader.Result),
		reports:  make(map[string]*Report),
		degraded: make(map[string]DegradedHandler),
	}
	doc.OnElementError(m.handleElementFailure)
	return m
}

// RegisterDegraded installs the final-fallback handler for a key. The key
// is a descriptor's "degraded" attribute, or its logical name when the
// attribute is absent.
func (m *Manager) RegisterDegraded(key string, h DegradedHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.degraded[key] = h
}

// LoadResource loads one logical resource, walking its fallback chain until
// a source succeeds or the chain is exhausted. Concurrent callers for the
// same name share a single chain walk, and a settled resource is never
// walked again: repeated calls return the memoized result.
func (m *Manager) LoadResource(ctx context.Context, logicalName string) loader.Result {
	m.mu.Lock()
	if res, ok := m.results[logicalName]; ok {
		m.mu.Unlock()
		return res
	}
	m.mu.Unlock()

	v, _, _ := m.flight.Do(logicalName, func() (any, error) {
		res := m.loadChain(ctx, logicalName)
		m.mu.Lock()
		m.results[logicalName] = res
		m.mu.Unlock()
		return res, nil
	})
	return v.(loader.Result)
}

// GroupResult reports the settle state of every member of a group.
type GroupResult struct {
	Group    string
	Outcomes map[string]loader.Outcome
}

// Succeeded reports whether every member settled successfully.
func (g *GroupResult) Succeeded() bool {
	for _, o := range g.Outcomes {
		if !o.Succeeded() {
			return false
		}
	}
	return true
}

// LoadGroup loads every member of a named group in parallel. Individual
// member failures degrade, they never error; the only error is an unknown
// group name, which callers must tolerate by rendering unstyled content.
func (m *Manager) LoadGroup(ctx context.Context, name string) (*GroupResult, error) {
	logger := ctxlog.FromContext(ctx)

	group, err := m.registry.Group(name)
	if err != nil {
		logger.Warn("Unknown resource group requested.", "group", name)
		return nil, err
	}

	result := &GroupResult{
		Group:    name,
		Outcomes: make(map[string]loader.Outcome, len(group.Resources)),
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, member := range group.Resources {
		member := member
		g.Go(func() error {
			res := m.LoadResource(gctx, member)
			mu.Lock()
			result.Outcomes[member] = res.Outcome
			mu.Unlock()
			return nil
		})
	}
	// Members never return errors; Wait only joins the goroutines.
	_ = g.Wait()

	logger.Info("Resource group settled.", "group", name, "succeeded", result.Succeeded())
	return result, nil
}

// loaderFor picks the leaf loader matching the descriptor kind.
func (m *Manager) loaderFor(kind config.Kind) *loader.Loader {
	if kind == config.Stylesheet {
		return m.styles
	}
	return m.scripts
}

func (m *Manager) request(desc *config.Descriptor, url string) loader.Request {
	attrs := make(map[string]string, len(desc.Attributes)+1)
	for k, v := range desc.Attributes {
		attrs[k] = v
	}
	if local := m.registry.LocalURL(desc); local != "" {
		attrs[document.AttrLocalFallback] = local
	}
	return loader.Request{
		URL:         url,
		LogicalName: desc.LogicalName,
		Priority:    desc.Priority,
		Attrs:       attrs,
		NonBlocking: desc.Kind == config.Stylesheet,
	}
}

// loadChain performs the initial attempt plus the fallback walk for one
// logical resource.
func (m *Manager) loadChain(ctx context.Context, logicalName string) loader.Result {
	logger := ctxlog.FromContext(ctx)
	started := time.Now()

	desc, err := m.registry.Resolve(logicalName)
	if err != nil {
		// Configuration error: warn and treat as immediate exhaustion.
		logger.Warn("Unknown logical resource requested.", "resource", logicalName)
		m.record(logicalName, loader.Failed, "", 0, time.Since(started), false)
		return loader.Result{Outcome: loader.Failed, Cause: eventbus.CauseBadConfig}
	}

	first := m.firstURL(desc)
	if first == "" {
		logger.Warn("Resource has no resolvable source.", "resource", logicalName, "strategy", desc.Strategy.String())
		m.applyFinalFallback(ctx, desc)
		m.record(logicalName, loader.Failed, "", 0, time.Since(started), true)
		return loader.Result{Outcome: loader.Failed, Cause: eventbus.CauseBadConfig}
	}

	res, finalURL, attempts := m.walk(ctx, desc, first, make(map[string]bool))
	m.record(logicalName, res.Outcome, finalURL, attempts, time.Since(started), !res.Outcome.Succeeded())
	return res
}

// firstURL selects the first source honouring the strategy: local-only
// resources start (and end) at the local file, everything else starts at
// the primary CDN source.
func (m *Manager) firstURL(desc *config.Descriptor) string {
	if desc.Strategy == config.LocalOnly {
		return m.registry.LocalURL(desc)
	}
	return m.mapper.NextURL(desc, nil)
}

// walk attempts URLs until one succeeds or the decision procedure gives up,
// then applies the final degraded fallback.
func (m *Manager) walk(ctx context.Context, desc *config.Descriptor, firstURL string, tried map[string]bool) (loader.Result, string, int) {
	url := firstURL
	attempts := 0
	fellBack := false

	for {
		attempts++
		res := m.loaderFor(desc.Kind).Load(ctx, m.request(desc, url))
		tried[url] = true

		if res.Outcome.Succeeded() {
			if fellBack {
				m.bus.Emit(eventbus.Event{
					Type:        eventbus.FallbackSuccess,
					URL:         url,
					LogicalName: desc.LogicalName,
					Priority:    desc.Priority,
				})
			}
			return res, url, attempts
		}

		next := m.nextSource(desc, url, tried)
		if next == "" {
			m.applyFinalFallback(ctx, desc)
			return res, url, attempts
		}

		fellBack = true
		m.bus.Emit(eventbus.Event{
			Type:        eventbus.FallbackStart,
			URL:         next,
			LogicalName: desc.LogicalName,
			Priority:    desc.Priority,
		})
		url = next
	}
}

// nextSource is the fallback decision procedure: given a failed URL, pick
// the next source to try, or "" to give up.
//
// A failed local source is always terminal. A local-only resource has
// nothing beyond its local file. Otherwise the next untried CDN candidate
// wins, and a cdn-first resource gets its local file as the last resort.
func (m *Manager) nextSource(desc *config.Descriptor, failedURL string, tried map[string]bool) string {
	if isLocal(failedURL) {
		return ""
	}
	if desc.Strategy == config.LocalOnly {
		// Should not be reachable for a CDN URL, but fail safe.
		return ""
	}
	if next := m.mapper.NextURL(desc, tried); next != "" {
		return next
	}
	if desc.Strategy == config.CDNFirst {
		if local := m.registry.LocalURL(desc); local != "" && !tried[local] {
			return local
		}
	}
	return ""
}

// handleElementFailure is the document's element error hook: the entry
// point for failures of elements this manager did not insert itself. It
// funnels into the identical fallback procedure.
func (m *Manager) handleElementFailure(el *document.Element) {
	ctx := m.baseCtx
	logger := ctxlog.FromContext(ctx)

	url := el.URL
	logicalName := el.Attr(document.AttrResourceID)
	if url == "" || logicalName == "" {
		return
	}
	if !m.sets.MarkFailed(url) {
		// Already handled; a timeout abort and a native error may race.
		return
	}
	m.timeouts.Cancel(url)
	m.doc.Remove(url)

	desc, err := m.registry.Resolve(logicalName)
	if err != nil {
		logger.Warn("Failing element references unknown resource.", "url", url, "resource", logicalName)
		return
	}

	m.bus.Emit(eventbus.Event{
		Type:        eventbus.LoadingFailure,
		URL:         url,
		LogicalName: logicalName,
		Priority:    desc.Priority,
		Cause:       eventbus.CauseFetchError,
	})

	started := time.Now()
	tried := m.triedSet(desc)
	tried[url] = true

	next := m.nextSource(desc, url, tried)
	if next == "" {
		m.applyFinalFallback(ctx, desc)
		m.settle(logicalName, loader.Result{Outcome: loader.Failed, Cause: eventbus.CauseFetchError}, "", 0, time.Since(started))
		return
	}
	m.bus.Emit(eventbus.Event{
		Type:        eventbus.FallbackStart,
		URL:         next,
		LogicalName: logicalName,
		Priority:    desc.Priority,
	})
	res, finalURL, attempts := m.walk(ctx, desc, next, tried)
	m.settle(logicalName, res, finalURL, attempts, time.Since(started))
}

// settle memoizes a result produced outside LoadResource, so a later call
// for the same logical name returns it instead of re-walking the chain.
func (m *Manager) settle(logicalName string, res loader.Result, finalURL string, attempts int, duration time.Duration) {
	m.record(logicalName, res.Outcome, finalURL, attempts, duration, !res.Outcome.Succeeded())
	m.mu.Lock()
	m.results[logicalName] = res
	m.mu.Unlock()
}

// triedSet seeds the tried map with every candidate that already settled,
// so a recovery walk never revisits a tripped breaker.
func (m *Manager) triedSet(desc *config.Descriptor) map[string]bool {
	tried := make(map[string]bool)
	for _, url := range m.mapper.Candidates(desc) {
		if m.sets.IsFailed(url) || m.sets.IsLoaded(url) {
			tried[url] = true
		}
	}
	if local := m.registry.LocalURL(desc); local != "" {
		if m.sets.IsFailed(local) || m.sets.IsLoaded(local) {
			tried[local] = true
		}
	}
	return tried
}

func isLocal(url string) bool {
	return !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://")
}
