// Package loader holds the two leaf primitives that attach an asset to the
// document: the style loader and the script loader. A loader creates
// exactly one element per attempt, arms a timeout, fetches the URL, and
// settles with a tri-state-plus-failure Outcome. Expected failures are
// values, not errors; nothing here panics or returns an error for a URL
// that simply would not load.
package loader

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/vk/assetgridgo/internal/config"
	"github.com/vk/assetgridgo/internal/ctxlog"
	"github.com/vk/assetgridgo/internal/document"
	"github.com/vk/assetgridgo/internal/eventbus"
	"github.com/vk/assetgridgo/internal/timeout"
)

// Outcome is the settle state of one Load call.
type Outcome int

const (
	// Loaded means this call fetched and attached the asset.
	Loaded Outcome = iota
	// Cached means the URL settled successfully earlier; nothing was done.
	Cached
	// Existing means an element with this URL was already in the document,
	// for example seeded from static markup.
	Existing
	// Failed means the attempt settled unsuccessfully; Result.Cause says why.
	Failed
)

// String returns the outcome name used in logs and reports.
func (o Outcome) String() string {
	switch o {
	case Loaded:
		return "loaded"
	case Cached:
		return "cached"
	case Existing:
		return "existing"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Succeeded reports whether the outcome counts as a settled success.
func (o Outcome) Succeeded() bool {
	return o == Loaded || o == Cached || o == Existing
}

// Result is the tagged union every fallback decision consumes.
type Result struct {
	Outcome Outcome
	Cause   eventbus.Cause
}

// Request describes one load attempt.
type Request struct {
	URL         string
	LogicalName string
	Priority    config.Priority
	// Attrs is copied onto the created element alongside the data-resource-*
	// identification attributes.
	Attrs map[string]string
	// NonBlocking inserts a stylesheet in the disabled state and enables it
	// only after the fetch completes, so a slow CSS fetch never holds up
	// first paint. Ignored for scripts.
	NonBlocking bool
}

// Loader attaches assets of one kind. Construct with NewStyleLoader or
// NewScriptLoader; both share the identical settle logic and differ only in
// the element kind they create.
type Loader struct {
	kind     config.Kind
	sets     *Sets
	doc      *document.Document
	bus      *eventbus.Bus
	timeouts *timeout.Manager
	fetch    *Fetcher

	flight singleflight.Group
}

// NewStyleLoader builds the stylesheet leaf loader.
func NewStyleLoader(sets *Sets, doc *document.Document, bus *eventbus.Bus, timeouts *timeout.Manager, fetch *Fetcher) *Loader {
	return &Loader{kind: config.Stylesheet, sets: sets, doc: doc, bus: bus, timeouts: timeouts, fetch: fetch}
}

// NewScriptLoader builds the script leaf loader.
func NewScriptLoader(sets *Sets, doc *document.Document, bus *eventbus.Bus, timeouts *timeout.Manager, fetch *Fetcher) *Loader {
	return &Loader{kind: config.Script, sets: sets, doc: doc, bus: bus, timeouts: timeouts, fetch: fetch}
}

// Kind returns the element kind this loader attaches.
func (l *Loader) Kind() config.Kind {
	return l.kind
}

// Load settles one URL. It is idempotent and safe to call concurrently for
// the same URL: exactly one element is created, and every concurrent caller
// observes the same Result.
func (l *Loader) Load(ctx context.Context, req Request) Result {
	// Settled URLs never unsettle, so these reads are safe outside the
	// flight group.
	if l.sets.IsLoaded(req.URL) {
		return Result{Outcome: Cached}
	}
	if l.sets.IsFailed(req.URL) {
		// Tripped breaker: this URL is never retried.
		return Result{Outcome: Failed, Cause: eventbus.CauseFetchError}
	}

	// Everything else runs inside the flight group: a caller arriving while
	// an attempt for this URL is in flight shares that attempt's Result
	// instead of observing its half-settled element. The document check must
	// sit here too, since an attempt inserts its element before fetching.
	v, _, _ := l.flight.Do(req.URL, func() (any, error) {
		if l.sets.IsLoaded(req.URL) {
			return Result{Outcome: Cached}, nil
		}
		if l.sets.IsFailed(req.URL) {
			return Result{Outcome: Failed, Cause: eventbus.CauseFetchError}, nil
		}
		if el := l.doc.ByURL(req.URL); el != nil {
			// Present but not attached by us; adopt it as settled.
			l.sets.MarkLoaded(req.URL)
			return Result{Outcome: Existing}, nil
		}
		return l.attempt(ctx, req), nil
	})
	return v.(Result)
}

// attempt runs exactly once per in-flight URL. The element is inserted
// before the fetch starts so concurrent observers of the document see at
// most one element for the URL at any time.
func (l *Loader) attempt(ctx context.Context, req Request) Result {
	logger := ctxlog.FromContext(ctx)

	el := &document.Element{
		URL:      req.URL,
		Disabled: l.kind == config.Stylesheet && req.NonBlocking,
		Attrs:    l.elementAttrs(req),
	}
	l.doc.Append(el)

	l.bus.Emit(eventbus.Event{
		Type:        eventbus.LoadingStart,
		URL:         req.URL,
		LogicalName: req.LogicalName,
		Priority:    req.Priority,
	})

	// The caller's cancellation is deliberately not inherited: the timeout
	// manager's forced abort is the subsystem's only cancellation primitive.
	attemptCtx, cancel := context.WithCancelCause(context.WithoutCancel(ctx))
	defer cancel(nil)

	l.timeouts.Start(req.URL, req.LogicalName, req.Priority, func() {
		l.doc.SetAttr(req.URL, document.AttrTimeoutAborted, "true")
		cancel(errAborted)
	})

	cause := l.fetch.Fetch(attemptCtx, req.URL)
	l.timeouts.Cancel(req.URL)

	if cause == eventbus.CauseNone {
		l.sets.MarkLoaded(req.URL)
		if el.Disabled {
			l.doc.Enable(req.URL)
		}
		logger.Debug("Resource attached.", "kind", l.kind.String(), "url", req.URL, "resource", req.LogicalName)
		l.bus.Emit(eventbus.Event{
			Type:        eventbus.LoadingSuccess,
			URL:         req.URL,
			LogicalName: req.LogicalName,
			Priority:    req.Priority,
		})
		return Result{Outcome: Loaded}
	}

	l.sets.MarkFailed(req.URL)
	l.doc.Remove(req.URL)
	logger.Debug("Resource attempt failed.", "kind", l.kind.String(), "url", req.URL, "resource", req.LogicalName, "cause", cause.String())
	l.bus.Emit(eventbus.Event{
		Type:        eventbus.LoadingFailure,
		URL:         req.URL,
		LogicalName: req.LogicalName,
		Priority:    req.Priority,
		Cause:       cause,
	})
	return Result{Outcome: Failed, Cause: cause}
}

func (l *Loader) elementAttrs(req Request) map[string]string {
	attrs := make(map[string]string, len(req.Attrs)+3)
	for k, v := range req.Attrs {
		attrs[k] = v
	}
	attrs[document.AttrResourceType] = l.kind.String()
	attrs[document.AttrResourceID] = req.LogicalName
	attrs[document.AttrPriority] = req.Priority.String()
	return attrs
}
