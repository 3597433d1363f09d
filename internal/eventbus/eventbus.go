// Package eventbus carries typed resource lifecycle events between the leaf
// loaders, the timeout manager and the orchestrator. Leaf modules only know
// "this URL settled"; subscribers decide what that means.
//
// Dispatch is synchronous: handlers run in registration order, inline with
// Emit, so an observer has seen every event for an attempt by the time the
// emitting loader returns.
package eventbus

import (
	"fmt"
	"sync"

	"github.com/vk/assetgridgo/internal/config"
)

// Type enumerates the resource lifecycle events.
type Type int

const (
	LoadingStart Type = iota
	LoadingSuccess
	LoadingFailure
	LoadingTimeout
	FallbackStart
	FallbackSuccess
	FallbackFailure
)

// String returns the event name used in logs.
func (t Type) String() string {
	switch t {
	case LoadingStart:
		return "LOADING_START"
	case LoadingSuccess:
		return "LOADING_SUCCESS"
	case LoadingFailure:
		return "LOADING_FAILURE"
	case LoadingTimeout:
		return "LOADING_TIMEOUT"
	case FallbackStart:
		return "FALLBACK_START"
	case FallbackSuccess:
		return "FALLBACK_SUCCESS"
	case FallbackFailure:
		return "FALLBACK_FAILURE"
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Cause classifies why an attempt failed. CauseNone accompanies non-failure
// events.
type Cause int

const (
	CauseNone Cause = iota
	CauseFetchError
	CauseHTTPStatus
	CauseTimeout
	CauseBadConfig
)

// String returns the cause name used in logs.
func (c Cause) String() string {
	switch c {
	case CauseNone:
		return "none"
	case CauseFetchError:
		return "fetch_error"
	case CauseHTTPStatus:
		return "http_status"
	case CauseTimeout:
		return "timeout"
	case CauseBadConfig:
		return "bad_config"
	}
	return fmt.Sprintf("Cause(%d)", int(c))
}

// Event is the payload delivered to handlers.
type Event struct {
	Type        Type
	URL         string
	LogicalName string
	Priority    config.Priority
	Cause       Cause
}

// Handler receives events. Handlers must not block; they run inline with
// the emitter.
type Handler func(Event)

// Bus is a minimal publish/subscribe channel. The zero value is not usable;
// call New.
type Bus struct {
	mu       sync.Mutex
	handlers map[Type][]Handler
	any      []Handler
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{handlers: make(map[Type][]Handler)}
}

// On registers a handler for one event type.
func (b *Bus) On(t Type, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[t] = append(b.handlers[t], h)
}

// OnAny registers a handler for every event type. Used for logging and
// test observation.
func (b *Bus) OnAny(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.any = append(b.any, h)
}

// Emit dispatches the event to all matching handlers, in registration
// order, before returning. The handler snapshot is taken under the lock but
// handlers run outside it, so a handler may emit further events.
func (b *Bus) Emit(e Event) {
	b.mu.Lock()
	snapshot := make([]Handler, 0, len(b.handlers[e.Type])+len(b.any))
	snapshot = append(snapshot, b.handlers[e.Type]...)
	snapshot = append(snapshot, b.any...)
	b.mu.Unlock()

	for _, h := range snapshot {
		h(e)
	}
}
