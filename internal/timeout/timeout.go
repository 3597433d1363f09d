// Package timeout tracks one timer per in-flight resource URL. A resource
// whose fetch neither completes nor errors (a CDN that accepts the
// connection but never finishes the response) is forcibly aborted when its
// priority tier's timer expires, so the fallback procedure always converges
// within a bounded time. This is the liveness guarantee of the subsystem.
package timeout

import (
	"sync"

	"github.com/juju/clock"

	"github.com/vk/assetgridgo/internal/config"
	"github.com/vk/assetgridgo/internal/eventbus"
)

// AbortFunc tears down the stalled attempt: cancel its fetch and remove the
// half-attached element so the normal failure path observes it.
type AbortFunc func()

// Manager owns the per-URL timers. All timers come from the injected clock
// so tests drive expiry deterministically.
type Manager struct {
	clock clock.Clock
	bus   *eventbus.Bus
	table config.TimeoutTable

	mu     sync.Mutex
	timers map[string]clock.Timer
}

// New creates a Manager using the given clock and tier table.
func New(clk clock.Clock, bus *eventbus.Bus, table config.TimeoutTable) *Manager {
	return &Manager{
		clock:  clk,
		bus:    bus,
		table:  table,
		timers: make(map[string]clock.Timer),
	}
}

// Start arms the timer for one URL. On expiry the manager emits
// LOADING_TIMEOUT and then runs abort. Starting a URL that already has a
// timer replaces it; the loaders never do this because attempts are
// deduplicated per URL.
func (m *Manager) Start(url, logicalName string, priority config.Priority, abort AbortFunc) {
	duration := m.table.For(priority)

	m.mu.Lock()
	if old, ok := m.timers[url]; ok {
		old.Stop()
	}
	m.timers[url] = m.clock.AfterFunc(duration, func() {
		m.expire(url, logicalName, priority, abort)
	})
	m.mu.Unlock()
}

// Cancel clears the timer for a URL that settled before expiry. Cancelling
// an unknown or already-expired URL is a no-op.
func (m *Manager) Cancel(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.timers[url]; ok {
		t.Stop()
		delete(m.timers, url)
	}
}

// Pending returns the number of armed timers. Exposed for the status
// endpoint and tests.
func (m *Manager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

func (m *Manager) expire(url, logicalName string, priority config.Priority, abort AbortFunc) {
	m.mu.Lock()
	if _, ok := m.timers[url]; !ok {
		// Cancel raced the expiry; the attempt already settled.
		m.mu.Unlock()
		return
	}
	delete(m.timers, url)
	m.mu.Unlock()

	m.bus.Emit(eventbus.Event{
		Type:        eventbus.LoadingTimeout,
		URL:         url,
		LogicalName: logicalName,
		Priority:    priority,
		Cause:       eventbus.CauseTimeout,
	})
	abort()
}
