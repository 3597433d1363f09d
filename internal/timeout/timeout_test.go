package timeout

import (
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/assetgridgo/internal/config"
	"github.com/vk/assetgridgo/internal/eventbus"
)

func testTable() config.TimeoutTable {
	return config.TimeoutTable{
		config.Critical: 4 * time.Second,
		config.High:     6 * time.Second,
		config.Medium:   8 * time.Second,
		config.Low:      10 * time.Second,
	}
}

func TestExpiryEmitsTimeoutAndAborts(t *testing.T) {
	clk := testclock.NewClock(time.Now())
	bus := eventbus.New()
	mgr := New(clk, bus, testTable())

	var events []eventbus.Event
	bus.On(eventbus.LoadingTimeout, func(e eventbus.Event) { events = append(events, e) })

	aborted := make(chan struct{})
	mgr.Start("https://cdn/x.js", "prism-core", config.High, func() { close(aborted) })
	require.Equal(t, 1, mgr.Pending())

	require.NoError(t, clk.WaitAdvance(6*time.Second, time.Second, 1))

	select {
	case <-aborted:
	case <-time.After(time.Second):
		t.Fatal("abort never ran")
	}

	require.Len(t, events, 1)
	assert.Equal(t, "https://cdn/x.js", events[0].URL)
	assert.Equal(t, "prism-core", events[0].LogicalName)
	assert.Equal(t, config.High, events[0].Priority)
	assert.Equal(t, eventbus.CauseTimeout, events[0].Cause)
	assert.Equal(t, 0, mgr.Pending())
}

func TestCancelStopsTimer(t *testing.T) {
	clk := testclock.NewClock(time.Now())
	bus := eventbus.New()
	mgr := New(clk, bus, testTable())

	fired := false
	bus.On(eventbus.LoadingTimeout, func(eventbus.Event) { fired = true })

	mgr.Start("https://cdn/x.js", "prism-core", config.Low, func() { t.Error("abort must not run") })
	mgr.Cancel("https://cdn/x.js")
	assert.Equal(t, 0, mgr.Pending())

	clk.Advance(time.Minute)
	assert.False(t, fired)
}

func TestCancelUnknownURLIsNoop(t *testing.T) {
	clk := testclock.NewClock(time.Now())
	mgr := New(clk, eventbus.New(), testTable())
	mgr.Cancel("https://cdn/never-started.js")
	assert.Equal(t, 0, mgr.Pending())
}

func TestPriorityTierSelectsDuration(t *testing.T) {
	clk := testclock.NewClock(time.Now())
	bus := eventbus.New()
	mgr := New(clk, bus, testTable())

	fired := false
	bus.On(eventbus.LoadingTimeout, func(eventbus.Event) { fired = true })

	done := make(chan struct{})
	mgr.Start("https://cdn/slow.css", "theme", config.Low, func() { close(done) })

	// The low tier is 10s; 8s must not fire it.
	require.NoError(t, clk.WaitAdvance(8*time.Second, time.Second, 1))
	assert.False(t, fired)

	require.NoError(t, clk.WaitAdvance(2*time.Second, time.Second, 1))
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("low tier timer never fired")
	}
	assert.True(t, fired)
}
