package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitDispatchesInRegistrationOrder(t *testing.T) {
	bus := New()
	var order []string

	bus.On(LoadingFailure, func(Event) { order = append(order, "first") })
	bus.On(LoadingFailure, func(Event) { order = append(order, "second") })
	bus.On(LoadingSuccess, func(Event) { order = append(order, "wrong-type") })

	bus.Emit(Event{Type: LoadingFailure, URL: "https://cdn/x.js"})

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestEmitIsSynchronous(t *testing.T) {
	bus := New()
	seen := false
	bus.On(LoadingTimeout, func(e Event) {
		seen = true
		assert.Equal(t, "https://cdn/y.css", e.URL)
		assert.Equal(t, CauseTimeout, e.Cause)
	})

	bus.Emit(Event{Type: LoadingTimeout, URL: "https://cdn/y.css", Cause: CauseTimeout})

	// The handler has run by the time Emit returns.
	require.True(t, seen)
}

func TestOnAnyReceivesEveryType(t *testing.T) {
	bus := New()
	var types []Type
	bus.OnAny(func(e Event) { types = append(types, e.Type) })

	bus.Emit(Event{Type: LoadingStart})
	bus.Emit(Event{Type: FallbackStart})
	bus.Emit(Event{Type: FallbackFailure})

	assert.Equal(t, []Type{LoadingStart, FallbackStart, FallbackFailure}, types)
}

func TestHandlerMayEmit(t *testing.T) {
	bus := New()
	var order []string
	bus.On(LoadingFailure, func(Event) {
		order = append(order, "failure")
		bus.Emit(Event{Type: FallbackStart})
	})
	bus.On(FallbackStart, func(Event) { order = append(order, "fallback") })

	bus.Emit(Event{Type: LoadingFailure})

	assert.Equal(t, []string{"failure", "fallback"}, order)
}

func TestTypeAndCauseStrings(t *testing.T) {
	assert.Equal(t, "LOADING_TIMEOUT", LoadingTimeout.String())
	assert.Equal(t, "FALLBACK_SUCCESS", FallbackSuccess.String())
	assert.Equal(t, "timeout", CauseTimeout.String())
	assert.Equal(t, "http_status", CauseHTTPStatus.String())
}
