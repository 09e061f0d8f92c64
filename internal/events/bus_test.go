package events_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Segevolp/AlgoTrade/internal/events"
)

func TestBus_Publish(t *testing.T) {
	t.Run("delivers to subscribers of the type in order", func(t *testing.T) {
		bus := events.NewBus(zerolog.Nop())
		var order []string

		bus.Subscribe(events.SessionInvalidated, func(e *events.Event) { order = append(order, "first") })
		bus.Subscribe(events.SessionInvalidated, func(e *events.Event) { order = append(order, "second") })
		bus.Subscribe(events.SessionEnded, func(e *events.Event) { order = append(order, "other") })

		bus.Publish(&events.SessionInvalidatedData{Path: "/profile", HadCredential: true})

		assert.Equal(t, []string{"first", "second"}, order)
	})

	t.Run("event carries type, time and payload", func(t *testing.T) {
		bus := events.NewBus(zerolog.Nop())
		var got *events.Event
		bus.Subscribe(events.PortfoliosChanged, func(e *events.Event) { got = e })

		bus.Publish(&events.PortfoliosChangedData{Count: 2, ActiveID: "7"})

		require.NotNil(t, got)
		assert.Equal(t, events.PortfoliosChanged, got.Type)
		assert.False(t, got.Timestamp.IsZero())
		data, ok := got.Data.(*events.PortfoliosChangedData)
		require.True(t, ok)
		assert.Equal(t, 2, data.Count)
		assert.Equal(t, "7", data.ActiveID)
	})

	t.Run("unsubscribe stops delivery and is idempotent", func(t *testing.T) {
		bus := events.NewBus(zerolog.Nop())
		calls := 0
		unsubscribe := bus.Subscribe(events.SessionEnded, func(e *events.Event) { calls++ })

		bus.Publish(&events.SessionEndedData{})
		unsubscribe()
		unsubscribe()
		bus.Publish(&events.SessionEndedData{})

		assert.Equal(t, 1, calls)
	})

	t.Run("a panicking handler does not stop the others", func(t *testing.T) {
		bus := events.NewBus(zerolog.Nop())
		delivered := false
		bus.Subscribe(events.SessionStarted, func(e *events.Event) { panic("boom") })
		bus.Subscribe(events.SessionStarted, func(e *events.Event) { delivered = true })

		assert.NotPanics(t, func() {
			bus.Publish(&events.SessionStartedData{Username: "alice"})
		})
		assert.True(t, delivered)
	})

	t.Run("handlers may subscribe while being delivered", func(t *testing.T) {
		bus := events.NewBus(zerolog.Nop())
		bus.Subscribe(events.SessionEnded, func(e *events.Event) {
			bus.Subscribe(events.SessionEnded, func(e *events.Event) {})
		})

		assert.NotPanics(t, func() { bus.Publish(&events.SessionEndedData{}) })
	})
}
