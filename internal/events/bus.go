// Package events provides the in-process publish/subscribe bus the client
// components use to signal session changes to each other and to the UI layer.
package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EventType identifies a kind of event
type EventType string

const (
	// SessionInvalidated is published by the gateway whenever the backend answers 401.
	SessionInvalidated EventType = "SESSION_INVALIDATED"
	// SessionStarted is published after a successful login (or boot with a valid credential).
	SessionStarted EventType = "SESSION_STARTED"
	// SessionEnded is published after an explicit logout.
	SessionEnded EventType = "SESSION_ENDED"
	// PortfoliosChanged is published after the portfolio cache accepted a server response.
	PortfoliosChanged EventType = "PORTFOLIOS_CHANGED"
)

// Event is a single published event
type Event struct {
	Type      EventType
	Timestamp time.Time
	Data      EventData
}

// EventData is implemented by the typed payloads below
type EventData interface {
	EventType() EventType
}

// SessionInvalidatedData describes why the session was invalidated
type SessionInvalidatedData struct {
	Method        string
	Path          string
	HadCredential bool
}

func (d *SessionInvalidatedData) EventType() EventType { return SessionInvalidated }

// SessionStartedData carries the user of the new session
type SessionStartedData struct {
	UserID   string
	Username string
}

func (d *SessionStartedData) EventType() EventType { return SessionStarted }

// SessionEndedData is the (empty) payload of SessionEnded
type SessionEndedData struct{}

func (d *SessionEndedData) EventType() EventType { return SessionEnded }

// PortfoliosChangedData reports the cache size and active selection after a change
type PortfoliosChangedData struct {
	Count    int
	ActiveID string
}

func (d *PortfoliosChangedData) EventType() EventType { return PortfoliosChanged }

// Handler receives events. Handlers run synchronously on the publisher's goroutine.
type Handler func(*Event)

type subscription struct {
	id      int
	handler Handler
}

// Bus routes events to subscribers by type
type Bus struct {
	mu     sync.RWMutex
	subs   map[EventType][]subscription
	nextID int
	log    zerolog.Logger
}

// NewBus creates an empty bus
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		subs: make(map[EventType][]subscription),
		log:  log.With().Str("component", "events").Logger(),
	}
}

// Subscribe registers handler for eventType and returns a function that removes it.
func (b *Bus) Subscribe(eventType EventType, handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[eventType] = append(b.subs[eventType], subscription{id: id, handler: handler})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(eventType, id) })
	}
}

func (b *Bus) remove(eventType EventType, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[eventType]
	for i, s := range subs {
		if s.id == id {
			b.subs[eventType] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Publish delivers data to every subscriber of its type, in subscription order.
// A panicking handler is logged and does not stop delivery to the others.
func (b *Bus) Publish(data EventData) {
	event := &Event{
		Type:      data.EventType(),
		Timestamp: time.Now(),
		Data:      data,
	}

	b.mu.RLock()
	subs := make([]subscription, len(b.subs[event.Type]))
	copy(subs, b.subs[event.Type])
	b.mu.RUnlock()

	b.log.Debug().
		Str("event_type", string(event.Type)).
		Int("subscribers", len(subs)).
		Msg("Event published")

	for _, s := range subs {
		b.deliver(s, event)
	}
}

func (b *Bus) deliver(s subscription, event *Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().
				Interface("panic", r).
				Str("event_type", string(event.Type)).
				Msg("Event handler panicked")
		}
	}()
	s.handler(event)
}
