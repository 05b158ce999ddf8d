package event

import (
	"sync"

	"github.com/google/uuid"
)

// Type enumerates the canonical topics published by gateways.
type Type string

const (
	TypeTick     Type = "tick"
	TypeOrder    Type = "order"
	TypeTrade    Type = "trade"
	TypeAccount  Type = "account"
	TypePosition Type = "position"
	TypeContract Type = "contract"
	TypeLog      Type = "log"
)

// Event carries one canonical payload (domain.Tick, domain.Order, ...).
type Event struct {
	Type Type
	Data any
}

// Handler processes one event. Handlers run on the publisher's
// goroutine and must not block.
type Handler func(Event)

// Bus is an in-process publish/subscribe broker keyed by event type.
// It is constructed explicitly and passed by reference to every
// gateway; there is no package-level instance.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Type]map[string]Handler
	closed   bool
}

// NewBus creates an event bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[Type]map[string]Handler)}
}

// Subscribe registers a handler for one event type and returns a
// subscription id for Unsubscribe.
func (b *Bus) Subscribe(t Type, h Handler) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ""
	}
	if b.handlers[t] == nil {
		b.handlers[t] = make(map[string]Handler)
	}

	id := uuid.NewString()
	b.handlers[t][id] = h
	return id
}

// Unsubscribe removes a subscription. Unknown ids are a no-op.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, hs := range b.handlers {
		delete(hs, id)
	}
}

// Publish dispatches the payload to every handler registered for the
// type. Events published after Close are dropped.
func (b *Bus) Publish(t Type, data any) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	hs := make([]Handler, 0, len(b.handlers[t]))
	for _, h := range b.handlers[t] {
		hs = append(hs, h)
	}
	b.mu.RUnlock()

	ev := Event{Type: t, Data: data}
	for _, h := range hs {
		h(ev)
	}
}

// Close drops all subscriptions and rejects further publishes.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	b.handlers = make(map[Type]map[string]Handler)
}
