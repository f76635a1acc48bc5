// Package events carries entity-change notifications from the record store
// to any number of live subscribers (aggregate views, the HTTP cache, the
// cross-process bridge).
package events

import (
	"sync"
	"time"

	"fintrack/internal/core"
)

// Op is the mutation that produced a change notification.
type Op string

const (
	OpCreated  Op = "created"
	OpUpdated  Op = "updated"
	OpDeleted  Op = "deleted"
	OpReloaded Op = "reloaded"
)

// Change describes one mutation, scoped to the entity kind that changed.
// Subscribers are told what kind changed, not what the new state is; they
// re-read the store.
type Change struct {
	Kind   core.EntityKind `json:"kind"`
	Op     Op              `json:"op"`
	ID     string          `json:"id,omitempty"`
	Origin string          `json:"origin,omitempty"`
	At     time.Time       `json:"at"`
}

// Handler receives change notifications. Handlers must not mutate the
// record store reentrantly.
type Handler func(Change)

// Bus is a broadcast observer list. Publish fans out synchronously to every
// subscriber; a subscriber that is not registered at publish time misses
// nothing it cannot recover by reloading state when it attaches.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]Handler
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]Handler)}
}

// Subscribe registers a handler and returns a function that removes it.
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subs[id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// Publish delivers the change to every current subscriber. Handlers run
// outside the bus lock so a handler may subscribe or unsubscribe.
func (b *Bus) Publish(c Change) {
	b.mu.Lock()
	handlers := make([]Handler, 0, len(b.subs))
	for _, h := range b.subs {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(c)
	}
}

// SubscriberCount reports how many handlers are registered.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
