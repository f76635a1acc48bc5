package amqp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/events"
)

// Bridge ties the in-process change bus to the broker in both directions.
// Outgoing: local mutations are stamped with this process's origin id and
// published. Incoming: foreign messages trigger a reload of the affected
// collection and re-enter the local bus; messages carrying our own origin
// are dropped.
type Bridge struct {
	client *Client
	bus    *events.Bus
	origin string

	// reload refreshes one collection from the shared backend.
	reload func(ctx context.Context, kind core.EntityKind) error
}

func newOrigin() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return time.Now().Format("20060102150405.000000000")
	}
	return hex.EncodeToString(b)
}

func NewBridge(client *Client, bus *events.Bus, reload func(context.Context, core.EntityKind) error) *Bridge {
	return &Bridge{
		client: client,
		bus:    bus,
		origin: newOrigin(),
		reload: reload,
	}
}

// Origin returns this process's identity on the wire.
func (b *Bridge) Origin() string { return b.origin }

// Run attaches both directions and blocks until the context ends.
func (b *Bridge) Run(ctx context.Context) error {
	unsubscribe := b.bus.Subscribe(func(c events.Change) {
		// Changes that arrived over the wire carry a foreign origin, and
		// reloads are the local reaction to them; rebroadcasting either
		// would loop between processes.
		if c.Origin != "" || c.Op == events.OpReloaded {
			return
		}
		if err := b.client.PublishChange(ctx, NewChangeMessage(c, b.origin)); err != nil {
			slog.WarnContext(ctx, "Failed to broadcast change",
				"kind", c.Kind, "op", c.Op, "error", err)
		}
	})
	defer unsubscribe()

	return b.client.ConsumeChanges(ctx, func(msg *ChangeMessage) error {
		return b.handleIncoming(ctx, msg)
	})
}

func (b *Bridge) handleIncoming(ctx context.Context, msg *ChangeMessage) error {
	if msg.Origin == b.origin {
		return nil // our own echo
	}
	if b.reload != nil {
		if err := b.reload(ctx, msg.Kind); err != nil {
			return err
		}
	}
	b.bus.Publish(events.Change{
		Kind:   msg.Kind,
		Op:     msg.Op,
		ID:     msg.ID,
		Origin: msg.Origin,
		At:     msg.Timestamp,
	})
	return nil
}
