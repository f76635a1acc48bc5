package amqp

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/events"
)

func TestBridgeDropsOwnEcho(t *testing.T) {
	bus := events.NewBus()
	var reloads int
	b := NewBridge(nil, bus, func(context.Context, core.EntityKind) error {
		reloads++
		return nil
	})

	var delivered int
	bus.Subscribe(func(events.Change) { delivered++ })

	msg := NewChangeMessage(events.Change{Kind: core.KindExpenses, Op: events.OpCreated, ID: "e1"}, b.Origin())
	if err := b.handleIncoming(context.Background(), msg); err != nil {
		t.Fatalf("handleIncoming: %v", err)
	}
	if reloads != 0 || delivered != 0 {
		t.Errorf("own echo must be dropped: reloads=%d delivered=%d", reloads, delivered)
	}
}

func TestBridgeForeignChangeReloadsAndRepublishes(t *testing.T) {
	bus := events.NewBus()
	var reloadedKind core.EntityKind
	b := NewBridge(nil, bus, func(_ context.Context, kind core.EntityKind) error {
		reloadedKind = kind
		return nil
	})

	var got []events.Change
	bus.Subscribe(func(c events.Change) { got = append(got, c) })

	ts := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	msg := &ChangeMessage{
		Kind:      core.KindLoans,
		Op:        events.OpUpdated,
		ID:        "loan-7",
		Origin:    "someone-else",
		Timestamp: ts,
	}
	if err := b.handleIncoming(context.Background(), msg); err != nil {
		t.Fatalf("handleIncoming: %v", err)
	}

	if reloadedKind != core.KindLoans {
		t.Errorf("expected loans reload, got %q", reloadedKind)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 republished change, got %d", len(got))
	}
	if got[0].Origin != "someone-else" || got[0].Kind != core.KindLoans || !got[0].At.Equal(ts) {
		t.Errorf("republished change lost fields: %+v", got[0])
	}
}

func TestBridgeReloadFailureRequeues(t *testing.T) {
	bus := events.NewBus()
	reloadErr := errors.New("backend down")
	b := NewBridge(nil, bus, func(context.Context, core.EntityKind) error {
		return reloadErr
	})

	var delivered int
	bus.Subscribe(func(events.Change) { delivered++ })

	msg := &ChangeMessage{Kind: core.KindGoals, Op: events.OpDeleted, Origin: "someone-else"}
	if err := b.handleIncoming(context.Background(), msg); !errors.Is(err, reloadErr) {
		t.Fatalf("expected reload error to propagate, got %v", err)
	}
	if delivered != 0 {
		t.Error("failed reload must not publish the change")
	}
}

func TestBridgeOriginsAreUnique(t *testing.T) {
	a := NewBridge(nil, events.NewBus(), nil)
	b := NewBridge(nil, events.NewBus(), nil)
	if a.Origin() == "" || a.Origin() == b.Origin() {
		t.Errorf("origins must be distinct and non-empty: %q vs %q", a.Origin(), b.Origin())
	}
}
