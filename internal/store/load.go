package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
	"fintrack/internal/events"
)

// decodeAll unmarshals and validates every raw record into out. A single
// invalid record poisons the whole collection: the caller falls back to
// empty rather than presenting a partial view.
func decodeAll[T interface{ Validate() error }](kind core.EntityKind, raws []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(raws))
	for i, raw := range raws {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%s record %d: %w", kind, i, err)
		}
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("%s record %d: %w", kind, i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// Reload replaces one in-memory collection with the backend's current
// contents and publishes a reloaded notification. On a backend read
// error the previous snapshot is kept and the error returned; on invalid
// data the collection is emptied.
func (s *Store) Reload(ctx context.Context, kind core.EntityKind) error {
	if s.backend == nil {
		return nil
	}
	raws, err := s.backend.LoadAll(ctx, kind, s.owner)
	if err != nil {
		return fmt.Errorf("load %s: %w", kind, err)
	}

	var decodeErr error
	s.mu.Lock()
	switch kind {
	case core.KindTransactions:
		var items []core.Transaction
		if items, decodeErr = decodeAll[core.Transaction](kind, raws); decodeErr != nil {
			items = nil
		}
		s.transactions = items
	case core.KindExpenses:
		var items []core.Expense
		if items, decodeErr = decodeAll[core.Expense](kind, raws); decodeErr != nil {
			items = nil
		}
		s.expenses = items
	case core.KindIncomes:
		var items []core.Income
		if items, decodeErr = decodeAll[core.Income](kind, raws); decodeErr != nil {
			items = nil
		}
		s.incomes = items
	case core.KindCreditCards:
		var items []core.CreditCard
		if items, decodeErr = decodeAll[core.CreditCard](kind, raws); decodeErr != nil {
			items = nil
		}
		s.cards = items
	case core.KindLoans:
		var items []core.Loan
		if items, decodeErr = decodeAll[core.Loan](kind, raws); decodeErr != nil {
			items = nil
		}
		s.loans = items
	case core.KindGoals:
		var items []core.FinancialGoal
		if items, decodeErr = decodeAll[core.FinancialGoal](kind, raws); decodeErr != nil {
			items = nil
		}
		s.goals = items
	default:
		s.mu.Unlock()
		return fmt.Errorf("reload: unknown kind %q", kind)
	}
	s.mu.Unlock()

	if decodeErr != nil {
		slog.Warn("Discarded invalid collection", "kind", kind, "error", decodeErr)
	}
	s.publish(kind, events.OpReloaded, "")
	return nil
}

// Load populates every collection from the backend. Kinds that fail to
// load keep their previous (usually empty) snapshot; the first error is
// returned after all kinds have been attempted.
func (s *Store) Load(ctx context.Context) error {
	var firstErr error
	for _, kind := range core.EntityKinds() {
		if err := s.Reload(ctx, kind); err != nil {
			slog.Error("Load collection failed", "kind", kind, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// ExportRecords marshals the current in-memory collection for kind.
// Snapshot writers use it to mirror store state without re-reading the
// backend.
func (s *Store) ExportRecords(kind core.EntityKind) ([]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	marshal := func(n int, get func(int) any) ([]json.RawMessage, error) {
		out := make([]json.RawMessage, 0, n)
		for i := 0; i < n; i++ {
			raw, err := json.Marshal(get(i))
			if err != nil {
				return nil, err
			}
			out = append(out, raw)
		}
		return out, nil
	}

	switch kind {
	case core.KindTransactions:
		return marshal(len(s.transactions), func(i int) any { return s.transactions[i] })
	case core.KindExpenses:
		return marshal(len(s.expenses), func(i int) any { return s.expenses[i] })
	case core.KindIncomes:
		return marshal(len(s.incomes), func(i int) any { return s.incomes[i] })
	case core.KindCreditCards:
		return marshal(len(s.cards), func(i int) any { return s.cards[i] })
	case core.KindLoans:
		return marshal(len(s.loans), func(i int) any { return s.loans[i] })
	case core.KindGoals:
		return marshal(len(s.goals), func(i int) any { return s.goals[i] })
	}
	return nil, fmt.Errorf("export: unknown kind %q", kind)
}
