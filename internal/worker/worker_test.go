package worker

import (
	"context"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/localstore"
	"fintrack/internal/store"
)

func TestRefreshDueExpenses(t *testing.T) {
	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	st := store.New(store.Config{
		Owner: "tester",
		Now:   func() time.Time { return clock },
	})
	t.Cleanup(func() { st.Close() })

	due, err := st.AddExpense(core.Expense{
		Name:        "rent",
		Amount:      core.Money{Cents: 120000},
		Category:    "Housing",
		Type:        core.ExpenseNeed,
		Frequency:   core.Monthly,
		IsRecurring: true,
		IsActive:    true,
	})
	if err != nil {
		t.Fatalf("AddExpense: %v", err)
	}
	if got := due.NextDueDate.String(); got != "2025-04-01" {
		t.Fatalf("NextDueDate after add = %s, want 2025-04-01", got)
	}

	oneTime, err := st.AddExpense(core.Expense{
		Name:      "deposit",
		Amount:    core.Money{Cents: 50000},
		Category:  "Housing",
		Type:      core.ExpenseNeed,
		Frequency: core.OneTime,
		IsActive:  true,
	})
	if err != nil {
		t.Fatalf("AddExpense one-time: %v", err)
	}

	// Move the clock past the due date.
	clock = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	w := New(st, nil)
	w.now = func() time.Time { return clock }

	count, err := w.RefreshDueExpenses(context.Background())
	if err != nil {
		t.Fatalf("RefreshDueExpenses: %v", err)
	}
	if count != 1 {
		t.Fatalf("refreshed = %d, want 1", count)
	}

	for _, e := range st.Expenses() {
		switch e.ID {
		case due.ID:
			if got := e.NextDueDate.String(); got != "2025-06-01" {
				t.Errorf("recurring NextDueDate = %s, want 2025-06-01", got)
			}
		case oneTime.ID:
			if !e.NextDueDate.IsZero() {
				t.Errorf("one-time expense gained a due date: %s", e.NextDueDate)
			}
		}
	}

	count, err = w.RefreshDueExpenses(context.Background())
	if err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if count != 0 {
		t.Errorf("second refresh moved %d expenses, want 0", count)
	}
}

func TestSnapshotAll(t *testing.T) {
	files, err := localstore.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open localstore: %v", err)
	}
	snapshots := localstore.NewRecordStore(files)

	st := store.New(store.Config{Owner: "tester"})
	t.Cleanup(func() { st.Close() })

	if _, err := st.AddTransaction(core.Transaction{
		Kind:     core.TransactionIncome,
		Amount:   core.Money{Cents: 300000},
		Category: "Salary",
		Date:     core.NewDate(2025, 3, 1),
	}); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	w := New(st, snapshots)
	if err := w.SnapshotAll(context.Background()); err != nil {
		t.Fatalf("SnapshotAll: %v", err)
	}

	records, err := snapshots.LoadAll(context.Background(), core.KindTransactions, "tester")
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("snapshot holds %d transactions, want 1", len(records))
	}

	empty, err := snapshots.LoadAll(context.Background(), core.KindLoans, "tester")
	if err != nil {
		t.Fatalf("LoadAll loans: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("loan snapshot holds %d records, want 0", len(empty))
	}
}

func TestSnapshotSkippedWithoutStore(t *testing.T) {
	st := store.New(store.Config{Owner: "tester"})
	t.Cleanup(func() { st.Close() })

	w := New(st, nil)
	if err := w.SnapshotAll(context.Background()); err != nil {
		t.Fatalf("SnapshotAll without snapshot store: %v", err)
	}
}
