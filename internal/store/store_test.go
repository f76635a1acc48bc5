package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/events"
)

// memBackend is an in-memory persistence fake with failure injection.
type memBackend struct {
	mu      sync.Mutex
	records map[string][]json.RawMessage // keyed by kind/owner, insertion order
	ids     map[string][]string
	failAll bool
}

func newMemBackend() *memBackend {
	return &memBackend{
		records: make(map[string][]json.RawMessage),
		ids:     make(map[string][]string),
	}
}

func (m *memBackend) key(kind core.EntityKind, owner string) string {
	return string(kind) + "/" + owner
}

func (m *memBackend) LoadAll(_ context.Context, kind core.EntityKind, owner string) ([]json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return nil, errors.New("backend unavailable")
	}
	src := m.records[m.key(kind, owner)]
	out := make([]json.RawMessage, len(src))
	copy(out, src)
	return out, nil
}

func (m *memBackend) Insert(_ context.Context, kind core.EntityKind, owner, id string, record json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return errors.New("backend unavailable")
	}
	k := m.key(kind, owner)
	m.records[k] = append(m.records[k], record)
	m.ids[k] = append(m.ids[k], id)
	return nil
}

func (m *memBackend) Update(_ context.Context, kind core.EntityKind, owner, id string, record json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return errors.New("backend unavailable")
	}
	k := m.key(kind, owner)
	for i, existing := range m.ids[k] {
		if existing == id {
			m.records[k][i] = record
			return nil
		}
	}
	return core.ErrNotFound
}

func (m *memBackend) Delete(_ context.Context, kind core.EntityKind, owner, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return errors.New("backend unavailable")
	}
	k := m.key(kind, owner)
	for i, existing := range m.ids[k] {
		if existing == id {
			m.ids[k] = append(m.ids[k][:i], m.ids[k][i+1:]...)
			m.records[k] = append(m.records[k][:i], m.records[k][i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (m *memBackend) count(kind core.EntityKind, owner string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records[m.key(kind, owner)])
}

func (m *memBackend) seed(t *testing.T, kind core.EntityKind, owner, id string, v any) {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := m.Insert(context.Background(), kind, owner, id, raw); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func newTestStore(t *testing.T, b *memBackend) *Store {
	t.Helper()
	var n int
	s := New(Config{
		Owner:   "tester",
		Backend: b,
		Bus:     events.NewBus(),
		Now:     func() time.Time { return time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC) },
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
	})
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleTransaction() core.Transaction {
	return core.Transaction{
		Kind:        core.TransactionExpense,
		Amount:      core.Money{Cents: 4250},
		Category:    "groceries",
		Description: "weekly shop",
		Date:        core.NewDate(2025, 3, 14),
	}
}

func TestAddTransactionAssignsIdentity(t *testing.T) {
	b := newMemBackend()
	s := newTestStore(t, b)

	tx, err := s.AddTransaction(sampleTransaction())
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	if tx.ID != "id-1" {
		t.Errorf("expected assigned id, got %q", tx.ID)
	}
	if tx.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}

	s.Flush()
	if got := b.count(core.KindTransactions, "tester"); got != 1 {
		t.Errorf("expected 1 persisted record, got %d", got)
	}
}

func TestAddTransactionInvalid(t *testing.T) {
	b := newMemBackend()
	s := newTestStore(t, b)

	tx := sampleTransaction()
	tx.Amount = core.Money{Cents: 0}
	if _, err := s.AddTransaction(tx); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}
	if len(s.Transactions()) != 0 {
		t.Error("rejected add must not touch the collection")
	}
	s.Flush()
	if got := b.count(core.KindTransactions, "tester"); got != 0 {
		t.Errorf("rejected add must not persist, got %d records", got)
	}
}

func TestUpdateUnknownIDReturnsNotFound(t *testing.T) {
	s := newTestStore(t, newMemBackend())

	tx := sampleTransaction()
	tx.ID = "missing"
	if err := s.UpdateTransaction(tx); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("update: expected ErrNotFound, got %v", err)
	}
	if err := s.RemoveTransaction("missing"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("remove: expected ErrNotFound, got %v", err)
	}
}

func TestUpdatePreservesCreatedAt(t *testing.T) {
	s := newTestStore(t, newMemBackend())

	tx, err := s.AddTransaction(sampleTransaction())
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	edited := tx
	edited.Description = "monthly shop"
	edited.CreatedAt = time.Time{}
	if err := s.UpdateTransaction(edited); err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}

	got := s.Transactions()[0]
	if got.Description != "monthly shop" {
		t.Errorf("description not updated: %q", got.Description)
	}
	if !got.CreatedAt.Equal(tx.CreatedAt) {
		t.Errorf("CreatedAt changed across update: %v != %v", got.CreatedAt, tx.CreatedAt)
	}
}

func TestWriteFailureKeepsMemory(t *testing.T) {
	b := newMemBackend()
	var writeErrs []error
	var mu sync.Mutex
	s := New(Config{
		Owner:   "tester",
		Backend: b,
		OnWriteError: func(err error) {
			mu.Lock()
			writeErrs = append(writeErrs, err)
			mu.Unlock()
		},
	})
	t.Cleanup(func() { s.Close() })

	b.failAll = true
	tx, err := s.AddTransaction(sampleTransaction())
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	s.Flush()

	if len(s.Transactions()) != 1 {
		t.Error("write-through failure must not roll back memory")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(writeErrs) != 1 {
		t.Fatalf("expected 1 reported write error, got %d", len(writeErrs))
	}
	if writeErrs[0] == nil || tx.ID == "" {
		t.Error("write error must carry context")
	}
}

func TestMutationsPublishChanges(t *testing.T) {
	s := newTestStore(t, newMemBackend())

	var got []events.Change
	unsubscribe := s.Bus().Subscribe(func(c events.Change) {
		got = append(got, c)
	})
	defer unsubscribe()

	tx, _ := s.AddTransaction(sampleTransaction())
	tx.Description = "edited"
	if err := s.UpdateTransaction(tx); err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}
	if err := s.RemoveTransaction(tx.ID); err != nil {
		t.Fatalf("RemoveTransaction: %v", err)
	}

	want := []events.Op{events.OpCreated, events.OpUpdated, events.OpDeleted}
	if len(got) != len(want) {
		t.Fatalf("expected %d changes, got %d", len(want), len(got))
	}
	for i, op := range want {
		if got[i].Op != op || got[i].Kind != core.KindTransactions || got[i].ID != tx.ID {
			t.Errorf("change %d = %+v, want op %s for %s", i, got[i], op, tx.ID)
		}
	}
}

func TestAddExpenseSchedulesNextDue(t *testing.T) {
	s := newTestStore(t, newMemBackend())

	e, err := s.AddExpense(core.Expense{
		Name:        "rent",
		Amount:      core.Money{Cents: 120000},
		Category:    "housing",
		Type:        core.ExpenseNeed,
		Frequency:   core.Monthly,
		IsRecurring: true,
		IsActive:    true,
	})
	if err != nil {
		t.Fatalf("AddExpense: %v", err)
	}
	// Clock is pinned to 2025-03-15; monthly advances one month.
	if got := e.NextDueDate.String(); got != "2025-04-15" {
		t.Errorf("NextDueDate = %s, want 2025-04-15", got)
	}
	if e.UpdatedAt.IsZero() {
		t.Error("expected UpdatedAt to be set")
	}
}

func TestAddGoalRejectsPastTargetDate(t *testing.T) {
	s := newTestStore(t, newMemBackend())

	g := core.FinancialGoal{
		Name:          "emergency fund",
		TargetAmount:  core.Money{Cents: 1000000},
		CurrentAmount: core.Money{Cents: 0},
		TargetDate:    core.NewDate(2024, 1, 1),
		Priority:      core.PriorityHigh,
		Type:          core.GoalSavings,
	}
	if _, err := s.AddGoal(g); !errors.Is(err, core.ErrPastTargetDate) {
		t.Errorf("expected ErrPastTargetDate, got %v", err)
	}

	g.TargetDate = core.NewDate(2026, 1, 1)
	if _, err := s.AddGoal(g); err != nil {
		t.Errorf("future target date must be accepted: %v", err)
	}
}

func TestUpdateCreditCardRejectionLeavesStateUntouched(t *testing.T) {
	s := newTestStore(t, newMemBackend())

	card, err := s.AddCreditCard(core.CreditCard{
		Name:           "travel card",
		Bank:           "acme bank",
		CurrentBalance: core.Money{Cents: 50000},
		CreditLimit:    core.Money{Cents: 100000},
		InterestRate:   19.99,
		MinimumPayment: core.Money{Cents: 2500},
		DueDate:        core.NewDate(2025, 4, 1),
		IsActive:       true,
	})
	if err != nil {
		t.Fatalf("AddCreditCard: %v", err)
	}

	over := card
	over.CurrentBalance = core.Money{Cents: 150000}
	if err := s.UpdateCreditCard(over); !errors.Is(err, core.ErrBalanceExceedsLimit) {
		t.Fatalf("expected ErrBalanceExceedsLimit, got %v", err)
	}

	got := s.CreditCards()[0]
	if got.CurrentBalance.Cents != 50000 {
		t.Errorf("rejected update mutated state: balance %d", got.CurrentBalance.Cents)
	}
}

func TestLoadRoundTrip(t *testing.T) {
	b := newMemBackend()
	s := newTestStore(t, b)

	added, err := s.AddTransaction(sampleTransaction())
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	s.Flush()

	// A second store over the same backend sees the same records.
	s2 := newTestStore(t, b)
	if err := s2.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	txs := s2.Transactions()
	if len(txs) != 1 {
		t.Fatalf("expected 1 transaction after load, got %d", len(txs))
	}
	if txs[0].ID != added.ID || txs[0].Amount != added.Amount || txs[0].Date != added.Date {
		t.Errorf("loaded transaction differs: %+v vs %+v", txs[0], added)
	}
}

func TestReloadInvalidRecordEmptiesCollection(t *testing.T) {
	b := newMemBackend()
	good := sampleTransaction()
	good.ID = "t1"
	good.CreatedAt = time.Now()
	b.seed(t, core.KindTransactions, "tester", "t1", good)
	b.seed(t, core.KindTransactions, "tester", "t2", map[string]any{
		"id": "t2", "kind": "expense", "amount": map[string]any{"cents": -1},
	})

	s := newTestStore(t, b)
	var reloaded bool
	s.Bus().Subscribe(func(c events.Change) {
		if c.Op == events.OpReloaded && c.Kind == core.KindTransactions {
			reloaded = true
		}
	})

	if err := s.Reload(context.Background(), core.KindTransactions); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if got := len(s.Transactions()); got != 0 {
		t.Errorf("invalid record must empty the collection, got %d items", got)
	}
	if !reloaded {
		t.Error("expected a reloaded notification")
	}
}

func TestReloadBackendErrorKeepsSnapshot(t *testing.T) {
	b := newMemBackend()
	s := newTestStore(t, b)

	if _, err := s.AddTransaction(sampleTransaction()); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	b.failAll = true
	if err := s.Reload(context.Background(), core.KindTransactions); err == nil {
		t.Fatal("expected reload error")
	}
	if got := len(s.Transactions()); got != 1 {
		t.Errorf("backend error must keep the previous snapshot, got %d items", got)
	}
}

func TestExportRecords(t *testing.T) {
	s := newTestStore(t, newMemBackend())

	if _, err := s.AddTransaction(sampleTransaction()); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	raws, err := s.ExportRecords(core.KindTransactions)
	if err != nil {
		t.Fatalf("ExportRecords: %v", err)
	}
	if len(raws) != 1 {
		t.Fatalf("expected 1 exported record, got %d", len(raws))
	}
	var tx core.Transaction
	if err := json.Unmarshal(raws[0], &tx); err != nil {
		t.Fatalf("exported record is not valid JSON: %v", err)
	}
	if tx.ID != "id-1" {
		t.Errorf("exported record id = %q", tx.ID)
	}
}
