// Package store owns the in-memory record collections for the current
// user session. It is the single source of truth: every mutation validates
// first, applies to memory, raises a change notification, and schedules a
// write-through to the persistence backend.
package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fintrack/internal/backend"
	"fintrack/internal/core"
	"fintrack/internal/events"
	"fintrack/internal/services"
)

// Config wires the store's collaborators. Backend and Bus are required;
// the rest default sensibly.
type Config struct {
	Owner   string
	Backend backend.Store
	Bus     *events.Bus

	// Now and NewID are injected for deterministic tests.
	Now   func() time.Time
	NewID func() string

	// WriteTimeout bounds each write-through to the backend.
	WriteTimeout time.Duration

	// OnWriteError is invoked when a write-through fails. The in-memory
	// mutation is never rolled back; the error is reported, not fatal.
	OnWriteError func(error)
}

type writeJob struct {
	desc string
	fn   func(context.Context) error
}

// Store holds one collection per entity kind. All mutations are serialized
// by a single mutex; persistence writes run on a dedicated goroutine in
// call order (write-behind).
type Store struct {
	owner        string
	backend      backend.Store
	bus          *events.Bus
	now          func() time.Time
	newID        func() string
	writeTimeout time.Duration
	onWriteError func(error)

	jobs       chan writeJob
	writerDone chan struct{}

	mu           sync.Mutex
	transactions []core.Transaction
	expenses     []core.Expense
	incomes      []core.Income
	cards        []core.CreditCard
	loans        []core.Loan
	goals        []core.FinancialGoal
}

func randomID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

func New(cfg Config) *Store {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = randomID
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if cfg.Bus == nil {
		cfg.Bus = events.NewBus()
	}

	s := &Store{
		owner:        cfg.Owner,
		backend:      cfg.Backend,
		bus:          cfg.Bus,
		now:          cfg.Now,
		newID:        cfg.NewID,
		writeTimeout: cfg.WriteTimeout,
		onWriteError: cfg.OnWriteError,
		jobs:         make(chan writeJob, 256),
		writerDone:   make(chan struct{}),
	}
	go s.writer()
	return s
}

// Bus returns the change-notification bus.
func (s *Store) Bus() *events.Bus { return s.bus }

// Owner returns the current user identity records persist under.
func (s *Store) Owner() string { return s.owner }

// writer executes persistence writes sequentially, preserving mutation
// call order. Failures are reported but never undo memory state.
func (s *Store) writer() {
	defer close(s.writerDone)
	for job := range s.jobs {
		if job.fn == nil {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
		err := job.fn(ctx)
		cancel()
		if err != nil {
			slog.Error("Write-through failed", "op", job.desc, "error", err)
			if s.onWriteError != nil {
				s.onWriteError(fmt.Errorf("%s: %w", job.desc, err))
			}
		}
	}
}

func (s *Store) enqueue(desc string, fn func(context.Context) error) {
	if s.backend == nil {
		return
	}
	s.jobs <- writeJob{desc: desc, fn: fn}
}

// Flush blocks until every queued write-through has completed. Intended
// for shutdown and tests.
func (s *Store) Flush() {
	done := make(chan struct{})
	s.jobs <- writeJob{fn: func(context.Context) error {
		close(done)
		return nil
	}}
	<-done
}

// Close drains pending writes and stops the writer.
func (s *Store) Close() error {
	s.Flush()
	close(s.jobs)
	<-s.writerDone
	return nil
}

func (s *Store) publish(kind core.EntityKind, op events.Op, id string) {
	// Published outside the store lock so handlers can read the store,
	// but never mutate it reentrantly.
	s.bus.Publish(events.Change{Kind: kind, Op: op, ID: id, At: s.now()})
}

func (s *Store) persistInsert(kind core.EntityKind, id string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		slog.Error("Encode record failed", "kind", kind, "id", id, "error", err)
		return
	}
	s.enqueue(fmt.Sprintf("insert %s/%s", kind, id), func(ctx context.Context) error {
		return s.backend.Insert(ctx, kind, s.owner, id, raw)
	})
}

func (s *Store) persistUpdate(kind core.EntityKind, id string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		slog.Error("Encode record failed", "kind", kind, "id", id, "error", err)
		return
	}
	s.enqueue(fmt.Sprintf("update %s/%s", kind, id), func(ctx context.Context) error {
		return s.backend.Update(ctx, kind, s.owner, id, raw)
	})
}

func (s *Store) persistDelete(kind core.EntityKind, id string) {
	s.enqueue(fmt.Sprintf("delete %s/%s", kind, id), func(ctx context.Context) error {
		return s.backend.Delete(ctx, kind, s.owner, id)
	})
}

// --- Transactions ---

// AddTransaction assigns an id and creation timestamp, stores the
// transaction, and returns it.
func (s *Store) AddTransaction(tx core.Transaction) (core.Transaction, error) {
	tx.ID = s.newID()
	tx.CreatedAt = s.now()
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	s.mu.Lock()
	s.transactions = append(s.transactions, tx)
	s.mu.Unlock()

	s.publish(core.KindTransactions, events.OpCreated, tx.ID)
	s.persistInsert(core.KindTransactions, tx.ID, tx)
	return tx, nil
}

// UpdateTransaction replaces the stored transaction with the same id,
// preserving its creation timestamp.
func (s *Store) UpdateTransaction(tx core.Transaction) error {
	s.mu.Lock()
	idx := -1
	for i := range s.transactions {
		if s.transactions[i].ID == tx.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("transaction %s: %w", tx.ID, core.ErrNotFound)
	}
	tx.CreatedAt = s.transactions[idx].CreatedAt
	if err := tx.Validate(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.transactions[idx] = tx
	s.mu.Unlock()

	s.publish(core.KindTransactions, events.OpUpdated, tx.ID)
	s.persistUpdate(core.KindTransactions, tx.ID, tx)
	return nil
}

// RemoveTransaction deletes the transaction with the given id.
func (s *Store) RemoveTransaction(id string) error {
	s.mu.Lock()
	idx := -1
	for i := range s.transactions {
		if s.transactions[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	s.transactions = append(s.transactions[:idx], s.transactions[idx+1:]...)
	s.mu.Unlock()

	s.publish(core.KindTransactions, events.OpDeleted, id)
	s.persistDelete(core.KindTransactions, id)
	return nil
}

// Transactions returns a snapshot copy of the transaction collection.
func (s *Store) Transactions() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, len(s.transactions))
	copy(out, s.transactions)
	return out
}

// --- Expense plan entries ---

// AddExpense stores a planned expense. NextDueDate is recomputed from
// today on every save.
func (s *Store) AddExpense(e core.Expense) (core.Expense, error) {
	e.ID = s.newID()
	now := s.now()
	e.CreatedAt = now
	e.UpdatedAt = now
	e.NextDueDate = services.NextDueDate(core.DateOf(now), e.Frequency)
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	s.mu.Lock()
	s.expenses = append(s.expenses, e)
	s.mu.Unlock()

	s.publish(core.KindExpenses, events.OpCreated, e.ID)
	s.persistInsert(core.KindExpenses, e.ID, e)
	return e, nil
}

func (s *Store) UpdateExpense(e core.Expense) error {
	now := s.now()
	e.UpdatedAt = now
	e.NextDueDate = services.NextDueDate(core.DateOf(now), e.Frequency)

	s.mu.Lock()
	idx := -1
	for i := range s.expenses {
		if s.expenses[i].ID == e.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("expense %s: %w", e.ID, core.ErrNotFound)
	}
	e.CreatedAt = s.expenses[idx].CreatedAt
	if err := e.Validate(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.expenses[idx] = e
	s.mu.Unlock()

	s.publish(core.KindExpenses, events.OpUpdated, e.ID)
	s.persistUpdate(core.KindExpenses, e.ID, e)
	return nil
}

func (s *Store) RemoveExpense(id string) error {
	s.mu.Lock()
	idx := -1
	for i := range s.expenses {
		if s.expenses[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
	}
	s.expenses = append(s.expenses[:idx], s.expenses[idx+1:]...)
	s.mu.Unlock()

	s.publish(core.KindExpenses, events.OpDeleted, id)
	s.persistDelete(core.KindExpenses, id)
	return nil
}

func (s *Store) Expenses() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Expense, len(s.expenses))
	copy(out, s.expenses)
	return out
}

// --- Income sources ---

func (s *Store) AddIncome(in core.Income) (core.Income, error) {
	in.ID = s.newID()
	in.CreatedAt = s.now()
	if err := in.Validate(); err != nil {
		return core.Income{}, err
	}

	s.mu.Lock()
	s.incomes = append(s.incomes, in)
	s.mu.Unlock()

	s.publish(core.KindIncomes, events.OpCreated, in.ID)
	s.persistInsert(core.KindIncomes, in.ID, in)
	return in, nil
}

func (s *Store) UpdateIncome(in core.Income) error {
	s.mu.Lock()
	idx := -1
	for i := range s.incomes {
		if s.incomes[i].ID == in.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("income %s: %w", in.ID, core.ErrNotFound)
	}
	in.CreatedAt = s.incomes[idx].CreatedAt
	if err := in.Validate(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.incomes[idx] = in
	s.mu.Unlock()

	s.publish(core.KindIncomes, events.OpUpdated, in.ID)
	s.persistUpdate(core.KindIncomes, in.ID, in)
	return nil
}

func (s *Store) RemoveIncome(id string) error {
	s.mu.Lock()
	idx := -1
	for i := range s.incomes {
		if s.incomes[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("income %s: %w", id, core.ErrNotFound)
	}
	s.incomes = append(s.incomes[:idx], s.incomes[idx+1:]...)
	s.mu.Unlock()

	s.publish(core.KindIncomes, events.OpDeleted, id)
	s.persistDelete(core.KindIncomes, id)
	return nil
}

func (s *Store) Incomes() []core.Income {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Income, len(s.incomes))
	copy(out, s.incomes)
	return out
}

// --- Credit cards ---

func (s *Store) AddCreditCard(c core.CreditCard) (core.CreditCard, error) {
	c.ID = s.newID()
	c.CreatedAt = s.now()
	if err := c.Validate(); err != nil {
		return core.CreditCard{}, err
	}

	s.mu.Lock()
	s.cards = append(s.cards, c)
	s.mu.Unlock()

	s.publish(core.KindCreditCards, events.OpCreated, c.ID)
	s.persistInsert(core.KindCreditCards, c.ID, c)
	return c, nil
}

// UpdateCreditCard validates before touching memory: a rejected update
// (balance above limit) leaves the stored card unchanged.
func (s *Store) UpdateCreditCard(c core.CreditCard) error {
	s.mu.Lock()
	idx := -1
	for i := range s.cards {
		if s.cards[i].ID == c.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("credit card %s: %w", c.ID, core.ErrNotFound)
	}
	c.CreatedAt = s.cards[idx].CreatedAt
	if err := c.Validate(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.cards[idx] = c
	s.mu.Unlock()

	s.publish(core.KindCreditCards, events.OpUpdated, c.ID)
	s.persistUpdate(core.KindCreditCards, c.ID, c)
	return nil
}

func (s *Store) RemoveCreditCard(id string) error {
	s.mu.Lock()
	idx := -1
	for i := range s.cards {
		if s.cards[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("credit card %s: %w", id, core.ErrNotFound)
	}
	s.cards = append(s.cards[:idx], s.cards[idx+1:]...)
	s.mu.Unlock()

	s.publish(core.KindCreditCards, events.OpDeleted, id)
	s.persistDelete(core.KindCreditCards, id)
	return nil
}

func (s *Store) CreditCards() []core.CreditCard {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.CreditCard, len(s.cards))
	copy(out, s.cards)
	return out
}

// --- Loans ---

func (s *Store) AddLoan(l core.Loan) (core.Loan, error) {
	l.ID = s.newID()
	l.CreatedAt = s.now()
	if err := l.Validate(); err != nil {
		return core.Loan{}, err
	}

	s.mu.Lock()
	s.loans = append(s.loans, l)
	s.mu.Unlock()

	s.publish(core.KindLoans, events.OpCreated, l.ID)
	s.persistInsert(core.KindLoans, l.ID, l)
	return l, nil
}

func (s *Store) UpdateLoan(l core.Loan) error {
	s.mu.Lock()
	idx := -1
	for i := range s.loans {
		if s.loans[i].ID == l.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("loan %s: %w", l.ID, core.ErrNotFound)
	}
	l.CreatedAt = s.loans[idx].CreatedAt
	if err := l.Validate(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.loans[idx] = l
	s.mu.Unlock()

	s.publish(core.KindLoans, events.OpUpdated, l.ID)
	s.persistUpdate(core.KindLoans, l.ID, l)
	return nil
}

func (s *Store) RemoveLoan(id string) error {
	s.mu.Lock()
	idx := -1
	for i := range s.loans {
		if s.loans[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("loan %s: %w", id, core.ErrNotFound)
	}
	s.loans = append(s.loans[:idx], s.loans[idx+1:]...)
	s.mu.Unlock()

	s.publish(core.KindLoans, events.OpDeleted, id)
	s.persistDelete(core.KindLoans, id)
	return nil
}

func (s *Store) Loans() []core.Loan {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Loan, len(s.loans))
	copy(out, s.loans)
	return out
}

// --- Financial goals ---

// AddGoal stores a goal. The target date must be in the future at
// creation time; later updates only require it to be set.
func (s *Store) AddGoal(g core.FinancialGoal) (core.FinancialGoal, error) {
	g.ID = s.newID()
	now := s.now()
	g.CreatedAt = now
	if err := g.Validate(); err != nil {
		return core.FinancialGoal{}, err
	}
	if !g.TargetDate.After(now) {
		return core.FinancialGoal{}, core.ErrPastTargetDate
	}

	s.mu.Lock()
	s.goals = append(s.goals, g)
	s.mu.Unlock()

	s.publish(core.KindGoals, events.OpCreated, g.ID)
	s.persistInsert(core.KindGoals, g.ID, g)
	return g, nil
}

func (s *Store) UpdateGoal(g core.FinancialGoal) error {
	s.mu.Lock()
	idx := -1
	for i := range s.goals {
		if s.goals[i].ID == g.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("goal %s: %w", g.ID, core.ErrNotFound)
	}
	g.CreatedAt = s.goals[idx].CreatedAt
	if err := g.Validate(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.goals[idx] = g
	s.mu.Unlock()

	s.publish(core.KindGoals, events.OpUpdated, g.ID)
	s.persistUpdate(core.KindGoals, g.ID, g)
	return nil
}

func (s *Store) RemoveGoal(id string) error {
	s.mu.Lock()
	idx := -1
	for i := range s.goals {
		if s.goals[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("goal %s: %w", id, core.ErrNotFound)
	}
	s.goals = append(s.goals[:idx], s.goals[idx+1:]...)
	s.mu.Unlock()

	s.publish(core.KindGoals, events.OpDeleted, id)
	s.persistDelete(core.KindGoals, id)
	return nil
}

func (s *Store) Goals() []core.FinancialGoal {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.FinancialGoal, len(s.goals))
	copy(out, s.goals)
	return out
}
