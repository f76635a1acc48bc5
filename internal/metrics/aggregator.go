// Package metrics computes every derived figure the dashboard shows:
// realized totals over transactions, planned monthly amounts over the
// recurring entries, debt and credit positions, and the health score.
// All computations read the store's current in-memory snapshot and never
// block.
package metrics

import (
	"math"
	"sort"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

// Aggregator answers dashboard queries against a record store. The
// active filter only affects the transaction family of queries; planned
// and debt figures always cover the full collections.
type Aggregator struct {
	store *store.Store

	mu     sync.Mutex
	filter core.FilterState
}

func NewAggregator(s *store.Store) *Aggregator {
	return &Aggregator{store: s, filter: core.DefaultFilter()}
}

// SetFilters merges the given criteria into the active filter. Zero-value
// fields leave the existing criterion untouched; use ResetFilters to
// clear.
func (a *Aggregator) SetFilters(f core.FilterState) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if f.Range != nil {
		a.filter.Range = f.Range
	}
	if f.Categories != nil {
		a.filter.Categories = f.Categories
	}
	if f.Search != "" {
		a.filter.Search = f.Search
	}
	if f.Kind != "" {
		a.filter.Kind = f.Kind
	}
}

// ResetFilters restores the neutral filter.
func (a *Aggregator) ResetFilters() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.filter = core.DefaultFilter()
}

// Filter returns the active filter state.
func (a *Aggregator) Filter() core.FilterState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.filter
}

// FilteredTransactions returns the transactions passing the active
// filter, in store order.
func (a *Aggregator) FilteredTransactions() []core.Transaction {
	return core.ApplyFilter(a.store.Transactions(), a.Filter())
}

func (a *Aggregator) transactions(filtered bool) []core.Transaction {
	if filtered {
		return a.FilteredTransactions()
	}
	return a.store.Transactions()
}

// TotalIncome sums realized income transactions, optionally through the
// active filter.
func (a *Aggregator) TotalIncome(filtered bool) core.Money {
	var cents int64
	for _, tx := range a.transactions(filtered) {
		if tx.Kind == core.TransactionIncome {
			cents += tx.Amount.Cents
		}
	}
	return core.Money{Cents: cents}
}

// TotalExpenses sums realized expense transactions, optionally through
// the active filter.
func (a *Aggregator) TotalExpenses(filtered bool) core.Money {
	var cents int64
	for _, tx := range a.transactions(filtered) {
		if tx.Kind == core.TransactionExpense {
			cents += tx.Amount.Cents
		}
	}
	return core.Money{Cents: cents}
}

// NetCashFlow is income minus expenses. It may be negative.
func (a *Aggregator) NetCashFlow(filtered bool) core.Money {
	return core.Money{Cents: a.TotalIncome(filtered).Cents - a.TotalExpenses(filtered).Cents}
}

// TransactionsOn returns transactions dated exactly on the given day.
func (a *Aggregator) TransactionsOn(date core.Date) []core.Transaction {
	var out []core.Transaction
	want := date.String()
	for _, tx := range a.store.Transactions() {
		if tx.Date.String() == want {
			out = append(out, tx)
		}
	}
	return out
}

// Categories returns the distinct transaction categories in sorted order.
func (a *Aggregator) Categories() []string {
	seen := make(map[string]bool)
	for _, tx := range a.store.Transactions() {
		if tx.Category != "" {
			seen[tx.Category] = true
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// PlannedMonthlyIncome normalizes every active income source to its
// monthly equivalent. Planned figures answer "what is expected", never
// "what happened"; they are deliberately separate from TotalIncome.
func (a *Aggregator) PlannedMonthlyIncome() core.Money {
	var cents float64
	for _, in := range a.store.Incomes() {
		if in.IsActive {
			cents += core.MonthlyEquivalent(in.Amount, in.Frequency)
		}
	}
	return core.Money{Cents: int64(math.Round(cents))}
}

// PlannedMonthlyExpenses normalizes every active plan entry to its
// monthly equivalent.
func (a *Aggregator) PlannedMonthlyExpenses() core.Money {
	var cents float64
	for _, e := range a.store.Expenses() {
		if e.IsActive {
			cents += core.MonthlyEquivalent(e.Amount, e.Frequency)
		}
	}
	return core.Money{Cents: int64(math.Round(cents))}
}

// TotalDebt sums the current balance of active loans.
func (a *Aggregator) TotalDebt() core.Money {
	var cents int64
	for _, l := range a.store.Loans() {
		if l.IsActive {
			cents += l.CurrentBalance.Cents
		}
	}
	return core.Money{Cents: cents}
}

// TotalMonthlyDebtPayments sums the monthly payment of active loans.
func (a *Aggregator) TotalMonthlyDebtPayments() core.Money {
	var cents int64
	for _, l := range a.store.Loans() {
		if l.IsActive {
			cents += l.MonthlyPayment.Cents
		}
	}
	return core.Money{Cents: cents}
}

// TotalCreditLimit sums the limit of active credit cards.
func (a *Aggregator) TotalCreditLimit() core.Money {
	var cents int64
	for _, c := range a.store.CreditCards() {
		if c.IsActive {
			cents += c.CreditLimit.Cents
		}
	}
	return core.Money{Cents: cents}
}

// TotalCreditBalance sums the outstanding balance of active credit
// cards.
func (a *Aggregator) TotalCreditBalance() core.Money {
	var cents int64
	for _, c := range a.store.CreditCards() {
		if c.IsActive {
			cents += c.CurrentBalance.Cents
		}
	}
	return core.Money{Cents: cents}
}

// CreditUtilization is the outstanding share of total credit limit as a
// percentage. Zero limit yields zero, not a division error.
func (a *Aggregator) CreditUtilization() float64 {
	limit := a.TotalCreditLimit().Cents
	if limit == 0 {
		return 0
	}
	return float64(a.TotalCreditBalance().Cents) / float64(limit) * 100
}
