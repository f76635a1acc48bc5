package metrics

import (
	"math"
	"reflect"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

func fixedClock() time.Time {
	return time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s := store.New(store.Config{Owner: "tester", Now: fixedClock})
	t.Cleanup(func() { s.Close() })
	return s
}

func addTx(t *testing.T, s *store.Store, kind core.TransactionKind, cents int64, category, desc string, date core.Date) {
	t.Helper()
	_, err := s.AddTransaction(core.Transaction{
		Kind:        kind,
		Amount:      core.Money{Cents: cents},
		Category:    category,
		Description: desc,
		Date:        date,
	})
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
}

func TestRealizedTotals(t *testing.T) {
	s := newTestStore(t)
	a := NewAggregator(s)

	addTx(t, s, core.TransactionIncome, 300000, "Salary", "march pay", core.NewDate(2025, 3, 1))
	addTx(t, s, core.TransactionExpense, 120000, "Rent", "march rent", core.NewDate(2025, 3, 2))

	if got := a.TotalIncome(false).Cents; got != 300000 {
		t.Errorf("TotalIncome = %d, want 300000", got)
	}
	if got := a.TotalExpenses(false).Cents; got != 120000 {
		t.Errorf("TotalExpenses = %d, want 120000", got)
	}
	if got := a.NetCashFlow(false).Cents; got != 180000 {
		t.Errorf("NetCashFlow = %d, want 180000", got)
	}
}

func TestNetCashFlowMayBeNegative(t *testing.T) {
	s := newTestStore(t)
	a := NewAggregator(s)

	addTx(t, s, core.TransactionExpense, 5000, "Food", "dinner", core.NewDate(2025, 3, 1))

	if got := a.NetCashFlow(false).Cents; got != -5000 {
		t.Errorf("NetCashFlow = %d, want -5000", got)
	}
}

func TestEmptyStoreYieldsZeroes(t *testing.T) {
	a := NewAggregator(newTestStore(t))

	if a.TotalIncome(false).Cents != 0 || a.TotalExpenses(true).Cents != 0 {
		t.Error("empty store must produce zero totals")
	}
	if a.CreditUtilization() != 0 {
		t.Error("empty store must produce zero utilization")
	}
	if len(a.Categories()) != 0 {
		t.Error("empty store must produce no categories")
	}
	if len(a.FilteredTransactions()) != 0 {
		t.Error("empty store must produce no transactions")
	}
}

func TestFilteredTotals(t *testing.T) {
	s := newTestStore(t)
	a := NewAggregator(s)

	addTx(t, s, core.TransactionIncome, 300000, "Salary", "pay", core.NewDate(2025, 3, 1))
	addTx(t, s, core.TransactionExpense, 4000, "Food", "lunch", core.NewDate(2025, 3, 5))
	addTx(t, s, core.TransactionExpense, 9000, "Transport", "fuel", core.NewDate(2025, 3, 6))

	a.SetFilters(core.FilterState{Categories: []string{"Food"}})
	if got := a.TotalExpenses(true).Cents; got != 4000 {
		t.Errorf("filtered TotalExpenses = %d, want 4000", got)
	}
	// Unfiltered queries ignore the active filter.
	if got := a.TotalExpenses(false).Cents; got != 13000 {
		t.Errorf("unfiltered TotalExpenses = %d, want 13000", got)
	}

	a.ResetFilters()
	if got := len(a.FilteredTransactions()); got != 3 {
		t.Errorf("after reset expected all 3 transactions, got %d", got)
	}
}

func TestSetFiltersMergesPartially(t *testing.T) {
	a := NewAggregator(newTestStore(t))

	a.SetFilters(core.FilterState{Categories: []string{"Food"}})
	a.SetFilters(core.FilterState{Kind: core.FilterExpense})

	f := a.Filter()
	if !reflect.DeepEqual(f.Categories, []string{"Food"}) {
		t.Errorf("categories lost on merge: %v", f.Categories)
	}
	if f.Kind != core.FilterExpense {
		t.Errorf("kind not merged: %v", f.Kind)
	}
}

func TestTransactionsOn(t *testing.T) {
	s := newTestStore(t)
	a := NewAggregator(s)

	addTx(t, s, core.TransactionExpense, 1000, "Food", "breakfast", core.NewDate(2025, 3, 5))
	addTx(t, s, core.TransactionExpense, 2000, "Food", "dinner", core.NewDate(2025, 3, 5))
	addTx(t, s, core.TransactionExpense, 3000, "Food", "brunch", core.NewDate(2025, 3, 6))

	got := a.TransactionsOn(core.NewDate(2025, 3, 5))
	if len(got) != 2 {
		t.Fatalf("expected 2 transactions on 2025-03-05, got %d", len(got))
	}
}

func TestCategoriesSortedDistinct(t *testing.T) {
	s := newTestStore(t)
	a := NewAggregator(s)

	addTx(t, s, core.TransactionExpense, 1000, "Transport", "bus", core.NewDate(2025, 3, 1))
	addTx(t, s, core.TransactionExpense, 1000, "Food", "lunch", core.NewDate(2025, 3, 2))
	addTx(t, s, core.TransactionExpense, 1000, "Food", "dinner", core.NewDate(2025, 3, 3))

	want := []string{"Food", "Transport"}
	if got := a.Categories(); !reflect.DeepEqual(got, want) {
		t.Errorf("Categories = %v, want %v", got, want)
	}
}

func TestPlannedTotalsSkipInactive(t *testing.T) {
	s := newTestStore(t)
	a := NewAggregator(s)

	if _, err := s.AddIncome(core.Income{
		Source: "salary", Amount: core.Money{Cents: 250000},
		Frequency: core.Monthly, IsActive: true,
	}); err != nil {
		t.Fatalf("AddIncome: %v", err)
	}
	if _, err := s.AddIncome(core.Income{
		Source: "side gig", Amount: core.Money{Cents: 50000},
		Frequency: core.Monthly, IsActive: false,
	}); err != nil {
		t.Fatalf("AddIncome: %v", err)
	}
	if _, err := s.AddExpense(core.Expense{
		Name: "gym", Amount: core.Money{Cents: 10000}, Category: "health",
		Type: core.ExpenseWant, Frequency: core.Weekly, IsRecurring: true, IsActive: true,
	}); err != nil {
		t.Fatalf("AddExpense: %v", err)
	}

	if got := a.PlannedMonthlyIncome().Cents; got != 250000 {
		t.Errorf("PlannedMonthlyIncome = %d, want 250000 (inactive skipped)", got)
	}
	// 100.00 weekly normalizes to 433.00 monthly.
	if got := a.PlannedMonthlyExpenses().Cents; got != 43300 {
		t.Errorf("PlannedMonthlyExpenses = %d, want 43300", got)
	}
	// Planned and realized families never mix.
	if got := a.TotalIncome(false).Cents; got != 0 {
		t.Errorf("TotalIncome must ignore plan entries, got %d", got)
	}
}

func TestDebtTotals(t *testing.T) {
	s := newTestStore(t)
	a := NewAggregator(s)

	if _, err := s.AddLoan(core.Loan{
		Name: "car", Lender: "bank", LoanType: core.LoanAuto,
		OriginalAmount: core.Money{Cents: 2000000}, CurrentBalance: core.Money{Cents: 1500000},
		InterestRate: 6.5, MonthlyPayment: core.Money{Cents: 35000},
		TermMonths: 60, RemainingTermMonths: 45, IsActive: true,
	}); err != nil {
		t.Fatalf("AddLoan: %v", err)
	}
	if _, err := s.AddLoan(core.Loan{
		Name: "old loan", Lender: "bank", LoanType: core.LoanPersonal,
		OriginalAmount: core.Money{Cents: 500000}, CurrentBalance: core.Money{Cents: 100000},
		InterestRate: 9, MonthlyPayment: core.Money{Cents: 15000},
		TermMonths: 36, RemainingTermMonths: 6, IsActive: false,
	}); err != nil {
		t.Fatalf("AddLoan: %v", err)
	}

	if got := a.TotalDebt().Cents; got != 1500000 {
		t.Errorf("TotalDebt = %d, want 1500000 (inactive skipped)", got)
	}
	if got := a.TotalMonthlyDebtPayments().Cents; got != 35000 {
		t.Errorf("TotalMonthlyDebtPayments = %d, want 35000", got)
	}
}

func TestCreditUtilization(t *testing.T) {
	s := newTestStore(t)
	a := NewAggregator(s)

	cards := []core.CreditCard{
		{Name: "card a", CurrentBalance: core.Money{Cents: 400000}, CreditLimit: core.Money{Cents: 500000}, IsActive: true},
		{Name: "card b", CurrentBalance: core.Money{Cents: 10000}, CreditLimit: core.Money{Cents: 100000}, IsActive: true},
	}
	for _, c := range cards {
		if _, err := s.AddCreditCard(c); err != nil {
			t.Fatalf("AddCreditCard: %v", err)
		}
	}

	got := a.CreditUtilization()
	if math.Abs(got-68.33) > 0.01 {
		t.Errorf("CreditUtilization = %.4f, want 68.33 ±0.01", got)
	}
}

func TestCreditTotalsSkipInactive(t *testing.T) {
	s := newTestStore(t)
	a := NewAggregator(s)

	if _, err := s.AddCreditCard(core.CreditCard{
		Name: "daily card", CurrentBalance: core.Money{Cents: 100000},
		CreditLimit: core.Money{Cents: 1000000}, IsActive: true,
	}); err != nil {
		t.Fatalf("AddCreditCard: %v", err)
	}
	// Closed but retained; a maxed-out balance must not distort totals.
	if _, err := s.AddCreditCard(core.CreditCard{
		Name: "closed card", CurrentBalance: core.Money{Cents: 900000},
		CreditLimit: core.Money{Cents: 900000}, IsActive: false,
	}); err != nil {
		t.Fatalf("AddCreditCard: %v", err)
	}

	if got := a.TotalCreditLimit().Cents; got != 1000000 {
		t.Errorf("TotalCreditLimit = %d, want 1000000 (inactive skipped)", got)
	}
	if got := a.TotalCreditBalance().Cents; got != 100000 {
		t.Errorf("TotalCreditBalance = %d, want 100000 (inactive skipped)", got)
	}
	if got := a.CreditUtilization(); math.Abs(got-10) > 0.01 {
		t.Errorf("CreditUtilization = %.4f, want 10.00 ±0.01", got)
	}
}

func TestPlannedTotalsRoundOnce(t *testing.T) {
	s := newTestStore(t)
	a := NewAggregator(s)

	// Three quarterly 10.00 entries normalize to 10.00 monthly in total.
	// Rounding each entry separately would lose a cent.
	for _, name := range []string{"water", "sewage", "trash"} {
		if _, err := s.AddExpense(core.Expense{
			Name: name, Amount: core.Money{Cents: 1000}, Category: "utilities",
			Type: core.ExpenseNeed, Frequency: core.Quarterly, IsRecurring: true, IsActive: true,
		}); err != nil {
			t.Fatalf("AddExpense: %v", err)
		}
	}

	if got := a.PlannedMonthlyExpenses().Cents; got != 1000 {
		t.Errorf("PlannedMonthlyExpenses = %d, want 1000", got)
	}
}
