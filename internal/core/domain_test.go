package core

import (
	"errors"
	"testing"
)

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{
		Kind:     TransactionIncome,
		Amount:   Money{Cents: 300000},
		Category: "Salary",
		Date:     NewDate(2025, 3, 1),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid transaction rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Transaction)
		want   error
	}{
		{"bad kind", func(tx *Transaction) { tx.Kind = "transfer" }, ErrInvalidKind},
		{"zero amount", func(tx *Transaction) { tx.Amount = Money{} }, ErrInvalidAmount},
		{"zero date", func(tx *Transaction) { tx.Date = Date{} }, ErrInvalidDate},
		{"empty category", func(tx *Transaction) { tx.Category = "  " }, ErrEmptyCategory},
	}
	for _, tc := range cases {
		tx := valid
		tc.mutate(&tx)
		if err := tx.Validate(); !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestExpenseValidate(t *testing.T) {
	valid := Expense{
		Name:        "Streaming",
		Amount:      Money{Cents: 1599},
		Category:    "Entertainment",
		Type:        ExpenseWant,
		Frequency:   Monthly,
		IsRecurring: true,
		IsActive:    true,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid expense rejected: %v", err)
	}

	onetime := valid
	onetime.Frequency = OneTime
	onetime.IsRecurring = true
	if err := onetime.Validate(); !errors.Is(err, ErrOneTimeRecurring) {
		t.Fatalf("one-time recurring expense should be rejected, got %v", err)
	}
	onetime.IsRecurring = false
	if err := onetime.Validate(); err != nil {
		t.Fatalf("one-time non-recurring expense should validate: %v", err)
	}
}

func TestCreditCardBalanceLimit(t *testing.T) {
	card := CreditCard{
		Name:           "Everyday",
		Bank:           "First National",
		CurrentBalance: Money{Cents: 400000},
		CreditLimit:    Money{Cents: 500000},
		InterestRate:   21.9,
	}
	if err := card.Validate(); err != nil {
		t.Fatalf("valid card rejected: %v", err)
	}

	card.CurrentBalance = Money{Cents: 500001}
	if err := card.Validate(); !errors.Is(err, ErrBalanceExceedsLimit) {
		t.Fatalf("balance above limit should be rejected, got %v", err)
	}

	card.CurrentBalance = Money{Cents: 100}
	card.InterestRate = 120
	if err := card.Validate(); !errors.Is(err, ErrInvalidRate) {
		t.Fatalf("rate above 100 should be rejected, got %v", err)
	}
}

func TestLoanInvariants(t *testing.T) {
	loan := Loan{
		Name:                "Car loan",
		Lender:              "Credit union",
		LoanType:            LoanAuto,
		OriginalAmount:      Money{Cents: 2000000},
		CurrentBalance:      Money{Cents: 1500000},
		InterestRate:        6.5,
		MonthlyPayment:      Money{Cents: 45000},
		TermMonths:          60,
		RemainingTermMonths: 42,
		IsActive:            true,
	}
	if err := loan.Validate(); err != nil {
		t.Fatalf("valid loan rejected: %v", err)
	}

	over := loan
	over.RemainingTermMonths = 61
	if err := over.Validate(); !errors.Is(err, ErrTermExceeded) {
		t.Fatalf("remaining term above term should be rejected, got %v", err)
	}

	over = loan
	over.CurrentBalance = Money{Cents: 2000001}
	if err := over.Validate(); !errors.Is(err, ErrBalanceExceedsLoan) {
		t.Fatalf("balance above original should be rejected, got %v", err)
	}

	// 20000 original, 15000 remaining -> 25% paid off.
	if got := loan.PayoffProgress(); got != 25 {
		t.Fatalf("expected payoff progress 25, got %v", got)
	}
}

func TestGoalInvariants(t *testing.T) {
	goal := FinancialGoal{
		Name:                "Emergency fund",
		Type:                GoalEmergency,
		TargetAmount:        Money{Cents: 1000000},
		CurrentAmount:       Money{Cents: 250000},
		TargetDate:          NewDate(2027, 1, 1),
		MonthlyContribution: Money{Cents: 50000},
		Priority:            PriorityHigh,
	}
	if err := goal.Validate(); err != nil {
		t.Fatalf("valid goal rejected: %v", err)
	}
	if got := goal.Progress(); got != 25 {
		t.Fatalf("expected progress 25, got %v", got)
	}

	goal.CurrentAmount = Money{Cents: 1000001}
	if err := goal.Validate(); !errors.Is(err, ErrTargetExceeded) {
		t.Fatalf("current above target should be rejected, got %v", err)
	}
}

func TestEntityKindIsValid(t *testing.T) {
	for _, k := range EntityKinds() {
		if !k.IsValid() {
			t.Errorf("%s should be valid", k)
		}
	}
	if EntityKind("wallets").IsValid() {
		t.Error("unknown kind should be invalid")
	}
}
