package core

import (
	"errors"
	"strings"
	"time"
)

// EntityKind identifies one of the record collections owned by the store.
type EntityKind string

const (
	KindTransactions EntityKind = "transactions"
	KindExpenses     EntityKind = "expenses"
	KindIncomes      EntityKind = "incomes"
	KindCreditCards  EntityKind = "credit_cards"
	KindLoans        EntityKind = "loans"
	KindGoals        EntityKind = "goals"
)

// EntityKinds lists every collection in a fixed order.
func EntityKinds() []EntityKind {
	return []EntityKind{
		KindTransactions, KindExpenses, KindIncomes,
		KindCreditCards, KindLoans, KindGoals,
	}
}

// IsValid returns true if the kind names a known collection.
func (k EntityKind) IsValid() bool {
	switch k {
	case KindTransactions, KindExpenses, KindIncomes, KindCreditCards, KindLoans, KindGoals:
		return true
	default:
		return false
	}
}

var (
	ErrNotFound            = errors.New("record not found")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidDate         = errors.New("invalid date")
	ErrEmptyName           = errors.New("empty name")
	ErrEmptyCategory       = errors.New("empty category")
	ErrInvalidKind         = errors.New("invalid transaction kind")
	ErrInvalidFrequency    = errors.New("invalid frequency")
	ErrOneTimeRecurring    = errors.New("one-time entry cannot be recurring")
	ErrInvalidRate         = errors.New("interest rate must be between 0 and 100")
	ErrBalanceExceedsLimit = errors.New("current balance exceeds credit limit")
	ErrBalanceExceedsLoan  = errors.New("current balance exceeds original amount")
	ErrTermExceeded        = errors.New("remaining term exceeds loan term")
	ErrInvalidTerm         = errors.New("loan term must be positive")
	ErrTargetExceeded      = errors.New("current amount exceeds target amount")
	ErrPastTargetDate      = errors.New("target date must be in the future")
	ErrInvalidPriority     = errors.New("invalid priority")
)

const dateLayout = "2006-01-02"

// Date is a calendar date. It marshals to the canonical yyyy-MM-dd form so
// that stored dates always compare correctly as strings.
type Date struct {
	time.Time
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a canonical yyyy-MM-dd string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// String returns the canonical yyyy-MM-dd form.
func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// TransactionKind distinguishes realized income from realized spending.
// The sign of a transaction is derived from its kind; amounts are always
// stored positive.
type TransactionKind string

const (
	TransactionIncome  TransactionKind = "income"
	TransactionExpense TransactionKind = "expense"
)

func (k TransactionKind) IsValid() bool {
	return k == TransactionIncome || k == TransactionExpense
}

// Transaction is a single recorded money movement.
type Transaction struct {
	ID          string          `json:"id"`
	Kind        TransactionKind `json:"kind"`
	Amount      Money           `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Date        Date            `json:"date"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (t Transaction) Validate() error {
	if !t.Kind.IsValid() {
		return ErrInvalidKind
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

// ExpenseType classifies a planned expense as essential or discretionary.
type ExpenseType string

const (
	ExpenseNeed ExpenseType = "need"
	ExpenseWant ExpenseType = "want"
)

func (t ExpenseType) IsValid() bool {
	return t == ExpenseNeed || t == ExpenseWant
}

// Expense is a planned (recurring or one-time) spending entry, distinct
// from a realized Transaction.
type Expense struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Amount      Money       `json:"amount"`
	Category    string      `json:"category"`
	Type        ExpenseType `json:"type"`
	Frequency   Frequency   `json:"frequency"`
	Tags        []string    `json:"tags,omitempty"`
	IsRecurring bool        `json:"is_recurring"`
	IsActive    bool        `json:"is_active"`
	NextDueDate Date        `json:"next_due_date"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if !e.Type.IsValid() {
		return errors.New("expense type must be need or want")
	}
	if !e.Frequency.validFor(expenseFrequencies) {
		return ErrInvalidFrequency
	}
	if e.Frequency == OneTime && e.IsRecurring {
		return ErrOneTimeRecurring
	}
	return nil
}

// Income is a planned income source.
type Income struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Amount    Money     `json:"amount"`
	Frequency Frequency `json:"frequency"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (i Income) Validate() error {
	if strings.TrimSpace(i.Source) == "" {
		return ErrEmptyName
	}
	if err := i.Amount.Validate(); err != nil {
		return err
	}
	if !i.Frequency.validFor(incomeFrequencies) {
		return ErrInvalidFrequency
	}
	return nil
}

// CreditCard is a revolving credit account.
type CreditCard struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Bank           string    `json:"bank"`
	CurrentBalance Money     `json:"current_balance"`
	CreditLimit    Money     `json:"credit_limit"`
	InterestRate   float64   `json:"interest_rate"`
	MinimumPayment Money     `json:"minimum_payment"`
	DueDate        Date      `json:"due_date"`
	CardType       string    `json:"card_type"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

func (c CreditCard) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if c.CurrentBalance.Cents < 0 || c.CreditLimit.Cents < 0 {
		return ErrInvalidAmount
	}
	if c.CurrentBalance.Cents > c.CreditLimit.Cents {
		return ErrBalanceExceedsLimit
	}
	if c.InterestRate < 0 || c.InterestRate > 100 {
		return ErrInvalidRate
	}
	return nil
}

// LoanType categorizes an installment loan.
type LoanType string

const (
	LoanMortgage LoanType = "mortgage"
	LoanAuto     LoanType = "auto"
	LoanPersonal LoanType = "personal"
	LoanStudent  LoanType = "student"
	LoanOther    LoanType = "other"
)

func (t LoanType) IsValid() bool {
	switch t {
	case LoanMortgage, LoanAuto, LoanPersonal, LoanStudent, LoanOther:
		return true
	default:
		return false
	}
}

// Loan is an installment debt with a fixed term.
type Loan struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Lender              string    `json:"lender"`
	LoanType            LoanType  `json:"loan_type"`
	OriginalAmount      Money     `json:"original_amount"`
	CurrentBalance      Money     `json:"current_balance"`
	InterestRate        float64   `json:"interest_rate"`
	MonthlyPayment      Money     `json:"monthly_payment"`
	TermMonths          int       `json:"term_months"`
	RemainingTermMonths int       `json:"remaining_term_months"`
	IsActive            bool      `json:"is_active"`
	CreatedAt           time.Time `json:"created_at"`
}

func (l Loan) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return ErrEmptyName
	}
	if !l.LoanType.IsValid() {
		return errors.New("invalid loan type")
	}
	if l.OriginalAmount.Cents < 0 || l.CurrentBalance.Cents < 0 {
		return ErrInvalidAmount
	}
	if l.CurrentBalance.Cents > l.OriginalAmount.Cents {
		return ErrBalanceExceedsLoan
	}
	if l.InterestRate < 0 || l.InterestRate > 100 {
		return ErrInvalidRate
	}
	if l.TermMonths <= 0 {
		return ErrInvalidTerm
	}
	if l.RemainingTermMonths < 0 || l.RemainingTermMonths > l.TermMonths {
		return ErrTermExceeded
	}
	return nil
}

// PayoffProgress returns the paid-off share of the original amount as a
// percentage. Zero-principal loans report 0.
func (l Loan) PayoffProgress() float64 {
	if l.OriginalAmount.Cents == 0 {
		return 0
	}
	paid := l.OriginalAmount.Cents - l.CurrentBalance.Cents
	return float64(paid) / float64(l.OriginalAmount.Cents) * 100
}

// GoalPriority orders goals on the dashboard.
type GoalPriority string

const (
	PriorityLow    GoalPriority = "low"
	PriorityMedium GoalPriority = "medium"
	PriorityHigh   GoalPriority = "high"
)

func (p GoalPriority) IsValid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// GoalType categorizes a savings goal.
type GoalType string

const (
	GoalEmergency  GoalType = "emergency_fund"
	GoalSavings    GoalType = "savings"
	GoalDebtPayoff GoalType = "debt_payoff"
	GoalPurchase   GoalType = "purchase"
	GoalRetirement GoalType = "retirement"
	GoalOtherType  GoalType = "other"
)

func (t GoalType) IsValid() bool {
	switch t {
	case GoalEmergency, GoalSavings, GoalDebtPayoff, GoalPurchase, GoalRetirement, GoalOtherType:
		return true
	default:
		return false
	}
}

// FinancialGoal is a savings target with a deadline.
type FinancialGoal struct {
	ID                  string       `json:"id"`
	Name                string       `json:"name"`
	Type                GoalType     `json:"type"`
	TargetAmount        Money        `json:"target_amount"`
	CurrentAmount       Money        `json:"current_amount"`
	TargetDate          Date         `json:"target_date"`
	MonthlyContribution Money        `json:"monthly_contribution"`
	Priority            GoalPriority `json:"priority"`
	IsCompleted         bool         `json:"is_completed"`
	CreatedAt           time.Time    `json:"created_at"`
}

func (g FinancialGoal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if !g.Type.IsValid() {
		return errors.New("invalid goal type")
	}
	if g.TargetAmount.Cents < 0 || g.CurrentAmount.Cents < 0 {
		return ErrInvalidAmount
	}
	if g.CurrentAmount.Cents > g.TargetAmount.Cents {
		return ErrTargetExceeded
	}
	if err := g.TargetDate.Validate(); err != nil {
		return err
	}
	if !g.Priority.IsValid() {
		return ErrInvalidPriority
	}
	return nil
}

// Progress returns the funded share of the target as a percentage.
func (g FinancialGoal) Progress() float64 {
	if g.TargetAmount.Cents == 0 {
		return 0
	}
	return float64(g.CurrentAmount.Cents) / float64(g.TargetAmount.Cents) * 100
}
