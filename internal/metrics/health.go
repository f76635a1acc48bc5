package metrics

import (
	"fmt"

	"fintrack/internal/core"
)

// Thresholds collects every tier boundary the health computations use.
// The boundaries are business rules, kept in one table so screens never
// grow their own magic numbers.
type Thresholds struct {
	// Savings rate tiers, as a fraction of planned income.
	SavingsExcellent float64
	SavingsGood      float64
	SavingsLow       float64

	// Credit utilization tiers, percent.
	UtilizationHealthy float64
	UtilizationWarning float64

	// Debt payments as a share of planned monthly income.
	DebtToIncomeHealthy float64
	DebtToIncomeWarning float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		SavingsExcellent:    0.20,
		SavingsGood:         0.10,
		SavingsLow:          0.0,
		UtilizationHealthy:  30,
		UtilizationWarning:  70,
		DebtToIncomeHealthy: 0.20,
		DebtToIncomeWarning: 0.36,
	}
}

// HealthReport is the composite score shown on the dashboard, with the
// component ratios it was derived from.
type HealthReport struct {
	Score        int     `json:"score"` // 0..100
	Tier         string  `json:"tier"`
	SavingsRate  float64 `json:"savings_rate"`
	Utilization  float64 `json:"utilization"`
	DebtToIncome float64 `json:"debt_to_income"`
}

// SavingsRate is the planned monthly surplus (after plan expenses and
// debt payments) as a fraction of planned monthly income. Zero income
// yields zero.
func (a *Aggregator) SavingsRate() float64 {
	income := a.PlannedMonthlyIncome().Cents
	if income == 0 {
		return 0
	}
	surplus := income - a.PlannedMonthlyExpenses().Cents - a.TotalMonthlyDebtPayments().Cents
	return float64(surplus) / float64(income)
}

// DebtToIncome is monthly debt payments over planned monthly income.
// Zero income yields zero.
func (a *Aggregator) DebtToIncome() float64 {
	income := a.PlannedMonthlyIncome().Cents
	if income == 0 {
		return 0
	}
	return float64(a.TotalMonthlyDebtPayments().Cents) / float64(income)
}

func tierPoints(value float64, excellent, good, low float64, higherIsBetter bool) int {
	if higherIsBetter {
		switch {
		case value >= excellent:
			return 100
		case value >= good:
			return 70
		case value > low:
			return 40
		default:
			return 10
		}
	}
	switch {
	case value <= excellent:
		return 100
	case value <= good:
		return 70
	default:
		return 30
	}
}

// HealthScore combines savings rate, credit utilization, and
// debt-to-income into one 0..100 score using the threshold table.
func (a *Aggregator) HealthScore(th Thresholds) HealthReport {
	savings := a.SavingsRate()
	utilization := a.CreditUtilization()
	dti := a.DebtToIncome()

	savingsPts := tierPoints(savings, th.SavingsExcellent, th.SavingsGood, th.SavingsLow, true)
	utilizationPts := tierPoints(utilization, th.UtilizationHealthy, th.UtilizationWarning, 0, false)
	dtiPts := tierPoints(dti, th.DebtToIncomeHealthy, th.DebtToIncomeWarning, 0, false)

	// Savings carries the most weight; debt ratios split the rest.
	score := (savingsPts*40 + utilizationPts*30 + dtiPts*30) / 100

	tier := "poor"
	switch {
	case score >= 80:
		tier = "excellent"
	case score >= 60:
		tier = "good"
	case score >= 40:
		tier = "fair"
	}

	return HealthReport{
		Score:        score,
		Tier:         tier,
		SavingsRate:  savings,
		Utilization:  utilization,
		DebtToIncome: dti,
	}
}

// Alert flags a condition the user should look at.
type Alert struct {
	Severity string `json:"severity"` // info, warning, critical
	Message  string `json:"message"`
}

// Alerts derives dashboard warnings from the current snapshot. All
// checks are order-independent combinations of the aggregate primitives.
func (a *Aggregator) Alerts(th Thresholds, today core.Date) []Alert {
	var alerts []Alert

	if u := a.CreditUtilization(); u > th.UtilizationWarning {
		alerts = append(alerts, Alert{
			Severity: "critical",
			Message:  fmt.Sprintf("credit utilization is %.1f%%, above the %.0f%% warning level", u, th.UtilizationWarning),
		})
	} else if u > th.UtilizationHealthy {
		alerts = append(alerts, Alert{
			Severity: "warning",
			Message:  fmt.Sprintf("credit utilization is %.1f%%, above the healthy %.0f%%", u, th.UtilizationHealthy),
		})
	}

	if sr := a.SavingsRate(); a.PlannedMonthlyIncome().Cents > 0 && sr < th.SavingsLow {
		alerts = append(alerts, Alert{
			Severity: "warning",
			Message:  "planned spending and debt payments exceed planned income",
		})
	}

	if dti := a.DebtToIncome(); dti > th.DebtToIncomeWarning {
		alerts = append(alerts, Alert{
			Severity: "warning",
			Message:  fmt.Sprintf("debt payments take %.0f%% of planned income", dti*100),
		})
	}

	for _, g := range a.store.Goals() {
		if !g.IsCompleted && !g.TargetDate.IsZero() && g.TargetDate.Before(today.Time) {
			alerts = append(alerts, Alert{
				Severity: "info",
				Message:  fmt.Sprintf("goal %q passed its target date at %.0f%% progress", g.Name, g.Progress()),
			})
		}
	}

	return alerts
}

// ForecastPoint is one month of the projected balance curve.
type ForecastPoint struct {
	Month            string     `json:"month"` // yyyy-MM
	ProjectedBalance core.Money `json:"projected_balance"`
}

// Forecast projects the balance over the next months, starting from the
// realized net cash flow and applying the planned monthly surplus each
// step.
func (a *Aggregator) Forecast(from core.Date, months int) []ForecastPoint {
	balance := a.NetCashFlow(false).Cents
	monthlyNet := a.PlannedMonthlyIncome().Cents -
		a.PlannedMonthlyExpenses().Cents -
		a.TotalMonthlyDebtPayments().Cents

	out := make([]ForecastPoint, 0, months)
	for i := 1; i <= months; i++ {
		month := from.AddDate(0, i, 0)
		balance += monthlyNet
		out = append(out, ForecastPoint{
			Month:            month.Format("2006-01"),
			ProjectedBalance: core.Money{Cents: balance},
		})
	}
	return out
}
