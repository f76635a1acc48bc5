package core

import "strings"

// Frequency is the recurrence cadence of a planned income or expense entry.
type Frequency string

const (
	Daily        Frequency = "daily"
	Weekly       Frequency = "weekly"
	BiWeekly     Frequency = "bi-weekly"
	Monthly      Frequency = "monthly"
	Quarterly    Frequency = "quarterly"
	SemiAnnually Frequency = "semi-annually"
	Annually     Frequency = "annually"
	OneTime      Frequency = "one-time"
)

// periodsPerMonth is the canonical multiplier table converting a per-period
// amount into its monthly equivalent. Every aggregate computation goes
// through this table; call sites must not define their own factors.
var periodsPerMonth = map[Frequency]float64{
	Daily:        30,
	Weekly:       4.33,
	BiWeekly:     2.17,
	Monthly:      1,
	Quarterly:    1.0 / 3,
	SemiAnnually: 1.0 / 6,
	Annually:     1.0 / 12,
	OneTime:      0,
}

// expenseFrequencies is the full cadence set accepted on planned expenses.
var expenseFrequencies = map[Frequency]bool{
	Daily: true, Weekly: true, BiWeekly: true, Monthly: true,
	Quarterly: true, SemiAnnually: true, Annually: true, OneTime: true,
}

// incomeFrequencies is the narrower cadence set accepted on income sources.
var incomeFrequencies = map[Frequency]bool{
	Weekly: true, BiWeekly: true, Monthly: true,
	Quarterly: true, Annually: true, OneTime: true,
}

func (f Frequency) validFor(allowed map[Frequency]bool) bool {
	return allowed[f]
}

// ParseFrequency normalizes user-supplied spellings to the canonical set.
// "yearly" and "biweekly" are accepted as aliases.
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily":
		return Daily, nil
	case "weekly":
		return Weekly, nil
	case "bi-weekly", "biweekly":
		return BiWeekly, nil
	case "monthly":
		return Monthly, nil
	case "quarterly":
		return Quarterly, nil
	case "semi-annually", "semiannually":
		return SemiAnnually, nil
	case "annually", "yearly":
		return Annually, nil
	case "one-time", "onetime", "once":
		return OneTime, nil
	default:
		return "", ErrInvalidFrequency
	}
}

// MonthlyEquivalent converts an amount with the given recurrence into its
// monthly-basis equivalent, in fractional cents. The result scales
// linearly with the amount, so sums stay exact; round once after summing,
// not per entry. Unknown frequencies contribute zero, matching the
// one-time case.
func MonthlyEquivalent(amount Money, f Frequency) float64 {
	return float64(amount.Cents) * periodsPerMonth[f]
}
