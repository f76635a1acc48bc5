// Package services provides business logic shared by the server and the
// background worker.
//
// This file implements the Strategy Pattern for recurring-plan scheduling.
// Each frequency has its own advancer that encapsulates how the next due
// date is derived from a reference date.
package services

import (
	"fmt"
	"time"

	"fintrack/internal/core"
)

// PeriodAdvancer is the strategy interface for advancing a date by one
// recurrence period.
type PeriodAdvancer interface {
	// Advance returns the first due date strictly after from.
	Advance(from core.Date) core.Date
}

type daysAdvancer int

func (n daysAdvancer) Advance(from core.Date) core.Date {
	return core.DateOf(from.AddDate(0, 0, int(n)))
}

type monthsAdvancer int

// Advance moves forward n months, clamping to the last day of the target
// month so a plan anchored on the 31st never skips February.
func (n monthsAdvancer) Advance(from core.Date) core.Date {
	year, month, day := from.Date()
	target := time.Date(year, month+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	lastDay := time.Date(target.Year(), target.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > lastDay {
		day = lastDay
	}
	return core.NewDate(target.Year(), int(target.Month()), day)
}

// scheduleStrategies maps frequencies to their advancers. One-time plans
// have no entry: they never recur.
var scheduleStrategies = map[core.Frequency]PeriodAdvancer{
	core.Daily:        daysAdvancer(1),
	core.Weekly:       daysAdvancer(7),
	core.BiWeekly:     daysAdvancer(14),
	core.Monthly:      monthsAdvancer(1),
	core.Quarterly:    monthsAdvancer(3),
	core.SemiAnnually: monthsAdvancer(6),
	core.Annually:     monthsAdvancer(12),
}

// GetPeriodAdvancer returns the advancer for a frequency, or an error for
// non-recurring or unknown frequencies.
func GetPeriodAdvancer(f core.Frequency) (PeriodAdvancer, error) {
	advancer, ok := scheduleStrategies[f]
	if !ok {
		return nil, fmt.Errorf("frequency %q does not recur", f)
	}
	return advancer, nil
}

// NextDueDate returns the next occurrence after from for the given
// frequency. One-time and unknown frequencies yield the zero date.
func NextDueDate(from core.Date, f core.Frequency) core.Date {
	advancer, ok := scheduleStrategies[f]
	if !ok {
		return core.Date{}
	}
	return advancer.Advance(from)
}

// IsDue reports whether a recurring plan entry has reached its due date.
// Inactive, one-time, and unscheduled entries are never due.
func IsDue(e core.Expense, today core.Date) bool {
	if !e.IsActive || !e.IsRecurring || e.NextDueDate.IsZero() {
		return false
	}
	return !e.NextDueDate.After(today.Time)
}
