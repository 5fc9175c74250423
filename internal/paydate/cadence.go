// Package paydate computes upcoming pay dates and pay-period boundaries.
//
// All functions are pure and operate on midnight-normalized calendar
// dates. Each cadence has its own "next occurrence" algorithm behind a
// shared contract: given a reference anchor and a from-date, return the
// earliest qualifying date after the from-date.
package paydate

import (
	"fmt"

	"familybudget/internal/core"
)

// NextWeekly returns the next weekly pay date: every 7 days from the
// anchor. An anchor on or after the from-date is returned unchanged.
func NextWeekly(anchor, from core.Date) core.Date {
	return nextCycle(anchor, from, 7)
}

// NextBiweekly returns the next biweekly pay date: every 14 days from
// the anchor. An anchor on or after the from-date is returned unchanged.
func NextBiweekly(anchor, from core.Date) core.Date {
	return nextCycle(anchor, from, 14)
}

func nextCycle(anchor, from core.Date, period int) core.Date {
	if !anchor.Before(from) {
		return anchor
	}
	elapsed := core.DaysBetween(anchor, from)
	cycles := elapsed / period
	next := anchor.AddDays((cycles + 1) * period)
	if !next.After(from) {
		next = next.AddDays(period)
	}
	return next
}

// NextMonthly returns the next occurrence of the anchor's day of month.
// Months that do not contain that day are skipped entirely rather than
// clamped: with an anchor on the 31st the result jumps straight over
// 30-day months and February. This mirrors the long-standing behavior
// the rest of the system depends on; do not "fix" it to end-of-month.
func NextMonthly(anchor, from core.Date) core.Date {
	if !anchor.Before(from) {
		return anchor
	}
	day := anchor.Day()
	year, month := from.Year(), int(from.Month())
	if day <= core.LastDayOfMonth(year, month) {
		candidate := core.NewDate(year, month, day)
		if candidate.After(from) {
			return candidate
		}
	}
	for {
		month++
		if month > 12 {
			month = 1
			year++
		}
		if day <= core.LastDayOfMonth(year, month) {
			return core.NewDate(year, month, day)
		}
	}
}

// NextSemimonthly returns the next of the two day-of-month anchors.
// Order of the pair is irrelevant. Unlike the monthly cadence, each
// anchor day is clamped to the last day of a short month, so [15, 30]
// lands on Feb 28 instead of skipping to March.
func NextSemimonthly(payDays [2]int, from core.Date) core.Date {
	day1, day2 := payDays[0], payDays[1]
	if day2 < day1 {
		day1, day2 = day2, day1
	}
	year, month := from.Year(), int(from.Month())

	if d := clampedDate(year, month, day1); d.After(from) {
		return d
	}
	if d := clampedDate(year, month, day2); d.After(from) {
		return d
	}

	month++
	if month > 12 {
		month = 1
		year++
	}
	return clampedDate(year, month, day1)
}

func clampedDate(year, month, day int) core.Date {
	if last := core.LastDayOfMonth(year, month); day > last {
		day = last
	}
	return core.NewDate(year, month, day)
}

// defaultSemimonthlyDays is used when a semimonthly source carries no
// explicit pay days.
var defaultSemimonthlyDays = [2]int{1, 15}

type nextDateFunc func(src core.IncomeSource, from core.Date) core.Date

// cadenceStrategies maps each cadence to its next-occurrence algorithm.
var cadenceStrategies = map[core.Cadence]nextDateFunc{
	core.Weekly: func(src core.IncomeSource, from core.Date) core.Date {
		return NextWeekly(src.NextPayDate, from)
	},
	core.Biweekly: func(src core.IncomeSource, from core.Date) core.Date {
		return NextBiweekly(src.NextPayDate, from)
	},
	core.Monthly: func(src core.IncomeSource, from core.Date) core.Date {
		return NextMonthly(src.NextPayDate, from)
	},
	core.Semimonthly: func(src core.IncomeSource, from core.Date) core.Date {
		days := defaultSemimonthlyDays
		if src.SemimonthlyDays != nil {
			days = *src.SemimonthlyDays
		}
		return NextSemimonthly(days, from)
	},
}

// NextPayDate dispatches to the algorithm for the source's cadence. A
// cadence outside the fixed set is a data-integrity problem upstream and
// fails with core.ErrUnknownCadence; it is never silently defaulted.
func NextPayDate(src core.IncomeSource, from core.Date) (core.Date, error) {
	next, ok := cadenceStrategies[src.Cadence]
	if !ok {
		return core.Date{}, fmt.Errorf("%w: %q", core.ErrUnknownCadence, string(src.Cadence))
	}
	return next(src, from), nil
}
