package paydate

import (
	"familybudget/internal/core"
)

// fallbackPeriodDays is the period length used when no active income
// sources exist: a fixed 14-day window.
const fallbackPeriodDays = 14

// PeriodEndFromSources derives a pay period's end date: the day before
// the next paycheck strictly after the start date. The search begins one
// day after the start so a paycheck landing exactly on the start date
// opens the period instead of closing it. With no active sources the
// period defaults to 14 days and the returned paycheck info is nil.
func PeriodEndFromSources(start core.Date, sources []core.IncomeSource) (core.Date, *Paycheck, error) {
	dayAfterStart := start.AddDays(1)
	pc, err := NextPaycheckFromSources(sources, dayAfterStart)
	if err != nil {
		return core.Date{}, nil, err
	}
	if pc == nil {
		return start.AddDays(fallbackPeriodDays - 1), nil, nil
	}
	return pc.Date.AddDays(-1), pc, nil
}

// PeriodEndLegacy is PeriodEndFromSources for the legacy two-person
// configuration. Each earner's next pay date is recomputed from the day
// after the start when it would otherwise land on the start itself.
func PeriodEndLegacy(start core.Date, cfg core.LegacyIncomeConfig) (core.Date, Paycheck) {
	firstDate := NextBiweekly(cfg.FirstNextPayDate, start)
	if firstDate.Equal(start) {
		firstDate = NextBiweekly(cfg.FirstNextPayDate, start.AddDays(1))
	}
	secondDate := NextMonthly(cfg.SecondNextPayDate, start)
	if secondDate.Equal(start) {
		secondDate = NextMonthly(cfg.SecondNextPayDate, start.AddDays(1))
	}

	pc := combineLegacy(cfg, firstDate, secondDate)
	return pc.Date.AddDays(-1), pc
}

// Progress locates "now" within a period. CurrentDay is clamped into
// [1, TotalDays] so a period that has not started reads as day 1 and a
// finished one as its last day.
type Progress struct {
	CurrentDay    int
	TotalDays     int
	DaysRemaining int
}

// PeriodProgress computes day counts for a period; all three dates are
// calendar dates, so partial days never appear.
func PeriodProgress(start, end, now core.Date) Progress {
	totalDays := core.DaysBetween(start, end) + 1
	currentDay := core.DaysBetween(start, now) + 1
	if currentDay < 1 {
		currentDay = 1
	}
	if currentDay > totalDays {
		currentDay = totalDays
	}
	remaining := totalDays - currentDay + 1
	if remaining < 0 {
		remaining = 0
	}
	return Progress{
		CurrentDay:    currentDay,
		TotalDays:     totalDays,
		DaysRemaining: remaining,
	}
}
