package paydate

import (
	"sort"
	"strings"

	"familybudget/internal/core"
)

// combineWindowDays is the span within which separate paychecks are
// treated as one combined event.
const combineWindowDays = 7

// Paycheck describes the next paycheck event derived from one or more
// income sources. When several sources pay within the combine window the
// event carries their summed amount and joined names.
type Paycheck struct {
	Sources     []core.IncomeSource
	SourceNames string
	Amount      float64
	Date        core.Date
	IsCombined  bool
}

// NextPaycheckFromSources finds the next paycheck event across the given
// sources. Inactive sources are ignored; with no active sources the
// result is nil. Every source whose next pay date falls within 7 days
// (absolute) of the earliest one is folded into a single combined event,
// names joined with " + " in date order.
func NextPaycheckFromSources(sources []core.IncomeSource, from core.Date) (*Paycheck, error) {
	type sourceDate struct {
		source core.IncomeSource
		next   core.Date
	}

	var upcoming []sourceDate
	for _, src := range sources {
		if !src.IsActive {
			continue
		}
		next, err := NextPayDate(src, from)
		if err != nil {
			return nil, err
		}
		upcoming = append(upcoming, sourceDate{source: src, next: next})
	}
	if len(upcoming) == 0 {
		return nil, nil
	}

	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].next.Before(upcoming[j].next)
	})
	earliest := upcoming[0]

	var sameWeek []sourceDate
	for _, sd := range upcoming {
		diff := core.DaysBetween(earliest.next, sd.next)
		if diff < 0 {
			diff = -diff
		}
		if diff <= combineWindowDays {
			sameWeek = append(sameWeek, sd)
		}
	}

	if len(sameWeek) > 1 {
		pc := &Paycheck{
			Date:       earliest.next,
			IsCombined: true,
		}
		names := make([]string, 0, len(sameWeek))
		for _, sd := range sameWeek {
			pc.Sources = append(pc.Sources, sd.source)
			pc.Amount += sd.source.PayAmount
			names = append(names, sd.source.Name)
		}
		pc.SourceNames = strings.Join(names, " + ")
		return pc, nil
	}

	return &Paycheck{
		Sources:     []core.IncomeSource{earliest.source},
		SourceNames: earliest.source.Name,
		Amount:      earliest.source.PayAmount,
		Date:        earliest.next,
		IsCombined:  false,
	}, nil
}

// NextPaycheckLegacy is the fixed two-person variant kept for installs
// that predate income sources: one biweekly earner and one monthly
// earner, with the same combine-within-7-days rule.
func NextPaycheckLegacy(cfg core.LegacyIncomeConfig, from core.Date) Paycheck {
	firstDate := NextBiweekly(cfg.FirstNextPayDate, from)
	secondDate := NextMonthly(cfg.SecondNextPayDate, from)
	return combineLegacy(cfg, firstDate, secondDate)
}

func combineLegacy(cfg core.LegacyIncomeConfig, firstDate, secondDate core.Date) Paycheck {
	diff := core.DaysBetween(firstDate, secondDate)
	if diff < 0 {
		diff = -diff
	}

	if diff <= combineWindowDays {
		earlier := firstDate
		names := cfg.FirstName + " + " + cfg.SecondName
		if secondDate.Before(firstDate) {
			earlier = secondDate
			names = cfg.SecondName + " + " + cfg.FirstName
		}
		return Paycheck{
			SourceNames: names,
			Amount:      cfg.FirstPayAmount + cfg.SecondPayAmount,
			Date:        earlier,
			IsCombined:  true,
		}
	}

	if !firstDate.After(secondDate) {
		return Paycheck{
			SourceNames: cfg.FirstName,
			Amount:      cfg.FirstPayAmount,
			Date:        firstDate,
		}
	}
	return Paycheck{
		SourceNames: cfg.SecondName,
		Amount:      cfg.SecondPayAmount,
		Date:        secondDate,
	}
}
