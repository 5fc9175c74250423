package paydate

import (
	"errors"
	"testing"

	"familybudget/internal/core"
)

func TestNextWeekly(t *testing.T) {
	cases := []struct {
		name   string
		anchor core.Date
		from   core.Date
		want   core.Date
	}{
		{
			name:   "future anchor returned unchanged",
			anchor: core.NewDate(2025, 6, 20),
			from:   core.NewDate(2025, 6, 1),
			want:   core.NewDate(2025, 6, 20),
		},
		{
			name:   "anchor equal to from returned unchanged",
			anchor: core.NewDate(2025, 6, 1),
			from:   core.NewDate(2025, 6, 1),
			want:   core.NewDate(2025, 6, 1),
		},
		{
			name:   "past anchor advances to next cycle",
			anchor: core.NewDate(2025, 5, 30),
			from:   core.NewDate(2025, 6, 2),
			want:   core.NewDate(2025, 6, 6),
		},
		{
			name:   "from exactly on cycle boundary advances one more",
			anchor: core.NewDate(2025, 5, 30),
			from:   core.NewDate(2025, 6, 6),
			want:   core.NewDate(2025, 6, 13),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NextWeekly(tc.anchor, tc.from)
			if !got.Equal(tc.want) {
				t.Errorf("NextWeekly(%v, %v) = %v, want %v", tc.anchor, tc.from, got, tc.want)
			}
		})
	}
}

func TestNextBiweekly(t *testing.T) {
	cases := []struct {
		name   string
		anchor core.Date
		from   core.Date
		want   core.Date
	}{
		{
			name:   "future anchor returned unchanged",
			anchor: core.NewDate(2025, 7, 4),
			from:   core.NewDate(2025, 6, 25),
			want:   core.NewDate(2025, 7, 4),
		},
		{
			name:   "one cycle elapsed",
			anchor: core.NewDate(2025, 6, 6),
			from:   core.NewDate(2025, 6, 10),
			want:   core.NewDate(2025, 6, 20),
		},
		{
			name:   "many cycles elapsed",
			anchor: core.NewDate(2024, 1, 5),
			from:   core.NewDate(2025, 6, 10),
			want:   core.NewDate(2025, 6, 20),
		},
		{
			name:   "from on pay day advances a full cycle",
			anchor: core.NewDate(2025, 6, 6),
			from:   core.NewDate(2025, 6, 20),
			want:   core.NewDate(2025, 7, 4),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NextBiweekly(tc.anchor, tc.from)
			if !got.Equal(tc.want) {
				t.Errorf("NextBiweekly(%v, %v) = %v, want %v", tc.anchor, tc.from, got, tc.want)
			}
		})
	}
}

// When the anchor is in the past the result must be strictly after the
// from-date and land exactly on an anchor + k*period boundary.
func TestCycleResultsStayOnCycleBoundaries(t *testing.T) {
	anchor := core.NewDate(2024, 11, 8)
	for _, period := range []int{7, 14} {
		for offset := 1; offset <= 60; offset++ {
			from := anchor.AddDays(offset)
			var got core.Date
			if period == 7 {
				got = NextWeekly(anchor, from)
			} else {
				got = NextBiweekly(anchor, from)
			}
			if !got.After(from) {
				t.Fatalf("period %d offset %d: %v not strictly after %v", period, offset, got, from)
			}
			diff := core.DaysBetween(anchor, got)
			if diff%period != 0 || diff <= 0 {
				t.Fatalf("period %d offset %d: %v is not anchor + k*%d", period, offset, got, period)
			}
		}
	}
}

func TestNextMonthly(t *testing.T) {
	cases := []struct {
		name   string
		anchor core.Date
		from   core.Date
		want   core.Date
	}{
		{
			name:   "future anchor returned unchanged",
			anchor: core.NewDate(2025, 8, 15),
			from:   core.NewDate(2025, 8, 1),
			want:   core.NewDate(2025, 8, 15),
		},
		{
			name:   "same month upcoming day",
			anchor: core.NewDate(2025, 1, 15),
			from:   core.NewDate(2025, 3, 10),
			want:   core.NewDate(2025, 3, 15),
		},
		{
			name:   "day already passed this month",
			anchor: core.NewDate(2025, 1, 15),
			from:   core.NewDate(2025, 3, 20),
			want:   core.NewDate(2025, 4, 15),
		},
		{
			name:   "day 31 skips february entirely",
			anchor: core.NewDate(2025, 1, 31),
			from:   core.NewDate(2025, 2, 1),
			want:   core.NewDate(2025, 3, 31),
		},
		{
			name:   "day 31 skips 30-day months",
			anchor: core.NewDate(2025, 3, 31),
			from:   core.NewDate(2025, 4, 1),
			want:   core.NewDate(2025, 5, 31),
		},
		{
			name:   "day 30 skips february into march",
			anchor: core.NewDate(2025, 1, 30),
			from:   core.NewDate(2025, 2, 1),
			want:   core.NewDate(2025, 3, 30),
		},
		{
			name:   "from on the pay day moves to next month",
			anchor: core.NewDate(2025, 1, 15),
			from:   core.NewDate(2025, 3, 15),
			want:   core.NewDate(2025, 4, 15),
		},
		{
			name:   "december rolls into january",
			anchor: core.NewDate(2025, 1, 20),
			from:   core.NewDate(2025, 12, 25),
			want:   core.NewDate(2026, 1, 20),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NextMonthly(tc.anchor, tc.from)
			if !got.Equal(tc.want) {
				t.Errorf("NextMonthly(%v, %v) = %v, want %v", tc.anchor, tc.from, got, tc.want)
			}
		})
	}
}

func TestNextSemimonthly(t *testing.T) {
	cases := []struct {
		name string
		days [2]int
		from core.Date
		want core.Date
	}{
		{
			name: "first anchor upcoming",
			days: [2]int{1, 15},
			from: core.NewDate(2025, 6, 10),
			want: core.NewDate(2025, 6, 15),
		},
		{
			name: "both passed rolls to next month",
			days: [2]int{1, 15},
			from: core.NewDate(2025, 6, 20),
			want: core.NewDate(2025, 7, 1),
		},
		{
			name: "order independent",
			days: [2]int{15, 1},
			from: core.NewDate(2025, 6, 10),
			want: core.NewDate(2025, 6, 15),
		},
		{
			name: "day 30 clamps to february 28",
			days: [2]int{15, 30},
			from: core.NewDate(2025, 2, 16),
			want: core.NewDate(2025, 2, 28),
		},
		{
			name: "day 30 clamps to february 29 in leap years",
			days: [2]int{15, 30},
			from: core.NewDate(2024, 2, 16),
			want: core.NewDate(2024, 2, 29),
		},
		{
			name: "from on an anchor day advances",
			days: [2]int{1, 15},
			from: core.NewDate(2025, 6, 15),
			want: core.NewDate(2025, 7, 1),
		},
		{
			name: "december rolls into january",
			days: [2]int{5, 20},
			from: core.NewDate(2025, 12, 21),
			want: core.NewDate(2026, 1, 5),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NextSemimonthly(tc.days, tc.from)
			if !got.Equal(tc.want) {
				t.Errorf("NextSemimonthly(%v, %v) = %v, want %v", tc.days, tc.from, got, tc.want)
			}
		})
	}
}

func TestNextPayDateDispatch(t *testing.T) {
	from := core.NewDate(2025, 6, 10)
	anchor := core.NewDate(2025, 6, 6)

	weekly := core.IncomeSource{Name: "w", PayAmount: 1, Cadence: core.Weekly, NextPayDate: anchor, IsActive: true}
	got, err := NextPayDate(weekly, from)
	if err != nil {
		t.Fatalf("weekly dispatch: %v", err)
	}
	if !got.Equal(core.NewDate(2025, 6, 13)) {
		t.Errorf("weekly = %v", got)
	}

	semi := core.IncomeSource{Name: "s", PayAmount: 1, Cadence: core.Semimonthly, IsActive: true}
	got, err = NextPayDate(semi, from)
	if err != nil {
		t.Fatalf("semimonthly dispatch: %v", err)
	}
	// No explicit pay days falls back to [1, 15].
	if !got.Equal(core.NewDate(2025, 6, 15)) {
		t.Errorf("semimonthly default days = %v", got)
	}

	bad := core.IncomeSource{Name: "b", PayAmount: 1, Cadence: "quarterly", NextPayDate: anchor, IsActive: true}
	if _, err := NextPayDate(bad, from); !errors.Is(err, core.ErrUnknownCadence) {
		t.Fatalf("want ErrUnknownCadence, got %v", err)
	}
}
