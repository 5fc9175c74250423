package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Weekly      Cadence = "weekly"
	Biweekly    Cadence = "biweekly"
	Semimonthly Cadence = "semimonthly"
	Monthly     Cadence = "monthly"
)

const (
	Amex        PaymentMethod = "Amex"
	ChaseAmazon PaymentMethod = "Chase Amazon"
	Savor       PaymentMethod = "Savor"
	Checking    PaymentMethod = "Checking"
)

// PaymentMethods is the fixed account set, in display order. Every
// aggregation enumerates exactly these four.
var PaymentMethods = []PaymentMethod{Amex, ChaseAmazon, Savor, Checking}

type (
	Cadence string

	PaymentMethod string

	// Date is a calendar date normalized to midnight UTC. All pay-date
	// arithmetic compares whole days, never times.
	Date struct {
		time.Time
	}

	// IncomeSource is one recurring paycheck. SemimonthlyDays is set only
	// for the semimonthly cadence; NextPayDate anchors the other three.
	IncomeSource struct {
		ID              string
		Name            string
		PayAmount       float64
		Cadence         Cadence
		NextPayDate     Date
		SemimonthlyDays *[2]int
		IsActive        bool
		CreatedAt       time.Time
		UpdatedAt       time.Time
	}

	// PayPeriod is one budgeting window. The period with the most recent
	// StartDate is the current one.
	PayPeriod struct {
		ID                      string
		StartDate               Date
		EndDate                 Date
		StartingCheckingBalance float64
		PaycheckAmount          float64
		PaycheckSource          string
		MortgageCarveout        float64
		SavingsAmount           float64
		OneTimeIncome           float64 // legacy snapshot, superseded by OneTimeIncomeItem rows
		CreatedAt               time.Time
	}

	Transaction struct {
		ID            string
		PayPeriodID   string
		Amount        float64
		PaymentMethod PaymentMethod
		CreatedAt     time.Time
	}

	// Overrides maps an account to its manual total for one pay period.
	// Presence is meaningful: a missing key means "no override", which is
	// distinct from an override of zero.
	Overrides map[PaymentMethod]float64

	OneTimeIncomeItem struct {
		ID          string
		PayPeriodID string
		Amount      float64
		Description string
		Date        Date
		CreatedAt   time.Time
	}

	// AppConfig is the single global settings record.
	AppConfig struct {
		CheckingFloor float64
		MigratedAt    time.Time
		UpdatedAt     time.Time
	}

	// LegacyIncomeConfig is the pre-income-sources two-person record:
	// one biweekly earner and one monthly earner. Kept only so existing
	// installs keep working until the one-shot migration has run.
	LegacyIncomeConfig struct {
		FirstName         string
		FirstPayAmount    float64
		FirstNextPayDate  Date
		SecondName        string
		SecondPayAmount   float64
		SecondNextPayDate Date
		CheckingFloor     float64
		UpdatedAt         time.Time
	}
)

var (
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrUnknownCadence       = errors.New("unknown cadence")
	ErrUnknownPaymentMethod = errors.New("unknown payment method")
	ErrEmptyName            = errors.New("empty name")
	ErrEmptyDescription     = errors.New("empty description")
)

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its calendar date.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// Today returns the current calendar date.
func Today() Date {
	return DateOf(time.Now())
}

// AddDays returns the date n whole days later (negative n goes back).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// DaysBetween returns the whole-day distance from a to b. Negative when b
// precedes a.
func DaysBetween(a, b Date) int {
	return int(b.Time.Sub(a.Time) / (24 * time.Hour))
}

// Before reports whether d is an earlier calendar date than other.
func (d Date) Before(other Date) bool { return d.Time.Before(other.Time) }

// After reports whether d is a later calendar date than other.
func (d Date) After(other Date) bool { return d.Time.After(other.Time) }

// Equal reports whether the two dates are the same day.
func (d Date) Equal(other Date) bool { return d.Time.Equal(other.Time) }

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// LastDayOfMonth returns the number of days in the given month.
func LastDayOfMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (c Cadence) Validate() error {
	switch c {
	case Weekly, Biweekly, Semimonthly, Monthly:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCadence, string(c))
	}
}

func (m PaymentMethod) Validate() error {
	for _, known := range PaymentMethods {
		if m == known {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownPaymentMethod, string(m))
}

func (s IncomeSource) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	if s.PayAmount <= 0 {
		return ErrInvalidAmount
	}
	if err := s.Cadence.Validate(); err != nil {
		return err
	}
	if s.Cadence == Semimonthly {
		if s.SemimonthlyDays == nil {
			return errors.New("semimonthly cadence requires two pay days")
		}
		d1, d2 := s.SemimonthlyDays[0], s.SemimonthlyDays[1]
		if d1 < 1 || d1 > 31 || d2 < 1 || d2 > 31 {
			return errors.New("semimonthly days must be between 1 and 31")
		}
		if d1 == d2 {
			return errors.New("semimonthly days must be distinct")
		}
	} else {
		if s.SemimonthlyDays != nil {
			return errors.New("pay days are only valid for the semimonthly cadence")
		}
		if err := s.NextPayDate.Validate(); err != nil {
			return fmt.Errorf("invalid next pay date: %w", err)
		}
	}
	return nil
}

func (p PayPeriod) Validate() error {
	if err := p.StartDate.Validate(); err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}
	if err := p.EndDate.Validate(); err != nil {
		return fmt.Errorf("invalid end date: %w", err)
	}
	if p.EndDate.Before(p.StartDate) {
		return errors.New("end date must not precede start date")
	}
	return nil
}

func (t Transaction) Validate() error {
	if t.PayPeriodID == "" {
		return errors.New("transaction requires a pay period")
	}
	if t.Amount <= 0 {
		return ErrInvalidAmount
	}
	return t.PaymentMethod.Validate()
}

func (i OneTimeIncomeItem) Validate() error {
	if i.PayPeriodID == "" {
		return errors.New("one-time income requires a pay period")
	}
	if i.Amount == 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(i.Description) == "" {
		return ErrEmptyDescription
	}
	return i.Date.Validate()
}

// Lookup returns the override for an account and whether one is set. The
// two-value form preserves the absent-vs-zero distinction.
func (o Overrides) Lookup(m PaymentMethod) (float64, bool) {
	v, ok := o[m]
	return v, ok
}

// Clone returns an independent copy so snapshots can be replaced wholesale.
func (o Overrides) Clone() Overrides {
	out := make(Overrides, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}
