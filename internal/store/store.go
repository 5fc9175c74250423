// Package store persists budget documents and pushes change
// notifications to subscribers. Every subscription delivers the full
// current result set on each change, never a partial diff.
package store

import (
	"context"
	"errors"

	"familybudget/internal/core"
)

var (
	// ErrNotFound is returned by id-addressed updates and deletes when
	// no such document exists.
	ErrNotFound = errors.New("document not found")

	// ErrIndexUnavailable is returned by an ordered subscription whose
	// supporting index is missing. Callers are expected to fall back to
	// an unordered subscription and sort client-side by createdAt
	// descending.
	ErrIndexUnavailable = errors.New("index unavailable for ordered subscription")
)

// PayPeriodUpdate is a partial-merge update; nil fields are untouched.
type PayPeriodUpdate struct {
	StartDate               *core.Date
	EndDate                 *core.Date
	StartingCheckingBalance *float64
	PaycheckAmount          *float64
	PaycheckSource          *string
	MortgageCarveout        *float64
	SavingsAmount           *float64
	OneTimeIncome           *float64
}

// TransactionUpdate is a partial-merge update; nil fields are untouched.
type TransactionUpdate struct {
	Amount        *float64
	PaymentMethod *core.PaymentMethod
}

// IncomeSourceUpdate is a partial-merge update; nil fields are
// untouched. Setting Cadence away from semimonthly clears the pay days.
type IncomeSourceUpdate struct {
	Name            *string
	PayAmount       *float64
	Cadence         *core.Cadence
	NextPayDate     *core.Date
	SemimonthlyDays *[2]int
	IsActive        *bool
}

// Store is the document-store boundary the orchestration layer works
// against. Creates return the generated document id.
type Store interface {
	CreatePayPeriod(ctx context.Context, p core.PayPeriod) (string, error)
	UpdatePayPeriod(ctx context.Context, id string, upd PayPeriodUpdate) error
	GetPayPeriods(ctx context.Context) ([]core.PayPeriod, error)

	CreateTransaction(ctx context.Context, t core.Transaction) (string, error)
	UpdateTransaction(ctx context.Context, id string, upd TransactionUpdate) error
	DeleteTransaction(ctx context.Context, id string) error
	GetTransactionsByPeriod(ctx context.Context, periodID string) ([]core.Transaction, error)

	SetOverride(ctx context.Context, periodID string, method core.PaymentMethod, total float64) error
	ClearOverride(ctx context.Context, periodID string, method core.PaymentMethod) error
	GetOverrides(ctx context.Context, periodID string) (core.Overrides, error)

	CreateIncomeSource(ctx context.Context, s core.IncomeSource) (string, error)
	UpdateIncomeSource(ctx context.Context, id string, upd IncomeSourceUpdate) error
	DeleteIncomeSource(ctx context.Context, id string) error
	GetIncomeSources(ctx context.Context) ([]core.IncomeSource, error)

	CreateOneTimeIncome(ctx context.Context, item core.OneTimeIncomeItem) (string, error)
	DeleteOneTimeIncome(ctx context.Context, id string) error
	GetOneTimeIncomeByPeriod(ctx context.Context, periodID string) ([]core.OneTimeIncomeItem, error)

	SaveAppConfig(ctx context.Context, cfg core.AppConfig) error
	GetAppConfig(ctx context.Context) (*core.AppConfig, error)

	SaveLegacyIncomeConfig(ctx context.Context, cfg core.LegacyIncomeConfig) error
	GetLegacyIncomeConfig(ctx context.Context) (*core.LegacyIncomeConfig, error)

	// Subscriptions deliver the current snapshot immediately, then a
	// fresh snapshot after every change, until ctx is canceled. Ordered
	// variants sort by createdAt descending and fail with
	// ErrIndexUnavailable when the backing index is missing.
	SubscribePayPeriods(ctx context.Context) (<-chan []core.PayPeriod, error)
	SubscribeIncomeSources(ctx context.Context) (<-chan []core.IncomeSource, error)
	SubscribeAppConfig(ctx context.Context) (<-chan *core.AppConfig, error)
	SubscribeLegacyIncomeConfig(ctx context.Context) (<-chan *core.LegacyIncomeConfig, error)
	SubscribeTransactions(ctx context.Context, periodID string, ordered bool) (<-chan []core.Transaction, error)
	SubscribeOverrides(ctx context.Context, periodID string) (<-chan core.Overrides, error)
	SubscribeOneTimeIncome(ctx context.Context, periodID string, ordered bool) (<-chan []core.OneTimeIncomeItem, error)
}
