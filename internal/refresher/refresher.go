// Package refresher recomputes the current budget whenever a change
// message arrives and logs the result. It reads current state from the
// store rather than trusting message payloads, so duplicate or
// out-of-order deliveries are harmless.
package refresher

import (
	"context"
	"fmt"
	"log/slog"

	"familybudget/internal/budget"
	"familybudget/internal/core"
	"familybudget/internal/notify"
	"familybudget/internal/store"
)

type Refresher struct {
	store store.Store
}

func NewRefresher(s store.Store) *Refresher {
	return &Refresher{store: s}
}

// HandleChange processes a single change message from the queue.
func (r *Refresher) HandleChange(ctx context.Context, msg *notify.ChangeMessage) error {
	slog.InfoContext(ctx, "Processing change message",
		"collection", msg.Collection,
		"id", msg.ID,
		"action", msg.Action)

	return r.Refresh(ctx)
}

// Refresh reloads the current pay period and logs both budget views.
func (r *Refresher) Refresh(ctx context.Context) error {
	periods, err := r.store.GetPayPeriods(ctx)
	if err != nil {
		return fmt.Errorf("get pay periods: %w", err)
	}
	if len(periods) == 0 {
		slog.InfoContext(ctx, "No pay periods yet, nothing to refresh")
		return nil
	}
	current := periods[0]

	transactions, err := r.store.GetTransactionsByPeriod(ctx, current.ID)
	if err != nil {
		return fmt.Errorf("get transactions: %w", err)
	}
	overrides, err := r.store.GetOverrides(ctx, current.ID)
	if err != nil {
		return fmt.Errorf("get overrides: %w", err)
	}
	oneTimeItems, err := r.store.GetOneTimeIncomeByPeriod(ctx, current.ID)
	if err != nil {
		return fmt.Errorf("get one-time income: %w", err)
	}
	floor, err := r.checkingFloor(ctx)
	if err != nil {
		return fmt.Errorf("resolve checking floor: %w", err)
	}

	p := budget.NewParams()
	p.StartingCheckingBalance = current.StartingCheckingBalance
	p.PaycheckAmount = current.PaycheckAmount
	p.OneTimeIncome = oneTimeIncomeTotal(current, oneTimeItems)
	p.CheckingFloor = floor
	p.MortgageCarveout = current.MortgageCarveout
	p.SavingsAmount = current.SavingsAmount
	p.Transactions = transactions
	p.Overrides = overrides

	paycheck := budget.CalculatePaycheck(p)
	checking := budget.CalculateChecking(p)
	gauge := budget.Status(paycheck.RemainingBudget, paycheck.AvailableBudget)

	slog.InfoContext(ctx, "Budget refreshed",
		"period_id", current.ID,
		"period_start", current.StartDate.Format("2006-01-02"),
		"remaining", core.FormatCurrency(paycheck.RemainingBudget),
		"available", core.FormatCurrency(paycheck.AvailableBudget),
		"projected_checking", core.FormatCurrency(checking.ProjectedChecking),
		"spending", core.FormatCurrency(paycheck.TotalSpending),
		"gauge", gauge.Label)

	return nil
}

// checkingFloor resolves the floor the same way the dashboard does:
// saved settings win, then a positive legacy value, then the default.
func (r *Refresher) checkingFloor(ctx context.Context) (float64, error) {
	cfg, err := r.store.GetAppConfig(ctx)
	if err != nil {
		return 0, err
	}
	if cfg != nil {
		return cfg.CheckingFloor, nil
	}

	legacy, err := r.store.GetLegacyIncomeConfig(ctx)
	if err != nil {
		return 0, err
	}
	if legacy != nil && legacy.CheckingFloor > 0 {
		return legacy.CheckingFloor, nil
	}

	return budget.DefaultCheckingFloor, nil
}

func oneTimeIncomeTotal(period core.PayPeriod, items []core.OneTimeIncomeItem) float64 {
	if period.OneTimeIncome > 0 {
		return period.OneTimeIncome
	}
	var total float64
	for _, item := range items {
		total += item.Amount
	}
	return total
}
