package board

import (
	"context"
	"fmt"

	"familybudget/internal/budget"
	"familybudget/internal/core"
	"familybudget/internal/notify"
	"familybudget/internal/paydate"
	"familybudget/internal/store"
)

// StartPeriodInput carries the user-entered values for a new pay
// period. The end date is derived, never entered.
type StartPeriodInput struct {
	StartDate               core.Date
	StartingCheckingBalance float64
	PaycheckAmount          float64
	PaycheckSource          string
	SavingsAmount           float64
	MortgageCarveout        float64 // zero means the default carveout
}

// StartPayPeriod opens a new period. The end date is the day before the
// next paycheck after the start, from the income sources when any are
// active, from the legacy record otherwise, or a fixed 14-day window as
// the last resort.
func (b *Board) StartPayPeriod(ctx context.Context, in StartPeriodInput) (string, error) {
	if err := in.StartDate.Validate(); err != nil {
		return "", fmt.Errorf("invalid start date: %w", err)
	}

	carveout := in.MortgageCarveout
	if carveout == 0 {
		carveout = budget.DefaultMortgageCarveout
	}

	sources, err := b.store.GetIncomeSources(ctx)
	if err != nil {
		return "", fmt.Errorf("load income sources: %w", err)
	}

	end, pc, err := paydate.PeriodEndFromSources(in.StartDate, sources)
	if err != nil {
		return "", err
	}
	if pc == nil {
		legacy, err := b.store.GetLegacyIncomeConfig(ctx)
		if err != nil {
			return "", fmt.Errorf("load legacy income config: %w", err)
		}
		if legacy != nil {
			end, _ = paydate.PeriodEndLegacy(in.StartDate, *legacy)
		}
	}

	id, err := b.store.CreatePayPeriod(ctx, core.PayPeriod{
		StartDate:               in.StartDate,
		EndDate:                 end,
		StartingCheckingBalance: in.StartingCheckingBalance,
		PaycheckAmount:          in.PaycheckAmount,
		PaycheckSource:          in.PaycheckSource,
		MortgageCarveout:        carveout,
		SavingsAmount:           in.SavingsAmount,
	})
	if err != nil {
		return "", err
	}

	b.publish(ctx, notify.NewChangeMessage("pay_periods", id, notify.ActionCreated, id))
	return id, nil
}

// UpdatePayPeriod applies a partial merge to a period.
func (b *Board) UpdatePayPeriod(ctx context.Context, id string, upd store.PayPeriodUpdate) error {
	if err := b.store.UpdatePayPeriod(ctx, id, upd); err != nil {
		return err
	}
	b.publish(ctx, notify.NewChangeMessage("pay_periods", id, notify.ActionUpdated, id))
	return nil
}

func (b *Board) currentPeriodID() (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.st.current == nil {
		return "", ErrNoActivePayPeriod
	}
	return b.st.current.ID, nil
}

// currentOverride returns the current period's override for an account,
// if one is set.
func (b *Board) currentOverride(method core.PaymentMethod) (float64, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.st.overrides.Lookup(method)
}

// adjustOverride bumps a set override by delta so a manually entered
// account total keeps tracking transaction edits. Absent overrides stay
// absent; an adjustment below zero clamps to zero rather than failing.
func (b *Board) adjustOverride(ctx context.Context, periodID string, method core.PaymentMethod, delta float64) error {
	current, ok := b.currentOverride(method)
	if !ok || delta == 0 {
		return nil
	}
	next := current + delta
	if next < 0 {
		next = 0
	}
	return b.store.SetOverride(ctx, periodID, method, next)
}

// AddTransaction records a spend against the current period.
func (b *Board) AddTransaction(ctx context.Context, amount float64, method core.PaymentMethod) (string, error) {
	periodID, err := b.currentPeriodID()
	if err != nil {
		return "", err
	}

	id, err := b.store.CreateTransaction(ctx, core.Transaction{
		PayPeriodID:   periodID,
		Amount:        amount,
		PaymentMethod: method,
	})
	if err != nil {
		return "", err
	}

	if err := b.adjustOverride(ctx, periodID, method, amount); err != nil {
		return "", fmt.Errorf("adjust override: %w", err)
	}

	b.publish(ctx, notify.NewChangeMessage("transactions", id, notify.ActionCreated, periodID))
	return id, nil
}

// UpdateTransaction edits a transaction in the current period and keeps
// any override on its account in step with the amount change.
func (b *Board) UpdateTransaction(ctx context.Context, id string, amount float64, method core.PaymentMethod) error {
	periodID, err := b.currentPeriodID()
	if err != nil {
		return err
	}

	prev, err := b.findTransaction(id)
	if err != nil {
		return err
	}

	if err := b.store.UpdateTransaction(ctx, id, store.TransactionUpdate{
		Amount:        &amount,
		PaymentMethod: &method,
	}); err != nil {
		return err
	}

	if method == prev.PaymentMethod {
		if err := b.adjustOverride(ctx, periodID, method, amount-prev.Amount); err != nil {
			return fmt.Errorf("adjust override: %w", err)
		}
	} else {
		if err := b.adjustOverride(ctx, periodID, prev.PaymentMethod, -prev.Amount); err != nil {
			return fmt.Errorf("adjust override: %w", err)
		}
		if err := b.adjustOverride(ctx, periodID, method, amount); err != nil {
			return fmt.Errorf("adjust override: %w", err)
		}
	}

	b.publish(ctx, notify.NewChangeMessage("transactions", id, notify.ActionUpdated, periodID))
	return nil
}

// DeleteTransaction removes a transaction and backs its amount out of
// any override on its account.
func (b *Board) DeleteTransaction(ctx context.Context, id string) error {
	periodID, err := b.currentPeriodID()
	if err != nil {
		return err
	}

	prev, err := b.findTransaction(id)
	if err != nil {
		return err
	}

	if err := b.store.DeleteTransaction(ctx, id); err != nil {
		return err
	}

	if err := b.adjustOverride(ctx, periodID, prev.PaymentMethod, -prev.Amount); err != nil {
		return fmt.Errorf("adjust override: %w", err)
	}

	b.publish(ctx, notify.NewChangeMessage("transactions", id, notify.ActionDeleted, periodID))
	return nil
}

func (b *Board) findTransaction(id string) (core.Transaction, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, t := range b.st.transactions {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, store.ErrNotFound)
}

// SetOverride pins an account's total for the current period.
func (b *Board) SetOverride(ctx context.Context, method core.PaymentMethod, total float64) error {
	periodID, err := b.currentPeriodID()
	if err != nil {
		return err
	}
	if total < 0 {
		return core.ErrInvalidAmount
	}
	if err := b.store.SetOverride(ctx, periodID, method, total); err != nil {
		return err
	}
	b.publish(ctx, notify.NewChangeMessage("account_overrides", string(method), notify.ActionUpdated, periodID))
	return nil
}

// ClearOverride returns an account to summed-transaction totals.
func (b *Board) ClearOverride(ctx context.Context, method core.PaymentMethod) error {
	periodID, err := b.currentPeriodID()
	if err != nil {
		return err
	}
	if err := b.store.ClearOverride(ctx, periodID, method); err != nil {
		return err
	}
	b.publish(ctx, notify.NewChangeMessage("account_overrides", string(method), notify.ActionDeleted, periodID))
	return nil
}

// AddIncomeSource registers a recurring paycheck.
func (b *Board) AddIncomeSource(ctx context.Context, src core.IncomeSource) (string, error) {
	id, err := b.store.CreateIncomeSource(ctx, src)
	if err != nil {
		return "", err
	}
	b.publish(ctx, notify.NewChangeMessage("income_sources", id, notify.ActionCreated, ""))
	return id, nil
}

// UpdateIncomeSource applies a partial merge to a source.
func (b *Board) UpdateIncomeSource(ctx context.Context, id string, upd store.IncomeSourceUpdate) error {
	if err := b.store.UpdateIncomeSource(ctx, id, upd); err != nil {
		return err
	}
	b.publish(ctx, notify.NewChangeMessage("income_sources", id, notify.ActionUpdated, ""))
	return nil
}

// DeleteIncomeSource removes a source.
func (b *Board) DeleteIncomeSource(ctx context.Context, id string) error {
	if err := b.store.DeleteIncomeSource(ctx, id); err != nil {
		return err
	}
	b.publish(ctx, notify.NewChangeMessage("income_sources", id, notify.ActionDeleted, ""))
	return nil
}

// AddOneTimeIncome records extra income against the current period.
func (b *Board) AddOneTimeIncome(ctx context.Context, amount float64, description string, date core.Date) (string, error) {
	periodID, err := b.currentPeriodID()
	if err != nil {
		return "", err
	}

	id, err := b.store.CreateOneTimeIncome(ctx, core.OneTimeIncomeItem{
		PayPeriodID: periodID,
		Amount:      amount,
		Description: description,
		Date:        date,
	})
	if err != nil {
		return "", err
	}

	b.publish(ctx, notify.NewChangeMessage("one_time_income", id, notify.ActionCreated, periodID))
	return id, nil
}

// DeleteOneTimeIncome removes a one-time income record.
func (b *Board) DeleteOneTimeIncome(ctx context.Context, id string) error {
	periodID, err := b.currentPeriodID()
	if err != nil {
		return err
	}
	if err := b.store.DeleteOneTimeIncome(ctx, id); err != nil {
		return err
	}
	b.publish(ctx, notify.NewChangeMessage("one_time_income", id, notify.ActionDeleted, periodID))
	return nil
}

// UpdateAppConfig saves the global settings record.
func (b *Board) UpdateAppConfig(ctx context.Context, checkingFloor float64) error {
	if checkingFloor < 0 {
		return core.ErrInvalidAmount
	}

	cfg, err := b.store.GetAppConfig(ctx)
	if err != nil {
		return err
	}
	next := core.AppConfig{CheckingFloor: checkingFloor}
	if cfg != nil {
		next.MigratedAt = cfg.MigratedAt
	}
	if err := b.store.SaveAppConfig(ctx, next); err != nil {
		return err
	}

	b.publish(ctx, notify.NewChangeMessage("app_config", "app_config", notify.ActionUpdated, ""))
	return nil
}

// SaveLegacyIncomeConfig writes the pre-income-sources two-person
// record. Installs that have already migrated keep ignoring it.
func (b *Board) SaveLegacyIncomeConfig(ctx context.Context, cfg core.LegacyIncomeConfig) error {
	if cfg.FirstPayAmount < 0 || cfg.SecondPayAmount < 0 || cfg.CheckingFloor < 0 {
		return core.ErrInvalidAmount
	}
	if err := b.store.SaveLegacyIncomeConfig(ctx, cfg); err != nil {
		return err
	}

	b.publish(ctx, notify.NewChangeMessage("legacy_income_config", "legacy_income_config", notify.ActionUpdated, ""))
	return nil
}
