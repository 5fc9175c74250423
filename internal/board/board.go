// Package board keeps a live snapshot of the household budget and
// answers dashboard queries from it. It subscribes to store change
// feeds, re-scopes the period-bound feeds whenever the current pay
// period changes, and recomputes the two budget views on demand.
package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"familybudget/internal/budget"
	"familybudget/internal/core"
	"familybudget/internal/notify"
	"familybudget/internal/paydate"
	"familybudget/internal/store"
)

var (
	ErrNoActivePayPeriod = errors.New("no active pay period")
	ErrUnknownView       = errors.New("unknown budget view")
)

// View selects which budget rendition the dashboard leads with.
type View string

const (
	ViewPaycheck View = "paycheck"
	ViewChecking View = "checking"
)

func (v View) Validate() error {
	switch v {
	case ViewPaycheck, ViewChecking:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownView, string(v))
	}
}

// ChangePublisher fans mutations out to background consumers. A nil
// publisher disables fan-out.
type ChangePublisher interface {
	PublishChange(ctx context.Context, msg *notify.ChangeMessage) error
}

type state struct {
	periods      []core.PayPeriod
	current      *core.PayPeriod
	sources      []core.IncomeSource
	legacy       *core.LegacyIncomeConfig
	appConfig    *core.AppConfig
	transactions []core.Transaction
	overrides    core.Overrides
	oneTimeItems []core.OneTimeIncomeItem
}

type Board struct {
	store store.Store
	pub   ChangePublisher
	now   func() core.Date

	mu           sync.RWMutex
	view         View
	st           state
	defaultFloor float64

	periodCancel context.CancelFunc
	migrateOnce  sync.Once
}

// NewBoard creates a board over the given store. pub may be nil.
func NewBoard(s store.Store, pub ChangePublisher) *Board {
	return &Board{
		store: s,
		pub:   pub,
		now:   core.Today,
		view:  ViewPaycheck,
	}
}

// SetDefaultCheckingFloor overrides the built-in fallback floor used
// when neither app settings nor a legacy record provide one. Zero keeps
// the built-in default.
func (b *Board) SetDefaultCheckingFloor(floor float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.defaultFloor = floor
}

// Run subscribes to the store feeds and keeps the snapshot current
// until ctx is canceled. It runs the one-shot legacy migration first so
// the income-source feeds observe the migrated state.
func (b *Board) Run(ctx context.Context) error {
	if err := b.migrateLegacy(ctx); err != nil {
		return fmt.Errorf("legacy migration: %w", err)
	}

	periods, err := b.store.SubscribePayPeriods(ctx)
	if err != nil {
		return fmt.Errorf("subscribe pay periods: %w", err)
	}
	sources, err := b.store.SubscribeIncomeSources(ctx)
	if err != nil {
		return fmt.Errorf("subscribe income sources: %w", err)
	}
	appCfg, err := b.store.SubscribeAppConfig(ctx)
	if err != nil {
		return fmt.Errorf("subscribe app config: %w", err)
	}
	legacy, err := b.store.SubscribeLegacyIncomeConfig(ctx)
	if err != nil {
		return fmt.Errorf("subscribe legacy income config: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snap, ok := <-periods:
			if !ok {
				return nil
			}
			b.applyPeriods(ctx, snap)
		case snap, ok := <-sources:
			if !ok {
				return nil
			}
			b.mu.Lock()
			b.st.sources = snap
			b.mu.Unlock()
		case snap, ok := <-appCfg:
			if !ok {
				return nil
			}
			b.mu.Lock()
			b.st.appConfig = snap
			b.mu.Unlock()
		case snap, ok := <-legacy:
			if !ok {
				return nil
			}
			b.mu.Lock()
			b.st.legacy = snap
			b.mu.Unlock()
		}
	}
}

// applyPeriods installs a pay-period snapshot. Periods arrive sorted by
// start date descending, so the current period is the first entry. When
// the current period changes the period-scoped feeds are torn down and
// re-established against the new one.
func (b *Board) applyPeriods(ctx context.Context, periods []core.PayPeriod) {
	var current *core.PayPeriod
	if len(periods) > 0 {
		current = &periods[0]
	}

	b.mu.Lock()
	prevID := ""
	if b.st.current != nil {
		prevID = b.st.current.ID
	}
	b.st.periods = periods
	b.st.current = current
	switched := (current == nil && prevID != "") || (current != nil && current.ID != prevID)
	if switched {
		b.st.transactions = nil
		b.st.overrides = nil
		b.st.oneTimeItems = nil
	}
	b.mu.Unlock()

	if !switched {
		return
	}

	if b.periodCancel != nil {
		b.periodCancel()
		b.periodCancel = nil
	}
	if current == nil {
		return
	}

	periodCtx, cancel := context.WithCancel(ctx)
	b.periodCancel = cancel
	if err := b.watchPeriod(periodCtx, current.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to watch pay period",
			"period_id", current.ID,
			"error", err)
		cancel()
		b.periodCancel = nil
	}
}

// watchPeriod subscribes to the period-scoped collections. The ordered
// feeds fall back to unordered subscriptions plus a client-side sort
// when the backing index is missing.
func (b *Board) watchPeriod(ctx context.Context, periodID string) error {
	txFeed, txOrdered, err := b.subscribeTransactions(ctx, periodID)
	if err != nil {
		return err
	}
	ovFeed, err := b.store.SubscribeOverrides(ctx, periodID)
	if err != nil {
		return err
	}
	otiFeed, otiOrdered, err := b.subscribeOneTimeIncome(ctx, periodID)
	if err != nil {
		return err
	}

	go func() {
		for snap := range txFeed {
			if !txOrdered {
				sortTransactions(snap)
			}
			b.setIfCurrent(periodID, func(st *state) { st.transactions = snap })
		}
	}()
	go func() {
		for snap := range ovFeed {
			b.setIfCurrent(periodID, func(st *state) { st.overrides = snap })
		}
	}()
	go func() {
		for snap := range otiFeed {
			if !otiOrdered {
				sortOneTimeItems(snap)
			}
			b.setIfCurrent(periodID, func(st *state) { st.oneTimeItems = snap })
		}
	}()
	return nil
}

func (b *Board) setIfCurrent(periodID string, apply func(*state)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.st.current != nil && b.st.current.ID == periodID {
		apply(&b.st)
	}
}

func (b *Board) subscribeTransactions(ctx context.Context, periodID string) (<-chan []core.Transaction, bool, error) {
	feed, err := b.store.SubscribeTransactions(ctx, periodID, true)
	if err == nil {
		return feed, true, nil
	}
	if !errors.Is(err, store.ErrIndexUnavailable) {
		return nil, false, err
	}

	slog.WarnContext(ctx, "Ordered transaction feed unavailable, sorting client-side",
		"period_id", periodID)
	feed, err = b.store.SubscribeTransactions(ctx, periodID, false)
	return feed, false, err
}

func (b *Board) subscribeOneTimeIncome(ctx context.Context, periodID string) (<-chan []core.OneTimeIncomeItem, bool, error) {
	feed, err := b.store.SubscribeOneTimeIncome(ctx, periodID, true)
	if err == nil {
		return feed, true, nil
	}
	if !errors.Is(err, store.ErrIndexUnavailable) {
		return nil, false, err
	}

	slog.WarnContext(ctx, "Ordered one-time income feed unavailable, sorting client-side",
		"period_id", periodID)
	feed, err = b.store.SubscribeOneTimeIncome(ctx, periodID, false)
	return feed, false, err
}

func sortTransactions(txns []core.Transaction) {
	sort.SliceStable(txns, func(i, j int) bool {
		return txns[i].CreatedAt.After(txns[j].CreatedAt)
	})
}

func sortOneTimeItems(items []core.OneTimeIncomeItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

// SetView switches the leading dashboard rendition.
func (b *Board) SetView(v View) error {
	if err := v.Validate(); err != nil {
		return err
	}
	b.mu.Lock()
	b.view = v
	b.mu.Unlock()
	return nil
}

func (b *Board) publish(ctx context.Context, msg *notify.ChangeMessage) {
	if b.pub == nil {
		return
	}
	if err := b.pub.PublishChange(ctx, msg); err != nil {
		slog.WarnContext(ctx, "Failed to publish change event",
			"collection", msg.Collection,
			"id", msg.ID,
			"error", err)
	}
}

// checkingFloor resolves the floor with config precedence: app config,
// then the legacy record, then the configured or built-in default. A
// saved settings record wins even when its floor is zero; only the
// legacy record needs a positive value to count.
func (b *Board) checkingFloor() float64 {
	if b.st.appConfig != nil {
		return b.st.appConfig.CheckingFloor
	}
	if b.st.legacy != nil && b.st.legacy.CheckingFloor > 0 {
		return b.st.legacy.CheckingFloor
	}
	if b.defaultFloor > 0 {
		return b.defaultFloor
	}
	return budget.DefaultCheckingFloor
}

// oneTimeIncomeTotal prefers the period's own snapshot amount; the
// itemized records only count when no snapshot was recorded.
func oneTimeIncomeTotal(period *core.PayPeriod, items []core.OneTimeIncomeItem) float64 {
	if period.OneTimeIncome > 0 {
		return period.OneTimeIncome
	}
	var total float64
	for _, item := range items {
		total += item.Amount
	}
	return total
}

// ViewModel is one consistent dashboard rendering.
type ViewModel struct {
	Period        *core.PayPeriod
	View          View
	Paycheck      budget.PaycheckBudget
	Checking      budget.CheckingBudget
	Gauge         budget.Gauge
	GaugePercent  float64
	Progress      paydate.Progress
	NextPaycheck  *paydate.Paycheck
	CheckingFloor float64
	Transactions  []core.Transaction
	Overrides     core.Overrides
	OneTimeItems  []core.OneTimeIncomeItem
	Sources       []core.IncomeSource
}

// Dashboard computes the current view model from the live snapshot.
// With no pay period yet it still reports sources and the next paycheck
// so a fresh install can render its setup state.
func (b *Board) Dashboard() ViewModel {
	b.mu.RLock()
	defer b.mu.RUnlock()

	today := b.now()
	vm := ViewModel{
		View:          b.view,
		CheckingFloor: b.checkingFloor(),
		Sources:       b.st.sources,
	}

	vm.NextPaycheck = b.nextPaycheck(today)

	if b.st.current == nil {
		return vm
	}
	period := *b.st.current
	vm.Period = &period
	vm.Transactions = b.st.transactions
	vm.Overrides = b.st.overrides.Clone()
	vm.OneTimeItems = b.st.oneTimeItems

	params := budget.NewParams()
	params.StartingCheckingBalance = period.StartingCheckingBalance
	params.PaycheckAmount = period.PaycheckAmount
	params.OneTimeIncome = oneTimeIncomeTotal(&period, b.st.oneTimeItems)
	params.CheckingFloor = vm.CheckingFloor
	params.MortgageCarveout = period.MortgageCarveout
	params.SavingsAmount = period.SavingsAmount
	params.Transactions = b.st.transactions
	params.Overrides = b.st.overrides

	vm.Paycheck = budget.CalculatePaycheck(params)
	vm.Checking = budget.CalculateChecking(params)
	vm.Gauge = budget.Status(vm.Paycheck.RemainingBudget, vm.Paycheck.AvailableBudget)
	vm.GaugePercent = budget.Percentage(vm.Paycheck.RemainingBudget, vm.Paycheck.AvailableBudget)
	vm.Progress = paydate.PeriodProgress(period.StartDate, period.EndDate, today)

	return vm
}

// nextPaycheck prefers the income sources; the legacy two-person record
// only answers when no sources produce a date. Callers hold b.mu.
func (b *Board) nextPaycheck(today core.Date) *paydate.Paycheck {
	pc, err := paydate.NextPaycheckFromSources(b.st.sources, today)
	if err != nil {
		slog.Warn("Failed to compute next paycheck from sources", "error", err)
	}
	if pc != nil {
		return pc
	}
	if b.st.legacy != nil {
		legacy := paydate.NextPaycheckLegacy(*b.st.legacy, today)
		return &legacy
	}
	return nil
}
