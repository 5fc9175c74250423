package board

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"familybudget/internal/budget"
	"familybudget/internal/core"
	"familybudget/internal/store"
)

// fakeStore is an in-memory Store. Subscriptions deliver one snapshot
// and close, which is all the board tests need.
type fakeStore struct {
	mu         sync.Mutex
	nextID     int
	periods    map[string]core.PayPeriod
	txns       map[string]core.Transaction
	overrides  map[string]core.Overrides
	sources    map[string]core.IncomeSource
	oneTime    map[string]core.OneTimeIncomeItem
	appCfg     *core.AppConfig
	legacy     *core.LegacyIncomeConfig
	orderedErr bool
}

var _ store.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		periods:   make(map[string]core.PayPeriod),
		txns:      make(map[string]core.Transaction),
		overrides: make(map[string]core.Overrides),
		sources:   make(map[string]core.IncomeSource),
		oneTime:   make(map[string]core.OneTimeIncomeItem),
	}
}

func (f *fakeStore) genID() string {
	f.nextID++
	return fmt.Sprintf("id-%d", f.nextID)
}

func (f *fakeStore) CreatePayPeriod(ctx context.Context, p core.PayPeriod) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = f.genID()
	p.CreatedAt = time.Now()
	f.periods[p.ID] = p
	return p.ID, nil
}

func (f *fakeStore) UpdatePayPeriod(ctx context.Context, id string, upd store.PayPeriodUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.periods[id]
	if !ok {
		return store.ErrNotFound
	}
	if upd.StartDate != nil {
		p.StartDate = *upd.StartDate
	}
	if upd.EndDate != nil {
		p.EndDate = *upd.EndDate
	}
	if upd.SavingsAmount != nil {
		p.SavingsAmount = *upd.SavingsAmount
	}
	if upd.OneTimeIncome != nil {
		p.OneTimeIncome = *upd.OneTimeIncome
	}
	f.periods[id] = p
	return nil
}

func (f *fakeStore) GetPayPeriods(ctx context.Context) ([]core.PayPeriod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []core.PayPeriod
	for _, p := range f.periods {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

func (f *fakeStore) CreateTransaction(ctx context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t.ID = f.genID()
	t.CreatedAt = time.Now()
	f.txns[t.ID] = t
	return t.ID, nil
}

func (f *fakeStore) UpdateTransaction(ctx context.Context, id string, upd store.TransactionUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.txns[id]
	if !ok {
		return store.ErrNotFound
	}
	if upd.Amount != nil {
		t.Amount = *upd.Amount
	}
	if upd.PaymentMethod != nil {
		t.PaymentMethod = *upd.PaymentMethod
	}
	f.txns[id] = t
	return nil
}

func (f *fakeStore) DeleteTransaction(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.txns[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.txns, id)
	return nil
}

func (f *fakeStore) GetTransactionsByPeriod(ctx context.Context, periodID string) ([]core.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []core.Transaction
	for _, t := range f.txns {
		if t.PayPeriodID == periodID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) SetOverride(ctx context.Context, periodID string, method core.PaymentMethod, total float64) error {
	if total < 0 {
		return core.ErrInvalidAmount
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.overrides[periodID] == nil {
		f.overrides[periodID] = make(core.Overrides)
	}
	f.overrides[periodID][method] = total
	return nil
}

func (f *fakeStore) ClearOverride(ctx context.Context, periodID string, method core.PaymentMethod) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.overrides[periodID], method)
	return nil
}

func (f *fakeStore) GetOverrides(ctx context.Context, periodID string) (core.Overrides, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.overrides[periodID].Clone(), nil
}

func (f *fakeStore) CreateIncomeSource(ctx context.Context, s core.IncomeSource) (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s.ID = f.genID()
	s.CreatedAt = time.Now()
	f.sources[s.ID] = s
	return s.ID, nil
}

func (f *fakeStore) UpdateIncomeSource(ctx context.Context, id string, upd store.IncomeSourceUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sources[id]
	if !ok {
		return store.ErrNotFound
	}
	if upd.Name != nil {
		s.Name = *upd.Name
	}
	if upd.PayAmount != nil {
		s.PayAmount = *upd.PayAmount
	}
	if upd.IsActive != nil {
		s.IsActive = *upd.IsActive
	}
	f.sources[id] = s
	return nil
}

func (f *fakeStore) DeleteIncomeSource(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sources[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.sources, id)
	return nil
}

func (f *fakeStore) GetIncomeSources(ctx context.Context) ([]core.IncomeSource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []core.IncomeSource
	for _, s := range f.sources {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) CreateOneTimeIncome(ctx context.Context, item core.OneTimeIncomeItem) (string, error) {
	if err := item.Validate(); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	item.ID = f.genID()
	item.CreatedAt = time.Now()
	f.oneTime[item.ID] = item
	return item.ID, nil
}

func (f *fakeStore) DeleteOneTimeIncome(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.oneTime[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.oneTime, id)
	return nil
}

func (f *fakeStore) GetOneTimeIncomeByPeriod(ctx context.Context, periodID string) ([]core.OneTimeIncomeItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []core.OneTimeIncomeItem
	for _, item := range f.oneTime {
		if item.PayPeriodID == periodID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeStore) SaveAppConfig(ctx context.Context, cfg core.AppConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cfg.UpdatedAt = time.Now()
	f.appCfg = &cfg
	return nil
}

func (f *fakeStore) GetAppConfig(ctx context.Context) (*core.AppConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appCfg == nil {
		return nil, nil
	}
	cfg := *f.appCfg
	return &cfg, nil
}

func (f *fakeStore) SaveLegacyIncomeConfig(ctx context.Context, cfg core.LegacyIncomeConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.legacy = &cfg
	return nil
}

func (f *fakeStore) GetLegacyIncomeConfig(ctx context.Context) (*core.LegacyIncomeConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.legacy == nil {
		return nil, nil
	}
	cfg := *f.legacy
	return &cfg, nil
}

func oneShot[T any](snap T) <-chan T {
	ch := make(chan T, 1)
	ch <- snap
	close(ch)
	return ch
}

func (f *fakeStore) SubscribePayPeriods(ctx context.Context) (<-chan []core.PayPeriod, error) {
	snap, _ := f.GetPayPeriods(ctx)
	return oneShot(snap), nil
}

func (f *fakeStore) SubscribeIncomeSources(ctx context.Context) (<-chan []core.IncomeSource, error) {
	snap, _ := f.GetIncomeSources(ctx)
	return oneShot(snap), nil
}

func (f *fakeStore) SubscribeAppConfig(ctx context.Context) (<-chan *core.AppConfig, error) {
	snap, _ := f.GetAppConfig(ctx)
	return oneShot(snap), nil
}

func (f *fakeStore) SubscribeLegacyIncomeConfig(ctx context.Context) (<-chan *core.LegacyIncomeConfig, error) {
	snap, _ := f.GetLegacyIncomeConfig(ctx)
	return oneShot(snap), nil
}

func (f *fakeStore) SubscribeTransactions(ctx context.Context, periodID string, ordered bool) (<-chan []core.Transaction, error) {
	if ordered && f.orderedErr {
		return nil, store.ErrIndexUnavailable
	}
	snap, _ := f.GetTransactionsByPeriod(ctx, periodID)
	return oneShot(snap), nil
}

func (f *fakeStore) SubscribeOverrides(ctx context.Context, periodID string) (<-chan core.Overrides, error) {
	snap, _ := f.GetOverrides(ctx, periodID)
	return oneShot(snap), nil
}

func (f *fakeStore) SubscribeOneTimeIncome(ctx context.Context, periodID string, ordered bool) (<-chan []core.OneTimeIncomeItem, error) {
	if ordered && f.orderedErr {
		return nil, store.ErrIndexUnavailable
	}
	snap, _ := f.GetOneTimeIncomeByPeriod(ctx, periodID)
	return oneShot(snap), nil
}

// Test helpers

func newTestBoard(f *fakeStore) *Board {
	b := NewBoard(f, nil)
	b.now = func() core.Date { return core.NewDate(2025, 6, 10) }
	return b
}

func setCurrentPeriod(b *Board, p core.PayPeriod) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.st.periods = []core.PayPeriod{p}
	b.st.current = &b.st.periods[0]
}

func testPeriod(id string) core.PayPeriod {
	return core.PayPeriod{
		ID:                      id,
		StartDate:               core.NewDate(2025, 6, 6),
		EndDate:                 core.NewDate(2025, 6, 19),
		StartingCheckingBalance: 6483.35,
		PaycheckAmount:          5000,
		MortgageCarveout:        566.67,
		SavingsAmount:           1,
	}
}

func TestStartPayPeriodDerivesEndFromSources(t *testing.T) {
	f := newFakeStore()
	b := newTestBoard(f)
	ctx := context.Background()

	_, err := f.CreateIncomeSource(ctx, core.IncomeSource{
		Name:        "Eric",
		PayAmount:   3000,
		Cadence:     core.Biweekly,
		NextPayDate: core.NewDate(2025, 6, 6),
		IsActive:    true,
	})
	require.NoError(t, err)

	id, err := b.StartPayPeriod(ctx, StartPeriodInput{
		StartDate:      core.NewDate(2025, 6, 6),
		PaycheckAmount: 3000,
		PaycheckSource: "Eric",
	})
	require.NoError(t, err)

	p := f.periods[id]
	// A paycheck on the start date opens the period; the next one on
	// June 20 closes it the day before.
	assert.True(t, p.EndDate.Equal(core.NewDate(2025, 6, 19)),
		"end = %s", p.EndDate.Format(time.DateOnly))
	assert.InDelta(t, budget.DefaultMortgageCarveout, p.MortgageCarveout, 0.001)
}

func TestStartPayPeriodFallsBackToLegacyThenFixedWindow(t *testing.T) {
	ctx := context.Background()

	t.Run("legacy record drives the end date", func(t *testing.T) {
		f := newFakeStore()
		b := newTestBoard(f)
		require.NoError(t, f.SaveLegacyIncomeConfig(ctx, core.LegacyIncomeConfig{
			FirstName:         "Eric",
			FirstPayAmount:    3000,
			FirstNextPayDate:  core.NewDate(2025, 6, 20),
			SecondName:        "Jessica",
			SecondPayAmount:   3500,
			SecondNextPayDate: core.NewDate(2025, 7, 1),
		}))

		id, err := b.StartPayPeriod(ctx, StartPeriodInput{StartDate: core.NewDate(2025, 6, 6)})
		require.NoError(t, err)
		assert.True(t, f.periods[id].EndDate.Equal(core.NewDate(2025, 6, 19)))
	})

	t.Run("no income configuration means a 14-day window", func(t *testing.T) {
		f := newFakeStore()
		b := newTestBoard(f)

		id, err := b.StartPayPeriod(ctx, StartPeriodInput{StartDate: core.NewDate(2025, 6, 6)})
		require.NoError(t, err)
		assert.True(t, f.periods[id].EndDate.Equal(core.NewDate(2025, 6, 19)))
	})
}

func TestAddTransactionAdjustsSetOverride(t *testing.T) {
	f := newFakeStore()
	b := newTestBoard(f)
	ctx := context.Background()

	setCurrentPeriod(b, testPeriod("p1"))
	require.NoError(t, f.SetOverride(ctx, "p1", core.Amex, 500))
	b.mu.Lock()
	b.st.overrides = core.Overrides{core.Amex: 500}
	b.mu.Unlock()

	_, err := b.AddTransaction(ctx, 100, core.Amex)
	require.NoError(t, err)

	v, ok := f.overrides["p1"].Lookup(core.Amex)
	require.True(t, ok)
	assert.InDelta(t, 600.0, v, 0.001, "override should track the new spend")
}

func TestAddTransactionLeavesAbsentOverrideAbsent(t *testing.T) {
	f := newFakeStore()
	b := newTestBoard(f)
	ctx := context.Background()

	setCurrentPeriod(b, testPeriod("p1"))

	_, err := b.AddTransaction(ctx, 100, core.Amex)
	require.NoError(t, err)

	_, ok := f.overrides["p1"].Lookup(core.Amex)
	assert.False(t, ok)
}

func TestUpdateTransactionMovesOverrideAcrossAccounts(t *testing.T) {
	f := newFakeStore()
	b := newTestBoard(f)
	ctx := context.Background()

	setCurrentPeriod(b, testPeriod("p1"))

	id, err := f.CreateTransaction(ctx, core.Transaction{
		PayPeriodID:   "p1",
		Amount:        100,
		PaymentMethod: core.Amex,
	})
	require.NoError(t, err)
	require.NoError(t, f.SetOverride(ctx, "p1", core.Amex, 500))
	require.NoError(t, f.SetOverride(ctx, "p1", core.Savor, 200))

	txn := f.txns[id]
	b.mu.Lock()
	b.st.transactions = []core.Transaction{txn}
	b.st.overrides = core.Overrides{core.Amex: 500, core.Savor: 200}
	b.mu.Unlock()

	require.NoError(t, b.UpdateTransaction(ctx, id, 150, core.Savor))

	amex, _ := f.overrides["p1"].Lookup(core.Amex)
	savor, _ := f.overrides["p1"].Lookup(core.Savor)
	assert.InDelta(t, 400.0, amex, 0.001, "old account backs the amount out")
	assert.InDelta(t, 350.0, savor, 0.001, "new account absorbs the new amount")
}

func TestDeleteTransactionClampsOverrideAtZero(t *testing.T) {
	f := newFakeStore()
	b := newTestBoard(f)
	ctx := context.Background()

	setCurrentPeriod(b, testPeriod("p1"))

	id, err := f.CreateTransaction(ctx, core.Transaction{
		PayPeriodID:   "p1",
		Amount:        300,
		PaymentMethod: core.Checking,
	})
	require.NoError(t, err)
	require.NoError(t, f.SetOverride(ctx, "p1", core.Checking, 100))

	txn := f.txns[id]
	b.mu.Lock()
	b.st.transactions = []core.Transaction{txn}
	b.st.overrides = core.Overrides{core.Checking: 100}
	b.mu.Unlock()

	require.NoError(t, b.DeleteTransaction(ctx, id))

	v, ok := f.overrides["p1"].Lookup(core.Checking)
	require.True(t, ok, "override stays set, just clamped")
	assert.Zero(t, v)
}

func TestActionsRequireActivePeriod(t *testing.T) {
	f := newFakeStore()
	b := newTestBoard(f)
	ctx := context.Background()

	_, err := b.AddTransaction(ctx, 10, core.Amex)
	assert.ErrorIs(t, err, ErrNoActivePayPeriod)

	assert.ErrorIs(t, b.SetOverride(ctx, core.Amex, 10), ErrNoActivePayPeriod)
	assert.ErrorIs(t, b.ClearOverride(ctx, core.Amex), ErrNoActivePayPeriod)

	_, err = b.AddOneTimeIncome(ctx, 100, "bonus", core.NewDate(2025, 6, 10))
	assert.ErrorIs(t, err, ErrNoActivePayPeriod)
}

func TestSetOverrideRejectsNegativeTotal(t *testing.T) {
	f := newFakeStore()
	b := newTestBoard(f)

	setCurrentPeriod(b, testPeriod("p1"))

	err := b.SetOverride(context.Background(), core.Amex, -1)
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
}

func TestSaveLegacyIncomeConfig(t *testing.T) {
	f := newFakeStore()
	b := newTestBoard(f)

	err := b.SaveLegacyIncomeConfig(context.Background(), core.LegacyIncomeConfig{
		FirstName:        "Eric",
		FirstPayAmount:   -1,
		FirstNextPayDate: core.NewDate(2025, 6, 6),
	})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	err = b.SaveLegacyIncomeConfig(context.Background(), core.LegacyIncomeConfig{
		FirstName:        "Eric",
		FirstPayAmount:   2500,
		FirstNextPayDate: core.NewDate(2025, 6, 6),
		CheckingFloor:    4200,
	})
	require.NoError(t, err)

	saved, err := f.GetLegacyIncomeConfig(context.Background())
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.InDelta(t, 4200.0, saved.CheckingFloor, 0.001)
}

func TestDashboardComputesBothViews(t *testing.T) {
	f := newFakeStore()
	b := newTestBoard(f)

	setCurrentPeriod(b, testPeriod("p1"))
	b.mu.Lock()
	b.st.transactions = []core.Transaction{
		{ID: "t1", PayPeriodID: "p1", Amount: 3861.34, PaymentMethod: core.Amex},
		{ID: "t2", PayPeriodID: "p1", Amount: 277.54, PaymentMethod: core.ChaseAmazon},
		{ID: "t3", PayPeriodID: "p1", Amount: 1194.66, PaymentMethod: core.Savor},
	}
	b.mu.Unlock()

	vm := b.Dashboard()
	require.NotNil(t, vm.Period)

	assert.InDelta(t, 882.14, vm.Paycheck.RemainingBudget, 0.01)
	assert.InDelta(t, 5582.14, vm.Checking.ProjectedChecking, 0.01)
	assert.Equal(t, budget.TierLow, vm.Gauge.Status, "882.14 of 6783.35 is about 13%%")
	assert.Equal(t, 5, vm.Progress.CurrentDay)
	assert.Equal(t, 14, vm.Progress.TotalDays)
}

func TestDashboardCheckingFloorPrecedence(t *testing.T) {
	f := newFakeStore()
	b := newTestBoard(f)

	vm := b.Dashboard()
	assert.InDelta(t, budget.DefaultCheckingFloor, vm.CheckingFloor, 0.001)

	b.SetDefaultCheckingFloor(4500)
	assert.InDelta(t, 4500.0, b.Dashboard().CheckingFloor, 0.001)

	b.mu.Lock()
	b.st.legacy = &core.LegacyIncomeConfig{CheckingFloor: 4000}
	b.mu.Unlock()
	assert.InDelta(t, 4000.0, b.Dashboard().CheckingFloor, 0.001)

	b.mu.Lock()
	b.st.appConfig = &core.AppConfig{CheckingFloor: 5100}
	b.mu.Unlock()
	assert.InDelta(t, 5100.0, b.Dashboard().CheckingFloor, 0.001)

	// A saved settings record is authoritative even at zero; it does
	// not fall through to the legacy or default floor.
	b.mu.Lock()
	b.st.appConfig = &core.AppConfig{CheckingFloor: 0}
	b.mu.Unlock()
	assert.InDelta(t, 0.0, b.Dashboard().CheckingFloor, 0.001)
}

func TestDashboardOneTimeIncomePrefersPeriodSnapshot(t *testing.T) {
	f := newFakeStore()
	b := newTestBoard(f)

	p := testPeriod("p1")
	p.OneTimeIncome = 500
	setCurrentPeriod(b, p)
	b.mu.Lock()
	b.st.oneTimeItems = []core.OneTimeIncomeItem{
		{ID: "o1", PayPeriodID: "p1", Amount: 123, Description: "ignored"},
	}
	b.mu.Unlock()

	vm := b.Dashboard()
	assert.InDelta(t, 500.0, vm.Paycheck.OneTimeIncome, 0.001)

	// Without a snapshot amount the itemized records count.
	p.OneTimeIncome = 0
	setCurrentPeriod(b, p)
	b.mu.Lock()
	b.st.oneTimeItems = []core.OneTimeIncomeItem{
		{ID: "o1", PayPeriodID: "p1", Amount: 123, Description: "rebate"},
		{ID: "o2", PayPeriodID: "p1", Amount: 77, Description: "refund"},
	}
	b.mu.Unlock()

	vm = b.Dashboard()
	assert.InDelta(t, 200.0, vm.Paycheck.OneTimeIncome, 0.001)
}

func TestDashboardWithoutPeriodStillReportsSetupState(t *testing.T) {
	f := newFakeStore()
	b := newTestBoard(f)

	b.mu.Lock()
	b.st.sources = []core.IncomeSource{{
		ID:          "s1",
		Name:        "Eric",
		PayAmount:   3000,
		Cadence:     core.Weekly,
		NextPayDate: core.NewDate(2025, 6, 13),
		IsActive:    true,
	}}
	b.mu.Unlock()

	vm := b.Dashboard()
	assert.Nil(t, vm.Period)
	require.NotNil(t, vm.NextPaycheck)
	assert.True(t, vm.NextPaycheck.Date.Equal(core.NewDate(2025, 6, 13)))
	assert.Len(t, vm.Sources, 1)
}

func TestSetView(t *testing.T) {
	b := newTestBoard(newFakeStore())

	require.NoError(t, b.SetView(ViewChecking))
	assert.Equal(t, ViewChecking, b.Dashboard().View)

	assert.ErrorIs(t, b.SetView(View("savings")), ErrUnknownView)
	assert.Equal(t, ViewChecking, b.Dashboard().View, "invalid view leaves the selection alone")
}

func TestWatchPeriodFallsBackToClientSideSort(t *testing.T) {
	f := newFakeStore()
	f.orderedErr = true
	b := newTestBoard(f)
	ctx := context.Background()

	setCurrentPeriod(b, testPeriod("p1"))

	// Insert out of creation order so the fallback sort has work to do.
	old := core.Transaction{ID: "t-old", PayPeriodID: "p1", Amount: 1, PaymentMethod: core.Amex, CreatedAt: time.Now().Add(-time.Hour)}
	recent := core.Transaction{ID: "t-new", PayPeriodID: "p1", Amount: 2, PaymentMethod: core.Amex, CreatedAt: time.Now()}
	f.txns[old.ID] = old
	f.txns[recent.ID] = recent

	require.NoError(t, b.watchPeriod(ctx, "p1"))

	require.Eventually(t, func() bool {
		b.mu.RLock()
		defer b.mu.RUnlock()
		return len(b.st.transactions) == 2
	}, time.Second, 10*time.Millisecond)

	b.mu.RLock()
	defer b.mu.RUnlock()
	assert.Equal(t, "t-new", b.st.transactions[0].ID, "newest first after client-side sort")
}

func TestLegacyMigrationCreatesSourcesOnce(t *testing.T) {
	f := newFakeStore()
	b := newTestBoard(f)
	ctx := context.Background()

	require.NoError(t, f.SaveLegacyIncomeConfig(ctx, core.LegacyIncomeConfig{
		FirstName:         "Eric",
		FirstPayAmount:    3000,
		FirstNextPayDate:  core.NewDate(2025, 6, 20),
		SecondName:        "Jessica",
		SecondPayAmount:   3500,
		SecondNextPayDate: core.NewDate(2025, 6, 30),
		CheckingFloor:     4200,
	}))

	require.NoError(t, b.migrateLegacy(ctx))

	sources, err := f.GetIncomeSources(ctx)
	require.NoError(t, err)
	require.Len(t, sources, 2)

	cadences := map[core.Cadence]bool{}
	for _, s := range sources {
		cadences[s.Cadence] = true
		assert.True(t, s.IsActive)
	}
	assert.True(t, cadences[core.Biweekly])
	assert.True(t, cadences[core.Monthly])

	cfg, err := f.GetAppConfig(ctx)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.False(t, cfg.MigratedAt.IsZero())
	assert.InDelta(t, 4200.0, cfg.CheckingFloor, 0.001, "legacy floor carries over")

	// A second board instance sees the marker and does nothing.
	b2 := newTestBoard(f)
	require.NoError(t, b2.migrateLegacy(ctx))
	sources, err = f.GetIncomeSources(ctx)
	require.NoError(t, err)
	assert.Len(t, sources, 2)
}

func TestLegacyMigrationSkipsWhenSourcesExist(t *testing.T) {
	f := newFakeStore()
	b := newTestBoard(f)
	ctx := context.Background()

	_, err := f.CreateIncomeSource(ctx, core.IncomeSource{
		Name:        "Eric",
		PayAmount:   3000,
		Cadence:     core.Biweekly,
		NextPayDate: core.NewDate(2025, 6, 20),
		IsActive:    true,
	})
	require.NoError(t, err)
	require.NoError(t, f.SaveLegacyIncomeConfig(ctx, core.LegacyIncomeConfig{
		FirstName:        "Eric",
		FirstPayAmount:   3000,
		FirstNextPayDate: core.NewDate(2025, 6, 20),
	}))

	require.NoError(t, b.migrateLegacy(ctx))

	sources, err := f.GetIncomeSources(ctx)
	require.NoError(t, err)
	assert.Len(t, sources, 1, "existing sources are never duplicated")

	cfg, err := f.GetAppConfig(ctx)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.False(t, cfg.MigratedAt.IsZero())
}

func TestLegacyMigrationNoopWithoutLegacyRecord(t *testing.T) {
	f := newFakeStore()
	b := newTestBoard(f)

	require.NoError(t, b.migrateLegacy(context.Background()))

	cfg, err := f.GetAppConfig(context.Background())
	require.NoError(t, err)
	assert.Nil(t, cfg, "nothing to migrate leaves no marker")
}
