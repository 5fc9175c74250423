package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"familybudget/internal/core"

	_ "modernc.org/sqlite"
)

// Topics for change notification. Period-scoped collections append
// "/<periodID>".
const (
	topicPayPeriods    = "pay_periods"
	topicIncomeSources = "income_sources"
	topicAppConfig     = "app_config"
	topicLegacyConfig  = "legacy_income_config"
	topicTransactions  = "transactions"
	topicOverrides     = "account_overrides"
	topicOneTimeIncome = "one_time_income"
)

type SQLiteStore struct {
	db  *sql.DB
	hub *changeHub
}

var _ Store = (*SQLiteStore)(nil)

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &SQLiteStore{db: db, hub: newChangeHub()}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func periodTopic(base, periodID string) string {
	return base + "/" + periodID
}

func dateToUnix(d core.Date) int64 { return d.Time.Unix() }

func unixToDate(v int64) core.Date { return core.DateOf(time.Unix(v, 0).UTC()) }

// Pay periods

func (s *SQLiteStore) CreatePayPeriod(ctx context.Context, p core.PayPeriod) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}

	id := uuid.NewString()
	createdAt := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pay_periods (id, start_date, end_date, starting_checking_balance,
			paycheck_amount, paycheck_source, mortgage_carveout, savings_amount,
			one_time_income, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, dateToUnix(p.StartDate), dateToUnix(p.EndDate), p.StartingCheckingBalance,
		p.PaycheckAmount, p.PaycheckSource, p.MortgageCarveout, p.SavingsAmount,
		p.OneTimeIncome, createdAt.Unix())
	if err != nil {
		return "", fmt.Errorf("create pay period: %w", err)
	}

	slog.InfoContext(ctx, "Pay period created",
		"id", id,
		"start_date", p.StartDate.Format(time.DateOnly),
		"end_date", p.EndDate.Format(time.DateOnly))

	s.hub.notify(topicPayPeriods)
	return id, nil
}

func (s *SQLiteStore) UpdatePayPeriod(ctx context.Context, id string, upd PayPeriodUpdate) error {
	var sets []string
	var args []any
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if upd.StartDate != nil {
		add("start_date", dateToUnix(*upd.StartDate))
	}
	if upd.EndDate != nil {
		add("end_date", dateToUnix(*upd.EndDate))
	}
	if upd.StartingCheckingBalance != nil {
		add("starting_checking_balance", *upd.StartingCheckingBalance)
	}
	if upd.PaycheckAmount != nil {
		add("paycheck_amount", *upd.PaycheckAmount)
	}
	if upd.PaycheckSource != nil {
		add("paycheck_source", *upd.PaycheckSource)
	}
	if upd.MortgageCarveout != nil {
		add("mortgage_carveout", *upd.MortgageCarveout)
	}
	if upd.SavingsAmount != nil {
		add("savings_amount", *upd.SavingsAmount)
	}
	if upd.OneTimeIncome != nil {
		add("one_time_income", *upd.OneTimeIncome)
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	res, err := s.db.ExecContext(ctx,
		"UPDATE pay_periods SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("update pay period: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update pay period %s: %w", id, ErrNotFound)
	}

	s.hub.notify(topicPayPeriods)
	return nil
}

func (s *SQLiteStore) GetPayPeriods(ctx context.Context) ([]core.PayPeriod, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, start_date, end_date, starting_checking_balance, paycheck_amount,
			paycheck_source, mortgage_carveout, savings_amount, one_time_income, created_at
		FROM pay_periods
		ORDER BY start_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("get pay periods: %w", err)
	}
	defer rows.Close()

	var periods []core.PayPeriod
	for rows.Next() {
		var p core.PayPeriod
		var start, end, created int64
		if err := rows.Scan(&p.ID, &start, &end, &p.StartingCheckingBalance,
			&p.PaycheckAmount, &p.PaycheckSource, &p.MortgageCarveout,
			&p.SavingsAmount, &p.OneTimeIncome, &created); err != nil {
			return nil, fmt.Errorf("scan pay period: %w", err)
		}
		p.StartDate = unixToDate(start)
		p.EndDate = unixToDate(end)
		p.CreatedAt = time.Unix(created, 0).UTC()
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

// Transactions

func (s *SQLiteStore) CreateTransaction(ctx context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}

	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (id, pay_period_id, amount, payment_method, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		id, t.PayPeriodID, t.Amount, string(t.PaymentMethod), time.Now().UTC().Unix())
	if err != nil {
		return "", fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"pay_period_id", t.PayPeriodID,
		"payment_method", string(t.PaymentMethod),
		"amount", t.Amount)

	s.hub.notify(periodTopic(topicTransactions, t.PayPeriodID))
	return id, nil
}

func (s *SQLiteStore) transactionPeriod(ctx context.Context, id string) (string, error) {
	var periodID string
	err := s.db.QueryRowContext(ctx,
		"SELECT pay_period_id FROM transactions WHERE id = ?", id).Scan(&periodID)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("look up transaction period: %w", err)
	}
	return periodID, nil
}

func (s *SQLiteStore) UpdateTransaction(ctx context.Context, id string, upd TransactionUpdate) error {
	periodID, err := s.transactionPeriod(ctx, id)
	if err != nil {
		return err
	}

	var sets []string
	var args []any
	if upd.Amount != nil {
		if *upd.Amount <= 0 {
			return core.ErrInvalidAmount
		}
		sets = append(sets, "amount = ?")
		args = append(args, *upd.Amount)
	}
	if upd.PaymentMethod != nil {
		if err := upd.PaymentMethod.Validate(); err != nil {
			return err
		}
		sets = append(sets, "payment_method = ?")
		args = append(args, string(*upd.PaymentMethod))
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	if _, err := s.db.ExecContext(ctx,
		"UPDATE transactions SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}

	s.hub.notify(periodTopic(topicTransactions, periodID))
	return nil
}

func (s *SQLiteStore) DeleteTransaction(ctx context.Context, id string) error {
	periodID, err := s.transactionPeriod(ctx, id)
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.hub.notify(periodTopic(topicTransactions, periodID))
	return nil
}

func (s *SQLiteStore) GetTransactionsByPeriod(ctx context.Context, periodID string) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, pay_period_id, amount, payment_method, created_at
		FROM transactions
		WHERE pay_period_id = ?
		ORDER BY created_at DESC`, periodID)
	if err != nil {
		return nil, fmt.Errorf("get transactions: %w", err)
	}
	defer rows.Close()

	var txns []core.Transaction
	for rows.Next() {
		var t core.Transaction
		var method string
		var created int64
		if err := rows.Scan(&t.ID, &t.PayPeriodID, &t.Amount, &method, &created); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.PaymentMethod = core.PaymentMethod(method)
		t.CreatedAt = time.Unix(created, 0).UTC()
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// Account overrides

func (s *SQLiteStore) SetOverride(ctx context.Context, periodID string, method core.PaymentMethod, total float64) error {
	if err := method.Validate(); err != nil {
		return err
	}
	if total < 0 {
		return core.ErrInvalidAmount
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO account_overrides (pay_period_id, payment_method, override_total, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (pay_period_id, payment_method)
		DO UPDATE SET override_total = excluded.override_total, updated_at = excluded.updated_at`,
		periodID, string(method), total, time.Now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("set override: %w", err)
	}

	s.hub.notify(periodTopic(topicOverrides, periodID))
	return nil
}

func (s *SQLiteStore) ClearOverride(ctx context.Context, periodID string, method core.PaymentMethod) error {
	if err := method.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		"DELETE FROM account_overrides WHERE pay_period_id = ? AND payment_method = ?",
		periodID, string(method))
	if err != nil {
		return fmt.Errorf("clear override: %w", err)
	}

	s.hub.notify(periodTopic(topicOverrides, periodID))
	return nil
}

func (s *SQLiteStore) GetOverrides(ctx context.Context, periodID string) (core.Overrides, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT payment_method, override_total FROM account_overrides WHERE pay_period_id = ?",
		periodID)
	if err != nil {
		return nil, fmt.Errorf("get overrides: %w", err)
	}
	defer rows.Close()

	overrides := make(core.Overrides)
	for rows.Next() {
		var method string
		var total float64
		if err := rows.Scan(&method, &total); err != nil {
			return nil, fmt.Errorf("scan override: %w", err)
		}
		overrides[core.PaymentMethod(method)] = total
	}
	return overrides, rows.Err()
}

// Income sources

func (s *SQLiteStore) CreateIncomeSource(ctx context.Context, src core.IncomeSource) (string, error) {
	if err := src.Validate(); err != nil {
		return "", err
	}

	id := uuid.NewString()
	now := time.Now().UTC().Unix()

	var nextPay sql.NullInt64
	if !src.NextPayDate.IsZero() {
		nextPay = sql.NullInt64{Int64: dateToUnix(src.NextPayDate), Valid: true}
	}
	var day1, day2 sql.NullInt64
	if src.SemimonthlyDays != nil {
		day1 = sql.NullInt64{Int64: int64(src.SemimonthlyDays[0]), Valid: true}
		day2 = sql.NullInt64{Int64: int64(src.SemimonthlyDays[1]), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO income_sources (id, name, pay_amount, cadence, next_pay_date,
			semimonthly_day1, semimonthly_day2, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, src.Name, src.PayAmount, string(src.Cadence), nextPay, day1, day2,
		src.IsActive, now, now)
	if err != nil {
		return "", fmt.Errorf("create income source: %w", err)
	}

	slog.InfoContext(ctx, "Income source created",
		"id", id,
		"name", src.Name,
		"cadence", string(src.Cadence))

	s.hub.notify(topicIncomeSources)
	return id, nil
}

func (s *SQLiteStore) UpdateIncomeSource(ctx context.Context, id string, upd IncomeSourceUpdate) error {
	var sets []string
	var args []any
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if upd.Name != nil {
		if strings.TrimSpace(*upd.Name) == "" {
			return core.ErrEmptyName
		}
		add("name", *upd.Name)
	}
	if upd.PayAmount != nil {
		if *upd.PayAmount <= 0 {
			return core.ErrInvalidAmount
		}
		add("pay_amount", *upd.PayAmount)
	}
	if upd.Cadence != nil {
		if err := upd.Cadence.Validate(); err != nil {
			return err
		}
		add("cadence", string(*upd.Cadence))
		if *upd.Cadence != core.Semimonthly && upd.SemimonthlyDays == nil {
			add("semimonthly_day1", nil)
			add("semimonthly_day2", nil)
		}
	}
	if upd.NextPayDate != nil {
		add("next_pay_date", dateToUnix(*upd.NextPayDate))
	}
	if upd.SemimonthlyDays != nil {
		add("semimonthly_day1", int64(upd.SemimonthlyDays[0]))
		add("semimonthly_day2", int64(upd.SemimonthlyDays[1]))
	}
	if upd.IsActive != nil {
		add("is_active", *upd.IsActive)
	}
	if len(sets) == 0 {
		return nil
	}
	add("updated_at", time.Now().UTC().Unix())

	args = append(args, id)
	res, err := s.db.ExecContext(ctx,
		"UPDATE income_sources SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("update income source: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update income source %s: %w", id, ErrNotFound)
	}

	s.hub.notify(topicIncomeSources)
	return nil
}

func (s *SQLiteStore) DeleteIncomeSource(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM income_sources WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete income source: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete income source %s: %w", id, ErrNotFound)
	}

	s.hub.notify(topicIncomeSources)
	return nil
}

func (s *SQLiteStore) GetIncomeSources(ctx context.Context) ([]core.IncomeSource, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, pay_amount, cadence, next_pay_date,
			semimonthly_day1, semimonthly_day2, is_active, created_at, updated_at
		FROM income_sources
		ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("get income sources: %w", err)
	}
	defer rows.Close()

	var sources []core.IncomeSource
	for rows.Next() {
		var src core.IncomeSource
		var cadence string
		var nextPay, day1, day2 sql.NullInt64
		var created, updated int64
		if err := rows.Scan(&src.ID, &src.Name, &src.PayAmount, &cadence, &nextPay,
			&day1, &day2, &src.IsActive, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan income source: %w", err)
		}
		src.Cadence = core.Cadence(cadence)
		if nextPay.Valid {
			src.NextPayDate = unixToDate(nextPay.Int64)
		}
		if day1.Valid && day2.Valid {
			src.SemimonthlyDays = &[2]int{int(day1.Int64), int(day2.Int64)}
		}
		src.CreatedAt = time.Unix(created, 0).UTC()
		src.UpdatedAt = time.Unix(updated, 0).UTC()
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// One-time income

func (s *SQLiteStore) CreateOneTimeIncome(ctx context.Context, item core.OneTimeIncomeItem) (string, error) {
	if err := item.Validate(); err != nil {
		return "", err
	}

	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO one_time_income (id, pay_period_id, amount, description, received_on, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, item.PayPeriodID, item.Amount, item.Description,
		dateToUnix(item.Date), time.Now().UTC().Unix())
	if err != nil {
		return "", fmt.Errorf("create one-time income: %w", err)
	}

	s.hub.notify(periodTopic(topicOneTimeIncome, item.PayPeriodID))
	return id, nil
}

func (s *SQLiteStore) DeleteOneTimeIncome(ctx context.Context, id string) error {
	var periodID string
	err := s.db.QueryRowContext(ctx,
		"SELECT pay_period_id FROM one_time_income WHERE id = ?", id).Scan(&periodID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("one-time income %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("look up one-time income: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM one_time_income WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete one-time income: %w", err)
	}

	s.hub.notify(periodTopic(topicOneTimeIncome, periodID))
	return nil
}

func (s *SQLiteStore) GetOneTimeIncomeByPeriod(ctx context.Context, periodID string) ([]core.OneTimeIncomeItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, pay_period_id, amount, description, received_on, created_at
		FROM one_time_income
		WHERE pay_period_id = ?
		ORDER BY created_at DESC`, periodID)
	if err != nil {
		return nil, fmt.Errorf("get one-time income: %w", err)
	}
	defer rows.Close()

	var items []core.OneTimeIncomeItem
	for rows.Next() {
		var item core.OneTimeIncomeItem
		var receivedOn, created int64
		if err := rows.Scan(&item.ID, &item.PayPeriodID, &item.Amount,
			&item.Description, &receivedOn, &created); err != nil {
			return nil, fmt.Errorf("scan one-time income: %w", err)
		}
		item.Date = unixToDate(receivedOn)
		item.CreatedAt = time.Unix(created, 0).UTC()
		items = append(items, item)
	}
	return items, rows.Err()
}

// Singleton config records

func (s *SQLiteStore) SaveAppConfig(ctx context.Context, cfg core.AppConfig) error {
	var migratedAt sql.NullInt64
	if !cfg.MigratedAt.IsZero() {
		migratedAt = sql.NullInt64{Int64: cfg.MigratedAt.Unix(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_config (id, checking_floor, migrated_at, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT (id)
		DO UPDATE SET checking_floor = excluded.checking_floor,
			migrated_at = excluded.migrated_at,
			updated_at = excluded.updated_at`,
		cfg.CheckingFloor, migratedAt, time.Now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("save app config: %w", err)
	}

	s.hub.notify(topicAppConfig)
	return nil
}

func (s *SQLiteStore) GetAppConfig(ctx context.Context) (*core.AppConfig, error) {
	var cfg core.AppConfig
	var migratedAt sql.NullInt64
	var updated int64
	err := s.db.QueryRowContext(ctx,
		"SELECT checking_floor, migrated_at, updated_at FROM app_config WHERE id = 1").
		Scan(&cfg.CheckingFloor, &migratedAt, &updated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get app config: %w", err)
	}
	if migratedAt.Valid {
		cfg.MigratedAt = time.Unix(migratedAt.Int64, 0).UTC()
	}
	cfg.UpdatedAt = time.Unix(updated, 0).UTC()
	return &cfg, nil
}

func (s *SQLiteStore) SaveLegacyIncomeConfig(ctx context.Context, cfg core.LegacyIncomeConfig) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO legacy_income_config (id, first_name, first_pay_amount, first_next_pay_date,
			second_name, second_pay_amount, second_next_pay_date, checking_floor, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id)
		DO UPDATE SET first_name = excluded.first_name,
			first_pay_amount = excluded.first_pay_amount,
			first_next_pay_date = excluded.first_next_pay_date,
			second_name = excluded.second_name,
			second_pay_amount = excluded.second_pay_amount,
			second_next_pay_date = excluded.second_next_pay_date,
			checking_floor = excluded.checking_floor,
			updated_at = excluded.updated_at`,
		cfg.FirstName, cfg.FirstPayAmount, dateToUnix(cfg.FirstNextPayDate),
		cfg.SecondName, cfg.SecondPayAmount, dateToUnix(cfg.SecondNextPayDate),
		cfg.CheckingFloor, time.Now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("save legacy income config: %w", err)
	}

	s.hub.notify(topicLegacyConfig)
	return nil
}

func (s *SQLiteStore) GetLegacyIncomeConfig(ctx context.Context) (*core.LegacyIncomeConfig, error) {
	var cfg core.LegacyIncomeConfig
	var first, second, updated int64
	err := s.db.QueryRowContext(ctx, `
		SELECT first_name, first_pay_amount, first_next_pay_date,
			second_name, second_pay_amount, second_next_pay_date, checking_floor, updated_at
		FROM legacy_income_config WHERE id = 1`).
		Scan(&cfg.FirstName, &cfg.FirstPayAmount, &first,
			&cfg.SecondName, &cfg.SecondPayAmount, &second, &cfg.CheckingFloor, &updated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get legacy income config: %w", err)
	}
	cfg.FirstNextPayDate = unixToDate(first)
	cfg.SecondNextPayDate = unixToDate(second)
	cfg.UpdatedAt = time.Unix(updated, 0).UTC()
	return &cfg, nil
}

// Subscriptions

// subscribeFeed wires a hub topic to a snapshot query: it delivers the
// current snapshot immediately, then re-queries and delivers again on
// every change signal until ctx is canceled.
func subscribeFeed[T any](ctx context.Context, s *SQLiteStore, topic string, fetch func(context.Context) (T, error)) (<-chan T, error) {
	signal, cancel := s.hub.subscribe(topic)

	initial, err := fetch(ctx)
	if err != nil {
		cancel()
		return nil, err
	}

	out := make(chan T, 1)
	go func() {
		defer cancel()
		defer close(out)

		select {
		case out <- initial:
		case <-ctx.Done():
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-signal:
				snap, err := fetch(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					slog.ErrorContext(ctx, "Subscription re-query failed",
						"topic", topic,
						"error", err)
					continue
				}
				select {
				case out <- snap:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (s *SQLiteStore) SubscribePayPeriods(ctx context.Context) (<-chan []core.PayPeriod, error) {
	return subscribeFeed(ctx, s, topicPayPeriods, s.GetPayPeriods)
}

func (s *SQLiteStore) SubscribeIncomeSources(ctx context.Context) (<-chan []core.IncomeSource, error) {
	return subscribeFeed(ctx, s, topicIncomeSources, s.GetIncomeSources)
}

func (s *SQLiteStore) SubscribeAppConfig(ctx context.Context) (<-chan *core.AppConfig, error) {
	return subscribeFeed(ctx, s, topicAppConfig, s.GetAppConfig)
}

func (s *SQLiteStore) SubscribeLegacyIncomeConfig(ctx context.Context) (<-chan *core.LegacyIncomeConfig, error) {
	return subscribeFeed(ctx, s, topicLegacyConfig, s.GetLegacyIncomeConfig)
}

// hasIndex reports whether a named index exists. Ordered subscriptions
// refuse to run without their supporting index so callers hit the
// documented fallback path instead of an unindexed scan.
func (s *SQLiteStore) hasIndex(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = ?", name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check index %s: %w", name, err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) SubscribeTransactions(ctx context.Context, periodID string, ordered bool) (<-chan []core.Transaction, error) {
	if ordered {
		ok, err := s.hasIndex(ctx, "idx_transactions_period_created")
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("transactions ordered by created_at: %w", ErrIndexUnavailable)
		}
		return subscribeFeed(ctx, s, periodTopic(topicTransactions, periodID),
			func(ctx context.Context) ([]core.Transaction, error) {
				return s.GetTransactionsByPeriod(ctx, periodID)
			})
	}

	return subscribeFeed(ctx, s, periodTopic(topicTransactions, periodID),
		func(ctx context.Context) ([]core.Transaction, error) {
			return s.getTransactionsUnordered(ctx, periodID)
		})
}

// getTransactionsUnordered is the fallback query used when the ordering
// index is missing. Row order is whatever the engine returns; callers
// sort client-side.
func (s *SQLiteStore) getTransactionsUnordered(ctx context.Context, periodID string) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, pay_period_id, amount, payment_method, created_at
		FROM transactions
		WHERE pay_period_id = ?`, periodID)
	if err != nil {
		return nil, fmt.Errorf("get transactions unordered: %w", err)
	}
	defer rows.Close()

	var txns []core.Transaction
	for rows.Next() {
		var t core.Transaction
		var method string
		var created int64
		if err := rows.Scan(&t.ID, &t.PayPeriodID, &t.Amount, &method, &created); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.PaymentMethod = core.PaymentMethod(method)
		t.CreatedAt = time.Unix(created, 0).UTC()
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

func (s *SQLiteStore) SubscribeOverrides(ctx context.Context, periodID string) (<-chan core.Overrides, error) {
	return subscribeFeed(ctx, s, periodTopic(topicOverrides, periodID),
		func(ctx context.Context) (core.Overrides, error) {
			return s.GetOverrides(ctx, periodID)
		})
}

func (s *SQLiteStore) SubscribeOneTimeIncome(ctx context.Context, periodID string, ordered bool) (<-chan []core.OneTimeIncomeItem, error) {
	if ordered {
		ok, err := s.hasIndex(ctx, "idx_one_time_income_period_created")
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("one-time income ordered by created_at: %w", ErrIndexUnavailable)
		}
	}

	return subscribeFeed(ctx, s, periodTopic(topicOneTimeIncome, periodID),
		func(ctx context.Context) ([]core.OneTimeIncomeItem, error) {
			return s.GetOneTimeIncomeByPeriod(ctx, periodID)
		})
}
