package board

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"familybudget/internal/budget"
	"familybudget/internal/core"
)

// migrateLegacy runs the one-shot conversion of the legacy two-person
// income record into income-source documents. It runs at most once per
// process and records completion in the app config, so restarts and
// concurrent instances observing the marker skip it.
func (b *Board) migrateLegacy(ctx context.Context) error {
	var err error
	b.migrateOnce.Do(func() { err = b.runLegacyMigration(ctx) })
	return err
}

func (b *Board) runLegacyMigration(ctx context.Context) error {
	cfg, err := b.store.GetAppConfig(ctx)
	if err != nil {
		return err
	}
	if cfg != nil && !cfg.MigratedAt.IsZero() {
		return nil
	}

	sources, err := b.store.GetIncomeSources(ctx)
	if err != nil {
		return err
	}
	if len(sources) > 0 {
		// Sources already exist; just record that migration is settled.
		return b.markMigrated(ctx, cfg, 0)
	}

	legacy, err := b.store.GetLegacyIncomeConfig(ctx)
	if err != nil {
		return err
	}
	if legacy == nil {
		return nil
	}

	migrated := 0
	for _, src := range []core.IncomeSource{
		{
			Name:        legacy.FirstName,
			PayAmount:   legacy.FirstPayAmount,
			Cadence:     core.Biweekly,
			NextPayDate: legacy.FirstNextPayDate,
			IsActive:    true,
		},
		{
			Name:        legacy.SecondName,
			PayAmount:   legacy.SecondPayAmount,
			Cadence:     core.Monthly,
			NextPayDate: legacy.SecondNextPayDate,
			IsActive:    true,
		},
	} {
		if err := src.Validate(); err != nil {
			slog.WarnContext(ctx, "Skipping unusable legacy earner",
				"name", src.Name,
				"error", err)
			continue
		}
		if _, err := b.store.CreateIncomeSource(ctx, src); err != nil {
			return fmt.Errorf("migrate legacy earner %s: %w", src.Name, err)
		}
		migrated++
	}

	slog.InfoContext(ctx, "Legacy income config migrated to income sources",
		"migrated", migrated)

	return b.markMigrated(ctx, cfg, legacy.CheckingFloor)
}

func (b *Board) markMigrated(ctx context.Context, cfg *core.AppConfig, legacyFloor float64) error {
	next := core.AppConfig{MigratedAt: time.Now().UTC()}
	switch {
	case cfg != nil:
		next.CheckingFloor = cfg.CheckingFloor
	case legacyFloor > 0:
		next.CheckingFloor = legacyFloor
	default:
		next.CheckingFloor = budget.DefaultCheckingFloor
	}
	return b.store.SaveAppConfig(ctx, next)
}
