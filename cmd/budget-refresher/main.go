package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"familybudget/internal/config"
	"familybudget/internal/log"
	"familybudget/internal/notify"
	"familybudget/internal/refresher"
	"familybudget/internal/store"
)

func main() {
	// Load .env for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.Setup(log.ParseLevel(os.Getenv("LOG_LEVEL")), log.ComponentRefresher)

	logger.Info("Starting budget-refresher")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the refresher")
		os.Exit(1)
	}

	st, err := store.NewSQLiteStore(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize store", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer st.Close()

	client, err := notify.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ref := refresher.NewRefresher(st)

	// Catch up on whatever changed while the refresher was down.
	logger.Info("Performing startup refresh")
	if err := ref.Refresh(ctx); err != nil {
		logger.Error("Startup refresh failed", "error", err)
		// Keep going; the next message retriggers it.
	}

	done := make(chan error, 1)
	go func() {
		done <- client.ConsumeWithReconnect(ctx, func(msg *notify.ChangeMessage) error {
			return ref.HandleChange(ctx, msg)
		})
	}()

	// Periodic refresh covers deliveries lost while disconnected.
	ticker := time.NewTicker(15 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := ref.Refresh(ctx); err != nil {
				logger.Error("Periodic refresh failed", "error", err)
			}
		case err := <-done:
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", "error", err)
				os.Exit(1)
			}
			logger.Info("Refresher stopped gracefully")
			return
		}
	}
}
