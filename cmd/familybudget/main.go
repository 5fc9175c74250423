package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"familybudget/internal/auth"
	"familybudget/internal/board"
	"familybudget/internal/config"
	apphttp "familybudget/internal/http"
	"familybudget/internal/log"
	"familybudget/internal/notify"
	"familybudget/internal/store"
)

func main() {
	// Load .env for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.Setup(log.ParseLevel(os.Getenv("LOG_LEVEL")), log.ComponentApp)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	st, err := store.NewSQLiteStore(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize store", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer st.Close()

	// AMQP fan-out is optional; without a broker the board simply skips
	// publishing.
	var publisher board.ChangePublisher
	if cfg.AMQPURL != "" {
		client, err := notify.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		publisher = client
		logger.Info("AMQP change publishing enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	b := board.NewBoard(st, publisher)
	b.SetDefaultCheckingFloor(cfg.CheckingFloor)
	if err := b.SetView(board.View(cfg.DefaultView)); err != nil {
		logger.Error("Invalid default view", "error", err, "view", cfg.DefaultView)
		os.Exit(1)
	}

	var verifier apphttp.TokenVerifier
	if len(cfg.AllowedEmails) > 0 {
		verifier = auth.NewVerifier(auth.NewGoogleFetcher(), cfg.AllowedEmails)
		logger.Info("Google sign-in enabled", "allowed_accounts", len(cfg.AllowedEmails))
	} else {
		logger.Warn("Authentication disabled - no ALLOWED_EMAILS provided")
	}

	srv := apphttp.NewServer(":"+cfg.Port, b, verifier)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return b.Run(ctx)
	})

	g.Go(func() error {
		logger.Info("Starting familybudget server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}

	logger.Info("Server stopped gracefully")
}
