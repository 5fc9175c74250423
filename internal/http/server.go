// Package http exposes the budget board as a JSON API.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"log/slog"

	"familybudget/internal/board"
	"familybudget/internal/core"
	"familybudget/internal/store"
)

// BudgetBoard is the slice of the board the handlers need.
type BudgetBoard interface {
	Dashboard() board.ViewModel
	SetView(v board.View) error
	StartPayPeriod(ctx context.Context, in board.StartPeriodInput) (string, error)
	UpdatePayPeriod(ctx context.Context, id string, upd store.PayPeriodUpdate) error
	AddTransaction(ctx context.Context, amount float64, method core.PaymentMethod) (string, error)
	UpdateTransaction(ctx context.Context, id string, amount float64, method core.PaymentMethod) error
	DeleteTransaction(ctx context.Context, id string) error
	SetOverride(ctx context.Context, method core.PaymentMethod, total float64) error
	ClearOverride(ctx context.Context, method core.PaymentMethod) error
	AddIncomeSource(ctx context.Context, src core.IncomeSource) (string, error)
	UpdateIncomeSource(ctx context.Context, id string, upd store.IncomeSourceUpdate) error
	DeleteIncomeSource(ctx context.Context, id string) error
	AddOneTimeIncome(ctx context.Context, amount float64, description string, date core.Date) (string, error)
	DeleteOneTimeIncome(ctx context.Context, id string) error
	UpdateAppConfig(ctx context.Context, checkingFloor float64) error
	SaveLegacyIncomeConfig(ctx context.Context, cfg core.LegacyIncomeConfig) error
}

// TokenVerifier resolves a bearer token to an allowed account. A nil
// verifier disables authentication (local development).
type TokenVerifier interface {
	Verify(ctx context.Context, accessToken string) (string, error)
}

type Server struct {
	http.Server
	board       BudgetBoard
	verifier    TokenVerifier
	rateLimiter *rateLimiter

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, b BudgetBoard, verifier TokenVerifier) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		board:       b,
		verifier:    verifier,
		rateLimiter: newRateLimiter(),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	api := func(h http.HandlerFunc) http.HandlerFunc {
		return s.withSecurityHeaders(s.withAuth(h))
	}

	mux.HandleFunc("GET /api/dashboard", api(s.handleDashboard))
	mux.HandleFunc("POST /api/view", api(s.handleSetView))

	mux.HandleFunc("POST /api/periods", api(s.handleStartPeriod))
	mux.HandleFunc("PATCH /api/periods/{id}", api(s.handleUpdatePeriod))

	mux.HandleFunc("POST /api/transactions", api(s.handleAddTransaction))
	mux.HandleFunc("PATCH /api/transactions/{id}", api(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", api(s.handleDeleteTransaction))

	mux.HandleFunc("PUT /api/overrides/{method}", api(s.handleSetOverride))
	mux.HandleFunc("DELETE /api/overrides/{method}", api(s.handleClearOverride))

	mux.HandleFunc("GET /api/income-sources", api(s.handleListIncomeSources))
	mux.HandleFunc("POST /api/income-sources", api(s.handleAddIncomeSource))
	mux.HandleFunc("PATCH /api/income-sources/{id}", api(s.handleUpdateIncomeSource))
	mux.HandleFunc("DELETE /api/income-sources/{id}", api(s.handleDeleteIncomeSource))

	mux.HandleFunc("POST /api/one-time-income", api(s.handleAddOneTimeIncome))
	mux.HandleFunc("DELETE /api/one-time-income/{id}", api(s.handleDeleteOneTimeIncome))

	mux.HandleFunc("GET /api/config", api(s.handleGetConfig))
	mux.HandleFunc("PUT /api/config", api(s.handleUpdateConfig))
	mux.HandleFunc("PUT /api/legacy-config", api(s.handleSaveLegacyConfig))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting, and request
// logging to responses.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		// Rate-limit mutations only; dashboard reads are cheap.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP,
				"method", r.Method,
				"url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

// withAuth requires a Google bearer token resolving to an allow-listed
// account. With no verifier configured all requests pass.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.verifier == nil {
			next(w, r)
			return
		}

		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" || token == r.Header.Get("Authorization") {
			writeError(w, r, http.StatusUnauthorized, "missing bearer token")
			return
		}

		email, err := s.verifier.Verify(r.Context(), token)
		if err != nil {
			s.writeBoardError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), accountEmailKey{}, email)
		next(w, r.WithContext(ctx))
	}
}

type (
	requestIDKey    struct{}
	accountEmailKey struct{}
)

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
