// Package auth verifies Google sign-ins against a fixed allow-list.
// The service is for one household, so there is no user table; either
// your Google account is on the list or you are turned away.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

var ErrAccessDenied = errors.New("access denied")

// EmailFetcher resolves an OAuth access token to the e-mail address of
// the account that issued it.
type EmailFetcher interface {
	FetchEmail(ctx context.Context, accessToken string) (string, error)
}

type Verifier struct {
	fetcher EmailFetcher
	allowed map[string]struct{}
}

// NewVerifier builds a verifier for the given allow-list. Comparison is
// case-insensitive.
func NewVerifier(fetcher EmailFetcher, allowedEmails []string) *Verifier {
	allowed := make(map[string]struct{}, len(allowedEmails))
	for _, e := range allowedEmails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			allowed[e] = struct{}{}
		}
	}
	return &Verifier{fetcher: fetcher, allowed: allowed}
}

// Allowed reports whether an e-mail address is on the allow-list.
func (v *Verifier) Allowed(email string) bool {
	_, ok := v.allowed[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

// Verify resolves the token to an account and checks the allow-list.
// It returns the account e-mail on success and ErrAccessDenied for a
// valid account that is not on the list.
func (v *Verifier) Verify(ctx context.Context, accessToken string) (string, error) {
	email, err := v.fetcher.FetchEmail(ctx, accessToken)
	if err != nil {
		return "", fmt.Errorf("fetch account email: %w", err)
	}

	if !v.Allowed(email) {
		slog.WarnContext(ctx, "Sign-in rejected, account not on allow-list", "email", email)
		return "", ErrAccessDenied
	}

	return email, nil
}
