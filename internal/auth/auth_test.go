package auth

import (
	"context"
	"errors"
	"testing"
)

type stubFetcher struct {
	email string
	err   error
}

func (s *stubFetcher) FetchEmail(ctx context.Context, accessToken string) (string, error) {
	return s.email, s.err
}

func TestVerifyAllowsListedAccount(t *testing.T) {
	v := NewVerifier(&stubFetcher{email: "eric@example.com"},
		[]string{"eric@example.com", "jessica@example.com"})

	email, err := v.Verify(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if email != "eric@example.com" {
		t.Errorf("Verify() email = %q, want eric@example.com", email)
	}
}

func TestVerifyIsCaseInsensitive(t *testing.T) {
	v := NewVerifier(&stubFetcher{email: "Eric@Example.COM"},
		[]string{"eric@example.com"})

	if _, err := v.Verify(context.Background(), "tok"); err != nil {
		t.Errorf("Verify() error = %v, want nil", err)
	}
}

func TestVerifyRejectsUnlistedAccount(t *testing.T) {
	v := NewVerifier(&stubFetcher{email: "stranger@example.com"},
		[]string{"eric@example.com"})

	_, err := v.Verify(context.Background(), "tok")
	if !errors.Is(err, ErrAccessDenied) {
		t.Errorf("Verify() error = %v, want ErrAccessDenied", err)
	}
}

func TestVerifyPropagatesFetchError(t *testing.T) {
	fetchErr := errors.New("token expired")
	v := NewVerifier(&stubFetcher{err: fetchErr}, []string{"eric@example.com"})

	_, err := v.Verify(context.Background(), "tok")
	if !errors.Is(err, fetchErr) {
		t.Errorf("Verify() error = %v, want wrapped fetch error", err)
	}
	if errors.Is(err, ErrAccessDenied) {
		t.Error("fetch failure must not read as access denial")
	}
}

func TestAllowedTrimsAndLowercases(t *testing.T) {
	v := NewVerifier(nil, []string{"  Eric@Example.com ", ""})

	if !v.Allowed("eric@example.com") {
		t.Error("Allowed() = false, want true")
	}
	if v.Allowed("") {
		t.Error("empty email must never be allowed")
	}
}
