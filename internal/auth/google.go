package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	goauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// GoogleFetcher resolves access tokens through Google's userinfo
// endpoint.
type GoogleFetcher struct{}

var _ EmailFetcher = (*GoogleFetcher)(nil)

func NewGoogleFetcher() *GoogleFetcher {
	return &GoogleFetcher{}
}

func (g *GoogleFetcher) FetchEmail(ctx context.Context, accessToken string) (string, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})

	svc, err := goauth2.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return "", fmt.Errorf("create oauth2 service: %w", err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("get userinfo: %w", err)
	}
	if info.Email == "" {
		return "", errors.New("userinfo response has no email")
	}

	return info.Email, nil
}
