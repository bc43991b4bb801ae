package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
)

// TokenSource wraps an oauth2.TokenSource built from a stored refresh token.
// Refresh failures are reported as ErrAuthentication.
type TokenSource struct {
	refreshToken string
	source       oauth2.TokenSource
}

// NewTokenSource creates a new TokenSource
func NewTokenSource(ctx context.Context, config *oauth2.Config, refreshToken string) *TokenSource {
	return &TokenSource{
		refreshToken: refreshToken,
		source:       config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}),
	}
}

// Token returns a valid token, refreshing if necessary
func (ts *TokenSource) Token() (*oauth2.Token, error) {
	if ts.refreshToken == "" {
		return nil, fmt.Errorf("%w: no refresh token stored, run 'login' first", ErrAuthentication)
	}
	token, err := ts.source.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to refresh token: %v", ErrAuthentication, err)
	}
	return token, nil
}

// ValidateToken checks if a refresh token can mint an access token
func ValidateToken(ctx context.Context, config *oauth2.Config, refreshToken string) error {
	_, err := NewTokenSource(ctx, config, refreshToken).Token()
	return err
}
