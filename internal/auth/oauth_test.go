package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const secretsJSON = `{"installed":{"client_id":"cid.apps.googleusercontent.com","client_secret":"shh",
"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token",
"redirect_uris":["http://localhost"]}}`

func TestLoadOAuthConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client_secrets.json")
	require.NoError(t, os.WriteFile(path, []byte(secretsJSON), 0600))

	cfg, err := LoadOAuthConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "cid.apps.googleusercontent.com", cfg.ClientID)
	assert.Equal(t, []string{GoogleDriveScope}, cfg.Scopes)
}

func TestLoadOAuthConfigMissingFile(t *testing.T) {
	_, err := LoadOAuthConfig(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, ErrAuthentication)
}

func newTokenServer(t *testing.T, refreshToken string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"access","token_type":"Bearer","expires_in":3600,"refresh_token":%q}`, refreshToken)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPerformOAuthFlow(t *testing.T) {
	tokenSrv := newTokenServer(t, "refresh-123")
	flow := &Flow{
		Config: &oauth2.Config{
			ClientID: "cid",
			Endpoint: oauth2.Endpoint{AuthURL: "https://example.invalid/auth", TokenURL: tokenSrv.URL},
			Scopes:   []string{GoogleDriveScope},
		},
		Timeout: 10 * time.Second,
		Notify: func(authURL string) {
			u, err := url.Parse(authURL)
			if err != nil {
				t.Errorf("bad auth url: %v", err)
				return
			}
			q := u.Query()
			callback := q.Get("redirect_uri") + "?code=abc&state=" + url.QueryEscape(q.Get("state"))
			go func() {
				resp, err := http.Get(callback)
				if err == nil {
					resp.Body.Close()
				}
			}()
		},
	}

	refresh, err := flow.PerformOAuthFlow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "refresh-123", refresh)
}

func TestPerformOAuthFlowStateMismatch(t *testing.T) {
	tokenSrv := newTokenServer(t, "refresh-123")
	flow := &Flow{
		Config: &oauth2.Config{
			ClientID: "cid",
			Endpoint: oauth2.Endpoint{AuthURL: "https://example.invalid/auth", TokenURL: tokenSrv.URL},
		},
		Timeout: 10 * time.Second,
		Notify: func(authURL string) {
			u, _ := url.Parse(authURL)
			callback := u.Query().Get("redirect_uri") + "?code=abc&state=forged"
			go func() {
				resp, err := http.Get(callback)
				if err == nil {
					resp.Body.Close()
				}
			}()
		},
	}

	_, err := flow.PerformOAuthFlow(context.Background())
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestTokenSourceWithoutRefreshToken(t *testing.T) {
	ts := NewTokenSource(context.Background(), &oauth2.Config{}, "")
	_, err := ts.Token()
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestValidateToken(t *testing.T) {
	tokenSrv := newTokenServer(t, "")
	cfg := &oauth2.Config{ClientID: "cid", Endpoint: oauth2.Endpoint{TokenURL: tokenSrv.URL}}

	require.NoError(t, ValidateToken(context.Background(), cfg, "stored-refresh"))

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"invalid_grant"}`)
	}))
	defer failing.Close()

	bad := &oauth2.Config{ClientID: "cid", Endpoint: oauth2.Endpoint{TokenURL: failing.URL}}
	assert.ErrorIs(t, ValidateToken(context.Background(), bad, "revoked"), ErrAuthentication)
}
