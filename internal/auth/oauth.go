package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/FranLegon/drive-cleanup/internal/logger"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	// GoogleDriveScope grants read and delete access to files, including shared drives
	GoogleDriveScope = "https://www.googleapis.com/auth/drive"

	callbackPath    = "/callback"
	defaultFlowWait = 5 * time.Minute
)

// ErrAuthentication marks failures where the stored credentials cannot produce a session
var ErrAuthentication = errors.New("authentication failed")

// LoadOAuthConfig reads an installed-app client secrets file downloaded from the Google Cloud Console
func LoadOAuthConfig(credentialsFile string, scopes ...string) (*oauth2.Config, error) {
	if len(scopes) == 0 {
		scopes = []string{GoogleDriveScope}
	}

	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("%w: reading credentials file %s: %v", ErrAuthentication, credentialsFile, err)
	}

	cfg, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing credentials file %s: %v", ErrAuthentication, credentialsFile, err)
	}
	return cfg, nil
}

// Flow runs the local-callback authorization code flow
type Flow struct {
	Config *oauth2.Config
	// Timeout bounds the wait for the browser callback
	Timeout time.Duration
	// Notify receives the URL the user must open. Defaults to logging it.
	Notify func(authURL string)
}

// PerformOAuthFlow initiates the OAuth flow and returns the refresh token
func (f *Flow) PerformOAuthFlow(ctx context.Context) (string, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("failed to start callback listener: %w", err)
	}

	cfg := *f.Config
	cfg.RedirectURL = fmt.Sprintf("http://localhost:%d%s", listener.Addr().(*net.TCPAddr).Port, callbackPath)

	state, err := generateRandomState()
	if err != nil {
		listener.Close()
		return "", err
	}

	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != state {
			sendErr(errChan, fmt.Errorf("state mismatch"))
			fmt.Fprintf(w, "Error: State mismatch. You can close this window.")
			return
		}

		code := r.URL.Query().Get("code")
		if code == "" {
			sendErr(errChan, fmt.Errorf("no authorization code received"))
			fmt.Fprintf(w, "Error: No authorization code received. You can close this window.")
			return
		}

		select {
		case codeChan <- code:
		default:
		}
		fmt.Fprintf(w, "Authorization successful! You can close this window and return to the terminal.")
	})

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sendErr(errChan, fmt.Errorf("server error: %w", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	authURL := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	notify := f.Notify
	if notify == nil {
		notify = func(u string) {
			logger.Info("Please visit this URL to authorize the application:")
			logger.Info("%s", u)
		}
	}
	notify(authURL)

	timeout := f.Timeout
	if timeout <= 0 {
		timeout = defaultFlowWait
	}

	var code string
	select {
	case code = <-codeChan:
	case err := <-errChan:
		return "", fmt.Errorf("%w: %v", ErrAuthentication, err)
	case <-time.After(timeout):
		return "", fmt.Errorf("%w: OAuth flow timed out after %v", ErrAuthentication, timeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("%w: failed to exchange code for token: %v", ErrAuthentication, err)
	}

	if token.RefreshToken == "" {
		return "", fmt.Errorf("%w: no refresh token received (revoke the app's access and retry)", ErrAuthentication)
	}

	return token.RefreshToken, nil
}

func sendErr(ch chan<- error, err error) {
	select {
	case ch <- err:
	default:
	}
}

// generateRandomState creates a random state string for OAuth CSRF protection
func generateRandomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return hex.EncodeToString(b), nil
}
