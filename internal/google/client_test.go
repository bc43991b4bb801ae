package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/FranLegon/drive-cleanup/internal/api"
	"github.com/FranLegon/drive-cleanup/internal/auth"
	"github.com/FranLegon/drive-cleanup/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDriveError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{"code": status, "message": message},
	})
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := drive.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)

	return NewClientFromService(svc, Options{PageSize: 2, Retries: 3, RetryDelay: time.Millisecond})
}

func TestListChildrenSendsSharedDriveQuery(t *testing.T) {
	var gotQuery map[string][]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"nextPageToken": "tok2",
			"files": []map[string]string{
				{"id": "f1", "name": "Report.pdf", "mimeType": "application/pdf", "modifiedTime": "2024-03-01T10:00:00.000Z"},
				{"id": "d1", "name": "Sub", "mimeType": model.FolderMimeType},
			},
		})
	})

	page, err := client.ListChildren(context.Background(), "root'1", "tok1")
	require.NoError(t, err)

	assert.Equal(t, `'root\'1' in parents and trashed=false`, gotQuery["q"][0])
	assert.Equal(t, "true", gotQuery["supportsAllDrives"][0])
	assert.Equal(t, "true", gotQuery["includeItemsFromAllDrives"][0])
	assert.Equal(t, "tok1", gotQuery["pageToken"][0])
	assert.Equal(t, "2", gotQuery["pageSize"][0])

	require.Len(t, page.Entries, 2)
	assert.Equal(t, "tok2", page.NextPageToken)
	assert.Equal(t, "Report.pdf", page.Entries[0].Name)
	assert.Equal(t, "2024-03-01T10:00:00.000Z", page.Entries[0].ModifiedTime)
	assert.True(t, page.Entries[1].IsFolder())
}

func TestListChildrenRetriesTransientErrors(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			writeDriveError(w, http.StatusServiceUnavailable, "backend error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"files": []interface{}{}})
	})

	page, err := client.ListChildren(context.Background(), "root", "")
	require.NoError(t, err)
	assert.Empty(t, page.Entries)
	assert.Equal(t, 2, calls)
}

func TestGetFolderNameClassifiesNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeDriveError(w, http.StatusNotFound, "File not found: missing")
	})

	_, err := client.GetFolderName(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, api.IsNotFound(err))
}

func TestDeleteFileIsNotRetried(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/files/abc"))
		writeDriveError(w, http.StatusInternalServerError, "boom")
	})

	err := client.DeleteFile(context.Background(), "abc")
	require.Error(t, err)
	assert.True(t, api.IsTransient(err))
	assert.Equal(t, 1, calls)
}

func TestFileExists(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/files/gone"):
			writeDriveError(w, http.StatusNotFound, "File not found: gone")
		case strings.HasSuffix(r.URL.Path, "/files/trashed"):
			writeJSON(w, http.StatusOK, map[string]interface{}{"id": "trashed", "trashed": true})
		case strings.HasSuffix(r.URL.Path, "/files/denied"):
			writeDriveError(w, http.StatusForbidden, "insufficient permissions")
		default:
			writeJSON(w, http.StatusOK, map[string]interface{}{"id": "here"})
		}
	})
	ctx := context.Background()

	exists, err := client.FileExists(ctx, "gone")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = client.FileExists(ctx, "trashed")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = client.FileExists(ctx, "here")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = client.FileExists(ctx, "denied")
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrForbidden)
}

func TestListSharedDrivesPaginates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("pageToken") == "" {
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"nextPageToken": "p2",
				"drives":        []map[string]string{{"id": "d1", "name": "Marketing"}},
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"drives": []map[string]string{{"id": "d2", "name": "Finance"}},
		})
	})

	drives, err := client.ListSharedDrives(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.SharedDrive{{ID: "d1", Name: "Marketing"}, {ID: "d2", Name: "Finance"}}, drives)
}

func TestGetUserEmail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/about"))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"user": map[string]string{"emailAddress": "ops@example.com"},
		})
	})

	email, err := client.GetUserEmail(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", email)
}

func TestClassifyAuthenticationFailure(t *testing.T) {
	err := classify(fmt.Errorf("Get \"https://www.googleapis.com/drive/v3/files\": %w", auth.ErrAuthentication))

	assert.ErrorIs(t, err, api.ErrUnauthorized)
	assert.ErrorIs(t, err, auth.ErrAuthentication)
	assert.False(t, api.IsTransient(err))
}

func TestClassifyNetworkErrorIsTransient(t *testing.T) {
	err := classify(fmt.Errorf("dial tcp: connection refused"))
	assert.True(t, api.IsTransient(err))
	assert.NoError(t, classify(nil))
}

func TestHTTPClientTimesOutSlowRequests(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "token"})
	client := newHTTPClient(context.Background(), ts, 50*time.Millisecond)
	assert.Equal(t, 50*time.Millisecond, client.Timeout)

	start := time.Now()
	resp, err := client.Get(srv.URL)
	if resp != nil {
		resp.Body.Close()
	}
	require.Error(t, err)

	var netErr net.Error
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())
	assert.Less(t, time.Since(start), 2*time.Second)
}
