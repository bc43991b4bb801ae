package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/FranLegon/drive-cleanup/internal/api"
	"github.com/FranLegon/drive-cleanup/internal/auth"
	"github.com/FranLegon/drive-cleanup/internal/logger"
	"github.com/FranLegon/drive-cleanup/internal/model"
	"github.com/FranLegon/drive-cleanup/internal/retry"
	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	defaultPageSize = 1000
	drivesPageSize  = 100
	retryDelay      = 2 * time.Second

	childFields = "nextPageToken, files(id, name, modifiedTime, mimeType)"
)

// Options tunes the Drive client
type Options struct {
	PageSize    int64
	Retries     int
	HTTPTimeout time.Duration
	// RetryDelay overrides the base backoff delay; zero uses the default
	RetryDelay time.Duration
}

// Client is a Drive v3 implementation of api.StorageClient
type Client struct {
	service *drive.Service
	opts    Options
}

// NewClient creates a Drive client authorized by the given token source
func NewClient(ctx context.Context, ts oauth2.TokenSource, opts Options) (*Client, error) {
	service, err := drive.NewService(ctx, option.WithHTTPClient(newHTTPClient(ctx, ts, opts.HTTPTimeout)))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	return NewClientFromService(service, opts), nil
}

// newHTTPClient authorizes requests with ts and bounds each of them by timeout.
// oauth2.NewClient keeps only the transport of a client passed in the context,
// so the timeout is set on the client it returns.
func newHTTPClient(ctx context.Context, ts oauth2.TokenSource, timeout time.Duration) *http.Client {
	httpClient := oauth2.NewClient(ctx, ts)
	httpClient.Timeout = timeout
	return httpClient
}

// NewClientFromService wraps an existing Drive service
func NewClientFromService(service *drive.Service, opts Options) *Client {
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	if opts.Retries <= 0 {
		opts.Retries = 1
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = retryDelay
	}
	return &Client{service: service, opts: opts}
}

// GetUserEmail returns the email address of the authorized account
func (c *Client) GetUserEmail(ctx context.Context) (string, error) {
	var about *drive.About
	err := c.withRetry(ctx, func() error {
		var err error
		about, err = c.service.About.Get().Fields("user(emailAddress)").Context(ctx).Do()
		return classify(err)
	})
	if err != nil {
		return "", fmt.Errorf("failed to get account info: %w", err)
	}
	if about.User == nil {
		return "", errors.New("account info did not include a user")
	}
	return about.User.EmailAddress, nil
}

// ListSharedDrives lists every shared drive the account can see
func (c *Client) ListSharedDrives(ctx context.Context) ([]model.SharedDrive, error) {
	var drives []model.SharedDrive
	pageToken := ""

	for {
		call := c.service.Drives.List().
			Fields("nextPageToken, drives(id, name)").
			PageSize(drivesPageSize).
			Context(ctx)

		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		var list *drive.DriveList
		err := c.withRetry(ctx, func() error {
			var err error
			list, err = call.Do()
			return classify(err)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list shared drives: %w", err)
		}

		for _, d := range list.Drives {
			drives = append(drives, model.SharedDrive{ID: d.Id, Name: d.Name})
		}

		if list.NextPageToken == "" {
			break
		}
		pageToken = list.NextPageToken
	}

	return drives, nil
}

// GetFolderName returns the display name of a folder
func (c *Client) GetFolderName(ctx context.Context, folderID string) (string, error) {
	var f *drive.File
	err := c.withRetry(ctx, func() error {
		var err error
		f, err = c.service.Files.Get(folderID).
			SupportsAllDrives(true).
			Fields("name").
			Context(ctx).
			Do()
		return classify(err)
	})
	if err != nil {
		return "", fmt.Errorf("failed to get folder metadata: %w", err)
	}
	if f.Name == "" {
		return folderID, nil
	}
	return f.Name, nil
}

// ListChildren returns one page of the non-trashed direct children of a folder
func (c *Client) ListChildren(ctx context.Context, folderID string, pageToken string) (*api.ChildPage, error) {
	if folderID == "" {
		return nil, errors.New("folder ID is required")
	}

	query := fmt.Sprintf("'%s' in parents and trashed=false", escapeQuery(folderID))

	call := c.service.Files.List().Q(query).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Fields(childFields).
		PageSize(c.opts.PageSize).
		Context(ctx)

	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	var list *drive.FileList
	err := c.withRetry(ctx, func() error {
		var err error
		list, err = call.Do()
		return classify(err)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list children of %s: %w", folderID, err)
	}

	page := &api.ChildPage{
		Entries:       make([]model.Entry, 0, len(list.Files)),
		NextPageToken: list.NextPageToken,
	}
	for _, f := range list.Files {
		page.Entries = append(page.Entries, model.Entry{
			ID:           f.Id,
			Name:         f.Name,
			MimeType:     f.MimeType,
			ModifiedTime: f.ModifiedTime,
		})
	}

	logger.Debug("Drive ListChildren page: %d entries in %s", len(page.Entries), folderID)
	return page, nil
}

// DeleteFile permanently deletes a file. Deletes are never retried.
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	err := c.service.Files.Delete(fileID).SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", classify(err))
	}
	return nil
}

// TrashFile moves a file to the trash
func (c *Client) TrashFile(ctx context.Context, fileID string) error {
	_, err := c.service.Files.Update(fileID, &drive.File{Trashed: true}).
		SupportsAllDrives(true).
		Fields("id, trashed").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to trash file: %w", classify(err))
	}
	return nil
}

// FileExists reports whether a non-trashed file with the ID is still present
func (c *Client) FileExists(ctx context.Context, fileID string) (bool, error) {
	var f *drive.File
	err := c.withRetry(ctx, func() error {
		var err error
		f, err = c.service.Files.Get(fileID).
			SupportsAllDrives(true).
			Fields("id, trashed").
			Context(ctx).
			Do()
		return classify(err)
	})
	if err != nil {
		if api.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check file: %w", err)
	}
	return !f.Trashed, nil
}

func (c *Client) withRetry(ctx context.Context, fn func() error) error {
	return retry.Retry(ctx, c.opts.Retries, c.opts.RetryDelay, api.IsTransient, fn)
}

// classify turns Drive errors into api.Error values carrying a sentinel
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	// token refresh failures arrive wrapped in *url.Error and must not be retried
	if errors.Is(err, auth.ErrAuthentication) {
		return fmt.Errorf("%w: %w", api.ErrUnauthorized, err)
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		msg := gErr.Message
		if msg == "" {
			msg = strings.TrimSpace(gErr.Body)
		}
		// Drive reports rate limiting as 403 with a rateLimitExceeded reason
		for _, item := range gErr.Errors {
			if item.Reason == "rateLimitExceeded" || item.Reason == "userRateLimitExceeded" {
				return &api.Error{StatusCode: gErr.Code, Message: msg, Err: api.ErrTransient}
			}
		}
		return api.NewError(gErr.Code, msg)
	}

	return &api.Error{Message: err.Error(), Err: api.ErrTransient}
}

func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

var _ api.StorageClient = (*Client)(nil)
