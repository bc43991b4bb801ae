// Package walker scans a shared-drive folder tree and classifies every file
// as a title duplicate, stale, or kept.
package walker

import (
	"context"
	"errors"
	"time"

	"github.com/FranLegon/drive-cleanup/internal/api"
	"github.com/FranLegon/drive-cleanup/internal/logger"
	"github.com/FranLegon/drive-cleanup/internal/model"
	"github.com/google/uuid"
)

// Walker runs depth-first scans against a StorageClient
type Walker struct {
	client  api.StorageClient
	matcher *Matcher
	now     func() time.Time
}

// New creates a Walker. It fails if the filter is invalid.
func New(client api.StorageClient, filter Filter) (*Walker, error) {
	matcher, err := NewMatcher(filter)
	if err != nil {
		return nil, err
	}
	return &Walker{client: client, matcher: matcher, now: time.Now}, nil
}

type signature struct {
	title string
	id    string
}

// scanState lives for exactly one Scan call
type scanState struct {
	visited    map[string]bool
	titles     map[string]int
	signatures map[signature]int
	result     *model.ScanResult
}

// Scan walks every folder reachable from rootID.
//
// Children are visited in the order the API lists them and a subfolder is
// descended into as soon as it is listed. Duplicate classification follows
// that order: the first file seen with a given title is kept and every later
// file with the same title is marked duplicate_title. Every parsed file counts
// toward the title frequency, including files the filter then leaves out.
//
// Per-folder failures are logged and skipped. Scan returns an error only when
// ctx is done or the session is no longer authorized.
func (w *Walker) Scan(ctx context.Context, rootID string) (*model.ScanResult, error) {
	st := &scanState{
		visited:    make(map[string]bool),
		titles:     make(map[string]int),
		signatures: make(map[signature]int),
		result: &model.ScanResult{
			ScanID:       uuid.NewString(),
			RootID:       rootID,
			StartedAt:    w.now().UTC(),
			Files:        []model.FileRecord{},
			EmptyFolders: []string{},
		},
	}

	if err := w.scanFolder(ctx, st, rootID); err != nil {
		return nil, err
	}

	s := st.result.Stats
	logger.InfoTagged([]string{"Scan"}, "Visited %d folders, %d files (%d skipped), %d matched, %d empty folders",
		s.FoldersVisited, s.FilesSeen, s.FilesSkipped, len(st.result.Files), len(st.result.EmptyFolders))
	return st.result, nil
}

func (w *Walker) scanFolder(ctx context.Context, st *scanState, folderID string) error {
	if st.visited[folderID] {
		return nil
	}
	st.visited[folderID] = true
	st.result.Stats.FoldersVisited++

	if err := ctx.Err(); err != nil {
		return err
	}

	name, err := w.client.GetFolderName(ctx, folderID)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Debug("Could not fetch name of folder %s: %v", folderID, err)
		name = folderID
	}

	logger.InfoTagged([]string{"Scan"}, "Scanning: %s", name)

	children := 0
	complete := false
	pageToken := ""

	for {
		page, err := w.client.ListChildren(ctx, folderID, pageToken)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, api.ErrUnauthorized) {
				return err
			}
			logger.ErrorTagged([]string{"Scan", name}, "Error scanning folder: %v", err)
			st.result.Stats.ListErrors++
			break
		}

		children += len(page.Entries)

		for _, entry := range page.Entries {
			if entry.IsFolder() {
				if err := w.scanFolder(ctx, st, entry.ID); err != nil {
					return err
				}
				continue
			}
			w.classify(st, entry)
		}

		if page.NextPageToken == "" {
			complete = true
			break
		}
		pageToken = page.NextPageToken
	}

	if complete && children == 0 {
		st.result.EmptyFolders = append(st.result.EmptyFolders, name)
	}
	return nil
}

func (w *Walker) classify(st *scanState, entry model.Entry) {
	modified, err := parseModified(entry.ModifiedTime)
	if err != nil {
		logger.Debug("Skipping %s (%s): bad modification time %q: %v", entry.Name, entry.ID, entry.ModifiedTime, err)
		st.result.Stats.FilesSkipped++
		return
	}
	st.result.Stats.FilesSeen++

	sig := signature{title: entry.Name, id: entry.ID}
	st.signatures[sig]++
	if st.signatures[sig] > 1 {
		logger.Debug("File %s (%s) reached through more than one parent", entry.Name, entry.ID)
	}
	st.titles[entry.Name]++

	reason := model.ReasonNone
	switch {
	case st.titles[entry.Name] > 1:
		reason = model.ReasonDuplicateTitle
	case w.matcher.IsStale(modified):
		reason = model.ReasonStale
	}

	if !w.matcher.Include(entry.Name, modified, reason) {
		return
	}

	st.result.Files = append(st.result.Files, model.FileRecord{
		Title:       entry.Name,
		ID:          entry.ID,
		Modified:    modified.UTC(),
		ModifiedRaw: entry.ModifiedTime,
		Reason:      reason,
	})
}
