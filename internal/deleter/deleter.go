// Package deleter removes previously scanned files and records a per-file outcome.
package deleter

import (
	"context"
	"fmt"

	"github.com/FranLegon/drive-cleanup/internal/api"
	"github.com/FranLegon/drive-cleanup/internal/logger"
	"github.com/FranLegon/drive-cleanup/internal/model"
)

// Options controls how each file is removed
type Options struct {
	// Verify issues an existence check after every successful delete
	Verify bool
	// Trash moves files to the trash instead of deleting them permanently
	Trash bool
	// SafeMode logs what would be deleted without calling the API
	SafeMode bool
}

// Summary counts outcomes across one batch
type Summary struct {
	Total          int
	Deleted        int
	AlreadyDeleted int
	Failed         int
	Errors         int
	Skipped        int
}

// Failures is the number of files that may still exist on the remote
func (s Summary) Failures() int {
	return s.Total - s.Deleted - s.AlreadyDeleted
}

func (s *Summary) add(status model.DeleteStatus) {
	s.Total++
	switch status {
	case model.DeleteStatusDeleted:
		s.Deleted++
	case model.DeleteStatusAlreadyDeleted:
		s.AlreadyDeleted++
	case model.DeleteStatusFailed:
		s.Failed++
	case model.DeleteStatusError:
		s.Errors++
	case model.DeleteStatusSkipped:
		s.Skipped++
	}
}

// Deleter issues delete calls one file at a time
type Deleter struct {
	client api.StorageClient
	opts   Options
	// Progress is called after each file when set
	Progress func(done, total int, rec model.FileRecord)
}

// New creates a Deleter
func New(client api.StorageClient, opts Options) *Deleter {
	return &Deleter{client: client, opts: opts}
}

// Delete attempts every record in order and returns copies carrying the outcome.
// Failures are recorded per file and never retried. Once ctx is done the
// remaining records are marked Skipped without any API call.
func (d *Deleter) Delete(ctx context.Context, records []model.FileRecord) ([]model.FileRecord, Summary) {
	out := make([]model.FileRecord, len(records))
	var summary Summary

	for i, rec := range records {
		status, msg := d.deleteOne(ctx, rec)
		rec.DeleteStatus = status
		rec.DeleteMessage = msg
		out[i] = rec
		summary.add(status)

		if d.Progress != nil {
			d.Progress(i+1, len(records), rec)
		}
	}

	logger.InfoTagged([]string{"Delete"}, "%d deleted, %d already deleted, %d failed, %d errors, %d skipped",
		summary.Deleted, summary.AlreadyDeleted, summary.Failed, summary.Errors, summary.Skipped)
	return out, summary
}

func (d *Deleter) deleteOne(ctx context.Context, rec model.FileRecord) (model.DeleteStatus, string) {
	tags := []string{"Delete", rec.ID}

	if err := ctx.Err(); err != nil {
		return model.DeleteStatusSkipped, fmt.Sprintf("cancelled: %v", err)
	}

	if d.opts.SafeMode {
		action := "DELETE"
		if d.opts.Trash {
			action = "TRASH"
		}
		logger.DryRunTagged(tags, "%s file '%s'", action, rec.Title)
		return model.DeleteStatusSkipped, "safe mode"
	}

	var err error
	if d.opts.Trash {
		err = d.client.TrashFile(ctx, rec.ID)
	} else {
		err = d.client.DeleteFile(ctx, rec.ID)
	}
	if err != nil {
		if api.IsNotFound(err) {
			logger.WarningTagged(tags, "'%s' was already deleted", rec.Title)
			return model.DeleteStatusAlreadyDeleted, ""
		}
		logger.ErrorTagged(tags, "Failed to delete '%s': %v", rec.Title, err)
		return model.DeleteStatusError, err.Error()
	}

	if !d.opts.Verify {
		logger.InfoTagged(tags, "Deleted '%s'", rec.Title)
		return model.DeleteStatusDeleted, ""
	}

	exists, err := d.client.FileExists(ctx, rec.ID)
	switch {
	case err != nil:
		logger.ErrorTagged(tags, "Could not verify deletion of '%s': %v", rec.Title, err)
		return model.DeleteStatusError, "verify: " + err.Error()
	case exists:
		logger.ErrorTagged(tags, "'%s' still exists after delete", rec.Title)
		return model.DeleteStatusFailed, "file still exists"
	default:
		logger.InfoTagged(tags, "Deleted '%s'", rec.Title)
		return model.DeleteStatusDeleted, ""
	}
}
