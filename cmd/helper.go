package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/FranLegon/drive-cleanup/internal/api"
	"github.com/FranLegon/drive-cleanup/internal/auth"
	"github.com/FranLegon/drive-cleanup/internal/config"
	"github.com/FranLegon/drive-cleanup/internal/deleter"
	"github.com/FranLegon/drive-cleanup/internal/export"
	"github.com/FranLegon/drive-cleanup/internal/google"
	"github.com/FranLegon/drive-cleanup/internal/logger"
	"github.com/FranLegon/drive-cleanup/internal/model"
	"github.com/FranLegon/drive-cleanup/internal/session"
	"github.com/FranLegon/drive-cleanup/internal/walker"
	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
)

const previewRows = 20

func driveOptions() google.Options {
	return google.Options{
		PageSize:    settings.PageSize,
		Retries:     settings.Retries,
		HTTPTimeout: settings.HTTPTimeout,
	}
}

// newDriveClient unlocks the stored refresh token and builds an authorized Drive client
func newDriveClient(ctx context.Context) (*google.Client, error) {
	oauthCfg, err := auth.LoadOAuthConfig(settings.CredentialsFile)
	if err != nil {
		return nil, err
	}

	password, err := config.GetMasterPassword(false)
	if err != nil {
		return nil, fmt.Errorf("password prompt: %w", err)
	}

	secrets, err := config.LoadSecrets(settings, password)
	if err != nil {
		return nil, err
	}
	logger.Debug("Using stored credentials for %s", secrets.Account)

	ts := auth.NewTokenSource(ctx, oauthCfg, secrets.RefreshToken)
	return google.NewClient(ctx, ts, driveOptions())
}

func openStore() (*session.SQLiteStore, error) {
	return session.OpenSQLite(settings.SessionDB)
}

// authHint replaces authorization failures with a pointer to 'login'
func authHint(err error) error {
	if errors.Is(err, auth.ErrAuthentication) || errors.Is(err, api.ErrUnauthorized) {
		return fmt.Errorf("%w\nrun 'drive-cleanup login' to authorize again", err)
	}
	return err
}

// resolveDrive finds a shared drive by exact ID, then by case-insensitive name
func resolveDrive(drives []model.SharedDrive, query string) (model.SharedDrive, error) {
	query = strings.TrimSpace(query)
	for _, d := range drives {
		if d.ID == query {
			return d, nil
		}
	}

	var matches []model.SharedDrive
	for _, d := range drives {
		if strings.EqualFold(d.Name, query) {
			matches = append(matches, d)
		}
	}

	switch len(matches) {
	case 0:
		return model.SharedDrive{}, fmt.Errorf("no shared drive named or with ID %q", query)
	case 1:
		return matches[0], nil
	default:
		return model.SharedDrive{}, fmt.Errorf("%d shared drives are named %q, pass the drive ID instead", len(matches), query)
	}
}

func driveLabel(d model.SharedDrive) string {
	return fmt.Sprintf("%s (%s)", d.Name, d.ID)
}

// chooseDrive resolves query, or asks the user to pick when query is empty
func chooseDrive(ctx context.Context, client api.StorageClient, query string) (model.SharedDrive, error) {
	drives, err := client.ListSharedDrives(ctx)
	if err != nil {
		return model.SharedDrive{}, authHint(err)
	}
	if len(drives) == 0 {
		return model.SharedDrive{}, errors.New("no shared drives found for this account")
	}

	if query != "" {
		return resolveDrive(drives, query)
	}

	items := make([]string, len(drives))
	for i, d := range drives {
		items[i] = driveLabel(d)
	}
	prompt := promptui.Select{
		Label: "Select a Shared Drive",
		Items: items,
		Size:  10,
	}
	idx, _, err := prompt.Run()
	if err != nil {
		return model.SharedDrive{}, err
	}
	return drives[idx], nil
}

// filterInput is the raw text of the scan filter options
type filterInput struct {
	Start       string
	End         string
	Keywords    string
	StaleBefore string
	FlaggedOnly bool
}

func (in filterInput) build() (walker.Filter, error) {
	var (
		f   walker.Filter
		err error
	)
	if f.Start, err = walker.ParseDate(in.Start); err != nil {
		return f, fmt.Errorf("start date: %w", err)
	}
	if f.End, err = walker.ParseDate(in.End); err != nil {
		return f, fmt.Errorf("end date: %w", err)
	}
	if f.StaleBefore, err = walker.ParseDate(in.StaleBefore); err != nil {
		return f, fmt.Errorf("stale cutoff: %w", err)
	}

	if kws := walker.ParseKeywords(in.Keywords); len(kws) > 0 {
		f.Mode = walker.ModeKeywords
		f.Keywords = kws
	}
	f.FlaggedOnly = in.FlaggedOnly

	return f, f.Validate()
}

// runScan walks the drive, stores the result and writes the scan exports.
// The stored scan is replaced only once the walk succeeds.
func runScan(ctx context.Context, client api.StorageClient, store session.Store, drive model.SharedDrive, rootID string, filter walker.Filter, out io.Writer) (*model.ScanResult, error) {
	w, err := walker.New(client, filter)
	if err != nil {
		return nil, err
	}

	if rootID == "" {
		rootID = drive.ID
	}
	result, err := w.Scan(ctx, rootID)
	if err != nil {
		return nil, authHint(err)
	}
	result.DriveID = drive.ID
	result.DriveName = drive.Name

	if err := store.Save(ctx, result); err != nil {
		return nil, fmt.Errorf("saving scan: %w", err)
	}

	printPreview(out, result, previewRows)

	if err := writeScanExports(settings.OutputDir, result); err != nil {
		return nil, err
	}
	return result, nil
}

func writeScanExports(dir string, result *model.ScanResult) error {
	writes := []struct {
		name string
		fn   func(io.Writer) error
	}{
		{export.ScanResultsFile, func(w io.Writer) error { return export.WriteScanResults(w, result.Files) }},
		{export.EmptyFoldersFile, func(w io.Writer) error { return export.WriteEmptyFolders(w, result.EmptyFolders) }},
		{export.FlaggedFileName(result.DriveName), func(w io.Writer) error { return export.WriteScanResults(w, result.Flagged()) }},
	}

	for _, wr := range writes {
		path, err := export.WriteFile(dir, wr.name, wr.fn)
		if err != nil {
			return err
		}
		logger.InfoTagged([]string{"Export"}, "Wrote %s", path)
	}
	return nil
}

func printPreview(out io.Writer, result *model.ScanResult, limit int) {
	flagged := len(result.Flagged())
	fmt.Fprintf(out, "\n%s: %d files, %d flagged, %d empty folders\n",
		color.New(color.Bold).Sprint(result.DriveName), len(result.Files), flagged, len(result.EmptyFolders))

	if len(result.Files) == 0 {
		fmt.Fprintln(out, "No files found matching the criteria.")
		return
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TITLE\tID\tMODIFIED\tREASON")
	for i, f := range result.Files {
		if i == limit {
			break
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.Title, f.ID, formatModified(f.Modified), reasonLabel(f.Reason))
	}
	tw.Flush()

	if len(result.Files) > limit {
		fmt.Fprintf(out, "... and %d more, see %s\n", len(result.Files)-limit, export.ScanResultsFile)
	}
}

func formatModified(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04")
}

func reasonLabel(r model.Reason) string {
	switch r {
	case model.ReasonDuplicateTitle:
		return color.YellowString(string(r))
	case model.ReasonStale:
		return color.CyanString(string(r))
	default:
		return "-"
	}
}

// pendingRecords drops records a previous delete run already removed
func pendingRecords(files []model.FileRecord) []model.FileRecord {
	var pending []model.FileRecord
	for _, f := range files {
		if !f.DeleteStatus.Succeeded() {
			pending = append(pending, f)
		}
	}
	return pending
}

func confirm(label string) bool {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	_, err := prompt.Run()
	return err == nil
}

// runDelete deletes records, writes delete_results.csv and prints the summary
func runDelete(ctx context.Context, client api.StorageClient, records []model.FileRecord, opts deleter.Options, out io.Writer) ([]model.FileRecord, deleter.Summary, error) {
	d := deleter.New(client, opts)
	d.Progress = func(done, total int, rec model.FileRecord) {
		logger.Debug("[%d/%d] %s: %s", done, total, rec.Title, rec.DeleteStatus)
	}

	results, summary := d.Delete(ctx, records)

	path, err := export.WriteFile(settings.OutputDir, export.DeleteResultsFile, func(w io.Writer) error {
		return export.WriteDeleteResults(w, results)
	})
	if err != nil {
		return results, summary, err
	}
	logger.InfoTagged([]string{"Export"}, "Wrote %s", path)

	printSummary(out, summary, opts.SafeMode)
	return results, summary, nil
}

// saveDeleteOutcome clears the session once every file is gone, and otherwise
// keeps the outcomes so the next run retries only what is left. It still
// writes when ctx was cancelled during the delete.
func saveDeleteOutcome(ctx context.Context, store session.Store, outcomes []model.FileRecord, summary deleter.Summary) error {
	ctx = context.WithoutCancel(ctx)
	if summary.Failures() == 0 {
		return store.Clear(ctx)
	}
	if err := store.SaveDeleteResults(ctx, outcomes); err != nil {
		return fmt.Errorf("saving delete results: %w", err)
	}
	return nil
}

func printSummary(out io.Writer, s deleter.Summary, dryRun bool) {
	if dryRun {
		fmt.Fprintf(out, "Dry run: %d files would be deleted.\n", s.Skipped)
		return
	}

	fmt.Fprintf(out, "Deleted: %d  Already deleted: %d  Failed: %d  Errors: %d  Skipped: %d\n",
		s.Deleted, s.AlreadyDeleted, s.Failed, s.Errors, s.Skipped)

	if s.Failures() == 0 {
		color.New(color.FgGreen).Fprintln(out, "All files were deleted successfully.")
		return
	}
	color.New(color.FgYellow).Fprintf(out, "%d files could not be deleted. See %s for details.\n", s.Failures(), export.DeleteResultsFile)
}
