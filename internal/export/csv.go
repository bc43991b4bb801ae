// Package export writes scan and delete results as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/FranLegon/drive-cleanup/internal/model"
)

// File names written to the output directory
const (
	ScanResultsFile   = "scan_results.csv"
	EmptyFoldersFile  = "empty_folders.csv"
	DeleteResultsFile = "delete_results.csv"
	flaggedSuffix     = "_flagged_files.csv"
)

const modifiedLayout = "2006-01-02 15:04:05"

var (
	scanHeader   = []string{"title", "id", "modified", "modified_str", "reason"}
	deleteHeader = []string{"title", "id", "modified", "modified_str", "reason", "delete_status", "delete_message"}
	emptyHeader  = []string{"empty_folder"}

	unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
)

// WriteScanResults writes one row per file record
func WriteScanResults(w io.Writer, files []model.FileRecord) error {
	rows := make([][]string, 0, len(files))
	for _, f := range files {
		rows = append(rows, scanRow(f))
	}
	return write(w, scanHeader, rows)
}

// WriteDeleteResults writes file records together with their delete outcome
func WriteDeleteResults(w io.Writer, files []model.FileRecord) error {
	rows := make([][]string, 0, len(files))
	for _, f := range files {
		rows = append(rows, append(scanRow(f), string(f.DeleteStatus), f.DeleteMessage))
	}
	return write(w, deleteHeader, rows)
}

// WriteEmptyFolders writes one folder name per row
func WriteEmptyFolders(w io.Writer, names []string) error {
	rows := make([][]string, 0, len(names))
	for _, n := range names {
		rows = append(rows, []string{n})
	}
	return write(w, emptyHeader, rows)
}

// FlaggedFileName names the per-drive export of flagged files
func FlaggedFileName(driveName string) string {
	name := strings.Trim(unsafeName.ReplaceAllString(driveName, "_"), "_")
	if name == "" {
		name = "drive"
	}
	return name + flaggedSuffix
}

// WriteFile creates dir if needed and writes name through fn. It returns the full path.
func WriteFile(dir, name string, fn func(io.Writer) error) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}

	if err := fn(f); err != nil {
		f.Close()
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", path, err)
	}
	return path, nil
}

func scanRow(f model.FileRecord) []string {
	modified := ""
	if !f.Modified.IsZero() {
		modified = f.Modified.UTC().Format(modifiedLayout)
	}
	return []string{f.Title, f.ID, modified, f.ModifiedRaw, string(f.Reason)}
}

func write(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}
