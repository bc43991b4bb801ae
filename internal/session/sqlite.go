package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/FranLegon/drive-cleanup/internal/model"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS scans (
	scan_id TEXT PRIMARY KEY,
	drive_id TEXT NOT NULL,
	drive_name TEXT NOT NULL,
	root_id TEXT NOT NULL,
	started_at TEXT NOT NULL,
	folders_visited INTEGER NOT NULL,
	files_seen INTEGER NOT NULL,
	files_skipped INTEGER NOT NULL,
	list_errors INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS scan_files (
	position INTEGER PRIMARY KEY,
	title TEXT NOT NULL,
	file_id TEXT NOT NULL,
	modified TEXT NOT NULL,
	modified_raw TEXT NOT NULL,
	reason TEXT NOT NULL,
	delete_status TEXT NOT NULL DEFAULT '',
	delete_message TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_scan_files_file_id ON scan_files(file_id);

CREATE TABLE IF NOT EXISTS empty_folders (
	position INTEGER PRIMARY KEY,
	name TEXT NOT NULL
);
`

// SQLiteStore persists the session in a sqlite file so separate invocations share it
type SQLiteStore struct {
	conn *sql.DB
}

// OpenSQLite opens or creates the session database at path
func OpenSQLite(path string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open session database %s: %w", path, err)
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize session schema: %w", err)
	}

	return &SQLiteStore{conn: conn}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func (s *SQLiteStore) Save(ctx context.Context, result *model.ScanResult) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := clearTx(ctx, tx); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
	INSERT INTO scans (
		scan_id, drive_id, drive_name, root_id, started_at,
		folders_visited, files_seen, files_skipped, list_errors
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.ScanID, result.DriveID, result.DriveName, result.RootID, formatTime(result.StartedAt),
		result.Stats.FoldersVisited, result.Stats.FilesSeen, result.Stats.FilesSkipped, result.Stats.ListErrors)
	if err != nil {
		return fmt.Errorf("failed to insert scan: %w", err)
	}

	fileStmt, err := tx.PrepareContext(ctx, `
	INSERT INTO scan_files (
		position, title, file_id, modified, modified_raw, reason, delete_status, delete_message
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer fileStmt.Close()

	for i, f := range result.Files {
		_, err := fileStmt.ExecContext(ctx, i, f.Title, f.ID, formatTime(f.Modified), f.ModifiedRaw,
			string(f.Reason), string(f.DeleteStatus), f.DeleteMessage)
		if err != nil {
			return fmt.Errorf("failed to insert file %s: %w", f.ID, err)
		}
	}

	for i, name := range result.EmptyFolders {
		if _, err := tx.ExecContext(ctx, `INSERT INTO empty_folders (position, name) VALUES (?, ?)`, i, name); err != nil {
			return fmt.Errorf("failed to insert empty folder: %w", err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) Load(ctx context.Context) (*model.ScanResult, error) {
	var (
		r         model.ScanResult
		startedAt string
	)
	err := s.conn.QueryRowContext(ctx, `
	SELECT scan_id, drive_id, drive_name, root_id, started_at,
		folders_visited, files_seen, files_skipped, list_errors
	FROM scans LIMIT 1`).Scan(
		&r.ScanID, &r.DriveID, &r.DriveName, &r.RootID, &startedAt,
		&r.Stats.FoldersVisited, &r.Stats.FilesSeen, &r.Stats.FilesSkipped, &r.Stats.ListErrors)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoScan
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load scan: %w", err)
	}
	if r.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, err
	}

	rows, err := s.conn.QueryContext(ctx, `
	SELECT title, file_id, modified, modified_raw, reason, delete_status, delete_message
	FROM scan_files ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to load files: %w", err)
	}
	defer rows.Close()

	r.Files = []model.FileRecord{}
	for rows.Next() {
		var (
			f                    model.FileRecord
			modified             string
			reason, deleteStatus string
		)
		if err := rows.Scan(&f.Title, &f.ID, &modified, &f.ModifiedRaw, &reason, &deleteStatus, &f.DeleteMessage); err != nil {
			return nil, err
		}
		if f.Modified, err = parseTime(modified); err != nil {
			return nil, err
		}
		f.Reason = model.Reason(reason)
		f.DeleteStatus = model.DeleteStatus(deleteStatus)
		r.Files = append(r.Files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	names, err := s.conn.QueryContext(ctx, `SELECT name FROM empty_folders ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to load empty folders: %w", err)
	}
	defer names.Close()

	r.EmptyFolders = []string{}
	for names.Next() {
		var name string
		if err := names.Scan(&name); err != nil {
			return nil, err
		}
		r.EmptyFolders = append(r.EmptyFolders, name)
	}
	return &r, names.Err()
}

func (s *SQLiteStore) SaveDeleteResults(ctx context.Context, files []model.FileRecord) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM scans`).Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		return ErrNoScan
	}

	for _, f := range files {
		_, err := tx.ExecContext(ctx, `UPDATE scan_files SET delete_status = ?, delete_message = ? WHERE file_id = ?`,
			string(f.DeleteStatus), f.DeleteMessage, f.ID)
		if err != nil {
			return fmt.Errorf("failed to record delete result for %s: %w", f.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := clearTx(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

func clearTx(ctx context.Context, tx *sql.Tx) error {
	for _, table := range []string{"scans", "scan_files", "empty_folders"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupt timestamp %q in session: %w", s, err)
	}
	return t, nil
}
