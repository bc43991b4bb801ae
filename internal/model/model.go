package model

import "time"

// FolderMimeType is the Drive mime type that marks an entry as a folder
const FolderMimeType = "application/vnd.google-apps.folder"

// Reason explains why a scanned file was flagged
type Reason string

const (
	ReasonNone           Reason = ""
	ReasonDuplicateTitle Reason = "duplicate_title"
	ReasonStale          Reason = "stale"
)

// Flagged reports whether the reason marks the file for cleanup
func (r Reason) Flagged() bool {
	return r != ReasonNone
}

// DeleteStatus is the per-file outcome of a delete attempt
type DeleteStatus string

const (
	DeleteStatusNone           DeleteStatus = ""
	DeleteStatusDeleted        DeleteStatus = "Deleted"
	DeleteStatusAlreadyDeleted DeleteStatus = "Already Deleted"
	DeleteStatusFailed         DeleteStatus = "Failed"
	DeleteStatusError          DeleteStatus = "Error"
	DeleteStatusSkipped        DeleteStatus = "Skipped"
)

// Succeeded reports whether the file is gone from the remote after the attempt
func (s DeleteStatus) Succeeded() bool {
	return s == DeleteStatusDeleted || s == DeleteStatusAlreadyDeleted
}

// FileRecord is one file produced by a scan
type FileRecord struct {
	Title         string       `json:"title"`
	ID            string       `json:"id"`
	Modified      time.Time    `json:"modified"`
	ModifiedRaw   string       `json:"modified_str"`
	Reason        Reason       `json:"reason"`
	DeleteStatus  DeleteStatus `json:"delete_status,omitempty"`
	DeleteMessage string       `json:"delete_message,omitempty"`
}

// SharedDrive is a shared drive visible to the authenticated account
type SharedDrive struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Entry is a direct child of a folder as returned by the storage API
type Entry struct {
	ID           string
	Name         string
	MimeType     string
	ModifiedTime string
}

// IsFolder reports whether the entry is a folder
func (e Entry) IsFolder() bool {
	return e.MimeType == FolderMimeType
}

// ScanStats counts what happened during one traversal
type ScanStats struct {
	FoldersVisited int `json:"folders_visited"`
	FilesSeen      int `json:"files_seen"`
	FilesSkipped   int `json:"files_skipped"`
	ListErrors     int `json:"list_errors"`
}

// ScanResult is the output of one scan and the unit held by the session store
type ScanResult struct {
	ScanID       string       `json:"scan_id"`
	DriveID      string       `json:"drive_id"`
	DriveName    string       `json:"drive_name"`
	RootID       string       `json:"root_id"`
	StartedAt    time.Time    `json:"started_at"`
	Files        []FileRecord `json:"files"`
	EmptyFolders []string     `json:"empty_folders"`
	Stats        ScanStats    `json:"stats"`
}

// Flagged returns the records that carry a reason
func (r *ScanResult) Flagged() []FileRecord {
	var flagged []FileRecord
	for _, f := range r.Files {
		if f.Reason.Flagged() {
			flagged = append(flagged, f)
		}
	}
	return flagged
}
