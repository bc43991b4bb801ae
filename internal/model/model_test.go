package model

import (
	"testing"
)

func TestReasonFlagged(t *testing.T) {
	if ReasonNone.Flagged() {
		t.Error("Expected ReasonNone not to be flagged")
	}
	if !ReasonDuplicateTitle.Flagged() {
		t.Error("Expected ReasonDuplicateTitle to be flagged")
	}
	if !ReasonStale.Flagged() {
		t.Error("Expected ReasonStale to be flagged")
	}
}

func TestDeleteStatusSucceeded(t *testing.T) {
	tests := []struct {
		status DeleteStatus
		want   bool
	}{
		{DeleteStatusDeleted, true},
		{DeleteStatusAlreadyDeleted, true},
		{DeleteStatusFailed, false},
		{DeleteStatusError, false},
		{DeleteStatusSkipped, false},
		{DeleteStatusNone, false},
	}

	for _, tt := range tests {
		if got := tt.status.Succeeded(); got != tt.want {
			t.Errorf("%q.Succeeded() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestEntryIsFolder(t *testing.T) {
	folder := Entry{ID: "f1", Name: "Docs", MimeType: FolderMimeType}
	if !folder.IsFolder() {
		t.Error("Expected folder entry to be a folder")
	}

	file := Entry{ID: "x1", Name: "a.pdf", MimeType: "application/pdf"}
	if file.IsFolder() {
		t.Error("Expected pdf entry not to be a folder")
	}
}

func TestScanResultFlagged(t *testing.T) {
	result := &ScanResult{
		Files: []FileRecord{
			{Title: "a.pdf", ID: "1"},
			{Title: "a.pdf", ID: "2", Reason: ReasonDuplicateTitle},
			{Title: "old.doc", ID: "3", Reason: ReasonStale},
		},
	}

	flagged := result.Flagged()
	if len(flagged) != 2 {
		t.Fatalf("Expected 2 flagged records, got %d", len(flagged))
	}
	if flagged[0].ID != "2" || flagged[1].ID != "3" {
		t.Errorf("Unexpected flagged records: %+v", flagged)
	}
}
