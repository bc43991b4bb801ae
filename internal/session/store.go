// Package session holds the result of the last scan until it is deleted,
// replaced by a new scan, or reset.
package session

import (
	"context"
	"errors"

	"github.com/FranLegon/drive-cleanup/internal/model"
)

// ErrNoScan is returned by Load when no scan has been stored
var ErrNoScan = errors.New("no scan results in session, run 'scan' first")

// Store keeps at most one scan result
type Store interface {
	// Save replaces any stored scan
	Save(ctx context.Context, result *model.ScanResult) error
	Load(ctx context.Context) (*model.ScanResult, error)
	// SaveDeleteResults records delete outcomes on the stored files, matched by file ID
	SaveDeleteResults(ctx context.Context, files []model.FileRecord) error
	Clear(ctx context.Context) error
}

// MemoryStore is a Store that lives as long as the process
type MemoryStore struct {
	result *model.ScanResult
}

// NewMemoryStore returns an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Save(_ context.Context, result *model.ScanResult) error {
	m.result = clone(result)
	return nil
}

func (m *MemoryStore) Load(_ context.Context) (*model.ScanResult, error) {
	if m.result == nil {
		return nil, ErrNoScan
	}
	return clone(m.result), nil
}

func (m *MemoryStore) SaveDeleteResults(_ context.Context, files []model.FileRecord) error {
	if m.result == nil {
		return ErrNoScan
	}
	applyDeleteResults(m.result.Files, files)
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.result = nil
	return nil
}

func clone(r *model.ScanResult) *model.ScanResult {
	c := *r
	c.Files = append([]model.FileRecord{}, r.Files...)
	c.EmptyFolders = append([]string{}, r.EmptyFolders...)
	return &c
}

func applyDeleteResults(stored, outcomes []model.FileRecord) {
	byID := make(map[string]model.FileRecord, len(outcomes))
	for _, o := range outcomes {
		byID[o.ID] = o
	}
	for i := range stored {
		if o, ok := byID[stored[i].ID]; ok {
			stored[i].DeleteStatus = o.DeleteStatus
			stored[i].DeleteMessage = o.DeleteMessage
		}
	}
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)
