package api

import (
	"context"

	"github.com/FranLegon/drive-cleanup/internal/model"
)

// ChildPage is one page of a folder listing
type ChildPage struct {
	Entries       []model.Entry
	NextPageToken string
}

// StorageClient defines the remote file-storage operations the scanner and deleter consume
type StorageClient interface {
	// Drives
	ListSharedDrives(ctx context.Context) ([]model.SharedDrive, error)

	// Traversal
	GetFolderName(ctx context.Context, folderID string) (string, error)
	ListChildren(ctx context.Context, folderID string, pageToken string) (*ChildPage, error)

	// Removal
	DeleteFile(ctx context.Context, fileID string) error
	TrashFile(ctx context.Context, fileID string) error
	FileExists(ctx context.Context, fileID string) (bool, error)
}
