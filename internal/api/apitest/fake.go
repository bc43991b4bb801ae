// Package apitest provides an in-memory StorageClient for tests.
package apitest

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/FranLegon/drive-cleanup/internal/api"
	"github.com/FranLegon/drive-cleanup/internal/model"
)

type fakeFolder struct {
	name     string
	children []model.Entry
}

// Fake is an in-memory folder tree. Folder entries may be shared between
// parents, which is how tests build cycles and repeated references.
type Fake struct {
	Drives   []model.SharedDrive
	PageSize int

	// Injected failures, keyed by ID. ListErrors is keyed by "folderID#page".
	NameErrors   map[string]error
	ListErrors   map[string]error
	DeleteErrors map[string]error
	ExistsErrors map[string]error
	// IDs whose delete call succeeds without removing the file
	Undeletable map[string]bool

	// Recorded calls
	FirstPageLists []string
	Deleted        []string
	Trashed        []string
	ExistsChecks   []string

	folders map[string]*fakeFolder
	files   map[string]bool
}

// NewFake returns an empty tree with a page size of two, so most tests paginate
func NewFake() *Fake {
	return &Fake{
		PageSize:     2,
		NameErrors:   map[string]error{},
		ListErrors:   map[string]error{},
		DeleteErrors: map[string]error{},
		ExistsErrors: map[string]error{},
		Undeletable:  map[string]bool{},
		folders:      map[string]*fakeFolder{},
		files:        map[string]bool{},
	}
}

// AddRoot registers a folder with no parent
func (f *Fake) AddRoot(id, name string) {
	f.folders[id] = &fakeFolder{name: name}
}

// AddFolder registers a folder and links it under parentID
func (f *Fake) AddFolder(parentID, id, name string) {
	if _, ok := f.folders[id]; !ok {
		f.folders[id] = &fakeFolder{name: name}
	}
	f.link(parentID, model.Entry{ID: id, Name: name, MimeType: model.FolderMimeType})
}

// AddFile registers a file under parentID
func (f *Fake) AddFile(parentID, id, name, modified string) {
	f.files[id] = true
	f.link(parentID, model.Entry{ID: id, Name: name, MimeType: "application/pdf", ModifiedTime: modified})
}

// LinkFolder adds an existing folder as a child of parentID again
func (f *Fake) LinkFolder(parentID, id string) {
	folder, ok := f.folders[id]
	if !ok {
		panic(fmt.Sprintf("apitest: unknown folder %s", id))
	}
	f.link(parentID, model.Entry{ID: id, Name: folder.name, MimeType: model.FolderMimeType})
}

// Exists reports whether the file is still present
func (f *Fake) Exists(id string) bool {
	return f.files[id]
}

func (f *Fake) link(parentID string, entry model.Entry) {
	parent, ok := f.folders[parentID]
	if !ok {
		panic(fmt.Sprintf("apitest: unknown parent %s", parentID))
	}
	parent.children = append(parent.children, entry)
}

func notFound(id string) error {
	return api.NewError(http.StatusNotFound, "File not found: "+id)
}

func (f *Fake) ListSharedDrives(_ context.Context) ([]model.SharedDrive, error) {
	return f.Drives, nil
}

func (f *Fake) GetFolderName(_ context.Context, folderID string) (string, error) {
	if err := f.NameErrors[folderID]; err != nil {
		return "", err
	}
	folder, ok := f.folders[folderID]
	if !ok {
		return "", notFound(folderID)
	}
	return folder.name, nil
}

func (f *Fake) ListChildren(ctx context.Context, folderID string, pageToken string) (*api.ChildPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page := 0
	if pageToken != "" {
		n, err := strconv.Atoi(pageToken)
		if err != nil {
			return nil, api.NewError(http.StatusBadRequest, "invalid page token")
		}
		page = n
	}
	if page == 0 {
		f.FirstPageLists = append(f.FirstPageLists, folderID)
	}

	if err := f.ListErrors[fmt.Sprintf("%s#%d", folderID, page)]; err != nil {
		return nil, err
	}

	folder, ok := f.folders[folderID]
	if !ok {
		return nil, notFound(folderID)
	}

	size := f.PageSize
	if size <= 0 {
		size = len(folder.children) + 1
	}
	start := page * size
	if start > len(folder.children) {
		start = len(folder.children)
	}
	end := start + size
	if end > len(folder.children) {
		end = len(folder.children)
	}

	result := &api.ChildPage{Entries: append([]model.Entry(nil), folder.children[start:end]...)}
	if end < len(folder.children) {
		result.NextPageToken = strconv.Itoa(page + 1)
	}
	return result, nil
}

func (f *Fake) DeleteFile(_ context.Context, fileID string) error {
	if err := f.DeleteErrors[fileID]; err != nil {
		return err
	}
	if !f.files[fileID] {
		return notFound(fileID)
	}
	f.Deleted = append(f.Deleted, fileID)
	if !f.Undeletable[fileID] {
		delete(f.files, fileID)
	}
	return nil
}

func (f *Fake) TrashFile(_ context.Context, fileID string) error {
	if err := f.DeleteErrors[fileID]; err != nil {
		return err
	}
	if !f.files[fileID] {
		return notFound(fileID)
	}
	f.Trashed = append(f.Trashed, fileID)
	if !f.Undeletable[fileID] {
		delete(f.files, fileID)
	}
	return nil
}

func (f *Fake) FileExists(_ context.Context, fileID string) (bool, error) {
	f.ExistsChecks = append(f.ExistsChecks, fileID)
	if err := f.ExistsErrors[fileID]; err != nil {
		return false, err
	}
	return f.files[fileID], nil
}

var _ api.StorageClient = (*Fake)(nil)
