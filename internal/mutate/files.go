package mutate

import (
	"context"
	"errors"
	"strings"

	"github.com/seong-yoon-choi/onbure-sub000/internal/folder"
	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
	"github.com/seong-yoon-choi/onbure-sub000/internal/perm"
	"github.com/seong-yoon-choi/onbure-sub000/internal/store"
)

// FileResult is a confirmed file change. Changed is false for no-ops (nothing was sent).
type FileResult struct {
	File    model.File
	Changed bool
}

func CreateFile(ctx context.Context, svc DataService, scope model.Scope, title, folderID string, files []model.File) (model.File, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.File{}, ValidationError{Field: "title", Reason: "empty"}
	}
	if strings.HasPrefix(title, folder.Marker) {
		return model.File{}, ValidationError{Field: "title", Reason: "reserved folder prefix"}
	}
	folderID = strings.TrimSpace(folderID)
	if folderID != "" && !folder.FolderSet(files)[folderID] {
		return model.File{}, ValidationError{Field: "folder", Reason: "not a folder: " + folderID}
	}
	f, err := svc.CreateFile(ctx, model.File{
		TeamID:   scope.TeamID,
		Mode:     scope.Mode,
		OwnerID:  scope.ViewerID,
		Title:    title,
		FolderID: folderID,
	})
	if err != nil {
		return model.File{}, remote("create file", "file", title, err)
	}
	return f, nil
}

func CreateFolder(ctx context.Context, svc DataService, scope model.Scope, name string) (model.File, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.File{}, ValidationError{Field: "name", Reason: "empty"}
	}
	f, err := svc.CreateFile(ctx, model.File{
		TeamID:  scope.TeamID,
		Mode:    scope.Mode,
		OwnerID: scope.ViewerID,
		Title:   folder.FolderTitle(name),
	})
	if err != nil {
		return model.File{}, remote("create folder", "folder", name, err)
	}
	return f, nil
}

// RenameFile renames a file or folder. Folders keep their marker.
func RenameFile(ctx context.Context, svc DataService, id perm.Identity, files []model.File, fileID, title string) (FileResult, error) {
	f, ok := findFile(files, fileID)
	if !ok {
		return FileResult{}, NotFoundError{Kind: "file", ID: fileID}
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return FileResult{}, ValidationError{Field: "title", Reason: "empty"}
	}
	if !perm.CanEditFile(id, f) {
		return FileResult{}, OwnerOnlyError{ViewerID: id.ViewerID, OwnerID: f.OwnerID, FileID: f.ID}
	}
	if folder.IsFolder(f) {
		title = folder.FolderTitle(strings.TrimPrefix(title, folder.Marker))
	} else if strings.HasPrefix(title, folder.Marker) {
		return FileResult{}, ValidationError{Field: "title", Reason: "reserved folder prefix"}
	}
	if title == f.Title {
		return FileResult{File: f}, nil
	}
	next, err := svc.RenameFile(ctx, f.ID, title)
	if err != nil {
		return FileResult{}, remote("rename file", "file", f.ID, err)
	}
	return FileResult{File: next, Changed: true}, nil
}

// MoveFileToFolder sets a file's folder ("" moves it to root).
func MoveFileToFolder(ctx context.Context, svc DataService, id perm.Identity, files []model.File, fileID, folderID string) (FileResult, error) {
	folderID = strings.TrimSpace(folderID)
	if err := folder.ValidateTarget(files, fileID, folderID); err != nil {
		if errors.Is(err, folder.ErrUnknownFile) {
			return FileResult{}, NotFoundError{Kind: "file", ID: fileID}
		}
		return FileResult{}, ValidationError{Field: "folder", Reason: err.Error()}
	}
	f, _ := findFile(files, fileID)
	if !perm.CanEditFile(id, f) {
		return FileResult{}, OwnerOnlyError{ViewerID: id.ViewerID, OwnerID: f.OwnerID, FileID: f.ID}
	}
	if folder.Resolve(f, folder.FolderSet(files)) == folderID {
		return FileResult{File: f}, nil
	}
	next, err := svc.SetFileFolder(ctx, f.ID, folderID)
	if err != nil {
		return FileResult{}, remote("move file", "file", f.ID, err)
	}
	return FileResult{File: next, Changed: true}, nil
}

func UploadFile(ctx context.Context, svc DataService, scope model.Scope, srcPath, title string) (model.File, error) {
	if strings.TrimSpace(srcPath) == "" {
		return model.File{}, ValidationError{Field: "path", Reason: "empty"}
	}
	if strings.HasPrefix(strings.TrimSpace(title), folder.Marker) {
		return model.File{}, ValidationError{Field: "title", Reason: "reserved folder prefix"}
	}
	f, err := svc.UploadFile(ctx, scope, srcPath, title, store.DefaultUploadMaxBytes)
	if err != nil {
		if errors.Is(err, store.ErrUploadTooLarge) {
			return model.File{}, ValidationError{Field: "path", Reason: err.Error()}
		}
		return model.File{}, remote("upload file", "file", srcPath, err)
	}
	return f, nil
}

func DeleteFile(ctx context.Context, svc DataService, id perm.Identity, files []model.File, fileID string) error {
	f, ok := findFile(files, fileID)
	if !ok {
		return NotFoundError{Kind: "file", ID: fileID}
	}
	if !perm.CanEditFile(id, f) {
		return OwnerOnlyError{ViewerID: id.ViewerID, OwnerID: f.OwnerID, FileID: f.ID}
	}
	return remote("delete file", "file", f.ID, svc.DeleteFile(ctx, f.ID))
}

// ShareFile sends a file to another team member. A repeat share fails with ConflictError
// unless resend is set.
func ShareFile(ctx context.Context, svc DataService, id perm.Identity, files []model.File, members []model.Member, fileID, toID string, resend bool) (model.Share, error) {
	f, ok := findFile(files, fileID)
	if !ok {
		return model.Share{}, NotFoundError{Kind: "file", ID: fileID}
	}
	if folder.IsFolder(f) {
		return model.Share{}, ValidationError{Field: "file", Reason: "folders cannot be shared"}
	}
	toID = strings.TrimSpace(toID)
	if toID == "" {
		return model.Share{}, ValidationError{Field: "to", Reason: "empty"}
	}
	if toID == id.ViewerID {
		return model.Share{}, ValidationError{Field: "to", Reason: "cannot share with yourself"}
	}
	if _, ok := findMember(perm.ShareTargets(id, members), toID); !ok {
		return model.Share{}, ValidationError{Field: "to", Reason: "not a team member: " + toID}
	}
	sh, err := svc.ShareFile(ctx, f.ID, id.ViewerID, toID, resend)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateShare) {
			return model.Share{}, ConflictError{Kind: "share", ID: f.ID, Detail: "already shared with " + toID}
		}
		return model.Share{}, remote("share file", "file", f.ID, err)
	}
	return sh, nil
}
