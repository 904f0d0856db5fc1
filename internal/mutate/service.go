package mutate

import (
	"context"
	"errors"

	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
	"github.com/seong-yoon-choi/onbure-sub000/internal/store"
)

// DataService is the remote side of every source entity. Mutations here are confirmed before
// callers touch any local cache. *store.Directory implements it.
//
// Errors wrapping store.ErrNotFound and store.ErrDuplicateShare are mapped to NotFoundError and
// ConflictError; anything else becomes a RemoteError.
type DataService interface {
	ListFiles(ctx context.Context, scope model.Scope) ([]model.File, error)
	ListMembers(ctx context.Context, teamID string) ([]model.Member, error)
	CreateFile(ctx context.Context, f model.File) (model.File, error)
	RenameFile(ctx context.Context, id, title string) (model.File, error)
	SetFileFolder(ctx context.Context, id, folderID string) (model.File, error)
	UploadFile(ctx context.Context, scope model.Scope, srcPath, title string, maxBytes int64) (model.File, error)
	DeleteFile(ctx context.Context, id string) error
	SetMemberRole(ctx context.Context, teamID, userID string, role model.Role) (model.Member, error)
	ShareFile(ctx context.Context, fileID, fromID, toID string, resend bool) (model.Share, error)
}

var _ DataService = (*store.Directory)(nil)

func remote(op, kind, id string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return NotFoundError{Kind: kind, ID: id}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return RemoteError{Op: op, Err: err}
}

func findFile(files []model.File, id string) (model.File, bool) {
	for _, f := range files {
		if f.ID == id {
			return f, true
		}
	}
	return model.File{}, false
}

func findMember(members []model.Member, userID string) (model.Member, bool) {
	for _, m := range members {
		if m.UserID == userID {
			return m, true
		}
	}
	return model.Member{}, false
}
