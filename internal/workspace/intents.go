package workspace

import (
	"context"
	"errors"
	"fmt"

	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
	"github.com/seong-yoon-choi/onbure-sub000/internal/mutate"
)

// ErrNoService is returned by source mutations on an engine built without a data service.
var ErrNoService = errors.New("workspace: no data service configured")

type IntentKind string

const (
	IntentShareFile  IntentKind = "share_file"
	IntentChangeRole IntentKind = "change_role"
	IntentDeleteFile IntentKind = "delete_file"
)

// Intent is a discrete request the engine forwards to the data service.
type Intent struct {
	Kind   IntentKind `json:"kind"`
	FileID string     `json:"fileId,omitempty"`
	UserID string     `json:"userId,omitempty"`
	Role   model.Role `json:"role,omitempty"`
	Resend bool       `json:"resend,omitempty"`
}

type IntentResult struct {
	Share  *model.Share  `json:"share,omitempty"`
	Member *model.Member `json:"member,omitempty"`
}

// Dispatch runs an intent through validation and the data service. Caches change only after
// the service confirms. A duplicate share leaves a conflict notice carrying the resend intent.
func (e *Engine) Dispatch(ctx context.Context, in Intent) (IntentResult, error) {
	if e.svc == nil {
		return IntentResult{}, ErrNoService
	}
	switch in.Kind {
	case IntentShareFile:
		sh, err := mutate.ShareFile(ctx, e.svc, e.identity, e.files, e.members, in.FileID, in.UserID, in.Resend)
		if err != nil {
			e.fail(err)
			var ce mutate.ConflictError
			if errors.As(err, &ce) {
				retry := in
				retry.Resend = true
				e.notice.Retry = &retry
			}
			return IntentResult{}, err
		}
		e.log.Info().Str("file", sh.FileID).Str("to", sh.ToID).Bool("resend", in.Resend).Msg("file shared")
		e.changed()
		return IntentResult{Share: &sh}, nil

	case IntentChangeRole:
		res, err := mutate.SetMemberRole(ctx, e.svc, e.identity, e.members, in.UserID, in.Role)
		if err != nil {
			e.fail(err)
			return IntentResult{}, err
		}
		if res.Changed {
			members := e.Members()
			for i := range members {
				if members[i].UserID == res.Member.UserID {
					members[i].Role = res.Member.Role
				}
			}
			e.SyncSources(e.files, members)
		}
		return IntentResult{Member: &res.Member}, nil

	case IntentDeleteFile:
		if err := mutate.DeleteFile(ctx, e.svc, e.identity, e.files, in.FileID); err != nil {
			e.fail(err)
			return IntentResult{}, err
		}
		files := make([]model.File, 0, len(e.files))
		for _, f := range e.files {
			if f.ID != in.FileID {
				files = append(files, f)
			}
		}
		e.SyncSources(files, e.members)
		return IntentResult{}, nil
	}
	err := mutate.ValidationError{Field: "intent", Reason: fmt.Sprintf("unknown kind %q", in.Kind)}
	e.fail(err)
	return IntentResult{}, err
}

func (e *Engine) CreateFile(ctx context.Context, title, folderID string) (model.File, error) {
	if e.svc == nil {
		return model.File{}, ErrNoService
	}
	f, err := mutate.CreateFile(ctx, e.svc, e.scope, title, folderID, e.files)
	if err != nil {
		e.fail(err)
		return model.File{}, err
	}
	e.SyncSources(append(e.Files(), f), e.members)
	return f, nil
}

func (e *Engine) CreateFolder(ctx context.Context, name string) (model.File, error) {
	if e.svc == nil {
		return model.File{}, ErrNoService
	}
	f, err := mutate.CreateFolder(ctx, e.svc, e.scope, name)
	if err != nil {
		e.fail(err)
		return model.File{}, err
	}
	e.SyncSources(append(e.Files(), f), e.members)
	return f, nil
}

func (e *Engine) RenameFile(ctx context.Context, fileID, title string) (model.File, error) {
	if e.svc == nil {
		return model.File{}, ErrNoService
	}
	res, err := mutate.RenameFile(ctx, e.svc, e.identity, e.files, fileID, title)
	if err != nil {
		e.fail(err)
		return model.File{}, err
	}
	if res.Changed {
		e.replaceFile(res.File)
	}
	return res.File, nil
}

// MoveFileToFolder files a document under folderID ("" is root) once the service confirms.
func (e *Engine) MoveFileToFolder(ctx context.Context, fileID, folderID string) (model.File, error) {
	if e.svc == nil {
		return model.File{}, ErrNoService
	}
	res, err := mutate.MoveFileToFolder(ctx, e.svc, e.identity, e.files, fileID, folderID)
	if err != nil {
		e.fail(err)
		return model.File{}, err
	}
	if res.Changed {
		e.replaceFile(res.File)
	}
	return res.File, nil
}

func (e *Engine) UploadFile(ctx context.Context, srcPath, title string) (model.File, error) {
	if e.svc == nil {
		return model.File{}, ErrNoService
	}
	f, err := mutate.UploadFile(ctx, e.svc, e.scope, srcPath, title)
	if err != nil {
		e.fail(err)
		return model.File{}, err
	}
	e.SyncSources(append(e.Files(), f), e.members)
	return f, nil
}

func (e *Engine) replaceFile(f model.File) {
	files := e.Files()
	for i := range files {
		if files[i].ID == f.ID {
			files[i] = f
		}
	}
	e.SyncSources(files, e.members)
}
