package workspace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seong-yoon-choi/onbure-sub000/internal/folder"
	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
	"github.com/seong-yoon-choi/onbure-sub000/internal/mutate"
	"github.com/seong-yoon-choi/onbure-sub000/internal/store"
)

// failingService fails every mutation after the listing calls.
type failingService struct {
	*store.Directory
	err error
}

func (f failingService) SetFileFolder(context.Context, string, string) (model.File, error) {
	return model.File{}, f.err
}

func newDirectory(t *testing.T) *store.Directory {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	db, err := store.Store{Dir: dir}.OpenSQLite(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	d := store.NewDirectory(db, dir)
	for _, m := range sampleMembers {
		_, err := d.UpsertMember(ctx, m)
		require.NoError(t, err)
	}
	return d
}

func withService(svc mutate.DataService) option { return func(o *Options) { o.Service = svc } }

func TestFileOperationsConfirmBeforeApply(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t, team, withService(newDirectory(t)))
	require.NoError(t, h.Refresh(ctx))
	assert.Equal(t, model.RoleOwner, h.Identity().Role)

	docs, err := h.CreateFolder(ctx, "Docs")
	require.NoError(t, err)
	f, err := h.CreateFile(ctx, "plan.md", "")
	require.NoError(t, err)

	moved, err := h.MoveFileToFolder(ctx, f.ID, docs.ID)
	require.NoError(t, err)
	assert.Equal(t, docs.ID, moved.FolderID)

	tree := h.View().Sidebar.Files
	require.Len(t, tree.Folders, 1)
	require.Len(t, tree.Folders[0].Children, 1)
	assert.Equal(t, f.ID, tree.Folders[0].Children[0].ID)

	renamed, err := h.RenameFile(ctx, docs.ID, "Specs")
	require.NoError(t, err)
	assert.Equal(t, "Specs", folder.Name(renamed))

	open, err := h.ToggleFolder(docs.ID)
	require.NoError(t, err)
	assert.True(t, open)
	assert.True(t, h.View().Sidebar.Files.Folders[0].Open)
}

func TestRemoteFailureLeavesCacheAndSetsNotice(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := newDirectory(t)
	svc := failingService{Directory: dir, err: errors.New("service unavailable")}
	h := newHarness(t, team, withService(svc))
	require.NoError(t, h.Refresh(ctx))

	docs, err := h.CreateFolder(ctx, "Docs")
	require.NoError(t, err)
	f, err := h.CreateFile(ctx, "plan.md", "")
	require.NoError(t, err)

	_, err = h.MoveFileToFolder(ctx, f.ID, docs.ID)
	var re mutate.RemoteError
	require.True(t, errors.As(err, &re))

	for _, cached := range h.Files() {
		if cached.ID == f.ID {
			assert.Empty(t, cached.FolderID)
		}
	}
	n := h.View().Notice
	require.NotNil(t, n)
	assert.Equal(t, NoticeRemote, n.Kind)
	h.DismissNotice()
	assert.Nil(t, h.View().Notice)
}

func TestDispatchShareConflictOffersResend(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t, team, withService(newDirectory(t)))
	require.NoError(t, h.Refresh(ctx))
	f, err := h.CreateFile(ctx, "plan.md", "")
	require.NoError(t, err)

	assert.Equal(t, []string{"u2"}, memberIDs(h.View().ShareTargets))

	share := Intent{Kind: IntentShareFile, FileID: f.ID, UserID: "u2"}
	res, err := h.Dispatch(ctx, share)
	require.NoError(t, err)
	require.NotNil(t, res.Share)

	_, err = h.Dispatch(ctx, share)
	var ce mutate.ConflictError
	require.True(t, errors.As(err, &ce))
	n := h.Notice()
	require.NotNil(t, n)
	assert.Equal(t, NoticeConflict, n.Kind)
	require.NotNil(t, n.Retry)
	assert.True(t, n.Retry.Resend)

	res, err = h.Dispatch(ctx, *n.Retry)
	require.NoError(t, err)
	assert.Equal(t, "u2", res.Share.ToID)

	_, err = h.Dispatch(ctx, Intent{Kind: IntentShareFile, FileID: f.ID, UserID: "u1"})
	var ve mutate.ValidationError
	assert.True(t, errors.As(err, &ve), "self is never a share target")
}

func TestDispatchRoleAndDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t, team, withService(newDirectory(t)))
	require.NoError(t, h.Refresh(ctx))

	res, err := h.Dispatch(ctx, Intent{Kind: IntentChangeRole, UserID: "u2", Role: model.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, res.Member.Role)
	for _, m := range h.Members() {
		if m.UserID == "u2" {
			assert.Equal(t, model.RoleAdmin, m.Role)
		}
	}

	f, err := h.CreateFile(ctx, "plan.md", "")
	require.NoError(t, err)
	k := h.place(t, f.ID, model.Point{X: 100, Y: 100})
	_, err = h.CreateGroup([]model.ItemKey{k})
	require.NoError(t, err)

	_, err = h.Dispatch(ctx, Intent{Kind: IntentDeleteFile, FileID: f.ID})
	require.NoError(t, err)
	assert.Empty(t, h.FilePlacements())
	assert.Empty(t, h.Groups()[0].ItemKeys)

	_, err = h.Dispatch(ctx, Intent{Kind: "launch"})
	assert.Error(t, err)
}

func TestUploadThroughEngine(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t, personal, withService(newDirectory(t)))
	require.NoError(t, h.Refresh(ctx))

	src := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello"), 0o644))
	f, err := h.UploadFile(ctx, src, "")
	require.NoError(t, err)
	assert.Equal(t, int64(5), f.SizeBytes)
	assert.Len(t, h.Files(), 1)
}

func TestNoServiceConfigured(t *testing.T) {
	t.Parallel()

	h := newHarness(t, personal)
	_, err := h.CreateFile(context.Background(), "x.md", "")
	assert.ErrorIs(t, err, ErrNoService)
	assert.NoError(t, h.Refresh(context.Background()))
}

func memberIDs(ms []model.Member) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.UserID
	}
	return out
}
