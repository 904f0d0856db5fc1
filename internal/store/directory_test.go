package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDirectory(t *testing.T) *Directory {
	t.Helper()
	dir := t.TempDir()
	db, err := Store{Dir: dir}.OpenSQLite(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewDirectory(db, dir)
}

func TestDirectory_ListFilesByScope(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	d := newTestDirectory(t)
	mk := func(title, owner string, mode model.Mode) {
		_, err := d.CreateFile(ctx, model.File{TeamID: "t1", Mode: mode, OwnerID: owner, Title: title})
		require.NoError(t, err)
	}
	mk("mine.md", "u1", model.ModePersonal)
	mk("theirs.md", "u2", model.ModePersonal)
	mk("shared.md", "u2", model.ModeTeam)

	personal, err := d.ListFiles(ctx, model.Scope{TeamID: "t1", Mode: model.ModePersonal, ViewerID: "u1"})
	require.NoError(t, err)
	require.Len(t, personal, 1)
	assert.Equal(t, "mine.md", personal[0].Title)

	team, err := d.ListFiles(ctx, model.Scope{TeamID: "t1", Mode: model.ModeTeam, ViewerID: "u1"})
	require.NoError(t, err)
	require.Len(t, team, 1)
	assert.Equal(t, "shared.md", team[0].Title)

	other, err := d.ListFiles(ctx, model.Scope{TeamID: "t2", Mode: model.ModeTeam, ViewerID: "u1"})
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestDirectory_RenameAndMove(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	d := newTestDirectory(t)
	f, err := d.CreateFile(ctx, model.File{TeamID: "t1", Mode: model.ModeTeam, OwnerID: "u1", Title: "a.md"})
	require.NoError(t, err)

	got, err := d.RenameFile(ctx, f.ID, " b.md ")
	require.NoError(t, err)
	assert.Equal(t, "b.md", got.Title)

	got, err = d.SetFileFolder(ctx, f.ID, "dir-1")
	require.NoError(t, err)
	assert.Equal(t, "dir-1", got.FolderID)

	reloaded, err := d.GetFile(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "b.md", reloaded.Title)
	assert.Equal(t, "dir-1", reloaded.FolderID)

	_, err = d.RenameFile(ctx, "missing", "x")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, d.DeleteFile(ctx, f.ID))
	assert.ErrorIs(t, d.DeleteFile(ctx, f.ID), ErrNotFound)
}

func TestDirectory_MembersAndRoles(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	d := newTestDirectory(t)
	_, err := d.UpsertMember(ctx, model.Member{TeamID: "t1", UserID: "u1", Name: "Ada", Role: model.RoleOwner})
	require.NoError(t, err)
	_, err = d.UpsertMember(ctx, model.Member{TeamID: "t1", UserID: "u2", Name: "Bo"})
	require.NoError(t, err)

	m, err := d.SetMemberRole(ctx, "t1", "u2", model.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, m.Role)

	members, err := d.ListMembers(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "Ada", members[0].Name)

	_, err = d.SetMemberRole(ctx, "t1", "ghost", model.RoleAdmin)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDirectory_ShareDuplicateAndResend(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	d := newTestDirectory(t)
	f, err := d.CreateFile(ctx, model.File{TeamID: "t1", Mode: model.ModeTeam, OwnerID: "u1", Title: "a.md"})
	require.NoError(t, err)

	first, err := d.ShareFile(ctx, f.ID, "u1", "u2", false)
	require.NoError(t, err)

	_, err = d.ShareFile(ctx, f.ID, "u1", "u2", false)
	assert.ErrorIs(t, err, ErrDuplicateShare)

	again, err := d.ShareFile(ctx, f.ID, "u1", "u2", true)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	shares, err := d.ListShares(ctx, f.ID)
	require.NoError(t, err)
	assert.Len(t, shares, 1)
}

func TestDirectory_UploadFile(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	d := newTestDirectory(t)
	src := filepath.Join(t.TempDir(), "notes.txt")
	body := []byte("hello canvas")
	require.NoError(t, os.WriteFile(src, body, 0o644))

	scope := model.Scope{TeamID: "t1", Mode: model.ModePersonal, ViewerID: "u1"}
	f, err := d.UploadFile(ctx, scope, src, "", 0)
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", f.Title)
	assert.Equal(t, "u1", f.OwnerID)
	assert.Equal(t, int64(len(body)), f.SizeBytes)
	sum := sha256.Sum256(body)
	assert.Equal(t, hex.EncodeToString(sum[:]), f.Sha256Hex)

	stored, err := os.ReadFile(d.UploadAbsPath(f))
	require.NoError(t, err)
	assert.Equal(t, body, stored)

	_, err = d.UploadFile(ctx, scope, src, "", 4)
	assert.ErrorIs(t, err, ErrUploadTooLarge)
}
