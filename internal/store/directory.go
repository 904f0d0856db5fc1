package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateShare = errors.New("file already shared with recipient")
)

// Directory is the local data service: files, team members and shares in the workspace database.
type Directory struct {
	db   *sql.DB
	root string
	now  func() time.Time
}

func NewDirectory(db *sql.DB, root string) *Directory {
	return &Directory{db: db, root: root, now: func() time.Time { return time.Now().UTC() }}
}

// ListFiles returns the files visible in scope: the viewer's own files in personal mode,
// every team file in team mode. Oldest first.
func (d *Directory) ListFiles(ctx context.Context, scope model.Scope) ([]model.File, error) {
	q := `SELECT json FROM files WHERE team_id = ? AND mode = ?`
	args := []any{scope.TeamID, string(scope.Mode)}
	if scope.Mode == model.ModePersonal {
		q += ` AND owner_id = ?`
		args = append(args, scope.ViewerID)
	}
	q += ` ORDER BY created_at_unixms, id`
	rows, err := d.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.File{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var f model.File
		if err := json.Unmarshal([]byte(raw), &f); err != nil {
			return nil, fmt.Errorf("decode file row: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (d *Directory) GetFile(ctx context.Context, id string) (model.File, error) {
	var raw string
	err := d.db.QueryRowContext(ctx, `SELECT json FROM files WHERE id = ?`, strings.TrimSpace(id)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return model.File{}, fmt.Errorf("file %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.File{}, err
	}
	var f model.File
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		return model.File{}, fmt.Errorf("decode file row: %w", err)
	}
	return f, nil
}

func (d *Directory) CreateFile(ctx context.Context, f model.File) (model.File, error) {
	f.Title = strings.TrimSpace(f.Title)
	if f.Title == "" {
		return model.File{}, errors.New("file title is empty")
	}
	if f.ID == "" {
		f.ID = NewID("file")
	}
	now := d.now()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	f.UpdatedAt = now
	if err := d.putFile(ctx, f, true); err != nil {
		return model.File{}, err
	}
	return f, nil
}

func (d *Directory) RenameFile(ctx context.Context, id, title string) (model.File, error) {
	f, err := d.GetFile(ctx, id)
	if err != nil {
		return model.File{}, err
	}
	f.Title = strings.TrimSpace(title)
	f.UpdatedAt = d.now()
	return f, d.putFile(ctx, f, false)
}

func (d *Directory) SetFileFolder(ctx context.Context, id, folderID string) (model.File, error) {
	f, err := d.GetFile(ctx, id)
	if err != nil {
		return model.File{}, err
	}
	f.FolderID = strings.TrimSpace(folderID)
	f.UpdatedAt = d.now()
	return f, d.putFile(ctx, f, false)
}

func (d *Directory) DeleteFile(ctx context.Context, id string) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM files WHERE id = ?`, strings.TrimSpace(id))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("file %s: %w", id, ErrNotFound)
	}
	_, err = d.db.ExecContext(ctx, `DELETE FROM shares WHERE file_id = ?`, strings.TrimSpace(id))
	return err
}

func (d *Directory) putFile(ctx context.Context, f model.File, insert bool) error {
	raw, err := json.Marshal(f)
	if err != nil {
		return err
	}
	stmt := `INSERT INTO files(id, team_id, mode, owner_id, title, folder_id, created_at_unixms, json, updated_at_unixms)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if !insert {
		stmt = `INSERT OR REPLACE INTO files(id, team_id, mode, owner_id, title, folder_id, created_at_unixms, json, updated_at_unixms)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`
	}
	_, err = d.db.ExecContext(ctx, stmt,
		f.ID, f.TeamID, string(f.Mode), f.OwnerID, f.Title, f.FolderID,
		f.CreatedAt.UTC().UnixMilli(), string(raw), f.UpdatedAt.UTC().UnixMilli())
	return err
}

func (d *Directory) ListMembers(ctx context.Context, teamID string) ([]model.Member, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT user_id, name, role FROM members WHERE team_id = ? ORDER BY name, user_id`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Member{}
	for rows.Next() {
		m := model.Member{TeamID: teamID}
		var role string
		if err := rows.Scan(&m.UserID, &m.Name, &role); err != nil {
			return nil, err
		}
		m.Role = model.Role(role)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (d *Directory) UpsertMember(ctx context.Context, m model.Member) (model.Member, error) {
	m.UserID = strings.TrimSpace(m.UserID)
	m.TeamID = strings.TrimSpace(m.TeamID)
	if m.UserID == "" || m.TeamID == "" {
		return model.Member{}, errors.New("member: missing team or user id")
	}
	if strings.TrimSpace(m.Name) == "" {
		m.Name = m.UserID
	}
	if m.Role == "" {
		m.Role = model.RoleMember
	}
	_, err := d.db.ExecContext(ctx, `INSERT INTO members(team_id, user_id, name, role, updated_at_unixms) VALUES(?, ?, ?, ?, ?)
		ON CONFLICT(team_id, user_id) DO UPDATE SET name = excluded.name, role = excluded.role, updated_at_unixms = excluded.updated_at_unixms`,
		m.TeamID, m.UserID, strings.TrimSpace(m.Name), string(m.Role), d.now().UnixMilli())
	return m, err
}

func (d *Directory) SetMemberRole(ctx context.Context, teamID, userID string, role model.Role) (model.Member, error) {
	res, err := d.db.ExecContext(ctx, `UPDATE members SET role = ?, updated_at_unixms = ? WHERE team_id = ? AND user_id = ?`,
		string(role), d.now().UnixMilli(), teamID, userID)
	if err != nil {
		return model.Member{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Member{}, fmt.Errorf("member %s: %w", userID, ErrNotFound)
	}
	members, err := d.ListMembers(ctx, teamID)
	if err != nil {
		return model.Member{}, err
	}
	for _, m := range members {
		if m.UserID == userID {
			return m, nil
		}
	}
	return model.Member{}, fmt.Errorf("member %s: %w", userID, ErrNotFound)
}

// ShareFile records that fromID sent fileID to toID. A second share to the same recipient
// fails with ErrDuplicateShare unless resend is set, which refreshes the existing share.
func (d *Directory) ShareFile(ctx context.Context, fileID, fromID, toID string, resend bool) (model.Share, error) {
	if _, err := d.GetFile(ctx, fileID); err != nil {
		return model.Share{}, err
	}
	now := d.now()
	var existing model.Share
	var createdMs int64
	err := d.db.QueryRowContext(ctx, `SELECT id, from_id, created_at_unixms FROM shares WHERE file_id = ? AND to_id = ?`, fileID, toID).
		Scan(&existing.ID, &existing.FromID, &createdMs)
	switch {
	case err == nil:
		if !resend {
			return model.Share{}, fmt.Errorf("share %s to %s: %w", fileID, toID, ErrDuplicateShare)
		}
		if _, err := d.db.ExecContext(ctx, `UPDATE shares SET from_id = ?, created_at_unixms = ? WHERE id = ?`, fromID, now.UnixMilli(), existing.ID); err != nil {
			return model.Share{}, err
		}
		return model.Share{ID: existing.ID, FileID: fileID, FromID: fromID, ToID: toID, CreatedAt: now}, nil
	case errors.Is(err, sql.ErrNoRows):
	default:
		return model.Share{}, err
	}
	sh := model.Share{ID: NewID("shr"), FileID: fileID, FromID: fromID, ToID: toID, CreatedAt: now}
	if _, err := d.db.ExecContext(ctx, `INSERT INTO shares(id, file_id, from_id, to_id, created_at_unixms) VALUES(?, ?, ?, ?, ?)`,
		sh.ID, sh.FileID, sh.FromID, sh.ToID, now.UnixMilli()); err != nil {
		return model.Share{}, err
	}
	return sh, nil
}

func (d *Directory) ListShares(ctx context.Context, fileID string) ([]model.Share, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT id, from_id, to_id, created_at_unixms FROM shares WHERE file_id = ? ORDER BY created_at_unixms, id`, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Share{}
	for rows.Next() {
		sh := model.Share{FileID: fileID}
		var ms int64
		if err := rows.Scan(&sh.ID, &sh.FromID, &sh.ToID, &ms); err != nil {
			return nil, err
		}
		sh.CreatedAt = time.UnixMilli(ms).UTC()
		out = append(out, sh)
	}
	return out, rows.Err()
}
