package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
)

const DefaultUploadMaxBytes int64 = 50 * 1024 * 1024 // 50MB

var ErrUploadTooLarge = errors.New("upload too large")

func guessMimeType(filename string) string {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(filename)))
	if ext == "" {
		return ""
	}
	return mime.TypeByExtension(ext)
}

// UploadAbsPath resolves a file's stored blob path.
func (d *Directory) UploadAbsPath(f model.File) string {
	return filepath.Join(d.root, filepath.FromSlash(strings.TrimSpace(f.Path)))
}

// UploadFile copies srcPath into resources/uploads/<id>/ and records a file owned by the
// scope viewer. An empty title defaults to the source file name.
func (d *Directory) UploadFile(ctx context.Context, scope model.Scope, srcPath, title string, maxBytes int64) (model.File, error) {
	srcPath = filepath.Clean(strings.TrimSpace(srcPath))
	if srcPath == "" || srcPath == "." {
		return model.File{}, errors.New("upload: missing source path")
	}
	st, err := os.Stat(srcPath)
	if err != nil {
		return model.File{}, err
	}
	if st.IsDir() {
		return model.File{}, errors.New("upload: source path is a directory")
	}
	if maxBytes <= 0 {
		maxBytes = DefaultUploadMaxBytes
	}
	if st.Size() > maxBytes {
		return model.File{}, fmt.Errorf("upload: %d bytes > %d bytes: %w", st.Size(), maxBytes, ErrUploadTooLarge)
	}

	orig := filepath.Base(srcPath)
	if strings.TrimSpace(orig) == "" || orig == string(filepath.Separator) {
		orig = "upload"
	}
	if strings.TrimSpace(title) == "" {
		title = orig
	}

	id := NewID("file")
	destDir := filepath.Join(d.root, "resources", "uploads", id)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return model.File{}, err
	}
	destPath := filepath.Join(destDir, orig)

	in, err := os.Open(srcPath)
	if err != nil {
		return model.File{}, err
	}
	defer in.Close()

	out, err := os.OpenFile(destPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return model.File{}, err
	}
	defer func() { _ = out.Close() }()

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(out, h), io.LimitReader(in, maxBytes+1))
	if err != nil {
		return model.File{}, err
	}
	if n > maxBytes {
		_ = os.RemoveAll(destDir)
		return model.File{}, fmt.Errorf("upload: %d bytes > %d bytes: %w", n, maxBytes, ErrUploadTooLarge)
	}
	if err := out.Close(); err != nil {
		return model.File{}, err
	}

	return d.CreateFile(ctx, model.File{
		ID:        id,
		TeamID:    scope.TeamID,
		Mode:      scope.Mode,
		OwnerID:   scope.ViewerID,
		Title:     title,
		MimeType:  guessMimeType(orig),
		SizeBytes: n,
		Sha256Hex: hex.EncodeToString(h.Sum(nil)),
		Path:      filepath.ToSlash(filepath.Join("resources", "uploads", id, orig)),
	})
}
