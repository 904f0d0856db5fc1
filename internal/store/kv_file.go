package store

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// FileKV stores each key as one file under Dir/state. Writes are atomic (temp file + rename).
type FileKV struct {
	Dir string
}

func (f FileKV) stateDir() string {
	return filepath.Join(f.Dir, "state")
}

func (f FileKV) path(key string) string {
	return filepath.Join(f.stateDir(), url.PathEscape(key)+".json")
}

func (f FileKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	if strings.TrimSpace(f.Dir) == "" {
		return nil, false, nil
	}
	b, err := os.ReadFile(f.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

func (f FileKV) Set(_ context.Context, key string, value []byte) error {
	if strings.TrimSpace(f.Dir) == "" {
		return errors.New("file kv: missing dir")
	}
	dir := f.stateDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return atomicWriteFile(dir, "state.*.tmp", f.path(key), value, 0o644)
}
