package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/seong-yoon-choi/onbure-sub000/internal/canvas"
)

// Config is the user-level configuration at <ConfigDir>/config.yaml.
// Empty fields fall through to environment variables and built-in defaults.
type Config struct {
	// Current scope, remembered by `onbure use`.
	Team   string `yaml:"team,omitempty"`
	Mode   string `yaml:"mode,omitempty"`
	Viewer string `yaml:"viewer,omitempty"`

	// Dir is the workspace directory (default: nearest .onbure).
	Dir string `yaml:"dir,omitempty"`

	LogLevel string `yaml:"log_level,omitempty"`

	// State picks where canvas state lives: sqlite (default) or files, one JSON
	// file per scope slice under <dir>/state.
	State string `yaml:"state,omitempty"`

	// Debounce is the write coalescing window for workspace state (e.g. "250ms").
	Debounce time.Duration `yaml:"debounce,omitempty"`

	Layout *LayoutConfig `yaml:"layout,omitempty"`

	Web *WebConfig `yaml:"web,omitempty"`
}

type LayoutConfig struct {
	Width         float64 `yaml:"width,omitempty"`
	Height        float64 `yaml:"height,omitempty"`
	Padding       float64 `yaml:"padding,omitempty"`
	DragThreshold float64 `yaml:"drag_threshold,omitempty"`
	GridGap       float64 `yaml:"grid_gap,omitempty"`
}

type WebConfig struct {
	Addr string `yaml:"addr,omitempty"`
	// Auth is none|token.
	Auth     string `yaml:"auth,omitempty"`
	ReadOnly bool   `yaml:"readOnly,omitempty"`
}

// ApplyLayout overlays configured layout values onto l.
func (c *Config) ApplyLayout(l canvas.Layout) canvas.Layout {
	if c == nil || c.Layout == nil {
		return l
	}
	o := c.Layout
	if o.Width > 0 {
		l.Width = o.Width
	}
	if o.Height > 0 {
		l.Height = o.Height
	}
	if o.Padding > 0 {
		l.Padding = o.Padding
	}
	if o.DragThreshold > 0 {
		l.DragThreshold = o.DragThreshold
	}
	if o.GridGap > 0 {
		l.GridGap = o.GridGap
	}
	return l
}

// StateKV returns the configured state backend for a workspace dir.
func (c *Config) StateKV(dir string, db *sql.DB) (KV, error) {
	state := ""
	if c != nil {
		state = strings.ToLower(strings.TrimSpace(c.State))
	}
	switch state {
	case "", "sqlite":
		return NewSQLiteKV(db), nil
	case "files", "file":
		return FileKV{Dir: dir}, nil
	default:
		return nil, fmt.Errorf("unknown state backend %q (want sqlite|files)", c.State)
	}
}

func (c *Config) DebounceOrDefault() time.Duration {
	if c == nil || c.Debounce <= 0 {
		return DefaultDebounce
	}
	return c.Debounce
}

func ConfigDir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.onbure).
	if v := strings.TrimSpace(os.Getenv("ONBURE_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".onbure"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func LoadConfig() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	// CLI, TUI and web may write concurrently; a unique temp name + rename keeps the file whole.
	return atomicWriteFile(dir, "config.yaml.*.tmp", path, b, 0o600)
}
