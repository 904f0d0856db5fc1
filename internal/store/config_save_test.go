package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/seong-yoon-choi/onbure-sub000/internal/canvas"
)

func TestLoadConfig_MissingIsEmpty(t *testing.T) {
	t.Setenv("ONBURE_CONFIG_DIR", t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Team != "" || cfg.Layout != nil {
		t.Fatalf("expected empty config, got %#v", cfg)
	}
	if got := cfg.DebounceOrDefault(); got != DefaultDebounce {
		t.Fatalf("expected default debounce, got %s", got)
	}
}

func TestSaveConfig_RoundTripYAML(t *testing.T) {
	cfgDir := t.TempDir()
	t.Setenv("ONBURE_CONFIG_DIR", cfgDir)

	want := &Config{
		Team:     "team-a",
		Mode:     "team",
		Viewer:   "u1",
		LogLevel: "debug",
		Debounce: 500 * time.Millisecond,
		Layout:   &LayoutConfig{Width: 1200, DragThreshold: 6},
	}
	if err := SaveConfig(want); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(cfgDir, "config.yaml"))
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(raw), "debounce: 500ms") {
		t.Fatalf("expected human-readable duration, got:\n%s", raw)
	}

	got, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got.Team != "team-a" || got.Viewer != "u1" || got.Debounce != 500*time.Millisecond {
		t.Fatalf("unexpected config: %#v", got)
	}

	l := got.ApplyLayout(canvas.DefaultLayout())
	if l.Width != 1200 || l.Height != 800 || l.DragThreshold != 6 {
		t.Fatalf("unexpected layout overlay: %+v", l)
	}
}

func TestSaveConfig_ConcurrentWriters_DoesNotCorruptConfig(t *testing.T) {
	cfgDir := t.TempDir()
	t.Setenv("ONBURE_CONFIG_DIR", cfgDir)

	if err := SaveConfig(&Config{Team: "seed"}); err != nil {
		t.Fatalf("SaveConfig(seed): %v", err)
	}

	const n = 64
	errCh := make(chan error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			cfg, err := LoadConfig()
			if err != nil {
				errCh <- err
				return
			}
			cfg.Viewer = fmt.Sprintf("u-%d", i)
			if err := SaveConfig(cfg); err != nil {
				errCh <- err
			}
		}(i)
	}

	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Errorf("concurrent SaveConfig: %v", err)
	}
	if t.Failed() {
		return
	}

	raw, err := os.ReadFile(filepath.Join(cfgDir, "config.yaml"))
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		t.Fatalf("config is not valid YAML: %v\n%s", err, raw)
	}
	if cfg.Team != "seed" || !strings.HasPrefix(cfg.Viewer, "u-") {
		t.Fatalf("unexpected final config: %#v", cfg)
	}

	ents, err := os.ReadDir(cfgDir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, e := range ents {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Fatalf("leftover temp file: %s", e.Name())
		}
	}
}

func TestConfigStateKV(t *testing.T) {
	dir := t.TempDir()

	kv, err := (&Config{}).StateKV(dir, nil)
	if err != nil {
		t.Fatalf("default backend: %v", err)
	}
	if _, ok := kv.(*SQLiteKV); !ok {
		t.Fatalf("expected *SQLiteKV by default, got %T", kv)
	}

	kv, err = (&Config{State: "files"}).StateKV(dir, nil)
	if err != nil {
		t.Fatalf("files backend: %v", err)
	}
	if fk, ok := kv.(FileKV); !ok || fk.Dir != dir {
		t.Fatalf("expected FileKV at %s, got %#v", dir, kv)
	}

	if _, err := (&Config{State: "redis"}).StateKV(dir, nil); err == nil {
		t.Fatalf("expected an error for an unknown backend")
	}
}
