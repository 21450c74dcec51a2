package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/doeshing/smartos-go/internal/domain"
)

func TestLoadWritesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg, err := NewFileLoader(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if cfg.ResponseTimeout != 3 || !cfg.FallbackMode || cfg.ConfidenceThreshold != 0.3 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.GetHistoryBackend() != domain.HistoryBackendSQLite {
		t.Errorf("backend = %s", cfg.GetHistoryBackend())
	}
	if !filepath.IsAbs(cfg.Screenshots.Dir) {
		t.Errorf("screenshots dir should be expanded, got %q", cfg.Screenshots.Dir)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "log_level: DEBUG\nresponse_timeout: 1.5\nsupported_apps:\n  - name: spotify\n    aliases: [music]\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := NewFileLoader(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.LogLevel != "DEBUG" || cfg.ResponseTimeout != 1.5 {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if !cfg.FallbackMode {
		t.Error("unset fallback_mode should keep its default")
	}
	if !cfg.HasApp("spotify") {
		t.Error("supported_apps not loaded")
	}
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("response_timeout: [oops"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileLoader(path).Load(context.Background()); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestPathFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.yaml")
	t.Setenv(EnvConfigPath, path)
	if got := NewFileLoader("").Path(); got != path {
		t.Errorf("Path = %q, want %q", got, path)
	}
}
