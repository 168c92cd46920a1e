package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultNormalizeAndValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.Navigation.LerpFactor != 0.08 {
		t.Fatalf("unexpected lerp factor: %v", cfg.Navigation.LerpFactor)
	}
	if cfg.Navigation.Epsilon != 0.01 {
		t.Fatalf("unexpected epsilon: %v", cfg.Navigation.Epsilon)
	}
	if !filepath.IsAbs(cfg.Paths.DataDir) {
		t.Fatalf("data dir not expanded: %q", cfg.Paths.DataDir)
	}
}

func TestLoadParsesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
[paths]
data_dir = "` + filepath.Join(dir, "public") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"
api_bind = "127.0.0.1:0"

[server]
base_url = "http://localhost:9000/"

[navigation]
lerp_factor = 0.1
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected resolved existing path, got %q exists=%v", resolved, exists)
	}
	if cfg.Server.BaseURL != "http://localhost:9000" {
		t.Fatalf("base url not trimmed: %q", cfg.Server.BaseURL)
	}
	if cfg.Navigation.LerpFactor != 0.1 {
		t.Fatalf("lerp factor not applied: %v", cfg.Navigation.LerpFactor)
	}
	if cfg.Navigation.Epsilon != defaultEpsilon {
		t.Fatalf("epsilon default missing: %v", cfg.Navigation.Epsilon)
	}
}

func TestValidateRejectsBadNavigation(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	cfg.Navigation.LerpFactor = 1.5
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "lerp_factor") {
		t.Fatalf("expected lerp_factor error, got %v", err)
	}
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Paths.DataDir = filepath.Join(dir, "public")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	cfg.Paths.CacheDB = filepath.Join(dir, "cache", "annotations.db")
	cfg.Paths.BlobDB = filepath.Join(dir, "cache", "blobs.db")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	for _, want := range []string{cfg.SceneAssetDir(), cfg.HotspotAssetDir(), filepath.Dir(cfg.DocumentPath())} {
		if info, err := os.Stat(want); err != nil || !info.IsDir() {
			t.Fatalf("missing directory %q: %v", want, err)
		}
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("create sample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[navigation]") {
		t.Fatalf("sample missing navigation section")
	}
}
