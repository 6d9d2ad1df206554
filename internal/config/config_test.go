package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vignette/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestLoadMissingExplicitPathUsesDefaults(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.toml")

	cfg, resolved, exists, err := config.Load(missing)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("exists should be false for a missing file")
	}
	if resolved != missing {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if cfg.Paths.APIBind != "127.0.0.1:7519" {
		t.Fatalf("unexpected default bind %q", cfg.Paths.APIBind)
	}
	if cfg.Pipeline.DefaultSceneCount != 4 {
		t.Fatalf("unexpected default scene count %d", cfg.Pipeline.DefaultSceneCount)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vignette.toml")
	content := `
[paths]
generations_dir = "` + filepath.Join(dir, "gens") + `"
catalog_db_path = "` + filepath.Join(dir, "catalog.db") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"
api_bind = "0.0.0.0:9000"

[genai]
api_key = "secret"
text_model = "custom/text"

[pipeline]
default_scene_count = 6
max_concurrency = 2
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("exists should be true")
	}
	if cfg.Paths.APIBind != "0.0.0.0:9000" {
		t.Fatalf("unexpected bind %q", cfg.Paths.APIBind)
	}
	if cfg.GenAI.APIKey != "secret" {
		t.Fatalf("unexpected api key %q", cfg.GenAI.APIKey)
	}
	if cfg.GenAI.TextModel != "custom/text" {
		t.Fatalf("unexpected text model %q", cfg.GenAI.TextModel)
	}
	// Untouched sections keep their defaults.
	if cfg.GenAI.ImageModel != "google/gemini-3-pro-image-preview" {
		t.Fatalf("unexpected image model %q", cfg.GenAI.ImageModel)
	}
	if cfg.Pipeline.DefaultSceneCount != 6 || cfg.Pipeline.MaxConcurrency != 2 {
		t.Fatalf("pipeline overrides not applied: %+v", cfg.Pipeline)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	cases := []struct {
		name    string
		section string
		wantMsg string
	}{
		{"scene count", "[pipeline]\ndefault_scene_count = 15\n", "default_scene_count"},
		{"continuation ratio", "[pipeline]\ncontinuation_ratio = 1.5\n", "continuation_ratio"},
		{"log format", "[logging]\nformat = \"xml\"\n", "logging.format"},
		{"media max bytes", "[media]\nmax_bytes = 0\n", "max_bytes"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "vignette.toml")
			if err := os.WriteFile(path, []byte(tc.section), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, _, _, err := config.Load(path)
			if err == nil || !strings.Contains(err.Error(), tc.wantMsg) {
				t.Fatalf("expected error mentioning %q, got %v", tc.wantMsg, err)
			}
		})
	}
}

func TestLoadExpandsPaths(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vignette.toml")
	content := `
[paths]
generations_dir = "~/vignette-gens"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("home dir: %v", err)
	}
	if cfg.Paths.GenerationsDir != filepath.Join(home, "vignette-gens") {
		t.Fatalf("tilde not expanded: %q", cfg.Paths.GenerationsDir)
	}
	if !filepath.IsAbs(cfg.Paths.CatalogDBPath) {
		t.Fatalf("default catalog path not absolute: %q", cfg.Paths.CatalogDBPath)
	}
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.GenerationsDir = filepath.Join(dir, "gens")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	cfg.Paths.CatalogDBPath = filepath.Join(dir, "db", "catalog.db")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, want := range []string{
		filepath.Join(dir, "gens"),
		filepath.Join(dir, "logs"),
		filepath.Join(dir, "db"),
	} {
		info, err := os.Stat(want)
		if err != nil || !info.IsDir() {
			t.Fatalf("directory %q missing: %v", want, err)
		}
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config must load cleanly: %v", err)
	}
	if !exists {
		t.Fatal("sample config not found after CreateSample")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config must validate: %v", err)
	}
}
