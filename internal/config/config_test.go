package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	nerrors "github.com/abdul-hamid-achik/ntricacid/internal/errors"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Provider != ProviderGemini {
		t.Errorf("expected provider %s, got %s", ProviderGemini, cfg.Provider)
	}
	if cfg.Models.Chat != "gemini-3-flash-preview" {
		t.Errorf("unexpected chat model %s", cfg.Models.Chat)
	}
	if cfg.Models.Voice != "Kore" {
		t.Errorf("expected voice Kore, got %s", cfg.Models.Voice)
	}
	if cfg.Storage.Backend != BackendFile {
		t.Errorf("expected file backend, got %s", cfg.Storage.Backend)
	}
	if cfg.Safety.RootThreshold != "BLOCK_ONLY_HIGH" {
		t.Errorf("unexpected root threshold %s", cfg.Safety.RootThreshold)
	}
	if cfg.Offline.CacheName != "ntricacid-pwa-v14" {
		t.Errorf("unexpected cache name %s", cfg.Offline.CacheName)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	content := `provider: anthropic
data_dir: /var/lib/ntricacid
storage:
  backend: sqlite
rate_limit:
  enabled: true
  requests_per_minute: 10
breaker:
  cooldown: 45s
theme: light
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	if err := cfg.loadFromFile(configPath); err != nil {
		t.Fatalf("loadFromFile failed: %v", err)
	}

	if cfg.Provider != ProviderAnthropic {
		t.Errorf("expected provider anthropic, got %s", cfg.Provider)
	}
	if cfg.StoragePath() != "/var/lib/ntricacid/ntricacid.db" {
		t.Errorf("unexpected storage path %s", cfg.StoragePath())
	}
	if !cfg.RateLimit.Enabled || cfg.RateLimit.RequestsPerMinute != 10 {
		t.Errorf("unexpected rate limit %+v", cfg.RateLimit)
	}
	if cfg.Breaker.Cooldown != 45*time.Second || cfg.Breaker.MaxFailures != 5 {
		t.Errorf("unexpected breaker %+v", cfg.Breaker)
	}
	// keys absent from the file keep their defaults
	if cfg.RateLimit.Burst != 3 {
		t.Errorf("expected default burst 3, got %d", cfg.RateLimit.Burst)
	}
	if cfg.Models.Image != "gemini-2.5-flash-image" {
		t.Errorf("expected default image model, got %s", cfg.Models.Image)
	}
}

func TestLoadPicksFirstExistingPath(t *testing.T) {
	dir := t.TempDir()
	second := filepath.Join(dir, "second.yaml")
	if err := os.WriteFile(second, []byte("theme: light\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := load([]string{filepath.Join(dir, "missing.yaml"), second}, filepath.Join(dir, "default"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.ConfigPath() != second {
		t.Errorf("ConfigPath() = %s, want %s", cfg.ConfigPath(), second)
	}
	if cfg.Theme != "light" {
		t.Errorf("expected light theme, got %s", cfg.Theme)
	}
}

func TestLoadCreatesDefault(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "default")

	cfg, err := load(nil, dir)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	want := filepath.Join(dir, "config.yaml")
	if cfg.ConfigPath() != want {
		t.Errorf("ConfigPath() = %s, want %s", cfg.ConfigPath(), want)
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if !strings.Contains(string(data), "provider: gemini") {
		t.Errorf("default config should contain provider, got:\n%s", data)
	}
	if strings.Contains(string(data), "apikey") {
		t.Error("API key must never be written to the config file")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"provider", "provider: openai\n"},
		{"backend", "storage:\n  backend: redis\n"},
		{"threshold off", "safety:\n  root_threshold: BLOCK_NONE\n"},
		{"theme", "theme: neon\n"},
		{"rate", "rate_limit:\n  enabled: true\n  requests_per_minute: 0\n"},
		{"breaker", "breaker:\n  enabled: true\n  max_failures: 0\n"},
		{"yaml", "provider: [unterminated\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := load([]string{path}, t.TempDir())
			if err == nil {
				t.Fatal("expected error")
			}
			if nerrors.GetCategory(err) != nerrors.CategoryConfig {
				t.Errorf("expected config category, got %q", nerrors.GetCategory(err))
			}
		})
	}
}

func TestAPIKeyResolution(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "fallback-key")
	t.Setenv("ANTHROPIC_API_KEY", "anthropic-key")

	cfg, err := load(nil, t.TempDir())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.APIKey != "fallback-key" {
		t.Errorf("expected API_KEY fallback, got %q", cfg.APIKey)
	}

	t.Setenv("GEMINI_API_KEY", "gemini-key")
	if err := cfg.SetProvider(ProviderGemini); err != nil {
		t.Fatal(err)
	}
	if cfg.APIKey != "gemini-key" {
		t.Errorf("GEMINI_API_KEY should win, got %q", cfg.APIKey)
	}

	if err := cfg.SetProvider(ProviderAnthropic); err != nil {
		t.Fatal(err)
	}
	if cfg.APIKey != "anthropic-key" {
		t.Errorf("expected anthropic key, got %q", cfg.APIKey)
	}

	cfg.SetToken("flag-token")
	if cfg.APIKey != "flag-token" {
		t.Errorf("--token should override, got %q", cfg.APIKey)
	}

	if err := cfg.SetProvider("openai"); err == nil {
		t.Error("unknown provider should be rejected")
	}
}

func TestRequireAPIKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.APIKey = ""

	err := cfg.RequireAPIKey()
	if err == nil {
		t.Fatal("expected error when no key is configured")
	}
	var ne *nerrors.NtricError
	if !errors.As(err, &ne) || ne.Kind != nerrors.KindAuth {
		t.Errorf("expected auth NtricError, got %v", err)
	}
	if !strings.Contains(err.Error(), "GEMINI_API_KEY") {
		t.Errorf("error should name GEMINI_API_KEY: %v", err)
	}

	cfg.APIKey = "k"
	if err := cfg.RequireAPIKey(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDerivedPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/data"

	if cfg.StoragePath() != filepath.Join("/data", "state") {
		t.Errorf("unexpected file storage path %s", cfg.StoragePath())
	}
	cfg.Storage.Path = "/elsewhere"
	if cfg.StoragePath() != "/elsewhere" {
		t.Errorf("explicit path should win, got %s", cfg.StoragePath())
	}
	if cfg.LogDir() != filepath.Join("/data", "logs") {
		t.Errorf("unexpected log dir %s", cfg.LogDir())
	}
	if cfg.AudioDir() != filepath.Join("/data", "audio") {
		t.Errorf("unexpected audio dir %s", cfg.AudioDir())
	}
}
