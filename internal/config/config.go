package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	nerrors "github.com/abdul-hamid-achik/ntricacid/internal/errors"
)

// Provider selects the remote AI vendor
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderAnthropic Provider = "anthropic"
)

// Storage backends
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Safety thresholds accepted for root mode. Disabling the filters is not offered.
var rootThresholds = []string{
	"BLOCK_LOW_AND_ABOVE",
	"BLOCK_MEDIUM_AND_ABOVE",
	"BLOCK_ONLY_HIGH",
}

// ModelsConfig names the model used for each gateway operation
type ModelsConfig struct {
	Chat      string `yaml:"chat"`
	Image     string `yaml:"image"`
	Speech    string `yaml:"speech"`
	Voice     string `yaml:"voice"`
	Anthropic string `yaml:"anthropic"`
}

// StorageConfig selects where settings and history are kept
type StorageConfig struct {
	Backend string `yaml:"backend"` // file, sqlite or memory
	Path    string `yaml:"path"`    // empty: derived from data_dir
}

// RateLimitConfig holds proactive request pacing. No retries are ever made.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	Burst             int  `yaml:"burst"`
}

// BreakerConfig stops calling a provider after consecutive transient failures
type BreakerConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxFailures int           `yaml:"max_failures"`
	Cooldown    time.Duration `yaml:"cooldown"`
}

// SafetyConfig holds the content filter threshold sent in root mode
type SafetyConfig struct {
	RootThreshold string `yaml:"root_threshold"`
}

// SpeechConfig holds the external audio player
type SpeechConfig struct {
	Player string   `yaml:"player"` // empty: first of afplay, paplay, aplay, ffplay found on PATH
	Args   []string `yaml:"args"`
}

// OfflineConfig holds the offline cache server settings
type OfflineConfig struct {
	Addr       string   `yaml:"addr"`
	Upstream   string   `yaml:"upstream"`
	CacheName  string   `yaml:"cache_name"`
	OfflineURL string   `yaml:"offline_url"`
	Assets     []string `yaml:"assets"`
}

// Config holds the application configuration
type Config struct {
	APIKey    string          `yaml:"-"` // From environment or --token only
	Provider  Provider        `yaml:"provider"`
	Models    ModelsConfig    `yaml:"models"`
	DataDir   string          `yaml:"data_dir"`
	Storage   StorageConfig   `yaml:"storage"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Breaker   BreakerConfig   `yaml:"breaker"`
	Safety    SafetyConfig    `yaml:"safety"`
	Speech    SpeechConfig    `yaml:"speech"`
	Offline   OfflineConfig   `yaml:"offline"`
	Theme     string          `yaml:"theme"` // dark or light

	// Internal: where config was loaded from
	configPath string
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: ModelsConfig{
			Chat:      "gemini-3-flash-preview",
			Image:     "gemini-2.5-flash-image",
			Speech:    "gemini-2.5-flash-preview-tts",
			Voice:     "Kore",
			Anthropic: "claude-sonnet-4-5-20250929",
		},
		DataDir: defaultDataDir(),
		Storage: StorageConfig{
			Backend: BackendFile,
		},
		RateLimit: RateLimitConfig{
			Enabled:           false,
			RequestsPerMinute: 15,
			Burst:             3,
		},
		Breaker: BreakerConfig{
			Enabled:     true,
			MaxFailures: 5,
			Cooldown:    30 * time.Second,
		},
		Safety: SafetyConfig{
			RootThreshold: "BLOCK_ONLY_HIGH",
		},
		Offline: OfflineConfig{
			Addr:       "127.0.0.1:8787",
			Upstream:   "http://127.0.0.1:5173",
			CacheName:  "ntricacid-pwa-v14",
			OfflineURL: "/index.html",
			Assets:     []string{"/", "/index.html", "/manifest.json", "/index.tsx"},
		},
		Theme: "dark",
	}
}

func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "ntricacid")
	}
	return ".ntricacid"
}

// Load loads .env, then the first config file found, then the API key
// from the environment. A missing key is not an error here; commands that
// talk to the gateway call RequireAPIKey.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, nerrors.ConfigLoadFailed(".env", err)
	}
	return load(getConfigPaths(), ".ntricacid")
}

func load(paths []string, defaultDir string) (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := cfg.loadFromFile(path); err != nil {
				return nil, nerrors.ConfigLoadFailed(path, err)
			}
			cfg.configPath = path
			break
		}
	}

	if cfg.configPath == "" {
		if err := cfg.createDefault(defaultDir); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create default config: %v\n", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.APIKey = apiKeyFromEnv(cfg.Provider)
	return cfg, nil
}

// getConfigPaths returns config file paths in priority order
func getConfigPaths() []string {
	paths := []string{
		"ntricacid.yaml",
		".ntricacid/config.yaml",
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "ntricacid", "config.yaml"))
	}

	return paths
}

// loadFromFile loads config from a YAML file
func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// createDefault writes the current config to <dir>/config.yaml
func (c *Config) createDefault(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path := filepath.Join(dir, "config.yaml")
	c.configPath = path

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	content := "# ntricacid configuration\n# API keys come from GEMINI_API_KEY / API_KEY or ANTHROPIC_API_KEY, never from this file.\n\n" + string(data)
	return os.WriteFile(path, []byte(content), 0644)
}

// Validate checks enumerated fields
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderGemini, ProviderAnthropic:
	default:
		return nerrors.ConfigLoadFailed(c.configPath, fmt.Errorf("unknown provider %q", c.Provider))
	}

	switch c.Storage.Backend {
	case BackendFile, BackendSQLite, BackendMemory:
	default:
		return nerrors.ConfigLoadFailed(c.configPath, fmt.Errorf("unknown storage backend %q", c.Storage.Backend))
	}

	if !slices.Contains(rootThresholds, c.Safety.RootThreshold) {
		return nerrors.ConfigLoadFailed(c.configPath, fmt.Errorf("safety.root_threshold must be one of %v, got %q", rootThresholds, c.Safety.RootThreshold))
	}

	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMinute <= 0 {
		return nerrors.ConfigLoadFailed(c.configPath, fmt.Errorf("rate_limit.requests_per_minute must be positive"))
	}

	if c.Breaker.Enabled && c.Breaker.MaxFailures <= 0 {
		return nerrors.ConfigLoadFailed(c.configPath, fmt.Errorf("breaker.max_failures must be positive"))
	}

	switch c.Theme {
	case "dark", "light":
	default:
		return nerrors.ConfigLoadFailed(c.configPath, fmt.Errorf("unknown theme %q", c.Theme))
	}

	return nil
}

// apiKeyFromEnv returns the credential for provider
func apiKeyFromEnv(p Provider) string {
	if p == ProviderAnthropic {
		return os.Getenv("ANTHROPIC_API_KEY")
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key
	}
	return os.Getenv("API_KEY")
}

// keyEnvVar names the variable RequireAPIKey reports
func keyEnvVar(p Provider) string {
	if p == ProviderAnthropic {
		return "ANTHROPIC_API_KEY"
	}
	return "GEMINI_API_KEY"
}

// SetProvider switches the provider and re-reads its key from the environment
func (c *Config) SetProvider(p Provider) error {
	switch p {
	case ProviderGemini, ProviderAnthropic:
	default:
		return fmt.Errorf("unknown provider %q", p)
	}
	c.Provider = p
	c.APIKey = apiKeyFromEnv(p)
	return nil
}

// SetToken overrides the API key, e.g. from --token
func (c *Config) SetToken(token string) {
	if token != "" {
		c.APIKey = token
	}
}

// RequireAPIKey returns an error when no credential is configured
func (c *Config) RequireAPIKey() error {
	if c.APIKey == "" {
		return nerrors.MissingAPIKey(string(c.Provider), keyEnvVar(c.Provider))
	}
	return nil
}

// StoragePath returns the backend location, derived from DataDir when unset
func (c *Config) StoragePath() string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	if c.Storage.Backend == BackendSQLite {
		return filepath.Join(c.DataDir, "ntricacid.db")
	}
	return filepath.Join(c.DataDir, "state")
}

// LogDir returns the session log directory
func (c *Config) LogDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// AudioDir returns where synthesized speech is written before playback
func (c *Config) AudioDir() string {
	return filepath.Join(c.DataDir, "audio")
}

// ConfigPath returns where the config was loaded from
func (c *Config) ConfigPath() string {
	return c.configPath
}
