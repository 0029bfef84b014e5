package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config represents the folio configuration.
type Config struct {
	APIURL       string   `json:"apiUrl" env:"FOLIO_API_URL"`
	GitHubAPIURL string   `json:"githubApiUrl,omitempty" env:"FOLIO_GITHUB_API_URL"`
	GitHubToken  string   `json:"githubToken,omitempty" env:"FOLIO_GITHUB_TOKEN"`
	FeedProxyURL string   `json:"feedProxyUrl,omitempty" env:"FOLIO_FEED_PROXY_URL"`
	Feeds        []string `json:"feeds,omitempty" env:"FOLIO_FEEDS"`
	Store        string   `json:"store" env:"FOLIO_STORE"`
	CacheDir     string   `json:"cacheDir,omitempty" env:"FOLIO_CACHE_DIR"`
	ProjectsTTL  Duration `json:"projectsTtl" env:"FOLIO_PROJECTS_TTL"`
	PollInterval Duration `json:"pollInterval" env:"FOLIO_POLL_INTERVAL"`
	LogLevel     string   `json:"logLevel" env:"FOLIO_LOG_LEVEL"`
	LogFormat    string   `json:"logFormat" env:"FOLIO_LOG_FORMAT"`
	LogFile      string   `json:"logFile,omitempty" env:"FOLIO_LOG_FILE"`
}

// Duration is a time.Duration written as "24h" in files and the environment.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Stores lists the accepted store backends.
var Stores = []string{"file", "sqlite", "memory"}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		APIURL:       "http://localhost:8000/api",
		Store:        "file",
		ProjectsTTL:  Duration(24 * time.Hour),
		PollInterval: Duration(2 * time.Second),
		LogLevel:     "warn",
		LogFormat:    "text",
	}
}

// Validate checks values that cannot be repaired by defaults.
func (c Config) Validate() error {
	if !slices.Contains(Stores, c.Store) {
		return fmt.Errorf("store must be one of %s, got %q", strings.Join(Stores, ", "), c.Store)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("logFormat must be text or json, got %q", c.LogFormat)
	}
	if c.ProjectsTTL <= 0 {
		return fmt.Errorf("projectsTtl must be positive")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("pollInterval must be positive")
	}
	return nil
}

// ParseLevel maps a level name onto a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return lvl, nil
}

// ConfigDir returns the platform-appropriate config directory for folio.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "folio"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "folio"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "folio"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "folio"), nil
	default:
		return filepath.Join(home, ".config", "folio"), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LoadFile loads config from the config file. Returns zero Config and nil error if file doesn't exist.
func LoadFile() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Save writes the config to the config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	// The file may hold a GitHub token.
	return os.WriteFile(path, data, 0o600)
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// The overrides map comes from CLI flags (only non-zero values should be set).
func Load(overrides map[string]string) (Config, error) {
	cfg := Default()

	fileCfg, err := LoadFile()
	if err != nil {
		return Config{}, err
	}
	mergeFile(&cfg, fileCfg)
	if err := mergeEnv(&cfg); err != nil {
		return Config{}, err
	}
	for k, v := range overrides {
		if v == "" {
			continue
		}
		if err := SetField(&cfg, k, v); err != nil {
			return Config{}, fmt.Errorf("flag override: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func mergeFile(dst *Config, src Config) {
	if src.APIURL != "" {
		dst.APIURL = src.APIURL
	}
	if src.GitHubAPIURL != "" {
		dst.GitHubAPIURL = src.GitHubAPIURL
	}
	if src.GitHubToken != "" {
		dst.GitHubToken = src.GitHubToken
	}
	if src.FeedProxyURL != "" {
		dst.FeedProxyURL = src.FeedProxyURL
	}
	if len(src.Feeds) > 0 {
		dst.Feeds = src.Feeds
	}
	if src.Store != "" {
		dst.Store = src.Store
	}
	if src.CacheDir != "" {
		dst.CacheDir = src.CacheDir
	}
	if src.ProjectsTTL > 0 {
		dst.ProjectsTTL = src.ProjectsTTL
	}
	if src.PollInterval > 0 {
		dst.PollInterval = src.PollInterval
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
	if src.LogFormat != "" {
		dst.LogFormat = src.LogFormat
	}
	if src.LogFile != "" {
		dst.LogFile = src.LogFile
	}
}

// mergeEnv overlays FOLIO_* variables. Unset variables leave cfg untouched.
func mergeEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Keys lists the names accepted by SetField.
var Keys = []string{
	"apiUrl", "githubApiUrl", "githubToken", "feedProxyUrl", "feeds", "store",
	"cacheDir", "projectsTtl", "pollInterval", "logLevel", "logFormat", "logFile",
}

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "apiUrl":
		cfg.APIURL = value
	case "githubApiUrl":
		cfg.GitHubAPIURL = value
	case "githubToken":
		cfg.GitHubToken = value
	case "feedProxyUrl":
		cfg.FeedProxyURL = value
	case "feeds":
		cfg.Feeds = splitList(value)
	case "store":
		cfg.Store = value
	case "cacheDir":
		cfg.CacheDir = value
	case "projectsTtl":
		if err := cfg.ProjectsTTL.UnmarshalText([]byte(value)); err != nil {
			return fmt.Errorf("projectsTtl must be a duration: %w", err)
		}
	case "pollInterval":
		if err := cfg.PollInterval.UnmarshalText([]byte(value)); err != nil {
			return fmt.Errorf("pollInterval must be a duration: %w", err)
		}
	case "logLevel":
		cfg.LogLevel = value
	case "logFormat":
		cfg.LogFormat = value
	case "logFile":
		cfg.LogFile = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
