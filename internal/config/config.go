package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	TargetRoot string `toml:"target_root"`
	StateDir   string `toml:"state_dir"`
	LogDir     string `toml:"log_dir"`
}

// Library contains configuration for the projected library structure.
type Library struct {
	MoviesDir  string `toml:"movies_dir"`
	TVDir      string `toml:"tv_dir"`
	FlatMovies bool   `toml:"flat_movies"`
}

// Run contains per-invocation processing knobs.
type Run struct {
	// Limit truncates the per-record pass to the first N catalog records.
	// 0 means unlimited. Orphan cleanup is never truncated.
	Limit int `toml:"limit"`
}

// SageX contains configuration for the SageTV SageX catalog API.
type SageX struct {
	Host           string `toml:"host"`
	Port           int    `toml:"port"`
	User           string `toml:"user"`
	Password       string `toml:"password"`
	PageSize       int    `toml:"page_size"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Jellyfin contains configuration for Jellyfin library refresh after a run.
type Jellyfin struct {
	Enabled bool   `toml:"enabled"`
	URL     string `toml:"url"`
	APIKey  string `toml:"api_key"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	// Verbosity selects one of three tiers: 0 critical-only, 1 informational,
	// 2 debug.
	Verbosity     int    `toml:"verbosity"`
	Format        string `toml:"format"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for sagelink.
//
// Configuration sections by subsystem:
//   - Paths: target library root, state database and log directories
//   - Library: movie/TV subdirectory names and flat movie layout
//   - Run: processing-count limit for test runs
//   - SageX: catalog API connection
//   - Jellyfin: library refresh after a run
//   - Notifications: ntfy run summaries
//   - Logging: verbosity tier, format, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Library       Library       `toml:"library"`
	Run           Run           `toml:"run"`
	SageX         SageX         `toml:"sagex"`
	Jellyfin      Jellyfin      `toml:"jellyfin"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("sagelink.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories. The target root is
// created on a best-effort basis so a run against temporarily unavailable
// storage fails in preflight with a clear message instead of here.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.TargetRoot) != "" {
		_ = os.MkdirAll(c.Paths.TargetRoot, 0o755)
	}
	return nil
}

// StatePath returns the location of the state database.
func (c *Config) StatePath() string {
	return filepath.Join(c.Paths.StateDir, "state.db")
}

// MoviesRoot returns the absolute movie library root.
func (c *Config) MoviesRoot() string {
	return filepath.Join(c.Paths.TargetRoot, c.Library.MoviesDir)
}

// TVRoot returns the absolute TV library root.
func (c *Config) TVRoot() string {
	return filepath.Join(c.Paths.TargetRoot, c.Library.TVDir)
}

// SageXBaseURL returns the SageX API endpoint derived from host and port.
func (c *Config) SageXBaseURL() string {
	return fmt.Sprintf("http://%s:%d/sagex/api", c.SageX.Host, c.SageX.Port)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
