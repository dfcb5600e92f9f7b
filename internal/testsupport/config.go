package testsupport

import (
	"path/filepath"
	"testing"

	"sagelink/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.TargetRoot = filepath.Join(base, "library")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Logging.Verbosity = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithFlatMovies switches movies to the flat layout.
func WithFlatMovies() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Library.FlatMovies = true
	}
}

// WithLimit sets the per-record processing limit.
func WithLimit(limit int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Run.Limit = limit
	}
}

// WithJellyfin enables the library refresh against url.
func WithJellyfin(url, apiKey string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Jellyfin.Enabled = true
		b.cfg.Jellyfin.URL = url
		b.cfg.Jellyfin.APIKey = apiKey
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}

// RecordingsDir returns a directory under the config's temp root for fake
// source media.
func RecordingsDir(cfg *config.Config) string {
	return filepath.Join(BaseDir(cfg), "recordings")
}
