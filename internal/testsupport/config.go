package testsupport

import (
	"path/filepath"
	"testing"

	"nle/internal/config"
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
	cfgVal.Paths.ProjectDir = filepath.Join(base, "projects")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Decoder.Width = 4
	cfgVal.Decoder.Height = 2
	cfgVal.Logging.Level = "debug"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithDecoderBackend overrides the media backend on the test config.
func WithDecoderBackend(backend string, fallback bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Decoder.Backend = backend
		b.cfg.Decoder.FallbackToMock = fallback
	}
}

// WithFrameSize overrides the decoded frame geometry.
func WithFrameSize(width, height uint32) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Decoder.Width = width
		b.cfg.Decoder.Height = height
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.ProjectDir)
}
