package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"nle/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantProjects := filepath.Join(tempHome, ".local", "share", "nle", "projects")
	if cfg.Paths.ProjectDir != wantProjects {
		t.Fatalf("unexpected project dir: got %q want %q", cfg.Paths.ProjectDir, wantProjects)
	}
	if cfg.Decoder.Backend != "mock" {
		t.Fatalf("expected mock backend by default, got %q", cfg.Decoder.Backend)
	}
	if cfg.Decoder.MailboxSize != 32 {
		t.Fatalf("expected mailbox size 32, got %d", cfg.Decoder.MailboxSize)
	}
	if cfg.Decoder.Width != 1920 || cfg.Decoder.Height != 1080 {
		t.Fatalf("unexpected frame size %dx%d", cfg.Decoder.Width, cfg.Decoder.Height)
	}
	if !cfg.Decoder.FallbackToMock {
		t.Fatal("expected mock fallback enabled by default")
	}
	if got := cfg.ProjectPath("demo"); got != filepath.Join(wantProjects, "demo.nle") {
		t.Fatalf("unexpected project path %q", got)
	}
}

func TestLoadCustomConfigFile(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg := config.Default()
	cfg.Paths.ProjectDir = "~/edits"
	cfg.Decoder.Backend = "  MOCK "
	cfg.Decoder.MailboxSize = 4
	cfg.Playback.FrameRate = 24
	cfg.Logging.Level = "DEBUG"

	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(tempHome, "custom.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	loaded, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected %q to be loaded, got %q exists=%v", path, resolved, exists)
	}
	if loaded.Paths.ProjectDir != filepath.Join(tempHome, "edits") {
		t.Fatalf("unexpected project dir %q", loaded.Paths.ProjectDir)
	}
	if loaded.Decoder.Backend != "mock" {
		t.Fatalf("expected normalized backend, got %q", loaded.Decoder.Backend)
	}
	if loaded.Decoder.MailboxSize != 4 || loaded.Playback.FrameRate != 24 {
		t.Fatalf("unexpected decoder/playback values: %+v %+v", loaded.Decoder, loaded.Playback)
	}
	if loaded.Logging.Level != "debug" {
		t.Fatalf("expected normalized level, got %q", loaded.Logging.Level)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"mailbox too small", func(c *config.Config) { c.Decoder.MailboxSize = -1 }, "decoder.mailbox_size"},
		{"zero width", func(c *config.Config) { c.Decoder.Width = 0 }, "decoder.width"},
		{"huge frame", func(c *config.Config) { c.Decoder.Height = 1 << 20 }, "dimensions"},
		{"frame rate", func(c *config.Config) { c.Playback.FrameRate = -5 }, "playback.frame_rate"},
		{"render frames", func(c *config.Config) { c.Playback.RenderFrames = -1 }, "playback.render_frames"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"log level", func(c *config.Config) { c.Logging.Level = "trace" }, "logging.level"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %q", tc.want, err)
			}
		})
	}
}

func TestCreateSampleLoads(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Decoder.MailboxSize != 32 {
		t.Fatalf("sample mailbox size = %d", cfg.Decoder.MailboxSize)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ProjectDir = filepath.Join(base, "projects")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.ProjectDir, cfg.Paths.LogDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
}
