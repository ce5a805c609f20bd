package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDecoder()
	c.normalizePlayback()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.ProjectDir) == "" {
		c.Paths.ProjectDir = defaultProjectDir
	}
	var err error
	if c.Paths.ProjectDir, err = expandPath(c.Paths.ProjectDir); err != nil {
		return fmt.Errorf("paths.project_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDecoder() {
	c.Decoder.Backend = strings.ToLower(strings.TrimSpace(c.Decoder.Backend))
	if c.Decoder.Backend == "" {
		c.Decoder.Backend = defaultBackend
	}
	c.Decoder.FFprobe = strings.TrimSpace(c.Decoder.FFprobe)
	if c.Decoder.MailboxSize == 0 {
		c.Decoder.MailboxSize = defaultMailboxSize
	}
}

func (c *Config) normalizePlayback() {
	if c.Playback.FrameRate == 0 {
		c.Playback.FrameRate = defaultFrameRate
	}
	if c.Playback.RenderFrames == 0 {
		c.Playback.RenderFrames = defaultRenderFrames
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
