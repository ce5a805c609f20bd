package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDecoder(); err != nil {
		return err
	}
	if err := c.validatePlayback(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateDecoder() error {
	if c.Decoder.MailboxSize < 1 || c.Decoder.MailboxSize > maxMailboxSize {
		return fmt.Errorf("decoder.mailbox_size must be between 1 and %d", maxMailboxSize)
	}
	if c.Decoder.Width == 0 || c.Decoder.Height == 0 {
		return errors.New("decoder.width and decoder.height must be positive")
	}
	if c.Decoder.Width > maxFrameDimension || c.Decoder.Height > maxFrameDimension {
		return fmt.Errorf("decoder frame dimensions must not exceed %d", maxFrameDimension)
	}
	return nil
}

func (c *Config) validatePlayback() error {
	if c.Playback.FrameRate < 1 || c.Playback.FrameRate > maxPlaybackFrameRate {
		return fmt.Errorf("playback.frame_rate must be between 1 and %d", maxPlaybackFrameRate)
	}
	if c.Playback.RenderFrames < 1 {
		return errors.New("playback.render_frames must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
