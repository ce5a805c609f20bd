package config

const (
	defaultConfigPath    = "~/.config/nle/config.toml"
	defaultProjectDir    = "~/.local/share/nle/projects"
	defaultLogDir        = "~/.local/share/nle/logs"
	defaultBackend       = "mock"
	defaultMailboxSize   = 32
	defaultFrameWidth    = 1920
	defaultFrameHeight   = 1080
	defaultFrameRate     = 30
	defaultRenderFrames  = 100
	defaultFFprobe       = "ffprobe"
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
	maxMailboxSize       = 4096
	maxFrameDimension    = 16384
	maxPlaybackFrameRate = 1000
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ProjectDir: defaultProjectDir,
			LogDir:     defaultLogDir,
		},
		Decoder: Decoder{
			Backend:        defaultBackend,
			FallbackToMock: true,
			MailboxSize:    defaultMailboxSize,
			Width:          defaultFrameWidth,
			Height:         defaultFrameHeight,
			FFprobe:        defaultFFprobe,
		},
		Playback: Playback{
			FrameRate:    defaultFrameRate,
			RenderFrames: defaultRenderFrames,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
