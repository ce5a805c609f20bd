package playback

import (
	"log/slog"

	"github.com/google/uuid"

	"nle/internal/config"
	"nle/internal/logging"
	"nle/internal/media"
)

// SourceOpener opens the media source behind an asset.
type SourceOpener func(assetID uuid.UUID) (media.Source, error)

// OpenerFromConfig opens every asset with the configured backend and frame
// geometry. Asset ids select nothing yet since no backend demuxes real files.
func OpenerFromConfig(cfg config.Decoder, logger *slog.Logger) SourceOpener {
	if logger == nil {
		logger = logging.NewNop()
	}
	spec := media.Spec{Backend: cfg.Backend, Width: cfg.Width, Height: cfg.Height}
	return func(assetID uuid.UUID) (media.Source, error) {
		if !cfg.FallbackToMock {
			return media.Open(spec)
		}
		return media.OpenWithFallback(spec, logger.With(logging.String(logging.FieldAssetID, assetID.String())))
	}
}
