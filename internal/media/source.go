package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"nle/internal/logging"
)

var (
	// ErrDecode reports that a requested instant could not be decoded: out of
	// range, corrupt source, backend failure.
	ErrDecode = errors.New("decode failed")
	// ErrUnsupportedFormat reports that no usable backend exists for a source.
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// Source produces decoded frames. Implementations may assume at most one
// FrameAt call is in flight at a time.
type Source interface {
	FrameAt(ctx context.Context, at uint64) (VideoFrame, error)
}

// Backend names accepted by Open.
const (
	BackendMock         = "mock"
	BackendVAAPI        = "vaapi"
	BackendD3D12        = "d3d12"
	BackendVideoToolbox = "videotoolbox"
)

// Spec describes the source to open.
type Spec struct {
	Backend string
	Width   uint32
	Height  uint32
}

// Open builds a Source for spec.Backend. Hardware backends are declared so
// configuration can name them, but none is linked into this build and all of
// them report ErrUnsupportedFormat.
func Open(spec Spec) (Source, error) {
	backend := strings.ToLower(strings.TrimSpace(spec.Backend))
	switch backend {
	case BackendMock, "":
		return NewMockSource(spec.Width, spec.Height), nil
	case BackendVAAPI, BackendD3D12, BackendVideoToolbox:
		return nil, fmt.Errorf("backend %s not available in this build: %w", backend, ErrUnsupportedFormat)
	default:
		return nil, fmt.Errorf("backend %q: %w", spec.Backend, ErrUnsupportedFormat)
	}
}

// OpenWithFallback opens spec and falls back to a MockSource of the same
// geometry when the backend is unsupported. Other errors are returned.
func OpenWithFallback(spec Spec, logger *slog.Logger) (Source, error) {
	src, err := Open(spec)
	if err == nil {
		return src, nil
	}
	if !errors.Is(err, ErrUnsupportedFormat) {
		return nil, err
	}
	logging.WarnWithContext(
		logging.NewComponentLogger(logger, "media"),
		"media backend unavailable; using mock source",
		"media_backend_fallback",
		logging.String("backend", spec.Backend),
		logging.Error(err),
		logging.String(logging.FieldImpact, "frames are blank placeholders"),
		logging.String(logging.FieldErrorHint, "set decoder.backend = \"mock\" or install a supported backend"),
	)
	return NewMockSource(spec.Width, spec.Height), nil
}
