package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"nle/internal/decoder"
	"nle/internal/logging"
	"nle/internal/media"
)

const microsPerSecond = 1_000_000

// RenderOptions controls a headless render pass.
type RenderOptions struct {
	Logger    *slog.Logger
	Track     int
	Start     uint64
	Frames    int
	FrameRate int
	// Realtime paces frames at FrameRate instead of running flat out.
	Realtime bool
	// OnFrame observes every frame in order.
	OnFrame func(FrameReport)
}

// FrameReport is the outcome for one rendered frame.
type FrameReport struct {
	Index      int
	Time       uint64
	Gap        bool
	Clip       string
	AssetID    uuid.UUID
	SourceTime uint64
	Payload    media.PayloadKind
	Err        error
}

// Summary totals a render pass.
type Summary struct {
	SessionID string
	Frames    int
	Decoded   int
	Gaps      int
	Failed    int
	Elapsed   time.Duration
}

// FrameTime returns the timeline instant of frame index at rate fps.
func FrameTime(start uint64, index, fps int) uint64 {
	return start + uint64(index)*microsPerSecond/uint64(fps)
}

// Render resolves opts.Frames consecutive frames on opts.Track. Decode
// failures are counted and logged; the pass only stops early when ctx ends
// or a decoder terminates.
func Render(ctx context.Context, r *Resolver, opts RenderOptions) (Summary, error) {
	if r == nil {
		return Summary{}, errors.New("resolver is required")
	}
	if opts.FrameRate <= 0 {
		return Summary{}, fmt.Errorf("frame rate must be positive, got %d", opts.FrameRate)
	}
	if opts.Frames < 0 {
		return Summary{}, fmt.Errorf("frame count must not be negative, got %d", opts.Frames)
	}

	summary := Summary{SessionID: uuid.NewString()}
	ctx = logging.WithSessionID(ctx, summary.SessionID)
	logger := logging.WithContext(ctx, logging.NewComponentLogger(opts.Logger, "render"))

	logger.Info(
		"render started",
		logging.String(logging.FieldEventType, "render_start"),
		logging.String(logging.FieldTrack, fmt.Sprintf("video/%d", opts.Track)),
		logging.Int("frames", opts.Frames),
		logging.Int("frame_rate", opts.FrameRate),
		logging.Uint64(logging.FieldTimeUS, opts.Start),
	)

	var ticker *time.Ticker
	if opts.Realtime {
		ticker = time.NewTicker(max(time.Second/time.Duration(opts.FrameRate), time.Nanosecond))
		defer ticker.Stop()
	}

	started := time.Now()
	for i := 0; i < opts.Frames; i++ {
		if err := ctx.Err(); err != nil {
			summary.Elapsed = time.Since(started)
			return summary, err
		}
		if ticker != nil && i > 0 {
			select {
			case <-ticker.C:
			case <-ctx.Done():
				summary.Elapsed = time.Since(started)
				return summary, ctx.Err()
			}
		}

		at := FrameTime(opts.Start, i, opts.FrameRate)
		res, err := r.Resolve(ctx, opts.Track, at)
		report := FrameReport{
			Index:      i,
			Time:       at,
			Gap:        res.Gap,
			Clip:       res.Clip.Name,
			AssetID:    res.Clip.AssetID,
			SourceTime: res.SourceTime,
			Err:        err,
		}
		summary.Frames++

		switch {
		case err == nil && res.Gap:
			summary.Gaps++
		case err == nil:
			summary.Decoded++
			if res.Frame.Payload != nil {
				report.Payload = res.Frame.Payload.Kind()
			}
		case errors.Is(err, media.ErrDecode):
			summary.Failed++
			logger.Warn(
				"frame decode failed",
				logging.String(logging.FieldEventType, "frame_decode_failed"),
				logging.Uint64(logging.FieldTimeUS, at),
				logging.String(logging.FieldClip, res.Clip.Name),
				logging.Error(err),
				logging.String(logging.FieldImpact, "frame left blank"),
			)
		default:
			summary.Failed++
			summary.Elapsed = time.Since(started)
			if opts.OnFrame != nil {
				opts.OnFrame(report)
			}
			logger.Error(
				"render aborted",
				logging.String(logging.FieldEventType, "render_failure"),
				logging.Uint64(logging.FieldTimeUS, at),
				logging.Error(err),
			)
			if errors.Is(err, decoder.ErrActorTerminated) && ctx.Err() != nil {
				return summary, ctx.Err()
			}
			return summary, err
		}

		if opts.OnFrame != nil {
			opts.OnFrame(report)
		}
	}
	summary.Elapsed = time.Since(started)

	logger.Info(
		"render completed",
		logging.String(logging.FieldEventType, "render_complete"),
		logging.Int("decoded", summary.Decoded),
		logging.Int("gaps", summary.Gaps),
		logging.Int("failed", summary.Failed),
		logging.Duration("elapsed", summary.Elapsed),
	)
	return summary, nil
}
