package timeline

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrInvalidClip reports a clip that a Track would refuse.
var ErrInvalidClip = errors.New("invalid clip")

// Clip places the SourceRange window of an asset at TimelineRange on a track.
// Clips are values; edits replace them wholesale inside a Track.
type Clip struct {
	AssetID       uuid.UUID `json:"asset_id" toml:"asset_id"`
	SourceRange   TimeRange `json:"source_range" toml:"source_range"`
	TimelineRange TimeRange `json:"timeline_range" toml:"timeline_range"`
	TrackIndex    uint32    `json:"track_index" toml:"track_index"`
	Name          string    `json:"name" toml:"name"`
}

// NewClip constructs a clip. No validation happens here: a clip with a
// zero-duration TimelineRange cannot be added to a Track.
func NewClip(name string, assetID uuid.UUID, source, placement TimeRange, trackIndex uint32) Clip {
	return Clip{
		AssetID:       assetID,
		SourceRange:   source,
		TimelineRange: placement,
		TrackIndex:    trackIndex,
		Name:          name,
	}
}

// Validate checks what Track.Add treats as a contract violation, so callers
// holding untrusted input can reject it instead of panicking.
func (c Clip) Validate() error {
	switch {
	case c.TimelineRange.IsEmpty():
		return fmt.Errorf("clip %q: zero-duration placement: %w", c.Name, ErrInvalidClip)
	case !c.TimelineRange.Valid():
		return fmt.Errorf("clip %q: placement %d+%d overflows: %w", c.Name, c.TimelineRange.Start, c.TimelineRange.Duration, ErrInvalidClip)
	case !c.SourceRange.Valid():
		return fmt.Errorf("clip %q: source %d+%d overflows: %w", c.Name, c.SourceRange.Start, c.SourceRange.Duration, ErrInvalidClip)
	}
	return nil
}

// AssetUUID returns the referenced asset identifier.
func (c Clip) AssetUUID() uuid.UUID {
	return c.AssetID
}

// SourceTimeAt maps a timeline instant inside the clip to the matching
// instant in the source asset. Playback runs at unit speed; an instant past
// the end of the source window is left for the decoder to reject.
func (c Clip) SourceTimeAt(t uint64) (uint64, bool) {
	if !c.TimelineRange.Contains(t) {
		return 0, false
	}
	offset := t - c.TimelineRange.Start
	return NewTimeRange(c.SourceRange.Start, offset).End(), true
}

// trimmed returns a copy of c cut down to placement, which must lie inside
// c.TimelineRange. The source window moves with the cut so every remainder
// still shows the same source frames it showed before the split.
func (c Clip) trimmed(placement TimeRange) Clip {
	shift := placement.Start - c.TimelineRange.Start
	out := c
	out.TimelineRange = placement

	src := c.SourceRange
	switch {
	case shift >= src.Duration:
		out.SourceRange = TimeRange{Start: src.End(), Duration: 0}
	default:
		remaining := src.Duration - shift
		out.SourceRange = TimeRange{Start: src.Start + shift, Duration: min(remaining, placement.Duration)}
	}
	return out
}

// moved returns a copy of c whose placement starts delta earlier.
func (c Clip) moved(delta uint64) Clip {
	out := c
	out.TimelineRange = c.TimelineRange.Shift(delta)
	return out
}
