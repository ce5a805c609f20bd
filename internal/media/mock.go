package media

import (
	"context"
	"fmt"
	"time"
)

// MockSource returns zero-filled RGBA frames without decoding anything.
type MockSource struct {
	Width  uint32
	Height uint32
	// Duration bounds the source; instants at or past it fail with ErrDecode.
	// Zero means unbounded.
	Duration uint64
	// Delay simulates decode latency.
	Delay time.Duration
}

// NewMockSource returns an unbounded mock producing width x height frames.
func NewMockSource(width, height uint32) *MockSource {
	return &MockSource{Width: width, Height: height}
}

// FrameAt returns a blank CPU frame whose Timecode echoes at.
func (m *MockSource) FrameAt(ctx context.Context, at uint64) (VideoFrame, error) {
	if m.Delay > 0 {
		timer := time.NewTimer(m.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return VideoFrame{}, ctx.Err()
		}
	}
	if m.Duration > 0 && at >= m.Duration {
		return VideoFrame{}, fmt.Errorf("mock frame at %d beyond duration %d: %w", at, m.Duration, ErrDecode)
	}
	data := make([]byte, RGBASize(m.Width, m.Height))
	return VideoFrame{
		Payload:  CPUBuffer{Data: data},
		Timecode: at,
		Width:    m.Width,
		Height:   m.Height,
	}, nil
}
