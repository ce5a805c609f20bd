package timeline

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrMalformedClip reports binary input that does not match the fixed layout.
var ErrMalformedClip = errors.New("malformed clip encoding")

const (
	// TimeRangeSize is the encoded size of a TimeRange: start, duration.
	TimeRangeSize = 16
	// ClipHeaderSize is the fixed prefix of an encoded Clip: asset id, source
	// range, timeline range, track index, name length. The name bytes follow.
	ClipHeaderSize = 16 + TimeRangeSize + TimeRangeSize + 4 + 4
)

// MarshalBinary encodes the range as two little-endian uint64 values.
func (r TimeRange) MarshalBinary() ([]byte, error) {
	return r.AppendBinary(make([]byte, 0, TimeRangeSize))
}

// AppendBinary appends the fixed-layout encoding of r to b.
func (r TimeRange) AppendBinary(b []byte) ([]byte, error) {
	b = binary.LittleEndian.AppendUint64(b, r.Start)
	b = binary.LittleEndian.AppendUint64(b, r.Duration)
	return b, nil
}

// UnmarshalBinary decodes exactly TimeRangeSize bytes.
func (r *TimeRange) UnmarshalBinary(data []byte) error {
	if len(data) != TimeRangeSize {
		return fmt.Errorf("time range: want %d bytes, got %d: %w", TimeRangeSize, len(data), ErrMalformedClip)
	}
	r.Start = binary.LittleEndian.Uint64(data[0:8])
	r.Duration = binary.LittleEndian.Uint64(data[8:16])
	return nil
}

// MarshalBinary encodes the clip in its fixed layout:
//
//	[0:16)   asset id (UUID byte order)
//	[16:32)  source range
//	[32:48)  timeline range
//	[48:52)  track index
//	[52:56)  name length n
//	[56:56+n) name, UTF-8
func (c Clip) MarshalBinary() ([]byte, error) {
	return c.AppendBinary(make([]byte, 0, ClipHeaderSize+len(c.Name)))
}

// AppendBinary appends the fixed-layout encoding of c to b.
func (c Clip) AppendBinary(b []byte) ([]byte, error) {
	if uint64(len(c.Name)) > math.MaxUint32 {
		return nil, fmt.Errorf("clip name of %d bytes exceeds layout limit", len(c.Name))
	}
	b = append(b, c.AssetID[:]...)
	b, _ = c.SourceRange.AppendBinary(b)
	b, _ = c.TimelineRange.AppendBinary(b)
	b = binary.LittleEndian.AppendUint32(b, c.TrackIndex)
	b = binary.LittleEndian.AppendUint32(b, uint32(len(c.Name)))
	return append(b, c.Name...), nil
}

// UnmarshalBinary decodes a clip produced by MarshalBinary. Trailing bytes
// are rejected.
func (c *Clip) UnmarshalBinary(data []byte) error {
	if len(data) < ClipHeaderSize {
		return fmt.Errorf("clip: header needs %d bytes, got %d: %w", ClipHeaderSize, len(data), ErrMalformedClip)
	}
	nameLen := uint64(binary.LittleEndian.Uint32(data[52:56]))
	if uint64(len(data)-ClipHeaderSize) != nameLen {
		return fmt.Errorf("clip: name length %d does not match %d trailing bytes: %w", nameLen, len(data)-ClipHeaderSize, ErrMalformedClip)
	}

	var out Clip
	copy(out.AssetID[:], data[0:16])
	if err := out.SourceRange.UnmarshalBinary(data[16:32]); err != nil {
		return err
	}
	if err := out.TimelineRange.UnmarshalBinary(data[32:48]); err != nil {
		return err
	}
	out.TrackIndex = binary.LittleEndian.Uint32(data[48:52])
	out.Name = string(data[ClipHeaderSize:])
	*c = out
	return nil
}
