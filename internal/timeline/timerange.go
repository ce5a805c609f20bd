package timeline

import (
	"fmt"
	"math/bits"
)

// TimeRange is a half-open span [Start, Start+Duration) in microseconds.
type TimeRange struct {
	Start    uint64 `json:"start" toml:"start"`
	Duration uint64 `json:"duration" toml:"duration"`
}

// NewTimeRange builds a range from a start instant and a duration.
func NewTimeRange(start, duration uint64) TimeRange {
	return TimeRange{Start: start, Duration: duration}
}

// rangeBetween builds the range [start, end). Callers guarantee start <= end.
func rangeBetween(start, end uint64) TimeRange {
	if end < start {
		panic(fmt.Sprintf("timeline: inverted bounds [%d, %d)", start, end))
	}
	return TimeRange{Start: start, Duration: end - start}
}

// End returns Start+Duration. A range whose end does not fit in uint64 is a
// contract violation and panics instead of wrapping.
func (r TimeRange) End() uint64 {
	end, carry := bits.Add64(r.Start, r.Duration, 0)
	if carry != 0 {
		panic(fmt.Sprintf("timeline: range end overflows uint64 (start=%d duration=%d)", r.Start, r.Duration))
	}
	return end
}

// Valid reports whether End can be computed without overflow.
func (r TimeRange) Valid() bool {
	_, carry := bits.Add64(r.Start, r.Duration, 0)
	return carry == 0
}

// IsEmpty reports whether the range covers no instant.
func (r TimeRange) IsEmpty() bool {
	return r.Duration == 0
}

// Contains reports whether t falls inside the range.
func (r TimeRange) Contains(t uint64) bool {
	return t >= r.Start && t < r.End()
}

// Overlaps reports whether the two ranges share at least one instant. Empty
// ranges overlap nothing.
func (r TimeRange) Overlaps(o TimeRange) bool {
	return r.Start < o.End() && o.Start < r.End()
}

// Shift moves the range earlier by delta. Shifting before zero panics.
func (r TimeRange) Shift(delta uint64) TimeRange {
	if delta > r.Start {
		panic(fmt.Sprintf("timeline: shift by %d moves range starting at %d before zero", delta, r.Start))
	}
	return TimeRange{Start: r.Start - delta, Duration: r.Duration}
}

func (r TimeRange) String() string {
	return fmt.Sprintf("[%d, %d)", r.Start, r.End())
}
