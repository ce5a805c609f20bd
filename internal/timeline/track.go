package timeline

import (
	"fmt"

	"github.com/google/btree"
)

const trackIndexDegree = 16

// Track is a single lane of non-overlapping clips keyed by their timeline
// placement. Every stored clip's TimelineRange is exactly its key interval.
type Track struct {
	index *btree.BTreeG[Clip]
}

func clipLess(a, b Clip) bool {
	return a.TimelineRange.Start < b.TimelineRange.Start
}

// probe builds a search key for the ordered index.
func probe(start uint64) Clip {
	return Clip{TimelineRange: TimeRange{Start: start}}
}

// NewTrack returns an empty track.
func NewTrack() *Track {
	return &Track{index: btree.NewG(trackIndexDegree, clipLess)}
}

// Add inserts clip at clip.TimelineRange. The new clip wins every instant it
// covers; older clips it intersects keep only their uncovered remainders,
// which may split one clip into a left and a right piece. Adding a
// zero-duration clip panics.
func (t *Track) Add(clip Clip) {
	if clip.TimelineRange.IsEmpty() {
		panic(fmt.Sprintf("timeline: cannot add zero-duration clip %q at %d", clip.Name, clip.TimelineRange.Start))
	}
	t.carve(clip.TimelineRange)
	t.index.ReplaceOrInsert(clip)
}

// Query returns the clip covering instant at, if any.
func (t *Track) Query(at uint64) (Clip, bool) {
	clip, ok := t.floor(at)
	if !ok || !clip.TimelineRange.Contains(at) {
		return Clip{}, false
	}
	return clip, true
}

// RippleDelete removes span from the track and closes the gap: covered
// portions of clips are cut away, then every clip starting at or after
// span.End() moves earlier by span.Duration. Relative order and the gaps
// between the moved clips are preserved. An empty span changes nothing.
func (t *Track) RippleDelete(span TimeRange) {
	if span.IsEmpty() {
		return
	}
	end := span.End()
	t.carve(span)

	var later []Clip
	t.index.AscendGreaterOrEqual(probe(end), func(c Clip) bool {
		later = append(later, c)
		return true
	})
	for _, c := range later {
		t.index.Delete(c)
	}
	for _, c := range later {
		t.index.ReplaceOrInsert(c.moved(span.Duration))
	}
}

// Len returns the number of keyed intervals.
func (t *Track) Len() int {
	return t.index.Len()
}

// Entries returns the stored clips in timeline order.
func (t *Track) Entries() []Clip {
	out := make([]Clip, 0, t.index.Len())
	t.index.Ascend(func(c Clip) bool {
		out = append(out, c)
		return true
	})
	return out
}

// Span returns the extent from the first clip's start to the last clip's
// end. Gaps inside the span are not reported.
func (t *Track) Span() TimeRange {
	first, ok := t.index.Min()
	if !ok {
		return TimeRange{}
	}
	last, _ := t.index.Max()
	return rangeBetween(first.TimelineRange.Start, last.TimelineRange.End())
}

// Clone returns an independent copy. The index is shared copy-on-write, so
// cloning is constant time and later edits on either side stay private.
func (t *Track) Clone() *Track {
	return &Track{index: t.index.Clone()}
}

// floor returns the clip with the greatest start at or before at.
func (t *Track) floor(at uint64) (Clip, bool) {
	var (
		found Clip
		ok    bool
	)
	t.index.DescendLessOrEqual(probe(at), func(c Clip) bool {
		found, ok = c, true
		return false
	})
	return found, ok
}

// carve clears span so nothing in the track covers it, trimming or
// splitting the clips that intersect it.
func (t *Track) carve(span TimeRange) {
	start, end := span.Start, span.End()

	var hits []Clip
	if c, ok := t.floor(start); ok && c.TimelineRange.Start < start && c.TimelineRange.End() > start {
		hits = append(hits, c)
	}
	t.index.AscendRange(probe(start), probe(end), func(c Clip) bool {
		hits = append(hits, c)
		return true
	})

	for _, old := range hits {
		t.index.Delete(old)
		oldStart, oldEnd := old.TimelineRange.Start, old.TimelineRange.End()
		if oldStart < start {
			t.index.ReplaceOrInsert(old.trimmed(rangeBetween(oldStart, start)))
		}
		if oldEnd > end {
			t.index.ReplaceOrInsert(old.trimmed(rangeBetween(end, oldEnd)))
		}
	}
}
