package timeline_test

import (
	"errors"
	"testing"

	"nle/internal/timeline"
)

func TestTrackIndicesAreStable(t *testing.T) {
	tl := timeline.New()
	if idx := tl.AddVideoTrack(); idx != 0 {
		t.Fatalf("first video track index = %d", idx)
	}
	if idx := tl.AddAudioTrack(); idx != 0 {
		t.Fatalf("first audio track index = %d", idx)
	}
	if idx := tl.AddVideoTrack(); idx != 1 {
		t.Fatalf("second video track index = %d", idx)
	}
	if idx := tl.AddTrack(timeline.KindAudio); idx != 1 {
		t.Fatalf("second audio track index = %d", idx)
	}

	v0, err := tl.VideoTrack(0)
	if err != nil {
		t.Fatalf("VideoTrack(0): %v", err)
	}
	v0.Add(clipAt("A", 0, 10))
	tl.AddVideoTrack()

	again, err := tl.Track(timeline.KindVideo, 0)
	if err != nil {
		t.Fatalf("Track(video, 0): %v", err)
	}
	if _, ok := again.Query(5); !ok {
		t.Fatal("track 0 lost its clip after appending another track")
	}
	if got := tl.TrackCount(timeline.KindVideo); got != 3 {
		t.Fatalf("video track count = %d", got)
	}
}

func TestTrackLookupErrors(t *testing.T) {
	tl := timeline.New()
	tl.AddVideoTrack()
	for _, tc := range []struct {
		kind  timeline.TrackKind
		index int
	}{
		{timeline.KindVideo, 1},
		{timeline.KindVideo, -1},
		{timeline.KindAudio, 0},
	} {
		if _, err := tl.Track(tc.kind, tc.index); !errors.Is(err, timeline.ErrTrackNotFound) {
			t.Fatalf("Track(%s, %d): expected ErrTrackNotFound, got %v", tc.kind, tc.index, err)
		}
	}
}

func TestTracksAreIndependent(t *testing.T) {
	tl := timeline.New()
	v := tl.AddVideoTrack()
	a := tl.AddAudioTrack()
	video, _ := tl.VideoTrack(v)
	audio, _ := tl.AudioTrack(a)

	video.Add(clipAt("V", 0, 10))
	audio.Add(clipAt("A", 5, 20))

	if clip, _ := video.Query(7); clip.Name != "V" {
		t.Fatalf("video query = %q", clip.Name)
	}
	if clip, _ := audio.Query(7); clip.Name != "A" {
		t.Fatalf("audio query = %q", clip.Name)
	}
	if got := tl.Duration(); got != 25 {
		t.Fatalf("duration = %d, want 25", got)
	}
}

func TestSnapshotIgnoresLaterEdits(t *testing.T) {
	tl := timeline.New()
	tl.AddVideoTrack()
	video, _ := tl.VideoTrack(0)
	video.Add(clipAt("A", 0, 10))

	snap := tl.Snapshot()
	video.RippleDelete(timeline.NewTimeRange(0, 10))

	snapVideo, _ := snap.VideoTrack(0)
	if _, ok := snapVideo.Query(5); !ok {
		t.Fatal("snapshot lost clip after ripple delete on original")
	}
	if video.Len() != 0 {
		t.Fatalf("expected original track empty, got %d entries", video.Len())
	}
}

func TestParseTrackKind(t *testing.T) {
	for input, want := range map[string]timeline.TrackKind{
		"video": timeline.KindVideo,
		" V ":   timeline.KindVideo,
		"Audio": timeline.KindAudio,
		"a":     timeline.KindAudio,
	} {
		got, err := timeline.ParseTrackKind(input)
		if err != nil || got != want {
			t.Fatalf("ParseTrackKind(%q) = %v, %v", input, got, err)
		}
	}
	if _, err := timeline.ParseTrackKind("subtitle"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
