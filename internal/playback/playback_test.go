package playback_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"nle/internal/config"
	"nle/internal/decoder"
	"nle/internal/logging"
	"nle/internal/media"
	"nle/internal/playback"
	"nle/internal/timeline"
)

const second = 1_000_000

var (
	assetA = uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	assetB = uuid.MustParse("00000000-0000-0000-0000-00000000000b")
)

// countingOpener hands out mock sources and records how often each asset
// was opened.
type countingOpener struct {
	mu       sync.Mutex
	opened   map[uuid.UUID]int
	duration uint64
}

func (c *countingOpener) open(assetID uuid.UUID) (media.Source, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.opened == nil {
		c.opened = make(map[uuid.UUID]int)
	}
	c.opened[assetID]++
	return &media.MockSource{Width: 2, Height: 2, Duration: c.duration}, nil
}

func (c *countingOpener) count(assetID uuid.UUID) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opened[assetID]
}

// A on [0s,1s) showing source [5s,6s), gap on [1s,2s), B on [2s,3s).
func newTestTimeline() *timeline.Timeline {
	tl := timeline.New()
	idx := tl.AddVideoTrack()
	track, _ := tl.VideoTrack(idx)
	track.Add(timeline.NewClip("A", assetA, timeline.NewTimeRange(5*second, second), timeline.NewTimeRange(0, second), 0))
	track.Add(timeline.NewClip("B", assetB, timeline.NewTimeRange(0, second), timeline.NewTimeRange(2*second, second), 0))
	return tl
}

func newResolver(t *testing.T, tl *timeline.Timeline, opener *countingOpener) *playback.Resolver {
	t.Helper()
	r, err := playback.NewResolver(context.Background(), tl, playback.ResolverOptions{
		Logger:      logging.NewNop(),
		Open:        opener.open,
		MailboxSize: 4,
	})
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := r.Close(ctx); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return r
}

func TestResolveMapsTimelineToSourceTime(t *testing.T) {
	opener := &countingOpener{}
	r := newResolver(t, newTestTimeline(), opener)
	ctx := context.Background()

	res, err := r.Resolve(ctx, 0, 500_000)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Gap || res.Clip.Name != "A" {
		t.Fatalf("unexpected resolution %+v", res)
	}
	if res.SourceTime != 5_500_000 || res.Frame.Timecode != 5_500_000 {
		t.Fatalf("source time = %d, frame timecode = %d, want 5500000", res.SourceTime, res.Frame.Timecode)
	}

	gap, err := r.Resolve(ctx, 0, 1_500_000)
	if err != nil {
		t.Fatalf("Resolve gap: %v", err)
	}
	if !gap.Gap {
		t.Fatalf("expected gap at 1.5s, got %+v", gap)
	}

	if _, err := r.Resolve(ctx, 3, 0); !errors.Is(err, timeline.ErrTrackNotFound) {
		t.Fatalf("expected ErrTrackNotFound, got %v", err)
	}
}

func TestResolverSpawnsOneDecoderPerAsset(t *testing.T) {
	opener := &countingOpener{}
	r := newResolver(t, newTestTimeline(), opener)
	ctx := context.Background()

	for _, at := range []uint64{0, 100, 900_000, 2 * second, 2*second + 1} {
		if _, err := r.Resolve(ctx, 0, at); err != nil {
			t.Fatalf("Resolve(%d): %v", at, err)
		}
	}
	if opener.count(assetA) != 1 || opener.count(assetB) != 1 {
		t.Fatalf("opened A %d times and B %d times, want once each", opener.count(assetA), opener.count(assetB))
	}
	stats := r.Stats()
	if stats[assetA].Served != 3 || stats[assetB].Served != 2 {
		t.Fatalf("unexpected decoder stats %+v", stats)
	}
}

func TestResolverReadsSnapshot(t *testing.T) {
	tl := newTestTimeline()
	r := newResolver(t, tl, &countingOpener{})

	track, _ := tl.VideoTrack(0)
	track.Add(timeline.NewClip("C", assetB, timeline.NewTimeRange(0, second), timeline.NewTimeRange(1*second, second), 0))

	res, err := r.Resolve(context.Background(), 0, 1_500_000)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !res.Gap {
		t.Fatalf("resolver saw an edit made after it was created: %+v", res)
	}
}

func TestResolveAfterClose(t *testing.T) {
	r, err := playback.NewResolver(context.Background(), newTestTimeline(), playback.ResolverOptions{Open: (&countingOpener{}).open})
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	if err := r.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := r.Resolve(context.Background(), 0, 0); !errors.Is(err, playback.ErrResolverClosed) {
		t.Fatalf("expected ErrResolverClosed, got %v", err)
	}
}

func TestRenderCountsFramesGapsAndFailures(t *testing.T) {
	// Sources end at 5.5s, so the second half of clip A fails to decode.
	opener := &countingOpener{duration: 5_500_000}
	r := newResolver(t, newTestTimeline(), opener)

	var reports []playback.FrameReport
	summary, err := playback.Render(context.Background(), r, playback.RenderOptions{
		Logger:    logging.NewNop(),
		Frames:    90,
		FrameRate: 30,
		OnFrame:   func(fr playback.FrameReport) { reports = append(reports, fr) },
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if summary.SessionID == "" {
		t.Fatal("expected a session id")
	}
	if summary.Frames != 90 || summary.Gaps != 30 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	// Frames 0..14 land below 5.5s in A; 15..29 are past the source end.
	if summary.Failed != 15 || summary.Decoded != 45 {
		t.Fatalf("decoded %d failed %d, want 45 and 15", summary.Decoded, summary.Failed)
	}
	if len(reports) != 90 {
		t.Fatalf("observed %d frames, want 90", len(reports))
	}
	if reports[60].Clip != "B" || reports[60].Time != 2*second || reports[60].Payload != media.PayloadCPU {
		t.Fatalf("unexpected report for frame 60: %+v", reports[60])
	}
	if !errors.Is(reports[20].Err, media.ErrDecode) {
		t.Fatalf("frame 20: expected ErrDecode, got %v", reports[20].Err)
	}
}

func TestRenderStopsWhenContextEnds(t *testing.T) {
	r := newResolver(t, newTestTimeline(), &countingOpener{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := playback.Render(ctx, r, playback.RenderOptions{Frames: 10, FrameRate: 30})
	if !errors.Is(err, context.Canceled) && !errors.Is(err, decoder.ErrActorTerminated) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestRenderRejectsBadOptions(t *testing.T) {
	r := newResolver(t, newTestTimeline(), &countingOpener{})
	if _, err := playback.Render(context.Background(), r, playback.RenderOptions{Frames: 1}); err == nil {
		t.Fatal("expected error for zero frame rate")
	}
	if _, err := playback.Render(context.Background(), r, playback.RenderOptions{Frames: -1, FrameRate: 24}); err == nil {
		t.Fatal("expected error for negative frame count")
	}
}

func TestFrameTime(t *testing.T) {
	cases := []struct {
		start uint64
		index int
		fps   int
		want  uint64
	}{
		{0, 0, 30, 0},
		{0, 1, 30, 33_333},
		{0, 30, 30, 1_000_000},
		{500, 2, 25, 80_500},
		{0, 1001, 1000, 1_001_000},
	}
	for _, tc := range cases {
		if got := playback.FrameTime(tc.start, tc.index, tc.fps); got != tc.want {
			t.Fatalf("FrameTime(%d, %d, %d) = %d, want %d", tc.start, tc.index, tc.fps, got, tc.want)
		}
	}
}

func TestOpenerFromConfigFallsBack(t *testing.T) {
	cfg := config.Default().Decoder
	cfg.Backend = media.BackendVAAPI
	cfg.Width, cfg.Height = 4, 2

	src, err := playback.OpenerFromConfig(cfg, nil)(assetA)
	if err != nil {
		t.Fatalf("open with fallback: %v", err)
	}
	if _, ok := src.(*media.MockSource); !ok {
		t.Fatalf("expected mock fallback, got %T", src)
	}

	cfg.FallbackToMock = false
	if _, err := playback.OpenerFromConfig(cfg, logging.NewNop())(assetA); !errors.Is(err, media.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}
