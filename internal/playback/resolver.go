package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"nle/internal/decoder"
	"nle/internal/logging"
	"nle/internal/media"
	"nle/internal/timeline"
)

// ErrResolverClosed reports use of a Resolver after Close.
var ErrResolverClosed = errors.New("resolver closed")

// Resolution describes what a video track shows at one instant.
type Resolution struct {
	Time uint64
	// Gap is true when no clip covers Time; Clip and Frame are zero then.
	Gap        bool
	Clip       timeline.Clip
	SourceTime uint64
	Frame      media.VideoFrame
}

// ResolverOptions configures NewResolver.
type ResolverOptions struct {
	Logger      *slog.Logger
	Open        SourceOpener
	MailboxSize int
}

// Resolver maps timeline instants to frames through per-asset decoder
// actors. It is safe for concurrent use.
type Resolver struct {
	timeline    *timeline.Timeline
	open        SourceOpener
	logger      *slog.Logger
	baseLogger  *slog.Logger
	mailboxSize int
	// actors outlive individual requests and stop on Close or when ctx ends.
	ctx context.Context

	mu       sync.Mutex
	closed   bool
	decoders map[uuid.UUID]*decoder.Handle
}

// NewResolver snapshots tl; later edits to tl are not visible to the resolver.
func NewResolver(ctx context.Context, tl *timeline.Timeline, opts ResolverOptions) (*Resolver, error) {
	if tl == nil {
		return nil, errors.New("timeline is required")
	}
	if opts.Open == nil {
		return nil, errors.New("source opener is required")
	}
	return &Resolver{
		timeline:    tl.Snapshot(),
		open:        opts.Open,
		logger:      logging.NewComponentLogger(opts.Logger, "playback"),
		baseLogger:  opts.Logger,
		mailboxSize: opts.MailboxSize,
		ctx:         ctx,
		decoders:    make(map[uuid.UUID]*decoder.Handle),
	}, nil
}

// Timeline returns the snapshot the resolver reads.
func (r *Resolver) Timeline() *timeline.Timeline {
	return r.timeline
}

// Resolve returns the frame shown at t on video track index. An instant in
// a gap resolves without error and without decoding.
func (r *Resolver) Resolve(ctx context.Context, track int, t uint64) (Resolution, error) {
	res := Resolution{Time: t}
	tr, err := r.timeline.VideoTrack(track)
	if err != nil {
		return res, err
	}
	clip, ok := tr.Query(t)
	if !ok {
		res.Gap = true
		return res, nil
	}
	res.Clip = clip
	res.SourceTime, _ = clip.SourceTimeAt(t)

	handle, err := r.decoderFor(clip.AssetUUID())
	if err != nil {
		return res, err
	}
	frame, err := handle.GetFrame(ctx, res.SourceTime)
	if err != nil {
		return res, fmt.Errorf("clip %q at %d: %w", clip.Name, t, err)
	}
	res.Frame = frame
	return res, nil
}

func (r *Resolver) decoderFor(assetID uuid.UUID) (*decoder.Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrResolverClosed
	}
	if handle, ok := r.decoders[assetID]; ok {
		return handle, nil
	}

	src, err := r.open(assetID)
	if err != nil {
		return nil, fmt.Errorf("open asset %s: %w", assetID, err)
	}
	handle := decoder.Spawn(r.ctx, src,
		decoder.WithMailboxSize(r.mailboxSize),
		decoder.WithLogger(r.baseLogger),
		decoder.WithName(assetID.String()),
	)
	r.decoders[assetID] = handle
	r.logger.Debug("decoder spawned", logging.String(logging.FieldAssetID, assetID.String()))
	return handle, nil
}

// Stats returns decoder counters keyed by asset.
func (r *Resolver) Stats() map[uuid.UUID]decoder.Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[uuid.UUID]decoder.Stats, len(r.decoders))
	for id, handle := range r.decoders {
		out[id] = handle.Stats()
	}
	return out
}

// Close releases every decoder and waits for the actors to finish their
// mailboxes or for ctx to end.
func (r *Resolver) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	handles := make([]*decoder.Handle, 0, len(r.decoders))
	for _, handle := range r.decoders {
		handles = append(handles, handle)
	}
	r.mu.Unlock()

	for _, handle := range handles {
		handle.Close()
	}
	for _, handle := range handles {
		select {
		case <-handle.Done():
		case <-ctx.Done():
			return fmt.Errorf("waiting for decoders: %w", ctx.Err())
		}
	}
	return nil
}
