package decoder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"nle/internal/logging"
	"nle/internal/media"
)

type actor struct {
	source media.Source
	mb     *mailbox
	logger *slog.Logger
}

func (a *actor) run(ctx context.Context) {
	defer close(a.mb.done)
	defer a.closeSource()

	a.logger.Debug("decoder actor started", logging.Int("mailbox_size", cap(a.mb.requests)))

	for {
		select {
		case env := <-a.mb.requests:
			a.serve(ctx, env)
		case <-a.mb.quit:
			a.shutdown(ctx)
			a.logger.Debug("decoder actor stopped", logging.String("reason", "handles closed"))
			return
		case <-ctx.Done():
			a.shutdown(ctx)
			a.logger.Debug("decoder actor stopped", logging.String("reason", "context done"), logging.Error(ctx.Err()))
			return
		}
	}
}

// shutdown stops accepting, waits for senders already past the accepting
// check, then settles whatever is left in the mailbox. Remaining requests
// are served while ctx is live and answered ErrActorTerminated otherwise.
func (a *actor) shutdown(ctx context.Context) {
	a.mb.mu.Lock()
	a.mb.accepting = false
	a.mb.mu.Unlock()
	close(a.mb.stopping)
	a.mb.senders.Wait()

	for {
		select {
		case env := <-a.mb.requests:
			if ctx.Err() != nil {
				a.mb.stats.terminated.Add(1)
				a.deliver(env, Result{Err: ErrActorTerminated})
				continue
			}
			a.serve(ctx, env)
		default:
			return
		}
	}
}

func (a *actor) serve(ctx context.Context, env envelope) {
	t := env.req.Time
	if err := env.ctx.Err(); err != nil {
		a.mb.stats.abandoned.Add(1)
		a.logger.Debug("skipping abandoned frame request", logging.Uint64(logging.FieldTimeUS, t))
		a.deliver(env, Result{Err: err})
		return
	}

	frame, err := a.decode(ctx, t)
	switch {
	case err == nil:
		a.mb.stats.served.Add(1)
	case ctx.Err() != nil:
		a.mb.stats.terminated.Add(1)
		err = fmt.Errorf("%w: %w", ErrActorTerminated, err)
	default:
		a.mb.stats.failed.Add(1)
		a.logger.Debug("frame decode failed",
			logging.Uint64(logging.FieldTimeUS, t),
			logging.Error(err),
		)
	}
	a.deliver(env, Result{Frame: frame, Err: err})
}

// decode calls the source and normalizes failures to media.ErrDecode,
// including a panic inside the source.
func (a *actor) decode(ctx context.Context, t uint64) (frame media.VideoFrame, err error) {
	defer func() {
		if r := recover(); r != nil {
			frame = media.VideoFrame{}
			err = fmt.Errorf("source panicked at %d: %v: %w", t, r, media.ErrDecode)
		}
	}()
	frame, err = a.source.FrameAt(ctx, t)
	if err != nil && !errors.Is(err, media.ErrDecode) && ctx.Err() == nil {
		err = fmt.Errorf("frame at %d: %w: %w", t, media.ErrDecode, err)
	}
	return frame, err
}

// deliver never blocks: the reply buffer holds the single answer, and a
// reused or full channel loses it.
func (a *actor) deliver(env envelope, res Result) {
	select {
	case env.req.Reply <- res:
	default:
		a.mb.stats.discarded.Add(1)
		a.logger.Debug("reply channel full; answer discarded", logging.Uint64(logging.FieldTimeUS, env.req.Time))
	}
}

func (a *actor) closeSource() {
	closer, ok := a.source.(io.Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		a.logger.Warn("decoder source close failed", logging.Error(err))
	}
}

// Stats counts request outcomes for one actor.
type Stats struct {
	Served     uint64
	Failed     uint64
	Abandoned  uint64
	Terminated uint64
	Discarded  uint64
}

type counters struct {
	served     atomic.Uint64
	failed     atomic.Uint64
	abandoned  atomic.Uint64
	terminated atomic.Uint64
	discarded  atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Served:     c.served.Load(),
		Failed:     c.failed.Load(),
		Abandoned:  c.abandoned.Load(),
		Terminated: c.terminated.Load(),
		Discarded:  c.discarded.Load(),
	}
}
