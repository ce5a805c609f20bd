package decoder

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"nle/internal/logging"
	"nle/internal/media"
)

// DefaultMailboxSize is the number of pending requests an actor accepts
// before senders wait.
const DefaultMailboxSize = 32

var (
	// ErrActorTerminated reports a request the actor will never serve, either
	// because it exited before answering or because it no longer accepts work.
	ErrActorTerminated = errors.New("decoder actor terminated")
	// ErrHandleClosed reports use of a handle after Close.
	ErrHandleClosed = errors.New("decoder handle closed")
	// ErrUnbufferedReply rejects a reply channel the actor could block on.
	ErrUnbufferedReply = errors.New("reply channel must be buffered")
)

// Result is the single outcome written to a request's reply channel.
type Result struct {
	Frame media.VideoFrame
	Err   error
}

// GetFrame asks for the frame at Time. Reply receives exactly one Result and
// must have buffer room for it; use NewReply.
type GetFrame struct {
	Time  uint64
	Reply chan<- Result
}

// NewReply returns a single-use reply channel.
func NewReply() chan Result {
	return make(chan Result, 1)
}

type envelope struct {
	req GetFrame
	ctx context.Context
}

// mailbox is shared by every handle of one actor.
type mailbox struct {
	requests chan envelope
	// quit closes when the last handle is closed.
	quit chan struct{}
	// stopping closes when the actor stops accepting; blocked senders give up.
	stopping chan struct{}
	// done closes after the actor answered everything it accepted.
	done chan struct{}

	mu        sync.Mutex
	refs      int
	accepting bool
	senders   sync.WaitGroup

	stats counters
}

// Handle is a producer's reference to a running actor. Handles are safe for
// concurrent use; Clone one per producer so each can Close independently.
type Handle struct {
	mb     *mailbox
	closed atomic.Bool
}

// Spawn starts an actor that owns src and returns the first handle to it.
// The actor runs until ctx ends or every handle is closed.
func Spawn(ctx context.Context, src media.Source, opts ...Option) *Handle {
	cfg := options{mailboxSize: DefaultMailboxSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.mailboxSize < 1 {
		cfg.mailboxSize = DefaultMailboxSize
	}

	mb := &mailbox{
		requests:  make(chan envelope, cfg.mailboxSize),
		quit:      make(chan struct{}),
		stopping:  make(chan struct{}),
		done:      make(chan struct{}),
		refs:      1,
		accepting: true,
	}

	logger := logging.NewComponentLogger(cfg.logger, "decoder")
	if cfg.name != "" {
		logger = logger.With(logging.String("source", cfg.name))
	}

	a := &actor{source: src, mb: mb, logger: logger}
	go a.run(ctx)

	return &Handle{mb: mb}
}

// Clone returns another handle to the same actor. The actor keeps running
// until every handle, including clones, is closed. Cloning a closed handle
// yields a closed handle.
func (h *Handle) Clone() *Handle {
	clone := &Handle{mb: h.mb}
	if h.closed.Load() {
		clone.closed.Store(true)
		return clone
	}
	h.mb.mu.Lock()
	h.mb.refs++
	h.mb.mu.Unlock()
	return clone
}

// Close releases this handle. Closing the last handle lets the actor finish
// the requests already in its mailbox and exit. Close is idempotent.
func (h *Handle) Close() {
	if !h.closed.CompareAndSwap(false, true) {
		return
	}
	h.mb.mu.Lock()
	h.mb.refs--
	last := h.mb.refs == 0
	h.mb.mu.Unlock()
	if last {
		close(h.mb.quit)
	}
}

// Send places req in the mailbox, waiting while the mailbox is full. It
// returns ctx.Err() if ctx ends first and ErrActorTerminated if the actor
// stops accepting. A nil error means the request was accepted and Reply
// will receive exactly one Result.
func (h *Handle) Send(ctx context.Context, req GetFrame) error {
	if h.closed.Load() {
		return ErrHandleClosed
	}
	if cap(req.Reply) == 0 {
		return ErrUnbufferedReply
	}
	if ctx == nil {
		ctx = context.Background()
	}

	mb := h.mb
	mb.mu.Lock()
	if !mb.accepting {
		mb.mu.Unlock()
		return ErrActorTerminated
	}
	mb.senders.Add(1)
	mb.mu.Unlock()
	defer mb.senders.Done()

	select {
	case mb.requests <- envelope{req: req, ctx: ctx}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-mb.stopping:
		return ErrActorTerminated
	}
}

// Await waits for the outcome written to reply. Giving up through ctx
// abandons the request; the actor discards the answer when it arrives.
func (h *Handle) Await(ctx context.Context, reply <-chan Result) (media.VideoFrame, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case res := <-reply:
		return res.Frame, res.Err
	case <-ctx.Done():
		return media.VideoFrame{}, ctx.Err()
	case <-h.mb.done:
		select {
		case res := <-reply:
			return res.Frame, res.Err
		default:
			return media.VideoFrame{}, ErrActorTerminated
		}
	}
}

// GetFrame requests the frame at t and waits for it.
func (h *Handle) GetFrame(ctx context.Context, t uint64) (media.VideoFrame, error) {
	reply := NewReply()
	if err := h.Send(ctx, GetFrame{Time: t, Reply: reply}); err != nil {
		return media.VideoFrame{}, err
	}
	return h.Await(ctx, reply)
}

// Done closes once the actor has terminated.
func (h *Handle) Done() <-chan struct{} {
	return h.mb.done
}

// Terminated reports whether the actor has exited.
func (h *Handle) Terminated() bool {
	select {
	case <-h.mb.done:
		return true
	default:
		return false
	}
}

// Stats returns the actor's request counters.
func (h *Handle) Stats() Stats {
	return h.mb.stats.snapshot()
}

// Option customizes Spawn.
type Option func(*options)

type options struct {
	mailboxSize int
	logger      *slog.Logger
	name        string
}

// WithMailboxSize overrides DefaultMailboxSize.
func WithMailboxSize(n int) Option {
	return func(o *options) { o.mailboxSize = n }
}

// WithLogger sets the base logger for the actor.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithName labels the actor's log lines, typically with the asset id.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}
