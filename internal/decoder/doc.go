// Package decoder serializes frame requests into a media.Source.
//
// Spawn starts one goroutine (the actor) that owns a Source and a bounded
// mailbox channel. Callers hold a *Handle, clone it for each producer, and
// either send GetFrame messages with their own reply channel or call
// Handle.GetFrame, which does both halves. The actor takes one message at a
// time, calls the Source synchronously and writes the outcome to that
// request's reply channel, so answers come back in the order requests were
// accepted and the Source never sees two calls at once.
//
// Every accepted request gets exactly one outcome: a frame, the Source's
// error, or ErrActorTerminated when the actor's context ends first. A
// requester that stops waiting simply never reads its reply; the actor
// writes into the reply's buffer and moves on.
//
// The actor stops when its context is cancelled or when every handle has
// been closed and the mailbox has been worked off.
package decoder
