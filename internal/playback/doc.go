// Package playback turns timeline instants into decoded frames.
//
// A Resolver works on a snapshot of a timeline: it finds the clip covering
// an instant on a video track, maps the instant into the clip's source
// window, and asks that asset's decoder actor for the frame. Actors are
// spawned lazily, one per asset, and shut down by Resolver.Close.
//
// Render drives a Resolver through a fixed number of frames at a frame rate
// without presenting anything, the way a headless pipeline check would.
package playback
