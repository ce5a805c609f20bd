// Package media defines the decoded-frame model and the Source capability
// that produces frames for a requested instant.
//
// A VideoFrame carries exactly one Payload variant. CPUBuffer owns its bytes;
// DMABuf, GPUHandle and PlatformRef only reference resources owned by the
// platform subsystem, and each of them must name the synchronization that
// makes the handle safe to hand from a decoder goroutine to a consumer.
// NewFrame refuses handle payloads that do not.
//
// Source implementations are not safe for concurrent use: callers must keep
// at most one FrameAt call in flight per instance. The decoder package
// enforces that by funnelling every request through a single goroutine.
//
// MockSource is the only backend shipped here. Open resolves a backend name
// and reports ErrUnsupportedFormat for anything else; OpenWithFallback lets
// callers degrade to the mock instead.
package media
