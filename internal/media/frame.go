package media

import (
	"errors"
	"fmt"
)

// ErrUnsyncedHandle rejects a handle payload that does not declare how the
// referenced resource is synchronized between producer and consumer.
var ErrUnsyncedHandle = errors.New("handle payload without declared synchronization")

// PayloadKind identifies the variant stored in a Payload.
type PayloadKind int

const (
	PayloadCPU PayloadKind = iota
	PayloadDMABuf
	PayloadGPU
	PayloadPlatform
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadCPU:
		return "cpu"
	case PayloadDMABuf:
		return "dmabuf"
	case PayloadGPU:
		return "gpu"
	case PayloadPlatform:
		return "platform"
	default:
		return fmt.Sprintf("payload(%d)", int(k))
	}
}

// Payload is the closed set of frame storage variants. Only this package
// can add variants.
type Payload interface {
	Kind() PayloadKind
	isPayload()
}

// HandleSync names the mechanism that orders access to a resource referenced
// by a handle payload. It is the audit point for sharing opaque handles
// across goroutines: the Go runtime cannot see what the platform does.
type HandleSync int

const (
	// SyncUnspecified is the zero value and is rejected by NewFrame.
	SyncUnspecified HandleSync = iota
	// SyncImplicitFence: the kernel attaches fences to the dma-buf reservation
	// object and importers wait on them (Linux DRM/VA-API).
	SyncImplicitFence
	// SyncExplicitFence: a sync_file or GPU fence travels with the frame and
	// the consumer waits on it before reading.
	SyncExplicitFence
	// SyncKeyedMutex: a DXGI keyed mutex on the shared resource (Direct3D).
	SyncKeyedMutex
	// SyncRetained: the reference is retained for the frame's lifetime and the
	// producer never writes to it again (CoreVideo / IOSurface).
	SyncRetained
)

func (s HandleSync) String() string {
	switch s {
	case SyncImplicitFence:
		return "implicit-fence"
	case SyncExplicitFence:
		return "explicit-fence"
	case SyncKeyedMutex:
		return "keyed-mutex"
	case SyncRetained:
		return "retained"
	default:
		return "unspecified"
	}
}

// SharedHandle is implemented by payloads that reference resources owned by
// another subsystem.
type SharedHandle interface {
	Payload
	Synchronization() HandleSync
}

// CPUBuffer is a frame resident in Go memory. The frame owns Data.
type CPUBuffer struct {
	Data []byte
}

func (CPUBuffer) Kind() PayloadKind { return PayloadCPU }
func (CPUBuffer) isPayload()        {}

// DMABuf references a Linux dma-buf file descriptor. The producing source
// owns the descriptor and keeps it open while consumers may import it.
type DMABuf struct {
	FD     int
	Offset uint32
	Stride uint32
	Sync   HandleSync
}

func (DMABuf) Kind() PayloadKind             { return PayloadDMABuf }
func (DMABuf) isPayload()                    {}
func (d DMABuf) Synchronization() HandleSync { return d.Sync }

// GPUHandle references a graphics API resource such as a shared Direct3D 12
// texture handle.
type GPUHandle struct {
	Handle uintptr
	Sync   HandleSync
}

func (GPUHandle) Kind() PayloadKind             { return PayloadGPU }
func (GPUHandle) isPayload()                    {}
func (g GPUHandle) Synchronization() HandleSync { return g.Sync }

// PlatformRef references a platform media object, for example a retained
// CVPixelBuffer. The address is foreign memory and never dereferenced here.
type PlatformRef struct {
	Ref  uintptr
	Sync HandleSync
}

func (PlatformRef) Kind() PayloadKind             { return PayloadPlatform }
func (PlatformRef) isPayload()                    {}
func (p PlatformRef) Synchronization() HandleSync { return p.Sync }

// VideoFrame is one decoded picture.
type VideoFrame struct {
	Payload  Payload
	Timecode uint64
	Width    uint32
	Height   uint32
}

// NewFrame validates and assembles a frame. Handle payloads must declare
// their synchronization.
func NewFrame(payload Payload, timecode uint64, width, height uint32) (VideoFrame, error) {
	if payload == nil {
		return VideoFrame{}, errors.New("frame payload is nil")
	}
	if shared, ok := payload.(SharedHandle); ok && shared.Synchronization() == SyncUnspecified {
		return VideoFrame{}, fmt.Errorf("%s payload: %w", payload.Kind(), ErrUnsyncedHandle)
	}
	return VideoFrame{Payload: payload, Timecode: timecode, Width: width, Height: height}, nil
}

// CPUData returns the frame bytes when the payload is CPU resident.
func (f VideoFrame) CPUData() ([]byte, bool) {
	buf, ok := f.Payload.(CPUBuffer)
	if !ok {
		return nil, false
	}
	return buf.Data, true
}

// RGBASize returns width*height*4 without overflowing 32-bit arithmetic.
func RGBASize(width, height uint32) uint64 {
	return uint64(width) * uint64(height) * 4
}
