package audio

import "context"

// Backend is the capability set every platform capture implementation
// satisfies (spec §4.1, §9 "polymorphism across OS audio backends is a
// capability set, not inheritance"). A build selects exactly one
// implementation; StubBackend is an acceptable placeholder for platforms
// without a real vendor binding.
type Backend interface {
	// ListInputDevices enumerates microphone-style capture devices.
	ListInputDevices(ctx context.Context) ([]Device, error)
	// ListSystemDevices enumerates playback-monitor devices usable as an
	// AEC reference stream.
	ListSystemDevices(ctx context.Context) ([]Device, error)
	// Start opens the primary (and optional reference) device and begins
	// delivering frames to the channel returned by Frames. Start must not
	// block past spec §5's 2s device-open timeout; on failure it returns
	// ErrDeviceUnavailable, ErrFormatUnsupported or ErrBackendFault.
	Start(ctx context.Context, primary Device, reference *Device) error
	// Stop halts capture and releases the OS stream. Stop is idempotent.
	Stop() error
	// Frames returns the channel frames are pushed to. There is one
	// channel per source: index 0 is always primary, index 1 (if present)
	// is the reference stream.
	Frames() []<-chan Frame
	// NativeFormat reports the format the backend is actually delivering,
	// which may differ from any requested rate.
	NativeFormat() Format
}
