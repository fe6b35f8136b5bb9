package audio

import "errors"

// Error kinds from spec §7 that originate in the audio layer.
var (
	// ErrDeviceUnavailable means capture could not start or a stream died.
	ErrDeviceUnavailable = errors.New("audio: device unavailable")
	// ErrFormatUnsupported means the device cannot deliver the requested
	// float32 capture format.
	ErrFormatUnsupported = errors.New("audio: capture format unsupported")
	// ErrBackendFault is a catch-all for vendor-API failures that are
	// neither a missing device nor a format mismatch.
	ErrBackendFault = errors.New("audio: backend fault")
	// ErrSampleIndexExpired is returned by RingBuffer.Read when the
	// requested window has already been evicted.
	ErrSampleIndexExpired = errors.New("audio: sample index expired")
)
