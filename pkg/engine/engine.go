// Package engine wraps the opaque speech-to-text engine contract (C9's
// engine.transcribe) behind a small interface, with a sherpa-onnx-backed
// implementation selected per platform.
package engine

import "errors"

// Error kinds from spec §7 that originate in the transcription engine.
var (
	// ErrEngineUnavailable means the engine failed to load (missing or
	// corrupt model files, unsupported provider); this disables
	// transcription for the session but segments still produce audio.
	ErrEngineUnavailable = errors.New("engine: unavailable")
	// ErrTranscribeFailed is a transient per-segment decode failure; the
	// worker survives it and continues processing later segments.
	ErrTranscribeFailed = errors.New("engine: transcribe failed")
)

// Engine is the capability set a speech-to-text backend must satisfy. It is
// intentionally opaque about model architecture: callers only feed mono
// 16kHz float32 samples and get text back.
type Engine interface {
	// Transcribe decodes samples (mono 16kHz float32) and returns the
	// recognized text.
	Transcribe(samples []float32) (string, error)
	// Close releases any native resources held by the engine.
	Close() error
}

// Status describes model availability for the check_model_status /
// download_model operations in spec §4.9.
type Status struct {
	Ready     bool
	ModelPath string
	Detail    string
}
