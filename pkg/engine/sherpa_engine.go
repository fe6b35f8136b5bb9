//go:build linux || darwin

package engine

import (
	"fmt"
	"strings"
	"sync"
)

// SherpaEngine wraps a sherpa-onnx offline Whisper-family recognizer.
// sherpa-onnx is not safe for concurrent decode calls on one recognizer, so
// every Transcribe serializes behind mu (mirrored from the upstream
// recognizer wrapper's own VAD/decode split).
type SherpaEngine struct {
	mu         sync.Mutex
	recognizer *offlineRecognizer
	sampleRate int
}

// NewSherpaEngine loads the configured model. A load failure is always
// ErrEngineUnavailable: the caller must treat it as unrecoverable for the
// session (spec §4.8).
func NewSherpaEngine(cfg Config) (Engine, error) {
	rc := &offlineRecognizerConfig{}
	rc.ModelConfig.Whisper.Encoder = cfg.Encoder
	rc.ModelConfig.Whisper.Decoder = cfg.Decoder
	rc.ModelConfig.Whisper.Task = "transcribe"
	rc.ModelConfig.Whisper.TailPaddings = -1

	language := cfg.Language
	if strings.EqualFold(language, "auto") {
		language = ""
	}
	rc.ModelConfig.Whisper.Language = language
	rc.ModelConfig.Tokens = cfg.Tokens
	rc.ModelConfig.NumThreads = cfg.NumThreads
	rc.ModelConfig.Provider = cfg.Provider
	rc.DecodingMethod = "greedy_search"
	if cfg.Debug {
		rc.ModelConfig.Debug = 1
	}

	recognizer := newOfflineRecognizer(rc)
	if recognizer == nil {
		return nil, fmt.Errorf("%w: failed to load whisper model from %s/%s", ErrEngineUnavailable, cfg.Encoder, cfg.Decoder)
	}

	rate := cfg.SampleRate
	if rate == 0 {
		rate = 16000
	}
	return &SherpaEngine{recognizer: recognizer, sampleRate: rate}, nil
}

// Transcribe decodes one segment. Empty or whitespace-only results are
// returned as an empty string; the worker (C9) maps that to the
// "(No speech detected)" placeholder text.
func (e *SherpaEngine) Transcribe(samples []float32) (string, error) {
	if len(samples) == 0 {
		return "", nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	stream := newOfflineStream(e.recognizer)
	if stream == nil {
		return "", fmt.Errorf("%w: could not allocate decode stream", ErrTranscribeFailed)
	}
	defer deleteOfflineStream(stream)

	stream.AcceptWaveform(e.sampleRate, samples)
	e.recognizer.Decode(stream)

	result := stream.GetResult()
	return strings.TrimSpace(result.Text), nil
}

// Close releases the native recognizer.
func (e *SherpaEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.recognizer != nil {
		deleteOfflineRecognizer(e.recognizer)
		e.recognizer = nil
	}
	return nil
}
