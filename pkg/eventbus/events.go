// Package eventbus implements the broadcast hub every capture-session
// subscriber drains (C10): visualization frames, detector events,
// transcription results, and capture-state changes.
package eventbus

// Type names the broadcast event types defined in spec §4.9.
type Type string

const (
	TypeVisualizationData     Type = "visualization-data"
	TypeSpeechStarted         Type = "speech-started"
	TypeWordBreak             Type = "word-break"
	TypeSpeechEnded           Type = "speech-ended"
	TypeTranscriptionComplete Type = "transcription-complete"
	TypeTranscriptionError    Type = "transcription-error"
	TypeCaptureStateChanged   Type = "capture-state-changed"
	TypeHistoryEntryDeleted   Type = "history-entry-deleted"
)

// Event is the envelope broadcast to every subscriber.
type Event struct {
	Type Type        `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// SpeechStartedData is the payload for TypeSpeechStarted.
type SpeechStartedData struct {
	SampleIndex      uint64 `json:"sample_index"`
	LookbackOffsetMs int    `json:"lookback_offset_ms"`
}

// WordBreakData is the payload for TypeWordBreak.
type WordBreakData struct {
	OffsetMs int `json:"offset_ms"`
	GapMs    int `json:"gap_ms"`
}

// SpeechEndedData is the payload for TypeSpeechEnded.
type SpeechEndedData struct {
	SampleIndex uint64 `json:"sample_index"`
}

// TranscriptionCompleteData is the payload for TypeTranscriptionComplete.
type TranscriptionCompleteData struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
	AudioPath string `json:"audio_path"`
}

// TranscriptionErrorData is the payload for TypeTranscriptionError.
type TranscriptionErrorData struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
}

// CaptureStateChangedData is the payload for TypeCaptureStateChanged. Every
// subscriber that connects mid-session receives a synthesized copy of this
// summarizing current state (spec §4.9).
type CaptureStateChangedData struct {
	Capturing bool   `json:"capturing"`
	Error     string `json:"error,omitempty"`
}

// HistoryEntryDeletedData is the payload for TypeHistoryEntryDeleted.
type HistoryEntryDeletedData struct {
	ID string `json:"id"`
}

// VisualizationData is the payload for TypeVisualizationData (spec §4.10).
type VisualizationData struct {
	Waveform          []float32 `json:"waveform"`
	SpectrogramColumn []byte    `json:"spectrogram_column,omitempty"`
	AmplitudeDB       float64   `json:"amplitude_db"`
	ZCR               float64   `json:"zcr"`
	CentroidHz        float64   `json:"centroid_hz"`
	IsSpeaking        bool      `json:"is_speaking"`
	IsVoicedPending   bool      `json:"is_voiced_pending"`
	IsWhisperPending  bool      `json:"is_whisper_pending"`
	IsTransient       bool      `json:"is_transient"`
	IsLookbackSpeech  bool      `json:"is_lookback_speech"`
	LookbackOffsetMs  int       `json:"lookback_offset_ms,omitempty"`
}
