package engine

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/keathmilligan/flowstt/pkg/audio"
	"github.com/keathmilligan/flowstt/pkg/history"
	"github.com/keathmilligan/flowstt/pkg/segmenter"
)

// noSpeechText is substituted when the engine returns an empty or
// whitespace-only result (spec §4.8).
const noSpeechText = "(No speech detected)"

// Events is the capability the worker needs to publish transcription
// results onto the broadcast bus (spec §4.9), kept as a narrow interface so
// this package does not need to import the event bus.
type Events interface {
	TranscriptionComplete(id, text, timestamp, audioPath string)
	TranscriptionError(id, kind string)
}

// Worker is the dedicated C9 thread: it dequeues segments, writes their WAV,
// runs the engine, and appends a history entry.
type Worker struct {
	segments <-chan *segmenter.Segment
	historyDir string
	history  *history.Store
	events   Events
	sampleRate int

	engine Engine // nil once an unrecoverable load failure has occurred
}

// NewWorker creates a worker reading from segments. engine may be nil, in
// which case every segment still produces a WAV but transcription is
// skipped with a transcription-error event (spec §4.8 "unrecoverable
// engine-load failure disables transcription for the session").
func NewWorker(segments <-chan *segmenter.Segment, historyDir string, store *history.Store, eng Engine, events Events, sampleRate int) *Worker {
	return &Worker{
		segments:   segments,
		historyDir: historyDir,
		history:    store,
		engine:     eng,
		events:     events,
		sampleRate: sampleRate,
	}
}

// Run drains segments until the channel is closed. Call it from its own
// goroutine; it blocks for the worker's lifetime.
func (w *Worker) Run() {
	for seg := range w.segments {
		w.process(seg)
	}
}

func (w *Worker) process(seg *segmenter.Segment) {
	id := uuid.NewString()
	wavPath := filepath.Join(w.historyDir, id+".wav")

	if err := audio.WriteSegmentFile(wavPath, seg.Samples, w.sampleRate); err != nil {
		w.events.TranscriptionError(id, "wav_write_failed")
		return
	}

	if w.engine == nil {
		w.events.TranscriptionError(id, "engine_unavailable")
		return
	}

	text, err := w.engine.Transcribe(seg.Samples)
	if err != nil {
		os.Remove(wavPath)
		w.events.TranscriptionError(id, classifyErr(err))
		return
	}

	if isBlank(text) {
		text = noSpeechText
	}

	entry, err := w.history.Append(id, text, wavPath)
	if err != nil {
		w.events.TranscriptionError(id, "history_write_failed")
		return
	}

	w.events.TranscriptionComplete(entry.ID, entry.Text, entry.Timestamp, entry.WavPath)
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}

func classifyErr(err error) string {
	switch {
	case errors.Is(err, ErrEngineUnavailable):
		return "engine_unavailable"
	case errors.Is(err, ErrTranscribeFailed):
		return "transcribe_failed"
	default:
		return "unknown"
	}
}
