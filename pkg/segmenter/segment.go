// Package segmenter turns speech-detector events (or push-to-talk
// key-edges) into bounded audio Segments ready for transcription (C7, C8).
package segmenter

import "errors"

// ErrHotkeyPermissionDenied is spec §7's HotkeyPermissionDenied: the OS
// denied global hotkey capture, so PTT is unavailable while Automatic mode
// keeps working. No hotkey-listener component in this tree can observe an
// OS denial (see DESIGN.md); this is the error a future one would raise
// through Session.NotifyHotkeyPermissionDenied.
var ErrHotkeyPermissionDenied = errors.New("segmenter: OS denied global hotkey capture")

// ClosedReason records why a Segment was cut, for diagnostics and tests.
type ClosedReason int

const (
	// ClosedMaxDuration means the segment hit the ~1s soft cap and was cut
	// at a word-break (or, failing that, after a 500ms grace period).
	ClosedMaxDuration ClosedReason = iota
	// ClosedSpeechEnded means the detector observed sustained silence.
	ClosedSpeechEnded
	// ClosedPTTRelease means the push-to-talk key was released.
	ClosedPTTRelease
)

func (r ClosedReason) String() string {
	switch r {
	case ClosedMaxDuration:
		return "max_duration"
	case ClosedSpeechEnded:
		return "speech_ended"
	case ClosedPTTRelease:
		return "ptt_release"
	default:
		return "unknown"
	}
}

// Origin records which component produced a Segment.
type Origin int

const (
	OriginAutomatic Origin = iota
	OriginPushToTalk
)

func (o Origin) String() string {
	if o == OriginPushToTalk {
		return "push_to_talk"
	}
	return "automatic"
}

// Segment is a contiguous span of mono-16k samples ready for C9. Immutable
// once enqueued; EndIndex >= StartIndex and len(Samples) == EndIndex -
// StartIndex.
type Segment struct {
	StartIndex    uint64
	EndIndex      uint64
	Samples       []float32
	Origin        Origin
	ClosedBecause ClosedReason
}
