package segmenter

import (
	"time"

	"github.com/keathmilligan/flowstt/pkg/detector"
)

// Ring is the capability the segmenter needs from the sample bus: extracting
// a contiguous span by sample index (spec §9 capability-set interfaces).
type Ring interface {
	Read(start, end uint64) ([]float32, error)
}

// maxDurationMs and graceMs implement spec §4.6 rules 3 and 5.
const (
	maxDurationMs = 1000
	graceMs       = 500
	rate          = 16000 // fixed pipeline rate
)

// Automatic implements the C7 segmenter: it consumes detector events plus
// the ring buffer and enqueues Segments. It is driven one hop at a time by
// the same loop that runs the detector, so duration accounting lines up
// exactly with sample-index space.
type Automatic struct {
	ring  Ring
	queue chan<- *Segment

	active       bool
	segStart     uint64
	seekingBreak bool
	graceDeadline time.Time
	now          func() time.Time
}

// NewAutomatic creates a segmenter that extracts from ring and pushes
// completed segments onto queue. queue is expected to be a bounded channel;
// enqueueing a segment blocks when it is full, per spec §4.6.
func NewAutomatic(ring Ring, queue chan<- *Segment) *Automatic {
	return &Automatic{ring: ring, queue: queue, now: time.Now}
}

// ProcessHop advances the segmenter by one hop at sampleIndex, applying any
// detector events raised for that same hop.
func (a *Automatic) ProcessHop(sampleIndex uint64, events []detector.Event) {
	for _, ev := range events {
		switch ev.Type {
		case detector.EventSpeechStarted:
			a.onSpeechStarted(sampleIndex, ev.LookbackOffsetMs)
		case detector.EventWordBreak:
			a.onWordBreak(sampleIndex, ev.GapMs)
		case detector.EventSpeechEnded:
			a.onSpeechEnded(sampleIndex)
		}
	}

	if a.active && a.seekingBreak && a.now().After(a.graceDeadline) {
		a.cut(sampleIndex, ClosedMaxDuration)
		a.segStart = sampleIndex
		a.seekingBreak = false
	}

	if a.active && !a.seekingBreak {
		durationMs := (sampleIndex - a.segStart) * 1000 / rate
		if durationMs >= maxDurationMs {
			a.seekingBreak = true
			a.graceDeadline = a.now().Add(graceMs * time.Millisecond)
		}
	}
}

func (a *Automatic) onSpeechStarted(sampleIndex uint64, lookbackMs int) {
	lookbackSamples := uint64(lookbackMs) * rate / 1000
	if lookbackSamples > sampleIndex {
		lookbackSamples = sampleIndex
	}
	a.segStart = sampleIndex - lookbackSamples
	a.seekingBreak = false
	a.active = true
}

func (a *Automatic) onWordBreak(sampleIndex uint64, gapMs int) {
	if !a.active || !a.seekingBreak {
		return
	}
	cutBack := uint64(gapMs/2) * rate / 1000
	cut := sampleIndex
	if cutBack < cut {
		cut -= cutBack
	} else {
		cut = 0
	}
	a.cut(cut, ClosedMaxDuration)
	a.segStart = cut
	a.seekingBreak = false
}

func (a *Automatic) onSpeechEnded(sampleIndex uint64) {
	if !a.active {
		return
	}
	a.cut(sampleIndex, ClosedSpeechEnded)
	a.active = false
	a.seekingBreak = false
}

func (a *Automatic) cut(end uint64, reason ClosedReason) {
	if end <= a.segStart {
		return
	}
	samples, err := a.ring.Read(a.segStart, end)
	if err != nil || len(samples) == 0 {
		return
	}
	a.queue <- &Segment{StartIndex: a.segStart, EndIndex: end, Samples: samples, Origin: OriginAutomatic, ClosedBecause: reason}
}
