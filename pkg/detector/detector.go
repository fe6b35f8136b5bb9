// Package detector implements the speech detector state machine (C6): a
// hysteresis-driven classifier over per-hop dsp.Features that turns raw
// amplitude/ZCR/centroid metrics into speech-started, word-break and
// speech-ended events at precise sample indices.
package detector

import (
	"sync"

	"github.com/keathmilligan/flowstt/pkg/dsp"
)

// State names the detector's position in its speech-onset/offset machine.
type State int

const (
	Idle State = iota
	PendingVoiced
	PendingWhisper
	Speaking
	HoldOff
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case PendingVoiced:
		return "pending_voiced"
	case PendingWhisper:
		return "pending_whisper"
	case Speaking:
		return "speaking"
	case HoldOff:
		return "hold_off"
	default:
		return "unknown"
	}
}

// Thresholds per spec §4.5.
const (
	voicedThresholdDB  = -40.0
	whisperLowDB       = -50.0
	whisperHighDB      = -40.0
	whisperZCRLow      = 0.08
	whisperZCRHigh     = 0.35
	whisperCentroidLow = 800.0
	whisperCentroidHi  = 4000.0
	silenceThresholdDB = -50.0

	onsetFrames     = 3   // N_onset: consecutive qualifying frames to confirm Speaking
	lookbackCapMs   = 200 // cap on reported lookback_offset_ms
	wordBreakMinMs  = 40
	wordBreakMaxMs  = 140
	speechEndedMs   = 300
	holdOffRefracMs = 80
)

// EventType enumerates the detector's emitted events.
type EventType int

const (
	EventSpeechStarted EventType = iota
	EventWordBreak
	EventSpeechEnded
)

// Event is emitted at a specific sample index, always in strictly increasing
// order within a capture session (spec §4.5 "Ordering").
type Event struct {
	Type             EventType
	SampleIndex      uint64
	LookbackOffsetMs int // EventSpeechStarted only
	OffsetMs         int // EventWordBreak only: SampleIndex expressed in ms
	GapMs            int // EventWordBreak only
}

// Metrics is the latest per-hop snapshot exposed to visualization and the
// service status API (spec §4.4 "Speech metrics").
type Metrics struct {
	AmplitudeDB      float64
	ZCR              float64
	CentroidHz       float64
	IsSpeaking       bool
	IsVoicedPending  bool
	IsWhisperPending bool
	IsTransient      bool
	IsLookbackSpeech bool
	LookbackOffsetMs int
}

type historyFrame struct {
	index     uint64
	amplitude float64
	qualifies bool
}

// Detector runs the state machine across successive hops. Process must be
// called from a single consumer goroutine; LastMetrics is additionally
// safe to call concurrently from the visualization fan-out thread.
type Detector struct {
	state State

	qualifyingStreak int
	lookback         []historyFrame

	dipStart  int64 // sample index where amp first dropped below threshold, or -1
	holdOffAt uint64
	speaking  bool

	metricsMu   sync.RWMutex
	lastMetrics Metrics

	hopSamples int
}

// New creates a detector for hops of hopSamples length (spec §4.4: 160
// samples / 10ms at 16kHz).
func New(hopSamples int) *Detector {
	return &Detector{hopSamples: hopSamples, dipStart: -1}
}

// Process advances the state machine by one hop at sampleIndex (the index of
// the hop's first sample) and returns any events raised.
func (d *Detector) Process(sampleIndex uint64, f dsp.Features) []Event {
	var events []Event

	qualifiesVoiced := f.AmplitudeDB >= voicedThresholdDB && !f.IsTransient
	qualifiesWhisper := f.AmplitudeDB >= whisperLowDB && f.AmplitudeDB < whisperHighDB &&
		f.ZCR >= whisperZCRLow && f.ZCR <= whisperZCRHigh &&
		f.CentroidHz >= whisperCentroidLow && f.CentroidHz <= whisperCentroidHi

	d.pushLookback(sampleIndex, f.AmplitudeDB, qualifiesVoiced || qualifiesWhisper)

	switch d.state {
	case Idle:
		switch {
		case qualifiesVoiced:
			d.state = PendingVoiced
			d.qualifyingStreak = 1
		case qualifiesWhisper:
			d.state = PendingWhisper
			d.qualifyingStreak = 1
		}

	case PendingVoiced, PendingWhisper:
		qualifies := qualifiesVoiced
		if d.state == PendingWhisper {
			qualifies = qualifiesWhisper
		}
		if qualifies {
			d.qualifyingStreak++
			if d.qualifyingStreak >= onsetFrames {
				d.state = Speaking
				d.dipStart = -1
				offsetMs := d.lookbackOffsetMs(sampleIndex)
				events = append(events, Event{Type: EventSpeechStarted, SampleIndex: sampleIndex, LookbackOffsetMs: offsetMs})
			}
		} else {
			d.state = Idle
			d.qualifyingStreak = 0
		}

	case Speaking:
		if f.AmplitudeDB < silenceThresholdDB {
			if d.dipStart < 0 {
				d.dipStart = int64(sampleIndex)
			}
			dipMs := d.samplesToMs(int64(sampleIndex) - d.dipStart)
			if dipMs >= speechEndedMs {
				d.state = HoldOff
				d.holdOffAt = sampleIndex
				events = append(events, Event{Type: EventSpeechEnded, SampleIndex: sampleIndex})
			}
		} else {
			if d.dipStart >= 0 {
				dipMs := d.samplesToMs(int64(sampleIndex) - d.dipStart)
				if dipMs >= wordBreakMinMs && dipMs <= wordBreakMaxMs {
					offsetMs := int(d.samplesToMs(int64(sampleIndex)))
					events = append(events, Event{Type: EventWordBreak, SampleIndex: sampleIndex, OffsetMs: offsetMs, GapMs: int(dipMs)})
				}
			}
			d.dipStart = -1
		}

	case HoldOff:
		if d.msSince(d.holdOffAt, sampleIndex) >= holdOffRefracMs {
			d.state = Idle
		}
	}

	snapshot := Metrics{
		AmplitudeDB:      f.AmplitudeDB,
		ZCR:              f.ZCR,
		CentroidHz:       f.CentroidHz,
		IsSpeaking:       d.state == Speaking,
		IsVoicedPending:  d.state == PendingVoiced,
		IsWhisperPending: d.state == PendingWhisper,
		IsTransient:      f.IsTransient,
	}
	if d.state == PendingVoiced || d.state == PendingWhisper {
		snapshot.IsLookbackSpeech = true
		snapshot.LookbackOffsetMs = d.lookbackOffsetMs(sampleIndex)
	}
	d.metricsMu.Lock()
	d.lastMetrics = snapshot
	d.metricsMu.Unlock()

	return events
}

// LastMetrics returns the metrics snapshot from the most recent Process
// call. Safe to call concurrently with Process.
func (d *Detector) LastMetrics() Metrics {
	d.metricsMu.RLock()
	defer d.metricsMu.RUnlock()
	return d.lastMetrics
}

// State returns the detector's current state.
func (d *Detector) State() State { return d.state }

func (d *Detector) pushLookback(index uint64, amplitude float64, qualifies bool) {
	d.lookback = append(d.lookback, historyFrame{index: index, amplitude: amplitude, qualifies: qualifies})
	capSamples := uint64(lookbackCapMs * d.hopSamples / 10) // hopSamples ~= 10ms worth
	for len(d.lookback) > 0 && index-d.lookback[0].index > capSamples {
		d.lookback = d.lookback[1:]
	}
}

// lookbackOffsetMs finds the earliest lookback frame that already qualified,
// capped at lookbackCapMs, per spec §4.5.
func (d *Detector) lookbackOffsetMs(currentIndex uint64) int {
	earliest := currentIndex
	for _, fr := range d.lookback {
		if fr.qualifies {
			earliest = fr.index
			break
		}
	}
	ms := d.samplesToMs(int64(currentIndex - earliest))
	if ms > lookbackCapMs {
		ms = lookbackCapMs
	}
	return int(ms)
}

func (d *Detector) samplesToMs(samples int64) int64 {
	if d.hopSamples == 0 {
		return 0
	}
	// hop of d.hopSamples corresponds to 10ms at the pipeline's fixed 16kHz rate.
	return samples * 1000 / (d.hopSamples * 100)
}

func (d *Detector) msSince(from, to uint64) int64 {
	if to < from {
		return 0
	}
	return d.samplesToMs(int64(to - from))
}
