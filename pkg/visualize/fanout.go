// Package visualize implements the visualization fan-out (C11): at UI frame
// cadence it drains newly-written native-rate samples, peak-downsamples
// them into a waveform vector, colors the latest spectrogram column, and
// broadcasts the combined payload. It never affects capture or
// transcription — a missing subscriber costs nothing.
package visualize

import (
	"time"

	"github.com/keathmilligan/flowstt/pkg/detector"
	"github.com/keathmilligan/flowstt/pkg/dsp"
	"github.com/keathmilligan/flowstt/pkg/eventbus"
)

// tickInterval is the UI frame cadence the fan-out runs at.
const tickInterval = 10 * time.Millisecond

// maxDrainSamples bounds how many newly-written native-rate samples a
// single tick will pull from the ring, matching the ~10ms-at-48kHz budget.
const maxDrainSamples = 480

// defaultWaveformPoints is the peak-downsampled waveform width used when
// the UI hasn't requested a different pixel width.
const defaultWaveformPoints = 512

// Ring is the capability the fan-out needs from the native-rate tap of the
// ring buffer: draining newly-written samples via a private cursor.
type Ring interface {
	Drain() ([]float32, error)
}

// Metrics is the capability the fan-out needs from the detector: its most
// recently computed feature snapshot and state flags.
type Metrics interface {
	LastMetrics() detector.Metrics
}

// Fanout drives the visualization loop on its own goroutine.
type Fanout struct {
	ring            Ring
	metrics         Metrics
	bus             *eventbus.Bus
	waveformPoints  int
	spectrumPending []float32 // accumulates samples toward the next FFT-sized column
	extractor       *dsp.Extractor
	stop            chan struct{}
	done            chan struct{}
}

// New builds a fan-out reading from ring and metrics, publishing to bus.
func New(ring Ring, metrics Metrics, bus *eventbus.Bus, sampleRate int) *Fanout {
	return &Fanout{
		ring:           ring,
		metrics:        metrics,
		bus:            bus,
		waveformPoints: defaultWaveformPoints,
		extractor:      dsp.NewExtractor(sampleRate),
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}
}

// SetWaveformPoints changes the UI pixel width the waveform is downsampled
// to. Safe to call before Run; not safe to call concurrently with Run.
func (f *Fanout) SetWaveformPoints(n int) {
	if n > 0 {
		f.waveformPoints = n
	}
}

// Run blocks, ticking at tickInterval until Stop is called.
func (f *Fanout) Run() {
	defer close(f.done)
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-f.stop:
			return
		case <-ticker.C:
			f.tick()
		}
	}
}

// Stop ends the run loop and waits for it to exit.
func (f *Fanout) Stop() {
	close(f.stop)
	<-f.done
}

func (f *Fanout) tick() {
	samples, err := f.ring.Drain()
	if err != nil || len(samples) == 0 {
		return
	}
	if f.bus.SubscriberCount() == 0 {
		return
	}
	if len(samples) > maxDrainSamples {
		samples = samples[len(samples)-maxDrainSamples:]
	}

	payload := eventbus.VisualizationData{
		Waveform: peakDownsample(samples, f.waveformPoints),
	}

	f.spectrumPending = append(f.spectrumPending, samples...)
	for len(f.spectrumPending) >= dsp.WindowSamples {
		window := f.spectrumPending[:dsp.WindowSamples]
		feat := f.extractor.Process(window)
		payload.SpectrogramColumn = dsp.Column(feat.Spectrum)
		f.spectrumPending = f.spectrumPending[dsp.HopSamples:]
	}

	m := f.metrics.LastMetrics()
	payload.AmplitudeDB = m.AmplitudeDB
	payload.ZCR = m.ZCR
	payload.CentroidHz = m.CentroidHz
	payload.IsSpeaking = m.IsSpeaking
	payload.IsVoicedPending = m.IsVoicedPending
	payload.IsWhisperPending = m.IsWhisperPending
	payload.IsTransient = m.IsTransient
	payload.IsLookbackSpeech = m.IsLookbackSpeech
	payload.LookbackOffsetMs = m.LookbackOffsetMs

	f.bus.Publish(eventbus.Event{Type: eventbus.TypeVisualizationData, Data: payload})
}

// peakDownsample reduces samples to points entries, each the
// largest-magnitude sample within its bucket, so transients stay visible
// even when many raw samples collapse into one pixel column. Input no longer
// than points is returned as an unchanged copy of len(samples) entries.
func peakDownsample(samples []float32, points int) []float32 {
	if points <= 0 || len(samples) == 0 {
		return nil
	}
	if len(samples) <= points {
		out := make([]float32, len(samples))
		copy(out, samples)
		return out
	}

	out := make([]float32, points)
	bucket := float64(len(samples)) / float64(points)
	for i := 0; i < points; i++ {
		start := int(float64(i) * bucket)
		end := int(float64(i+1) * bucket)
		if end <= start {
			end = start + 1
		}
		if end > len(samples) {
			end = len(samples)
		}
		var peak float32
		for _, s := range samples[start:end] {
			if abs32(s) > abs32(peak) {
				peak = s
			}
		}
		out[i] = peak
	}
	return out
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
