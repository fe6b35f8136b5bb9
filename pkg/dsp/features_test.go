package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sineWindow(freq float64, rate int) []float32 {
	out := make([]float32, WindowSamples)
	for i := range out {
		out[i] = float32(0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
	return out
}

func TestAmplitudeDBSilence(t *testing.T) {
	e := NewExtractor(16000)
	silence := make([]float32, WindowSamples)
	f := e.Process(silence)
	assert.Less(t, f.AmplitudeDB, -100.0)
}

func TestAmplitudeDBLoudSignal(t *testing.T) {
	e := NewExtractor(16000)
	f := e.Process(sineWindow(440, 16000))
	assert.Greater(t, f.AmplitudeDB, -20.0)
}

func TestZeroCrossingRateHigherForHigherFrequency(t *testing.T) {
	e1 := NewExtractor(16000)
	e2 := NewExtractor(16000)
	low := e1.Process(sineWindow(200, 16000))
	high := e2.Process(sineWindow(3000, 16000))
	assert.Less(t, low.ZCR, high.ZCR)
}

func TestSpectralCentroidTracksToneFrequency(t *testing.T) {
	e := NewExtractor(16000)
	f := e.Process(sineWindow(2000, 16000))
	assert.InDelta(t, 2000, f.CentroidHz, 400)
}

func TestSpectrumHasFixedBinCount(t *testing.T) {
	e := NewExtractor(16000)
	f := e.Process(sineWindow(440, 16000))
	assert.Len(t, f.Spectrum, SpectrumBins)
}

func TestTransientClickHopHasHighZCR(t *testing.T) {
	e := NewExtractor(16000)
	// Two quiet hops to establish baseline, then a sharp click. Only the
	// click hop's ZCR is checked: its transient flag also depends on the
	// decay into the following hop, which this test does not feed.
	silence := make([]float32, WindowSamples)
	click := sineWindow(6000, 16000)
	for i := range click {
		click[i] *= 4 // clip-like spike, high ZCR at 6kHz
	}

	e.Process(silence)
	e.Process(silence)
	f := e.Process(click)
	_ = f // transient depends on exact thresholds; just assert it doesn't panic and ZCR is high
	assert.Greater(t, f.ZCR, 0.3)
}
