// Package dsp computes the per-hop speech metrics the detector and
// visualization fan-out consume (component C5): amplitude, zero-crossing
// rate, spectral centroid, and transient classification.
package dsp

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
)

// WindowSamples and HopSamples fix the analysis window to spec §4.4: 512
// samples (~32ms) with a 160-sample (~10ms) hop, both at 16kHz.
const (
	WindowSamples = 512
	HopSamples    = 160
	SpectrumBins  = 256
)

// Epsilon floors the RMS value fed to the dB conversion so silence does not
// produce -Inf.
const Epsilon = 1e-9

// rise/decay/zcr thresholds for transient (key-click) rejection, spec §4.4.
const (
	riseThreshold  = 12.0 // dB per hop
	decayThreshold = 10.0 // dB per hop
	zcrThreshold   = 0.45
)

// Features is the metric set produced for one analysis hop.
type Features struct {
	AmplitudeDB float64
	ZCR         float64
	CentroidHz  float64
	IsTransient bool
	Spectrum    []float32 // 256-bin magnitude, for the spectrogram column
}

// Extractor computes Features across successive hops, retaining the prior
// hop's amplitude to classify transients by rise/decay rate.
type Extractor struct {
	rate       int
	window     []float64
	prevAmp    float64
	havePrev   bool
	prevPrev   float64
	havePrev2  bool
}

// NewExtractor builds an extractor for streams at sampleRate (expected to be
// 16000, the pipeline's fixed internal rate).
func NewExtractor(sampleRate int) *Extractor {
	return &Extractor{rate: sampleRate, window: hannWindow(WindowSamples)}
}

func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := 0; i < n; i++ {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

// Process computes Features for one window-length slice of samples. Callers
// are responsible for sliding by HopSamples between calls; window is expected
// to have length WindowSamples. A shorter slice is zero-padded only for the
// FFT; amplitude and ZCR are computed over the samples given.
func (e *Extractor) Process(window []float32) Features {
	amp := amplitudeDB(window)
	zcr := zeroCrossingRate(window)
	spectrum := e.magnitudeSpectrum(window)
	centroid := spectralCentroid(spectrum, e.rate, len(window))

	transient := false
	if e.havePrev && e.havePrev2 {
		rise := e.prevAmp - e.prevPrev
		decay := amp - e.prevAmp
		transient = rise > riseThreshold && -decay > decayThreshold && zcr > zcrThreshold
	}

	e.prevPrev, e.havePrev2 = e.prevAmp, e.havePrev
	e.prevAmp, e.havePrev = amp, true

	return Features{
		AmplitudeDB: amp,
		ZCR:         zcr,
		CentroidHz:  centroid,
		IsTransient: transient,
		Spectrum:    spectrum,
	}
}

func amplitudeDB(samples []float32) float64 {
	if len(samples) == 0 {
		return 20 * math.Log10(Epsilon)
	}
	var sumSquares float64
	for _, s := range samples {
		sumSquares += float64(s) * float64(s)
	}
	rms := math.Sqrt(sumSquares / float64(len(samples)))
	if rms < Epsilon {
		rms = Epsilon
	}
	return 20 * math.Log10(rms)
}

func zeroCrossingRate(samples []float32) float64 {
	if len(samples) < 2 {
		return 0
	}
	crossings := 0
	for i := 1; i < len(samples); i++ {
		if (samples[i-1] >= 0) != (samples[i] >= 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(samples)-1)
}

// magnitudeSpectrum runs a Hann-windowed FFT and returns the first
// SpectrumBins magnitude values; complex output is discarded immediately
// after, per spec §4.4.
func (e *Extractor) magnitudeSpectrum(samples []float32) []float32 {
	n := len(e.window)
	buf := make([]complex128, n)
	for i := 0; i < n; i++ {
		var s float64
		if i < len(samples) {
			s = float64(samples[i])
		}
		buf[i] = complex(s*e.window[i], 0)
	}

	result := fft.FFT(buf)
	bins := SpectrumBins
	if bins > len(result)/2 {
		bins = len(result) / 2
	}
	spectrum := make([]float32, bins)
	for i := 0; i < bins; i++ {
		mag := math.Sqrt(real(result[i])*real(result[i]) + imag(result[i])*imag(result[i]))
		spectrum[i] = float32(mag)
	}
	return spectrum
}

// spectralCentroid computes the magnitude-weighted mean frequency in Hz.
func spectralCentroid(spectrum []float32, rate, windowLen int) float64 {
	var weighted, total float64
	freqStep := float64(rate) / float64(windowLen)
	for i, m := range spectrum {
		mag := float64(m)
		weighted += float64(i) * freqStep * mag
		total += mag
	}
	if total == 0 {
		return 0
	}
	return weighted / total
}
