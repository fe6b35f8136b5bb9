package audio

import (
	"errors"
	"math"
)

// ErrAECDegraded is surfaced as a warning (never fatal, per spec §4.2) the
// first time a cancellation pass cannot find a confident alignment between
// primary and reference and falls back to passthrough.
var ErrAECDegraded = errors.New("audio: aec degraded to passthrough")

// maxLagMillis bounds how far the canceller searches for the reference's
// playback-to-mic delay. 40ms covers typical OS audio-routing latency
// without the search becoming a real-time hazard.
const maxLagMillis = 40

// minCorrelation is the normalized cross-correlation required before a
// candidate lag is trusted enough to subtract.
const minCorrelation = 0.4

// EchoCanceller removes a known reference signal (system playback) from a
// primary (microphone) signal via correlation-based delay estimation and
// scaled subtraction. It is a lightweight single-reflection canceller, not a
// full adaptive-filter AEC, matching the rest of the pipeline's budget for
// real-time, allocation-light processing (spec §9).
type EchoCanceller struct {
	rate int
}

// NewEchoCanceller creates a canceller for streams at the given sample rate.
func NewEchoCanceller(rate int) *EchoCanceller {
	return &EchoCanceller{rate: rate}
}

// Cancel returns primary with the best-aligned, energy-scaled copy of
// reference subtracted out. If no confident alignment is found it returns a
// copy of primary unchanged alongside ErrAECDegraded; callers should treat
// that as a warning, not a fatal condition.
func (e *EchoCanceller) Cancel(primary, reference []float32) ([]float32, error) {
	out := make([]float32, len(primary))
	copy(out, primary)

	if len(primary) == 0 || len(reference) == 0 {
		return out, nil
	}

	maxLag := e.rate * maxLagMillis / 1000
	if maxLag > len(primary)-1 {
		maxLag = len(primary) - 1
	}
	if maxLag < 0 {
		return out, ErrAECDegraded
	}

	bestLag := -1
	bestCorr := 0.0
	bestScale := float32(0)

	for lag := 0; lag <= maxLag; lag++ {
		n := len(reference)
		if n > len(primary)-lag {
			n = len(primary) - lag
		}
		if n <= 0 {
			continue
		}
		ref := reference[:n]
		prim := primary[lag : lag+n]

		var dot, primEnergy, refEnergy float64
		for i := 0; i < n; i++ {
			dot += float64(prim[i]) * float64(ref[i])
			primEnergy += float64(prim[i]) * float64(prim[i])
			refEnergy += float64(ref[i]) * float64(ref[i])
		}
		if primEnergy == 0 || refEnergy == 0 {
			continue
		}
		corr := dot / math.Sqrt(primEnergy*refEnergy)
		if corr > bestCorr {
			bestCorr = corr
			bestLag = lag
			bestScale = float32(dot / refEnergy)
		}
	}

	if bestLag < 0 || bestCorr < minCorrelation {
		return out, ErrAECDegraded
	}

	n := len(reference)
	if n > len(primary)-bestLag {
		n = len(primary) - bestLag
	}
	for i := 0; i < n; i++ {
		out[bestLag+i] = primary[bestLag+i] - bestScale*reference[i]
	}
	return out, nil
}
