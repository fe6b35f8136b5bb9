package audio

import "sync"

// maxDriftSamples is the amount of inter-stream skew tolerated before the
// longer-delayed stream's staging queue is trimmed to catch up (spec §4.2:
// "drift beyond 20ms triggers the shorter stream to discard samples until
// aligned"). At the native capture rate of up to 48kHz this is generous
// enough to never trigger on ordinary jitter.
const maxDriftMillis = 20

// Mixer combines one or two capture streams into a single mono signal, and
// emits it both at native rate (for visualization) and resampled to 16kHz
// (for the detector/engine pipeline). When a reference stream is supplied it
// is treated as the AEC echo reference and subtracted from the primary
// before mixing; AEC failures degrade to passthrough rather than stopping
// capture (spec §4.2).
type Mixer struct {
	mu sync.Mutex

	rate     int
	channels int

	primary   []float32
	reference []float32

	aec        *EchoCanceller
	aecWarning func(error)
	aecWarned  bool

	resampler *Resampler
}

// NewMixer builds a mixer for streams captured at rate/channels. aec may be
// nil if no reference stream is configured. onAECFailure is invoked
// (non-fatally) the first time AEC degrades to passthrough.
func NewMixer(rate, channels int, aec *EchoCanceller, onAECFailure func(error)) *Mixer {
	return &Mixer{
		rate:       rate,
		channels:   channels,
		aec:        aec,
		aecWarning: onAECFailure,
		resampler:  NewResampler(rate, targetRate),
	}
}

// PushPrimary stages samples from the primary (microphone) stream, averaging
// down to mono first if the device captures more than one channel.
func (m *Mixer) PushPrimary(samples []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.primary = append(m.primary, m.averageChannels(samples)...)
}

// PushReference stages samples from the system-playback reference stream,
// averaging down to mono first if the device captures more than one channel.
func (m *Mixer) PushReference(samples []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reference = append(m.reference, m.averageChannels(samples)...)
}

// averageChannels collapses interleaved multi-channel frames into mono by
// averaging each frame's channels (spec §4.1/§4.2: the backend reports its
// native channel count, and the mixer is what turns that into the single
// mono signal the rest of the pipeline assumes). With m.channels <= 1 the
// input is already mono and is only copied.
func (m *Mixer) averageChannels(samples []float32) []float32 {
	if m.channels <= 1 {
		out := make([]float32, len(samples))
		copy(out, samples)
		return out
	}
	frames := len(samples) / m.channels
	out := make([]float32, frames)
	for i := 0; i < frames; i++ {
		base := i * m.channels
		var sum float32
		for c := 0; c < m.channels; c++ {
			sum += samples[base+c]
		}
		out[i] = sum / float32(m.channels)
	}
	return out
}

// Pull drains whatever is available from the staged streams and returns the
// mixed mono signal at native rate and its 16kHz-resampled counterpart. It
// never blocks: with no staged reference samples the primary alone is passed
// through; otherwise only the length both streams have staged is mixed, and
// reference samples with no primary counterpart stay queued.
func (m *Mixer) Pull() (native []float32, resampled []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.reference) == 0 {
		native = m.downmix(m.primary, nil)
		m.primary = nil
	} else {
		m.alignLocked()
		n := len(m.primary)
		if len(m.reference) < n {
			n = len(m.reference)
		}
		primary := m.primary[:n]
		reference := m.reference[:n]

		if m.aec != nil {
			cancelled, err := m.aec.Cancel(primary, reference)
			if err != nil {
				if m.aecWarning != nil && !m.aecWarned {
					m.aecWarned = true
					m.aecWarning(err)
				}
				// Passthrough: mix the uncancelled primary.
			} else {
				primary = cancelled
			}
		}

		native = m.downmix(primary, reference)
		m.primary = m.primary[n:]
		m.reference = m.reference[n:]
	}

	if len(native) == 0 {
		return nil, nil
	}
	resampled = m.resampler.Resample(native)
	return native, resampled
}

// alignLocked discards the excess from whichever staged stream has drifted
// more than maxDriftMillis ahead of the other. Caller holds m.mu.
func (m *Mixer) alignLocked() {
	driftSamples := m.rate * maxDriftMillis / 1000
	if diff := len(m.primary) - len(m.reference); diff > driftSamples {
		m.primary = m.primary[diff-driftSamples:]
	} else if diff := len(m.reference) - len(m.primary); diff > driftSamples {
		m.reference = m.reference[diff-driftSamples:]
	}
}

// downmix sums primary (and, if non-nil, a second stream) at 0.5 gain each
// to avoid clipping, per spec §4.2. With only one active stream it returns
// a copy unchanged.
func (m *Mixer) downmix(a, b []float32) []float32 {
	if b == nil {
		out := make([]float32, len(a))
		copy(out, a)
		return out
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = a[i]*0.5 + b[i]*0.5
	}
	return out
}
