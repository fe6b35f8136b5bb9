package audio

import "math"

// targetRate is the fixed internal pipeline rate (spec §4.2: "all downstream
// components operate on mono 16kHz float32").
const targetRate = 16000

// Resampler converts a stream from its native rate to targetRate. Upsampling
// uses linear interpolation; downsampling uses a windowed-sinc polyphase
// filter so STT input is not aliased. An instance carries filter history
// across calls and must not be shared between streams.
type Resampler struct {
	fromRate   int
	toRate     int
	ratio      float64
	filterLen  int
	filter     []float32
	history    []float32
	lastSample float32
}

// NewResampler builds a resampler for one stream's native rate into toRate.
func NewResampler(fromRate, toRate int) *Resampler {
	r := &Resampler{fromRate: fromRate, toRate: toRate, ratio: float64(toRate) / float64(fromRate)}
	if r.ratio >= 1.0 {
		return r
	}

	const filterLen = 64
	cutoff := r.ratio * 0.5
	filter := make([]float32, filterLen)
	for i := 0; i < filterLen; i++ {
		n := float64(i) - float64(filterLen-1)/2.0
		if n == 0 {
			filter[i] = float32(2.0 * cutoff)
		} else {
			sinc := math.Sin(2.0*math.Pi*cutoff*n) / (math.Pi * n)
			window := 0.54 - 0.46*math.Cos(2.0*math.Pi*float64(i)/float64(filterLen-1))
			filter[i] = float32(sinc * window)
		}
	}
	var sum float32
	for _, f := range filter {
		sum += f
	}
	for i := range filter {
		filter[i] /= sum
	}

	r.filterLen = filterLen
	r.filter = filter
	r.history = make([]float32, filterLen)
	return r
}

// Resample converts input (at fromRate) into output samples at toRate.
func (r *Resampler) Resample(input []float32) []float32 {
	if r.ratio == 1.0 || len(input) == 0 {
		return input
	}
	if r.ratio > 1.0 {
		return r.upsample(input)
	}
	return r.downsample(input)
}

func (r *Resampler) upsample(input []float32) []float32 {
	inputLen := len(input)
	outputLen := int(float64(inputLen) * r.ratio)
	output := make([]float32, outputLen)

	for i := 0; i < outputLen; i++ {
		srcPos := float64(i) / r.ratio
		srcIdx := int(srcPos)
		frac := float32(srcPos - float64(srcIdx))

		sample1 := r.lastSample
		if srcIdx < inputLen {
			sample1 = input[srcIdx]
		}
		sample2 := sample1
		if srcIdx+1 < inputLen {
			sample2 = input[srcIdx+1]
		} else if srcIdx < inputLen {
			sample2 = input[inputLen-1]
		}
		output[i] = sample1 + (sample2-sample1)*frac
	}
	r.lastSample = input[inputLen-1]
	return output
}

func (r *Resampler) downsample(input []float32) []float32 {
	inputLen := len(input)
	outputLen := int(float64(inputLen) * r.ratio)
	output := make([]float32, outputLen)

	combined := append(append([]float32{}, r.history...), input...)

	for i := 0; i < outputLen; i++ {
		srcPos := float64(i) / r.ratio
		srcIdx := int(srcPos) + len(r.history)

		var sample float32
		for j := 0; j < r.filterLen; j++ {
			idx := srcIdx - r.filterLen/2 + j
			if idx >= 0 && idx < len(combined) {
				sample += combined[idx] * r.filter[j]
			}
		}
		output[i] = sample
	}

	if inputLen >= r.filterLen {
		copy(r.history, input[inputLen-r.filterLen:])
	} else {
		shift := r.filterLen - inputLen
		copy(r.history, r.history[inputLen:])
		copy(r.history[shift:], input)
	}
	return output
}
