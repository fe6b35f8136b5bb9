package dsp

import "math"

// ColumnWidth is the number of RGB pixels a spectrogram column renders to,
// independent of SpectrumBins; bins are log-frequency mapped onto it.
const ColumnWidth = 128

// colormap is a small fixed blue-to-red-to-yellow ramp, sampled by
// intensity. It is deliberately tiny and hand-authored rather than pulled
// from an image/color package, since the visualization fan-out only needs a
// perceptual ramp, not a full palette library.
var colormap = [][3]byte{
	{8, 8, 32},
	{32, 16, 90},
	{90, 16, 110},
	{160, 32, 90},
	{220, 80, 40},
	{250, 160, 20},
	{255, 230, 80},
}

// Column renders a magnitude spectrum to ColumnWidth RGB pixels, mapping
// bins onto a log-frequency axis so low-frequency detail (where speech
// energy concentrates) isn't compressed into a handful of pixels.
func Column(spectrum []float32) []byte {
	out := make([]byte, ColumnWidth*3)
	if len(spectrum) == 0 {
		return out
	}

	maxMag := float32(0)
	for _, m := range spectrum {
		if m > maxMag {
			maxMag = m
		}
	}
	if maxMag == 0 {
		return out
	}

	logMax := math.Log1p(float64(len(spectrum) - 1))
	for px := 0; px < ColumnWidth; px++ {
		frac := float64(px) / float64(ColumnWidth-1)
		binF := math.Expm1(frac * logMax)
		bin := int(binF)
		if bin >= len(spectrum) {
			bin = len(spectrum) - 1
		}
		intensity := float64(spectrum[bin]) / float64(maxMag)
		rgb := colorize(intensity)
		out[px*3], out[px*3+1], out[px*3+2] = rgb[0], rgb[1], rgb[2]
	}
	return out
}

func colorize(intensity float64) [3]byte {
	if intensity <= 0 {
		return colormap[0]
	}
	if intensity >= 1 {
		return colormap[len(colormap)-1]
	}
	pos := intensity * float64(len(colormap)-1)
	idx := int(pos)
	frac := pos - float64(idx)
	a, b := colormap[idx], colormap[idx+1]
	var out [3]byte
	for i := 0; i < 3; i++ {
		out[i] = byte(float64(a[i]) + frac*(float64(b[i])-float64(a[i])))
	}
	return out
}
