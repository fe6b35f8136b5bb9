package audio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tone(n, rate, freqHz int, amp float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = amp * float32(math.Sin(2*math.Pi*float64(freqHz)*float64(i)/float64(rate)))
	}
	return out
}

func TestEchoCancellerRemovesAlignedEcho(t *testing.T) {
	rate := 16000
	ref := tone(3200, rate, 440, 0.8)

	lag := 160 // 10ms
	primary := make([]float32, len(ref))
	copy(primary[lag:], ref[:len(ref)-lag])

	ec := NewEchoCanceller(rate)
	out, err := ec.Cancel(primary, ref)
	require.NoError(t, err)

	var residual, original float64
	for i := range out {
		residual += float64(out[i]) * float64(out[i])
		original += float64(primary[i]) * float64(primary[i])
	}
	assert.Less(t, residual, original*0.5)
}

func TestEchoCancellerDegradesOnUncorrelatedSignals(t *testing.T) {
	ec := NewEchoCanceller(16000)
	primary := tone(1600, 16000, 300, 0.5)
	reference := make([]float32, 1600) // silence: no meaningful correlation

	out, err := ec.Cancel(primary, reference)
	assert.ErrorIs(t, err, ErrAECDegraded)
	assert.Equal(t, primary, out)
}

func TestEchoCancellerEmptyInputsPassThrough(t *testing.T) {
	ec := NewEchoCanceller(16000)
	out, err := ec.Cancel(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}
