package audio

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingBufferWriteReadRoundTrip(t *testing.T) {
	rb := NewRingBuffer(16000)
	in := make([]float32, 1000)
	for i := range in {
		in[i] = float32(i)
	}

	start := rb.Write(in)
	assert.Equal(t, uint64(0), start)

	out, err := rb.Read(start, start+uint64(len(in)))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestRingBufferCursorDrain(t *testing.T) {
	rb := NewRingBuffer(16000)
	cur := rb.Cursor()

	rb.Write([]float32{1, 2, 3})
	out, err := cur.Drain()
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, out)

	// nothing new yet
	out, err = cur.Drain()
	require.NoError(t, err)
	assert.Empty(t, out)

	rb.Write([]float32{4, 5})
	out, err = cur.Drain()
	require.NoError(t, err)
	assert.Equal(t, []float32{4, 5}, out)
}

func TestRingBufferExpiredRead(t *testing.T) {
	rb := NewRingBuffer(10) // capacity = 50 samples
	for i := 0; i < 6; i++ {
		rb.Write(make([]float32, 10))
	}
	// 60 samples written into a 50-sample ring; index 0 is long gone.
	_, err := rb.Read(0, 5)
	assert.ErrorIs(t, err, ErrSampleIndexExpired)
}

func TestRingBufferOverrunDoesNotDeadlock(t *testing.T) {
	rb := NewRingBuffer(16000)
	cur := rb.Cursor()
	_ = cur // stalled reader never drains

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		chunk := make([]float32, 160) // 10ms @ 16kHz
		ticker := time.NewTicker(time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				rb.Write(chunk)
			}
		}
	}()

	// At up to 160 samples per 1ms tick, one second writes well past the
	// 80000-sample (5s @ 16kHz) ring, so the stalled window fully wraps.
	time.Sleep(time.Second)
	close(stop)
	wg.Wait()

	assert.Greater(t, rb.Head(), uint64(0))
	// A stalled reader whose window has fully wrapped must see expiry, not a hang.
	_, err := rb.Read(0, 1)
	assert.ErrorIs(t, err, ErrSampleIndexExpired)
	assert.Greater(t, rb.DroppedCount(), uint64(0))
}

func TestRingBufferOverflowWriteLargerThanCapacityCountsDropped(t *testing.T) {
	rb := NewRingBuffer(10) // 50-sample capacity
	huge := make([]float32, 200)
	for i := range huge {
		huge[i] = float32(i)
	}
	rb.Write(huge)
	assert.Equal(t, uint64(150), rb.DroppedCount())
}

func TestRingBufferSteadyStateOverrunCountsDropped(t *testing.T) {
	rb := NewRingBuffer(10) // 50-sample capacity
	chunk := make([]float32, 10)

	for i := 0; i < 3; i++ {
		rb.Write(chunk) // 30 samples written, still within capacity
	}
	assert.Equal(t, uint64(0), rb.DroppedCount())

	for i := 0; i < 4; i++ {
		rb.Write(chunk) // 70 samples written total, past the 50-sample cap
	}
	assert.Equal(t, uint64(20), rb.DroppedCount())
}
