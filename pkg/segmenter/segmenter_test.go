package segmenter

import (
	"testing"
	"time"

	"github.com/keathmilligan/flowstt/pkg/detector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRing struct {
	samples []float32 // index 0 == sample index 0
}

func (f *fakeRing) Read(start, end uint64) ([]float32, error) {
	if end > uint64(len(f.samples)) {
		end = uint64(len(f.samples))
	}
	if start >= end {
		return nil, nil
	}
	return f.samples[start:end], nil
}

func newFakeRing(n int) *fakeRing {
	s := make([]float32, n)
	for i := range s {
		s[i] = float32(i)
	}
	return &fakeRing{samples: s}
}

func TestAutomaticSpeechEndedExtractsSegment(t *testing.T) {
	ring := newFakeRing(100000)
	queue := make(chan *Segment, 4)
	seg := NewAutomatic(ring, queue)

	seg.ProcessHop(1600, []detector.Event{{Type: detector.EventSpeechStarted, SampleIndex: 1600, LookbackOffsetMs: 50}})
	seg.ProcessHop(3200, []detector.Event{{Type: detector.EventSpeechEnded, SampleIndex: 3200}})

	select {
	case s := <-queue:
		assert.Equal(t, ClosedSpeechEnded, s.ClosedBecause)
		assert.Equal(t, uint64(1600-50*16), s.StartIndex) // 50ms lookback @ 16kHz
		assert.Equal(t, uint64(3200), s.EndIndex)
	default:
		t.Fatal("expected a segment on the queue")
	}
}

func TestAutomaticWordBreakCutsMidSegment(t *testing.T) {
	ring := newFakeRing(1_000_000)
	queue := make(chan *Segment, 4)
	seg := NewAutomatic(ring, queue)
	seg.now = func() time.Time { return time.Unix(0, 0) }

	seg.ProcessHop(0, []detector.Event{{Type: detector.EventSpeechStarted, SampleIndex: 0}})
	// Force seeking_break by advancing past 1000ms of duration.
	seg.ProcessHop(16000+1, nil)
	require.True(t, seg.seekingBreak)

	seg.ProcessHop(17000, []detector.Event{{Type: detector.EventWordBreak, SampleIndex: 17000, GapMs: 80}})

	select {
	case s := <-queue:
		assert.Equal(t, ClosedMaxDuration, s.ClosedBecause)
		assert.Equal(t, uint64(17000-80/2*16), s.EndIndex)
	default:
		t.Fatal("expected a segment cut at the word break")
	}
	assert.False(t, seg.seekingBreak)
	assert.True(t, seg.active)
}

func TestAutomaticGraceDeadlineForcesCut(t *testing.T) {
	ring := newFakeRing(1_000_000)
	queue := make(chan *Segment, 4)
	seg := NewAutomatic(ring, queue)

	now := time.Unix(0, 0)
	seg.now = func() time.Time { return now }

	seg.ProcessHop(0, []detector.Event{{Type: detector.EventSpeechStarted, SampleIndex: 0}})
	seg.ProcessHop(16000+1, nil)
	require.True(t, seg.seekingBreak)

	now = now.Add(600 * time.Millisecond) // past the 500ms grace deadline
	seg.ProcessHop(20000, nil)

	select {
	case s := <-queue:
		assert.Equal(t, ClosedMaxDuration, s.ClosedBecause)
		assert.Equal(t, uint64(20000), s.EndIndex)
	default:
		t.Fatal("expected grace-deadline cut")
	}
}
