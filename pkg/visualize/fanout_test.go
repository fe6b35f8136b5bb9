package visualize

import (
	"testing"
	"time"

	"github.com/keathmilligan/flowstt/pkg/detector"
	"github.com/keathmilligan/flowstt/pkg/eventbus"
)

type fakeRing struct {
	samples []float32
	err     error
}

func (r *fakeRing) Drain() ([]float32, error) {
	s := r.samples
	r.samples = nil
	return s, r.err
}

type fakeMetrics struct {
	m detector.Metrics
}

func (f *fakeMetrics) LastMetrics() detector.Metrics { return f.m }

func TestTickSkipsWhenNoSamples(t *testing.T) {
	ring := &fakeRing{}
	bus := eventbus.New()
	ch, unsub := bus.Subscribe()
	defer unsub()

	f := New(ring, &fakeMetrics{}, bus, 48000)
	f.tick()

	select {
	case <-ch:
		t.Fatal("expected no event when ring has no samples")
	default:
	}
}

func TestTickPublishesWaveformAndMetrics(t *testing.T) {
	samples := make([]float32, 480)
	for i := range samples {
		samples[i] = float32(i%2) * 0.5
	}
	ring := &fakeRing{samples: samples}
	bus := eventbus.New()
	ch, unsub := bus.Subscribe()
	defer unsub()

	metrics := &fakeMetrics{m: detector.Metrics{AmplitudeDB: -12.0, IsSpeaking: true}}
	f := New(ring, metrics, bus, 48000)
	f.SetWaveformPoints(64)
	f.tick()

	select {
	case ev := <-ch:
		data := ev.Data.(eventbus.VisualizationData)
		if len(data.Waveform) != 64 {
			t.Fatalf("expected 64 waveform points, got %d", len(data.Waveform))
		}
		if !data.IsSpeaking {
			t.Fatal("expected IsSpeaking to be carried through")
		}
		if data.AmplitudeDB != -12.0 {
			t.Fatalf("expected amplitude -12.0, got %v", data.AmplitudeDB)
		}
	default:
		t.Fatal("expected a visualization-data event")
	}
}

func TestTickSkipsPublishWithNoSubscribers(t *testing.T) {
	ring := &fakeRing{samples: make([]float32, 100)}
	bus := eventbus.New()
	f := New(ring, &fakeMetrics{}, bus, 48000)
	f.tick() // must not panic or block
}

func TestPeakDownsamplePreservesExtremes(t *testing.T) {
	samples := make([]float32, 1000)
	samples[500] = 0.9
	out := peakDownsample(samples, 10)
	if len(out) != 10 {
		t.Fatalf("expected 10 points, got %d", len(out))
	}
	found := false
	for _, v := range out {
		if v == 0.9 {
			found = true
		}
	}
	if !found {
		t.Fatal("expected peak to survive downsampling")
	}
}

func TestPeakDownsampleShorterThanTargetReturnsAsIs(t *testing.T) {
	samples := []float32{0.1, 0.2, 0.3}
	out := peakDownsample(samples, 10)
	if len(out) != 3 {
		t.Fatalf("expected passthrough of 3 samples, got %d", len(out))
	}
}

func TestRunStopsCleanly(t *testing.T) {
	ring := &fakeRing{}
	bus := eventbus.New()
	f := New(ring, &fakeMetrics{}, bus, 48000)

	done := make(chan struct{})
	go func() {
		f.Run()
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	f.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not exit after Stop")
	}
}
