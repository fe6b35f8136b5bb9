package session

import (
	"context"
	"testing"
	"time"

	"github.com/keathmilligan/flowstt/pkg/audio"
	"github.com/keathmilligan/flowstt/pkg/engine"
	"github.com/keathmilligan/flowstt/pkg/eventbus"
	"github.com/keathmilligan/flowstt/pkg/history"
	"github.com/keathmilligan/flowstt/pkg/segmenter"
)

type fakeBackend struct {
	primaryCh chan audio.Frame
	native    audio.Format
	started   bool
	startErr  error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		primaryCh: make(chan audio.Frame, 16),
		native:    audio.Format{Rate: 16000, Channels: 1},
	}
}

func (b *fakeBackend) ListInputDevices(ctx context.Context) ([]audio.Device, error) {
	return []audio.Device{{ID: "mic-1", Name: "Mic", Kind: audio.Input}}, nil
}
func (b *fakeBackend) ListSystemDevices(ctx context.Context) ([]audio.Device, error) { return nil, nil }

func (b *fakeBackend) Start(ctx context.Context, primary audio.Device, reference *audio.Device) error {
	if b.startErr != nil {
		return b.startErr
	}
	b.started = true
	return nil
}

func (b *fakeBackend) Stop() error {
	b.started = false
	return nil
}

func (b *fakeBackend) Frames() []<-chan audio.Frame {
	return []<-chan audio.Frame{b.primaryCh}
}

func (b *fakeBackend) NativeFormat() audio.Format { return b.native }

func newTestSession(t *testing.T, backend audio.Backend) (*Session, *eventbus.Bus) {
	t.Helper()
	dir := t.TempDir()
	store, err := history.Open(dir)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	bus := eventbus.New()
	sess := New(backend, store, bus, engine.Config{SampleRate: 16000}, dir, nil)
	return sess, bus
}

func TestStartCaptureWithoutPrimaryDeviceFails(t *testing.T) {
	sess, _ := newTestSession(t, newFakeBackend())
	if err := sess.StartCapture(); err != audio.ErrDeviceUnavailable {
		t.Fatalf("expected ErrDeviceUnavailable, got %v", err)
	}
}

func TestStopCaptureWithoutStartFails(t *testing.T) {
	sess, _ := newTestSession(t, newFakeBackend())
	if err := sess.StopCapture(); err != ErrNotCapturing {
		t.Fatalf("expected ErrNotCapturing, got %v", err)
	}
}

func TestStartCaptureTwiceFails(t *testing.T) {
	backend := newFakeBackend()
	sess, _ := newTestSession(t, backend)
	sess.SetSources(&audio.Device{ID: "mic-1"}, nil)

	if err := sess.StartCapture(); err != nil {
		t.Fatalf("first StartCapture: %v", err)
	}
	defer sess.StopCapture()

	if err := sess.StartCapture(); err != ErrAlreadyCapturing {
		t.Fatalf("expected ErrAlreadyCapturing, got %v", err)
	}
}

func TestStartStopPublishesCaptureStateChanged(t *testing.T) {
	backend := newFakeBackend()
	sess, bus := newTestSession(t, backend)
	sess.SetSources(&audio.Device{ID: "mic-1"}, nil)

	ch, unsub := bus.Subscribe()
	defer unsub()

	if err := sess.StartCapture(); err != nil {
		t.Fatalf("StartCapture: %v", err)
	}

	waitForEvent(t, ch, func(ev eventbus.Event) bool {
		return ev.Type == eventbus.TypeCaptureStateChanged && ev.Data.(eventbus.CaptureStateChangedData).Capturing
	})

	if err := sess.StopCapture(); err != nil {
		t.Fatalf("StopCapture: %v", err)
	}

	waitForEvent(t, ch, func(ev eventbus.Event) bool {
		return ev.Type == eventbus.TypeCaptureStateChanged && !ev.Data.(eventbus.CaptureStateChangedData).Capturing
	})
}

func TestStatusReflectsMode(t *testing.T) {
	sess, _ := newTestSession(t, newFakeBackend())
	sess.SetMode(ModePushToTalk)
	if got := sess.Status().Mode; got != "push_to_talk" {
		t.Fatalf("expected push_to_talk, got %q", got)
	}
}

func TestCaptureProcessesFramesIntoSpeechEvents(t *testing.T) {
	backend := newFakeBackend()
	sess, bus := newTestSession(t, backend)
	sess.SetSources(&audio.Device{ID: "mic-1"}, nil)

	ch, unsub := bus.Subscribe()
	defer unsub()

	if err := sess.StartCapture(); err != nil {
		t.Fatalf("StartCapture: %v", err)
	}
	defer sess.StopCapture()

	loud := make([]float32, 800)
	for i := range loud {
		loud[i] = 0.5
	}
	for i := 0; i < 20; i++ {
		backend.primaryCh <- audio.Frame{Samples: loud, Channels: 1, Rate: 16000}
		time.Sleep(2 * time.Millisecond)
	}

	waitForEvent(t, ch, func(ev eventbus.Event) bool {
		return ev.Type == eventbus.TypeSpeechStarted
	})
}

func TestNotifyHotkeyPermissionDeniedSurfacesInStatus(t *testing.T) {
	sess, _ := newTestSession(t, newFakeBackend())
	sess.NotifyHotkeyPermissionDenied()
	if got := sess.Status().Error; got != segmenter.ErrHotkeyPermissionDenied.Error() {
		t.Fatalf("expected hotkey permission denied error, got %q", got)
	}
}

func waitForEvent(t *testing.T, ch <-chan eventbus.Event, match func(eventbus.Event) bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-ch:
			if match(ev) {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for expected event")
		}
	}
}
