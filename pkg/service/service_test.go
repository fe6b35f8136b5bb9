package service

import (
	"context"
	"testing"

	"github.com/keathmilligan/flowstt/pkg/audio"
	"github.com/keathmilligan/flowstt/pkg/engine"
	"github.com/keathmilligan/flowstt/pkg/eventbus"
	"github.com/keathmilligan/flowstt/pkg/history"
	"github.com/keathmilligan/flowstt/pkg/session"
)

type fakeBackend struct {
	inputs  []audio.Device
	systems []audio.Device
}

func (b *fakeBackend) ListInputDevices(ctx context.Context) ([]audio.Device, error) {
	return b.inputs, nil
}
func (b *fakeBackend) ListSystemDevices(ctx context.Context) ([]audio.Device, error) {
	return b.systems, nil
}
func (b *fakeBackend) Start(ctx context.Context, primary audio.Device, reference *audio.Device) error {
	return nil
}
func (b *fakeBackend) Stop() error            { return nil }
func (b *fakeBackend) Frames() []<-chan audio.Frame { return nil }
func (b *fakeBackend) NativeFormat() audio.Format   { return audio.Format{Rate: 16000, Channels: 1} }

func newTestService(t *testing.T) (*Service, *fakeBackend) {
	t.Helper()
	dir := t.TempDir()
	store, err := history.Open(dir)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	bus := eventbus.New()
	backend := &fakeBackend{
		inputs:  []audio.Device{{ID: "mic-1", Name: "Mic", Kind: audio.Input}},
		systems: []audio.Device{{ID: "sys-1", Name: "System", Kind: audio.System}},
	}
	sess := session.New(backend, store, bus, engine.Config{}, dir, nil)
	svc := New(backend, sess, store, bus, nil, engine.Config{})
	return svc, backend
}

func TestListAllSourcesCombinesInputAndSystem(t *testing.T) {
	svc, _ := newTestService(t)
	devices, err := svc.ListAllSources(context.Background())
	if err != nil {
		t.Fatalf("ListAllSources: %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("expected 2 devices, got %d", len(devices))
	}
}

func TestSetSourcesUnknownDeviceFails(t *testing.T) {
	svc, _ := newTestService(t)
	err := svc.SetSources(context.Background(), "does-not-exist", "")
	if err != ErrDeviceNotFound {
		t.Fatalf("expected ErrDeviceNotFound, got %v", err)
	}
}

func TestSetSourcesValidDeviceSucceeds(t *testing.T) {
	svc, _ := newTestService(t)
	if err := svc.SetSources(context.Background(), "mic-1", ""); err != nil {
		t.Fatalf("SetSources: %v", err)
	}
	if svc.GetStatus().PrimaryID != "mic-1" {
		t.Fatalf("expected primary to be recorded even when not capturing")
	}
}

func TestDeleteHistoryEntryIsIdempotentAndBroadcasts(t *testing.T) {
	svc, _ := newTestService(t)
	ch, unsub := svc.bus.Subscribe()
	defer unsub()

	if err := svc.DeleteHistoryEntry("nonexistent"); err != nil {
		t.Fatalf("expected idempotent success, got %v", err)
	}

	select {
	case ev := <-ch:
		if ev.Type != eventbus.TypeHistoryEntryDeleted {
			t.Fatalf("expected history-entry-deleted, got %v", ev.Type)
		}
	default:
		t.Fatal("expected a broadcast event")
	}
}

func TestCheckModelStatusWithoutSourceReturnsError(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.CheckModelStatus()
	if err != engine.ErrNoModelSource {
		t.Fatalf("expected ErrNoModelSource, got %v", err)
	}
}

func TestConnectEventsReceivesSynthesizedCaptureState(t *testing.T) {
	svc, _ := newTestService(t)
	svc.SetTranscriptionMode(true)

	ch, unsub := svc.ConnectEvents()
	defer unsub()

	select {
	case ev := <-ch:
		if ev.Type != eventbus.TypeCaptureStateChanged {
			t.Fatalf("expected synthesized capture-state-changed, got %v", ev.Type)
		}
	default:
		t.Fatal("expected a synthesized capture-state-changed event on connect")
	}
}
