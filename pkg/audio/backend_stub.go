package audio

import "context"

// StubBackend is the placeholder implementation for platforms without a
// real vendor binding wired up yet (spec §9: "a stub backend that returns
// BackendUnavailable is an acceptable first implementation for unsupported
// platforms"). It satisfies Backend but every operation that would touch
// hardware fails with ErrBackendFault.
type StubBackend struct{}

func (StubBackend) ListInputDevices(ctx context.Context) ([]Device, error)  { return nil, nil }
func (StubBackend) ListSystemDevices(ctx context.Context) ([]Device, error) { return nil, nil }

func (StubBackend) Start(ctx context.Context, primary Device, reference *Device) error {
	return ErrBackendFault
}

func (StubBackend) Stop() error            { return nil }
func (StubBackend) Frames() []<-chan Frame { return nil }
func (StubBackend) NativeFormat() Format   { return Format{} }
