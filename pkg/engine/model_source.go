package engine

import (
	"errors"
	"fmt"
	"os"
)

// ErrNoModelSource is returned by NullModelSource, the default when no
// download backend has been configured for check_model_status/download_model
// (spec §4.9).
var ErrNoModelSource = errors.New("engine: no model source configured")

// ErrModelDownloadUnsupported is returned by FileModelSource.Download: it
// only checks for files already on disk, it has no fetch target of its own.
var ErrModelDownloadUnsupported = errors.New("engine: model download not supported by this build")

// ModelSource is the capability a deployment can provide to check for and
// fetch the Whisper model files check_model_status/download_model operate
// over. It is intentionally decoupled from Engine so a build can wire in
// object storage, a local mirror, or nothing at all.
type ModelSource interface {
	// Status reports whether the configured model files are present.
	Status(cfg Config) (Status, error)
	// Download fetches missing model files into place.
	Download(cfg Config) error
}

// NullModelSource is a ModelSource stub that never finds or fetches
// anything; it exists for callers that have not wired a real ModelSource.
type NullModelSource struct{}

func (NullModelSource) Status(cfg Config) (Status, error) {
	return Status{}, ErrNoModelSource
}

func (NullModelSource) Download(cfg Config) error {
	return ErrNoModelSource
}

// FileModelSource is the default production ModelSource: it reports
// Status by checking whether cfg.Encoder/Decoder/Tokens exist on disk, with
// no network fetch behind Download (spec §4.9's check_model_status must be
// able to report a genuinely missing model; whether this deployment can
// fetch one is a separate concern).
type FileModelSource struct{}

func (FileModelSource) Status(cfg Config) (Status, error) {
	for _, f := range []string{cfg.Encoder, cfg.Decoder, cfg.Tokens} {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			return Status{Ready: false, ModelPath: f, Detail: fmt.Sprintf("missing model file: %s", f)}, nil
		}
	}
	return Status{Ready: true, ModelPath: cfg.Encoder}, nil
}

func (FileModelSource) Download(cfg Config) error {
	return ErrModelDownloadUnsupported
}
