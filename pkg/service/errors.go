package service

import "errors"

// Error kinds the service layer can return in addition to the ones its
// collaborators (pkg/audio, pkg/engine, pkg/session) already define.
var (
	// ErrDeviceNotFound means a requested device ID was not among the
	// backend's currently enumerated devices.
	ErrDeviceNotFound = errors.New("service: device not found")
	// ErrHistoryEntryNotFound names an unknown history id. DeleteHistoryEntry
	// does not return it: deleting an unknown id succeeds, which keeps
	// delete_history_entry idempotent.
	ErrHistoryEntryNotFound = errors.New("service: history entry not found")
	// ErrModelNotConfigured names a missing ModelSource. CheckModelStatus and
	// DownloadModel do not return it: New substitutes engine.NullModelSource,
	// whose methods return engine.ErrNoModelSource.
	ErrModelNotConfigured = errors.New("service: model source not configured")
)
