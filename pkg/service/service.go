// Package service implements the request/response half of the Event Bus &
// Service API (C10): list_all_sources, get_status, set_sources,
// set_transcription_mode, set_ptt_hotkeys, get_history,
// delete_history_entry, check_model_status, download_model, and
// connect_events (ConnectEvents, an in-process bus subscription).
// wsserver.go streams the same broadcast over a websocket, grounded on the
// same coder/websocket client pattern the teacher uses for its streaming API.
package service

import (
	"context"

	"github.com/keathmilligan/flowstt/pkg/audio"
	"github.com/keathmilligan/flowstt/pkg/engine"
	"github.com/keathmilligan/flowstt/pkg/eventbus"
	"github.com/keathmilligan/flowstt/pkg/history"
	"github.com/keathmilligan/flowstt/pkg/segmenter"
	"github.com/keathmilligan/flowstt/pkg/session"
)

// Service is the process-owned facade the CLI and any future UI talk to. It
// holds the long-lived collaborators (history, config-backed device
// selection, model source) plus the single capture Session.
type Service struct {
	backend     audio.Backend
	sess        *session.Session
	history     *history.Store
	bus         *eventbus.Bus
	modelSource engine.ModelSource
	modelConfig engine.Config
}

// New wires a Service around an already-constructed Session and its shared
// collaborators.
func New(backend audio.Backend, sess *session.Session, store *history.Store, bus *eventbus.Bus, modelSource engine.ModelSource, modelConfig engine.Config) *Service {
	if modelSource == nil {
		modelSource = engine.NullModelSource{}
	}
	return &Service{
		backend:     backend,
		sess:        sess,
		history:     store,
		bus:         bus,
		modelSource: modelSource,
		modelConfig: modelConfig,
	}
}

// ListAllSources implements list_all_sources(): every input device plus
// every system/monitor device usable as an AEC reference.
func (s *Service) ListAllSources(ctx context.Context) ([]audio.Device, error) {
	inputs, err := s.backend.ListInputDevices(ctx)
	if err != nil {
		return nil, err
	}
	systems, err := s.backend.ListSystemDevices(ctx)
	if err != nil {
		return nil, err
	}
	return append(inputs, systems...), nil
}

// GetStatus implements get_status().
func (s *Service) GetStatus() session.Status {
	return s.sess.Status()
}

// SetSources implements set_sources(primary?, reference?): atomic
// reconfigure, idempotent w.r.t. identical arguments (delegated to
// session.Session.SetSources, which only rebuilds streams when already
// capturing).
func (s *Service) SetSources(ctx context.Context, primaryID, referenceID string) error {
	primary, err := s.resolveDevice(ctx, primaryID)
	if err != nil {
		return err
	}
	var reference *audio.Device
	if referenceID != "" {
		reference, err = s.resolveDevice(ctx, referenceID)
		if err != nil {
			return err
		}
	}
	return s.sess.SetSources(primary, reference)
}

func (s *Service) resolveDevice(ctx context.Context, id string) (*audio.Device, error) {
	devices, err := s.ListAllSources(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range devices {
		if d.ID == id {
			dc := d
			return &dc, nil
		}
	}
	return nil, ErrDeviceNotFound
}

// SetTranscriptionMode implements set_transcription_mode(), idempotent.
func (s *Service) SetTranscriptionMode(automatic bool) {
	if automatic {
		s.sess.SetMode(session.ModeAutomatic)
	} else {
		s.sess.SetMode(session.ModePushToTalk)
	}
}

// SetPTTHotkeys implements set_ptt_hotkeys(), replacing the configured set.
func (s *Service) SetPTTHotkeys(combos []segmenter.HotkeyCombination) {
	s.sess.SetHotkeys(combos)
}

// GetHistory implements get_history().
func (s *Service) GetHistory() []history.Entry {
	return s.history.All()
}

// DeleteHistoryEntry implements delete_history_entry(id), idempotent, and
// broadcasts history-entry-deleted on success.
func (s *Service) DeleteHistoryEntry(id string) error {
	if err := s.history.Delete(id); err != nil {
		return err
	}
	s.bus.Publish(eventbus.Event{Type: eventbus.TypeHistoryEntryDeleted, Data: eventbus.HistoryEntryDeletedData{ID: id}})
	return nil
}

// CheckModelStatus implements check_model_status().
func (s *Service) CheckModelStatus() (engine.Status, error) {
	return s.modelSource.Status(s.modelConfig)
}

// DownloadModel implements download_model().
func (s *Service) DownloadModel() error {
	return s.modelSource.Download(s.modelConfig)
}

// ConnectEvents implements connect_events(): subscribes the caller to the
// broadcast stream. The returned unsubscribe func must be called when the
// caller disconnects.
func (s *Service) ConnectEvents() (<-chan eventbus.Event, func()) {
	return s.bus.Subscribe()
}
