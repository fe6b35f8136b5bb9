// Package session owns the capture-session singleton: all state created on
// start_capture and torn down on stop_capture (spec §6 "Lifecycle"). History
// and configuration (pkg/config, pkg/history) outlive sessions and are
// owned by the service process instead.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/keathmilligan/flowstt/pkg/audio"
	"github.com/keathmilligan/flowstt/pkg/detector"
	"github.com/keathmilligan/flowstt/pkg/dsp"
	"github.com/keathmilligan/flowstt/pkg/engine"
	"github.com/keathmilligan/flowstt/pkg/eventbus"
	"github.com/keathmilligan/flowstt/pkg/history"
	"github.com/keathmilligan/flowstt/pkg/logging"
	"github.com/keathmilligan/flowstt/pkg/segmenter"
	"github.com/keathmilligan/flowstt/pkg/visualize"
)

// segmentQueueCapacity is the bounded MPSC channel between segmenter/PTT and
// the transcription worker (spec §4 "Segment queue: bounded FIFO, capacity
// 10. Producer blocks on full").
const segmentQueueCapacity = 10

// pullInterval is how often the processing loop drains the mixer. It is
// short enough that the 16kHz ring buffer never starves the detector's
// 10ms hop cadence.
const pullInterval = 5 * time.Millisecond

// Mode selects which of the segmenter/PTT gate drives segmentation.
type Mode int

const (
	ModeAutomatic Mode = iota
	ModePushToTalk
)

func (m Mode) String() string {
	if m == ModePushToTalk {
		return "push_to_talk"
	}
	return "automatic"
}

var (
	// ErrAlreadyCapturing is returned by StartCapture when a session is
	// already active.
	ErrAlreadyCapturing = errors.New("session: already capturing")
	// ErrNotCapturing is returned by operations that require an active
	// session when none exists.
	ErrNotCapturing = errors.New("session: not capturing")
)

// Status mirrors the get_status() operation's response shape (spec §4.9).
type Status struct {
	Capturing      bool
	InSpeech       bool
	QueueDepth     int
	Error          string
	PrimaryID      string
	ReferenceID    string
	Mode           string
	SamplesDropped uint64
}

// Session is the singleton capture pipeline. Configuration fields
// (devices, mode, hotkeys) are protected by mu and are readable whether or
// not capture is active; the heavier per-session runtime state only exists
// between StartCapture and StopCapture.
type Session struct {
	mu sync.RWMutex

	backend    audio.Backend
	engineCfg  engine.Config
	historyDir string
	history    *history.Store
	bus        *eventbus.Bus
	logger     logging.Logger

	primary   *audio.Device
	reference *audio.Device
	mode      Mode
	hotkeys   []segmenter.HotkeyCombination

	capturing bool
	lastErr   string

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	ring16k   *audio.RingBuffer
	ringNativ *audio.RingBuffer
	det       *detector.Detector
	auto      *segmenter.Automatic
	ptt       *segmenter.PTT
	segQueue  chan *segmenter.Segment
	worker    *engine.Worker
	fanout    *visualize.Fanout
}

// New creates a session. backend drives capture, store is the long-lived
// history store, bus is the broadcast hub, and engineCfg/historyDir
// parameterize the transcription worker created on each StartCapture.
func New(backend audio.Backend, store *history.Store, bus *eventbus.Bus, engineCfg engine.Config, historyDir string, logger logging.Logger) *Session {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Session{
		backend:    backend,
		engineCfg:  engineCfg,
		historyDir: historyDir,
		history:    store,
		bus:        bus,
		logger:     logger,
		mode:       ModeAutomatic,
		hotkeys:    []segmenter.HotkeyCombination{{"ctrl", "space"}},
	}
}

// SetSources records (and, if capturing, atomically rebuilds streams for)
// the primary/reference device selection (spec §4.9 set_sources).
func (s *Session) SetSources(primary *audio.Device, reference *audio.Device) error {
	s.mu.Lock()
	wasCapturing := s.capturing
	s.primary = primary
	s.reference = reference
	s.mu.Unlock()

	if !wasCapturing {
		return nil
	}
	if err := s.StopCapture(); err != nil {
		return err
	}
	return s.StartCapture()
}

// SetMode changes the transcription mode, idempotent (spec §4.9).
func (s *Session) SetMode(mode Mode) {
	s.mu.Lock()
	s.mode = mode
	s.mu.Unlock()
	s.publishState()
}

// SetHotkeys replaces the configured PTT chord set, idempotent.
func (s *Session) SetHotkeys(combos []segmenter.HotkeyCombination) {
	s.mu.Lock()
	s.hotkeys = combos
	ptt := s.ptt
	s.mu.Unlock()
	if ptt != nil {
		ptt.SetHotkeys(combos)
	}
}

// KeyDown/KeyUp feed the push-to-talk gate; no-ops outside an active
// session or outside push-to-talk mode.
func (s *Session) KeyDown(key string, sampleIndex uint64) {
	s.mu.RLock()
	ptt := s.ptt
	mode := s.mode
	s.mu.RUnlock()
	if ptt != nil && mode == ModePushToTalk {
		ptt.KeyDown(key, sampleIndex)
	}
}

func (s *Session) KeyUp(key string, sampleIndex uint64) {
	s.mu.RLock()
	ptt := s.ptt
	mode := s.mode
	s.mu.RUnlock()
	if ptt != nil && mode == ModePushToTalk {
		ptt.KeyUp(key, sampleIndex)
	}
}

// NotifyHotkeyPermissionDenied reports that the OS denied global hotkey
// capture (spec §7 HotkeyPermissionDenied): push-to-talk becomes
// unavailable, get_status().error surfaces it, and Automatic mode is
// unaffected. This is the integration point a platform-specific global
// hotkey listener would call; none is wired into this tree (see DESIGN.md).
func (s *Session) NotifyHotkeyPermissionDenied() {
	s.setError(segmenter.ErrHotkeyPermissionDenied)
}

// Status reports get_status()'s payload.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		Capturing: s.capturing,
		Error:     s.lastErr,
		Mode:      s.mode.String(),
	}
	if s.primary != nil {
		st.PrimaryID = s.primary.ID
	}
	if s.reference != nil {
		st.ReferenceID = s.reference.ID
	}
	if s.det != nil {
		st.InSpeech = s.det.LastMetrics().IsSpeaking
	}
	if s.segQueue != nil {
		st.QueueDepth = len(s.segQueue)
	}
	if s.ring16k != nil {
		st.SamplesDropped = s.ring16k.DroppedCount()
	}
	return st
}

// StartCapture creates every session-scoped component and begins pumping
// frames. It is an error to call it while already capturing.
func (s *Session) StartCapture() error {
	s.mu.Lock()
	if s.capturing {
		s.mu.Unlock()
		return ErrAlreadyCapturing
	}
	primary := s.primary
	reference := s.reference
	mode := s.mode
	hotkeys := s.hotkeys
	s.mu.Unlock()

	if primary == nil {
		return audio.ErrDeviceUnavailable
	}

	ctx, cancel := context.WithCancel(context.Background())

	if err := s.backend.Start(ctx, *primary, reference); err != nil {
		cancel()
		s.setError(err)
		return err
	}

	native := s.backend.NativeFormat()
	var aec *audio.EchoCanceller
	if reference != nil {
		aec = audio.NewEchoCanceller(native.Rate)
	}
	mixer := audio.NewMixer(native.Rate, native.Channels, aec, func(err error) {
		s.logger.Warn("aec degraded to passthrough: %v", err)
		s.publishWarning(err)
	})

	ring16k := audio.NewRingBuffer(16000)
	ringNative := audio.NewRingBuffer(native.Rate)
	det := detector.New(dsp.HopSamples)
	segQueue := make(chan *segmenter.Segment, segmentQueueCapacity)
	auto := segmenter.NewAutomatic(ring16k, segQueue)
	ptt := segmenter.NewPTT(ring16k, segQueue, hotkeys)

	eng, err := engine.NewSherpaEngine(s.engineCfg)
	if err != nil {
		s.logger.Warn("transcription engine unavailable: %v", err)
		eng = nil
	}
	worker := engine.NewWorker(segQueue, s.historyDir, s.history, eng, &busEvents{bus: s.bus}, 16000)
	fanout := visualize.New(ringNative.Cursor(), det, s.bus, native.Rate)

	s.mu.Lock()
	s.cancel = cancel
	s.ring16k = ring16k
	s.ringNativ = ringNative
	s.det = det
	s.auto = auto
	s.ptt = ptt
	s.segQueue = segQueue
	s.worker = worker
	s.fanout = fanout
	s.capturing = true
	s.lastErr = ""
	s.mu.Unlock()

	s.wg.Add(3)
	go func() { defer s.wg.Done(); s.pumpCapture(ctx, mixer) }()
	go func() { defer s.wg.Done(); s.pumpProcess(ctx, mixer, ring16k, ringNative, det, auto, ptt, mode) }()
	go func() { defer s.wg.Done(); worker.Run() }()
	go fanout.Run()

	s.publishState()
	return nil
}

// StopCapture halts every session-scoped goroutine and releases the device.
// Idempotent: calling it twice in a row simply reports ErrNotCapturing.
func (s *Session) StopCapture() error {
	s.mu.Lock()
	if !s.capturing {
		s.mu.Unlock()
		return ErrNotCapturing
	}
	cancel := s.cancel
	segQueue := s.segQueue
	fanout := s.fanout
	s.capturing = false
	s.mu.Unlock()

	cancel()
	if fanout != nil {
		fanout.Stop()
	}
	_ = s.backend.Stop()
	s.wg.Wait()
	if segQueue != nil {
		close(segQueue)
	}

	s.mu.Lock()
	s.ring16k = nil
	s.ringNativ = nil
	s.det = nil
	s.auto = nil
	s.ptt = nil
	s.segQueue = nil
	s.worker = nil
	s.fanout = nil
	s.mu.Unlock()

	s.publishState()
	return nil
}

func (s *Session) setError(err error) {
	s.mu.Lock()
	s.lastErr = err.Error()
	s.mu.Unlock()
	s.publishState()
}

func (s *Session) publishWarning(err error) {
	s.bus.Publish(eventbus.Event{
		Type: eventbus.TypeCaptureStateChanged,
		Data: eventbus.CaptureStateChangedData{Capturing: true, Error: err.Error()},
	})
}

func (s *Session) publishState() {
	st := s.Status()
	s.bus.Publish(eventbus.Event{
		Type: eventbus.TypeCaptureStateChanged,
		Data: eventbus.CaptureStateChangedData{Capturing: st.Capturing, Error: st.Error},
	})
}

// pumpCapture forwards backend frames into the mixer's staging queues. It is
// the only goroutine that touches the backend's channels.
func (s *Session) pumpCapture(ctx context.Context, mixer *audio.Mixer) {
	channels := s.backend.Frames()
	if len(channels) == 0 {
		return
	}
	primaryCh := channels[0]
	var referenceCh <-chan audio.Frame
	if len(channels) > 1 {
		referenceCh = channels[1]
	}

	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-primaryCh:
			if !ok {
				return
			}
			mixer.PushPrimary(f.Samples)
		case f, ok := <-referenceCh:
			if ok {
				mixer.PushReference(f.Samples)
			}
		}
	}
}

// pumpProcess pulls mixed audio from the mixer, writes both ring-buffer
// taps, and drives the detector/segmenter one hop at a time.
func (s *Session) pumpProcess(ctx context.Context, mixer *audio.Mixer, ring16k, ringNative *audio.RingBuffer, det *detector.Detector, auto *segmenter.Automatic, ptt *segmenter.PTT, mode Mode) {
	ticker := time.NewTicker(pullInterval)
	defer ticker.Stop()

	extractor := dsp.NewExtractor(16000)
	var pending []float32
	var pendingStart uint64

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			native, resampled := mixer.Pull()
			if len(native) > 0 {
				ringNative.Write(native)
			}
			if len(resampled) == 0 {
				continue
			}
			start := ring16k.Write(resampled)
			if len(pending) == 0 {
				pendingStart = start
			}
			pending = append(pending, resampled...)

			for len(pending) >= dsp.WindowSamples {
				window := pending[:dsp.WindowSamples]
				hopIndex := pendingStart
				feat := extractor.Process(window)
				events := det.Process(hopIndex, feat)

				if mode == ModeAutomatic {
					auto.ProcessHop(hopIndex, events)
				}
				for _, ev := range events {
					s.publishDetectorEvent(ev)
				}
				pending = pending[dsp.HopSamples:]
				pendingStart += uint64(dsp.HopSamples)
			}
		}
	}
}

func (s *Session) publishDetectorEvent(ev detector.Event) {
	switch ev.Type {
	case detector.EventSpeechStarted:
		s.bus.Publish(eventbus.Event{Type: eventbus.TypeSpeechStarted, Data: eventbus.SpeechStartedData{
			SampleIndex: ev.SampleIndex, LookbackOffsetMs: ev.LookbackOffsetMs,
		}})
	case detector.EventWordBreak:
		s.bus.Publish(eventbus.Event{Type: eventbus.TypeWordBreak, Data: eventbus.WordBreakData{
			OffsetMs: ev.OffsetMs, GapMs: ev.GapMs,
		}})
	case detector.EventSpeechEnded:
		s.bus.Publish(eventbus.Event{Type: eventbus.TypeSpeechEnded, Data: eventbus.SpeechEndedData{
			SampleIndex: ev.SampleIndex,
		}})
	}
}

// busEvents adapts the broadcast bus to engine.Events so the transcription
// worker does not need to import pkg/eventbus directly.
type busEvents struct {
	bus *eventbus.Bus
}

func (b *busEvents) TranscriptionComplete(id, text, timestamp, audioPath string) {
	b.bus.Publish(eventbus.Event{Type: eventbus.TypeTranscriptionComplete, Data: eventbus.TranscriptionCompleteData{
		ID: id, Text: text, Timestamp: timestamp, AudioPath: audioPath,
	}})
}

func (b *busEvents) TranscriptionError(id, kind string) {
	b.bus.Publish(eventbus.Event{Type: eventbus.TypeTranscriptionError, Data: eventbus.TranscriptionErrorData{
		ID: id, Kind: kind,
	}})
}
