// Command flowstt is the desktop voice-transcription agent's CLI and
// service entry point: a thin wrapper (spec §6) around the same
// list_all_sources/get_status/set_sources/transcribe operations the
// service API exposes over the event bus.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/keathmilligan/flowstt/pkg/audio"
	"github.com/keathmilligan/flowstt/pkg/config"
	"github.com/keathmilligan/flowstt/pkg/engine"
	"github.com/keathmilligan/flowstt/pkg/eventbus"
	"github.com/keathmilligan/flowstt/pkg/history"
	"github.com/keathmilligan/flowstt/pkg/logging"
	"github.com/keathmilligan/flowstt/pkg/service"
	"github.com/keathmilligan/flowstt/pkg/session"
)

// Exit codes per spec §6.
const (
	exitSuccess           = 0
	exitInvalidArgument   = 2
	exitDeviceUnavailable = 3
	exitModelMissing      = 4
	exitEngineError       = 5
)

func main() {
	logger := logging.NewStdLogger(os.Stderr)
	cfg := config.Load(logger)

	backend := newBackend()

	store, err := history.Open(cfg.HistoryDir)
	if err != nil {
		log.Fatalf("flowstt: could not open history store: %v", err)
	}

	bus := eventbus.New()
	engineCfg := engine.Config{
		Encoder:    cfg.ModelPath + "/encoder.onnx",
		Decoder:    cfg.ModelPath + "/decoder.onnx",
		Tokens:     cfg.ModelPath + "/tokens.txt",
		Language:   "auto",
		Provider:   "cpu",
		NumThreads: 2,
		SampleRate: 16000,
	}

	sess := session.New(backend, store, bus, engineCfg, cfg.HistoryDir, logger)
	svc := service.New(backend, sess, store, bus, engine.FileModelSource{}, engineCfg)

	os.Exit(run(svc, sess, cfg, os.Args[1:]))
}

// newBackend picks the real malgo-backed capture implementation, falling
// back to the stub (which fails every Start with ErrBackendFault) if the
// vendor context can't be initialized on this machine.
func newBackend() audio.Backend {
	b, err := audio.NewMalgoBackend()
	if err != nil {
		fmt.Fprintf(os.Stderr, "flowstt: audio backend unavailable, capture will fail: %v\n", err)
		return audio.StubBackend{}
	}
	return b
}
