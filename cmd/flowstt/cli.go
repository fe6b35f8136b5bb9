package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/keathmilligan/flowstt/pkg/config"
	"github.com/keathmilligan/flowstt/pkg/service"
	"github.com/keathmilligan/flowstt/pkg/session"
)

// run dispatches a subcommand and returns the process exit code (spec §6
// "Exit codes").
func run(svc *service.Service, sess *session.Session, cfg config.Config, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: flowstt <list-devices|transcribe|status|history> [flags]")
		return exitInvalidArgument
	}

	switch args[0] {
	case "list-devices":
		return cmdListDevices(svc)
	case "transcribe":
		return cmdTranscribe(svc, sess, cfg, args[1:])
	case "status":
		return cmdStatus(svc)
	case "history":
		return cmdHistory(svc, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "flowstt: unknown subcommand %q\n", args[0])
		return exitInvalidArgument
	}
}

func cmdListDevices(svc *service.Service) int {
	devices, err := svc.ListAllSources(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "flowstt: %v\n", err)
		return exitDeviceUnavailable
	}
	for _, d := range devices {
		fmt.Printf("%s\t%s\t%s\n", d.ID, d.Name, d.Kind)
	}
	return exitSuccess
}

func cmdTranscribe(svc *service.Service, sess *session.Session, cfg config.Config, args []string) int {
	fs := pflag.NewFlagSet("transcribe", pflag.ContinueOnError)
	source := fs.String("source", "", "primary capture device id")
	reference := fs.String("reference", "", "reference/monitor device id for AEC")
	ptt := fs.Bool("ptt", false, "use push-to-talk instead of automatic segmentation")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "flowstt: %v\n", err)
		return exitInvalidArgument
	}
	if *source == "" {
		fmt.Fprintln(os.Stderr, "flowstt: transcribe requires --source")
		return exitInvalidArgument
	}

	if err := svc.SetSources(context.Background(), *source, *reference); err != nil {
		fmt.Fprintf(os.Stderr, "flowstt: %v\n", err)
		return exitDeviceUnavailable
	}
	if *ptt {
		svc.SetTranscriptionMode(false)
	} else {
		svc.SetTranscriptionMode(true)
	}

	if status, err := svc.CheckModelStatus(); err == nil && !status.Ready {
		fmt.Fprintf(os.Stderr, "flowstt: model not available: %s\n", status.Detail)
		return exitModelMissing
	}

	if err := sess.StartCapture(); err != nil {
		fmt.Fprintf(os.Stderr, "flowstt: %v\n", err)
		return exitDeviceUnavailable
	}
	defer sess.StopCapture()

	ch, unsubscribe := svc.ConnectEvents()
	defer unsubscribe()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return exitSuccess
		case ev, ok := <-ch:
			if !ok {
				return exitSuccess
			}
			printEvent(ev)
		}
	}
}

func cmdStatus(svc *service.Service) int {
	st := svc.GetStatus()
	fmt.Printf("capturing=%v in_speech=%v mode=%s queue_depth=%d primary=%s reference=%s error=%s\n",
		st.Capturing, st.InSpeech, st.Mode, st.QueueDepth, st.PrimaryID, st.ReferenceID, st.Error)
	return exitSuccess
}

func cmdHistory(svc *service.Service, args []string) int {
	fs := pflag.NewFlagSet("history", pflag.ContinueOnError)
	del := fs.String("delete", "", "delete the history entry with this id")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "flowstt: %v\n", err)
		return exitInvalidArgument
	}

	if *del != "" {
		if err := svc.DeleteHistoryEntry(*del); err != nil {
			fmt.Fprintf(os.Stderr, "flowstt: %v\n", err)
			return exitEngineError
		}
		return exitSuccess
	}

	for _, e := range svc.GetHistory() {
		fmt.Printf("%s\t%s\t%s\t%s\n", e.ID, e.Timestamp, e.Text, e.WavPath)
	}
	return exitSuccess
}
