package service

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/keathmilligan/flowstt/pkg/eventbus"
)

// ServeEvents upgrades an HTTP request to a websocket and streams every
// broadcast event to it until the connection closes or ctx is cancelled,
// mirroring the write-loop shape the teacher's streaming TTS client uses on
// the other end of a coder/websocket connection.
func ServeEvents(w http.ResponseWriter, r *http.Request, bus *eventbus.Bus) error {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return err
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx := r.Context()
	ch, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, ev); err != nil {
				return err
			}
		}
	}
}

// Handler adapts ServeEvents to net/http, closing over bus.
func Handler(bus *eventbus.Bus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = ServeEvents(w, r, bus)
	}
}

// DialEvents is the client-side counterpart used by CLI subcommands (and
// tests) that want to watch the broadcast stream over the wire instead of
// subscribing to the in-process Bus directly.
func DialEvents(ctx context.Context, url string) (*websocket.Conn, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	return conn, err
}

// ReadEvent reads and decodes the next broadcast event from a websocket
// connection opened with DialEvents.
func ReadEvent(ctx context.Context, conn *websocket.Conn) (eventbus.Event, error) {
	var ev eventbus.Event
	err := wsjson.Read(ctx, conn, &ev)
	return ev, err
}
