package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/playperu/sketchclient/internal/sessionsync"
)

const pingInterval = 30 * time.Second

type StatusEvent struct {
	Status string `json:"status"`
}

type PhaseEvent struct {
	// GamePhase is empty when the game has no phase.
	GamePhase string `json:"gamePhase"`
}

// WSMessage frames one event on the WebSocket stream. Data is null for a
// session reset.
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// streamEvents forwards the synchronizer streams to send until ctx ends, a
// stream closes, or send fails. New subscribers first receive the latest
// value of each stream. A nil session means the session was reset.
func streamEvents(ctx context.Context, sync *sessionsync.Synchronizer, send func(event string, v any) error, ping func() error) error {
	sessions := sync.Sessions.Subscribe()
	defer sync.Sessions.Unsubscribe(sessions)
	statuses := sync.Statuses.Subscribe()
	defer sync.Statuses.Unsubscribe(statuses)
	phases := sync.Phases.Subscribe()
	defer sync.Phases.Unsubscribe(phases)
	transitions := sync.Transitions.Subscribe()
	defer sync.Transitions.Unsubscribe(transitions)

	t := time.NewTicker(pingInterval)
	defer t.Stop()

	for {
		var err error
		select {
		case <-ctx.Done():
			return nil
		case s, ok := <-sessions:
			if !ok {
				return nil
			}
			if s == nil {
				err = send("session", nil)
				break
			}
			err = send("session", newSessionResponse(*s))
		case status, ok := <-statuses:
			if !ok {
				return nil
			}
			err = send("status", StatusEvent{Status: status})
		case phase, ok := <-phases:
			if !ok {
				return nil
			}
			err = send("phase", PhaseEvent{GamePhase: phase})
		case tr, ok := <-transitions:
			if !ok {
				return nil
			}
			err = send("transition", tr)
		case <-t.C:
			err = ping()
		}
		if err != nil {
			return err
		}
	}
}

func handleEvents(sync *sessionsync.Synchronizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		flusher.Flush()

		send := func(event string, v any) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
				return err
			}
			flusher.Flush()
			return nil
		}
		ping := func() error {
			if _, err := fmt.Fprintf(w, ": ping\n\n"); err != nil {
				return err
			}
			flusher.Flush()
			return nil
		}

		streamEvents(r.Context(), sync, send, ping)
	}
}

// handleEventsWS carries the same events as handleEvents over a WebSocket,
// one WSMessage per frame. Client frames are ignored.
func handleEventsWS(logger *slog.Logger, sync *sessionsync.Synchronizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ctx := conn.CloseRead(r.Context())

		send := func(event string, v any) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return wsjson.Write(wctx, conn, WSMessage{Event: event, Data: data})
		}
		ping := func() error {
			pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return conn.Ping(pctx)
		}

		if err := streamEvents(ctx, sync, send, ping); err != nil {
			logger.Debug("websocket stream ended", "error", err)
			return
		}
		conn.Close(websocket.StatusNormalClosure, "")
	}
}
