package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/playperu/sketchclient/internal/sessionsync"
)

type PollingRequest struct {
	SessionID string `json:"sessionId"`
}

type PollingResponse struct {
	Polling   bool   `json:"polling"`
	SessionID string `json:"sessionId,omitempty"`
}

func pollingState(sync *sessionsync.Synchronizer) PollingResponse {
	return PollingResponse{Polling: sync.Polling(), SessionID: sync.SessionID()}
}

func handlePollingState(sync *sessionsync.Synchronizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, pollingState(sync))
	}
}

// handleStartPolling starts polling the requested session. Polling outlives
// the request; a second start while active is ignored.
func handleStartPolling(sync *sessionsync.Synchronizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PollingRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.SessionID = strings.TrimSpace(req.SessionID)
		if req.SessionID == "" {
			writeError(w, http.StatusBadRequest, "sessionId is required")
			return
		}

		sync.Start(context.WithoutCancel(r.Context()), req.SessionID)
		writeJSON(w, http.StatusOK, pollingState(sync))
	}
}

func handleStopPolling(sync *sessionsync.Synchronizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sync.Stop()
		writeJSON(w, http.StatusOK, pollingState(sync))
	}
}
