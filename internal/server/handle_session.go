package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/playperu/sketchclient/internal/game"
	"github.com/playperu/sketchclient/internal/sessionsvc"
	"github.com/playperu/sketchclient/internal/sessionsync"
)

// SessionResponse is a session snapshot plus its derived lifecycle stage.
type SessionResponse struct {
	game.GameSession
	Lifecycle string `json:"lifecycle"`
}

func newSessionResponse(s game.GameSession) SessionResponse {
	return SessionResponse{GameSession: s, Lifecycle: s.Lifecycle().String()}
}

type StatusResponse struct {
	SessionID string `json:"sessionId"`
	Status    string `json:"status"`
}

type JoinRequest struct {
	Color string `json:"color"`
}

// handleLatestSession serves the last polled snapshot without touching the
// game server.
func handleLatestSession(sync *sessionsync.Synchronizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		latest := sync.Latest()
		if latest == nil {
			writeError(w, http.StatusNotFound, "no session observed yet")
			return
		}
		writeJSON(w, http.StatusOK, newSessionResponse(*latest))
	}
}

// handleRefresh fetches the session now. Only the tracked session is
// published to subscribers.
func handleRefresh(logger *slog.Logger, sync *sessionsync.Synchronizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := sync.Refresh(r.Context(), sessionID(r))
		if err != nil {
			writeUpstreamError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, newSessionResponse(s))
	}
}

func handleStatus(logger *slog.Logger, sessions *sessionsvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := sessionID(r)
		status, err := sessions.Status(r.Context(), id)
		if err != nil {
			writeUpstreamError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, StatusResponse{SessionID: id, Status: status})
	}
}

// handleCreateSession creates a lobby hosted by the current player and
// starts polling it.
func handleCreateSession(logger *slog.Logger, sessions *sessionsvc.Service, sync *sessionsync.Synchronizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := sessions.CreateSession(r.Context())
		if err != nil {
			writeUpstreamError(w, logger, err)
			return
		}

		sync.Stop()
		sync.Start(context.WithoutCancel(r.Context()), s.ID)

		writeJSON(w, http.StatusCreated, newSessionResponse(s))
	}
}

func handleJoin(logger *slog.Logger, sessions *sessionsvc.Service, sync *sessionsync.Synchronizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req JoinRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		color := game.Color(strings.ToLower(strings.TrimSpace(req.Color)))
		if _, err := sessions.JoinTeam(r.Context(), sessionID(r), color); err != nil {
			writeUpstreamError(w, logger, err)
			return
		}
		refreshAndRespond(w, r, logger, sync)
	}
}

func handleLeave(logger *slog.Logger, sessions *sessionsvc.Service, sync *sessionsync.Synchronizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := sessionID(r)
		if err := sessions.Leave(r.Context(), id); err != nil {
			writeUpstreamError(w, logger, err)
			return
		}
		if sync.SessionID() == id {
			sync.Stop()
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleStart(logger *slog.Logger, sessions *sessionsvc.Service, sync *sessionsync.Synchronizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := sessions.Start(r.Context(), sessionID(r)); err != nil {
			writeUpstreamError(w, logger, err)
			return
		}
		refreshAndRespond(w, r, logger, sync)
	}
}

// refreshAndRespond publishes the post-action state so SSE subscribers see
// it before the next tick, and returns it to the caller.
func refreshAndRespond(w http.ResponseWriter, r *http.Request, logger *slog.Logger, sync *sessionsync.Synchronizer) {
	s, err := sync.Refresh(r.Context(), sessionID(r))
	if err != nil {
		writeUpstreamError(w, logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(s))
}
