package server

import (
	"log/slog"
	"net/http"

	"github.com/playperu/sketchclient/internal/sessionsvc"
	"github.com/playperu/sketchclient/internal/sessionsync"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type MeResponse struct {
	PlayerID string `json:"playerId"`
	IsHost   bool   `json:"isHost"`
}

func handleLogin(logger *slog.Logger, sessions *sessionsvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Username == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "username and password are required")
			return
		}

		id, err := sessions.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			writeUpstreamError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, MeResponse{PlayerID: id})
	}
}

// handleLogout drops credentials, cached players and the last snapshot.
func handleLogout(logger *slog.Logger, sessions *sessionsvc.Service, sync *sessionsync.Synchronizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sync.Reset()
		if err := sessions.Logout(r.Context()); err != nil {
			writeUpstreamError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleMe reports the current player and whether they host the latest
// observed session.
func handleMe(sessions *sessionsvc.Service, sync *sessionsync.Synchronizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := sessions.CurrentPlayerID()
		if err != nil {
			writeError(w, http.StatusUnauthorized, "not logged in")
			return
		}

		resp := MeResponse{PlayerID: id}
		if latest := sync.Latest(); latest != nil {
			resp.IsHost = latest.IsHost(id)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleClearCache(logger *slog.Logger, sessions *sessionsvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := sessions.ClearPlayerCache(r.Context()); err != nil {
			writeUpstreamError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
