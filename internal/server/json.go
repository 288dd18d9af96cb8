package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/playperu/sketchclient/internal/gameapi"
	"github.com/playperu/sketchclient/internal/sessionsvc"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// readJSON decodes the request body into v. An empty body leaves v untouched.
func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeUpstreamError maps a session service failure to a bridge response.
func writeUpstreamError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var (
		httpErr  *gameapi.HTTPError
		parseErr *gameapi.ParseError
	)
	isHTTP := errors.As(err, &httpErr)

	switch {
	case errors.Is(err, sessionsvc.ErrInvalidColor):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, sessionsvc.ErrTeamFull), gameapi.IsAlreadyInSession(err):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, gameapi.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found upstream")
	case isHTTP && httpErr.Status == http.StatusUnauthorized:
		writeError(w, http.StatusUnauthorized, "game server rejected the credentials")
	case isHTTP && httpErr.Status == http.StatusForbidden:
		writeError(w, http.StatusForbidden, strings.TrimSpace(httpErr.Body))
	case isHTTP:
		writeError(w, http.StatusBadGateway, httpErr.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "game server timed out")
	case gameapi.IsTransport(err):
		writeError(w, http.StatusBadGateway, "game server unreachable")
	case errors.As(err, &parseErr):
		writeError(w, http.StatusBadGateway, "unreadable game server response")
	default:
		logger.Error("bridge request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
