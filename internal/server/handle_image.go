package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/sketchclient/internal/sessionsvc"
)

type ImageRequest struct {
	Prompt string `json:"prompt"`
	Real   bool   `json:"real"`
}

type ImageResponse struct {
	ImageURL string `json:"imageUrl,omitempty"`
}

// handleGenerateImage triggers drawing generation for a challenge. The
// service retries failed attempts before giving up.
func handleGenerateImage(logger *slog.Logger, sessions *sessionsvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ImageRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Prompt = strings.TrimSpace(req.Prompt)
		if req.Prompt == "" {
			writeError(w, http.StatusBadRequest, "prompt is required")
			return
		}

		res, err := sessions.GenerateImage(r.Context(), sessionID(r), chi.URLParam(r, "challengeID"), req.Prompt, req.Real)
		if err != nil {
			writeUpstreamError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, ImageResponse{ImageURL: res.ImageURL})
	}
}
