package server

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/playperu/sketchclient/internal/journal"
)

func handleTransitions(logger *slog.Logger, store *journal.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			writeError(w, http.StatusNotFound, "transition journal disabled")
			return
		}

		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				writeError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = n
		}

		list, err := store.List(r.Context(), sessionID(r), limit)
		if err != nil {
			logger.Error("listing transitions", "session_id", sessionID(r), "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
