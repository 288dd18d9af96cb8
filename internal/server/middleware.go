package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/playperu/sketchclient/internal/sessionsync"
)

type ctxKey int

const ctxKeySessionID ctxKey = iota

// sessionMiddleware resolves the target session from the sessionId query
// parameter, then the X-Session-ID header, then the session being polled.
func sessionMiddleware(sync *sessionsync.Synchronizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.URL.Query().Get("sessionId"))
			if id == "" {
				id = strings.TrimSpace(r.Header.Get("X-Session-ID"))
			}
			if id == "" {
				id = sync.SessionID()
			}
			if id == "" {
				writeError(w, http.StatusBadRequest, "no session selected: pass sessionId or start polling")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeySessionID, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionID(r *http.Request) string {
	return r.Context().Value(ctxKeySessionID).(string)
}
