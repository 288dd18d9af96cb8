package server

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/playperu/sketchclient/internal/handler/health"
)

func addRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Sketch Session Bridge", "/openapi.json", "/docs"))
	r.Mount("/healthz", health.NewHandler(logger, deps.Checks).Routes())

	// Account and cache.
	r.Post("/api/login", handleLogin(logger, deps.Sessions))
	r.Post("/api/logout", handleLogout(logger, deps.Sessions, deps.Sync))
	r.Get("/api/me", handleMe(deps.Sessions, deps.Sync))
	r.Post("/api/cache/clear", handleClearCache(logger, deps.Sessions))

	// Polling lifecycle.
	r.Get("/api/polling", handlePollingState(deps.Sync))
	r.Post("/api/polling/start", handleStartPolling(deps.Sync))
	r.Post("/api/polling/stop", handleStopPolling(deps.Sync))

	// Observed state, served from the synchronizer.
	r.Get("/api/session", handleLatestSession(deps.Sync))
	r.Get("/api/session/events", handleEvents(deps.Sync))
	r.Get("/ws/session", handleEventsWS(logger, deps.Sync))
	r.Post("/api/sessions", handleCreateSession(logger, deps.Sessions, deps.Sync))

	// Session actions. The target session is resolved by sessionMiddleware.
	r.Group(func(r chi.Router) {
		r.Use(sessionMiddleware(deps.Sync))
		r.Post("/api/session/refresh", handleRefresh(logger, deps.Sync))
		r.Get("/api/session/status", handleStatus(logger, deps.Sessions))
		r.Post("/api/session/join", handleJoin(logger, deps.Sessions, deps.Sync))
		r.Post("/api/session/leave", handleLeave(logger, deps.Sessions, deps.Sync))
		r.Post("/api/session/start", handleStart(logger, deps.Sessions, deps.Sync))
		r.Post("/api/session/challenges/{challengeID}/image", handleGenerateImage(logger, deps.Sessions))
		r.Get("/api/session/transitions", handleTransitions(logger, deps.Journal))
	})
}
