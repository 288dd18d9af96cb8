package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/playperu/sketchclient/internal/handler/health"
	"github.com/playperu/sketchclient/internal/sessionsync"
)

type operation struct {
	method, path, summary, description string
	req                                any
	resp                               []response
}

type response struct {
	body        any
	status      int
	contentType string
}

func okResp(body any) response { return response{body: body, status: http.StatusOK} }

func failResp(status int) response { return response{body: ErrorResponse{}, status: status} }

func noContent() response { return response{status: http.StatusNoContent} }

// sessionQuery documents the optional session selector accepted by the
// session action routes.
type sessionQuery struct {
	SessionID string `query:"sessionId" description:"Target session. Defaults to the session being polled."`
}

type transitionsQuery struct {
	sessionQuery
	Limit int `query:"limit" minimum:"1"`
}

type imageRequest struct {
	sessionQuery
	ChallengeID string `path:"challengeID"`
	ImageRequest
}

var operations = []operation{
	{http.MethodGet, "/healthz", "Health check", "Reports reachability of the game server, the journal and the player cache.", nil,
		[]response{okResp(map[string]health.Result{}), {body: map[string]health.Result{}, status: http.StatusServiceUnavailable}}},

	{http.MethodPost, "/api/login", "Log in", "Authenticates against the game server and keeps the token in memory.", LoginRequest{},
		[]response{okResp(MeResponse{}), failResp(http.StatusBadRequest), failResp(http.StatusBadGateway)}},
	{http.MethodPost, "/api/logout", "Log out", "Stops polling, forgets the token, the cached players and the last snapshot.", nil,
		[]response{noContent()}},
	{http.MethodGet, "/api/me", "Current player", "Returns the logged-in player and whether they host the observed session.", nil,
		[]response{okResp(MeResponse{}), failResp(http.StatusUnauthorized)}},
	{http.MethodPost, "/api/cache/clear", "Clear player cache", "Forces the next session fetch to re-resolve every player.", nil,
		[]response{noContent(), failResp(http.StatusInternalServerError)}},

	{http.MethodGet, "/api/polling", "Polling state", "", nil, []response{okResp(PollingResponse{})}},
	{http.MethodPost, "/api/polling/start", "Start polling", "Starts polling a session. Ignored when already polling.", PollingRequest{},
		[]response{okResp(PollingResponse{}), failResp(http.StatusBadRequest)}},
	{http.MethodPost, "/api/polling/stop", "Stop polling", "Stops polling. Safe when idle.", nil, []response{okResp(PollingResponse{})}},

	{http.MethodGet, "/api/session", "Latest session", "Returns the last observed snapshot without contacting the game server.", nil,
		[]response{okResp(SessionResponse{}), failResp(http.StatusNotFound)}},
	{http.MethodGet, "/api/session/events", "Session event stream", "Server-Sent Events: session, status, phase and transition events.", nil,
		[]response{{status: http.StatusOK, contentType: "text/event-stream"}}},
	{http.MethodGet, "/ws/session", "Session WebSocket", "Upgrades to a WebSocket carrying the same events as the SSE stream, one JSON message per frame.", nil,
		[]response{{body: WSMessage{}, status: http.StatusSwitchingProtocols}}},
	{http.MethodPost, "/api/sessions", "Create session", "Creates a lobby hosted by the current player and starts polling it.", nil,
		[]response{{body: SessionResponse{}, status: http.StatusCreated}, failResp(http.StatusBadGateway)}},

	{http.MethodPost, "/api/session/refresh", "Refresh session", "Fetches the session now. The tracked session is also published to subscribers.", sessionQuery{},
		[]response{okResp(SessionResponse{}), failResp(http.StatusNotFound), failResp(http.StatusBadGateway), failResp(http.StatusGatewayTimeout)}},
	{http.MethodGet, "/api/session/status", "Session status", "Returns the bare status without enriching players.", sessionQuery{},
		[]response{okResp(StatusResponse{}), failResp(http.StatusNotFound), failResp(http.StatusBadGateway)}},
	{http.MethodPost, "/api/session/join", "Join team", "Joins the red or blue team. Teams hold two players.", struct {
		sessionQuery
		JoinRequest
	}{},
		[]response{okResp(SessionResponse{}), failResp(http.StatusBadRequest), failResp(http.StatusConflict), failResp(http.StatusBadGateway)}},
	{http.MethodPost, "/api/session/leave", "Leave session", "", sessionQuery{},
		[]response{noContent(), failResp(http.StatusBadGateway)}},
	{http.MethodPost, "/api/session/start", "Start game", "Host only.", sessionQuery{},
		[]response{okResp(SessionResponse{}), failResp(http.StatusBadGateway)}},
	{http.MethodPost, "/api/session/challenges/{challengeID}/image", "Generate image", "Generates the drawing for a challenge, retrying failed attempts.", imageRequest{},
		[]response{okResp(ImageResponse{}), failResp(http.StatusBadRequest), failResp(http.StatusBadGateway)}},
	{http.MethodGet, "/api/session/transitions", "Transition history", "Recorded status and phase changes, oldest first.", transitionsQuery{},
		[]response{okResp([]sessionsync.Transition{}), failResp(http.StatusNotFound)}},
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Sketch Session Bridge"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Local bridge exposing a polled drawing-game session to view-models.")

	for _, op := range operations {
		oc, err := r.NewOperationContext(op.method, op.path)
		if err != nil {
			continue
		}
		oc.SetSummary(op.summary)
		if op.description != "" {
			oc.SetDescription(op.description)
		}
		if op.req != nil {
			oc.AddReqStructure(op.req)
		}
		for _, resp := range op.resp {
			opts := []openapi.ContentOption{openapi.WithHTTPStatus(resp.status)}
			if resp.contentType != "" {
				opts = append(opts, openapi.WithContentType(resp.contentType))
			}
			oc.AddRespStructure(resp.body, opts...)
		}
		_ = r.AddOperation(oc)
	}
	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
