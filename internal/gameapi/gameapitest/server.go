// Package gameapitest runs an in-process fake of the game backend for tests.
// It serves the same endpoints the real server exposes and counts player
// detail fetches so cache behavior can be asserted.
package gameapitest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Shape selects how GET /game_sessions/{id} renders players.
type Shape int

const (
	// ShapeStandard renders a "players" list of minimal stubs.
	ShapeStandard Shape = iota
	// ShapeTeams renders red_team / blue_team lists of bare ids.
	ShapeTeams
)

type account struct {
	ID           string
	Name         string
	PasswordHash []byte
}

type member struct {
	PlayerID string
	Color    string
	Role     string
}

type session struct {
	ID          string
	Status      string
	Phase       string
	HostID      string
	OmitHost    bool
	Members     []member
	Challenges  []string // challenger ids
	CurrentTurn int
	CreatedAt   time.Time
}

type Server struct {
	URL string

	srv *httptest.Server
	key []byte

	mu            sync.Mutex
	accounts      map[string]*account
	byUsername    map[string]string
	sessions      map[string]*session
	shape         Shape
	includeNames  bool
	playerFetches map[string]int
	sessionGets   int
	sessionFails  []int
	drawFails     int
	drawCalls     int
	sessionDelay  time.Duration
}

// New starts a fake backend and registers its shutdown with t.Cleanup.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		key:           []byte("gameapitest-signing-key"),
		accounts:      make(map[string]*account),
		byUsername:    make(map[string]string),
		sessions:      make(map[string]*session),
		playerFetches: make(map[string]int),
	}
	s.srv = httptest.NewServer(s.routes())
	s.URL = s.srv.URL
	t.Cleanup(s.srv.Close)
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.auth)
		r.Post("/game_sessions", s.handleCreate)
		r.Get("/game_sessions/{id}", s.handleGet)
		r.Get("/game_sessions/{id}/status", s.handleStatus)
		r.Post("/game_sessions/{id}/join", s.handleJoin)
		r.Get("/game_sessions/{id}/leave", s.handleLeave)
		r.Post("/game_sessions/{id}/start", s.handleStart)
		r.Post("/game_sessions/{id}/challenges/{cid}/draw", s.handleDraw)
		r.Get("/players/{id}", s.handlePlayer)
	})
	return r
}

// AddPlayer registers an account. The password is stored bcrypt-hashed.
func (s *Server) AddPlayer(id, name, password string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[id] = &account{ID: id, Name: name, PasswordHash: hash}
	s.byUsername[strings.ToLower(name)] = id
}

// RemovePlayer deletes an account so player fetches return 404.
func (s *Server) RemovePlayer(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.accounts[id]; ok {
		delete(s.byUsername, strings.ToLower(a.Name))
	}
	delete(s.accounts, id)
}

// AddSession creates a lobby hosted by hostID, who is not yet seated.
func (s *Server) AddSession(id, hostID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &session{ID: id, Status: "lobby", HostID: hostID, CreatedAt: time.Now().UTC()}
}

func (s *Server) Seat(sessionID, playerID, color string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.mustSession(sessionID)
	sess.Members = append(sess.Members, member{PlayerID: playerID, Color: color})
}

func (s *Server) Unseat(sessionID, playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.mustSession(sessionID)
	sess.removeMember(playerID)
}

func (s *Server) SetRole(sessionID, playerID, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.mustSession(sessionID)
	for i := range sess.Members {
		if sess.Members[i].PlayerID == playerID {
			sess.Members[i].Role = role
		}
	}
}

func (s *Server) SetStatus(sessionID, status, phase string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.mustSession(sessionID)
	sess.Status = status
	sess.Phase = phase
}

// OmitHost makes session payloads leave out host_id.
func (s *Server) OmitHost(sessionID string, omit bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mustSession(sessionID).OmitHost = omit
}

func (s *Server) AddChallenge(sessionID, challengerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.mustSession(sessionID)
	sess.Challenges = append(sess.Challenges, challengerID)
}

func (s *Server) SetShape(shape Shape) {
	s.mu.Lock()
	s.shape = shape
	s.mu.Unlock()
}

// IncludeNames makes standard-shape payloads carry player names.
func (s *Server) IncludeNames(on bool) {
	s.mu.Lock()
	s.includeNames = on
	s.mu.Unlock()
}

// FailSessionGets makes the next session fetches answer with the given statuses.
func (s *Server) FailSessionGets(statuses ...int) {
	s.mu.Lock()
	s.sessionFails = append(s.sessionFails, statuses...)
	s.mu.Unlock()
}

func (s *Server) SetSessionDelay(d time.Duration) {
	s.mu.Lock()
	s.sessionDelay = d
	s.mu.Unlock()
}

// FailDraws makes the next n draw requests answer 503.
func (s *Server) FailDraws(n int) {
	s.mu.Lock()
	s.drawFails = n
	s.mu.Unlock()
}

func (s *Server) DrawCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drawCalls
}

func (s *Server) PlayerFetches(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playerFetches[id]
}

func (s *Server) TotalPlayerFetches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.playerFetches {
		n += c
	}
	return n
}

func (s *Server) SessionGets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionGets
}

// Token mints a bearer token for playerID.
func (s *Server) Token(playerID string) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":       playerID,
		"player_id": playerID,
		"exp":       time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString(s.key)
	if err != nil {
		panic(err)
	}
	return signed
}

func (s *Server) mustSession(id string) *session {
	sess, ok := s.sessions[id]
	if !ok {
		panic(fmt.Sprintf("gameapitest: unknown session %q", id))
	}
	return sess
}

func (sess *session) removeMember(playerID string) bool {
	for i, m := range sess.Members {
		if m.PlayerID == playerID {
			sess.Members = append(sess.Members[:i], sess.Members[i+1:]...)
			return true
		}
	}
	return false
}

type ctxKey struct{}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !found || raw == "" {
			writeText(w, http.StatusUnauthorized, "missing token")
			return
		}
		tok, err := jwt.Parse(raw, func(*jwt.Token) (any, error) { return s.key, nil },
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			writeText(w, http.StatusUnauthorized, "invalid token")
			return
		}
		sub, _ := tok.Claims.GetSubject()
		ctx := context.WithValue(r.Context(), ctxKey{}, sub)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func playerFrom(r *http.Request) string {
	id, _ := r.Context().Value(ctxKey{}).(string)
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprint(w, msg)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeText(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	acc, ok := s.accounts[s.byUsername[strings.ToLower(req.Username)]]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(acc.PasswordHash, []byte(req.Password)) != nil {
		writeText(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": s.Token(acc.ID)})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	s.mu.Lock()
	sess := &session{ID: id, Status: "lobby", HostID: playerFrom(r), CreatedAt: time.Now().UTC()}
	s.sessions[id] = sess
	body := s.renderLocked(sess)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, body)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.sessionGets++
	delay := s.sessionDelay
	if len(s.sessionFails) > 0 {
		status := s.sessionFails[0]
		s.sessionFails = s.sessionFails[1:]
		s.mu.Unlock()
		writeText(w, status, "session unavailable")
		return
	}
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	s.mu.Lock()
	sess, ok := s.sessions[chi.URLParam(r, "id")]
	if !ok {
		s.mu.Unlock()
		writeText(w, http.StatusNotFound, "session not found")
		return
	}
	body := s.renderLocked(sess)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, body)
}

// renderLocked builds the wire payload. Player ids go out as numbers when
// they look numeric, like the real backend.
func (s *Server) renderLocked(sess *session) map[string]any {
	out := map[string]any{
		"id":           sess.ID,
		"status":       sess.Status,
		"current_turn": sess.CurrentTurn,
		"team_scores":  map[string]int{"red": 100, "blue": 100},
		"created_at":   sess.CreatedAt.Format(time.RFC3339),
	}
	if sess.Phase != "" {
		out["game_phase"] = sess.Phase
	}
	if !sess.OmitHost && sess.HostID != "" {
		out["host_id"] = wireID(sess.HostID)
	}
	if len(sess.Challenges) > 0 {
		cs := make([]map[string]any, len(sess.Challenges))
		for i, c := range sess.Challenges {
			cs[i] = map[string]any{"id": i + 1, "challenger_id": wireID(c)}
		}
		out["challenges"] = cs
	}

	switch s.shape {
	case ShapeTeams:
		red, blue := []any{}, []any{}
		for _, m := range sess.Members {
			if m.Color == "blue" {
				blue = append(blue, wireID(m.PlayerID))
			} else {
				red = append(red, wireID(m.PlayerID))
			}
		}
		out["red_team"] = red
		out["blue_team"] = blue
	default:
		players := make([]map[string]any, 0, len(sess.Members))
		for _, m := range sess.Members {
			p := map[string]any{"player_id": wireID(m.PlayerID), "color": m.Color}
			if m.Role != "" {
				p["role"] = m.Role
			}
			if s.includeNames {
				if acc, ok := s.accounts[m.PlayerID]; ok {
					p["name"] = acc.Name
				}
			}
			players = append(players, p)
		}
		out["players"] = players
	}
	return out
}

func wireID(id string) any {
	n := json.Number(id)
	if _, err := n.Int64(); err == nil {
		return n
	}
	return id
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	sess, ok := s.sessions[chi.URLParam(r, "id")]
	var status string
	if ok {
		status = sess.Status
	}
	s.mu.Unlock()
	if !ok {
		writeText(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Color string `json:"color"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || (req.Color != "red" && req.Color != "blue") {
		writeText(w, http.StatusBadRequest, "color must be red or blue")
		return
	}

	playerID := playerFrom(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[chi.URLParam(r, "id")]
	if !ok {
		writeText(w, http.StatusNotFound, "session not found")
		return
	}
	count := 0
	for _, m := range sess.Members {
		if m.PlayerID == playerID {
			writeText(w, http.StatusUnprocessableEntity, "Player already in session")
			return
		}
		if m.Color == req.Color {
			count++
		}
	}
	if count >= 2 {
		writeText(w, http.StatusUnprocessableEntity, "team is full")
		return
	}
	sess.Members = append(sess.Members, member{PlayerID: playerID, Color: req.Color})
	writeJSON(w, http.StatusOK, s.renderLocked(sess))
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[chi.URLParam(r, "id")]
	if !ok {
		writeText(w, http.StatusNotFound, "session not found")
		return
	}
	if !sess.removeMember(playerFrom(r)) {
		writeText(w, http.StatusUnprocessableEntity, "player not in session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "left"})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[chi.URLParam(r, "id")]
	if !ok {
		writeText(w, http.StatusNotFound, "session not found")
		return
	}
	if sess.HostID != playerFrom(r) {
		writeText(w, http.StatusForbidden, "only the host can start the game")
		return
	}
	sess.Status = "challenge"
	sess.Phase = "challenge"
	writeJSON(w, http.StatusOK, s.renderLocked(sess))
}

func (s *Server) handleDraw(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string `json:"prompt"`
		Real   bool   `json:"real"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Prompt == "" {
		writeText(w, http.StatusBadRequest, "prompt is required")
		return
	}

	s.mu.Lock()
	s.drawCalls++
	fail := s.drawFails > 0
	if fail {
		s.drawFails--
	}
	s.mu.Unlock()

	if fail {
		writeText(w, http.StatusServiceUnavailable, "image service busy")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"challenge_id": chi.URLParam(r, "cid"),
		"image_url":    "https://images.example.test/" + uuid.NewString() + ".png",
	})
}

func (s *Server) handlePlayer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	s.playerFetches[id]++
	acc, ok := s.accounts[id]
	s.mu.Unlock()
	if !ok {
		writeText(w, http.StatusNotFound, "player not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": wireID(acc.ID), "name": acc.Name})
}
