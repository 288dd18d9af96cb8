// Package gameapi is the HTTP client for the game backend's REST API.
package gameapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/playperu/sketchclient/internal/game"
	"github.com/playperu/sketchclient/internal/wire"
)

type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// PlayerID returns the id of the authenticated player.
func (c *Client) PlayerID() (string, error) {
	t := c.Token()
	if t == "" {
		return "", errNoPlayerInToken
	}
	return PlayerIDFromToken(t)
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type JoinRequest struct {
	Color game.Color `json:"color"`
}

type DrawRequest struct {
	Prompt string `json:"prompt"`
	Real   bool   `json:"real"`
}

type DrawResult struct {
	ImageURL string         `json:"imageUrl"`
	Raw      map[string]any `json:"-"`
}

// Login exchanges credentials for a bearer token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	body, err := c.do(ctx, "login", http.MethodPost, "/login", LoginRequest{Username: username, Password: password})
	if err != nil {
		return "", err
	}
	m, err := wire.Decode(body)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	token := firstString(m, "token", "access_token", "jwt")
	if token == "" {
		return "", fmt.Errorf("login: %w", &ParseError{Err: fmt.Errorf("response has no token")})
	}
	c.SetToken(token)
	return token, nil
}

func (c *Client) CreateSession(ctx context.Context) (map[string]any, error) {
	return c.object(ctx, "create session", http.MethodPost, "/game_sessions", struct{}{})
}

// GetSession returns the raw session payload; shape detection is the caller's job.
func (c *Client) GetSession(ctx context.Context, sessionID string) (map[string]any, error) {
	return c.object(ctx, "get session", http.MethodGet, "/game_sessions/"+url.PathEscape(sessionID), nil)
}

// GetStatus accepts {"status": "..."}, a JSON string, or plain text.
func (c *Client) GetStatus(ctx context.Context, sessionID string) (string, error) {
	body, err := c.do(ctx, "get status", http.MethodGet, "/game_sessions/"+url.PathEscape(sessionID)+"/status", nil)
	if err != nil {
		return "", err
	}
	body = bytes.TrimSpace(body)
	if m, err := wire.Decode(body); err == nil {
		return firstString(m, "status", "game_status"), nil
	}
	var s string
	if err := json.Unmarshal(body, &s); err == nil {
		return s, nil
	}
	return string(body), nil
}

func (c *Client) JoinSession(ctx context.Context, sessionID string, color game.Color) (map[string]any, error) {
	return c.object(ctx, "join session", http.MethodPost, "/game_sessions/"+url.PathEscape(sessionID)+"/join", JoinRequest{Color: color})
}

func (c *Client) LeaveSession(ctx context.Context, sessionID string) error {
	_, err := c.do(ctx, "leave session", http.MethodGet, "/game_sessions/"+url.PathEscape(sessionID)+"/leave", nil)
	return err
}

func (c *Client) StartSession(ctx context.Context, sessionID string) (map[string]any, error) {
	return c.object(ctx, "start session", http.MethodPost, "/game_sessions/"+url.PathEscape(sessionID)+"/start", struct{}{})
}

// GetPlayer fetches one full player record. A 404 satisfies errors.Is(err, ErrNotFound).
func (c *Client) GetPlayer(ctx context.Context, playerID string) (game.Player, error) {
	body, err := c.do(ctx, "get player", http.MethodGet, "/players/"+url.PathEscape(playerID), nil)
	if err != nil {
		return game.Player{}, err
	}
	p, err := wire.ParsePlayerBytes(body)
	if err != nil {
		return game.Player{}, fmt.Errorf("get player %s: %w", playerID, err)
	}
	if p.ID == "" {
		p.ID = playerID
	}
	return p, nil
}

// GenerateImage asks the backend to render the drawing for a challenge.
// It is slow and may fail transiently; callers wrap it in a retry.
func (c *Client) GenerateImage(ctx context.Context, sessionID, challengeID string, req DrawRequest) (DrawResult, error) {
	path := "/game_sessions/" + url.PathEscape(sessionID) + "/challenges/" + url.PathEscape(challengeID) + "/draw"
	m, err := c.object(ctx, "generate image", http.MethodPost, path, req)
	if err != nil {
		return DrawResult{}, err
	}
	return DrawResult{
		ImageURL: firstString(m, "image_url", "imageUrl", "url", "image"),
		Raw:      m,
	}, nil
}

func (c *Client) object(ctx context.Context, op, method, path string, in any) (map[string]any, error) {
	body, err := c.do(ctx, op, method, path, in)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return map[string]any{}, nil
	}
	m, err := wire.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return m, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, in any) ([]byte, error) {
	var reqBody io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("%s: encoding request: %w", op, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("%s: building request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if t := c.Token(); t != "" {
		req.Header.Set("Authorization", "Bearer "+t)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("reading body: %w", err)}
	}
	if resp.StatusCode >= 400 {
		return nil, &HTTPError{Op: op, Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s := wire.IDString(v); s != "" {
				return s
			}
		}
	}
	return ""
}
