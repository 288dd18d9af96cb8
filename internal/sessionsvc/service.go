// Package sessionsvc is the session facade used by pollers and view-models.
// GetGameSession turns the backend's minimal session payload into a fully
// populated snapshot, resolving player names through the player cache.
package sessionsvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/playperu/sketchclient/internal/game"
	"github.com/playperu/sketchclient/internal/gameapi"
	"github.com/playperu/sketchclient/internal/playercache"
	"github.com/playperu/sketchclient/internal/retry"
	"github.com/playperu/sketchclient/internal/wire"
)

// API is the subset of *gameapi.Client the service needs.
type API interface {
	Login(ctx context.Context, username, password string) (string, error)
	SetToken(token string)
	PlayerID() (string, error)
	CreateSession(ctx context.Context) (map[string]any, error)
	GetSession(ctx context.Context, sessionID string) (map[string]any, error)
	GetStatus(ctx context.Context, sessionID string) (string, error)
	JoinSession(ctx context.Context, sessionID string, color game.Color) (map[string]any, error)
	LeaveSession(ctx context.Context, sessionID string) error
	StartSession(ctx context.Context, sessionID string) (map[string]any, error)
	GetPlayer(ctx context.Context, playerID string) (game.Player, error)
	GenerateImage(ctx context.Context, sessionID, challengeID string, req gameapi.DrawRequest) (gameapi.DrawResult, error)
}

var (
	ErrTeamFull     = errors.New("team is full")
	ErrInvalidColor = errors.New("color must be red or blue")
)

type Options struct {
	// EnrichConcurrency bounds parallel player fetches per session fetch.
	EnrichConcurrency int
	// ImageRetry controls GenerateImage. Zero value means 3 attempts, 2s/4s waits.
	ImageRetry retry.Policy
	Parser     *wire.Parser
}

type Service struct {
	api         API
	cache       *playercache.Cache
	parser      *wire.Parser
	logger      *slog.Logger
	concurrency int
	imageRetry  retry.Policy
}

func New(api API, cache *playercache.Cache, logger *slog.Logger, opts Options) *Service {
	s := &Service{
		api:         api,
		cache:       cache,
		parser:      opts.Parser,
		logger:      logger,
		concurrency: opts.EnrichConcurrency,
		imageRetry:  opts.ImageRetry,
	}
	if s.parser == nil {
		s.parser = wire.DefaultParser()
	}
	if s.concurrency < 1 {
		s.concurrency = 1
	}
	return s
}

// GetGameSession fetches, parses and enriches one session. Session-level
// failures are returned; per-player failures degrade to the minimal record.
func (s *Service) GetGameSession(ctx context.Context, sessionID string) (game.GameSession, error) {
	raw, err := s.api.GetSession(ctx, sessionID)
	if err != nil {
		return game.GameSession{}, fmt.Errorf("fetching session %s: %w", sessionID, err)
	}
	return s.build(ctx, sessionID, raw), nil
}

func (s *Service) build(ctx context.Context, sessionID string, raw map[string]any) game.GameSession {
	sess := s.parser.Parse(raw)
	if sess.ID == "" {
		sess.ID = sessionID
	}
	hostID, hostKnown := wire.HostID(raw)
	return sess.WithPlayers(s.enrich(ctx, sess.ID, sess.Players, hostID, hostKnown))
}

// enrich resolves every nameless player, each on its own. Players that
// already carry a name are never fetched. Order is preserved.
func (s *Service) enrich(ctx context.Context, sessionID string, players []game.Player, hostID string, hostKnown bool) []game.Player {
	out := make([]game.Player, len(players))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, p := range players {
		isHost := p.IsHost
		if hostKnown {
			isHost = p.ID == hostID
		}
		if p.Name != "" {
			out[i] = p.WithHost(isHost)
			continue
		}

		g.Go(func() error {
			full, err := s.cache.Get(ctx, p.ID)
			if err != nil {
				s.logger.Warn("player enrichment failed",
					"session_id", sessionID,
					"player_id", p.ID,
					"error", err,
				)
				out[i] = p.WithHost(isHost)
				return nil
			}
			out[i] = game.Merge(full, p, isHost)
			return nil
		})
	}
	g.Wait()
	return out
}

// Status returns the bare status string without enrichment.
func (s *Service) Status(ctx context.Context, sessionID string) (string, error) {
	status, err := s.api.GetStatus(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("fetching status of %s: %w", sessionID, err)
	}
	return status, nil
}

func (s *Service) CreateSession(ctx context.Context) (game.GameSession, error) {
	raw, err := s.api.CreateSession(ctx)
	if err != nil {
		return game.GameSession{}, fmt.Errorf("creating session: %w", err)
	}
	return s.build(ctx, "", raw), nil
}

// JoinTeam joins color after checking the two-per-team limit against a
// fresh snapshot. The returned session reflects the join.
func (s *Service) JoinTeam(ctx context.Context, sessionID string, color game.Color) (game.GameSession, error) {
	if color != game.ColorRed && color != game.ColorBlue {
		return game.GameSession{}, ErrInvalidColor
	}

	current, err := s.GetGameSession(ctx, sessionID)
	if err != nil {
		return game.GameSession{}, err
	}
	if current.IsTeamFull(color) {
		return game.GameSession{}, fmt.Errorf("joining %s team of %s: %w", color, sessionID, ErrTeamFull)
	}

	if _, err := s.api.JoinSession(ctx, sessionID, color); err != nil {
		return game.GameSession{}, fmt.Errorf("joining %s team of %s: %w", color, sessionID, err)
	}
	s.logger.Info("joined session", "session_id", sessionID, "color", color)
	return s.GetGameSession(ctx, sessionID)
}

func (s *Service) Leave(ctx context.Context, sessionID string) error {
	if err := s.api.LeaveSession(ctx, sessionID); err != nil {
		return fmt.Errorf("leaving session %s: %w", sessionID, err)
	}
	s.logger.Info("left session", "session_id", sessionID)
	return nil
}

func (s *Service) Start(ctx context.Context, sessionID string) error {
	if _, err := s.api.StartSession(ctx, sessionID); err != nil {
		return fmt.Errorf("starting session %s: %w", sessionID, err)
	}
	s.logger.Info("started session", "session_id", sessionID)
	return nil
}

// GenerateImage triggers image generation for a drawing challenge,
// retrying on any failure per the image retry policy.
func (s *Service) GenerateImage(ctx context.Context, sessionID, challengeID, prompt string, photoreal bool) (gameapi.DrawResult, error) {
	p := s.imageRetry
	if p.OnRetry == nil {
		p.OnRetry = func(attempt int, err error) {
			s.logger.Warn("image generation failed, retrying",
				"session_id", sessionID,
				"challenge_id", challengeID,
				"attempt", attempt,
				"error", err,
			)
		}
	}

	res, err := retry.Do(ctx, p, func(ctx context.Context) (gameapi.DrawResult, error) {
		return s.api.GenerateImage(ctx, sessionID, challengeID, gameapi.DrawRequest{Prompt: prompt, Real: photoreal})
	})
	if err != nil {
		return gameapi.DrawResult{}, fmt.Errorf("generating image for challenge %s: %w", challengeID, err)
	}
	return res, nil
}

// Login authenticates and returns the current player's id.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	if _, err := s.api.Login(ctx, username, password); err != nil {
		return "", err
	}
	return s.api.PlayerID()
}

func (s *Service) CurrentPlayerID() (string, error) {
	return s.api.PlayerID()
}

func (s *Service) ClearPlayerCache(ctx context.Context) error {
	if err := s.cache.Clear(ctx); err != nil {
		return fmt.Errorf("clearing player cache: %w", err)
	}
	return nil
}

// Logout drops the token and every cached player.
func (s *Service) Logout(ctx context.Context) error {
	s.api.SetToken("")
	return s.ClearPlayerCache(ctx)
}
