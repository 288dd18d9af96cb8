package wire

import (
	"github.com/playperu/sketchclient/internal/game"
)

// Strategy handles one payload shape. Parsers try strategies in order and the
// first whose CanParse returns true wins.
type Strategy interface {
	Name() string
	CanParse(payload map[string]any) bool
	Parse(payload map[string]any) game.GameSession
}

// Parser converts game-server session payloads into game.GameSession values.
// It never fails on an unrecognized shape.
type Parser struct {
	strategies []Strategy
	fallback   Strategy
}

// NewParser returns a parser trying strategies in the given order and falling
// back to StandardShape.
func NewParser(strategies ...Strategy) *Parser {
	return &Parser{
		strategies: strategies,
		fallback:   StandardShape{},
	}
}

// DefaultParser knows the standard and team-keyed shapes.
func DefaultParser() *Parser {
	return NewParser(StandardShape{}, TeamShape{})
}

// Select returns the strategy that will handle payload.
func (p *Parser) Select(payload map[string]any) Strategy {
	for _, s := range p.strategies {
		if s.CanParse(payload) {
			return s
		}
	}
	return p.fallback
}

func (p *Parser) Parse(payload map[string]any) game.GameSession {
	payload = unwrapSession(payload)
	s := p.Select(payload).Parse(payload)

	if counts, ok := ChallengeCounts(payload); ok {
		for i := range s.Players {
			s.Players[i].ChallengesSent = counts[s.Players[i].ID]
		}
	}
	if s.HostID != "" {
		for i := range s.Players {
			s.Players[i].IsHost = s.Players[i].ID == s.HostID
		}
	}
	return s
}

var envelopeKeys = []string{"game_session", "gameSession", "session", "data"}

// unwrapSession peels a single {"game_session": {...}} style envelope.
func unwrapSession(m map[string]any) map[string]any {
	if has(m, "id", "status", "players", "red_team", "blue_team") {
		return m
	}
	for _, k := range envelopeKeys {
		if inner, ok := object(m[k]); ok {
			return inner
		}
	}
	return m
}

// HostID reads the authoritative host in priority order
// host_id, hostId, created_by, createdBy.
func HostID(payload map[string]any) (string, bool) {
	payload = unwrapSession(payload)
	for _, k := range []string{"host_id", "hostId", "created_by", "createdBy"} {
		if v, ok := payload[k]; ok && v != nil {
			if id := IDString(v); id != "" {
				return id, true
			}
		}
	}
	return "", false
}

// ChallengeCounts groups a "challenges" list by challenger id. The boolean
// is false when the payload has no challenges list, in which case literal
// challengesSent fields are left alone.
func ChallengeCounts(payload map[string]any) (map[string]int, bool) {
	items, ok := list(payload, "challenges")
	if !ok {
		return nil, false
	}
	counts := make(map[string]int)
	for _, it := range items {
		c, ok := object(it)
		if !ok {
			continue
		}
		if id := str(c, "challenger_id", "challengerId"); id != "" {
			counts[id]++
		}
	}
	return counts, true
}

func parseCommon(m map[string]any) game.GameSession {
	s := game.GameSession{
		ID:         str(m, "id", "session_id", "sessionId", "game_session_id"),
		Status:     str(m, "status"),
		GamePhase:  str(m, "gamePhase", "game_phase", "phase"),
		TeamScores: teamScores(m),
		CreatedAt:  timestamp(m, "createdAt", "created_at"),
		StartedAt:  timestamp(m, "startedAt", "started_at"),
	}
	s.CurrentTurn, _ = integer(m, "currentTurn", "current_turn")
	s.HostID, _ = HostID(m)
	return s
}

func teamScores(m map[string]any) map[game.Color]int {
	scores := game.DefaultTeamScores()
	if v, ok := lookup(m, "teamScores", "team_scores", "scores"); ok {
		if sm, ok := object(v); ok {
			for k, raw := range sm {
				if n, ok := toInt(raw); ok {
					scores[game.Color(k)] = n
				}
			}
		}
	}
	if n, ok := integer(m, "red_score", "redScore", "red_team_score"); ok {
		scores[game.ColorRed] = n
	}
	if n, ok := integer(m, "blue_score", "blueScore", "blue_team_score"); ok {
		scores[game.ColorBlue] = n
	}
	return scores
}

// StandardShape handles payloads carrying a flat "players" list.
type StandardShape struct{}

func (StandardShape) Name() string { return "standard" }

func (StandardShape) CanParse(m map[string]any) bool {
	_, ok := list(m, "players")
	return ok
}

func (StandardShape) Parse(m map[string]any) game.GameSession {
	s := parseCommon(m)
	items, _ := list(m, "players")
	s.Players = make([]game.Player, 0, len(items))
	for _, it := range items {
		if p, ok := playerFromElement(it); ok {
			s.Players = append(s.Players, p)
		}
	}
	return s
}

// TeamShape handles payloads keyed by team: red_team / blue_team lists of
// player objects or bare ids. Bare ids yield nameless players to enrich.
type TeamShape struct{}

func (TeamShape) Name() string { return "team" }

func (TeamShape) CanParse(m map[string]any) bool {
	if has(m, "players") {
		return false
	}
	return has(m, "red_team", "redTeam", "blue_team", "blueTeam")
}

func (TeamShape) Parse(m map[string]any) game.GameSession {
	s := parseCommon(m)
	s.Players = []game.Player{}
	teams := []struct {
		color game.Color
		keys  []string
	}{
		{game.ColorRed, []string{"red_team", "redTeam"}},
		{game.ColorBlue, []string{"blue_team", "blueTeam"}},
	}
	for _, t := range teams {
		items, _ := list(m, t.keys...)
		for _, it := range items {
			p, ok := playerFromElement(it)
			if !ok {
				continue
			}
			s.Players = append(s.Players, p.WithColor(t.color))
		}
	}
	return s
}
