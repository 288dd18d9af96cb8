// Package game defines the canonical client-side view of a drawing/guessing
// session. Values are never mutated in place; every change produces a copy.
// It has no dependencies outside the standard library.
package game

import (
	"slices"
	"time"
)

type Color string

const (
	ColorRed  Color = "red"
	ColorBlue Color = "blue"
)

// Role is empty until the server assigns one.
type Role string

const (
	RoleDrawer  Role = "drawer"
	RoleGuesser Role = "guesser"
)

// Status values are server-defined. The set is open: unknown values are kept verbatim.
const (
	StatusLobby     = "lobby"
	StatusChallenge = "challenge"
	StatusDrawing   = "drawing"
	StatusGuessing  = "guessing"
	StatusPlaying   = "playing"
	StatusFinished  = "finished"
)

// MaxPlayersPerTeam is enforced by team-join callers, not by GameSession.
const MaxPlayersPerTeam = 2

const DefaultTeamScore = 100

type Player struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Color          Color  `json:"color,omitempty"`
	Role           Role   `json:"role,omitempty"`
	IsHost         bool   `json:"isHost"`
	ChallengesSent int    `json:"challengesSent"`
	HasDrawn       bool   `json:"hasDrawn"`
	HasGuessed     bool   `json:"hasGuessed"`
}

// Equal reports identity equality. Name, role and the rest are attributes.
func (p Player) Equal(o Player) bool { return p.ID == o.ID }

func (p Player) WithHost(isHost bool) Player {
	p.IsHost = isHost
	return p
}

func (p Player) WithColor(c Color) Player {
	p.Color = c
	return p
}

// Merge overlays session-scoped fields from local onto a fetched identity
// record. A non-empty local role wins over the fetched one.
func Merge(fetched, local Player, isHost bool) Player {
	out := fetched
	out.ID = local.ID
	out.Color = local.Color
	out.IsHost = isHost
	if local.Role != "" {
		out.Role = local.Role
	}
	out.ChallengesSent = local.ChallengesSent
	out.HasDrawn = local.HasDrawn
	out.HasGuessed = local.HasGuessed
	return out
}

type GameSession struct {
	ID          string        `json:"id"`
	Status      string        `json:"status"`
	GamePhase   string        `json:"gamePhase,omitempty"`
	Players     []Player      `json:"players"`
	TeamScores  map[Color]int `json:"teamScores"`
	CurrentTurn int           `json:"currentTurn"`
	HostID      string        `json:"hostId,omitempty"`
	CreatedAt   *time.Time    `json:"createdAt,omitempty"`
	StartedAt   *time.Time    `json:"startedAt,omitempty"`
}

func DefaultTeamScores() map[Color]int {
	return map[Color]int{ColorRed: DefaultTeamScore, ColorBlue: DefaultTeamScore}
}

// Clone returns a deep copy so callers can derive new values safely.
func (s GameSession) Clone() GameSession {
	out := s
	out.Players = slices.Clone(s.Players)
	if s.TeamScores != nil {
		out.TeamScores = make(map[Color]int, len(s.TeamScores))
		for k, v := range s.TeamScores {
			out.TeamScores[k] = v
		}
	}
	return out
}

func (s GameSession) WithPlayers(players []Player) GameSession {
	out := s.Clone()
	out.Players = slices.Clone(players)
	return out
}

func (s GameSession) WithHostID(id string) GameSession {
	out := s.Clone()
	out.HostID = id
	return out
}

func (s GameSession) PlayerByID(id string) (Player, bool) {
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}

// IsHost prefers the session-level host id; the per-player flag is only
// consulted when no host id is known.
func (s GameSession) IsHost(playerID string) bool {
	if s.HostID != "" {
		return s.HostID == playerID
	}
	p, ok := s.PlayerByID(playerID)
	return ok && p.IsHost
}

// TeamOf returns the players wearing color c, in list order.
func (s GameSession) TeamOf(c Color) []Player {
	var team []Player
	for _, p := range s.Players {
		if p.Color == c {
			team = append(team, p)
		}
	}
	return team
}

func (s GameSession) TeamCount(c Color) int {
	return len(s.TeamOf(c))
}

func (s GameSession) IsTeamFull(c Color) bool {
	return s.TeamCount(c) >= MaxPlayersPerTeam
}

// PlayerIDs returns ids in list order.
func (s GameSession) PlayerIDs() []string {
	ids := make([]string, len(s.Players))
	for i, p := range s.Players {
		ids[i] = p.ID
	}
	return ids
}

// PreserveHost carries a known host id forward when next omits it, and
// recomputes every player's IsHost against the carried id.
func PreserveHost(prev *GameSession, next GameSession) GameSession {
	if next.HostID != "" || prev == nil || prev.HostID == "" {
		return next
	}
	if prev.ID != "" && next.ID != "" && prev.ID != next.ID {
		return next
	}
	out := next.WithHostID(prev.HostID)
	for i := range out.Players {
		out.Players[i].IsHost = out.Players[i].ID == out.HostID
	}
	return out
}
