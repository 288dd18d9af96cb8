package game

import "strings"

type Lifecycle int

const (
	LifecycleUnknown Lifecycle = iota
	LifecycleLobby
	LifecycleInGame
	LifecycleFinished
)

func (l Lifecycle) String() string {
	switch l {
	case LifecycleLobby:
		return "lobby"
	case LifecycleInGame:
		return "in_game"
	case LifecycleFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// LifecycleOf classifies a session from both status and gamePhase. The server
// is inconsistent about which one moves first, so finished in either wins,
// then any in-game value, then lobby.
func LifecycleOf(status, gamePhase string) Lifecycle {
	status = strings.ToLower(strings.TrimSpace(status))
	gamePhase = strings.ToLower(strings.TrimSpace(gamePhase))

	if status == StatusFinished || gamePhase == StatusFinished {
		return LifecycleFinished
	}
	if isInGame(status) || isInGame(gamePhase) {
		return LifecycleInGame
	}
	if status == StatusLobby || gamePhase == StatusLobby {
		return LifecycleLobby
	}
	return LifecycleUnknown
}

func isInGame(v string) bool {
	switch v {
	case StatusChallenge, StatusDrawing, StatusGuessing, StatusPlaying:
		return true
	}
	return false
}

func (s GameSession) Lifecycle() Lifecycle {
	return LifecycleOf(s.Status, s.GamePhase)
}
