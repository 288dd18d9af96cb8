package wire

import (
	"strings"

	"github.com/playperu/sketchclient/internal/game"
)

var (
	playerIDKeys       = []string{"player_id", "playerId", "id", "user_id", "userId"}
	playerNameKeys     = []string{"name", "username", "display_name", "displayName", "player_name", "playerName"}
	playerColorKeys    = []string{"color", "team", "team_color", "teamColor"}
	playerRoleKeys     = []string{"role"}
	playerHostKeys     = []string{"isHost", "is_host"}
	playerChallengeKey = []string{"challengesSent", "challenges_sent"}
	playerDrawnKeys    = []string{"hasDrawn", "has_drawn"}
	playerGuessedKeys  = []string{"hasGuessed", "has_guessed"}
)

// ParsePlayer builds a Player from either a flat record or one that nests
// the identity under "player"/"user". Fields on the outer record win.
func ParsePlayer(m map[string]any) game.Player {
	m = flattenPlayer(m)

	p := game.Player{
		ID:    str(m, playerIDKeys...),
		Name:  str(m, playerNameKeys...),
		Color: game.Color(strings.ToLower(str(m, playerColorKeys...))),
		Role:  game.Role(strings.ToLower(str(m, playerRoleKeys...))),
	}
	p.IsHost, _ = boolean(m, playerHostKeys...)
	if n, ok := integer(m, playerChallengeKey...); ok && n >= 0 {
		p.ChallengesSent = n
	}
	p.HasDrawn, _ = boolean(m, playerDrawnKeys...)
	p.HasGuessed, _ = boolean(m, playerGuessedKeys...)
	return p
}

// ParsePlayerBytes decodes a player endpoint response, unwrapping a
// {"player": {...}} envelope when present.
func ParsePlayerBytes(data []byte) (game.Player, error) {
	m, err := Decode(data)
	if err != nil {
		return game.Player{}, err
	}
	return ParsePlayer(m), nil
}

func flattenPlayer(m map[string]any) map[string]any {
	var nested map[string]any
	for _, k := range []string{"player", "user"} {
		if v, ok := object(m[k]); ok {
			nested = v
			break
		}
	}
	if nested == nil {
		return m
	}

	out := make(map[string]any, len(m)+len(nested))
	for k, v := range nested {
		out[k] = v
	}
	for k, v := range m {
		if k == "player" || k == "user" || v == nil {
			continue
		}
		out[k] = v
	}
	// A membership row's own "id" must not shadow the nested player's id.
	if has(nested, "id") && !has(m, "player_id", "playerId") {
		out["id"] = nested["id"]
	}
	return out
}

// playerFromElement accepts a player object or a bare identifier.
func playerFromElement(v any) (game.Player, bool) {
	if m, ok := object(v); ok {
		p := ParsePlayer(m)
		return p, p.ID != ""
	}
	id := IDString(v)
	return game.Player{ID: id}, id != ""
}
