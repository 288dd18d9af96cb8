package gameapi

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of the backend's JWT the client reads. The signature
// is never verified here; the token is only trusted by the server.
type Claims struct {
	PlayerID any `json:"player_id,omitempty"`
	jwt.RegisteredClaims
}

var errNoPlayerInToken = errors.New("token carries no player id")

// PlayerIDFromToken extracts the current player's id from a bearer token,
// preferring a player_id claim over sub.
func PlayerIDFromToken(token string) (string, error) {
	var c Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &c); err != nil {
		return "", fmt.Errorf("decoding token: %w", err)
	}
	switch v := c.PlayerID.(type) {
	case string:
		if v != "" {
			return v, nil
		}
	case float64:
		return fmt.Sprintf("%.0f", v), nil
	}
	if c.Subject != "" {
		return c.Subject, nil
	}
	return "", errNoPlayerInToken
}
