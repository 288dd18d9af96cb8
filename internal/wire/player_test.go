package wire

import (
	"testing"

	"github.com/playperu/sketchclient/internal/game"
)

func TestParsePlayerBytes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want game.Player
	}{
		{
			name: "flat",
			body: `{"id": 3, "username": "Cy", "is_host": "true"}`,
			want: game.Player{ID: "3", Name: "Cy", IsHost: true},
		},
		{
			name: "enveloped",
			body: `{"player": {"id": "3", "name": "Cy", "role": "Guesser"}}`,
			want: game.Player{ID: "3", Name: "Cy", Role: game.RoleGuesser},
		},
		{
			name: "large numeric id keeps precision",
			body: `{"id": 12345678901234567890, "name": "Big"}`,
			want: game.Player{ID: "12345678901234567890", Name: "Big"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePlayerBytes([]byte(tt.body))
			if err != nil {
				t.Fatalf("ParsePlayerBytes: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}
