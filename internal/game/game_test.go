package game

import "testing"

func TestPlayerEqualByID(t *testing.T) {
	a := Player{ID: "7", Name: "Ana", Role: RoleDrawer}
	b := Player{ID: "7", Name: "", Color: ColorBlue}
	if !a.Equal(b) {
		t.Error("players with the same id should be equal")
	}
	if a.Equal(Player{ID: "8", Name: "Ana"}) {
		t.Error("players with different ids should not be equal")
	}
}

func TestMergeKeepsSessionScopedFields(t *testing.T) {
	fetched := Player{ID: "1", Name: "Ana", Role: RoleGuesser, ChallengesSent: 9, HasDrawn: true}
	local := Player{ID: "1", Color: ColorRed, Role: RoleDrawer, ChallengesSent: 2, HasGuessed: true}

	got := Merge(fetched, local, true)

	want := Player{ID: "1", Name: "Ana", Color: ColorRed, Role: RoleDrawer, IsHost: true, ChallengesSent: 2, HasGuessed: true}
	if got != want {
		t.Errorf("Merge = %+v, want %+v", got, want)
	}

	// Empty local role falls back to the fetched one.
	got = Merge(fetched, Player{ID: "1"}, false)
	if got.Role != RoleGuesser {
		t.Errorf("role = %q, want %q", got.Role, RoleGuesser)
	}
}

func TestWithPlayersDoesNotAlias(t *testing.T) {
	s := GameSession{ID: "s", Players: []Player{{ID: "1"}}, TeamScores: DefaultTeamScores()}
	next := s.WithPlayers([]Player{{ID: "1", Name: "Ana"}})
	next.TeamScores[ColorRed] = 5

	if s.Players[0].Name != "" {
		t.Error("original players mutated")
	}
	if s.TeamScores[ColorRed] != DefaultTeamScore {
		t.Error("original team scores mutated")
	}
}

func TestIsHost(t *testing.T) {
	s := GameSession{
		HostID:  "1",
		Players: []Player{{ID: "1"}, {ID: "2", IsHost: true}},
	}
	if !s.IsHost("1") {
		t.Error("host id should win")
	}
	if s.IsHost("2") {
		t.Error("stale per-player flag should not win over host id")
	}

	s.HostID = ""
	if !s.IsHost("2") {
		t.Error("per-player flag should be used without host id")
	}
}

func TestTeamFull(t *testing.T) {
	s := GameSession{Players: []Player{
		{ID: "1", Color: ColorRed},
		{ID: "2", Color: ColorRed},
		{ID: "3", Color: ColorBlue},
	}}
	if !s.IsTeamFull(ColorRed) {
		t.Error("red should be full")
	}
	if s.IsTeamFull(ColorBlue) {
		t.Error("blue should not be full")
	}
	if got := s.TeamOf(ColorRed); len(got) != 2 || got[0].ID != "1" || got[1].ID != "2" {
		t.Errorf("TeamOf(red) = %+v", got)
	}
}

func TestPreserveHost(t *testing.T) {
	prev := &GameSession{ID: "s", HostID: "1"}

	tests := []struct {
		name string
		prev *GameSession
		next GameSession
		want string
	}{
		{"omitted keeps previous", prev, GameSession{ID: "s"}, "1"},
		{"new value wins", prev, GameSession{ID: "s", HostID: "2"}, "2"},
		{"no previous", nil, GameSession{ID: "s"}, ""},
		{"different session", prev, GameSession{ID: "other"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PreserveHost(tt.prev, tt.next).HostID; got != tt.want {
				t.Errorf("HostID = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPreserveHostRecomputesFlags(t *testing.T) {
	prev := &GameSession{ID: "s", HostID: "A"}
	next := GameSession{ID: "s", Players: []Player{
		{ID: "A", Name: "Ana"},
		{ID: "B", Name: "Ben", IsHost: true},
	}}

	got := PreserveHost(prev, next)
	if got.HostID != "A" {
		t.Fatalf("HostID = %q, want A", got.HostID)
	}
	if !got.Players[0].IsHost || got.Players[1].IsHost {
		t.Errorf("host flags = %v, %v, want true, false", got.Players[0].IsHost, got.Players[1].IsHost)
	}
	if next.Players[0].IsHost || !next.Players[1].IsHost {
		t.Error("PreserveHost mutated its input")
	}
}

func TestLifecycleOf(t *testing.T) {
	tests := []struct {
		status, phase string
		want          Lifecycle
	}{
		{"lobby", "", LifecycleLobby},
		{"playing", "drawing", LifecycleInGame},
		{"lobby", "challenge", LifecycleInGame},
		{"playing", "finished", LifecycleFinished},
		{"finished", "", LifecycleFinished},
		{"Guessing", "", LifecycleInGame},
		{"intermission", "", LifecycleUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.status+"/"+tt.phase, func(t *testing.T) {
			if got := LifecycleOf(tt.status, tt.phase); got != tt.want {
				t.Errorf("LifecycleOf(%q, %q) = %v, want %v", tt.status, tt.phase, got, tt.want)
			}
		})
	}
}
