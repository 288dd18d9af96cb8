package gameapi_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/playperu/sketchclient/internal/game"
	"github.com/playperu/sketchclient/internal/gameapi"
	"github.com/playperu/sketchclient/internal/gameapi/gameapitest"
	"github.com/playperu/sketchclient/internal/wire"
)

func setup(t *testing.T) (*gameapitest.Server, *gameapi.Client) {
	t.Helper()
	srv := gameapitest.New(t)
	srv.AddPlayer("1", "Ana", "pw-ana")
	srv.AddPlayer("2", "Ben", "pw-ben")
	srv.AddSession("s1", "1")
	srv.Seat("s1", "1", "red")
	return srv, gameapi.New(srv.URL, gameapi.WithToken(srv.Token("2")))
}

func TestLogin(t *testing.T) {
	srv, _ := setup(t)
	c := gameapi.New(srv.URL)

	token, err := c.Login(context.Background(), "ana", "pw-ana")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token == "" || c.Token() != token {
		t.Fatalf("token not stored")
	}
	id, err := c.PlayerID()
	if err != nil {
		t.Fatalf("PlayerID: %v", err)
	}
	if id != "1" {
		t.Errorf("PlayerID = %q, want 1", id)
	}

	_, err = gameapi.New(srv.URL).Login(context.Background(), "ana", "wrong")
	if gameapi.StatusCode(err) != http.StatusUnauthorized {
		t.Errorf("wrong password: err = %v, want 401", err)
	}
}

func TestGetSessionRequiresToken(t *testing.T) {
	srv, _ := setup(t)
	_, err := gameapi.New(srv.URL).GetSession(context.Background(), "s1")

	var he *gameapi.HTTPError
	if !errors.As(err, &he) || he.Status != http.StatusUnauthorized {
		t.Fatalf("err = %v, want HTTPError 401", err)
	}
}

func TestGetSessionAndParse(t *testing.T) {
	_, c := setup(t)
	raw, err := c.GetSession(context.Background(), "s1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}

	s := wire.DefaultParser().Parse(raw)
	if s.ID != "s1" || s.Status != game.StatusLobby || s.HostID != "1" {
		t.Errorf("session = %+v", s)
	}
	if len(s.Players) != 1 || s.Players[0].ID != "1" || s.Players[0].Name != "" {
		t.Errorf("players = %+v", s.Players)
	}
}

func TestGetStatus(t *testing.T) {
	srv, c := setup(t)
	srv.SetStatus("s1", "drawing", "drawing")

	status, err := c.GetStatus(context.Background(), "s1")
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if status != "drawing" {
		t.Errorf("status = %q, want drawing", status)
	}
}

func TestGetPlayerNotFound(t *testing.T) {
	_, c := setup(t)
	_, err := c.GetPlayer(context.Background(), "404")
	if !errors.Is(err, gameapi.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if gameapi.IsTransport(err) {
		t.Error("404 must not be a transport error")
	}
}

func TestGetPlayer(t *testing.T) {
	_, c := setup(t)
	p, err := c.GetPlayer(context.Background(), "2")
	if err != nil {
		t.Fatalf("GetPlayer: %v", err)
	}
	if p.ID != "2" || p.Name != "Ben" {
		t.Errorf("player = %+v", p)
	}
}

func TestJoinLeave(t *testing.T) {
	_, c := setup(t)
	ctx := context.Background()

	if _, err := c.JoinSession(ctx, "s1", game.ColorBlue); err != nil {
		t.Fatalf("JoinSession: %v", err)
	}
	_, err := c.JoinSession(ctx, "s1", game.ColorBlue)
	if !gameapi.IsAlreadyInSession(err) {
		t.Errorf("second join err = %v, want already-in-session", err)
	}

	if err := c.LeaveSession(ctx, "s1"); err != nil {
		t.Fatalf("LeaveSession: %v", err)
	}

	raw, err := c.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got := wire.DefaultParser().Parse(raw).PlayerIDs(); len(got) != 1 {
		t.Errorf("players after leave = %v", got)
	}
}

func TestStartRequiresHost(t *testing.T) {
	srv, c := setup(t)
	ctx := context.Background()

	_, err := c.StartSession(ctx, "s1")
	if gameapi.StatusCode(err) != http.StatusForbidden {
		t.Fatalf("non-host start err = %v, want 403", err)
	}

	host := gameapi.New(srv.URL, gameapi.WithToken(srv.Token("1")))
	raw, err := host.StartSession(ctx, "s1")
	if err != nil {
		t.Fatalf("host StartSession: %v", err)
	}
	if got := wire.DefaultParser().Parse(raw).Status; got != game.StatusChallenge {
		t.Errorf("status = %q, want challenge", got)
	}
}

func TestGenerateImage(t *testing.T) {
	_, c := setup(t)
	res, err := c.GenerateImage(context.Background(), "s1", "c1", gameapi.DrawRequest{Prompt: "a cat", Real: true})
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if res.ImageURL == "" {
		t.Error("ImageURL empty")
	}
}

func TestTransportError(t *testing.T) {
	c := gameapi.New("http://127.0.0.1:1")
	_, err := c.GetSession(context.Background(), "s1")
	if !gameapi.IsTransport(err) {
		t.Fatalf("err = %v, want TransportError", err)
	}
	if gameapi.StatusCode(err) != 0 {
		t.Error("transport error must not carry a status")
	}
}

func TestPlayerIDFromToken(t *testing.T) {
	srv := gameapitest.New(t)
	id, err := gameapi.PlayerIDFromToken(srv.Token("77"))
	if err != nil {
		t.Fatalf("PlayerIDFromToken: %v", err)
	}
	if id != "77" {
		t.Errorf("id = %q, want 77", id)
	}

	if _, err := gameapi.PlayerIDFromToken("not-a-jwt"); err == nil {
		t.Error("expected error for malformed token")
	}
}
