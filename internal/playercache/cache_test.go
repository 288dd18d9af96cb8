package playercache

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/playperu/sketchclient/internal/game"
)

type countingFetcher struct {
	mu      sync.Mutex
	players map[string]game.Player
	calls   map[string]int
	err     error
}

func newFetcher(players ...game.Player) *countingFetcher {
	f := &countingFetcher{players: make(map[string]game.Player), calls: make(map[string]int)}
	for _, p := range players {
		f.players[p.ID] = p
	}
	return f
}

var errMissing = errors.New("missing")

func (f *countingFetcher) GetPlayer(_ context.Context, id string) (game.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[id]++
	if f.err != nil {
		return game.Player{}, f.err
	}
	p, ok := f.players[id]
	if !ok {
		return game.Player{}, errMissing
	}
	return p, nil
}

func (f *countingFetcher) count(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

func TestGetFetchesOnce(t *testing.T) {
	ctx := context.Background()
	f := newFetcher(game.Player{ID: "1", Name: "Ana"})
	c := New(f, nil, slog.Default())

	first, err := c.Get(ctx, "1")
	if err != nil {
		t.Fatalf("first Get: %v", err)
	}
	for range 5 {
		p, err := c.Get(ctx, "1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if !p.Equal(first) || p.Name != "Ana" {
			t.Errorf("Get = %+v, want %+v", p, first)
		}
	}
	if n := f.count("1"); n != 1 {
		t.Errorf("fetches = %d, want 1", n)
	}
	if n := c.Len(ctx); n != 1 {
		t.Errorf("Len = %d, want 1", n)
	}
}

func TestClearForcesRefetch(t *testing.T) {
	ctx := context.Background()
	f := newFetcher(game.Player{ID: "1", Name: "Ana"})
	c := New(f, nil, slog.Default())

	if _, err := c.Get(ctx, "1"); err != nil {
		t.Fatal(err)
	}
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("second Clear: %v", err)
	}
	if _, err := c.Get(ctx, "1"); err != nil {
		t.Fatal(err)
	}
	if n := f.count("1"); n != 2 {
		t.Errorf("fetches = %d, want 2", n)
	}
}

func TestErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	f := newFetcher()
	c := New(f, nil, slog.Default())

	for range 2 {
		if _, err := c.Get(ctx, "ghost"); !errors.Is(err, errMissing) {
			t.Fatalf("err = %v, want errMissing", err)
		}
	}
	if n := f.count("ghost"); n != 2 {
		t.Errorf("fetches = %d, want 2", n)
	}
	if n := c.Len(ctx); n != 0 {
		t.Errorf("Len = %d, want 0", n)
	}
}

func TestNamelessRecordsAreCached(t *testing.T) {
	ctx := context.Background()
	f := newFetcher(game.Player{ID: "7"})
	c := New(f, nil, slog.Default())

	for range 5 {
		p, err := c.Get(ctx, "7")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if p.ID != "7" || p.Name != "" {
			t.Errorf("player = %+v", p)
		}
	}
	if n := f.count("7"); n != 1 {
		t.Errorf("fetches = %d, want 1", n)
	}
}

func TestRedisUnavailableFallsBackToFetch(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         "localhost:1",
		DialTimeout:  10 * time.Millisecond,
		ReadTimeout:  10 * time.Millisecond,
		WriteTimeout: 10 * time.Millisecond,
		MaxRetries:   0,
	})
	defer rdb.Close()

	f := newFetcher(game.Player{ID: "1", Name: "Ana"})
	c := New(f, NewRedisStore(rdb, "test:player:"), slog.Default())

	p, err := c.Get(context.Background(), "1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.Name != "Ana" {
		t.Errorf("Name = %q, want Ana", p.Name)
	}
	if err := c.Clear(context.Background()); err == nil {
		t.Error("Clear against dead redis should fail")
	}
}
