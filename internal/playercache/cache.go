// Package playercache resolves player ids to full player records, fetching
// each id from the backend at most once until the cache is cleared.
//
// Entries never expire: a room holds a handful of players and display names
// do not change during a session. Clear is the only invalidation point and
// must be called on logout.
package playercache

import (
	"context"
	"log/slog"

	"github.com/playperu/sketchclient/internal/game"
)

// Fetcher loads a full player record from the backend.
type Fetcher interface {
	GetPlayer(ctx context.Context, id string) (game.Player, error)
}

// Store holds cached players. Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, id string) (game.Player, bool, error)
	Set(ctx context.Context, p game.Player) error
	Clear(ctx context.Context) error
	Len(ctx context.Context) (int, error)
}

type Cache struct {
	fetcher Fetcher
	store   Store
	logger  *slog.Logger
}

func New(fetcher Fetcher, store Store, logger *slog.Logger) *Cache {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Cache{fetcher: fetcher, store: store, logger: logger}
}

// Get returns the cached player for id, or fetches and caches it. Concurrent
// misses for the same id are not coalesced. Every successful fetch is cached,
// even one without a name. Fetch errors are returned as-is and never populate
// the cache.
func (c *Cache) Get(ctx context.Context, id string) (game.Player, error) {
	p, ok, err := c.store.Get(ctx, id)
	if err != nil {
		c.logger.Warn("player cache read failed", "player_id", id, "error", err)
	} else if ok {
		return p, nil
	}

	p, err = c.fetcher.GetPlayer(ctx, id)
	if err != nil {
		return game.Player{}, err
	}
	if p.ID == "" {
		p.ID = id
	}
	if err := c.store.Set(ctx, p); err != nil {
		c.logger.Warn("player cache write failed", "player_id", id, "error", err)
	}
	return p, nil
}

// Clear drops every entry. It is idempotent.
func (c *Cache) Clear(ctx context.Context) error {
	return c.store.Clear(ctx)
}

func (c *Cache) Len(ctx context.Context) int {
	n, err := c.store.Len(ctx)
	if err != nil {
		c.logger.Warn("player cache size unavailable", "error", err)
		return 0
	}
	return n
}
