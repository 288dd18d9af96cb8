package playercache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/playperu/sketchclient/internal/game"
)

// RedisStore shares cached players between client processes on one host.
// Keys live under prefix so Clear only touches this cache's entries. Stores
// sharing a prefix share entries, and a Clear on one empties them all.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) key(id string) string { return s.prefix + id }

func (s *RedisStore) Get(ctx context.Context, id string) (game.Player, bool, error) {
	data, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return game.Player{}, false, nil
	}
	if err != nil {
		return game.Player{}, false, fmt.Errorf("reading player %s: %w", id, err)
	}
	var p game.Player
	if err := json.Unmarshal(data, &p); err != nil {
		return game.Player{}, false, fmt.Errorf("decoding player %s: %w", id, err)
	}
	return p, true, nil
}

func (s *RedisStore) Set(ctx context.Context, p game.Player) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding player %s: %w", p.ID, err)
	}
	if err := s.rdb.Set(ctx, s.key(p.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("writing player %s: %w", p.ID, err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	keys, err := s.keys(ctx)
	if err != nil {
		return err
	}
	for len(keys) > 0 {
		n := min(len(keys), 100)
		if err := s.rdb.Del(ctx, keys[:n]...).Err(); err != nil {
			return fmt.Errorf("deleting cached players: %w", err)
		}
		keys = keys[n:]
	}
	return nil
}

func (s *RedisStore) Len(ctx context.Context) (int, error) {
	keys, err := s.keys(ctx)
	return len(keys), err
}

func (s *RedisStore) keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.rdb.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scanning cached players: %w", err)
	}
	return keys, nil
}
