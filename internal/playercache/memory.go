package playercache

import (
	"context"
	"sync"

	"github.com/playperu/sketchclient/internal/game"
)

// MemoryStore keeps players in a process-local map.
type MemoryStore struct {
	mu      sync.RWMutex
	players map[string]game.Player
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{players: make(map[string]game.Player)}
}

func (s *MemoryStore) Get(_ context.Context, id string) (game.Player, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[id]
	return p, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, p game.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[p.ID] = p
	return nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.players)
	return nil
}

func (s *MemoryStore) Len(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.players), nil
}
