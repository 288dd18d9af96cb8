// Package sessionsync keeps a locally observable copy of one game session
// fresh by polling, and derives status and phase change events from it.
//
// Ticks are serialized: a single goroutine drives the ticker, and a tick that
// fires while a fetch (tick or Refresh) is still in flight is skipped.
package sessionsync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/playperu/sketchclient/internal/game"
)

// Source produces enriched session snapshots. *sessionsvc.Service satisfies it.
type Source interface {
	GetGameSession(ctx context.Context, sessionID string) (game.GameSession, error)
}

const (
	KindStatus = "status"
	KindPhase  = "phase"
)

// Transition records an observed change of status or gamePhase. From is
// empty for the first observation.
type Transition struct {
	SessionID string    `json:"sessionId"`
	Kind      string    `json:"kind"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	At        time.Time `json:"at"`
}

type Synchronizer struct {
	source   Source
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time

	// Sessions carries every fetched snapshot; nil after Reset.
	Sessions *Stream[*game.GameSession]
	// Statuses carries status values, only when they change.
	Statuses *Stream[string]
	// Phases carries gamePhase values, only when they change; "" is no phase.
	Phases      *Stream[string]
	Transitions *Stream[Transition]

	mu        sync.Mutex // guards the polling loop handles
	cancel    context.CancelFunc
	done      chan struct{}
	sessionID string

	fetchMu sync.Mutex // serializes fetch+publish

	stateMu    sync.RWMutex
	last       *game.GameSession
	lastStatus string
	lastPhase  string
	observed   bool
}

func New(source Source, interval time.Duration, logger *slog.Logger) *Synchronizer {
	return &Synchronizer{
		source:      source,
		interval:    interval,
		logger:      logger,
		now:         time.Now,
		Sessions:    NewStream[*game.GameSession](),
		Statuses:    NewStream[string](),
		Phases:      NewStream[string](),
		Transitions: NewStream[Transition](),
	}
}

// Start begins polling sessionID. Starting while already polling is a
// logged no-op, even for a different session; Stop first to switch.
func (s *Synchronizer) Start(ctx context.Context, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.logger.Warn("polling already active, ignoring start",
			"session_id", s.sessionID,
			"requested_session_id", sessionID,
		)
		return
	}

	s.stateMu.Lock()
	if s.last != nil && s.last.ID != sessionID {
		s.forget()
	}
	s.stateMu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.sessionID = sessionID
	go s.run(ctx, sessionID, s.done)

	s.logger.Info("polling started", "session_id", sessionID, "interval", s.interval.String())
}

// Stop cancels the timer and waits for the polling goroutine to exit. A
// fetch in flight is abandoned and its result discarded. Safe to call when
// not polling.
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	cancel, done, id := s.cancel, s.done, s.sessionID
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.logger.Info("polling stopped", "session_id", id)
}

func (s *Synchronizer) Polling() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// SessionID returns the session being polled, or the last one polled.
func (s *Synchronizer) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// Latest returns the last known snapshot, or nil.
func (s *Synchronizer) Latest() *game.GameSession {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.last
}

// Refresh fetches sessionID now, waiting for any in-flight tick. When
// sessionID is the tracked session the result is published like a tick
// would; any other session is returned without touching the streams or the
// last-known status and phase. Errors are returned, not logged.
func (s *Synchronizer) Refresh(ctx context.Context, sessionID string) (game.GameSession, error) {
	s.fetchMu.Lock()
	defer s.fetchMu.Unlock()

	next, err := s.source.GetGameSession(ctx, sessionID)
	if err != nil {
		return game.GameSession{}, err
	}
	if !s.tracks(sessionID) {
		s.logger.Debug("refreshed untracked session", "session_id", sessionID)
		return next, nil
	}
	return s.apply(next), nil
}

// tracks reports whether sessionID is the session whose state the streams
// carry: the polled one while polling, otherwise the last snapshot's. With
// nothing tracked any session is adopted.
func (s *Synchronizer) tracks(sessionID string) bool {
	s.mu.Lock()
	polling, polled := s.cancel != nil, s.sessionID
	s.mu.Unlock()
	if polling {
		return sessionID == polled
	}

	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.last == nil || s.last.ID == sessionID
}

// forget drops the observed state. Callers hold stateMu.
func (s *Synchronizer) forget() {
	s.last = nil
	s.lastStatus, s.lastPhase, s.observed = "", "", false
}

// Reset stops polling and forgets the last snapshot, publishing nil.
// Called on logout.
func (s *Synchronizer) Reset() {
	s.Stop()

	s.fetchMu.Lock()
	defer s.fetchMu.Unlock()

	s.stateMu.Lock()
	s.forget()
	s.stateMu.Unlock()

	s.Sessions.Publish(nil)
}

// Close stops polling and closes every stream.
func (s *Synchronizer) Close() {
	s.Stop()
	s.Sessions.Close()
	s.Statuses.Close()
	s.Phases.Close()
	s.Transitions.Close()
}

func (s *Synchronizer) run(ctx context.Context, sessionID string, done chan struct{}) {
	defer close(done)

	t := time.NewTicker(s.interval)
	defer t.Stop()

	s.tick(ctx, sessionID)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.tick(ctx, sessionID)
		}
	}
}

func (s *Synchronizer) tick(ctx context.Context, sessionID string) {
	if !s.fetchMu.TryLock() {
		s.logger.Debug("skipping poll tick, fetch in flight", "session_id", sessionID)
		return
	}
	defer s.fetchMu.Unlock()

	start := time.Now()
	next, err := s.source.GetGameSession(ctx, sessionID)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		s.logger.Warn("poll tick failed",
			"session_id", sessionID,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return
	}
	s.apply(next)
}

// apply must be called with fetchMu held so publishes keep fetch order.
func (s *Synchronizer) apply(next game.GameSession) game.GameSession {
	s.stateMu.Lock()
	if s.last != nil && s.last.ID != next.ID {
		s.forget()
	}
	next = game.PreserveHost(s.last, next)
	snapshot := next.Clone()
	s.last = &snapshot

	var transitions []Transition
	statusChanged := !s.observed || next.Status != s.lastStatus
	phaseChanged := !s.observed || next.GamePhase != s.lastPhase
	at := s.now()
	if statusChanged && (s.lastStatus != "" || next.Status != "") {
		transitions = append(transitions, Transition{SessionID: next.ID, Kind: KindStatus, From: s.lastStatus, To: next.Status, At: at})
	}
	if phaseChanged && (s.lastPhase != "" || next.GamePhase != "") {
		transitions = append(transitions, Transition{SessionID: next.ID, Kind: KindPhase, From: s.lastPhase, To: next.GamePhase, At: at})
	}
	s.lastStatus, s.lastPhase, s.observed = next.Status, next.GamePhase, true
	s.stateMu.Unlock()

	s.Sessions.Publish(&snapshot)
	if statusChanged {
		s.Statuses.Publish(next.Status)
	}
	if phaseChanged {
		s.Phases.Publish(next.GamePhase)
	}
	for _, tr := range transitions {
		s.logger.Info("session transition",
			"session_id", tr.SessionID,
			"kind", tr.Kind,
			"from", tr.From,
			"to", tr.To,
		)
		s.Transitions.Publish(tr)
	}
	return next
}
