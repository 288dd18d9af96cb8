// Package journal persists observed session transitions to a local libSQL
// database so a restarted bridge can still show how a game progressed.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/playperu/sketchclient/internal/sessionsync"
)

// DefaultListLimit caps List when the caller passes no limit.
const DefaultListLimit = 200

// Store reads and writes the transitions table. The schema is owned by the
// migrations package.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Record(ctx context.Context, tr sessionsync.Transition) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transitions (session_id, kind, from_value, to_value, observed_at)
		 VALUES (?, ?, ?, ?, ?)`,
		tr.SessionID, tr.Kind, tr.From, tr.To, tr.At.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording transition: %w", err)
	}
	return nil
}

// List returns the transitions of sessionID oldest first, at most limit
// rows (DefaultListLimit when limit <= 0). An unknown session yields an
// empty slice.
func (s *Store) List(ctx context.Context, sessionID string, limit int) ([]sessionsync.Transition, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, kind, from_value, to_value, observed_at
		 FROM transitions WHERE session_id = ? ORDER BY id LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing transitions: %w", err)
	}
	defer rows.Close()

	out := []sessionsync.Transition{}
	for rows.Next() {
		var (
			tr sessionsync.Transition
			at string
		)
		if err := rows.Scan(&tr.SessionID, &tr.Kind, &tr.From, &tr.To, &at); err != nil {
			return nil, fmt.Errorf("scanning transition: %w", err)
		}
		tr.At, err = time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, fmt.Errorf("parsing observed_at %q: %w", at, err)
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}

// Check implements health.Checker.
func (s *Store) Check(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Run records every transition received on ch until ch closes or ctx ends.
// A failed write is logged and skipped.
func (s *Store) Run(ctx context.Context, ch <-chan sessionsync.Transition, logger *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case tr, ok := <-ch:
			if !ok {
				return nil
			}
			if err := s.Record(ctx, tr); err != nil {
				logger.Error("journal write failed",
					"session_id", tr.SessionID,
					"kind", tr.Kind,
					"error", err,
				)
			}
		}
	}
}
