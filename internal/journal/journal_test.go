package journal_test

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"
	"time"

	"github.com/playperu/sketchclient/internal/database"
	"github.com/playperu/sketchclient/internal/journal"
	"github.com/playperu/sketchclient/internal/migrations"
	"github.com/playperu/sketchclient/internal/sessionsync"
)

func setupStore(t *testing.T) *journal.Store {
	t.Helper()
	return journal.NewStore(setupDB(t))
}

func setupDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := migrations.Run(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}
	return db
}

func TestRecordAndList(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	records := []sessionsync.Transition{
		{SessionID: "s1", Kind: sessionsync.KindStatus, From: "", To: "lobby", At: at},
		{SessionID: "s2", Kind: sessionsync.KindStatus, From: "", To: "lobby", At: at},
		{SessionID: "s1", Kind: sessionsync.KindStatus, From: "lobby", To: "playing", At: at.Add(time.Minute)},
		{SessionID: "s1", Kind: sessionsync.KindPhase, From: "", To: "challenge", At: at.Add(time.Minute)},
	}
	for _, tr := range records {
		if err := s.Record(ctx, tr); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	got, err := s.List(ctx, "s1", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d transitions, want 3", len(got))
	}
	if got[1].From != "lobby" || got[1].To != "playing" {
		t.Errorf("second = %+v", got[1])
	}
	if got[2].Kind != sessionsync.KindPhase {
		t.Errorf("third kind = %q", got[2].Kind)
	}
	if !got[0].At.Equal(at) {
		t.Errorf("At = %v, want %v", got[0].At, at)
	}

	limited, err := s.List(ctx, "s1", 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limit 2 returned %d", len(limited))
	}
}

func TestListUnknownSession(t *testing.T) {
	s := setupStore(t)

	got, err := s.List(context.Background(), "nope", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got %v, want empty slice", got)
	}
}

func TestRunDrainsStream(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	ch := make(chan sessionsync.Transition, 2)
	ch <- sessionsync.Transition{SessionID: "s1", Kind: sessionsync.KindStatus, To: "lobby", At: time.Now()}
	ch <- sessionsync.Transition{SessionID: "s1", Kind: sessionsync.KindStatus, From: "lobby", To: "finished", At: time.Now()}
	close(ch)

	if err := s.Run(ctx, ch, slog.Default()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, err := s.List(ctx, "s1", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[1].To != "finished" {
		t.Errorf("got %+v", got)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s := setupStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, make(chan sessionsync.Transition), slog.Default()) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestListReadsStoredTimestamps(t *testing.T) {
	db := setupDB(t)
	s := journal.NewStore(db)
	ctx := context.Background()

	tests := []struct {
		stored string
		want   time.Time
	}{
		{"2026-05-01T10:00:00Z", time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"2026-05-01T10:00:00.250Z", time.Date(2026, 5, 1, 10, 0, 0, 250_000_000, time.UTC)},
	}
	for _, tt := range tests {
		_, err := db.ExecContext(ctx,
			`INSERT INTO transitions (session_id, kind, from_value, to_value, observed_at)
			 VALUES ('s1', 'status', '', 'lobby', ?)`, tt.stored)
		if err != nil {
			t.Fatalf("inserting %q: %v", tt.stored, err)
		}
	}

	got, err := s.List(ctx, "s1", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != len(tests) {
		t.Fatalf("got %d transitions, want %d", len(got), len(tests))
	}
	for i, tt := range tests {
		if !got[i].At.Equal(tt.want) {
			t.Errorf("At(%q) = %v, want %v", tt.stored, got[i].At, tt.want)
		}
	}
}
