package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/playperu/sketchclient/internal/config"
	"github.com/playperu/sketchclient/internal/database"
	"github.com/playperu/sketchclient/internal/gameapi"
	"github.com/playperu/sketchclient/internal/handler/health"
	"github.com/playperu/sketchclient/internal/journal"
	"github.com/playperu/sketchclient/internal/migrations"
	"github.com/playperu/sketchclient/internal/playercache"
	"github.com/playperu/sketchclient/internal/retry"
	"github.com/playperu/sketchclient/internal/server"
	"github.com/playperu/sketchclient/internal/sessionsvc"
	"github.com/playperu/sketchclient/internal/sessionsync"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	checks := map[string]health.Checker{}

	// --- Game API ---
	api := gameapi.New(cfg.APIBaseURL,
		gameapi.WithTimeout(cfg.HTTPTimeout),
		gameapi.WithToken(cfg.APIToken),
	)
	checks["upstream"] = upstreamChecker{cfg.APIBaseURL}

	if cfg.APIToken == "" && cfg.APIUsername != "" {
		if _, err := api.Login(ctx, cfg.APIUsername, cfg.APIPassword); err != nil {
			return fmt.Errorf("logging in as %s: %w", cfg.APIUsername, err)
		}
		playerID, _ := api.PlayerID()
		logger.Info("logged in", "player_id", playerID)
	}

	// --- Player cache ---
	var store playercache.Store
	if cfg.RedisURL != "" {
		rdb, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()
		prefix := playerCachePrefix(cfg.CachePrefix, api)
		store = playercache.NewRedisStore(rdb, prefix)
		checks["redis"] = redisChecker{rdb}
		logger.Info("player cache on redis", "prefix", prefix)
	}
	cache := playercache.New(api, store, logger)

	sessions := sessionsvc.New(api, cache, logger, sessionsvc.Options{
		EnrichConcurrency: cfg.EnrichConcurrency,
		ImageRetry:        retry.Policy{MaxAttempts: cfg.ImageMaxRetries},
	})

	// --- Synchronizer ---
	sync := sessionsync.New(sessions, cfg.PollInterval, logger)
	defer sync.Close()

	// --- Journal ---
	var jrnl *journal.Store
	if cfg.JournalDBPath != "" {
		db, err := openJournal(ctx, cfg.JournalDBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		jrnl = journal.NewStore(db)
		checks["journal"] = jrnl
		logger.Info("journal enabled", "path", cfg.JournalDBPath)
	}

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, server.Deps{
		Sessions: sessions,
		Sync:     sync,
		Journal:  jrnl,
		Checks:   checks,
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		sync.Stop()
		return srv.Shutdown(context.Background())
	})

	if jrnl != nil {
		transitions := sync.Transitions.Subscribe()
		g.Go(func() error {
			defer sync.Transitions.Unsubscribe(transitions)
			return jrnl.Run(gctx, transitions, logger)
		})
	}

	if cfg.SessionID != "" {
		sync.Start(gctx, cfg.SessionID)
	}

	return g.Wait()
}

func openJournal(ctx context.Context, path string) (*sql.DB, error) {
	db, err := database.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("connecting to journal: %w", err)
	}
	if err := migrations.Run(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

// playerCachePrefix scopes base to the player the process starts as, so a
// logout Clear leaves other players' entries on a shared redis alone. Without
// a player in the token base is used as is.
func playerCachePrefix(base string, api *gameapi.Client) string {
	id, err := api.PlayerID()
	if err != nil || id == "" {
		return base
	}
	return base + id + ":"
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

// upstreamChecker reports the game server reachable when it answers HTTP
// at all; status codes are not inspected.
type upstreamChecker struct{ baseURL string }

func (u upstreamChecker) Check(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u.baseURL, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

// redisChecker adapts *redis.Client to health.Checker.
type redisChecker struct{ client *redis.Client }

func (r redisChecker) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }
