// Package app wires configuration into the concrete collaborators shared by
// cmd/api and cmd/rankboard.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/albapepper/rankboard/internal/cache"
	"github.com/albapepper/rankboard/internal/config"
	"github.com/albapepper/rankboard/internal/db"
	"github.com/albapepper/rankboard/internal/identity"
	"github.com/albapepper/rankboard/internal/notify"
	"github.com/albapepper/rankboard/internal/poller"
	"github.com/albapepper/rankboard/internal/provider/riot"
	"github.com/albapepper/rankboard/internal/session"
	"github.com/albapepper/rankboard/internal/standings"
	"github.com/albapepper/rankboard/internal/store"
)

// App holds every long-lived component.
type App struct {
	Cfg       *config.Config
	Pool      *db.Pool
	Store     *store.Store
	Riot      *riot.Client
	Cache     cache.Store
	Resolver  *identity.Resolver
	Sessions  *session.Manager
	Standings *standings.Aggregator
	Slot      *notify.Slot
	Poller    *poller.Poller

	redis *cache.Redis
}

// New connects to Postgres (and Redis when REDIS_ADDR is set) and builds
// the component graph.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	pool, err := db.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	a := &App{Cfg: cfg, Pool: pool, Store: store.New(pool.Pool)}

	if cfg.RedisAddr != "" {
		r, err := cache.NewRedis(ctx, cfg.RedisAddr)
		if err != nil {
			pool.Close()
			return nil, err
		}
		a.redis = r
		a.Cache = r
		logger.Info("Identity cache on Redis", "addr", cfg.RedisAddr)
	} else {
		a.Cache = cache.New()
	}

	a.Riot = riot.NewClient(riot.Options{
		APIKey:       cfg.RiotAPIKey,
		Region:       cfg.RiotRegion,
		Platform:     cfg.RiotPlatform,
		RequestDelay: cfg.MatchFetchDelay,
		Timeout:      cfg.RequestTimeout,
	}, logger)

	a.Resolver = identity.NewResolver(a.Riot, a.Cache, cfg.IdentityCacheTTL, logger)
	a.Sessions = session.NewManager(a.Store, a.Resolver, cfg.TeamSize, uuid.NewString, logger)
	a.Standings = standings.New(a.Store)
	a.Slot = notify.NewSlot(cfg.NotificationTTL)
	a.Poller = poller.New(a.Riot, a.Sessions, a.Store, a.Slot, poller.Options{
		QueueID:      cfg.QualifyingQueueID,
		RecentCount:  cfg.RecentMatchCount,
		CatchUpCount: cfg.CatchUpMatchCount,
		CatchUpAfter: cfg.CatchUpAfter,
		Interval:     cfg.PollInterval,
		Workers:      cfg.PollWorkers,
	}, logger)

	return a, nil
}

// Close releases the database pool and the Redis client.
func (a *App) Close() {
	if a.redis != nil {
		a.redis.Close() //nolint:errcheck
	}
	a.Pool.Close()
}
