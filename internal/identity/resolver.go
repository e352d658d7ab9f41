// Package identity turns human-entered player handles into stable player ids.
// Handles rarely change owners, so lookups are cached; misses are never
// cached so a typo fixed upstream resolves on the next attempt.
package identity

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/albapepper/rankboard/internal/cache"
	"github.com/albapepper/rankboard/internal/provider"
)

const defaultTTL = 24 * time.Hour

// Lookup is the external identity source (the Riot account APIs).
type Lookup interface {
	ResolveHandle(ctx context.Context, handle string) (*provider.Account, error)
}

// Resolver is a cached handle → player id resolver.
type Resolver struct {
	lookup Lookup
	cache  cache.Store
	ttl    time.Duration
	logger *slog.Logger
}

// NewResolver wraps lookup with store. A nil store gets a fresh in-memory cache.
func NewResolver(lookup Lookup, store cache.Store, ttl time.Duration, logger *slog.Logger) *Resolver {
	if store == nil {
		store = cache.New()
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{lookup: lookup, cache: store, ttl: ttl, logger: logger}
}

// Resolve returns the stable player id for handle, or "" when the handle is
// malformed or unknown. Errors are reserved for transport failures.
func (r *Resolver) Resolve(ctx context.Context, handle string) (string, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return "", nil
	}
	key := cacheKey(handle)

	if id, ok, err := r.cache.Get(ctx, key); err != nil {
		r.logger.Warn("identity cache read failed", "handle", handle, "error", err)
	} else if ok {
		return id, nil
	}

	acct, err := r.lookup.ResolveHandle(ctx, handle)
	if err != nil {
		return "", err
	}
	if acct == nil || acct.PlayerID == "" {
		r.logger.Info("handle did not resolve", "handle", handle)
		return "", nil
	}

	if err := r.cache.Set(ctx, key, acct.PlayerID, r.ttl); err != nil {
		r.logger.Warn("identity cache write failed", "handle", handle, "error", err)
	}
	return acct.PlayerID, nil
}

// Riot IDs are case-insensitive.
func cacheKey(handle string) string {
	return "identity:" + strings.ToLower(handle)
}
