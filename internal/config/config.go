// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/rankboard.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Queue registry: Riot queue ids the poller can be pointed at
// --------------------------------------------------------------------------

type QueueConfig struct {
	ID   int
	Name string
}

var QueueRegistry = map[int]QueueConfig{
	420:  {ID: 420, Name: "Ranked Solo/Duo"},
	440:  {ID: 440, Name: "Ranked Flex"},
	400:  {ID: 400, Name: "Normal Draft"},
	430:  {ID: 430, Name: "Normal Blind"},
	450:  {ID: 450, Name: "ARAM"},
	1700: {ID: 1700, Name: "Arena"},
}

// QueueName returns a human-readable name for a queue id.
func QueueName(id int) string {
	if q, ok := QueueRegistry[id]; ok {
		return q.Name
	}
	return fmt.Sprintf("Queue %d", id)
}

// Riot caps match id listing at 100 per request.
const MaxMatchCount = 100

// --------------------------------------------------------------------------
// Config struct, populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	LogLevel    string

	// CORS
	CORSAllowOrigins []string

	// Rate limiting (inbound API)
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Riot API
	RiotAPIKey   string
	RiotRegion   string // regional routing: asia, americas, europe, sea
	RiotPlatform string // platform routing: kr, na1, euw1, ...

	// Polling
	QualifyingQueueID int
	// RecentMatchCount bounds how many recent match ids are listed per player
	// per cycle. Matches older than this window, relative to the last
	// successful poll, are missed unless the catch-up path kicks in.
	RecentMatchCount  int
	CatchUpMatchCount int
	CatchUpAfter      time.Duration
	PollInterval      time.Duration
	TickInterval      time.Duration
	MatchFetchDelay   time.Duration
	RequestTimeout    time.Duration
	PollWorkers       int

	// Sessions
	TeamSize        int
	NotificationTTL time.Duration

	// Identity cache
	RedisAddr        string
	IdentityCacheTTL time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	dbURL := envOr("DATABASE_URL", "")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL must be set")
	}

	cfg := &Config{
		DatabaseURL:    dbURL,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 1),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 5),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		LogLevel:    envOr("LOG_LEVEL", "info"),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 120),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		RiotAPIKey:   envOr("RIOT_API_KEY", ""),
		RiotRegion:   envOr("RIOT_REGION", "asia"),
		RiotPlatform: envOr("RIOT_PLATFORM", "kr"),

		QualifyingQueueID: envInt("QUALIFYING_QUEUE_ID", 420),
		RecentMatchCount:  envInt("RECENT_MATCH_COUNT", 20),
		CatchUpMatchCount: envInt("CATCHUP_MATCH_COUNT", MaxMatchCount),
		CatchUpAfter:      envDuration("CATCHUP_AFTER", 30*time.Minute),
		PollInterval:      envDuration("POLL_INTERVAL", 30*time.Second),
		TickInterval:      envDuration("TICK_INTERVAL", 5*time.Second),
		MatchFetchDelay:   envDuration("MATCH_FETCH_DELAY", 1200*time.Millisecond),
		RequestTimeout:    envDuration("REQUEST_TIMEOUT", 10*time.Second),
		PollWorkers:       envInt("POLL_WORKERS", 1),

		TeamSize:        envInt("TEAM_SIZE", 5),
		NotificationTTL: envDuration("NOTIFICATION_TTL", 15*time.Second),

		RedisAddr:        envOr("REDIS_ADDR", ""),
		IdentityCacheTTL: envDuration("IDENTITY_CACHE_TTL", 24*time.Hour),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.RecentMatchCount < 1 || c.RecentMatchCount > MaxMatchCount {
		return fmt.Errorf("RECENT_MATCH_COUNT must be between 1 and %d", MaxMatchCount)
	}
	if c.CatchUpMatchCount < c.RecentMatchCount || c.CatchUpMatchCount > MaxMatchCount {
		return fmt.Errorf("CATCHUP_MATCH_COUNT must be between RECENT_MATCH_COUNT and %d", MaxMatchCount)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive")
	}
	if c.TeamSize < 1 {
		return fmt.Errorf("TEAM_SIZE must be at least 1")
	}
	return nil
}

// RequireRiot returns an error when no Riot API key is configured.
func (c *Config) RequireRiot() error {
	if c.RiotAPIKey == "" {
		return fmt.Errorf("RIOT_API_KEY is required")
	}
	return nil
}

// SlogLevel maps LogLevel onto a slog.Level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

// envDuration accepts Go duration strings ("30s", "2m") or bare seconds.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
