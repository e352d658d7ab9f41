// Package handler provides HTTP handlers for the read-only scoreboard API.
// Every response is rebuilt from the store on request; the only process
// state read here is the notification slot.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/albapepper/rankboard/internal/api/respond"
	"github.com/albapepper/rankboard/internal/cache"
	"github.com/albapepper/rankboard/internal/config"
	"github.com/albapepper/rankboard/internal/notify"
	"github.com/albapepper/rankboard/internal/session"
	"github.com/albapepper/rankboard/internal/standings"
)

// Sessions is the read side of the session manager.
type Sessions interface {
	Active(ctx context.Context) (*session.Session, error)
	Get(ctx context.Context, id string) (*session.Session, error)
	Roster(ctx context.Context, sessionID string) ([]session.RosterEntry, error)
}

// Boards builds scoreboards.
type Boards interface {
	Build(ctx context.Context, s *session.Session) (*standings.Board, error)
}

// Notifications exposes the transient result slot.
type Notifications interface {
	Current() (notify.Event, bool)
	ExpiresAt() time.Time
}

// Pinger checks a backing service.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// Deps are the collaborators a Handler reads from.
type Deps struct {
	Sessions      Sessions
	Boards        Boards
	Notifications Notifications
	DB            Pinger
	Cache         cache.Store
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	Deps
	cfg *config.Config
}

// New creates a Handler with shared dependencies.
func New(deps Deps, cfg *config.Config) *Handler {
	return &Handler{Deps: deps, cfg: cfg}
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version, status and the configured queue.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{
		"name":    "Rankboard API",
		"version": "1.0.0",
		"status":  "running",
		"docs":    "/docs",
		"queue":   config.QueueName(h.cfg.QualifyingQueueID),
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Description Returns basic health status and timestamp.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
// @Summary Database health check
// @Description Verifies Postgres connectivity.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if err := h.DB.HealthCheck(r.Context()); err != nil {
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]any{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     "Database connection check failed",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache reports the identity cache backend.
// @Summary Cache health check
// @Description Returns identity cache statistics for the in-memory backend, or the backend name for Redis.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/cache [get]
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	switch c := h.Cache.(type) {
	case *cache.Cache:
		body["backend"] = "memory"
		body["cache"] = c.Stats()
	case *cache.Redis:
		body["backend"] = "redis"
		if err := c.Ping(r.Context()); err != nil {
			body["status"] = "degraded"
			body["error"] = err.Error()
		}
	default:
		body["backend"] = "none"
	}
	respond.WriteJSONObject(w, http.StatusOK, body)
}
