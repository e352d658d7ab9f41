package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/albapepper/rankboard/internal/api/handler"
	"github.com/albapepper/rankboard/internal/cache"
	"github.com/albapepper/rankboard/internal/config"
	"github.com/albapepper/rankboard/internal/notify"
	"github.com/albapepper/rankboard/internal/session"
	"github.com/albapepper/rankboard/internal/standings"
)

type noSessions struct{}

func (noSessions) Active(context.Context) (*session.Session, error) { return nil, nil }
func (noSessions) Get(context.Context, string) (*session.Session, error) {
	return nil, session.ErrNotFound
}
func (noSessions) Roster(context.Context, string) ([]session.RosterEntry, error) {
	return nil, session.ErrNotFound
}

type okPinger struct{}

func (okPinger) HealthCheck(context.Context) error { return nil }

func TestNewRouter_Routes(t *testing.T) {
	cfg := &config.Config{
		CORSAllowOrigins:  []string{"http://localhost:5173"},
		RateLimitEnabled:  true,
		RateLimitRequests: 1000,
		RateLimitWindow:   time.Minute,
		QualifyingQueueID: 420,
	}
	r := NewRouter(handler.Deps{
		Sessions:      noSessions{},
		Boards:        standings.New(nil),
		Notifications: notify.NewSlot(time.Second),
		DB:            okPinger{},
		Cache:         cache.New(),
	}, cfg)

	tests := []struct {
		path string
		want int
	}{
		{"/", http.StatusOK},
		{"/health/", http.StatusOK},
		{"/health/db", http.StatusOK},
		{"/api/v1/scoreboard", http.StatusOK},
		{"/api/v1/notification", http.StatusOK},
		{"/api/v1/sessions/active", http.StatusOK},
		{"/api/v1/sessions/abc/roster", http.StatusNotFound},
		{"/api/v1/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if rec.Code != tt.want {
			t.Errorf("GET %s = %d, want %d", tt.path, rec.Code, tt.want)
		}
		if rec.Header().Get("X-Process-Time") == "" {
			t.Errorf("GET %s missing X-Process-Time", tt.path)
		}
	}
}
