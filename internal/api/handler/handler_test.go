package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/albapepper/rankboard/internal/cache"
	"github.com/albapepper/rankboard/internal/config"
	"github.com/albapepper/rankboard/internal/notify"
	"github.com/albapepper/rankboard/internal/session"
	"github.com/albapepper/rankboard/internal/standings"
)

type fakeSessions struct {
	active *session.Session
	roster map[string][]session.RosterEntry
	err    error
}

func (f *fakeSessions) Active(context.Context) (*session.Session, error) { return f.active, f.err }

func (f *fakeSessions) Get(_ context.Context, id string) (*session.Session, error) {
	if f.active != nil && f.active.ID == id {
		return f.active, nil
	}
	return nil, session.ErrNotFound
}

func (f *fakeSessions) Roster(_ context.Context, id string) ([]session.RosterEntry, error) {
	entries, ok := f.roster[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	return entries, nil
}

type fakeBoards struct{}

func (fakeBoards) Build(_ context.Context, s *session.Session) (*standings.Board, error) {
	if s == nil {
		return &standings.Board{Status: standings.StatusWaiting, Teams: []standings.TeamLine{}}, nil
	}
	now := time.Now()
	deadline := s.Deadline()
	return &standings.Board{
		Status:           standings.StatusLive,
		Session:          s,
		Deadline:         &deadline,
		BuiltAt:          now,
		RemainingSeconds: now.UnixNano(),
		Teams: []standings.TeamLine{
			{Team: session.TeamA, Name: s.TeamAName, Record: standings.Record{Wins: 3, Losses: 1}},
			{Team: session.TeamB, Name: s.TeamBName, Record: standings.Record{Wins: 1, Losses: 3}},
		},
	}, nil
}

type fakePinger struct{ err error }

func (f fakePinger) HealthCheck(context.Context) error { return f.err }

func newTestRouter(sessions *fakeSessions, slot *notify.Slot, db Pinger) http.Handler {
	h := New(Deps{
		Sessions:      sessions,
		Boards:        fakeBoards{},
		Notifications: slot,
		DB:            db,
		Cache:         cache.New(),
	}, &config.Config{QualifyingQueueID: 420})

	r := chi.NewRouter()
	r.Get("/", h.Root)
	r.Get("/health/db", h.HealthCheckDB)
	r.Get("/health/cache", h.HealthCheckCache)
	r.Get("/scoreboard", h.GetScoreboard)
	r.Get("/sessions/active", h.GetActiveSession)
	r.Get("/sessions/{id}", h.GetSession)
	r.Get("/sessions/{id}/roster", h.GetRoster)
	r.Get("/notification", h.GetNotification)
	return r
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func running() *session.Session {
	start := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	return &session.Session{ID: "s1", Title: "Finals", DurationMinutes: 60, TeamAName: "Red", TeamBName: "Blue", StartedAt: &start}
}

func TestGetScoreboard_Live(t *testing.T) {
	slot := notify.NewSlot(time.Minute)
	slot.Record(notify.Event{DisplayName: "X", Team: "Red", MatchID: "KR_1", Win: true})
	h := newTestRouter(&fakeSessions{active: running()}, slot, fakePinger{})

	rec := get(t, h, "/scoreboard")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	type team struct {
		Name string `json:"name"`
		Wins int    `json:"wins"`
	}
	var body struct {
		Status       string           `json:"status"`
		Leader       string           `json:"leader"`
		Teams        []team           `json:"teams"`
		Notification NotificationView `json:"notification"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "live" || body.Leader != "Red" {
		t.Errorf("status=%q leader=%q, want live Red", body.Status, body.Leader)
	}
	if len(body.Teams) != 2 || body.Teams[0].Wins != 3 {
		t.Errorf("teams = %+v", body.Teams)
	}
	if !body.Notification.Active || body.Notification.Description != "X (Red) won KR_1" {
		t.Errorf("notification = %+v", body.Notification)
	}
}

func TestGetScoreboard_NotModifiedAcrossBuilds(t *testing.T) {
	h := newTestRouter(&fakeSessions{active: running()}, notify.NewSlot(time.Minute), fakePinger{})

	rec := get(t, h, "/scoreboard")
	etag := rec.Header().Get("ETag")
	if rec.Code != http.StatusOK || etag == "" {
		t.Fatalf("status = %d etag = %q", rec.Code, etag)
	}

	req := httptest.NewRequest(http.MethodGet, "/scoreboard", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotModified {
		t.Errorf("conditional status = %d, want 304", rec.Code)
	}
}

func TestGetScoreboard_NoSessionIsWaiting(t *testing.T) {
	h := newTestRouter(&fakeSessions{}, notify.NewSlot(time.Minute), fakePinger{})

	rec := get(t, h, "/scoreboard")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]any
	json.NewDecoder(rec.Body).Decode(&body) //nolint:errcheck
	if body["status"] != "waiting" {
		t.Errorf("status = %v, want waiting", body["status"])
	}
}

func TestGetScoreboard_StoreError(t *testing.T) {
	h := newTestRouter(&fakeSessions{err: errors.New("db down")}, notify.NewSlot(time.Minute), fakePinger{})
	if rec := get(t, h, "/scoreboard"); rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestGetActiveSession(t *testing.T) {
	h := newTestRouter(&fakeSessions{active: running()}, notify.NewSlot(time.Minute), fakePinger{})

	rec := get(t, h, "/sessions/active")
	var view ActiveSessionView
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Status != session.StatusRunning || view.Session == nil || view.Session.ID != "s1" {
		t.Errorf("view = %+v", view)
	}

	etag := rec.Header().Get("ETag")
	req := httptest.NewRequest(http.MethodGet, "/sessions/active", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotModified {
		t.Errorf("conditional status = %d, want 304", rec.Code)
	}
}

func TestGetRoster(t *testing.T) {
	sessions := &fakeSessions{
		active: running(),
		roster: map[string][]session.RosterEntry{"s1": {{Handle: "X#KR1", Team: session.TeamA}}},
	}
	h := newTestRouter(sessions, notify.NewSlot(time.Minute), fakePinger{})

	rec := get(t, h, "/sessions/s1/roster")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var entries []session.RosterEntry
	json.NewDecoder(rec.Body).Decode(&entries) //nolint:errcheck
	if len(entries) != 1 || entries[0].Handle != "X#KR1" {
		t.Errorf("entries = %+v", entries)
	}

	if rec := get(t, h, "/sessions/nope/roster"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown session status = %d, want 404", rec.Code)
	}
	if rec := get(t, h, "/sessions/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown session detail status = %d, want 404", rec.Code)
	}
}

func TestGetNotification_Inactive(t *testing.T) {
	h := newTestRouter(&fakeSessions{}, notify.NewSlot(time.Minute), fakePinger{})

	var view NotificationView
	json.NewDecoder(get(t, h, "/notification").Body).Decode(&view) //nolint:errcheck
	if view.Active || view.Event != nil {
		t.Errorf("view = %+v, want inactive", view)
	}
}

func TestHealthChecks(t *testing.T) {
	h := newTestRouter(&fakeSessions{}, notify.NewSlot(time.Minute), fakePinger{err: errors.New("refused")})
	if rec := get(t, h, "/health/db"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("db health status = %d, want 503", rec.Code)
	}

	var body map[string]any
	json.NewDecoder(get(t, h, "/health/cache").Body).Decode(&body) //nolint:errcheck
	if body["backend"] != "memory" {
		t.Errorf("cache backend = %v, want memory", body["backend"])
	}

	json.NewDecoder(get(t, h, "/").Body).Decode(&body) //nolint:errcheck
	if body["queue"] != "Ranked Solo/Duo" {
		t.Errorf("queue = %v", body["queue"])
	}
}
