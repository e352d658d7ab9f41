package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"
)

type fakeStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	order    []string
	roster   map[string]map[string]RosterEntry
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions: map[string]*Session{},
		roster:   map[string]map[string]RosterEntry{},
	}
}

func (f *fakeStore) CreateSession(_ context.Context, s *Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.sessions {
		if existing.EndedAt == nil {
			return ErrActiveSessionExists
		}
	}
	cp := *s
	f.sessions[s.ID] = &cp
	f.order = append(f.order, s.ID)
	return nil
}

func (f *fakeStore) ActiveSession(_ context.Context) (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.order) - 1; i >= 0; i-- {
		if s := f.sessions[f.order[i]]; s.EndedAt == nil {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetSession(_ context.Context, id string) (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) MarkStarted(_ context.Context, id string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok || s.StartedAt != nil || s.EndedAt != nil {
		return false, nil
	}
	s.StartedAt = &at
	return true, nil
}

func (f *fakeStore) MarkEnded(_ context.Context, id string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok || s.EndedAt != nil {
		return false, nil
	}
	s.EndedAt = &at
	return true, nil
}

func (f *fakeStore) UpsertRoster(_ context.Context, entries []RosterEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range entries {
		if f.roster[e.SessionID] == nil {
			f.roster[e.SessionID] = map[string]RosterEntry{}
		}
		f.roster[e.SessionID][e.Handle] = e
	}
	return nil
}

func (f *fakeStore) ListRoster(_ context.Context, sessionID string) ([]RosterEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []RosterEntry
	for _, e := range f.roster[sessionID] {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Team != out[j].Team {
			return out[i].Team < out[j].Team
		}
		return out[i].DisplayName < out[j].DisplayName
	})
	return out, nil
}

type mapResolver map[string]string

func (m mapResolver) Resolve(_ context.Context, handle string) (string, error) {
	return m[handle], nil
}

func newTestManager(store Store, resolver HandleResolver) *Manager {
	n := 0
	m := NewManager(store, resolver, 5, func() string {
		n++
		return fmt.Sprintf("s%d", n)
	}, nil)
	m.now = func() time.Time { return time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC) }
	return m
}

func TestCreate_Validates(t *testing.T) {
	m := newTestManager(newFakeStore(), mapResolver{})
	ctx := context.Background()

	tests := []struct {
		name     string
		title    string
		duration int
		a, b     string
	}{
		{"empty title", " ", 60, "Red", "Blue"},
		{"zero duration", "Finals", 0, "Red", "Blue"},
		{"missing team", "Finals", 60, "Red", ""},
		{"same teams", "Finals", 60, "Red", "red"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.Create(ctx, tt.title, tt.duration, tt.a, tt.b); !errors.Is(err, ErrInvalidSession) {
				t.Errorf("Create() error = %v, want ErrInvalidSession", err)
			}
		})
	}
}

func TestLifecycle(t *testing.T) {
	m := newTestManager(newFakeStore(), mapResolver{})
	ctx := context.Background()

	s, err := m.Create(ctx, "Friday 5v5", 90, "Red", "Blue")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if s.Status() != StatusPending {
		t.Errorf("status = %s, want pending", s.Status())
	}

	if _, err := m.Create(ctx, "Second", 30, "X", "Y"); !errors.Is(err, ErrActiveSessionExists) {
		t.Errorf("second Create() error = %v, want ErrActiveSessionExists", err)
	}

	active, err := m.Active(ctx)
	if err != nil || active == nil || active.ID != s.ID {
		t.Fatalf("Active() = %+v, %v; want %s", active, err, s.ID)
	}

	started, err := m.Start(ctx, s.ID)
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if started.Status() != StatusRunning {
		t.Errorf("status = %s, want running", started.Status())
	}
	want := time.Date(2026, 3, 1, 21, 30, 0, 0, time.UTC)
	if !started.Deadline().Equal(want) {
		t.Errorf("Deadline() = %s, want %s", started.Deadline(), want)
	}

	if _, err := m.Start(ctx, s.ID); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start() error = %v, want ErrAlreadyStarted", err)
	}

	ended, err := m.End(ctx, s.ID)
	if err != nil {
		t.Fatalf("End() error: %v", err)
	}
	if ended.Status() != StatusEnded {
		t.Errorf("status = %s, want ended", ended.Status())
	}
	if ended.EndedAt.Before(*ended.StartedAt) {
		t.Error("ended_at precedes started_at")
	}

	if _, err := m.End(ctx, s.ID); !errors.Is(err, ErrSessionEnded) {
		t.Errorf("second End() error = %v, want ErrSessionEnded", err)
	}
	if _, err := m.Start(ctx, s.ID); !errors.Is(err, ErrSessionEnded) {
		t.Errorf("Start() after end error = %v, want ErrSessionEnded", err)
	}

	if active, _ := m.Active(ctx); active != nil {
		t.Errorf("Active() after end = %+v, want nil", active)
	}
	if _, err := m.Create(ctx, "Next", 30, "X", "Y"); err != nil {
		t.Errorf("Create() after end error: %v", err)
	}
}

func TestEndPendingCancels(t *testing.T) {
	m := newTestManager(newFakeStore(), mapResolver{})
	ctx := context.Background()

	s, _ := m.Create(ctx, "Cancelled", 30, "Red", "Blue")
	ended, err := m.End(ctx, s.ID)
	if err != nil {
		t.Fatalf("End() error: %v", err)
	}
	if ended.StartedAt != nil || ended.Status() != StatusEnded {
		t.Errorf("ended = %+v, want ended without start", ended)
	}
}

func TestStartUnknown(t *testing.T) {
	m := newTestManager(newFakeStore(), mapResolver{})
	if _, err := m.Start(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Start() error = %v, want ErrNotFound", err)
	}
}

// racingStore loses every conditional update, as if another process won.
type racingStore struct {
	*fakeStore
}

func (r racingStore) MarkStarted(ctx context.Context, id string, at time.Time) (bool, error) {
	r.fakeStore.MarkStarted(ctx, id, at) //nolint:errcheck
	return false, nil
}

func TestStart_LostRaceReportsState(t *testing.T) {
	store := racingStore{newFakeStore()}
	m := newTestManager(store, mapResolver{})
	ctx := context.Background()

	s, _ := m.Create(ctx, "Race", 30, "Red", "Blue")
	if _, err := m.Start(ctx, s.ID); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("Start() error = %v, want ErrAlreadyStarted", err)
	}
}

func TestSaveRoster(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store, mapResolver{
		"Faker#KR1": "p-faker",
		"Chovy#KR1": "p-chovy",
	})
	ctx := context.Background()
	s, _ := m.Create(ctx, "Roster", 60, "Red", "Blue")

	res, err := m.SaveRoster(ctx, s.ID, []RosterInput{
		{DisplayName: "Faker", Handle: "Faker#KR1", Team: "a"},
		{DisplayName: "Chovy", Handle: "Chovy#KR1", Team: "B"},
		{DisplayName: "Typo", Handle: "Fakr#KR1", Team: "A"},
	})
	if err != nil {
		t.Fatalf("SaveRoster() error: %v", err)
	}
	if len(res.Saved) != 2 {
		t.Errorf("saved = %d, want 2", len(res.Saved))
	}
	if len(res.Unresolved) != 1 || res.Unresolved[0] != "Fakr#KR1" {
		t.Errorf("unresolved = %v, want [Fakr#KR1]", res.Unresolved)
	}

	// Re-saving a handle moves it instead of duplicating it.
	if _, err := m.SaveRoster(ctx, s.ID, []RosterInput{
		{DisplayName: "Faker (mid)", Handle: "Faker#KR1", Team: "B"},
	}); err != nil {
		t.Fatalf("re-save error: %v", err)
	}
	entries, err := m.Roster(ctx, s.ID)
	if err != nil {
		t.Fatalf("Roster() error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("roster = %d entries, want 2", len(entries))
	}
	for _, e := range entries {
		if e.Handle == "Faker#KR1" && (e.Team != TeamB || e.DisplayName != "Faker (mid)") {
			t.Errorf("Faker entry = %+v, want team B renamed", e)
		}
	}
}

func TestSaveRoster_RejectsSixthPlayer(t *testing.T) {
	resolver := mapResolver{}
	var inputs []RosterInput
	for i := 0; i < 6; i++ {
		h := fmt.Sprintf("P%d#KR1", i)
		resolver[h] = "id-" + h
		inputs = append(inputs, RosterInput{Handle: h, Team: "A"})
	}
	m := newTestManager(newFakeStore(), resolver)
	ctx := context.Background()
	s, _ := m.Create(ctx, "Full", 60, "Red", "Blue")

	if _, err := m.SaveRoster(ctx, s.ID, inputs[:5]); err != nil {
		t.Fatalf("SaveRoster(5) error: %v", err)
	}
	if _, err := m.SaveRoster(ctx, s.ID, inputs[5:]); !errors.Is(err, ErrTeamFull) {
		t.Errorf("SaveRoster(6th) error = %v, want ErrTeamFull", err)
	}
}

func TestSaveRoster_Rejections(t *testing.T) {
	m := newTestManager(newFakeStore(), mapResolver{"X#KR1": "x"})
	ctx := context.Background()
	s, _ := m.Create(ctx, "Bad", 60, "Red", "Blue")

	if _, err := m.SaveRoster(ctx, s.ID, []RosterInput{{Handle: "X#KR1", Team: "C"}}); !errors.Is(err, ErrInvalidTeam) {
		t.Errorf("team C error = %v, want ErrInvalidTeam", err)
	}

	m.End(ctx, s.ID) //nolint:errcheck
	if _, err := m.SaveRoster(ctx, s.ID, []RosterInput{{Handle: "X#KR1", Team: "A"}}); !errors.Is(err, ErrSessionEnded) {
		t.Errorf("ended session error = %v, want ErrSessionEnded", err)
	}
}

func TestCanPoll(t *testing.T) {
	start := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	tests := []struct {
		name string
		s    Session
		want error
	}{
		{"pending", Session{}, ErrNotStarted},
		{"running", Session{StartedAt: &start}, nil},
		{"ended", Session{StartedAt: &start, EndedAt: &end}, ErrSessionEnded},
		{"cancelled", Session{EndedAt: &end}, ErrSessionEnded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.s.CanPoll(); !errors.Is(err, tt.want) {
				t.Errorf("CanPoll() = %v, want %v", err, tt.want)
			}
		})
	}
}
