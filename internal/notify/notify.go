// Package notify holds the transient "new result" slot shown by the
// scoreboard. It is process-local and lost on restart.
package notify

import (
	"fmt"
	"sync"
	"time"

	"github.com/albapepper/rankboard/internal/session"
)

const DefaultTTL = 15 * time.Second

// Event describes one newly recorded match result.
type Event struct {
	SessionID   string    `json:"session_id"`
	Handle      string    `json:"handle"`
	DisplayName string    `json:"display_name"`
	Team        string    `json:"team"`
	MatchID     string    `json:"match_id"`
	Win         bool      `json:"win"`
	PlayedAt    time.Time `json:"played_at"`
}

// Description renders the event for display, e.g. "Faker (Red) won KR_123".
func (e Event) Description() string {
	name := e.DisplayName
	if name == "" {
		name = e.Handle
	}
	outcome := "lost"
	if e.Win {
		outcome = "won"
	}
	if e.Team != "" {
		return fmt.Sprintf("%s (%s) %s %s", name, e.Team, outcome, e.MatchID)
	}
	return fmt.Sprintf("%s %s %s", name, outcome, e.MatchID)
}

func (e Event) sameResult(o Event) bool {
	return e.SessionID == o.SessionID && e.Handle == o.Handle && e.MatchID == o.MatchID
}

// FromResult builds the event for r, naming the player and team from roster.
func FromResult(s *session.Session, roster []session.RosterEntry, r session.MatchResult) Event {
	e := Event{
		SessionID: r.SessionID,
		Handle:    r.Handle,
		MatchID:   r.MatchID,
		Win:       r.Win,
		PlayedAt:  r.PlayedAt,
	}
	for _, entry := range roster {
		if entry.Handle == r.Handle {
			e.DisplayName = entry.DisplayName
			if s != nil {
				e.Team = s.TeamName(entry.Team)
			}
			break
		}
	}
	return e
}

// Slot keeps the latest event until its expiry.
type Slot struct {
	mu        sync.Mutex
	event     Event
	expiresAt time.Time
	ttl       time.Duration
	now       func() time.Time
}

// NewSlot creates an empty slot. ttl <= 0 uses DefaultTTL.
func NewSlot(ttl time.Duration) *Slot {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Slot{ttl: ttl, now: time.Now}
}

// Record overwrites the slot; the event stays active for one TTL. Recording
// the active event again is a no-op, so a result announced both locally and
// through the database keeps its first expiry.
func (s *Slot) Record(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeLocked() && s.event.sameResult(e) {
		return
	}
	s.event = e
	s.expiresAt = s.now().Add(s.ttl)
}

// Active reports whether the current time is strictly before the expiry.
func (s *Slot) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeLocked()
}

// Current returns the event while it is active.
func (s *Slot) Current() (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.activeLocked() {
		return Event{}, false
	}
	return s.event, true
}

// ExpiresAt returns the expiry of the last recorded event.
func (s *Slot) ExpiresAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiresAt
}

func (s *Slot) activeLocked() bool {
	return !s.expiresAt.IsZero() && s.now().Before(s.expiresAt)
}
