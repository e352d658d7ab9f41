// Package session owns the session state machine and roster rules.
//
// A session moves pending → running → ended. Status is derived from the two
// lifecycle timestamps; the store applies transitions with conditional
// updates so a lost race reports the same error as a stale read.
package session

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound            = errors.New("session not found")
	ErrActiveSessionExists = errors.New("another session is still active")
	ErrAlreadyStarted      = errors.New("session already started")
	ErrNotStarted          = errors.New("session not started")
	ErrSessionEnded        = errors.New("session already ended")
	ErrTeamFull            = errors.New("team is full")
	ErrInvalidTeam         = errors.New("invalid team")
	ErrInvalidSession      = errors.New("invalid session")
)

// Status is derived from StartedAt/EndedAt, never stored.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusEnded   Status = "ended"
)

// Session is one timed competition between two teams.
type Session struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	DurationMinutes int        `json:"duration_minutes"`
	TeamAName       string     `json:"team_a_name"`
	TeamBName       string     `json:"team_b_name"`
	CreatedAt       time.Time  `json:"created_at"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	LastPolledAt    *time.Time `json:"last_polled_at,omitempty"`
}

func (s *Session) Status() Status {
	switch {
	case s.EndedAt != nil:
		return StatusEnded
	case s.StartedAt != nil:
		return StatusRunning
	default:
		return StatusPending
	}
}

func (s *Session) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}

// Deadline is StartedAt + duration, or the zero time for a pending session.
func (s *Session) Deadline() time.Time {
	if s.StartedAt == nil {
		return time.Time{}
	}
	return s.StartedAt.Add(s.Duration())
}

// Expired reports whether a running session has reached its deadline.
func (s *Session) Expired(now time.Time) bool {
	return s.Status() == StatusRunning && !now.Before(s.Deadline())
}

// CanStart returns nil when the session may move to running.
func (s *Session) CanStart() error {
	switch s.Status() {
	case StatusEnded:
		return ErrSessionEnded
	case StatusRunning:
		return ErrAlreadyStarted
	}
	return nil
}

// CanEnd returns nil when the session may move to ended. Ending a pending
// session cancels it.
func (s *Session) CanEnd() error {
	if s.Status() == StatusEnded {
		return ErrSessionEnded
	}
	return nil
}

// CanPoll returns nil when results may be recorded for the session.
func (s *Session) CanPoll() error {
	switch s.Status() {
	case StatusPending:
		return ErrNotStarted
	case StatusEnded:
		return ErrSessionEnded
	}
	return nil
}

// TeamName returns the display name for a team label.
func (s *Session) TeamName(t Team) string {
	if t == TeamB {
		return s.TeamBName
	}
	return s.TeamAName
}

// Team is the roster side label.
type Team string

const (
	TeamA Team = "A"
	TeamB Team = "B"
)

// ParseTeam accepts "A"/"B" in any case.
func ParseTeam(s string) (Team, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A":
		return TeamA, nil
	case "B":
		return TeamB, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTeam, s)
}

// RosterEntry assigns one player to a team within a session.
type RosterEntry struct {
	SessionID   string    `json:"session_id"`
	DisplayName string    `json:"display_name"`
	Handle      string    `json:"handle"`
	PlayerID    string    `json:"player_id"`
	Team        Team      `json:"team"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MatchResult is one player's outcome in one qualifying match. The
// (SessionID, Handle, MatchID) triple is the dedup key.
type MatchResult struct {
	SessionID  string    `json:"session_id"`
	Handle     string    `json:"handle"`
	PlayerID   string    `json:"player_id"`
	MatchID    string    `json:"match_id"`
	Win        bool      `json:"win"`
	QueueID    int       `json:"queue_id"`
	PlayedAt   time.Time `json:"played_at"`
	RecordedAt time.Time `json:"recorded_at"`
}

// SkipReason marks why a match will never qualify for a session.
type SkipReason string

const (
	SkipWrongQueue  SkipReason = "wrong_queue"
	SkipBeforeStart SkipReason = "before_start"
)

// SkippedMatch is a tombstone that keeps a permanently non-qualifying match
// from being fetched again.
type SkippedMatch struct {
	SessionID string
	Handle    string
	MatchID   string
	Reason    SkipReason
}
