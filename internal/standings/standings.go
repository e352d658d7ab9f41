// Package standings folds recorded match results into per-player and
// per-team win/loss counts. Every read is recomputed from the store.
package standings

import (
	"context"
	"fmt"
	"time"

	"github.com/albapepper/rankboard/internal/session"
)

// Store is the read side of the result store.
type Store interface {
	// ListResults returns results for a session; a non-empty handle filters
	// to that player.
	ListResults(ctx context.Context, sessionID, handle string) ([]session.MatchResult, error)
	ListRoster(ctx context.Context, sessionID string) ([]session.RosterEntry, error)
}

// Status is the board's display state.
type Status string

const (
	StatusWaiting Status = "waiting"
	StatusLive    Status = "live"
	StatusFinal   Status = "final"
)

// Record is a win/loss tally.
type Record struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
}

func (r Record) Games() int { return r.Wins + r.Losses }

func (r *Record) add(win bool) {
	if win {
		r.Wins++
	} else {
		r.Losses++
	}
}

type PlayerLine struct {
	DisplayName string       `json:"display_name"`
	Handle      string       `json:"handle"`
	Team        session.Team `json:"team"`
	Record
}

type TeamLine struct {
	Team    session.Team `json:"team"`
	Name    string       `json:"name"`
	Players []PlayerLine `json:"players"`
	Record
}

// Board is the full scoreboard for one session.
type Board struct {
	Status    Status           `json:"status"`
	Session   *session.Session `json:"session,omitempty"`
	Teams     []TeamLine       `json:"teams"`
	Deadline  *time.Time       `json:"deadline,omitempty"`
	Remaining time.Duration    `json:"-"`
	BuiltAt   time.Time        `json:"built_at"`

	RemainingSeconds int64 `json:"remaining_seconds"`
}

// Leader returns the leading team's name, or "" on a tie or empty board.
func (b *Board) Leader() string {
	if len(b.Teams) != 2 {
		return ""
	}
	a, z := b.Teams[0], b.Teams[1]
	switch {
	case a.Wins > z.Wins:
		return a.Name
	case z.Wins > a.Wins:
		return z.Name
	}
	return ""
}

// Aggregator reads the result store.
type Aggregator struct {
	store Store
	now   func() time.Time
}

func New(store Store) *Aggregator {
	return &Aggregator{store: store, now: time.Now}
}

// WinLoss counts a player's recorded results within a session.
func (a *Aggregator) WinLoss(ctx context.Context, sessionID, handle string) (Record, error) {
	results, err := a.store.ListResults(ctx, sessionID, handle)
	if err != nil {
		return Record{}, fmt.Errorf("win/loss for %s: %w", handle, err)
	}
	var r Record
	for _, res := range results {
		r.add(res.Win)
	}
	return r, nil
}

// TeamWins sums wins across handles. Ties are left to the caller.
func (a *Aggregator) TeamWins(ctx context.Context, sessionID string, handles []string) (int, error) {
	total := 0
	for _, h := range handles {
		r, err := a.WinLoss(ctx, sessionID, h)
		if err != nil {
			return 0, err
		}
		total += r.Wins
	}
	return total, nil
}

// Build assembles the board for s. A nil or pending session yields a
// waiting board without counts.
func (a *Aggregator) Build(ctx context.Context, s *session.Session) (*Board, error) {
	now := a.now().UTC()
	board := &Board{Status: StatusWaiting, Session: s, Teams: []TeamLine{}, BuiltAt: now}
	if s == nil {
		return board, nil
	}

	roster, err := a.store.ListRoster(ctx, s.ID)
	if err != nil {
		return nil, fmt.Errorf("build board: %w", err)
	}
	teams := map[session.Team]*TeamLine{
		session.TeamA: {Team: session.TeamA, Name: s.TeamAName, Players: []PlayerLine{}},
		session.TeamB: {Team: session.TeamB, Name: s.TeamBName, Players: []PlayerLine{}},
	}

	records := map[string]Record{}
	switch s.Status() {
	case session.StatusPending:
		board.Status = StatusWaiting
	case session.StatusRunning:
		board.Status = StatusLive
	case session.StatusEnded:
		board.Status = StatusFinal
	}
	if s.StartedAt != nil {
		results, err := a.store.ListResults(ctx, s.ID, "")
		if err != nil {
			return nil, fmt.Errorf("build board: %w", err)
		}
		for _, res := range results {
			r := records[res.Handle]
			r.add(res.Win)
			records[res.Handle] = r
		}

		deadline := s.Deadline()
		board.Deadline = &deadline
		if board.Status == StatusLive && now.Before(deadline) {
			board.Remaining = deadline.Sub(now)
			board.RemainingSeconds = int64(board.Remaining / time.Second)
		}
	}

	for _, e := range roster {
		t, ok := teams[e.Team]
		if !ok {
			continue
		}
		line := PlayerLine{DisplayName: e.DisplayName, Handle: e.Handle, Team: e.Team, Record: records[e.Handle]}
		t.Players = append(t.Players, line)
		t.Wins += line.Wins
		t.Losses += line.Losses
	}
	board.Teams = []TeamLine{*teams[session.TeamA], *teams[session.TeamB]}
	return board, nil
}
