package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Store is the durable session and roster persistence the manager needs.
type Store interface {
	// CreateSession inserts s. Returns ErrActiveSessionExists when another
	// session has not ended.
	CreateSession(ctx context.Context, s *Session) error
	// ActiveSession returns the newest session with no end time, or nil.
	ActiveSession(ctx context.Context) (*Session, error)
	// GetSession returns ErrNotFound for an unknown id.
	GetSession(ctx context.Context, id string) (*Session, error)
	// MarkStarted sets started_at only if the session is pending.
	MarkStarted(ctx context.Context, id string, at time.Time) (bool, error)
	// MarkEnded sets ended_at only if the session has not ended.
	MarkEnded(ctx context.Context, id string, at time.Time) (bool, error)
	UpsertRoster(ctx context.Context, entries []RosterEntry) error
	ListRoster(ctx context.Context, sessionID string) ([]RosterEntry, error)
}

// HandleResolver maps a player handle to a stable player id; "" means the
// handle is unknown.
type HandleResolver interface {
	Resolve(ctx context.Context, handle string) (string, error)
}

// IDFunc generates session ids.
type IDFunc func() string

// Manager applies lifecycle transitions and roster saves.
type Manager struct {
	store    Store
	resolver HandleResolver
	teamSize int
	newID    IDFunc
	now      func() time.Time
	logger   *slog.Logger
}

// NewManager creates a Manager. teamSize caps roster entries per team.
func NewManager(store Store, resolver HandleResolver, teamSize int, newID IDFunc, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if teamSize < 1 {
		teamSize = 5
	}
	return &Manager{
		store:    store,
		resolver: resolver,
		teamSize: teamSize,
		newID:    newID,
		now:      time.Now,
		logger:   logger,
	}
}

// Create inserts a pending session.
func (m *Manager) Create(ctx context.Context, title string, durationMinutes int, teamA, teamB string) (*Session, error) {
	title = strings.TrimSpace(title)
	teamA = strings.TrimSpace(teamA)
	teamB = strings.TrimSpace(teamB)

	switch {
	case title == "":
		return nil, fmt.Errorf("%w: title is required", ErrInvalidSession)
	case durationMinutes <= 0:
		return nil, fmt.Errorf("%w: duration must be positive", ErrInvalidSession)
	case teamA == "" || teamB == "":
		return nil, fmt.Errorf("%w: both team names are required", ErrInvalidSession)
	case strings.EqualFold(teamA, teamB):
		return nil, fmt.Errorf("%w: team names must differ", ErrInvalidSession)
	}

	s := &Session{
		ID:              m.newID(),
		Title:           title,
		DurationMinutes: durationMinutes,
		TeamAName:       teamA,
		TeamBName:       teamB,
		CreatedAt:       m.now().UTC(),
	}
	if err := m.store.CreateSession(ctx, s); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	m.logger.Info("Session created", "session_id", s.ID, "title", s.Title, "duration_minutes", durationMinutes)
	return s, nil
}

// Active returns the live session or nil. Always read from the store.
func (m *Manager) Active(ctx context.Context) (*Session, error) {
	s, err := m.store.ActiveSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("active session: %w", err)
	}
	return s, nil
}

// Get returns a session by id.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	return m.store.GetSession(ctx, id)
}

// Start moves a pending session to running.
func (m *Manager) Start(ctx context.Context, id string) (*Session, error) {
	return m.transition(ctx, id, "start", (*Session).CanStart, m.store.MarkStarted)
}

// End moves a pending or running session to ended.
func (m *Manager) End(ctx context.Context, id string) (*Session, error) {
	return m.transition(ctx, id, "end", (*Session).CanEnd, m.store.MarkEnded)
}

func (m *Manager) transition(
	ctx context.Context,
	id, verb string,
	guard func(*Session) error,
	apply func(context.Context, string, time.Time) (bool, error),
) (*Session, error) {
	s, err := m.store.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s session: %w", verb, err)
	}
	if err := guard(s); err != nil {
		return nil, fmt.Errorf("%s session: %w", verb, err)
	}

	applied, err := apply(ctx, id, m.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("%s session: %w", verb, err)
	}

	// Re-read either way: on a lost race the fresh row explains why.
	s, err = m.store.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s session: %w", verb, err)
	}
	if !applied {
		if err := guard(s); err != nil {
			return nil, fmt.Errorf("%s session: %w", verb, err)
		}
		return nil, fmt.Errorf("%s session: transition not applied", verb)
	}

	m.logger.Info("Session transitioned", "session_id", id, "action", verb, "status", s.Status())
	return s, nil
}

// RosterInput is one operator-entered roster line.
type RosterInput struct {
	DisplayName string `json:"display_name"`
	Handle      string `json:"handle"`
	Team        string `json:"team"`
}

// RosterResult reports what a roster save did.
type RosterResult struct {
	Saved      []RosterEntry `json:"saved"`
	Unresolved []string      `json:"unresolved"`
}

// SaveRoster resolves each handle and upserts the resolved entries. Handles
// that do not resolve are reported, not saved.
func (m *Manager) SaveRoster(ctx context.Context, sessionID string, inputs []RosterInput) (*RosterResult, error) {
	s, err := m.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("save roster: %w", err)
	}
	if s.Status() == StatusEnded {
		return nil, fmt.Errorf("save roster: %w", ErrSessionEnded)
	}

	existing, err := m.store.ListRoster(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("save roster: %w", err)
	}

	// Validate the merged roster before any lookup.
	teams := make(map[string]Team, len(existing)+len(inputs))
	for _, e := range existing {
		teams[e.Handle] = e.Team
	}
	parsed := make([]Team, len(inputs))
	for i, in := range inputs {
		if strings.TrimSpace(in.Handle) == "" {
			return nil, fmt.Errorf("save roster: %w: line %d has no handle", ErrInvalidSession, i+1)
		}
		t, err := ParseTeam(in.Team)
		if err != nil {
			return nil, fmt.Errorf("save roster: %w", err)
		}
		parsed[i] = t
		teams[strings.TrimSpace(in.Handle)] = t
	}
	counts := map[Team]int{}
	for _, t := range teams {
		counts[t]++
	}
	for _, t := range []Team{TeamA, TeamB} {
		if counts[t] > m.teamSize {
			return nil, fmt.Errorf("save roster: %w: %s has %d players, max %d",
				ErrTeamFull, s.TeamName(t), counts[t], m.teamSize)
		}
	}

	result := &RosterResult{}
	now := m.now().UTC()
	for i, in := range inputs {
		handle := strings.TrimSpace(in.Handle)
		playerID, err := m.resolver.Resolve(ctx, handle)
		if err != nil {
			return nil, fmt.Errorf("save roster: resolve %q: %w", handle, err)
		}
		if playerID == "" {
			result.Unresolved = append(result.Unresolved, handle)
			continue
		}
		name := strings.TrimSpace(in.DisplayName)
		if name == "" {
			name = handle
		}
		result.Saved = append(result.Saved, RosterEntry{
			SessionID:   sessionID,
			DisplayName: name,
			Handle:      handle,
			PlayerID:    playerID,
			Team:        parsed[i],
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}

	if len(result.Saved) > 0 {
		if err := m.store.UpsertRoster(ctx, result.Saved); err != nil {
			return nil, fmt.Errorf("save roster: %w", err)
		}
	}

	m.logger.Info("Roster saved", "session_id", sessionID,
		"saved", len(result.Saved), "unresolved", len(result.Unresolved))
	return result, nil
}

// Roster lists entries ordered by team then display name.
func (m *Manager) Roster(ctx context.Context, sessionID string) ([]RosterEntry, error) {
	if _, err := m.store.GetSession(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}
	entries, err := m.store.ListRoster(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}
	return entries, nil
}
