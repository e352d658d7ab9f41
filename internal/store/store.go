// Package store is the Postgres implementation of the session, roster and
// result stores. All queries go through statements prepared in package db.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/rankboard/internal/session"
)

// MatchRecordedChannel is the NOTIFY channel fired when results commit.
const MatchRecordedChannel = "match_recorded"

const uniqueViolation = "23505"

// Store is safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// --------------------------------------------------------------------------
// Sessions
// --------------------------------------------------------------------------

func (s *Store) CreateSession(ctx context.Context, sess *session.Session) error {
	_, err := s.pool.Exec(ctx, "session_insert",
		sess.ID, sess.Title, sess.DurationMinutes, sess.TeamAName, sess.TeamBName, sess.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return session.ErrActiveSessionExists
		}
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *Store) ActiveSession(ctx context.Context) (*session.Session, error) {
	sess, err := scanSession(s.pool.QueryRow(ctx, "session_active"))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query active session: %w", err)
	}
	return sess, nil
}

func (s *Store) GetSession(ctx context.Context, id string) (*session.Session, error) {
	sess, err := scanSession(s.pool.QueryRow(ctx, "session_by_id", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query session %s: %w", id, err)
	}
	return sess, nil
}

func (s *Store) MarkStarted(ctx context.Context, id string, at time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx, "session_start", id, at)
	if err != nil {
		return false, fmt.Errorf("mark started: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) MarkEnded(ctx context.Context, id string, at time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx, "session_end", id, at)
	if err != nil {
		return false, fmt.Errorf("mark ended: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ClaimPoll takes the poll cycle for a running session when its last poll
// is at least interval old.
func (s *Store) ClaimPoll(ctx context.Context, sessionID string, now time.Time, interval time.Duration) (*time.Time, bool, error) {
	iv := pgtype.Interval{Microseconds: interval.Microseconds(), Valid: true}
	var prev *time.Time
	err := s.pool.QueryRow(ctx, "session_claim_poll", sessionID, now, iv).Scan(&prev)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("claim poll: %w", err)
	}
	return prev, true, nil
}

// ReleaseClaim restores the previous marker unless another claim replaced it.
func (s *Store) ReleaseClaim(ctx context.Context, sessionID string, claimedAt time.Time, prev *time.Time) error {
	if _, err := s.pool.Exec(ctx, "session_release_poll", sessionID, claimedAt, prev); err != nil {
		return fmt.Errorf("release poll claim: %w", err)
	}
	return nil
}

func scanSession(row pgx.Row) (*session.Session, error) {
	var sess session.Session
	err := row.Scan(
		&sess.ID, &sess.Title, &sess.DurationMinutes, &sess.TeamAName, &sess.TeamBName,
		&sess.CreatedAt, &sess.StartedAt, &sess.EndedAt, &sess.LastPolledAt,
	)
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// --------------------------------------------------------------------------
// Roster
// --------------------------------------------------------------------------

// UpsertRoster writes all entries in one batch transaction.
func (s *Store) UpsertRoster(ctx context.Context, entries []session.RosterEntry) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin roster tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue("roster_upsert", e.SessionID, e.Handle, e.DisplayName, e.PlayerID, string(e.Team), e.UpdatedAt)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert roster: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *Store) ListRoster(ctx context.Context, sessionID string) ([]session.RosterEntry, error) {
	rows, err := s.pool.Query(ctx, "roster_list", sessionID)
	if err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}
	defer rows.Close()

	var entries []session.RosterEntry
	for rows.Next() {
		var (
			e    session.RosterEntry
			team string
		)
		if err := rows.Scan(&e.SessionID, &e.DisplayName, &e.Handle, &e.PlayerID, &team, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan roster entry: %w", err)
		}
		e.Team = session.Team(team)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
