package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/albapepper/rankboard/internal/session"
)

// KnownMatchIDs returns the candidates already recorded or tombstoned for
// (session, handle).
func (s *Store) KnownMatchIDs(ctx context.Context, sessionID, handle string, candidates []string) (map[string]bool, error) {
	known := make(map[string]bool, len(candidates))
	if len(candidates) == 0 {
		return known, nil
	}
	rows, err := s.pool.Query(ctx, "known_match_ids", sessionID, handle, candidates)
	if err != nil {
		return nil, fmt.Errorf("query known match ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan match id: %w", err)
		}
		known[id] = true
	}
	return known, rows.Err()
}

// SavePlayerBatch inserts results and tombstones in one transaction. Only
// rows that did not already exist are returned. Nothing is written once the
// session has ended.
func (s *Store) SavePlayerBatch(ctx context.Context, results []session.MatchResult, skipped []session.SkippedMatch) ([]session.MatchResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin results tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var inserted []session.MatchResult
	for _, r := range results {
		var recordedAt time.Time
		err := tx.QueryRow(ctx, "result_insert",
			r.SessionID, r.Handle, r.MatchID, r.PlayerID, r.Win, r.QueueID, r.PlayedAt, r.RecordedAt,
		).Scan(&recordedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			continue // already recorded
		}
		if err != nil {
			return nil, fmt.Errorf("insert result %s: %w", r.MatchID, err)
		}
		r.RecordedAt = recordedAt
		inserted = append(inserted, r)
	}

	for _, sk := range skipped {
		if _, err := tx.Exec(ctx, "skipped_insert", sk.SessionID, sk.Handle, sk.MatchID, string(sk.Reason)); err != nil {
			return nil, fmt.Errorf("insert skipped %s: %w", sk.MatchID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit results: %w", err)
	}
	return inserted, nil
}

// AnnounceResult publishes r on MatchRecordedChannel so every process can
// show it. Callers announce once per cycle, after all batches committed.
func (s *Store) AnnounceResult(ctx context.Context, r session.MatchResult) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode notify payload: %w", err)
	}
	if _, err := s.pool.Exec(ctx, "notify_match_recorded", string(payload)); err != nil {
		return fmt.Errorf("notify %s: %w", MatchRecordedChannel, err)
	}
	return nil
}

// ListResults returns a session's results ordered by play time; a non-empty
// handle filters to one player.
func (s *Store) ListResults(ctx context.Context, sessionID, handle string) ([]session.MatchResult, error) {
	rows, err := s.pool.Query(ctx, "results_by_session", sessionID, handle)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var results []session.MatchResult
	for rows.Next() {
		var r session.MatchResult
		if err := rows.Scan(&r.SessionID, &r.Handle, &r.PlayerID, &r.MatchID, &r.Win, &r.QueueID, &r.PlayedAt, &r.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// PurgeSkipped drops tombstones of sessions that ended before cutoff.
func (s *Store) PurgeSkipped(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, "purge_skipped_for_ended", cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge skipped matches: %w", err)
	}
	return tag.RowsAffected(), nil
}

// HealthCheck pings the database through the prepared health statement.
func (s *Store) HealthCheck(ctx context.Context) error {
	var n int
	return s.pool.QueryRow(ctx, "health_check").Scan(&n)
}
