// Package db provides a pgxpool-based connection pool with prepared statement
// registration, schema bootstrap and health checking.
package db

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/rankboard/internal/config"
)

//go:embed schema.sql
var schema string

// Pool wraps pgxpool.Pool; every connection carries the prepared statements.
type Pool struct {
	*pgxpool.Pool
}

// New applies the schema and creates a validated connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	// Prepared statements reference the tables, so the schema has to exist
	// before the first pooled connection runs AfterConnect.
	if err := Migrate(ctx, cfg.DatabaseURL); err != nil {
		return nil, err
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// Migrate applies the embedded schema over a dedicated connection.
func Migrate(ctx context.Context, dbURL string) error {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect for migration: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

const sessionColumns = "id, title, duration_minutes, team_a_name, team_b_name, created_at, started_at, ended_at, last_polled_at"

// registerPreparedStatements registers the statements the store, API and
// maintenance layers use.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Sessions
		"session_insert": "INSERT INTO sessions (id, title, duration_minutes, team_a_name, team_b_name, created_at) VALUES ($1, $2, $3, $4, $5, $6)",
		"session_by_id":  "SELECT " + sessionColumns + " FROM sessions WHERE id = $1",
		"session_active": "SELECT " + sessionColumns + " FROM sessions WHERE ended_at IS NULL ORDER BY created_at DESC LIMIT 1",
		"session_start":  "UPDATE sessions SET started_at = $2 WHERE id = $1 AND started_at IS NULL AND ended_at IS NULL",
		"session_end":    "UPDATE sessions SET ended_at = $2 WHERE id = $1 AND ended_at IS NULL",

		// Poll claim: take the cycle only if the previous poll is old enough.
		"session_claim_poll": `
			WITH prev AS (
				SELECT id, last_polled_at FROM sessions WHERE id = $1 FOR UPDATE
			)
			UPDATE sessions s SET last_polled_at = $2
			FROM prev
			WHERE s.id = prev.id
			  AND s.started_at IS NOT NULL
			  AND s.ended_at IS NULL
			  AND (prev.last_polled_at IS NULL OR prev.last_polled_at <= $2 - $3::interval)
			RETURNING prev.last_polled_at`,
		"session_release_poll": "UPDATE sessions SET last_polled_at = $3 WHERE id = $1 AND last_polled_at = $2",

		// Roster
		"roster_upsert": `
			INSERT INTO roster_entries (session_id, handle, display_name, player_id, team, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $6)
			ON CONFLICT (session_id, handle) DO UPDATE
			SET display_name = EXCLUDED.display_name,
			    player_id = EXCLUDED.player_id,
			    team = EXCLUDED.team,
			    updated_at = EXCLUDED.updated_at`,
		"roster_list": "SELECT session_id, display_name, handle, player_id, team, created_at, updated_at FROM roster_entries WHERE session_id = $1 ORDER BY team, display_name",

		// Results
		// Inserts are refused once the session has ended.
		"result_insert": `
			INSERT INTO match_results (session_id, handle, match_id, player_id, win, queue_id, played_at, recorded_at)
			SELECT $1::text, $2::text, $3::text, $4::text, $5::boolean, $6::integer, $7::timestamptz, $8::timestamptz
			WHERE EXISTS (SELECT 1 FROM sessions WHERE id = $1::text AND ended_at IS NULL)
			ON CONFLICT (session_id, handle, match_id) DO NOTHING
			RETURNING recorded_at`,
		"skipped_insert": `
			INSERT INTO skipped_matches (session_id, handle, match_id, reason)
			SELECT $1::text, $2::text, $3::text, $4::text
			WHERE EXISTS (SELECT 1 FROM sessions WHERE id = $1::text AND ended_at IS NULL)
			ON CONFLICT (session_id, handle, match_id) DO NOTHING`,
		"known_match_ids": `
			SELECT match_id FROM match_results WHERE session_id = $1 AND handle = $2 AND match_id = ANY($3)
			UNION
			SELECT match_id FROM skipped_matches WHERE session_id = $1 AND handle = $2 AND match_id = ANY($3)`,
		"notify_match_recorded": "SELECT pg_notify('match_recorded', $1)",
		"results_by_session":    "SELECT session_id, handle, player_id, match_id, win, queue_id, played_at, recorded_at FROM match_results WHERE session_id = $1 AND ($2 = '' OR handle = $2) ORDER BY played_at",

		// Maintenance
		"purge_skipped_for_ended": "DELETE FROM skipped_matches sm USING sessions s WHERE sm.session_id = s.id AND s.ended_at IS NOT NULL AND s.ended_at < $1",
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
