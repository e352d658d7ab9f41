// Package listener provides a Postgres LISTEN/NOTIFY consumer for newly
// recorded match results. It holds a dedicated pgx connection (not from the
// pool) listening on the `match_recorded` channel.
//
// Whichever process wins a poll claim persists every batch, then announces
// the cycle's latest result once; every API process feeds the payload into
// its own notification slot so all scoreboards show it. The slot ignores the
// echo in the process that ran the cycle.
package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/albapepper/rankboard/internal/notify"
	"github.com/albapepper/rankboard/internal/session"
	"github.com/albapepper/rankboard/internal/store"
)

const (
	reconnectBackoff = 5 * time.Second
	maxReconnect     = 30 * time.Second
)

// Directory resolves display names for a recorded result.
type Directory interface {
	GetSession(ctx context.Context, id string) (*session.Session, error)
	ListRoster(ctx context.Context, sessionID string) ([]session.RosterEntry, error)
}

// Recorder receives the decoded event.
type Recorder interface {
	Record(notify.Event)
}

// Start opens a dedicated connection and listens on the match_recorded
// channel. It reconnects automatically on connection loss. Blocks until ctx
// is cancelled. Intended to be called with `go`.
func Start(ctx context.Context, dbURL string, dir Directory, rec Recorder, logger *slog.Logger) {
	backoff := reconnectBackoff

	for {
		err := listenLoop(ctx, dbURL, dir, rec, logger)
		if ctx.Err() != nil {
			logger.Info("Result listener stopped (context cancelled)")
			return
		}

		logger.Error("Result listener disconnected, reconnecting...",
			"error", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
			backoff = min(backoff*2, maxReconnect)
		case <-ctx.Done():
			return
		}
	}
}

// listenLoop runs a single listen session. Returns when the connection drops
// or the context is cancelled.
func listenLoop(ctx context.Context, dbURL string, dir Directory, rec Recorder, logger *slog.Logger) error {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	_, err = conn.Exec(ctx, "LISTEN "+store.MatchRecordedChannel)
	if err != nil {
		return fmt.Errorf("LISTEN %s: %w", store.MatchRecordedChannel, err)
	}
	logger.Info("Result listener connected", "channel", store.MatchRecordedChannel)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}
		if err := Handle(ctx, notification.Payload, dir, rec, logger); err != nil {
			logger.Warn("Failed to handle result event",
				"payload", notification.Payload, "error", err)
		}
	}
}

// Handle decodes one match_recorded payload and records it.
func Handle(ctx context.Context, payload string, dir Directory, rec Recorder, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	var r session.MatchResult
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return fmt.Errorf("parse payload: %w", err)
	}
	if r.SessionID == "" || r.MatchID == "" {
		return fmt.Errorf("parse payload: missing session or match id")
	}

	// Names are best effort; the event is still worth showing without them.
	s, err := dir.GetSession(ctx, r.SessionID)
	if err != nil {
		logger.Debug("Session lookup for result event failed", "session_id", r.SessionID, "error", err)
	}
	roster, err := dir.ListRoster(ctx, r.SessionID)
	if err != nil {
		logger.Debug("Roster lookup for result event failed", "session_id", r.SessionID, "error", err)
	}

	rec.Record(notify.FromResult(s, roster, r))
	return nil
}
