package poller

import (
	"time"

	"github.com/albapepper/rankboard/internal/provider"
	"github.com/albapepper/rankboard/internal/session"
)

type verdict int

const (
	qualifying verdict = iota
	wrongQueue
	beforeStart
	afterNow
	unattributable
)

func (v verdict) String() string {
	switch v {
	case qualifying:
		return "qualifying"
	case wrongQueue:
		return "wrong_queue"
	case beforeStart:
		return "before_start"
	case afterNow:
		return "after_now"
	default:
		return "unattributable"
	}
}

// skipReason is the tombstone for permanent verdicts. Matches after now
// or without the player's outcome are retried every cycle.
func (v verdict) skipReason() (session.SkipReason, bool) {
	switch v {
	case wrongQueue:
		return session.SkipWrongQueue, true
	case beforeStart:
		return session.SkipBeforeStart, true
	}
	return "", false
}

// classify applies the qualifying rules: configured queue, played within
// [startedAt, now], and an outcome for playerID.
func classify(m *provider.Match, playerID string, queueID int, startedAt, now time.Time) (verdict, bool) {
	if m.QueueID != queueID {
		return wrongQueue, false
	}
	if m.PlayedAt.Before(startedAt) {
		return beforeStart, false
	}
	if m.PlayedAt.After(now) {
		return afterNow, false
	}
	win, ok := m.OutcomeFor(playerID)
	if !ok {
		return unattributable, false
	}
	return qualifying, win
}
