// Package maintenance runs periodic background tasks as Go tickers: the
// poll tick that drives the active session, and tombstone cleanup.
package maintenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/albapepper/rankboard/internal/poller"
)

// Config controls task intervals. Zero duration disables a task.
type Config struct {
	TickInterval     time.Duration // Poll tick; the durable claim enforces the real cadence
	CleanupInterval  time.Duration // Purge tombstones of long-ended sessions
	SkippedRetention time.Duration
}

// DefaultConfig returns sensible production defaults.
func DefaultConfig() Config {
	return Config{
		TickInterval:     5 * time.Second,
		CleanupInterval:  1 * time.Hour,
		SkippedRetention: 7 * 24 * time.Hour,
	}
}

// Ticker runs one poll tick.
type Ticker interface {
	Tick(ctx context.Context) (*poller.CycleResult, error)
}

// Purger removes tombstones of sessions that ended before cutoff.
type Purger interface {
	PurgeSkipped(ctx context.Context, cutoff time.Time) (int64, error)
}

// Start launches all configured tickers. Blocks until ctx is cancelled.
// Intended to be called with `go`.
func Start(ctx context.Context, ticker Ticker, purger Purger, cfg Config, logger *slog.Logger) {
	logger.Info("Maintenance tickers started",
		"tick", cfg.TickInterval,
		"cleanup", cfg.CleanupInterval)

	tickers := make([]*time.Ticker, 0, 2)
	defer func() {
		for _, t := range tickers {
			t.Stop()
		}
	}()

	if cfg.TickInterval > 0 && ticker != nil {
		t := time.NewTicker(cfg.TickInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, "poll", func() { pollTick(ctx, ticker, logger) })
	}

	if cfg.CleanupInterval > 0 && purger != nil {
		t := time.NewTicker(cfg.CleanupInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, "cleanup", func() { cleanup(ctx, purger, cfg.SkippedRetention, logger) })
	}

	<-ctx.Done()
	logger.Info("Maintenance tickers stopped")
}

func runLoop(ctx context.Context, ch <-chan time.Time, name string, fn func()) {
	for {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// --------------------------------------------------------------------------
// Task implementations
// --------------------------------------------------------------------------

func pollTick(ctx context.Context, ticker Ticker, logger *slog.Logger) {
	res, err := ticker.Tick(ctx)
	if err != nil {
		logger.Warn("Poll tick failed", "error", err)
		return
	}
	if res.Ended {
		logger.Info("Session ended at deadline", "session_id", res.SessionID)
	}
}

func cleanup(ctx context.Context, purger Purger, retention time.Duration, logger *slog.Logger) {
	n, err := purger.PurgeSkipped(ctx, time.Now().Add(-retention))
	if err != nil {
		logger.Warn("Cleanup: failed to purge skipped matches", "error", err)
	} else if n > 0 {
		logger.Info("Cleanup: purged skipped matches", "count", n)
	}
}
