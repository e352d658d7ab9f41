// Package poller runs the incremental match poll for the active session.
//
// One cycle lists each roster player's recent match ids, drops ids already
// recorded or tombstoned, fetches detail for the rest, keeps the qualifying
// ones and persists them one transaction per player. The notification slot
// is written only after every batch has been attempted, and only with
// results that committed.
package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/albapepper/rankboard/internal/notify"
	"github.com/albapepper/rankboard/internal/provider"
	"github.com/albapepper/rankboard/internal/session"
)

// Source is the external match history feed.
type Source interface {
	RecentMatchIDs(ctx context.Context, playerID string, count int, since time.Time) ([]string, error)
	// Match returns nil, nil when the match does not exist.
	Match(ctx context.Context, matchID string) (*provider.Match, error)
}

// Sessions resolves and ends the active session.
type Sessions interface {
	Active(ctx context.Context) (*session.Session, error)
	End(ctx context.Context, id string) (*session.Session, error)
}

// Store is the durable side of a poll cycle.
type Store interface {
	ListRoster(ctx context.Context, sessionID string) ([]session.RosterEntry, error)
	// ClaimPoll atomically sets last_polled_at to now when the session has
	// not ended and the previous poll is at least interval old. It returns
	// the previous marker so a failed cycle can restore it.
	ClaimPoll(ctx context.Context, sessionID string, now time.Time, interval time.Duration) (prev *time.Time, claimed bool, err error)
	// ReleaseClaim restores prev if the marker still equals claimedAt.
	ReleaseClaim(ctx context.Context, sessionID string, claimedAt time.Time, prev *time.Time) error
	// KnownMatchIDs returns the candidates already recorded or tombstoned.
	KnownMatchIDs(ctx context.Context, sessionID, handle string, candidates []string) (map[string]bool, error)
	// SavePlayerBatch writes results and tombstones in one transaction and
	// returns the results that were actually inserted.
	SavePlayerBatch(ctx context.Context, results []session.MatchResult, skipped []session.SkippedMatch) ([]session.MatchResult, error)
	// AnnounceResult tells other processes about the cycle's latest result.
	AnnounceResult(ctx context.Context, r session.MatchResult) error
}

// Notifier receives the latest newly recorded result of a cycle.
type Notifier interface {
	Record(notify.Event)
}

// ListLookback is subtracted from the session start when listing ids. The
// source filters on game start while a match counts by its end, so a game
// already running at kickoff must still be listed. No ranked game lasts this
// long; classify applies the real window.
const ListLookback = 3 * time.Hour

// Options configures the poll cycle.
type Options struct {
	QueueID      int
	RecentCount  int
	CatchUpCount int
	// CatchUpAfter widens the id window to CatchUpCount when the gap since
	// the previous poll (or the session start) exceeds it.
	CatchUpAfter time.Duration
	Interval     time.Duration
	Workers      int
}

// Poller runs poll cycles.
type Poller struct {
	source   Source
	sessions Sessions
	store    Store
	notifier Notifier
	opts     Options
	now      func() time.Time
	logger   *slog.Logger
}

func New(source Source, sessions Sessions, store Store, notifier Notifier, opts Options, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.RecentCount < 1 {
		opts.RecentCount = 20
	}
	if opts.CatchUpCount < opts.RecentCount {
		opts.CatchUpCount = opts.RecentCount
	}
	return &Poller{
		source:   source,
		sessions: sessions,
		store:    store,
		notifier: notifier,
		opts:     opts,
		now:      time.Now,
		logger:   logger,
	}
}

// Tick resolves the active session and polls it if the cadence allows.
// A running session past its deadline gets one forced final cycle and is
// then ended.
func (p *Poller) Tick(ctx context.Context) (*CycleResult, error) {
	s, err := p.sessions.Active(ctx)
	if err != nil {
		return nil, fmt.Errorf("tick: %w", err)
	}
	if s == nil || s.Status() != session.StatusRunning {
		res := &CycleResult{Status: StatusWaiting}
		if s != nil {
			res.SessionID = s.ID
		}
		return res, nil
	}

	if !s.Expired(p.now()) {
		return p.RunCycle(ctx, s, false)
	}

	p.logger.Info("Session deadline reached, running final cycle", "session_id", s.ID)
	res, err := p.RunCycle(ctx, s, true)
	if err != nil {
		// Leave the session running so the next tick retries the final cycle.
		return res, err
	}
	if _, err := p.sessions.End(ctx, s.ID); err != nil && !errors.Is(err, session.ErrSessionEnded) {
		return res, fmt.Errorf("end expired session: %w", err)
	}
	res.Ended = true
	return res, nil
}

type playerOutcome struct {
	entry         session.RosterEntry
	listed        int
	fetched       int
	nonQualifying int
	tombstoned    int
	inserted      []session.MatchResult
	errors        []string
	persistErr    error
}

// RunCycle claims and runs one poll cycle for s. forced bypasses the
// cadence check but still takes the claim.
func (p *Poller) RunCycle(ctx context.Context, s *session.Session, forced bool) (*CycleResult, error) {
	start := time.Now()
	result := &CycleResult{SessionID: s.ID, Status: StatusWaiting, Forced: forced}
	if s.Status() != session.StatusRunning {
		return result, nil
	}

	now := p.now().UTC()
	interval := p.opts.Interval
	if forced {
		interval = 0
	}
	prev, claimed, err := p.store.ClaimPoll(ctx, s.ID, now, interval)
	if err != nil {
		return nil, fmt.Errorf("claim poll: %w", err)
	}
	if !claimed {
		result.Status = StatusSkipped
		return result, nil
	}
	result.Status = StatusPolled

	roster, err := p.store.ListRoster(ctx, s.ID)
	if err != nil {
		p.release(s.ID, now, prev)
		return nil, fmt.Errorf("list roster: %w", err)
	}
	result.Players = len(roster)

	count := p.opts.RecentCount
	base := *s.StartedAt
	if prev != nil {
		base = *prev
	}
	if p.opts.CatchUpAfter > 0 && now.Sub(base) > p.opts.CatchUpAfter {
		count = p.opts.CatchUpCount
		result.CatchUp = true
	}

	outcomes := p.pollRoster(ctx, s, roster, count, now)

	var persistErrs []error
	for _, o := range outcomes {
		result.add(o)
		if o.persistErr != nil {
			persistErrs = append(persistErrs, fmt.Errorf("%s: %w", o.entry.Handle, o.persistErr))
			continue
		}
		for i := range o.inserted {
			if result.Latest == nil || o.inserted[i].PlayedAt.After(result.Latest.PlayedAt) {
				r := o.inserted[i]
				result.Latest = &r
			}
		}
	}

	if result.Latest != nil {
		if p.notifier != nil {
			p.notifier.Record(notify.FromResult(s, roster, *result.Latest))
			result.Notified = true
		}
		if err := p.store.AnnounceResult(ctx, *result.Latest); err != nil {
			p.logger.Warn("Failed to announce result", "session_id", s.ID, "match_id", result.Latest.MatchID, "error", err)
			result.Errors = append(result.Errors, fmt.Sprintf("announce %s: %v", result.Latest.MatchID, err))
		}
	}

	result.Duration = time.Since(start)
	if len(persistErrs) > 0 {
		p.release(s.ID, now, prev)
		err := fmt.Errorf("persist results: %w", errors.Join(persistErrs...))
		p.logger.Error("Poll cycle incomplete", "session_id", s.ID, "error", err, "summary", result.Summary())
		return result, err
	}

	p.logger.Info("Poll cycle complete", "session_id", s.ID, "summary", result.Summary())
	return result, nil
}

func (p *Poller) release(sessionID string, claimedAt time.Time, prev *time.Time) {
	// The cycle context may already be cancelled; the release must still land.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.store.ReleaseClaim(ctx, sessionID, claimedAt, prev); err != nil {
		p.logger.Warn("Failed to release poll claim", "session_id", sessionID, "error", err)
	}
}

// pollRoster runs pollPlayer over a bounded worker pool. The source client
// rate-limits globally, so extra workers only overlap store I/O.
func (p *Poller) pollRoster(ctx context.Context, s *session.Session, roster []session.RosterEntry, count int, now time.Time) []playerOutcome {
	workers := min(p.opts.Workers, len(roster))
	ch := make(chan session.RosterEntry, len(roster))
	for _, e := range roster {
		ch <- e
	}
	close(ch)

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		outcomes = make([]playerOutcome, 0, len(roster))
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range ch {
				if ctx.Err() != nil {
					return
				}
				o := p.pollPlayer(ctx, s, entry, count, now)
				mu.Lock()
				outcomes = append(outcomes, o)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return outcomes
}

func (p *Poller) pollPlayer(ctx context.Context, s *session.Session, entry session.RosterEntry, count int, now time.Time) playerOutcome {
	out := playerOutcome{entry: entry}
	log := p.logger.With("session_id", s.ID, "handle", entry.Handle)
	startedAt := *s.StartedAt

	if entry.PlayerID == "" {
		out.errors = append(out.errors, fmt.Sprintf("%s: no player id", entry.Handle))
		return out
	}

	ids, err := p.source.RecentMatchIDs(ctx, entry.PlayerID, count, startedAt.Add(-ListLookback))
	if err != nil {
		log.Warn("Failed to list recent matches", "error", err)
		out.errors = append(out.errors, fmt.Sprintf("%s: list matches: %v", entry.Handle, err))
		return out
	}
	out.listed = len(ids)
	if len(ids) == 0 {
		return out
	}

	known, err := p.store.KnownMatchIDs(ctx, s.ID, entry.Handle, ids)
	if err != nil {
		out.persistErr = fmt.Errorf("known match ids: %w", err)
		return out
	}

	var (
		results []session.MatchResult
		skipped []session.SkippedMatch
	)
	for _, id := range ids {
		if known[id] {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		m, err := p.source.Match(ctx, id)
		out.fetched++
		if err != nil {
			log.Warn("Failed to fetch match detail", "match_id", id, "error", err)
			out.errors = append(out.errors, fmt.Sprintf("%s: match %s: %v", entry.Handle, id, err))
			continue
		}
		if m == nil {
			log.Debug("Match not found", "match_id", id)
			continue
		}

		v, win := classify(m, entry.PlayerID, p.opts.QueueID, startedAt, now)
		if v != qualifying {
			out.nonQualifying++
			log.Debug("Match does not qualify", "match_id", id, "reason", v.String(),
				"queue_id", m.QueueID, "played_at", m.PlayedAt)
			if reason, ok := v.skipReason(); ok {
				skipped = append(skipped, session.SkippedMatch{
					SessionID: s.ID, Handle: entry.Handle, MatchID: id, Reason: reason,
				})
			}
			continue
		}

		results = append(results, session.MatchResult{
			SessionID:  s.ID,
			Handle:     entry.Handle,
			PlayerID:   entry.PlayerID,
			MatchID:    id,
			Win:        win,
			QueueID:    m.QueueID,
			PlayedAt:   m.PlayedAt,
			RecordedAt: now,
		})
	}

	if len(results) == 0 && len(skipped) == 0 {
		return out
	}
	inserted, err := p.store.SavePlayerBatch(ctx, results, skipped)
	if err != nil {
		log.Error("Failed to persist results", "results", len(results), "error", err)
		out.persistErr = err
		return out
	}
	out.inserted = inserted
	out.tombstoned = len(skipped)
	for _, r := range inserted {
		log.Info("Match recorded", "match_id", r.MatchID, "win", r.Win, "played_at", r.PlayedAt)
	}
	return out
}
