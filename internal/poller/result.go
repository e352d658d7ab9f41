package poller

import (
	"fmt"
	"time"

	"github.com/albapepper/rankboard/internal/session"
)

// CycleStatus reports what a tick did.
type CycleStatus string

const (
	StatusWaiting CycleStatus = "waiting" // no session, or not started
	StatusSkipped CycleStatus = "skipped" // poll interval not yet elapsed
	StatusPolled  CycleStatus = "polled"
)

// CycleResult tracks counts and errors from one poll cycle.
type CycleResult struct {
	SessionID      string
	Status         CycleStatus
	Forced         bool
	CatchUp        bool
	Ended          bool
	Players        int
	IDsListed      int
	DetailsFetched int
	Recorded       int
	NonQualifying  int
	Tombstoned     int
	Errors         []string
	Latest         *session.MatchResult
	Notified       bool
	Duration       time.Duration
}

func (r *CycleResult) add(p playerOutcome) {
	r.IDsListed += p.listed
	r.DetailsFetched += p.fetched
	r.Recorded += len(p.inserted)
	r.NonQualifying += p.nonQualifying
	r.Tombstoned += p.tombstoned
	r.Errors = append(r.Errors, p.errors...)
}

// Summary returns a human-readable summary of the cycle.
func (r *CycleResult) Summary() string {
	return fmt.Sprintf(
		"status=%s players=%d listed=%d fetched=%d recorded=%d non_qualifying=%d tombstoned=%d errors=%d",
		r.Status, r.Players, r.IDsListed, r.DetailsFetched,
		r.Recorded, r.NonQualifying, r.Tombstoned, len(r.Errors),
	)
}
