// Package provider defines canonical match data types that match-history
// sources normalize into. These structs are the contract between the source
// adapter and the poller: adapters output these, the poller filters and
// persists them.
//
// Adding a new source means implementing functions that return these types.
// The poller and Postgres schema never change.
package provider

import "time"

// Account is a resolved player identity.
type Account struct {
	PlayerID string `json:"player_id"` // stable id (PUUID for Riot)
	Handle   string `json:"handle"`    // human-entered handle, normalized
}

// Match is the canonical shape of a completed match's detail record.
type Match struct {
	ID       string    `json:"id"`
	QueueID  int       `json:"queue_id"`
	PlayedAt time.Time `json:"played_at"`
	// Outcomes maps participant player id to win (true) or loss (false).
	Outcomes map[string]bool `json:"outcomes"`
}

// OutcomeFor reports the outcome for a player and whether the match can be
// attributed to them at all.
func (m *Match) OutcomeFor(playerID string) (win bool, ok bool) {
	if m == nil || m.Outcomes == nil {
		return false, false
	}
	win, ok = m.Outcomes[playerID]
	return win, ok
}
