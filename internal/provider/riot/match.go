package riot

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/albapepper/rankboard/internal/provider"
)

// --------------------------------------------------------------------------
// Match-V5 raw shapes
// --------------------------------------------------------------------------

type matchRaw struct {
	Metadata struct {
		MatchID      string   `json:"matchId"`
		Participants []string `json:"participants"`
	} `json:"metadata"`
	Info struct {
		QueueID            int              `json:"queueId"`
		GameCreation       int64            `json:"gameCreation"`       // ms
		GameStartTimestamp int64            `json:"gameStartTimestamp"` // ms
		GameEndTimestamp   int64            `json:"gameEndTimestamp"`   // ms
		Participants       []participantRaw `json:"participants"`
	} `json:"info"`
}

type participantRaw struct {
	PUUID          string `json:"puuid"`
	RiotIDGameName string `json:"riotIdGameName"`
	RiotIDTagline  string `json:"riotIdTagline"`
	TeamID         int    `json:"teamId"`
	Win            bool   `json:"win"`
}

// --------------------------------------------------------------------------
// Match source
// --------------------------------------------------------------------------

// RecentMatchIDs lists up to count of the player's most recent match ids,
// newest first. A non-zero since narrows the listing to matches started at or
// after that instant. An unknown player yields an empty list.
func (c *Client) RecentMatchIDs(ctx context.Context, puuid string, count int, since time.Time) ([]string, error) {
	if count <= 0 {
		count = 20
	}
	if count > 100 {
		count = 100
	}

	params := url.Values{}
	params.Set("count", strconv.Itoa(count))
	if !since.IsZero() {
		params.Set("startTime", strconv.FormatInt(since.Unix(), 10))
	}

	var ids []string
	path := "/lol/match/v5/matches/by-puuid/" + url.PathEscape(puuid) + "/ids"
	if _, err := c.get(ctx, c.regionalURL, path, params, &ids); err != nil {
		return nil, fmt.Errorf("list match ids: %w", err)
	}
	return ids, nil
}

// Match fetches one match's detail in canonical form. Returns nil, nil when
// the match does not exist (yet) on the Riot side.
func (c *Client) Match(ctx context.Context, matchID string) (*provider.Match, error) {
	var raw matchRaw
	found, err := c.get(ctx, c.regionalURL, "/lol/match/v5/matches/"+url.PathEscape(matchID), nil, &raw)
	if err != nil {
		return nil, fmt.Errorf("get match %s: %w", matchID, err)
	}
	if !found {
		return nil, nil
	}
	m := normalizeMatch(raw)
	if m.ID == "" {
		m.ID = matchID
	}
	return m, nil
}

func normalizeMatch(raw matchRaw) *provider.Match {
	outcomes := make(map[string]bool, len(raw.Info.Participants))
	for _, p := range raw.Info.Participants {
		if p.PUUID == "" {
			continue
		}
		outcomes[p.PUUID] = p.Win
	}
	return &provider.Match{
		ID:       raw.Metadata.MatchID,
		QueueID:  raw.Info.QueueID,
		PlayedAt: playedAt(raw),
		Outcomes: outcomes,
	}
}

// playedAt prefers the end timestamp, then start, then creation. Older
// matches predate gameEndTimestamp.
func playedAt(raw matchRaw) time.Time {
	for _, ms := range []int64{raw.Info.GameEndTimestamp, raw.Info.GameStartTimestamp, raw.Info.GameCreation} {
		if ms > 0 {
			return time.UnixMilli(ms).UTC()
		}
	}
	return time.Time{}
}
