package riot

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/albapepper/rankboard/internal/provider"
)

// Riot ID limits: game name 3–16 characters, tagline 3–5.
const (
	maxGameNameLen = 16
	minTagLen      = 3
	maxTagLen      = 5
)

type accountRaw struct {
	PUUID    string `json:"puuid"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

type summonerRaw struct {
	PUUID string `json:"puuid"`
	Name  string `json:"name"`
}

// ParseHandle splits a "GameName#TAG" Riot ID. ok is false for anything that
// is not a well-formed Riot ID (including legacy summoner names).
func ParseHandle(handle string) (gameName, tagLine string, ok bool) {
	handle = strings.TrimSpace(handle)
	i := strings.LastIndex(handle, "#")
	if i < 0 {
		return "", "", false
	}
	gameName = strings.TrimSpace(handle[:i])
	tagLine = strings.TrimSpace(handle[i+1:])
	if gameName == "" || utf8.RuneCountInString(gameName) > maxGameNameLen {
		return "", "", false
	}
	if n := utf8.RuneCountInString(tagLine); n < minTagLen || n > maxTagLen {
		return "", "", false
	}
	return gameName, tagLine, true
}

// ResolveHandle maps a human-entered handle to the player's PUUID.
// "Name#TAG" goes through Account-V1; a bare name falls back to the legacy
// Summoner-V4 by-name lookup on the platform host. Returns nil, nil for
// malformed or unknown handles.
func (c *Client) ResolveHandle(ctx context.Context, handle string) (*provider.Account, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, nil
	}

	if strings.Contains(handle, "#") {
		gameName, tagLine, ok := ParseHandle(handle)
		if !ok {
			return nil, nil
		}
		var raw accountRaw
		path := fmt.Sprintf("/riot/account/v1/accounts/by-riot-id/%s/%s",
			url.PathEscape(gameName), url.PathEscape(tagLine))
		found, err := c.get(ctx, c.regionalURL, path, nil, &raw)
		if err != nil {
			return nil, fmt.Errorf("resolve riot id %q: %w", handle, err)
		}
		if !found || raw.PUUID == "" {
			return nil, nil
		}
		return &provider.Account{PlayerID: raw.PUUID, Handle: handle}, nil
	}

	var raw summonerRaw
	found, err := c.get(ctx, c.platformURL, "/lol/summoner/v4/summoners/by-name/"+url.PathEscape(handle), nil, &raw)
	if err != nil {
		return nil, fmt.Errorf("resolve summoner %q: %w", handle, err)
	}
	if !found || raw.PUUID == "" {
		return nil, nil
	}
	return &provider.Account{PlayerID: raw.PUUID, Handle: handle}, nil
}
