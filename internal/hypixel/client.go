// Package hypixel is a client for the Hypixel Skyblock API and the Mojang
// username lookup it depends on.
package hypixel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultBaseURL   = "https://api.hypixel.net/v2"
	defaultMojangURL = "https://api.mojang.com/users/profiles/minecraft"
)

// Client talks to the Hypixel and Mojang HTTP APIs.
type Client struct {
	apiKey     string
	baseURL    string
	mojangURL  string
	httpClient *http.Client
}

// NewClient creates a Hypixel API client.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:    apiKey,
		baseURL:   defaultBaseURL,
		mojangURL: defaultMojangURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// IsConfigured returns true if the client has an API key.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// Profile is one Skyblock profile. Members are keyed by player UUID.
type Profile struct {
	ProfileID string            `json:"profile_id"`
	CuteName  string            `json:"cute_name"`
	Members   map[string]Member `json:"members"`
	Banking   struct {
		Balance float64 `json:"balance"`
	} `json:"banking"`
}

// Member holds one player's data within a profile. Skill experience arrives
// as flat "experience_skill_<name>" keys, collected into SkillXP.
type Member struct {
	LastSave   int64 `json:"last_save"`
	Currencies struct {
		CoinPurse float64 `json:"coin_purse"`
	} `json:"currencies"`
	Slayer struct {
		SlayerBosses map[string]SlayerBoss `json:"slayer_bosses"`
	} `json:"slayer"`
	SkillXP map[string]float64 `json:"-"`
}

// SlayerBoss is one slayer boss's progress.
type SlayerBoss struct {
	XP float64 `json:"xp"`
}

const skillXPKeyPrefix = "experience_skill_"

// UnmarshalJSON decodes the typed fields and sweeps the flat skill XP keys.
func (m *Member) UnmarshalJSON(data []byte) error {
	type alias Member
	var typed alias
	if err := json.Unmarshal(data, &typed); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	typed.SkillXP = make(map[string]float64)
	for key, value := range raw {
		if len(key) <= len(skillXPKeyPrefix) || key[:len(skillXPKeyPrefix)] != skillXPKeyPrefix {
			continue
		}
		var xp float64
		if err := json.Unmarshal(value, &xp); err != nil {
			continue
		}
		typed.SkillXP[key[len(skillXPKeyPrefix):]] = xp
	}

	*m = Member(typed)
	return nil
}

// UUIDFromUsername resolves a Minecraft username to its UUID via Mojang.
// Returns "" without error when the username does not exist.
func (c *Client) UUIDFromUsername(ctx context.Context, username string) (string, error) {
	var result struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	status, err := c.getJSON(ctx, fmt.Sprintf("%s/%s", c.mojangURL, username), nil, &result)
	if err != nil {
		return "", err
	}
	if status == http.StatusNotFound || status == http.StatusNoContent {
		return "", nil
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("mojang API returned status %d", status)
	}
	return result.ID, nil
}

// SkyblockProfiles fetches all Skyblock profiles for a player UUID.
func (c *Client) SkyblockProfiles(ctx context.Context, uuid string) ([]Profile, error) {
	var result struct {
		Success  bool      `json:"success"`
		Cause    string    `json:"cause"`
		Profiles []Profile `json:"profiles"`
	}
	params := map[string]string{"key": c.apiKey, "uuid": uuid}
	status, err := c.getJSON(ctx, c.baseURL+"/skyblock/profiles", params, &result)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("hypixel API returned status %d", status)
	}
	if !result.Success {
		return nil, fmt.Errorf("hypixel API error: %s", result.Cause)
	}
	return result.Profiles, nil
}

// ActiveProfile returns the player's most recently saved profile, or nil when
// the player has none.
func (c *Client) ActiveProfile(ctx context.Context, uuid string) (*Profile, error) {
	profiles, err := c.SkyblockProfiles(ctx, uuid)
	if err != nil {
		return nil, err
	}

	var active *Profile
	var latestSave int64
	for i := range profiles {
		member, ok := profiles[i].Members[uuid]
		if !ok {
			continue
		}
		if active == nil || member.LastSave > latestSave {
			latestSave = member.LastSave
			active = &profiles[i]
		}
	}
	return active, nil
}

func (c *Client) getJSON(ctx context.Context, url string, params map[string]string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	if len(params) > 0 {
		q := req.URL.Query()
		for k, v := range params {
			q.Set(k, v)
		}
		req.URL.RawQuery = q.Encode()
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusOK && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
