package goated

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Wagers holds a player's wagered amounts per time bucket as reported by the
// Goated API. These buckets are calendar-aligned, not rolling windows.
type Wagers struct {
	Today     float64 `json:"today"`
	ThisWeek  float64 `json:"this_week"`
	ThisMonth float64 `json:"this_month"`
	AllTime   float64 `json:"all_time"`
}

// Player is one entry from an affiliate referral leaderboard.
type Player struct {
	UID         string `json:"uid"`
	Name        string `json:"name"`
	Wagered     Wagers `json:"wagered"`
	AffiliateID string `json:"-"`
}

// Position is a player's rank within their affiliate network per time
// bucket, plus network-wide totals. A nil rank means the player was not
// present in that bucket's ordering.
type Position struct {
	Username     string
	UID          string
	AffiliateID  string
	DailyRank    *int
	WeeklyRank   *int
	MonthlyRank  *int
	AllTimeRank  *int
	TotalPlayers int
	Player       Wagers

	NetworkDaily   float64
	NetworkWeekly  float64
	NetworkMonthly float64
	NetworkAllTime float64
}

type leaderboardResponse struct {
	Success bool      `json:"success"`
	Data    []*Player `json:"data"`
}

// Config holds client configuration.
type Config struct {
	BaseURL           string
	APIKey            string
	AffiliateIDs      []string
	RequestsPerMinute int
	Timeout           time.Duration
}

// Client talks to the Goated affiliate API. All calls are rate-limited and
// carry a fixed overall timeout; transport failures and non-2xx responses
// surface as errors, never panics.
type Client struct {
	baseURL      string
	apiKey       string
	affiliateIDs []string
	http         *retryablehttp.Client
	limiter      *rate.Limiter
}

// NewClient creates a Goated API client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 30
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 3 * time.Second
	rc.HTTPClient.Timeout = cfg.Timeout
	rc.Logger = nil

	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		affiliateIDs: cfg.AffiliateIDs,
		http:         rc,
		limiter:      rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), cfg.RequestsPerMinute),
	}
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	url := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", "GoatedWagerBot/1.0")
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", url, err)
	}

	return nil
}

// fetchAffiliateLeaderboard returns all players in one affiliate network.
func (c *Client) fetchAffiliateLeaderboard(ctx context.Context, affiliateID string) ([]*Player, error) {
	var res leaderboardResponse
	endpoint := fmt.Sprintf("user/affiliate/referral-leaderboard/%s", affiliateID)
	if err := c.get(ctx, endpoint, &res); err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, fmt.Errorf("affiliate leaderboard %s returned success=false", affiliateID)
	}
	for _, p := range res.Data {
		p.AffiliateID = affiliateID
	}
	return res.Data, nil
}

// FindPlayer searches the configured affiliate networks for a player by
// username. Matching is case-insensitive but the returned Player carries the
// canonical casing from the API. Returns (nil, nil) when no network has the
// player.
func (c *Client) FindPlayer(ctx context.Context, username string) (*Player, error) {
	var lastErr error
	for _, affiliateID := range c.affiliateIDs {
		players, err := c.fetchAffiliateLeaderboard(ctx, affiliateID)
		if err != nil {
			log.WithFields(log.Fields{
				"affiliateId": affiliateID,
				"username":    username,
			}).WithError(err).Warn("Failed to fetch affiliate leaderboard")
			lastErr = err
			continue
		}

		for _, p := range players {
			if strings.EqualFold(p.Name, username) {
				return p, nil
			}
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("player lookup incomplete: %w", lastErr)
	}
	return nil, nil
}

// ValidateUsername reports whether the username exists in any configured
// affiliate network.
func (c *Client) ValidateUsername(ctx context.Context, username string) (bool, error) {
	p, err := c.FindPlayer(ctx, username)
	if err != nil {
		return false, err
	}
	return p != nil, nil
}

// PlayerPosition computes the player's rank per time bucket within their
// affiliate network along with network totals.
func (c *Client) PlayerPosition(ctx context.Context, username string) (*Position, error) {
	player, err := c.FindPlayer(ctx, username)
	if err != nil {
		return nil, err
	}
	if player == nil {
		return nil, nil
	}

	players, err := c.fetchAffiliateLeaderboard(ctx, player.AffiliateID)
	if err != nil {
		return nil, err
	}

	pos := &Position{
		Username:     player.Name,
		UID:          player.UID,
		AffiliateID:  player.AffiliateID,
		TotalPlayers: len(players),
		Player:       player.Wagered,
	}

	pos.DailyRank = rankOf(players, player.Name, func(w Wagers) float64 { return w.Today })
	pos.WeeklyRank = rankOf(players, player.Name, func(w Wagers) float64 { return w.ThisWeek })
	pos.MonthlyRank = rankOf(players, player.Name, func(w Wagers) float64 { return w.ThisMonth })
	pos.AllTimeRank = rankOf(players, player.Name, func(w Wagers) float64 { return w.AllTime })

	for _, p := range players {
		pos.NetworkDaily += p.Wagered.Today
		pos.NetworkWeekly += p.Wagered.ThisWeek
		pos.NetworkMonthly += p.Wagered.ThisMonth
		pos.NetworkAllTime += p.Wagered.AllTime
	}

	return pos, nil
}

// TopPlayers returns the top players across all configured affiliate
// networks ordered by weekly wager, deduplicated by uid.
func (c *Client) TopPlayers(ctx context.Context, limit int) ([]*Player, error) {
	seen := make(map[string]bool)
	var all []*Player
	var lastErr error

	for _, affiliateID := range c.affiliateIDs {
		players, err := c.fetchAffiliateLeaderboard(ctx, affiliateID)
		if err != nil {
			log.WithField("affiliateId", affiliateID).WithError(err).Warn("Skipping affiliate network for top players")
			lastErr = err
			continue
		}
		for _, p := range players {
			key := p.UID
			if key == "" {
				key = strings.ToLower(p.Name)
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			all = append(all, p)
		}
	}

	if len(all) == 0 {
		if lastErr != nil {
			return nil, fmt.Errorf("no affiliate network reachable: %w", lastErr)
		}
		return nil, nil
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].Wagered.ThisWeek > all[j].Wagered.ThisWeek
	})

	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// rankOf returns the 1-based rank of username when players are ordered
// descending by the given bucket, or nil if the player is absent.
func rankOf(players []*Player, username string, bucket func(Wagers) float64) *int {
	sorted := make([]*Player, len(players))
	copy(sorted, players)
	sort.SliceStable(sorted, func(i, j int) bool {
		return bucket(sorted[i].Wagered) > bucket(sorted[j].Wagered)
	})

	for i, p := range sorted {
		if strings.EqualFold(p.Name, username) {
			rank := i + 1
			return &rank
		}
	}
	return nil
}
