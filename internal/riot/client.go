// Package riot is a minimal client for the Riot Games match API.
// All requests go through a bounded 429 retry loop; any other non-2xx
// status fails immediately.
package riot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Platform -> regional routing value. Unknown platforms default to americas.
var regionRouting = map[string]string{
	"na1":  "americas",
	"br1":  "americas",
	"la1":  "americas",
	"la2":  "americas",
	"oc1":  "americas",
	"euw1": "europe",
	"eun1": "europe",
	"tr1":  "europe",
	"ru":   "europe",
	"kr":   "asia",
	"jp1":  "asia",
}

var validRoutings = map[string]bool{
	"americas": true,
	"europe":   true,
	"asia":     true,
	"sea":      true,
}

// RoutingForRegion maps a platform id (na1, euw1, ...) or routing value to
// the regional routing host segment
func RoutingForRegion(region string) string {
	region = strings.ToLower(region)
	if routing, ok := regionRouting[region]; ok {
		return routing
	}
	if validRoutings[region] {
		return region
	}
	return "americas"
}

// DefaultPageSize is the match id listing page size; a short page
// terminates pagination
const DefaultPageSize = 100

// Client calls the Riot API with rate-limit aware retries
type Client struct {
	httpClient *http.Client
	apiKey     string
	routing    string
	baseURL    string // overrides the routing host when set (tests)
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL overrides the API host, mainly for tests
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithRetry configures the 429 retry policy
func WithRetry(maxRetries int, baseDelay time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.baseDelay = baseDelay
	}
}

// NewClient creates a Client for the given platform or routing region
func NewClient(apiKey, region string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiKey:     apiKey,
		routing:    RoutingForRegion(region),
		maxRetries: 10,
		baseDelay:  100 * time.Millisecond,
		maxDelay:   60 * time.Second,
		sleep:      sleepContext,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) endpoint(path string) string {
	if c.baseURL != "" {
		return c.baseURL + path
	}
	return fmt.Sprintf("https://%s.api.riotgames.com%s", c.routing, path)
}

// AccountByRiotID resolves a riot id (name + tagline) to a puuid
func (c *Client) AccountByRiotID(ctx context.Context, name, tagline string) (string, error) {
	path := fmt.Sprintf("/riot/account/v1/accounts/by-riot-id/%s/%s",
		url.PathEscape(name), url.PathEscape(tagline))

	body, err := c.do(ctx, c.endpoint(path))
	if err != nil {
		return "", fmt.Errorf("account lookup failed: %w", err)
	}

	var account struct {
		PUUID string `json:"puuid"`
	}
	if err := json.Unmarshal(body, &account); err != nil {
		return "", fmt.Errorf("failed to decode account response: %w", err)
	}

	if account.PUUID == "" {
		return "", fmt.Errorf("account not found for %s#%s", name, tagline)
	}

	return account.PUUID, nil
}

// MatchIDs lists ranked match ids for a puuid, newest first
func (c *Client) MatchIDs(ctx context.Context, puuid string, start, count int) ([]string, error) {
	path := fmt.Sprintf("/lol/match/v5/matches/by-puuid/%s/ids?type=ranked&start=%d&count=%d",
		url.PathEscape(puuid), start, count)

	body, err := c.do(ctx, c.endpoint(path))
	if err != nil {
		return nil, fmt.Errorf("match id listing failed: %w", err)
	}

	var ids []string
	if err := json.Unmarshal(body, &ids); err != nil {
		return nil, fmt.Errorf("unexpected match listing response: %w", err)
	}

	return ids, nil
}

// Match fetches the raw payload of one match. The payload is returned as-is
// so it can be cached byte-identically.
func (c *Client) Match(ctx context.Context, matchID string) ([]byte, error) {
	path := "/lol/match/v5/matches/" + url.PathEscape(matchID)

	body, err := c.do(ctx, c.endpoint(path))
	if err != nil {
		return nil, fmt.Errorf("match fetch for %s failed: %w", matchID, err)
	}

	return body, nil
}
