// Package wikitree implements the JSON-over-HTTP client for the profile
// API: single profile fetch, batched expand, biography fetch, watchlist
// enumeration, and the external text-query endpoint. Every request is
// paced through a token bucket before it is issued.
package wikitree

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent identifies the checker to the API.
const DefaultUserAgent = "biocheck/1.0"

// profileFields is the fixed field list requested for every profile.
const profileFields = "Id,Name,IsLiving,Privacy,Manager,BirthDate,DeathDate,Father,Mother,Bio"

// Options configures the client.
type Options struct {
	BaseURL           string
	SearchURL         string
	Timeout           time.Duration
	UserAgent         string
	RequestsPerSecond float64
	Burst             int
}

// DefaultOptions returns sensible defaults for the public API.
func DefaultOptions() *Options {
	return &Options{
		BaseURL:           "https://api.wikitree.com/api.php",
		SearchURL:         "https://plus.wikitree.com/function/WTWebProfileSearch/Profiles.json",
		Timeout:           DefaultTimeout,
		UserAgent:         DefaultUserAgent,
		RequestsPerSecond: 2,
		Burst:             4,
	}
}

// Client talks to the profile API. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	opts       Options
	pacer      *pacer
	log        *slog.Logger
}

// NewClient builds a client. A nil opts uses DefaultOptions; a nil
// logger discards log output.
func NewClient(opts *Options, logger *slog.Logger) *Client {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		opts:       *opts,
		pacer:      newPacer(opts.RequestsPerSecond, opts.Burst),
		log:        logger,
	}
}

// GetProfile fetches one profile by numeric id or display name.
func (c *Client) GetProfile(ctx context.Context, key string) (Profile, error) {
	form := url.Values{
		"action": {"getProfile"},
		"key":    {key},
		"fields": {profileFields},
		"bioFormat": {"wiki"},
	}
	var resp []struct {
		Status  apiStatus `json:"status"`
		Profile *Profile  `json:"profile"`
	}
	if err := c.post(ctx, "getProfile", key, form, &resp); err != nil {
		return Profile{}, err
	}
	if len(resp) == 0 {
		return Profile{}, &Error{Op: "getProfile", Key: key, Message: "empty response"}
	}
	if err := statusError("getProfile", key, string(resp[0].Status)); err != nil {
		return Profile{}, err
	}
	if resp[0].Profile == nil {
		// The server may omit the profile even on success.
		return Profile{}, &Error{Op: "getProfile", Key: key, Message: "no profile in response"}
	}
	return *resp[0].Profile, nil
}

// PeopleRequest configures a batched expand fetch.
type PeopleRequest struct {
	Keys          []string
	Ancestors     int
	Descendants   int
	Nuclear       int
	MinGeneration int
	Limit         int
	Start         int
}

// GetPeople issues one batched expand request and returns the profiles
// keyed by id. ErrRateLimited and ErrMaxProfiles surface the server's
// limit statuses.
func (c *Client) GetPeople(ctx context.Context, req PeopleRequest) (map[int64]Profile, error) {
	keys := strings.Join(req.Keys, ",")
	form := url.Values{
		"action":    {"getPeople"},
		"keys":      {keys},
		"fields":    {profileFields},
		"bioFormat": {"wiki"},
	}
	if req.Ancestors > 0 {
		form.Set("ancestors", strconv.Itoa(req.Ancestors))
	}
	if req.Descendants > 0 {
		form.Set("descendants", strconv.Itoa(req.Descendants))
	}
	if req.Nuclear > 0 {
		form.Set("nuclear", strconv.Itoa(req.Nuclear))
	}
	if req.MinGeneration > 0 {
		form.Set("minGeneration", strconv.Itoa(req.MinGeneration))
	}
	if req.Limit > 0 {
		form.Set("limit", strconv.Itoa(req.Limit))
	}
	if req.Start > 0 {
		form.Set("start", strconv.Itoa(req.Start))
	}

	var resp []struct {
		Status apiStatus          `json:"status"`
		People map[string]Profile `json:"people"`
	}
	if err := c.post(ctx, "getPeople", truncateKey(keys), form, &resp); err != nil {
		return nil, err
	}
	if len(resp) == 0 {
		return nil, &Error{Op: "getPeople", Key: truncateKey(keys), Message: "empty response"}
	}
	if err := statusError("getPeople", truncateKey(keys), string(resp[0].Status)); err != nil {
		return nil, err
	}

	people := make(map[int64]Profile, len(resp[0].People))
	for _, profile := range resp[0].People {
		if profile.ID != 0 {
			people[int64(profile.ID)] = profile
		}
	}
	return people, nil
}

// GetBio fetches one profile's biography text. ErrPermissionDenied
// marks a privacy exclusion, not an error.
func (c *Client) GetBio(ctx context.Context, key string) (string, error) {
	form := url.Values{
		"action": {"getBio"},
		"key":    {key},
	}
	var resp []struct {
		Status apiStatus `json:"status"`
		Bio    string    `json:"bio"`
	}
	if err := c.post(ctx, "getBio", key, form, &resp); err != nil {
		return "", err
	}
	if len(resp) == 0 {
		return "", &Error{Op: "getBio", Key: key, Message: "empty response"}
	}
	if err := statusError("getBio", key, string(resp[0].Status)); err != nil {
		return "", err
	}
	return resp[0].Bio, nil
}

// GetWatchlist fetches one page of the caller's watchlist and the total
// watchlist size.
func (c *Client) GetWatchlist(ctx context.Context, offset, limit int) (int, []Profile, error) {
	form := url.Values{
		"action": {"getWatchlist"},
		"fields": {profileFields},
		"offset": {strconv.Itoa(offset)},
		"limit":  {strconv.Itoa(limit)},
	}
	var resp []struct {
		Status         apiStatus `json:"status"`
		WatchlistCount flexInt   `json:"watchlistCount"`
		Watchlist      []Profile `json:"watchlist"`
	}
	if err := c.post(ctx, "getWatchlist", "watchlist", form, &resp); err != nil {
		return 0, nil, err
	}
	if len(resp) == 0 {
		return 0, nil, &Error{Op: "getWatchlist", Key: "watchlist", Message: "empty response"}
	}
	if err := statusError("getWatchlist", "watchlist", string(resp[0].Status)); err != nil {
		return 0, nil, err
	}
	return int(resp[0].WatchlistCount), resp[0].Watchlist, nil
}

// SearchPerson queries the external search endpoint and returns the
// matching profile ids and the total found count.
func (c *Client) SearchPerson(ctx context.Context, query string, maxResults int) (int, []int64, error) {
	if err := c.pacer.wait(ctx); err != nil {
		return 0, nil, err
	}

	u, err := url.Parse(c.opts.SearchURL)
	if err != nil {
		return 0, nil, &Error{Op: "search", Key: query, Message: "invalid search URL", Cause: err}
	}
	q := u.Query()
	q.Set("Query", query)
	q.Set("MaxProfiles", strconv.Itoa(maxResults))
	q.Set("Format", "JSON")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, nil, &Error{Op: "search", Key: query, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)

	body, err := c.do(req, "search", query)
	if err != nil {
		return 0, nil, err
	}

	var resp struct {
		Response struct {
			Found    int `json:"found"`
			Profiles []struct {
				ID flexInt `json:"Id"`
			} `json:"profiles"`
		} `json:"response"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, nil, &Error{Op: "search", Key: query, Message: "malformed JSON response", Cause: err}
	}

	ids := make([]int64, 0, len(resp.Response.Profiles))
	for _, p := range resp.Response.Profiles {
		if p.ID != 0 {
			ids = append(ids, int64(p.ID))
		}
	}
	return resp.Response.Found, ids, nil
}

func (c *Client) post(ctx context.Context, op, key string, form url.Values, out any) error {
	if err := c.pacer.wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return &Error{Op: op, Key: key, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.opts.UserAgent)

	body, err := c.do(req, op, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{Op: op, Key: key, Message: "malformed JSON response", Cause: err}
	}
	return nil
}

func (c *Client) do(req *http.Request, op, key string) ([]byte, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Op: op, Key: key, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Op: op, Key: key, Message: "failed to read response body", Cause: err}
	}
	c.log.Debug("api request", "op", op, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Op: op, Key: key, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}
	return body, nil
}

func truncateKey(keys string) string {
	if len(keys) <= 60 {
		return keys
	}
	return keys[:60] + "..."
}
