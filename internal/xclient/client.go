package xclient

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"twitbot/internal/config"
	"twitbot/internal/model"
)

// XClient defines the remote calls the bot consumes.
type XClient interface {
	GetUserByScreenName(ctx context.Context, screenName string) (model.User, error)
	Follow(ctx context.Context, userID string) error
	Unfollow(ctx context.Context, userID string) error
	Retweet(ctx context.Context, statusID string) error
	Favorite(ctx context.Context, statusID string) error
	Friendship(ctx context.Context, sourceID, targetID string) (Relationship, error)
	FollowersPage(ctx context.Context, userID, cursor string) ([]Follower, string, error)
	FriendIDs(ctx context.Context, userID string) ([]string, error)
	RateLimitStatus(ctx context.Context) (json.RawMessage, error)
}

// Relationship is the friendship state between us (source) and another
// account (target), from the source's perspective.
type Relationship struct {
	Following  bool // we follow them
	FollowedBy bool // they follow us
}

// Follower is one entry of a follower listing. Following reports
// whether the authenticated account already follows the entry.
type Follower struct {
	model.User
	Following bool
}

// Client is an OAuth 1.0a client for the X API v1.1.
type Client struct {
	baseURL        string
	streamURL      string
	consumerKey    string
	consumerSecret string
	accessToken    string
	accessSecret   string
	httpClient     *http.Client
	limiter        *rate.Limiter
	maxAttempts    int
	baseBackoff    time.Duration
	nowFn          func() time.Time
	nonceFn        func() string
}

func NewClient(creds config.CredentialsConfig) *Client {
	return &Client{
		baseURL:        "https://api.twitter.com/1.1",
		streamURL:      "https://stream.twitter.com/1.1",
		consumerKey:    creds.ConsumerKey,
		consumerSecret: creds.ConsumerSecret,
		accessToken:    creds.AccessToken,
		accessSecret:   creds.AccessSecret,
		httpClient:     &http.Client{Timeout: 15 * time.Second},
		limiter:        newDefaultLimiter(),
		maxAttempts:    getEnvInt("X_API_MAX_ATTEMPTS", 5),
		baseBackoff:    time.Duration(getEnvInt("X_API_BASE_BACKOFF_MS", 500)) * time.Millisecond,
		nowFn:          time.Now,
		nonceFn:        func() string { return strconv.FormatInt(rand.Int63(), 36) },
	}
}

// call issues one signed request. Parameters ride in the query string
// for both GET and POST, matching what the v1.1 endpoints accept.
// Reads go through the retry loop; writes are issued exactly once so a
// flaky action is never duplicated.
func (c *Client) call(ctx context.Context, method, path string, params map[string]string, retry bool) (*http.Response, error) {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + encodeQuery(params)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return nil, err
	}
	c.oauth1Sign(req, params)
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	var resp *http.Response
	if retry {
		resp, err = c.doWithRetry(ctx, req)
	} else {
		resp, err = c.httpClient.Do(req)
	}
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		apiErr := newAPIError(resp)
		_ = resp.Body.Close()
		return nil, apiErr
	}
	return resp, nil
}

func (c *Client) GetUserByScreenName(ctx context.Context, screenName string) (model.User, error) {
	var out model.User
	if screenName == "" {
		return out, fmt.Errorf("empty screen name")
	}
	resp, err := c.call(ctx, http.MethodGet, "/users/show.json", map[string]string{"screen_name": screenName}, true)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()
	var raw rawUser
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return out, err
	}
	return raw.toModel(), nil
}

func (c *Client) Follow(ctx context.Context, userID string) error {
	resp, err := c.call(ctx, http.MethodPost, "/friendships/create.json", map[string]string{"user_id": userID}, false)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

func (c *Client) Unfollow(ctx context.Context, userID string) error {
	resp, err := c.call(ctx, http.MethodPost, "/friendships/destroy.json", map[string]string{"user_id": userID}, false)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

func (c *Client) Retweet(ctx context.Context, statusID string) error {
	resp, err := c.call(ctx, http.MethodPost, "/statuses/retweet/"+statusID+".json", nil, false)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

func (c *Client) Favorite(ctx context.Context, statusID string) error {
	resp, err := c.call(ctx, http.MethodPost, "/favorites/create.json", map[string]string{"id": statusID}, false)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

func (c *Client) Friendship(ctx context.Context, sourceID, targetID string) (Relationship, error) {
	var out Relationship
	params := map[string]string{"source_id": sourceID, "target_id": targetID}
	resp, err := c.call(ctx, http.MethodGet, "/friendships/show.json", params, true)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()
	var raw struct {
		Relationship struct {
			Source struct {
				Following  bool `json:"following"`
				FollowedBy bool `json:"followed_by"`
			} `json:"source"`
		} `json:"relationship"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return out, err
	}
	out.Following = raw.Relationship.Source.Following
	out.FollowedBy = raw.Relationship.Source.FollowedBy
	return out, nil
}

// FollowersPage returns one page of userID's followers in stream order
// plus the cursor for the next page; an empty next cursor or "0" marks
// the end of the listing.
func (c *Client) FollowersPage(ctx context.Context, userID, cursor string) ([]Follower, string, error) {
	params := map[string]string{"user_id": userID, "count": "200", "skip_status": "true"}
	if cursor != "" {
		params["cursor"] = cursor
	}
	resp, err := c.call(ctx, http.MethodGet, "/followers/list.json", params, true)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	var raw struct {
		Users []struct {
			rawUser
			Following bool `json:"following"`
		} `json:"users"`
		NextCursorStr string `json:"next_cursor_str"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, "", err
	}
	out := make([]Follower, 0, len(raw.Users))
	for _, u := range raw.Users {
		out = append(out, Follower{User: u.toModel(), Following: u.Following})
	}
	next := raw.NextCursorStr
	if next == "0" {
		next = ""
	}
	return out, next, nil
}

func (c *Client) FriendIDs(ctx context.Context, userID string) ([]string, error) {
	params := map[string]string{"user_id": userID, "stringify_ids": "true"}
	resp, err := c.call(ctx, http.MethodGet, "/friends/ids.json", params, true)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var raw struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	return raw.IDs, nil
}

// RateLimitStatus fetches the per-endpoint rate-limit snapshot; it is
// logged when a call is classified as rate limited.
func (c *Client) RateLimitStatus(ctx context.Context) (json.RawMessage, error) {
	resp, err := c.call(ctx, http.MethodGet, "/application/rate_limit_status.json", nil, true)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

type rawUser struct {
	IDStr          string `json:"id_str"`
	ScreenName     string `json:"screen_name"`
	Name           string `json:"name"`
	Location       string `json:"location"`
	FollowersCount int    `json:"followers_count"`
	FriendsCount   int    `json:"friends_count"`
}

func (u rawUser) toModel() model.User {
	return model.User{
		ID:             u.IDStr,
		ScreenName:     u.ScreenName,
		Name:           u.Name,
		Location:       u.Location,
		FollowersCount: u.FollowersCount,
		FriendsCount:   u.FriendsCount,
	}
}

func (c *Client) doWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	backoff := c.baseBackoff
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		resp, err := c.httpClient.Do(req.Clone(ctx))
		if err == nil {
			if resp.StatusCode == http.StatusTooManyRequests || (resp.StatusCode >= 500 && resp.StatusCode <= 599) {
				ra := resp.Header.Get("Retry-After")
				_ = resp.Body.Close()
				wait := backoff
				if ra != "" {
					if secs, err := strconv.Atoi(ra); err == nil {
						wait = time.Duration(secs) * time.Second
					} else if t, err := http.ParseTime(ra); err == nil {
						if d := time.Until(t); d > 0 {
							wait = d
						}
					}
				}
				// jitter +/-20%
				jitter := time.Duration(float64(wait) * 0.2)
				if jitter > 0 {
					wait = wait - jitter + time.Duration(time.Now().UnixNano()%int64(2*jitter))
				}
				select {
				case <-time.After(wait):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
				backoff *= 2
				continue
			}
			return resp, nil
		}
		lastErr = err
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("request failed after %d attempts: %v", c.maxAttempts, lastErr)
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if i, err := strconv.Atoi(v); err == nil && i > 0 {
		return i
	}
	return def
}
