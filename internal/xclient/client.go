package xclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"lexiscope/internal/metrics"
	"lexiscope/internal/model"
)

// ErrNotFound reports a handle the API does not know.
var ErrNotFound = errors.New("xclient: not found")

// Client defines the methods we use from the X API.
type Client interface {
	GetUserByUsername(ctx context.Context, username string) (model.Account, error)
	GetUsersByUsernames(ctx context.Context, usernames []string) ([]model.Account, error)
	GetUserTimeline(ctx context.Context, userID string, p TimelineParams) (TimelinePage, error)
}

// TimelineParams selects one page of a user timeline.
type TimelineParams struct {
	PageSize        int
	PaginationToken string
	// SinceID restricts the page to posts newer than this id, which
	// is how incremental fetches skip what the cache already holds.
	SinceID string
}

// TimelinePage is one page of timeline results.
type TimelinePage struct {
	Posts []model.Post
	// NextToken pages further into the past; empty when exhausted.
	NextToken string
	// NewestID is the youngest post id on this page, used to advance
	// the fetch cursor.
	NewestID string
}

// HTTPClient is a simple bearer-token client for X API v2.
type HTTPClient struct {
	baseURL     string
	bearerToken string
	httpClient  *http.Client
	limiter     *rate.Limiter
	maxAttempts int
	baseBackoff time.Duration
}

func NewHTTPClient(bearerToken string) *HTTPClient {
	return &HTTPClient{
		baseURL:     "https://api.twitter.com/2",
		bearerToken: bearerToken,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		limiter:     newDefaultLimiter(),
		maxAttempts: getEnvInt("X_API_MAX_ATTEMPTS", 5),
		baseBackoff: time.Duration(getEnvInt("X_API_BASE_BACKOFF_MS", 500)) * time.Millisecond,
	}
}

func (c *HTTPClient) auth(req *http.Request) {
	if c.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	}
	req.Header.Set("Accept", "application/json")
}

type userData struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

func (d userData) account() model.Account {
	return model.Account{ID: d.ID, Handle: d.Username, DisplayName: d.Name}
}

func (c *HTTPClient) GetUserByUsername(ctx context.Context, username string) (model.Account, error) {
	var out model.Account
	if username == "" {
		return out, errors.New("empty username")
	}
	u := fmt.Sprintf("%s/users/by/username/%s", c.baseURL, url.PathEscape(username))
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	c.auth(req)
	if err := c.limiter.Wait(ctx); err != nil {
		return out, err
	}
	resp, err := c.doWithRetry(ctx, req)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return out, fmt.Errorf("user %s: %w", username, ErrNotFound)
	}
	if resp.StatusCode >= 400 {
		return out, fmt.Errorf("x api status %d", resp.StatusCode)
	}
	var raw struct {
		Data userData `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return out, err
	}
	// The API reports unknown handles as 200 with an errors body and
	// no data object.
	if raw.Data.ID == "" {
		return out, fmt.Errorf("user %s: %w", username, ErrNotFound)
	}
	return raw.Data.account(), nil
}

// GetUsersByUsernames resolves up to 100 handles in one request.
// Handles the API does not know are simply absent from the result.
func (c *HTTPClient) GetUsersByUsernames(ctx context.Context, usernames []string) ([]model.Account, error) {
	if len(usernames) == 0 {
		return nil, nil
	}
	if len(usernames) > 100 {
		usernames = usernames[:100]
	}
	joined := url.QueryEscape(strings.Join(usernames, ","))
	u := fmt.Sprintf("%s/users/by?usernames=%s", c.baseURL, joined)
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	c.auth(req)
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.doWithRetry(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("x api status %d", resp.StatusCode)
	}
	var raw struct {
		Data []userData `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	out := make([]model.Account, 0, len(raw.Data))
	for _, d := range raw.Data {
		out = append(out, d.account())
	}
	return out, nil
}

// GetUserTimeline returns one page of a user's own posts, newest
// first, with reposts flagged via referenced_tweets.
func (c *HTTPClient) GetUserTimeline(ctx context.Context, userID string, p TimelineParams) (TimelinePage, error) {
	var page TimelinePage
	q := url.Values{}
	q.Set("max_results", strconv.Itoa(clamp(p.PageSize, 5, 100)))
	q.Set("tweet.fields", "created_at,referenced_tweets")
	if p.PaginationToken != "" {
		q.Set("pagination_token", p.PaginationToken)
	}
	if p.SinceID != "" {
		q.Set("since_id", p.SinceID)
	}
	u := fmt.Sprintf("%s/users/%s/tweets?%s", c.baseURL, url.PathEscape(userID), q.Encode())
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	c.auth(req)
	if err := c.limiter.Wait(ctx); err != nil {
		return page, err
	}
	resp, err := c.doWithRetry(ctx, req)
	if err != nil {
		return page, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return page, fmt.Errorf("user id %s: %w", userID, ErrNotFound)
	}
	if resp.StatusCode >= 400 {
		return page, fmt.Errorf("x api status %d", resp.StatusCode)
	}
	var raw struct {
		Data []struct {
			ID               string    `json:"id"`
			Text             string    `json:"text"`
			CreatedAt        time.Time `json:"created_at"`
			ReferencedTweets []struct {
				Type string `json:"type"`
				ID   string `json:"id"`
			} `json:"referenced_tweets"`
		} `json:"data"`
		Meta struct {
			ResultCount int    `json:"result_count"`
			NewestID    string `json:"newest_id"`
			OldestID    string `json:"oldest_id"`
			NextToken   string `json:"next_token"`
		} `json:"meta"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return page, err
	}
	page.Posts = make([]model.Post, 0, len(raw.Data))
	for _, d := range raw.Data {
		repost := false
		for _, ref := range d.ReferencedTweets {
			if ref.Type == "retweeted" {
				repost = true
				break
			}
		}
		page.Posts = append(page.Posts, model.Post{
			ID:        d.ID,
			AccountID: userID,
			CreatedAt: d.CreatedAt.UTC(),
			Text:      d.Text,
			IsRepost:  repost,
		})
	}
	page.NextToken = raw.Meta.NextToken
	page.NewestID = raw.Meta.NewestID
	return page, nil
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func (c *HTTPClient) doWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	backoff := c.baseBackoff
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		resp, err := c.httpClient.Do(req.Clone(ctx))
		if err == nil {
			if resp.StatusCode == http.StatusTooManyRequests || (resp.StatusCode >= 500 && resp.StatusCode <= 599) {
				ra := resp.Header.Get("Retry-After")
				_ = resp.Body.Close()
				lastErr = fmt.Errorf("x api status %d", resp.StatusCode)
				metrics.IncAPIRetry(req.URL.Path)
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
		metrics.IncAPIRetry(req.URL.Path)
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
