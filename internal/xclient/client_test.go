package xclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// helper to create client with injected http client
func newTestClient(ts *httptest.Server) *HTTPClient {
	c := NewHTTPClient("test")
	c.maxAttempts = 3
	c.baseBackoff = 10 * time.Millisecond
	c.httpClient = ts.Client()
	c.baseURL = ts.URL
	return c
}

func TestDoWithRetryHandles429(t *testing.T) {
	attempts := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer ts.Close()

	c := newTestClient(ts)
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/test", nil)
	resp, err := c.doWithRetry(context.Background(), req)
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if attempts < 2 {
		t.Fatalf("expected at least 2 attempts, got %d", attempts)
	}
}

func TestGetUserByUsername(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/by/username/WordBird" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test" {
			t.Errorf("auth header = %q", got)
		}
		fmt.Fprint(w, `{"data":{"id":"42","name":"Word Bird","username":"WordBird"}}`)
	}))
	defer ts.Close()

	c := newTestClient(ts)
	got, err := c.GetUserByUsername(context.Background(), "WordBird")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "42" || got.Handle != "WordBird" || got.DisplayName != "Word Bird" {
		t.Errorf("unexpected account: %+v", got)
	}
}

func TestGetUserByUsernameNotFound(t *testing.T) {
	// The v2 API reports unknown handles inside a 200 body.
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"errors":[{"title":"Not Found Error","detail":"Could not find user"}]}`)
	}))
	defer ts.Close()

	c := newTestClient(ts)
	_, err := c.GetUserByUsername(context.Background(), "nobody")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGetUsersByUsernames(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("usernames"); got != "a,b,missing" {
			t.Errorf("usernames = %q", got)
		}
		fmt.Fprint(w, `{"data":[{"id":"1","name":"A","username":"a"},{"id":"2","name":"B","username":"b"}],"errors":[{"title":"Not Found Error"}]}`)
	}))
	defer ts.Close()

	c := newTestClient(ts)
	got, err := c.GetUsersByUsernames(context.Background(), []string{"a", "b", "missing"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d accounts, want 2", len(got))
	}
	if got[1].ID != "2" || got[1].Handle != "b" {
		t.Errorf("unexpected second account: %+v", got[1])
	}
}

func TestGetUserTimeline(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("max_results"); got != "100" {
			t.Errorf("max_results = %q", got)
		}
		if got := q.Get("tweet.fields"); got != "created_at,referenced_tweets" {
			t.Errorf("tweet.fields = %q", got)
		}
		if got := q.Get("since_id"); got != "90" {
			t.Errorf("since_id = %q", got)
		}
		if got := q.Get("pagination_token"); got != "tok1" {
			t.Errorf("pagination_token = %q", got)
		}
		fmt.Fprint(w, `{
			"data":[
				{"id":"102","text":"an original post","created_at":"2024-05-01T12:30:00.000Z"},
				{"id":"101","text":"RT @other: reposted words","created_at":"2024-05-01T12:00:00.000Z",
				 "referenced_tweets":[{"type":"retweeted","id":"55"}]},
				{"id":"100","text":"quoting with comment","created_at":"2024-05-01T11:00:00.000Z",
				 "referenced_tweets":[{"type":"quoted","id":"56"}]}
			],
			"meta":{"result_count":3,"newest_id":"102","oldest_id":"100","next_token":"tok2"}
		}`)
	}))
	defer ts.Close()

	c := newTestClient(ts)
	page, err := c.GetUserTimeline(context.Background(), "42", TimelineParams{
		PageSize:        250, // clamped to the API maximum
		PaginationToken: "tok1",
		SinceID:         "90",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Posts) != 3 {
		t.Fatalf("got %d posts, want 3", len(page.Posts))
	}
	if page.Posts[0].IsRepost || !page.Posts[1].IsRepost {
		t.Errorf("repost flags wrong: %+v", page.Posts)
	}
	// Quote posts are the account's own words, not reposts.
	if page.Posts[2].IsRepost {
		t.Error("quote post flagged as repost")
	}
	if page.Posts[1].AccountID != "42" {
		t.Errorf("account id = %q", page.Posts[1].AccountID)
	}
	if want := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC); !page.Posts[0].CreatedAt.Equal(want) {
		t.Errorf("created_at = %v, want %v", page.Posts[0].CreatedAt, want)
	}
	if page.NextToken != "tok2" || page.NewestID != "102" {
		t.Errorf("meta mapping wrong: %+v", page)
	}
}

func TestGetUserTimelineEmptyPage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"meta":{"result_count":0}}`)
	}))
	defer ts.Close()

	c := newTestClient(ts)
	page, err := c.GetUserTimeline(context.Background(), "42", TimelineParams{PageSize: 100})
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Posts) != 0 || page.NextToken != "" {
		t.Errorf("expected empty page, got %+v", page)
	}
}
