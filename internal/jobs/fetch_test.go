package jobs

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"lexiscope/internal/config"
	"lexiscope/internal/model"
	"lexiscope/internal/store/postcache"
	"lexiscope/internal/xclient"
)

// fake X client for job tests; safe for concurrent fetches.
type fakeClient struct {
	mu       sync.Mutex
	accounts map[string]model.Account
	pages    map[string][]xclient.TimelinePage
	fail     map[string]bool
	served   map[string]int
}

func (f *fakeClient) GetUserByUsername(ctx context.Context, username string) (model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[username]
	if !ok {
		return model.Account{}, xclient.ErrNotFound
	}
	return a, nil
}

func (f *fakeClient) GetUsersByUsernames(ctx context.Context, usernames []string) ([]model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Account
	for _, u := range usernames {
		if a, ok := f.accounts[u]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeClient) GetUserTimeline(ctx context.Context, userID string, p xclient.TimelineParams) (xclient.TimelinePage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[userID] {
		return xclient.TimelinePage{}, errors.New("boom")
	}
	if f.served == nil {
		f.served = make(map[string]int)
	}
	idx := f.served[userID]
	f.served[userID]++
	queue := f.pages[userID]
	if idx >= len(queue) {
		return xclient.TimelinePage{}, nil
	}
	return queue[idx], nil
}

func jobsDB(t *testing.T) *postcache.DB {
	t.Helper()
	db, err := postcache.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func fetchConfig(handles ...string) config.Config {
	cfg := config.Default()
	cfg.Accounts = handles
	return cfg
}

func TestRunFetchOnceToleratesOneFailure(t *testing.T) {
	db := jobsDB(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	fx := &fakeClient{
		accounts: map[string]model.Account{
			"good": {ID: "1", Handle: "good"},
			"bad":  {ID: "2", Handle: "bad"},
		},
		pages: map[string][]xclient.TimelinePage{
			"1": {{Posts: []model.Post{
				{ID: "11", AccountID: "1", CreatedAt: base, Text: "some words here"},
				{ID: "10", AccountID: "1", CreatedAt: base.Add(-time.Hour), Text: "more words"},
			}, NewestID: "11"}},
		},
		fail: map[string]bool{"2": true},
	}

	if err := RunFetchOnce(context.Background(), db, fx, fetchConfig("good", "bad")); err != nil {
		t.Fatalf("one failing account should not fail the run: %v", err)
	}

	n, err := db.CountPosts(context.Background(), "1")
	if err != nil || n != 2 {
		t.Errorf("good account posts = %d (%v), want 2", n, err)
	}
	cur, _ := db.LoadCursor(context.Background(), "1")
	if cur != "11" {
		t.Errorf("cursor = %q, want 11", cur)
	}
	if cur, _ := db.LoadCursor(context.Background(), "2"); cur != "" {
		t.Errorf("failed account cursor = %q, want unset", cur)
	}
}

func TestRunFetchOnceEveryAccountFails(t *testing.T) {
	db := jobsDB(t)
	fx := &fakeClient{
		accounts: map[string]model.Account{"a": {ID: "1", Handle: "a"}, "b": {ID: "2", Handle: "b"}},
		fail:     map[string]bool{"1": true, "2": true},
	}
	err := RunFetchOnce(context.Background(), db, fx, fetchConfig("a", "b"))
	if err == nil || !strings.Contains(err.Error(), "every account failed") {
		t.Fatalf("err = %v", err)
	}
}

func TestRunFetchOnceNothingResolves(t *testing.T) {
	db := jobsDB(t)
	fx := &fakeClient{}
	if err := RunFetchOnce(context.Background(), db, fx, fetchConfig("ghost")); err == nil {
		t.Fatal("expected error when no handle resolves")
	}
}

func TestRunFetchLoopStopsOnCancel(t *testing.T) {
	db := jobsDB(t)
	fx := &fakeClient{accounts: map[string]model.Account{"a": {ID: "1", Handle: "a"}}}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- RunFetchLoop(ctx, db, fx, fetchConfig("a"), 10*time.Millisecond)
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop after cancel")
	}
}
