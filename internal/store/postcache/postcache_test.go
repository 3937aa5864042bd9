package postcache

import (
	"context"
	"testing"
	"time"

	"lexiscope/internal/model"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestAccounts(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	a := model.Account{ID: "42", Handle: "WordBird", DisplayName: "Word Bird"}
	if err := db.UpsertAccount(ctx, a); err != nil {
		t.Fatal(err)
	}

	got, ok, err := db.LookupAccount(ctx, "wordbird")
	if err != nil || !ok {
		t.Fatalf("lookup failed: %v ok=%v", err, ok)
	}
	if got != a {
		t.Errorf("got %+v, want %+v", got, a)
	}

	_, ok, err = db.LookupAccount(ctx, "nobody")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("unknown handle should not be found")
	}

	a.DisplayName = "Renamed Bird"
	if err := db.UpsertAccount(ctx, a); err != nil {
		t.Fatal(err)
	}
	if err := db.UpsertAccount(ctx, model.Account{ID: "7", Handle: "another"}); err != nil {
		t.Fatal(err)
	}
	all, err := db.Accounts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d accounts, want 2", len(all))
	}
	if all[0].Handle != "another" || all[1].DisplayName != "Renamed Bird" {
		t.Errorf("unexpected listing: %+v", all)
	}
}

func TestInsertPostsIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	posts := []model.Post{
		{ID: "100", AccountID: "42", CreatedAt: base, Text: "first"},
		{ID: "101", AccountID: "42", CreatedAt: base.Add(time.Minute), Text: "second"},
	}
	n, err := db.InsertPosts(ctx, posts)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("inserted %d, want 2", n)
	}

	// Same batch again plus one new post.
	posts = append(posts, model.Post{ID: "102", AccountID: "42", CreatedAt: base.Add(2 * time.Minute), Text: "third"})
	n, err = db.InsertPosts(ctx, posts)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("re-insert reported %d new, want 1", n)
	}

	count, err := db.CountPosts(ctx, "42")
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("stored %d posts, want 3", count)
	}
}

func TestLoadPostsOrderAndRepostFilter(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	posts := []model.Post{
		{ID: "9", AccountID: "42", CreatedAt: base, Text: "tie short id"},
		{ID: "10", AccountID: "42", CreatedAt: base, Text: "tie long id"},
		{ID: "5", AccountID: "42", CreatedAt: base.Add(time.Hour), Text: "newest"},
		{ID: "2", AccountID: "42", CreatedAt: base.Add(-time.Hour), Text: "reposted words", IsRepost: true},
		{ID: "3", AccountID: "99", CreatedAt: base, Text: "someone else"},
	}
	if _, err := db.InsertPosts(ctx, posts); err != nil {
		t.Fatal(err)
	}

	got, err := db.LoadPosts(ctx, "42", false)
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, p := range got {
		ids = append(ids, p.ID)
	}
	// Newest first; equal timestamps break toward the larger id.
	want := []string{"5", "10", "9"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}
	if got[0].CreatedAt != base.Add(time.Hour) {
		t.Errorf("timestamp lost in roundtrip: %v", got[0].CreatedAt)
	}

	withReposts, err := db.LoadPosts(ctx, "42", true)
	if err != nil {
		t.Fatal(err)
	}
	if len(withReposts) != 4 {
		t.Errorf("got %d posts with reposts, want 4", len(withReposts))
	}
	if last := withReposts[len(withReposts)-1]; !last.IsRepost {
		t.Errorf("oldest post should be the repost, got %+v", last)
	}
}

func TestCursors(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	v, err := db.LoadCursor(ctx, "42")
	if err != nil {
		t.Fatal(err)
	}
	if v != "" {
		t.Errorf("fresh cursor = %q, want empty", v)
	}
	if err := db.SaveCursor(ctx, "42", "123"); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveCursor(ctx, "42", "456"); err != nil {
		t.Fatal(err)
	}
	v, err = db.LoadCursor(ctx, "42")
	if err != nil || v != "456" {
		t.Fatalf("cursor mismatch: %v %s", err, v)
	}
}

func TestRuns(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	corr := -0.62

	runs := []Run{
		{ID: "run-a", StartedAt: start, FinishedAt: start.Add(time.Second), Accounts: 3, TargetTokens: 2500},
		{ID: "run-b", StartedAt: start.Add(time.Hour), FinishedAt: start.Add(time.Hour + time.Second), Accounts: 4, TargetTokens: 2500, Correlation: &corr},
	}
	for _, r := range runs {
		if err := db.RecordRun(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	got, err := db.Runs(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d runs, want 2", len(got))
	}
	if got[0].ID != "run-b" {
		t.Errorf("runs not newest first: %+v", got)
	}
	if got[0].Correlation == nil || *got[0].Correlation != corr {
		t.Errorf("correlation lost: %+v", got[0].Correlation)
	}
	if got[1].Correlation != nil {
		t.Errorf("absent correlation should stay nil: %+v", got[1].Correlation)
	}
}
