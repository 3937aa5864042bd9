package ingest

import (
	"context"
	"fmt"

	"lexiscope/internal/model"
	"lexiscope/internal/store/postcache"
	"lexiscope/internal/xclient"
)

// SyncAccount pulls an account's newest posts into the cache, paging
// backwards from the present until it runs out of new posts or hits
// maxPosts. The since cursor only advances after a complete sync, so
// a failed run is retried in full; duplicate inserts are skipped by
// the store either way.
func SyncAccount(ctx context.Context, db *postcache.DB, client xclient.Client, account model.Account, pageSize, maxPosts int) (int, error) {
	since, err := db.LoadCursor(ctx, account.ID)
	if err != nil {
		return 0, fmt.Errorf("load cursor for %s: %w", account.Handle, err)
	}

	var (
		added    int
		received int
		token    string
		newest   string
	)
	for {
		page, err := client.GetUserTimeline(ctx, account.ID, xclient.TimelineParams{
			PageSize:        pageSize,
			PaginationToken: token,
			SinceID:         since,
		})
		if err != nil {
			return added, fmt.Errorf("fetch timeline for %s: %w", account.Handle, err)
		}
		if newest == "" {
			newest = page.NewestID
		}
		n, err := db.InsertPosts(ctx, page.Posts)
		if err != nil {
			return added, fmt.Errorf("store posts for %s: %w", account.Handle, err)
		}
		added += n
		received += len(page.Posts)
		if page.NextToken == "" || received >= maxPosts {
			break
		}
		token = page.NextToken
	}

	if newest != "" {
		if err := db.SaveCursor(ctx, account.ID, newest); err != nil {
			return added, fmt.Errorf("save cursor for %s: %w", account.Handle, err)
		}
	}
	return added, nil
}
