package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"lexiscope/internal/config"
	"lexiscope/internal/ingest"
	"lexiscope/internal/logging"
	"lexiscope/internal/metrics"
	"lexiscope/internal/store/postcache"
	"lexiscope/internal/xclient"
)

// RunFetchOnce resolves the configured handles and syncs each account's
// timeline into the cache, a few accounts at a time. One account failing
// does not stop the others; the run only errors when nothing could be
// fetched at all.
func RunFetchOnce(ctx context.Context, db *postcache.DB, client xclient.Client, cfg config.Config) error {
	start := time.Now()
	metrics.FetchRuns.Inc()

	accounts, missing, err := ingest.ResolveAccounts(ctx, db, client, cfg.Accounts)
	if err != nil {
		metrics.FetchErrors.Inc()
		return fmt.Errorf("resolve accounts: %w", err)
	}
	for _, h := range missing {
		logging.Warn("unknown_handle", map[string]any{"handle": h})
	}
	if len(accounts) == 0 {
		metrics.FetchErrors.Inc()
		return errors.New("no accounts could be resolved")
	}

	bar := progressbar.Default(int64(len(accounts)), "fetching")
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(cfg.Fetch.Concurrency)
	for _, acct := range accounts {
		g.Go(func() error {
			added, err := ingest.SyncAccount(ctx, db, client, acct, cfg.Fetch.PageSize, cfg.Fetch.MaxPosts)
			_ = bar.Add(1)
			if err != nil {
				metrics.FetchErrors.Inc()
				logging.Warn("fetch_account_error", map[string]any{"handle": acct.Handle, "error": err.Error()})
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", acct.Handle, err))
				mu.Unlock()
				return nil
			}
			metrics.AddPostsFetched(acct.Handle, added)
			logging.Info("fetch_account", map[string]any{"handle": acct.Handle, "new_posts": added})
			return nil
		})
	}
	_ = g.Wait()

	metrics.ObserveFetchDuration(start)
	logging.Info("fetch_once", map[string]any{"accounts": len(accounts), "failed": len(errs), "unknown": len(missing)})
	if len(errs) == len(accounts) {
		return fmt.Errorf("every account failed: %w", errors.Join(errs...))
	}
	return nil
}

// RunFetchLoop runs RunFetchOnce on a ticker until ctx is cancelled.
func RunFetchLoop(ctx context.Context, db *postcache.DB, client xclient.Client, cfg config.Config, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	// run immediately
	if err := RunFetchOnce(ctx, db, client, cfg); err != nil {
		logging.Error("fetch_once_error", map[string]any{"error": err.Error()})
	}
	for {
		select {
		case <-ctx.Done():
			logging.Info("fetch_loop_stop", nil)
			return ctx.Err()
		case <-t.C:
			if err := RunFetchOnce(ctx, db, client, cfg); err != nil {
				logging.Error("fetch_once_error", map[string]any{"error": err.Error()})
			}
		}
	}
}
