package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"lexiscope/internal/analytics"
	"lexiscope/internal/config"
	"lexiscope/internal/corpus"
	"lexiscope/internal/lexstat"
	"lexiscope/internal/logging"
	"lexiscope/internal/model"
	"lexiscope/internal/report"
	"lexiscope/internal/store/postcache"
	"lexiscope/internal/text"
)

// RunAnalysis computes each configured account's type-token ratio from
// cached posts, correlates corpus size against the ratios, and records
// the run. The analysis never touches the network; accounts with
// nothing usable in the cache are reported in the payload instead of
// failing the others.
func RunAnalysis(ctx context.Context, db *postcache.DB, cfg config.Config) (report.Payload, error) {
	started := time.Now().UTC()
	runID := uuid.NewString()

	cleaner, err := text.NewCleaner(cfg.Analysis.MentionPattern, cfg.Analysis.LinkPattern, cfg.Analysis.MinTextLength)
	if err != nil {
		return report.Payload{}, err
	}

	var results []model.TTRResult
	growth := make(map[string][]analytics.GrowthPoint)
	skipped := make(map[string]string)
	for _, handle := range cfg.Accounts {
		acct, ok, err := db.LookupAccount(ctx, handle)
		if err != nil {
			return report.Payload{}, err
		}
		if !ok {
			skipped[handle] = "never fetched"
			logging.Warn("analyze_skip", map[string]any{"handle": handle, "reason": "never fetched"})
			continue
		}
		posts, err := db.LoadPosts(ctx, acct.ID, !cfg.Analysis.ExcludeReposts)
		if err != nil {
			return report.Payload{}, fmt.Errorf("load posts for %s: %w", handle, err)
		}
		window, err := corpus.Build(acct.ID, cleaner.Clean(posts), cfg.Analysis.TargetTokens)
		if err != nil {
			return report.Payload{}, err
		}
		res, err := lexstat.Compute(window, acct.Handle)
		if err != nil {
			skipped[handle] = "empty corpus"
			logging.Warn("analyze_skip", map[string]any{"handle": handle, "reason": err.Error()})
			continue
		}
		if res.UnderTarget {
			logging.Warn("under_target", map[string]any{
				"handle": handle, "tokens": res.TotalTokens, "target": cfg.Analysis.TargetTokens,
			})
		}
		results = append(results, res)
		growth[acct.Handle] = analytics.VocabularyGrowth(window.Posts)
	}

	corr, corrErr := lexstat.Correlate(results)
	p := report.New(runID, cfg.Analysis.TargetTokens, results, corr, corrErr)
	p.Growth = growth
	p.Skipped = skipped
	if len(results) == 0 {
		return p, errors.New("no account produced a usable corpus")
	}

	run := postcache.Run{
		ID:           runID,
		StartedAt:    started,
		FinishedAt:   time.Now().UTC(),
		Accounts:     len(results),
		TargetTokens: cfg.Analysis.TargetTokens,
	}
	if corrErr == nil {
		run.Correlation = &corr
	}
	if err := db.RecordRun(ctx, run); err != nil {
		logging.Warn("record_run_error", map[string]any{"error": err.Error()})
	}
	logging.Info("analysis_run", map[string]any{
		"run_id": runID, "accounts": len(results), "skipped": len(skipped),
	})
	return p, nil
}
