// Package lexstat computes lexical-diversity statistics over token
// streams: per-account Type-Token Ratio and cross-account comparisons.
package lexstat

import (
	"errors"
	"fmt"
	"iter"
	"math"

	"lexiscope/internal/corpus"
	"lexiscope/internal/model"
)

// ErrEmptyCorpus reports a window with zero tokens. TTR is undefined
// there; callers must be able to tell "no data" apart from a TTR of 0.
var ErrEmptyCorpus = errors.New("empty corpus: window contains no tokens")

// Counts consumes a token sequence and returns the distinct and total
// token counts. Tokens are compared exactly (they are already lowercase).
func Counts(tokens iter.Seq[string]) (unique, total int) {
	seen := make(map[string]struct{})
	for tok := range tokens {
		total++
		seen[tok] = struct{}{}
	}
	return len(seen), total
}

// Compute derives the TTR statistics for one account's window. The ratio
// is rounded to 3 decimal places. A window with no tokens returns
// ErrEmptyCorpus.
func Compute(w *corpus.Window, handle string) (model.TTRResult, error) {
	unique, total := Counts(w.Tokens())
	if total == 0 {
		return model.TTRResult{}, fmt.Errorf("account %s: %w", w.AccountID, ErrEmptyCorpus)
	}
	return model.TTRResult{
		AccountID:    w.AccountID,
		Handle:       handle,
		UniqueTokens: unique,
		TotalTokens:  total,
		TTR:          Round3(float64(unique) / float64(total)),
		RecordCount:  w.RecordCount(),
		OldestPost:   w.Oldest(),
		NewestPost:   w.Newest(),
		UnderTarget:  w.UnderTarget,
	}, nil
}

// Round3 rounds to 3 decimal places.
func Round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}
