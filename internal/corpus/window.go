// Package corpus assembles the bounded per-account text window that the
// lexical statistics are computed over.
package corpus

import (
	"errors"
	"iter"
	"slices"
	"strings"
	"time"

	"lexiscope/internal/model"
	"lexiscope/internal/text"
)

// ErrBadTarget is returned when the token target is not positive.
var ErrBadTarget = errors.New("token target must be positive")

// Window is an ordered selection of cleaned posts for one account,
// newest-first, truncated at the first prefix whose cumulative token count
// reaches the target. The total may overshoot the target by at most the
// last included post's token count.
type Window struct {
	AccountID   string
	Posts       []model.CleanedPost
	TokenCount  int
	Target      int
	UnderTarget bool
}

// Build normalizes posts to newest-first order (created-at descending,
// post ID descending on timestamp ties, so identical inputs always yield
// the identical window) and selects the minimal prefix with at least
// target tokens. If the posts never reach the target the window holds the
// entire set and is flagged UnderTarget.
func Build(accountID string, posts []model.CleanedPost, target int) (*Window, error) {
	if target <= 0 {
		return nil, ErrBadTarget
	}

	sorted := slices.Clone(posts)
	slices.SortFunc(sorted, func(a, b model.CleanedPost) int {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if a.CreatedAt.After(b.CreatedAt) {
				return -1
			}
			return 1
		}
		return compareIDDesc(a.ID, b.ID)
	})

	w := &Window{AccountID: accountID, Target: target}
	total := 0
	for i, p := range sorted {
		total += text.CountTokens(p.CleanedText)
		if total >= target {
			w.Posts = sorted[:i+1]
			w.TokenCount = total
			return w, nil
		}
	}
	w.Posts = sorted
	w.TokenCount = total
	w.UnderTarget = true
	return w, nil
}

// Tokens yields the window's full token stream: per-post token sequences
// concatenated in window order. Restartable like text.Tokens.
func (w *Window) Tokens() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, p := range w.Posts {
			for tok := range text.Tokens(p.CleanedText) {
				if !yield(tok) {
					return
				}
			}
		}
	}
}

// RecordCount returns the number of posts in the window.
func (w *Window) RecordCount() int { return len(w.Posts) }

// Newest returns the creation time of the most recent post in the window,
// or the zero time for an empty window.
func (w *Window) Newest() time.Time {
	if len(w.Posts) == 0 {
		return time.Time{}
	}
	return w.Posts[0].CreatedAt
}

// Oldest returns the creation time of the oldest post in the window, or
// the zero time for an empty window.
func (w *Window) Oldest() time.Time {
	if len(w.Posts) == 0 {
		return time.Time{}
	}
	return w.Posts[len(w.Posts)-1].CreatedAt
}

// compareIDDesc orders post IDs descending. IDs are decimal snowflakes,
// so a longer ID is always the larger number.
func compareIDDesc(a, b string) int {
	if len(a) != len(b) {
		if len(a) > len(b) {
			return -1
		}
		return 1
	}
	return -strings.Compare(a, b)
}
