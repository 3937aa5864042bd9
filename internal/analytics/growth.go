package analytics

import (
	"sort"

	"lexiscope/internal/model"
	"lexiscope/internal/text"
)

// GrowthPoint is one step of a vocabulary growth curve.
type GrowthPoint struct {
	Posts          int `json:"posts"`
	TotalTokens    int `json:"total_tokens"`
	DistinctTokens int `json:"distinct_tokens"`
}

// VocabularyGrowth walks cleaned posts oldest to newest and records
// how the distinct-token count grows as the corpus accumulates. The
// flattening of this curve is what pins ratio comparisons to a fixed
// token target.
func VocabularyGrowth(posts []model.CleanedPost) []GrowthPoint {
	ordered := make([]model.CleanedPost, len(posts))
	copy(ordered, posts)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	seen := make(map[string]struct{})
	total := 0
	out := make([]GrowthPoint, 0, len(ordered))
	for i, p := range ordered {
		for tok := range text.Tokens(p.CleanedText) {
			total++
			seen[tok] = struct{}{}
		}
		out = append(out, GrowthPoint{Posts: i + 1, TotalTokens: total, DistinctTokens: len(seen)})
	}
	return out
}
