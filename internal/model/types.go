package model

import "time"

// Account is a tracked public X account, resolved from its handle.
type Account struct {
	ID          string
	Handle      string
	DisplayName string
}

// Post represents one fetched post. Immutable once fetched.
type Post struct {
	ID        string
	AccountID string
	CreatedAt time.Time
	Text      string
	// IsRepost marks pure retweets. Quote posts carry authored text and
	// are not reposts.
	IsRepost bool
}

// CleanedPost is a Post whose text survived cleaning (mentions and
// shortened links stripped, whitespace normalized, length gate passed).
type CleanedPost struct {
	Post
	CleanedText string
}

// TTRResult holds the lexical-diversity statistics for one account's
// window. Derived per run, never mutated.
type TTRResult struct {
	AccountID    string    `json:"account_id"`
	Handle       string    `json:"handle"`
	UniqueTokens int       `json:"unique_token_count"`
	TotalTokens  int       `json:"total_token_count"`
	TTR          float64   `json:"ttr"`
	RecordCount  int       `json:"record_count"`
	OldestPost   time.Time `json:"oldest_timestamp"`
	NewestPost   time.Time `json:"newest_timestamp"`
	// UnderTarget flags a window that ran out of posts before reaching
	// the configured token target; the TTR is based on less text than
	// intended and should not be compared as a full-target result.
	UnderTarget bool `json:"under_target"`
}
