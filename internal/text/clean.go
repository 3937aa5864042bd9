package text

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"lexiscope/internal/model"
)

// Default cleaning rules: account mentions and t.co shortener links
// (the shortener slug is always exactly 10 characters).
const (
	DefaultMentionPattern = `@\S+`
	DefaultLinkPattern    = `https://t\.co/\S{10}`

	// DefaultMinTextLength is the gate below which a cleaned post carries
	// no usable content (emoji-only or whitespace-only posts).
	DefaultMinTextLength = 5
)

var whitespace = regexp.MustCompile(`\s+`)

// Cleaner strips mentions and shortened links from post text and drops
// posts whose cleaned text is too short to analyze.
type Cleaner struct {
	mention *regexp.Regexp
	link    *regexp.Regexp
	minLen  int
}

// NewCleaner compiles the given patterns. Empty patterns fall back to the
// defaults; minLen is the inclusive rune-count gate (cleaned text of that
// length or shorter is dropped).
func NewCleaner(mentionPattern, linkPattern string, minLen int) (*Cleaner, error) {
	if mentionPattern == "" {
		mentionPattern = DefaultMentionPattern
	}
	if linkPattern == "" {
		linkPattern = DefaultLinkPattern
	}
	mention, err := regexp.Compile(mentionPattern)
	if err != nil {
		return nil, err
	}
	link, err := regexp.Compile(linkPattern)
	if err != nil {
		return nil, err
	}
	if minLen < 0 {
		minLen = 0
	}
	return &Cleaner{mention: mention, link: link, minLen: minLen}, nil
}

// DefaultCleaner returns a Cleaner with the default patterns and gate.
func DefaultCleaner() *Cleaner {
	return &Cleaner{
		mention: regexp.MustCompile(DefaultMentionPattern),
		link:    regexp.MustCompile(DefaultLinkPattern),
		minLen:  DefaultMinTextLength,
	}
}

// CleanText removes mentions and shortened links, then normalizes
// whitespace. Pure string transform.
func (c *Cleaner) CleanText(s string) string {
	s = c.mention.ReplaceAllString(s, "")
	s = c.link.ReplaceAllString(s, "")
	return NormalizeWhitespace(s)
}

// Keep reports whether a cleaned text passes the minimum-length gate.
func (c *Cleaner) Keep(cleaned string) bool {
	if cleaned == "" {
		return false
	}
	return utf8.RuneCountInString(cleaned) > c.minLen
}

// Clean transforms posts into cleaned posts, dropping any whose cleaned
// text is empty or at most minLen runes. Input order is preserved.
func (c *Cleaner) Clean(posts []model.Post) []model.CleanedPost {
	out := make([]model.CleanedPost, 0, len(posts))
	for _, p := range posts {
		cleaned := c.CleanText(p.Text)
		if !c.Keep(cleaned) {
			continue
		}
		out = append(out, model.CleanedPost{Post: p, CleanedText: cleaned})
	}
	return out
}

// NormalizeWhitespace trims and collapses whitespace to single spaces.
func NormalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}
