package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"lexiscope/internal/model"
)

// WriteCSV writes one row per account to dir/results.csv.
func WriteCSV(p Payload, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, "results.csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"handle", "account_id", "ttr", "unique_tokens", "total_tokens", "record_count", "oldest", "newest", "under_target"}
	if err := w.Write(header); err != nil {
		return "", err
	}
	for _, r := range p.Results {
		row := []string{
			r.Handle,
			r.AccountID,
			strconv.FormatFloat(r.TTR, 'f', 3, 64),
			strconv.Itoa(r.UniqueTokens),
			strconv.Itoa(r.TotalTokens),
			strconv.Itoa(r.RecordCount),
			r.OldestPost.UTC().Format(time.RFC3339),
			r.NewestPost.UTC().Format(time.RFC3339),
			strconv.FormatBool(r.UnderTarget),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return path, nil
}

// AccountPosts pairs an account with its cached posts for export.
type AccountPosts struct {
	Account model.Account
	Posts   []model.Post
}

// WritePostsCSV dumps cached posts to path, one row per post, in the
// order given.
func WritePostsCSV(path string, dump []AccountPosts) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"handle", "account_id", "post_id", "created_at", "is_repost", "text"}); err != nil {
		return err
	}
	for _, ap := range dump {
		for _, p := range ap.Posts {
			row := []string{
				ap.Account.Handle,
				p.AccountID,
				p.ID,
				p.CreatedAt.UTC().Format(time.RFC3339),
				strconv.FormatBool(p.IsRepost),
				p.Text,
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return w.Error()
}
