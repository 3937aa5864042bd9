package postcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"lexiscope/internal/model"
)

// DB wraps a SQLite database used as a local post cache, so repeated
// analyses do not re-download timelines.
type DB struct{ sql *sql.DB }

func Open(path string) (*DB, error) {
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := d.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;`); err != nil {
		return nil, err
	}
	db := &DB{sql: d}
	if err := db.migrate(); err != nil {
		_ = d.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) Close() error { return d.sql.Close() }

func (d *DB) migrate() error {
	_, err := d.sql.Exec(`
	CREATE TABLE IF NOT EXISTS accounts (
	  id TEXT PRIMARY KEY,
	  handle TEXT NOT NULL UNIQUE COLLATE NOCASE,
	  display_name TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS posts (
	  id TEXT PRIMARY KEY,
	  account_id TEXT NOT NULL,
	  created_at INTEGER NOT NULL,
	  text TEXT NOT NULL,
	  is_repost INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_posts_account_created ON posts(account_id, created_at);
	CREATE TABLE IF NOT EXISTS cursors (
	  account_id TEXT PRIMARY KEY,
	  since_id TEXT NOT NULL,
	  updated_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS runs (
	  id TEXT PRIMARY KEY,
	  started_at INTEGER NOT NULL,
	  finished_at INTEGER NOT NULL,
	  accounts INTEGER NOT NULL,
	  target_tokens INTEGER NOT NULL,
	  correlation REAL
	);
	`)
	return err
}

// UpsertAccount inserts the account or refreshes its handle and
// display name if the id is already known.
func (d *DB) UpsertAccount(ctx context.Context, a model.Account) error {
	_, err := d.sql.ExecContext(ctx, `INSERT INTO accounts(id, handle, display_name) VALUES(?,?,?)
		ON CONFLICT(id) DO UPDATE SET handle=excluded.handle, display_name=excluded.display_name`,
		a.ID, a.Handle, a.DisplayName)
	return err
}

// LookupAccount finds an account by handle, case-insensitively.
func (d *DB) LookupAccount(ctx context.Context, handle string) (model.Account, bool, error) {
	row := d.sql.QueryRowContext(ctx, `SELECT id, handle, display_name FROM accounts WHERE handle=? COLLATE NOCASE`, handle)
	var a model.Account
	if err := row.Scan(&a.ID, &a.Handle, &a.DisplayName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Account{}, false, nil
		}
		return model.Account{}, false, err
	}
	return a, true, nil
}

func (d *DB) Accounts(ctx context.Context) ([]model.Account, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT id, handle, display_name FROM accounts ORDER BY handle COLLATE NOCASE`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Account
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.ID, &a.Handle, &a.DisplayName); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// InsertPosts stores posts, skipping ids already present, and reports
// how many rows were actually new.
func (d *DB) InsertPosts(ctx context.Context, posts []model.Post) (int, error) {
	if len(posts) == 0 {
		return 0, nil
	}
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO posts(id, account_id, created_at, text, is_repost) VALUES(?,?,?,?,?)
		ON CONFLICT(id) DO NOTHING`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()
	inserted := 0
	for _, p := range posts {
		res, err := stmt.ExecContext(ctx, p.ID, p.AccountID, p.CreatedAt.Unix(), p.Text, boolToInt(p.IsRepost))
		if err != nil {
			return 0, fmt.Errorf("insert post %s: %w", p.ID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// LoadPosts returns an account's cached posts newest first. Reposts
// are filtered out unless includeReposts is set.
func (d *DB) LoadPosts(ctx context.Context, accountID string, includeReposts bool) ([]model.Post, error) {
	q := `SELECT id, account_id, created_at, text, is_repost FROM posts WHERE account_id=?`
	if !includeReposts {
		q += ` AND is_repost=0`
	}
	q += ` ORDER BY created_at DESC, LENGTH(id) DESC, id DESC`
	rows, err := d.sql.QueryContext(ctx, q, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Post
	for rows.Next() {
		var p model.Post
		var created int64
		var repost int
		if err := rows.Scan(&p.ID, &p.AccountID, &created, &p.Text, &repost); err != nil {
			return nil, err
		}
		p.CreatedAt = time.Unix(created, 0).UTC()
		p.IsRepost = repost != 0
		out = append(out, p)
	}
	return out, rows.Err()
}

func (d *DB) CountPosts(ctx context.Context, accountID string) (int, error) {
	row := d.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts WHERE account_id=?`, accountID)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// LoadCursor returns the newest post id already fetched for the
// account, or "" when the account has never been fetched.
func (d *DB) LoadCursor(ctx context.Context, accountID string) (string, error) {
	row := d.sql.QueryRowContext(ctx, `SELECT since_id FROM cursors WHERE account_id=?`, accountID)
	var since string
	if err := row.Scan(&since); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return since, nil
}

func (d *DB) SaveCursor(ctx context.Context, accountID, sinceID string) error {
	_, err := d.sql.ExecContext(ctx, `INSERT INTO cursors(account_id, since_id, updated_at) VALUES(?,?,?)
		ON CONFLICT(account_id) DO UPDATE SET since_id=excluded.since_id, updated_at=excluded.updated_at`,
		accountID, sinceID, time.Now().Unix())
	return err
}

// Run records one completed analysis.
type Run struct {
	ID           string
	StartedAt    time.Time
	FinishedAt   time.Time
	Accounts     int
	TargetTokens int
	Correlation  *float64
}

func (d *DB) RecordRun(ctx context.Context, r Run) error {
	_, err := d.sql.ExecContext(ctx, `INSERT INTO runs(id, started_at, finished_at, accounts, target_tokens, correlation) VALUES(?,?,?,?,?,?)`,
		r.ID, r.StartedAt.Unix(), r.FinishedAt.Unix(), r.Accounts, r.TargetTokens, r.Correlation)
	return err
}

// Runs returns the most recent analysis runs, newest first.
func (d *DB) Runs(ctx context.Context, limit int) ([]Run, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT id, started_at, finished_at, accounts, target_tokens, correlation FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Run
	for rows.Next() {
		var r Run
		var started, finished int64
		var corr sql.NullFloat64
		if err := rows.Scan(&r.ID, &started, &finished, &r.Accounts, &r.TargetTokens, &corr); err != nil {
			return nil, err
		}
		r.StartedAt = time.Unix(started, 0).UTC()
		r.FinishedAt = time.Unix(finished, 0).UTC()
		if corr.Valid {
			v := corr.Float64
			r.Correlation = &v
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
