package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/AzielCF/az-postr/agent/domain"
	"github.com/AzielCF/az-postr/agent/domain/common"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Init(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS scheduled_posts (
			id TEXT PRIMARY KEY,
			thread_id TEXT DEFAULT '',
			thread_index INTEGER DEFAULT 0,
			thread_len INTEGER DEFAULT 0,
			topic TEXT DEFAULT '',
			text TEXT DEFAULT '',
			in_reply_to TEXT DEFAULT '',
			target_at DATETIME NOT NULL,
			status TEXT DEFAULT 'pending',
			kind TEXT DEFAULT 'scheduled',
			platform_id TEXT DEFAULT '',
			error TEXT DEFAULT '',
			retries INTEGER DEFAULT 0,
			next_attempt_at DATETIME,
			claimed_at DATETIME,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_posts_claim ON scheduled_posts(status, target_at, created_at, id);`,
		`CREATE INDEX IF NOT EXISTS idx_posts_thread ON scheduled_posts(thread_id, thread_index);`,
		`CREATE TABLE IF NOT EXISTS daily_quotas (
			date TEXT PRIMARY KEY,
			max_posts INTEGER NOT NULL,
			published INTEGER DEFAULT 0,
			updated_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS processed_events (
			event_id TEXT PRIMARY KEY,
			processed_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS stream_cursors (
			stream TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS reply_ledger (
			sender_id TEXT NOT NULL,
			date TEXT NOT NULL,
			replies INTEGER DEFAULT 0,
			last_reply_at DATETIME,
			PRIMARY KEY (sender_id, date)
		);`,
	}

	for _, query := range queries {
		if _, err := r.db.ExecContext(ctx, query); err != nil {
			if strings.Contains(err.Error(), "duplicate column") {
				continue
			}
			return fmt.Errorf("failed to init schema: %w", err)
		}
	}
	return nil
}

const postColumns = `id, thread_id, thread_index, thread_len, topic, text, in_reply_to, target_at, status, kind, platform_id, error, retries, next_attempt_at, claimed_at, created_at, updated_at`

func scanPost(row interface{ Scan(...any) error }) (common.ScheduledPost, error) {
	var post common.ScheduledPost
	var nextAttempt, claimed sql.NullTime
	err := row.Scan(&post.ID, &post.ThreadID, &post.ThreadIndex, &post.ThreadLen,
		&post.Topic, &post.Text, &post.InReplyTo, &post.TargetAt, &post.Status,
		&post.Kind, &post.PlatformID, &post.Error, &post.Retries,
		&nextAttempt, &claimed, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return common.ScheduledPost{}, err
	}
	if nextAttempt.Valid {
		post.NextAttemptAt = nextAttempt.Time
	}
	if claimed.Valid {
		post.ClaimedAt = claimed.Time
	}
	return post, nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

// Scheduled Post CRUD

func (r *SQLiteRepository) EnqueuePost(ctx context.Context, post common.ScheduledPost) error {
	query := `INSERT INTO scheduled_posts (` + postColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		post.ID, post.ThreadID, post.ThreadIndex, post.ThreadLen, post.Topic,
		post.Text, post.InReplyTo, post.TargetAt.UTC(), post.Status, post.Kind,
		post.PlatformID, post.Error, post.Retries,
		nullTime(post.NextAttemptAt), nullTime(post.ClaimedAt),
		post.CreatedAt.UTC(), post.UpdatedAt.UTC())
	return err
}

func (r *SQLiteRepository) GetPost(ctx context.Context, id string) (common.ScheduledPost, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM scheduled_posts WHERE id = ?`, id)
	post, err := scanPost(row)
	if err == sql.ErrNoRows {
		return common.ScheduledPost{}, common.ErrPostNotFound
	}
	return post, err
}

func (r *SQLiteRepository) ListPosts(ctx context.Context, filter domain.PostFilter) ([]common.ScheduledPost, error) {
	query := `SELECT ` + postColumns + ` FROM scheduled_posts`
	var clauses []string
	var args []any
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Kind != "" {
		clauses = append(clauses, "kind = ?")
		args = append(args, filter.Kind)
	}
	if filter.ThreadID != "" {
		clauses = append(clauses, "thread_id = ?")
		args = append(args, filter.ThreadID)
	}
	if filter.Date != "" {
		clauses = append(clauses, "date(target_at) = ?")
		args = append(args, filter.Date)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY target_at ASC, created_at ASC, id ASC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []common.ScheduledPost
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (r *SQLiteRepository) CancelPost(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE scheduled_posts SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		common.PostStatusCancelled, time.Now().UTC(), id, common.PostStatusPending)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		if _, err := r.GetPost(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("post %s is not pending, cannot cancel", id)
	}
	return nil
}

// ClaimDue selects the earliest due pending post and flips it to publishing in
// a single UPDATE, so two concurrent callers can never claim the same row.
func (r *SQLiteRepository) ClaimDue(ctx context.Context, now time.Time) (*common.ScheduledPost, error) {
	now = now.UTC()
	for i := 0; i < 3; i++ {
		row := r.db.QueryRowContext(ctx,
			`SELECT id FROM scheduled_posts
			 WHERE status = ? AND target_at <= ?
			   AND (next_attempt_at IS NULL OR next_attempt_at <= ?)
			 ORDER BY target_at ASC, created_at ASC, id ASC LIMIT 1`,
			common.PostStatusPending, now, now)
		var id string
		if err := row.Scan(&id); err != nil {
			if err == sql.ErrNoRows {
				return nil, nil
			}
			return nil, err
		}

		res, err := r.db.ExecContext(ctx,
			`UPDATE scheduled_posts SET status = ?, claimed_at = ?, updated_at = ? WHERE id = ? AND status = ?`,
			common.PostStatusPublishing, now, now, id, common.PostStatusPending)
		if err != nil {
			return nil, err
		}
		affected, _ := res.RowsAffected()
		if affected == 0 {
			// Lost the race to another claimer; pick the next candidate.
			continue
		}

		post, err := r.GetPost(ctx, id)
		if err != nil {
			return nil, err
		}
		return &post, nil
	}
	return nil, nil
}

func (r *SQLiteRepository) MarkPublished(ctx context.Context, id, platformID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE scheduled_posts SET status = ?, platform_id = ?, error = '', updated_at = ? WHERE id = ? AND status = ?`,
		common.PostStatusPublished, platformID, time.Now().UTC(), id, common.PostStatusPublishing)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return common.ErrPostNotFound
	}
	return nil
}

func (r *SQLiteRepository) MarkFailed(ctx context.Context, id, reason string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE scheduled_posts SET status = ?, error = ?, updated_at = ? WHERE id = ? AND status IN (?, ?)`,
		common.PostStatusFailed, reason, time.Now().UTC(), id,
		common.PostStatusPublishing, common.PostStatusPending)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return common.ErrPostNotFound
	}
	return nil
}

func (r *SQLiteRepository) RequeueForRetry(ctx context.Context, id string, nextAttempt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE scheduled_posts SET status = ?, retries = retries + 1, next_attempt_at = ?, claimed_at = NULL, updated_at = ? WHERE id = ? AND status = ?`,
		common.PostStatusPending, nextAttempt.UTC(), time.Now().UTC(), id, common.PostStatusPublishing)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return common.ErrPostNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeferPost(ctx context.Context, id string, until time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE scheduled_posts SET status = ?, next_attempt_at = ?, claimed_at = NULL, updated_at = ? WHERE id = ? AND status = ?`,
		common.PostStatusPending, until.UTC(), time.Now().UTC(), id, common.PostStatusPublishing)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return common.ErrPostNotFound
	}
	return nil
}

func (r *SQLiteRepository) DiscardPost(ctx context.Context, id, reason string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE scheduled_posts SET status = ?, error = ?, updated_at = ? WHERE id = ? AND status = ?`,
		common.PostStatusCancelled, reason, time.Now().UTC(), id, common.PostStatusPublishing)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return common.ErrPostNotFound
	}
	return nil
}

func (r *SQLiteRepository) SetPostText(ctx context.Context, id, text, inReplyTo string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE scheduled_posts SET text = ?, in_reply_to = ?, updated_at = ? WHERE id = ?`,
		text, inReplyTo, time.Now().UTC(), id)
	return err
}

func (r *SQLiteRepository) CancelThreadRemainder(ctx context.Context, threadID string, fromIndex int) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE scheduled_posts SET status = ?, error = 'predecessor segment failed', updated_at = ?
		 WHERE thread_id = ? AND thread_index > ? AND status IN (?, ?)`,
		common.PostStatusCancelled, time.Now().UTC(), threadID, fromIndex,
		common.PostStatusPending, common.PostStatusPublishing)
	if err != nil {
		return 0, err
	}
	affected, _ := res.RowsAffected()
	return int(affected), nil
}

// ReleaseStaleClaims reverts publishing rows whose claimant went away. The
// retry counter is bumped so a post crashing its claimant repeatedly still
// hits the retry ceiling.
func (r *SQLiteRepository) ReleaseStaleClaims(ctx context.Context, olderThan time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE scheduled_posts SET status = ?, retries = retries + 1, claimed_at = NULL, updated_at = ?
		 WHERE status = ? AND claimed_at IS NOT NULL AND claimed_at < ?`,
		common.PostStatusPending, time.Now().UTC(), common.PostStatusPublishing, olderThan.UTC())
	if err != nil {
		return 0, err
	}
	affected, _ := res.RowsAffected()
	return int(affected), nil
}

func (r *SQLiteRepository) NextPendingAt(ctx context.Context) (time.Time, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT MIN(CASE WHEN next_attempt_at IS NOT NULL AND next_attempt_at > target_at
		                 THEN next_attempt_at ELSE target_at END)
		 FROM scheduled_posts WHERE status = ?`,
		common.PostStatusPending)
	var next sql.NullTime
	if err := row.Scan(&next); err != nil {
		return time.Time{}, err
	}
	if !next.Valid {
		return time.Time{}, nil
	}
	return next.Time, nil
}

// Daily quota

func (r *SQLiteRepository) QuotaFor(ctx context.Context, date string, maxPosts int) (common.DailyQuota, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO daily_quotas (date, max_posts, published, updated_at) VALUES (?, ?, 0, ?)
		 ON CONFLICT(date) DO UPDATE SET max_posts = excluded.max_posts, updated_at = excluded.updated_at`,
		date, maxPosts, time.Now().UTC())
	if err != nil {
		return common.DailyQuota{}, err
	}

	var quota common.DailyQuota
	row := r.db.QueryRowContext(ctx, `SELECT date, max_posts, published FROM daily_quotas WHERE date = ?`, date)
	if err := row.Scan(&quota.Date, &quota.MaxPosts, &quota.Published); err != nil {
		return common.DailyQuota{}, err
	}
	return quota, nil
}

// ReserveDailySlot takes one publish slot with a guarded increment: the
// WHERE clause is the arbiter, so two processes reading the same count can
// never both push published past max_posts.
func (r *SQLiteRepository) ReserveDailySlot(ctx context.Context, date string, maxPosts int) (bool, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO daily_quotas (date, max_posts, published, updated_at) VALUES (?, ?, 0, ?)
		 ON CONFLICT(date) DO UPDATE SET max_posts = excluded.max_posts, updated_at = excluded.updated_at`,
		date, maxPosts, time.Now().UTC())
	if err != nil {
		return false, err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE daily_quotas SET published = published + 1, updated_at = ? WHERE date = ? AND published < max_posts`,
		time.Now().UTC(), date)
	if err != nil {
		return false, err
	}
	affected, _ := res.RowsAffected()
	return affected == 1, nil
}

func (r *SQLiteRepository) ReleaseDailySlot(ctx context.Context, date string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE daily_quotas SET published = published - 1, updated_at = ? WHERE date = ? AND published > 0`,
		time.Now().UTC(), date)
	return err
}

// Inbound event deduplication

func (r *SQLiteRepository) MarkEventProcessed(ctx context.Context, eventID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO processed_events (event_id, processed_at) VALUES (?, ?)`,
		eventID, time.Now().UTC())
	if err != nil {
		return false, err
	}
	affected, _ := res.RowsAffected()
	return affected == 1, nil
}

// Stream cursors

func (r *SQLiteRepository) Cursor(ctx context.Context, stream string) (string, error) {
	var value string
	row := r.db.QueryRowContext(ctx, `SELECT value FROM stream_cursors WHERE stream = ?`, stream)
	if err := row.Scan(&value); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

func (r *SQLiteRepository) SetCursor(ctx context.Context, stream, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO stream_cursors (stream, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(stream) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		stream, value, time.Now().UTC())
	return err
}
