package common

import "time"

type PostStatus string

const (
	PostStatusPending    PostStatus = "pending"
	PostStatusPublishing PostStatus = "publishing"
	PostStatusPublished  PostStatus = "published"
	PostStatusFailed     PostStatus = "failed"
	PostStatusCancelled  PostStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed from s.
func (s PostStatus) Terminal() bool {
	return s == PostStatusPublished || s == PostStatusFailed || s == PostStatusCancelled
}

type PostKind string

const (
	PostKindScheduled PostKind = "scheduled" // created by the day planner
	PostKindManual    PostKind = "manual"    // scheduled directly by the operator
	PostKindThread    PostKind = "thread"    // segment of a generated thread
)

type ScheduledPost struct {
	ID            string     `json:"id"`
	ThreadID      string     `json:"thread_id,omitempty"` // shared by all segments of a thread
	ThreadIndex   int        `json:"thread_index"`        // 0-based position within the thread
	ThreadLen     int        `json:"thread_len"`
	Topic         string     `json:"topic,omitempty"`
	Text          string     `json:"text"`                  // empty until materialized at claim for planner slots
	InReplyTo     string     `json:"in_reply_to,omitempty"` // platform id of the predecessor segment
	TargetAt      time.Time  `json:"target_at"`
	Status        PostStatus `json:"status"`
	Kind          PostKind   `json:"kind"`
	PlatformID    string     `json:"platform_id,omitempty"`
	Error         string     `json:"error,omitempty"`
	Retries       int        `json:"retries"`
	NextAttemptAt time.Time  `json:"next_attempt_at,omitempty"`
	ClaimedAt     time.Time  `json:"claimed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// DailyQuota tracks how many posts went out on a given calendar day.
// Keyed by date so a process restart or midnight crossing never leaks counts.
type DailyQuota struct {
	Date      string `json:"date"` // YYYY-MM-DD in the configured timezone
	MaxPosts  int    `json:"max_posts"`
	Published int    `json:"published"`
}

func (q DailyQuota) Exhausted() bool {
	return q.Published >= q.MaxPosts
}
