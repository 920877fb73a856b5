package analytics

import "time"

// PostMetric records one published post.
type PostMetric struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PostID      string    `gorm:"index;column:post_id" json:"post_id"`
	PlatformID  string    `gorm:"index;column:platform_id" json:"platform_id"`
	Topic       string    `gorm:"column:topic" json:"topic"`
	TextLen     int       `gorm:"column:text_len" json:"text_len"`
	Likes       int       `gorm:"column:likes" json:"likes"`
	Reposts     int       `gorm:"column:reposts" json:"reposts"`
	Replies     int       `gorm:"column:replies" json:"replies"`
	Impressions int       `gorm:"column:impressions" json:"impressions"`
	PublishedAt time.Time `gorm:"index;column:published_at" json:"published_at"`
}

func (PostMetric) TableName() string {
	return "post_metrics"
}

// ResponseMetric records one reply sent to an inbound event.
type ResponseMetric struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	EventID    string    `gorm:"index;column:event_id" json:"event_id"`
	EventKind  string    `gorm:"column:event_kind" json:"event_kind"`
	SenderID   string    `gorm:"index;column:sender_id" json:"sender_id"`
	PlatformID string    `gorm:"column:platform_id" json:"platform_id"`
	TextLen    int       `gorm:"column:text_len" json:"text_len"`
	RepliedAt  time.Time `gorm:"index;column:replied_at" json:"replied_at"`
}

func (ResponseMetric) TableName() string {
	return "response_metrics"
}

// DailyStat is a per-day rollup maintained incrementally as events arrive.
type DailyStat struct {
	Date         string `gorm:"primaryKey;column:date" json:"date"` // YYYY-MM-DD
	PostsSent    int    `gorm:"column:posts_sent" json:"posts_sent"`
	RepliesSent  int    `gorm:"column:replies_sent" json:"replies_sent"`
	TotalLikes   int    `gorm:"column:total_likes" json:"total_likes"`
	TotalReposts int    `gorm:"column:total_reposts" json:"total_reposts"`
}

func (DailyStat) TableName() string {
	return "daily_stats"
}

// Summary is the aggregate view served to operators.
type Summary struct {
	Days        int         `json:"days"`
	PostsSent   int64       `json:"posts_sent"`
	RepliesSent int64       `json:"replies_sent"`
	AvgTextLen  float64     `json:"avg_text_len"`
	Daily       []DailyStat `json:"daily"`
}

// AgentNote records a dropped or skipped action for later inspection.
type AgentNote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SubjectID string    `gorm:"index;column:subject_id" json:"subject_id"`
	Note      string    `gorm:"column:note" json:"note"`
	NotedAt   time.Time `gorm:"index;column:noted_at" json:"noted_at"`
}

func (AgentNote) TableName() string {
	return "agent_notes"
}
