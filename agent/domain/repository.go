package domain

import (
	"context"
	"time"

	"github.com/AzielCF/az-postr/agent/domain/common"
)

// PostFilter narrows ListPosts. Zero values mean "any".
type PostFilter struct {
	Status   common.PostStatus
	Kind     common.PostKind
	ThreadID string
	Date     string // YYYY-MM-DD, matches target_at's day
	Limit    int
}

// IAgentRepository is the durable store for scheduled posts, daily quotas and
// inbound-event deduplication. All methods are safe for concurrent use and
// survive process restart.
type IAgentRepository interface {
	Init(ctx context.Context) error

	// Scheduled posts
	EnqueuePost(ctx context.Context, post common.ScheduledPost) error
	GetPost(ctx context.Context, id string) (common.ScheduledPost, error)
	ListPosts(ctx context.Context, filter PostFilter) ([]common.ScheduledPost, error)

	// CancelPost cancels a pending post. Claims in flight run to completion;
	// cancelling a non-pending post returns an error.
	CancelPost(ctx context.Context, id string) error

	// ClaimDue atomically transitions the earliest due pending post to
	// publishing and returns it. Due means target_at <= now and
	// next_attempt_at <= now. Ordering: target_at, created_at, id ascending.
	// Returns (nil, nil) when nothing is due. Exactly one concurrent caller
	// can claim a given post.
	ClaimDue(ctx context.Context, now time.Time) (*common.ScheduledPost, error)

	MarkPublished(ctx context.Context, id, platformID string) error
	MarkFailed(ctx context.Context, id, reason string) error

	// RequeueForRetry puts a claimed post back to pending with retries+1 and
	// the given earliest next attempt time.
	RequeueForRetry(ctx context.Context, id string, nextAttempt time.Time) error

	// DeferPost puts a claimed post back to pending without counting a retry,
	// with the given earliest next attempt time. Used for quota rollover and
	// for posts claimed while their thread predecessor is still in flight.
	DeferPost(ctx context.Context, id string, until time.Time) error

	// DiscardPost cancels a claimed post with the given reason.
	DiscardPost(ctx context.Context, id, reason string) error

	// SetPostText persists text materialized at claim time so a retry does not
	// regenerate content.
	SetPostText(ctx context.Context, id, text, inReplyTo string) error

	// CancelThreadRemainder cancels all non-terminal segments of threadID with
	// thread_index > fromIndex.
	CancelThreadRemainder(ctx context.Context, threadID string, fromIndex int) (int, error)

	// ReleaseStaleClaims reverts publishing posts claimed before olderThan back
	// to pending with retries+1. Called at startup and from the dispatch loop.
	ReleaseStaleClaims(ctx context.Context, olderThan time.Time) (int, error)

	// NextPendingAt returns the earliest moment any pending post becomes due,
	// or the zero time when the queue is empty.
	NextPendingAt(ctx context.Context) (time.Time, error)

	// Daily quota
	QuotaFor(ctx context.Context, date string, maxPosts int) (common.DailyQuota, error)
	// ReserveDailySlot atomically takes one publish slot for the date, so
	// concurrent dispatchers sharing the store can never exceed maxPosts.
	// Returns false when the quota is exhausted.
	ReserveDailySlot(ctx context.Context, date string, maxPosts int) (bool, error)
	// ReleaseDailySlot gives a reserved slot back after a failed publish.
	ReleaseDailySlot(ctx context.Context, date string) error

	// MarkEventProcessed records an inbound event id. Returns false when the
	// id was already recorded (idempotent ingestion).
	MarkEventProcessed(ctx context.Context, eventID string) (bool, error)

	// Cursor persists the last seen platform event id per stream (mentions, dms).
	Cursor(ctx context.Context, stream string) (string, error)
	SetCursor(ctx context.Context, stream, value string) error
}
