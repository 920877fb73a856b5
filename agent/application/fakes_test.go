package application

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/AzielCF/az-postr/agent/domain"
	"github.com/AzielCF/az-postr/agent/domain/common"
)

// fakeRepo is an in-memory IAgentRepository with the same claim and
// settlement semantics as the sqlite implementation.
type fakeRepo struct {
	mu        sync.Mutex
	posts     map[string]*common.ScheduledPost
	quotas    map[string]*common.DailyQuota
	processed map[string]bool
	cursors   map[string]string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		posts:     make(map[string]*common.ScheduledPost),
		quotas:    make(map[string]*common.DailyQuota),
		processed: make(map[string]bool),
		cursors:   make(map[string]string),
	}
}

func (r *fakeRepo) Init(ctx context.Context) error { return nil }

func (r *fakeRepo) EnqueuePost(ctx context.Context, post common.ScheduledPost) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := post
	r.posts[post.ID] = &p
	return nil
}

func (r *fakeRepo) GetPost(ctx context.Context, id string) (common.ScheduledPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return common.ScheduledPost{}, common.ErrPostNotFound
	}
	return *post, nil
}

func (r *fakeRepo) ListPosts(ctx context.Context, filter domain.PostFilter) ([]common.ScheduledPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var posts []common.ScheduledPost
	for _, post := range r.posts {
		if filter.Status != "" && post.Status != filter.Status {
			continue
		}
		if filter.Kind != "" && post.Kind != filter.Kind {
			continue
		}
		if filter.ThreadID != "" && post.ThreadID != filter.ThreadID {
			continue
		}
		if filter.Date != "" && post.TargetAt.UTC().Format("2006-01-02") != filter.Date {
			continue
		}
		posts = append(posts, *post)
	}
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].TargetAt.Equal(posts[j].TargetAt) {
			return posts[i].TargetAt.Before(posts[j].TargetAt)
		}
		return posts[i].ID < posts[j].ID
	})
	if filter.Limit > 0 && len(posts) > filter.Limit {
		posts = posts[:filter.Limit]
	}
	return posts, nil
}

func (r *fakeRepo) CancelPost(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return common.ErrPostNotFound
	}
	if post.Status != common.PostStatusPending {
		return fmt.Errorf("post %s is not pending, cannot cancel", id)
	}
	post.Status = common.PostStatusCancelled
	return nil
}

func (r *fakeRepo) ClaimDue(ctx context.Context, now time.Time) (*common.ScheduledPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var due []*common.ScheduledPost
	for _, post := range r.posts {
		if post.Status != common.PostStatusPending {
			continue
		}
		if post.TargetAt.After(now) {
			continue
		}
		if !post.NextAttemptAt.IsZero() && post.NextAttemptAt.After(now) {
			continue
		}
		due = append(due, post)
	}
	if len(due) == 0 {
		return nil, nil
	}
	sort.Slice(due, func(i, j int) bool {
		if !due[i].TargetAt.Equal(due[j].TargetAt) {
			return due[i].TargetAt.Before(due[j].TargetAt)
		}
		return due[i].ID < due[j].ID
	})

	claimed := due[0]
	claimed.Status = common.PostStatusPublishing
	claimed.ClaimedAt = now
	copied := *claimed
	return &copied, nil
}

func (r *fakeRepo) mutateClaimed(id string, fn func(*common.ScheduledPost)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok || post.Status != common.PostStatusPublishing {
		return common.ErrPostNotFound
	}
	fn(post)
	return nil
}

func (r *fakeRepo) MarkPublished(ctx context.Context, id, platformID string) error {
	return r.mutateClaimed(id, func(post *common.ScheduledPost) {
		post.Status = common.PostStatusPublished
		post.PlatformID = platformID
		post.Error = ""
	})
}

func (r *fakeRepo) MarkFailed(ctx context.Context, id, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok || (post.Status != common.PostStatusPublishing && post.Status != common.PostStatusPending) {
		return common.ErrPostNotFound
	}
	post.Status = common.PostStatusFailed
	post.Error = reason
	return nil
}

func (r *fakeRepo) RequeueForRetry(ctx context.Context, id string, nextAttempt time.Time) error {
	return r.mutateClaimed(id, func(post *common.ScheduledPost) {
		post.Status = common.PostStatusPending
		post.Retries++
		post.NextAttemptAt = nextAttempt
		post.ClaimedAt = time.Time{}
	})
}

func (r *fakeRepo) DeferPost(ctx context.Context, id string, until time.Time) error {
	return r.mutateClaimed(id, func(post *common.ScheduledPost) {
		post.Status = common.PostStatusPending
		post.NextAttemptAt = until
		post.ClaimedAt = time.Time{}
	})
}

func (r *fakeRepo) DiscardPost(ctx context.Context, id, reason string) error {
	return r.mutateClaimed(id, func(post *common.ScheduledPost) {
		post.Status = common.PostStatusCancelled
		post.Error = reason
	})
}

func (r *fakeRepo) SetPostText(ctx context.Context, id, text, inReplyTo string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return common.ErrPostNotFound
	}
	post.Text = text
	post.InReplyTo = inReplyTo
	return nil
}

func (r *fakeRepo) CancelThreadRemainder(ctx context.Context, threadID string, fromIndex int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cancelled := 0
	for _, post := range r.posts {
		if post.ThreadID != threadID || post.ThreadIndex <= fromIndex {
			continue
		}
		if post.Status == common.PostStatusPending || post.Status == common.PostStatusPublishing {
			post.Status = common.PostStatusCancelled
			post.Error = "predecessor segment failed"
			cancelled++
		}
	}
	return cancelled, nil
}

func (r *fakeRepo) ReleaseStaleClaims(ctx context.Context, olderThan time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	released := 0
	for _, post := range r.posts {
		if post.Status == common.PostStatusPublishing && !post.ClaimedAt.IsZero() && post.ClaimedAt.Before(olderThan) {
			post.Status = common.PostStatusPending
			post.Retries++
			post.ClaimedAt = time.Time{}
			released++
		}
	}
	return released, nil
}

func (r *fakeRepo) NextPendingAt(ctx context.Context) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var next time.Time
	for _, post := range r.posts {
		if post.Status != common.PostStatusPending {
			continue
		}
		at := post.TargetAt
		if post.NextAttemptAt.After(at) {
			at = post.NextAttemptAt
		}
		if next.IsZero() || at.Before(next) {
			next = at
		}
	}
	return next, nil
}

func (r *fakeRepo) QuotaFor(ctx context.Context, date string, maxPosts int) (common.DailyQuota, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	quota, ok := r.quotas[date]
	if !ok {
		quota = &common.DailyQuota{Date: date}
		r.quotas[date] = quota
	}
	quota.MaxPosts = maxPosts
	return *quota, nil
}

func (r *fakeRepo) ReserveDailySlot(ctx context.Context, date string, maxPosts int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	quota, ok := r.quotas[date]
	if !ok {
		quota = &common.DailyQuota{Date: date}
		r.quotas[date] = quota
	}
	quota.MaxPosts = maxPosts
	if quota.Published >= quota.MaxPosts {
		return false, nil
	}
	quota.Published++
	return true, nil
}

func (r *fakeRepo) ReleaseDailySlot(ctx context.Context, date string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if quota, ok := r.quotas[date]; ok && quota.Published > 0 {
		quota.Published--
	}
	return nil
}

func (r *fakeRepo) MarkEventProcessed(ctx context.Context, eventID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.processed[eventID] {
		return false, nil
	}
	r.processed[eventID] = true
	return true, nil
}

func (r *fakeRepo) Cursor(ctx context.Context, stream string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cursors[stream], nil
}

func (r *fakeRepo) SetCursor(ctx context.Context, stream, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cursors[stream] = value
	return nil
}

// fakeSource returns canned content. With block set it hangs until the
// caller's context expires.
type fakeSource struct {
	mu           sync.Mutex
	postText     string
	replyText    string
	threadTexts  []string
	err          error
	block        bool
	generateCnt  int
	replyCount   int
	lastReplyArg string
}

func (s *fakeSource) GeneratePost(ctx context.Context, topic string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generateCnt++
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if s.err != nil {
		return "", s.err
	}
	if s.postText != "" {
		return s.postText, nil
	}
	return "generated post about " + topic, nil
}

func (s *fakeSource) GenerateReply(ctx context.Context, inboundText, senderName, hint string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replyCount++
	s.lastReplyArg = inboundText
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if s.err != nil {
		return "", s.err
	}
	if s.replyText != "" {
		return s.replyText, nil
	}
	return "thanks for reaching out, " + senderName, nil
}

func (s *fakeSource) GenerateThread(ctx context.Context, topic string, length int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.err != nil {
		return nil, s.err
	}
	if s.threadTexts != nil {
		return s.threadTexts, nil
	}
	texts := make([]string, length)
	for i := range texts {
		texts[i] = fmt.Sprintf("segment %d about %s", i+1, topic)
	}
	return texts, nil
}

func (s *fakeSource) replies() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replyCount
}

// fakePlatform records publishes and can fail selected texts.
type fakePlatform struct {
	mu          sync.Mutex
	published   []publishedCall
	dms         []dmCall
	failWith    error
	failMatches func(text string) bool
	nextID      int
	mentions    []common.InboundEvent
	directMsgs  []common.InboundEvent
}

type publishedCall struct {
	Text      string
	InReplyTo string
	ID        string
}

type dmCall struct {
	UserID string
	Text   string
}

func (p *fakePlatform) Publish(ctx context.Context, text, inReplyTo string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failWith != nil && (p.failMatches == nil || p.failMatches(text)) {
		return "", p.failWith
	}
	p.nextID++
	id := fmt.Sprintf("plat-%d", p.nextID)
	p.published = append(p.published, publishedCall{Text: text, InReplyTo: inReplyTo, ID: id})
	return id, nil
}

func (p *fakePlatform) FetchMentions(ctx context.Context, sinceID string) ([]common.InboundEvent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mentions, nil
}

func (p *fakePlatform) FetchDirectMessages(ctx context.Context, sinceID string) ([]common.InboundEvent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.directMsgs, nil
}

func (p *fakePlatform) SendDirectMessage(ctx context.Context, userID, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failWith != nil && (p.failMatches == nil || p.failMatches(text)) {
		return p.failWith
	}
	p.dms = append(p.dms, dmCall{UserID: userID, Text: text})
	return nil
}

func (p *fakePlatform) VerifyCredentials(ctx context.Context) error { return nil }

func (p *fakePlatform) publishedCalls() []publishedCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]publishedCall, len(p.published))
	copy(out, p.published)
	return out
}

func (p *fakePlatform) dmCalls() []dmCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]dmCall, len(p.dms))
	copy(out, p.dms)
	return out
}

// fakeAnalytics collects recorded events.
type fakeAnalytics struct {
	mu     sync.Mutex
	events []common.AnalyticsEvent
}

func (a *fakeAnalytics) Record(ctx context.Context, ev common.AnalyticsEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, ev)
}

func (a *fakeAnalytics) recorded() []common.AnalyticsEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]common.AnalyticsEvent, len(a.events))
	copy(out, a.events)
	return out
}

// fakeLedger caps replies per sender per day.
type fakeLedger struct {
	mu     sync.Mutex
	counts map[string]int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{counts: make(map[string]int)}
}

func (l *fakeLedger) Take(ctx context.Context, senderID string, cap int) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.counts[senderID] >= cap {
		return false, nil
	}
	l.counts[senderID]++
	return true, nil
}
