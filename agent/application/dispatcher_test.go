package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/AzielCF/az-postr/agent/domain/common"
	"github.com/AzielCF/az-postr/pkg/spamfilter"
	"github.com/AzielCF/az-postr/pkg/timeutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dispatcherFixture struct {
	repo      *fakeRepo
	source    *fakeSource
	platform  *fakePlatform
	analytics *fakeAnalytics
	disp      *Dispatcher
}

func newDispatcherFixture(cfg DispatcherConfig) *dispatcherFixture {
	repo := newFakeRepo()
	source := &fakeSource{}
	platform := &fakePlatform{}
	analytics := &fakeAnalytics{}
	filter := spamfilter.New([]string{"casino"}, 280, 5)

	if cfg.MaxPostsPerDay == 0 {
		cfg.MaxPostsPerDay = 5
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	disp := NewDispatcher(repo, source, platform, analytics, filter, nil, cfg)
	return &dispatcherFixture{repo: repo, source: source, platform: platform, analytics: analytics, disp: disp}
}

func duePost(id string, minutesAgo int) common.ScheduledPost {
	now := time.Now().UTC()
	return common.ScheduledPost{
		ID:        id,
		Topic:     "go",
		Text:      "a perfectly fine update " + id,
		TargetAt:  now.Add(-time.Duration(minutesAgo) * time.Minute),
		Status:    common.PostStatusPending,
		Kind:      common.PostKindScheduled,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestDispatcher_PublishesDuePost(t *testing.T) {
	f := newDispatcherFixture(DispatcherConfig{})
	ctx := context.Background()

	require.NoError(t, f.repo.EnqueuePost(ctx, duePost("p1", 5)))

	_, err := f.disp.Tick(ctx)
	require.NoError(t, err)

	post, err := f.repo.GetPost(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, common.PostStatusPublished, post.Status)
	assert.Equal(t, "plat-1", post.PlatformID)

	calls := f.platform.publishedCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, post.Text, calls[0].Text)

	events := f.analytics.recorded()
	require.Len(t, events, 1)
	assert.Equal(t, common.AnalyticsPostPublished, events[0].Kind)
}

func TestDispatcher_GeneratesMissingText(t *testing.T) {
	f := newDispatcherFixture(DispatcherConfig{})
	ctx := context.Background()

	post := duePost("p1", 5)
	post.Text = ""
	post.Topic = "databases"
	require.NoError(t, f.repo.EnqueuePost(ctx, post))

	_, err := f.disp.Tick(ctx)
	require.NoError(t, err)

	stored, err := f.repo.GetPost(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, common.PostStatusPublished, stored.Status)
	assert.Equal(t, "generated post about databases", stored.Text)
}

func TestDispatcher_GenerationTimeoutBoundsStalledSource(t *testing.T) {
	f := newDispatcherFixture(DispatcherConfig{GenerateTimeout: 50 * time.Millisecond})
	f.source.block = true
	ctx := context.Background()

	post := duePost("p1", 5)
	post.Text = ""
	require.NoError(t, f.repo.EnqueuePost(ctx, post))

	start := time.Now()
	_, err := f.disp.Tick(ctx)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)

	stored, err := f.repo.GetPost(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, common.PostStatusFailed, stored.Status)
	assert.Contains(t, stored.Error, context.DeadlineExceeded.Error())
	assert.Empty(t, f.platform.publishedCalls())
}

func TestDispatcher_DailyQuotaHoldsExcessPostsUntilEndOfDay(t *testing.T) {
	f := newDispatcherFixture(DispatcherConfig{MaxPostsPerDay: 3})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, f.repo.EnqueuePost(ctx, duePost(fmt.Sprintf("p%d", i), 10-i)))
	}

	_, err := f.disp.Tick(ctx)
	require.NoError(t, err)

	published, held := 0, 0
	for i := 0; i < 5; i++ {
		post, err := f.repo.GetPost(ctx, fmt.Sprintf("p%d", i))
		require.NoError(t, err)
		switch post.Status {
		case common.PostStatusPublished:
			published++
		case common.PostStatusPending:
			held++
			assert.Zero(t, post.Retries, "holding over quota is not a retry")
			wantWake := timeutils.NextMidnight(time.Now(), time.UTC)
			assert.WithinDuration(t, wantWake, post.NextAttemptAt, 10*time.Second,
				"held post must not be claimable again today")
		}
	}
	assert.Equal(t, 3, published)
	assert.Equal(t, 2, held, "surplus posts stay pending for the rest of the day")

	notes := 0
	for _, ev := range f.analytics.recorded() {
		if ev.Kind == common.AnalyticsNote {
			notes++
		}
	}
	assert.Equal(t, 2, notes, "each held post leaves a note")
}

func TestDispatcher_FailedPublishReturnsQuotaSlot(t *testing.T) {
	f := newDispatcherFixture(DispatcherConfig{MaxPostsPerDay: 1, MaxRetries: 1})
	ctx := context.Background()

	failing := duePost("p1", 10)
	f.platform.failWith = common.Fatal("tweet rejected", nil)
	require.NoError(t, f.repo.EnqueuePost(ctx, failing))

	_, err := f.disp.Tick(ctx)
	require.NoError(t, err)

	post, err := f.repo.GetPost(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, common.PostStatusFailed, post.Status)

	// The failed attempt must not consume the day's only slot.
	f.platform.failWith = nil
	require.NoError(t, f.repo.EnqueuePost(ctx, duePost("p2", 5)))

	_, err = f.disp.Tick(ctx)
	require.NoError(t, err)

	next, err := f.repo.GetPost(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, common.PostStatusPublished, next.Status)
}

func TestDispatcher_DailyQuotaRollsOverWhenConfigured(t *testing.T) {
	f := newDispatcherFixture(DispatcherConfig{MaxPostsPerDay: 1, QuotaRollover: true})
	ctx := context.Background()

	require.NoError(t, f.repo.EnqueuePost(ctx, duePost("p0", 10)))
	require.NoError(t, f.repo.EnqueuePost(ctx, duePost("p1", 5)))

	_, err := f.disp.Tick(ctx)
	require.NoError(t, err)

	first, err := f.repo.GetPost(ctx, "p0")
	require.NoError(t, err)
	assert.Equal(t, common.PostStatusPublished, first.Status)

	second, err := f.repo.GetPost(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, common.PostStatusPending, second.Status)
	assert.True(t, second.NextAttemptAt.After(time.Now().Add(23*time.Hour)),
		"rolled-over post must wait for the next day")
}

func TestDispatcher_ManualPostsBypassQuota(t *testing.T) {
	f := newDispatcherFixture(DispatcherConfig{MaxPostsPerDay: 1})
	ctx := context.Background()

	require.NoError(t, f.repo.EnqueuePost(ctx, duePost("sched", 10)))
	manual := duePost("manual", 5)
	manual.Kind = common.PostKindManual
	require.NoError(t, f.repo.EnqueuePost(ctx, manual))

	_, err := f.disp.Tick(ctx)
	require.NoError(t, err)

	for _, id := range []string{"sched", "manual"} {
		post, err := f.repo.GetPost(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, common.PostStatusPublished, post.Status, "post %s", id)
	}
}

func TestDispatcher_SelfFiltersSpammyContent(t *testing.T) {
	f := newDispatcherFixture(DispatcherConfig{})
	ctx := context.Background()

	post := duePost("p1", 5)
	post.Text = "visit my casino for riches"
	require.NoError(t, f.repo.EnqueuePost(ctx, post))

	_, err := f.disp.Tick(ctx)
	require.NoError(t, err)

	stored, err := f.repo.GetPost(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, common.PostStatusFailed, stored.Status)
	assert.True(t, strings.HasPrefix(stored.Error, "self-filtered:"), "error = %q", stored.Error)
	assert.Empty(t, f.platform.publishedCalls())
}

func TestDispatcher_TransientFailureRequeuesWithBackoff(t *testing.T) {
	f := newDispatcherFixture(DispatcherConfig{BaseBackoff: time.Minute, MaxRetries: 5})
	ctx := context.Background()

	require.NoError(t, f.repo.EnqueuePost(ctx, duePost("p1", 5)))
	f.platform.failWith = common.Transient(errors.New("rate limited"))

	_, err := f.disp.Tick(ctx)
	require.NoError(t, err)

	post, err := f.repo.GetPost(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, common.PostStatusPending, post.Status)
	assert.Equal(t, 1, post.Retries)
	assert.True(t, post.NextAttemptAt.After(time.Now().Add(30*time.Second)))
}

func TestDispatcher_RetriesExhaustedMarksFailed(t *testing.T) {
	f := newDispatcherFixture(DispatcherConfig{BaseBackoff: time.Minute, MaxRetries: 2})
	ctx := context.Background()

	post := duePost("p1", 5)
	post.Retries = 2
	require.NoError(t, f.repo.EnqueuePost(ctx, post))
	f.platform.failWith = common.Transient(errors.New("still down"))

	_, err := f.disp.Tick(ctx)
	require.NoError(t, err)

	stored, err := f.repo.GetPost(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, common.PostStatusFailed, stored.Status)
	assert.True(t, strings.HasPrefix(stored.Error, "retries exhausted:"), "error = %q", stored.Error)
}

func TestDispatcher_FatalFailureNeverRetries(t *testing.T) {
	f := newDispatcherFixture(DispatcherConfig{MaxRetries: 5})
	ctx := context.Background()

	require.NoError(t, f.repo.EnqueuePost(ctx, duePost("p1", 5)))
	f.platform.failWith = common.Fatal("text rejected", nil)

	_, err := f.disp.Tick(ctx)
	require.NoError(t, err)

	post, err := f.repo.GetPost(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, common.PostStatusFailed, post.Status)
	assert.Zero(t, post.Retries)
}

func TestDispatcher_AuthErrorStopsTickAndLeavesPostPending(t *testing.T) {
	f := newDispatcherFixture(DispatcherConfig{})
	ctx := context.Background()

	require.NoError(t, f.repo.EnqueuePost(ctx, duePost("p1", 5)))
	f.platform.failWith = fmt.Errorf("%w: status 401", common.ErrAuth)

	_, err := f.disp.Tick(ctx)
	assert.ErrorIs(t, err, common.ErrAuth)

	post, err := f.repo.GetPost(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, common.PostStatusPending, post.Status, "post must survive an auth outage")
}

func TestDispatcher_ThreadPublishesChained(t *testing.T) {
	f := newDispatcherFixture(DispatcherConfig{})
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 3; i++ {
		post := common.ScheduledPost{
			ID:          fmt.Sprintf("seg-%d", i),
			ThreadID:    "th-1",
			ThreadIndex: i,
			ThreadLen:   3,
			Text:        fmt.Sprintf("segment %d", i+1),
			TargetAt:    now.Add(time.Duration(i-10) * time.Minute),
			Status:      common.PostStatusPending,
			Kind:        common.PostKindThread,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		require.NoError(t, f.repo.EnqueuePost(ctx, post))
	}

	_, err := f.disp.Tick(ctx)
	require.NoError(t, err)

	calls := f.platform.publishedCalls()
	require.Len(t, calls, 3)
	assert.Empty(t, calls[0].InReplyTo)
	assert.Equal(t, calls[0].ID, calls[1].InReplyTo)
	assert.Equal(t, calls[1].ID, calls[2].InReplyTo)
}

func TestDispatcher_ThreadFailureCancelsRemainder(t *testing.T) {
	f := newDispatcherFixture(DispatcherConfig{MaxRetries: 0})
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 3; i++ {
		post := common.ScheduledPost{
			ID:          fmt.Sprintf("seg-%d", i),
			ThreadID:    "th-1",
			ThreadIndex: i,
			ThreadLen:   3,
			Text:        fmt.Sprintf("segment %d", i+1),
			TargetAt:    now.Add(time.Duration(i-10) * time.Minute),
			Status:      common.PostStatusPending,
			Kind:        common.PostKindThread,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		require.NoError(t, f.repo.EnqueuePost(ctx, post))
	}

	// Segment 2 hits an irrecoverable platform error.
	f.platform.failWith = common.Fatal("text rejected", nil)
	f.platform.failMatches = func(text string) bool { return text == "segment 2" }

	_, err := f.disp.Tick(ctx)
	require.NoError(t, err)

	seg0, _ := f.repo.GetPost(ctx, "seg-0")
	seg1, _ := f.repo.GetPost(ctx, "seg-1")
	seg2, _ := f.repo.GetPost(ctx, "seg-2")

	assert.Equal(t, common.PostStatusPublished, seg0.Status)
	assert.Equal(t, common.PostStatusFailed, seg1.Status)
	assert.Equal(t, common.PostStatusCancelled, seg2.Status)
}

func TestDispatcher_ReleasesStaleClaimsOnTick(t *testing.T) {
	f := newDispatcherFixture(DispatcherConfig{StaleClaimAfter: 10 * time.Minute})
	ctx := context.Background()
	now := time.Now().UTC()

	stuck := duePost("stuck", 60)
	stuck.Status = common.PostStatusPublishing
	stuck.ClaimedAt = now.Add(-time.Hour)
	require.NoError(t, f.repo.EnqueuePost(ctx, stuck))

	_, err := f.disp.Tick(ctx)
	require.NoError(t, err)

	post, err := f.repo.GetPost(ctx, "stuck")
	require.NoError(t, err)
	assert.Equal(t, common.PostStatusPublished, post.Status, "released claim must be retried and published")
	assert.Equal(t, 1, post.Retries)
}

func TestDispatcher_NextPendingAtReturnedForSleep(t *testing.T) {
	f := newDispatcherFixture(DispatcherConfig{})
	ctx := context.Background()

	future := duePost("future", 0)
	future.TargetAt = time.Now().UTC().Add(45 * time.Minute)
	require.NoError(t, f.repo.EnqueuePost(ctx, future))

	next, err := f.disp.Tick(ctx)
	require.NoError(t, err)
	assert.True(t, next.Equal(future.TargetAt))
}
