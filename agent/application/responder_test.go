package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/AzielCF/az-postr/agent/domain/common"
	"github.com/AzielCF/az-postr/pkg/eventworker"
	"github.com/AzielCF/az-postr/pkg/spamfilter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type responderFixture struct {
	repo      *fakeRepo
	source    *fakeSource
	platform  *fakePlatform
	analytics *fakeAnalytics
	ledger    *fakeLedger
	resp      *Responder
}

func newResponderFixture(cfg ResponderConfig) *responderFixture {
	repo := newFakeRepo()
	source := &fakeSource{}
	platform := &fakePlatform{}
	analytics := &fakeAnalytics{}
	ledger := newFakeLedger()
	filter := spamfilter.New([]string{"casino"}, 280, 5)

	resp := NewResponder(repo, source, platform, analytics, ledger, filter, nil, nil, cfg)
	return &responderFixture{
		repo: repo, source: source, platform: platform,
		analytics: analytics, ledger: ledger, resp: resp,
	}
}

func mentionEvent(id, sender, text string) common.InboundEvent {
	return common.InboundEvent{
		EventID:    id,
		Kind:       common.EventKindMention,
		SenderID:   sender,
		SenderName: "Sender " + sender,
		Text:       text,
		ReceivedAt: time.Now().UTC(),
	}
}

func TestResponder_RepliesToMention(t *testing.T) {
	f := newResponderFixture(ResponderConfig{AutoResponse: true, MaxRepliesPerUser: 3, MaxTextLength: 280})
	ctx := context.Background()

	ev := mentionEvent("ev-1", "user-1", "really liked your post on Go schedulers")
	require.NoError(t, f.resp.Handle(ctx, ev))

	calls := f.platform.publishedCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "ev-1", calls[0].InReplyTo)

	events := f.analytics.recorded()
	require.Len(t, events, 1)
	assert.Equal(t, common.AnalyticsReplyPublished, events[0].Kind)
}

func TestResponder_DuplicateEventRepliesOnce(t *testing.T) {
	f := newResponderFixture(ResponderConfig{AutoResponse: true, MaxRepliesPerUser: 3})
	ctx := context.Background()

	ev := mentionEvent("ev-1", "user-1", "hello there")
	require.NoError(t, f.resp.Handle(ctx, ev))
	require.NoError(t, f.resp.Handle(ctx, ev))

	assert.Equal(t, 1, f.source.replies(), "duplicate event must not regenerate a reply")
	assert.Len(t, f.platform.publishedCalls(), 1)
}

func TestResponder_PerSenderDailyCap(t *testing.T) {
	f := newResponderFixture(ResponderConfig{AutoResponse: true, MaxRepliesPerUser: 2})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ev := mentionEvent(fmt.Sprintf("ev-%d", i), "user-1", "question number "+fmt.Sprint(i))
		require.NoError(t, f.resp.Handle(ctx, ev))
	}

	assert.Len(t, f.platform.publishedCalls(), 2, "third reply to the same sender must be skipped")

	// A different sender is unaffected.
	require.NoError(t, f.resp.Handle(ctx, mentionEvent("ev-9", "user-2", "a fresh question")))
	assert.Len(t, f.platform.publishedCalls(), 3)
}

func TestResponder_SkipsInboundSpam(t *testing.T) {
	f := newResponderFixture(ResponderConfig{AutoResponse: true, MaxRepliesPerUser: 3})
	ctx := context.Background()

	ev := mentionEvent("ev-1", "user-1", "buy now at https://spam.example")
	require.NoError(t, f.resp.Handle(ctx, ev))

	assert.Zero(t, f.source.replies())
	assert.Empty(t, f.platform.publishedCalls())
}

func TestResponder_GenerationTimeoutBoundsStalledSource(t *testing.T) {
	f := newResponderFixture(ResponderConfig{
		AutoResponse:      true,
		MaxRepliesPerUser: 3,
		GenerateTimeout:   50 * time.Millisecond,
	})
	f.source.block = true
	ctx := context.Background()

	start := time.Now()
	err := f.resp.Handle(ctx, mentionEvent("ev-1", "user-1", "anyone home?"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Empty(t, f.platform.publishedCalls())
}

func TestResponder_AutoResponseDisabledRecordsForManualReply(t *testing.T) {
	f := newResponderFixture(ResponderConfig{AutoResponse: false, MaxRepliesPerUser: 3})
	ctx := context.Background()

	require.NoError(t, f.resp.Handle(ctx, mentionEvent("ev-1", "user-1", "anyone home?")))

	assert.Zero(t, f.source.replies())
	assert.Empty(t, f.platform.publishedCalls())

	// The event is surfaced to the operator instead of silently dropped.
	events := f.analytics.recorded()
	require.Len(t, events, 1)
	assert.Equal(t, common.AnalyticsNote, events[0].Kind)
	assert.Equal(t, "ev-1", events[0].SubjectID)
	assert.Contains(t, events[0].Note, "manual reply")
	assert.Contains(t, events[0].Note, "anyone home?")

	// Redelivery of the same event does not record it twice.
	require.NoError(t, f.resp.Handle(ctx, mentionEvent("ev-1", "user-1", "anyone home?")))
	assert.Len(t, f.analytics.recorded(), 1)
}

func TestResponder_SuppressesSpammyGeneratedReply(t *testing.T) {
	f := newResponderFixture(ResponderConfig{AutoResponse: true, MaxRepliesPerUser: 3})
	ctx := context.Background()

	f.source.replyText = "come to the casino with me"
	require.NoError(t, f.resp.Handle(ctx, mentionEvent("ev-1", "user-1", "what should we do tonight")))

	assert.Equal(t, 1, f.source.replies())
	assert.Empty(t, f.platform.publishedCalls(), "a reply failing the outbound filter is dropped")
}

func TestResponder_TruncatesLongReplies(t *testing.T) {
	f := newResponderFixture(ResponderConfig{AutoResponse: true, MaxRepliesPerUser: 3, MaxTextLength: 40})
	ctx := context.Background()

	f.source.replyText = "this generated reply keeps going on and on and on far past the platform limit"
	require.NoError(t, f.resp.Handle(ctx, mentionEvent("ev-1", "user-1", "tell me everything")))

	calls := f.platform.publishedCalls()
	require.Len(t, calls, 1)
	assert.LessOrEqual(t, len([]rune(calls[0].Text)), 40)
}

func TestResponder_DMGetsDirectMessageReply(t *testing.T) {
	f := newResponderFixture(ResponderConfig{AutoResponse: true, MaxRepliesPerUser: 3})
	ctx := context.Background()

	ev := mentionEvent("ev-1", "user-1", "ping via dm")
	ev.Kind = common.EventKindDM
	require.NoError(t, f.resp.Handle(ctx, ev))

	assert.Empty(t, f.platform.publishedCalls())
	dms := f.platform.dmCalls()
	require.Len(t, dms, 1)
	assert.Equal(t, "user-1", dms[0].UserID)
}

func TestResponder_PublishFailureIsNotRetried(t *testing.T) {
	f := newResponderFixture(ResponderConfig{AutoResponse: true, MaxRepliesPerUser: 3})
	ctx := context.Background()

	f.platform.failWith = common.Transient(errors.New("flaky network"))
	require.NoError(t, f.resp.Handle(ctx, mentionEvent("ev-1", "user-1", "hello")))

	// The event stays consumed, replies are best effort.
	require.NoError(t, f.resp.Handle(ctx, mentionEvent("ev-1", "user-1", "hello")))
	assert.Equal(t, 1, f.source.replies())
}

func TestResponder_AuthErrorSurfaces(t *testing.T) {
	f := newResponderFixture(ResponderConfig{AutoResponse: true, MaxRepliesPerUser: 3})
	ctx := context.Background()

	f.platform.failWith = fmt.Errorf("%w: status 401", common.ErrAuth)
	err := f.resp.Handle(ctx, mentionEvent("ev-1", "user-1", "hello"))
	assert.ErrorIs(t, err, common.ErrAuth)
}

func TestResponder_PollDispatchesAndAdvancesCursor(t *testing.T) {
	repo := newFakeRepo()
	source := &fakeSource{}
	platform := &fakePlatform{}
	ledger := newFakeLedger()
	filter := spamfilter.New(nil, 280, 5)
	pool := eventworker.NewEventWorkerPool(2, 16)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)
	defer pool.Stop()

	resp := NewResponder(repo, source, platform, nil, ledger, filter, nil, pool,
		ResponderConfig{AutoResponse: true, MaxRepliesPerUser: 3})

	platform.mentions = []common.InboundEvent{
		mentionEvent("100", "user-1", "first mention"),
		mentionEvent("101", "user-2", "second mention"),
	}

	require.NoError(t, resp.Poll(ctx))

	// Workers process asynchronously.
	time.Sleep(100 * time.Millisecond)

	cursor, err := repo.Cursor(ctx, "mentions")
	require.NoError(t, err)
	assert.Equal(t, "101", cursor)
	assert.Len(t, platform.publishedCalls(), 2)
}

func TestResponder_PollHoldsCursorWhenPoolRejectsEvents(t *testing.T) {
	repo := newFakeRepo()
	platform := &fakePlatform{}
	filter := spamfilter.New(nil, 280, 5)

	// A pool that was never started accepts nothing, so no event reaches a
	// worker and the cursor must stay put for the next fetch.
	pool := eventworker.NewEventWorkerPool(1, 1)
	defer pool.Stop()

	resp := NewResponder(repo, &fakeSource{}, platform, nil, newFakeLedger(), filter, nil, pool,
		ResponderConfig{AutoResponse: true, MaxRepliesPerUser: 3})

	platform.mentions = []common.InboundEvent{
		mentionEvent("100", "user-1", "first mention"),
		mentionEvent("101", "user-2", "second mention"),
	}

	ctx := context.Background()
	require.NoError(t, resp.Poll(ctx))

	cursor, err := repo.Cursor(ctx, "mentions")
	require.NoError(t, err)
	assert.Empty(t, cursor)
	assert.Empty(t, platform.publishedCalls())
}
