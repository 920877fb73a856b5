package application

import (
	"context"
	"errors"
	"time"

	"github.com/AzielCF/az-postr/agent/domain"
	"github.com/AzielCF/az-postr/agent/domain/common"
	"github.com/AzielCF/az-postr/pkg/spamfilter"
	"github.com/AzielCF/az-postr/pkg/timeutils"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// DispatcherConfig captures the retry and quota policy of the dispatch loop.
type DispatcherConfig struct {
	MaxRetries      int
	BaseBackoff     time.Duration
	MaxBackoff      time.Duration
	StaleClaimAfter time.Duration
	MaxPostsPerDay  int
	QuotaRollover   bool
	GenerateTimeout time.Duration
	Location        *time.Location
}

// Dispatcher drains due posts from the store and publishes them, honoring
// the daily quota, the retry policy and the shared outbound rate budget.
type Dispatcher struct {
	repo      domain.IAgentRepository
	source    domain.ContentSource
	platform  domain.PlatformClient
	analytics domain.AnalyticsRecorder
	filter    *spamfilter.Filter
	limiter   *rate.Limiter
	cfg       DispatcherConfig
	now       func() time.Time
}

func NewDispatcher(
	repo domain.IAgentRepository,
	source domain.ContentSource,
	platform domain.PlatformClient,
	analytics domain.AnalyticsRecorder,
	filter *spamfilter.Filter,
	limiter *rate.Limiter,
	cfg DispatcherConfig,
) *Dispatcher {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 30 * time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 30 * time.Minute
	}
	if cfg.StaleClaimAfter <= 0 {
		cfg.StaleClaimAfter = 10 * time.Minute
	}
	if cfg.GenerateTimeout <= 0 {
		cfg.GenerateTimeout = 45 * time.Second
	}
	return &Dispatcher{
		repo:      repo,
		source:    source,
		platform:  platform,
		analytics: analytics,
		filter:    filter,
		limiter:   limiter,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Run executes the dispatch loop until the context is cancelled or the
// platform rejects our credentials. Sleeps adapt to the next due post, with
// a safety ticker so a missed wake-up never stalls the queue for long.
func (d *Dispatcher) Run(ctx context.Context) error {
	safetyTicker := time.NewTicker(5 * time.Minute)
	defer safetyTicker.Stop()

	for {
		nextAt, err := d.Tick(ctx)
		if err != nil {
			if errors.Is(err, common.ErrAuth) {
				logrus.WithError(err).Error("[DISPATCH] Platform rejected credentials, stopping dispatch loop")
				return err
			}
			logrus.WithError(err).Error("[DISPATCH] Tick failed")
		}

		sleepDuration := 1 * time.Hour
		if !nextAt.IsZero() {
			sleepDuration = time.Until(nextAt)
			if sleepDuration < time.Second {
				sleepDuration = time.Second
			}
			if sleepDuration > time.Hour {
				sleepDuration = time.Hour
			}
		}

		adaptiveTimer := time.NewTimer(sleepDuration)
		select {
		case <-ctx.Done():
			adaptiveTimer.Stop()
			return ctx.Err()
		case <-safetyTicker.C:
			adaptiveTimer.Stop()
		case <-adaptiveTimer.C:
		}
	}
}

// Tick releases stale claims, then claims and publishes every due post.
// It returns the time of the next pending post so the caller can sleep
// until then. An auth error aborts the tick.
func (d *Dispatcher) Tick(ctx context.Context) (time.Time, error) {
	released, err := d.repo.ReleaseStaleClaims(ctx, d.now().Add(-d.cfg.StaleClaimAfter))
	if err != nil {
		return time.Time{}, err
	}
	if released > 0 {
		logrus.Warnf("[DISPATCH] Released %d stale claims", released)
	}

	for {
		post, err := d.repo.ClaimDue(ctx, d.now())
		if err != nil {
			return time.Time{}, err
		}
		if post == nil {
			break
		}

		if err := d.publishClaimed(ctx, post); err != nil {
			if errors.Is(err, common.ErrAuth) {
				// Leave the post pending so it goes out once credentials work.
				_ = d.repo.DeferPost(ctx, post.ID, d.now())
				return time.Time{}, err
			}
			return time.Time{}, err
		}
	}

	next, err := d.repo.NextPendingAt(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return next, nil
}

// publishClaimed runs one claimed post through quota, content, filtering and
// publication. Every path settles the claim: the post leaves in a pending,
// published, failed or cancelled state. The returned error is only non-nil
// for auth and storage failures.
func (d *Dispatcher) publishClaimed(ctx context.Context, post *common.ScheduledPost) (err error) {
	log := logrus.WithFields(logrus.Fields{"post_id": post.ID, "kind": post.Kind})

	// The reserved slot is only consumed by a successful publish; every
	// other exit gives it back so a failed post never burns quota.
	reservedDate := ""
	defer func() {
		if reservedDate != "" {
			if relErr := d.repo.ReleaseDailySlot(ctx, reservedDate); relErr != nil {
				log.WithError(relErr).Warn("[DISPATCH] Could not release quota slot")
			}
		}
	}()

	if post.Kind == common.PostKindScheduled {
		date := timeutils.DayKey(post.TargetAt, d.cfg.Location)
		reserved, err := d.repo.ReserveDailySlot(ctx, date, d.cfg.MaxPostsPerDay)
		if err != nil {
			return err
		}
		if !reserved {
			d.analytics.Record(ctx, common.NoteEvent(post.ID, "daily quota reached", d.now()))
			if d.cfg.QuotaRollover {
				tomorrow := post.TargetAt.Add(24 * time.Hour)
				log.Infof("[DISPATCH] Daily quota reached, rolling post over to %s", tomorrow.Format(time.RFC3339))
				return d.repo.DeferPost(ctx, post.ID, tomorrow)
			}
			// Hold the post pending for the rest of the day; the next
			// day's reconcile expires it.
			log.Info("[DISPATCH] Daily quota reached, holding post until end of day")
			return d.repo.DeferPost(ctx, post.ID, timeutils.NextMidnight(d.now(), d.cfg.Location))
		}
		reservedDate = date
	}

	// Thread segments wait for their predecessor's platform id.
	if post.ThreadID != "" && post.ThreadIndex > 0 && post.InReplyTo == "" {
		ready, err := d.resolveThreadPredecessor(ctx, post)
		if err != nil || !ready {
			return err
		}
	}

	if post.Text == "" {
		genCtx, cancel := context.WithTimeout(ctx, d.cfg.GenerateTimeout)
		text, err := d.source.GeneratePost(genCtx, post.Topic)
		cancel()
		if err != nil {
			log.WithError(err).Error("[DISPATCH] Content generation failed")
			return d.settleFailure(ctx, post, err)
		}
		if err := d.repo.SetPostText(ctx, post.ID, text, post.InReplyTo); err != nil {
			return err
		}
		post.Text = text
	}

	if verdict := d.filter.Check(post.Text); verdict.Spam {
		log.Warnf("[DISPATCH] Post rejected by outbound filter: %s", verdict.Reason)
		d.analytics.Record(ctx, common.NoteEvent(post.ID, "spam drop: "+verdict.Reason, d.now()))
		if err := d.repo.MarkFailed(ctx, post.ID, "self-filtered: "+verdict.Reason); err != nil {
			return err
		}
		return d.cancelThreadTail(ctx, post)
	}

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return d.repo.DeferPost(ctx, post.ID, d.now())
		}
	}

	platformID, err := d.platform.Publish(ctx, post.Text, post.InReplyTo)
	if err != nil {
		if errors.Is(err, common.ErrAuth) {
			return err
		}
		log.WithError(err).Error("[DISPATCH] Publish failed")
		return d.settleFailure(ctx, post, err)
	}

	if err := d.repo.MarkPublished(ctx, post.ID, platformID); err != nil {
		return err
	}
	reservedDate = ""
	if d.analytics != nil {
		d.analytics.Record(ctx, common.NotePostPublished(*post, platformID, d.now()))
	}
	log.Infof("[DISPATCH] Published post as %s", platformID)
	return nil
}

// resolveThreadPredecessor fills InReplyTo from the previous segment. It
// reports whether the post is ready to publish; when not ready the claim has
// already been settled (deferred or cancelled).
func (d *Dispatcher) resolveThreadPredecessor(ctx context.Context, post *common.ScheduledPost) (bool, error) {
	segments, err := d.repo.ListPosts(ctx, domain.PostFilter{ThreadID: post.ThreadID})
	if err != nil {
		return false, err
	}

	var pred *common.ScheduledPost
	for i := range segments {
		if segments[i].ThreadIndex == post.ThreadIndex-1 {
			pred = &segments[i]
			break
		}
	}
	if pred == nil {
		return false, d.repo.DiscardPost(ctx, post.ID, "thread predecessor missing")
	}

	switch pred.Status {
	case common.PostStatusPublished:
		if err := d.repo.SetPostText(ctx, post.ID, post.Text, pred.PlatformID); err != nil {
			return false, err
		}
		post.InReplyTo = pred.PlatformID
		return true, nil
	case common.PostStatusFailed, common.PostStatusCancelled:
		if err := d.repo.DiscardPost(ctx, post.ID, "predecessor segment failed"); err != nil {
			return false, err
		}
		_, err := d.repo.CancelThreadRemainder(ctx, post.ThreadID, post.ThreadIndex)
		return false, err
	default:
		// Predecessor still in flight, come back shortly.
		return false, d.repo.DeferPost(ctx, post.ID, d.now().Add(30*time.Second))
	}
}

// settleFailure applies the retry policy to a claimed post that hit a
// content or publish error.
func (d *Dispatcher) settleFailure(ctx context.Context, post *common.ScheduledPost, cause error) error {
	log := logrus.WithField("post_id", post.ID)

	if common.IsTransient(cause) && post.Retries < d.cfg.MaxRetries {
		delay := d.backoff(post.Retries)
		log.Warnf("[DISPATCH] Transient failure, retry %d/%d in %s", post.Retries+1, d.cfg.MaxRetries, delay)
		return d.repo.RequeueForRetry(ctx, post.ID, d.now().Add(delay))
	}

	reason := cause.Error()
	if common.IsTransient(cause) {
		reason = "retries exhausted: " + reason
	}
	if err := d.repo.MarkFailed(ctx, post.ID, reason); err != nil {
		return err
	}
	return d.cancelThreadTail(ctx, post)
}

func (d *Dispatcher) cancelThreadTail(ctx context.Context, post *common.ScheduledPost) error {
	if post.ThreadID == "" {
		return nil
	}
	cancelled, err := d.repo.CancelThreadRemainder(ctx, post.ThreadID, post.ThreadIndex)
	if err != nil {
		return err
	}
	if cancelled > 0 {
		logrus.Infof("[DISPATCH] Cancelled %d remaining segments of thread %s", cancelled, post.ThreadID)
	}
	return nil
}

func (d *Dispatcher) backoff(retries int) time.Duration {
	delay := d.cfg.BaseBackoff
	for i := 0; i < retries; i++ {
		delay *= 2
		if delay >= d.cfg.MaxBackoff {
			return d.cfg.MaxBackoff
		}
	}
	if delay > d.cfg.MaxBackoff {
		delay = d.cfg.MaxBackoff
	}
	return delay
}
