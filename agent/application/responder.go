package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AzielCF/az-postr/agent/domain"
	"github.com/AzielCF/az-postr/agent/domain/common"
	"github.com/AzielCF/az-postr/pkg/eventworker"
	"github.com/AzielCF/az-postr/pkg/spamfilter"
	"github.com/AzielCF/az-postr/pkg/textutils"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// ResponderConfig captures the inbound-event reply policy.
type ResponderConfig struct {
	AutoResponse      bool
	MaxRepliesPerUser int
	MaxTextLength     int
	PollInterval      time.Duration
	GenerateTimeout   time.Duration
	ReplyHint         string // extra instruction mixed into reply prompts
}

// Responder turns inbound mentions and direct messages into generated
// replies. Events are deduplicated by id and throttled per sender; a reply
// that fails to publish is never retried.
type Responder struct {
	repo      domain.IAgentRepository
	source    domain.ContentSource
	platform  domain.PlatformClient
	analytics domain.AnalyticsRecorder
	ledger    domain.ReplyLedger
	filter    *spamfilter.Filter
	limiter   *rate.Limiter
	pool      *eventworker.EventWorkerPool
	cfg       ResponderConfig
	now       func() time.Time
}

func NewResponder(
	repo domain.IAgentRepository,
	source domain.ContentSource,
	platform domain.PlatformClient,
	analytics domain.AnalyticsRecorder,
	ledger domain.ReplyLedger,
	filter *spamfilter.Filter,
	limiter *rate.Limiter,
	pool *eventworker.EventWorkerPool,
	cfg ResponderConfig,
) *Responder {
	if cfg.MaxRepliesPerUser <= 0 {
		cfg.MaxRepliesPerUser = 3
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Minute
	}
	if cfg.GenerateTimeout <= 0 {
		cfg.GenerateTimeout = 45 * time.Second
	}
	return &Responder{
		repo:      repo,
		source:    source,
		platform:  platform,
		analytics: analytics,
		ledger:    ledger,
		filter:    filter,
		limiter:   limiter,
		pool:      pool,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Run polls the platform for new events until the context is cancelled or
// credentials stop working.
func (r *Responder) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := r.Poll(ctx); err != nil {
			if errors.Is(err, common.ErrAuth) {
				logrus.WithError(err).Error("[RESPONDER] Platform rejected credentials, stopping poll loop")
				return err
			}
			logrus.WithError(err).Error("[RESPONDER] Poll failed")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Poll fetches new mentions and direct messages past the stored cursors and
// hands each event to the worker pool.
func (r *Responder) Poll(ctx context.Context) error {
	if err := r.pollStream(ctx, "mentions", r.platform.FetchMentions); err != nil {
		return err
	}
	return r.pollStream(ctx, "dms", r.platform.FetchDirectMessages)
}

func (r *Responder) pollStream(
	ctx context.Context,
	stream string,
	fetch func(ctx context.Context, sinceID string) ([]common.InboundEvent, error),
) error {
	since, err := r.repo.Cursor(ctx, stream)
	if err != nil {
		return err
	}

	events, err := fetch(ctx, since)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	// The cursor only moves past events that actually made it onto a worker
	// queue. A dropped event is refetched on the next poll.
	dispatched := 0
	last := ""
	for _, ev := range events {
		event := ev
		ok := r.pool.TryDispatch(eventworker.EventJob{
			EventID:  event.EventID,
			SenderID: event.SenderID,
			Handler: func(jobCtx context.Context) error {
				return r.Handle(jobCtx, event)
			},
		})
		if !ok {
			logrus.Warnf("[RESPONDER] Worker pool full, holding %s cursor before %s", stream, event.EventID)
			break
		}
		dispatched++
		last = event.EventID
	}
	if dispatched == 0 {
		return nil
	}

	logrus.Debugf("[RESPONDER] Dispatched %d %s, cursor -> %s", dispatched, stream, last)
	return r.repo.SetCursor(ctx, stream, last)
}

// Handle runs one inbound event through the full reply pipeline. Skips are
// silent successes; only infrastructure errors surface to the caller.
func (r *Responder) Handle(ctx context.Context, ev common.InboundEvent) error {
	log := logrus.WithFields(logrus.Fields{"event_id": ev.EventID, "sender": ev.SenderID, "kind": ev.Kind})

	fresh, err := r.repo.MarkEventProcessed(ctx, ev.EventID)
	if err != nil {
		return err
	}
	if !fresh {
		log.Debug("[RESPONDER] Duplicate event, skipping")
		return nil
	}

	if !r.cfg.AutoResponse {
		// Keep the event visible for a manual reply instead of answering.
		log.Infof("[RESPONDER] Auto-response disabled, recording %s from %s for manual reply", ev.Kind, ev.SenderID)
		r.analytics.Record(ctx, common.NoteEvent(ev.EventID,
			fmt.Sprintf("manual reply needed (%s from %s): %s", ev.Kind, ev.SenderID, textutils.TruncateText(ev.Text, 120)),
			r.now()))
		return nil
	}

	if verdict := r.filter.Check(ev.Text); verdict.Spam {
		log.Infof("[RESPONDER] Inbound event filtered: %s", verdict.Reason)
		r.analytics.Record(ctx, common.NoteEvent(ev.EventID, "spam drop: "+verdict.Reason, r.now()))
		return nil
	}

	allowed, err := r.ledger.Take(ctx, ev.SenderID, r.cfg.MaxRepliesPerUser)
	if err != nil {
		return err
	}
	if !allowed {
		log.Info("[RESPONDER] Sender reached the daily reply cap, skipping")
		r.analytics.Record(ctx, common.NoteEvent(ev.EventID, "reply quota reached", r.now()))
		return nil
	}

	genCtx, cancel := context.WithTimeout(ctx, r.cfg.GenerateTimeout)
	text, err := r.source.GenerateReply(genCtx, ev.Text, ev.SenderName, r.cfg.ReplyHint)
	cancel()
	if err != nil {
		log.WithError(err).Error("[RESPONDER] Reply generation failed")
		return err
	}
	if r.cfg.MaxTextLength > 0 {
		text = textutils.TruncateText(textutils.CleanText(text), r.cfg.MaxTextLength)
	}

	if verdict := r.filter.Check(text); verdict.Spam {
		log.Warnf("[RESPONDER] Generated reply rejected by outbound filter: %s", verdict.Reason)
		return nil
	}

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	// Replies are best effort: a publish failure is logged, never retried.
	var platformID string
	switch ev.Kind {
	case common.EventKindDM:
		err = r.platform.SendDirectMessage(ctx, ev.SenderID, text)
	default:
		platformID, err = r.platform.Publish(ctx, text, ev.EventID)
	}
	if err != nil {
		log.WithError(err).Error("[RESPONDER] Reply publish failed")
		if errors.Is(err, common.ErrAuth) {
			return err
		}
		return nil
	}

	if r.analytics != nil {
		r.analytics.Record(ctx, common.NoteReplyPublished(ev, platformID, text, r.now()))
	}
	log.Info("[RESPONDER] Replied to event")
	return nil
}
