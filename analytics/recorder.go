package analytics

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AzielCF/az-postr/agent/domain/common"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const queueSize = 256

// Recorder persists analytics events in the background. Record never blocks
// the caller and never surfaces storage errors: losing a metric must not
// affect publishing.
type Recorder struct {
	db       *gorm.DB
	queue    chan common.AnalyticsEvent
	stopOnce sync.Once
	started  int32
	done     chan struct{}
}

func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{
		db:    db,
		queue: make(chan common.AnalyticsEvent, queueSize),
		done:  make(chan struct{}),
	}
}

// InitSchema creates the analytics tables.
func (r *Recorder) InitSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&PostMetric{}, &ResponseMetric{}, &DailyStat{}, &AgentNote{})
}

// Start launches the background writer. Subsequent calls are no-ops.
func (r *Recorder) Start(ctx context.Context) {
	if !atomic.CompareAndSwapInt32(&r.started, 0, 1) {
		return
	}
	go func() {
		defer close(r.done)
		for {
			select {
			case ev, ok := <-r.queue:
				if !ok {
					return
				}
				r.persist(ev)
			case <-ctx.Done():
				// Drain what is already queued before exiting.
				for {
					select {
					case ev := <-r.queue:
						r.persist(ev)
					default:
						return
					}
				}
			}
		}
	}()
}

// Record enqueues an event, dropping it when the writer is saturated.
func (r *Recorder) Record(ctx context.Context, ev common.AnalyticsEvent) {
	select {
	case r.queue <- ev:
	default:
		logrus.Warnf("[ANALYTICS] Queue full, dropping %s event for %s", ev.Kind, ev.SubjectID)
	}
}

// Stop closes the queue and waits for the writer to finish. When the writer
// never started there is nothing to wait for.
func (r *Recorder) Stop() {
	r.stopOnce.Do(func() {
		close(r.queue)
		if atomic.LoadInt32(&r.started) == 1 {
			<-r.done
		}
	})
}

func (r *Recorder) persist(ev common.AnalyticsEvent) {
	var err error
	switch ev.Kind {
	case common.AnalyticsPostPublished:
		err = r.db.Create(&PostMetric{
			PostID:      ev.SubjectID,
			PlatformID:  ev.PlatformID,
			Topic:       ev.Topic,
			TextLen:     ev.TextLen,
			PublishedAt: ev.At,
		}).Error
		if err == nil {
			err = r.bumpDaily(ev.At, 1, 0)
		}
	case common.AnalyticsReplyPublished:
		err = r.db.Create(&ResponseMetric{
			EventID:    ev.SubjectID,
			EventKind:  ev.EventKind,
			SenderID:   ev.SenderID,
			PlatformID: ev.PlatformID,
			TextLen:    ev.TextLen,
			RepliedAt:  ev.At,
		}).Error
		if err == nil {
			err = r.bumpDaily(ev.At, 0, 1)
		}
	case common.AnalyticsEngagementSnapshot:
		err = r.db.Model(&PostMetric{}).
			Where("platform_id = ?", ev.PlatformID).
			Updates(map[string]interface{}{
				"likes":       ev.Likes,
				"reposts":     ev.Reposts,
				"replies":     ev.Replies,
				"impressions": ev.Impressions,
			}).Error
	case common.AnalyticsNote:
		err = r.db.Create(&AgentNote{
			SubjectID: ev.SubjectID,
			Note:      ev.Note,
			NotedAt:   ev.At,
		}).Error
	}
	if err != nil {
		logrus.WithError(err).Warnf("[ANALYTICS] Failed to persist %s event", ev.Kind)
	}
}

func (r *Recorder) bumpDaily(at time.Time, posts, replies int) error {
	date := at.UTC().Format("2006-01-02")
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"posts_sent":   gorm.Expr("posts_sent + ?", posts),
			"replies_sent": gorm.Expr("replies_sent + ?", replies),
		}),
	}).Create(&DailyStat{
		Date:        date,
		PostsSent:   posts,
		RepliesSent: replies,
	}).Error
}

// Summarize aggregates the last N days of activity.
func (r *Recorder) Summarize(ctx context.Context, days int) (Summary, error) {
	if days <= 0 {
		days = 7
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	cutoffDate := cutoff.Format("2006-01-02")

	summary := Summary{Days: days}
	db := r.db.WithContext(ctx)

	if err := db.Model(&PostMetric{}).Where("published_at >= ?", cutoff).Count(&summary.PostsSent).Error; err != nil {
		return Summary{}, err
	}
	if err := db.Model(&ResponseMetric{}).Where("replied_at >= ?", cutoff).Count(&summary.RepliesSent).Error; err != nil {
		return Summary{}, err
	}

	var avg *float64
	if err := db.Model(&PostMetric{}).Where("published_at >= ?", cutoff).
		Select("AVG(text_len)").Scan(&avg).Error; err != nil {
		return Summary{}, err
	}
	if avg != nil {
		summary.AvgTextLen = *avg
	}

	if err := db.Model(&DailyStat{}).Where("date >= ?", cutoffDate).
		Order("date ASC").Find(&summary.Daily).Error; err != nil {
		return Summary{}, err
	}
	return summary, nil
}
