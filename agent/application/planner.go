package application

import (
	"context"
	"time"

	"github.com/AzielCF/az-postr/agent/domain"
	"github.com/AzielCF/az-postr/agent/domain/common"
	"github.com/AzielCF/az-postr/pkg/timeutils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// PlannerConfig captures the posting schedule knobs.
type PlannerConfig struct {
	PrimaryHour    int
	PrimaryMinute  int
	MaxPostsPerDay int
	WindowStart    int
	WindowEnd      int
	Topics         []string
	QuotaRollover  bool
	Location       *time.Location
}

// Planner lays out each day's posting slots and keeps the store in sync
// with that plan. Planning is deterministic: the same date and config
// always produce the same slots.
type Planner struct {
	repo domain.IAgentRepository
	cfg  PlannerConfig
	now  func() time.Time
}

func NewPlanner(repo domain.IAgentRepository, cfg PlannerConfig) *Planner {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.MaxPostsPerDay <= 0 {
		cfg.MaxPostsPerDay = 1
	}
	if cfg.WindowEnd <= cfg.WindowStart {
		cfg.WindowStart, cfg.WindowEnd = 9, 21
	}
	return &Planner{repo: repo, cfg: cfg, now: time.Now}
}

// Slot is one planned publication: a moment and the topic to post about.
type Slot struct {
	TargetAt time.Time
	Topic    string
}

// PlanDay computes the posting slots for the given calendar day, sorted
// ascending. The first slot is always the primary post at the configured
// hour and minute. The remaining slots spread across the posting window
// using integer interpolation, so they never drift between calls.
func (p *Planner) PlanDay(date time.Time) []Slot {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, p.cfg.Location)

	slots := make([]Slot, 0, p.cfg.MaxPostsPerDay)
	slots = append(slots, Slot{
		TargetAt: day.Add(time.Duration(p.cfg.PrimaryHour)*time.Hour + time.Duration(p.cfg.PrimaryMinute)*time.Minute),
		Topic:    p.topicFor(date, 0),
	})

	additional := p.cfg.MaxPostsPerDay - 1
	totalHours := p.cfg.WindowEnd - p.cfg.WindowStart
	for i := 0; i < additional; i++ {
		hour := p.cfg.WindowStart + (i+1)*totalHours/(additional+1)
		slots = append(slots, Slot{
			TargetAt: day.Add(time.Duration(hour) * time.Hour),
			Topic:    p.topicFor(date, i+1),
		})
	}

	// Slots sort by time with the primary post winning ties.
	for i := 1; i < len(slots); i++ {
		for j := i; j > 0 && slots[j].TargetAt.Before(slots[j-1].TargetAt); j-- {
			slots[j], slots[j-1] = slots[j-1], slots[j]
		}
	}
	return slots
}

func (p *Planner) topicFor(date time.Time, index int) string {
	if len(p.cfg.Topics) == 0 {
		return ""
	}
	offset := date.Year()*366 + date.YearDay()
	return p.cfg.Topics[(offset+index)%len(p.cfg.Topics)]
}

// ReconcileDay enqueues the planned posts for the day that are not in the
// store yet. Running it twice is a no-op: existing posts for a slot time,
// whatever their current status, keep their slot.
func (p *Planner) ReconcileDay(ctx context.Context, date time.Time) (int, error) {
	p.expireOverdue(ctx, date)

	dateKey := timeutils.DayKey(date, p.cfg.Location)
	existing, err := p.repo.ListPosts(ctx, domain.PostFilter{
		Kind: common.PostKindScheduled,
		Date: dateKey,
	})
	if err != nil {
		return 0, err
	}

	taken := make(map[int64]bool, len(existing))
	for _, post := range existing {
		taken[post.TargetAt.Unix()] = true
	}

	created := 0
	now := p.now().UTC()
	for _, slot := range p.PlanDay(date) {
		if taken[slot.TargetAt.Unix()] {
			continue
		}
		post := common.ScheduledPost{
			ID:        uuid.New().String(),
			Topic:     slot.Topic,
			TargetAt:  slot.TargetAt.UTC(),
			Status:    common.PostStatusPending,
			Kind:      common.PostKindScheduled,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := p.repo.EnqueuePost(ctx, post); err != nil {
			return created, err
		}
		created++
	}

	if created > 0 {
		logrus.Infof("[PLANNER] Planned %d posts for %s", created, dateKey)
	}
	return created, nil
}

// expireOverdue cancels scheduled posts whose slot day already passed.
// With rollover enabled they stay pending and the dispatcher defers them.
func (p *Planner) expireOverdue(ctx context.Context, date time.Time) {
	if p.cfg.QuotaRollover {
		return
	}

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, p.cfg.Location)
	pending, err := p.repo.ListPosts(ctx, domain.PostFilter{
		Status: common.PostStatusPending,
		Kind:   common.PostKindScheduled,
	})
	if err != nil {
		logrus.WithError(err).Error("[PLANNER] Could not list pending posts for expiry")
		return
	}

	expired := 0
	for _, post := range pending {
		if !post.TargetAt.Before(dayStart) {
			continue
		}
		if err := p.repo.CancelPost(ctx, post.ID); err != nil {
			logrus.WithError(err).Warnf("[PLANNER] Could not expire post %s", post.ID)
			continue
		}
		expired++
	}
	if expired > 0 {
		logrus.Infof("[PLANNER] Expired %d unposted slots from previous days", expired)
	}
}

// Run reconciles today immediately and then again shortly after each local
// midnight, until the context is cancelled.
func (p *Planner) Run(ctx context.Context) {
	if _, err := p.ReconcileDay(ctx, p.now().In(p.cfg.Location)); err != nil {
		logrus.WithError(err).Error("[PLANNER] Initial day reconcile failed")
	}

	for {
		now := p.now()
		nextWake := timeutils.NextMidnight(now, p.cfg.Location).Add(time.Minute)

		timer := time.NewTimer(nextWake.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			if _, err := p.ReconcileDay(ctx, p.now().In(p.cfg.Location)); err != nil {
				logrus.WithError(err).Error("[PLANNER] Day reconcile failed")
			}
		}
	}
}
