package application

import (
	"context"
	"time"

	"github.com/AzielCF/az-postr/agent/domain"
	"github.com/AzielCF/az-postr/agent/domain/common"
	"github.com/AzielCF/az-postr/pkg/textutils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultThreadGap spaces thread segments so the platform sees them as a
// deliberate sequence rather than a burst.
const DefaultThreadGap = 90 * time.Second

// PostService is the operator-facing surface over the post queue: manual
// posts, threads, cancellation and queue inspection.
type PostService struct {
	repo            domain.IAgentRepository
	source          domain.ContentSource
	maxTextLength   int
	generateTimeout time.Duration
	now             func() time.Time
}

func NewPostService(repo domain.IAgentRepository, source domain.ContentSource, maxTextLength int, generateTimeout time.Duration) *PostService {
	if generateTimeout <= 0 {
		generateTimeout = 45 * time.Second
	}
	return &PostService{
		repo:            repo,
		source:          source,
		maxTextLength:   maxTextLength,
		generateTimeout: generateTimeout,
		now:             time.Now,
	}
}

// CreateManualPost enqueues a single post. With empty text the content is
// generated from the topic when the post is claimed.
func (s *PostService) CreateManualPost(ctx context.Context, text, topic string, targetAt time.Time) (common.ScheduledPost, error) {
	now := s.now().UTC()
	if targetAt.IsZero() {
		targetAt = now
	}
	if text != "" {
		text = textutils.CleanText(text)
		if s.maxTextLength > 0 {
			text = textutils.TruncateText(text, s.maxTextLength)
		}
	}

	post := common.ScheduledPost{
		ID:        uuid.New().String(),
		Topic:     topic,
		Text:      text,
		TargetAt:  targetAt.UTC(),
		Status:    common.PostStatusPending,
		Kind:      common.PostKindManual,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.EnqueuePost(ctx, post); err != nil {
		return common.ScheduledPost{}, err
	}
	logrus.Infof("[APP] Enqueued manual post %s for %s", post.ID, post.TargetAt.Format(time.RFC3339))
	return post, nil
}

// CreateThread generates the full thread text up front and enqueues one post
// per segment. Segments after the first chain onto their predecessor's
// platform id at publish time.
func (s *PostService) CreateThread(ctx context.Context, topic string, length int, startAt time.Time) ([]common.ScheduledPost, error) {
	if length <= 0 {
		length = 3
	}
	if startAt.IsZero() {
		startAt = s.now()
	}

	genCtx, cancel := context.WithTimeout(ctx, s.generateTimeout)
	texts, err := s.source.GenerateThread(genCtx, topic, length)
	cancel()
	if err != nil {
		return nil, err
	}

	threadID := uuid.New().String()
	now := s.now().UTC()
	posts := make([]common.ScheduledPost, 0, len(texts))
	for i, text := range texts {
		text = textutils.CleanText(text)
		if s.maxTextLength > 0 {
			text = textutils.TruncateText(text, s.maxTextLength)
		}
		post := common.ScheduledPost{
			ID:          uuid.New().String(),
			ThreadID:    threadID,
			ThreadIndex: i,
			ThreadLen:   len(texts),
			Topic:       topic,
			Text:        text,
			TargetAt:    startAt.UTC().Add(time.Duration(i) * DefaultThreadGap),
			Status:      common.PostStatusPending,
			Kind:        common.PostKindThread,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.repo.EnqueuePost(ctx, post); err != nil {
			// Orphan the segments already stored so no partial thread publishes.
			_, _ = s.repo.CancelThreadRemainder(ctx, threadID, -1)
			return nil, err
		}
		posts = append(posts, post)
	}

	logrus.Infof("[APP] Enqueued thread %s with %d segments starting %s",
		threadID, len(posts), startAt.Format(time.RFC3339))
	return posts, nil
}

// CancelPost cancels a pending post. For a thread segment the rest of the
// thread goes with it, a thread never publishes around a hole.
func (s *PostService) CancelPost(ctx context.Context, id string) error {
	post, err := s.repo.GetPost(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.CancelPost(ctx, id); err != nil {
		return err
	}
	if post.ThreadID != "" {
		if _, err := s.repo.CancelThreadRemainder(ctx, post.ThreadID, post.ThreadIndex); err != nil {
			return err
		}
	}
	return nil
}

// Queue lists posts, optionally narrowed by status, kind or day.
func (s *PostService) Queue(ctx context.Context, filter domain.PostFilter) ([]common.ScheduledPost, error) {
	return s.repo.ListPosts(ctx, filter)
}

// Get returns a single post by id.
func (s *PostService) Get(ctx context.Context, id string) (common.ScheduledPost, error) {
	return s.repo.GetPost(ctx, id)
}
