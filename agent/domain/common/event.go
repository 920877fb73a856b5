package common

import "time"

type EventKind string

const (
	EventKindMention EventKind = "mention"
	EventKindDM      EventKind = "dm"
)

// InboundEvent is a mention or direct message fetched from the platform.
// EventID is the deduplication key: the platform may redeliver.
type InboundEvent struct {
	EventID    string    `json:"event_id"`
	Kind       EventKind `json:"kind"`
	SenderID   string    `json:"sender_id"`
	SenderName string    `json:"sender_name,omitempty"`
	Text       string    `json:"text"`
	ReceivedAt time.Time `json:"received_at"`
}

type AnalyticsKind string

const (
	AnalyticsPostPublished      AnalyticsKind = "post_published"
	AnalyticsReplyPublished     AnalyticsKind = "reply_published"
	AnalyticsEngagementSnapshot AnalyticsKind = "engagement_snapshot"
	AnalyticsNote               AnalyticsKind = "note"
)

// AnalyticsEvent is write-only from the agent's perspective: ownership passes
// to the recorder on emission, and recorder failures never reach the caller.
type AnalyticsEvent struct {
	Kind      AnalyticsKind `json:"kind"`
	SubjectID string        `json:"subject_id"`
	At        time.Time     `json:"at"`

	// post_published / reply_published
	PlatformID string `json:"platform_id,omitempty"`
	Topic      string `json:"topic,omitempty"`
	TextLen    int    `json:"text_len,omitempty"`
	SenderID   string `json:"sender_id,omitempty"`
	EventKind  string `json:"event_kind,omitempty"`

	// engagement_snapshot
	Likes       int `json:"likes,omitempty"`
	Reposts     int `json:"reposts,omitempty"`
	Replies     int `json:"replies,omitempty"`
	Impressions int `json:"impressions,omitempty"`

	// note
	Note string `json:"note,omitempty"`
}

func NotePostPublished(post ScheduledPost, platformID string, at time.Time) AnalyticsEvent {
	return AnalyticsEvent{
		Kind:       AnalyticsPostPublished,
		SubjectID:  post.ID,
		PlatformID: platformID,
		Topic:      post.Topic,
		TextLen:    len(post.Text),
		At:         at,
	}
}

func NoteReplyPublished(ev InboundEvent, platformID, text string, at time.Time) AnalyticsEvent {
	return AnalyticsEvent{
		Kind:       AnalyticsReplyPublished,
		SubjectID:  ev.EventID,
		PlatformID: platformID,
		SenderID:   ev.SenderID,
		EventKind:  string(ev.Kind),
		TextLen:    len(text),
		At:         at,
	}
}

func NoteEvent(subjectID, note string, at time.Time) AnalyticsEvent {
	return AnalyticsEvent{
		Kind:      AnalyticsNote,
		SubjectID: subjectID,
		Note:      note,
		At:        at,
	}
}
