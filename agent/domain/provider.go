package domain

import (
	"context"

	"github.com/AzielCF/az-postr/agent/domain/common"
)

// ContentSource produces post, reply, and thread text. Implementations live in
// integrations/ and are registered by provider name.
type ContentSource interface {
	// GeneratePost returns one post body for the topic, already trimmed to the
	// platform maximum with hashtags appended.
	GeneratePost(ctx context.Context, topic string) (string, error)

	// GenerateReply returns a reply to the inbound text. hint carries the
	// detected message kind (greeting, question, help, general) so the
	// provider can pick an appropriate register.
	GenerateReply(ctx context.Context, inboundText, senderName, hint string) (string, error)

	// GenerateThread returns length connected segments for the topic.
	GenerateThread(ctx context.Context, topic string, length int) ([]string, error)
}

// PlatformClient is the narrow boundary to the social platform. Errors are
// classified via the common taxonomy: common.ErrAuth, common.TransientError,
// common.FatalError.
type PlatformClient interface {
	// Publish posts text, optionally as a reply to inReplyTo, and returns the
	// platform-assigned id.
	Publish(ctx context.Context, text, inReplyTo string) (string, error)

	FetchMentions(ctx context.Context, sinceID string) ([]common.InboundEvent, error)
	FetchDirectMessages(ctx context.Context, sinceID string) ([]common.InboundEvent, error)
	SendDirectMessage(ctx context.Context, userID, text string) error

	// VerifyCredentials fails fast with common.ErrAuth on bad credentials.
	VerifyCredentials(ctx context.Context) error
}

// AnalyticsRecorder accepts events fire-and-forget. Implementations must never
// block the dispatch or response pipelines; failures are logged, not returned.
type AnalyticsRecorder interface {
	Record(ctx context.Context, ev common.AnalyticsEvent)
}

// ReplyLedger tracks replies sent per user per day.
type ReplyLedger interface {
	// Take reserves one reply slot for senderID if fewer than cap replies went
	// out today. Reservation is atomic: concurrent callers never overshoot.
	Take(ctx context.Context, senderID string, cap int) (bool, error)
}
