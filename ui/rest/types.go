package rest

// CreatePostRequest schedules a single post. TargetAt is RFC3339; empty
// means "as soon as possible". With empty text the content is generated
// from the topic at publish time.
type CreatePostRequest struct {
	Text     string `json:"text"`
	Topic    string `json:"topic"`
	TargetAt string `json:"target_at"`
}

// CreateThreadRequest schedules a generated thread.
type CreateThreadRequest struct {
	Topic   string `json:"topic"`
	Length  int    `json:"length"`
	StartAt string `json:"start_at"`
}

// InjectEventRequest feeds an inbound event into the reply pipeline, mainly
// for operators testing the responder.
type InjectEventRequest struct {
	EventID    string `json:"event_id"`
	Kind       string `json:"kind"` // mention | dm
	SenderID   string `json:"sender_id"`
	SenderName string `json:"sender_name"`
	Text       string `json:"text"`
}
