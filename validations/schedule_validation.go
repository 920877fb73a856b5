package validations

import (
	"context"
	"time"

	pkgError "github.com/AzielCF/az-postr/pkg/error"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type CreatePostInput struct {
	Text     string
	Topic    string
	TargetAt string
}

func ValidateCreatePost(ctx context.Context, request CreatePostInput) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Topic, validation.Required.When(request.Text == "").Error("topic is required when text is empty")),
		validation.Field(&request.TargetAt, validation.By(optionalRFC3339)),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

type CreateThreadInput struct {
	Topic   string
	Length  int
	StartAt string
}

func ValidateCreateThread(ctx context.Context, request CreateThreadInput) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Topic, validation.Required),
		validation.Field(&request.Length, validation.Min(0), validation.Max(25)),
		validation.Field(&request.StartAt, validation.By(optionalRFC3339)),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

type InjectEventInput struct {
	EventID  string
	Kind     string
	SenderID string
	Text     string
}

func ValidateInjectEvent(ctx context.Context, request InjectEventInput) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.EventID, validation.Required),
		validation.Field(&request.Kind, validation.In("mention", "dm")),
		validation.Field(&request.SenderID, validation.Required),
		validation.Field(&request.Text, validation.Required),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

func optionalRFC3339(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	_, err := time.Parse(time.RFC3339, s)
	return err
}
