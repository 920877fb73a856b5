package providers

import (
	"context"
	"fmt"

	"github.com/AzielCF/az-postr/agent/domain/common"
	"github.com/AzielCF/az-postr/integrations/prompt"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/sirupsen/logrus"
)

// OpenAIProvider generates posts and replies through the OpenAI API
type OpenAIProvider struct {
	client openai.Client
	cfg    Config
}

// NewOpenAIProvider creates a new OpenAI content source
func NewOpenAIProvider(cfg Config) *OpenAIProvider {
	cfg = cfg.withDefaults()
	return &OpenAIProvider{
		client: openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		cfg:    cfg,
	}
}

func (p *OpenAIProvider) complete(ctx context.Context, system, user string, temperature float64) (string, error) {
	if p.cfg.APIKey == "" {
		return "", common.Fatal("openai api key missing", nil)
	}

	completion, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(temperature),
	})
	if err != nil {
		// API hiccups (rate limits, 5xx) clear up on their own, retry later.
		return "", common.Transient(fmt.Errorf("openai completion: %w", err))
	}
	if len(completion.Choices) == 0 {
		return "", common.Transient(fmt.Errorf("openai returned no choices"))
	}

	text := completion.Choices[0].Message.Content
	logrus.Debugf("[PROVIDER] OpenAI generated %d chars with model %s", len(text), p.cfg.Model)
	return text, nil
}

func (p *OpenAIProvider) GeneratePost(ctx context.Context, topic string) (string, error) {
	system, user := prompt.ForPost(p.cfg.Language, topic, p.cfg.MaxTextLength)
	text, err := p.complete(ctx, system, user, p.cfg.PostTemperature)
	if err != nil {
		return "", err
	}
	return finalizePost(text, topic, p.cfg), nil
}

func (p *OpenAIProvider) GenerateReply(ctx context.Context, inboundText, senderName, hint string) (string, error) {
	system, user := prompt.ForReply(p.cfg.Language, inboundText, senderName, hint, p.cfg.MaxTextLength)
	return p.complete(ctx, system, user, p.cfg.ReplyTemperature)
}

func (p *OpenAIProvider) GenerateThread(ctx context.Context, topic string, length int) ([]string, error) {
	system, user := prompt.ForThread(p.cfg.Language, topic, length, p.cfg.MaxTextLength)
	raw, err := p.complete(ctx, system, user, p.cfg.PostTemperature)
	if err != nil {
		return nil, err
	}
	segments := prompt.SplitThread(raw)
	if len(segments) == 0 {
		return nil, common.Transient(fmt.Errorf("openai thread response had no segments"))
	}
	return segments, nil
}
