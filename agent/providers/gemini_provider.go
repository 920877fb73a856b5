package providers

import (
	"context"
	"fmt"

	"github.com/AzielCF/az-postr/agent/domain/common"
	"github.com/AzielCF/az-postr/integrations/prompt"
	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

// GeminiProvider generates posts and replies through the Google Gemini API
type GeminiProvider struct {
	cfg Config
}

// NewGeminiProvider creates a new Gemini content source
func NewGeminiProvider(cfg Config) *GeminiProvider {
	return &GeminiProvider{cfg: cfg.withDefaults()}
}

func (p *GeminiProvider) generate(ctx context.Context, system, user string, temperature float64) (string, error) {
	if p.cfg.APIKey == "" {
		return "", common.Fatal("gemini api key missing", nil)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  p.cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", common.Transient(fmt.Errorf("gemini client: %w", err))
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, ""),
		Temperature:       genai.Ptr(float32(temperature)),
	}
	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{{Text: user}},
	}}

	result, err := client.Models.GenerateContent(ctx, p.cfg.Model, contents, cfg)
	if err != nil {
		return "", common.Transient(fmt.Errorf("gemini generate: %w", err))
	}

	text := result.Text()
	if text == "" {
		return "", common.Transient(fmt.Errorf("gemini returned an empty response"))
	}
	logrus.Debugf("[PROVIDER] Gemini generated %d chars with model %s", len(text), p.cfg.Model)
	return text, nil
}

func (p *GeminiProvider) GeneratePost(ctx context.Context, topic string) (string, error) {
	system, user := prompt.ForPost(p.cfg.Language, topic, p.cfg.MaxTextLength)
	text, err := p.generate(ctx, system, user, p.cfg.PostTemperature)
	if err != nil {
		return "", err
	}
	return finalizePost(text, topic, p.cfg), nil
}

func (p *GeminiProvider) GenerateReply(ctx context.Context, inboundText, senderName, hint string) (string, error) {
	system, user := prompt.ForReply(p.cfg.Language, inboundText, senderName, hint, p.cfg.MaxTextLength)
	return p.generate(ctx, system, user, p.cfg.ReplyTemperature)
}

func (p *GeminiProvider) GenerateThread(ctx context.Context, topic string, length int) ([]string, error) {
	system, user := prompt.ForThread(p.cfg.Language, topic, length, p.cfg.MaxTextLength)
	raw, err := p.generate(ctx, system, user, p.cfg.PostTemperature)
	if err != nil {
		return nil, err
	}
	segments := prompt.SplitThread(raw)
	if len(segments) == 0 {
		return nil, common.Transient(fmt.Errorf("gemini thread response had no segments"))
	}
	return segments, nil
}
