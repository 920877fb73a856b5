package providers

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/AzielCF/az-postr/agent/domain"
	"github.com/AzielCF/az-postr/pkg/textutils"
)

// Config is shared by all content providers.
type Config struct {
	APIKey           string
	Model            string
	Language         string // "en" or "ru"
	MaxTextLength    int
	PostTemperature  float64
	ReplyTemperature float64
}

func (c Config) withDefaults() Config {
	if c.Language == "" {
		c.Language = "en"
	}
	if c.MaxTextLength <= 0 {
		c.MaxTextLength = 280
	}
	if c.PostTemperature <= 0 {
		c.PostTemperature = 0.7
	}
	if c.ReplyTemperature <= 0 {
		c.ReplyTemperature = 0.5
	}
	return c
}

// finalizePost cleans generated text, appends topic hashtags when the model
// produced none and the limit leaves room, and trims to the platform length.
func finalizePost(text, topic string, cfg Config) string {
	text = textutils.CleanText(text)
	if topic != "" && len(textutils.ExtractHashtags(text)) == 0 {
		suffix := strings.Join(textutils.HashtagsFor([]string{topic}, 2, cfg.Language), " ")
		if suffix != "" && utf8.RuneCountInString(text)+utf8.RuneCountInString(suffix)+1 <= cfg.MaxTextLength {
			text = text + " " + suffix
		}
	}
	return textutils.TruncateText(text, cfg.MaxTextLength)
}

// New builds the content source selected by name.
func New(name string, cfg Config) (domain.ContentSource, error) {
	switch strings.ToLower(name) {
	case "openai":
		return NewOpenAIProvider(cfg), nil
	case "gemini":
		return NewGeminiProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unknown content provider: %s", name)
	}
}
