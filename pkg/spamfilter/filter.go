package spamfilter

import (
	"regexp"
	"strings"
)

// Verdict explains why a text was rejected. Allowed verdicts have Spam=false.
type Verdict struct {
	Spam   bool
	Reason string
}

var patterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)https?://\S+`),
	regexp.MustCompile(`(?i)\bfollow me\b`),
	regexp.MustCompile(`(?i)\bcheck out\b`),
	regexp.MustCompile(`(?i)\bbuy now\b`),
	regexp.MustCompile(`(?i)\bdiscount\b`),
	regexp.MustCompile(`(?i)\bfree money\b`),
}

var hashtagPattern = regexp.MustCompile(`#\w+`)

// Filter applies a set of content rules to inbound and outbound texts.
// The zero value is unusable, build one with New.
type Filter struct {
	blacklist   []string
	maxLength   int
	maxHashtags int
}

func New(blacklist []string, maxLength, maxHashtags int) *Filter {
	lowered := make([]string, 0, len(blacklist))
	for _, w := range blacklist {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			lowered = append(lowered, w)
		}
	}
	return &Filter{
		blacklist:   lowered,
		maxLength:   maxLength,
		maxHashtags: maxHashtags,
	}
}

// Check returns the first rule the text violates. Empty or whitespace-only
// text is rejected so callers never publish a blank post.
func (f *Filter) Check(text string) Verdict {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Verdict{Spam: true, Reason: "empty text"}
	}
	if f.maxLength > 0 && len([]rune(trimmed)) > f.maxLength {
		return Verdict{Spam: true, Reason: "text exceeds maximum length"}
	}

	lowered := strings.ToLower(trimmed)
	for _, word := range f.blacklist {
		if strings.Contains(lowered, word) {
			return Verdict{Spam: true, Reason: "blacklisted word: " + word}
		}
	}

	for _, p := range patterns {
		if p.MatchString(trimmed) {
			return Verdict{Spam: true, Reason: "spam pattern: " + p.String()}
		}
	}

	if f.maxHashtags > 0 && len(hashtagPattern.FindAllString(trimmed, -1)) > f.maxHashtags {
		return Verdict{Spam: true, Reason: "too many hashtags"}
	}

	return Verdict{}
}

// IsSpam is a convenience wrapper over Check.
func (f *Filter) IsSpam(text string) bool {
	return f.Check(text).Spam
}
