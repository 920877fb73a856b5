package textutils

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	hashtagRe    = regexp.MustCompile(`#(\w+)`)
	mentionRe    = regexp.MustCompile(`@(\w+)`)
)

// CleanText collapses runs of whitespace and trims the result.
func CleanText(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// TruncateText shortens text to at most maxLen runes, cutting at the last
// word boundary when one exists and appending an ellipsis.
func TruncateText(text string, maxLen int) string {
	runes := []rune(text)
	if maxLen <= 0 || len(runes) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}

	cut := string(runes[:maxLen-3])
	if idx := strings.LastIndexAny(cut, " \t\n"); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " \t\n") + "..."
}

// ExtractHashtags returns the hashtag bodies found in text, without the '#'.
func ExtractHashtags(text string) []string {
	var tags []string
	for _, m := range hashtagRe.FindAllStringSubmatch(text, -1) {
		tags = append(tags, m[1])
	}
	return tags
}

// ExtractMentions returns the mentioned usernames found in text, without the '@'.
func ExtractMentions(text string) []string {
	var names []string
	for _, m := range mentionRe.FindAllStringSubmatch(text, -1) {
		names = append(names, m[1])
	}
	return names
}

var hashtagMapRu = map[string]string{
	"technology":       "#технологии",
	"programming":      "#программирование",
	"ai":               "#ии",
	"devops":           "#devops",
	"automation":       "#автоматизация",
	"coding":           "#кодинг",
	"development":      "#разработка",
	"software":         "#софт",
	"cloud":            "#облако",
	"security":         "#безопасность",
	"data":             "#данные",
	"machine_learning": "#машинноеобучение",
}

var hashtagMapEn = map[string]string{
	"technology":       "#technology",
	"programming":      "#programming",
	"ai":               "#AI",
	"devops":           "#devops",
	"automation":       "#automation",
	"coding":           "#coding",
	"development":      "#development",
	"software":         "#software",
	"cloud":            "#cloud",
	"security":         "#security",
	"data":             "#data",
	"machine_learning": "#MachineLearning",
}

// HashtagsFor maps topics to localized hashtags, falling back to the topic
// itself when there is no translation. At most count tags are returned.
func HashtagsFor(topics []string, count int, language string) []string {
	dict := hashtagMapEn
	if language == "ru" {
		dict = hashtagMapRu
	}

	var tags []string
	for _, topic := range topics {
		if count >= 0 && len(tags) >= count {
			break
		}
		if tag, ok := dict[strings.ToLower(topic)]; ok {
			tags = append(tags, tag)
		} else if cleaned := strings.TrimSpace(topic); cleaned != "" {
			tags = append(tags, "#"+whitespaceRe.ReplaceAllString(cleaned, ""))
		}
	}
	return tags
}

// EngagementScore weights reposts and replies above likes and normalizes by
// the audience size, as a percentage.
func EngagementScore(likes, reposts, replies, followers int) float64 {
	if followers <= 0 {
		return 0
	}
	return float64(likes+2*reposts+3*replies) / float64(followers) * 100
}
