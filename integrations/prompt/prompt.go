package prompt

import (
	"fmt"
	"strings"
)

// SegmentSeparator splits thread segments in a model response.
const SegmentSeparator = "---"

const postSystemEN = `You are a social media author with a consistent, friendly and insightful voice.
Write original posts that feel human: no clickbait, no emoji spam, at most two hashtags.
Never include links. Stay under %d characters.`

const postSystemRU = `Ты автор социальных сетей с узнаваемым, дружелюбным и вдумчивым голосом.
Пиши оригинальные посты без кликбейта и спама эмодзи, максимум два хэштега.
Никогда не вставляй ссылки. Не больше %d символов.`

const replySystemEN = `You reply to people on social media on behalf of the account owner.
Be concise, warm and concrete. One or two sentences. Never include links.
Stay under %d characters.`

const replySystemRU = `Ты отвечаешь людям в социальных сетях от имени владельца аккаунта.
Коротко, тепло и по делу. Одно-два предложения. Никогда не вставляй ссылки.
Не больше %d символов.`

// ForPost builds the system and user prompts for a standalone post.
func ForPost(lang, topic string, maxLen int) (string, string) {
	if strings.EqualFold(lang, "ru") {
		return fmt.Sprintf(postSystemRU, maxLen),
			fmt.Sprintf("Напиши пост на тему: %s", topic)
	}
	return fmt.Sprintf(postSystemEN, maxLen),
		fmt.Sprintf("Write a post about: %s", topic)
}

// ForReply builds the prompts for answering an inbound mention or DM.
// hint carries an optional operator instruction about tone or content.
func ForReply(lang, inbound, sender, hint string, maxLen int) (string, string) {
	system := fmt.Sprintf(replySystemEN, maxLen)
	user := fmt.Sprintf("Reply to this message from %s:\n%s", sender, inbound)
	if strings.EqualFold(lang, "ru") {
		system = fmt.Sprintf(replySystemRU, maxLen)
		user = fmt.Sprintf("Ответь на это сообщение от %s:\n%s", sender, inbound)
	}
	if hint != "" {
		system += "\n" + hint
	}
	return system, user
}

// ForThread builds the prompts for a multi-post thread. The model is asked
// to separate segments with SegmentSeparator on its own line.
func ForThread(lang, topic string, length, maxLen int) (string, string) {
	if strings.EqualFold(lang, "ru") {
		system := fmt.Sprintf(postSystemRU, maxLen) +
			fmt.Sprintf("\nНапиши тред из %d постов. Раздели посты строкой из трёх дефисов: %s", length, SegmentSeparator)
		return system, fmt.Sprintf("Напиши тред на тему: %s", topic)
	}
	system := fmt.Sprintf(postSystemEN, maxLen) +
		fmt.Sprintf("\nWrite a thread of exactly %d posts. Separate posts with a line containing only: %s", length, SegmentSeparator)
	return system, fmt.Sprintf("Write a thread about: %s", topic)
}

// SplitThread parses a thread response into trimmed, non-empty segments.
func SplitThread(raw string) []string {
	var segments []string
	for _, part := range strings.Split(raw, SegmentSeparator) {
		if part = strings.TrimSpace(part); part != "" {
			segments = append(segments, part)
		}
	}
	return segments
}
