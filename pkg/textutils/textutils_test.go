package textutils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	assert.Equal(t, "a b c", CleanText("  a \t b\n\nc  "))
	assert.Equal(t, "", CleanText("   \n\t "))
	assert.Equal(t, "unchanged", CleanText("unchanged"))
}

func TestTruncateText_ShortTextUntouched(t *testing.T) {
	assert.Equal(t, "short", TruncateText("short", 280))
	assert.Equal(t, "exact", TruncateText("exact", 5))
}

func TestTruncateText_CutsAtWordBoundary(t *testing.T) {
	got := TruncateText("hello world this is a long sentence", 20)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.LessOrEqual(t, len([]rune(got)), 20)
	assert.NotContains(t, strings.TrimSuffix(got, "..."), "  ")
	// Never cuts mid-word when a boundary exists.
	assert.Equal(t, "hello world this...", got)
}

func TestTruncateText_RuneSafe(t *testing.T) {
	got := TruncateText(strings.Repeat("é", 10), 5)
	assert.Equal(t, "éé...", got)
}

func TestTruncateText_TinyLimit(t *testing.T) {
	assert.Equal(t, "abc", TruncateText("abcdef", 3))
	assert.Equal(t, "abcdef", TruncateText("abcdef", 0))
}

func TestExtractHashtags(t *testing.T) {
	assert.Equal(t, []string{"go", "infra"}, ExtractHashtags("shipping #go services #infra"))
	assert.Nil(t, ExtractHashtags("no tags here"))
}

func TestExtractMentions(t *testing.T) {
	assert.Equal(t, []string{"alice", "bob"}, ExtractMentions("cc @alice and @bob"))
	assert.Nil(t, ExtractMentions("nobody"))
}

func TestEngagementScore(t *testing.T) {
	assert.InDelta(t, 2.6, EngagementScore(10, 5, 2, 1000), 0.0001)
	assert.Zero(t, EngagementScore(10, 5, 2, 0))
}

func TestHashtagsFor(t *testing.T) {
	tags := HashtagsFor([]string{"ai", "devops", "cloud"}, 2, "en")
	assert.Equal(t, []string{"#AI", "#devops"}, tags)

	ruTags := HashtagsFor([]string{"security"}, 3, "ru")
	assert.Equal(t, []string{"#безопасность"}, ruTags)

	custom := HashtagsFor([]string{"distributed systems"}, 3, "en")
	assert.Equal(t, []string{"#distributedsystems"}, custom)

	assert.Empty(t, HashtagsFor(nil, 3, "en"))
	assert.Empty(t, HashtagsFor([]string{"ai", "cloud"}, 0, "en"))
}
