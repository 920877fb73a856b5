package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForPost_LanguageSelection(t *testing.T) {
	system, user := ForPost("en", "go generics", 280)
	assert.Contains(t, system, "280")
	assert.Contains(t, user, "go generics")

	systemRU, userRU := ForPost("ru", "go generics", 280)
	assert.NotEqual(t, system, systemRU)
	assert.Contains(t, userRU, "go generics")
}

func TestForReply_HintAppended(t *testing.T) {
	system, user := ForReply("en", "what editor do you use", "alice", "", 280)
	assert.Contains(t, user, "alice")
	assert.Contains(t, user, "what editor do you use")
	assert.NotContains(t, system, "mention the newsletter")

	withHint, _ := ForReply("en", "what editor do you use", "alice", "mention the newsletter", 280)
	assert.Contains(t, withHint, "mention the newsletter")
}

func TestForThread_AsksForSeparator(t *testing.T) {
	system, _ := ForThread("en", "go profiling", 4, 280)
	assert.Contains(t, system, SegmentSeparator)
	assert.Contains(t, system, "4")
}

func TestSplitThread(t *testing.T) {
	raw := strings.Join([]string{"first segment", "---", "second segment", "---", "  ", "---", "third"}, "\n")
	assert.Equal(t, []string{"first segment", "second segment", "third"}, SplitThread(raw))

	assert.Nil(t, SplitThread("   \n "))
	assert.Equal(t, []string{"single"}, SplitThread("single"))
}
