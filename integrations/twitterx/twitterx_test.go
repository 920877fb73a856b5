package twitterx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AzielCF/az-postr/agent/domain/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublish_SendsReplyPayload(t *testing.T) {
	var gotPath, gotAuth string
	var gotPayload map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotPayload)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"111"}}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, BearerToken: "token-1", AccountID: "me"})

	id, err := client.Publish(context.Background(), "hello world", "42")
	require.NoError(t, err)
	assert.Equal(t, "111", id)
	assert.Equal(t, "/tweets", gotPath)
	assert.Equal(t, "Bearer token-1", gotAuth)
	assert.Equal(t, "hello world", gotPayload["text"])

	reply, ok := gotPayload["reply"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "42", reply["in_reply_to_tweet_id"])
}

func TestPublish_DryRunSkipsNetwork(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://localhost:1", DryRun: true})

	id, err := client.Publish(context.Background(), "never sent", "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "dryrun-"))
}

func TestClassifyStatus(t *testing.T) {
	assert.ErrorIs(t, classifyStatus(http.StatusUnauthorized, "nope"), common.ErrAuth)
	assert.ErrorIs(t, classifyStatus(http.StatusForbidden, "nope"), common.ErrAuth)
	assert.True(t, common.IsTransient(classifyStatus(http.StatusTooManyRequests, "slow down")))
	assert.True(t, common.IsFatal(classifyStatus(http.StatusBadRequest, "bad text")))
	assert.True(t, common.IsTransient(classifyStatus(http.StatusBadGateway, "upstream")))
}

func TestFetchMentions_ChronologicalWithUsernames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/users/me/mentions")
		assert.Equal(t, "50", r.URL.Query().Get("since_id"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": [
				{"id":"102","author_id":"u2","text":"newest","created_at":"2026-03-10T12:05:00Z"},
				{"id":"101","author_id":"u1","text":"oldest","created_at":"2026-03-10T12:00:00Z"}
			],
			"includes": {"users": [
				{"id":"u1","username":"alice"},
				{"id":"u2","username":"bob"}
			]}
		}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, AccountID: "me"})

	events, err := client.FetchMentions(context.Background(), "50")
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "101", events[0].EventID)
	assert.Equal(t, "alice", events[0].SenderName)
	assert.Equal(t, "102", events[1].EventID)
	assert.Equal(t, "bob", events[1].SenderName)
	assert.Equal(t, common.EventKindMention, events[0].Kind)
}

func TestFetchDirectMessages_FiltersOwnAndOldEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": [
				{"id":"205","sender_id":"u1","text":"new inbound","created_at":"2026-03-10T12:05:00Z"},
				{"id":"204","sender_id":"me","text":"our own reply","created_at":"2026-03-10T12:03:00Z"},
				{"id":"200","sender_id":"u1","text":"already seen","created_at":"2026-03-10T12:00:00Z"}
			]
		}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, AccountID: "me"})

	events, err := client.FetchDirectMessages(context.Background(), "200")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "205", events[0].EventID)
	assert.Equal(t, common.EventKindDM, events[0].Kind)
}

func TestIDAfter(t *testing.T) {
	assert.True(t, idAfter("100", "99"))
	assert.True(t, idAfter("101", "100"))
	assert.False(t, idAfter("100", "100"))
	assert.False(t, idAfter("99", "100"))
}
