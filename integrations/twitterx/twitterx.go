package twitterx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/AzielCF/az-postr/agent/domain/common"
	"github.com/sirupsen/logrus"
)

const httpTimeout = 30 * time.Second

// Config holds the credentials and endpoints for the X API v2.
type Config struct {
	BaseURL     string
	BearerToken string
	AccountID   string
	DryRun      bool
	Timeout     time.Duration
}

// Client talks to the X API v2. It implements domain.PlatformClient.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.twitter.com/2"
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = httpTimeout
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// classifyStatus maps an API status code onto the retry taxonomy: auth
// failures stop the caller's loop, client errors are final for the item,
// everything else is worth another attempt.
func classifyStatus(status int, body string) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: status %d: %s", common.ErrAuth, status, body)
	case status == http.StatusTooManyRequests:
		return common.Transient(fmt.Errorf("rate limited by platform: %s", body))
	case status >= 400 && status < 500:
		return common.Fatal(fmt.Sprintf("platform rejected request with status %d", status), fmt.Errorf("%s", body))
	default:
		return common.Transient(fmt.Errorf("platform error %d: %s", status, body))
	}
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return common.Fatal("marshal request", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reqBody)
	if err != nil {
		return common.Fatal("build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.BearerToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return common.Transient(fmt.Errorf("platform request failed: %w", err))
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classifyStatus(resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return common.Transient(fmt.Errorf("decode platform response: %w", err))
		}
	}
	return nil
}

type tweetResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// Publish posts a tweet, optionally as a reply, and returns its platform id.
func (c *Client) Publish(ctx context.Context, text, inReplyTo string) (string, error) {
	if c.cfg.DryRun {
		logrus.Infof("[PLATFORM] Dry run, would publish: %q (reply to %q)", text, inReplyTo)
		return fmt.Sprintf("dryrun-%d", time.Now().UnixNano()), nil
	}

	payload := map[string]any{"text": text}
	if inReplyTo != "" {
		payload["reply"] = map[string]string{"in_reply_to_tweet_id": inReplyTo}
	}

	var out tweetResponse
	if err := c.do(ctx, http.MethodPost, "/tweets", payload, &out); err != nil {
		return "", err
	}
	if out.Data.ID == "" {
		return "", common.Transient(fmt.Errorf("platform returned no tweet id"))
	}
	return out.Data.ID, nil
}

type mentionsResponse struct {
	Data []struct {
		ID        string    `json:"id"`
		AuthorID  string    `json:"author_id"`
		Text      string    `json:"text"`
		CreatedAt time.Time `json:"created_at"`
	} `json:"data"`
	Includes struct {
		Users []struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"users"`
	} `json:"includes"`
}

// FetchMentions returns mentions newer than sinceID, oldest first.
func (c *Client) FetchMentions(ctx context.Context, sinceID string) ([]common.InboundEvent, error) {
	path := fmt.Sprintf("/users/%s/mentions?tweet.fields=author_id,created_at&expansions=author_id&user.fields=username", c.cfg.AccountID)
	if sinceID != "" {
		path += "&since_id=" + sinceID
	}

	var out mentionsResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}

	names := make(map[string]string, len(out.Includes.Users))
	for _, u := range out.Includes.Users {
		names[u.ID] = u.Username
	}

	// The API returns newest first, callers want chronological order.
	events := make([]common.InboundEvent, 0, len(out.Data))
	for i := len(out.Data) - 1; i >= 0; i-- {
		t := out.Data[i]
		events = append(events, common.InboundEvent{
			EventID:    t.ID,
			Kind:       common.EventKindMention,
			SenderID:   t.AuthorID,
			SenderName: names[t.AuthorID],
			Text:       t.Text,
			ReceivedAt: t.CreatedAt,
		})
	}
	return events, nil
}

type dmEventsResponse struct {
	Data []struct {
		ID        string    `json:"id"`
		SenderID  string    `json:"sender_id"`
		Text      string    `json:"text"`
		CreatedAt time.Time `json:"created_at"`
	} `json:"data"`
}

// FetchDirectMessages returns DM events newer than sinceID, oldest first.
// Messages sent by the account itself are filtered out.
func (c *Client) FetchDirectMessages(ctx context.Context, sinceID string) ([]common.InboundEvent, error) {
	path := "/dm_events?dm_event.fields=sender_id,created_at,text&event_types=MessageCreate"

	var out dmEventsResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}

	events := make([]common.InboundEvent, 0, len(out.Data))
	for i := len(out.Data) - 1; i >= 0; i-- {
		m := out.Data[i]
		if m.SenderID == c.cfg.AccountID {
			continue
		}
		if sinceID != "" && !idAfter(m.ID, sinceID) {
			continue
		}
		events = append(events, common.InboundEvent{
			EventID:    m.ID,
			Kind:       common.EventKindDM,
			SenderID:   m.SenderID,
			Text:       m.Text,
			ReceivedAt: m.CreatedAt,
		})
	}
	return events, nil
}

// SendDirectMessage sends a DM to the given user.
func (c *Client) SendDirectMessage(ctx context.Context, userID, text string) error {
	if c.cfg.DryRun {
		logrus.Infof("[PLATFORM] Dry run, would DM %s: %q", userID, text)
		return nil
	}
	path := fmt.Sprintf("/dm_conversations/with/%s/messages", userID)
	return c.do(ctx, http.MethodPost, path, map[string]string{"text": text}, nil)
}

// VerifyCredentials checks the token against the authenticated-user endpoint.
func (c *Client) VerifyCredentials(ctx context.Context) error {
	if c.cfg.DryRun {
		return nil
	}
	return c.do(ctx, http.MethodGet, "/users/me", nil, nil)
}

// idAfter compares numeric string ids without parsing, longer means larger.
func idAfter(a, b string) bool {
	if len(a) != len(b) {
		return len(a) > len(b)
	}
	return a > b
}
