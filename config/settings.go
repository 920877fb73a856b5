package config

import (
	"os"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

var (
	AppVersion             = "v1.0.0"
	AppPort                = "3000"
	AppDebug               = false
	AppBasicAuthCredential []string
	AppBasePath            = ""
	AppTrustedProxies      []string // Trusted proxy IP ranges (e.g., "0.0.0.0/0" for all, or specific CIDRs)

	PathStorages = "storages"

	DBURI          = "file:storages/agent.db?_foreign_keys=on&_journal_mode=WAL"
	AnalyticsDBURI = "file:storages/analytics.db"

	// Posting schedule
	ScheduleHour       = 12 // Hour of the primary daily post (local to ScheduleTimezone)
	ScheduleMinute     = 0
	MaxPostsPerDay     = 5
	PostingWindowStart = 9 // Additional posts spread across this window
	PostingWindowEnd   = 21
	ScheduleTimezone   = "UTC"
	QuotaRollover      = false // Push quota-blocked pending posts to the next day instead of dropping

	// Dispatch
	DispatchMaxRetries    = 5
	DispatchBaseBackoffMs = 30000   // First retry delay
	DispatchMaxBackoffMs  = 1800000 // Backoff ceiling (30 min)
	DispatchStaleClaimMs  = 600000  // Claims older than this are considered abandoned
	OutboundRatePerMinute = 15      // Shared budget for all platform write calls

	// Responses
	AutoResponse       = true
	MaxRepliesPerUser  = 3
	ResponsePollMs     = 60000
	MaxTextLength      = 280
	MaxHashtags        = 5
	BlacklistedWords   []string
	Topics             = []string{"artificial intelligence", "technology trends", "software engineering"}
	ContentLanguage    = "en" // "en" or "ru"
	ContentTemperature = 0.7
	ReplyTemperature   = 0.5

	// Content providers
	ContentProvider = "openai" // "openai" or "gemini"
	OpenAIModel     = "gpt-4o-mini"
	GeminiModel     = "gemini-2.0-flash"

	// Platform credentials
	TwitterBearerToken string
	TwitterAPIBaseURL  = "https://api.twitter.com/2"
	TwitterAccountID   string
	TwitterCallTimeout = 30000 // ms
	TwitterDryRun      = false // Log instead of calling the platform

	// Event Worker Pool settings
	EventWorkerPoolSize  int = 8
	EventWorkerQueueSize int = 256

	// Valkey (optional; empty address keeps the in-memory reply ledger)
	ValkeyAddress   string
	ValkeyPassword  string
	ValkeyDB        int
	ValkeyKeyPrefix = "azpostr"
)

func init() {
	if v := strings.TrimSpace(os.Getenv("SCHEDULE_HOUR")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 23 {
			ScheduleHour = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("SCHEDULE_MINUTE")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 59 {
			ScheduleMinute = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("MAX_POSTS_PER_DAY")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			MaxPostsPerDay = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("POSTING_WINDOW_START")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 23 {
			PostingWindowStart = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("POSTING_WINDOW_END")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 23 {
			PostingWindowEnd = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("SCHEDULE_TIMEZONE")); v != "" {
		ScheduleTimezone = v
	}
	QuotaRollover = envBool("QUOTA_ROLLOVER", QuotaRollover)

	if v := strings.TrimSpace(os.Getenv("DISPATCH_MAX_RETRIES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			DispatchMaxRetries = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("OUTBOUND_RATE_PER_MINUTE")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			OutboundRatePerMinute = n
		}
	}

	AutoResponse = envBool("AUTO_RESPONSE", AutoResponse)
	if v := strings.TrimSpace(os.Getenv("MAX_REPLIES_PER_USER")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			MaxRepliesPerUser = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("RESPONSE_POLL_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ResponsePollMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("BLACKLISTED_WORDS")); v != "" {
		for _, w := range strings.Split(v, ",") {
			if w = strings.TrimSpace(w); w != "" {
				BlacklistedWords = append(BlacklistedWords, w)
			}
		}
	}
	if v := strings.TrimSpace(os.Getenv("TOPICS")); v != "" {
		var topics []string
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				topics = append(topics, t)
			}
		}
		if len(topics) > 0 {
			Topics = topics
		}
	}
	if v := strings.TrimSpace(os.Getenv("CONTENT_LANGUAGE")); v != "" {
		ContentLanguage = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("CONTENT_PROVIDER")); v != "" {
		ContentProvider = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("OPENAI_MODEL")); v != "" {
		OpenAIModel = v
	}
	if v := strings.TrimSpace(os.Getenv("GEMINI_MODEL")); v != "" {
		GeminiModel = v
	}

	if v := strings.TrimSpace(os.Getenv("TWITTER_BEARER_TOKEN")); v != "" {
		TwitterBearerToken = v
	}
	if v := strings.TrimSpace(os.Getenv("TWITTER_API_BASE_URL")); v != "" {
		TwitterAPIBaseURL = strings.TrimSuffix(v, "/")
	}
	if v := strings.TrimSpace(os.Getenv("TWITTER_ACCOUNT_ID")); v != "" {
		TwitterAccountID = v
	}
	TwitterDryRun = envBool("TWITTER_DRY_RUN", TwitterDryRun)

	if val := os.Getenv("EVENT_WORKER_POOL_SIZE"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			EventWorkerPoolSize = parsed
		}
	}
	if val := os.Getenv("EVENT_WORKER_QUEUE_SIZE"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			EventWorkerQueueSize = parsed
		}
	}

	if v := strings.TrimSpace(os.Getenv("VALKEY_ADDRESS")); v != "" {
		ValkeyAddress = v
	}
	if v := os.Getenv("VALKEY_PASSWORD"); v != "" {
		ValkeyPassword = v
	}
	if v := strings.TrimSpace(os.Getenv("VALKEY_DB")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			ValkeyDB = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("VALKEY_KEY_PREFIX")); v != "" {
		ValkeyKeyPrefix = v
	}
}

func envBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	}
	return def
}
