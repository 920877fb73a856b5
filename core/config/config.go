package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config holds all application configuration in a structured way.
type Config struct {
	App        AppConfig
	Paths      PathsConfig
	Database   DatabaseConfig
	Schedule   ScheduleConfig
	Dispatch   DispatchConfig
	Responses  ResponsesConfig
	Platform   PlatformConfig
	WorkerPool WorkerPoolConfig
	Security   SecurityConfig
	APIKeys    APIKeysConfig
}

type AppConfig struct {
	Version            string
	Port               string
	Debug              bool
	Environment        string
	BasicAuth          []string
	BasePath           string
	TrustedProxies     []string
	BaseUrl            string
	CorsAllowedOrigins []string
}

type PathsConfig struct {
	BaseDir  string
	Storages string
}

type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            int
	User            string
	Password        string
	Name            string // File path for SQLite, DB Name for Postgres
	AnalyticsName   string // Secondary database for analytics
	ValkeyEnabled   bool
	ValkeyAddress   string
	ValkeyPassword  string
	ValkeyDB        int
	ValkeyKeyPrefix string
	// Legacy URI support
	URI string
}

type ScheduleConfig struct {
	Hour           int
	Minute         int
	MaxPostsPerDay int
	WindowStart    int
	WindowEnd      int
	Timezone       string
	Topics         []string
	QuotaRollover  bool
}

type DispatchConfig struct {
	MaxRetries        int
	BaseBackoffMs     int
	MaxBackoffMs      int
	StaleClaimMs      int
	OutboundPerMin    int
	GenerateTimeoutMs int
}

type ResponsesConfig struct {
	AutoResponse      bool
	MaxRepliesPerUser int
	PollMs            int
	MaxTextLength     int
	MaxHashtags       int
	BlacklistedWords  []string
	Language          string
	ReplyHint         string
}

type PlatformConfig struct {
	Provider    string // content provider: openai | gemini
	Model       string
	BaseURL     string
	BearerToken string
	AccountID   string
	DryRun      bool
}

type WorkerPoolConfig struct {
	Size      int
	QueueSize int
}

type SecurityConfig struct {
	SecretKey string
}

type APIKeysConfig struct {
	Gemini string
	OpenAI string
	AI     string // Generic/Fallback
}

// Global provides access to the loaded configuration globally (Migration Helper)
var Global *Config

// LoadConfig loads configuration from Environment Variables or defaults.
func LoadConfig() (*Config, error) {
	baseDir := getEnv("APP_BASE_DIR", "storages")

	debug := false
	if v := os.Getenv("APP_DEBUG"); v == "true" || v == "1" || v == "on" {
		debug = true
	} else if v := os.Getenv("DEBUG"); v == "true" || v == "1" {
		debug = true
	}

	var basicAuth []string
	if v := os.Getenv("APP_BASIC_AUTH"); v != "" {
		basicAuth = strings.Split(v, ",")
	}

	cors_origins := []string{"http://localhost:3000", "http://localhost:5173"}
	if v := os.Getenv("APP_CORS_ALLOWED_ORIGINS"); v != "" {
		cors_origins = strings.Split(v, ",")
	}

	appCfg := AppConfig{
		Version:            "v1.0.0",
		Port:               getEnv("APP_PORT", "3000"),
		Debug:              debug,
		Environment:        getEnv("APP_ENV", "development"),
		BasicAuth:          basicAuth,
		BasePath:           getEnv("APP_BASE_PATH", ""),
		BaseUrl:            getEnv("APP_BASE_URL", "http://localhost:3000"),
		CorsAllowedOrigins: cors_origins,
	}
	if v := os.Getenv("APP_TRUSTED_PROXIES"); v != "" {
		appCfg.TrustedProxies = strings.Split(v, ",")
	}

	pathsCfg := PathsConfig{
		BaseDir:  baseDir,
		Storages: baseDir,
	}

	dbDriver := getEnv("DB_DRIVER", "sqlite")
	dbCfg := DatabaseConfig{
		Driver:          dbDriver,
		Name:            filepath.Join(pathsCfg.Storages, "agent.db"),
		AnalyticsName:   getEnv("ANALYTICS_DB_NAME", filepath.Join(pathsCfg.Storages, "analytics.db")),
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "postgres"),
		Password:        getEnv("DB_PASSWORD", ""),
		ValkeyEnabled:   getEnvBool("VALKEY_ENABLED", false),
		ValkeyAddress:   getEnv("VALKEY_ADDRESS", "localhost:6379"),
		ValkeyPassword:  getEnv("VALKEY_PASSWORD", ""),
		ValkeyDB:        getEnvInt("VALKEY_DB", 0),
		ValkeyKeyPrefix: getEnv("VALKEY_KEY_PREFIX", "azpostr:"),
		URI:             getEnv("DB_URI", fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL", filepath.Join(pathsCfg.Storages, "agent.db"))),
	}

	var topics []string
	if v := os.Getenv("TOPICS"); v != "" {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				topics = append(topics, t)
			}
		}
	}

	scheduleCfg := ScheduleConfig{
		Hour:           getEnvInt("SCHEDULE_HOUR", 12),
		Minute:         getEnvInt("SCHEDULE_MINUTE", 0),
		MaxPostsPerDay: getEnvInt("MAX_POSTS_PER_DAY", 5),
		WindowStart:    getEnvInt("POSTING_WINDOW_START", 9),
		WindowEnd:      getEnvInt("POSTING_WINDOW_END", 21),
		Timezone:       getEnv("SCHEDULE_TIMEZONE", "UTC"),
		Topics:         topics,
		QuotaRollover:  getEnvBool("QUOTA_ROLLOVER", false),
	}

	dispatchCfg := DispatchConfig{
		MaxRetries:        getEnvInt("DISPATCH_MAX_RETRIES", 5),
		BaseBackoffMs:     getEnvInt("DISPATCH_BASE_BACKOFF_MS", 30000),
		MaxBackoffMs:      getEnvInt("DISPATCH_MAX_BACKOFF_MS", 1800000),
		StaleClaimMs:      getEnvInt("DISPATCH_STALE_CLAIM_MS", 600000),
		OutboundPerMin:    getEnvInt("OUTBOUND_RATE_PER_MINUTE", 15),
		GenerateTimeoutMs: getEnvInt("GENERATE_TIMEOUT_MS", 45000),
	}

	var blacklist []string
	if v := os.Getenv("BLACKLISTED_WORDS"); v != "" {
		for _, w := range strings.Split(v, ",") {
			if w = strings.TrimSpace(w); w != "" {
				blacklist = append(blacklist, w)
			}
		}
	}

	responsesCfg := ResponsesConfig{
		AutoResponse:      getEnvBool("AUTO_RESPONSE", true),
		MaxRepliesPerUser: getEnvInt("MAX_REPLIES_PER_USER", 3),
		PollMs:            getEnvInt("RESPONSE_POLL_MS", 60000),
		MaxTextLength:     getEnvInt("MAX_TEXT_LENGTH", 280),
		MaxHashtags:       getEnvInt("MAX_HASHTAGS", 5),
		BlacklistedWords:  blacklist,
		Language:          strings.ToLower(getEnv("CONTENT_LANGUAGE", "en")),
		ReplyHint:         getEnv("REPLY_HINT", ""),
	}

	platformCfg := PlatformConfig{
		Provider:    strings.ToLower(getEnv("CONTENT_PROVIDER", "openai")),
		Model:       getEnv("CONTENT_MODEL", ""),
		BaseURL:     getEnv("TWITTER_API_BASE_URL", "https://api.twitter.com/2"),
		BearerToken: getEnv("TWITTER_BEARER_TOKEN", ""),
		AccountID:   getEnv("TWITTER_ACCOUNT_ID", ""),
		DryRun:      getEnvBool("TWITTER_DRY_RUN", false),
	}

	cfg := &Config{
		App:        appCfg,
		Paths:      pathsCfg,
		Database:   dbCfg,
		Schedule:   scheduleCfg,
		Dispatch:   dispatchCfg,
		Responses:  responsesCfg,
		Platform:   platformCfg,
		WorkerPool: WorkerPoolConfig{Size: getEnvInt("EVENT_WORKER_POOL_SIZE", 8), QueueSize: getEnvInt("EVENT_WORKER_QUEUE_SIZE", 256)},
		Security:   SecurityConfig{SecretKey: getEnv("APP_SECRET_KEY", "changeme_please_change_me_in_prod_12345")},
		APIKeys: APIKeysConfig{
			Gemini: getEnv("GEMINI_API_KEY", ""),
			OpenAI: getEnv("OPENAI_API_KEY", ""),
			AI:     getEnv("AI_API_KEY", ""),
		},
	}

	Global = cfg
	return cfg, nil
}
