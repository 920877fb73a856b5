package config

import (
	"os"
	"strconv"
	"strings"
)

// GetAllSettings returns a map of the settings currently loaded in memory.
func GetAllSettings() map[string]any {
	if Global == nil {
		return map[string]any{}
	}
	return map[string]any{
		"schedule_hour":        Global.Schedule.Hour,
		"schedule_minute":      Global.Schedule.Minute,
		"max_posts_per_day":    Global.Schedule.MaxPostsPerDay,
		"posting_window_start": Global.Schedule.WindowStart,
		"posting_window_end":   Global.Schedule.WindowEnd,
		"quota_rollover":       Global.Schedule.QuotaRollover,
		"auto_response":        Global.Responses.AutoResponse,
		"max_replies_per_user": Global.Responses.MaxRepliesPerUser,
		"content_language":     Global.Responses.Language,
		"content_provider":     Global.Platform.Provider,
		"platform_dry_run":     Global.Platform.DryRun,
		"app_debug":            Global.App.Debug,
		"app_version":          Global.App.Version,
	}
}

// Helpers
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		vLower := strings.ToLower(v)
		return vLower == "1" || vLower == "true" || vLower == "yes" || vLower == "on"
	}
	return fallback
}
