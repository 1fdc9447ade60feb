package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port                 int
	GeminiAPIURL         string
	GeminiAPIKey         string
	GeminiAPIKeyParam    string
	FixedMaxOutputTokens int
	UpstreamTimeout      time.Duration
	RequestsPerMinute    int
	AlwaysIncludeCompany bool
	CompanyProfilePath   string
	CompanyWatch         bool
	ExchangeTable        string
	StaticDir            string
	LogLevel             string
}

func Load() Config {
	return Config{
		Port:                 envInt("PORT", 5174),
		GeminiAPIURL:         envStr("GEMINI_API_URL", ""),
		GeminiAPIKey:         envStr("GEMINI_API_KEY", ""),
		GeminiAPIKeyParam:    envStr("GEMINI_API_KEY_PARAM", ""),
		FixedMaxOutputTokens: envInt("GEMINI_FIXED_MAX_OUTPUT_TOKENS", 0),
		UpstreamTimeout:      time.Duration(envInt("UPSTREAM_TIMEOUT_SECONDS", 60)) * time.Second,
		RequestsPerMinute:    envInt("GEMINI_REQUESTS_PER_MINUTE", 0),
		AlwaysIncludeCompany: envBool("ALWAYS_INCLUDE_COMPANY", false),
		CompanyProfilePath:   envStr("COMPANY_PROFILE_PATH", "server/data/company.json"),
		CompanyWatch:         envBool("COMPANY_WATCH", false),
		ExchangeTable:        envStr("EXCHANGE_TABLE", ""),
		StaticDir:            envStr("STATIC_DIR", ""),
		LogLevel:             envStr("LOG_LEVEL", "info"),
	}
}

// UpstreamConfigured reports whether an endpoint and some key source are set.
func (c Config) UpstreamConfigured() bool {
	return c.GeminiAPIURL != "" && (c.GeminiAPIKey != "" || c.GeminiAPIKeyParam != "")
}

// NeedsAWS reports whether any AWS-backed component is enabled.
func (c Config) NeedsAWS() bool {
	return c.GeminiAPIKeyParam != "" || c.ExchangeTable != ""
}

func envStr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return strings.EqualFold(v, "true")
}
