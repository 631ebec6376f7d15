package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Feed settings
	SourcesConfigPath string
	MaxEntriesPerFeed int
	FeedTimeout       time.Duration

	// Extractor settings
	ArticleTimeout time.Duration

	// Artifact paths
	HistoryFilePath  string
	BriefingFilePath string

	// LLM settings
	LLMProvider    string // "openai" (OpenAI-compatible API) or "gemini"
	LLMAPIKey      string
	LLMBaseURL     string
	LLMModel       string
	LLMTimeout     time.Duration
	MaxLLMRequests int // maximum model requests per run (0 = unlimited)
	MaxContentLen  int // content prefix submitted per article, in runes

	// Digest cache settings
	DigestCacheTTL time.Duration

	// Feishu delivery settings
	FeishuAppID     string
	FeishuAppSecret string
	FeishuAppToken  string
	FeishuTableID   string

	// App settings
	Debug bool
}

func Load() (*Config, error) {
	cfg := &Config{
		// Default values
		SourcesConfigPath: "configs/sources.yaml",
		MaxEntriesPerFeed: 10,
		FeedTimeout:       30 * time.Second,
		ArticleTimeout:    15 * time.Second,
		HistoryFilePath:   "data/history.json",
		BriefingFilePath:  "data/briefing.txt",
		LLMProvider:       "openai",
		LLMBaseURL:        "https://api.deepseek.com",
		LLMModel:          "deepseek-chat",
		LLMTimeout:        60 * time.Second,
		MaxLLMRequests:    0,
		MaxContentLen:     5000,
		DigestCacheTTL:    24 * time.Hour,
	}

	// Load from environment
	cfg.LLMAPIKey = os.Getenv("LLM_API_KEY")
	cfg.FeishuAppID = os.Getenv("FEISHU_APP_ID")
	cfg.FeishuAppSecret = os.Getenv("FEISHU_APP_SECRET")
	cfg.FeishuAppToken = os.Getenv("FEISHU_APP_TOKEN")
	cfg.FeishuTableID = os.Getenv("FEISHU_TABLE_ID")

	cfg.SourcesConfigPath = getEnvOrDefault("SOURCES_CONFIG_PATH", cfg.SourcesConfigPath)
	cfg.HistoryFilePath = getEnvOrDefault("HISTORY_FILE_PATH", cfg.HistoryFilePath)
	cfg.BriefingFilePath = getEnvOrDefault("BRIEFING_FILE_PATH", cfg.BriefingFilePath)
	cfg.LLMBaseURL = getEnvOrDefault("LLM_BASE_URL", cfg.LLMBaseURL)
	cfg.LLMModel = getEnvOrDefault("LLM_MODEL", cfg.LLMModel)

	if provider := os.Getenv("LLM_PROVIDER"); provider != "" {
		cfg.LLMProvider = provider
	}
	if cfg.LLMProvider == "gemini" {
		if cfg.LLMAPIKey == "" {
			cfg.LLMAPIKey = os.Getenv("GEMINI_API_KEY")
		}
		if os.Getenv("LLM_MODEL") == "" {
			cfg.LLMModel = "gemini-1.5-flash"
		}
	}

	if v := os.Getenv("MAX_ENTRIES_PER_FEED"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.MaxEntriesPerFeed = val
		}
	}
	if v := os.Getenv("MAX_LLM_REQUESTS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val >= 0 {
			cfg.MaxLLMRequests = val
		}
	}
	if v := os.Getenv("MAX_CONTENT_LEN"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.MaxContentLen = val
		}
	}
	if v := os.Getenv("ARTICLE_TIMEOUT_SECONDS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.ArticleTimeout = time.Duration(val) * time.Second
		}
	}
	if v := os.Getenv("DIGEST_CACHE_TTL_HOURS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.DigestCacheTTL = time.Duration(val) * time.Hour
		}
	}

	if debug := os.Getenv("DEBUG"); debug == "true" {
		cfg.Debug = true
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// ValidateSummarize checks settings the summarize phase cannot run without.
// Ingest needs no credentials, so validation is per phase rather than global.
func (c *Config) ValidateSummarize() error {
	if c.LLMAPIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required")
	}
	if c.LLMProvider != "openai" && c.LLMProvider != "gemini" {
		return fmt.Errorf("LLM_PROVIDER must be 'openai' or 'gemini'")
	}
	return nil
}

// ValidateDeliver checks settings the deliver phase cannot run without.
func (c *Config) ValidateDeliver() error {
	if c.FeishuAppID == "" {
		return fmt.Errorf("FEISHU_APP_ID is required")
	}
	if c.FeishuAppSecret == "" {
		return fmt.Errorf("FEISHU_APP_SECRET is required")
	}
	if c.FeishuAppToken == "" {
		return fmt.Errorf("FEISHU_APP_TOKEN is required")
	}
	if c.FeishuTableID == "" {
		return fmt.Errorf("FEISHU_TABLE_ID is required")
	}
	return nil
}
