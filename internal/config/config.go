package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port   string
	DBPath string

	// Auth
	DocmockAPIKey string

	// LLM extraction
	LLMProvider     string
	AnthropicAPIKey string
	AnthropicModel  string
	OpenAIBaseURL   string
	OpenAIAPIKey    string
	OpenAIModel     string
	GeminiAPIKey    string
	GeminiModel     string

	// Ingestion
	ProcessingConcurrentLimit int
	MaxConcurrentExtract      int
	FullAIWindowTokens        int
	FullAIWindowOverlap       int

	// Upload limits
	MaxUploadBytes int64

	// Serving
	ScriptTimeout        time.Duration
	MockAIRegenerate     bool
	MockLooseMethodMatch bool
	ResponseCacheSize    int
	MaxResponseDelay     time.Duration

	// Classifier rules
	FilterKeywords string
	FilterURLRegex string
	RulesFile      string

	// Job state
	JobTTL time.Duration
}

func Load() Config {
	cfg := Config{
		Port:   envOr("PORT", "8090"),
		DBPath: envOr("DOCMOCK_DB_PATH", "docmock.db"),

		DocmockAPIKey: os.Getenv("DOCMOCK_API_KEY"),

		LLMProvider:     strings.ToLower(envOr("LLM_PROVIDER", "claude")),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  envOr("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
		OpenAIBaseURL:   os.Getenv("OPENAI_BASE_URL"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:     os.Getenv("OPENAI_MODEL"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     os.Getenv("GEMINI_MODEL"),

		ProcessingConcurrentLimit: envInt("PROCESSING_CONCURRENT_LIMIT", 2),
		MaxConcurrentExtract:      envInt("MAX_CONCURRENT_EXTRACT", 3),
		FullAIWindowTokens:        envInt("FULL_AI_WINDOW_TOKENS", 6000),
		FullAIWindowOverlap:       envInt("FULL_AI_WINDOW_OVERLAP", 300),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		ScriptTimeout:        envDuration("SCRIPT_TIMEOUT", 5*time.Second),
		MockAIRegenerate:     envBool("MOCK_AI_REGENERATE", false),
		MockLooseMethodMatch: envBool("MOCK_LOOSE_METHOD_MATCH", false),
		ResponseCacheSize:    envInt("RESPONSE_CACHE_SIZE", 1024),
		MaxResponseDelay:     envDuration("MAX_RESPONSE_DELAY", 30*time.Second),

		FilterKeywords: os.Getenv("FILTER_KEYWORDS"),
		FilterURLRegex: os.Getenv("FILTER_URL_REGEX"),
		RulesFile:      os.Getenv("DOCMOCK_RULES_FILE"),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),
	}

	if cfg.ProcessingConcurrentLimit <= 0 {
		cfg.ProcessingConcurrentLimit = 2
	}
	if cfg.MaxConcurrentExtract <= 0 {
		cfg.MaxConcurrentExtract = 3
	}
	if cfg.FullAIWindowTokens <= 0 {
		cfg.FullAIWindowTokens = 6000
	}
	if cfg.FullAIWindowOverlap < 0 {
		cfg.FullAIWindowOverlap = 300
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.ScriptTimeout <= 0 {
		cfg.ScriptTimeout = 5 * time.Second
	}
	if cfg.ResponseCacheSize <= 0 {
		cfg.ResponseCacheSize = 1024
	}
	if cfg.MaxResponseDelay <= 0 {
		cfg.MaxResponseDelay = 30 * time.Second
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	switch c.LLMProvider {
	case "claude", "anthropic":
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required")
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required")
		}
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required")
		}
	default:
		return fmt.Errorf("LLM_PROVIDER %q is not one of claude, openai, gemini", c.LLMProvider)
	}
	if c.FullAIWindowOverlap >= c.FullAIWindowTokens {
		return fmt.Errorf("FULL_AI_WINDOW_OVERLAP must be smaller than FULL_AI_WINDOW_TOKENS")
	}
	return nil
}

// ProviderKey returns the API key and model of the configured provider.
func (c Config) ProviderKey() (key, model string) {
	switch c.LLMProvider {
	case "openai":
		return c.OpenAIAPIKey, c.OpenAIModel
	case "gemini":
		return c.GeminiAPIKey, c.GeminiModel
	}
	return c.AnthropicAPIKey, c.AnthropicModel
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
