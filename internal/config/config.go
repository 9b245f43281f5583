package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/health-record-extractor/internal/core/domain"
)

const (
	ExtractModeInline = "inline"
	ExtractModeNATS   = "nats"
)

type Config struct {
	APIPort  string
	LogLevel string

	// ExtractMode is "inline" (run the pipeline in the API process) or "nats".
	ExtractMode string

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	OllamaURL   string
	OllamaModel string

	ProviderTimeout        time.Duration
	ProviderBreakerEnabled bool

	PostgresDSN string

	NATSURL            string
	NATSSubject        string
	NATSRequestTimeout time.Duration

	APIRateLimitRPS     float64
	APIRateLimitBurst   int
	APIMaxInFlight      int
	APIBackpressureWait time.Duration
	APIMaxBodyBytes     int64

	WorkerConcurrency int
	WorkerMetricsPort string
}

func Load() Config {
	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		ExtractMode: strings.ToLower(mustEnv("EXTRACT_MODE", ExtractModeInline)),

		GeminiAPIKey:  mustEnv("GEMINI_API_KEY", ""),
		GeminiModel:   mustEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiBaseURL: mustEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),

		OpenAIAPIKey:  mustEnv("OPENAI_API_KEY", ""),
		OpenAIModel:   mustEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL: mustEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),

		OllamaURL:   mustEnv("OLLAMA_URL", ""),
		OllamaModel: mustEnv("OLLAMA_MODEL", "llama3.2-vision"),

		ProviderTimeout:        mustEnvDuration("PROVIDER_TIMEOUT", 45*time.Second),
		ProviderBreakerEnabled: mustEnvBool("PROVIDER_BREAKER_ENABLED", true),

		PostgresDSN: mustEnv("POSTGRES_DSN", ""),

		NATSURL:            mustEnv("NATS_URL", "nats://localhost:4222"),
		NATSSubject:        mustEnv("NATS_SUBJECT", "extractions.request"),
		NATSRequestTimeout: mustEnvDuration("NATS_REQUEST_TIMEOUT", 60*time.Second),

		APIRateLimitRPS:     mustEnvFloat("API_RATE_LIMIT_RPS", 5),
		APIRateLimitBurst:   mustEnvInt("API_RATE_LIMIT_BURST", 10),
		APIMaxInFlight:      mustEnvInt("API_MAX_IN_FLIGHT", 16),
		APIBackpressureWait: mustEnvDuration("API_BACKPRESSURE_WAIT", 2*time.Second),
		APIMaxBodyBytes:     int64(mustEnvInt("API_MAX_BODY_BYTES", 20<<20)),

		WorkerConcurrency: mustEnvInt("WORKER_CONCURRENCY", 4),
		WorkerMetricsPort: mustEnv("WORKER_METRICS_PORT", "9090"),
	}
}

// ProviderCredentials hands the configured keys to the pipeline explicitly.
func (c Config) ProviderCredentials() domain.ProviderCredentials {
	return domain.ProviderCredentials{
		GeminiAPIKey: c.GeminiAPIKey,
		OpenAIAPIKey: c.OpenAIAPIKey,
		OllamaURL:    c.OllamaURL,
	}
}

func mustEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

// mustEnvDuration accepts Go durations ("45s") and bare seconds ("45").
func mustEnvDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if seconds, err := strconv.Atoi(v); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}
