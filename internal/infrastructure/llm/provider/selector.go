package provider

import (
	"errors"
	"strings"

	"github.com/kirillkom/health-record-extractor/internal/core/domain"
	"github.com/kirillkom/health-record-extractor/internal/core/ports"
)

// Settings holds the non-secret provider options. Keys arrive per call through
// domain.ProviderCredentials.
type Settings struct {
	GeminiBaseURL string
	GeminiModel   string
	OpenAIBaseURL string
	OpenAIModel   string
	OllamaModel   string
}

type Selector struct {
	settings Settings
}

func NewSelector(settings Settings) *Selector {
	return &Selector{settings: settings}
}

// Select prefers Gemini, then OpenAI, then a local Ollama server.
func (s *Selector) Select(creds domain.ProviderCredentials) (ports.ProviderAdapter, error) {
	if key := strings.TrimSpace(creds.GeminiAPIKey); key != "" {
		return NewGeminiAdapter(s.settings.GeminiBaseURL, s.settings.GeminiModel, key), nil
	}
	if key := strings.TrimSpace(creds.OpenAIAPIKey); key != "" {
		return NewOpenAIAdapter(s.settings.OpenAIBaseURL, s.settings.OpenAIModel, key), nil
	}
	if baseURL := strings.TrimSpace(creds.OllamaURL); baseURL != "" {
		return NewOllamaAdapter(baseURL, s.settings.OllamaModel), nil
	}
	return nil, domain.WrapError(domain.ErrNoProviderConfigured, "select provider",
		errors.New("set GEMINI_API_KEY, OPENAI_API_KEY or OLLAMA_URL"))
}
