package provider

import (
	"testing"

	"github.com/kirillkom/health-record-extractor/internal/core/domain"
)

func TestSelectorPriority(t *testing.T) {
	selector := NewSelector(Settings{})
	cases := []struct {
		name  string
		creds domain.ProviderCredentials
		want  domain.ProviderName
	}{
		{name: "all configured", creds: domain.ProviderCredentials{GeminiAPIKey: "g", OpenAIAPIKey: "o", OllamaURL: "http://l"}, want: domain.ProviderGemini},
		{name: "openai and ollama", creds: domain.ProviderCredentials{OpenAIAPIKey: "o", OllamaURL: "http://l"}, want: domain.ProviderOpenAI},
		{name: "blank gemini key", creds: domain.ProviderCredentials{GeminiAPIKey: "  ", OllamaURL: "http://l"}, want: domain.ProviderOllama},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			adapter, err := selector.Select(tc.creds)
			if err != nil {
				t.Fatalf("Select() error = %v", err)
			}
			if adapter.Name() != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, adapter.Name())
			}
		})
	}
}

func TestSelectorWithoutCredentials(t *testing.T) {
	_, err := NewSelector(Settings{}).Select(domain.ProviderCredentials{})
	if !domain.IsKind(err, domain.ErrNoProviderConfigured) {
		t.Fatalf("expected NoProviderConfigured, got %v", err)
	}
}
