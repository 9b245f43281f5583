package provider

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kirillkom/health-record-extractor/internal/core/domain"
	"github.com/kirillkom/health-record-extractor/internal/core/ports"
)

const DefaultOllamaModel = "llama3.2-vision"

// OllamaAdapter talks to a local Ollama server through /api/chat.
type OllamaAdapter struct {
	baseURL string
	model   string
}

func NewOllamaAdapter(baseURL, model string) *OllamaAdapter {
	if strings.TrimSpace(model) == "" {
		model = DefaultOllamaModel
	}
	return &OllamaAdapter{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
	}
}

func (a *OllamaAdapter) Name() domain.ProviderName { return domain.ProviderOllama }

func (a *OllamaAdapter) BuildRequest(req domain.ExtractionRequest, kind domain.SchemaKind) (ports.ProviderPayload, error) {
	userMessage := map[string]any{
		"role":    "user",
		"content": userText(req),
	}
	if req.Input == domain.InputImage {
		userMessage["images"] = []string{req.ImageBase64}
	}

	body, err := json.Marshal(map[string]any{
		"model":  a.model,
		"stream": false,
		"format": "json",
		"messages": []map[string]any{
			{"role": "system", "content": Instruction(kind)},
			userMessage,
		},
		"options": map[string]any{"temperature": 0},
	})
	if err != nil {
		return ports.ProviderPayload{}, fmt.Errorf("marshal ollama request: %w", err)
	}

	return ports.ProviderPayload{
		Provider: domain.ProviderOllama,
		URL:      a.baseURL + "/api/chat",
		Body:     body,
	}, nil
}

func (a *OllamaAdapter) ExtractRawAnswer(body []byte) (string, error) {
	return decodeAnswer(domain.ProviderOllama, body)
}
