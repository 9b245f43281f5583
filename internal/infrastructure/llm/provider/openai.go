package provider

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kirillkom/health-record-extractor/internal/core/domain"
	"github.com/kirillkom/health-record-extractor/internal/core/ports"
)

const (
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultOpenAIModel   = "gpt-4o-mini"
)

// OpenAIAdapter targets any OpenAI compatible chat/completions endpoint.
type OpenAIAdapter struct {
	baseURL string
	model   string
	apiKey  string
}

func NewOpenAIAdapter(baseURL, model, apiKey string) *OpenAIAdapter {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIAdapter{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		apiKey:  apiKey,
	}
}

func (a *OpenAIAdapter) Name() domain.ProviderName { return domain.ProviderOpenAI }

func (a *OpenAIAdapter) BuildRequest(req domain.ExtractionRequest, kind domain.SchemaKind) (ports.ProviderPayload, error) {
	var userContent any = userText(req)
	if req.Input == domain.InputImage {
		userContent = []map[string]any{
			{"type": "text", "text": userText(req)},
			{"type": "image_url", "image_url": map[string]string{
				"url": "data:" + req.MimeType + ";base64," + req.ImageBase64,
			}},
		}
	}

	body, err := json.Marshal(map[string]any{
		"model":           a.model,
		"temperature":     0,
		"response_format": map[string]string{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": Instruction(kind)},
			{"role": "user", "content": userContent},
		},
	})
	if err != nil {
		return ports.ProviderPayload{}, fmt.Errorf("marshal openai request: %w", err)
	}

	return ports.ProviderPayload{
		Provider: domain.ProviderOpenAI,
		URL:      a.baseURL + "/chat/completions",
		Headers:  map[string]string{"Authorization": "Bearer " + a.apiKey},
		Body:     body,
	}, nil
}

func (a *OpenAIAdapter) ExtractRawAnswer(body []byte) (string, error) {
	return decodeAnswer(domain.ProviderOpenAI, body)
}
