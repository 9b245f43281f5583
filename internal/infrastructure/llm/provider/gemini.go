package provider

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/kirillkom/health-record-extractor/internal/core/domain"
	"github.com/kirillkom/health-record-extractor/internal/core/ports"
)

const (
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultGeminiModel   = "gemini-2.0-flash"
)

// GeminiAdapter speaks the generateContent API. It is the primary provider
// because it reads images natively.
type GeminiAdapter struct {
	baseURL string
	model   string
	apiKey  string
}

func NewGeminiAdapter(baseURL, model, apiKey string) *GeminiAdapter {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultGeminiBaseURL
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultGeminiModel
	}
	return &GeminiAdapter{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		apiKey:  apiKey,
	}
}

func (a *GeminiAdapter) Name() domain.ProviderName { return domain.ProviderGemini }

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

func (a *GeminiAdapter) BuildRequest(req domain.ExtractionRequest, kind domain.SchemaKind) (ports.ProviderPayload, error) {
	parts := []geminiPart{{Text: Instruction(kind)}, {Text: userText(req)}}
	if req.Input == domain.InputImage {
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{MimeType: req.MimeType, Data: req.ImageBase64}})
	}

	body, err := json.Marshal(map[string]any{
		"contents": []map[string]any{{
			"role":  "user",
			"parts": parts,
		}},
		"generationConfig": map[string]any{
			"temperature":      0,
			"responseMimeType": "application/json",
		},
	})
	if err != nil {
		return ports.ProviderPayload{}, fmt.Errorf("marshal gemini request: %w", err)
	}

	// The key travels in a header so transport errors, which echo the URL, never contain it.
	return ports.ProviderPayload{
		Provider: domain.ProviderGemini,
		URL:      a.baseURL + "/models/" + url.PathEscape(a.model) + ":generateContent",
		Headers:  map[string]string{"x-goog-api-key": a.apiKey},
		Body:     body,
	}, nil
}

func (a *GeminiAdapter) ExtractRawAnswer(body []byte) (string, error) {
	return decodeAnswer(domain.ProviderGemini, body)
}
