package provider

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kirillkom/health-record-extractor/internal/core/domain"
)

// answerEnvelope covers the response shapes of chat style and generate style
// APIs. Only the first choice or candidate is considered.
type answerEnvelope struct {
	Choices []struct {
		Message struct {
			Content json.RawMessage `json:"content"`
		} `json:"message"`
		Text string `json:"text"`
	} `json:"choices"`
	Message *struct {
		Content string `json:"content"`
	} `json:"message"`
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Response string `json:"response"`
}

// decodeAnswer returns the first non-empty answer text in body.
func decodeAnswer(provider domain.ProviderName, body []byte) (string, error) {
	var env answerEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", domain.WrapError(domain.ErrEmptyProviderResponse, string(provider)+" answer",
			fmt.Errorf("decode envelope (%d bytes): %w", len(body), err))
	}

	var candidates []string
	if len(env.Choices) > 0 {
		candidates = append(candidates, chatContent(env.Choices[0].Message.Content), env.Choices[0].Text)
	}
	if env.Message != nil {
		candidates = append(candidates, env.Message.Content)
	}
	if len(env.Candidates) > 0 {
		for _, part := range env.Candidates[0].Content.Parts {
			candidates = append(candidates, part.Text)
		}
	}
	candidates = append(candidates, env.Response)

	for _, text := range candidates {
		if strings.TrimSpace(text) != "" {
			return text, nil
		}
	}
	return "", domain.WrapError(domain.ErrEmptyProviderResponse, string(provider)+" answer",
		errors.New("no answer text in provider response"))
}

// chatContent accepts both a plain string and a list of typed content parts.
func chatContent(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	var parts []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &parts); err != nil {
		return ""
	}
	var b strings.Builder
	for _, part := range parts {
		if part.Text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(part.Text)
	}
	return b.String()
}
