package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNoProviderConfigured  = errors.New("no provider configured")
	ErrProviderRequestFailed = errors.New("provider request failed")
	ErrEmptyProviderResponse = errors.New("empty provider response")
	ErrNoJSONFound           = errors.New("no json found")
	ErrMalformedJSON         = errors.New("malformed json")
	ErrCancelled             = errors.New("cancelled")
	ErrTemporary             = errors.New("temporary failure")
)

// Stable error kind names shared by every outer surface (HTTP, NATS replies, CLI, MCP).
const (
	KindInvalidInput          = "InvalidInput"
	KindNoProviderConfigured  = "NoProviderConfigured"
	KindProviderRequestFailed = "ProviderRequestFailed"
	KindEmptyProviderResponse = "EmptyProviderResponse"
	KindNoJSONFound           = "NoJsonFound"
	KindMalformedJSON         = "MalformedJson"
	KindCancelled             = "Cancelled"
	KindTemporary             = "Temporary"
	KindInternal              = "Internal"
)

var errorKinds = []struct {
	err  error
	name string
}{
	{ErrCancelled, KindCancelled},
	{ErrInvalidInput, KindInvalidInput},
	{ErrNoProviderConfigured, KindNoProviderConfigured},
	{ErrProviderRequestFailed, KindProviderRequestFailed},
	{ErrEmptyProviderResponse, KindEmptyProviderResponse},
	{ErrNoJSONFound, KindNoJSONFound},
	{ErrMalformedJSON, KindMalformedJSON},
	{ErrTemporary, KindTemporary},
}

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// KindOf returns the stable kind name of err, or KindInternal for untyped errors.
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return KindInternal
}

// KindError maps a kind name back to its sentinel. Unknown names yield nil.
func KindError(name string) error {
	for _, k := range errorKinds {
		if k.name == name {
			return k.err
		}
	}
	return nil
}

func HumanMessage(kind string) string {
	switch kind {
	case KindInvalidInput:
		return "The document could not be read. Provide either an image with its MIME type or the document text."
	case KindNoProviderConfigured:
		return "Document extraction is not configured."
	case KindProviderRequestFailed:
		return "The extraction service is unavailable right now. Please try again."
	case KindEmptyProviderResponse:
		return "The extraction service returned no answer. Please try again."
	case KindNoJSONFound, KindMalformedJSON:
		return "The document could not be interpreted. Please try a clearer image."
	case KindCancelled:
		return "The extraction was cancelled."
	case KindTemporary:
		return "The service is temporarily unavailable. Please try again."
	default:
		return "Unexpected error while extracting the document."
	}
}

// ProviderError describes a failed provider round trip. StatusCode is zero when
// no HTTP response was received.
type ProviderError struct {
	Provider   ProviderName
	StatusCode int
	Body       string
	Err        error
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "provider error"
	}
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s request: %v", e.Provider, e.Err)
	}
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%s status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s status %d: %s", e.Provider, e.StatusCode, body)
}

func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// AnswerFormatError reports a provider answer that did not contain usable JSON.
// It carries only the answer length and a short leading snippet.
type AnswerFormatError struct {
	Reason  string
	Length  int
	Snippet string
}

func (e *AnswerFormatError) Error() string {
	return fmt.Sprintf("%s (answer_len=%d snippet=%q)", e.Reason, e.Length, e.Snippet)
}
