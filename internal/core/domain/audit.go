package domain

import (
	"context"
	"time"
)

type ExtractionOutcome string

const (
	OutcomeSucceeded ExtractionOutcome = "succeeded"
	OutcomeFailed    ExtractionOutcome = "failed"
)

// AuditEntry is the metadata kept for every extraction attempt. It never holds
// document content or extracted values.
type AuditEntry struct {
	ID             string            `json:"id"`
	RequestID      string            `json:"request_id,omitempty"`
	SchemaKind     SchemaKind        `json:"schema_kind"`
	InputKind      InputKind         `json:"input_kind,omitempty"`
	Provider       ProviderName      `json:"provider,omitempty"`
	Outcome        ExtractionOutcome `json:"outcome"`
	ErrorKind      string            `json:"error_kind,omitempty"`
	UncertainCount int               `json:"uncertain_count"`
	Duration       time.Duration     `json:"duration"`
	CreatedAt      time.Time         `json:"created_at"`
}

type requestIDContextKey struct{}

func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	requestID, _ := ctx.Value(requestIDContextKey{}).(string)
	return requestID
}
