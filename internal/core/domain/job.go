package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ExtractionJob is an extraction handed to a remote worker.
type ExtractionJob struct {
	ID         string          `json:"id"`
	RequestID  string          `json:"request_id,omitempty"`
	Kind       SchemaKind      `json:"kind"`
	Input      ExtractionInput `json:"input"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// ExtractionReply carries either a flattened result or a typed error back to the requester.
type ExtractionReply struct {
	Kind      SchemaKind      `json:"kind,omitempty"`
	Provider  ProviderName    `json:"provider,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	ErrorKind string          `json:"error_kind,omitempty"`
	Error     string          `json:"error,omitempty"`
}

func NewExtractionReply(result *ExtractionResult, err error) ExtractionReply {
	if err != nil {
		return ExtractionReply{ErrorKind: KindOf(err), Error: err.Error()}
	}
	data, marshalErr := json.Marshal(result)
	if marshalErr != nil {
		return ExtractionReply{ErrorKind: KindInternal, Error: marshalErr.Error()}
	}
	return ExtractionReply{Kind: result.Kind, Provider: result.Provider, Result: data}
}

// Decode turns the reply back into a result or an error of the original kind.
func (r ExtractionReply) Decode() (*ExtractionResult, error) {
	if r.ErrorKind != "" {
		detail := errors.New(r.Error)
		kind := KindError(r.ErrorKind)
		if kind == nil {
			return nil, fmt.Errorf("remote extraction: %w", detail)
		}
		return nil, WrapError(kind, "remote extraction", detail)
	}
	if len(r.Result) == 0 {
		return nil, fmt.Errorf("remote extraction: empty reply")
	}
	result, err := DecodeExtractionResult(r.Kind, r.Result)
	if err != nil {
		return nil, fmt.Errorf("remote extraction: %w", err)
	}
	result.Provider = r.Provider
	return result, nil
}
