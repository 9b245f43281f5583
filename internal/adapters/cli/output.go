package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/kirillkom/health-record-extractor/internal/core/domain"
)

type fileLine struct {
	File      string                   `json:"file"`
	Kind      domain.SchemaKind        `json:"kind"`
	Provider  domain.ProviderName      `json:"provider,omitempty"`
	Result    *domain.ExtractionResult `json:"result,omitempty"`
	Error     string                   `json:"error,omitempty"`
	ErrorKind string                   `json:"errorKind,omitempty"`
	Details   string                   `json:"details,omitempty"`
}

// WriteJSONLines prints one JSON object per file.
func WriteJSONLines(w io.Writer, results []FileResult) error {
	enc := json.NewEncoder(w)
	for _, r := range results {
		line := fileLine{File: r.Path, Kind: r.Kind}
		if r.Err != nil {
			line.ErrorKind = domain.KindOf(r.Err)
			line.Error = domain.HumanMessage(line.ErrorKind)
			line.Details = r.Err.Error()
		} else {
			line.Result = r.Result
			line.Provider = r.Result.Provider
		}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("write result for %s: %w", r.Path, err)
		}
	}
	return nil
}
