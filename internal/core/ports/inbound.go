package ports

import (
	"context"

	"github.com/kirillkom/health-record-extractor/internal/core/domain"
)

// DocumentExtractor is the inbound contract used by HTTP, worker, CLI and MCP surfaces.
type DocumentExtractor interface {
	Extract(ctx context.Context, kind domain.SchemaKind, input domain.ExtractionInput) (*domain.ExtractionResult, error)
}
