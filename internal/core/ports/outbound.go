package ports

import (
	"context"
	"time"

	"github.com/kirillkom/health-record-extractor/internal/core/domain"
)

// ProviderPayload is a fully built provider call, ready for the transport.
type ProviderPayload struct {
	Provider domain.ProviderName
	URL      string
	Headers  map[string]string
	Body     []byte
}

// ProviderAdapter translates between the pipeline and one model provider's wire format.
type ProviderAdapter interface {
	Name() domain.ProviderName
	BuildRequest(req domain.ExtractionRequest, kind domain.SchemaKind) (ProviderPayload, error)
	ExtractRawAnswer(body []byte) (string, error)
}

// ProviderSelector picks the adapter to use for the given credentials.
type ProviderSelector interface {
	Select(creds domain.ProviderCredentials) (ProviderAdapter, error)
}

// ProviderTransport performs the single outbound call of an extraction.
type ProviderTransport interface {
	Send(ctx context.Context, payload ProviderPayload) ([]byte, error)
}

// ExtractionAuditLog records extraction metadata.
type ExtractionAuditLog interface {
	Record(ctx context.Context, entry domain.AuditEntry) error
}

// ExtractionObserver receives per-extraction measurements.
type ExtractionObserver interface {
	ObserveExtraction(kind domain.SchemaKind, provider domain.ProviderName, outcome string, uncertainFields int, duration time.Duration)
}

// ExtractionJobQueue carries extraction jobs to remote workers.
type ExtractionJobQueue interface {
	RequestExtraction(ctx context.Context, job domain.ExtractionJob) (*domain.ExtractionReply, error)
	ServeExtractions(ctx context.Context, handler func(context.Context, domain.ExtractionJob) domain.ExtractionReply) error
}

// ExtractionAuditReader lists recorded extraction metadata.
type ExtractionAuditReader interface {
	ListRecent(ctx context.Context, limit int) ([]domain.AuditEntry, error)
}
