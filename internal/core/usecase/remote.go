package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/health-record-extractor/internal/core/domain"
	"github.com/kirillkom/health-record-extractor/internal/core/ports"
)

// RemoteExtractUseCase hands extractions to workers through a job queue and
// waits for the reply. Input is normalized locally first so malformed requests
// never reach the queue.
type RemoteExtractUseCase struct {
	queue ports.ExtractionJobQueue
}

func NewRemoteExtractUseCase(queue ports.ExtractionJobQueue) *RemoteExtractUseCase {
	return &RemoteExtractUseCase{queue: queue}
}

func (uc *RemoteExtractUseCase) Extract(
	ctx context.Context,
	kind domain.SchemaKind,
	input domain.ExtractionInput,
) (*domain.ExtractionResult, error) {
	if kind != domain.SchemaReport && kind != domain.SchemaPrescription {
		return nil, domain.WrapError(domain.ErrInvalidInput, "extract", fmt.Errorf("unknown schema kind %q", kind))
	}
	if _, err := NormalizeInput(input); err != nil {
		return nil, err
	}

	job := domain.ExtractionJob{
		ID:         uuid.NewString(),
		RequestID:  domain.RequestIDFromContext(ctx),
		Kind:       kind,
		Input:      input,
		EnqueuedAt: time.Now().UTC(),
	}
	reply, err := uc.queue.RequestExtraction(ctx, job)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, domain.WrapError(domain.ErrCancelled, "request extraction", ctx.Err())
		}
		return nil, ensureKind(err, domain.ErrTemporary, "request extraction")
	}
	return reply.Decode()
}

// ExtractionJobHandler runs queued jobs against a local extractor.
type ExtractionJobHandler struct {
	extractor ports.DocumentExtractor
}

func NewExtractionJobHandler(extractor ports.DocumentExtractor) *ExtractionJobHandler {
	return &ExtractionJobHandler{extractor: extractor}
}

func (h *ExtractionJobHandler) Handle(ctx context.Context, job domain.ExtractionJob) domain.ExtractionReply {
	if job.RequestID != "" {
		ctx = domain.ContextWithRequestID(ctx, job.RequestID)
	}
	result, err := h.extractor.Extract(ctx, job.Kind, job.Input)
	return domain.NewExtractionReply(result, err)
}
