package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/health-record-extractor/internal/core/canonical"
	"github.com/kirillkom/health-record-extractor/internal/core/domain"
	"github.com/kirillkom/health-record-extractor/internal/core/ports"
)

const DefaultProviderTimeout = 45 * time.Second

// ExtractUseCase runs the extraction pipeline: normalize, select a provider,
// make one provider call, locate JSON in the answer, coerce it into the
// canonical record and score it.
type ExtractUseCase struct {
	selector  ports.ProviderSelector
	transport ports.ProviderTransport
	audit     ports.ExtractionAuditLog
	observer  ports.ExtractionObserver
	logger    *slog.Logger
	timeout   time.Duration
}

type ExtractOption func(*ExtractUseCase)

func WithAuditLog(audit ports.ExtractionAuditLog) ExtractOption {
	return func(uc *ExtractUseCase) { uc.audit = audit }
}

func WithObserver(observer ports.ExtractionObserver) ExtractOption {
	return func(uc *ExtractUseCase) { uc.observer = observer }
}

func WithLogger(logger *slog.Logger) ExtractOption {
	return func(uc *ExtractUseCase) {
		if logger != nil {
			uc.logger = logger
		}
	}
}

func WithProviderTimeout(timeout time.Duration) ExtractOption {
	return func(uc *ExtractUseCase) {
		if timeout > 0 {
			uc.timeout = timeout
		}
	}
}

func NewExtractUseCase(
	selector ports.ProviderSelector,
	transport ports.ProviderTransport,
	opts ...ExtractOption,
) *ExtractUseCase {
	uc := &ExtractUseCase{
		selector:  selector,
		transport: transport,
		logger:    slog.Default(),
		timeout:   DefaultProviderTimeout,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

type extractionTrace struct {
	input    domain.InputKind
	provider domain.ProviderName
}

// Extract runs one extraction with explicitly supplied credentials.
func (uc *ExtractUseCase) Extract(
	ctx context.Context,
	kind domain.SchemaKind,
	input domain.ExtractionInput,
	creds domain.ProviderCredentials,
) (*domain.ExtractionResult, error) {
	start := time.Now()
	var trace extractionTrace
	result, err := uc.run(ctx, kind, input, creds, &trace)
	uc.finish(ctx, kind, trace, result, err, time.Since(start))
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (uc *ExtractUseCase) run(
	ctx context.Context,
	kind domain.SchemaKind,
	input domain.ExtractionInput,
	creds domain.ProviderCredentials,
	trace *extractionTrace,
) (*domain.ExtractionResult, error) {
	if kind != domain.SchemaReport && kind != domain.SchemaPrescription {
		return nil, domain.WrapError(domain.ErrInvalidInput, "extract", fmt.Errorf("unknown schema kind %q", kind))
	}
	if err := ctx.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrCancelled, "extract", err)
	}

	req, err := NormalizeInput(input)
	if err != nil {
		return nil, err
	}
	trace.input = req.Input

	adapter, err := uc.selector.Select(creds)
	if err != nil {
		return nil, ensureKind(err, domain.ErrNoProviderConfigured, "select provider")
	}
	trace.provider = adapter.Name()

	payload, err := adapter.BuildRequest(req, kind)
	if err != nil {
		return nil, ensureKind(err, domain.ErrProviderRequestFailed, "build provider request")
	}

	body, err := uc.send(ctx, payload)
	if err != nil {
		return nil, err
	}

	answer, err := adapter.ExtractRawAnswer(body)
	if err != nil {
		return nil, ensureKind(err, domain.ErrEmptyProviderResponse, "read provider answer")
	}
	uc.logger.Debug("provider_answer_received",
		"request_id", domain.RequestIDFromContext(ctx),
		"provider", string(adapter.Name()),
		"answer_len", len(answer),
	)

	obj, err := ExtractJSONObject(answer)
	if err != nil {
		return nil, err
	}

	result := assemble(kind, obj)
	result.Provider = adapter.Name()
	if err := canonical.Conforms(kind, result.Record()); err != nil {
		uc.logger.Error("canonical_schema_violation",
			"request_id", domain.RequestIDFromContext(ctx),
			"kind", string(kind),
			"error", err,
		)
	}
	return result, nil
}

// send performs the single provider call under the per-call timeout. Caller
// cancellation wins over any transport error.
func (uc *ExtractUseCase) send(ctx context.Context, payload ports.ProviderPayload) ([]byte, error) {
	callCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	body, err := uc.transport.Send(callCtx, payload)
	if err == nil {
		return body, nil
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil, domain.WrapError(domain.ErrCancelled, "provider call", ctx.Err())
	}
	if domain.IsKind(err, domain.ErrCancelled) {
		err = fmt.Errorf("provider call timed out after %s: %w", uc.timeout, context.DeadlineExceeded)
		return nil, domain.WrapError(domain.ErrProviderRequestFailed, "provider call", err)
	}
	return nil, ensureKind(err, domain.ErrProviderRequestFailed, "provider call")
}

// assemble validates obj for kind and merges record, confidence and uncertain paths.
func assemble(kind domain.SchemaKind, obj map[string]any) *domain.ExtractionResult {
	result := &domain.ExtractionResult{Kind: kind}
	switch kind {
	case domain.SchemaPrescription:
		prescription, uncertain := canonical.ValidatePrescription(obj)
		result.Prescription = &prescription
		result.Confidence = canonical.ScorePrescription(prescription)
		result.UncertainFields = uncertain
	default:
		report, uncertain := canonical.ValidateReport(obj)
		result.Report = &report
		result.Confidence = canonical.ScoreReport(report)
		result.UncertainFields = uncertain
	}
	return result
}

func (uc *ExtractUseCase) finish(
	ctx context.Context,
	kind domain.SchemaKind,
	trace extractionTrace,
	result *domain.ExtractionResult,
	err error,
	duration time.Duration,
) {
	requestID := domain.RequestIDFromContext(ctx)
	entry := domain.AuditEntry{
		ID:         uuid.NewString(),
		RequestID:  requestID,
		SchemaKind: kind,
		InputKind:  trace.input,
		Provider:   trace.provider,
		Outcome:    domain.OutcomeSucceeded,
		Duration:   duration,
		CreatedAt:  time.Now().UTC(),
	}
	if err != nil {
		entry.Outcome = domain.OutcomeFailed
		entry.ErrorKind = domain.KindOf(err)
		uc.logger.Warn("extraction_failed",
			"request_id", requestID,
			"kind", string(kind),
			"provider", string(trace.provider),
			"error_kind", entry.ErrorKind,
			"error", err,
			"duration_ms", float64(duration.Microseconds())/1000.0,
		)
	} else {
		entry.UncertainCount = len(result.UncertainFields)
		uc.logger.Info("extraction_completed",
			"request_id", requestID,
			"kind", string(kind),
			"input", string(trace.input),
			"provider", string(trace.provider),
			"uncertain_count", entry.UncertainCount,
			"duration_ms", float64(duration.Microseconds())/1000.0,
		)
	}

	if uc.observer != nil {
		uc.observer.ObserveExtraction(kind, trace.provider, string(entry.Outcome), entry.UncertainCount, duration)
	}
	if uc.audit != nil {
		auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if auditErr := uc.audit.Record(auditCtx, entry); auditErr != nil {
			uc.logger.Error("extraction_audit_failed", "request_id", requestID, "error", auditErr)
		}
	}
}

// WithCredentials binds credentials so the use case can serve inbound surfaces.
func (uc *ExtractUseCase) WithCredentials(creds domain.ProviderCredentials) *BoundExtractor {
	return &BoundExtractor{uc: uc, creds: creds}
}

// BoundExtractor is an ExtractUseCase with fixed provider credentials.
type BoundExtractor struct {
	uc    *ExtractUseCase
	creds domain.ProviderCredentials
}

func (b *BoundExtractor) Extract(ctx context.Context, kind domain.SchemaKind, input domain.ExtractionInput) (*domain.ExtractionResult, error) {
	return b.uc.Extract(ctx, kind, input, b.creds)
}

func ensureKind(err error, kind error, operation string) error {
	if domain.KindOf(err) != domain.KindInternal {
		return err
	}
	return domain.WrapError(kind, operation, err)
}
