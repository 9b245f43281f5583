package nats

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/health-record-extractor/internal/core/domain"
	"github.com/kirillkom/health-record-extractor/internal/infrastructure/resilience"
)

// undeliveredErrors mean the job never reached a worker, so sending it again
// cannot cause a second provider call.
var undeliveredErrors = []error{
	nats.ErrNoResponders,
	nats.ErrNoServers,
	nats.ErrConnectionClosed,
}

// lostReplyErrors may hit after a worker took the job. They count against the
// breaker and surface as Temporary, but are never retried.
var lostReplyErrors = []error{
	nats.ErrTimeout,
	nats.ErrDisconnected,
	nats.ErrConnectionReconnecting,
}

func classifyNATSError(err error) resilience.ErrorClassification {
	switch {
	case err == nil:
		return resilience.ErrorClassification{}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return resilience.ErrorClassification{}
	case resilience.IsCircuitOpen(err):
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	for _, undelivered := range undeliveredErrors {
		if errors.Is(err, undelivered) {
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		}
	}
	return resilience.ErrorClassification{RecordFailure: true}
}

func isLostReply(err error) bool {
	for _, lost := range lostReplyErrors {
		if errors.Is(err, lost) {
			return true
		}
	}
	return false
}

// wrapTemporaryIfNeeded marks broker failures as Temporary so callers can
// answer 503 and retry later. A request timeout is Temporary as well.
func wrapTemporaryIfNeeded(operation string, err error) error {
	switch {
	case err == nil:
		return nil
	case domain.IsKind(err, domain.ErrTemporary):
		return err
	case classifyNATSError(err).Retryable, isLostReply(err), errors.Is(err, context.DeadlineExceeded):
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}
