package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/health-record-extractor/internal/core/domain"
	"github.com/kirillkom/health-record-extractor/internal/core/ports"
	"github.com/kirillkom/health-record-extractor/internal/infrastructure/resilience"
)

const (
	maxErrorBodyBytes    = 2048
	maxResponseBodyBytes = 8 << 20
)

// HTTPTransport posts provider payloads. Calls go through the resilience
// executor so a failing provider trips its own breaker.
type HTTPTransport struct {
	httpClient *http.Client
	executor   *resilience.Executor
}

func NewHTTPTransport(timeout time.Duration, executor *resilience.Executor) *HTTPTransport {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &HTTPTransport{
		httpClient: &http.Client{Timeout: timeout},
		executor:   executor,
	}
}

func (t *HTTPTransport) Send(ctx context.Context, payload ports.ProviderPayload) ([]byte, error) {
	var body []byte
	call := func(callCtx context.Context) error {
		out, err := t.post(callCtx, payload)
		if err != nil {
			return err
		}
		body = out
		return nil
	}

	var err error
	if t.executor != nil {
		err = t.executor.Execute(ctx, "provider."+string(payload.Provider), call, classifyProviderError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, wrapProviderError(payload.Provider, err)
	}
	return body, nil
}

func (t *HTTPTransport) post(ctx context.Context, payload ports.ProviderPayload) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, payload.URL, bytes.NewReader(payload.Body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for name, value := range payload.Headers {
		req.Header.Set(name, value)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, &domain.ProviderError{Provider: payload.Provider, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, &domain.ProviderError{
			Provider:   payload.Provider,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if err != nil {
		return nil, &domain.ProviderError{Provider: payload.Provider, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}

func wrapProviderError(provider domain.ProviderName, err error) error {
	if domain.KindOf(err) != domain.KindInternal {
		return err
	}
	var providerErr *domain.ProviderError
	if !errors.As(err, &providerErr) {
		err = &domain.ProviderError{Provider: provider, Err: err}
	}
	return domain.WrapError(domain.ErrProviderRequestFailed, "provider call", err)
}
