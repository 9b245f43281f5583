package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestKindOfWrappedErrors(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{WrapError(ErrInvalidInput, "normalize", errors.New("empty")), KindInvalidInput},
		{fmt.Errorf("outer: %w", WrapError(ErrMalformedJSON, "parse", errors.New("bad"))), KindMalformedJSON},
		{WrapError(ErrProviderRequestFailed, "send", context.DeadlineExceeded), KindProviderRequestFailed},
		{WrapError(ErrCancelled, "send", context.Canceled), KindCancelled},
		{errors.New("boom"), KindInternal},
		{nil, ""},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Fatalf("KindOf(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestKindErrorRoundTrip(t *testing.T) {
	for _, k := range errorKinds {
		if got := KindError(k.name); got != k.err {
			t.Fatalf("KindError(%q) = %v, want %v", k.name, got, k.err)
		}
	}
	if KindError("Nope") != nil {
		t.Fatalf("expected nil for unknown kind")
	}
}

func TestProviderErrorUnwraps(t *testing.T) {
	err := WrapError(ErrProviderRequestFailed, "send", &ProviderError{Provider: ProviderGemini, Err: context.DeadlineExceeded})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected provider error to unwrap to deadline exceeded")
	}
	var providerErr *ProviderError
	if !errors.As(err, &providerErr) || providerErr.Provider != ProviderGemini {
		t.Fatalf("expected ProviderError in chain, got %v", err)
	}

	statusErr := &ProviderError{Provider: ProviderOpenAI, StatusCode: 429, Body: " rate limited "}
	if statusErr.Error() != "openai status 429: rate limited" {
		t.Fatalf("unexpected message %q", statusErr.Error())
	}
}
