package httpadapter

import (
	"errors"
	"net/http"

	"github.com/kirillkom/health-record-extractor/internal/core/domain"
)

// statusClientClosedRequest is the nginx convention for a caller that went away.
const statusClientClosedRequest = 499

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Kind    string `json:"kind"`
}

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrCancelled):
		return statusClientClosedRequest
	case domain.IsKind(err, domain.ErrInvalidInput):
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return http.StatusRequestEntityTooLarge
		}
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrNoJSONFound), domain.IsKind(err, domain.ErrMalformedJSON):
		return http.StatusUnprocessableEntity
	case domain.IsKind(err, domain.ErrEmptyProviderResponse), domain.IsKind(err, domain.ErrProviderRequestFailed):
		return http.StatusBadGateway
	case domain.IsKind(err, domain.ErrNoProviderConfigured), domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	kind := domain.KindOf(err)
	writeJSON(w, mapErrorToHTTPStatus(err), errorResponse{
		Error:   domain.HumanMessage(kind),
		Details: err.Error(),
		Kind:    kind,
	})
}
