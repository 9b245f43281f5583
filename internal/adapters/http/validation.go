package httpadapter

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	legacyrouter "github.com/getkin/kin-openapi/routers/legacy"

	"github.com/kirillkom/health-record-extractor/internal/core/domain"
)

//go:embed openapi.yaml
var openAPIDocument []byte

var loadOpenAPIRouter = sync.OnceValues(func() (routers.Router, error) {
	// Schema errors would otherwise echo request values, including document data.
	openapi3.SchemaErrorDetailsDisabled = true

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openAPIDocument)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("validate openapi document: %w", err)
	}
	router, err := legacyrouter.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build openapi router: %w", err)
	}
	return router, nil
})

// openAPIValidationMiddleware rejects requests that do not match the embedded
// OpenAPI document. Unknown paths fall through to the mux.
func openAPIValidationMiddleware(next http.Handler, maxBodyBytes int64) http.Handler {
	router, err := loadOpenAPIRouter()
	if err != nil {
		panic(err)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route, pathParams, err := router.FindRoute(r)
		if err != nil {
			if isMethodNotAllowed(err) {
				writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed", Kind: domain.KindInvalidInput})
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		input := &openapi3filter.RequestValidationInput{
			Request:    r,
			PathParams: pathParams,
			Route:      route,
			Options: &openapi3filter.Options{
				AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
			},
		}
		if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeTooLarge(w, maxBodyBytes)
				return
			}
			if errors.Is(err, context.Canceled) {
				writeError(w, domain.WrapError(domain.ErrCancelled, "validate request", err))
				return
			}
			writeError(w, domain.WrapError(domain.ErrInvalidInput, "validate request", err))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isMethodNotAllowed(err error) bool {
	if errors.Is(err, routers.ErrMethodNotAllowed) {
		return true
	}
	var routeErr *routers.RouteError
	return errors.As(err, &routeErr) && routeErr.Reason == routers.ErrMethodNotAllowed.Error()
}
