package httpadapter

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/kirillkom/health-record-extractor/internal/config"
	"github.com/kirillkom/health-record-extractor/internal/core/domain"
	"github.com/kirillkom/health-record-extractor/internal/core/ports"
	"github.com/kirillkom/health-record-extractor/internal/observability/metrics"
)

const serviceName = "extract-api"

type Router struct {
	cfg       config.Config
	extractor ports.DocumentExtractor
	audit     ports.ExtractionAuditReader
	metrics   *metrics.HTTPServerMetrics
}

type RouterOption func(*Router)

func WithAuditReader(audit ports.ExtractionAuditReader) RouterOption {
	return func(rt *Router) { rt.audit = audit }
}

func WithMetrics(m *metrics.HTTPServerMetrics) RouterOption {
	return func(rt *Router) { rt.metrics = m }
}

func NewRouter(cfg config.Config, extractor ports.DocumentExtractor, opts ...RouterOption) *Router {
	rt := &Router{
		cfg:       cfg,
		extractor: extractor,
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Handler wires the middleware chain, outermost first: request id, access log,
// metrics, rate limit, backpressure, body limit, OpenAPI validation.
func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/openapi.yaml", rt.openAPI)
	mux.HandleFunc("/v1/extract/report", rt.extract(domain.SchemaReport))
	mux.HandleFunc("/v1/extract/prescription", rt.extract(domain.SchemaPrescription))
	if rt.audit != nil {
		mux.HandleFunc("/v1/audit", rt.listAudit)
	}
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var onReject func(string)
	if rt.metrics != nil {
		onReject = func(reason string) { rt.metrics.RecordRejection(serviceName, reason) }
	}

	var handler http.Handler = mux
	handler = openAPIValidationMiddleware(handler, rt.cfg.APIMaxBodyBytes)
	handler = bodyLimitMiddleware(handler, rt.cfg.APIMaxBodyBytes)
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, rt.cfg.APIBackpressureWait, onReject)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst, onReject)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) openAPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed", Kind: domain.KindInvalidInput})
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(openAPIDocument)
}

func (rt *Router) extract(kind domain.SchemaKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed", Kind: domain.KindInvalidInput})
			return
		}

		var input domain.ExtractionInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			writeError(w, domain.WrapError(domain.ErrInvalidInput, "decode request", err))
			return
		}

		result, err := rt.extractor.Extract(r.Context(), kind, input)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func (rt *Router) listAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed", Kind: domain.KindInvalidInput})
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, domain.WrapError(domain.ErrInvalidInput, "parse limit", strconv.ErrSyntax))
			return
		}
		limit = parsed
	}

	entries, err := rt.audit.ListRecent(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
