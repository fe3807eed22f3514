package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/metasearch/internal/backend"
	"github.com/kailas-cloud/metasearch/internal/domain"
	"github.com/kailas-cloud/metasearch/internal/logger"
	healthuc "github.com/kailas-cloud/metasearch/internal/usecase/health"
)

// previewScanDepth is how many leading items are considered for an
// embedded preview.
const previewScanDepth = 6

const maxBodyBytes = 1 << 20

// Error codes returned in the JSON error body.
const (
	CodeBadRequest       = "bad_request"
	CodeBadQuery         = "bad_query"
	CodeValidationFailed = "validation_failed"
	CodeUnauthorized     = "unauthorized"
	CodeUnknownBackend   = "unknown_backend"
	CodeUnknownMethod    = "unknown_method"
	CodeUpstreamFailure  = "upstream_failure"
	CodeTimeout          = "timeout"
	CodeCanceled         = "request_canceled"
	CodeInternalError    = "internal_error"
)

// statusClientClosedRequest is the non-standard status for a cancelled request.
const statusClientClosedRequest = 499

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the metasearch HTTP API.
type Server struct {
	search        SearchService
	preview       PreviewService
	health        HealthService
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search SearchService, preview PreviewService, health HealthService, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		search:  search,
		preview: preview,
		health:  health,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		badQueryHandler,
		sentinelHandler(domain.ErrValidationFailed, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrUnknownBackend, http.StatusNotFound, CodeUnknownBackend),
		sentinelHandler(domain.ErrUnknownMethod, http.StatusNotFound, CodeUnknownMethod),
		sentinelHandler(domain.ErrUpstreamFailure, http.StatusBadGateway, CodeUpstreamFailure),
		sentinelHandler(context.DeadlineExceeded, http.StatusGatewayTimeout, CodeTimeout),
		sentinelHandler(context.Canceled, statusClientClosedRequest, CodeCanceled),
	}
	return s
}

// Routes registers the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/search", s.Search)
		r.Post("/suggestions", s.Suggestions)
		r.Post("/preview", s.Preview)
		r.Get("/backends/{name}/{method}", s.PublicMethod)
	})
}

type searchRequest struct {
	Query    string            `json:"query"`
	Category string            `json:"category,omitempty"`
	Filter   map[string]string `json:"filter,omitempty"`
	Locale   string            `json:"locale,omitempty"`
}

type previewRequest struct {
	URL string `json:"url"`
}

type publicMethodResponse struct {
	Result any `json:"result"`
}

// Search handles POST /api/search.
// Full page loads also get the preview of the first previewable item.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "query is required")
		return
	}

	rc := RequestContextFrom(r)
	if req.Locale != "" {
		rc.Locale = req.Locale
	}
	opts := backend.Options{Category: req.Category, Filters: req.Filter, XHR: isXHR(r)}

	res, err := s.search.Search(r.Context(), req.Query, rc, opts)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	if !opts.XHR && s.preview != nil {
		for i, it := range res.Items {
			if i >= previewScanDepth {
				break
			}
			if it.Preview == nil || !*it.Preview {
				continue
			}
			p, err := s.preview.Preview(r.Context(), it.Link, rc)
			if err != nil {
				logger.FromContext(r.Context()).Warn("Embedded preview failed",
					zap.String("link", it.Link), zap.Error(err))
			}
			res.Preview = p
			break
		}
	}

	writeJSON(w, http.StatusOK, res)
}

// Suggestions handles POST /api/suggestions.
func (s *Server) Suggestions(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.search.Suggest(r.Context(), req.Query, RequestContextFrom(r), backend.Options{Category: req.Category})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Preview handles POST /api/preview. A link without a preview, or a failed
// preview, answers 200 with a null body.
func (s *Server) Preview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if !s.decode(w, r, &req) {
		return
	}
	if !isAbsoluteURL(req.URL) {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "url must be an absolute http(s) URL")
		return
	}

	res, err := s.preview.Preview(r.Context(), req.URL, RequestContextFrom(r))
	if err != nil {
		logger.FromContext(r.Context()).Warn("Preview failed", zap.String("link", req.URL), zap.Error(err))
		res = nil
	}
	writeJSON(w, http.StatusOK, res)
}

// PublicMethod handles GET /api/backends/{name}/{method}.
func (s *Server) PublicMethod(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	method := chi.URLParam(r, "method")

	out, err := s.search.InvokePublicMethod(r.Context(), name, method, r.URL.Query())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, publicMethodResponse{Result: out})
}

type healthResponse struct {
	Status   healthuc.Status                 `json:"status"`
	Checks   map[string]healthuc.CheckResult `json:"checks"`
	Backends int                             `json:"backends"`
	Previews int                             `json:"previews"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status:   report.Status,
		Checks:   report.Checks,
		Backends: report.Backends,
		Previews: report.Previews,
	})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrValidationFailed,
		domain.ErrUnknownBackend,
		domain.ErrUnknownMethod,
		domain.ErrUpstreamFailure,
		domain.ErrBackendContract,
		context.DeadlineExceeded,
		context.Canceled,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// badQueryHandler exposes the notice carried by a bad query.
func badQueryHandler(w http.ResponseWriter, err error, _ string) bool {
	var bq *domain.BadQueryError
	if !errors.As(err, &bq) {
		return false
	}
	writeError(w, http.StatusBadRequest, CodeBadQuery, bq.Message)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, msg)
}
