// Package chi exposes the search engine over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/huythanhnguyen/ddv/internal/domain"
	"github.com/huythanhnguyen/ddv/internal/domain/catalog"
	"github.com/huythanhnguyen/ddv/internal/domain/search/request"
	reindexuc "github.com/huythanhnguyen/ddv/internal/usecase/reindex"
	searchuc "github.com/huythanhnguyen/ddv/internal/usecase/search"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// ProductReader resolves single catalog documents for the product endpoint.
type ProductReader interface {
	Get(id string) (catalog.Document, bool)
	Len() int
}

// Pinger reports backend connectivity for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP API server.
type Server struct {
	search        *searchuc.Service
	reindex       *reindexuc.Service
	products      ProductReader
	pinger        Pinger
	feedPath      string
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. feedPath is the catalog feed used
// when a reindex request carries no inline documents.
func NewServer(
	search *searchuc.Service,
	reindex *reindexuc.Service,
	products ProductReader,
	pinger Pinger,
	feedPath string,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:   search,
		reindex:  reindex,
		products: products,
		pinger:   pinger,
		feedPath: feedPath,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, codeInvalidRequest),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrReindexInProgress, http.StatusConflict, codeReindexInProgress),
		sentinelHandler(domain.ErrEmptyFeed, http.StatusBadRequest, codeEmptyFeed),
		sentinelHandler(domain.ErrReindexFailed, http.StatusBadGateway, codeReindexFailed),
	}
	return s
}

// Routes mounts all handlers on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/search", s.Search)
		r.Post("/reindex", s.Reindex)
		r.Get("/products/{id}", s.GetProduct)
	})
}

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type searchResponse struct {
	*searchuc.Response
	Total  int   `json:"total"`
	TookMS int64 `json:"took_ms"`
}

// Search handles POST /v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var body searchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "Invalid request body: "+err.Error())
		return
	}

	req, err := request.New(body.Query, body.Limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	start := time.Now()
	resp, err := s.search.Search(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Response: resp,
		Total:    len(resp.Products),
		TookMS:   time.Since(start).Milliseconds(),
	})
}

type reindexRequest struct {
	Documents []catalog.Document `json:"documents"`
}

type reindexResponse struct {
	JobID       string `json:"job_id"`
	Total       int    `json:"total"`
	Indexed     int    `json:"indexed"`
	Quarantined int    `json:"quarantined"`
	TookMS      int64  `json:"took_ms"`
}

// Reindex handles POST /v1/reindex. Documents may be supplied inline; an
// empty body reloads the configured feed file.
func (s *Server) Reindex(w http.ResponseWriter, r *http.Request) {
	// An empty body is allowed and means "reload the feed file".
	var body reindexRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "Invalid request body: "+err.Error())
		return
	}

	var (
		report *reindexuc.Report
		err    error
	)
	if len(body.Documents) > 0 {
		report, err = s.reindex.Reindex(r.Context(), body.Documents)
	} else {
		report, err = s.reindex.ReindexFromFile(r.Context(), s.feedPath)
	}
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reindexResponse{
		JobID:       report.JobID,
		Total:       report.Total,
		Indexed:     report.Indexed,
		Quarantined: report.Quarantined,
		TookMS:      report.Took.Milliseconds(),
	})
}

// GetProduct handles GET /v1/products/{id}.
func (s *Server) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, ok := s.products.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, codeNotFound, "product not found")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "healthy", Checks: map[string]string{}}
	httpStatus := http.StatusOK

	if err := s.pinger.Ping(r.Context()); err != nil {
		// Search degrades to the fallback ranker while the store is down,
		// so the process stays "degraded", not "unhealthy".
		resp.Checks["store"] = "unreachable"
		resp.Status = "degraded"
	} else {
		resp.Checks["store"] = "ok"
	}

	if s.products.Len() == 0 {
		resp.Checks["catalog"] = "empty"
		resp.Status = "degraded"
	} else {
		resp.Checks["catalog"] = "ok"
	}

	writeJSON(w, httpStatus, resp)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

type errorCode string

const (
	codeInvalidRequest    errorCode = "invalid_request"
	codeNotFound          errorCode = "not_found"
	codeReindexInProgress errorCode = "reindex_in_progress"
	codeReindexFailed     errorCode = "reindex_failed"
	codeEmptyFeed         errorCode = "empty_feed"
	codeInternalError     errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidRequest,
		domain.ErrNotFound,
		domain.ErrReindexInProgress,
		domain.ErrReindexFailed,
		domain.ErrEmptyFeed,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
