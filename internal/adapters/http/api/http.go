// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"

	"github.com/okian/mvp/internal/domain/model"
	"github.com/okian/mvp/pkg/logger"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// ListExamples returns every record in its fixed order.
	ListExamples(ctx context.Context) ([]Record, error)

	// GetExample returns one record; the error wraps repository.ErrNotFound
	// when the id is unknown.
	GetExample(ctx context.Context, id string) (Record, error)
}

// Record mirrors the read shape returned by example queries.
type Record = model.Record

// Server wires HTTP routes for the business API.
type Server struct {
	rootHandler     *RootHandler
	examplesHandler *ExamplesHandler
	statsHandler    *StatsHandler
	metricsHandler  *MetricsHandler

	logger           logger.Logger
	metricsPath      string
	serviceName      string
	allowedOrigins   []string
	allowCredentials bool
	tracerProvider   trace.TracerProvider
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithLogger sets the logger used by handlers and middleware.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetricsPath sets where Prometheus metrics are exposed. An empty path
// disables the endpoint.
func WithMetricsPath(path string) Option {
	return func(s *Server) {
		s.metricsPath = path
	}
}

// WithCORS sets the allowed origins and whether credentials are allowed.
func WithCORS(origins []string, allowCredentials bool) Option {
	return func(s *Server) {
		s.allowedOrigins = origins
		s.allowCredentials = allowCredentials
	}
}

// WithServiceName names the server span created for each request.
func WithServiceName(name string) Option {
	return func(s *Server) {
		if name != "" {
			s.serviceName = name
		}
	}
}

// WithTracerProvider sets the provider for server spans. Without it the
// global provider is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Server) {
		s.tracerProvider = tp
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		metricsPath:      "/metrics",
		serviceName:      "mvp-api",
		allowedOrigins:   []string{"*"},
		allowCredentials: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("api")
	}

	s.rootHandler = NewRootHandler()
	s.examplesHandler = NewExamplesHandler(deps, s.logger)
	s.statsHandler = NewStatsHandler(statsProvider)
	s.metricsHandler = NewMetricsHandler()
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.HandleFunc("GET /{$}", MetricsMiddleware(s.rootHandler.HandleRoot, "root"))
	mux.HandleFunc("GET /healthcheck", MetricsMiddleware(s.rootHandler.HandleHealthcheck, "healthcheck"))
	mux.HandleFunc("GET /api/example", MetricsMiddleware(s.rootHandler.HandleExample, "example"))
	mux.HandleFunc("GET /api/examples", MetricsMiddleware(s.examplesHandler.HandleList, "examples"))
	mux.HandleFunc("GET /api/examples/{id}", MetricsMiddleware(s.examplesHandler.HandleGet, "example_by_id"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	if s.metricsPath != "" {
		mux.HandleFunc("GET "+s.metricsPath, s.metricsHandler.HandleMetrics)
	}
}

// Wrap applies the cross-cutting middleware chain around next. Outermost
// first: tracing, CORS, request id, access log, panic recovery.
func (s *Server) Wrap(next http.Handler) http.Handler {
	h := RecoverMiddleware(next, s.logger)
	h = AccessLogMiddleware(h, s.logger)
	h = RequestIDMiddleware(h)
	h = s.cors().Handler(h)

	var opts []otelhttp.Option
	if s.tracerProvider != nil {
		opts = append(opts, otelhttp.WithTracerProvider(s.tracerProvider))
	}
	return otelhttp.NewHandler(h, s.serviceName, opts...)
}

// Handler returns a fully wired handler serving only the API routes.
func (s *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	s.Register(ctx, mux)
	return s.Wrap(mux)
}

// cors builds the CORS handler. Browsers reject a literal "*" origin on
// credentialed responses, so a wildcard with credentials echoes the caller's
// Origin instead.
func (s *Server) cors() *cors.Cors {
	opts := cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: s.allowCredentials,
	}
	if s.allowCredentials && slices.Contains(s.allowedOrigins, "*") {
		opts.AllowedOrigins = nil
		opts.AllowOriginFunc = func(string) bool { return true }
	}
	return cors.New(opts)
}

type messageResponse struct {
	Message string `json:"message"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Detail: msg})
}
