// Package apiserver exposes the transcript service over HTTP.
package apiserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/limiter"
)

// Options wires a Server. Fetcher, Limiter and APIKey are required.
type Options struct {
	Version          string
	APIKey           string
	Fetcher          engine.TranscriptFetcher
	Limiter          *limiter.Limiter
	DefaultLimits    []limiter.Limit // every rate-limited route
	TranscriptLimits []limiter.Limit // stacked on top for transcript routes
	TrustProxy       bool            // caller identity from X-Forwarded-For / X-Real-IP
	MCPEnabled       bool
	Metrics          *engine.Metrics
	Gatherer         prometheus.Gatherer // nil = no /metrics route
}

// Server holds the process-wide state handlers need: the API key, the limiter
// and the upstream client. It is built once in main and never mutated.
type Server struct {
	opts             Options
	apiKey           []byte
	transcriptLimits []limiter.Limit
}

// New creates a Server.
func New(opts Options) *Server {
	stacked := make([]limiter.Limit, 0, len(opts.DefaultLimits)+len(opts.TranscriptLimits))
	stacked = append(stacked, opts.DefaultLimits...)
	stacked = append(stacked, opts.TranscriptLimits...)
	return &Server{
		opts:             opts,
		apiKey:           []byte(opts.APIKey),
		transcriptLimits: stacked,
	}
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if s.opts.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not Found", "no such endpoint")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed", "only GET is supported")
	})

	r.Get("/health", s.handleHealth)
	if s.opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.With(s.rateLimit(s.opts.DefaultLimits)).Get("/", s.handleRoot)
	r.With(s.rateLimit(s.transcriptLimits), s.requireAPIKey).
		Get("/transcript/{videoID}", s.handleTranscript)

	if s.opts.MCPEnabled {
		// One MCP session spans several HTTP exchanges, so only the default
		// limits apply here; tool calls draw on the transcript limits.
		r.With(s.rateLimit(s.opts.DefaultLimits), s.requireAPIKey).
			Handle("/mcp", s.mcpHandler())
	}
	return r
}
