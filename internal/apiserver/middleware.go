package apiserver

import (
	"crypto/subtle"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/anatolykoptev/go_transcript/internal/limiter"
)

const (
	headerAPIKey = "X-API-Key"
	queryAPIKey  = "api_key"
)

// logRequests logs every request and records HTTP metrics.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			elapsed := time.Since(start)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := routePattern(r)
			s.opts.Metrics.ObserveHTTP(route, strconv.Itoa(status), elapsed)

			level := slog.LevelDebug
			if status >= http.StatusInternalServerError {
				level = slog.LevelError
			} else if r.URL.Path != "/health" && r.URL.Path != "/metrics" {
				level = slog.LevelInfo
			}
			slog.Log(r.Context(), level, "http request",
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("route", route),
				slog.String("remote_addr", callerIdentity(r)),
				slog.Int("status", status),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", elapsed),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// routePattern returns the matched chi pattern, keeping metric label cardinality bounded.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// rateLimit rejects requests whose caller has exhausted any of limits.
// It runs before authentication, so unauthenticated requests consume budget too.
func (s *Server) rateLimit(limits []limiter.Limit) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(limits) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			d := s.opts.Limiter.Allow(callerIdentity(r), limits...)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit.Count))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))

			if !d.Allowed {
				s.opts.Metrics.IncRateLimited()
				retry := d.RetryAfter(time.Now())
				w.Header().Set("Retry-After", strconv.Itoa(int(retry/time.Second)))
				slog.Warn("rate limit exceeded",
					slog.String("caller", callerIdentity(r)),
					slog.String("limit", d.Limit.String()),
					slog.String("scope", d.Limit.Scope))
				writeError(w, http.StatusTooManyRequests, "Too Many Requests",
					"rate limit exceeded: "+d.Limit.String())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requireAPIKey lets the request through only with the configured key.
// The X-API-Key header takes precedence over the api_key query parameter.
func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.authorized(suppliedKey(r)) {
			s.opts.Metrics.IncAuthFailures()
			writeError(w, http.StatusUnauthorized, "Unauthorized",
				"Valid API key required. Provide it in the X-API-Key header or the api_key query parameter.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func suppliedKey(r *http.Request) string {
	if k := r.Header.Get(headerAPIKey); k != "" {
		return k
	}
	return r.URL.Query().Get(queryAPIKey)
}

func (s *Server) authorized(key string) bool {
	if key == "" || len(s.apiKey) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), s.apiKey) == 1
}

// callerIdentity keys rate-limit counters: the remote host without port.
func callerIdentity(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
