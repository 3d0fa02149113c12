// Package middleware provides the HTTP middleware chain: request IDs,
// panic recovery, request logging, timeouts, latency metrics, and the
// request-body guards shared by JSON endpoints.
package middleware

import (
	"context"
	"mime"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"agentdir/internal/platform/metrics"
	"agentdir/pkg/platform/httputil"
	"agentdir/pkg/requestcontext"
)

// RequestIDHeader is the canonical header for request correlation.
const RequestIDHeader = "X-Request-ID"

// RequestID assigns each request a correlation ID. An inbound X-Request-ID is
// honored so upstream proxies can trace calls end to end; otherwise a UUID is
// generated. The ID is stored in the context and echoed in the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		w.Header().Set(RequestIDHeader, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	return requestcontext.RequestID(ctx)
}

// Recovery converts panics into 500 responses instead of dropped connections.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					ctx := r.Context()
					logger.ErrorContext(ctx, "panic recovered",
						"panic", rec,
						"request_id", GetRequestID(ctx),
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)
					httputil.WriteJSON(w, http.StatusInternalServerError,
						httputil.ErrorResponse{Error: "Internal server error"})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// Logger emits one structured log line per request after it completes.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			ctx := r.Context()
			logger.InfoContext(ctx, "http request",
				"request_id", GetRequestID(ctx),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"ip", requestcontext.ClientIP(ctx),
			)
		})
	}
}

// Timeout cancels the request context after the given duration. Handlers and
// the database driver observe the cancellation; if nothing was written by
// then, the client gets a 504.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer func() {
				cancel()
				if ctx.Err() == context.DeadlineExceeded {
					w.WriteHeader(http.StatusGatewayTimeout)
				}
			}()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LatencyMiddleware records request count and latency metrics per route.
// The chi route pattern is resolved after serving so the labels stay
// low-cardinality ("/api/managers", not each raw URL).
func LatencyMiddleware(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			m.ObserveRequest(r.Method, route, ww.Status(), time.Since(start))
		})
	}
}

// ContentTypeJSON rejects body-carrying requests whose Content-Type is not
// JSON. application/json and any +json suffix type are accepted; parameters
// such as charset are ignored.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			if !isJSONContentType(r.Header.Get("Content-Type")) {
				httputil.WriteJSON(w, http.StatusBadRequest,
					httputil.ErrorResponse{Error: "Content-Type must be application/json"})
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

func isJSONContentType(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// BodyLimit caps the request body size. Reads past the limit fail with
// http.MaxBytesError, which DecodeJSON maps to a stable 400 message.
func BodyLimit(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
