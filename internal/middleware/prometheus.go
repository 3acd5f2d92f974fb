package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/aaronlmathis/vizstream/internal/metrics"
)

const (
	streamPath    = "/api/data/stream"
	websocketPath = "/api/data/ws"
)

// PrometheusMiddleware records request counts and latencies. Live stream
// routes are passed through untouched; their handlers record connection
// metrics for the whole lifetime instead.
func PrometheusMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := sanitizePath(r.URL.Path)
		if isStreamPath(path) {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			// Handler wrote nothing
			status = http.StatusOK
		}
		metrics.RecordHTTPRequest(r.Method, path, status, time.Since(start))
	})
}

// RequestIDResponseMiddleware echoes chi's request id as X-Request-ID so
// clients can quote it when reporting a failed load
func RequestIDResponseMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reqID := middleware.GetReqID(r.Context()); reqID != "" {
			w.Header().Set("X-Request-ID", reqID)
		}
		next.ServeHTTP(w, r)
	})
}

func isStreamPath(path string) bool {
	return path == streamPath || path == websocketPath
}

// sanitizePath maps a request path to a bounded set of metric labels
func sanitizePath(path string) string {
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}

	if strings.HasPrefix(path, "/api/data/initial/") {
		return "/api/data/initial/:count"
	}

	switch path {
	case "/api/data/initial", "/api/data/generate", "/api/data/aggregate",
		streamPath, websocketPath, "/api/health",
		"/healthz", "/version", "/metrics":
		return path
	}
	return "other"
}
