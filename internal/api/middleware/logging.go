package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Logger emits one structured line per request. When Authenticate
// resolved the caller, the line also carries the tenant id and API key
// prefix, so per-tenant traffic can be filtered without joining logs
// against the directory.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		ctx, ann := withLogAnnotations(r.Context())
		next.ServeHTTP(rec, r.WithContext(ctx))

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"remote_addr", r.RemoteAddr,
		}
		if tenantID, keyPrefix := ann.snapshot(); tenantID != "" {
			attrs = append(attrs, "tenant_id", tenantID, "key_prefix", keyPrefix)
		}
		slog.Info("request", attrs...)
	})
}
