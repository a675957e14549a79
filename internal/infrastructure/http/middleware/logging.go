package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	ctxutil "exemplo.com.br/creditos/internal/infrastructure/context"
	"exemplo.com.br/creditos/internal/infrastructure/security"
)

// CorrelationHeader carries the correlation ID between the two services.
const CorrelationHeader = "X-Correlation-ID"

type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

// RequestLogger logs one line per request and stores the correlation ID in
// the request context. An incoming X-Correlation-ID wins over the chi
// request ID so a lookup can be followed from the page to the database.
// Levels: Info for 2xx/3xx, Warn for 4xx, Error for 5xx.
func RequestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chimw.GetReqID(r.Context())
			correlationID := r.Header.Get(CorrelationHeader)
			if correlationID == "" {
				correlationID = requestID
			}
			ctx := ctxutil.WithCorrelationID(r.Context(), correlationID)
			if correlationID != "" {
				w.Header().Set(CorrelationHeader, correlationID)
			}

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r.WithContext(ctx))

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
				"status", rw.statusCode,
				"duration_ms", float64(time.Since(start).Nanoseconds()) / 1e6,
				"bytes", rw.bytesWritten,
			}
			if r.URL.RawQuery != "" {
				attrs = append(attrs, "url", security.SanitizeURL(r.URL.String()))
			}
			if correlationID != "" {
				attrs = append(attrs, "correlation_id", correlationID)
			}
			if requestID != "" && requestID != correlationID {
				attrs = append(attrs, "request_id", requestID)
			}
			if userAgent := r.Header.Get("User-Agent"); userAgent != "" {
				attrs = append(attrs, "user_agent", userAgent)
			}

			switch {
			case rw.statusCode >= 500:
				log.Error("HTTP request", attrs...)
			case rw.statusCode >= 400:
				log.Warn("HTTP request", attrs...)
			default:
				log.Info("HTTP request", attrs...)
			}
		})
	}
}
