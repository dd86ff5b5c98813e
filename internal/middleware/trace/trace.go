// Package trace assigns every request an id and logs start/completion
// with the shared field names, so a single request can be followed across
// handler and service logs.
package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"vydaje/internal/log"
)

var requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vydaje_http_requests_total",
	Help: "HTTP requests served, by method and status code.",
}, []string{"method", "status"})

// ContextKey types the values this package stores on request contexts.
type ContextKey string

// RequestIDKey is the context key under which the request id travels.
const RequestIDKey ContextKey = "request_id"

// Middleware traces requests for one server instance.
type Middleware struct {
	logger *log.Logger
}

func NewMiddleware(logger *log.Logger) *Middleware {
	return &Middleware{logger: logger.WithComponent(log.ComponentTrace)}
}

// Handler wraps next with request-id generation and request logging.
// Responses at or above 400 log at warn, 500 at error.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := GenerateRequestID()
		clientIP := ClientIP(r)

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		r = r.WithContext(ctx)

		m.logger.Debug("request started",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldClientIP, clientIP,
		)

		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		requestsTotal.WithLabelValues(r.Method, fmt.Sprintf("%d", rw.status)).Inc()

		logFn := m.logger.Info
		switch {
		case rw.status >= 500:
			logFn = m.logger.Error
		case rw.status >= 400:
			logFn = m.logger.Warn
		}
		logFn("request completed",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.status,
			log.FieldDuration, time.Since(start).Milliseconds(),
			log.FieldClientIP, clientIP,
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// GenerateRequestID returns a random id, falling back to a timestamp when
// the entropy source fails.
func GenerateRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(b)
}

// GetRequestID extracts the request id from ctx, or "" when absent.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// ClientIP resolves the caller's address, preferring proxy headers over the
// raw remote address.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return real
	}
	return r.RemoteAddr
}
