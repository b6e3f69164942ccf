package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// maxLoggedBody caps request and response bodies written to DEBUG logs
const maxLoggedBody = 4096

// responseWriter wraps http.ResponseWriter to capture status code and response body
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
	body       *bytes.Buffer
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	if !rw.written {
		rw.statusCode = statusCode
		rw.written = true
		rw.ResponseWriter.WriteHeader(statusCode)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	if rw.body != nil && rw.body.Len() < maxLoggedBody {
		rw.body.Write(b)
	}
	return rw.ResponseWriter.Write(b)
}

// Logging logs every request. Completed requests are logged at INFO, 4xx at WARN and
// 5xx at ERROR. At DEBUG level query parameters and JSON bodies are included.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		debug := slog.Default().Enabled(r.Context(), slog.LevelDebug)

		var requestBody []byte
		if debug && r.Body != nil && isJSON(r.Header.Get("Content-Type")) {
			requestBody, _ = io.ReadAll(io.LimitReader(r.Body, maxLoggedBody))
			r.Body = readCloser{io.MultiReader(bytes.NewReader(requestBody), r.Body), r.Body}
		}

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}
		if debug {
			wrapped.body = &bytes.Buffer{}
		}

		next.ServeHTTP(wrapped, r)

		attrs := []any{
			"request_id", GetRequestID(r),
			"remote_ip", getIP(r),
			"user_agent", r.UserAgent(),
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
		}

		if debug {
			if len(r.URL.Query()) > 0 {
				attrs = append(attrs, "query_params", r.URL.Query())
			}
			if len(requestBody) > 0 {
				attrs = append(attrs, "request_body", string(requestBody))
			}
			if wrapped.body.Len() > 0 && isJSON(wrapped.Header().Get("Content-Type")) {
				attrs = append(attrs, "response_body", wrapped.body.String())
			}
		}

		switch {
		case wrapped.statusCode >= 500:
			slog.Error("Request failed with error", attrs...)
		case wrapped.statusCode >= 400:
			slog.Warn("Request failed", attrs...)
		default:
			slog.Info("Request completed", attrs...)
		}
	})
}

type readCloser struct {
	io.Reader
	io.Closer
}

func isJSON(contentType string) bool {
	return len(contentType) >= 16 && contentType[:16] == "application/json"
}
