package middleware

import (
	"net/http"
	"time"

	"resonance/pkg/logger"
)

// statusWriter перехватывает код ответа
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// Logging логирует запросы с дополнительной информацией
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		duration := time.Since(start)

		logFields := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration_ms", duration.Milliseconds(),
		}

		if id := GetRequestID(r.Context()); id != "" {
			logFields = append(logFields, "request_id", id)
		}

		if sw.status >= http.StatusInternalServerError {
			logger.Log.Error("Request failed", logFields...)
		} else {
			logger.Log.Info("Request completed", logFields...)
		}
	})
}
